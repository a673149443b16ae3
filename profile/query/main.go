// Profiling:
// go build ./profile/query
// go tool pprof -http=":8000" -nodefraction=0.001 ./query cpu.pprof

package main

import (
	"github.com/pkg/profile"
	"github.com/rs/zerolog"

	"github.com/edwinsyarief/hako"
)

type comp1 struct {
	V int64
	W int64
}

type comp2 struct {
	V int64
	W int64
}

type comp3 struct {
	V int64
	W int64
}

func main() {
	rounds := 10
	iters := 1000
	entities := 100000
	p := profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook)
	run(rounds, iters, entities)
	p.Stop()
}

func run(rounds, iters, numEntities int) {
	for range rounds {
		w := hako.NewWorld(hako.WithWorkers(1), hako.WithInitialCapacity(numEntities), hako.WithLogger(zerolog.Nop()))
		hako.NewBuilder3[comp1, comp2, comp3](w.GetCommandBuffer(0)).
			NewEntities(nil, numEntities, comp1{}, comp2{V: 1, W: 1}, comp3{})
		w.ExecuteCommands()
		query := hako.NewQuery(hako.Write[comp1](), hako.Read[comp2]())

		for range iters {
			it := query.Iter(w)
			for it.Next() {
				c1, c2 := hako.Get[comp1](&it), hako.Get[comp2](&it)
				for i := range c1 {
					c1[i].V += c2[i].V
					c1[i].W += c2[i].W
				}
			}
		}
	}
}
