// Profiling:
// go build ./profile/entities
// go tool pprof -http=":8000" -nodefraction=0.001 ./entities mem.pprof

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

func main() {
	rounds := 20
	iters := 1000
	entities := 1000
	p := profile.Start(profile.MemProfileAllocs, profile.ProfilePath("."), profile.NoShutdownHook)
	run(rounds, iters, entities)
	p.Stop()
}

// run spawns, iterates and destroys numEntities entities per iteration.
func run(rounds, iters, numEntities int) {
	for range rounds {
		w := hako.NewWorld(hako.WithWorkers(1), hako.WithInitialCapacity(numEntities), hako.WithLogger(zerolog.Nop()))
		cb := w.GetCommandBuffer(0)
		query := hako.NewQuery2[comp1, comp2]()
		builder := hako.NewBuilder2[comp1, comp2](cb)
		entities := make([]hako.Entity, 0, numEntities)

		for range iters {
			builder.NewEntities(entities[:0], numEntities, comp1{}, comp2{V: 1, W: 1})
			w.ExecuteCommands()

			entities = entities[:0]
			query.Each(w, func(e hako.Entity, c1 *comp1, c2 *comp2) {
				entities = append(entities, e)
				c1.V += c2.V
				c1.W += c2.W
			})
			cb.DestroyEntityBatch(entities)
			w.ExecuteCommands()
		}
	}
}
