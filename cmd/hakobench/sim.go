package main

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/edwinsyarief/hako"
	"github.com/edwinsyarief/hako/config"
	"github.com/edwinsyarief/hako/internal/metrics"
)

type Position struct {
	X, Y float64
}

type Velocity struct {
	X, Y float64
}

// Lifetime counts down once per frame; the entity is destroyed at zero.
type Lifetime struct {
	Frames int
}

// Sleeping marks entities the movement system skips.
type Sleeping struct{}

type report struct {
	Frames  int           `json:"frames"`
	Spawned int           `json:"spawned"`
	Expired int           `json:"expired"`
	Elapsed time.Duration `json:"elapsed_ns"`
	Bench   config.Bench  `json:"bench"`
	World   hako.Stats    `json:"world"`
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger, client metrics.Client) (report, error) {
	w := hako.NewWorld(hako.WithConfig(cfg.World), hako.WithLogger(log), hako.WithMetrics(client))
	moving := hako.NewQuery2[Position, Velocity]()
	aging := hako.NewQuery1[Lifetime]()
	sleepID := hako.ComponentID[Sleeping]()

	hako.AddResource(w, &cfg.Bench)
	rep := report{Bench: cfg.Bench}
	hako.OnComponentRemoved(w, func(hako.ComponentRemoved[Lifetime]) { rep.Expired++ })

	start := time.Now()
	workers := w.Workers()
	perWorker := cfg.Bench.SpawnPerFrame / workers
	var live []hako.Entity
	for frame := range cfg.Bench.Frames {
		live = live[:0]
		aging.Batches(w, func(es []hako.Entity, _ []Lifetime) { live = append(live, es...) })

		g, gctx := errgroup.WithContext(ctx)
		for i := range workers {
			cb := w.GetCommandBuffer(i)
			g.Go(func() error {
				produce(w, cb, rand.New(rand.NewPCG(uint64(frame), uint64(i))), perWorker, sleepID, live, i, workers)
				return gctx.Err()
			})
		}
		if err := g.Wait(); err != nil {
			return rep, eris.Wrapf(err, "frame %d", frame)
		}
		w.ExecuteCommands()
		rep.Spawned += perWorker * workers

		it := moving.Iter(w)
		for it.Next() {
			if it.Archetype().Has(sleepID) {
				continue
			}
			pos, vel := hako.Get[Position](&it), hako.Get[Velocity](&it)
			for i := range pos {
				pos[i].X += vel[i].X
				pos[i].Y += vel[i].Y
			}
		}

		// Expiries are recorded now and applied with the next frame.
		expire := w.GetCommandBuffer(0)
		aging.Each(w, func(e hako.Entity, l *Lifetime) {
			if l.Frames--; l.Frames <= 0 {
				expire.DestroyEntity(e)
			}
		})

		if cfg.Bench.CheckIntegrity {
			if err := w.CheckIntegrity(); err != nil {
				return rep, eris.Wrapf(err, "frame %d", frame)
			}
		}
		rep.Frames++
	}
	w.ExecuteCommands()

	rep.Elapsed = time.Since(start)
	rep.World = w.Stats()
	log.Info().
		Int("frames", rep.Frames).
		Int("entities", rep.World.Entities).
		Int("archetypes", len(rep.World.Archetypes)).
		Dur("elapsed", rep.Elapsed).
		Msg("bench finished")
	return rep, nil
}

// produce records one frame of work for worker i. Each worker mutates only
// the entities at indices congruent to i, so no two buffers touch the same
// entity in a frame.
func produce(w *hako.World, cb *hako.CommandBuffer, rng *rand.Rand, spawn int,
	sleepID hako.ComponentTypeID, live []hako.Entity, i, workers int,
) {
	bench := hako.GetResource[config.Bench](w)
	b := hako.NewBuilder3[Position, Velocity, Lifetime](cb)
	for range spawn {
		b.NewEntity(
			Position{X: rng.Float64() * 100, Y: rng.Float64() * 100},
			Velocity{X: rng.NormFloat64(), Y: rng.NormFloat64()},
			Lifetime{Frames: 10 + rng.IntN(50)},
		)
	}
	for k := i; k < len(live); k += workers {
		e := live[k]
		r := rng.Float64()
		switch {
		case r < bench.DestroyRatio:
			cb.DestroyEntity(e)
		case r < bench.DestroyRatio+bench.MutateRatio:
			if w.GetEntityView(e).Has(sleepID) {
				hako.RemoveComponent[Sleeping](cb, e)
			} else {
				hako.AddComponent(cb, e, Sleeping{})
			}
		}
	}
}
