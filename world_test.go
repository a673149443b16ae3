package hako

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestSpawnBecomesValidAfterExecute(t *testing.T) {
	w := newTestWorld(t)
	cb := w.GetCommandBuffer(0)

	e := spawn(cb, with(Position{X: 1}))
	assert.False(t, w.IsValid(e), "entity is not placed before ExecuteCommands")

	execute(t, w)
	assert.True(t, w.IsValid(e))
	assert.Equal(t, 1, w.EntityCount())
	assert.Equal(t, 0, cb.Len())

	p := GetComponent[Position](w.GetEntityView(e))
	require.NotNil(t, p)
	assert.Equal(t, float32(1), p.X)
}

func TestSpawnWithoutComponents(t *testing.T) {
	w := newTestWorld(t)
	e := w.GetCommandBuffer(0).SpawnEntity().Entity()
	execute(t, w)

	v := w.GetEntityView(e)
	require.True(t, v.IsValid())
	assert.Same(t, w.Archetypes()[0], v.Archetype())
	assert.Empty(t, v.ComponentIDs())
}

func TestPositionVelocityScenario(t *testing.T) {
	w := newTestWorld(t)
	cb := w.GetCommandBuffer(0)
	q := NewQuery(Write[Position](), Read[Velocity]())

	moving := make([]Entity, 3)
	for i := range moving {
		moving[i] = spawn(cb, with(Position{}), with(Velocity{X: 1}))
	}
	still := spawn(cb, with(Position{}))
	execute(t, w)
	assert.Equal(t, 3, q.Count(w))

	RemoveComponent[Velocity](cb, moving[0])
	AddComponent(cb, still, Velocity{X: 2})
	execute(t, w)

	got := map[Entity]Velocity{}
	it := q.Iter(w)
	for it.Next() {
		vel := Get[Velocity](&it)
		for i := range it.Len() {
			got[it.Entity(i)] = vel[i]
		}
	}
	assert.Equal(t, map[Entity]Velocity{
		moving[1]: {X: 1},
		moving[2]: {X: 1},
		still:     {X: 2},
	}, got)

	v := w.GetEntityView(moving[0])
	assert.True(t, HasComponent[Position](v))
	assert.False(t, HasComponent[Velocity](v))
}

func TestRemoveLeavesEntityInSmallerQuery(t *testing.T) {
	w := newTestWorld(t)
	cb := w.GetCommandBuffer(0)
	e := spawn(cb, with(Position{X: 1, Y: 2}), with(Velocity{X: 3, Y: 4}))
	execute(t, w)

	RemoveComponent[Velocity](cb, e)
	execute(t, w)

	it := NewQuery(Read[Position]()).Iter(w)
	require.True(t, it.Next())
	require.Equal(t, 1, it.Len())
	assert.Equal(t, e, it.Entity(0))
	assert.Equal(t, Position{X: 1, Y: 2}, Get[Position](&it)[0])
	assert.False(t, it.Next())

	assert.Zero(t, NewQuery(Read[Position](), Read[Velocity]()).Count(w))
}

func TestAddThenRemoveReturnsToArchetype(t *testing.T) {
	w := newTestWorld(t)
	cb := w.GetCommandBuffer(0)
	e := spawn(cb, with(Position{X: 5, Y: 6}), with(Velocity{X: 7}))
	other := spawn(cb, with(Position{}), with(Velocity{}))
	execute(t, w)
	before := w.GetEntityView(e).Archetype()
	require.NotNil(t, before)

	AddComponent(cb, e, Health{Value: 9})
	execute(t, w)
	v := w.GetEntityView(e)
	require.NotSame(t, before, v.Archetype())
	assert.Equal(t, 9, GetComponent[Health](v).Value)

	RemoveComponent[Health](cb, e)
	execute(t, w)
	v = w.GetEntityView(e)
	assert.Same(t, before, v.Archetype())
	assert.Equal(t, Position{X: 5, Y: 6}, *GetComponent[Position](v))
	assert.Equal(t, Velocity{X: 7}, *GetComponent[Velocity](v))
	assert.Same(t, before, w.GetEntityView(other).Archetype())
	assert.Equal(t, 2, before.Len())
}

func TestSameComponentSetSharesArchetype(t *testing.T) {
	w := newTestWorld(t)
	cb := w.GetCommandBuffer(0)

	a := spawn(cb, with(Position{}), with(Velocity{}))
	b := spawn(cb, with(Velocity{}), with(Position{}))
	c := spawn(cb, with(Position{}))
	execute(t, w)
	AddComponent(cb, c, Velocity{})
	execute(t, w)

	arch := w.GetEntityView(a).Archetype()
	require.NotNil(t, arch)
	assert.Same(t, arch, w.GetEntityView(b).Archetype())
	assert.Same(t, arch, w.GetEntityView(c).Archetype())
	assert.Equal(t, 3, arch.Len())
}

func TestDestroyInvalidatesHandle(t *testing.T) {
	w := newTestWorld(t)
	cb := w.GetCommandBuffer(0)
	destroyed := 0

	e := spawn(cb, with(Position{}), with(Resource{ID: 1, destroyed: &destroyed}))
	execute(t, w)
	cb.DestroyEntity(e)
	execute(t, w)

	assert.False(t, w.IsValid(e))
	assert.Equal(t, 1, destroyed)
	assert.Nil(t, GetComponent[Position](w.GetEntityView(e)))
	assert.Equal(t, 0, w.EntityCount())

	// the ID is recycled under a new generation
	r := spawn(cb)
	assert.Equal(t, e.ID, r.ID)
	assert.NotEqual(t, e.Generation, r.Generation)
	execute(t, w)
	assert.True(t, w.IsValid(r))
	assert.False(t, w.IsValid(e))

	// destroying the stale handle again is dropped
	cb.DestroyEntity(e)
	execute(t, w)
	assert.True(t, w.IsValid(r))
	assert.Equal(t, 1, w.Stats().LastFrame.Dropped)
}

func TestDuplicateAddIsRejected(t *testing.T) {
	for _, placed := range []bool{false, true} {
		name := "pending"
		if placed {
			name = "placed"
		}
		t.Run(name, func(t *testing.T) {
			w, logs := newLoggedWorld(t)
			cb := w.GetCommandBuffer(0)
			destroyed := 0

			ec := cb.SpawnEntity()
			With(ec, Resource{ID: 1, destroyed: &destroyed})
			if placed {
				execute(t, w)
			}
			AddComponent(cb, ec.Entity(), Resource{ID: 2, destroyed: &destroyed})
			execute(t, w)

			assert.Equal(t, 1, destroyed, "rejected payload is destructed exactly once")
			r := GetComponent[Resource](w.GetEntityView(ec.Entity()))
			require.NotNil(t, r)
			assert.Equal(t, 1, r.ID)
			assert.Contains(t, logs.String(), "component already present")
			assert.Equal(t, 1, w.Stats().LastFrame.Dropped)
		})
	}
}

func TestAddToStaleHandleDestructsPayload(t *testing.T) {
	w := newTestWorld(t)
	cb := w.GetCommandBuffer(0)
	destroyed := 0

	e := spawn(cb)
	execute(t, w)
	cb.DestroyEntity(e)
	execute(t, w)

	AddComponent(cb, e, Resource{destroyed: &destroyed})
	RemoveComponent[Position](cb, e)
	execute(t, w)
	assert.Equal(t, 1, destroyed)
	assert.Equal(t, 2, w.Stats().LastFrame.Dropped)
}

func TestDestroyPendingEntity(t *testing.T) {
	w := newTestWorld(t)
	cb := w.GetCommandBuffer(0)
	destroyed, added := 0, 0
	OnComponentAdded(w, func(ComponentAdded[Resource]) { added++ })

	ec := cb.SpawnEntity()
	With(ec, Resource{destroyed: &destroyed})
	cb.DestroyEntity(ec.Entity())
	execute(t, w)

	assert.False(t, w.IsValid(ec.Entity()))
	assert.Equal(t, 1, destroyed)
	assert.Zero(t, added, "an entity that never reached storage fires no events")
	assert.Equal(t, 0, w.EntityCount())
	assert.Equal(t, 0, w.entities.Len())
}

func TestRemoveFinalizesPendingSpawn(t *testing.T) {
	w := newTestWorld(t)
	cb := w.GetCommandBuffer(0)

	a := spawn(cb, with(Position{}), with(Velocity{}))
	execute(t, w)

	b := cb.SpawnEntity()
	With(b, Health{Value: 3})
	RemoveComponent[Velocity](cb, a)
	// recorded after the remove, so b migrates instead of being placed with it
	AddComponent(cb, b.Entity(), Position{X: 4})
	execute(t, w)

	vb := w.GetEntityView(b.Entity())
	assert.True(t, HasComponent[Health](vb))
	assert.Equal(t, float32(4), GetComponent[Position](vb).X)
	assert.False(t, HasComponent[Velocity](w.GetEntityView(a)))
}

func TestInterleavedSpawnsStillApplyAdds(t *testing.T) {
	w := newTestWorld(t)
	cb := w.GetCommandBuffer(0)

	a := cb.SpawnEntity().Entity()
	b := cb.SpawnEntity().Entity()
	AddComponent(cb, a, Position{X: 1})
	AddComponent(cb, b, Position{X: 2})
	execute(t, w)

	assert.Equal(t, float32(1), GetComponent[Position](w.GetEntityView(a)).X)
	assert.Equal(t, float32(2), GetComponent[Position](w.GetEntityView(b)).X)
	assert.Same(t, w.GetEntityView(a).Archetype(), w.GetEntityView(b).Archetype())
}

func TestCrossBufferDestroyOfUnplacedEntity(t *testing.T) {
	w := newTestWorld(t)
	destroyed := 0

	e := spawn(w.GetCommandBuffer(1), with(Resource{destroyed: &destroyed}))
	// buffer 0 is applied first, before the spawn in buffer 1
	w.GetCommandBuffer(0).DestroyEntity(e)
	execute(t, w)

	assert.False(t, w.IsValid(e))
	assert.Equal(t, 1, destroyed)
	assert.Equal(t, 0, w.EntityCount())
}

func TestCrossBufferDestroyThenOwnDestroy(t *testing.T) {
	w := newTestWorld(t)
	destroyed := 0

	cb1 := w.GetCommandBuffer(1)
	e := spawn(cb1, with(Resource{destroyed: &destroyed}))
	cb1.DestroyEntity(e)
	w.GetCommandBuffer(0).DestroyEntity(e)
	execute(t, w)

	assert.False(t, w.IsValid(e))
	assert.False(t, w.entities.Alive(e))
	assert.Equal(t, 1, destroyed)
	assert.Equal(t, 0, w.EntityCount())
	assert.Equal(t, 0, w.entities.Len())

	last := w.Stats().LastFrame
	assert.Equal(t, 1, last.Applied)
	assert.Equal(t, 2, last.Dropped)
}

func TestCrossBufferAddToUnplacedEntityIsDropped(t *testing.T) {
	w, logs := newLoggedWorld(t)
	destroyed := 0

	e := spawn(w.GetCommandBuffer(1), with(Position{}))
	AddComponent(w.GetCommandBuffer(0), e, Resource{destroyed: &destroyed})
	execute(t, w)

	v := w.GetEntityView(e)
	assert.True(t, v.IsValid())
	assert.False(t, HasComponent[Resource](v))
	assert.Equal(t, 1, destroyed)
	assert.Contains(t, logs.String(), "not yet applied")
}

func TestDestroyEntities(t *testing.T) {
	w := newTestWorld(t)
	cb := w.GetCommandBuffer(0)
	destroyed := 0

	var old []Entity
	for i := range 10 {
		old = append(old, spawn(cb, with(Health{Value: i}), with(Resource{destroyed: &destroyed})))
	}
	old = append(old, spawn(cb, with(Position{})))
	execute(t, w)

	cb.DestroyEntities()
	survivor := spawn(cb, with(Position{}))
	execute(t, w)

	for _, e := range old {
		assert.False(t, w.IsValid(e))
	}
	assert.Equal(t, 10, destroyed)
	assert.True(t, w.IsValid(survivor))
	assert.Equal(t, 1, w.EntityCount())
}

func TestStagedPointerWritesAreKept(t *testing.T) {
	w := newTestWorld(t)
	cb := w.GetCommandBuffer(0)

	e := cb.SpawnEntity().Entity()
	p := AddComponent(cb, e, Position{X: 1})
	for range 200 {
		// grow the staging store past several pages
		AddComponent(cb, cb.SpawnEntity().Entity(), Position{})
	}
	p.X = 9
	execute(t, w)

	assert.Equal(t, float32(9), GetComponent[Position](w.GetEntityView(e)).X)
}

func TestRandomChurnKeepsStorageConsistent(t *testing.T) {
	w := newTestWorld(t, WithPageSize(8))
	cb := w.GetCommandBuffer(0)
	rng := rand.New(rand.NewPCG(1, 2))

	live := map[Entity]int{}
	for frame := range 50 {
		for range 20 {
			e := spawn(cb, with(Health{Value: frame}))
			live[e] = frame
		}
		for e := range live {
			switch rng.IntN(6) {
			case 0:
				cb.DestroyEntity(e)
				delete(live, e)
			case 1:
				AddComponent(cb, e, Position{})
			case 2:
				RemoveComponent[Position](cb, e)
			}
		}
		execute(t, w)
		require.Equal(t, len(live), w.EntityCount())
	}
	for e, frame := range live {
		h := GetComponent[Health](w.GetEntityView(e))
		require.NotNil(t, h)
		assert.Equal(t, frame, h.Value)
	}
}

func TestConcurrentProducers(t *testing.T) {
	const workers, per = 4, 500
	w := newTestWorld(t, WithWorkers(workers))
	q := NewQuery2[Position, Velocity]()

	var g errgroup.Group
	for i := range workers {
		cb := w.GetCommandBuffer(i)
		g.Go(func() error {
			b := NewBuilder2[Position, Velocity](cb)
			for j := range per {
				b.NewEntity(Position{X: float32(j)}, Velocity{X: float32(i)})
			}
			// iterating concurrently with other producers is allowed
			_ = q.Count(w)
			return nil
		})
	}
	require.NoError(t, g.Wait())
	execute(t, w)
	assert.Equal(t, workers*per, w.EntityCount())
	assert.Equal(t, workers*per, q.Count(w))
}

func TestGetCommandBufferOutOfRange(t *testing.T) {
	w := newTestWorld(t, WithWorkers(1))
	assert.Equal(t, 1, w.Workers())
	assert.Equal(t, 0, w.GetCommandBuffer(0).Index())
	assert.Panics(t, func() { w.GetCommandBuffer(1) })
	assert.Panics(t, func() { w.GetCommandBuffer(-1) })
}

func TestStats(t *testing.T) {
	w := newTestWorld(t, WithPageSize(2))
	cb := w.GetCommandBuffer(0)
	for range 3 {
		spawn(cb, with(Position{}))
	}
	execute(t, w)
	_ = NewQuery1[Position]().Count(w)

	s := w.Stats()
	assert.Equal(t, uint64(1), s.Frame)
	assert.Equal(t, 3, s.Entities)
	assert.Equal(t, 3, s.Allocated)
	assert.Equal(t, 2, s.PageSize)
	assert.Equal(t, 1, s.Queries)
	assert.Equal(t, 6, s.LastFrame.Applied)
	require.Len(t, s.Archetypes, 2)
	assert.Equal(t, []string{"hako.Position"}, s.Archetypes[1].Components)
	assert.Equal(t, 2, s.Archetypes[1].Pages)
}

func TestCheckIntegrityDetectsCorruption(t *testing.T) {
	w := newTestWorld(t)
	cb := w.GetCommandBuffer(0)
	a := spawn(cb, with(Position{}))
	spawn(cb, with(Position{}))
	execute(t, w)

	rec, _ := w.entities.resolve(a)
	rec.index = 1
	require.Error(t, w.CheckIntegrity())
	rec.index = 0
	require.NoError(t, w.CheckIntegrity())

	w.placed++
	require.Error(t, w.CheckIntegrity())
}

func TestCheckIntegrityDetectsAliasedEntity(t *testing.T) {
	w := newTestWorld(t)
	cb := w.GetCommandBuffer(0)
	a := spawn(cb, with(Position{}))
	b := spawn(cb, with(Position{}))
	execute(t, w)

	arch := w.GetEntityView(a).Archetype()
	arch.entities[1] = a
	err := w.CheckIntegrity()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stored more than once")

	arch.entities[1] = b
	require.NoError(t, w.CheckIntegrity())
}

func TestBatchHelpers(t *testing.T) {
	w := newTestWorld(t)
	cb := w.GetCommandBuffer(0)
	es := NewBuilder1[Position](cb).NewEntities(nil, 5, Position{X: 1})
	execute(t, w)

	AddComponentBatch(cb, es[:3], Health{Value: 7})
	execute(t, w)
	for i, e := range es {
		v := w.GetEntityView(e)
		assert.Equal(t, i < 3, HasComponent[Health](v), "entity %d", i)
	}

	RemoveComponentBatch[Position](cb, es)
	execute(t, w)
	for _, e := range es {
		assert.False(t, HasComponent[Position](w.GetEntityView(e)))
	}

	cb.DestroyEntityBatch(es[1:])
	execute(t, w)
	assert.Equal(t, 1, w.EntityCount())
	assert.True(t, w.IsValid(es[0]))
}
