package hako

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/edwinsyarief/hako/internal/metrics"
)

// World owns entities, archetypes, command buffers and event handlers.
//
// All structural changes go through command buffers and take effect in
// ExecuteCommands, which must not overlap with any other use of the World.
// Outside of it, workers may concurrently fill their own command buffer and
// iterate queries.
type World struct {
	opts    worldOptions
	log     zerolog.Logger
	metrics metrics.Client

	entities    *EntityAllocator
	archetypes  []*Archetype
	byMask      map[bitmask256]*Archetype
	transitions map[transition]*Archetype
	placed      int

	queryMu sync.Mutex
	caches  []*queryCache

	events    eventTable
	buffers   []*CommandBuffer
	resources Resources

	executing atomic.Bool
	frame     uint64
	last      FrameStats
}

// transition is an edge of the archetype graph: the archetype reached from
// archetype from by adding or removing component id.
type transition struct {
	from int
	id   ComponentTypeID
	add  bool
}

// NewWorld creates an empty World.
func NewWorld(opts ...Option) *World {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	w := &World{
		opts:        o,
		log:         o.logger,
		metrics:     o.metrics,
		entities:    NewEntityAllocator(o.initialCapacity),
		byMask:      make(map[bitmask256]*Archetype),
		transitions: make(map[transition]*Archetype),
	}
	w.buffers = make([]*CommandBuffer, o.workers)
	for i := range w.buffers {
		w.buffers[i] = newCommandBuffer(w, i)
	}
	w.archetypeFor(bitmask256{})
	return w
}

// GetCommandBuffer returns the buffer of worker threadIndex. Each buffer must
// be used by one goroutine at a time.
func (w *World) GetCommandBuffer(threadIndex int) *CommandBuffer {
	if threadIndex < 0 || threadIndex >= len(w.buffers) {
		panic(fmt.Sprintf("hako: command buffer %d out of range [0,%d)", threadIndex, len(w.buffers)))
	}
	return w.buffers[threadIndex]
}

// Workers returns the number of command buffers.
func (w *World) Workers() int { return len(w.buffers) }

// IsValid reports whether e refers to a live entity placed in storage.
func (w *World) IsValid(e Entity) bool {
	rec, ok := w.entities.snapshot(e)
	return ok && rec.archetype != nil
}

// EntityCount returns the number of entities placed in storage.
func (w *World) EntityCount() int { return w.placed }

// Frame returns the number of completed ExecuteCommands passes.
func (w *World) Frame() uint64 { return w.frame }

// GetArchetype returns the archetype for id, creating it if needed. It must
// only be called where ExecuteCommands could be.
func (w *World) GetArchetype(id ArchetypeID) *Archetype {
	return w.archetypeFor(id.mask())
}

// FindArchetype returns the archetype for id, or nil if none exists yet.
func (w *World) FindArchetype(id ArchetypeID) *Archetype {
	return w.byMask[id.mask()]
}

// Archetypes returns every archetype in creation order. The slice must not be
// modified.
func (w *World) Archetypes() []*Archetype { return w.archetypes }

func (w *World) archetypeFor(m bitmask256) *Archetype {
	if a, ok := w.byMask[m]; ok {
		return a
	}
	a := newArchetype(len(w.archetypes), m, w.opts.pageSize)

	w.queryMu.Lock()
	w.archetypes = append(w.archetypes, a)
	for _, c := range w.caches {
		if c != nil && m.contains(c.mask) {
			c.archetypes = append(c.archetypes, a)
		}
	}
	w.queryMu.Unlock()

	w.byMask[m] = a
	w.log.Debug().Int("index", a.index).Stringer("components", componentNames(a.id)).Msg("archetype created")
	return a
}

func (w *World) transition(src *Archetype, id ComponentTypeID, add bool) *Archetype {
	key := transition{from: src.index, id: id, add: add}
	if dst, ok := w.transitions[key]; ok {
		return dst
	}
	m := src.mask
	if add {
		m.set(id)
	} else {
		m.unset(id)
	}
	dst := w.archetypeFor(m)
	w.transitions[key] = dst
	return dst
}

// matching returns the cached archetypes selected by q, building the cache on
// first use.
func (w *World) matching(q *Query) []*Archetype {
	w.queryMu.Lock()
	defer w.queryMu.Unlock()
	if int(q.id) >= len(w.caches) {
		w.caches = append(w.caches, make([]*queryCache, int(q.id)+1-len(w.caches))...)
	}
	c := w.caches[q.id]
	if c == nil {
		c = &queryCache{mask: q.mask}
		for _, a := range w.archetypes {
			if a.mask.contains(q.mask) {
				c.archetypes = append(c.archetypes, a)
			}
		}
		w.caches[q.id] = c
	}
	return c.archetypes
}

// migrate moves e from its archetype to dst, carrying every component both
// share, and returns the new row. Components dst lacks are left in the old
// row, which is then compacted away.
func (w *World) migrate(e Entity, rec *entityRecord, dst *Archetype) int {
	src, oldRow := rec.archetype, int(rec.index)
	newRow := dst.addRow(e)
	for i, id := range src.id {
		if c := dst.column(id); c != nil {
			c.copyRow(newRow, src.columns[i], oldRow)
		}
	}
	rec.archetype, rec.index = dst, uint32(newRow)
	w.compact(src, oldRow)
	return newRow
}

// compact removes row from a and fixes the record of the entity moved into it.
func (w *World) compact(a *Archetype, row int) {
	moved, ok := a.removeRow(row)
	if !ok {
		return
	}
	rec, _ := w.entities.resolve(moved)
	rec.index = uint32(row)
}

// destroyPlaced fires removal events for every component of e, destructs
// them, and frees the handle.
func (w *World) destroyPlaced(e Entity) {
	rec, _ := w.entities.resolve(e)
	a, row := rec.archetype, int(rec.index)
	for i, id := range a.id {
		opsOf(id).removed(w, e, a.columns[i], row)
	}
	a.destructRow(row)
	w.compact(a, row)
	w.entities.Free(e)
	w.placed--
}

type componentNames ArchetypeID

func (n componentNames) String() string {
	names := make([]string, len(n))
	for i, id := range n {
		names[i] = opsOf(id).Name()
	}
	return "{" + strings.Join(names, ", ") + "}"
}
