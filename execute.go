package hako

import (
	"time"

	"github.com/edwinsyarief/hako/internal/assert"
	"github.com/edwinsyarief/hako/internal/metrics"
)

// FrameStats describes the last ExecuteCommands pass.
type FrameStats struct {
	Applied  int           `json:"applied"`
	Dropped  int           `json:"dropped"`
	Duration time.Duration `json:"duration_ns"`
}

// ExecuteCommands applies every command buffer in worker order, then resets
// them. Commands in a buffer apply in the order they were recorded.
//
// Event handlers run synchronously from inside this call. They may read the
// World and record new commands; commands recorded into a buffer that has not
// been applied yet in this pass, including the current one, are applied in
// this pass.
func (w *World) ExecuteCommands() {
	if !w.executing.CompareAndSwap(false, true) {
		assert.That(false, "hako: ExecuteCommands re-entered")
		w.log.Error().Msg("ExecuteCommands re-entered, ignoring nested call")
		return
	}
	defer w.executing.Store(false)

	start := time.Now()
	x := executor{w: w}
	for _, cb := range w.buffers {
		x.run(cb)
	}
	w.frame++
	w.last = FrameStats{Applied: x.applied, Dropped: x.dropped, Duration: time.Since(start)}

	w.log.Debug().
		Uint64("frame", w.frame).
		Int("applied", x.applied).
		Int("dropped", x.dropped).
		Int("entities", w.placed).
		Dur("duration", w.last.Duration).
		Msg("commands executed")
	metrics.EmitFrame(w.metrics, w.log, metrics.Frame{
		Start:      start,
		Applied:    x.applied,
		Dropped:    x.dropped,
		Archetypes: len(w.archetypes),
		Entities:   w.placed,
	})
}

type stagedComponent struct {
	id  ComponentTypeID
	row int
}

// pendingSpawn accumulates the adds recorded right after a spawn so the
// entity is placed once, directly into its final archetype.
type pendingSpawn struct {
	open   bool
	entity Entity
	mask   bitmask256
	comps  []stagedComponent
}

type executor struct {
	w       *World
	cb      *CommandBuffer
	pending pendingSpawn
	applied int
	dropped int
}

func (x *executor) run(cb *CommandBuffer) {
	x.cb = cb
	// Handlers may append to cb while it runs, so len is re-read every step.
	i := 0
	for {
		for ; i < len(cb.commands); i++ {
			x.apply(cb.commands[i])
		}
		x.finalize()
		if i == len(cb.commands) {
			break
		}
	}
	cb.reset()
}

func (x *executor) apply(cmd command) {
	switch cmd.kind {
	case cmdSpawn:
		x.finalize()
		x.pending = pendingSpawn{open: true, entity: cmd.entity, comps: x.pending.comps[:0]}
	case cmdDestroy:
		if x.isPending(cmd.entity) {
			x.cancelPending()
			return
		}
		x.destroy(cmd)
	case cmdDestroyAll:
		x.finalize()
		x.destroyAll()
	case cmdAdd:
		if x.isPending(cmd.entity) {
			x.stagePending(cmd)
			return
		}
		x.add(cmd)
	case cmdRemove:
		x.finalize()
		x.remove(cmd)
	}
}

func (x *executor) isPending(e Entity) bool {
	return x.pending.open && x.pending.entity == e
}

func (x *executor) stagePending(cmd command) {
	p := &x.pending
	if p.mask.containsBit(cmd.comp) {
		x.rejectDuplicate(cmd)
		return
	}
	p.mask.set(cmd.comp)
	p.comps = append(p.comps, stagedComponent{id: cmd.comp, row: int(cmd.row)})
}

// finalize places the pending entity into the archetype of its accumulated
// component set, then fires ComponentAdded for each component.
func (x *executor) finalize() {
	p := &x.pending
	if !p.open {
		return
	}
	p.open = false
	w := x.w

	rec, ok := w.entities.resolve(p.entity)
	if !ok {
		// Destroyed by an earlier buffer before it was ever placed.
		x.drop(command{kind: cmdSpawn, entity: p.entity}, "entity destroyed before placement")
		x.discardStaged()
		return
	}
	assert.That(rec.archetype == nil, "hako: spawned entity %v already placed", p.entity)

	a := w.archetypeFor(p.mask)
	row := a.addRow(p.entity)
	for _, sc := range p.comps {
		a.column(sc.id).copyRow(row, x.cb.staged[sc.id], sc.row)
	}
	rec.archetype, rec.index = a, uint32(row)
	w.placed++
	x.applied += 1 + len(p.comps)

	for _, sc := range p.comps {
		opsOf(sc.id).added(w, p.entity, a.column(sc.id), row)
	}
}

// cancelPending handles a destroy of the entity being constructed. It never
// reached storage, so no events fire.
func (x *executor) cancelPending() {
	p := &x.pending
	p.open = false
	x.discardStaged()
	if _, ok := x.w.entities.resolve(p.entity); !ok {
		// Already freed by a destroy in an earlier buffer.
		x.drop(command{kind: cmdDestroy, entity: p.entity}, "stale handle")
		return
	}
	x.applied += 2
	x.w.entities.Free(p.entity)
}

func (x *executor) discardStaged() {
	for _, sc := range x.pending.comps {
		x.cb.staged[sc.id].destruct(sc.row)
		x.dropped++
	}
	x.pending.comps = x.pending.comps[:0]
}

func (x *executor) destroy(cmd command) {
	w := x.w
	rec, ok := w.entities.resolve(cmd.entity)
	if !ok {
		x.drop(cmd, "stale handle")
		return
	}
	x.applied++
	if rec.archetype == nil {
		// Spawned from a buffer that has not been applied yet. Freeing the
		// handle makes that buffer discard the spawn.
		w.entities.Free(cmd.entity)
		return
	}
	w.destroyPlaced(cmd.entity)
}

func (x *executor) destroyAll() {
	w := x.w
	for _, a := range w.archetypes {
		for a.Len() > 0 {
			w.destroyPlaced(a.entities[a.Len()-1])
		}
	}
	x.applied++
}

func (x *executor) add(cmd command) {
	w := x.w
	rec, ok := w.entities.resolve(cmd.entity)
	if !ok {
		x.drop(cmd, "stale handle")
		x.cb.staged[cmd.comp].destruct(int(cmd.row))
		return
	}
	if rec.archetype == nil {
		w.log.Warn().
			Stringer("entity", cmd.entity).
			Str("component", opsOf(cmd.comp).Name()).
			Int("buffer", x.cb.index).
			Msg("add to entity spawned by a buffer not yet applied, dropping")
		x.dropped++
		x.cb.staged[cmd.comp].destruct(int(cmd.row))
		return
	}
	src := rec.archetype
	if src.Has(cmd.comp) {
		x.rejectDuplicate(cmd)
		return
	}

	dst := w.transition(src, cmd.comp, true)
	row := w.migrate(cmd.entity, rec, dst)
	c := dst.column(cmd.comp)
	c.copyRow(row, x.cb.staged[cmd.comp], int(cmd.row))
	x.applied++
	opsOf(cmd.comp).added(w, cmd.entity, c, row)
}

func (x *executor) remove(cmd command) {
	w := x.w
	rec, ok := w.entities.resolve(cmd.entity)
	if !ok || rec.archetype == nil {
		x.drop(cmd, "stale handle")
		return
	}
	src := rec.archetype
	c := src.column(cmd.comp)
	if c == nil {
		x.drop(cmd, "component not present")
		return
	}

	opsOf(cmd.comp).removed(w, cmd.entity, c, int(rec.index))
	// Handlers may have spawned entities, which can move the record.
	rec, _ = w.entities.resolve(cmd.entity)
	c.destruct(int(rec.index))
	w.migrate(cmd.entity, rec, w.transition(src, cmd.comp, false))
	x.applied++
}

// rejectDuplicate discards an add of a component the entity already has.
func (x *executor) rejectDuplicate(cmd command) {
	x.cb.staged[cmd.comp].destruct(int(cmd.row))
	x.dropped++
	x.w.log.Warn().
		Stringer("entity", cmd.entity).
		Str("component", opsOf(cmd.comp).Name()).
		Int("buffer", x.cb.index).
		Msg("component already present, add dropped")
}

func (x *executor) drop(cmd command, reason string) {
	x.dropped++
	x.w.log.Debug().
		Stringer("command", cmd.kind).
		Stringer("entity", cmd.entity).
		Int("buffer", x.cb.index).
		Str("reason", reason).
		Msg("command dropped")
}
