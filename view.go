package hako

import "slices"

// EntityView reads one entity's components. Every call looks the entity up
// again, so a view never outlives its entity: once the handle goes stale the
// view reports invalid and returns nil components.
type EntityView struct {
	world  *World
	entity Entity
}

// GetEntityView returns a view of e. The view is usable even if e is not
// valid; it then reports nothing.
func (w *World) GetEntityView(e Entity) EntityView {
	return EntityView{world: w, entity: e}
}

func (v EntityView) record() (entityRecord, bool) {
	if v.world == nil {
		return entityRecord{}, false
	}
	rec, ok := v.world.entities.snapshot(v.entity)
	if !ok || rec.archetype == nil {
		return entityRecord{}, false
	}
	return rec, true
}

// IsValid reports whether the entity is alive and placed.
func (v EntityView) IsValid() bool {
	_, ok := v.record()
	return ok
}

// Entity returns the viewed handle.
func (v EntityView) Entity() Entity { return v.entity }

// Archetype returns the entity's archetype, or nil.
func (v EntityView) Archetype() *Archetype {
	rec, _ := v.record()
	return rec.archetype
}

// Has reports whether the entity has component id.
func (v EntityView) Has(id ComponentTypeID) bool {
	rec, ok := v.record()
	return ok && rec.archetype.Has(id)
}

// ComponentIDs returns a copy of the entity's component set.
func (v EntityView) ComponentIDs() ArchetypeID {
	rec, ok := v.record()
	if !ok {
		return nil
	}
	return slices.Clone(rec.archetype.id)
}

// HasComponent reports whether the viewed entity has a T.
func HasComponent[T any](v EntityView) bool {
	id, ok := TryComponentID[T]()
	return ok && v.Has(id)
}

// GetComponent returns the viewed entity's T, or nil. The pointer is valid
// until the next ExecuteCommands.
func GetComponent[T any](v EntityView) *T {
	id, ok := TryComponentID[T]()
	if !ok {
		return nil
	}
	rec, ok := v.record()
	if !ok {
		return nil
	}
	c := rec.archetype.column(id)
	if c == nil {
		return nil
	}
	return c.(*pagedStore[T]).at(int(rec.index))
}
