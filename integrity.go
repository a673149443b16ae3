package hako

import (
	"github.com/kelindar/bitmap"
	"github.com/rotisserie/eris"
)

// CheckIntegrity verifies that every stored row agrees with its entity
// record and that no entity is stored twice. It walks all of storage and is
// meant for tests and debugging tools. It must not overlap with
// ExecuteCommands.
func (w *World) CheckIntegrity() error {
	// One set per pool, indexed within the pool, keeps the sets as small as
	// the pools in use.
	var seen [maxEntityPools]bitmap.Bitmap
	placed := 0
	for _, a := range w.archetypes {
		for i, c := range a.columns {
			if c.len() != a.Len() {
				return eris.Errorf("archetype %d: column %s has %d rows, want %d",
					a.index, opsOf(a.id[i]).Name(), c.len(), a.Len())
			}
		}
		for row, e := range a.entities {
			pool, idx := e.ID>>entityPoolBits, e.ID&entityPoolMask
			if seen[pool].Contains(idx) {
				return eris.Errorf("archetype %d row %d: %v stored more than once", a.index, row, e)
			}
			seen[pool].Set(idx)

			rec, ok := w.entities.resolve(e)
			switch {
			case !ok:
				return eris.Errorf("archetype %d row %d: %v is not alive", a.index, row, e)
			case rec.archetype != a:
				return eris.Errorf("archetype %d row %d: %v is recorded in another archetype", a.index, row, e)
			case int(rec.index) != row:
				return eris.Errorf("archetype %d row %d: %v is recorded at row %d", a.index, row, e, rec.index)
			}
		}
		placed += a.Len()
	}
	if placed != w.placed {
		return eris.Errorf("%d entities stored but %d counted as placed", placed, w.placed)
	}
	return nil
}
