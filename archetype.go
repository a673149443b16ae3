package hako

import "github.com/edwinsyarief/hako/internal/assert"

// Archetype stores every entity that has exactly one particular set of
// component types. Row i of each column belongs to Entities()[i].
//
// Archetypes are created by the World on demand and live as long as it does.
type Archetype struct {
	id       ArchetypeID
	mask     bitmask256
	index    int
	pageSize int
	columns  []column
	slots    [MaxComponentTypes]int16
	entities []Entity
}

func newArchetype(index int, mask bitmask256, pageSize int) *Archetype {
	a := &Archetype{
		id:       mask.ids(),
		mask:     mask,
		index:    index,
		pageSize: pageSize,
	}
	for i := range a.slots {
		a.slots[i] = -1
	}
	a.columns = make([]column, len(a.id))
	for i, id := range a.id {
		a.columns[i] = opsOf(id).newStore(pageSize)
		a.slots[id] = int16(i)
	}
	return a
}

// ID returns the sorted component set. The slice must not be modified.
func (a *Archetype) ID() ArchetypeID { return a.id }

// Index returns the creation order of the archetype within its World.
func (a *Archetype) Index() int { return a.index }

// Len returns the number of entities stored.
func (a *Archetype) Len() int { return len(a.entities) }

// Entities returns the entity of every row. The slice must not be modified
// and is only valid until the next ExecuteCommands.
func (a *Archetype) Entities() []Entity { return a.entities }

// Has reports whether the archetype stores component id.
func (a *Archetype) Has(id ComponentTypeID) bool { return a.slots[id] >= 0 }

// PageCount returns the number of non-empty pages.
func (a *Archetype) PageCount() int {
	return (len(a.entities) + a.pageSize - 1) / a.pageSize
}

func (a *Archetype) column(id ComponentTypeID) column {
	s := a.slots[id]
	if s < 0 {
		return nil
	}
	return a.columns[s]
}

// addRow appends e with a zero value in every column and returns its row.
func (a *Archetype) addRow(e Entity) int {
	a.entities = append(a.entities, e)
	row := len(a.entities) - 1
	for _, c := range a.columns {
		got := c.extend()
		assert.That(got == row, "hako: column length %d doesn't match entities %d", got, row)
	}
	return row
}

// removeRow drops row by moving the last row into it. It returns the entity
// that now occupies row, if one moved. Values at row are overwritten without
// being destructed.
func (a *Archetype) removeRow(row int) (Entity, bool) {
	last := len(a.entities) - 1
	assert.That(row >= 0 && row <= last, "hako: remove of row %d out of range", row)
	for _, c := range a.columns {
		c.swapRemove(row)
	}
	moved := a.entities[last]
	a.entities[row] = moved
	a.entities[last] = NullEntity
	a.entities = a.entities[:last]
	if row == last {
		return NullEntity, false
	}
	return moved, true
}

// destructRow calls Destroy on every component at row.
func (a *Archetype) destructRow(row int) {
	for _, c := range a.columns {
		c.destruct(row)
	}
}

// pageBounds returns the row range [start, end) of page p.
func (a *Archetype) pageBounds(p int) (int, int) {
	start := p * a.pageSize
	return start, min(start+a.pageSize, len(a.entities))
}
