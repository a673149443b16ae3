package hako

import (
	"reflect"
	"sync"

	"github.com/edwinsyarief/hako/internal/assert"
)

// QueryID is the process-wide ID of a query's component set. Queries over the
// same set share an ID no matter the order or access mode of their terms.
type QueryID uint32

type queryRegistry struct {
	mu     sync.Mutex
	byMask map[bitmask256]QueryID
}

var queries = &queryRegistry{byMask: make(map[bitmask256]QueryID)}

func (r *queryRegistry) register(m bitmask256) QueryID {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.byMask[m]; ok {
		return id
	}
	id := QueryID(len(r.byMask))
	r.byMask[m] = id
	return id
}

func (r *queryRegistry) reset() {
	r.mu.Lock()
	clear(r.byMask)
	r.mu.Unlock()
}

// Access is one term of a query: a component type and whether the query
// writes to it.
type Access struct {
	ID    ComponentTypeID
	Write bool
}

// Read declares read-only access to T.
func Read[T any]() Access { return Access{ID: ComponentID[T]()} }

// Write declares read-write access to T.
func Write[T any]() Access { return Access{ID: ComponentID[T](), Write: true} }

// Query selects every archetype whose component set contains all its terms.
// A Query is not tied to a World and may be shared between goroutines.
type Query struct {
	id     QueryID
	mask   bitmask256
	writes bitmask256
}

// NewQuery builds a query from its terms. Duplicate terms collapse; a type
// declared both Read and Write is written.
func NewQuery(terms ...Access) *Query {
	q := &Query{}
	for _, t := range terms {
		q.mask.set(t.ID)
		if t.Write {
			q.writes.set(t.ID)
		}
	}
	q.id = queries.register(q.mask)
	return q
}

// ID returns the query's process-wide ID.
func (q *Query) ID() QueryID { return q.id }

// Components returns the sorted component set of the query.
func (q *Query) Components() ArchetypeID { return q.mask.ids() }

// Writes reports whether the query declared write access to id.
func (q *Query) Writes(id ComponentTypeID) bool { return q.writes.containsBit(id) }

// Matches reports whether a is selected by the query.
func (q *Query) Matches(a *Archetype) bool { return a.mask.contains(q.mask) }

// Iter starts an iteration over w. The iterator sees the archetypes that
// existed when it was created.
func (q *Query) Iter(w *World) Iterator {
	return Iterator{query: q, archetypes: w.matching(q)}
}

// Count returns the number of entities in w matched by the query.
func (q *Query) Count(w *World) int {
	n := 0
	for _, a := range w.matching(q) {
		n += a.Len()
	}
	return n
}

// queryCache lists, in creation order, the archetypes of one World that a
// query selects.
type queryCache struct {
	mask       bitmask256
	archetypes []*Archetype
}

// Iterator walks the rows selected by a query one page at a time. Rows are
// indexed from 0 to Len()-1 within the current batch.
//
//	it := q.Iter(w)
//	for it.Next() {
//		pos := hako.Get[Position](&it)
//		vel := hako.Get[Velocity](&it)
//		for i := range pos {
//			pos[i].X += vel[i].X
//		}
//	}
type Iterator struct {
	query      *Query
	archetypes []*Archetype
	next       int
	arch       *Archetype
	page       int
	pages      int
	start, end int
}

// Next advances to the next non-empty batch and reports whether there is one.
func (it *Iterator) Next() bool {
	if it.arch != nil && it.page+1 < it.pages {
		it.page++
		it.start, it.end = it.arch.pageBounds(it.page)
		return true
	}
	for it.next < len(it.archetypes) {
		a := it.archetypes[it.next]
		it.next++
		if a.Len() == 0 {
			continue
		}
		it.arch = a
		it.page = 0
		it.pages = a.PageCount()
		it.start, it.end = a.pageBounds(0)
		return true
	}
	it.arch = nil
	it.start, it.end = 0, 0
	return false
}

// Len returns the number of rows in the current batch.
func (it *Iterator) Len() int { return it.end - it.start }

// Entity returns the entity at row of the current batch.
func (it *Iterator) Entity(row int) Entity {
	assert.That(row >= 0 && row < it.Len(), "hako: batch row %d out of range", row)
	return it.arch.entities[it.start+row]
}

// Entities returns the entities of the current batch.
func (it *Iterator) Entities() []Entity { return it.arch.entities[it.start:it.end] }

// Archetype returns the archetype of the current batch.
func (it *Iterator) Archetype() *Archetype { return it.arch }

// Get returns the T values of the current batch. T must be one of the query's
// terms.
func Get[T any](it *Iterator) []T {
	id := ComponentID[T]()
	assert.That(it.query.mask.containsBit(id), "hako: %v is not a term of query %d", reflect.TypeFor[T](), it.query.id)
	return it.arch.column(id).(*pagedStore[T]).page(it.page)
}

// TryGet is like Get but returns nil when the current archetype has no T. It
// may name types outside the query's terms.
func TryGet[T any](it *Iterator) []T {
	id, ok := TryComponentID[T]()
	if !ok || it.arch == nil {
		return nil
	}
	c := it.arch.column(id)
	if c == nil {
		return nil
	}
	return c.(*pagedStore[T]).page(it.page)
}
