package hako

import (
	"fmt"
	"sync"

	"github.com/edwinsyarief/hako/internal/assert"
)

// Entity is a generation-counted handle. The ID may be recycled once the
// entity is destroyed; the Generation tells a recycled ID apart from the old
// one so stale handles stop resolving.
type Entity struct {
	ID         uint32
	Generation uint32
}

// NullEntity is the zero handle. The allocator never returns it.
var NullEntity Entity

// IsNull reports whether e is the zero handle.
func (e Entity) IsNull() bool { return e == NullEntity }

func (e Entity) String() string {
	return fmt.Sprintf("Entity(%d:%d)", e.ID, e.Generation)
}

// entityRecord holds the location and state of one entity slot. archetype is
// nil until ExecuteCommands places the entity.
type entityRecord struct {
	archetype  *Archetype
	index      uint32
	generation uint32
}

// EntityAllocator hands out entity handles. Allocate and Free may be called
// from any goroutine; resolving records is reserved for the structural pass.
type EntityAllocator struct {
	mu       sync.Mutex
	pools    [maxEntityPools][]entityRecord
	used     int // number of pools in use
	free     []uint32
	live     int
	reserved int
}

// NewEntityAllocator returns an allocator whose first pool has room for
// initialCapacity records before it needs to grow.
func NewEntityAllocator(initialCapacity int) *EntityAllocator {
	if initialCapacity < 0 {
		initialCapacity = 0
	}
	a := &EntityAllocator{reserved: min(initialCapacity, entityPoolEntries)}
	a.pools[0] = make([]entityRecord, 0, a.reserved)
	a.used = 1
	return a
}

// Allocate returns a fresh handle, reusing the most recently freed ID when one
// is available. It panics when all pools are full.
func (a *EntityAllocator) Allocate() Entity {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.live++
	if n := len(a.free); n > 0 {
		id := a.free[n-1]
		a.free = a.free[:n-1]
		return Entity{ID: id, Generation: a.record(id).generation}
	}

	p := a.used - 1
	if len(a.pools[p]) == entityPoolEntries {
		p++
		if p == maxEntityPools {
			a.live--
			panic("hako: entity allocator exhausted")
		}
		a.pools[p] = make([]entityRecord, 0, max(a.reserved, 64))
		a.used++
	}
	idx := len(a.pools[p])
	a.pools[p] = append(a.pools[p], entityRecord{generation: 1})
	return Entity{ID: uint32(p)<<entityPoolBits | uint32(idx), Generation: 1}
}

// Free retires e. Its generation is bumped so every copy of the handle goes
// stale, and the ID is pushed onto the freelist. Freeing a handle that is not
// alive is a caller error.
func (a *EntityAllocator) Free(e Entity) {
	a.mu.Lock()
	defer a.mu.Unlock()

	rec, ok := a.lookup(e)
	assert.That(ok, "hako: free of dead handle %v", e)
	if !ok {
		return
	}
	rec.generation++
	if rec.generation == 0 {
		rec.generation = 1
	}
	rec.archetype = nil
	rec.index = 0
	a.free = append(a.free, e.ID)
	a.live--
}

// resolve returns the record of e while its generation matches. The pointer is
// valid until the next Allocate; callers re-resolve after anything that may
// allocate.
func (a *EntityAllocator) resolve(e Entity) (*entityRecord, bool) {
	return a.lookup(e)
}

// Alive reports whether e's generation matches its slot.
func (a *EntityAllocator) Alive(e Entity) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.lookup(e)
	return ok
}

// snapshot copies the record of e under the lock. Used by read paths that can
// run while producers allocate.
func (a *EntityAllocator) snapshot(e Entity) (entityRecord, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	rec, ok := a.lookup(e)
	if !ok {
		return entityRecord{}, false
	}
	return *rec, true
}

// Len returns the number of allocated, not yet freed handles.
func (a *EntityAllocator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.live
}

// Capacity returns the number of slots ever handed out.
func (a *EntityAllocator) Capacity() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	n := 0
	for p := 0; p < a.used; p++ {
		n += len(a.pools[p])
	}
	return n
}

func (a *EntityAllocator) lookup(e Entity) (*entityRecord, bool) {
	p := int(e.ID >> entityPoolBits)
	idx := int(e.ID & entityPoolMask)
	if p >= a.used || idx >= len(a.pools[p]) {
		return nil, false
	}
	rec := &a.pools[p][idx]
	if rec.generation != e.Generation {
		return nil, false
	}
	return rec, true
}

func (a *EntityAllocator) record(id uint32) *entityRecord {
	return &a.pools[id>>entityPoolBits][id&entityPoolMask]
}
