package hako

import (
	"fmt"
	"reflect"
	"slices"
	"sync"
	"sync/atomic"
)

// ComponentTypeID is the dense, process-wide index of a component type.
type ComponentTypeID uint8

// Destroyer is implemented by components that own something to release when
// the value is destructed: removed from an entity, destroyed with it, or
// dropped while still staged in a command buffer. Moves between archetypes do
// not call Destroy.
type Destroyer interface {
	Destroy()
}

// ComponentOps is the type-erased operation table of one component type. Its
// methods let storage and the structural pass handle a column without knowing
// the concrete type.
type ComponentOps interface {
	ID() ComponentTypeID
	Name() string
	Type() reflect.Type
	Size() uintptr

	newStore(pageSize int) column
	added(w *World, e Entity, c column, row int)
	removed(w *World, e Entity, c column, row int)
}

var _ ComponentOps = (*componentOps[struct{}])(nil)

type componentOps[T any] struct {
	id           ComponentTypeID
	typ          reflect.Type
	addedEvent   EventTypeID
	removedEvent EventTypeID
}

func (o *componentOps[T]) ID() ComponentTypeID { return o.id }
func (o *componentOps[T]) Name() string        { return o.typ.String() }
func (o *componentOps[T]) Type() reflect.Type  { return o.typ }
func (o *componentOps[T]) Size() uintptr       { return o.typ.Size() }

func (o *componentOps[T]) newStore(pageSize int) column {
	return newPagedStore[T](o.id, pageSize)
}

func (o *componentOps[T]) added(w *World, e Entity, c column, row int) {
	if !w.events.active(o.addedEvent) {
		return
	}
	dispatch(w, o.addedEvent, ComponentAdded[T]{Entity: e, Component: c.(*pagedStore[T]).at(row)})
}

func (o *componentOps[T]) removed(w *World, e Entity, c column, row int) {
	if !w.events.active(o.removedEvent) {
		return
	}
	dispatch(w, o.removedEvent, ComponentRemoved[T]{Entity: e, Component: c.(*pagedStore[T]).at(row)})
}

// componentRegistry maps Go types to dense IDs. Reads of the ops table are
// lock-free; registration copies the table and swaps it in.
type componentRegistry struct {
	mu     sync.RWMutex
	byType map[reflect.Type]ComponentTypeID
	ops    atomic.Pointer[[]ComponentOps]
}

var registry = newComponentRegistry()

func newComponentRegistry() *componentRegistry {
	r := &componentRegistry{byType: make(map[reflect.Type]ComponentTypeID)}
	r.reset()
	return r
}

func (r *componentRegistry) reset() {
	clear(r.byType)
	empty := make([]ComponentOps, 0, 16)
	r.ops.Store(&empty)
}

func (r *componentRegistry) lookup(t reflect.Type) (ComponentTypeID, bool) {
	r.mu.RLock()
	id, ok := r.byType[t]
	r.mu.RUnlock()
	return id, ok
}

func (r *componentRegistry) table() []ComponentOps { return *r.ops.Load() }

// RegisterComponent returns the ID of T, registering it on first use. It is
// safe to call from any goroutine. Registering more than MaxComponentTypes
// types panics.
func RegisterComponent[T any]() ComponentTypeID {
	t := reflect.TypeFor[T]()
	if id, ok := registry.lookup(t); ok {
		return id
	}

	registry.mu.Lock()
	defer registry.mu.Unlock()
	if id, ok := registry.byType[t]; ok {
		return id
	}
	cur := registry.table()
	if len(cur) == MaxComponentTypes {
		panic(fmt.Sprintf("hako: cannot register %v: component type limit of %d reached", t, MaxComponentTypes))
	}
	ops := &componentOps[T]{
		id:           ComponentTypeID(len(cur)),
		typ:          t,
		addedEvent:   eventTypeIDOf[ComponentAdded[T]](),
		removedEvent: eventTypeIDOf[ComponentRemoved[T]](),
	}
	next := append(slices.Clip(cur), ComponentOps(ops))
	registry.ops.Store(&next)
	registry.byType[t] = ops.id
	return ops.id
}

// ComponentID returns the ID of T. Any type becomes a component the first
// time its ID is asked for.
func ComponentID[T any]() ComponentTypeID { return RegisterComponent[T]() }

// TryComponentID returns the ID of T without registering it.
func TryComponentID[T any]() (ComponentTypeID, bool) {
	return registry.lookup(reflect.TypeFor[T]())
}

// ComponentOpsOf returns the operation table registered under id, or nil.
func ComponentOpsOf(id ComponentTypeID) ComponentOps {
	t := registry.table()
	if int(id) >= len(t) {
		return nil
	}
	return t[id]
}

// Components returns every registered component type in ID order.
func Components() []ComponentOps {
	return slices.Clone(registry.table())
}

// Shutdown clears the process-wide component, event and query registries.
// Call it only after every World has been discarded: IDs handed out before
// Shutdown mean nothing afterwards.
func Shutdown() {
	registry.mu.Lock()
	registry.reset()
	registry.mu.Unlock()
	eventTypes.reset()
	queries.reset()
}

func opsOf(id ComponentTypeID) ComponentOps { return registry.table()[id] }
