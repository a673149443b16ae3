package hako

import (
	"reflect"
	"slices"
	"sync"
)

// EventTypeID is the process-wide index of an event type. It is assigned the
// first time the type is used and stays fixed until Shutdown.
type EventTypeID uint32

// HandlerID identifies a registered handler within its World.
type HandlerID uint64

// ComponentAdded is sent right after a T lands on an entity, either when a
// spawned entity is first placed or when T is added to an existing one.
type ComponentAdded[T any] struct {
	Entity    Entity
	Component *T
}

// ComponentRemoved is sent right before a T is destructed, either by removing
// it or by destroying its entity.
type ComponentRemoved[T any] struct {
	Entity    Entity
	Component *T
}

type eventTypeRegistry struct {
	mu     sync.RWMutex
	byType map[reflect.Type]EventTypeID
}

var eventTypes = &eventTypeRegistry{byType: make(map[reflect.Type]EventTypeID)}

func (r *eventTypeRegistry) reset() {
	r.mu.Lock()
	clear(r.byType)
	r.mu.Unlock()
}

func eventTypeIDOf[E any]() EventTypeID {
	t := reflect.TypeFor[E]()
	eventTypes.mu.RLock()
	id, ok := eventTypes.byType[t]
	eventTypes.mu.RUnlock()
	if ok {
		return id
	}

	eventTypes.mu.Lock()
	defer eventTypes.mu.Unlock()
	if id, ok := eventTypes.byType[t]; ok {
		return id
	}
	id = EventTypeID(len(eventTypes.byType))
	eventTypes.byType[t] = id
	return id
}

// EventID returns the ID of event type E.
func EventID[E any]() EventTypeID { return eventTypeIDOf[E]() }

type handler struct {
	id HandlerID
	fn any
}

// eventTable holds the handlers of one World, indexed by EventTypeID.
type eventTable struct {
	handlers [][]handler
	next     HandlerID
}

func (t *eventTable) active(id EventTypeID) bool {
	return int(id) < len(t.handlers) && len(t.handlers[id]) > 0
}

// AddEventHandler registers fn to be called for every E sent to w. Handlers
// run synchronously in registration order.
func AddEventHandler[E any](w *World, fn func(E)) HandlerID {
	id := eventTypeIDOf[E]()
	t := &w.events
	if int(id) >= len(t.handlers) {
		t.handlers = append(t.handlers, make([][]handler, int(id)+1-len(t.handlers))...)
	}
	t.next++
	t.handlers[id] = append(t.handlers[id], handler{id: t.next, fn: fn})
	return t.next
}

// RemoveEventHandler unregisters a handler added with AddEventHandler[E]. It
// reports whether the handler was found. Removing a handler while its event
// is being sent takes effect from the next send.
func RemoveEventHandler[E any](w *World, id HandlerID) bool {
	eid := eventTypeIDOf[E]()
	t := &w.events
	if int(eid) >= len(t.handlers) {
		return false
	}
	hs := t.handlers[eid]
	i := slices.IndexFunc(hs, func(h handler) bool { return h.id == id })
	if i < 0 {
		return false
	}
	// Copy so an in-flight dispatch keeps iterating the old slice.
	t.handlers[eid] = slices.Delete(slices.Clone(hs), i, i+1)
	return true
}

// SendEvent calls every handler registered for E on w.
func SendEvent[E any](w *World, ev E) {
	id := eventTypeIDOf[E]()
	if w.events.active(id) {
		dispatch(w, id, ev)
	}
}

func dispatch[E any](w *World, id EventTypeID, ev E) {
	for _, h := range w.events.handlers[id] {
		h.fn.(func(E))(ev)
	}
}

// OnComponentAdded registers fn for ComponentAdded[T] events.
func OnComponentAdded[T any](w *World, fn func(ComponentAdded[T])) HandlerID {
	RegisterComponent[T]()
	return AddEventHandler(w, fn)
}

// OnComponentRemoved registers fn for ComponentRemoved[T] events.
func OnComponentRemoved[T any](w *World, fn func(ComponentRemoved[T])) HandlerID {
	RegisterComponent[T]()
	return AddEventHandler(w, fn)
}
