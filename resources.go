package hako

import (
	"fmt"
	"reflect"
)

// Resources holds world-wide singletons such as clocks or settings, at most
// one per type. Resources are stored as pointers and looked up by their
// pointer type. Like the rest of the World they are not safe for concurrent
// mutation.
type Resources struct {
	items []any
	types map[reflect.Type]int
	free  []int
}

// Resources returns the resource store of w.
func (w *World) Resources() *Resources { return &w.resources }

// Add stores res and returns its ID. res must be a non-nil pointer. Adding a
// second resource of the same type panics.
func (r *Resources) Add(res any) int {
	t := reflect.TypeOf(res)
	if t == nil || t.Kind() != reflect.Pointer || reflect.ValueOf(res).IsNil() {
		panic(fmt.Sprintf("hako: resource must be a non-nil pointer, got %T", res))
	}
	if r.types == nil {
		r.types = make(map[reflect.Type]int)
	}
	if _, ok := r.types[t]; ok {
		panic(fmt.Sprintf("hako: resource of type %v already exists", t))
	}
	var id int
	if n := len(r.free); n > 0 {
		id = r.free[n-1]
		r.free = r.free[:n-1]
		r.items[id] = res
	} else {
		id = len(r.items)
		r.items = append(r.items, res)
	}
	r.types[t] = id
	return id
}

// Has reports whether id refers to a stored resource.
func (r *Resources) Has(id int) bool {
	return id >= 0 && id < len(r.items) && r.items[id] != nil
}

// Get returns the resource stored under id, or nil.
func (r *Resources) Get(id int) any {
	if !r.Has(id) {
		return nil
	}
	return r.items[id]
}

// Remove deletes the resource stored under id. Its ID may be handed out again.
func (r *Resources) Remove(id int) {
	if !r.Has(id) {
		return
	}
	delete(r.types, reflect.TypeOf(r.items[id]))
	r.items[id] = nil
	r.free = append(r.free, id)
}

// Len returns the number of stored resources.
func (r *Resources) Len() int { return len(r.types) }

// Clear removes every resource.
func (r *Resources) Clear() {
	clear(r.items)
	r.items = r.items[:0]
	clear(r.types)
	r.free = r.free[:0]
}

// AddResource stores res in w and returns its ID.
func AddResource[T any](w *World, res *T) int {
	return w.resources.Add(res)
}

// GetResource returns the *T resource of w, or nil.
func GetResource[T any](w *World) *T {
	id, ok := w.resources.types[reflect.TypeFor[*T]()]
	if !ok {
		return nil
	}
	return w.resources.items[id].(*T)
}

// RemoveResource deletes the *T resource of w and reports whether there was
// one.
func RemoveResource[T any](w *World) bool {
	id, ok := w.resources.types[reflect.TypeFor[*T]()]
	if ok {
		w.resources.Remove(id)
	}
	return ok
}
