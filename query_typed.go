package hako

// Query1 is a query over a single component type with write access.
type Query1[A any] struct{ *Query }

// NewQuery1 returns a query over A.
func NewQuery1[A any]() Query1[A] {
	return Query1[A]{NewQuery(Write[A]())}
}

// Each calls fn for every matched entity.
func (q Query1[A]) Each(w *World, fn func(Entity, *A)) {
	it := q.Iter(w)
	for it.Next() {
		es, as := it.Entities(), Get[A](&it)
		for i := range as {
			fn(es[i], &as[i])
		}
	}
}

// Batches calls fn once per page of matched rows.
func (q Query1[A]) Batches(w *World, fn func([]Entity, []A)) {
	it := q.Iter(w)
	for it.Next() {
		fn(it.Entities(), Get[A](&it))
	}
}

// Query2 is a query over two component types with write access.
type Query2[A, B any] struct{ *Query }

// NewQuery2 returns a query over A and B.
func NewQuery2[A, B any]() Query2[A, B] {
	return Query2[A, B]{NewQuery(Write[A](), Write[B]())}
}

// Each calls fn for every matched entity.
func (q Query2[A, B]) Each(w *World, fn func(Entity, *A, *B)) {
	it := q.Iter(w)
	for it.Next() {
		es, as, bs := it.Entities(), Get[A](&it), Get[B](&it)
		for i := range as {
			fn(es[i], &as[i], &bs[i])
		}
	}
}

// Batches calls fn once per page of matched rows.
func (q Query2[A, B]) Batches(w *World, fn func([]Entity, []A, []B)) {
	it := q.Iter(w)
	for it.Next() {
		fn(it.Entities(), Get[A](&it), Get[B](&it))
	}
}

// Query3 is a query over three component types with write access.
type Query3[A, B, C any] struct{ *Query }

// NewQuery3 returns a query over A, B and C.
func NewQuery3[A, B, C any]() Query3[A, B, C] {
	return Query3[A, B, C]{NewQuery(Write[A](), Write[B](), Write[C]())}
}

// Each calls fn for every matched entity.
func (q Query3[A, B, C]) Each(w *World, fn func(Entity, *A, *B, *C)) {
	it := q.Iter(w)
	for it.Next() {
		es, as, bs, cs := it.Entities(), Get[A](&it), Get[B](&it), Get[C](&it)
		for i := range as {
			fn(es[i], &as[i], &bs[i], &cs[i])
		}
	}
}

// Batches calls fn once per page of matched rows.
func (q Query3[A, B, C]) Batches(w *World, fn func([]Entity, []A, []B, []C)) {
	it := q.Iter(w)
	for it.Next() {
		fn(it.Entities(), Get[A](&it), Get[B](&it), Get[C](&it))
	}
}
