package hako

// Builder1 spawns entities with a preset component type through one command
// buffer.
type Builder1[A any] struct {
	cb *CommandBuffer
}

// NewBuilder1 returns a builder recording into cb.
func NewBuilder1[A any](cb *CommandBuffer) Builder1[A] {
	RegisterComponent[A]()
	return Builder1[A]{cb: cb}
}

// NewEntity records the spawn of an entity holding a.
func (b Builder1[A]) NewEntity(a A) Entity {
	ec := b.cb.SpawnEntity()
	AddComponent(b.cb, ec.entity, a)
	return ec.entity
}

// NewEntities records count spawns holding copies of a and appends their
// handles to dst.
func (b Builder1[A]) NewEntities(dst []Entity, count int, a A) []Entity {
	for range count {
		dst = append(dst, b.NewEntity(a))
	}
	return dst
}

// Builder2 spawns entities with two preset component types.
type Builder2[A, B any] struct {
	cb *CommandBuffer
}

// NewBuilder2 returns a builder recording into cb.
func NewBuilder2[A, B any](cb *CommandBuffer) Builder2[A, B] {
	RegisterComponent[A]()
	RegisterComponent[B]()
	return Builder2[A, B]{cb: cb}
}

// NewEntity records the spawn of an entity holding a and b.
func (b Builder2[A, B]) NewEntity(a A, bv B) Entity {
	ec := b.cb.SpawnEntity()
	AddComponent(b.cb, ec.entity, a)
	AddComponent(b.cb, ec.entity, bv)
	return ec.entity
}

// NewEntities records count spawns and appends their handles to dst.
func (b Builder2[A, B]) NewEntities(dst []Entity, count int, a A, bv B) []Entity {
	for range count {
		dst = append(dst, b.NewEntity(a, bv))
	}
	return dst
}

// Builder3 spawns entities with three preset component types.
type Builder3[A, B, C any] struct {
	cb *CommandBuffer
}

// NewBuilder3 returns a builder recording into cb.
func NewBuilder3[A, B, C any](cb *CommandBuffer) Builder3[A, B, C] {
	RegisterComponent[A]()
	RegisterComponent[B]()
	RegisterComponent[C]()
	return Builder3[A, B, C]{cb: cb}
}

// NewEntity records the spawn of an entity holding a, b and c.
func (b Builder3[A, B, C]) NewEntity(a A, bv B, c C) Entity {
	ec := b.cb.SpawnEntity()
	AddComponent(b.cb, ec.entity, a)
	AddComponent(b.cb, ec.entity, bv)
	AddComponent(b.cb, ec.entity, c)
	return ec.entity
}

// NewEntities records count spawns and appends their handles to dst.
func (b Builder3[A, B, C]) NewEntities(dst []Entity, count int, a A, bv B, c C) []Entity {
	for range count {
		dst = append(dst, b.NewEntity(a, bv, c))
	}
	return dst
}

// AddComponentBatch records an add of a copy of value to each entity.
func AddComponentBatch[T any](cb *CommandBuffer, entities []Entity, value T) {
	for _, e := range entities {
		AddComponent(cb, e, value)
	}
}

// RemoveComponentBatch records the removal of T from each entity.
func RemoveComponentBatch[T any](cb *CommandBuffer, entities []Entity) {
	for _, e := range entities {
		RemoveComponent[T](cb, e)
	}
}

// DestroyEntityBatch records the destruction of each entity.
func (cb *CommandBuffer) DestroyEntityBatch(entities []Entity) {
	for _, e := range entities {
		cb.DestroyEntity(e)
	}
}
