package hako

type commandKind uint8

const (
	cmdSpawn commandKind = iota
	cmdDestroy
	cmdDestroyAll
	cmdAdd
	cmdRemove
)

func (k commandKind) String() string {
	switch k {
	case cmdSpawn:
		return "spawn"
	case cmdDestroy:
		return "destroy"
	case cmdDestroyAll:
		return "destroy_all"
	case cmdAdd:
		return "add"
	case cmdRemove:
		return "remove"
	}
	return "unknown"
}

// command is one recorded structural change. For adds, row indexes the
// payload in the buffer's staging store for comp.
type command struct {
	kind   commandKind
	comp   ComponentTypeID
	row    int32
	entity Entity
}

// CommandBuffer records structural changes made by one worker. The recorded
// commands are applied, in order, by the next World.ExecuteCommands.
//
// Components added to an entity that was spawned from the same buffer should
// be recorded right after its SpawnEntity, before the next spawn or any
// removal. They then land together in the final archetype. Adds recorded
// later still apply, at the cost of a migration per add.
type CommandBuffer struct {
	world    *World
	index    int
	commands []command
	staged   [MaxComponentTypes]column
	touched  []ComponentTypeID
}

func newCommandBuffer(w *World, index int) *CommandBuffer {
	return &CommandBuffer{
		world:    w,
		index:    index,
		commands: make([]command, 0, 64),
	}
}

// Index returns the worker index of the buffer.
func (cb *CommandBuffer) Index() int { return cb.index }

// Len returns the number of recorded commands.
func (cb *CommandBuffer) Len() int { return len(cb.commands) }

// EntityConstruct is a handle to an entity being built in a command buffer.
type EntityConstruct struct {
	cb     *CommandBuffer
	entity Entity
}

// Entity returns the handle of the entity under construction. It becomes
// valid once the buffer is applied.
func (c EntityConstruct) Entity() Entity { return c.entity }

// With records an add of value to the entity under construction.
//
//	hako.With(hako.With(cb.SpawnEntity(), Position{}), Velocity{X: 1})
func With[T any](c EntityConstruct, value T) EntityConstruct {
	AddComponent(c.cb, c.entity, value)
	return c
}

// SpawnEntity allocates a new entity handle right away and records its
// placement into storage.
func (cb *CommandBuffer) SpawnEntity() EntityConstruct {
	e := cb.world.entities.Allocate()
	cb.commands = append(cb.commands, command{kind: cmdSpawn, entity: e})
	return EntityConstruct{cb: cb, entity: e}
}

// DestroyEntity records the destruction of e.
func (cb *CommandBuffer) DestroyEntity(e Entity) {
	cb.commands = append(cb.commands, command{kind: cmdDestroy, entity: e})
}

// DestroyEntities records the destruction of every entity placed in storage
// at the point the command is applied.
func (cb *CommandBuffer) DestroyEntities() {
	cb.commands = append(cb.commands, command{kind: cmdDestroyAll})
}

// AddComponent records an add of value to e and returns a pointer to the
// staged copy. The pointer stays valid, and writes through it are kept, until
// the buffer is applied.
func AddComponent[T any](cb *CommandBuffer, e Entity, value T) *T {
	id := ComponentID[T]()
	s := stage[T](cb, id)
	row := s.push(value)
	cb.commands = append(cb.commands, command{kind: cmdAdd, comp: id, row: int32(row), entity: e})
	return s.at(row)
}

// RemoveComponent records the removal of T from e.
func RemoveComponent[T any](cb *CommandBuffer, e Entity) {
	cb.commands = append(cb.commands, command{kind: cmdRemove, comp: ComponentID[T](), entity: e})
}

func stage[T any](cb *CommandBuffer, id ComponentTypeID) *pagedStore[T] {
	if c := cb.staged[id]; c != nil {
		return c.(*pagedStore[T])
	}
	s := newPagedStore[T](id, stagingPageSize)
	cb.staged[id] = s
	cb.touched = append(cb.touched, id)
	return s
}

// reset drops all commands and staged payloads. Payloads are zeroed, not
// destructed: by now each was either moved into storage or destructed.
func (cb *CommandBuffer) reset() {
	cb.commands = cb.commands[:0]
	for _, id := range cb.touched {
		cb.staged[id].reset()
	}
}
