// Package hako implements an archetype-based Entity Component System.
//
// Entities are grouped by the exact set of component types they carry. Each
// group (an archetype) stores its components column by column in fixed-size
// pages, so iteration walks contiguous memory and pointers into a page stay
// stable while the row lives.
//
// Structural changes are never applied directly. Worker goroutines record them
// into their own CommandBuffer, and the main loop applies all buffers at once
// with World.ExecuteCommands:
//
//	cb := w.GetCommandBuffer(worker)
//	e := cb.SpawnEntity()
//	hako.With(e, Position{X: 1})
//	hako.With(e, Velocity{X: 2})
//	...
//	w.ExecuteCommands()
//
// Queries are process-wide descriptors. A World keeps a cache of matching
// archetypes per query that is updated as new archetypes appear.
package hako

const (
	// MaxComponentTypes is the number of distinct component types a process
	// can register.
	MaxComponentTypes = 256

	// DefaultPageSize is the number of rows in one storage page.
	DefaultPageSize = 1024

	// stagingPageSize is the page size of command buffer staging stores.
	stagingPageSize = 64

	maxEntityPools    = 16
	entityPoolBits    = 26
	entityPoolMask    = 1<<entityPoolBits - 1
	entityPoolEntries = 1 << entityPoolBits
)
