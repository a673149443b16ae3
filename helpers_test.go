package hako

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type Position struct {
	X, Y float32
}

type Velocity struct {
	X, Y float32
}

type Health struct {
	Value int
}

type Tag struct{}

// Resource counts how often it is destructed.
type Resource struct {
	ID        int
	destroyed *int
}

func (r *Resource) Destroy() {
	if r.destroyed != nil {
		*r.destroyed++
	}
}

func newTestWorld(t testing.TB, opts ...Option) *World {
	t.Helper()
	opts = append([]Option{WithLogger(zerolog.Nop()), WithWorkers(2)}, opts...)
	return NewWorld(opts...)
}

// newLoggedWorld returns a world whose log output is captured in the returned
// buffer.
func newLoggedWorld(t testing.TB, opts ...Option) (*World, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	opts = append([]Option{WithLogger(zerolog.New(&buf).Level(zerolog.DebugLevel)), WithWorkers(2)}, opts...)
	return NewWorld(opts...), &buf
}

// execute applies all buffers and checks storage invariants.
func execute(t testing.TB, w *World) {
	t.Helper()
	w.ExecuteCommands()
	require.NoError(t, w.CheckIntegrity())
}

func spawn(cb *CommandBuffer, comps ...func(EntityConstruct)) Entity {
	ec := cb.SpawnEntity()
	for _, c := range comps {
		c(ec)
	}
	return ec.Entity()
}

func with[T any](v T) func(EntityConstruct) {
	return func(ec EntityConstruct) { With(ec, v) }
}
