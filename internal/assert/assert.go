//go:build !debug

// Package assert provides invariant checks that are compiled in only with the
// debug build tag. Release builds pay nothing for them.
package assert

// Enabled reports whether assertions are compiled in.
const Enabled = false

// That is a no-op unless built with -tags debug.
func That(bool, string, ...any) {}
