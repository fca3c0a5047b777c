package atlas

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

// newTestManager creates a manager with per-mutation validation enabled.
func newTestManager(t testing.TB, width, height uint32) *Manager {
	t.Helper()
	m, err := New(width, height, &Options{Validate: true})
	require.NoError(t, err)
	return m
}

// mustAllocate allocates and fails the test on ErrNoSpace.
func mustAllocate(t testing.TB, m *Manager, width, height uint32) Region {
	t.Helper()
	r, err := m.Allocate(width, height)
	require.NoError(t, err, "Allocate(%d, %d)", width, height)
	require.Equal(t, width, r.Width)
	require.Equal(t, height, r.Height)
	return r
}

// assertConsistent runs the full validator.
func assertConsistent(t testing.TB, m *Manager) {
	t.Helper()
	require.NoError(t, m.CheckConsistency())
}

// requireProtocolPanic asserts that fn panics with a *ProtocolError for op.
func requireProtocolPanic(t testing.TB, op string, fn func()) {
	t.Helper()
	var recovered any
	func() {
		defer func() { recovered = recover() }()
		fn()
	}()
	require.NotNil(t, recovered, "expected a panic")
	err, ok := recovered.(error)
	require.True(t, ok, "panic value %v is not an error", recovered)
	var pe *ProtocolError
	require.True(t, errors.As(err, &pe), "panic value %v is not a *ProtocolError", err)
	require.Equal(t, op, pe.Op)
}
