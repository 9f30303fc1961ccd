package a0test

import (
	"sync"

	"github.com/ThomasRohde/agent0/registry"
	"github.com/ThomasRohde/agent0/value"
)

// MockStdlibFn wraps a registry.StdlibFn and records every call's args, for
// tests that need to assert a user fn/map/reduce/filter call reached a
// particular stdlib-registered name with the expected arguments.
type MockStdlibFn struct {
	mu    sync.Mutex
	fn    registry.StdlibFn
	calls []value.Value
}

// NewMockStdlibFn wraps fn, recording calls but delegating to it.
func NewMockStdlibFn(fn registry.StdlibFn) *MockStdlibFn {
	return &MockStdlibFn{fn: fn}
}

// AsStdlibFn adapts the recorder to the registry.StdlibFn signature so it
// can be inserted directly into a registry.StdlibRegistry under test.
func (m *MockStdlibFn) AsStdlibFn() registry.StdlibFn {
	return func(args value.Value) (value.Value, error) {
		m.mu.Lock()
		m.calls = append(m.calls, args)
		m.mu.Unlock()
		return m.fn(args)
	}
}

// Calls returns every recorded call's args, in order.
func (m *MockStdlibFn) Calls() []value.Value {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]value.Value, len(m.calls))
	copy(out, m.calls)
	return out
}
