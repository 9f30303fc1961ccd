// Package a0test provides in-memory registry.ToolDef and StdlibFn test
// doubles for evaluator tests, recording every call for assertions.
// Grounded on the teacher's core/sdk/executor/mock_transport.go
// (MockTransport: configurable per-command responses, a recorded-calls
// slice, a mutex-guarded Reset).
package a0test

import (
	"context"
	"fmt"
	"sync"

	"github.com/ThomasRohde/agent0/registry"
	"github.com/ThomasRohde/agent0/value"
)

// ToolCall records one Execute invocation against a MockTool.
type ToolCall struct {
	Args value.Value
}

// MockTool is a configurable, call-recording registry.ToolDef.
type MockTool struct {
	mu sync.Mutex

	name    string
	mode    registry.Mode
	capID   string
	schema  registry.InputSchema
	result  value.Value
	err     error
	calls   []ToolCall
}

// NewMockTool creates a read-mode tool by default; call SetMode to change it.
func NewMockTool(name, capabilityID string) *MockTool {
	return &MockTool{name: name, capID: capabilityID, mode: registry.Read}
}

func (t *MockTool) Name() string                    { return t.name }
func (t *MockTool) Mode() registry.Mode              { return t.mode }
func (t *MockTool) CapabilityID() string             { return t.capID }
func (t *MockTool) InputSchema() registry.InputSchema { return t.schema }

// SetMode configures whether the tool is read-only or effectful.
func (t *MockTool) SetMode(mode registry.Mode) *MockTool {
	t.mode = mode
	return t
}

// SetSchema attaches an input schema; pass nil to accept any args record.
func (t *MockTool) SetSchema(schema registry.InputSchema) *MockTool {
	t.schema = schema
	return t
}

// SetResult configures the value Execute returns on every call.
func (t *MockTool) SetResult(v value.Value) *MockTool {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.result = v
	return t
}

// SetError configures Execute to fail with err instead of returning a value.
func (t *MockTool) SetError(err error) *MockTool {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.err = err
	return t
}

// Execute implements registry.ToolDef.
func (t *MockTool) Execute(ctx context.Context, args value.Value) (value.Value, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls = append(t.calls, ToolCall{Args: args})
	if t.err != nil {
		return value.Value{}, t.err
	}
	return t.result, nil
}

// Calls returns every recorded invocation, in order.
func (t *MockTool) Calls() []ToolCall {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]ToolCall, len(t.calls))
	copy(out, t.calls)
	return out
}

// CallCount returns the number of times Execute has been called.
func (t *MockTool) CallCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.calls)
}

// Reset clears recorded calls without touching the configured response.
func (t *MockTool) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls = nil
}

// requiredFieldsSchema is a minimal registry.InputSchema that just checks a
// fixed set of field names are present, for tests that don't need full
// JSON Schema validation.
type requiredFieldsSchema struct {
	fields []string
}

// NewRequiredFieldsSchema builds a schema rejecting args missing any of fields.
func NewRequiredFieldsSchema(fields ...string) registry.InputSchema {
	return &requiredFieldsSchema{fields: fields}
}

func (s *requiredFieldsSchema) Validate(args value.Value) error {
	for _, f := range s.fields {
		if !args.Has(f) {
			return fmt.Errorf("missing required field %q", f)
		}
	}
	return nil
}
