// Package registry defines the two process-scoped, immutable-as-inputs
// registries the evaluator and validator consume: the tool registry and
// the stdlib registry (spec.md §3 "Tool registry contract", §4.8).
// Grounded on the teacher's core/decorator/decorator.go interface-driven
// plugin registry (name-keyed, capability-gated).
package registry

import (
	"context"

	"github.com/ThomasRohde/agent0/value"
)

// Mode is a tool's invocation mode: read-only (safe under call?) or
// effectful (requires do).
type Mode int

const (
	Read Mode = iota
	Effect
)

func (m Mode) String() string {
	if m == Effect {
		return "effect"
	}
	return "read"
}

// InputSchema validates a tool's args record before invocation, surfacing
// rejection as E_TOOL_ARGS. NewJSONSchemaInput builds one from a JSON
// Schema document; hosts may also supply their own implementation.
type InputSchema interface {
	Validate(args value.Value) error
}

// ToolDef is one externally supplied tool, source-visible as
// `call? name {...}` (read mode only) or `do name {...}` (either mode).
type ToolDef interface {
	Name() string
	Mode() Mode
	CapabilityID() string
	InputSchema() InputSchema // nil if the tool accepts any args record
	Execute(ctx context.Context, args value.Value) (value.Value, error)
}

// ToolRegistry is the name -> ToolDef table passed into execute via
// Options. Validator and evaluator both treat it as a read-only input.
type ToolRegistry map[string]ToolDef

// StdlibFn is one pure stdlib function: args record in, value out, or an
// error (surfaced as E_FN by the evaluator).
type StdlibFn func(args value.Value) (value.Value, error)

// StdlibRegistry is the name -> StdlibFn table. Built once at process
// start by the stdlib package and treated as a read-only input thereafter.
type StdlibRegistry map[string]StdlibFn
