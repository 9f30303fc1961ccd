package registry

import (
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/ThomasRohde/agent0/value"
)

// jsonSchemaInput is an InputSchema backed by a compiled JSON Schema
// document. Grounded on the teacher's core/types/validation.go
// compileSchema: the document is compiled once, at tool-registration time,
// and reused across every call.
type jsonSchemaInput struct {
	schema *jsonschema.Schema
}

// NewJSONSchemaInput compiles doc (a JSON Schema document, draft 2020-12)
// into an InputSchema a host can return from ToolDef.InputSchema. The
// evaluator's tool-invocation path (§4.6) calls Validate on every call?/do
// before the tool runs, surfacing rejection as E_TOOL_ARGS.
func NewJSONSchemaInput(doc []byte) (InputSchema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020

	const url = "schema://tool-args.json"
	if err := compiler.AddResource(url, strings.NewReader(string(doc))); err != nil {
		return nil, fmt.Errorf("registry: adding input schema resource: %w", err)
	}
	schema, err := compiler.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("registry: compiling input schema: %w", err)
	}
	return &jsonSchemaInput{schema: schema}, nil
}

// Validate converts args to a plain Go value tree via value.ToGo and runs
// it through the compiled schema.
func (s *jsonSchemaInput) Validate(args value.Value) error {
	if err := s.schema.Validate(value.ToGo(args)); err != nil {
		return err
	}
	return nil
}
