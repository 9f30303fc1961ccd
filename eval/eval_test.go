package eval

import (
	"testing"

	"github.com/hashicorp/go-set/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ThomasRohde/agent0/ast"
	"github.com/ThomasRohde/agent0/diag"
	"github.com/ThomasRohde/agent0/internal/a0test"
	"github.com/ThomasRohde/agent0/parser"
	"github.com/ThomasRohde/agent0/registry"
	"github.com/ThomasRohde/agent0/stdlib"
)

func mustParse(t *testing.T, src string) *ast.Program {
	t.Helper()
	prog, d := parser.Parse(src, "t.a0")
	require.Nil(t, d)
	return prog
}

func run(t *testing.T, src string, opts Options) (Result, *RuntimeError) {
	t.Helper()
	prog := mustParse(t, src)
	if opts.Stdlib == nil {
		opts.Stdlib = stdlib.New()
	}
	return Execute(prog, opts)
}

func TestExecuteReturnsLiteralValue(t *testing.T) {
	res, rtErr := run(t, `return 1 + 2`, Options{})
	require.Nil(t, rtErr)
	assert.Equal(t, float64(3), res.Value.Number())
}

func TestExecuteLetAndArrowRebind(t *testing.T) {
	res, rtErr := run(t, `let x = { a: 1 }
x.a -> y
return y`, Options{})
	require.Nil(t, rtErr)
	assert.Equal(t, float64(1), res.Value.Number())
}

func TestExecuteArrowWritesNestedField(t *testing.T) {
	res, rtErr := run(t, `let x = { a: { b: 1 } }
2 -> x.a.b
return x.a.b`, Options{})
	require.Nil(t, rtErr)
	assert.Equal(t, float64(2), res.Value.Number())
}

func TestExecuteMissingPathYieldsNull(t *testing.T) {
	res, rtErr := run(t, `let x = { a: 1 }
return x.missing`, Options{})
	require.Nil(t, rtErr)
	assert.True(t, res.Value.IsNull())
}

func TestExecuteProjectingThroughNonRecordErrors(t *testing.T) {
	_, rtErr := run(t, `let x = 1
return x.field`, Options{})
	require.NotNil(t, rtErr)
	assert.Equal(t, diag.EPath, rtErr.Code)
}

func TestExecuteAssertFailureIsUncatchable(t *testing.T) {
	_, rtErr := run(t, `try {
  assert { that: false, msg: "nope" }
  return 1
} catch { e } {
  return 0
}`, Options{})
	require.NotNil(t, rtErr)
	assert.Equal(t, diag.EAssert, rtErr.Code)
	assert.True(t, rtErr.Uncatchable)
}

func TestExecuteCheckRecordsEvidenceWithoutFailing(t *testing.T) {
	res, rtErr := run(t, `check { that: false, msg: "soft" }
return 1`, Options{})
	require.Nil(t, rtErr)
	require.Len(t, res.Evidence, 1)
	assert.Equal(t, "check", res.Evidence[0].Kind)
	assert.False(t, res.Evidence[0].OK)
}

func TestExecuteTryCatchesRuntimeError(t *testing.T) {
	res, rtErr := run(t, `return try {
  return 1 / 0
} catch { e } {
  return e.code
}`, Options{})
	require.Nil(t, rtErr)
	assert.Equal(t, string(diag.EType), res.Value.String())
}

func TestExecuteForBuildsListOfBlockResults(t *testing.T) {
	res, rtErr := run(t, `return for { in: [1,2,3], as: "item" } {
  return item * 2
}`, Options{})
	require.Nil(t, rtErr)
	var out []float64
	for _, e := range res.Value.Elements() {
		out = append(out, e.Number())
	}
	assert.Equal(t, []float64{2, 4, 6}, out)
}

func TestExecuteForRejectsNonList(t *testing.T) {
	_, rtErr := run(t, `return for { in: 1, as: "item" } { return item }`, Options{})
	require.NotNil(t, rtErr)
	assert.Equal(t, diag.EForNotList, rtErr.Code)
}

func TestExecuteMatchOkAndErrArms(t *testing.T) {
	res, rtErr := run(t, `return match { ok: 1 } {
  ok { v } { return v + 1 }
  err { e } { return 0 }
}`, Options{})
	require.Nil(t, rtErr)
	assert.Equal(t, float64(2), res.Value.Number())
}

func TestExecuteMatchNoArmErrors(t *testing.T) {
	_, rtErr := run(t, `return match { weird: 1 } {
  ok { v } { return v }
  err { e } { return 0 }
}`, Options{})
	require.NotNil(t, rtErr)
	assert.Equal(t, diag.EMatchNoArm, rtErr.Code)
}

func TestExecuteUserFunctionCallUsesDeclarationScope(t *testing.T) {
	res, rtErr := run(t, `let base = 10
fn addBase { x } { return x + base }
return addBase { x: 5 }`, Options{})
	require.Nil(t, rtErr)
	assert.Equal(t, float64(15), res.Value.Number())
}

func TestExecuteUnknownFunctionErrors(t *testing.T) {
	_, rtErr := run(t, `return nope { x: 1 }`, Options{})
	require.NotNil(t, rtErr)
	assert.Equal(t, diag.EUnknownFn, rtErr.Code)
}

func TestExecuteMapOverUserFunction(t *testing.T) {
	res, rtErr := run(t, `fn double { value } { return value * 2 }
return map { in: [1,2,3], fn: "double" }`, Options{})
	require.Nil(t, rtErr)
	var out []float64
	for _, e := range res.Value.Elements() {
		out = append(out, e.Number())
	}
	assert.Equal(t, []float64{2, 4, 6}, out)
}

func TestExecuteReduceSumsWithUserFunction(t *testing.T) {
	res, rtErr := run(t, `fn sum { acc, item } { return acc + item }
return reduce { in: [1,2,3], fn: "sum", init: 0 }`, Options{})
	require.Nil(t, rtErr)
	assert.Equal(t, float64(6), res.Value.Number())
}

func TestExecuteFilterByPredicateFunction(t *testing.T) {
	res, rtErr := run(t, `fn positive { value } { return { keep: value > 0 } }
return filter { in: [-1, 2, -3, 4], fn: "positive" }`, Options{})
	require.Nil(t, rtErr)
	var out []float64
	for _, e := range res.Value.Elements() {
		out = append(out, e.Number())
	}
	assert.Equal(t, []float64{2, 4}, out)
}

func TestExecuteFilterRejectsBothFnAndBy(t *testing.T) {
	_, rtErr := run(t, `return filter { in: [1], fn: "x", by: "y" }`, Options{})
	require.NotNil(t, rtErr)
	assert.Equal(t, diag.EType, rtErr.Code)
}

func TestExecuteRejectsDeclaredCapNotInAllowedSet(t *testing.T) {
	_, rtErr := run(t, `cap { fs.read: true }
return 1`, Options{AllowedCaps: set.From([]string{})})
	require.NotNil(t, rtErr)
	assert.Equal(t, diag.ECapDenied, rtErr.Code)
}

func TestExecuteAllowsDeclaredCapInAllowedSet(t *testing.T) {
	_, rtErr := run(t, `cap { fs.read: true }
return 1`, Options{AllowedCaps: set.From([]string{"fs.read"})})
	require.Nil(t, rtErr)
}

func TestExecuteBudgetExceededToolCalls(t *testing.T) {
	tool := a0test.NewMockTool("fs.read", "fs.read")
	tools := registry.ToolRegistry{"fs.read": tool}
	_, rtErr := run(t, `budget { maxToolCalls: 1 }
cap { fs.read: true }
call? fs.read { x: 1 }
return call? fs.read { x: 1 }`, Options{AllowedCaps: set.From([]string{"fs.read"}), Tools: tools})
	require.NotNil(t, rtErr)
	assert.Equal(t, diag.EBudget, rtErr.Code)
}

func TestExecuteToolArgsRejectedByJSONSchema(t *testing.T) {
	schema, err := registry.NewJSONSchemaInput([]byte(`{
		"type": "object",
		"required": ["path"],
		"properties": { "path": { "type": "string" } }
	}`))
	require.NoError(t, err)
	tool := a0test.NewMockTool("fs.read", "fs.read").SetSchema(schema)
	tools := registry.ToolRegistry{"fs.read": tool}

	_, rtErr := run(t, `cap { fs.read: true }
return call? fs.read { wrong: 1 }`, Options{AllowedCaps: set.From([]string{"fs.read"}), Tools: tools})
	require.NotNil(t, rtErr)
	assert.Equal(t, diag.EToolArgs, rtErr.Code)
}

func TestExecuteToolArgsAcceptedByJSONSchema(t *testing.T) {
	schema, err := registry.NewJSONSchemaInput([]byte(`{
		"type": "object",
		"required": ["path"],
		"properties": { "path": { "type": "string" } }
	}`))
	require.NoError(t, err)
	tool := a0test.NewMockTool("fs.read", "fs.read").SetSchema(schema)
	tools := registry.ToolRegistry{"fs.read": tool}

	_, rtErr := run(t, `cap { fs.read: true }
return call? fs.read { path: "a.txt" }`, Options{AllowedCaps: set.From([]string{"fs.read"}), Tools: tools})
	require.Nil(t, rtErr)
}

func TestExecuteDivisionByZeroErrors(t *testing.T) {
	_, rtErr := run(t, `return 1 / 0`, Options{})
	require.NotNil(t, rtErr)
	assert.Equal(t, diag.EType, rtErr.Code)
}

func TestExecuteStringConcatWithPlus(t *testing.T) {
	res, rtErr := run(t, `return "foo" + "bar"`, Options{})
	require.Nil(t, rtErr)
	assert.Equal(t, "foobar", res.Value.String())
}

func TestExecuteUnaryMinusRequiresNumber(t *testing.T) {
	_, rtErr := run(t, `return -"x"`, Options{})
	require.NotNil(t, rtErr)
	assert.Equal(t, diag.EType, rtErr.Code)
}
