package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ThomasRohde/agent0/internal/a0test"
	"github.com/ThomasRohde/agent0/parser"
	"github.com/ThomasRohde/agent0/registry"
	"github.com/ThomasRohde/agent0/stdlib"
)

func TestValidateAcceptsMinimalProgram(t *testing.T) {
	prog, err := parser.Parse(`return 1`, "t.a0")
	require.Nil(t, err)
	diags := Validate(prog, registry.ToolRegistry{}, stdlib.New())
	assert.Empty(t, diags)
}

func TestValidateRejectsMissingReturn(t *testing.T) {
	prog, err := parser.Parse(`let x = 1`, "t.a0")
	require.Nil(t, err)
	diags := Validate(prog, registry.ToolRegistry{}, stdlib.New())
	require.NotEmpty(t, diags)
	assertHasCode(t, diags, "E_NO_RETURN")
}

func TestValidateRejectsStatementAfterReturn(t *testing.T) {
	prog, err := parser.Parse(`return 1
let x = 2`, "t.a0")
	require.Nil(t, err)
	diags := Validate(prog, registry.ToolRegistry{}, stdlib.New())
	assertHasCode(t, diags, "E_RETURN_NOT_LAST")
}

func TestValidateRejectsUnknownCapability(t *testing.T) {
	prog, err := parser.Parse(`cap { nope: true }
return 1`, "t.a0")
	require.Nil(t, err)
	diags := Validate(prog, registry.ToolRegistry{}, stdlib.New())
	assertHasCode(t, diags, "E_UNKNOWN_CAP")
}

func TestValidateRejectsCapabilityValueNotTrue(t *testing.T) {
	prog, err := parser.Parse(`cap { fs.read: false }
return 1`, "t.a0")
	require.Nil(t, err)
	diags := Validate(prog, registry.ToolRegistry{}, stdlib.New())
	assertHasCode(t, diags, "E_CAP_VALUE")
}

func TestValidateRejectsDuplicateBudgetHeader(t *testing.T) {
	prog, err := parser.Parse(`budget { timeMs: 1 }
budget { maxToolCalls: 2 }
return 1`, "t.a0")
	require.Nil(t, err)
	diags := Validate(prog, registry.ToolRegistry{}, stdlib.New())
	assertHasCode(t, diags, "E_DUP_BUDGET")
}

func TestValidateRejectsUnknownBudgetField(t *testing.T) {
	prog, err := parser.Parse(`budget { nope: 1 }
return 1`, "t.a0")
	require.Nil(t, err)
	diags := Validate(prog, registry.ToolRegistry{}, stdlib.New())
	assertHasCode(t, diags, "E_UNKNOWN_BUDGET")
}

func TestValidateRejectsImport(t *testing.T) {
	prog, err := parser.Parse(`import "foo"
return 1`, "t.a0")
	require.Nil(t, err)
	diags := Validate(prog, registry.ToolRegistry{}, stdlib.New())
	assertHasCode(t, diags, "E_IMPORT_UNSUPPORTED")
}

func TestValidateRejectsUnboundIdentifier(t *testing.T) {
	prog, err := parser.Parse(`return missing`, "t.a0")
	require.Nil(t, err)
	diags := Validate(prog, registry.ToolRegistry{}, stdlib.New())
	assertHasCode(t, diags, "E_UNBOUND")
}

func TestValidateRejectsDuplicateBindingInSameScope(t *testing.T) {
	prog, err := parser.Parse(`let x = 1
let x = 2
return x`, "t.a0")
	require.Nil(t, err)
	diags := Validate(prog, registry.ToolRegistry{}, stdlib.New())
	assertHasCode(t, diags, "E_DUP_BINDING")
}

func TestValidateAllowsShadowingInChildScope(t *testing.T) {
	prog, err := parser.Parse(`let x = 1
let y = if (true) { let x = 2 return x } else { return 0 }
return y`, "t.a0")
	require.Nil(t, err)
	diags := Validate(prog, registry.ToolRegistry{}, stdlib.New())
	assert.Empty(t, diags)
}

func TestValidateRejectsUnknownFunction(t *testing.T) {
	prog, err := parser.Parse(`return nope { x: 1 }`, "t.a0")
	require.Nil(t, err)
	diags := Validate(prog, registry.ToolRegistry{}, stdlib.New())
	assertHasCode(t, diags, "E_UNKNOWN_FN")
}

func TestValidateAcceptsStdlibFunction(t *testing.T) {
	prog, err := parser.Parse(`return len { in: [1,2,3] }`, "t.a0")
	require.Nil(t, err)
	diags := Validate(prog, registry.ToolRegistry{}, stdlib.New())
	assert.Empty(t, diags)
}

func TestValidateRejectsFnDuplicatingStdlibName(t *testing.T) {
	prog, err := parser.Parse(`fn len { x } { return x }
return 1`, "t.a0")
	require.Nil(t, err)
	diags := Validate(prog, registry.ToolRegistry{}, stdlib.New())
	assertHasCode(t, diags, "E_FN_DUP")
}

func TestValidateRejectsUnknownTool(t *testing.T) {
	prog, err := parser.Parse(`cap { fs.read: true }
return call? fs.missing { path: "x" }`, "t.a0")
	require.Nil(t, err)
	diags := Validate(prog, registry.ToolRegistry{}, stdlib.New())
	assertHasCode(t, diags, "E_UNKNOWN_TOOL")
}

func TestValidateRejectsUndeclaredCapForKnownTool(t *testing.T) {
	tool := a0test.NewMockTool("fs.read", "fs.read")
	tools := registry.ToolRegistry{"fs.read": tool}
	prog, err := parser.Parse(`return call? fs.read { path: "x" }`, "t.a0")
	require.Nil(t, err)
	diags := Validate(prog, tools, stdlib.New())
	assertHasCode(t, diags, "E_UNDECLARED_CAP")
}

func TestValidateRejectsCallQOnEffectTool(t *testing.T) {
	tool := a0test.NewMockTool("fs.write", "fs.write").SetMode(registry.Effect)
	tools := registry.ToolRegistry{"fs.write": tool}
	prog, err := parser.Parse(`cap { fs.write: true }
return call? fs.write { path: "x" }`, "t.a0")
	require.Nil(t, err)
	diags := Validate(prog, tools, stdlib.New())
	assertHasCode(t, diags, "E_CALL_EFFECT")
}

func TestValidateAcceptsDoOnEffectTool(t *testing.T) {
	tool := a0test.NewMockTool("fs.write", "fs.write").SetMode(registry.Effect)
	tools := registry.ToolRegistry{"fs.write": tool}
	prog, err := parser.Parse(`cap { fs.write: true }
return do fs.write { path: "x" }`, "t.a0")
	require.Nil(t, err)
	diags := Validate(prog, tools, stdlib.New())
	assert.Empty(t, diags)
}

func TestMergedLimitsCombinesAcrossValidBudgetHeader(t *testing.T) {
	prog, err := parser.Parse(`budget { timeMs: 500, maxToolCalls: 3 }
return 1`, "t.a0")
	require.Nil(t, err)
	limits := MergedLimits(prog)
	require.NotNil(t, limits.TimeMs)
	assert.Equal(t, int64(500), *limits.TimeMs)
	require.NotNil(t, limits.MaxToolCalls)
	assert.Equal(t, int64(3), *limits.MaxToolCalls)
}

func TestDeclaredCapsCollectsAllCapHeaders(t *testing.T) {
	prog, err := parser.Parse(`cap { fs.read: true, fs.write: true }
return 1`, "t.a0")
	require.Nil(t, err)
	caps := DeclaredCaps(prog)
	assert.True(t, caps["fs.read"])
	assert.True(t, caps["fs.write"])
}

func assertHasCode(t *testing.T, diags interface{ Pretty() string }, code string) {
	t.Helper()
	assert.Contains(t, diags.Pretty(), code)
}
