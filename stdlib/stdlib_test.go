package stdlib

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ThomasRohde/agent0/value"
)

func rec(fields ...value.Field) value.Value { return value.NewRecord(fields) }
func f(key string, v value.Value) value.Field { return value.Field{Key: key, Value: v} }

func TestNewRegistersEveryName(t *testing.T) {
	reg := New()
	names := []string{
		"parse.json", "get", "put", "patch", "eq", "contains", "not", "and", "or",
		"coalesce", "typeof", "len", "append", "concat", "sort", "filter", "find",
		"range", "join", "map", "reduce", "unique", "pluck", "flat", "str.concat",
		"str.split", "str.starts", "str.ends", "str.replace", "str.template",
		"keys", "values", "merge", "entries", "math.max", "math.min",
	}
	for _, n := range names {
		_, ok := reg[n]
		assert.True(t, ok, "expected %q registered", n)
	}
}

func TestUnreachableHigherOrderErrors(t *testing.T) {
	reg := New()
	_, err := reg["map"](value.NewRecord(nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dispatched by the evaluator")
}

func TestEq(t *testing.T) {
	out, err := eq(rec(f("a", value.NewNumber(1)), f("b", value.NewNumber(1))))
	require.NoError(t, err)
	assert.True(t, out.Bool())

	out, err = eq(rec(f("a", value.NewString("x")), f("b", value.NewString("y"))))
	require.NoError(t, err)
	assert.False(t, out.Bool())
}

func TestNotAndAndOr(t *testing.T) {
	out, err := not(rec(f("value", value.NewBool(false))))
	require.NoError(t, err)
	assert.True(t, out.Bool())

	out, err = and(rec(f("a", value.NewBool(true)), f("b", value.NewBool(false))))
	require.NoError(t, err)
	assert.False(t, out.Bool())

	out, err = or(rec(f("a", value.NewBool(false)), f("b", value.NewBool(true))))
	require.NoError(t, err)
	assert.True(t, out.Bool())
}

func TestCoalescePreservesFalsyNonNull(t *testing.T) {
	out, err := coalesce(rec(f("a", value.NewNumber(0)), f("b", value.NewNumber(9))))
	require.NoError(t, err)
	assert.Equal(t, float64(0), out.Number())

	out, err = coalesce(rec(f("a", value.NewNull()), f("b", value.NewNumber(9))))
	require.NoError(t, err)
	assert.Equal(t, float64(9), out.Number())
}

func TestTypeOf(t *testing.T) {
	out, err := typeOf(rec(f("value", value.NewList(nil))))
	require.NoError(t, err)
	assert.Equal(t, "list", out.String())
}

func TestContainsString(t *testing.T) {
	out, err := contains(rec(f("in", value.NewString("hello world")), f("value", value.NewString("world"))))
	require.NoError(t, err)
	assert.True(t, out.Bool())
}

func TestContainsList(t *testing.T) {
	out, err := contains(rec(f("in", value.NewList([]value.Value{value.NewNumber(1), value.NewNumber(2)})), f("value", value.NewNumber(2))))
	require.NoError(t, err)
	assert.True(t, out.Bool())
}

func TestContainsRecordKey(t *testing.T) {
	out, err := contains(rec(f("in", rec(f("a", value.NewNumber(1)))), f("value", value.NewString("a"))))
	require.NoError(t, err)
	assert.True(t, out.Bool())
}

func TestContainsRejectsUnsupportedIn(t *testing.T) {
	_, err := contains(rec(f("in", value.NewNumber(1)), f("value", value.NewNumber(1))))
	require.Error(t, err)
}

func TestReqFieldMissingErrors(t *testing.T) {
	_, err := eq(rec(f("a", value.NewNumber(1))))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required field b")
}
