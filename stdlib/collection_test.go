package stdlib

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ThomasRohde/agent0/value"
)

func numList(ns ...float64) value.Value {
	out := make([]value.Value, len(ns))
	for i, n := range ns {
		out[i] = value.NewNumber(n)
	}
	return value.NewList(out)
}

func TestLength(t *testing.T) {
	out, err := length(rec(f("value", value.NewString("héllo"))))
	require.NoError(t, err)
	assert.Equal(t, float64(5), out.Number())

	out, err = length(rec(f("value", numList(1, 2, 3))))
	require.NoError(t, err)
	assert.Equal(t, float64(3), out.Number())
}

func TestAppend(t *testing.T) {
	out, err := appendFn(rec(f("in", numList(1, 2)), f("value", value.NewNumber(3))))
	require.NoError(t, err)
	assert.Len(t, out.Elements(), 3)
	assert.Equal(t, float64(3), out.Elements()[2].Number())
}

func TestConcat(t *testing.T) {
	out, err := concat(rec(f("a", numList(1, 2)), f("b", numList(3))))
	require.NoError(t, err)
	assert.Len(t, out.Elements(), 3)
}

func TestSortNumbers(t *testing.T) {
	out, err := sort_(rec(f("in", numList(3, 1, 2))))
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3}, numsOf(out))
}

func TestSortByField(t *testing.T) {
	in := value.NewList([]value.Value{
		rec(f("n", value.NewNumber(2))),
		rec(f("n", value.NewNumber(1))),
	})
	out, err := sort_(rec(f("in", in), f("by", value.NewString("n"))))
	require.NoError(t, err)
	first, _ := out.Elements()[0].Get("n")
	assert.Equal(t, float64(1), first.Number())
}

func TestSortMixedTypesErrors(t *testing.T) {
	in := value.NewList([]value.Value{value.NewNumber(1), value.NewString("a")})
	_, err := sort_(rec(f("in", in)))
	require.Error(t, err)
}

func TestFilterFallbackByField(t *testing.T) {
	in := value.NewList([]value.Value{
		rec(f("ok", value.NewBool(true)), f("n", value.NewNumber(1))),
		rec(f("ok", value.NewBool(false)), f("n", value.NewNumber(2))),
	})
	out, err := filterFallback(rec(f("in", in), f("by", value.NewString("ok"))))
	require.NoError(t, err)
	assert.Len(t, out.Elements(), 1)
}

func TestFindByField(t *testing.T) {
	in := value.NewList([]value.Value{
		rec(f("id", value.NewNumber(1))),
		rec(f("id", value.NewNumber(2))),
	})
	out, err := find(rec(f("in", in), f("value", value.NewNumber(2)), f("by", value.NewString("id"))))
	require.NoError(t, err)
	id, _ := out.Get("id")
	assert.Equal(t, float64(2), id.Number())
}

func TestFindNoMatchReturnsNull(t *testing.T) {
	out, err := find(rec(f("in", numList(1, 2)), f("value", value.NewNumber(99))))
	require.NoError(t, err)
	assert.True(t, out.IsNull())
}

func TestRangeDefaultStep(t *testing.T) {
	out, err := rangeFn(rec(f("from", value.NewNumber(0)), f("to", value.NewNumber(3))))
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1, 2}, numsOf(out))
}

func TestRangeNegativeStep(t *testing.T) {
	out, err := rangeFn(rec(f("from", value.NewNumber(3)), f("to", value.NewNumber(0)), f("step", value.NewNumber(-1))))
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 2, 1}, numsOf(out))
}

func TestRangeZeroStepErrors(t *testing.T) {
	_, err := rangeFn(rec(f("from", value.NewNumber(0)), f("to", value.NewNumber(1)), f("step", value.NewNumber(0))))
	require.Error(t, err)
}

func TestJoin(t *testing.T) {
	in := value.NewList([]value.Value{value.NewString("a"), value.NewString("b")})
	out, err := join(rec(f("in", in), f("sep", value.NewString(", "))))
	require.NoError(t, err)
	assert.Equal(t, "a, b", out.String())
}

func TestUniqueDedupesDeepEqual(t *testing.T) {
	in := value.NewList([]value.Value{value.NewNumber(1), value.NewNumber(1), value.NewNumber(2)})
	out, err := unique(rec(f("in", in)))
	require.NoError(t, err)
	assert.Len(t, out.Elements(), 2)
}

func TestPluck(t *testing.T) {
	in := value.NewList([]value.Value{rec(f("name", value.NewString("a"))), rec(f("name", value.NewString("b")))})
	out, err := pluck(rec(f("in", in), f("key", value.NewString("name"))))
	require.NoError(t, err)
	assert.Equal(t, "a", out.Elements()[0].String())
}

func TestFlatOneLevel(t *testing.T) {
	in := value.NewList([]value.Value{numList(1, 2), value.NewNumber(3)})
	out, err := flat(rec(f("in", in)))
	require.NoError(t, err)
	assert.Len(t, out.Elements(), 3)
}

func TestKeysAndValues(t *testing.T) {
	r := rec(f("a", value.NewNumber(1)), f("b", value.NewNumber(2)))
	ks, err := keys(rec(f("in", r)))
	require.NoError(t, err)
	assert.Equal(t, "a", ks.Elements()[0].String())

	vs, err := values(rec(f("in", r)))
	require.NoError(t, err)
	assert.Equal(t, float64(1), vs.Elements()[0].Number())
}

func TestMergeBOverridesA(t *testing.T) {
	a := rec(f("x", value.NewNumber(1)), f("y", value.NewNumber(2)))
	b := rec(f("y", value.NewNumber(99)), f("z", value.NewNumber(3)))
	out, err := merge(rec(f("a", a), f("b", b)))
	require.NoError(t, err)
	y, _ := out.Get("y")
	assert.Equal(t, float64(99), y.Number())
	assert.Len(t, out.Fields(), 3)
}

func TestEntries(t *testing.T) {
	r := rec(f("a", value.NewNumber(1)))
	out, err := entries(rec(f("in", r)))
	require.NoError(t, err)
	k, _ := out.Elements()[0].Get("key")
	v, _ := out.Elements()[0].Get("value")
	assert.Equal(t, "a", k.String())
	assert.Equal(t, float64(1), v.Number())
}

func TestMathMaxMin(t *testing.T) {
	out, err := mathMax(rec(f("a", value.NewNumber(1)), f("b", value.NewNumber(2))))
	require.NoError(t, err)
	assert.Equal(t, float64(2), out.Number())

	out, err = mathMin(rec(f("a", value.NewNumber(1)), f("b", value.NewNumber(2))))
	require.NoError(t, err)
	assert.Equal(t, float64(1), out.Number())
}

func numsOf(v value.Value) []float64 {
	out := make([]float64, len(v.Elements()))
	for i, e := range v.Elements() {
		out[i] = e.Number()
	}
	return out
}
