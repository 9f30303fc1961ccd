package stdlib

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ThomasRohde/agent0/value"
)

func TestParsePathDottedAndIndexed(t *testing.T) {
	segs, err := parsePath("a.b[0].c")
	require.NoError(t, err)
	require.Len(t, segs, 4)
	assert.Equal(t, "a", segs[0].key)
	assert.Equal(t, "b", segs[1].key)
	assert.True(t, segs[2].isIndex)
	assert.Equal(t, 0, segs[2].index)
	assert.Equal(t, "c", segs[3].key)
}

func TestParsePathEmptySegmentErrors(t *testing.T) {
	_, err := parsePath("a..b")
	require.Error(t, err)
}

func TestParsePathUnmatchedBracketErrors(t *testing.T) {
	_, err := parsePath("a[0")
	require.Error(t, err)
}

func TestGetMissingKeyYieldsNull(t *testing.T) {
	in := rec(f("a", value.NewNumber(1)))
	out, err := get(rec(f("in", in), f("path", value.NewString("b"))))
	require.NoError(t, err)
	assert.True(t, out.IsNull())
}

func TestGetNestedPath(t *testing.T) {
	in := rec(f("a", value.NewList([]value.Value{rec(f("c", value.NewNumber(9)))})))
	out, err := get(rec(f("in", in), f("path", value.NewString("a[0].c"))))
	require.NoError(t, err)
	assert.Equal(t, float64(9), out.Number())
}

func TestPutCreatesIntermediateStructures(t *testing.T) {
	out, err := put(rec(f("in", rec()), f("path", value.NewString("a.b")), f("value", value.NewNumber(5))))
	require.NoError(t, err)
	got, err := get(rec(f("in", out), f("path", value.NewString("a.b"))))
	require.NoError(t, err)
	assert.Equal(t, float64(5), got.Number())
}

func TestPutExtendsList(t *testing.T) {
	out, err := put(rec(f("in", rec()), f("path", value.NewString("items[2]")), f("value", value.NewString("x"))))
	require.NoError(t, err)
	items, _ := out.Get("items")
	require.Len(t, items.Elements(), 3)
	assert.True(t, items.Elements()[0].IsNull())
	assert.Equal(t, "x", items.Elements()[2].String())
}

func TestPatchAddReplaceRemove(t *testing.T) {
	in := rec(f("a", value.NewNumber(1)))
	ops := value.NewList([]value.Value{
		rec(f("op", value.NewString("add")), f("path", value.NewString("b")), f("value", value.NewNumber(2))),
		rec(f("op", value.NewString("replace")), f("path", value.NewString("a")), f("value", value.NewNumber(9))),
	})
	out, err := patch(rec(f("in", in), f("ops", ops)))
	require.NoError(t, err)
	a, _ := out.Get("a")
	b, _ := out.Get("b")
	assert.Equal(t, float64(9), a.Number())
	assert.Equal(t, float64(2), b.Number())

	removeOps := value.NewList([]value.Value{
		rec(f("op", value.NewString("remove")), f("path", value.NewString("a"))),
	})
	out2, err := patch(rec(f("in", out), f("ops", removeOps)))
	require.NoError(t, err)
	assert.False(t, out2.Has("a"))
}

func TestPatchUnsupportedOpErrors(t *testing.T) {
	ops := value.NewList([]value.Value{
		rec(f("op", value.NewString("move")), f("path", value.NewString("a"))),
	})
	_, err := patch(rec(f("in", rec()), f("ops", ops)))
	require.Error(t, err)
}

func TestPathRemoveFromList(t *testing.T) {
	in := rec(f("xs", value.NewList([]value.Value{value.NewNumber(1), value.NewNumber(2), value.NewNumber(3)})))
	segs, err := parsePath("xs[1]")
	require.NoError(t, err)
	out, err := pathRemove(in, segs)
	require.NoError(t, err)
	xs, _ := out.Get("xs")
	assert.Equal(t, []float64{1, 3}, numsOf(xs))
}

func TestParseJSONWrapsValueFromJSON(t *testing.T) {
	out, err := parseJSON(rec(f("text", value.NewString(`{"a":1}`))))
	require.NoError(t, err)
	a, ok := out.Get("a")
	require.True(t, ok)
	assert.Equal(t, float64(1), a.Number())
}

func TestParseJSONInvalidTextErrors(t *testing.T) {
	_, err := parseJSON(rec(f("text", value.NewString("not json"))))
	require.Error(t, err)
}
