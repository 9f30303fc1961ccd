package env

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ThomasRohde/agent0/value"
)

func TestDeclareAndLookup(t *testing.T) {
	f := New()
	require.True(t, f.Declare("x", value.NewNumber(1)))
	v, ok := f.Lookup("x")
	require.True(t, ok)
	assert.Equal(t, float64(1), v.Number())
}

func TestDeclareDuplicateInSameFrameFails(t *testing.T) {
	f := New()
	require.True(t, f.Declare("x", value.NewNumber(1)))
	assert.False(t, f.Declare("x", value.NewNumber(2)))
}

func TestChildShadowsParent(t *testing.T) {
	parent := New()
	parent.Declare("x", value.NewNumber(1))
	child := parent.Child()
	require.True(t, child.Declare("x", value.NewNumber(2)))

	v, _ := child.Lookup("x")
	assert.Equal(t, float64(2), v.Number())
	pv, _ := parent.Lookup("x")
	assert.Equal(t, float64(1), pv.Number())
}

func TestLookupWalksParentChain(t *testing.T) {
	parent := New()
	parent.Declare("x", value.NewString("outer"))
	child := parent.Child().Child()
	v, ok := child.Lookup("x")
	require.True(t, ok)
	assert.Equal(t, "outer", v.String())
}

func TestLookupMissingReturnsFalse(t *testing.T) {
	f := New()
	_, ok := f.Lookup("missing")
	assert.False(t, ok)
}

func TestHasLocalIgnoresParent(t *testing.T) {
	parent := New()
	parent.Declare("x", value.NewNumber(1))
	child := parent.Child()
	assert.False(t, child.HasLocal("x"))
	assert.True(t, parent.HasLocal("x"))
}

func TestUpdateRebindsOwningFrame(t *testing.T) {
	parent := New()
	parent.Declare("rec", value.NewRecord(nil))
	child := parent.Child()

	require.True(t, child.Update("rec", value.NewNumber(42)))
	v, _ := parent.Lookup("rec")
	assert.Equal(t, float64(42), v.Number())
	assert.False(t, child.HasLocal("rec"))
}

func TestUpdateUnboundNameFails(t *testing.T) {
	f := New()
	assert.False(t, f.Update("missing", value.NewNumber(1)))
}

func TestDeclareEmptyNamePanics(t *testing.T) {
	f := New()
	assert.Panics(t, func() { f.Declare("", value.NewNumber(1)) })
}

func TestUpdateEmptyNamePanics(t *testing.T) {
	f := New()
	assert.Panics(t, func() { f.Update("", value.NewNumber(1)) })
}
