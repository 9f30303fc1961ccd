package budget

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func int64p(n int64) *int64 { return &n }

func TestMergeLaterOverridesEarlier(t *testing.T) {
	a := Limits{TimeMs: int64p(1000), MaxToolCalls: int64p(5)}
	b := Limits{MaxToolCalls: int64p(10)}
	out := Merge(a, b)
	assert.Equal(t, int64(1000), *out.TimeMs)
	assert.Equal(t, int64(10), *out.MaxToolCalls)
}

func TestMergeNilFieldsKeepOriginal(t *testing.T) {
	a := Limits{MaxIterations: int64p(3)}
	out := Merge(a, Limits{})
	assert.Equal(t, int64(3), *out.MaxIterations)
}

func TestBumpToolCallExceeds(t *testing.T) {
	tr := New(Limits{MaxToolCalls: int64p(2)})
	assert.Equal(t, "", tr.BumpToolCall())
	assert.Equal(t, "", tr.BumpToolCall())
	assert.Equal(t, "maxToolCalls", tr.BumpToolCall())
}

func TestBumpToolCallNoLimitNeverExceeds(t *testing.T) {
	tr := New(Limits{})
	for i := 0; i < 100; i++ {
		assert.Equal(t, "", tr.BumpToolCall())
	}
}

func TestAddBytesWrittenExceeds(t *testing.T) {
	tr := New(Limits{MaxBytesWritten: int64p(10)})
	assert.Equal(t, "", tr.AddBytesWritten(5))
	assert.Equal(t, "maxBytesWritten", tr.AddBytesWritten(6))
}

func TestAddBytesWrittenNegativePanics(t *testing.T) {
	tr := New(Limits{})
	assert.Panics(t, func() { tr.AddBytesWritten(-1) })
}

func TestBumpIterationExceeds(t *testing.T) {
	tr := New(Limits{MaxIterations: int64p(1)})
	assert.Equal(t, "", tr.BumpIteration())
	assert.Equal(t, "maxIterations", tr.BumpIteration())
}

func TestCheckTimeExceeds(t *testing.T) {
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	now := func() time.Time { return clock }
	tr := NewWithClock(Limits{TimeMs: int64p(100)}, now)
	assert.Equal(t, "", tr.CheckTime())
	clock = clock.Add(200 * time.Millisecond)
	assert.Equal(t, "timeMs", tr.CheckTime())
}

func TestCheckTimeNoLimit(t *testing.T) {
	tr := New(Limits{})
	assert.Equal(t, "", tr.CheckTime())
}

func TestCountersReflectActivity(t *testing.T) {
	tr := New(Limits{})
	tr.BumpToolCall()
	tr.BumpToolCall()
	tr.AddBytesWritten(7)
	tr.BumpIteration()
	assert.Equal(t, int64(2), tr.ToolCalls())
	assert.Equal(t, int64(7), tr.BytesWritten())
	assert.Equal(t, int64(1), tr.Iterations())
}
