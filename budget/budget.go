// Package budget implements the BudgetTracker: the evaluator's one piece of
// mutable per-run state, enforcing the four resource limits a program can
// declare via `budget` headers (spec.md §3, §4.6). Grounded on the
// teacher's runtime/executor/executor.go Config/Telemetry shape (a small
// struct of monotonic counters checked against a static limit on every
// relevant operation); stdlib-only, since no corpus dependency models
// resource-budget accounting.
package budget

import (
	"time"

	"github.com/ThomasRohde/agent0/internal/invariant"
)

// Limits is the merged `budget { ... }` header: each field is nil (no
// limit) unless the program declared it.
type Limits struct {
	TimeMs          *int64
	MaxToolCalls    *int64
	MaxBytesWritten *int64
	MaxIterations   *int64
}

// Merge combines two Limits records field-by-field; a field present in b
// overrides the same field in a (spec.md §3: "duplicate field = later
// wins"). Used by validator.MergedLimits, which the evaluator calls at
// startup, so cross-header merging still works if a caller invokes execute
// without validating first.
func Merge(a, b Limits) Limits {
	out := a
	if b.TimeMs != nil {
		out.TimeMs = b.TimeMs
	}
	if b.MaxToolCalls != nil {
		out.MaxToolCalls = b.MaxToolCalls
	}
	if b.MaxBytesWritten != nil {
		out.MaxBytesWritten = b.MaxBytesWritten
	}
	if b.MaxIterations != nil {
		out.MaxIterations = b.MaxIterations
	}
	return out
}

// Tracker is the BudgetTracker: monotonically increasing counters checked
// against Limits. A zero Tracker is ready to use once Limits is set.
type Tracker struct {
	Limits Limits

	startMs      int64
	toolCalls    int64
	bytesWritten int64
	iterations   int64

	now func() time.Time
}

// New creates a Tracker against the given merged limits, starting its
// wall-clock budget at the moment of construction.
func New(limits Limits) *Tracker {
	return NewWithClock(limits, time.Now)
}

// NewWithClock is New with an injectable clock, for deterministic tests.
func NewWithClock(limits Limits, now func() time.Time) *Tracker {
	invariant.NotNil(now, "now")
	return &Tracker{Limits: limits, startMs: nowMs(now), now: now}
}

func nowMs(now func() time.Time) int64 { return now().UnixMilli() }

func (t *Tracker) elapsedMs() int64 { return nowMs(t.now) - t.startMs }

// CheckTime reports the exceeded field name ("timeMs") if the wall-clock
// limit has been crossed, else "". Called before every statement and again
// after every tool invocation (spec.md §4.6). The caller (eval) is
// responsible for turning this into an E_BUDGET diagnostic and a
// budget_exceeded trace event.
func (t *Tracker) CheckTime() string {
	if t.Limits.TimeMs == nil {
		return ""
	}
	if t.elapsedMs() > *t.Limits.TimeMs {
		return "timeMs"
	}
	return ""
}

// BumpToolCall increments the tool-call counter and reports "maxToolCalls"
// if it is now exceeded. Called before the tool's side effect, so the
// limit is enforced pre-effect (spec.md invariant 8).
func (t *Tracker) BumpToolCall() string {
	t.toolCalls++
	if t.Limits.MaxToolCalls != nil && t.toolCalls > *t.Limits.MaxToolCalls {
		return "maxToolCalls"
	}
	return ""
}

// AddBytesWritten adds n to the write-bytes counter and reports
// "maxBytesWritten" if it is now exceeded. Called after a tool's side
// effect (spec.md §4.6: "the side effect has already occurred").
func (t *Tracker) AddBytesWritten(n int64) string {
	invariant.Precondition(n >= 0, "AddBytesWritten requires a non-negative byte count, got %d", n)
	t.bytesWritten += n
	if t.Limits.MaxBytesWritten != nil && t.bytesWritten > *t.Limits.MaxBytesWritten {
		return "maxBytesWritten"
	}
	return ""
}

// BumpIteration increments the shared iteration counter used by for, map,
// reduce, and filter, and reports "maxIterations" if it is now exceeded.
func (t *Tracker) BumpIteration() string {
	t.iterations++
	if t.Limits.MaxIterations != nil && t.iterations > *t.Limits.MaxIterations {
		return "maxIterations"
	}
	return ""
}

// ToolCalls, BytesWritten, Iterations, ElapsedMs report the current
// counters for trace-event and evidence construction.
func (t *Tracker) ToolCalls() int64    { return t.toolCalls }
func (t *Tracker) BytesWritten() int64 { return t.bytesWritten }
func (t *Tracker) Iterations() int64   { return t.iterations }
func (t *Tracker) ElapsedMs() int64    { return t.elapsedMs() }
