// Package trace implements the Trace event stream: newline-delimited JSON
// records of every observable step of a run, suitable for auditing agent
// behavior (spec.md §3, §4.6). Grounded on the teacher's
// runtime/decorators/logging.go JSONFormatter (marshal-one-struct-per-line),
// simplified to the fixed event shape and fixed tag set this spec defines.
// ProgramHash uses golang.org/x/crypto/blake2b, the teacher's hashing
// primitive of choice for content-addressed identifiers.
package trace

import (
	"encoding/json"
	"io"
	"time"

	"golang.org/x/crypto/blake2b"

	"github.com/ThomasRohde/agent0/ast"
	"github.com/ThomasRohde/agent0/value"
)

// Tag enumerates the fixed set of trace event tags (spec.md §3).
type Tag string

const (
	RunStart       Tag = "run_start"
	RunEnd         Tag = "run_end"
	StmtStart      Tag = "stmt_start"
	StmtEnd        Tag = "stmt_end"
	ToolStart      Tag = "tool_start"
	ToolEnd        Tag = "tool_end"
	Evidence       Tag = "evidence"
	BudgetExceeded Tag = "budget_exceeded"
	ForStart       Tag = "for_start"
	ForEnd         Tag = "for_end"
	FnCallStart    Tag = "fn_call_start"
	FnCallEnd      Tag = "fn_call_end"
	MatchStart     Tag = "match_start"
	MatchEnd       Tag = "match_end"
	MapStart       Tag = "map_start"
	MapEnd         Tag = "map_end"
	ReduceStart    Tag = "reduce_start"
	ReduceEnd      Tag = "reduce_end"
)

// Event is one structured trace record.
type Event struct {
	Ts    string                 `json:"ts"`
	RunID string                 `json:"run_id"`
	Event Tag                    `json:"event"`
	Span  *ast.Span              `json:"span,omitempty"`
	Data  map[string]interface{} `json:"data,omitempty"`
}

// Sink receives trace events as they are emitted. Eval calls Sink.Emit; the
// CLI front-end (or a test) supplies an implementation.
type Sink interface {
	Emit(Event)
}

// NopSink discards every event; the default when a caller passes no sink.
type NopSink struct{}

func (NopSink) Emit(Event) {}

// WriterSink writes each event as one NDJSON line to w. Grounded on the
// teacher's JSONFormatter.Format-then-fmt.Fprintln pattern.
type WriterSink struct {
	w   io.Writer
	now func() time.Time
}

// NewWriterSink creates a WriterSink over w.
func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w, now: time.Now}
}

func (s *WriterSink) Emit(e Event) {
	b, err := json.Marshal(e)
	if err != nil {
		return
	}
	b = append(b, '\n')
	_, _ = s.w.Write(b)
}

// CollectorSink appends every event to an in-memory slice; used by tests
// that assert on the exact emitted event sequence.
type CollectorSink struct {
	Events []Event
}

func (s *CollectorSink) Emit(e Event) { s.Events = append(s.Events, e) }

// Emitter wraps a Sink with a fixed run id and a clock, so evaluator call
// sites don't thread the run id and timestamp through every call.
type Emitter struct {
	sink  Sink
	runID string
	now   func() time.Time
}

// NewEmitter creates an Emitter. now defaults to time.Now if nil.
func NewEmitter(sink Sink, runID string, now func() time.Time) *Emitter {
	if sink == nil {
		sink = NopSink{}
	}
	if now == nil {
		now = time.Now
	}
	return &Emitter{sink: sink, runID: runID, now: now}
}

// Emit sends one event, stamping ts and run_id.
func (e *Emitter) Emit(tag Tag, span *ast.Span, data map[string]interface{}) {
	e.sink.Emit(Event{
		Ts:    e.now().UTC().Format(time.RFC3339Nano),
		RunID: e.runID,
		Event: tag,
		Span:  span,
		Data:  data,
	})
}

// ProgramHash returns a stable content hash of a program's source text,
// suitable for correlating trace streams with the exact source that
// produced them without embedding the full source in every event.
func ProgramHash(src string) string {
	sum := blake2b.Sum256([]byte(src))
	return "blake2b:" + hexEncode(sum[:])
}

func hexEncode(b []byte) string {
	const hexDigits = "0123456789abcdef"
	out := make([]byte, len(b)*2)
	for i, c := range b {
		out[i*2] = hexDigits[c>>4]
		out[i*2+1] = hexDigits[c&0x0f]
	}
	return string(out)
}

// ValueData is a convenience for building a trace event's data record from
// A0Values (e.g. tool args, evidence values) so eval call sites don't
// hand-roll map[string]interface{} conversions at every emit site.
func ValueData(fields map[string]value.Value) map[string]interface{} {
	out := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		out[k] = value.ToGo(v)
	}
	return out
}
