// Package eval implements the Evaluator: AST + capability set + tool
// registry + stdlib registry -> final value + evidence list + trace stream
// (spec.md §3, §4.6). Grounded on the teacher's runtime/executor/executor.go
// (Config/Telemetry/debug-event shape) and core/decorator/decorator.go
// (ValueDecorator/ActionDecorator/BlockDecorator interfaces, mapped here
// onto the tool mode/read-effect split).
package eval

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/go-set/v3"

	"github.com/ThomasRohde/agent0/ast"
	"github.com/ThomasRohde/agent0/budget"
	"github.com/ThomasRohde/agent0/diag"
	"github.com/ThomasRohde/agent0/env"
	"github.com/ThomasRohde/agent0/registry"
	"github.com/ThomasRohde/agent0/trace"
	"github.com/ThomasRohde/agent0/validator"
	"github.com/ThomasRohde/agent0/value"
)

// Evidence is one assert/check record accumulated during a run.
type Evidence struct {
	Kind    string // "assert" or "check"
	OK      bool
	Message string
	Span    ast.Span
}

// RuntimeError is raised by any failing runtime operation; it carries the
// accumulated evidence list so a caller can inspect what happened before
// the failure (spec.md §4.6 contract: "raises a RuntimeError carrying
// code, span, details, and the accumulated evidence list").
type RuntimeError struct {
	Code     diag.Code
	Message  string
	Span     ast.Span
	Details  value.Value
	Evidence []Evidence
	// Uncatchable marks errors try/catch must let propagate (E_ASSERT).
	Uncatchable bool
}

func (e *RuntimeError) Error() string { return e.Diagnostic().Pretty() }

// Diagnostic renders the runtime error as a standard Diagnostic record.
func (e *RuntimeError) Diagnostic() diag.Diagnostic {
	return diag.New(e.Code, e.Message).WithSpan(e.Span)
}

// Options configures one execute() call (spec.md §4.6 Evaluator contract).
type Options struct {
	AllowedCaps *set.Set[string]
	Tools       registry.ToolRegistry
	Stdlib      registry.StdlibRegistry
	Sink        trace.Sink
	RunID       string
	Ctx         context.Context
	Now         func() time.Time
	// Source is the program's original source text, used only to stamp
	// run_start with a content hash; optional (an empty Source hashes the
	// empty string, still a valid if uninformative program_hash).
	Source string
}

// Result is what a successful run produces.
type Result struct {
	Value    value.Value
	Evidence []Evidence
}

// userFn is a process-scoped function table entry: parameters, body, and
// the frame captured at the `fn` statement's declaration site (its lexical
// closure, not the caller's frame — spec.md §4.6 "User function call").
type userFn struct {
	params []string
	body   []ast.Stmt
	frame  *env.Frame
}

// evaluator holds all per-run mutable state.
type evaluator struct {
	tools       registry.ToolRegistry
	stdlib      registry.StdlibRegistry
	allowedCaps *set.Set[string]
	tracker     *budget.Tracker
	emitter     *trace.Emitter
	ctx         context.Context
	funcs       map[string]*userFn
	evidence    []Evidence
}

// Execute runs prog to completion or to its first runtime error. It does
// not itself call the validator; callers are expected to validate first
// (the a0 facade always does), but execute() is safe to call directly
// against an already-checked program.
func Execute(prog *ast.Program, opts Options) (Result, *RuntimeError) {
	if opts.Ctx == nil {
		opts.Ctx = context.Background()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	limits := validator.MergedLimits(prog)
	ev := &evaluator{
		tools:       opts.Tools,
		stdlib:      opts.Stdlib,
		allowedCaps: opts.AllowedCaps,
		tracker:     budget.NewWithClock(limits, now),
		emitter:     trace.NewEmitter(opts.Sink, opts.RunID, now),
		ctx:         opts.Ctx,
		funcs:       map[string]*userFn{},
	}

	ev.emitter.Emit(trace.RunStart, &prog.Sp, map[string]interface{}{
		"program_hash": trace.ProgramHash(opts.Source),
	})

	if err := ev.checkDeclaredCaps(prog); err != nil {
		ev.emitRunEnd(err)
		return Result{}, err
	}

	root := env.New()
	val, rtErr := ev.execBlock(prog.Statements, root)
	ev.emitRunEnd(rtErr)
	if rtErr != nil {
		rtErr.Evidence = ev.evidence
		return Result{}, rtErr
	}
	return Result{Value: val, Evidence: ev.evidence}, nil
}

func (ev *evaluator) emitRunEnd(rtErr *RuntimeError) {
	data := map[string]interface{}{"duration_ms": ev.tracker.ElapsedMs()}
	if rtErr != nil {
		data["error"] = string(rtErr.Code)
		data["message"] = rtErr.Message
	}
	ev.emitter.Emit(trace.RunEnd, nil, data)
}

// checkDeclaredCaps rejects any declared `cap` not present in the allowed
// set before any statement runs (spec.md §4.6: "startup capability
// checks").
func (ev *evaluator) checkDeclaredCaps(prog *ast.Program) *RuntimeError {
	if ev.allowedCaps == nil {
		return nil
	}
	for name := range validator.DeclaredCaps(prog) {
		if !ev.allowedCaps.Contains(name) {
			return &RuntimeError{Code: diag.ECapDenied, Message: fmt.Sprintf("capability %q is not permitted by policy", name), Span: prog.Sp}
		}
	}
	return nil
}

func (ev *evaluator) rtErr(code diag.Code, msg string, sp ast.Span) *RuntimeError {
	return &RuntimeError{Code: code, Message: msg, Span: sp}
}

// checkBudget converts a budget.Tracker exceeded-field report into a
// RuntimeError and a budget_exceeded trace event.
func (ev *evaluator) checkBudget(field string, sp ast.Span) *RuntimeError {
	if field == "" {
		return nil
	}
	ev.emitter.Emit(trace.BudgetExceeded, &sp, map[string]interface{}{"field": field})
	return ev.rtErr(diag.EBudget, "budget exceeded: "+field, sp)
}
