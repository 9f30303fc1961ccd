package eval

import (
	"time"

	"github.com/ThomasRohde/agent0/ast"
	"github.com/ThomasRohde/agent0/diag"
	"github.com/ThomasRohde/agent0/env"
	"github.com/ThomasRohde/agent0/registry"
	"github.com/ThomasRohde/agent0/trace"
	"github.com/ThomasRohde/agent0/value"
)

// evalTool runs the full tool-invocation lifecycle (spec.md §4.6 "Tool
// invocation"): resolve, mode check, capability check, arg validation,
// budget bump, trace start/end, invoke, post-effect byte/time budget
// re-check.
func (ev *evaluator) evalTool(name string, argsExpr *ast.RecordExpr, readOnly bool, sp ast.Span, fr *env.Frame) (value.Value, *RuntimeError) {
	tool, ok := ev.tools[name]
	if !ok {
		return value.Value{}, ev.rtErr(diag.EUnknownTool, "unknown tool \""+name+"\"", sp)
	}
	if readOnly && tool.Mode() == registry.Effect {
		return value.Value{}, ev.rtErr(diag.ECallEffect, "tool \""+name+"\" is effect-mode and cannot be used with call?", sp)
	}
	if ev.allowedCaps != nil && !ev.allowedCaps.Contains(tool.CapabilityID()) {
		return value.Value{}, ev.rtErr(diag.ECapDenied, "tool \""+name+"\" requires undeclared/denied capability \""+tool.CapabilityID()+"\"", sp)
	}

	args, err := ev.evalRecord(argsExpr.Fields, fr)
	if err != nil {
		return value.Value{}, err
	}
	if schema := tool.InputSchema(); schema != nil {
		if verr := schema.Validate(args); verr != nil {
			return value.Value{}, ev.rtErr(diag.EToolArgs, "tool \""+name+"\" rejected its arguments: "+verr.Error(), sp)
		}
	}

	if rtErr := ev.checkBudget(ev.tracker.BumpToolCall(), sp); rtErr != nil {
		return value.Value{}, rtErr
	}

	mode := tool.Mode().String()
	ev.emitter.Emit(trace.ToolStart, &sp, map[string]interface{}{
		"tool": name, "mode": mode, "args": trace.ValueData(fieldMap(args)),
	})
	start := time.Now()
	result, toolErr := tool.Execute(ev.ctx, args)
	durationMs := time.Since(start).Milliseconds()

	if toolErr != nil {
		ev.emitter.Emit(trace.ToolEnd, &sp, map[string]interface{}{
			"outcome": "err", "duration_ms": durationMs, "error": toolErr.Error(),
		})
		return value.Value{}, ev.rtErr(diag.ETool, "tool \""+name+"\" failed: "+toolErr.Error(), sp)
	}
	ev.emitter.Emit(trace.ToolEnd, &sp, map[string]interface{}{
		"outcome": "ok", "duration_ms": durationMs,
	})

	if bytesV, ok := result.Get("bytes"); ok && bytesV.IsNumber() {
		if rtErr := ev.checkBudget(ev.tracker.AddBytesWritten(int64(bytesV.Number())), sp); rtErr != nil {
			return value.Value{}, rtErr
		}
	}
	if rtErr := ev.checkBudget(ev.tracker.CheckTime(), sp); rtErr != nil {
		return value.Value{}, rtErr
	}
	return result, nil
}

func fieldMap(v value.Value) map[string]value.Value {
	out := make(map[string]value.Value, len(v.Fields()))
	for _, f := range v.Fields() {
		out[f.Key] = f.Value
	}
	return out
}
