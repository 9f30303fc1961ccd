package eval

import (
	"github.com/ThomasRohde/agent0/ast"
	"github.com/ThomasRohde/agent0/diag"
	"github.com/ThomasRohde/agent0/env"
	"github.com/ThomasRohde/agent0/trace"
	"github.com/ThomasRohde/agent0/value"
)

func (ev *evaluator) evalMap(n *ast.FnCallExpr, fr *env.Frame) (value.Value, *RuntimeError) {
	args, err := ev.evalRecord(n.Args.Fields, fr)
	if err != nil {
		return value.Value{}, err
	}
	in, ferr := reqList(args, "in", n.Sp)
	if ferr != nil {
		return value.Value{}, ferr
	}
	fnName, ferr := reqString(args, "fn", n.Sp)
	if ferr != nil {
		return value.Value{}, ferr
	}

	ev.emitter.Emit(trace.MapStart, &n.Sp, map[string]interface{}{"count": len(in)})
	out := make([]value.Value, len(in))
	for i, elem := range in {
		if rtErr := ev.checkBudget(ev.tracker.BumpIteration(), n.Sp); rtErr != nil {
			return value.Value{}, rtErr
		}
		v, rtErr := ev.applyUnaryOrDestructured(fnName, elem, n.Sp)
		if rtErr != nil {
			return value.Value{}, rtErr
		}
		out[i] = v
	}
	ev.emitter.Emit(trace.MapEnd, &n.Sp, map[string]interface{}{"count": len(out)})
	return value.NewList(out), nil
}

func (ev *evaluator) evalReduce(n *ast.FnCallExpr, fr *env.Frame) (value.Value, *RuntimeError) {
	args, err := ev.evalRecord(n.Args.Fields, fr)
	if err != nil {
		return value.Value{}, err
	}
	in, ferr := reqList(args, "in", n.Sp)
	if ferr != nil {
		return value.Value{}, ferr
	}
	fnName, ferr := reqString(args, "fn", n.Sp)
	if ferr != nil {
		return value.Value{}, ferr
	}
	acc, ferr := reqField(args, "init", n.Sp)
	if ferr != nil {
		return value.Value{}, ferr
	}

	params, isUser := ev.paramsOf(fnName)
	if len(params) != 2 {
		if _, isStdlib := ev.stdlib[fnName]; !isUser && !isStdlib {
			return value.Value{}, ev.rtErr(diag.EUnknownFn, "unknown function \""+fnName+"\"", n.Sp)
		}
		if isUser {
			return value.Value{}, ev.rtErr(diag.EType, "reduce requires a two-parameter function", n.Sp)
		}
	}

	ev.emitter.Emit(trace.ReduceStart, &n.Sp, map[string]interface{}{"count": len(in)})
	for _, elem := range in {
		if rtErr := ev.checkBudget(ev.tracker.BumpIteration(), n.Sp); rtErr != nil {
			return value.Value{}, rtErr
		}
		callArgs := value.NewRecord([]value.Field{
			{Key: accParamName(params, 0), Value: acc},
			{Key: accParamName(params, 1), Value: elem},
		})
		v, rtErr := ev.invokeNamed(fnName, isUser, callArgs, n.Sp)
		if rtErr != nil {
			return value.Value{}, rtErr
		}
		acc = v
	}
	ev.emitter.Emit(trace.ReduceEnd, &n.Sp, map[string]interface{}{})
	return acc, nil
}

func accParamName(params []string, i int) string {
	if i < len(params) {
		return params[i]
	}
	if i == 0 {
		return "acc"
	}
	return "item"
}

// evalFilter implements both forms from spec.md §4.7: fn: (predicate
// function, first record value's truthiness decides, original element
// kept) and by: (stdlib keep-where-field-truthy fallback). Specifying both
// is an error.
func (ev *evaluator) evalFilter(n *ast.FnCallExpr, fr *env.Frame) (value.Value, *RuntimeError) {
	args, err := ev.evalRecord(n.Args.Fields, fr)
	if err != nil {
		return value.Value{}, err
	}
	_, hasFn := args.Get("fn")
	_, hasBy := args.Get("by")
	if hasFn && hasBy {
		return value.Value{}, ev.rtErr(diag.EType, "filter accepts either fn or by, not both", n.Sp)
	}
	if hasBy {
		sf := ev.stdlib["filter"]
		result, serr := sf(args)
		if serr != nil {
			return value.Value{}, ev.rtErr(diag.EFn, "filter failed: "+serr.Error(), n.Sp)
		}
		return result, nil
	}

	in, ferr := reqList(args, "in", n.Sp)
	if ferr != nil {
		return value.Value{}, ferr
	}
	fnName, ferr := reqString(args, "fn", n.Sp)
	if ferr != nil {
		return value.Value{}, ferr
	}

	var out []value.Value
	for _, elem := range in {
		if rtErr := ev.checkBudget(ev.tracker.BumpIteration(), n.Sp); rtErr != nil {
			return value.Value{}, rtErr
		}
		predResult, rtErr := ev.applyUnaryOrDestructured(fnName, elem, n.Sp)
		if rtErr != nil {
			return value.Value{}, rtErr
		}
		if !predResult.IsRecord() || len(predResult.Fields()) == 0 {
			return value.Value{}, ev.rtErr(diag.EType, "filter's predicate must return a record with at least one field", n.Sp)
		}
		if predResult.Fields()[0].Value.Truthy() {
			out = append(out, elem)
		}
	}
	return value.NewList(out), nil
}

func reqList(args value.Value, key string, sp ast.Span) ([]value.Value, *RuntimeError) {
	v, ok := args.Get(key)
	if !ok || !v.IsList() {
		return nil, &RuntimeError{Code: diag.EType, Message: key + " must be a list", Span: sp}
	}
	return v.Elements(), nil
}

func reqString(args value.Value, key string, sp ast.Span) (string, *RuntimeError) {
	v, ok := args.Get(key)
	if !ok || !v.IsString() {
		return "", &RuntimeError{Code: diag.EType, Message: key + " must be a string", Span: sp}
	}
	return v.String(), nil
}

func reqField(args value.Value, key string, sp ast.Span) (value.Value, *RuntimeError) {
	v, ok := args.Get(key)
	if !ok {
		return value.Value{}, &RuntimeError{Code: diag.EType, Message: "missing required field " + key, Span: sp}
	}
	return v, nil
}
