package eval

import (
	"github.com/ThomasRohde/agent0/ast"
	"github.com/ThomasRohde/agent0/diag"
	"github.com/ThomasRohde/agent0/env"
	"github.com/ThomasRohde/agent0/trace"
	"github.com/ThomasRohde/agent0/value"
)

// evalFnCall dispatches a `name { args }` call: the three higher-order
// built-ins first (they need the function table a plain StdlibFn can't
// see), then user functions, then the stdlib registry (spec.md §4.6, §4.7
// "Higher-order built-ins").
func (ev *evaluator) evalFnCall(n *ast.FnCallExpr, fr *env.Frame) (value.Value, *RuntimeError) {
	switch n.Path {
	case "map":
		return ev.evalMap(n, fr)
	case "reduce":
		return ev.evalReduce(n, fr)
	case "filter":
		return ev.evalFilter(n, fr)
	}

	args, err := ev.evalRecord(n.Args.Fields, fr)
	if err != nil {
		return value.Value{}, err
	}

	if fn, ok := ev.funcs[n.Path]; ok {
		return ev.callUserFn(n.Path, fn, args, n.Sp)
	}
	if sf, ok := ev.stdlib[n.Path]; ok {
		result, serr := sf(args)
		if serr != nil {
			return value.Value{}, ev.rtErr(diag.EFn, "stdlib function \""+n.Path+"\" failed: "+serr.Error(), n.Sp)
		}
		return result, nil
	}
	return value.Value{}, ev.rtErr(diag.EUnknownFn, "unknown function \""+n.Path+"\"", n.Sp)
}

func (ev *evaluator) callUserFn(name string, fn *userFn, args value.Value, sp ast.Span) (value.Value, *RuntimeError) {
	ev.emitter.Emit(trace.FnCallStart, &sp, map[string]interface{}{"fn": name})
	child := fn.frame.Child()
	for _, p := range fn.params {
		v, _ := args.Get(p) // missing -> null, per Get's own contract
		child.Declare(p, v)
	}
	v, err := ev.execBlock(fn.body, child)
	ev.emitter.Emit(trace.FnCallEnd, &sp, map[string]interface{}{"fn": name})
	return v, err
}

// applyUnaryOrDestructured invokes the user function or stdlib function named by fn
// against a single positional value (one-parameter case) or a record of
// destructured named fields (multi-parameter case), shared by map/filter.
func (ev *evaluator) applyUnaryOrDestructured(fnName string, elem value.Value, sp ast.Span) (value.Value, *RuntimeError) {
	params, isUser := ev.paramsOf(fnName)
	var args value.Value
	switch {
	case len(params) <= 1:
		key := "value"
		if len(params) == 1 {
			key = params[0]
		}
		args = value.NewRecord([]value.Field{{Key: key, Value: elem}})
	default:
		if !elem.IsRecord() {
			return value.Value{}, ev.rtErr(diag.EType, "element must be a record when the function named by fn has more than one parameter", sp)
		}
		args = elem
	}
	return ev.invokeNamed(fnName, isUser, args, sp)
}

func (ev *evaluator) paramsOf(fnName string) ([]string, bool) {
	if fn, ok := ev.funcs[fnName]; ok {
		return fn.params, true
	}
	return nil, false
}

func (ev *evaluator) invokeNamed(fnName string, isUser bool, args value.Value, sp ast.Span) (value.Value, *RuntimeError) {
	if isUser {
		fn := ev.funcs[fnName]
		return ev.callUserFn(fnName, fn, args, sp)
	}
	sf, ok := ev.stdlib[fnName]
	if !ok {
		return value.Value{}, ev.rtErr(diag.EUnknownFn, "unknown function \""+fnName+"\"", sp)
	}
	result, err := sf(args)
	if err != nil {
		return value.Value{}, ev.rtErr(diag.EFn, "stdlib function \""+fnName+"\" failed: "+err.Error(), sp)
	}
	return result, nil
}
