package eval

import (
	"github.com/ThomasRohde/agent0/ast"
	"github.com/ThomasRohde/agent0/diag"
	"github.com/ThomasRohde/agent0/env"
	"github.com/ThomasRohde/agent0/trace"
	"github.com/ThomasRohde/agent0/value"
)

func (ev *evaluator) evalExpr(e ast.Expr, fr *env.Frame) (value.Value, *RuntimeError) {
	switch n := e.(type) {
	case *ast.IntLit:
		return value.NewNumber(float64(n.Value)), nil
	case *ast.FloatLit:
		return value.NewNumber(n.Value), nil
	case *ast.BoolLit:
		return value.NewBool(n.Value), nil
	case *ast.StringLit:
		return value.NewString(n.Value), nil
	case *ast.NullLit:
		return value.NewNull(), nil
	case *ast.IdentPath:
		return ev.evalIdentPath(n, fr)
	case *ast.RecordExpr:
		return ev.evalRecord(n.Fields, fr)
	case *ast.ListExpr:
		return ev.evalList(n.Elements, fr)
	case *ast.CallExpr:
		return ev.evalTool(n.ToolPath, n.Args, true, n.Sp, fr)
	case *ast.DoExpr:
		return ev.evalTool(n.ToolPath, n.Args, false, n.Sp, fr)
	case *ast.AssertExpr:
		return ev.evalAssert(n, fr)
	case *ast.CheckExpr:
		return ev.evalCheck(n, fr)
	case *ast.FnCallExpr:
		return ev.evalFnCall(n, fr)
	case *ast.IfExpr:
		return ev.evalIf(n, fr)
	case *ast.ForExpr:
		return ev.evalFor(n, fr)
	case *ast.MatchExpr:
		return ev.evalMatch(n, fr)
	case *ast.TryExpr:
		return ev.evalTry(n, fr)
	case *ast.BinaryExpr:
		return ev.evalBinary(n, fr)
	case *ast.UnaryExpr:
		return ev.evalUnary(n, fr)
	}
	return value.Value{}, ev.rtErr(diag.ERuntime, "unhandled expression form", e.Span())
}

func (ev *evaluator) evalIdentPath(n *ast.IdentPath, fr *env.Frame) (value.Value, *RuntimeError) {
	base, ok := fr.Lookup(n.Segments[0])
	if !ok {
		return value.NewNull(), nil
	}
	cur := base
	for _, seg := range n.Segments[1:] {
		if cur.IsNull() {
			continue
		}
		if !cur.IsRecord() {
			return value.Value{}, ev.rtErr(diag.EPath, "cannot project key \""+seg+"\" on a "+cur.TypeName(), n.Sp)
		}
		next, ok := cur.Get(seg)
		if !ok {
			cur = value.NewNull()
			continue
		}
		cur = next
	}
	return cur, nil
}

func (ev *evaluator) evalRecord(fields []ast.RecordField, fr *env.Frame) (value.Value, *RuntimeError) {
	var out []value.Field
	for _, f := range fields {
		if f.Spread != nil {
			v, err := ev.evalExpr(f.Spread, fr)
			if err != nil {
				return value.Value{}, err
			}
			if !v.IsRecord() {
				return value.Value{}, ev.rtErr(diag.EType, "spread value must be a record, got "+v.TypeName(), f.Sp)
			}
			out = append(out, v.Fields()...)
			continue
		}
		v, err := ev.evalExpr(f.Value, fr)
		if err != nil {
			return value.Value{}, err
		}
		out = append(out, value.Field{Key: f.Key, Value: v})
	}
	return value.NewRecord(out), nil
}

func (ev *evaluator) evalList(elems []ast.Expr, fr *env.Frame) (value.Value, *RuntimeError) {
	out := make([]value.Value, len(elems))
	for i, e := range elems {
		v, err := ev.evalExpr(e, fr)
		if err != nil {
			return value.Value{}, err
		}
		out[i] = v
	}
	return value.NewList(out), nil
}

func (ev *evaluator) evalAssert(n *ast.AssertExpr, fr *env.Frame) (value.Value, *RuntimeError) {
	args, err := ev.evalRecord(n.Args.Fields, fr)
	if err != nil {
		return value.Value{}, err
	}
	that, _ := args.Get("that")
	msg := ""
	if m, ok := args.Get("msg"); ok && m.IsString() {
		msg = m.String()
	}
	ok := that.Truthy()
	ev.evidence = append(ev.evidence, Evidence{Kind: "assert", OK: ok, Message: msg, Span: n.Sp})
	ev.emitter.Emit(trace.Evidence, &n.Sp, map[string]interface{}{"kind": "assert", "ok": ok, "message": msg})
	if !ok {
		if msg == "" {
			msg = "assertion failed"
		}
		return value.Value{}, &RuntimeError{Code: diag.EAssert, Message: msg, Span: n.Sp, Uncatchable: true}
	}
	return that, nil
}

func (ev *evaluator) evalCheck(n *ast.CheckExpr, fr *env.Frame) (value.Value, *RuntimeError) {
	args, err := ev.evalRecord(n.Args.Fields, fr)
	if err != nil {
		return value.Value{}, err
	}
	that, _ := args.Get("that")
	msg := ""
	if m, ok := args.Get("msg"); ok && m.IsString() {
		msg = m.String()
	}
	ok := that.Truthy()
	ev.evidence = append(ev.evidence, Evidence{Kind: "check", OK: ok, Message: msg, Span: n.Sp})
	ev.emitter.Emit(trace.Evidence, &n.Sp, map[string]interface{}{"kind": "check", "ok": ok, "message": msg})
	return that, nil
}

func (ev *evaluator) evalIf(n *ast.IfExpr, fr *env.Frame) (value.Value, *RuntimeError) {
	cond, err := ev.evalExpr(n.Cond, fr)
	if err != nil {
		return value.Value{}, err
	}
	if cond.Truthy() {
		return ev.execBlock(n.Then, fr.Child())
	}
	if n.Else != nil {
		return ev.execBlock(n.Else, fr.Child())
	}
	return value.NewNull(), nil
}

func (ev *evaluator) evalFor(n *ast.ForExpr, fr *env.Frame) (value.Value, *RuntimeError) {
	in, err := ev.evalExpr(n.In, fr)
	if err != nil {
		return value.Value{}, err
	}
	if !in.IsList() {
		return value.Value{}, ev.rtErr(diag.EForNotList, "for's in value must be a list, got "+in.TypeName(), n.Sp)
	}
	ev.emitter.Emit(trace.ForStart, &n.Sp, map[string]interface{}{"count": len(in.Elements())})
	var out []value.Value
	for _, elem := range in.Elements() {
		if rtErr := ev.checkBudget(ev.tracker.BumpIteration(), n.Sp); rtErr != nil {
			return value.Value{}, rtErr
		}
		child := fr.Child()
		child.Declare(n.As, elem)
		v, err := ev.execBlock(n.Body, child)
		if err != nil {
			return value.Value{}, err
		}
		out = append(out, v)
	}
	ev.emitter.Emit(trace.ForEnd, &n.Sp, map[string]interface{}{"count": len(out)})
	return value.NewList(out), nil
}

func (ev *evaluator) evalMatch(n *ast.MatchExpr, fr *env.Frame) (value.Value, *RuntimeError) {
	subj, err := ev.evalExpr(n.Subject, fr)
	if err != nil {
		return value.Value{}, err
	}
	if !subj.IsRecord() {
		return value.Value{}, ev.rtErr(diag.EMatchNotRecord, "match subject must be a record, got "+subj.TypeName(), n.Sp)
	}
	ev.emitter.Emit(trace.MatchStart, &n.Sp, nil)
	defer ev.emitter.Emit(trace.MatchEnd, &n.Sp, nil)

	if okV, ok := subj.Get("ok"); ok && n.OkArm != nil {
		child := fr.Child()
		child.Declare(n.OkArm.Bind, okV)
		return ev.execBlock(n.OkArm.Body, child)
	}
	if errV, ok := subj.Get("err"); ok && n.ErrArm != nil {
		child := fr.Child()
		child.Declare(n.ErrArm.Bind, errV)
		return ev.execBlock(n.ErrArm.Body, child)
	}
	return value.Value{}, ev.rtErr(diag.EMatchNoArm, "match subject has neither an \"ok\" nor \"err\" key with a matching arm", n.Sp)
}

func (ev *evaluator) evalTry(n *ast.TryExpr, fr *env.Frame) (value.Value, *RuntimeError) {
	v, err := ev.execBlock(n.Body, fr.Child())
	if err == nil {
		return v, nil
	}
	if err.Uncatchable {
		return value.Value{}, err
	}
	caught := value.NewRecord([]value.Field{
		{Key: "code", Value: value.NewString(string(err.Code))},
		{Key: "message", Value: value.NewString(err.Message)},
	})
	child := fr.Child()
	child.Declare(n.CatchName, caught)
	return ev.execBlock(n.CatchBody, child)
}

func (ev *evaluator) evalUnary(n *ast.UnaryExpr, fr *env.Frame) (value.Value, *RuntimeError) {
	v, err := ev.evalExpr(n.Operand, fr)
	if err != nil {
		return value.Value{}, err
	}
	if !v.IsNumber() {
		return value.Value{}, ev.rtErr(diag.EType, "unary - requires a number, got "+v.TypeName(), n.Sp)
	}
	return value.NewNumber(-v.Number()), nil
}

func (ev *evaluator) evalBinary(n *ast.BinaryExpr, fr *env.Frame) (value.Value, *RuntimeError) {
	left, err := ev.evalExpr(n.Left, fr)
	if err != nil {
		return value.Value{}, err
	}
	right, err := ev.evalExpr(n.Right, fr)
	if err != nil {
		return value.Value{}, err
	}

	switch n.Op {
	case ast.OpEq:
		return value.NewBool(value.DeepEqual(left, right)), nil
	case ast.OpNe:
		return value.NewBool(!value.DeepEqual(left, right)), nil
	}

	if n.Op == ast.OpAdd && left.IsString() && right.IsString() {
		return value.NewString(left.String() + right.String()), nil
	}

	switch n.Op {
	case ast.OpGt, ast.OpLt, ast.OpGe, ast.OpLe:
		if left.IsNumber() && right.IsNumber() {
			return compareNumbers(n.Op, left.Number(), right.Number()), nil
		}
		if left.IsString() && right.IsString() {
			return compareStrings(n.Op, left.String(), right.String()), nil
		}
		return value.Value{}, ev.rtErr(diag.EType, "comparison requires two numbers or two strings", n.Sp)
	}

	if !left.IsNumber() || !right.IsNumber() {
		return value.Value{}, ev.rtErr(diag.EType, "arithmetic requires two numbers, got "+left.TypeName()+" and "+right.TypeName(), n.Sp)
	}
	a, b := left.Number(), right.Number()
	switch n.Op {
	case ast.OpAdd:
		return value.NewNumber(a + b), nil
	case ast.OpSub:
		return value.NewNumber(a - b), nil
	case ast.OpMul:
		return value.NewNumber(a * b), nil
	case ast.OpDiv:
		if b == 0 {
			return value.Value{}, ev.rtErr(diag.EType, "division by zero", n.Sp)
		}
		return value.NewNumber(a / b), nil
	case ast.OpMod:
		if b == 0 {
			return value.Value{}, ev.rtErr(diag.EType, "modulo by zero", n.Sp)
		}
		return value.NewNumber(modFloat(a, b)), nil
	}
	return value.Value{}, ev.rtErr(diag.ERuntime, "unhandled binary operator", n.Sp)
}

func modFloat(a, b float64) float64 {
	m := a - b*float64(int64(a/b))
	return m
}

func compareNumbers(op ast.BinaryOp, a, b float64) value.Value {
	switch op {
	case ast.OpGt:
		return value.NewBool(a > b)
	case ast.OpLt:
		return value.NewBool(a < b)
	case ast.OpGe:
		return value.NewBool(a >= b)
	case ast.OpLe:
		return value.NewBool(a <= b)
	}
	return value.NewBool(false)
}

func compareStrings(op ast.BinaryOp, a, b string) value.Value {
	switch op {
	case ast.OpGt:
		return value.NewBool(a > b)
	case ast.OpLt:
		return value.NewBool(a < b)
	case ast.OpGe:
		return value.NewBool(a >= b)
	case ast.OpLe:
		return value.NewBool(a <= b)
	}
	return value.NewBool(false)
}
