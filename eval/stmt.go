package eval

import (
	"github.com/ThomasRohde/agent0/ast"
	"github.com/ThomasRohde/agent0/diag"
	"github.com/ThomasRohde/agent0/env"
	"github.com/ThomasRohde/agent0/trace"
	"github.com/ThomasRohde/agent0/value"
)

// execBlock runs stmts in order against fr, returning the value bound by
// the first `return` statement encountered, or null if the block runs to
// completion without one (spec.md §4.6: "a return value terminates the
// block and becomes the block's value" — nested blocks, unlike the
// top-level program, are not required to end in a return).
func (ev *evaluator) execBlock(stmts []ast.Stmt, fr *env.Frame) (value.Value, *RuntimeError) {
	for _, s := range stmts {
		if rtErr := ev.checkBudget(ev.tracker.CheckTime(), s.Span()); rtErr != nil {
			return value.Value{}, rtErr
		}
		ev.emitter.Emit(trace.StmtStart, spanPtr(s.Span()), nil)
		val, returned, rtErr := ev.execStmt(s, fr)
		ev.emitter.Emit(trace.StmtEnd, spanPtr(s.Span()), nil)
		if rtErr != nil {
			return value.Value{}, rtErr
		}
		if returned {
			return val, nil
		}
	}
	return value.NewNull(), nil
}

func spanPtr(sp ast.Span) *ast.Span { return &sp }

// execStmt runs one statement. returned reports whether s was a
// ReturnStmt, in which case val is its value.
func (ev *evaluator) execStmt(s ast.Stmt, fr *env.Frame) (val value.Value, returned bool, rtErr *RuntimeError) {
	switch n := s.(type) {
	case *ast.LetStmt:
		v, err := ev.evalExpr(n.Expr, fr)
		if err != nil {
			return value.Value{}, false, err
		}
		fr.Declare(n.Name, v)
		return value.Value{}, false, nil

	case *ast.ExprStmt:
		v, err := ev.evalExpr(n.Expr, fr)
		if err != nil {
			return value.Value{}, false, err
		}
		if len(n.ArrowTarget) == 1 {
			fr.Declare(n.ArrowTarget[0], v)
		} else if len(n.ArrowTarget) > 1 {
			if err := ev.writePath(fr, n.ArrowTarget, v, n.Sp); err != nil {
				return value.Value{}, false, err
			}
		}
		return value.Value{}, false, nil

	case *ast.ReturnStmt:
		v, err := ev.evalExpr(n.Expr, fr)
		if err != nil {
			return value.Value{}, false, err
		}
		return v, true, nil

	case *ast.FnDecl:
		ev.funcs[n.Name] = &userFn{params: n.Params, body: n.Body, frame: fr}
		return value.Value{}, false, nil
	}
	return value.Value{}, false, nil
}

// writePath rebinds the record at target[0] with target[1:] set to val,
// writing the new value back into whichever frame owns target[0] (spec.md
// §9 decision: a dotted arrow target mutates an existing record in place
// rather than introducing a new binding).
func (ev *evaluator) writePath(fr *env.Frame, target []string, val value.Value, sp ast.Span) *RuntimeError {
	base, ok := fr.Lookup(target[0])
	if !ok {
		return ev.rtErr(diag.EPath, "unbound base \""+target[0]+"\" in arrow target", sp)
	}
	updated, err := setPath(base, target[1:], val, sp)
	if err != nil {
		return err
	}
	fr.Update(target[0], updated)
	return nil
}

// setPath returns a copy of v with the dotted path segs set to val,
// creating intermediate records as needed. Unlike the stdlib get/put
// functions (which parse bracketed list-index syntax), arrow targets are
// plain dotted identifier paths (ast.ExprStmt.ArrowTarget), so this only
// needs to walk record keys.
func setPath(v value.Value, segs []string, val value.Value, sp ast.Span) (value.Value, *RuntimeError) {
	if len(segs) == 0 {
		return val, nil
	}
	if !v.IsRecord() && !v.IsNull() {
		return value.Value{}, &RuntimeError{Code: diag.EPath, Message: "cannot project key \"" + segs[0] + "\" on a " + v.TypeName(), Span: sp}
	}
	existing, _ := v.Get(segs[0])
	child, err := setPath(existing, segs[1:], val, sp)
	if err != nil {
		return value.Value{}, err
	}
	return v.WithField(segs[0], child), nil
}
