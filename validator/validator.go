// Package validator implements the Validator component: AST -> diagnostic
// list, without executing anything (spec.md §3, §4.5). Grounded on the
// teacher's runtime/parser/validation.go and runtime/validation/recursion.go
// static-check passes (accumulate every violation found during one AST
// walk rather than stopping at the first). Diagnostics accumulate via
// hashicorp/go-multierror so every independent check's findings survive
// even when several fire in the same program; "did you mean" hints use
// lithammer/fuzzysearch, as the teacher does for identifier suggestions.
package validator

import (
	"github.com/hashicorp/go-multierror"

	"github.com/ThomasRohde/agent0/ast"
	"github.com/ThomasRohde/agent0/budget"
	"github.com/ThomasRohde/agent0/diag"
	"github.com/ThomasRohde/agent0/policy"
	"github.com/ThomasRohde/agent0/registry"
)

var knownBudgetFields = []string{"timeMs", "maxToolCalls", "maxBytesWritten", "maxIterations"}

func isKnownBudgetField(name string) bool {
	for _, f := range knownBudgetFields {
		if f == name {
			return true
		}
	}
	return false
}

func isKnownCap(name string) bool {
	for _, c := range policy.KnownCapabilities {
		if c == name {
			return true
		}
	}
	return false
}

// scope is the validator's static name-resolution scope, independent of
// the runtime env.Frame chain (no values are carried, only names).
type scope struct {
	parent *scope
	names  map[string]bool
}

func newScope(parent *scope) *scope { return &scope{parent: parent, names: map[string]bool{}} }

func (s *scope) declare(name string) bool {
	if s.names[name] {
		return false
	}
	s.names[name] = true
	return true
}

func (s *scope) resolve(name string) bool {
	for cur := s; cur != nil; cur = cur.parent {
		if cur.names[name] {
			return true
		}
	}
	return false
}

type validator struct {
	tools   registry.ToolRegistry
	stdlib  registry.StdlibRegistry
	merr    *multierror.Error
	capSet  map[string]bool
	fnNames map[string]bool // declared so far, top-down (no hoisting)
}

// Validate runs every static check and returns the accumulated diagnostic
// list (nil/empty if the program is accepted).
func Validate(prog *ast.Program, tools registry.ToolRegistry, stdlib registry.StdlibRegistry) diag.List {
	v := &validator{tools: tools, stdlib: stdlib, capSet: map[string]bool{}, fnNames: map[string]bool{}}
	v.checkHeaders(prog.Headers)
	v.checkReturnDiscipline(prog.Statements)

	root := newScope(nil)
	v.walkStmts(prog.Statements, root)

	return v.list()
}

func (v *validator) add(d diag.Diagnostic) { v.merr = multierror.Append(v.merr, d) }

func (v *validator) list() diag.List {
	if v.merr == nil {
		return nil
	}
	out := make(diag.List, 0, len(v.merr.Errors))
	for _, e := range v.merr.Errors {
		if d, ok := e.(diag.Diagnostic); ok {
			out = append(out, d)
		}
	}
	return out
}

// ---------------------------------------------------------------- headers

func (v *validator) checkHeaders(headers []ast.Header) {
	budgetHeaders := 0
	for _, h := range headers {
		switch n := h.(type) {
		case *ast.CapDecl:
			for _, f := range n.Fields {
				if !isKnownCap(f.Key) {
					hint := diag.Suggest(f.Key, policy.KnownCapabilities)
					v.add(diag.New(diag.EUnknownCap, "unknown capability \""+f.Key+"\"").WithSpan(f.Sp).WithHint(hint))
					continue
				}
				if b, ok := f.Value.(*ast.BoolLit); !ok || !b.Value {
					v.add(diag.New(diag.ECapValue, "capability \""+f.Key+"\" must be declared as true").WithSpan(f.Sp))
					continue
				}
				v.capSet[f.Key] = true
			}
		case *ast.BudgetDecl:
			budgetHeaders++
			if budgetHeaders > 1 {
				v.add(diag.New(diag.EDupBudget, "more than one budget header").WithSpan(n.Sp))
			}
			for _, f := range n.Fields {
				if !isKnownBudgetField(f.Key) {
					hint := diag.Suggest(f.Key, knownBudgetFields)
					v.add(diag.New(diag.EUnknownBudget, "unknown budget field \""+f.Key+"\"").WithSpan(f.Sp).WithHint(hint))
					continue
				}
				if _, ok := f.Value.(*ast.IntLit); !ok {
					v.add(diag.New(diag.EBudgetType, "budget field \""+f.Key+"\" must be an integer literal").WithSpan(f.Sp))
				}
			}
		case *ast.ImportDecl:
			v.add(diag.New(diag.EImportUnsupported, "import headers are reserved and not supported").WithSpan(n.Sp))
		}
	}
}

// MergedLimits reconstructs the effective budget.Limits implied by the
// validated headers, for callers that want it without re-walking the AST
// (e.g. the evaluator at the start of execute).
func MergedLimits(prog *ast.Program) budget.Limits {
	var out budget.Limits
	for _, h := range prog.Headers {
		b, ok := h.(*ast.BudgetDecl)
		if !ok {
			continue
		}
		var cur budget.Limits
		for _, f := range b.Fields {
			lit, ok := f.Value.(*ast.IntLit)
			if !ok {
				continue
			}
			n := lit.Value
			switch f.Key {
			case "timeMs":
				cur.TimeMs = &n
			case "maxToolCalls":
				cur.MaxToolCalls = &n
			case "maxBytesWritten":
				cur.MaxBytesWritten = &n
			case "maxIterations":
				cur.MaxIterations = &n
			}
		}
		out = budget.Merge(out, cur)
	}
	return out
}

// DeclaredCaps returns the set of capability names declared across the
// program's cap headers (value-validated separately).
func DeclaredCaps(prog *ast.Program) map[string]bool {
	out := map[string]bool{}
	for _, h := range prog.Headers {
		c, ok := h.(*ast.CapDecl)
		if !ok {
			continue
		}
		for _, f := range c.Fields {
			out[f.Key] = true
		}
	}
	return out
}

// --------------------------------------------------------- return discipline

func (v *validator) checkReturnDiscipline(stmts []ast.Stmt) {
	returnIdx := -1
	for i, s := range stmts {
		if _, ok := s.(*ast.ReturnStmt); ok {
			if returnIdx == -1 {
				returnIdx = i
			} else {
				v.add(diag.New(diag.EReturnNotLast, "multiple return statements at top level").WithSpan(s.Span()))
			}
			continue
		}
		if returnIdx != -1 {
			v.add(diag.New(diag.EReturnNotLast, "statement after return at top level").WithSpan(s.Span()))
		}
	}
	if returnIdx == -1 {
		sp := ast.Span{}
		if len(stmts) > 0 {
			sp = stmts[len(stmts)-1].Span()
		}
		v.add(diag.New(diag.ENoReturn, "program does not end with a return statement").WithSpan(sp))
	}
}

// ---------------------------------------------------------------- bindings

func (v *validator) walkStmts(stmts []ast.Stmt, sc *scope) {
	for _, s := range stmts {
		v.walkStmt(s, sc)
	}
}

func (v *validator) walkStmt(s ast.Stmt, sc *scope) {
	switch n := s.(type) {
	case *ast.LetStmt:
		v.walkExpr(n.Expr, sc)
		if !sc.declare(n.Name) {
			v.add(diag.New(diag.EDupBinding, "duplicate binding \""+n.Name+"\" in this scope").WithSpan(n.Sp))
		}
	case *ast.ExprStmt:
		v.walkExpr(n.Expr, sc)
		switch {
		case len(n.ArrowTarget) == 1:
			if !sc.declare(n.ArrowTarget[0]) {
				v.add(diag.New(diag.EDupBinding, "duplicate binding \""+n.ArrowTarget[0]+"\" in this scope").WithSpan(n.Sp))
			}
		case len(n.ArrowTarget) > 1:
			// A dotted arrow target writes into an already-bound record
			// rather than introducing a new name; its base must resolve.
			if !sc.resolve(n.ArrowTarget[0]) {
				v.add(diag.New(diag.EUnbound, "unbound identifier \""+n.ArrowTarget[0]+"\"").WithSpan(n.Sp))
			}
		}
	case *ast.ReturnStmt:
		v.walkExpr(n.Expr, sc)
	case *ast.FnDecl:
		if v.fnNames[n.Name] || isStdlibName(v.stdlib, n.Name) {
			v.add(diag.New(diag.EFnDup, "function \""+n.Name+"\" duplicates an existing function or stdlib name").WithSpan(n.Sp))
		}
		fnScope := newScope(sc)
		seen := map[string]bool{}
		for _, p := range n.Params {
			if seen[p] {
				v.add(diag.New(diag.EDupBinding, "duplicate parameter \""+p+"\"").WithSpan(n.Sp))
				continue
			}
			seen[p] = true
			fnScope.declare(p)
		}
		v.walkStmts(n.Body, fnScope)
		v.fnNames[n.Name] = true
	}
}

func isStdlibName(stdlib registry.StdlibRegistry, name string) bool {
	_, ok := stdlib[name]
	return ok
}

func (v *validator) walkExpr(e ast.Expr, sc *scope) {
	if e == nil {
		return
	}
	switch n := e.(type) {
	case *ast.IdentPath:
		if !sc.resolve(n.Segments[0]) {
			v.add(diag.New(diag.EUnbound, "unbound identifier \""+n.Segments[0]+"\"").WithSpan(n.Sp))
		}
	case *ast.RecordExpr:
		v.walkRecordFields(n.Fields, sc)
	case *ast.ListExpr:
		for _, el := range n.Elements {
			v.walkExpr(el, sc)
		}
	case *ast.CallExpr:
		v.checkTool(n.ToolPath, true, n.Sp)
		v.walkRecordFields(n.Args.Fields, sc)
	case *ast.DoExpr:
		v.checkTool(n.ToolPath, false, n.Sp)
		v.walkRecordFields(n.Args.Fields, sc)
	case *ast.AssertExpr:
		v.walkRecordFields(n.Args.Fields, sc)
	case *ast.CheckExpr:
		v.walkRecordFields(n.Args.Fields, sc)
	case *ast.FnCallExpr:
		if !v.fnNames[n.Path] && !isStdlibName(v.stdlib, n.Path) {
			candidates := make([]string, 0, len(v.stdlib)+len(v.fnNames))
			for k := range v.stdlib {
				candidates = append(candidates, k)
			}
			for k := range v.fnNames {
				candidates = append(candidates, k)
			}
			hint := diag.Suggest(n.Path, candidates)
			v.add(diag.New(diag.EUnknownFn, "unknown function \""+n.Path+"\"").WithSpan(n.Sp).WithHint(hint))
		}
		v.walkRecordFields(n.Args.Fields, sc)
	case *ast.IfExpr:
		v.walkExpr(n.Cond, sc)
		v.walkStmts(n.Then, newScope(sc))
		if n.Else != nil {
			v.walkStmts(n.Else, newScope(sc))
		}
	case *ast.ForExpr:
		v.walkExpr(n.In, sc)
		bodyScope := newScope(sc)
		bodyScope.declare(n.As)
		v.walkStmts(n.Body, bodyScope)
	case *ast.MatchExpr:
		v.walkExpr(n.Subject, sc)
		if n.OkArm != nil {
			armScope := newScope(sc)
			armScope.declare(n.OkArm.Bind)
			v.walkStmts(n.OkArm.Body, armScope)
		}
		if n.ErrArm != nil {
			armScope := newScope(sc)
			armScope.declare(n.ErrArm.Bind)
			v.walkStmts(n.ErrArm.Body, armScope)
		}
	case *ast.TryExpr:
		v.walkStmts(n.Body, newScope(sc))
		catchScope := newScope(sc)
		catchScope.declare(n.CatchName)
		v.walkStmts(n.CatchBody, catchScope)
	case *ast.BinaryExpr:
		v.walkExpr(n.Left, sc)
		v.walkExpr(n.Right, sc)
	case *ast.UnaryExpr:
		v.walkExpr(n.Operand, sc)
	}
}

func (v *validator) walkRecordFields(fields []ast.RecordField, sc *scope) {
	for _, f := range fields {
		if f.Spread != nil {
			v.walkExpr(f.Spread, sc)
			continue
		}
		v.walkExpr(f.Value, sc)
	}
}

func (v *validator) checkTool(name string, readOnly bool, sp ast.Span) {
	tool, ok := v.tools[name]
	if !ok {
		candidates := make([]string, 0, len(v.tools))
		for k := range v.tools {
			candidates = append(candidates, k)
		}
		hint := diag.Suggest(name, candidates)
		v.add(diag.New(diag.EUnknownTool, "unknown tool \""+name+"\"").WithSpan(sp).WithHint(hint))
		return
	}
	if !v.capSet[tool.CapabilityID()] {
		v.add(diag.New(diag.EUndeclaredCap, "tool \""+name+"\" requires undeclared capability \""+tool.CapabilityID()+"\"").WithSpan(sp))
	}
	if readOnly && tool.Mode() == registry.Effect {
		v.add(diag.New(diag.ECallEffect, "tool \""+name+"\" is effect-mode and cannot be used with call?").WithSpan(sp))
	}
}
