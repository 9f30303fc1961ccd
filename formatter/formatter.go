// Package formatter implements the Formatter component: deterministic,
// idempotent AST pretty-printing (spec.md §3, §4.4). Two-space indent,
// records/lists inline when <=72 columns else multi-line with a trailing
// newline before the closing brace. Grounded on the teacher's
// core/planfmt/formatter/text.go: a recursive type-switch over AST node
// kinds building a strings.Builder, column-width-aware rather than
// structure-aware for the inline/multi-line choice. Stdlib-only: no corpus
// dependency models pretty-printing, and Go's strings.Builder is the
// idiomatic tool for it throughout the teacher's codebase.
package formatter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ThomasRohde/agent0/ast"
)

const indentUnit = "  "
const inlineWidth = 72

// Format renders a parsed Program as canonical A0 source text.
func Format(prog *ast.Program) string {
	var b strings.Builder
	for _, h := range prog.Headers {
		formatHeader(&b, h)
		b.WriteByte('\n')
	}
	if len(prog.Headers) > 0 {
		b.WriteByte('\n')
	}
	for i, s := range prog.Statements {
		formatStmt(&b, s, 0)
		b.WriteByte('\n')
		if i < len(prog.Statements)-1 {
			// no extra blank line between statements; matches the teacher's
			// one-line-per-step Format() style.
		}
	}
	return b.String()
}

func formatHeader(b *strings.Builder, h ast.Header) {
	switch n := h.(type) {
	case *ast.CapDecl:
		b.WriteString("cap ")
		b.WriteString(formatRecordFields(n.Fields, 0))
	case *ast.BudgetDecl:
		b.WriteString("budget ")
		b.WriteString(formatRecordFields(n.Fields, 0))
	case *ast.ImportDecl:
		fmt.Fprintf(b, "import %s", strconv.Quote(n.Path))
		if n.Alias != "" {
			fmt.Fprintf(b, " as %s", n.Alias)
		}
	}
}

func indent(depth int) string { return strings.Repeat(indentUnit, depth) }

func formatStmt(b *strings.Builder, s ast.Stmt, depth int) {
	b.WriteString(indent(depth))
	switch n := s.(type) {
	case *ast.LetStmt:
		fmt.Fprintf(b, "let %s = %s", n.Name, formatExpr(n.Expr, depth))
	case *ast.ExprStmt:
		b.WriteString(formatExpr(n.Expr, depth))
		if len(n.ArrowTarget) > 0 {
			fmt.Fprintf(b, " -> %s", strings.Join(n.ArrowTarget, "."))
		}
	case *ast.ReturnStmt:
		fmt.Fprintf(b, "return %s", formatExpr(n.Expr, depth))
	case *ast.FnDecl:
		fmt.Fprintf(b, "fn %s { %s } ", n.Name, strings.Join(n.Params, ", "))
		b.WriteString(formatBlock(n.Body, depth))
	}
}

func formatBlock(stmts []ast.Stmt, depth int) string {
	var b strings.Builder
	b.WriteString("{\n")
	for _, s := range stmts {
		formatStmt(&b, s, depth+1)
		b.WriteByte('\n')
	}
	b.WriteString(indent(depth))
	b.WriteString("}")
	return b.String()
}

func formatRecordFields(fields []ast.RecordField, depth int) string {
	parts := make([]string, len(fields))
	for i, f := range fields {
		if f.Spread != nil {
			parts[i] = "..." + formatExpr(f.Spread, depth)
		} else {
			parts[i] = fmt.Sprintf("%s: %s", f.Key, formatExpr(f.Value, depth))
		}
	}
	inline := "{ " + strings.Join(parts, ", ") + " }"
	if len(parts) == 0 {
		return "{}"
	}
	if fits(inline, depth) {
		return inline
	}
	var b strings.Builder
	b.WriteString("{\n")
	for _, p := range parts {
		b.WriteString(indent(depth + 1))
		b.WriteString(p)
		b.WriteString(",\n")
	}
	b.WriteString(indent(depth))
	b.WriteString("}")
	return b.String()
}

func fits(s string, depth int) bool {
	return len(indent(depth))+len(s) <= inlineWidth
}

func formatExpr(e ast.Expr, depth int) string {
	switch n := e.(type) {
	case *ast.IntLit:
		return fmt.Sprintf("%d", n.Value)
	case *ast.FloatLit:
		return strconv.FormatFloat(n.Value, 'g', -1, 64)
	case *ast.BoolLit:
		return fmt.Sprintf("%t", n.Value)
	case *ast.StringLit:
		return strconv.Quote(n.Value)
	case *ast.NullLit:
		return "null"
	case *ast.IdentPath:
		return strings.Join(n.Segments, ".")
	case *ast.RecordExpr:
		return formatRecordFields(n.Fields, depth)
	case *ast.ListExpr:
		return formatListElements(n.Elements, depth)
	case *ast.CallExpr:
		return fmt.Sprintf("call? %s %s", n.ToolPath, formatRecordFields(n.Args.Fields, depth))
	case *ast.DoExpr:
		return fmt.Sprintf("do %s %s", n.ToolPath, formatRecordFields(n.Args.Fields, depth))
	case *ast.AssertExpr:
		return fmt.Sprintf("assert %s", formatRecordFields(n.Args.Fields, depth))
	case *ast.CheckExpr:
		return fmt.Sprintf("check %s", formatRecordFields(n.Args.Fields, depth))
	case *ast.FnCallExpr:
		return fmt.Sprintf("%s %s", n.Path, formatRecordFields(n.Args.Fields, depth))
	case *ast.IfExpr:
		return formatIf(n, depth)
	case *ast.ForExpr:
		return formatFor(n, depth)
	case *ast.MatchExpr:
		return formatMatch(n, depth)
	case *ast.TryExpr:
		return formatTry(n, depth)
	case *ast.BinaryExpr:
		return fmt.Sprintf("%s %s %s", formatExpr(n.Left, depth), binOpText(n.Op), formatExpr(n.Right, depth))
	case *ast.UnaryExpr:
		return "-" + formatExpr(n.Operand, depth)
	}
	return "<?>"
}

func formatListElements(elems []ast.Expr, depth int) string {
	parts := make([]string, len(elems))
	for i, e := range elems {
		parts[i] = formatExpr(e, depth)
	}
	if len(parts) == 0 {
		return "[]"
	}
	inline := "[" + strings.Join(parts, ", ") + "]"
	if fits(inline, depth) {
		return inline
	}
	var b strings.Builder
	b.WriteString("[\n")
	for _, p := range parts {
		b.WriteString(indent(depth + 1))
		b.WriteString(p)
		b.WriteString(",\n")
	}
	b.WriteString(indent(depth))
	b.WriteString("]")
	return b.String()
}

func formatIf(n *ast.IfExpr, depth int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "if (%s) %s", formatExpr(n.Cond, depth), formatBlock(n.Then, depth))
	if n.Else != nil {
		fmt.Fprintf(&b, " else %s", formatBlock(n.Else, depth))
	}
	return b.String()
}

func formatFor(n *ast.ForExpr, depth int) string {
	header := formatRecordFields([]ast.RecordField{
		{Key: "in", Value: n.In},
		{Key: "as", Value: &ast.StringLit{Value: n.As}},
	}, depth)
	return fmt.Sprintf("for %s %s", header, formatBlock(n.Body, depth))
}

func formatMatch(n *ast.MatchExpr, depth int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "match %s {\n", formatExpr(n.Subject, depth))
	if n.OkArm != nil {
		formatMatchArm(&b, n.OkArm, depth+1)
	}
	if n.ErrArm != nil {
		formatMatchArm(&b, n.ErrArm, depth+1)
	}
	b.WriteString(indent(depth))
	b.WriteString("}")
	return b.String()
}

func formatMatchArm(b *strings.Builder, arm *ast.MatchArm, depth int) {
	b.WriteString(indent(depth))
	fmt.Fprintf(b, "%s { %s } %s\n", arm.Name, arm.Bind, formatBlock(arm.Body, depth))
}

func formatTry(n *ast.TryExpr, depth int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "try %s catch { %s } %s", formatBlock(n.Body, depth), n.CatchName, formatBlock(n.CatchBody, depth))
	return b.String()
}

func binOpText(op ast.BinaryOp) string {
	switch op {
	case ast.OpAdd:
		return "+"
	case ast.OpSub:
		return "-"
	case ast.OpMul:
		return "*"
	case ast.OpDiv:
		return "/"
	case ast.OpMod:
		return "%"
	case ast.OpGt:
		return ">"
	case ast.OpLt:
		return "<"
	case ast.OpGe:
		return ">="
	case ast.OpLe:
		return "<="
	case ast.OpEq:
		return "=="
	case ast.OpNe:
		return "!="
	}
	return "?"
}
