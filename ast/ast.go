// Package ast defines the A0 abstract syntax tree: the headers, statements,
// and expressions produced by the parser and consumed by the formatter,
// validator, and evaluator.
package ast

import "fmt"

// Span is a 1-based source location rectangle attached to every AST node
// and every diagnostic it can produce.
type Span struct {
	File      string
	StartLine int
	StartCol  int
	EndLine   int
	EndCol    int
}

func (s Span) String() string {
	return fmt.Sprintf("%s:%d:%d", s.File, s.StartLine, s.StartCol)
}

// Node is implemented by every AST node.
type Node interface {
	Span() Span
}

// Program is the root of an A0 AST: declared headers followed by a
// statement pipeline.
type Program struct {
	Headers    []Header
	Statements []Stmt
	Sp         Span
}

func (p *Program) Span() Span { return p.Sp }

// Header is implemented by CapDecl, BudgetDecl, ImportDecl.
type Header interface {
	Node
	headerNode()
}

// CapDecl is a `cap { ... }` header: a record literal of capability name ->
// literal `true`.
type CapDecl struct {
	Fields []RecordField
	Sp     Span
}

func (c *CapDecl) Span() Span { return c.Sp }
func (c *CapDecl) headerNode() {}

// BudgetDecl is a `budget { ... }` header: a record literal of budget
// field name -> integer literal.
type BudgetDecl struct {
	Fields []RecordField
	Sp     Span
}

func (b *BudgetDecl) Span() Span { return b.Sp }
func (b *BudgetDecl) headerNode() {}

// ImportDecl is a reserved `import PATH [as ALIAS]` header. Always rejected
// by the validator with E_IMPORT_UNSUPPORTED.
type ImportDecl struct {
	Path  string
	Alias string
	Sp    Span
}

func (i *ImportDecl) Span() Span { return i.Sp }
func (i *ImportDecl) headerNode() {}

// RecordField is a `key: value` pair or a `...expr` spread inside a record
// literal (used by both headers and Expr Record literals).
type RecordField struct {
	Key    string // empty when Spread != nil
	Value  Expr   // nil when Spread != nil
	Spread Expr   // non-nil for `...expr`
	Sp     Span
}

// Stmt is implemented by every statement form.
type Stmt interface {
	Node
	stmtNode()
}

// LetStmt is `let NAME = expr`.
type LetStmt struct {
	Name string
	Expr Expr
	Sp   Span
}

func (s *LetStmt) Span() Span { return s.Sp }
func (s *LetStmt) stmtNode()  {}

// ExprStmt is a bare expression statement, optionally bound to a name via
// an arrow target: `expr [-> ident-path]`. ArrowTarget is nil for a
// discarded result.
type ExprStmt struct {
	Expr        Expr
	ArrowTarget []string // dotted ident-path segments; nil if none
	Sp          Span
}

func (s *ExprStmt) Span() Span { return s.Sp }
func (s *ExprStmt) stmtNode()  {}

// ReturnStmt is `return expr`.
type ReturnStmt struct {
	Expr Expr
	Sp   Span
}

func (s *ReturnStmt) Span() Span { return s.Sp }
func (s *ReturnStmt) stmtNode()  {}

// FnDecl is `fn NAME { params } { body }`.
type FnDecl struct {
	Name   string
	Params []string
	Body   []Stmt
	Sp     Span
}

func (s *FnDecl) Span() Span { return s.Sp }
func (s *FnDecl) stmtNode()  {}

// Expr is implemented by every expression form.
type Expr interface {
	Node
	exprNode()
}

// IntLit is an integer literal.
type IntLit struct {
	Value int64
	Sp    Span
}

func (e *IntLit) Span() Span { return e.Sp }
func (e *IntLit) exprNode()  {}

// FloatLit is a float literal.
type FloatLit struct {
	Value float64
	Sp    Span
}

func (e *FloatLit) Span() Span { return e.Sp }
func (e *FloatLit) exprNode()  {}

// BoolLit is `true` or `false`.
type BoolLit struct {
	Value bool
	Sp    Span
}

func (e *BoolLit) Span() Span { return e.Sp }
func (e *BoolLit) exprNode()  {}

// StringLit is a JSON-escaped double-quoted string literal.
type StringLit struct {
	Value string
	Sp    Span
}

func (e *StringLit) Span() Span { return e.Sp }
func (e *StringLit) exprNode()  {}

// NullLit is `null`.
type NullLit struct {
	Sp Span
}

func (e *NullLit) Span() Span { return e.Sp }
func (e *NullLit) exprNode()  {}

// IdentPath is a non-empty dotted identifier reference, e.g. `a.b.c`.
type IdentPath struct {
	Segments []string
	Sp       Span
}

func (e *IdentPath) Span() Span { return e.Sp }
func (e *IdentPath) exprNode()  {}

// RecordExpr is a `{ key: value, ...spread }` literal.
type RecordExpr struct {
	Fields []RecordField
	Sp     Span
}

func (e *RecordExpr) Span() Span { return e.Sp }
func (e *RecordExpr) exprNode()  {}

// ListExpr is a `[ ... ]` literal.
type ListExpr struct {
	Elements []Expr
	Sp       Span
}

func (e *ListExpr) Span() Span { return e.Sp }
func (e *ListExpr) exprNode()  {}

// CallExpr is `call? NAME { args }` — a read-mode-only tool invocation.
type CallExpr struct {
	ToolPath string
	Args     *RecordExpr
	Sp       Span
}

func (e *CallExpr) Span() Span { return e.Sp }
func (e *CallExpr) exprNode()  {}

// DoExpr is `do NAME { args }` — a tool invocation of either mode.
type DoExpr struct {
	ToolPath string
	Args     *RecordExpr
	Sp       Span
}

func (e *DoExpr) Span() Span { return e.Sp }
func (e *DoExpr) exprNode()  {}

// AssertExpr is `assert { that: expr, msg?: expr, ... }`.
type AssertExpr struct {
	Args *RecordExpr
	Sp   Span
}

func (e *AssertExpr) Span() Span { return e.Sp }
func (e *AssertExpr) exprNode()  {}

// CheckExpr is `check { that: expr, msg?: expr, ... }`.
type CheckExpr struct {
	Args *RecordExpr
	Sp   Span
}

func (e *CheckExpr) Span() Span { return e.Sp }
func (e *CheckExpr) exprNode()  {}

// FnCallExpr is a call to a user function or stdlib function: `NAME { args }`.
type FnCallExpr struct {
	Path string
	Args *RecordExpr
	Sp   Span
}

func (e *FnCallExpr) Span() Span { return e.Sp }
func (e *FnCallExpr) exprNode()  {}

// IfExpr covers both the record form (`if { cond:, then:, else: }`) and the
// block form (`if (cond) { ... } else { ... }`); Then/Else are statement
// blocks in both forms (a single trailing expression is wrapped as an
// implicit return by the parser for the record form).
type IfExpr struct {
	Cond Expr
	Then []Stmt
	Else []Stmt // nil if no else branch
	Sp   Span
}

func (e *IfExpr) Span() Span { return e.Sp }
func (e *IfExpr) exprNode()  {}

// ForExpr is `for { in: list, as: "v" } { body }` (or the equivalent block
// form). Evaluates to the list of body return values.
type ForExpr struct {
	In   Expr
	As   string
	Body []Stmt
	Sp   Span
}

func (e *ForExpr) Span() Span { return e.Sp }
func (e *ForExpr) exprNode()  {}

// MatchArm is one `ok {v} {...}` or `err {e} {...}` arm.
type MatchArm struct {
	Name string // "ok" or "err"
	Bind string
	Body []Stmt
	Sp   Span
}

// MatchExpr is `match subj { ok {v} {...} err {e} {...} }`.
type MatchExpr struct {
	Subject Expr
	OkArm   *MatchArm
	ErrArm  *MatchArm
	Sp      Span
}

func (e *MatchExpr) Span() Span { return e.Sp }
func (e *MatchExpr) exprNode()  {}

// TryExpr is the expression form of try/catch.
type TryExpr struct {
	Body      []Stmt
	CatchName string
	CatchBody []Stmt
	Sp        Span
}

func (e *TryExpr) Span() Span { return e.Sp }
func (e *TryExpr) exprNode()  {}

// BinaryOp enumerates binary operators.
type BinaryOp int

const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpGt
	OpLt
	OpGe
	OpLe
	OpEq
	OpNe
)

// BinaryExpr is a binary operator application.
type BinaryExpr struct {
	Op    BinaryOp
	Left  Expr
	Right Expr
	Sp    Span
}

func (e *BinaryExpr) Span() Span { return e.Sp }
func (e *BinaryExpr) exprNode()  {}

// UnaryExpr is unary `-`.
type UnaryExpr struct {
	Operand Expr
	Sp      Span
}

func (e *UnaryExpr) Span() Span { return e.Sp }
func (e *UnaryExpr) exprNode()  {}
