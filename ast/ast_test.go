package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSpanStringFormatsFileLineCol(t *testing.T) {
	sp := Span{File: "prog.a0", StartLine: 3, StartCol: 7, EndLine: 3, EndCol: 10}
	assert.Equal(t, "prog.a0:3:7", sp.String())
}

func TestNodeSpanAccessorsReturnOwnSpan(t *testing.T) {
	sp := Span{File: "t.a0", StartLine: 1, StartCol: 1}
	var nodes = []Node{
		&Program{Sp: sp},
		&CapDecl{Sp: sp},
		&BudgetDecl{Sp: sp},
		&ImportDecl{Sp: sp},
		&LetStmt{Sp: sp},
		&ExprStmt{Sp: sp},
		&ReturnStmt{Sp: sp},
		&FnDecl{Sp: sp},
		&IntLit{Sp: sp},
		&FloatLit{Sp: sp},
		&BoolLit{Sp: sp},
		&StringLit{Sp: sp},
		&NullLit{Sp: sp},
		&IdentPath{Sp: sp},
		&RecordExpr{Sp: sp},
		&ListExpr{Sp: sp},
		&CallExpr{Sp: sp},
		&DoExpr{Sp: sp},
		&AssertExpr{Sp: sp},
		&CheckExpr{Sp: sp},
		&FnCallExpr{Sp: sp},
		&IfExpr{Sp: sp},
		&ForExpr{Sp: sp},
		&MatchExpr{Sp: sp},
		&TryExpr{Sp: sp},
		&BinaryExpr{Sp: sp},
		&UnaryExpr{Sp: sp},
	}
	for _, n := range nodes {
		assert.Equal(t, sp, n.Span())
	}
}

func TestHeaderAndStmtAndExprInterfacesAreSatisfied(t *testing.T) {
	var _ Header = &CapDecl{}
	var _ Header = &BudgetDecl{}
	var _ Header = &ImportDecl{}
	var _ Stmt = &LetStmt{}
	var _ Stmt = &ExprStmt{}
	var _ Stmt = &ReturnStmt{}
	var _ Stmt = &FnDecl{}
	var _ Expr = &IntLit{}
	var _ Expr = &BinaryExpr{}
}
