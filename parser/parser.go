// Package parser turns an A0 token stream into an AST (spec.md §4.3).
package parser

import (
	"fmt"
	"strconv"

	"github.com/ThomasRohde/agent0/ast"
	"github.com/ThomasRohde/agent0/diag"
	"github.com/ThomasRohde/agent0/lexer"
	"github.com/ThomasRohde/agent0/token"
)

func parseInt(text string) (int64, error)     { return strconv.ParseInt(text, 10, 64) }
func parseFloat(text string) (float64, error) { return strconv.ParseFloat(text, 64) }

// Options configures parser error verbosity.
type Options struct {
	// Debug appends the type and text of the token the parser stopped at
	// to every parse error message. No list of expected tokens is kept or
	// reported.
	Debug bool
}

// Parser consumes a token stream and builds an AST.
type Parser struct {
	file string
	toks []token.Token
	pos  int
	opts Options

	// noCallSuffix suppresses the `ident { ... }` function-call reading of
	// parseIdentOrCall while parsing a match subject, so `match x { ok ... }`
	// doesn't swallow the match body as a call-argument record.
	noCallSuffix bool
}

// Parse parses a complete A0 program from source text.
func Parse(src, file string) (*ast.Program, *diag.Diagnostic) {
	return ParseWithOptions(src, file, Options{})
}

// ParseWithOptions parses with explicit Options (e.g. Debug mode).
func ParseWithOptions(src, file string, opts Options) (*ast.Program, *diag.Diagnostic) {
	lx := lexer.New(src, file)
	toks, lexErr := lx.Tokenize()
	if lexErr != nil {
		return nil, lexErr
	}
	p := &Parser{file: file, toks: toks, opts: opts}
	prog, err := p.parseProgram()
	if err != nil {
		return nil, err
	}
	return prog, nil
}

func (p *Parser) cur() token.Token {
	if p.pos >= len(p.toks) {
		return p.toks[len(p.toks)-1] // EOF
	}
	return p.toks[p.pos]
}

func (p *Parser) peekAt(n int) token.Token {
	idx := p.pos + n
	if idx >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[idx]
}

func (p *Parser) advance() token.Token {
	t := p.cur()
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *Parser) at(t token.Type) bool { return p.cur().Type == t }

func (p *Parser) span(start token.Token) ast.Span {
	end := p.toks[p.pos]
	if p.pos > 0 {
		end = p.toks[p.pos-1]
	}
	return ast.Span{
		File:      p.file,
		StartLine: start.Start.Line,
		StartCol:  start.Start.Col,
		EndLine:   end.End.Line,
		EndCol:    end.End.Col,
	}
}

func (p *Parser) here() ast.Span {
	t := p.cur()
	return ast.Span{File: p.file, StartLine: t.Start.Line, StartCol: t.Start.Col, EndLine: t.End.Line, EndCol: t.End.Col}
}

func (p *Parser) errf(format string, args ...interface{}) *diag.Diagnostic {
	msg := fmt.Sprintf(format, args...)
	if p.opts.Debug {
		msg = fmt.Sprintf("%s (at token %s %q)", msg, p.cur().Type, p.cur().Text)
	}
	d := diag.New(diag.EParse, msg).WithSpan(p.here())
	return &d
}

func (p *Parser) expect(t token.Type) (token.Token, *diag.Diagnostic) {
	if !p.at(t) {
		return token.Token{}, p.errf("expected %s, found %s %q", t, p.cur().Type, p.cur().Text)
	}
	return p.advance(), nil
}

// ---------------------------------------------------------------- program

func (p *Parser) parseProgram() (*ast.Program, *diag.Diagnostic) {
	start := p.cur()
	prog := &ast.Program{}

headers:
	for {
		switch p.cur().Type {
		case token.CAP:
			h, err := p.parseCapDecl()
			if err != nil {
				return nil, err
			}
			prog.Headers = append(prog.Headers, h)
		case token.BUDGET:
			h, err := p.parseBudgetDecl()
			if err != nil {
				return nil, err
			}
			prog.Headers = append(prog.Headers, h)
		case token.IMPORT:
			h, err := p.parseImportDecl()
			if err != nil {
				return nil, err
			}
			prog.Headers = append(prog.Headers, h)
		default:
			break headers
		}
	}

	for !p.at(token.EOF) {
		s, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		prog.Statements = append(prog.Statements, s)
	}
	prog.Sp = p.span(start)
	return prog, nil
}

func (p *Parser) parseDottedName() (string, *diag.Diagnostic) {
	if !p.at(token.IDENT) {
		return "", p.errf("expected identifier, found %s %q", p.cur().Type, p.cur().Text)
	}
	name := p.advance().Text
	for p.at(token.DOT) {
		p.advance()
		seg, err := p.expect(token.IDENT)
		if err != nil {
			return "", err
		}
		name += "." + seg.Text
	}
	return name, nil
}

func (p *Parser) parseCapDecl() (*ast.CapDecl, *diag.Diagnostic) {
	start := p.advance() // 'cap'
	rec, err := p.parseRecordBody()
	if err != nil {
		return nil, err
	}
	return &ast.CapDecl{Fields: rec, Sp: p.span(start)}, nil
}

func (p *Parser) parseBudgetDecl() (*ast.BudgetDecl, *diag.Diagnostic) {
	start := p.advance() // 'budget'
	rec, err := p.parseRecordBody()
	if err != nil {
		return nil, err
	}
	return &ast.BudgetDecl{Fields: rec, Sp: p.span(start)}, nil
}

func (p *Parser) parseImportDecl() (*ast.ImportDecl, *diag.Diagnostic) {
	start := p.advance() // 'import'
	pathTok, err := p.expect(token.STRING)
	if err != nil {
		return nil, err
	}
	alias := ""
	if p.at(token.AS) {
		p.advance()
		a, err := p.expect(token.IDENT)
		if err != nil {
			return nil, err
		}
		alias = a.Text
	}
	return &ast.ImportDecl{Path: pathTok.Text, Alias: alias, Sp: p.span(start)}, nil
}

// parseRecordBody parses `{ field, field, ... }`, where field is either
// `key: value` (dotted keys allowed; a single keyword such as `in`, `as`,
// `fn` or `else` is also accepted as a key) or `...expr`.
func (p *Parser) parseRecordBody() ([]ast.RecordField, *diag.Diagnostic) {
	if _, err := p.expect(token.LBRACE); err != nil {
		return nil, err
	}
	var fields []ast.RecordField
	for !p.at(token.RBRACE) {
		fstart := p.cur()
		if p.at(token.DOTDOTDOT) {
			p.advance()
			val, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			fields = append(fields, ast.RecordField{Spread: val, Sp: p.span(fstart)})
		} else {
			var key string
			if kw, ok := token.Keywords[p.cur().Text]; ok && p.at(kw) {
				key = p.advance().Text
			} else {
				k, err := p.parseDottedName()
				if err != nil {
					return nil, err
				}
				key = k
			}
			if _, err := p.expect(token.COLON); err != nil {
				return nil, err
			}
			val, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			fields = append(fields, ast.RecordField{Key: key, Value: val, Sp: p.span(fstart)})
		}
		if p.at(token.COMMA) {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect(token.RBRACE); err != nil {
		return nil, err
	}
	return fields, nil
}

// ---------------------------------------------------------------- statements

func (p *Parser) parseStatement() (ast.Stmt, *diag.Diagnostic) {
	start := p.cur()
	switch p.cur().Type {
	case token.LET:
		p.advance()
		name, err := p.expect(token.IDENT)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.ASSIGN); err != nil {
			return nil, err
		}
		val, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return &ast.LetStmt{Name: name.Text, Expr: val, Sp: p.span(start)}, nil

	case token.RETURN:
		p.advance()
		val, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return &ast.ReturnStmt{Expr: val, Sp: p.span(start)}, nil

	case token.FN:
		return p.parseFnDecl()

	default:
		val, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		var target []string
		if p.at(token.ARROW) {
			p.advance()
			name, err := p.parseDottedName()
			if err != nil {
				return nil, err
			}
			target = splitDotted(name)
		}
		return &ast.ExprStmt{Expr: val, ArrowTarget: target, Sp: p.span(start)}, nil
	}
}

func splitDotted(s string) []string {
	var out []string
	cur := ""
	for _, r := range s {
		if r == '.' {
			out = append(out, cur)
			cur = ""
			continue
		}
		cur += string(r)
	}
	out = append(out, cur)
	return out
}

func (p *Parser) parseFnDecl() (*ast.FnDecl, *diag.Diagnostic) {
	start := p.advance() // 'fn'
	name, err := p.expect(token.IDENT)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LBRACE); err != nil {
		return nil, err
	}
	var params []string
	seen := map[string]bool{}
	for !p.at(token.RBRACE) {
		pt, err := p.expect(token.IDENT)
		if err != nil {
			return nil, err
		}
		if seen[pt.Text] {
			d := diag.New(diag.EDupBinding, fmt.Sprintf("duplicate parameter %q", pt.Text)).WithSpan(p.here())
			return nil, &d
		}
		seen[pt.Text] = true
		params = append(params, pt.Text)
		if p.at(token.COMMA) {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect(token.RBRACE); err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.FnDecl{Name: name.Text, Params: params, Body: body, Sp: p.span(start)}, nil
}

// parseBlock parses `{ stmt* }`.
func (p *Parser) parseBlock() ([]ast.Stmt, *diag.Diagnostic) {
	if _, err := p.expect(token.LBRACE); err != nil {
		return nil, err
	}
	var stmts []ast.Stmt
	for !p.at(token.RBRACE) {
		s, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, s)
	}
	if _, err := p.expect(token.RBRACE); err != nil {
		return nil, err
	}
	return stmts, nil
}

// ---------------------------------------------------------------- expressions

func (p *Parser) parseExpr() (ast.Expr, *diag.Diagnostic) {
	switch p.cur().Type {
	case token.IF:
		return p.parseIf()
	case token.FOR:
		return p.parseFor()
	case token.MATCH:
		return p.parseMatch()
	case token.TRY:
		return p.parseTry()
	case token.CALLQ:
		return p.parseCall()
	case token.DO:
		return p.parseDo()
	case token.ASSERT:
		return p.parseAssert()
	case token.CHECK:
		return p.parseCheck()
	default:
		return p.parseComparison()
	}
}

var binOps = map[token.Type]ast.BinaryOp{
	token.GT: ast.OpGt, token.LT: ast.OpLt, token.GE: ast.OpGe, token.LE: ast.OpLe,
	token.EQ: ast.OpEq, token.NE: ast.OpNe,
}

func (p *Parser) parseComparison() (ast.Expr, *diag.Diagnostic) {
	start := p.cur()
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	if op, ok := binOps[p.cur().Type]; ok {
		p.advance()
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		return &ast.BinaryExpr{Op: op, Left: left, Right: right, Sp: p.span(start)}, nil
	}
	return left, nil
}

func (p *Parser) parseAdditive() (ast.Expr, *diag.Diagnostic) {
	start := p.cur()
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.at(token.PLUS) || p.at(token.MINUS) {
		op := ast.OpAdd
		if p.cur().Type == token.MINUS {
			op = ast.OpSub
		}
		p.advance()
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{Op: op, Left: left, Right: right, Sp: p.span(start)}
	}
	return left, nil
}

func (p *Parser) parseMultiplicative() (ast.Expr, *diag.Diagnostic) {
	start := p.cur()
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.at(token.STAR) || p.at(token.SLASH) || p.at(token.PCT) {
		var op ast.BinaryOp
		switch p.cur().Type {
		case token.STAR:
			op = ast.OpMul
		case token.SLASH:
			op = ast.OpDiv
		default:
			op = ast.OpMod
		}
		p.advance()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{Op: op, Left: left, Right: right, Sp: p.span(start)}
	}
	return left, nil
}

func (p *Parser) parseUnary() (ast.Expr, *diag.Diagnostic) {
	if p.at(token.MINUS) {
		start := p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryExpr{Operand: operand, Sp: p.span(start)}, nil
	}
	return p.parsePrimary()
}

func (p *Parser) parsePrimary() (ast.Expr, *diag.Diagnostic) {
	start := p.cur()
	switch start.Type {
	case token.LPAREN:
		p.advance()
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RPAREN); err != nil {
			return nil, err
		}
		return e, nil
	case token.LBRACE:
		fields, err := p.parseRecordBody()
		if err != nil {
			return nil, err
		}
		return &ast.RecordExpr{Fields: fields, Sp: p.span(start)}, nil
	case token.LBRACKET:
		return p.parseList()
	case token.INT:
		p.advance()
		n, perr := parseInt(start.Text)
		if perr != nil {
			d := diag.New(diag.EParse, "invalid integer literal: "+start.Text).WithSpan(p.here())
			return nil, &d
		}
		return &ast.IntLit{Value: n, Sp: p.span(start)}, nil
	case token.FLOAT:
		p.advance()
		f, perr := parseFloat(start.Text)
		if perr != nil {
			d := diag.New(diag.EParse, "invalid float literal: "+start.Text).WithSpan(p.here())
			return nil, &d
		}
		return &ast.FloatLit{Value: f, Sp: p.span(start)}, nil
	case token.STRING:
		p.advance()
		return &ast.StringLit{Value: start.Text, Sp: p.span(start)}, nil
	case token.TRUE:
		p.advance()
		return &ast.BoolLit{Value: true, Sp: p.span(start)}, nil
	case token.FALSE:
		p.advance()
		return &ast.BoolLit{Value: false, Sp: p.span(start)}, nil
	case token.NULL:
		p.advance()
		return &ast.NullLit{Sp: p.span(start)}, nil
	case token.IDENT:
		return p.parseIdentOrCall()
	default:
		return nil, p.errf("unexpected token %s %q in expression", start.Type, start.Text)
	}
}

func (p *Parser) parseList() (ast.Expr, *diag.Diagnostic) {
	start := p.advance() // '['
	var elems []ast.Expr
	for !p.at(token.RBRACKET) {
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		elems = append(elems, e)
		if p.at(token.COMMA) {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect(token.RBRACKET); err != nil {
		return nil, err
	}
	return &ast.ListExpr{Elements: elems, Sp: p.span(start)}, nil
}

func (p *Parser) parseIdentOrCall() (ast.Expr, *diag.Diagnostic) {
	start := p.cur()
	name, err := p.parseDottedName()
	if err != nil {
		return nil, err
	}
	if p.at(token.LBRACE) && !p.noCallSuffix {
		args, err := p.parseRecordBody()
		if err != nil {
			return nil, err
		}
		return &ast.FnCallExpr{Path: name, Args: &ast.RecordExpr{Fields: args, Sp: p.span(start)}, Sp: p.span(start)}, nil
	}
	return &ast.IdentPath{Segments: splitDotted(name), Sp: p.span(start)}, nil
}

func (p *Parser) parseArgsRecord() (*ast.RecordExpr, *diag.Diagnostic) {
	start := p.cur()
	fields, err := p.parseRecordBody()
	if err != nil {
		return nil, err
	}
	return &ast.RecordExpr{Fields: fields, Sp: p.span(start)}, nil
}

func (p *Parser) parseCall() (ast.Expr, *diag.Diagnostic) {
	start := p.advance() // 'call?'
	name, err := p.parseDottedName()
	if err != nil {
		return nil, err
	}
	args, err := p.parseArgsRecord()
	if err != nil {
		return nil, err
	}
	return &ast.CallExpr{ToolPath: name, Args: args, Sp: p.span(start)}, nil
}

func (p *Parser) parseDo() (ast.Expr, *diag.Diagnostic) {
	start := p.advance() // 'do'
	name, err := p.parseDottedName()
	if err != nil {
		return nil, err
	}
	args, err := p.parseArgsRecord()
	if err != nil {
		return nil, err
	}
	return &ast.DoExpr{ToolPath: name, Args: args, Sp: p.span(start)}, nil
}

func (p *Parser) parseAssert() (ast.Expr, *diag.Diagnostic) {
	start := p.advance() // 'assert'
	args, err := p.parseArgsRecord()
	if err != nil {
		return nil, err
	}
	return &ast.AssertExpr{Args: args, Sp: p.span(start)}, nil
}

func (p *Parser) parseCheck() (ast.Expr, *diag.Diagnostic) {
	start := p.advance() // 'check'
	args, err := p.parseArgsRecord()
	if err != nil {
		return nil, err
	}
	return &ast.CheckExpr{Args: args, Sp: p.span(start)}, nil
}

// parseIf supports both the record form `if { cond:, then:, else: }` and
// the block form `if (cond) { ... } else { ... }`.
func (p *Parser) parseIf() (ast.Expr, *diag.Diagnostic) {
	start := p.advance() // 'if'
	if p.at(token.LPAREN) {
		p.advance()
		cond, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RPAREN); err != nil {
			return nil, err
		}
		then, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		var els []ast.Stmt
		if p.at(token.ELSE) {
			p.advance()
			els, err = p.parseBlock()
			if err != nil {
				return nil, err
			}
		}
		return &ast.IfExpr{Cond: cond, Then: then, Else: els, Sp: p.span(start)}, nil
	}

	fields, err := p.parseRecordBody()
	if err != nil {
		return nil, err
	}
	var cond, thenE, elseE ast.Expr
	for _, f := range fields {
		switch f.Key {
		case "cond":
			cond = f.Value
		case "then":
			thenE = f.Value
		case "else":
			elseE = f.Value
		default:
			d := diag.New(diag.EParse, fmt.Sprintf("unknown field %q in if record form", f.Key)).WithSpan(f.Sp)
			return nil, &d
		}
	}
	if cond == nil || thenE == nil {
		d := diag.New(diag.EParse, "if record form requires cond and then fields").WithSpan(p.span(start))
		return nil, &d
	}
	then := []ast.Stmt{&ast.ReturnStmt{Expr: thenE, Sp: thenE.Span()}}
	var els []ast.Stmt
	if elseE != nil {
		els = []ast.Stmt{&ast.ReturnStmt{Expr: elseE, Sp: elseE.Span()}}
	}
	return &ast.IfExpr{Cond: cond, Then: then, Else: els, Sp: p.span(start)}, nil
}

// parseFor parses `for { in: xs, as: "v" } { body }`.
func (p *Parser) parseFor() (ast.Expr, *diag.Diagnostic) {
	start := p.advance() // 'for'
	fields, err := p.parseRecordBody()
	if err != nil {
		return nil, err
	}
	var in ast.Expr
	var as string
	asSeen := false
	for _, f := range fields {
		switch f.Key {
		case "in":
			in = f.Value
		case "as":
			sl, ok := f.Value.(*ast.StringLit)
			if !ok {
				d := diag.New(diag.EParse, "for's \"as\" field must be a string literal").WithSpan(f.Sp)
				return nil, &d
			}
			as = sl.Value
			asSeen = true
		default:
			d := diag.New(diag.EParse, fmt.Sprintf("unknown field %q in for header", f.Key)).WithSpan(f.Sp)
			return nil, &d
		}
	}
	if in == nil || !asSeen {
		d := diag.New(diag.EParse, "for requires in and as fields").WithSpan(p.span(start))
		return nil, &d
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.ForExpr{In: in, As: as, Body: body, Sp: p.span(start)}, nil
}

// parseMatch parses `match subj { ok {v} {...} err {e} {...} }`.
func (p *Parser) parseMatch() (ast.Expr, *diag.Diagnostic) {
	start := p.advance() // 'match'
	saved := p.noCallSuffix
	p.noCallSuffix = true
	subj, err := p.parseComparison()
	p.noCallSuffix = saved
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LBRACE); err != nil {
		return nil, err
	}
	m := &ast.MatchExpr{Subject: subj}
	for !p.at(token.RBRACE) {
		arm, err := p.parseMatchArm()
		if err != nil {
			return nil, err
		}
		switch arm.Name {
		case "ok":
			if m.OkArm != nil {
				d := diag.New(diag.EParse, "duplicate ok arm in match").WithSpan(arm.Sp)
				return nil, &d
			}
			m.OkArm = arm
		case "err":
			if m.ErrArm != nil {
				d := diag.New(diag.EParse, "duplicate err arm in match").WithSpan(arm.Sp)
				return nil, &d
			}
			m.ErrArm = arm
		}
	}
	if _, err := p.expect(token.RBRACE); err != nil {
		return nil, err
	}
	m.Sp = p.span(start)
	return m, nil
}

func (p *Parser) parseMatchArm() (*ast.MatchArm, *diag.Diagnostic) {
	start := p.cur()
	if !p.at(token.IDENT) || (p.cur().Text != "ok" && p.cur().Text != "err") {
		return nil, p.errf("expected match arm named \"ok\" or \"err\", found %q", p.cur().Text)
	}
	name := p.advance().Text
	if _, err := p.expect(token.LBRACE); err != nil {
		return nil, err
	}
	if !p.at(token.IDENT) {
		return nil, p.errf("match arm must bind exactly one identifier")
	}
	bind := p.advance().Text
	if !p.at(token.RBRACE) {
		return nil, p.errf("match arm must bind exactly one identifier")
	}
	p.advance() // '}'
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.MatchArm{Name: name, Bind: bind, Body: body, Sp: p.span(start)}, nil
}

// parseTry parses `try { body } catch { e } { handler }`.
func (p *Parser) parseTry() (ast.Expr, *diag.Diagnostic) {
	start := p.advance() // 'try'
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.CATCH); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LBRACE); err != nil {
		return nil, err
	}
	if !p.at(token.IDENT) {
		return nil, p.errf("catch must bind exactly one identifier")
	}
	bind := p.advance().Text
	if !p.at(token.RBRACE) {
		return nil, p.errf("catch must bind exactly one identifier")
	}
	p.advance() // '}'
	handler, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.TryExpr{Body: body, CatchName: bind, CatchBody: handler, Sp: p.span(start)}, nil
}
