package kaleido

import (
	"github.com/peterhuang621/MyLearnCompiler-LLVM-language-demo/ast"
	"github.com/peterhuang621/MyLearnCompiler-LLVM-language-demo/optable"
)

// Parser is a recursive-descent parser with a Pratt-style
// parseBinOpRHS for expressions. Every parsing method reports failure
// through a returned error rather than a panic, so the driver can
// print a diagnostic and resume at the next top-level item.
type Parser struct {
	lex *Lexer
	ops *optable.Table
	cur Token
}

// NewParser primes p with the first token from lex.
func NewParser(lex *Lexer, ops *optable.Table) *Parser {
	p := &Parser{lex: lex, ops: ops}
	p.advance()
	return p
}

func (p *Parser) advance() { p.cur = p.lex.Next() }

// Current returns the token the parser is positioned at, for the
// driver's top-level dispatch.
func (p *Parser) Current() Token { return p.cur }

// SkipToken discards the current token. Used by the driver to step
// over a stray ';' or to advance past a token a failed parse left
// behind before retrying.
func (p *Parser) SkipToken() { p.advance() }

func (p *Parser) isOp(c rune) bool {
	return p.cur.Kind == Op && p.cur.Op == c
}

// ParseDefinition parses "def" prototype expression.
func (p *Parser) ParseDefinition() (*ast.Function, error) {
	p.advance()
	proto, err := p.parsePrototype()
	if err != nil {
		return nil, err
	}
	body, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	return &ast.Function{Proto: proto, Body: body}, nil
}

// ParseExtern parses "extern" prototype.
func (p *Parser) ParseExtern() (*ast.Prototype, error) {
	p.advance()
	return p.parsePrototype()
}

// ParseTopLevelExpr parses a bare expression and wraps it in the
// anonymous function every top-level expression is compiled as.
func (p *Parser) ParseTopLevelExpr() (*ast.Function, error) {
	e, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	return &ast.Function{Proto: &ast.Prototype{Name: ast.AnonName}, Body: e}, nil
}

func (p *Parser) parsePrototype() (*ast.Prototype, error) {
	var name string
	kind := 0
	prec := 30

	switch p.cur.Kind {
	case Ident:
		name = p.cur.Ident
		p.advance()
	case Unary:
		p.advance()
		if p.cur.Kind != Op {
			return nil, expected("unary operator", p.cur, p.cur.Line)
		}
		name = "unary" + string(p.cur.Op)
		kind = 1
		p.advance()
	case Binary:
		p.advance()
		if p.cur.Kind != Op {
			return nil, expected("binary operator", p.cur, p.cur.Line)
		}
		name = "binary" + string(p.cur.Op)
		kind = 2
		p.advance()
		if p.cur.Kind == Number {
			if p.cur.Num < 1 || p.cur.Num > 100 {
				return nil, &ParseError{Msg: "invalid precedence: must be 1..100", Line: p.cur.Line}
			}
			prec = int(p.cur.Num)
			p.advance()
		}
	default:
		return nil, expected("function name in prototype", p.cur, p.cur.Line)
	}

	if !p.isOp('(') {
		return nil, expected("'(' in prototype", p.cur, p.cur.Line)
	}
	p.advance()

	var params []string
	for p.cur.Kind == Ident {
		params = append(params, p.cur.Ident)
		p.advance()
	}
	if !p.isOp(')') {
		return nil, expected("')' in prototype", p.cur, p.cur.Line)
	}
	p.advance()

	if kind != 0 && len(params) != kind {
		return nil, &ParseError{Msg: "invalid number of operands for operator", Line: p.cur.Line}
	}
	return &ast.Prototype{Name: name, Params: params, IsOperator: kind != 0, Precedence: prec}, nil
}

func (p *Parser) parseExpression() (ast.Expr, error) {
	lhs, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	return p.parseBinOpRHS(0, lhs)
}

func (p *Parser) tokPrecedence() int {
	if p.cur.Kind != Op {
		return -1
	}
	return p.ops.Precedence(p.cur.Op)
}

func (p *Parser) parseBinOpRHS(minPrec int, lhs ast.Expr) (ast.Expr, error) {
	for {
		prec := p.tokPrecedence()
		if prec < minPrec {
			return lhs, nil
		}
		op := p.cur.Op
		p.advance()

		rhs, err := p.parseUnary()
		if err != nil {
			return nil, err
		}

		if prec < p.tokPrecedence() {
			rhs, err = p.parseBinOpRHS(prec+1, rhs)
			if err != nil {
				return nil, err
			}
		}
		lhs = &ast.BinaryExpr{Op: op, LHS: lhs, RHS: rhs}
	}
}

func (p *Parser) parseUnary() (ast.Expr, error) {
	if p.cur.Kind != Op || p.cur.Op == '(' || p.cur.Op == ',' {
		return p.parsePrimary()
	}
	op := p.cur.Op
	p.advance()
	operand, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	return &ast.UnaryExpr{Op: op, Operand: operand}, nil
}

func (p *Parser) parsePrimary() (ast.Expr, error) {
	switch p.cur.Kind {
	case Ident:
		return p.parseIdentifierExpr()
	case Number:
		v := p.cur.Num
		p.advance()
		return &ast.NumberExpr{Val: v}, nil
	case Op:
		if p.cur.Op == '(' {
			return p.parseParenExpr()
		}
		return nil, unexpectedToken(p.cur, p.cur.Line)
	case If:
		return p.parseIfExpr()
	case For:
		return p.parseForExpr()
	case Var:
		return p.parseVarExpr()
	default:
		return nil, unexpectedToken(p.cur, p.cur.Line)
	}
}

func (p *Parser) parseIdentifierExpr() (ast.Expr, error) {
	name := p.cur.Ident
	p.advance()
	if !p.isOp('(') {
		return &ast.VariableExpr{Name: name}, nil
	}
	p.advance()

	var args []ast.Expr
	if !p.isOp(')') {
		for {
			a, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			args = append(args, a)
			if p.isOp(')') {
				break
			}
			if !p.isOp(',') {
				return nil, expected("')' or ',' in argument list", p.cur, p.cur.Line)
			}
			p.advance()
		}
	}
	p.advance()
	return &ast.CallExpr{Callee: name, Args: args}, nil
}

func (p *Parser) parseParenExpr() (ast.Expr, error) {
	p.advance()
	e, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if !p.isOp(')') {
		return nil, expected("')'", p.cur, p.cur.Line)
	}
	p.advance()
	return e, nil
}

func (p *Parser) parseIfExpr() (ast.Expr, error) {
	p.advance()
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if p.cur.Kind != Then {
		return nil, expected("then", p.cur, p.cur.Line)
	}
	p.advance()
	then, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if p.cur.Kind != Else {
		return nil, expected("else", p.cur, p.cur.Line)
	}
	p.advance()
	els, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	return &ast.IfExpr{Cond: cond, Then: then, Else: els}, nil
}

func (p *Parser) parseForExpr() (ast.Expr, error) {
	p.advance()
	if p.cur.Kind != Ident {
		return nil, expected("identifier after for", p.cur, p.cur.Line)
	}
	name := p.cur.Ident
	p.advance()
	if !p.isOp('=') {
		return nil, expected("'=' after for", p.cur, p.cur.Line)
	}
	p.advance()

	start, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if !p.isOp(',') {
		return nil, expected("',' after for start value", p.cur, p.cur.Line)
	}
	p.advance()

	end, err := p.parseExpression()
	if err != nil {
		return nil, err
	}

	var step ast.Expr
	if p.isOp(',') {
		p.advance()
		step, err = p.parseExpression()
		if err != nil {
			return nil, err
		}
	}

	if p.cur.Kind != In {
		return nil, expected("'in' after for", p.cur, p.cur.Line)
	}
	p.advance()

	body, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	return &ast.ForExpr{Var: name, Start: start, End: end, Step: step, Body: body}, nil
}

func (p *Parser) parseVarExpr() (ast.Expr, error) {
	p.advance()
	if p.cur.Kind != Ident {
		return nil, expected("identifier after var", p.cur, p.cur.Line)
	}

	var bindings []ast.VarBinding
	for {
		name := p.cur.Ident
		p.advance()

		var init ast.Expr
		if p.isOp('=') {
			p.advance()
			var err error
			init, err = p.parseExpression()
			if err != nil {
				return nil, err
			}
		}
		bindings = append(bindings, ast.VarBinding{Name: name, Init: init})

		if !p.isOp(',') {
			break
		}
		p.advance()
		if p.cur.Kind != Ident {
			return nil, expected("identifier list after var", p.cur, p.cur.Line)
		}
	}

	if p.cur.Kind != In {
		return nil, expected("'in' keyword after 'var'", p.cur, p.cur.Line)
	}
	p.advance()

	body, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	return &ast.VarExpr{Bindings: bindings, Body: body}, nil
}

