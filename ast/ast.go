// Package ast defines the syntax tree produced by the parser and consumed
// by the code generator. Every node represents a value-producing
// expression; there are no statements.
package ast

// Expr is any node that produces a double-precision value when lowered.
type Expr interface {
	exprNode()
}

// NumberExpr is a floating point literal.
type NumberExpr struct {
	Val float64
}

// VariableExpr reads the current value of a named binding.
type VariableExpr struct {
	Name string
}

// UnaryExpr applies a user-defined unary operator to Operand.
type UnaryExpr struct {
	Op      rune
	Operand Expr
}

// BinaryExpr applies Op to LHS and RHS. When Op is '=', LHS must be a
// *VariableExpr and the expression stores RHS into that binding instead
// of computing an operator.
type BinaryExpr struct {
	Op       rune
	LHS, RHS Expr
}

// CallExpr invokes a named function (user-defined function, extern, or
// host function) with Args. Operators are never CallExprs.
type CallExpr struct {
	Callee string
	Args   []Expr
}

// IfExpr evaluates Cond; a nonzero result selects Then, zero selects Else.
// Both branches are always lowered.
type IfExpr struct {
	Cond, Then, Else Expr
}

// ForExpr counts Var from Start to End (exclusive once the condition goes
// to zero) by Step, evaluating Body once per iteration. Step is nil when
// the source omitted it, in which case it defaults to 1.
type ForExpr struct {
	Var              string
	Start, End, Step Expr
	Body             Expr
}

// VarBinding is one name/initializer pair inside a VarExpr. Init is nil
// when the source omitted an initializer, in which case it defaults to 0.
type VarBinding struct {
	Name string
	Init Expr
}

// VarExpr introduces one or more local bindings, each visible to the
// initializers that follow it and to Body, then restores the enclosing
// scope once Body has been evaluated.
type VarExpr struct {
	Bindings []VarBinding
	Body     Expr
}

func (*NumberExpr) exprNode()   {}
func (*VariableExpr) exprNode() {}
func (*UnaryExpr) exprNode()    {}
func (*BinaryExpr) exprNode()   {}
func (*CallExpr) exprNode()     {}
func (*IfExpr) exprNode()       {}
func (*ForExpr) exprNode()      {}
func (*VarExpr) exprNode()      {}

// Prototype names a function, its parameters, and, when the function
// defines a user operator, the operator character and precedence it
// installs into the parser's operator table.
type Prototype struct {
	Name       string
	Params     []string
	IsOperator bool
	Precedence int
}

// IsUnaryOp reports whether the prototype declares a unary operator.
func (p *Prototype) IsUnaryOp() bool {
	return p.IsOperator && len(p.Params) == 1
}

// IsBinaryOp reports whether the prototype declares a binary operator.
func (p *Prototype) IsBinaryOp() bool {
	return p.IsOperator && len(p.Params) == 2
}

// OperatorChar returns the operator character an operator prototype
// installs. Only meaningful when IsOperator is true.
func (p *Prototype) OperatorChar() rune {
	return rune(p.Name[len(p.Name)-1])
}

// Function pairs a prototype with the expression that computes its
// result. The anonymous wrapper the driver builds for a bare top-level
// expression is a Function like any other, named AnonName.
type Function struct {
	Proto *Prototype
	Body  Expr
}

// AnonName is the internal name given to the wrapper function synthesized
// for a top-level expression. It cannot collide with a user-defined name
// because the parser never lexes an identifier starting with "__".
const AnonName = "__anon_expr"
