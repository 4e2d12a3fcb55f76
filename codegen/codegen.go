// Package codegen lowers this language's AST into instructions through
// the abstract ir.Backend/ir.Builder contract, maintaining the
// named-value scope and cross-module prototype registry the lowering
// rules depend on.
package codegen

import (
	"fmt"

	"github.com/peterhuang621/MyLearnCompiler-LLVM-language-demo/ast"
	"github.com/peterhuang621/MyLearnCompiler-LLVM-language-demo/ir"
	"github.com/peterhuang621/MyLearnCompiler-LLVM-language-demo/optable"
)

// Generator walks one function body at a time, emitting through a
// backend-supplied builder into whatever module Reset last selected.
type Generator struct {
	be     ir.Backend
	b      ir.Builder
	mod    ir.Mod
	protos *ProtoRegistry
	ops    *optable.Table
	scope  Scope
}

// New builds a Generator sharing protos and ops with the parser and
// driver that use them.
func New(be ir.Backend, protos *ProtoRegistry, ops *optable.Table) *Generator {
	return &Generator{be: be, protos: protos, ops: ops}
}

// Reset points the generator at a fresh, empty module. Every top-level
// item gets its own module so the JIT can discard a failed or
// superseded one without disturbing the rest.
func (g *Generator) Reset(moduleName string) {
	g.mod = g.be.NewModule(moduleName)
	g.b = g.be.NewBuilder()
}

// Module returns the module currently being filled in.
func (g *Generator) Module() ir.Mod {
	return g.mod
}

// Dump renders fn's instructions for diagnostics, e.g. the driver's
// "Read function definition:"/"Read extern:" echo.
func (g *Generator) Dump(fn ir.Func) string {
	return g.be.Dump(fn)
}

// ResolveError is returned when lowering fails to resolve a name: an
// unbound variable, an undeclared function or operator, or a call with
// the wrong number of arguments. The driver reports these under the
// language's ResolveError kind rather than as a generic codegen
// failure.
type ResolveError struct {
	Msg string
}

func (e *ResolveError) Error() string { return e.Msg }

// LowerPrototype declares p in the current module and registers it.
// Used for extern declarations, which have no body to lower.
//
// Re-declaring a name already in the registry is only accepted when
// the arity matches; a mismatch is rejected without disturbing the
// existing registration.
func (g *Generator) LowerPrototype(p *ast.Prototype) (ir.Func, error) {
	if prev, ok := g.protos.Lookup(p.Name); ok && len(prev.Params) != len(p.Params) {
		return nil, fmt.Errorf("redefinition of %s with different number of args (previously %d, now %d)",
			p.Name, len(prev.Params), len(p.Params))
	}
	fn := g.be.DeclareFunction(g.mod, p.Name, len(p.Params))
	g.protos.Register(p)
	return fn, nil
}

// LowerFunction emits fn's body into a fresh definition in the current
// module. If lowering fails, the partial function is erased and any
// operator it was installing is rolled back, so a later, corrected
// definition can be tried.
func (g *Generator) LowerFunction(fn *ast.Function) (ir.Func, error) {
	proto := fn.Proto
	g.protos.Register(proto)

	f, err := g.getFunction(proto.Name)
	if err != nil {
		return nil, err
	}
	if proto.IsBinaryOp() {
		g.ops.Install(proto.OperatorChar(), proto.Precedence)
	}

	entry := g.be.EntryBlock(f)
	g.b.SetBlock(entry)
	g.scope.Reset()
	for i, name := range proto.Params {
		cell := g.b.Alloca(f, name)
		g.b.Store(g.be.Param(f, i), cell)
		g.scope.Push(name, cell)
	}

	ret, err := g.lowerExpr(f, fn.Body)
	if err != nil {
		g.be.EraseFunction(f)
		if proto.IsBinaryOp() {
			g.ops.Remove(proto.OperatorChar())
		}
		return nil, err
	}
	g.b.Ret(ret)
	g.be.RunFunctionPasses(f)
	return f, nil
}

// getFunction returns fn's declaration in the current module,
// re-declaring it lazily from the prototype registry if the current
// module has never seen this name before.
func (g *Generator) getFunction(name string) (ir.Func, error) {
	if f, ok := g.be.LookupFunction(g.mod, name); ok {
		return f, nil
	}
	if p, ok := g.protos.Lookup(name); ok {
		return g.be.DeclareFunction(g.mod, p.Name, len(p.Params)), nil
	}
	return nil, &ResolveError{Msg: fmt.Sprintf("unknown function referenced: %s", name)}
}

func (g *Generator) lowerExpr(f ir.Func, e ast.Expr) (ir.Value, error) {
	switch n := e.(type) {
	case *ast.NumberExpr:
		return g.b.ConstFloat(n.Val), nil
	case *ast.VariableExpr:
		cell, ok := g.scope.Lookup(n.Name)
		if !ok {
			return nil, &ResolveError{Msg: fmt.Sprintf("unknown variable name: %s", n.Name)}
		}
		return g.b.Load(cell, n.Name), nil
	case *ast.UnaryExpr:
		return g.lowerUnary(f, n)
	case *ast.BinaryExpr:
		return g.lowerBinary(f, n)
	case *ast.CallExpr:
		return g.lowerCall(f, n)
	case *ast.IfExpr:
		return g.lowerIf(f, n)
	case *ast.ForExpr:
		return g.lowerFor(f, n)
	case *ast.VarExpr:
		return g.lowerVar(f, n)
	default:
		return nil, fmt.Errorf("codegen: unhandled expression type %T", e)
	}
}

func (g *Generator) lowerUnary(f ir.Func, n *ast.UnaryExpr) (ir.Value, error) {
	operand, err := g.lowerExpr(f, n.Operand)
	if err != nil {
		return nil, err
	}
	fn, err := g.getFunction("unary" + string(n.Op))
	if err != nil {
		return nil, &ResolveError{Msg: fmt.Sprintf("unknown unary operator: %c", n.Op)}
	}
	return g.b.Call(g.be.FuncValue(fn), []ir.Value{operand}, "unop"), nil
}

func (g *Generator) lowerBinary(f ir.Func, n *ast.BinaryExpr) (ir.Value, error) {
	if n.Op == '=' {
		lhs, ok := n.LHS.(*ast.VariableExpr)
		if !ok {
			return nil, fmt.Errorf("destination of '=' must be a variable")
		}
		val, err := g.lowerExpr(f, n.RHS)
		if err != nil {
			return nil, err
		}
		cell, ok := g.scope.Lookup(lhs.Name)
		if !ok {
			return nil, &ResolveError{Msg: fmt.Sprintf("unknown variable name: %s", lhs.Name)}
		}
		g.b.Store(val, cell)
		return val, nil
	}

	l, err := g.lowerExpr(f, n.LHS)
	if err != nil {
		return nil, err
	}
	r, err := g.lowerExpr(f, n.RHS)
	if err != nil {
		return nil, err
	}
	switch n.Op {
	case '+':
		return g.b.FAdd(l, r, "addtmp"), nil
	case '-':
		return g.b.FSub(l, r, "subtmp"), nil
	case '*':
		return g.b.FMul(l, r, "multmp"), nil
	case '<':
		cmp := g.b.FCmpULT(l, r, "cmptmp")
		return g.b.UIToFP(cmp, "booltmp"), nil
	}

	fn, err := g.getFunction("binary" + string(n.Op))
	if err != nil {
		return nil, &ResolveError{Msg: fmt.Sprintf("unknown binary operator: %c", n.Op)}
	}
	return g.b.Call(g.be.FuncValue(fn), []ir.Value{l, r}, "binop"), nil
}

func (g *Generator) lowerCall(f ir.Func, n *ast.CallExpr) (ir.Value, error) {
	fn, err := g.getFunction(n.Callee)
	if err != nil {
		return nil, &ResolveError{Msg: fmt.Sprintf("unknown function referenced: %s", n.Callee)}
	}
	if proto, ok := g.protos.Lookup(n.Callee); ok && len(proto.Params) != len(n.Args) {
		return nil, &ResolveError{Msg: fmt.Sprintf("incorrect number of arguments passed to %s", n.Callee)}
	}
	args := make([]ir.Value, len(n.Args))
	for i, a := range n.Args {
		v, err := g.lowerExpr(f, a)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	return g.b.Call(g.be.FuncValue(fn), args, "calltmp"), nil
}

func (g *Generator) lowerIf(f ir.Func, n *ast.IfExpr) (ir.Value, error) {
	condV, err := g.lowerExpr(f, n.Cond)
	if err != nil {
		return nil, err
	}
	cond := g.b.FCmpONE(condV, g.b.ConstFloat(0), "ifcond")

	thenBB := g.be.AppendBlock(f, "then")
	elseBB := g.be.AppendBlock(f, "else")
	mergeBB := g.be.AppendBlock(f, "ifcont")
	g.b.CondBr(cond, thenBB, elseBB)

	g.b.SetBlock(thenBB)
	thenV, err := g.lowerExpr(f, n.Then)
	if err != nil {
		return nil, err
	}
	g.b.Br(mergeBB)
	thenEnd := g.b.Block()

	g.b.SetBlock(elseBB)
	elseV, err := g.lowerExpr(f, n.Else)
	if err != nil {
		return nil, err
	}
	g.b.Br(mergeBB)
	elseEnd := g.b.Block()

	g.b.SetBlock(mergeBB)
	phi := g.b.Phi("iftmp")
	g.b.AddIncoming(phi, thenV, thenEnd)
	g.b.AddIncoming(phi, elseV, elseEnd)
	return phi, nil
}

// lowerFor tests the end condition before every execution of Body,
// using whatever value the counter holds at that point, so
// "for i = 1, i < 5 in ..." runs Body for i = 1, 2, 3, 4 and stops the
// moment the test sees i = 5.
func (g *Generator) lowerFor(f ir.Func, n *ast.ForExpr) (ir.Value, error) {
	cell := g.b.Alloca(f, n.Var)
	startV, err := g.lowerExpr(f, n.Start)
	if err != nil {
		return nil, err
	}
	g.b.Store(startV, cell)

	mark := g.scope.Mark()
	g.scope.Push(n.Var, cell)

	condBB := g.be.AppendBlock(f, "loopcond")
	bodyBB := g.be.AppendBlock(f, "loop")
	afterBB := g.be.AppendBlock(f, "afterloop")
	g.b.Br(condBB)

	g.b.SetBlock(condBB)
	endV, err := g.lowerExpr(f, n.End)
	if err != nil {
		g.scope.Restore(mark)
		return nil, err
	}
	cond := g.b.FCmpONE(endV, g.b.ConstFloat(0), "loopcond")
	g.b.CondBr(cond, bodyBB, afterBB)

	g.b.SetBlock(bodyBB)
	if _, err := g.lowerExpr(f, n.Body); err != nil {
		g.scope.Restore(mark)
		return nil, err
	}

	var stepV ir.Value
	if n.Step != nil {
		stepV, err = g.lowerExpr(f, n.Step)
		if err != nil {
			g.scope.Restore(mark)
			return nil, err
		}
	} else {
		stepV = g.b.ConstFloat(1)
	}
	cur := g.b.Load(cell, n.Var)
	next := g.b.FAdd(cur, stepV, "nextvar")
	g.b.Store(next, cell)
	g.b.Br(condBB)

	g.b.SetBlock(afterBB)
	g.scope.Restore(mark)
	return g.b.ConstFloat(0), nil
}

func (g *Generator) lowerVar(f ir.Func, n *ast.VarExpr) (ir.Value, error) {
	mark := g.scope.Mark()
	for _, bind := range n.Bindings {
		var initV ir.Value
		if bind.Init != nil {
			v, err := g.lowerExpr(f, bind.Init)
			if err != nil {
				g.scope.Restore(mark)
				return nil, err
			}
			initV = v
		} else {
			initV = g.b.ConstFloat(0)
		}
		cell := g.b.Alloca(f, bind.Name)
		g.b.Store(initV, cell)
		g.scope.Push(bind.Name, cell)
	}

	body, err := g.lowerExpr(f, n.Body)
	g.scope.Restore(mark)
	if err != nil {
		return nil, err
	}
	return body, nil
}
