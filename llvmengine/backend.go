// Package llvmengine is the only package in this module that imports
// tinygo.org/x/go-llvm directly. It implements both ir.Backend (native
// code generation) and jit.Host (lazy execution) against a single
// shared llvm.Context, the way the reference Kaleidoscope tutorial
// keeps its context, module and builder together.
package llvmengine

import (
	"fmt"

	"tinygo.org/x/go-llvm"

	"github.com/peterhuang621/MyLearnCompiler-LLVM-language-demo/ir"
)

// Backend is a native code generation backend backed by an LLVM
// context. A single Backend is shared across every module the driver
// creates over the lifetime of one REPL session, so declarations of
// the same external function line up bit-for-bit across modules.
type Backend struct {
	ctx llvm.Context
}

// NewBackend creates a fresh LLVM context to generate code in.
func NewBackend() *Backend {
	return &Backend{ctx: llvm.NewContext()}
}

// Context exposes the underlying LLVM context, for code outside this
// package that must agree with this backend's type layout.
func (b *Backend) Context() llvm.Context {
	return b.ctx
}

func (b *Backend) doubleType() llvm.Type {
	return b.ctx.DoubleType()
}

func (b *Backend) NewModule(name string) ir.Mod {
	m := b.ctx.NewModule(name)
	return m
}

func (b *Backend) NewBuilder() ir.Builder {
	return &Builder{ctx: b.ctx, b: b.ctx.NewBuilder()}
}

func (b *Backend) funcType(arity int) llvm.Type {
	params := make([]llvm.Type, arity)
	for i := range params {
		params[i] = b.doubleType()
	}
	return llvm.FunctionType(b.doubleType(), params, false)
}

func (b *Backend) DeclareFunction(m ir.Mod, name string, arity int) ir.Func {
	mod := m.(llvm.Module)
	if fn := mod.NamedFunction(name); !fn.IsNil() {
		return fn
	}
	fn := llvm.AddFunction(mod, name, b.funcType(arity))
	fn.SetLinkage(llvm.ExternalLinkage)
	for i := 0; i < arity; i++ {
		fn.Param(i).SetName(fmt.Sprintf("arg%d", i))
	}
	return fn
}

func (b *Backend) LookupFunction(m ir.Mod, name string) (ir.Func, bool) {
	mod := m.(llvm.Module)
	fn := mod.NamedFunction(name)
	if fn.IsNil() {
		return nil, false
	}
	return fn, true
}

func (b *Backend) FuncValue(fn ir.Func) ir.Value {
	return fn.(llvm.Value)
}

func (b *Backend) Param(fn ir.Func, i int) ir.Value {
	return fn.(llvm.Value).Param(i)
}

func (b *Backend) EntryBlock(fn ir.Func) ir.Block {
	f := fn.(llvm.Value)
	if f.EntryBasicBlock().IsNil() {
		return llvm.AddBasicBlock(f, "entry")
	}
	return f.EntryBasicBlock()
}

func (b *Backend) AppendBlock(fn ir.Func, name string) ir.Block {
	return llvm.AddBasicBlock(fn.(llvm.Value), name)
}

// RunFunctionPasses runs the same small function-level optimization
// pipeline the reference implementation runs after every definition:
// instruction combining, reassociation, common subexpression
// elimination and control-flow simplification.
func (b *Backend) RunFunctionPasses(fn ir.Func) {
	f := fn.(llvm.Value)
	mod := f.GlobalParent()
	fpm := llvm.NewFunctionPassManagerForModule(mod)
	defer fpm.Dispose()
	fpm.AddInstructionCombiningPass()
	fpm.AddReassociatePass()
	fpm.AddGVNPass()
	fpm.AddCFGSimplificationPass()
	fpm.InitializeFunc()
	fpm.RunFunc(f)
}

func (b *Backend) EraseFunction(fn ir.Func) {
	fn.(llvm.Value).EraseFromParentAsFunction()
}

func (b *Backend) Dump(fn ir.Func) string {
	return fn.(llvm.Value).String()
}

// Builder lowers instructions through an llvm.Builder. Alloca always
// targets the owning function's entry block, ahead of that block's
// existing instructions if any, so repeated allocas in the same
// function never invalidate the mem2reg-friendly "all allocas first"
// shape the optimizer expects.
type Builder struct {
	ctx llvm.Context
	b   llvm.Builder
}

func (bd *Builder) SetBlock(bl ir.Block) {
	bd.b.SetInsertPointAtEnd(bl.(llvm.BasicBlock))
}

func (bd *Builder) Block() ir.Block {
	return bd.b.GetInsertBlock()
}

func (bd *Builder) ConstFloat(f float64) ir.Value {
	return llvm.ConstFloat(bd.ctx.DoubleType(), f)
}

func (bd *Builder) FAdd(l, r ir.Value, name string) ir.Value {
	return bd.b.CreateFAdd(l.(llvm.Value), r.(llvm.Value), name)
}

func (bd *Builder) FSub(l, r ir.Value, name string) ir.Value {
	return bd.b.CreateFSub(l.(llvm.Value), r.(llvm.Value), name)
}

func (bd *Builder) FMul(l, r ir.Value, name string) ir.Value {
	return bd.b.CreateFMul(l.(llvm.Value), r.(llvm.Value), name)
}

func (bd *Builder) FCmpULT(l, r ir.Value, name string) ir.Value {
	return bd.b.CreateFCmp(llvm.FloatULT, l.(llvm.Value), r.(llvm.Value), name)
}

func (bd *Builder) FCmpONE(l, r ir.Value, name string) ir.Value {
	return bd.b.CreateFCmp(llvm.FloatONE, l.(llvm.Value), r.(llvm.Value), name)
}

func (bd *Builder) UIToFP(v ir.Value, name string) ir.Value {
	return bd.b.CreateUIToFP(v.(llvm.Value), bd.ctx.DoubleType(), name)
}

// Alloca inserts the alloca at the start of fn's entry block regardless
// of the block currently selected, then restores the previous
// insertion point.
func (bd *Builder) Alloca(fn ir.Func, name string) ir.Value {
	f := fn.(llvm.Value)
	entry := f.EntryBasicBlock()
	tmp := bd.ctx.NewBuilder()
	defer tmp.Dispose()
	if first := entry.FirstInstruction(); !first.IsNil() {
		tmp.SetInsertPoint(entry, first)
	} else {
		tmp.SetInsertPointAtEnd(entry)
	}
	return tmp.CreateAlloca(bd.ctx.DoubleType(), name)
}

func (bd *Builder) Load(cell ir.Value, name string) ir.Value {
	return bd.b.CreateLoad(bd.ctx.DoubleType(), cell.(llvm.Value), name)
}

func (bd *Builder) Store(val, cell ir.Value) {
	bd.b.CreateStore(val.(llvm.Value), cell.(llvm.Value))
}

func (bd *Builder) CondBr(cond ir.Value, then, els ir.Block) {
	bd.b.CreateCondBr(cond.(llvm.Value), then.(llvm.BasicBlock), els.(llvm.BasicBlock))
}

func (bd *Builder) Br(target ir.Block) {
	bd.b.CreateBr(target.(llvm.BasicBlock))
}

func (bd *Builder) Phi(name string) ir.Value {
	return bd.b.CreatePHI(bd.ctx.DoubleType(), name)
}

func (bd *Builder) AddIncoming(phi ir.Value, val ir.Value, from ir.Block) {
	p := phi.(llvm.Value)
	p.AddIncoming([]llvm.Value{val.(llvm.Value)}, []llvm.BasicBlock{from.(llvm.BasicBlock)})
}

func (bd *Builder) Call(fn ir.Value, args []ir.Value, name string) ir.Value {
	f := fn.(llvm.Value)
	llvmArgs := make([]llvm.Value, len(args))
	for i, a := range args {
		llvmArgs[i] = a.(llvm.Value)
	}
	return bd.b.CreateCall(f.GlobalValueType(), f, llvmArgs, name)
}

func (bd *Builder) Ret(v ir.Value) {
	bd.b.CreateRet(v.(llvm.Value))
}
