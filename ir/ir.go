// Package ir defines the abstract code generation capabilities the
// codegen package depends on: enough of a native-code builder to lower
// this language's expressions, and nothing else. A concrete
// implementation binds these interfaces to a real backend; tests bind
// them to an in-memory recorder so the lowering logic can be checked
// without invoking any toolchain.
package ir

// Value is an opaque handle to a computed value within a module.
type Value interface{}

// Block is an opaque handle to a basic block within a function.
type Block interface{}

// Func is an opaque handle to a function within a module.
type Func interface{}

// Mod is an opaque handle to a code generation module.
type Mod interface{}

// Builder lowers expressions into instructions within a single
// function. Every arithmetic and comparison operation is on the
// language's sole scalar type, a 64-bit float; FCmpULT and FCmpONE
// return a 1-bit result that UIToFP widens back to that type.
type Builder interface {
	// SetBlock directs subsequent instructions at b.
	SetBlock(b Block)
	// Block returns the block instructions are currently appended to.
	Block() Block

	ConstFloat(f float64) Value

	FAdd(l, r Value, name string) Value
	FSub(l, r Value, name string) Value
	FMul(l, r Value, name string) Value
	FCmpULT(l, r Value, name string) Value
	FCmpONE(l, r Value, name string) Value
	UIToFP(v Value, name string) Value

	// Alloca reserves a stack cell in fn's entry block, regardless of
	// which block is currently selected.
	Alloca(fn Func, name string) Value
	Load(cell Value, name string) Value
	Store(val, cell Value)

	CondBr(cond Value, then, els Block)
	Br(target Block)

	// Phi creates an empty PHI node in the current block. Incoming
	// edges are added with AddIncoming once the predecessor blocks
	// are known.
	Phi(name string) Value
	AddIncoming(phi Value, val Value, from Block)

	Call(fn Value, args []Value, name string) Value
	Ret(v Value)
}

// Backend owns modules and the functions declared within them, and runs
// the function-level optimization passes once a definition is complete.
type Backend interface {
	NewModule(name string) Mod
	NewBuilder() Builder

	// DeclareFunction adds a function of the given arity (all
	// parameters and the result are the language's scalar type) with
	// external linkage, or returns the existing declaration if one by
	// this name is already present in m.
	DeclareFunction(m Mod, name string, arity int) Func
	// LookupFunction finds a function already declared in m.
	LookupFunction(m Mod, name string) (Func, bool)

	FuncValue(fn Func) Value
	Param(fn Func, i int) Value
	EntryBlock(fn Func) Block
	AppendBlock(fn Func, name string) Block

	// RunFunctionPasses runs the backend's function-level optimization
	// pipeline over fn's completed body.
	RunFunctionPasses(fn Func)
	// EraseFunction removes a function whose body failed to lower, so
	// a later, valid definition can reuse its name.
	EraseFunction(fn Func)
	// Dump renders fn's current instructions for diagnostics.
	Dump(fn Func) string
}
