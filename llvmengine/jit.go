package llvmengine

import (
	"fmt"
	"unsafe"

	"tinygo.org/x/go-llvm"

	"github.com/peterhuang621/MyLearnCompiler-LLVM-language-demo/ir"
	"github.com/peterhuang621/MyLearnCompiler-LLVM-language-demo/jit"
)

// Host is a lazy execution engine over the backend's LLVM context. It
// mirrors the reference implementation's JIT: every module attached
// gets its externally visible symbols made available for lookup, and
// modules attached through AddTracked can be discarded as a unit once
// their one-shot top-level expression has run.
type Host struct {
	engine  llvm.ExecutionEngine
	doubles llvm.Type
}

// NewHost builds an execution engine over backend's context. Callers
// must have already run llvm.LinkInMCJIT and the native target
// initializers once at process startup.
func NewHost(backend *Backend, entry string) (*Host, error) {
	mod := backend.ctx.NewModule(entry)
	engine, err := llvm.NewExecutionEngine(mod)
	if err != nil {
		return nil, fmt.Errorf("jit: creating execution engine: %w", err)
	}
	return &Host{engine: engine, doubles: backend.ctx.DoubleType()}, nil
}

// tracker removes exactly the one module it was created for.
type tracker struct {
	host *Host
	mod  llvm.Module
}

func (t *tracker) Remove() error {
	return t.host.engine.RemoveModule(t.mod)
}

func (h *Host) AddTracked(m ir.Mod) (jit.Tracker, error) {
	mod := m.(llvm.Module)
	h.engine.AddModule(mod)
	return &tracker{host: h, mod: mod}, nil
}

func (h *Host) AddPermanent(m ir.Mod) error {
	h.engine.AddModule(m.(llvm.Module))
	return nil
}

func (h *Host) Lookup(name string) (func() float64, error) {
	fn := h.engine.FindFunction(name)
	if fn.IsNil() {
		return nil, fmt.Errorf("jit: no such symbol: %s", name)
	}
	return func() float64 {
		result := h.engine.RunFunction(fn, nil)
		return result.Float(h.doubles)
	}, nil
}

func (h *Host) DataLayout() string {
	return h.engine.TargetData().String()
}

// BindNative maps a declared-but-never-defined function to a native
// address, the way the reference implementation's host functions are
// found by the JIT's own process-symbol resolution. Unlike a symbol
// resolved by name, a global mapping survives even if the module that
// declared fn is later removed.
func (h *Host) BindNative(fn ir.Func, addr unsafe.Pointer) {
	h.engine.AddGlobalMapping(fn.(llvm.Value), addr)
}
