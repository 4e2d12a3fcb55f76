// Package jit defines the abstract JIT host capabilities the driver
// depends on: attaching a module for lazy compilation, either
// removably or permanently, and looking up a compiled symbol by name.
package jit

import "github.com/peterhuang621/MyLearnCompiler-LLVM-language-demo/ir"

// Tracker identifies a module attached to a host so its symbols can
// later be discarded as a unit, without disturbing anything attached
// before or after it.
type Tracker interface {
	// Remove discards every symbol the tracked module defined.
	Remove() error
}

// Host is the abstract JIT engine: it accepts modules, compiles their
// contents lazily on first reference, and resolves symbol names to
// callable addresses.
type Host interface {
	// AddTracked attaches m for lazy compilation under a fresh
	// Tracker, so it can be removed independently of every other
	// module attached to the host.
	AddTracked(m ir.Mod) (Tracker, error)
	// AddPermanent attaches m for lazy compilation with no tracker;
	// its symbols live for the lifetime of the host. Used for named
	// function definitions and the host functions the language always
	// provides — anything meant to stay callable indefinitely, as
	// opposed to a one-shot top-level expression's throwaway module.
	AddPermanent(m ir.Mod) error
	// Lookup resolves name to a callable nullary function returning
	// the language's scalar type, triggering compilation of whichever
	// attached module defines it if it hasn't run yet.
	Lookup(name string) (func() float64, error)
	// DataLayout returns the host's target data layout as a string,
	// for propagating into newly created modules so their generated
	// code is laid out compatibly with what the host will execute.
	DataLayout() string
}
