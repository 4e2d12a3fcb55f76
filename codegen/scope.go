package codegen

import "github.com/peterhuang621/MyLearnCompiler-LLVM-language-demo/ir"

type binding struct {
	name string
	cell ir.Value
}

// Scope is the named-value environment for the function currently being
// lowered. Later bindings of the same name shadow earlier ones; Restore
// undoes every binding pushed since the corresponding Mark, so nested
// For/Var scopes see exactly the bindings their enclosing scope had
// before they leave.
type Scope struct {
	b []binding
}

// Lookup finds the innermost binding for name.
func (s *Scope) Lookup(name string) (ir.Value, bool) {
	for i := len(s.b) - 1; i >= 0; i-- {
		if s.b[i].name == name {
			return s.b[i].cell, true
		}
	}
	return nil, false
}

// Push introduces a new binding, shadowing any existing one for name.
func (s *Scope) Push(name string, cell ir.Value) {
	s.b = append(s.b, binding{name, cell})
}

// Mark returns a token identifying the current top of scope.
func (s *Scope) Mark() int {
	return len(s.b)
}

// Restore drops every binding pushed since mark.
func (s *Scope) Restore(mark int) {
	s.b = s.b[:mark]
}

// Reset clears the scope entirely, for the start of a new function.
func (s *Scope) Reset() {
	s.b = s.b[:0]
}
