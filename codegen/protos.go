package codegen

import "github.com/peterhuang621/MyLearnCompiler-LLVM-language-demo/ast"

// ProtoRegistry remembers the most recently seen prototype for each
// function name, independent of which module last declared it. It is
// what lets a call to a function defined later, or in an earlier
// module whose declaration has since been discarded, be re-declared
// lazily in whatever module is current.
type ProtoRegistry struct {
	protos map[string]*ast.Prototype
}

// NewProtoRegistry returns an empty registry.
func NewProtoRegistry() *ProtoRegistry {
	return &ProtoRegistry{protos: map[string]*ast.Prototype{}}
}

// Register records p, superseding any previous prototype under the
// same name.
func (r *ProtoRegistry) Register(p *ast.Prototype) {
	r.protos[p.Name] = p
}

// Lookup finds the prototype most recently registered under name.
func (r *ProtoRegistry) Lookup(name string) (*ast.Prototype, bool) {
	p, ok := r.protos[name]
	return p, ok
}
