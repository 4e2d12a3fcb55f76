package codegen_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peterhuang621/MyLearnCompiler-LLVM-language-demo/ast"
	"github.com/peterhuang621/MyLearnCompiler-LLVM-language-demo/codegen"
	"github.com/peterhuang621/MyLearnCompiler-LLVM-language-demo/ir"
	"github.com/peterhuang621/MyLearnCompiler-LLVM-language-demo/optable"
)

// spyBackend is a recording, non-executing implementation of ir.Backend
// used to verify the exact instruction sequences the generator emits
// without depending on any real code generation toolchain.
type spyBackend struct {
	trace     []string
	declared  map[string]bool
	erased    map[string]bool
	valSeq    int
	blockSeq  int
}

func newSpy() *spyBackend {
	return &spyBackend{declared: map[string]bool{}, erased: map[string]bool{}}
}

func (s *spyBackend) log(format string, args ...interface{}) {
	s.trace = append(s.trace, fmt.Sprintf(format, args...))
}

func (s *spyBackend) NewModule(name string) ir.Mod {
	s.log("module %s", name)
	return name
}

func (s *spyBackend) NewBuilder() ir.Builder { return &spyBuilder{s: s} }

func (s *spyBackend) key(m ir.Mod, name string) string {
	return fmt.Sprintf("%v/%s", m, name)
}

func (s *spyBackend) DeclareFunction(m ir.Mod, name string, arity int) ir.Func {
	k := s.key(m, name)
	s.declared[k] = true
	delete(s.erased, k)
	s.log("declare %s arity=%d", k, arity)
	return k
}

func (s *spyBackend) LookupFunction(m ir.Mod, name string) (ir.Func, bool) {
	k := s.key(m, name)
	if s.declared[k] && !s.erased[k] {
		return k, true
	}
	return nil, false
}

func (s *spyBackend) FuncValue(fn ir.Func) ir.Value { return fn }
func (s *spyBackend) Param(fn ir.Func, i int) ir.Value {
	return fmt.Sprintf("%v#param%d", fn, i)
}
func (s *spyBackend) EntryBlock(fn ir.Func) ir.Block {
	return fmt.Sprintf("%v#entry", fn)
}
func (s *spyBackend) AppendBlock(fn ir.Func, name string) ir.Block {
	s.blockSeq++
	b := fmt.Sprintf("%v#%s.%d", fn, name, s.blockSeq)
	s.log("block %s", b)
	return b
}
func (s *spyBackend) RunFunctionPasses(fn ir.Func) { s.log("optimize %v", fn) }
func (s *spyBackend) EraseFunction(fn ir.Func) {
	s.erased[fmt.Sprint(fn)] = true
	s.log("erase %v", fn)
}
func (s *spyBackend) Dump(fn ir.Func) string { return fmt.Sprint(fn) }

type spyBuilder struct {
	s   *spyBackend
	cur ir.Block
}

func (b *spyBuilder) SetBlock(bl ir.Block) { b.cur = bl }
func (b *spyBuilder) Block() ir.Block      { return b.cur }

func (b *spyBuilder) ConstFloat(f float64) ir.Value { return fmt.Sprintf("const(%v)", f) }

func (b *spyBuilder) binop(kind string, l, r ir.Value, name string) ir.Value {
	b.s.valSeq++
	v := fmt.Sprintf("%s.%d", name, b.s.valSeq)
	b.s.log("%s %v %v -> %s", kind, l, r, v)
	return v
}

func (b *spyBuilder) FAdd(l, r ir.Value, name string) ir.Value    { return b.binop("fadd", l, r, name) }
func (b *spyBuilder) FSub(l, r ir.Value, name string) ir.Value    { return b.binop("fsub", l, r, name) }
func (b *spyBuilder) FMul(l, r ir.Value, name string) ir.Value    { return b.binop("fmul", l, r, name) }
func (b *spyBuilder) FCmpULT(l, r ir.Value, name string) ir.Value { return b.binop("fcmpult", l, r, name) }
func (b *spyBuilder) FCmpONE(l, r ir.Value, name string) ir.Value { return b.binop("fcmpone", l, r, name) }

func (b *spyBuilder) UIToFP(v ir.Value, name string) ir.Value {
	b.s.valSeq++
	out := fmt.Sprintf("%s.%d", name, b.s.valSeq)
	b.s.log("uitofp %v -> %s", v, out)
	return out
}

func (b *spyBuilder) Alloca(fn ir.Func, name string) ir.Value {
	b.s.valSeq++
	cell := fmt.Sprintf("cell.%d:%s", b.s.valSeq, name)
	b.s.log("alloca %s", cell)
	return cell
}

func (b *spyBuilder) Load(cell ir.Value, name string) ir.Value {
	b.s.valSeq++
	v := fmt.Sprintf("%s.%d", name, b.s.valSeq)
	b.s.log("load %v -> %s", cell, v)
	return v
}

func (b *spyBuilder) Store(val, cell ir.Value) {
	b.s.log("store %v -> %v", val, cell)
}

func (b *spyBuilder) CondBr(cond ir.Value, then, els ir.Block) {
	b.s.log("condbr %v ? %v : %v", cond, then, els)
}

func (b *spyBuilder) Br(target ir.Block) {
	b.s.log("br %v", target)
}

func (b *spyBuilder) Phi(name string) ir.Value {
	b.s.valSeq++
	v := fmt.Sprintf("%s.%d", name, b.s.valSeq)
	b.s.log("phi %s", v)
	return v
}

func (b *spyBuilder) AddIncoming(phi ir.Value, val ir.Value, from ir.Block) {
	b.s.log("incoming %v <- %v from %v", phi, val, from)
}

func (b *spyBuilder) Call(fn ir.Value, args []ir.Value, name string) ir.Value {
	b.s.valSeq++
	v := fmt.Sprintf("%s.%d", name, b.s.valSeq)
	b.s.log("call %v(%v) -> %s", fn, args, v)
	return v
}

func (b *spyBuilder) Ret(v ir.Value) {
	b.s.log("ret %v", v)
}

func countPrefix(trace []string, prefix string) int {
	n := 0
	for _, t := range trace {
		if strings.HasPrefix(t, prefix) {
			n++
		}
	}
	return n
}

func TestLowerFunctionArithmetic(t *testing.T) {
	be := newSpy()
	gen := codegen.New(be, codegen.NewProtoRegistry(), optable.New())
	gen.Reset("mod0")

	fn := &ast.Function{
		Proto: &ast.Prototype{Name: "add", Params: []string{"a", "b"}},
		Body:  &ast.BinaryExpr{Op: '+', LHS: &ast.VariableExpr{Name: "a"}, RHS: &ast.VariableExpr{Name: "b"}},
	}
	_, err := gen.LowerFunction(fn)
	require.NoError(t, err)

	assert.Equal(t, 1, countPrefix(be.trace, "fadd"))
	assert.Equal(t, 1, countPrefix(be.trace, "optimize"))
	assert.Equal(t, 0, countPrefix(be.trace, "erase"))
}

func TestLowerFunctionUnknownVariableRollsBackDeclaration(t *testing.T) {
	be := newSpy()
	gen := codegen.New(be, codegen.NewProtoRegistry(), optable.New())
	gen.Reset("mod0")

	fn := &ast.Function{
		Proto: &ast.Prototype{Name: "bad", Params: []string{"a"}},
		Body:  &ast.VariableExpr{Name: "nope"},
	}
	_, err := gen.LowerFunction(fn)
	require.Error(t, err)
	assert.Equal(t, 1, countPrefix(be.trace, "erase"))

	_, ok := be.LookupFunction("mod0", "bad")
	assert.False(t, ok)
}

func TestLowerFunctionIfBuildsPhiWithTwoIncoming(t *testing.T) {
	be := newSpy()
	gen := codegen.New(be, codegen.NewProtoRegistry(), optable.New())
	gen.Reset("mod0")

	fn := &ast.Function{
		Proto: &ast.Prototype{Name: "choose"},
		Body: &ast.IfExpr{
			Cond: &ast.NumberExpr{Val: 1},
			Then: &ast.NumberExpr{Val: 2},
			Else: &ast.NumberExpr{Val: 3},
		},
	}
	_, err := gen.LowerFunction(fn)
	require.NoError(t, err)

	assert.Equal(t, 3, countPrefix(be.trace, "block"))
	assert.Equal(t, 1, countPrefix(be.trace, "condbr"))
	assert.Equal(t, 1, countPrefix(be.trace, "phi"))
	assert.Equal(t, 2, countPrefix(be.trace, "incoming"))
}

func TestLowerFunctionBinaryOperatorInstallsAndRollsBackPrecedence(t *testing.T) {
	be := newSpy()
	ops := optable.New()
	gen := codegen.New(be, codegen.NewProtoRegistry(), ops)
	gen.Reset("mod0")

	ok := &ast.Function{
		Proto: &ast.Prototype{Name: "binary|", Params: []string{"a", "b"}, IsOperator: true, Precedence: 5},
		Body:  &ast.NumberExpr{Val: 1},
	}
	_, err := gen.LowerFunction(ok)
	require.NoError(t, err)
	assert.Equal(t, 5, ops.Precedence('|'))

	gen.Reset("mod1")
	bad := &ast.Function{
		Proto: &ast.Prototype{Name: "binary$", Params: []string{"a", "b"}, IsOperator: true, Precedence: 5},
		Body:  &ast.VariableExpr{Name: "nope"},
	}
	_, err = gen.LowerFunction(bad)
	require.Error(t, err)
	assert.Equal(t, -1, ops.Precedence('$'))
}

func TestLowerForRestoresOuterBinding(t *testing.T) {
	be := newSpy()
	gen := codegen.New(be, codegen.NewProtoRegistry(), optable.New())
	gen.Reset("mod0")

	// var i = 99 in (for i = 0, i in i) + i
	// modelled directly as a Var wrapping a Binary '+' that uses the
	// outer i both before and after the shadowing for-loop.
	fn := &ast.Function{
		Proto: &ast.Prototype{Name: "shadow"},
		Body: &ast.VarExpr{
			Bindings: []ast.VarBinding{{Name: "i", Init: &ast.NumberExpr{Val: 99}}},
			Body: &ast.BinaryExpr{
				Op: '+',
				LHS: &ast.ForExpr{
					Var:   "i",
					Start: &ast.NumberExpr{Val: 0},
					End:   &ast.VariableExpr{Name: "i"},
					Body:  &ast.VariableExpr{Name: "i"},
				},
				RHS: &ast.VariableExpr{Name: "i"},
			},
		},
	}
	_, err := gen.LowerFunction(fn)
	require.NoError(t, err)

	var allocaCells []string
	for _, line := range be.trace {
		if strings.HasPrefix(line, "alloca ") {
			allocaCells = append(allocaCells, strings.TrimPrefix(line, "alloca "))
		}
	}
	require.Len(t, allocaCells, 2, "expected one alloca for the var binding and one for the loop counter")
	outerCell := allocaCells[0]

	var lastLoad string
	for _, line := range be.trace {
		if strings.HasPrefix(line, "load ") {
			lastLoad = line
		}
	}
	assert.True(t, strings.Contains(lastLoad, outerCell),
		"the final load after the for-loop should read the outer binding's cell, got: %s", lastLoad)
}

// TestLowerForTestsConditionBeforeBody guards the boundary invariant
// that "for i = 1, i < 5 in ..." runs its body four times, not five:
// the end condition must be evaluated in its own block, reached before
// the body block on every pass, rather than checked only after an
// unconditional first execution.
func TestLowerForTestsConditionBeforeBody(t *testing.T) {
	be := newSpy()
	gen := codegen.New(be, codegen.NewProtoRegistry(), optable.New())
	gen.Reset("mod0")

	fn := &ast.Function{
		Proto: &ast.Prototype{Name: "count"},
		Body: &ast.ForExpr{
			Var:   "i",
			Start: &ast.NumberExpr{Val: 1},
			End:   &ast.BinaryExpr{Op: '<', LHS: &ast.VariableExpr{Name: "i"}, RHS: &ast.NumberExpr{Val: 5}},
			Body:  &ast.VariableExpr{Name: "i"},
		},
	}
	_, err := gen.LowerFunction(fn)
	require.NoError(t, err)

	var condBlock, bodyBlock, afterBlock string
	for _, line := range be.trace {
		if !strings.HasPrefix(line, "block ") {
			continue
		}
		switch {
		case strings.Contains(line, "#loopcond."):
			condBlock = strings.TrimPrefix(line, "block ")
		case strings.Contains(line, "#loop."):
			bodyBlock = strings.TrimPrefix(line, "block ")
		case strings.Contains(line, "#afterloop."):
			afterBlock = strings.TrimPrefix(line, "block ")
		}
	}
	require.NotEmpty(t, condBlock)
	require.NotEmpty(t, bodyBlock)
	require.NotEmpty(t, afterBlock)

	require.Equal(t, 1, countPrefix(be.trace, "condbr"))
	var condbrLine string
	for _, line := range be.trace {
		if strings.HasPrefix(line, "condbr") {
			condbrLine = line
		}
	}
	assert.True(t, strings.Contains(condbrLine, bodyBlock) && strings.Contains(condbrLine, afterBlock),
		"the loop's only branch decision must choose between the body and after blocks, got: %s", condbrLine)

	// The end condition reads i and compares it exactly once before the
	// branch decision; the body's own read of i (plus the increment's
	// read) only happen once the branch has chosen the body block,
	// proving the test runs before that pass's body rather than after it.
	var fcmpultIdx, condbrIdx = -1, -1
	loadsBeforeBranch, loadsAfterBranch := 0, 0
	for i, line := range be.trace {
		if fcmpultIdx == -1 && strings.HasPrefix(line, "fcmpult") {
			fcmpultIdx = i
		}
		if condbrIdx == -1 && strings.HasPrefix(line, "condbr") {
			condbrIdx = i
		}
		if strings.HasPrefix(line, "load") {
			if condbrIdx == -1 {
				loadsBeforeBranch++
			} else {
				loadsAfterBranch++
			}
		}
	}
	require.True(t, fcmpultIdx >= 0 && condbrIdx >= 0)
	assert.Less(t, fcmpultIdx, condbrIdx, "the end condition must be evaluated before the branch decision")
	assert.Equal(t, 1, loadsBeforeBranch, "only the end condition's own read of i should happen before the branch")
	assert.Greater(t, loadsAfterBranch, 0, "the body must still read i after the branch has picked the body block")
}
