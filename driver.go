package kaleido

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/peterhuang621/MyLearnCompiler-LLVM-language-demo/ast"
	"github.com/peterhuang621/MyLearnCompiler-LLVM-language-demo/codegen"
	"github.com/peterhuang621/MyLearnCompiler-LLVM-language-demo/jit"
	"github.com/peterhuang621/MyLearnCompiler-LLVM-language-demo/optable"
)

// Option configures a Driver at construction time.
type Option func(*Driver)

// WithOutput redirects the "Read function definition:"/"Read
// extern:"/"Evaluated to" lines written after each top-level item.
func WithOutput(w io.Writer) Option {
	return func(d *Driver) { d.out = w }
}

// WithPrompt redirects the "ready> " prompt written before each read.
func WithPrompt(w io.Writer) Option {
	return func(d *Driver) { d.prompt = w }
}

// WithPromptText overrides the default "ready> " prompt string.
func WithPromptText(s string) Option {
	return func(d *Driver) { d.promptText = s }
}

// Driver ties a lexer/parser front end to a code generator and JIT
// host, and implements the read-compile-run loop described by the
// external interface: a "ready> " prompt, a diagnostic line for each
// successfully read definition or extern, and the result of running
// each top-level expression.
type Driver struct {
	parser *Parser
	ops    *optable.Table
	gen    *codegen.Generator
	host   jit.Host

	moduleSeq int

	out        io.Writer
	prompt     io.Writer
	promptText string
}

// NewDriver wires lex through a Parser sharing ops with gen,
// and gen's backend with host. gen and host must share the same
// underlying native code representation (see llvmengine.Backend and
// llvmengine.Host).
func NewDriver(lex *Lexer, ops *optable.Table, gen *codegen.Generator, host jit.Host, opts ...Option) *Driver {
	d := &Driver{
		parser:     NewParser(lex, ops),
		ops:        ops,
		gen:        gen,
		host:       host,
		out:        os.Stdout,
		prompt:     os.Stderr,
		promptText: "ready> ",
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// RunOnce reads and processes exactly one top-level item, printing the
// prompt first. It reports io.EOF once the input is exhausted.
func (d *Driver) RunOnce() error {
	fmt.Fprint(d.prompt, d.promptText)
	return d.dispatch()
}

// Run repeatedly calls RunOnce until the input is exhausted.
func (d *Driver) Run() {
	for {
		if err := d.RunOnce(); err == io.EOF {
			return
		}
	}
}

// dispatch implements the top-level loop from the reference
// implementation's MainLoop: skip stray ';' tokens silently, stop at
// EOF, and otherwise hand the token to the definition, extern, or
// bare-expression handler.
func (d *Driver) dispatch() error {
	switch d.parser.Current().Kind {
	case EOF:
		return io.EOF
	case Op:
		if d.parser.Current().Op == ';' {
			d.parser.SkipToken()
			return nil
		}
		d.handleTopLevelExpression()
		return nil
	case Def:
		d.handleDefinition()
		return nil
	case Extern:
		d.handleExtern()
		return nil
	default:
		d.handleTopLevelExpression()
		return nil
	}
}

func (d *Driver) reportError(err error) {
	fmt.Fprintf(d.out, "Error: %s\n", err)
}

// classifyCodegenError sorts a lowering failure into this package's
// error taxonomy: a codegen.ResolveError becomes a ResolveError (an
// unbound name or a mismatched argument count), anything else becomes
// a generic CodegenFailure.
func classifyCodegenError(err error) error {
	var resolveErr *codegen.ResolveError
	if errors.As(err, &resolveErr) {
		return &ResolveError{Msg: resolveErr.Msg}
	}
	return &CodegenFailure{Msg: err.Error()}
}

// resyncOnError advances past whatever token a failed parse stalled
// on, so the next call to dispatch makes progress instead of looping
// on the same token forever.
func (d *Driver) resyncOnError() {
	if d.parser.Current().Kind != EOF {
		d.parser.SkipToken()
	}
}

func (d *Driver) handleDefinition() {
	fn, err := d.parser.ParseDefinition()
	if err != nil {
		d.reportError(err)
		d.resyncOnError()
		return
	}

	d.moduleSeq++
	d.gen.Reset(fmt.Sprintf("module%d", d.moduleSeq))
	fnIR, err := d.gen.LowerFunction(fn)
	if err != nil {
		d.reportError(classifyCodegenError(err))
		return
	}
	fmt.Fprintln(d.out, "Read function definition:")
	fmt.Fprintln(d.out, d.gen.Dump(fnIR))
	fmt.Fprintln(d.out)

	if err := d.host.AddPermanent(d.gen.Module()); err != nil {
		panic(fmt.Errorf("kaleido: attaching module to JIT: %w", err))
	}
}

func (d *Driver) handleExtern() {
	proto, err := d.parser.ParseExtern()
	if err != nil {
		d.reportError(err)
		d.resyncOnError()
		return
	}

	d.moduleSeq++
	d.gen.Reset(fmt.Sprintf("module%d", d.moduleSeq))
	protoIR, err := d.gen.LowerPrototype(proto)
	if err != nil {
		d.reportError(classifyCodegenError(err))
		return
	}
	fmt.Fprintln(d.out, "Read extern:")
	fmt.Fprintln(d.out, d.gen.Dump(protoIR))
	fmt.Fprintln(d.out)
}

func (d *Driver) handleTopLevelExpression() {
	fn, err := d.parser.ParseTopLevelExpr()
	if err != nil {
		d.reportError(err)
		d.resyncOnError()
		return
	}

	d.moduleSeq++
	d.gen.Reset(fmt.Sprintf("module%d", d.moduleSeq))
	if _, err := d.gen.LowerFunction(fn); err != nil {
		d.reportError(classifyCodegenError(err))
		return
	}

	tracker, err := d.host.AddTracked(d.gen.Module())
	if err != nil {
		panic(fmt.Errorf("kaleido: attaching module to JIT: %w", err))
	}
	defer tracker.Remove()

	run, err := d.host.Lookup(ast.AnonName)
	if err != nil {
		panic(fmt.Errorf("kaleido: looking up compiled expression: %w", err))
	}
	fmt.Fprintf(d.out, "Evaluated to %f\n", run())
}
