// Command kaleido is the read-compile-run front end for the kaleido
// language: an interactive, readline-backed REPL, optionally preceded
// by one or more files loaded and run before the prompt takes over.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/bobappleyard/readline"

	"tinygo.org/x/go-llvm"

	kaleido "github.com/peterhuang621/MyLearnCompiler-LLVM-language-demo"
	"github.com/peterhuang621/MyLearnCompiler-LLVM-language-demo/ast"
	"github.com/peterhuang621/MyLearnCompiler-LLVM-language-demo/codegen"
	"github.com/peterhuang621/MyLearnCompiler-LLVM-language-demo/host"
	"github.com/peterhuang621/MyLearnCompiler-LLVM-language-demo/lex"
	"github.com/peterhuang621/MyLearnCompiler-LLVM-language-demo/llvmengine"
	"github.com/peterhuang621/MyLearnCompiler-LLVM-language-demo/optable"
)

// fileList collects every occurrence of a repeatable -load flag.
type fileList []string

func (f *fileList) String() string { return strings.Join(*f, ",") }
func (f *fileList) Set(v string) error {
	*f = append(*f, v)
	return nil
}

func main() {
	var loadFiles fileList
	flag.Var(&loadFiles, "load", "file to load and run before the interactive prompt starts; may be repeated")
	quiet := flag.Bool("q", false, "suppress the ready> prompt and the per-item echo, for piped scripts")
	flag.Parse()

	llvm.LinkInMCJIT()
	llvm.InitializeNativeTarget()
	llvm.InitializeNativeAsmPrinter()

	backend := llvmengine.NewBackend()
	jitHost, err := llvmengine.NewHost(backend, "kaleido")
	if err != nil {
		fmt.Fprintf(os.Stderr, "kaleido: %s\n", err)
		os.Exit(1)
	}

	ops := optable.New()
	protos := codegen.NewProtoRegistry()
	gen := codegen.New(backend, protos, ops)

	registerHostFunctions(gen, jitHost)

	var opts []kaleido.Option
	if *quiet {
		opts = append(opts, kaleido.WithPrompt(io.Discard), kaleido.WithOutput(io.Discard))
	}

	for _, path := range loadFiles {
		f, err := os.Open(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "kaleido: %s\n", err)
			os.Exit(1)
		}
		lx := kaleido.NewLexer(lex.New(f))
		kaleido.NewDriver(lx, ops, gen, jitHost, opts...).Run()
		f.Close()
	}

	lx := kaleido.NewLexer(lex.New(&replReader{}))
	kaleido.NewDriver(lx, ops, gen, jitHost, opts...).Run()
}

// registerHostFunctions declares putchard and printd in their own
// permanent module and maps them straight to native code, so user
// source can call them without either function ever needing a
// generated body.
func registerHostFunctions(gen *codegen.Generator, jitHost *llvmengine.Host) {
	gen.Reset("host")
	for _, p := range host.Prototypes {
		proto := &ast.Prototype{Name: p.Name, Params: []string{"x"}}
		fn, err := gen.LowerPrototype(proto)
		if err != nil {
			panic(fmt.Errorf("kaleido: declaring host function %s: %w", p.Name, err))
		}
		jitHost.BindNative(fn, p.Addr())
	}
	if err := jitHost.AddPermanent(gen.Module()); err != nil {
		panic(fmt.Errorf("kaleido: attaching host module to JIT: %w", err))
	}
}

// replReader adapts the readline library's line-oriented interactive
// input into the io.Reader the lexer's character source expects.
// Kaleidoscope's prompt is printed by the driver itself (to stderr, as
// the external interface specifies), so this reader asks readline for
// each line with an empty prompt of its own.
type replReader struct {
	buf []byte
}

func (r *replReader) Read(p []byte) (int, error) {
	for len(r.buf) == 0 {
		line, err := readline.String("")
		if err != nil {
			return 0, io.EOF
		}
		readline.AddHistory(line)
		r.buf = append([]byte(line), '\n')
	}
	n := copy(p, r.buf)
	r.buf = r.buf[n:]
	return n, nil
}
