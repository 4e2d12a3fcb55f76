// Package host implements the two native functions every kaleido
// session provides: putchard and printd. They are ordinary C functions
// reached through cgo, exactly as the reference implementation's host
// program links its own putchard/printd directly into the process the
// JIT runs in; the JIT binds the language-level extern declarations to
// these addresses with a global mapping rather than compiling a body
// for them.
package host

/*
#include <stdio.h>

static double kaleido_putchard(double x) {
	fputc((char)x, stderr);
	return 0;
}

static double kaleido_printd(double x) {
	fprintf(stderr, "%f\b", x);
	return 0;
}

static void *kaleido_putchard_addr(void) { return (void *)kaleido_putchard; }
static void *kaleido_printd_addr(void)   { return (void *)kaleido_printd; }
*/
import "C"
import "unsafe"

// PutcharAddr returns the native address of putchard: double -> double,
// writing the character with code int(x) to standard error.
func PutcharAddr() unsafe.Pointer { return unsafe.Pointer(C.kaleido_putchard_addr()) }

// PrintdAddr returns the native address of printd: double -> double,
// writing x followed by a backspace to standard error.
func PrintdAddr() unsafe.Pointer { return unsafe.Pointer(C.kaleido_printd_addr()) }

// Prototypes are the extern declarations the driver registers for
// these two functions at startup, before any user source is read.
var Prototypes = []struct {
	Name string
	Addr func() unsafe.Pointer
}{
	{"putchard", PutcharAddr},
	{"printd", PrintdAddr},
}
