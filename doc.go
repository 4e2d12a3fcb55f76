// Package kaleido implements a small expression language compiled and
// executed on the fly through LLVM.
//
// A program is a sequence of top-level items separated by semicolons:
// function definitions (def name(params) body), extern declarations
// (extern name(params)), and bare expressions, each of which is
// compiled and run as soon as it is read. Every value is a
// double-precision float; there are no other types.
//
// Control flow is expression-based: if/then/else and for/in both
// produce a value (for always produces 0), and var introduces one or
// more local bindings visible to the expression that follows in.
// Functions may declare themselves as unary or binary operators,
// installing themselves into the parser's operator table for the rest
// of the session:
//
//	def binary> 10 (a b) b < a;
//	3 > 2;
//
// Comments run from a '#' to the end of the line.
//
// Two host functions are always available: putchard(x) writes the
// character with code x to standard error, and printd(x) writes x
// followed by a backspace. Both return 0.
package kaleido
