package kaleido

import "fmt"

// ParseError is returned for a syntax error: an unexpected token, a
// missing keyword or delimiter, or an operator prototype with the
// wrong operand count or an out-of-range precedence.
type ParseError struct {
	Msg  string
	Line int
}

func (e *ParseError) Error() string { return e.Msg }

func expected(what string, got Token, line int) error {
	return &ParseError{Msg: fmt.Sprintf("expected %s", what), Line: line}
}

func unexpectedToken(got Token, line int) error {
	return &ParseError{Msg: "unknown token when expecting an expression", Line: line}
}

// ResolveError is returned when a name lookup fails during code
// generation: an unbound variable, an undeclared function, or a call
// with the wrong number of arguments.
type ResolveError struct {
	Msg string
}

func (e *ResolveError) Error() string { return e.Msg }

// CodegenFailure wraps any lowering error that is not a name-resolution
// failure, such as a non-variable '=' destination or an extern
// re-declared with a different number of parameters.
type CodegenFailure struct {
	Msg string
}

func (e *CodegenFailure) Error() string { return e.Msg }
