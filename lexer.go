package kaleido

import (
	"strconv"
	"strings"

	"github.com/peterhuang621/MyLearnCompiler-LLVM-language-demo/lex"
)

// Lexer turns a character source into Tokens. It holds exactly one rune
// of look-behind across calls to Next, the way a classic hand-written
// tokenizer does: whatever character ended the previous token is
// already in hand when the next one starts.
type Lexer struct {
	src  *lex.Source
	last rune
}

// NewLexer wraps src, priming the look-behind with a space so the
// first call to Next starts by skipping (vacuous) leading whitespace.
func NewLexer(src *lex.Source) *Lexer {
	return &Lexer{src: src, last: ' '}
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\r' || r == '\n'
}

func isAlpha(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

// Next scans and returns the next token.
func (l *Lexer) Next() Token {
	for isSpace(l.last) {
		l.last = l.src.Next()
	}

	line := l.src.Line()

	if isAlpha(l.last) {
		var sb strings.Builder
		for isAlpha(l.last) || isDigit(l.last) {
			sb.WriteRune(l.last)
			l.last = l.src.Next()
		}
		ident := sb.String()
		if kw, ok := keywords[ident]; ok {
			return Token{Kind: kw, Line: line}
		}
		return Token{Kind: Ident, Ident: ident, Line: line}
	}

	if isDigit(l.last) || l.last == '.' {
		var sb strings.Builder
		for isDigit(l.last) || l.last == '.' {
			sb.WriteRune(l.last)
			l.last = l.src.Next()
		}
		return Token{Kind: Number, Num: parseLeadingFloat(sb.String()), Line: line}
	}

	if l.last == '#' {
		for l.last != lex.EOF && l.last != '\n' {
			l.last = l.src.Next()
		}
		return l.Next()
	}

	if l.last == lex.EOF {
		return Token{Kind: EOF, Line: line}
	}

	op := l.last
	l.last = l.src.Next()
	return Token{Kind: Op, Op: op, Line: line}
}

// parseLeadingFloat parses the longest valid "digits ['.' digits]"
// prefix of s and returns its value, discarding anything after it.
// This matches strtod's own behavior when handed a run of characters
// that isn't itself a well-formed number, such as "1.2.3": strtod
// reads "1.2" and stops at the second '.', and the reference lexer
// never re-lexes the discarded suffix as a separate token.
func parseLeadingFloat(s string) float64 {
	i := 0
	for i < len(s) && isDigit(rune(s[i])) {
		i++
	}
	if i < len(s) && s[i] == '.' {
		i++
		for i < len(s) && isDigit(rune(s[i])) {
			i++
		}
	}
	v, _ := strconv.ParseFloat(s[:i], 64)
	return v
}
