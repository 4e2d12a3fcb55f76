// Package optable holds the mutable single-character binary operator
// precedence table that the parser consults while parsing and the code
// generator updates as it lowers user-defined operators.
package optable

// Table maps a binary operator character to its precedence. A character
// absent from the table is not a binary operator; precedences are always
// strictly positive.
type Table struct {
	prec map[rune]int
}

// New returns a table seeded with the language's built-in operators.
func New() *Table {
	return &Table{prec: map[rune]int{
		'=': 2,
		'<': 10,
		'+': 20,
		'-': 20,
		'*': 40,
	}}
}

// Precedence returns op's precedence, or -1 if op is not a known binary
// operator.
func (t *Table) Precedence(op rune) int {
	if p, ok := t.prec[op]; ok {
		return p
	}
	return -1
}

// Install registers op as a binary operator at the given precedence,
// replacing any prior registration for the same character.
func (t *Table) Install(op rune, prec int) {
	t.prec[op] = prec
}

// Remove un-registers op. Used to roll back a failed operator
// definition so a later, valid one can reuse the character.
func (t *Table) Remove(op rune) {
	delete(t.prec, op)
}
