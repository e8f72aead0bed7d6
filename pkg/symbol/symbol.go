// Package symbol interns word spellings so that each distinct spelling has
// exactly one identity, and groups spellings that differ only in case under
// a shared canonical symbol.
package symbol

import (
	"sync"

	"golang.org/x/text/cases"
)

// Symbol is an interned spelling. Two symbols are equal iff they are the
// same pointer.
type Symbol struct {
	spelling string
	canon    *Symbol
	id       uint32
}

// String returns the spelling.
func (s *Symbol) String() string {
	if s == nil {
		return "<nil>"
	}
	return s.spelling
}

// Canon returns the canonical symbol all case variants share. The canonical
// symbol is its own canon.
func (s *Symbol) Canon() *Symbol {
	return s.canon
}

// IsCanon reports whether s is the canonical form of its spelling.
func (s *Symbol) IsCanon() bool {
	return s.canon == s
}

// ID returns a table-unique number, stable for the table's lifetime.
func (s *Symbol) ID() uint32 {
	return s.id
}

// SameCanon reports whether a and b are case variants of one spelling.
func SameCanon(a, b *Symbol) bool {
	return a.canon == b.canon
}

// Table is an interning table. The zero value is not usable; call NewTable.
type Table struct {
	mu         sync.Mutex
	bySpelling map[string]*Symbol
	byFolded   map[string]*Symbol
	fold       cases.Caser
	next       uint32
}

// NewTable creates an empty interning table.
func NewTable() *Table {
	return &Table{
		bySpelling: make(map[string]*Symbol),
		byFolded:   make(map[string]*Symbol),
		fold:       cases.Fold(),
	}
}

// Intern returns the unique symbol for text, creating it on first use.
func (t *Table) Intern(text string) *Symbol {
	t.mu.Lock()
	defer t.mu.Unlock()

	if s, ok := t.bySpelling[text]; ok {
		return s
	}

	folded := t.fold.String(text)
	canon, ok := t.byFolded[folded]
	if !ok {
		// The folded spelling is always the canon, whichever variant
		// arrives first.
		canon = t.newSymbol(folded)
		canon.canon = canon
		t.bySpelling[folded] = canon
		t.byFolded[folded] = canon
	}
	if folded == text {
		return canon
	}

	s := t.newSymbol(text)
	s.canon = canon
	t.bySpelling[text] = s
	return s
}

// Lookup returns the symbol for text without interning it.
func (t *Table) Lookup(text string) (*Symbol, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.bySpelling[text]
	return s, ok
}

// Len returns the number of interned spellings.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.bySpelling)
}

func (t *Table) newSymbol(text string) *Symbol {
	t.next++
	return &Symbol{spelling: text, id: t.next}
}

var defaultTable = NewTable()

// Intern interns text in the process-wide table.
func Intern(text string) *Symbol {
	return defaultTable.Intern(text)
}

// Default returns the process-wide table.
func Default() *Table {
	return defaultTable
}
