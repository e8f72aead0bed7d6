// Package value defines the cells, arrays and contexts the binding engine
// operates on, and the binding references that tie words to variables.
package value

import (
	"github.com/thomasrohde/wordbind/pkg/symbol"
)

// Kind identifies what a Cell holds, independent of how many times it is
// quote-escaped.
type Kind uint8

const (
	KindNull Kind = iota // unset variable contents
	KindBlank
	KindLogic
	KindInteger
	KindDecimal
	KindString
	KindWord
	KindSetWord
	KindGetWord
	KindRefinement
	KindBlock
	KindGroup
	KindAction
	KindObject
	KindFrame
	kindMax
)

var kindNames = [...]string{
	KindNull:       "null",
	KindBlank:      "blank",
	KindLogic:      "logic",
	KindInteger:    "integer",
	KindDecimal:    "decimal",
	KindString:     "string",
	KindWord:       "word",
	KindSetWord:    "set-word",
	KindGetWord:    "get-word",
	KindRefinement: "refinement",
	KindBlock:      "block",
	KindGroup:      "group",
	KindAction:     "action",
	KindObject:     "object",
	KindFrame:      "frame",
}

func (k Kind) String() string {
	if k >= kindMax {
		return "invalid"
	}
	return kindNames[k]
}

// Typeset is a bitset of kinds.
type Typeset uint64

// Common typesets.
const (
	TSNone    Typeset = 0
	TSWord    Typeset = 1<<KindWord | 1<<KindSetWord | 1<<KindGetWord | 1<<KindRefinement
	TSArray   Typeset = 1<<KindBlock | 1<<KindGroup
	TSSeries  Typeset = TSArray | 1<<KindString
	TSContext Typeset = 1<<KindObject | 1<<KindFrame
	TSCloned  Typeset = TSSeries | TSContext
)

// TypesetOf builds a typeset from kinds.
func TypesetOf(kinds ...Kind) Typeset {
	var ts Typeset
	for _, k := range kinds {
		ts |= 1 << k
	}
	return ts
}

// Has reports whether k is in the typeset.
func (ts Typeset) Has(k Kind) bool {
	return ts&(1<<k) != 0
}

// CellFlags mark variable slots.
type CellFlags uint8

const (
	// CellProtected forbids writes through a word.
	CellProtected CellFlags = 1 << iota
	// CellReused marks a loop slot holding a quoted word whose existing
	// binding receives the loop's assignments.
	CellReused
)

// Cell is one value in an Array or a Context slot. Only the fields that
// belong to Kind are meaningful.
type Cell struct {
	Kind   Kind
	Quotes int
	Flags  CellFlags

	Symbol  *symbol.Symbol // words
	Binding Binding        // words, arrays, actions

	Array *Array // blocks and groups
	Index int    // read position within Array

	Int   int64
	Dec   float64
	Str   string
	Logic bool

	Context *Context // objects and frames
	Action  *Action
}

// Null returns the unset cell.
func Null() Cell { return Cell{Kind: KindNull} }

// Blank returns a blank cell.
func Blank() Cell { return Cell{Kind: KindBlank} }

// Logic returns a logic cell.
func Logic(b bool) Cell { return Cell{Kind: KindLogic, Logic: b} }

// Integer returns an integer cell.
func Integer(n int64) Cell { return Cell{Kind: KindInteger, Int: n} }

// Decimal returns a decimal cell.
func Decimal(f float64) Cell { return Cell{Kind: KindDecimal, Dec: f} }

// String returns a string cell.
func String(s string) Cell { return Cell{Kind: KindString, Str: s} }

// Word returns an unbound word cell of the given word kind.
func Word(kind Kind, sym *symbol.Symbol) Cell {
	return Cell{Kind: kind, Symbol: sym, Binding: Unbound{}}
}

// Block returns a block cell viewing arr from its head.
func Block(arr *Array) Cell {
	return Cell{Kind: KindBlock, Array: arr, Binding: Unbound{}}
}

// Group returns a group cell viewing arr from its head.
func Group(arr *Array) Cell {
	return Cell{Kind: KindGroup, Array: arr, Binding: Unbound{}}
}

// Object returns a cell referencing ctx.
func Object(ctx *Context) Cell {
	return Cell{Kind: KindObject, Context: ctx}
}

// ActionValue returns an unbound action cell.
func ActionValue(act *Action) Cell {
	return Cell{Kind: KindAction, Action: act, Binding: Unbound{}}
}

// Quoted returns c escaped n more times.
func Quoted(c Cell, n int) Cell {
	c.Quotes += n
	return c
}

// IsWord reports whether c is any kind of word, quoted or not.
func (c *Cell) IsWord() bool {
	return TSWord.Has(c.Kind)
}

// IsArray reports whether c is a block or group, quoted or not.
func (c *Cell) IsArray() bool {
	return TSArray.Has(c.Kind)
}

// IsPlainWord reports whether c is an unquoted WORD.
func (c *Cell) IsPlainWord() bool {
	return c.Kind == KindWord && c.Quotes == 0
}

// IsQuotedWord reports whether c is a WORD escaped exactly once.
func (c *Cell) IsQuotedWord() bool {
	return c.Kind == KindWord && c.Quotes == 1
}

// Canon returns the canonical symbol of a word cell.
func (c *Cell) Canon() *symbol.Symbol {
	return c.Symbol.Canon()
}

// BindingOf returns the cell's binding, treating a missing one as Unbound.
func (c *Cell) BindingOf() Binding {
	if c.Binding == nil {
		return Unbound{}
	}
	return c.Binding
}

// IsBound reports whether the cell has a non-Unbound binding.
func (c *Cell) IsBound() bool {
	_, unbound := c.BindingOf().(Unbound)
	return !unbound
}

// IsRelative reports whether the cell is bound relative to a template.
func (c *Cell) IsRelative() bool {
	_, rel := c.BindingOf().(Relative)
	return rel
}

// Unbind resets the cell's binding.
func (c *Cell) Unbind() {
	c.Binding = Unbound{}
}

// At returns the cells visible from the cell's read position.
func (c *Cell) At() []Cell {
	if c.Array == nil || c.Index >= len(c.Array.Cells) {
		return nil
	}
	return c.Array.Cells[c.Index:]
}

// Array is an ordered sequence of cells.
type Array struct {
	Cells []Cell
	File  string
	Line  int
}

// NewArray creates an array holding cells.
func NewArray(cells ...Cell) *Array {
	return &Array{Cells: cells}
}

// Len returns the number of cells.
func (a *Array) Len() int {
	return len(a.Cells)
}

// At returns a pointer to the cell at zero-based position i.
func (a *Array) At(i int) *Cell {
	return &a.Cells[i]
}

// Append adds cells at the tail.
func (a *Array) Append(cells ...Cell) {
	a.Cells = append(a.Cells, cells...)
}
