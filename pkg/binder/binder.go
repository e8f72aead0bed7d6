// Package binder provides the transient symbol-to-index table used while a
// binding operation runs.
//
// A Binder inverts the lookup direction once (context key -> index) so that
// every word visited afterwards costs one map probe instead of a scan of the
// context. Positive indices name 1-based context slots; negative indices are
// caller-defined sentinels; zero means absent.
package binder

import (
	"github.com/thomasrohde/wordbind/pkg/diagnostics"
	"github.com/thomasrohde/wordbind/pkg/symbol"
)

// Binder maps canonical symbols to signed indices. It is not safe for
// concurrent use; each operation owns its own.
type Binder struct {
	indices map[*symbol.Symbol]int
	journal []*symbol.Symbol
}

// New creates an empty binder.
func New() *Binder {
	return &Binder{indices: make(map[*symbol.Symbol]int)}
}

// TryAdd records index for sym's canon unless one is already recorded.
func (b *Binder) TryAdd(sym *symbol.Symbol, index int) bool {
	if index == 0 {
		diagnostics.Invariant(diagnostics.EDupKey, "binder index for %s must be nonzero", sym)
	}
	canon := sym.Canon()
	if _, ok := b.indices[canon]; ok {
		return false
	}
	b.indices[canon] = index
	b.journal = append(b.journal, canon)
	return true
}

// Add records index for sym's canon. Adding a symbol twice is a defect.
func (b *Binder) Add(sym *symbol.Symbol, index int) {
	if !b.TryAdd(sym, index) {
		diagnostics.Invariant(diagnostics.EDupKey, "binder already holds %s at %d", sym, b.indices[sym.Canon()])
	}
}

// LookupOr0 returns the index recorded for sym's canon, or 0.
func (b *Binder) LookupOr0(sym *symbol.Symbol) int {
	return b.indices[sym.Canon()]
}

// RemoveOr0 deletes sym's entry and returns the index it held, or 0.
func (b *Binder) RemoveOr0(sym *symbol.Symbol) int {
	canon := sym.Canon()
	old, ok := b.indices[canon]
	if !ok {
		return 0
	}
	delete(b.indices, canon)
	return old
}

// Remove deletes sym's entry, which must be present.
func (b *Binder) Remove(sym *symbol.Symbol) int {
	old := b.RemoveOr0(sym)
	if old == 0 {
		diagnostics.Invariant(diagnostics.ELeak, "binder has no entry for %s", sym)
	}
	return old
}

// Len returns the number of live entries.
func (b *Binder) Len() int {
	return len(b.indices)
}

// Release removes every entry this binder still holds, in reverse order of
// addition, and returns how many it removed. Deferred by every operation
// that creates a binder so no exit path leaves entries behind.
func (b *Binder) Release() int {
	n := 0
	for i := len(b.journal) - 1; i >= 0; i-- {
		canon := b.journal[i]
		if _, ok := b.indices[canon]; ok {
			delete(b.indices, canon)
			n++
		}
	}
	b.journal = b.journal[:0]
	return n
}

// Shutdown asserts the binder was balanced: every index added has been
// removed.
func (b *Binder) Shutdown() error {
	if n := len(b.indices); n != 0 {
		return diagnostics.Errorf(diagnostics.ELeak, "", "binder shut down with %d entries remaining", n)
	}
	b.journal = b.journal[:0]
	return nil
}
