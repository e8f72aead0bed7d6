package binder

import (
	"github.com/thomasrohde/wordbind/pkg/diagnostics"
	"github.com/thomasrohde/wordbind/pkg/symbol"
	"github.com/thomasrohde/wordbind/pkg/value"
)

// InitInterning seeds a binder for incremental binding into ctx with
// imports from lib. Keys of ctx get their positive position; keys of lib
// not already present get minus their position in lib. One lookup then
// answers local (positive), importable (negative) or neither (zero).
//
// If ctx repeats a name, the first key wins and ShutdownInterning reports
// the later one as a leak.
func InitInterning(ctx, lib *value.Context) *Binder {
	b := New()
	for i, k := range ctx.Keys() {
		b.TryAdd(k.Symbol, i+1)
	}
	if lib != nil && lib != ctx {
		for i, k := range lib.Keys() {
			b.TryAdd(k.Symbol, -(i + 1))
		}
	}
	return b
}

// Import moves sym from its negative lib position to a new positive slot
// in ctx, copying lib's value. It returns the new index.
func Import(b *Binder, sym *symbol.Symbol, ctx, lib *value.Context) (int, error) {
	n := b.LookupOr0(sym)
	if n >= 0 {
		diagnostics.Invariant(diagnostics.ELeak, "%s is not importable (index %d)", sym, n)
	}
	val := *lib.Var(-n)
	val.Flags = 0
	idx, err := ctx.AppendKey(value.Key{Symbol: lib.Key(-n).Symbol}, val)
	if err != nil {
		return 0, err
	}
	b.Remove(sym)
	b.Add(sym, idx)
	return idx, nil
}

// ShutdownInterning reverses InitInterning, including any entries promoted
// by Import or added for keys appended to ctx since. It fails if a
// recorded index no longer matches its key's position.
func ShutdownInterning(b *Binder, ctx, lib *value.Context) error {
	var bad error
	for i, k := range ctx.Keys() {
		if n := b.RemoveOr0(k.Symbol); n != i+1 && bad == nil {
			bad = diagnostics.Errorf(diagnostics.ELeak, k.Symbol.String(),
				"interning binder holds %d for %s, want %d", n, k.Symbol, i+1)
		}
	}
	if lib != nil && lib != ctx {
		for i, k := range lib.Keys() {
			if n := b.RemoveOr0(k.Symbol); n != 0 && n != -(i+1) && bad == nil {
				bad = diagnostics.Errorf(diagnostics.ELeak, k.Symbol.String(),
					"interning binder holds %d for lib key %s, want %d", n, k.Symbol, -(i + 1))
			}
		}
	}
	if bad != nil {
		b.Release()
		return bad
	}
	return b.Shutdown()
}
