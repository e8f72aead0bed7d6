package bind

import (
	"github.com/thomasrohde/wordbind/pkg/binder"
	"github.com/thomasrohde/wordbind/pkg/clonify"
	"github.com/thomasrohde/wordbind/pkg/diagnostics"
	"github.com/thomasrohde/wordbind/pkg/symbol"
	"github.com/thomasrohde/wordbind/pkg/value"
)

// VirtualBind prepares the variables of a loop and binds its body to them.
//
// vars is a single word or a block of items, each a plain word (a fresh
// loop variable) or a once-quoted word (the loop assigns through that
// word's existing binding). where specifies relative contents of both
// body and vars.
//
// If any item is a plain word, *body is replaced by a deep copy taken from
// its read position, and the copy is bound to the returned context. With
// only quoted items, body is left alone and nothing is copied.
//
// The returned context is fixed: its slots may be referenced by the copy,
// so it cannot grow. Quoted items get hidden, unbindable keys whose slots
// hold the original word, protected and marked reused.
//
// On a duplicate variable the context is still returned, alongside an
// E_DUP_LOOP_VAR error naming the first duplicate, and the copy is left
// unbound.
func VirtualBind(body *value.Cell, vars value.Cell, where *value.Specifier, maxDepth int) (*value.Context, error) {
	items, itemSpec := loopItems(&vars, where)
	if len(items) == 0 {
		return nil, diagnostics.Errorf(diagnostics.ELoopSpec, "", "loop variable spec is empty")
	}

	rebinding := false
	for i := range items {
		it := &items[i]
		switch {
		case it.IsPlainWord():
			rebinding = true
		case it.IsQuotedWord():
		default:
			return nil, invalidLoopItem(it)
		}
	}

	if rebinding {
		copied, err := clonify.CopyBlock(body, where, clonify.Options{
			Types:    value.TSArray,
			Deep:     true,
			MaxDepth: maxDepth,
		})
		if err != nil {
			return nil, err
		}
		kind := body.Kind
		*body = value.Block(copied)
		body.Kind = kind
	}

	ctx := value.NewContext(value.ObjectContext, len(items))
	ctx.Name = "loop"

	var b *binder.Binder
	if rebinding {
		b = binder.New()
		defer b.Release()
	}

	var duplicate *symbol.Symbol
	for i := range items {
		it := &items[i]
		index := i + 1

		if it.IsPlainWord() {
			if _, err := ctx.AppendKey(value.Key{Symbol: it.Symbol}, value.Null()); err != nil {
				return nil, err
			}
			// Keep filling slots after a duplicate so the context is whole.
			if !b.TryAdd(it.Symbol, index) && duplicate == nil {
				duplicate = it.Symbol
			}
			continue
		}

		reused := clonify.Derelativize(*it, itemSpec)
		reused.Flags |= value.CellProtected | value.CellReused
		key := value.Key{Symbol: it.Symbol, Flags: value.KeyUnbindable | value.KeyHidden}
		if _, err := ctx.AppendKey(key, reused); err != nil {
			return nil, err
		}

		if rebinding {
			// -1 reserves the name so a later plain word collides with it
			// without the bind pass ever selecting it.
			switch stored := b.LookupOr0(it.Symbol); {
			case stored > 0:
				if duplicate == nil {
					duplicate = it.Symbol
				}
			case stored == 0:
				b.Add(it.Symbol, -1)
			}
		}
	}
	ctx.SetFixed()

	if !rebinding {
		return ctx, nil
	}
	if duplicate != nil {
		return ctx, diagnostics.Errorf(diagnostics.EDupLoop, duplicate.String(),
			"duplicate loop variable: %s", duplicate)
	}

	w := newWalker(b, ctx, Options{BindTypes: value.TSWord, Deep: true, MaxDepth: maxDepth})
	if err := w.bind(body.At()); err != nil {
		return ctx, err
	}
	return ctx, nil
}

func loopItems(vars *value.Cell, where *value.Specifier) ([]value.Cell, *value.Specifier) {
	if vars.Kind == value.KindBlock && vars.Quotes == 0 {
		return vars.At(), value.DeriveSpecifier(where, vars)
	}
	return []value.Cell{*vars}, where
}

func invalidLoopItem(it *value.Cell) error {
	if it.IsWord() {
		return diagnostics.Errorf(diagnostics.ELoopSpec, it.Symbol.String(),
			"invalid loop variable %s (%s, quoted %d times)", it.Symbol, it.Kind, it.Quotes)
	}
	return diagnostics.Errorf(diagnostics.ELoopSpec, "", "invalid loop variable of type %s", it.Kind)
}
