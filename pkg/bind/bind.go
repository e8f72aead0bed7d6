// Package bind walks arrays and sets, clears or retargets the binding of
// every word it meets.
//
// The walks are strictly left to right and depth first. That order is
// load-bearing: when a pass adds keys midstream, only occurrences after the
// first one see the new slot.
package bind

import (
	"github.com/thomasrohde/wordbind/pkg/binder"
	"github.com/thomasrohde/wordbind/pkg/clonify"
	"github.com/thomasrohde/wordbind/pkg/diagnostics"
	"github.com/thomasrohde/wordbind/pkg/value"
)

// Options configure a bind pass.
type Options struct {
	BindTypes    value.Typeset // word kinds to bind
	AddMidstream value.Typeset // word kinds appended to the context when absent
	Deep         bool          // recurse into blocks and groups
	MaxDepth     int           // nesting budget; clonify.DefaultMaxDepth if zero
}

// Values binds the words of cells to ctx.
//
// A word whose kind is in BindTypes and whose canon names a bindable key of
// ctx becomes Specific(ctx, index), replacing whatever binding it had. A
// word not found whose kind is in AddMidstream gets a new key appended to
// ctx, and later occurrences in the same pass bind to that key.
func Values(cells []value.Cell, ctx *value.Context, opts Options) error {
	b := binder.New()
	defer b.Release()

	for i, k := range ctx.Keys() {
		if k.Flags&value.KeyUnbindable == 0 {
			b.TryAdd(k.Symbol, i+1)
		}
	}

	w := newWalker(b, ctx, opts)
	return w.bind(cells)
}

// Deep binds words already present in ctx, recursing into arrays.
func Deep(cells []value.Cell, ctx *value.Context) error {
	return Values(cells, ctx, Options{BindTypes: value.TSWord, Deep: true})
}

// AllDeep binds every word, appending keys for words ctx lacks.
func AllDeep(cells []value.Cell, ctx *value.Context) error {
	return Values(cells, ctx, Options{BindTypes: value.TSWord, AddMidstream: value.TSWord, Deep: true})
}

// Shallow binds words at the top level only.
func Shallow(cells []value.Cell, ctx *value.Context) error {
	return Values(cells, ctx, Options{BindTypes: value.TSWord})
}

// SetMidstreamShallow binds top-level words, appending keys for set-words.
// A use before its set-word stays unbound: only later occurrences see the
// new key.
func SetMidstreamShallow(cells []value.Cell, ctx *value.Context) error {
	return Values(cells, ctx, Options{
		BindTypes:    value.TSWord,
		AddMidstream: value.TypesetOf(value.KindSetWord),
	})
}

type walker struct {
	b         *binder.Binder
	ctx       *value.Context
	bindTypes value.Typeset
	addTypes  value.Typeset
	deep      bool
	limit     int
	remaining int
}

func newWalker(b *binder.Binder, ctx *value.Context, opts Options) *walker {
	depth := depthOr(opts.MaxDepth)
	return &walker{
		b:         b,
		ctx:       ctx,
		bindTypes: opts.BindTypes,
		addTypes:  opts.AddMidstream,
		deep:      opts.Deep,
		limit:     depth,
		remaining: depth,
	}
}

func (w *walker) bind(cells []value.Cell) error {
	for i := range cells {
		v := &cells[i]
		switch {
		case v.IsWord() && w.bindTypes.Has(v.Kind):
			n := w.b.LookupOr0(v.Symbol)
			if n > 0 {
				v.Binding = value.Specific{Context: w.ctx, Index: n}
				continue
			}
			// Negative indices are sentinels the caller asked us to skip.
			if n == 0 && w.addTypes.Has(v.Kind) {
				idx, err := w.ctx.Append(v.Symbol)
				if err != nil {
					return err
				}
				w.b.Add(v.Symbol, idx)
				v.Binding = value.Specific{Context: w.ctx, Index: idx}
			}

		case v.IsArray() && w.deep:
			if err := w.descend(); err != nil {
				return err
			}
			err := w.bind(v.At())
			w.remaining++
			if err != nil {
				return err
			}
		}
	}
	return nil
}

func (w *walker) descend() error {
	if w.remaining <= 0 {
		return overflow(w.limit)
	}
	w.remaining--
	return nil
}

func overflow(limit int) error {
	return diagnostics.Errorf(diagnostics.EOverflow, "", "binding nesting exceeds %d levels", limit)
}

// TryBindWord binds a single word to ctx by linear search and returns its
// index, or 0 if ctx has no such key (the word is left as it was).
func TryBindWord(ctx *value.Context, word *value.Cell) int {
	n := ctx.Find(word.Symbol)
	if n != 0 {
		word.Binding = value.Specific{Context: ctx, Index: n}
	}
	return n
}

// Unbind resets words to Unbound: those bound to ctx, or all words when
// ctx is nil. maxDepth bounds nesting; zero means clonify.DefaultMaxDepth.
func Unbind(cells []value.Cell, ctx *value.Context, deep bool, maxDepth int) error {
	maxDepth = depthOr(maxDepth)
	return unbind(cells, ctx, deep, maxDepth, maxDepth)
}

func depthOr(maxDepth int) int {
	if maxDepth <= 0 {
		return clonify.DefaultMaxDepth
	}
	return maxDepth
}

func unbind(cells []value.Cell, ctx *value.Context, deep bool, limit, remaining int) error {
	for i := range cells {
		v := &cells[i]
		switch {
		case v.IsWord():
			if ctx == nil {
				v.Unbind()
			} else if s, ok := v.BindingOf().(value.Specific); ok && s.Context == ctx {
				v.Unbind()
			}
		case v.IsArray() && deep:
			if remaining <= 0 {
				return overflow(limit)
			}
			if err := unbind(v.At(), ctx, deep, limit, remaining-1); err != nil {
				return err
			}
		}
	}
	return nil
}

// Rebind retargets every word bound to from so it is bound to to, always
// deep. With b nil the index is kept; otherwise it is looked up by symbol
// in b, and a word b does not know becomes Unbound.
//
// Actions bound to from, or to any context to derives from, are rebound to
// to. That makes methods of a derived object see the derived object without
// copying their bodies. Unbound actions and actions bound to frames are
// left alone. maxDepth bounds nesting as in Unbind.
func Rebind(cells []value.Cell, from, to *value.Context, b *binder.Binder, maxDepth int) error {
	r := &rebinder{from: from, to: to, b: b, limit: depthOr(maxDepth)}
	return r.rebind(cells, r.limit)
}

type rebinder struct {
	from, to *value.Context
	b        *binder.Binder
	limit    int
}

func (r *rebinder) rebind(cells []value.Cell, remaining int) error {
	from, to, b := r.from, r.to, r.b
	for i := range cells {
		v := &cells[i]
		switch {
		case v.IsArray():
			if remaining <= 0 {
				return overflow(r.limit)
			}
			if err := r.rebind(v.At(), remaining-1); err != nil {
				return err
			}

		case v.IsWord():
			s, ok := v.BindingOf().(value.Specific)
			if !ok || s.Context != from {
				continue
			}
			idx := s.Index
			if b != nil {
				idx = b.LookupOr0(v.Symbol)
			}
			if idx > 0 {
				v.Binding = value.Specific{Context: to, Index: idx}
			} else {
				v.Unbind()
			}

		case v.Kind == value.KindAction:
			s, ok := v.BindingOf().(value.Specific)
			if !ok || s.Context.Kind() == value.FrameContext {
				continue
			}
			if value.Overrides(s.Context, to) {
				v.Binding = value.Specific{Context: to}
			}
		}
	}
	return nil
}
