// Package clonify copies arrays and the containers inside them, fixing up
// bindings on the copy.
//
// Copying never copies the environments words refer to: a Specific binding
// is kept verbatim. A Relative binding is resolved through the specifier in
// effect, and becomes Unbound when there is none, since free-standing
// storage cannot assume any particular call.
package clonify

import (
	"github.com/thomasrohde/wordbind/pkg/diagnostics"
	"github.com/thomasrohde/wordbind/pkg/value"
)

// DefaultMaxDepth bounds nesting for deep copies.
const DefaultMaxDepth = 512

// Options control which containers are copied and how far.
type Options struct {
	Types    value.Typeset // kinds whose containers are copied
	Deep     bool          // clonify inside fresh copies too
	MaxDepth int           // nesting budget; DefaultMaxDepth if zero
}

// DeepArrays copies every nested block and group.
func DeepArrays() Options {
	return Options{Types: value.TSArray, Deep: true}
}

type copier struct {
	types     value.Typeset
	deep      bool
	limit     int
	remaining int
}

func newCopier(opts Options) *copier {
	depth := opts.MaxDepth
	if depth <= 0 {
		depth = DefaultMaxDepth
	}
	return &copier{types: opts.Types, deep: opts.Deep, limit: depth, remaining: depth}
}

// Copy copies arr from head to tail with no specifier.
func Copy(arr *value.Array, deep bool, types value.Typeset) (*value.Array, error) {
	return CopyArray(arr, 0, arr.Len(), value.Specified, Options{Types: types, Deep: deep})
}

// CopyBlock copies the array a block cell views, from its read position to
// the tail, resolving relative contents through spec.
func CopyBlock(block *value.Cell, spec *value.Specifier, opts Options) (*value.Array, error) {
	if block.Array == nil {
		return value.NewArray(), nil
	}
	inner := value.DeriveSpecifier(spec, block)
	return CopyArray(block.Array, block.Index, block.Array.Len(), inner, opts)
}

// CopyArray copies cells [at, tail) of arr. Cells are derelativized
// through spec and containers whose kind is in opts.Types are copied.
func CopyArray(arr *value.Array, at, tail int, spec *value.Specifier, opts Options) (*value.Array, error) {
	if tail > arr.Len() {
		tail = arr.Len()
	}
	if at > tail {
		at = tail
	}
	cp := newCopier(opts)
	out := &value.Array{
		Cells: make([]value.Cell, tail-at),
		File:  arr.File,
		Line:  arr.Line,
	}
	for i := at; i < tail; i++ {
		dest := &out.Cells[i-at]
		*dest = Derelativize(arr.Cells[i], spec)
		if err := cp.clonify(dest, spec, true); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Derelativize returns v with a Relative binding replaced by the Specific
// binding spec supplies for it, or by Unbound if spec has none.
func Derelativize(v value.Cell, spec *value.Specifier) value.Cell {
	rel, ok := v.BindingOf().(value.Relative)
	if !ok {
		return v
	}
	ctx, found := spec.Lookup(rel.Template)
	if !found {
		v.Binding = value.Unbound{}
		return v
	}
	v.Binding = value.Specific{Context: ctx, Index: rel.Index}
	return v
}

// clonify copies the container v holds, in place, if its kind is being
// copied. top is false when called for the contents of a fresh copy, which
// only happens for deep copies.
func (cp *copier) clonify(v *value.Cell, spec *value.Specifier, top bool) error {
	if !cp.types.Has(v.Kind) {
		return nil
	}
	if !top && !cp.deep {
		return nil
	}
	if cp.remaining <= 0 {
		return diagnostics.Errorf(diagnostics.EOverflow, "", "copy nesting exceeds %d levels", cp.limit)
	}
	cp.remaining--
	defer func() { cp.remaining++ }()

	switch {
	case v.IsArray():
		if v.Array == nil {
			return nil
		}
		inner := value.DeriveSpecifier(spec, v)
		src := v.Array
		fresh := &value.Array{
			Cells: make([]value.Cell, len(src.Cells)),
			File:  src.File,
			Line:  src.Line,
		}
		for i := range src.Cells {
			fresh.Cells[i] = Derelativize(src.Cells[i], inner)
		}
		v.Array = fresh
		v.Binding = value.Unbound{}
		for i := range fresh.Cells {
			if err := cp.clonify(&fresh.Cells[i], inner, false); err != nil {
				return err
			}
		}

	case value.TSContext.Has(v.Kind):
		if v.Context == nil {
			return nil
		}
		v.Context = v.Context.CopyShallow()
		for i := 1; i <= v.Context.Len(); i++ {
			if err := cp.clonify(v.Context.Var(i), value.Specified, false); err != nil {
				return err
			}
		}
	}
	// Strings are immutable and actions are never cloned, so anything else
	// is already independent.
	return nil
}
