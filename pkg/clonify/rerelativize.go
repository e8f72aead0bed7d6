package clonify

import (
	"github.com/thomasrohde/wordbind/pkg/diagnostics"
	"github.com/thomasrohde/wordbind/pkg/value"
)

// Rerelativize deep-copies a relativized body so it can serve a second
// function with the same parameter shape. Every Relative binding must
// target from; the copy targets to instead. Non-relative cells are copied
// as they are.
func Rerelativize(arr *value.Array, from, to *value.Template) *value.Array {
	out := &value.Array{
		Cells: make([]value.Cell, len(arr.Cells)),
		File:  arr.File,
		Line:  arr.Line,
	}
	for i, src := range arr.Cells {
		rel, ok := src.BindingOf().(value.Relative)
		if !ok {
			out.Cells[i] = src
			continue
		}
		if rel.Template != from {
			diagnostics.Invariant(diagnostics.ENoRel, "relative binding to %s found while rerelativizing %s",
				rel.Template.Label(), from.Label())
		}
		dest := src
		if src.IsArray() && src.Array != nil {
			dest.Array = Rerelativize(src.Array, from, to)
		}
		dest.Binding = value.Relative{Template: to, Index: rel.Index}
		out.Cells[i] = dest
	}
	return out
}
