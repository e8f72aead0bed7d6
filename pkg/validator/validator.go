// Package validator checks a bound array for words that will not resolve.
package validator

import (
	"fmt"

	"github.com/thomasrohde/wordbind/pkg/diagnostics"
	"github.com/thomasrohde/wordbind/pkg/symbol"
	"github.com/thomasrohde/wordbind/pkg/value"
)

// Options control which words are reported.
type Options struct {
	// Quoted also reports quoted words. Quoted words are data, so they are
	// skipped by default.
	Quoted bool
	// MaxDepth bounds nesting; zero means DefaultMaxDepth.
	MaxDepth int
}

// DefaultMaxDepth bounds nesting when Options.MaxDepth is zero.
const DefaultMaxDepth = 512

type validator struct {
	opts     Options
	diags    []diagnostics.Diagnostic
	reported map[*symbol.Symbol]bool
}

// Validate walks arr deep and returns one diagnostic per problem:
//
//   - E_UNBOUND_WORD for the first unbound occurrence of each name;
//   - E_NO_RELATIVE for a word still bound relative to a function, which
//     only a running call of that function could resolve.
//
// Refinements are never reported.
func Validate(arr *value.Array, opts Options) []diagnostics.Diagnostic {
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	v := &validator{opts: opts, reported: make(map[*symbol.Symbol]bool)}
	v.walk(arr, opts.MaxDepth)
	return v.diags
}

func (v *validator) addDiag(code, msg string, arr *value.Array, hint string) {
	var span *diagnostics.Span
	if arr.File != "" || arr.Line != 0 {
		span = &diagnostics.Span{File: arr.File, StartLine: arr.Line, EndLine: arr.Line}
	}
	v.diags = append(v.diags, diagnostics.MakeDiag(code, msg, span, hint))
}

func (v *validator) walk(arr *value.Array, remaining int) {
	if remaining <= 0 {
		v.addDiag(diagnostics.EOverflow, fmt.Sprintf("nesting exceeds %d levels", v.opts.MaxDepth), arr, "")
		return
	}
	for i := range arr.Cells {
		c := &arr.Cells[i]
		switch {
		case c.IsArray():
			if c.Array != nil {
				v.walk(c.Array, remaining-1)
			}
		case c.IsWord():
			v.checkWord(c, arr)
		}
	}
}

func (v *validator) checkWord(c *value.Cell, arr *value.Array) {
	if c.Kind == value.KindRefinement || (c.Quotes > 0 && !v.opts.Quoted) {
		return
	}
	switch c.BindingOf().(type) {
	case value.Unbound:
		canon := c.Canon()
		if v.reported[canon] {
			return
		}
		v.reported[canon] = true
		hint := ""
		if c.Kind == value.KindWord || c.Kind == value.KindGetWord {
			hint = fmt.Sprintf("define it first with %s:", c.Symbol)
		}
		v.addDiag(diagnostics.EUnbound, fmt.Sprintf("%s is not bound", c.Symbol), arr, hint)
	case value.Relative:
		v.addDiag(diagnostics.ENoRel, fmt.Sprintf("%s is bound relative to a function outside any call", c.Symbol), arr, "")
	}
}
