package value

import (
	"fmt"
)

// Binding is the reference a cell holds to the storage behind it.
// Use the sealed marker method to restrict implementations to this package.
type Binding interface {
	binding() // sealed marker
}

// Unbound means the word has no variable.
type Unbound struct{}

func (Unbound) binding() {}

func (Unbound) String() string { return "unbound" }

// Specific binds directly to slot Index of Context. On an array cell the
// index is zero and Context is the frame that specifies the array's
// relative contents.
type Specific struct {
	Context *Context
	Index   int
}

func (Specific) binding() {}

func (b Specific) String() string {
	return fmt.Sprintf("%s:%d", b.Context.Label(), b.Index)
}

// Relative binds to parameter Index of a function Template. It can only be
// resolved with a Specifier naming the Context of a call to that function.
// On an array cell the index is zero and marks the array as part of the
// template's body.
type Relative struct {
	Template *Template
	Index    int
}

func (Relative) binding() {}

func (b Relative) String() string {
	return fmt.Sprintf("%s~%d", b.Template.Label(), b.Index)
}

// Specifier is a chain of template-to-context substitutions accumulated
// while descending into arrays. The nil *Specifier is the empty chain and
// asserts that nothing beneath is relative.
type Specifier struct {
	template *Template
	context  *Context
	parent   *Specifier
}

// Specified is the empty specifier.
var Specified *Specifier

// Specify returns a one-link specifier mapping t to ctx.
func Specify(t *Template, ctx *Context) *Specifier {
	return Specified.With(t, ctx)
}

// With extends the chain with a substitution for t.
func (s *Specifier) With(t *Template, ctx *Context) *Specifier {
	return &Specifier{template: t, context: ctx, parent: s}
}

// Lookup returns the context substituted for t, innermost first.
func (s *Specifier) Lookup(t *Template) (*Context, bool) {
	for p := s; p != nil; p = p.parent {
		if p.template == t {
			return p.context, true
		}
	}
	return nil, false
}

// IsEmpty reports whether the chain has no substitutions.
func (s *Specifier) IsEmpty() bool {
	return s == nil
}

// Depth returns the number of substitutions in the chain.
func (s *Specifier) Depth() int {
	n := 0
	for p := s; p != nil; p = p.parent {
		n++
	}
	return n
}

// DeriveSpecifier computes the specifier for the contents of array cell
// item when the array was reached under parent.
func DeriveSpecifier(parent *Specifier, item *Cell) *Specifier {
	switch b := item.BindingOf().(type) {
	case Relative:
		return parent
	case Specific:
		if t := b.Context.Template(); t != nil {
			return parent.With(t, b.Context)
		}
		return Specified
	default:
		return Specified
	}
}
