package bind

import (
	"github.com/thomasrohde/wordbind/pkg/binder"
	"github.com/thomasrohde/wordbind/pkg/clonify"
	"github.com/thomasrohde/wordbind/pkg/value"
)

// CopyAndBindRelative deep-copies body and binds the copy relative to t.
// Words whose canon names a key of t become Relative(t, index), whatever
// binding they had. Every nested array of the copy is marked Relative(t, 0)
// so later copies know to resolve its contents through a frame of t.
//
// Relative bindings in body itself are resolved through nothing: a body
// adopted by a new function is not assumed to run under any other call.
func CopyAndBindRelative(body *value.Cell, t *value.Template, bindTypes value.Typeset) (*value.Array, error) {
	copied, err := clonify.CopyBlock(body, value.Specified, clonify.DeepArrays())
	if err != nil {
		return nil, err
	}

	b := binder.New()
	defer b.Release()
	for i, k := range t.Keys() {
		b.Add(k.Symbol, i+1)
	}

	relativize(b, copied.Cells, t, bindTypes)
	return copied, nil
}

// The copy has already passed the depth guard, so recursion here is bounded.
func relativize(b *binder.Binder, cells []value.Cell, t *value.Template, bindTypes value.Typeset) {
	for i := range cells {
		v := &cells[i]
		switch {
		case v.IsWord() && bindTypes.Has(v.Kind):
			if n := b.LookupOr0(v.Symbol); n != 0 {
				v.Binding = value.Relative{Template: t, Index: n}
			}
		case v.IsArray() && v.Array != nil:
			relativize(b, v.Array.Cells, t, bindTypes)
			v.Binding = value.Relative{Template: t}
		}
	}
}

// NewAction builds an action whose body is a relativized copy of body.
func NewAction(name string, t *value.Template, body *value.Cell) (*value.Action, error) {
	arr, err := CopyAndBindRelative(body, t, value.TSWord)
	if err != nil {
		return nil, err
	}
	return &value.Action{Name: name, Template: t, Body: arr}, nil
}

// CopyAction clones act under a fresh template with the same keys. The
// body is rerelativized so frames of the copy and of act never mix.
func CopyAction(act *value.Action, name string) *value.Action {
	t := value.NewTemplate(name, act.Template.Keys()...)
	return &value.Action{
		Name:     name,
		Template: t,
		Body:     clonify.Rerelativize(act.Body, act.Template, t),
	}
}
