package runtime

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/thomasrohde/wordbind/pkg/bind"
	"github.com/thomasrohde/wordbind/pkg/clonify"
	"github.com/thomasrohde/wordbind/pkg/diagnostics"
	"github.com/thomasrohde/wordbind/pkg/frame"
	"github.com/thomasrohde/wordbind/pkg/value"
)

func (rt *Runtime) copyOptions() clonify.Options {
	return clonify.Options{Types: value.TSArray, Deep: true, MaxDepth: rt.cfg.MaxDepth}
}

// Construct builds an object from spec without evaluating it: each
// set-word (or run of set-words) takes the value that follows, a get-word
// value is fetched first, and a quoted value loses one quote.
//
// With a parent, the object derives from it. Inherited blocks are copied
// and everything bound to the parent, actions included, is rebound to the
// new object, so inherited methods see its fields.
func (rt *Runtime) Construct(parent *value.Context, name string, spec *value.Array) (*value.Context, error) {
	var ctx *value.Context
	if parent == nil {
		ctx = value.NewContext(value.ObjectContext, 0)
		ctx.Name = name
	} else {
		if parent.Kind() == value.FrameContext {
			return nil, diagnostics.Errorf(diagnostics.EType, "", "cannot derive an object from frame %s", parent.Label())
		}
		ctx = parent.Derive(name)
		if err := rt.adoptInherited(parent, ctx); err != nil {
			return nil, err
		}
	}

	syms, err := bind.Collect(spec.Cells, ctx, bind.CollectSetWords, rt.cfg.MaxDepth)
	if err != nil {
		return nil, err
	}
	for _, s := range syms {
		if _, err := ctx.Append(s); err != nil {
			return nil, err
		}
	}

	body, err := clonify.CopyArray(spec, 0, spec.Len(), value.Specified, rt.copyOptions())
	if err != nil {
		return nil, errors.Wrapf(err, "constructing %s", name)
	}
	if err := bind.Values(body.Cells, ctx, bind.Options{
		BindTypes: value.TSWord,
		Deep:      true,
		MaxDepth:  rt.cfg.MaxDepth,
	}); err != nil {
		return nil, errors.Wrapf(err, "constructing %s", name)
	}
	if err := assignPairs(body.Cells, value.Specified); err != nil {
		return nil, err
	}

	rt.log.WithFields(logrus.Fields{
		"object": ctx.Label(),
		"parent": parent.Label(),
		"keys":   ctx.Len(),
	}).Debug("object constructed")
	return ctx, nil
}

func (rt *Runtime) adoptInherited(parent, ctx *value.Context) error {
	inherited := &value.Array{Cells: make([]value.Cell, ctx.Len())}
	for i := range inherited.Cells {
		inherited.Cells[i] = *ctx.Var(i + 1)
	}
	copied, err := clonify.CopyArray(inherited, 0, inherited.Len(), value.Specified, rt.copyOptions())
	if err != nil {
		return err
	}
	if err := bind.Rebind(copied.Cells, parent, ctx, nil, rt.cfg.MaxDepth); err != nil {
		return err
	}
	for i := range copied.Cells {
		*ctx.Var(i + 1) = copied.Cells[i]
	}
	return nil
}

// assignPairs stores values through the set-words of cells.
func assignPairs(cells []value.Cell, spec *value.Specifier) error {
	isSet := func(c *value.Cell) bool { return c.Kind == value.KindSetWord && c.Quotes == 0 }

	for i := 0; i < len(cells); i++ {
		if !isSet(&cells[i]) {
			continue
		}
		j := i
		for j < len(cells) && isSet(&cells[j]) {
			j++
		}

		val := value.Null()
		if j < len(cells) {
			val = cells[j]
			switch {
			case val.Kind == value.KindGetWord && val.Quotes == 0:
				src, err := value.GetVar(&cells[j], spec)
				if err != nil {
					return err
				}
				val = *src
				val.Flags = 0
			case val.Quotes > 0:
				val.Quotes--
			}
		}

		for k := i; k < j; k++ {
			slot, err := value.MutableVar(&cells[k], spec)
			if err != nil {
				return err
			}
			*slot = val
		}
		i = j
	}
	return nil
}

// MakeFunction creates an action whose parameters are the plain words of
// params. The body is copied and bound relative to the new template, so
// every call shares it.
func (rt *Runtime) MakeFunction(name string, params *value.Array, body value.Cell) (*value.Action, error) {
	for i := range params.Cells {
		if p := &params.Cells[i]; !p.IsPlainWord() {
			sym := ""
			if p.IsWord() {
				sym = p.Symbol.String()
			}
			return nil, diagnostics.Errorf(diagnostics.EType, sym, "parameter %d of %s must be a plain word, got %s", i+1, name, p.Kind)
		}
	}
	syms, err := bind.Collect(params.Cells, nil, bind.CollectAnyWord|bind.CollectNoDup, rt.cfg.MaxDepth)
	if err != nil {
		return nil, errors.Wrapf(err, "parameters of %s", name)
	}
	keys := make([]value.Key, len(syms))
	for i, s := range syms {
		keys[i] = value.Key{Symbol: s}
	}

	act, err := bind.NewAction(name, value.NewTemplate(name, keys...), &body)
	if err != nil {
		return nil, errors.Wrapf(err, "making %s", name)
	}
	rt.log.WithFields(logrus.Fields{"action": name, "params": len(keys)}).Debug("function created")
	return act, nil
}

// Method makes a function whose free words bind to obj and stores it in
// obj under name. The returned action cell is bound to obj, so objects
// derived from obj later rebind it to themselves.
func (rt *Runtime) Method(obj *value.Context, name string, params *value.Array, body value.Cell) (value.Cell, error) {
	if obj.Kind() == value.FrameContext {
		return value.Cell{}, diagnostics.Errorf(diagnostics.EType, name, "cannot add method %s to a frame", name)
	}
	copied, err := clonify.CopyBlock(&body, value.Specified, rt.copyOptions())
	if err != nil {
		return value.Cell{}, err
	}
	if err := bind.Deep(copied.Cells, obj); err != nil {
		return value.Cell{}, err
	}

	act, err := rt.MakeFunction(name, params, value.Block(copied))
	if err != nil {
		return value.Cell{}, err
	}
	cell := value.ActionValue(act)
	cell.Binding = value.Specific{Context: obj}

	sym := rt.tbl.Intern(name)
	if i := obj.Find(sym); i != 0 {
		*obj.Var(i) = cell
	} else if _, err := obj.AppendKey(value.Key{Symbol: sym}, cell); err != nil {
		return value.Cell{}, err
	}
	return cell, nil
}

// Call runs fn with args on a new frame. run sees the frame once its
// arguments are fulfilled; the frame is popped when run returns.
func (rt *Runtime) Call(fn value.Cell, args []value.Cell, run func(f *frame.Frame) error) error {
	if fn.Kind != value.KindAction || fn.Action == nil {
		return diagnostics.Errorf(diagnostics.EType, "", "cannot call a %s", fn.Kind)
	}
	act := fn.Action
	if len(args) != act.Template.Len() {
		return diagnostics.Errorf(diagnostics.EType, "", "%s expects %d arguments, got %d", act.Name, act.Template.Len(), len(args))
	}

	f, err := rt.stack.Push(act, fn.BindingOf())
	if err != nil {
		return err
	}
	defer rt.stack.Pop()

	for i, a := range args {
		if err := f.SetArg(i+1, a); err != nil {
			return err
		}
	}
	f.Finish()
	return run(f)
}
