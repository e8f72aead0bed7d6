package value

import (
	"github.com/thomasrohde/wordbind/pkg/diagnostics"
	"github.com/thomasrohde/wordbind/pkg/symbol"
)

// KeyFlags describe how a context key participates in binding.
type KeyFlags uint8

const (
	KeyUnbindable KeyFlags = 1 << iota // never found by binding lookups
	KeyHidden                          // not shown when enumerating
	KeyProtected                       // variable may not be written
)

// Key names one slot of a Context or one parameter of a Template.
type Key struct {
	Symbol *symbol.Symbol
	Flags  KeyFlags
}

// Canon returns the key's canonical symbol.
func (k Key) Canon() *symbol.Symbol {
	return k.Symbol.Canon()
}

// Has reports whether all of f are set.
func (k Key) Has(f KeyFlags) bool {
	return k.Flags&f == f
}

// ContextKind distinguishes frames from other environments.
type ContextKind uint8

const (
	ObjectContext ContextKind = iota
	FrameContext
	ModuleContext
)

var contextKindNames = [...]string{
	ObjectContext: "object",
	FrameContext:  "frame",
	ModuleContext: "module",
}

func (k ContextKind) String() string { return contextKindNames[k] }

// Context is an ordered, 1-indexed sequence of keys paired with variable
// slots.
type Context struct {
	Name string

	kind     ContextKind
	keys     []Key
	vars     []Cell
	ancestor *Context
	template *Template
	fixed    bool
}

// NewContext creates an empty context with room for capacity keys.
func NewContext(kind ContextKind, capacity int) *Context {
	return &Context{
		kind: kind,
		keys: make([]Key, 0, capacity),
		vars: make([]Cell, 0, capacity),
	}
}

// NewFrame creates the variable storage for one call of a function with
// template t. Every slot starts unset.
func NewFrame(t *Template) *Context {
	c := NewContext(FrameContext, t.Len())
	c.Name = t.Name
	c.template = t
	for _, k := range t.keys {
		c.keys = append(c.keys, k)
		c.vars = append(c.vars, Null())
	}
	c.fixed = true
	return c
}

// Kind returns the context kind.
func (c *Context) Kind() ContextKind { return c.kind }

// Len returns the number of keys.
func (c *Context) Len() int { return len(c.keys) }

// Template returns the function template a frame was created for.
func (c *Context) Template() *Template { return c.template }

// Ancestor returns the context this one was derived from.
func (c *Context) Ancestor() *Context { return c.ancestor }

// IsFixed reports whether the context refuses to grow. Set once anything
// holds index-based references into the slots across arbitrary work.
func (c *Context) IsFixed() bool { return c.fixed }

// SetFixed marks the context non-relocatable.
func (c *Context) SetFixed() { c.fixed = true }

// Label names the context for display.
func (c *Context) Label() string {
	if c == nil {
		return "<nil>"
	}
	if c.Name != "" {
		return c.Name
	}
	return c.kind.String()
}

// Key returns key i (1-based).
func (c *Context) Key(i int) Key {
	c.checkIndex(i)
	return c.keys[i-1]
}

// Keys returns a copy of the keys in order.
func (c *Context) Keys() []Key {
	out := make([]Key, len(c.keys))
	copy(out, c.keys)
	return out
}

// Var returns a pointer to slot i (1-based). The pointer is invalidated by
// Append unless the context is fixed.
func (c *Context) Var(i int) *Cell {
	c.checkIndex(i)
	return &c.vars[i-1]
}

// SetKeyFlags adds flags to key i.
func (c *Context) SetKeyFlags(i int, f KeyFlags) {
	c.checkIndex(i)
	c.keys[i-1].Flags |= f
}

func (c *Context) checkIndex(i int) {
	if i < 1 || i > len(c.keys) {
		diagnostics.Invariant(diagnostics.ERange, "index %d out of range for %s of length %d", i, c.Label(), len(c.keys))
	}
}

// Find returns the index of the first bindable key whose canon matches
// sym, or 0. A linear scan, for one-off lookups not worth a Binder.
func (c *Context) Find(sym *symbol.Symbol) int {
	canon := sym.Canon()
	for i, k := range c.keys {
		if k.Flags&KeyUnbindable != 0 {
			continue
		}
		if k.Canon() == canon {
			return i + 1
		}
	}
	return 0
}

// Append extends the context by one key with an unset slot and returns
// its index.
func (c *Context) Append(sym *symbol.Symbol) (int, error) {
	return c.AppendKey(Key{Symbol: sym}, Null())
}

// AppendKey extends the context by one key holding val.
func (c *Context) AppendKey(key Key, val Cell) (int, error) {
	if c.fixed {
		return 0, diagnostics.Errorf(diagnostics.EFixed, key.Symbol.String(),
			"cannot add %s: %s cannot grow while its slots are referenced", key.Symbol, c.Label())
	}
	c.keys = append(c.keys, key)
	c.vars = append(c.vars, val)
	return len(c.keys), nil
}

// Derive creates a context inheriting c's keys and (shallow) values. The
// result overrides c, and every context c overrides.
func (c *Context) Derive(name string) *Context {
	d := NewContext(c.kind, len(c.keys))
	d.Name = name
	d.keys = append(d.keys, c.keys...)
	d.vars = append(d.vars, c.vars...)
	d.ancestor = c
	return d
}

// CopyShallow creates an independent context with the same keys and a
// copy of the slots. It shares c's ancestry but does not override c.
func (c *Context) CopyShallow() *Context {
	d := NewContext(c.kind, len(c.keys))
	d.Name = c.Name
	d.keys = append(d.keys, c.keys...)
	d.vars = append(d.vars, c.vars...)
	d.ancestor = c.ancestor
	d.template = c.template
	return d
}

// Overrides reports whether override is stored itself or derived from it.
// Frames neither override nor are overridden: they cannot be derived.
func Overrides(stored, override *Context) bool {
	if stored == nil || override == nil {
		return false
	}
	if stored.kind == FrameContext || override.kind == FrameContext {
		return false
	}
	for t := override; t != nil; t = t.ancestor {
		if t == stored {
			return true
		}
	}
	return false
}

// Template is the parameter list of a function: keys with no storage. It is
// the target identity of Relative bindings in the function's body.
type Template struct {
	Name string
	keys []Key
}

// NewTemplate creates a template from keys.
func NewTemplate(name string, keys ...Key) *Template {
	return &Template{Name: name, keys: keys}
}

// Len returns the number of parameters.
func (t *Template) Len() int { return len(t.keys) }

// Key returns parameter i (1-based).
func (t *Template) Key(i int) Key {
	if i < 1 || i > len(t.keys) {
		diagnostics.Invariant(diagnostics.ERange, "parameter %d out of range for %s", i, t.Label())
	}
	return t.keys[i-1]
}

// Keys returns a copy of the parameters in order.
func (t *Template) Keys() []Key {
	out := make([]Key, len(t.keys))
	copy(out, t.keys)
	return out
}

// Label names the template for display.
func (t *Template) Label() string {
	if t == nil {
		return "<nil>"
	}
	if t.Name != "" {
		return t.Name
	}
	return "fn"
}

// Action is a function whose Body is relativized against Template.
type Action struct {
	Name     string
	Template *Template
	Body     *Array
}

// Resolve returns the slot a binding refers to. Specific bindings ignore
// the specifier; Relative bindings require it to map their template.
func Resolve(b Binding, spec *Specifier) (*Cell, error) {
	ctx, i, err := target(b, spec)
	if err != nil {
		return nil, err
	}
	return ctx.Var(i), nil
}

// GetVar resolves a word to its variable for reading.
func GetVar(word *Cell, spec *Specifier) (*Cell, error) {
	ctx, i, err := target(word.BindingOf(), spec)
	if err != nil {
		return nil, unboundWord(word)
	}
	return ctx.Var(i), nil
}

// MutableVar resolves a word to its variable for writing, failing if the
// key or the slot is protected.
func MutableVar(word *Cell, spec *Specifier) (*Cell, error) {
	ctx, i, err := target(word.BindingOf(), spec)
	if err != nil {
		return nil, unboundWord(word)
	}
	v := ctx.Var(i)
	if ctx.Key(i).Flags&KeyProtected != 0 || v.Flags&CellProtected != 0 {
		return nil, diagnostics.Errorf(diagnostics.EProtected, word.Symbol.String(),
			"%s is protected in %s", word.Symbol, ctx.Label())
	}
	return v, nil
}

// ResolveContext returns the context and index a binding refers to.
func ResolveContext(b Binding, spec *Specifier) (*Context, int, error) {
	return target(b, spec)
}

func target(b Binding, spec *Specifier) (*Context, int, error) {
	switch b := b.(type) {
	case Specific:
		return b.Context, b.Index, nil
	case Relative:
		ctx, ok := spec.Lookup(b.Template)
		if !ok {
			diagnostics.Invariant(diagnostics.ENoRel, "relative binding to %s has no specifier", b.Template.Label())
		}
		return ctx, b.Index, nil
	default:
		return nil, 0, diagnostics.Errorf(diagnostics.EUnbound, "", "word is not bound")
	}
}

func unboundWord(word *Cell) error {
	name := word.Symbol.String()
	return diagnostics.Errorf(diagnostics.EUnbound, name, "%s is not bound", name)
}
