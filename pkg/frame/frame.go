// Package frame is a minimal call-frame stack: the part of an evaluator
// that supplies live specifiers for relative bindings.
package frame

import (
	"github.com/thomasrohde/wordbind/pkg/diagnostics"
	"github.com/thomasrohde/wordbind/pkg/value"
)

// DefaultMaxDepth bounds the number of nested calls.
const DefaultMaxDepth = 1024

// Frame is one call in progress.
type Frame struct {
	Action  *value.Action
	Binding value.Binding // binding of the action cell that was called
	Context *value.Context

	fulfilling bool
}

// IsFulfilling reports whether the frame's arguments are still being
// gathered. Until Finish is called its slots are not final.
func (f *Frame) IsFulfilling() bool { return f.fulfilling }

// Finish marks the argument list complete.
func (f *Frame) Finish() { f.fulfilling = false }

// SetArg stores argument i (1-based). Only allowed while fulfilling.
func (f *Frame) SetArg(i int, v value.Cell) error {
	if !f.fulfilling {
		return diagnostics.Errorf(diagnostics.EProtected, f.Context.Key(i).Symbol.String(),
			"arguments of %s are already fulfilled", f.Action.Name)
	}
	*f.Context.Var(i) = v
	return nil
}

// Specifier maps the action's template to this frame's context.
func (f *Frame) Specifier() *value.Specifier {
	return value.Specify(f.Action.Template, f.Context)
}

// Body returns the action body as a block viewed through this frame. Copies
// taken of it resolve relative words to the frame's slots.
func (f *Frame) Body() value.Cell {
	b := value.Block(f.Action.Body)
	b.Binding = value.Specific{Context: f.Context}
	return b
}

// Get resolves word for reading. A word bound to an ancestor of the object
// the action was called through resolves in that object instead, so
// methods inherited by a derived object see the derived object's fields.
func (f *Frame) Get(word *value.Cell, spec *value.Specifier) (*value.Cell, error) {
	ctx, i, err := value.ResolveContext(word.BindingOf(), spec)
	if err != nil {
		name := word.Symbol.String()
		return nil, diagnostics.Errorf(diagnostics.EUnbound, name, "%s is not bound", name)
	}
	return f.override(ctx).Var(i), nil
}

// Set assigns through word, honoring the same override as Get. Protection
// is checked on the slot actually written.
func (f *Frame) Set(word *value.Cell, spec *value.Specifier, v value.Cell) error {
	name := word.Symbol.String()
	ctx, i, err := value.ResolveContext(word.BindingOf(), spec)
	if err != nil {
		return diagnostics.Errorf(diagnostics.EUnbound, name, "%s is not bound", name)
	}
	target := f.override(ctx)
	slot := target.Var(i)
	if target.Key(i).Flags&value.KeyProtected != 0 || slot.Flags&value.CellProtected != 0 {
		return diagnostics.Errorf(diagnostics.EProtected, name, "%s is protected in %s", name, target.Label())
	}
	*slot = v
	return nil
}

func (f *Frame) override(ctx *value.Context) *value.Context {
	s, ok := f.Binding.(value.Specific)
	if !ok || s.Context == ctx {
		return ctx
	}
	if value.Overrides(ctx, s.Context) {
		return s.Context
	}
	return ctx
}

// Stack holds the frames of calls in progress, innermost last.
type Stack struct {
	frames   []*Frame
	maxDepth int
}

// NewStack creates an empty stack. maxDepth <= 0 means DefaultMaxDepth.
func NewStack(maxDepth int) *Stack {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &Stack{maxDepth: maxDepth}
}

// Push starts a call of act through a cell bound as binding. The new frame
// is fulfilling with every argument unset.
func (s *Stack) Push(act *value.Action, binding value.Binding) (*Frame, error) {
	if len(s.frames) >= s.maxDepth {
		return nil, diagnostics.Errorf(diagnostics.EOverflow, act.Name, "call depth exceeds %d", s.maxDepth)
	}
	if binding == nil {
		binding = value.Unbound{}
	}
	f := &Frame{
		Action:     act,
		Binding:    binding,
		Context:    value.NewFrame(act.Template),
		fulfilling: true,
	}
	s.frames = append(s.frames, f)
	return f, nil
}

// Pop ends the innermost call. Popping an empty stack is a defect.
func (s *Stack) Pop() *Frame {
	if len(s.frames) == 0 {
		diagnostics.Invariant(diagnostics.ERange, "pop of empty frame stack")
	}
	f := s.frames[len(s.frames)-1]
	s.frames = s.frames[:len(s.frames)-1]
	return f
}

// Top returns the innermost frame, or nil.
func (s *Stack) Top() *Frame {
	if len(s.frames) == 0 {
		return nil
	}
	return s.frames[len(s.frames)-1]
}

// Depth returns the number of calls in progress.
func (s *Stack) Depth() int { return len(s.frames) }

// Specifier returns the innermost frame's specifier, or the empty one.
func (s *Stack) Specifier() *value.Specifier {
	if f := s.Top(); f != nil {
		return f.Specifier()
	}
	return value.Specified
}
