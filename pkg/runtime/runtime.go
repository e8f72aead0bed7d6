// Package runtime provides the top-level wordbind orchestrator: a shared
// lib context, a user context bound incrementally against it, and the
// object, function and loop constructions built on the binding engine.
package runtime

import (
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/thomasrohde/wordbind/pkg/binder"
	"github.com/thomasrohde/wordbind/pkg/config"
	"github.com/thomasrohde/wordbind/pkg/diagnostics"
	"github.com/thomasrohde/wordbind/pkg/formatter"
	"github.com/thomasrohde/wordbind/pkg/frame"
	"github.com/thomasrohde/wordbind/pkg/loader"
	"github.com/thomasrohde/wordbind/pkg/symbol"
	"github.com/thomasrohde/wordbind/pkg/value"
)

// Runtime wires the binding engine to a lib and a user context.
type Runtime struct {
	log   logrus.FieldLogger
	cfg   *config.Config
	tbl   *symbol.Table
	lib   *value.Context
	user  *value.Context
	stack *frame.Stack

	// interning is created by the first BindUser and lives until Close.
	interning *binder.Binder
	closed    bool
}

// Option is a functional option for configuring the Runtime.
type Option func(*Runtime)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l logrus.FieldLogger) Option {
	return func(rt *Runtime) {
		rt.log = l
	}
}

// WithConfig sets the configuration.
func WithConfig(c *config.Config) Option {
	return func(rt *Runtime) {
		rt.cfg = c
	}
}

// WithTable sets the symbol table words are interned in.
func WithTable(t *symbol.Table) Option {
	return func(rt *Runtime) {
		rt.tbl = t
	}
}

// WithLib shares an existing lib context.
func WithLib(lib *value.Context) Option {
	return func(rt *Runtime) {
		rt.lib = lib
	}
}

// New creates a new Runtime with the given options.
func New(opts ...Option) *Runtime {
	rt := &Runtime{
		cfg: config.Default(),
		tbl: symbol.Default(),
	}
	for _, opt := range opts {
		opt(rt)
	}
	if rt.log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		rt.log = l
	}
	if rt.lib == nil {
		rt.lib = value.NewContext(value.ModuleContext, 0)
		rt.lib.Name = "lib"
	}
	rt.user = value.NewContext(value.ModuleContext, 0)
	rt.user.Name = "user"
	rt.stack = frame.NewStack(0)
	return rt
}

// Lib returns the shared lib context.
func (rt *Runtime) Lib() *value.Context { return rt.lib }

// User returns the user context.
func (rt *Runtime) User() *value.Context { return rt.user }

// Table returns the symbol table.
func (rt *Runtime) Table() *symbol.Table { return rt.tbl }

// Stack returns the call-frame stack.
func (rt *Runtime) Stack() *frame.Stack { return rt.stack }

// Config returns the configuration in effect.
func (rt *Runtime) Config() *config.Config { return rt.cfg }

// Load parses source into an unbound array.
func (rt *Runtime) Load(source, filename string) (*value.Array, error) {
	arr, diags := loader.Load(source, filename, rt.tbl)
	if len(diags) > 0 {
		return nil, &DiagnosticError{Diagnostics: diags}
	}
	return arr, nil
}

// Format parses and reformats source.
func (rt *Runtime) Format(source, filename string) (string, error) {
	arr, err := rt.Load(source, filename)
	if err != nil {
		return "", err
	}
	return formatter.Format(arr, formatter.Options{}), nil
}

// Mold renders arr, annotating bindings if the configuration asks for it.
func (rt *Runtime) Mold(arr *value.Array) string {
	return formatter.Format(arr, formatter.Options{ShowBindings: rt.cfg.ShowBindings})
}

// Close shuts the interning binder down. It reports an error if the binder
// no longer agrees with the user and lib contexts.
func (rt *Runtime) Close() error {
	if rt.closed {
		return nil
	}
	rt.closed = true
	if rt.interning == nil {
		return nil
	}
	err := binder.ShutdownInterning(rt.interning, rt.user, rt.lib)
	rt.interning = nil
	return errors.Wrap(err, "closing runtime")
}

func (rt *Runtime) checkOpen() error {
	if rt.closed {
		return diagnostics.Errorf(diagnostics.ELeak, "", "runtime is closed")
	}
	return nil
}

// DiagnosticError wraps diagnostics as an error.
type DiagnosticError struct {
	Diagnostics []diagnostics.Diagnostic
}

func (e *DiagnosticError) Error() string {
	msgs := make([]string, len(e.Diagnostics))
	for i, d := range e.Diagnostics {
		msgs[i] = fmt.Sprintf("%s: %s", d.Code, d.Message)
	}
	return strings.Join(msgs, "; ")
}
