package diagnostics_test

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thomasrohde/wordbind/pkg/diagnostics"
)

func TestMakeDiag(t *testing.T) {
	span := &diagnostics.Span{File: "test.wb", StartLine: 1, StartCol: 1, EndLine: 1, EndCol: 5}
	d := diagnostics.MakeDiag(diagnostics.EParse, "unexpected token", span, "check syntax")

	assert.Equal(t, diagnostics.EParse, d.Code)
	assert.Equal(t, "unexpected token", d.Message)
}

func TestFormatDiagnosticPretty(t *testing.T) {
	span := &diagnostics.Span{File: "test.wb", StartLine: 3, StartCol: 5, EndLine: 3, EndCol: 10}
	d := diagnostics.MakeDiag(diagnostics.EUnbound, "x is not bound", span, "bind it first")

	out := diagnostics.FormatDiagnostic(d, true)
	assert.Contains(t, out, "error[E_UNBOUND_WORD]")
	assert.Contains(t, out, "test.wb:3:5")
	assert.Contains(t, out, "hint:")
}

func TestFormatDiagnosticJSON(t *testing.T) {
	d := diagnostics.MakeDiag(diagnostics.ELex, "bad token", nil, "")
	out := diagnostics.FormatDiagnostic(d, false)
	assert.Contains(t, out, `"code":"E_LEX"`)
}

func TestCodeThroughWrapping(t *testing.T) {
	base := diagnostics.Errorf(diagnostics.EDupLoop, "x", "duplicate variable: %s", "x")
	wrapped := errors.Wrap(base, "for-each")

	assert.True(t, diagnostics.Is(wrapped, diagnostics.EDupLoop))
	assert.False(t, diagnostics.Is(wrapped, diagnostics.EUnbound))
	assert.Equal(t, "", diagnostics.CodeOf(errors.New("plain")))
	assert.False(t, diagnostics.Is(nil, diagnostics.EDupLoop))

	var e *diagnostics.Error
	require.True(t, errors.As(wrapped, &e))
	assert.Equal(t, "x", e.Symbol)
}

func TestInvariantPanics(t *testing.T) {
	defer func() {
		r := recover()
		require.NotNil(t, r)
		e, ok := r.(*diagnostics.Error)
		require.True(t, ok)
		assert.Equal(t, diagnostics.EDupKey, e.Code)
	}()
	diagnostics.Invariant(diagnostics.EDupKey, "key %s already present", "a")
}
