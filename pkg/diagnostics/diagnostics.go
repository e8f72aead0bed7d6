// Package diagnostics defines the error codes and diagnostic types shared by
// the loader, the binding engine and the CLI.
package diagnostics

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Diagnostic code constants.
const (
	ELex       = "E_LEX"
	EParse     = "E_PARSE"
	EConfig    = "E_CONFIG"
	EUnbound   = "E_UNBOUND_WORD"
	ELoopSpec  = "E_INVALID_LOOP_SPEC"
	EDupLoop   = "E_DUP_LOOP_VAR"
	EDupKey    = "E_DUP_KEY"
	EDupVar    = "E_DUP_VAR"
	EOverflow  = "E_STACK_OVERFLOW"
	ENotInCtx  = "E_NOT_IN_CONTEXT"
	EProtected = "E_PROTECTED"
	EFixed     = "E_FIXED_CONTEXT"
	ENoRel     = "E_NO_RELATIVE"
	ELeak      = "E_BINDER_LEAK"
	ERange     = "E_INDEX_RANGE"
	EType      = "E_TYPE"
	EIO        = "E_IO"
	EInternal  = "E_INTERNAL"
)

// Span represents a source location range.
type Span struct {
	File      string `json:"file"`
	StartLine int    `json:"startLine"`
	StartCol  int    `json:"startCol"`
	EndLine   int    `json:"endLine"`
	EndCol    int    `json:"endCol"`
}

// Diagnostic represents a load or binding diagnostic.
type Diagnostic struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Span    *Span  `json:"span,omitempty"`
	Hint    string `json:"hint,omitempty"`
}

// MakeDiag creates a new Diagnostic.
func MakeDiag(code, message string, span *Span, hint string) Diagnostic {
	return Diagnostic{
		Code:    code,
		Message: message,
		Span:    span,
		Hint:    hint,
	}
}

// FormatDiagnostic formats a single diagnostic for display.
func FormatDiagnostic(d Diagnostic, pretty bool) string {
	if !pretty {
		b, _ := json.Marshal(d)
		return string(b)
	}
	loc := "<unknown>"
	if d.Span != nil {
		loc = fmt.Sprintf("%s:%d:%d", d.Span.File, d.Span.StartLine, d.Span.StartCol)
	}
	out := fmt.Sprintf("error[%s]: %s\n  --> %s", d.Code, d.Message, loc)
	if d.Hint != "" {
		out += fmt.Sprintf("\n  hint: %s", d.Hint)
	}
	return out
}

// FormatDiagnostics formats a slice of diagnostics for display.
func FormatDiagnostics(diags []Diagnostic, pretty bool) string {
	if !pretty {
		b, _ := json.Marshal(diags)
		return string(b)
	}
	parts := make([]string, len(diags))
	for i, d := range diags {
		parts[i] = FormatDiagnostic(d, true)
	}
	return strings.Join(parts, "\n\n")
}

// Error is a failure raised by the binding engine. Symbol names the
// offending word when there is one.
type Error struct {
	Code    string
	Message string
	Symbol  string
	Span    *Span
}

func (e *Error) Error() string {
	return e.Message
}

// Diag converts the error into a Diagnostic for display.
func (e *Error) Diag() Diagnostic {
	return MakeDiag(e.Code, e.Message, e.Span, "")
}

// Errorf builds an *Error with a formatted message.
func Errorf(code, symbol, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Symbol:  symbol,
	}
}

// Invariant panics with an *Error. Used for internal-invariant violations
// that must fail fast rather than be recovered.
func Invariant(code, format string, args ...any) {
	panic(Errorf(code, "", format, args...))
}

// CodeOf returns the code of the first *Error found in err's chain, or "".
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// Is reports whether err carries the given code.
func Is(err error, code string) bool {
	return err != nil && CodeOf(err) == code
}
