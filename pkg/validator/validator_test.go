package validator_test

import (
	"strings"
	"testing"

	"github.com/thomasrohde/wordbind/pkg/bind"
	"github.com/thomasrohde/wordbind/pkg/diagnostics"
	"github.com/thomasrohde/wordbind/pkg/loader"
	"github.com/thomasrohde/wordbind/pkg/symbol"
	"github.com/thomasrohde/wordbind/pkg/validator"
	"github.com/thomasrohde/wordbind/pkg/value"
)

// mustLoadAndValidate loads source, binds its set-words into a fresh
// object, and validates. It fatals on load errors so test cases focus on
// validator behavior.
func mustLoadAndValidate(t *testing.T, source string, opts validator.Options) []diagnostics.Diagnostic {
	t.Helper()
	tbl := symbol.NewTable()
	arr, diags := loader.Load(source, "test.wb", tbl)
	if len(diags) > 0 {
		t.Fatalf("unexpected load error: %s", diags[0].Message)
	}
	ctx := value.NewContext(value.ObjectContext, 0)
	if err := bind.SetMidstreamShallow(arr.Cells, ctx); err != nil {
		t.Fatalf("bind: %v", err)
	}
	if err := bind.Deep(arr.Cells, ctx); err != nil {
		t.Fatalf("bind: %v", err)
	}
	return validator.Validate(arr, opts)
}

// assertNoDiags asserts zero diagnostics were produced.
func assertNoDiags(t *testing.T, diags []diagnostics.Diagnostic) {
	t.Helper()
	if len(diags) != 0 {
		var msgs []string
		for _, d := range diags {
			msgs = append(msgs, d.Code+": "+d.Message)
		}
		t.Errorf("expected no diagnostics, got %d:\n  %s", len(diags), strings.Join(msgs, "\n  "))
	}
}

// assertDiagCount asserts the expected number of diagnostics.
func assertDiagCount(t *testing.T, diags []diagnostics.Diagnostic, expected int) {
	t.Helper()
	if len(diags) != expected {
		var msgs []string
		for _, d := range diags {
			msgs = append(msgs, d.Code+": "+d.Message)
		}
		t.Errorf("expected %d diagnostics, got %d:\n  %s", expected, len(diags), strings.Join(msgs, "\n  "))
	}
}

// assertHasCode asserts that at least one diagnostic with the given code exists.
func assertHasCode(t *testing.T, diags []diagnostics.Diagnostic, code string) {
	t.Helper()
	for _, d := range diags {
		if d.Code == code {
			return
		}
	}
	var codes []string
	for _, d := range diags {
		codes = append(codes, d.Code)
	}
	t.Errorf("expected diagnostic code %s, got codes: %v", code, codes)
}

// ---------------------------------------------------------------------------
// Unbound words
// ---------------------------------------------------------------------------

func TestAllBound(t *testing.T) {
	diags := mustLoadAndValidate(t, "a: 1 b: [a :a]", validator.Options{})
	assertNoDiags(t, diags)
}

func TestUnboundReportedOncePerName(t *testing.T) {
	diags := mustLoadAndValidate(t, "a: x [x X] y", validator.Options{})
	assertDiagCount(t, diags, 2)
	assertHasCode(t, diags, diagnostics.EUnbound)
	if !strings.Contains(diags[0].Message, "x") {
		t.Errorf("first diagnostic should name x, got %q", diags[0].Message)
	}
}

func TestUnboundCarriesArrayLocation(t *testing.T) {
	diags := mustLoadAndValidate(t, "a: 1\n[\n  nope\n]", validator.Options{})
	assertDiagCount(t, diags, 1)
	if diags[0].Span == nil {
		t.Fatal("expected a span")
	}
	if diags[0].Span.File != "test.wb" || diags[0].Span.StartLine != 2 {
		t.Errorf("span = %+v, want test.wb line 2", *diags[0].Span)
	}
	if diags[0].Hint == "" {
		t.Error("expected a hint for a plain word")
	}
}

func TestQuotedAndRefinementsSkipped(t *testing.T) {
	diags := mustLoadAndValidate(t, "'data /only", validator.Options{})
	assertNoDiags(t, diags)

	diags = mustLoadAndValidate(t, "'data /only", validator.Options{Quoted: true})
	assertDiagCount(t, diags, 1)
}

// ---------------------------------------------------------------------------
// Relative words
// ---------------------------------------------------------------------------

func TestRelativeWordsOutsideCall(t *testing.T) {
	tbl := symbol.NewTable()
	arr, diags := loader.Load("[n]", "test.wb", tbl)
	if len(diags) > 0 {
		t.Fatalf("unexpected load error: %s", diags[0].Message)
	}
	tmpl := value.NewTemplate("f", value.Key{Symbol: tbl.Intern("n")})
	act, err := bind.NewAction("f", tmpl, &arr.Cells[0])
	if err != nil {
		t.Fatalf("NewAction: %v", err)
	}

	got := validator.Validate(act.Body, validator.Options{})
	assertDiagCount(t, got, 1)
	assertHasCode(t, got, diagnostics.ENoRel)
}

// ---------------------------------------------------------------------------
// Limits
// ---------------------------------------------------------------------------

func TestNestingLimit(t *testing.T) {
	diags := mustLoadAndValidate(t, "a: [[[[a]]]]", validator.Options{MaxDepth: 3})
	assertHasCode(t, diags, diagnostics.EOverflow)
}
