package loader_test

import (
	"strings"
	"testing"

	"github.com/thomasrohde/wordbind/pkg/diagnostics"
	"github.com/thomasrohde/wordbind/pkg/loader"
	"github.com/thomasrohde/wordbind/pkg/symbol"
	"github.com/thomasrohde/wordbind/pkg/value"
)

func mustLoad(t *testing.T, source string) *value.Array {
	t.Helper()
	arr, diags := loader.Load(source, "test.wb", symbol.NewTable())
	if len(diags) > 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	return arr
}

// ---- 1. Scalars ----

func TestScalars(t *testing.T) {
	arr := mustLoad(t, `1 -2 2.5 "s" _`)
	if arr.Len() != 5 {
		t.Fatalf("expected 5 cells, got %d", arr.Len())
	}
	if c := arr.Cells[0]; c.Kind != value.KindInteger || c.Int != 1 {
		t.Errorf("cell 0: got %v %d", c.Kind, c.Int)
	}
	if c := arr.Cells[1]; c.Kind != value.KindInteger || c.Int != -2 {
		t.Errorf("cell 1: got %v %d", c.Kind, c.Int)
	}
	if c := arr.Cells[2]; c.Kind != value.KindDecimal || c.Dec != 2.5 {
		t.Errorf("cell 2: got %v %v", c.Kind, c.Dec)
	}
	if c := arr.Cells[3]; c.Kind != value.KindString || c.Str != "s" {
		t.Errorf("cell 3: got %v %q", c.Kind, c.Str)
	}
	if c := arr.Cells[4]; c.Kind != value.KindBlank {
		t.Errorf("cell 4: got %v", c.Kind)
	}
}

// ---- 2. Words ----

func TestWordKinds(t *testing.T) {
	arr := mustLoad(t, `a b: :c /d`)
	want := []value.Kind{value.KindWord, value.KindSetWord, value.KindGetWord, value.KindRefinement}
	names := []string{"a", "b", "c", "d"}
	for i, k := range want {
		c := arr.Cells[i]
		if c.Kind != k {
			t.Errorf("cell %d: expected %v, got %v", i, k, c.Kind)
		}
		if c.Symbol.String() != names[i] {
			t.Errorf("cell %d: expected %s, got %s", i, names[i], c.Symbol)
		}
		if c.IsBound() {
			t.Errorf("cell %d: loaded words must be unbound", i)
		}
	}
}

func TestWordsShareCanon(t *testing.T) {
	arr := mustLoad(t, `Foo foo FOO:`)
	canon := arr.Cells[0].Canon()
	for i, c := range arr.Cells {
		if c.Canon() != canon {
			t.Errorf("cell %d: canon differs", i)
		}
	}
}

func TestQuotes(t *testing.T) {
	arr := mustLoad(t, `'a ''b '[c] 1`)
	if q := arr.Cells[0].Quotes; q != 1 {
		t.Errorf("expected 1 quote, got %d", q)
	}
	if !arr.Cells[0].IsQuotedWord() {
		t.Error("expected a quoted word")
	}
	if q := arr.Cells[1].Quotes; q != 2 {
		t.Errorf("expected 2 quotes, got %d", q)
	}
	if c := arr.Cells[2]; c.Kind != value.KindBlock || c.Quotes != 1 {
		t.Errorf("expected quoted block, got %v quoted %d", c.Kind, c.Quotes)
	}
	if arr.Cells[3].Quotes != 0 {
		t.Error("quotes must not leak to the next value")
	}
}

// ---- 3. Nesting ----

func TestNestedArrays(t *testing.T) {
	arr := mustLoad(t, "a [b (c\n[d])] e")
	if arr.Len() != 3 {
		t.Fatalf("expected 3 cells, got %d", arr.Len())
	}
	blk := arr.Cells[1]
	if blk.Kind != value.KindBlock || blk.Array.Len() != 2 {
		t.Fatalf("expected block of 2, got %v", blk.Kind)
	}
	grp := blk.Array.Cells[1]
	if grp.Kind != value.KindGroup || grp.Array.Len() != 2 {
		t.Fatalf("expected group of 2, got %v", grp.Kind)
	}
	inner := grp.Array.Cells[1]
	if inner.Array.Line != 2 {
		t.Errorf("expected inner block on line 2, got %d", inner.Array.Line)
	}
	if inner.Array.File != "test.wb" {
		t.Errorf("expected file test.wb, got %q", inner.Array.File)
	}
}

func TestEmptyInput(t *testing.T) {
	arr := mustLoad(t, "  ; nothing\n")
	if arr.Len() != 0 {
		t.Errorf("expected empty array, got %d cells", arr.Len())
	}
}

// ---- 4. Errors ----

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		source string
		code   string
		msg    string
	}{
		{`[a b`, diagnostics.EParse, "missing ]"},
		{`(a`, diagnostics.EParse, "missing )"},
		{`a ]`, diagnostics.EParse, "unexpected ]"},
		{`[a)]`, diagnostics.EParse, "unexpected )"},
		{`'`, diagnostics.ELex, "quote"},
		{`99999999999999999999`, diagnostics.EParse, "out of range"},
		{`"open`, diagnostics.ELex, "unterminated"},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			arr, diags := loader.Load(tt.source, "test.wb", symbol.NewTable())
			if arr != nil {
				t.Errorf("expected nil array on error")
			}
			if len(diags) == 0 {
				t.Fatal("expected diagnostics")
			}
			if diags[0].Code != tt.code {
				t.Errorf("expected %s, got %s", tt.code, diags[0].Code)
			}
			if !strings.Contains(diags[0].Message, tt.msg) {
				t.Errorf("expected message containing %q, got %q", tt.msg, diags[0].Message)
			}
		})
	}
}

func TestQuoteBeforeCloser(t *testing.T) {
	_, diags := loader.Load(`[a ']`, "test.wb", symbol.NewTable())
	if len(diags) == 0 {
		t.Fatal("expected diagnostics")
	}
	if !strings.Contains(diags[0].Message, "after quote") {
		t.Errorf("unexpected message %q", diags[0].Message)
	}
}
