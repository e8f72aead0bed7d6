// Package loader turns source text into arrays of cells.
package loader

import (
	"fmt"
	"strconv"

	"github.com/thomasrohde/wordbind/pkg/diagnostics"
	"github.com/thomasrohde/wordbind/pkg/lexer"
	"github.com/thomasrohde/wordbind/pkg/symbol"
	"github.com/thomasrohde/wordbind/pkg/value"
)

type loader struct {
	tokens []lexer.Token
	pos    int
	tbl    *symbol.Table
	diags  []diagnostics.Diagnostic
}

// Load tokenizes source and builds the top-level array. Words are interned
// in tbl (the process-wide table if nil) and come back unbound.
func Load(source, filename string, tbl *symbol.Table) (*value.Array, []diagnostics.Diagnostic) {
	tokens, err := lexer.Tokenize(source, filename)
	if err != nil {
		if le, ok := err.(*lexer.LexError); ok {
			return nil, []diagnostics.Diagnostic{le.Diag}
		}
		return nil, []diagnostics.Diagnostic{diagnostics.MakeDiag(diagnostics.ELex, err.Error(), nil, "")}
	}
	if tbl == nil {
		tbl = symbol.Default()
	}

	l := &loader{tokens: tokens, tbl: tbl}
	arr := l.loadSequence(lexer.TokEOF, l.current().Span)
	if len(l.diags) > 0 {
		return nil, l.diags
	}
	return arr, nil
}

func (l *loader) current() lexer.Token {
	if l.pos >= len(l.tokens) {
		return l.tokens[len(l.tokens)-1] // EOF
	}
	return l.tokens[l.pos]
}

func (l *loader) advance() lexer.Token {
	tok := l.current()
	if l.pos < len(l.tokens)-1 {
		l.pos++
	}
	return tok
}

func (l *loader) addError(msg string, span diagnostics.Span) {
	l.diags = append(l.diags, diagnostics.MakeDiag(diagnostics.EParse, msg, &span, ""))
}

// loadSequence reads values until closer. The opening token, if any, has
// already been consumed; start is its span.
func (l *loader) loadSequence(closer lexer.TokenType, start diagnostics.Span) *value.Array {
	arr := &value.Array{File: start.File, Line: start.StartLine}
	for {
		tok := l.current()
		switch tok.Type {
		case closer:
			if closer != lexer.TokEOF {
				l.advance()
			}
			return arr
		case lexer.TokEOF:
			l.addError(fmt.Sprintf("missing %s to close %s opened at line %d",
				closer, opener(closer), start.StartLine), tok.Span)
			return arr
		case lexer.TokRBracket, lexer.TokRParen:
			l.addError(fmt.Sprintf("unexpected %s", tok.Type), tok.Span)
			l.advance()
			continue
		}
		cell, ok := l.loadValue()
		if !ok {
			return arr
		}
		arr.Cells = append(arr.Cells, cell)
	}
}

func opener(closer lexer.TokenType) lexer.TokenType {
	if closer == lexer.TokRParen {
		return lexer.TokLParen
	}
	return lexer.TokLBracket
}

// loadValue reads one value with any quote marks in front of it.
func (l *loader) loadValue() (value.Cell, bool) {
	quotes := 0
	for l.current().Type == lexer.TokQuote {
		quotes++
		l.advance()
	}

	tok := l.advance()
	var cell value.Cell
	switch tok.Type {
	case lexer.TokWord:
		cell = value.Word(value.KindWord, l.tbl.Intern(tok.Value))
	case lexer.TokSetWord:
		cell = value.Word(value.KindSetWord, l.tbl.Intern(tok.Value))
	case lexer.TokGetWord:
		cell = value.Word(value.KindGetWord, l.tbl.Intern(tok.Value))
	case lexer.TokRefinement:
		cell = value.Word(value.KindRefinement, l.tbl.Intern(tok.Value))
	case lexer.TokIntLit:
		n, err := strconv.ParseInt(tok.Value, 10, 64)
		if err != nil {
			l.addError(fmt.Sprintf("integer out of range: %s", tok.Value), tok.Span)
			return value.Cell{}, false
		}
		cell = value.Integer(n)
	case lexer.TokFloatLit:
		f, err := strconv.ParseFloat(tok.Value, 64)
		if err != nil {
			l.addError(fmt.Sprintf("invalid decimal: %s", tok.Value), tok.Span)
			return value.Cell{}, false
		}
		cell = value.Decimal(f)
	case lexer.TokStringLit:
		cell = value.String(tok.Value)
	case lexer.TokBlank:
		cell = value.Blank()
	case lexer.TokLBracket:
		cell = value.Block(l.loadSequence(lexer.TokRBracket, tok.Span))
	case lexer.TokLParen:
		cell = value.Group(l.loadSequence(lexer.TokRParen, tok.Span))
	default:
		l.addError(fmt.Sprintf("expected a value after quote, got %s", tok.Type), tok.Span)
		return value.Cell{}, false
	}
	return value.Quoted(cell, quotes), true
}
