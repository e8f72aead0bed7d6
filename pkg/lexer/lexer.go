// Package lexer implements the tokenizer for the word notation.
package lexer

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/thomasrohde/wordbind/pkg/diagnostics"
)

// TokenType identifies the type of a lexer token.
type TokenType int

const (
	// Words
	TokWord       TokenType = iota // a
	TokSetWord                     // a:
	TokGetWord                     // :a
	TokRefinement                  // /a

	// Literals
	TokIntLit
	TokFloatLit
	TokStringLit
	TokBlank // _

	// Punctuation
	TokLBracket // [
	TokRBracket // ]
	TokLParen   // (
	TokRParen   // )
	TokQuote    // '

	// Special
	TokEOF
)

var tokenNames = [...]string{
	TokWord:       "word",
	TokSetWord:    "set-word",
	TokGetWord:    "get-word",
	TokRefinement: "refinement",
	TokIntLit:     "integer",
	TokFloatLit:   "decimal",
	TokStringLit:  "string",
	TokBlank:      "blank",
	TokLBracket:   "[",
	TokRBracket:   "]",
	TokLParen:     "(",
	TokRParen:     ")",
	TokQuote:      "'",
	TokEOF:        "end of input",
}

func (t TokenType) String() string {
	if int(t) < len(tokenNames) {
		return tokenNames[t]
	}
	return fmt.Sprintf("token(%d)", int(t))
}

// Token represents a single lexer token. For words Value is the spelling
// without its sigil.
type Token struct {
	Type  TokenType
	Value string
	Span  diagnostics.Span
}

type scanner struct {
	source   string
	filename string
	pos      int
	line     int
	col      int
}

func newScanner(source, filename string) *scanner {
	return &scanner{
		source:   source,
		filename: filename,
		pos:      0,
		line:     1,
		col:      1,
	}
}

func (s *scanner) atEnd() bool {
	return s.pos >= len(s.source)
}

func (s *scanner) peek() byte {
	if s.atEnd() {
		return 0
	}
	return s.source[s.pos]
}

func (s *scanner) peekAt(offset int) byte {
	p := s.pos + offset
	if p >= len(s.source) {
		return 0
	}
	return s.source[p]
}

func (s *scanner) advance() byte {
	ch := s.source[s.pos]
	s.pos++
	if ch == '\n' {
		s.line++
		s.col = 1
	} else {
		s.col++
	}
	return ch
}

func (s *scanner) span(startLine, startCol int) diagnostics.Span {
	return diagnostics.Span{
		File:      s.filename,
		StartLine: startLine,
		StartCol:  startCol,
		EndLine:   s.line,
		EndCol:    s.col,
	}
}

func (s *scanner) skipWhitespaceAndComments() {
	for !s.atEnd() {
		ch := s.peek()
		if ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n' {
			s.advance()
		} else if ch == ';' {
			for !s.atEnd() && s.peek() != '\n' {
				s.advance()
			}
		} else {
			break
		}
	}
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

// isDelimiter reports whether ch ends a word or number.
func isDelimiter(ch byte) bool {
	switch ch {
	case 0, ' ', '\t', '\r', '\n', '[', ']', '(', ')', '"', ';':
		return true
	}
	return false
}

func isWordPunct(r rune) bool {
	return strings.ContainsRune("-_?!*+=<>~&|.", r)
}

// isWordStart reports whether the rune at the scanner can begin a word.
func (s *scanner) isWordStart() bool {
	r, _ := utf8.DecodeRuneInString(s.source[s.pos:])
	return unicode.IsLetter(r) || isWordPunct(r)
}

func (s *scanner) scanString() (Token, error) {
	startLine, startCol := s.line, s.col
	s.advance() // consume opening "

	var buf strings.Builder
	for !s.atEnd() {
		ch := s.peek()
		if ch == '"' {
			s.advance() // consume closing "
			return Token{
				Type:  TokStringLit,
				Value: buf.String(),
				Span:  s.span(startLine, startCol),
			}, nil
		}
		if ch == '\\' {
			s.advance() // consume backslash
			if s.atEnd() {
				return Token{}, s.lexError(startLine, startCol, "unterminated string escape")
			}
			esc := s.advance()
			switch esc {
			case '"':
				buf.WriteByte('"')
			case '\\':
				buf.WriteByte('\\')
			case 'n':
				buf.WriteByte('\n')
			case 'r':
				buf.WriteByte('\r')
			case 't':
				buf.WriteByte('\t')
			case 'u':
				// \uXXXX
				if s.pos+4 > len(s.source) {
					return Token{}, s.lexError(startLine, startCol, "incomplete unicode escape")
				}
				hexStr := s.source[s.pos : s.pos+4]
				codepoint, err := strconv.ParseUint(hexStr, 16, 32)
				if err != nil {
					return Token{}, s.lexError(startLine, startCol, fmt.Sprintf("invalid unicode escape: \\u%s", hexStr))
				}
				buf.WriteRune(rune(codepoint))
				for i := 0; i < 4; i++ {
					s.advance()
				}
			default:
				return Token{}, s.lexError(startLine, startCol, fmt.Sprintf("invalid escape character: \\%c", esc))
			}
		} else if ch == '\n' {
			return Token{}, s.lexError(startLine, startCol, "unterminated string literal")
		} else {
			r, size := utf8.DecodeRuneInString(s.source[s.pos:])
			if r == utf8.RuneError && size == 1 {
				return Token{}, s.lexError(startLine, startCol, "invalid UTF-8 character in string")
			}
			buf.WriteRune(r)
			for i := 0; i < size; i++ {
				s.advance()
			}
		}
	}
	return Token{}, s.lexError(startLine, startCol, "unterminated string literal")
}

func (s *scanner) scanNumber() (Token, error) {
	startLine, startCol := s.line, s.col
	startPos := s.pos
	isFloat := false

	if s.peek() == '-' || s.peek() == '+' {
		s.advance()
	}
	for !s.atEnd() && isDigit(s.peek()) {
		s.advance()
	}

	// Optional fractional part
	if s.peek() == '.' && isDigit(s.peekAt(1)) {
		isFloat = true
		s.advance() // consume '.'
		for !s.atEnd() && isDigit(s.peek()) {
			s.advance()
		}
	}

	// Optional exponent
	if s.peek() == 'e' || s.peek() == 'E' {
		isFloat = true
		s.advance() // consume e/E
		if s.peek() == '+' || s.peek() == '-' {
			s.advance()
		}
		for !s.atEnd() && isDigit(s.peek()) {
			s.advance()
		}
	}

	if !isDelimiter(s.peek()) {
		return Token{}, s.lexError(startLine, startCol, fmt.Sprintf("invalid number near %q", s.source[startPos:s.pos+1]))
	}

	text := s.source[startPos:s.pos]
	tokType := TokIntLit
	if isFloat {
		tokType = TokFloatLit
	}
	return Token{
		Type:  tokType,
		Value: text,
		Span:  s.span(startLine, startCol),
	}, nil
}

// scanName consumes word characters and returns the spelling.
func (s *scanner) scanName() (string, error) {
	startPos := s.pos
	for !s.atEnd() && !isDelimiter(s.peek()) && s.peek() != ':' && s.peek() != '/' && s.peek() != '\'' {
		r, size := utf8.DecodeRuneInString(s.source[s.pos:])
		if r == utf8.RuneError && size == 1 {
			return "", s.lexError(s.line, s.col, "invalid UTF-8 character in word")
		}
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && !isWordPunct(r) {
			return "", s.lexError(s.line, s.col, fmt.Sprintf("unexpected character %q in word", r))
		}
		for i := 0; i < size; i++ {
			s.advance()
		}
	}
	return s.source[startPos:s.pos], nil
}

func (s *scanner) scanWord() (Token, error) {
	startLine, startCol := s.line, s.col

	name, err := s.scanName()
	if err != nil {
		return Token{}, err
	}
	if name == "_" {
		return Token{Type: TokBlank, Value: name, Span: s.span(startLine, startCol)}, nil
	}

	tokType := TokWord
	if s.peek() == ':' {
		s.advance()
		tokType = TokSetWord
	}
	if !isDelimiter(s.peek()) {
		return Token{}, s.lexError(startLine, startCol, fmt.Sprintf("unexpected %q after %s", s.peek(), name))
	}
	return Token{Type: tokType, Value: name, Span: s.span(startLine, startCol)}, nil
}

// scanSigilWord handles :a and /a. A lone / is the word named "/".
func (s *scanner) scanSigilWord(tokType TokenType) (Token, error) {
	startLine, startCol := s.line, s.col
	sigil := s.advance()

	if sigil == '/' && isDelimiter(s.peek()) {
		return Token{Type: TokWord, Value: "/", Span: s.span(startLine, startCol)}, nil
	}
	if s.atEnd() || !s.isWordStart() {
		return Token{}, s.lexError(startLine, startCol, fmt.Sprintf("expected a word after '%c'", sigil))
	}
	name, err := s.scanName()
	if err != nil {
		return Token{}, err
	}
	if !isDelimiter(s.peek()) {
		return Token{}, s.lexError(startLine, startCol, fmt.Sprintf("unexpected %q after %c%s", s.peek(), sigil, name))
	}
	return Token{Type: tokType, Value: name, Span: s.span(startLine, startCol)}, nil
}

func (s *scanner) lexError(line, col int, msg string) error {
	diag := diagnostics.MakeDiag(
		diagnostics.ELex,
		msg,
		&diagnostics.Span{File: s.filename, StartLine: line, StartCol: col, EndLine: line, EndCol: col + 1},
		"",
	)
	return &LexError{Diag: diag}
}

// LexError wraps a diagnostic for lex errors.
type LexError struct {
	Diag diagnostics.Diagnostic
}

func (e *LexError) Error() string {
	return e.Diag.Message
}

func (s *scanner) nextToken() (Token, error) {
	s.skipWhitespaceAndComments()

	if s.atEnd() {
		return Token{
			Type:  TokEOF,
			Value: "",
			Span:  s.span(s.line, s.col),
		}, nil
	}

	ch := s.peek()
	startLine, startCol := s.line, s.col

	switch ch {
	case '[':
		s.advance()
		return Token{Type: TokLBracket, Value: "[", Span: s.span(startLine, startCol)}, nil
	case ']':
		s.advance()
		return Token{Type: TokRBracket, Value: "]", Span: s.span(startLine, startCol)}, nil
	case '(':
		s.advance()
		return Token{Type: TokLParen, Value: "(", Span: s.span(startLine, startCol)}, nil
	case ')':
		s.advance()
		return Token{Type: TokRParen, Value: ")", Span: s.span(startLine, startCol)}, nil
	case '\'':
		s.advance()
		if s.atEnd() || s.peek() == ' ' || s.peek() == '\n' || s.peek() == '\t' || s.peek() == '\r' {
			return Token{}, s.lexError(startLine, startCol, "quote must be followed by a value")
		}
		return Token{Type: TokQuote, Value: "'", Span: s.span(startLine, startCol)}, nil
	case ':':
		return s.scanSigilWord(TokGetWord)
	case '/':
		return s.scanSigilWord(TokRefinement)
	case '"':
		return s.scanString()
	}

	if isDigit(ch) || ((ch == '-' || ch == '+') && isDigit(s.peekAt(1))) {
		return s.scanNumber()
	}

	if s.isWordStart() {
		return s.scanWord()
	}

	r, _ := utf8.DecodeRuneInString(s.source[s.pos:])
	s.advance()
	return Token{}, s.lexError(startLine, startCol, fmt.Sprintf("unexpected character %q", r))
}

// Tokenize breaks source text into a slice of tokens ending with TokEOF.
func Tokenize(source, filename string) ([]Token, error) {
	s := newScanner(source, filename)
	var tokens []Token

	for {
		tok, err := s.nextToken()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Type == TokEOF {
			break
		}
	}

	return tokens, nil
}
