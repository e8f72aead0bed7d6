// Package formatter molds arrays back into source text.
package formatter

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/thomasrohde/wordbind/pkg/value"
)

const (
	indent   = "  "
	maxWidth = 72
)

// Options control molding.
type Options struct {
	// ShowBindings annotates every bound word with its binding, e.g.
	// a{user:3} or n{double~1}.
	ShowBindings bool
}

// Format molds a top-level array, one line per top-level set-word
// statement.
func Format(arr *value.Array, opts Options) string {
	m := molder{opts: opts}
	var lines []string
	var cur []string
	for i := range arr.Cells {
		c := &arr.Cells[i]
		if c.Kind == value.KindSetWord && c.Quotes == 0 && len(cur) > 0 {
			lines = append(lines, strings.Join(cur, " "))
			cur = nil
		}
		cur = append(cur, m.cell(c, 0))
	}
	if len(cur) > 0 {
		lines = append(lines, strings.Join(cur, " "))
	}
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}

// Mold molds a single cell.
func Mold(c value.Cell, opts Options) string {
	m := molder{opts: opts}
	return m.cell(&c, 0)
}

type molder struct {
	opts Options
}

func (m molder) cell(c *value.Cell, depth int) string {
	return strings.Repeat("'", c.Quotes) + m.unquoted(c, depth)
}

func (m molder) unquoted(c *value.Cell, depth int) string {
	switch c.Kind {
	case value.KindNull:
		return "~"
	case value.KindBlank:
		return "_"
	case value.KindLogic:
		if c.Logic {
			return "#true"
		}
		return "#false"
	case value.KindInteger:
		return strconv.FormatInt(c.Int, 10)
	case value.KindDecimal:
		return formatFloatLiteral(c.Dec)
	case value.KindString:
		return quoteString(c.Str)
	case value.KindWord, value.KindSetWord, value.KindGetWord, value.KindRefinement:
		return m.word(c)
	case value.KindBlock:
		return m.array(c, "[", "]", depth)
	case value.KindGroup:
		return m.array(c, "(", ")", depth)
	case value.KindObject, value.KindFrame:
		return formatContext(c)
	case value.KindAction:
		if c.Action == nil {
			return "#[action]"
		}
		return fmt.Sprintf("#[action %s [%s]]", c.Action.Name, keyNames(c.Action.Template.Keys()))
	}
	return fmt.Sprintf("#[%s]", c.Kind)
}

func (m molder) word(c *value.Cell) string {
	name := c.Symbol.String()
	var s string
	switch c.Kind {
	case value.KindSetWord:
		s = name + ":"
	case value.KindGetWord:
		s = ":" + name
	case value.KindRefinement:
		s = "/" + name
	default:
		s = name
	}
	if m.opts.ShowBindings && c.IsBound() {
		s += "{" + fmt.Sprint(c.BindingOf()) + "}"
	}
	return s
}

// array molds the cells from the read position. Too-wide arrays put each
// item on its own line.
func (m molder) array(c *value.Cell, open, close string, depth int) string {
	cells := c.At()
	parts := make([]string, len(cells))
	width := 0
	multiline := false
	for i := range cells {
		parts[i] = m.cell(&cells[i], depth+1)
		width += len(parts[i]) + 1
		if strings.Contains(parts[i], "\n") {
			multiline = true
		}
	}
	if !multiline && width+depth*len(indent) <= maxWidth {
		return open + strings.Join(parts, " ") + close
	}

	pad := strings.Repeat(indent, depth+1)
	var sb strings.Builder
	sb.WriteString(open)
	for _, p := range parts {
		sb.WriteString("\n")
		sb.WriteString(pad)
		sb.WriteString(p)
	}
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat(indent, depth))
	sb.WriteString(close)
	return sb.String()
}

func formatContext(c *value.Cell) string {
	if c.Context == nil {
		return fmt.Sprintf("#[%s]", c.Kind)
	}
	var visible []value.Key
	for _, k := range c.Context.Keys() {
		if !k.Has(value.KeyHidden) {
			visible = append(visible, k)
		}
	}
	return fmt.Sprintf("#[%s [%s]]", c.Kind, keyNames(visible))
}

func keyNames(keys []value.Key) string {
	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = k.Symbol.String()
	}
	return strings.Join(names, " ")
}

// quoteString escapes only what the lexer needs escaped.
func quoteString(s string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			if r < 0x20 || r == 0x7f {
				fmt.Fprintf(&sb, `\u%04x`, r)
			} else {
				sb.WriteRune(r)
			}
		}
	}
	sb.WriteByte('"')
	return sb.String()
}

func formatFloatLiteral(v float64) string {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	raw := strconv.FormatFloat(v, 'g', -1, 64)
	if !strings.ContainsAny(raw, ".eE") {
		raw += ".0"
	}
	return raw
}
