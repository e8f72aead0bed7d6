package formatter_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thomasrohde/wordbind/pkg/bind"
	"github.com/thomasrohde/wordbind/pkg/formatter"
	"github.com/thomasrohde/wordbind/pkg/loader"
	"github.com/thomasrohde/wordbind/pkg/symbol"
	"github.com/thomasrohde/wordbind/pkg/value"
)

func load(t *testing.T, src string) *value.Array {
	t.Helper()
	arr, diags := loader.Load(src, "fmt.wb", symbol.NewTable())
	require.Empty(t, diags)
	return arr
}

func TestFormatStatementsPerLine(t *testing.T) {
	arr := load(t, `x: 1   y: [a  'b :c /d]  print y`)
	assert.Equal(t, "x: 1\ny: [a 'b :c /d] print y\n", formatter.Format(arr, formatter.Options{}))
}

func TestFormatIsStable(t *testing.T) {
	sources := []string{
		`a: "say \"hi\"\n" b: 2.5 c: 3.0 d: _ e: (f [g]) ''h`,
		`for-each [k 'v] data [print [k v]]`,
		`long: [aaaaaaaaaa bbbbbbbbbb cccccccccc dddddddddd eeeeeeeeee ffffffffff gggggggggg hhhhhhhhhh]`,
	}
	for _, src := range sources {
		once := formatter.Format(load(t, src), formatter.Options{})
		twice := formatter.Format(load(t, once), formatter.Options{})
		assert.Equal(t, once, twice, "source %q", src)
	}
}

func TestFormatBreaksWideArrays(t *testing.T) {
	arr := load(t, `[aaaaaaaaaa bbbbbbbbbb cccccccccc dddddddddd eeeeeeeeee ffffffffff gggggggggg hhhhhhhhhh]`)
	out := formatter.Format(arr, formatter.Options{})
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	require.Len(t, lines, 10)
	assert.Equal(t, "[", lines[0])
	assert.Equal(t, "  aaaaaaaaaa", lines[1])
	assert.Equal(t, "]", lines[9])
}

func TestFormatShowBindings(t *testing.T) {
	tbl := symbol.NewTable()
	arr, diags := loader.Load(`a b [a]`, "fmt.wb", tbl)
	require.Empty(t, diags)

	ctx := value.NewContext(value.ObjectContext, 1)
	ctx.Name = "user"
	_, err := ctx.Append(tbl.Intern("a"))
	require.NoError(t, err)
	require.NoError(t, bind.Deep(arr.Cells, ctx))

	out := formatter.Format(arr, formatter.Options{ShowBindings: true})
	assert.Equal(t, "a{user:1} b [a{user:1}]\n", out)
	assert.Equal(t, "a b [a]\n", formatter.Format(arr, formatter.Options{}))
}

func TestMoldScalars(t *testing.T) {
	opts := formatter.Options{}
	assert.Equal(t, "~", formatter.Mold(value.Null(), opts))
	assert.Equal(t, "#true", formatter.Mold(value.Logic(true), opts))
	assert.Equal(t, "2.0", formatter.Mold(value.Decimal(2), opts))
	assert.Equal(t, `"tab\there"`, formatter.Mold(value.String("tab\there"), opts))
	assert.Equal(t, `"\u0007"`, formatter.Mold(value.String("\a"), opts))
}

func TestMoldContextsHideHiddenKeys(t *testing.T) {
	tbl := symbol.NewTable()
	ctx := value.NewContext(value.ObjectContext, 2)
	_, err := ctx.Append(tbl.Intern("shown"))
	require.NoError(t, err)
	_, err = ctx.AppendKey(value.Key{Symbol: tbl.Intern("secret"), Flags: value.KeyHidden}, value.Null())
	require.NoError(t, err)

	assert.Equal(t, "#[object [shown]]", formatter.Mold(value.Object(ctx), formatter.Options{}))
}
