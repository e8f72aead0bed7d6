package bind_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thomasrohde/wordbind/pkg/bind"
	"github.com/thomasrohde/wordbind/pkg/diagnostics"
	"github.com/thomasrohde/wordbind/pkg/value"
)

func TestVirtualBindFreshVariables(t *testing.T) {
	bl := newBuilder()
	body := block(bl.word("x"), bl.word("y"), block(bl.word("x")), bl.word("z"))
	original := body.Array

	ctx, err := bind.VirtualBind(&body, block(bl.word("x"), bl.word("y")), value.Specified, 0)
	require.NoError(t, err)
	require.NotNil(t, ctx)

	assert.NotSame(t, original, body.Array, "body is replaced by a copy")
	assert.True(t, ctx.IsFixed())
	assert.Equal(t, 2, ctx.Len())

	*ctx.Var(1) = value.Integer(1)
	*ctx.Var(2) = value.Integer(2)

	x, err := value.GetVar(&body.Array.Cells[0], value.Specified)
	require.NoError(t, err)
	assert.Equal(t, int64(1), x.Int)
	y, err := value.GetVar(&body.Array.Cells[1], value.Specified)
	require.NoError(t, err)
	assert.Equal(t, int64(2), y.Int)
	nested, err := value.GetVar(&body.Array.Cells[2].Array.Cells[0], value.Specified)
	require.NoError(t, err)
	assert.Equal(t, int64(1), nested.Int)
	assert.False(t, body.Array.Cells[3].IsBound())

	for _, c := range original.Cells[:2] {
		assert.False(t, c.IsBound(), "the original body is untouched")
	}
	assert.False(t, original.Cells[2].Array.Cells[0].IsBound())
}

func TestVirtualBindCopiesFromReadPosition(t *testing.T) {
	bl := newBuilder()
	body := block(bl.word("skip"), bl.word("x"))
	body.Index = 1

	_, err := bind.VirtualBind(&body, bl.word("x"), value.Specified, 0)
	require.NoError(t, err)
	require.Equal(t, 1, body.Array.Len())
	assert.Equal(t, 0, body.Index)
	assert.True(t, body.Array.Cells[0].IsBound())
}

func TestVirtualBindDuplicatePlainWords(t *testing.T) {
	bl := newBuilder()
	body := block(bl.word("x"))

	ctx, err := bind.VirtualBind(&body, block(bl.word("x"), bl.word("x")), value.Specified, 0)
	require.Error(t, err)
	assert.True(t, diagnostics.Is(err, diagnostics.EDupLoop))

	var de *diagnostics.Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "x", de.Symbol)

	require.NotNil(t, ctx, "the context is returned alongside the error")
	assert.Equal(t, 2, ctx.Len(), "every slot is populated")
	assert.False(t, body.Array.Cells[0].IsBound(), "nothing is bound after a duplicate")
}

func TestVirtualBindPlainAndQuotedCollide(t *testing.T) {
	bl := newBuilder()

	for name, vars := range map[string]value.Cell{
		"plain first":  block(bl.word("x"), bl.quoted("x")),
		"quoted first": block(bl.quoted("x"), bl.word("x")),
	} {
		t.Run(name, func(t *testing.T) {
			body := block(bl.word("x"))
			_, err := bind.VirtualBind(&body, vars, value.Specified, 0)
			require.Error(t, err)
			assert.True(t, diagnostics.Is(err, diagnostics.EDupLoop))
		})
	}
}

func TestVirtualBindQuotedOnlyDoesNotCopy(t *testing.T) {
	bl := newBuilder()
	target := bl.object("x")
	existing := bl.word("x")
	existing.Binding = value.Specific{Context: target, Index: 1}
	quoted := value.Quoted(existing, 1)

	body := block(bl.word("x"))
	original := body.Array

	ctx, err := bind.VirtualBind(&body, block(quoted, quoted), value.Specified, 0)
	require.NoError(t, err, "repeating a quoted word is not a duplicate")
	assert.Same(t, original, body.Array)
	assert.False(t, body.Array.Cells[0].IsBound())

	require.Equal(t, 2, ctx.Len())
	key := ctx.Key(1)
	assert.True(t, key.Has(value.KeyUnbindable))
	assert.True(t, key.Has(value.KeyHidden))

	slot := ctx.Var(1)
	assert.Equal(t, value.CellProtected|value.CellReused, slot.Flags)
	assert.Equal(t, 1, slot.Quotes)
	c, i := specificTo(t, *slot)
	assert.Same(t, target, c)
	assert.Equal(t, 1, i)
}

func TestVirtualBindQuotedWordIsNotBoundIntoBody(t *testing.T) {
	bl := newBuilder()
	outer := bl.object("y")
	y := bl.word("y")
	y.Binding = value.Specific{Context: outer, Index: 1}

	body := block(bl.word("x"), y)
	ctx, err := bind.VirtualBind(&body, block(bl.word("x"), value.Quoted(y, 1)), value.Specified, 0)
	require.NoError(t, err)

	c, _ := specificTo(t, body.Array.Cells[0])
	assert.Same(t, ctx, c)
	c, _ = specificTo(t, body.Array.Cells[1])
	assert.Same(t, outer, c, "the reused word keeps its own binding")
}

func TestVirtualBindRejectsBadSpecs(t *testing.T) {
	bl := newBuilder()

	cases := map[string]value.Cell{
		"empty block":  block(),
		"integer":      block(bl.word("a"), value.Integer(3)),
		"set-word":     block(bl.set("a")),
		"double quote": block(value.Quoted(bl.word("a"), 2)),
		"string":       value.String("a"),
	}
	for name, vars := range cases {
		t.Run(name, func(t *testing.T) {
			body := block(bl.word("a"))
			ctx, err := bind.VirtualBind(&body, vars, value.Specified, 0)
			require.Error(t, err)
			assert.Nil(t, ctx)
			assert.True(t, diagnostics.Is(err, diagnostics.ELoopSpec))
		})
	}
}

func TestVirtualBindRelativeQuotedItem(t *testing.T) {
	bl := newBuilder()
	tmpl := value.NewTemplate("f", value.Key{Symbol: bl.tbl.Intern("n")})
	frame := value.NewFrame(tmpl)

	n := bl.word("n")
	n.Binding = value.Relative{Template: tmpl, Index: 1}
	vars := block(value.Quoted(n, 1))
	vars.Binding = value.Relative{Template: tmpl}

	body := block()
	ctx, err := bind.VirtualBind(&body, vars, value.Specify(tmpl, frame), 0)
	require.NoError(t, err)

	c, i := specificTo(t, *ctx.Var(1))
	assert.Same(t, frame, c)
	assert.Equal(t, 1, i)
}
