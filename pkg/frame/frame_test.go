package frame_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thomasrohde/wordbind/pkg/bind"
	"github.com/thomasrohde/wordbind/pkg/clonify"
	"github.com/thomasrohde/wordbind/pkg/diagnostics"
	"github.com/thomasrohde/wordbind/pkg/frame"
	"github.com/thomasrohde/wordbind/pkg/symbol"
	"github.com/thomasrohde/wordbind/pkg/value"
)

func newAction(t *testing.T, tbl *symbol.Table, name string, params []string, body ...value.Cell) *value.Action {
	t.Helper()
	keys := make([]value.Key, len(params))
	for i, p := range params {
		keys[i] = value.Key{Symbol: tbl.Intern(p)}
	}
	blk := value.Block(value.NewArray(body...))
	act, err := bind.NewAction(name, value.NewTemplate(name, keys...), &blk)
	require.NoError(t, err)
	return act
}

func TestPushFulfillPop(t *testing.T) {
	tbl := symbol.NewTable()
	act := newAction(t, tbl, "f", []string{"a"}, value.Word(value.KindWord, tbl.Intern("a")))

	st := frame.NewStack(0)
	assert.True(t, st.Specifier().IsEmpty())

	f, err := st.Push(act, nil)
	require.NoError(t, err)
	assert.True(t, f.IsFulfilling())
	assert.Equal(t, 1, st.Depth())
	require.NoError(t, f.SetArg(1, value.Integer(3)))
	f.Finish()
	assert.False(t, f.IsFulfilling())

	err = f.SetArg(1, value.Integer(4))
	assert.True(t, diagnostics.Is(err, diagnostics.EProtected))

	got, err := f.Get(&act.Body.Cells[0], st.Specifier())
	require.NoError(t, err)
	assert.Equal(t, int64(3), got.Int)

	assert.Same(t, f, st.Pop())
	assert.Nil(t, st.Top())
	assert.Panics(t, func() { st.Pop() })
}

func TestRecursiveFramesAreIndependent(t *testing.T) {
	tbl := symbol.NewTable()
	act := newAction(t, tbl, "f", []string{"n"}, value.Word(value.KindWord, tbl.Intern("n")))
	st := frame.NewStack(0)

	outer, err := st.Push(act, nil)
	require.NoError(t, err)
	require.NoError(t, outer.SetArg(1, value.Integer(1)))
	outer.Finish()

	inner, err := st.Push(act, nil)
	require.NoError(t, err)
	require.NoError(t, inner.SetArg(1, value.Integer(2)))
	inner.Finish()

	word := &act.Body.Cells[0]
	v, err := inner.Get(word, inner.Specifier())
	require.NoError(t, err)
	assert.Equal(t, int64(2), v.Int)
	v, err = outer.Get(word, outer.Specifier())
	require.NoError(t, err)
	assert.Equal(t, int64(1), v.Int, "one body serves both calls")
}

func TestBodyCopiesThroughFrame(t *testing.T) {
	tbl := symbol.NewTable()
	act := newAction(t, tbl, "f", []string{"a"}, value.Block(value.NewArray(value.Word(value.KindWord, tbl.Intern("a")))))
	st := frame.NewStack(0)
	f, err := st.Push(act, nil)
	require.NoError(t, err)

	body := f.Body()
	copied, err := clonify.CopyBlock(&body, value.Specified, clonify.DeepArrays())
	require.NoError(t, err)
	assert.Equal(t, value.Specific{Context: f.Context, Index: 1}, copied.Cells[0].Array.Cells[0].Binding)
}

func TestStackOverflow(t *testing.T) {
	tbl := symbol.NewTable()
	act := newAction(t, tbl, "f", nil)
	st := frame.NewStack(2)

	_, err := st.Push(act, nil)
	require.NoError(t, err)
	_, err = st.Push(act, nil)
	require.NoError(t, err)
	_, err = st.Push(act, nil)
	assert.True(t, diagnostics.Is(err, diagnostics.EOverflow))
}

func TestMethodSeesDerivedObject(t *testing.T) {
	tbl := symbol.NewTable()
	base := value.NewContext(value.ObjectContext, 1)
	base.Name = "base"
	_, err := base.AppendKey(value.Key{Symbol: tbl.Intern("name")}, value.String("base"))
	require.NoError(t, err)
	derived := base.Derive("derived")
	*derived.Var(1) = value.String("derived")
	unrelated := value.NewContext(value.ObjectContext, 0)

	name := value.Word(value.KindWord, tbl.Intern("name"))
	name.Binding = value.Specific{Context: base, Index: 1}
	act := newAction(t, tbl, "describe", nil, name)
	st := frame.NewStack(0)

	f, err := st.Push(act, value.Specific{Context: derived})
	require.NoError(t, err)
	got, err := f.Get(&act.Body.Cells[0], f.Specifier())
	require.NoError(t, err)
	assert.Equal(t, "derived", got.Str)

	require.NoError(t, f.Set(&act.Body.Cells[0], f.Specifier(), value.String("renamed")))
	assert.Equal(t, "renamed", derived.Var(1).Str)
	assert.Equal(t, "base", base.Var(1).Str)
	st.Pop()

	g, err := st.Push(act, value.Specific{Context: unrelated})
	require.NoError(t, err)
	got, err = g.Get(&act.Body.Cells[0], g.Specifier())
	require.NoError(t, err)
	assert.Equal(t, "base", got.Str, "no override without derivation")
}

func TestMethodCannotWriteProtectedDerivedField(t *testing.T) {
	tbl := symbol.NewTable()
	base := value.NewContext(value.ObjectContext, 1)
	_, err := base.AppendKey(value.Key{Symbol: tbl.Intern("x")}, value.Integer(1))
	require.NoError(t, err)

	x := value.Word(value.KindWord, tbl.Intern("x"))
	x.Binding = value.Specific{Context: base, Index: 1}
	act := newAction(t, tbl, "m", nil, x)
	st := frame.NewStack(0)

	tests := []struct {
		name    string
		protect func(*value.Context)
	}{
		{"protected key", func(c *value.Context) { c.SetKeyFlags(1, value.KeyProtected) }},
		{"protected slot", func(c *value.Context) { c.Var(1).Flags |= value.CellProtected }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			derived := base.Derive("derived")
			*derived.Var(1) = value.Integer(2)
			tt.protect(derived)

			f, err := st.Push(act, value.Specific{Context: derived})
			require.NoError(t, err)
			defer st.Pop()

			err = f.Set(&act.Body.Cells[0], f.Specifier(), value.Integer(99))
			assert.True(t, diagnostics.Is(err, diagnostics.EProtected), "got %v", err)
			assert.Equal(t, int64(2), derived.Var(1).Int)
			assert.Equal(t, int64(1), base.Var(1).Int)
		})
	}
}

func TestSetUnbound(t *testing.T) {
	tbl := symbol.NewTable()
	act := newAction(t, tbl, "f", nil, value.Word(value.KindWord, tbl.Intern("free")))
	st := frame.NewStack(0)
	f, err := st.Push(act, nil)
	require.NoError(t, err)

	err = f.Set(&act.Body.Cells[0], f.Specifier(), value.Integer(1))
	assert.True(t, diagnostics.Is(err, diagnostics.EUnbound))
}

func TestGetUnbound(t *testing.T) {
	tbl := symbol.NewTable()
	act := newAction(t, tbl, "f", nil, value.Word(value.KindWord, tbl.Intern("free")))
	st := frame.NewStack(0)
	f, err := st.Push(act, nil)
	require.NoError(t, err)

	_, err = f.Get(&act.Body.Cells[0], f.Specifier())
	assert.True(t, diagnostics.Is(err, diagnostics.EUnbound))
}
