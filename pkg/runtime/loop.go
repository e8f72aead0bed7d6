package runtime

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/thomasrohde/wordbind/pkg/bind"
	"github.com/thomasrohde/wordbind/pkg/value"
)

// LoopFunc runs one iteration. body is the loop body bound to ctx.
type LoopFunc func(ctx *value.Context, body value.Cell) error

// ForEach binds body to the variables vars names and calls fn once per
// group of values taken from data, len(vars) at a time. The last group is
// padded with nulls. A variable given as a quoted word is assigned
// through that word's own binding instead of a fresh slot.
//
// The caller's body is never modified.
func (rt *Runtime) ForEach(ctx context.Context, vars value.Cell, data *value.Array, body value.Cell, fn LoopFunc) error {
	loop, err := bind.VirtualBind(&body, vars, rt.stack.Specifier(), rt.cfg.MaxDepth)
	if err != nil {
		return err
	}
	rt.log.WithFields(logrus.Fields{"vars": loop.Len(), "items": data.Len()}).Debug("loop context created")

	n := loop.Len()
	for at := 0; at < data.Len(); at += n {
		if err := ctx.Err(); err != nil {
			return err
		}
		for i := 1; i <= n; i++ {
			v := value.Null()
			if at+i-1 < data.Len() {
				v = data.Cells[at+i-1]
			}
			if err := setLoopVar(loop, i, v); err != nil {
				return err
			}
		}
		if err := fn(loop, body); err != nil {
			return err
		}
	}
	return nil
}

// Use binds body to fresh variables and calls fn once.
func (rt *Runtime) Use(vars value.Cell, body value.Cell, fn LoopFunc) error {
	loop, err := bind.VirtualBind(&body, vars, rt.stack.Specifier(), rt.cfg.MaxDepth)
	if err != nil {
		return err
	}
	return fn(loop, body)
}

// setLoopVar assigns slot i of a loop context. A reused slot holds a
// quoted word; the value goes where that word is bound.
func setLoopVar(loop *value.Context, i int, v value.Cell) error {
	slot := loop.Var(i)
	if slot.Flags&value.CellReused == 0 {
		// Fresh loop slots are never protected.
		*slot = v
		return nil
	}
	word := *slot
	word.Quotes--
	word.Flags = 0
	target, err := value.MutableVar(&word, value.Specified)
	if err != nil {
		return err
	}
	*target = v
	return nil
}
