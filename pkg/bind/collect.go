package bind

import (
	"github.com/thomasrohde/wordbind/pkg/binder"
	"github.com/thomasrohde/wordbind/pkg/diagnostics"
	"github.com/thomasrohde/wordbind/pkg/symbol"
	"github.com/thomasrohde/wordbind/pkg/value"
)

// CollectMode selects which words Collect gathers.
type CollectMode uint8

const (
	// CollectSetWords gathers set-words only. It is the zero mode.
	CollectSetWords CollectMode = 0
	// CollectAnyWord gathers every kind of word.
	CollectAnyWord CollectMode = 1 << iota
	// CollectDeep descends into blocks and groups.
	CollectDeep
	// CollectNoDup fails on a name gathered twice.
	CollectNoDup
)

// Collect returns the distinct symbols of the words in cells, in order of
// first appearance. Keys already present in prior (which may be nil) are
// skipped, so the result is exactly what a context derived from prior
// would need to append. maxDepth bounds nesting under CollectDeep; zero
// means clonify.DefaultMaxDepth.
func Collect(cells []value.Cell, prior *value.Context, mode CollectMode, maxDepth int) ([]*symbol.Symbol, error) {
	b := binder.New()
	defer b.Release()

	if prior != nil {
		for i, k := range prior.Keys() {
			b.TryAdd(k.Symbol, i+1)
		}
	}

	limit := depthOr(maxDepth)
	c := &collector{b: b, mode: mode, limit: limit, remaining: limit}
	if err := c.walk(cells); err != nil {
		return nil, err
	}
	return c.out, nil
}

type collector struct {
	b         *binder.Binder
	mode      CollectMode
	limit     int
	remaining int
	out       []*symbol.Symbol
}

func (c *collector) walk(cells []value.Cell) error {
	for i := range cells {
		v := &cells[i]
		switch {
		case v.IsWord() && c.wants(v):
			if c.b.TryAdd(v.Symbol, -(len(c.out) + 1)) {
				c.out = append(c.out, v.Symbol)
				continue
			}
			if c.mode&CollectNoDup != 0 {
				return diagnostics.Errorf(diagnostics.EDupVar, v.Symbol.String(), "duplicate variable: %s", v.Symbol)
			}

		case v.IsArray() && c.mode&CollectDeep != 0:
			if c.remaining <= 0 {
				return overflow(c.limit)
			}
			c.remaining--
			err := c.walk(v.At())
			c.remaining++
			if err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *collector) wants(v *value.Cell) bool {
	if c.mode&CollectAnyWord != 0 {
		return true
	}
	return v.Kind == value.KindSetWord
}
