package runtime

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/thomasrohde/wordbind/pkg/bind"
	"github.com/thomasrohde/wordbind/pkg/binder"
	"github.com/thomasrohde/wordbind/pkg/diagnostics"
	"github.com/thomasrohde/wordbind/pkg/value"
)

// LoadLib adds the top-level set-words of source to lib and assigns them
// the values that follow. It must run before the first BindUser: lib is
// fixed once user code has been bound against it.
func (rt *Runtime) LoadLib(source, filename string) error {
	if err := rt.checkOpen(); err != nil {
		return err
	}
	arr, err := rt.Load(source, filename)
	if err != nil {
		return err
	}
	if err := bind.SetMidstreamShallow(arr.Cells, rt.lib); err != nil {
		return errors.Wrapf(err, "loading lib from %s", filename)
	}
	if err := bind.Deep(arr.Cells, rt.lib); err != nil {
		return errors.Wrapf(err, "loading lib from %s", filename)
	}
	if err := assignPairs(arr.Cells, value.Specified); err != nil {
		return err
	}
	rt.log.WithFields(logrus.Fields{"file": filename, "keys": rt.lib.Len()}).Debug("lib loaded")
	return nil
}

// BindUser binds arr into the user context, deep, in document order.
//
// A word already in user binds there. A word only lib has is imported:
// it gets a user slot holding a copy of lib's value. A set-word nobody
// has gets a new user slot, and later uses of that name bind to it. Any
// other word is left unbound; the count of those is returned.
func (rt *Runtime) BindUser(arr *value.Array) (int, error) {
	if err := rt.checkOpen(); err != nil {
		return 0, err
	}
	if rt.interning == nil {
		rt.interning = binder.InitInterning(rt.user, rt.lib)
		rt.lib.SetFixed()
	}
	u := &userBinder{rt: rt, remaining: rt.cfg.MaxDepth}
	if err := u.bind(arr.Cells); err != nil {
		return u.unbound, err
	}
	return u.unbound, nil
}

// BindSource loads source and binds it into the user context.
func (rt *Runtime) BindSource(source, filename string) (*value.Array, int, error) {
	arr, err := rt.Load(source, filename)
	if err != nil {
		return nil, 0, err
	}
	n, err := rt.BindUser(arr)
	if err != nil {
		return arr, n, errors.Wrapf(err, "binding %s", filename)
	}
	return arr, n, nil
}

type userBinder struct {
	rt        *Runtime
	remaining int
	unbound   int
}

func (u *userBinder) bind(cells []value.Cell) error {
	rt := u.rt
	for i := range cells {
		v := &cells[i]
		switch {
		case v.IsWord():
			n := rt.interning.LookupOr0(v.Symbol)
			switch {
			case n > 0:
			case n < 0:
				idx, err := binder.Import(rt.interning, v.Symbol, rt.user, rt.lib)
				if err != nil {
					return err
				}
				rt.log.WithFields(logrus.Fields{"word": v.Symbol.String(), "index": idx}).Debug("imported from lib")
				n = idx
			case v.Kind == value.KindSetWord:
				idx, err := rt.user.Append(v.Symbol)
				if err != nil {
					return err
				}
				rt.interning.Add(v.Symbol, idx)
				n = idx
			default:
				u.unbound++
				continue
			}
			v.Binding = value.Specific{Context: rt.user, Index: n}

		case v.IsArray():
			if u.remaining <= 0 {
				return diagnostics.Errorf(diagnostics.EOverflow, "", "binding nesting exceeds %d levels", rt.cfg.MaxDepth)
			}
			u.remaining--
			err := u.bind(v.At())
			u.remaining++
			if err != nil {
				return err
			}
		}
	}
	return nil
}
