package bind

import (
	"reflect"

	"github.com/chazu/tether/sys"
)

// Box is the kind of a host value that owns a native value of type U.
// A box carries the type tag of the process that created it.
type Box[U any] struct{}

func (Box[U]) kindName() string {
	return "bind.Box[" + reflect.TypeFor[U]().String() + "]"
}

// matches checks the type tag before the Go type: a box from another
// addon instance may hold a value of a type that merely looks the same.
func (Box[U]) matches(c *Cx, l sys.Local) (bool, error) {
	ok, err := c.typeIs(l, sys.TypeExternal)
	if err != nil || !ok {
		return false, err
	}
	ok, st := c.env().CheckObjectTypeTag(l, c.scope.stack.tag)
	if err := check("check_object_type_tag", st); err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	data, st := c.env().ExternalValue(l)
	if err := check("get_value_external", st); err != nil {
		return false, err
	}
	_, ok = data.(*boxed[U])
	return ok, nil
}

// boxed is what the host holds for a Box[U].
type boxed[U any] struct {
	v U
}

// Finalizer is implemented by boxed values that need to release
// resources when the host collects their box.
type Finalizer interface {
	Finalize()
}

func finalizeBoxed[U any](data any) {
	b, ok := data.(*boxed[U])
	if !ok {
		return
	}
	if f, ok := any(b.v).(Finalizer); ok {
		f.Finalize()
	}
}

// BoxValue hands v to the host and returns a handle to the box. The box
// is stamped with the process type tag; if tagging fails no handle is
// returned.
func BoxValue[U any](cx Context, v U) (Handle[Box[U]], error) {
	c := cx.core()
	c.live("box")
	env := c.env()
	l, st := env.External(&boxed[U]{v: v}, finalizeBoxed[U])
	if err := check("create_external", st); err != nil {
		return Handle[Box[U]]{}, err
	}
	if err := check("type_tag_object", env.TypeTagObject(l, c.scope.stack.tag)); err != nil {
		return Handle[Box[U]]{}, err
	}
	return newHandle[Box[U]](c.scope, l), nil
}

// Unbox returns the native value in the box h refers to. The type tag
// and the Go type are verified on every call.
func Unbox[U any](cx Context, h Ref) (U, error) {
	var zero U
	c := cx.core()
	l := c.use("unbox", h)
	var k Box[U]
	ok, err := k.matches(c, l)
	if err != nil {
		return zero, err
	}
	if !ok {
		return zero, &DowncastError{Expected: k.kindName(), Actual: c.describe(l)}
	}
	data, st := c.env().ExternalValue(l)
	if err := check("get_value_external", st); err != nil {
		return zero, err
	}
	return data.(*boxed[U]).v, nil
}
