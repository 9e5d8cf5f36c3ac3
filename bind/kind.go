package bind

import (
	"github.com/chazu/tether/sys"
)

// Kind is implemented by the marker types that name a category of host
// value. It parameterizes Handle and is checked by Downcast.
type Kind interface {
	kindName() string
	// matches reports whether l refers to a value of this kind.
	matches(c *Cx, l sys.Local) (bool, error)
}

// Any is the kind of every host value.
type Any struct{}

// Undefined is the kind of the host's undefined value.
type Undefined struct{}

// Null is the kind of the host's null value.
type Null struct{}

// Boolean is the kind of host booleans.
type Boolean struct{}

// Number is the kind of host numbers.
type Number struct{}

// String is the kind of host strings.
type String struct{}

// Object is the kind of host objects, including arrays, errors and
// functions.
type Object struct{}

// Array is the kind of host arrays.
type Array struct{}

// Function is the kind of host functions.
type Function struct{}

// Error is the kind of host error objects.
type Error struct{}

func (Any) kindName() string       { return "any" }
func (Undefined) kindName() string { return "undefined" }
func (Null) kindName() string      { return "null" }
func (Boolean) kindName() string   { return "boolean" }
func (Number) kindName() string    { return "number" }
func (String) kindName() string    { return "string" }
func (Object) kindName() string    { return "object" }
func (Array) kindName() string     { return "array" }
func (Function) kindName() string  { return "function" }
func (Error) kindName() string     { return "error" }

func (Any) matches(*Cx, sys.Local) (bool, error) { return true, nil }

func (Undefined) matches(c *Cx, l sys.Local) (bool, error) {
	return c.typeIs(l, sys.TypeUndefined)
}

func (Null) matches(c *Cx, l sys.Local) (bool, error) {
	return c.typeIs(l, sys.TypeNull)
}

func (Boolean) matches(c *Cx, l sys.Local) (bool, error) {
	return c.typeIs(l, sys.TypeBoolean)
}

func (Number) matches(c *Cx, l sys.Local) (bool, error) {
	return c.typeIs(l, sys.TypeNumber)
}

func (String) matches(c *Cx, l sys.Local) (bool, error) {
	return c.typeIs(l, sys.TypeString)
}

func (Object) matches(c *Cx, l sys.Local) (bool, error) {
	return c.typeIs(l, sys.TypeObject, sys.TypeFunction)
}

func (Function) matches(c *Cx, l sys.Local) (bool, error) {
	return c.typeIs(l, sys.TypeFunction)
}

func (Array) matches(c *Cx, l sys.Local) (bool, error) {
	ok, st := c.env().IsArray(l)
	return ok, check("is_array", st)
}

func (Error) matches(c *Cx, l sys.Local) (bool, error) {
	ok, st := c.env().IsError(l)
	return ok, check("is_error", st)
}

func (c *Cx) typeIs(l sys.Local, want ...sys.ValueType) (bool, error) {
	t, st := c.env().TypeOf(l)
	if err := check("typeof", st); err != nil {
		return false, err
	}
	for _, w := range want {
		if t == w {
			return true, nil
		}
	}
	return false, nil
}
