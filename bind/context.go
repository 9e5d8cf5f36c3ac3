package bind

import (
	"errors"
	"fmt"

	"github.com/chazu/tether/sys"
)

// Context is the capability for calling into the host while a scope is
// innermost. It is implemented only by *ModuleContext, *FunctionContext,
// *ComputeContext and *RootContext.
type Context interface {
	core() *Cx
	// Env returns the host environment.
	Env() sys.Env
	// Depth returns the depth of the context's scope.
	Depth() int
}

// Cx holds the operations shared by every context variant. It is
// embedded, never constructed directly.
type Cx struct {
	scope *Scope
}

func (c *Cx) core() *Cx { return c }

// Env returns the host environment.
func (c *Cx) Env() sys.Env { return c.scope.stack.env }

// Depth returns the depth of the context's scope.
func (c *Cx) Depth() int { return c.scope.depth }

func (c *Cx) env() sys.Env { return c.scope.stack.env }

// live asserts that c's scope is open and innermost.
func (c *Cx) live(op string) {
	if c.scope == nil {
		scopeViolation(op, "context has no scope")
	}
	if c.scope.closed {
		scopeViolation(op, "context used after its %s closed", c.scope)
	}
	if top := c.scope.stack.top; top != c.scope {
		scopeViolation(op, "context at depth %d used while %s is open", c.scope.depth, top)
	}
}

// use asserts that c is live and r is a handle rooted in an open scope
// of the same env, and returns its Local.
func (c *Cx) use(op string, r Ref) sys.Local {
	c.live(op)
	if r == nil {
		scopeViolation(op, "nil handle")
	}
	l, s := r.ref()
	switch {
	case s == nil:
		scopeViolation(op, "zero handle")
	case s.closed:
		scopeViolation(op, "handle used after its %s closed", s)
	case s.stack != c.scope.stack:
		scopeViolation(op, "handle belongs to another env")
	}
	return l
}

// must wraps a value-creating host call that has no failure mode other
// than a broken host.
func (c *Cx) must(op string, l sys.Local, st sys.Status) sys.Local {
	if st != sys.StatusOK {
		fatal(c.env(), "bind."+op, "host failed to create a value: "+st.String())
	}
	return l
}

// describe names the kind of l for error messages.
func (c *Cx) describe(l sys.Local) string {
	t, st := c.env().TypeOf(l)
	if st != sys.StatusOK {
		return "unknown"
	}
	if t == sys.TypeObject {
		if ok, _ := c.env().IsArray(l); ok {
			return "array"
		}
		if ok, _ := c.env().IsError(l); ok {
			return "error"
		}
	}
	return t.String()
}

// ---------------------------------------------------------------------------
// Primitives
// ---------------------------------------------------------------------------

// Undefined returns the undefined value.
func (c *Cx) Undefined() Handle[Undefined] {
	c.live("undefined")
	l, st := c.env().Undefined()
	return newHandle[Undefined](c.scope, c.must("undefined", l, st))
}

// Null returns the null value.
func (c *Cx) Null() Handle[Null] {
	c.live("null")
	l, st := c.env().Null()
	return newHandle[Null](c.scope, c.must("null", l, st))
}

// Boolean returns a host boolean.
func (c *Cx) Boolean(b bool) Handle[Boolean] {
	c.live("boolean")
	l, st := c.env().Boolean(b)
	return newHandle[Boolean](c.scope, c.must("boolean", l, st))
}

// Number returns a host number.
func (c *Cx) Number(f float64) Handle[Number] {
	c.live("number")
	l, st := c.env().Number(f)
	return newHandle[Number](c.scope, c.must("number", l, st))
}

// String returns a host string.
func (c *Cx) String(s string) Handle[String] {
	c.live("string")
	l, st := c.env().String(s)
	return newHandle[String](c.scope, c.must("string", l, st))
}

// EmptyObject returns a new object with no properties.
func (c *Cx) EmptyObject() Handle[Object] {
	c.live("object")
	l, st := c.env().Object()
	return newHandle[Object](c.scope, c.must("object", l, st))
}

// EmptyArray returns a new array of length zero.
func (c *Cx) EmptyArray() Handle[Array] {
	c.live("array")
	l, st := c.env().Array(0)
	return newHandle[Array](c.scope, c.must("array", l, st))
}

// StringValue extracts the Go string.
func (c *Cx) StringValue(h Handle[String]) (string, error) {
	s, st := c.env().StringValue(c.use("string_value", h))
	if err := check("string_value", st); err != nil {
		return "", err
	}
	return s, nil
}

// NumberValue extracts the float64.
func (c *Cx) NumberValue(h Handle[Number]) (float64, error) {
	f, st := c.env().NumberValue(c.use("number_value", h))
	if err := check("number_value", st); err != nil {
		return 0, err
	}
	return f, nil
}

// BooleanValue extracts the bool.
func (c *Cx) BooleanValue(h Handle[Boolean]) (bool, error) {
	b, st := c.env().BooleanValue(c.use("boolean_value", h))
	if err := check("boolean_value", st); err != nil {
		return false, err
	}
	return b, nil
}

// ---------------------------------------------------------------------------
// Objects and arrays
// ---------------------------------------------------------------------------

// Get reads property key of obj.
func (c *Cx) Get(obj Ref, key string) (Handle[Any], error) {
	l, st := c.env().GetNamedProperty(c.use("get", obj), key)
	if err := check("get_named_property", st); err != nil {
		return Handle[Any]{}, err
	}
	return newHandle[Any](c.scope, l), nil
}

// Set writes property key of obj.
func (c *Cx) Set(obj Ref, key string, v Ref) error {
	o := c.use("set", obj)
	return check("set_named_property", c.env().SetNamedProperty(o, key, c.use("set", v)))
}

// GetIndex reads element i of arr.
func (c *Cx) GetIndex(arr Handle[Array], i int) (Handle[Any], error) {
	l, st := c.env().GetElement(c.use("get_index", arr), i)
	if err := check("get_element", st); err != nil {
		return Handle[Any]{}, err
	}
	return newHandle[Any](c.scope, l), nil
}

// SetIndex writes element i of arr, growing it as needed.
func (c *Cx) SetIndex(arr Handle[Array], i int, v Ref) error {
	a := c.use("set_index", arr)
	return check("set_element", c.env().SetElement(a, i, c.use("set_index", v)))
}

// ArrayLen returns the length of arr.
func (c *Cx) ArrayLen(arr Handle[Array]) (int, error) {
	n, st := c.env().ArrayLength(c.use("array_len", arr))
	if err := check("array_length", st); err != nil {
		return 0, err
	}
	return n, nil
}

// Keys returns the own property names of obj in definition order.
func (c *Cx) Keys(obj Ref) ([]string, error) {
	names, st := c.env().PropertyNames(c.use("keys", obj))
	if err := check("property_names", st); err != nil {
		return nil, err
	}
	return names, nil
}

// StrictEquals compares a and b with the host's strict equality.
func (c *Cx) StrictEquals(a, b Ref) (bool, error) {
	x := c.use("strict_equals", a)
	eq, st := c.env().StrictEquals(x, c.use("strict_equals", b))
	if err := check("strict_equals", st); err != nil {
		return false, err
	}
	return eq, nil
}

// Call invokes fn with this and args. An exception thrown by fn is
// left pending and reported as an error matching ErrThrown.
func (c *Cx) Call(fn Handle[Function], this Ref, args ...Ref) (Handle[Any], error) {
	f := c.use("call", fn)
	recv := c.use("call", this)
	argv := make([]sys.Local, len(args))
	for i, a := range args {
		argv[i] = c.use("call", a)
	}
	l, st := c.env().Call(recv, f, argv)
	if err := check("call_function", st); err != nil {
		return Handle[Any]{}, err
	}
	return newHandle[Any](c.scope, l), nil
}

// Get reads property key of obj and downcasts it to T.
func Get[T Kind](cx Context, obj Ref, key string) (Handle[T], error) {
	v, err := cx.core().Get(obj, key)
	if err != nil {
		return Handle[T]{}, err
	}
	return Downcast[T](cx, v)
}

// ---------------------------------------------------------------------------
// Errors and exceptions
// ---------------------------------------------------------------------------

// Error creates an Error object with message.
func (c *Cx) Error(message string) (Handle[Error], error) {
	c.live("error")
	l, st := c.env().Error(message)
	if err := check("create_error", st); err != nil {
		return Handle[Error]{}, err
	}
	return newHandle[Error](c.scope, l), nil
}

// TypeError creates a TypeError object with message.
func (c *Cx) TypeError(message string) (Handle[Error], error) {
	c.live("type_error")
	l, st := c.env().TypeError(message)
	if err := check("create_type_error", st); err != nil {
		return Handle[Error]{}, err
	}
	return newHandle[Error](c.scope, l), nil
}

// Throw makes v the pending exception. It always returns a non-nil
// error; when the throw succeeded the error matches ErrThrown, so a
// native function can simply return it.
func (c *Cx) Throw(v Ref) error {
	st := c.env().Throw(c.use("throw", v))
	if st == sys.StatusOK {
		st = sys.StatusPendingException
	}
	return &HostError{Op: "throw", Status: st}
}

// ThrowError throws a new Error with message.
func (c *Cx) ThrowError(message string) error {
	e, err := c.Error(message)
	if err != nil {
		return err
	}
	return c.Throw(e)
}

// ThrowTypeError throws a new TypeError with message.
func (c *Cx) ThrowTypeError(message string) error {
	e, err := c.TypeError(message)
	if err != nil {
		return err
	}
	return c.Throw(e)
}

// TryCatch runs f. If f fails with ErrThrown and a host exception is
// pending, the exception is cleared and returned as the second result.
// Any other error is returned unchanged and leaves a pending exception
// in place.
func TryCatch[T Kind](cx Context, f func() (Handle[T], error)) (Handle[T], Handle[Any], error) {
	c := cx.core()
	c.live("try_catch")
	h, err := f()
	if err == nil {
		return h, Handle[Any]{}, nil
	}
	if !errors.Is(err, ErrThrown) {
		return Handle[T]{}, Handle[Any]{}, err
	}
	pending, st := c.env().IsExceptionPending()
	if st != sys.StatusOK || !pending {
		return Handle[T]{}, Handle[Any]{}, err
	}
	c.live("try_catch")
	l, st := c.env().GetAndClearLastException()
	if cerr := check("get_and_clear_last_exception", st); cerr != nil {
		return Handle[T]{}, Handle[Any]{}, cerr
	}
	return Handle[T]{}, newHandle[Any](c.scope, l), nil
}

// throwErr surfaces err to the host as a pending exception. An error
// matching ErrThrown is left as is when something is actually pending.
func throwErr(env sys.Env, err error) {
	if errors.Is(err, ErrThrown) {
		if pending, st := env.IsExceptionPending(); st == sys.StatusOK && pending {
			return
		}
	}
	if pending, st := env.IsExceptionPending(); st == sys.StatusOK && pending {
		log.Warningf("dropping error while an exception is pending: %s", err)
		return
	}

	var (
		l  sys.Local
		st sys.Status
		te typeErrorer
	)
	if errors.As(err, &te) {
		l, st = env.TypeError(err.Error())
	} else {
		l, st = env.Error(err.Error())
	}
	if st == sys.StatusOK {
		st = env.Throw(l)
	}
	if st != sys.StatusOK {
		fatal(env, "bind.throw", fmt.Sprintf("cannot throw %q: %s", err, st))
	}
}
