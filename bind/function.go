package bind

import (
	"fmt"

	"github.com/chazu/tether/sys"
)

// FunctionContext is the context of a native function invocation.
type FunctionContext struct {
	Cx
	name string
	this sys.Local
	args []sys.Local
}

// NativeFunc is a Go function callable from the host.
//
// A nil error with the zero Handle returns undefined. An error matching
// ErrThrown leaves the pending exception for the caller; any other error
// is thrown as an Error (a TypeError for *DowncastError and
// *ArgumentError) carrying the error's message.
type NativeFunc[T Kind] func(cx *FunctionContext) (Handle[T], error)

// Name returns the name the function was created with.
func (cx *FunctionContext) Name() string { return cx.name }

// Len returns the number of arguments passed.
func (cx *FunctionContext) Len() int { return len(cx.args) }

// This returns the receiver.
func (cx *FunctionContext) This() Handle[Any] {
	cx.live("this")
	return newHandle[Any](cx.scope, cx.this)
}

// ArgumentOpt returns argument i, or false when fewer were passed.
func (cx *FunctionContext) ArgumentOpt(i int) (Handle[Any], bool) {
	cx.live("argument")
	if i < 0 || i >= len(cx.args) {
		return Handle[Any]{}, false
	}
	return newHandle[Any](cx.scope, cx.args[i]), true
}

// Argument returns argument i downcast to T.
func Argument[T Kind](cx *FunctionContext, i int) (Handle[T], error) {
	h, ok := cx.ArgumentOpt(i)
	if !ok {
		return Handle[T]{}, &ArgumentError{Index: i, Len: len(cx.args)}
	}
	return Downcast[T](cx, h)
}

// NewFunction creates a host function that runs f.
func NewFunction[T Kind](cx Context, name string, f NativeFunc[T]) (Handle[Function], error) {
	c := cx.core()
	c.live("new_function")
	l, st := c.env().Function(name, callback(name, f))
	if err := check("create_function", st); err != nil {
		return Handle[Function]{}, err
	}
	return newHandle[Function](c.scope, l), nil
}

// callback adapts f to the host calling convention. The host has already
// opened a scope for the call; a frame mirroring it is pushed for the
// duration of f.
func callback[T Kind](name string, f NativeFunc[T]) sys.Callback {
	return func(env sys.Env, info sys.CallInfo) (out sys.Local) {
		st := stackFor(env)
		frame := st.enter()
		cx := &FunctionContext{Cx: Cx{scope: frame}, name: name, this: info.This, args: info.Args}

		defer func() {
			r := recover()
			if r == nil {
				return
			}
			if fe, ok := r.(*sys.FatalError); ok {
				panic(fe)
			}
			log.Errorf("native function %s panicked: %v", name, r)
			st.unwindTo(frame)
			throwErr(env, fmt.Errorf("internal error in native function %s: %v", name, r))
			frame.close()
			out = 0
		}()

		h, err := f(cx)
		if err != nil {
			throwErr(env, err)
			frame.close()
			return 0
		}
		if !h.IsZero() {
			out = cx.use("return", h)
		}
		frame.close()
		return out
	}
}
