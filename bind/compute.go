package bind

import (
	"github.com/chazu/tether/sys"
)

// ComputeContext is the context inside Compute and ExecuteScoped. Its
// scope is nested in the scope of the context it was opened from, which
// cannot be used until the block returns.
type ComputeContext struct {
	Cx
}

// Escape promotes h into the enclosing scope. It is legal once per
// Compute block, and only on a handle of this block's scope.
func (cx *ComputeContext) Escape(h Ref) (Handle[Any], error) {
	return Escape(cx, Handle[Any]{local: cx.use("escape", h), scope: scopeOf(h)})
}

// Escape promotes h from the compute block's scope into the enclosing
// scope, keeping its kind. The result refers to the same host value.
func Escape[T Kind](cx *ComputeContext, h Handle[T]) (Handle[T], error) {
	l := cx.use("escape", h)
	if h.scope != cx.scope {
		scopeViolation("escape", "handle from %s escaped from %s", h.scope, cx.scope)
	}
	out, err := cx.scope.escape(l)
	if err != nil {
		return Handle[T]{}, err
	}
	return newHandle[T](cx.scope.parent, out), nil
}

func scopeOf(r Ref) *Scope {
	_, s := r.ref()
	return s
}

// Compute runs f in a new escapable scope and returns its result in the
// scope of cx. A result created inside the block is escaped; a result
// that already lives in an enclosing scope is passed through. Every
// other handle created inside the block is released when it returns.
func Compute[T Kind](cx Context, f func(*ComputeContext) (Handle[T], error)) (Handle[T], error) {
	c := cx.core()
	c.live("compute")
	outer := c.scope
	inner := outer.stack.open(scopeEscapable)
	defer outer.stack.unwindTo(outer)

	h, err := f(&ComputeContext{Cx{scope: inner}})
	if err != nil {
		return Handle[T]{}, err
	}

	var (
		l     sys.Local
		owner *Scope
	)
	switch {
	case h.scope == nil:
		scopeViolation("compute", "block returned the zero handle")
	case h.scope.closed:
		scopeViolation("compute", "block returned a handle from a closed %s", h.scope)
	case h.scope == inner:
		out, err := inner.escape(h.local)
		if err != nil {
			return Handle[T]{}, err
		}
		l, owner = out, outer
	case h.scope.encloses(outer):
		l, owner = h.local, h.scope
	default:
		scopeViolation("compute", "block returned a handle from %s, outside %s", h.scope, outer)
	}

	inner.close()
	return newHandle[T](owner, l), nil
}

// ExecuteScoped runs f in a new scope that is closed when f returns. It
// is for work whose result is native data rather than a handle.
func ExecuteScoped[R any](cx Context, f func(*ComputeContext) R) R {
	c := cx.core()
	c.live("execute_scoped")
	outer := c.scope
	inner := outer.stack.open(scopePlain)
	defer outer.stack.unwindTo(outer)

	r := f(&ComputeContext{Cx{scope: inner}})
	inner.close()
	return r
}
