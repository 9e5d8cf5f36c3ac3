package bind

import (
	"fmt"

	"github.com/chazu/tether/sys"
)

// Handle is a typed reference to a host value, rooted in the scope that
// was innermost when it was created.
//
// Handles are plain values: copying one copies the Local and the scope
// pointer, never host memory. They can only be minted by this package
// after a successful host call made through a live Context; the zero
// Handle is not usable.
//
// A handle is valid while its scope is open. Go cannot reject a stale
// handle at compile time, so every Context operation that consumes a
// handle checks it first and panics with *ScopeError on misuse.
type Handle[T Kind] struct {
	local sys.Local
	scope *Scope
}

// Ref is implemented by every Handle, whatever its kind.
type Ref interface {
	ref() (sys.Local, *Scope)
}

func (h Handle[T]) ref() (sys.Local, *Scope) { return h.local, h.scope }

// Upcast widens h to a handle of any kind. No host call is made.
func (h Handle[T]) Upcast() Handle[Any] {
	return Handle[Any]{local: h.local, scope: h.scope}
}

// IsZero reports whether h is the zero Handle.
func (h Handle[T]) IsZero() bool { return h.scope == nil }

// Live reports whether h's scope is still open.
func (h Handle[T]) Live() bool { return h.scope != nil && !h.scope.closed }

// Depth returns the depth of the scope h is rooted in.
func (h Handle[T]) Depth() int {
	if h.scope == nil {
		return -1
	}
	return h.scope.depth
}

func (h Handle[T]) String() string {
	var k T
	if h.scope == nil {
		return fmt.Sprintf("Handle[%s](zero)", k.kindName())
	}
	return fmt.Sprintf("Handle[%s](%s depth=%d)", k.kindName(), h.local, h.scope.depth)
}

func newHandle[T Kind](s *Scope, l sys.Local) Handle[T] {
	return Handle[T]{local: l, scope: s}
}

// Downcast narrows h to kind U after checking the host value. A mismatch
// yields *DowncastError and the zero Handle.
func Downcast[U Kind, T Kind](cx Context, h Handle[T]) (Handle[U], error) {
	c := cx.core()
	l := c.use("downcast", h)
	var u U
	ok, err := u.matches(c, l)
	if err != nil {
		return Handle[U]{}, err
	}
	if !ok {
		return Handle[U]{}, &DowncastError{Expected: u.kindName(), Actual: c.describe(l)}
	}
	return Handle[U]{local: l, scope: h.scope}, nil
}

// Is reports whether h refers to a value of kind U. Host failures read
// as false.
func Is[U Kind, T Kind](cx Context, h Handle[T]) bool {
	c := cx.core()
	l := c.use("is", h)
	var u U
	ok, err := u.matches(c, l)
	return err == nil && ok
}
