package bind

import (
	"github.com/chazu/tether/sys"
)

// RootContext lets an embedder call into the host from outside any
// native function, for example from a test or a host-side tool. It owns
// a plain scope that stays open until Close.
type RootContext struct {
	Cx
}

// NewRoot opens a scope on env and returns a context for it.
func NewRoot(env sys.Env) *RootContext {
	s := stackFor(env).open(scopePlain)
	return &RootContext{Cx{scope: s}}
}

// Close closes the context's scope. Every handle created through it
// becomes unusable.
func (cx *RootContext) Close() {
	cx.scope.close()
}
