package bind

import (
	"fmt"

	"github.com/chazu/tether/sys"
)

// scopeKind says who opened a frame and how it closes.
type scopeKind uint8

const (
	// scopeHost frames mirror a scope the host opened itself (module
	// load, function invocation). Closing them does not call the host.
	scopeHost scopeKind = iota
	scopePlain
	scopeEscapable
)

func (k scopeKind) String() string {
	switch k {
	case scopeHost:
		return "host"
	case scopePlain:
		return "plain"
	case scopeEscapable:
		return "escapable"
	}
	return "unknown"
}

// Scope is one frame of the native mirror of the host's handle-scope
// stack. Every Handle points at the Scope it was rooted in.
type Scope struct {
	stack   *stack
	parent  *Scope
	depth   int
	kind    scopeKind
	host    uint64 // sys.HandleScope or sys.EscapableHandleScope
	escaped bool
	closed  bool
}

// Depth returns the frame's depth; the outermost frame has depth 0.
func (s *Scope) Depth() int { return s.depth }

// Closed reports whether the frame has been closed.
func (s *Scope) Closed() bool { return s.closed }

func (s *Scope) String() string {
	return fmt.Sprintf("scope(%s depth=%d closed=%t)", s.kind, s.depth, s.closed)
}

// encloses reports whether s is o or one of o's ancestors.
func (s *Scope) encloses(o *Scope) bool {
	for p := o; p != nil; p = p.parent {
		if p == s {
			return true
		}
	}
	return false
}

// ---------------------------------------------------------------------------
// Per-env stack
// ---------------------------------------------------------------------------

// stack is the per-env native scope stack, stored in the host's instance
// data slot.
type stack struct {
	env sys.Env
	top *Scope
	tag sys.TypeTag
}

// stackFor returns the stack for env, creating it on first use.
func stackFor(env sys.Env) *stack {
	data, st := env.InstanceData()
	if st != sys.StatusOK {
		fatal(env, "bind.stackFor", "cannot read instance data: "+st.String())
	}
	if data != nil {
		s, ok := data.(*stack)
		if !ok {
			fatal(env, "bind.stackFor", fmt.Sprintf("instance data slot holds %T", data))
		}
		return s
	}
	s := &stack{env: env, tag: ModuleTag()}
	if st := env.SetInstanceData(s); st != sys.StatusOK {
		fatal(env, "bind.stackFor", "cannot set instance data: "+st.String())
	}
	return s
}

// enter pushes a frame for a scope the host has already opened.
func (st *stack) enter() *Scope {
	return st.push(scopeHost, 0)
}

// open pushes a frame and opens the matching host scope. A host that
// cannot open another scope is out of stack; that is fatal.
func (st *stack) open(kind scopeKind) *Scope {
	var (
		token  uint64
		status sys.Status
	)
	switch kind {
	case scopePlain:
		var hs sys.HandleScope
		hs, status = st.env.OpenHandleScope()
		token = uint64(hs)
	case scopeEscapable:
		var hs sys.EscapableHandleScope
		hs, status = st.env.OpenEscapableHandleScope()
		token = uint64(hs)
	default:
		scopeViolation("open", "cannot open a %s scope", kind)
	}
	if status != sys.StatusOK {
		fatal(st.env, "bind.openScope", fmt.Sprintf("host refused a %s scope at depth %d: %s", kind, st.depth(), status))
	}
	return st.push(kind, token)
}

func (st *stack) push(kind scopeKind, token uint64) *Scope {
	s := &Scope{stack: st, parent: st.top, kind: kind, host: token}
	if st.top != nil {
		s.depth = st.top.depth + 1
	}
	st.top = s
	log.Debugf("open %s", s)
	return s
}

func (st *stack) depth() int {
	if st.top == nil {
		return 0
	}
	return st.top.depth + 1
}

// close pops s, which must be the innermost open frame.
func (s *Scope) close() {
	if s.closed {
		scopeViolation("close", "%s closed twice", s)
	}
	if s.stack.top != s {
		scopeViolation("close", "%s closed while %s is still open", s, s.stack.top)
	}

	var status sys.Status
	switch s.kind {
	case scopePlain:
		status = s.stack.env.CloseHandleScope(sys.HandleScope(s.host))
	case scopeEscapable:
		status = s.stack.env.CloseEscapableHandleScope(sys.EscapableHandleScope(s.host))
	}
	if status != sys.StatusOK {
		fatal(s.stack.env, "bind.closeScope", fmt.Sprintf("host rejected closing %s: %s", s, status))
	}

	s.closed = true
	s.stack.top = s.parent
	log.Debugf("close %s", s)
}

// unwindTo closes every frame above s, innermost first. It is used when
// a panic unwinds through a native function.
func (st *stack) unwindTo(s *Scope) {
	for st.top != nil && st.top != s && !st.top.closed {
		st.top.close()
	}
}

// escape promotes l from s into s's parent. s must be the innermost
// frame, escapable, and not yet escaped.
func (s *Scope) escape(l sys.Local) (sys.Local, error) {
	if s.kind != scopeEscapable {
		scopeViolation("escape", "%s is not escapable", s)
	}
	if s.stack.top != s {
		scopeViolation("escape", "%s is not the innermost scope", s)
	}
	if s.escaped {
		scopeViolation("escape", "%s already escaped a value", s)
	}
	out, status := s.stack.env.EscapeHandle(sys.EscapableHandleScope(s.host), l)
	if err := check("escape_handle", status); err != nil {
		return 0, err
	}
	s.escaped = true
	return out, nil
}
