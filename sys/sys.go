// Package sys declares the boundary between native Go code and a
// garbage-collected host runtime.
//
// Everything in this package is deliberately low level: a Local is an
// opaque word handed out by the host, scopes are opaque tokens, and every
// entry point reports a Status. Nothing here knows about lifetimes; the
// bind package layers scope tracking and typed handles on top.
package sys

import "fmt"

// Local is an opaque reference to one host-managed value. It carries no
// ownership information and is only meaningful while the host scope that
// produced it is open. The zero Local is never valid.
type Local uint64

// IsZero reports whether l is the reserved invalid Local.
func (l Local) IsZero() bool { return l == 0 }

func (l Local) String() string {
	return fmt.Sprintf("local(%#x)", uint64(l))
}

// HandleScope is a host token for an open handle scope.
type HandleScope uint64

// EscapableHandleScope is a host token for an open escapable handle scope.
type EscapableHandleScope uint64

// TypeTag is a 128-bit discriminator stamped on boxed native values.
type TypeTag struct {
	Lower uint64
	Upper uint64
}

// IsZero reports whether both halves are zero. Hosts treat a zero tag as
// "no tag present".
func (t TypeTag) IsZero() bool {
	return t.Lower == 0 && t.Upper == 0
}

func (t TypeTag) String() string {
	return fmt.Sprintf("%016x%016x", t.Upper, t.Lower)
}

// ValueType is the host's classification of a value.
type ValueType int

const (
	TypeUndefined ValueType = iota
	TypeNull
	TypeBoolean
	TypeNumber
	TypeString
	TypeObject
	TypeFunction
	TypeExternal
)

var valueTypeNames = [...]string{
	TypeUndefined: "undefined",
	TypeNull:      "null",
	TypeBoolean:   "boolean",
	TypeNumber:    "number",
	TypeString:    "string",
	TypeObject:    "object",
	TypeFunction:  "function",
	TypeExternal:  "external",
}

func (t ValueType) String() string {
	if t < 0 || int(t) >= len(valueTypeNames) {
		return fmt.Sprintf("ValueType(%d)", int(t))
	}
	return valueTypeNames[t]
}

// CallInfo describes one invocation of a native callback.
type CallInfo struct {
	This Local
	Args []Local
}

// Callback is a native function the host can invoke. The host opens a
// handle scope before calling it and closes that scope afterwards; the
// returned Local must have been produced inside that scope or an
// enclosing one. Returning the zero Local yields undefined.
type Callback func(env Env, info CallInfo) Local

// Finalizer releases native data owned by an external value once the host
// has collected it.
type Finalizer func(data any)

// ModuleInit is the entry point a host calls when it loads a native
// module. exports is the module's namespace object; the returned Local,
// if non-zero, replaces it.
type ModuleInit func(env Env, exports Local) Local
