package vm

import (
	"fmt"

	"github.com/chazu/tether/sys"
)

// Exception is the Go error for a host exception that escaped to the
// embedder.
type Exception struct {
	Name    string // "Error", "TypeError", or "" for a thrown non-error value
	Message string
	Value   any // the thrown value converted with ToGo
}

func (e *Exception) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("uncaught exception: %v", e.Value)
	}
	return fmt.Sprintf("%s: %s", e.Name, e.Message)
}

// Error implements sys.Env.
func (v *VM) Error(message string) (sys.Local, sys.Status) {
	v.beforeAlloc()
	return v.root(v.newError("Error", message))
}

// TypeError implements sys.Env.
func (v *VM) TypeError(message string) (sys.Local, sys.Status) {
	v.beforeAlloc()
	return v.root(v.newError("TypeError", message))
}

func (v *VM) newError(name, message string) Value {
	o := v.heap.alloc(kindError)
	o.set("name", v.newString(name))
	o.set("message", v.newString(message))
	return FromObjectID(o.id)
}

// Throw implements sys.Env. Throwing while an exception is pending
// replaces nothing and reports the pending state.
func (v *VM) Throw(l sys.Local) sys.Status {
	if v.hasPending {
		return sys.StatusPendingException
	}
	val, st := v.value(l)
	if st != sys.StatusOK {
		return st
	}
	v.pending = val
	v.hasPending = true
	return sys.StatusOK
}

// IsExceptionPending implements sys.Env.
func (v *VM) IsExceptionPending() (bool, sys.Status) {
	return v.hasPending, sys.StatusOK
}

// GetAndClearLastException implements sys.Env. With nothing pending it
// yields undefined.
func (v *VM) GetAndClearLastException() (sys.Local, sys.Status) {
	if !v.hasPending {
		return v.root(Undefined)
	}
	val := v.pending
	v.pending = Undefined
	v.hasPending = false
	return v.root(val)
}

// takeException clears the pending exception and converts it for the
// embedder.
func (v *VM) takeException() *Exception {
	val := v.pending
	v.pending = Undefined
	v.hasPending = false

	ex := &Exception{Value: v.ToGo(val)}
	if o := v.heap.object(val); o != nil && o.kind == kindError {
		ex.Name = v.stringProp(o, "name")
		ex.Message = v.stringProp(o, "message")
	}
	return ex
}

func (v *VM) stringProp(o *Object, name string) string {
	val, ok := o.get(name)
	if !ok {
		return ""
	}
	if s := v.heap.object(val); s != nil && s.kind == kindString {
		return s.str
	}
	return ""
}
