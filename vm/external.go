package vm

import (
	"github.com/chazu/tether/sys"
)

// ---------------------------------------------------------------------------
// Externals: opaque native data owned by the host
// ---------------------------------------------------------------------------

// External implements sys.Env. The VM owns data until the external is
// collected, at which point finalize (if non-nil) receives it.
func (v *VM) External(data any, finalize sys.Finalizer) (sys.Local, sys.Status) {
	v.beforeAlloc()
	o := v.heap.alloc(kindExternal)
	o.data = data
	o.finalize = finalize
	return v.root(FromObjectID(o.id))
}

// ExternalValue implements sys.Env.
func (v *VM) ExternalValue(l sys.Local) (any, sys.Status) {
	o, st := v.object(l, kindExternal)
	if st != sys.StatusOK {
		return nil, st
	}
	return o.data, sys.StatusOK
}

// ---------------------------------------------------------------------------
// Type tags
// ---------------------------------------------------------------------------

// TypeTagObject implements sys.Env. A tag with a zero upper half is
// rejected: the check below could not tell it apart from "untagged".
func (v *VM) TypeTagObject(l sys.Local, tag sys.TypeTag) sys.Status {
	o, st := v.anyObject(l)
	if st != sys.StatusOK {
		return st
	}
	if tag.Upper == 0 {
		return sys.StatusInvalidArg
	}
	if o.tagged {
		return sys.StatusInvalidArg
	}
	o.tag = tag
	o.tagged = true
	return sys.StatusOK
}

// CheckObjectTypeTag implements sys.Env. Untagged objects never match.
func (v *VM) CheckObjectTypeTag(l sys.Local, tag sys.TypeTag) (bool, sys.Status) {
	o, st := v.anyObject(l)
	if st != sys.StatusOK {
		return false, st
	}
	return o.tagged && o.tag == tag, sys.StatusOK
}
