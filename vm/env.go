package vm

import (
	"fmt"

	"github.com/chazu/tether/sys"
	"github.com/chazu/tether/trace"
)

// ---------------------------------------------------------------------------
// Slot helpers
// ---------------------------------------------------------------------------

// root places val in the innermost scope. Creating a handle with no open
// scope is fatal.
func (v *VM) root(val Value) (sys.Local, sys.Status) {
	l, ok := v.scopes.root(val)
	if !ok {
		v.FatalError("vm.root", "cannot create a handle without an open handle scope")
	}
	return l, sys.StatusOK
}

func (v *VM) value(l sys.Local) (Value, sys.Status) {
	val, ok := v.scopes.resolve(l)
	if !ok {
		log.Errorf("dangling %s", l)
		return Undefined, sys.StatusInvalidLocal
	}
	return val, sys.StatusOK
}

func (v *VM) object(l sys.Local, want objectKind) (*Object, sys.Status) {
	val, st := v.value(l)
	if st != sys.StatusOK {
		return nil, st
	}
	o := v.heap.object(val)
	if o == nil || o.kind != want {
		switch want {
		case kindString:
			return nil, sys.StatusStringExpected
		case kindFunction:
			return nil, sys.StatusFunctionExpected
		case kindArray:
			return nil, sys.StatusArrayExpected
		case kindExternal:
			return nil, sys.StatusInvalidArg
		}
		return nil, sys.StatusObjectExpected
	}
	return o, sys.StatusOK
}

// anyObject accepts every object kind except strings, which are
// primitives to native code.
func (v *VM) anyObject(l sys.Local) (*Object, sys.Status) {
	val, st := v.value(l)
	if st != sys.StatusOK {
		return nil, st
	}
	o := v.heap.object(val)
	if o == nil || o.kind == kindString {
		return nil, sys.StatusObjectExpected
	}
	return o, sys.StatusOK
}

// beforeAlloc runs an allocation-triggered collection when configured.
// It is called once at the start of each allocating entry point, while
// every input is still held in a slot.
func (v *VM) beforeAlloc() {
	if v.opts.GCEvery > 0 && v.heap.allocs >= v.opts.GCEvery {
		v.Collect()
	}
}

// ---------------------------------------------------------------------------
// Handle scopes
// ---------------------------------------------------------------------------

// OpenHandleScope implements sys.Env.
func (v *VM) OpenHandleScope() (sys.HandleScope, sys.Status) {
	hs, st := v.scopes.push(false)
	if st != sys.StatusOK {
		return 0, st
	}
	v.record(trace.KindOpenScope, fmt.Sprintf("serial=%d", hs.serial))
	return sys.HandleScope(hs.serial), sys.StatusOK
}

// CloseHandleScope implements sys.Env.
func (v *VM) CloseHandleScope(scope sys.HandleScope) sys.Status {
	return v.closeScope(uint32(scope))
}

// OpenEscapableHandleScope implements sys.Env.
func (v *VM) OpenEscapableHandleScope() (sys.EscapableHandleScope, sys.Status) {
	hs, st := v.scopes.push(true)
	if st != sys.StatusOK {
		return 0, st
	}
	v.record(trace.KindOpenScope, fmt.Sprintf("serial=%d escapable", hs.serial))
	return sys.EscapableHandleScope(hs.serial), sys.StatusOK
}

// CloseEscapableHandleScope implements sys.Env.
func (v *VM) CloseEscapableHandleScope(scope sys.EscapableHandleScope) sys.Status {
	return v.closeScope(uint32(scope))
}

func (v *VM) closeScope(serial uint32) sys.Status {
	if st := v.scopes.pop(serial); st != sys.StatusOK {
		return st
	}
	v.record(trace.KindCloseScope, fmt.Sprintf("serial=%d", serial))
	return sys.StatusOK
}

// EscapeHandle implements sys.Env.
func (v *VM) EscapeHandle(scope sys.EscapableHandleScope, l sys.Local) (sys.Local, sys.Status) {
	val, st := v.value(l)
	if st != sys.StatusOK {
		return 0, st
	}
	out, st := v.scopes.escape(uint32(scope), val)
	if st != sys.StatusOK {
		return 0, st
	}
	v.record(trace.KindEscape, fmt.Sprintf("serial=%d", uint32(scope)))
	return out, sys.StatusOK
}

// ---------------------------------------------------------------------------
// Primitives
// ---------------------------------------------------------------------------

// Undefined implements sys.Env.
func (v *VM) Undefined() (sys.Local, sys.Status) { return v.root(Undefined) }

// Null implements sys.Env.
func (v *VM) Null() (sys.Local, sys.Status) { return v.root(Null) }

// Boolean implements sys.Env.
func (v *VM) Boolean(b bool) (sys.Local, sys.Status) { return v.root(FromBool(b)) }

// BooleanValue implements sys.Env.
func (v *VM) BooleanValue(l sys.Local) (bool, sys.Status) {
	val, st := v.value(l)
	if st != sys.StatusOK {
		return false, st
	}
	if !val.IsBool() {
		return false, sys.StatusBooleanExpected
	}
	return val.Bool(), sys.StatusOK
}

// Number implements sys.Env.
func (v *VM) Number(f float64) (sys.Local, sys.Status) { return v.root(FromFloat64(f)) }

// NumberValue implements sys.Env.
func (v *VM) NumberValue(l sys.Local) (float64, sys.Status) {
	val, st := v.value(l)
	if st != sys.StatusOK {
		return 0, st
	}
	if !val.IsNumber() {
		return 0, sys.StatusNumberExpected
	}
	return val.Float64(), sys.StatusOK
}

// String implements sys.Env.
func (v *VM) String(s string) (sys.Local, sys.Status) {
	v.beforeAlloc()
	return v.root(v.newString(s))
}

func (v *VM) newString(s string) Value {
	o := v.heap.alloc(kindString)
	o.str = s
	return FromObjectID(o.id)
}

// StringValue implements sys.Env.
func (v *VM) StringValue(l sys.Local) (string, sys.Status) {
	o, st := v.object(l, kindString)
	if st != sys.StatusOK {
		return "", st
	}
	return o.str, sys.StatusOK
}

// ---------------------------------------------------------------------------
// Objects and arrays
// ---------------------------------------------------------------------------

// Object implements sys.Env.
func (v *VM) Object() (sys.Local, sys.Status) {
	v.beforeAlloc()
	o := v.heap.alloc(kindPlain)
	return v.root(FromObjectID(o.id))
}

// Array implements sys.Env.
func (v *VM) Array(length int) (sys.Local, sys.Status) {
	if length < 0 {
		return 0, sys.StatusInvalidArg
	}
	v.beforeAlloc()
	o := v.heap.alloc(kindArray)
	o.elems = make([]Value, length)
	for i := range o.elems {
		o.elems[i] = Undefined
	}
	return v.root(FromObjectID(o.id))
}

// ArrayLength implements sys.Env.
func (v *VM) ArrayLength(l sys.Local) (int, sys.Status) {
	o, st := v.object(l, kindArray)
	if st != sys.StatusOK {
		return 0, st
	}
	return len(o.elems), sys.StatusOK
}

// GetNamedProperty implements sys.Env. Missing properties read as
// undefined.
func (v *VM) GetNamedProperty(l sys.Local, name string) (sys.Local, sys.Status) {
	o, st := v.anyObject(l)
	if st != sys.StatusOK {
		return 0, st
	}
	val, ok := o.get(name)
	if !ok {
		switch {
		case o.kind == kindArray && name == "length":
			val = FromFloat64(float64(len(o.elems)))
		case o.kind == kindFunction && name == "name":
			v.beforeAlloc()
			val = v.newString(o.name)
		default:
			val = Undefined
		}
	}
	return v.root(val)
}

// SetNamedProperty implements sys.Env.
func (v *VM) SetNamedProperty(l sys.Local, name string, val sys.Local) sys.Status {
	o, st := v.anyObject(l)
	if st != sys.StatusOK {
		return st
	}
	x, st := v.value(val)
	if st != sys.StatusOK {
		return st
	}
	o.set(name, x)
	return sys.StatusOK
}

// GetElement implements sys.Env. Out-of-range reads yield undefined.
func (v *VM) GetElement(l sys.Local, index int) (sys.Local, sys.Status) {
	o, st := v.object(l, kindArray)
	if st != sys.StatusOK {
		return 0, st
	}
	if index < 0 || index >= len(o.elems) {
		return v.root(Undefined)
	}
	return v.root(o.elems[index])
}

// SetElement implements sys.Env. Writing past the end grows the array.
func (v *VM) SetElement(l sys.Local, index int, val sys.Local) sys.Status {
	o, st := v.object(l, kindArray)
	if st != sys.StatusOK {
		return st
	}
	if index < 0 {
		return sys.StatusInvalidArg
	}
	x, st := v.value(val)
	if st != sys.StatusOK {
		return st
	}
	for len(o.elems) <= index {
		o.elems = append(o.elems, Undefined)
	}
	o.elems[index] = x
	return sys.StatusOK
}

// PropertyNames implements sys.Env.
func (v *VM) PropertyNames(l sys.Local) ([]string, sys.Status) {
	o, st := v.anyObject(l)
	if st != sys.StatusOK {
		return nil, st
	}
	names := make([]string, len(o.keys))
	copy(names, o.keys)
	return names, sys.StatusOK
}

// ---------------------------------------------------------------------------
// Identity
// ---------------------------------------------------------------------------

// TypeOf implements sys.Env.
func (v *VM) TypeOf(l sys.Local) (sys.ValueType, sys.Status) {
	val, st := v.value(l)
	if st != sys.StatusOK {
		return 0, st
	}
	return v.typeOf(val), sys.StatusOK
}

func (v *VM) typeOf(val Value) sys.ValueType {
	switch {
	case val == Undefined:
		return sys.TypeUndefined
	case val == Null:
		return sys.TypeNull
	case val.IsBool():
		return sys.TypeBoolean
	case val.IsNumber():
		return sys.TypeNumber
	}
	o := v.heap.object(val)
	if o == nil {
		return sys.TypeUndefined
	}
	switch o.kind {
	case kindString:
		return sys.TypeString
	case kindFunction:
		return sys.TypeFunction
	case kindExternal:
		return sys.TypeExternal
	}
	return sys.TypeObject
}

// IsArray implements sys.Env.
func (v *VM) IsArray(l sys.Local) (bool, sys.Status) {
	val, st := v.value(l)
	if st != sys.StatusOK {
		return false, st
	}
	o := v.heap.object(val)
	return o != nil && o.kind == kindArray, sys.StatusOK
}

// IsError implements sys.Env.
func (v *VM) IsError(l sys.Local) (bool, sys.Status) {
	val, st := v.value(l)
	if st != sys.StatusOK {
		return false, st
	}
	o := v.heap.object(val)
	return o != nil && o.kind == kindError, sys.StatusOK
}

// StrictEquals implements sys.Env. Strings compare by content, numbers
// by IEEE equality, objects by identity.
func (v *VM) StrictEquals(a, b sys.Local) (bool, sys.Status) {
	x, st := v.value(a)
	if st != sys.StatusOK {
		return false, st
	}
	y, st := v.value(b)
	if st != sys.StatusOK {
		return false, st
	}
	return v.strictEquals(x, y), sys.StatusOK
}

func (v *VM) strictEquals(x, y Value) bool {
	if x.IsNumber() && y.IsNumber() {
		return x.Float64() == y.Float64()
	}
	if x == y {
		return true
	}
	ox, oy := v.heap.object(x), v.heap.object(y)
	if ox != nil && oy != nil && ox.kind == kindString && oy.kind == kindString {
		return ox.str == oy.str
	}
	return false
}
