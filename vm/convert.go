package vm

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/chazu/tether/sys"
)

// FunctionRef is the Go form of a host function.
type FunctionRef struct {
	Name string
}

// ExternalRef is the Go form of a host external.
type ExternalRef struct {
	Data   any
	Tag    sys.TypeTag
	Tagged bool
}

// ErrorRef is the Go form of a host error object.
type ErrorRef struct {
	Name    string
	Message string
}

// ---------------------------------------------------------------------------
// Host → Go
// ---------------------------------------------------------------------------

// ToGo converts a host value to a Go value:
// undefined and null become nil, booleans bool, numbers float64, strings
// string, arrays []any, plain objects map[string]any, functions
// FunctionRef, externals ExternalRef and errors ErrorRef.
func (v *VM) ToGo(val Value) any {
	return v.toGo(val, make(map[uint32]bool))
}

func (v *VM) toGo(val Value, seen map[uint32]bool) any {
	switch {
	case val == Undefined || val == Null:
		return nil
	case val.IsBool():
		return val.Bool()
	case val.IsNumber():
		return val.Float64()
	}

	o := v.heap.object(val)
	if o == nil {
		return nil
	}
	switch o.kind {
	case kindString:
		return o.str
	case kindFunction:
		return FunctionRef{Name: o.name}
	case kindExternal:
		return ExternalRef{Data: o.data, Tag: o.tag, Tagged: o.tagged}
	case kindError:
		return ErrorRef{Name: v.stringProp(o, "name"), Message: v.stringProp(o, "message")}
	}

	// Cycles collapse to nil
	if seen[o.id] {
		return nil
	}
	seen[o.id] = true
	defer delete(seen, o.id)

	if o.kind == kindArray {
		arr := make([]any, len(o.elems))
		for i, e := range o.elems {
			arr[i] = v.toGo(e, seen)
		}
		return arr
	}
	m := make(map[string]any, len(o.keys))
	for _, k := range o.keys {
		m[k] = v.toGo(o.props[k], seen)
	}
	return m
}

// ---------------------------------------------------------------------------
// Go → Host
// ---------------------------------------------------------------------------

// fromGo converts a Go value into a host value. The result is unrooted;
// callers must root it before the next collection can run.
func (v *VM) fromGo(goVal any) (Value, error) {
	if goVal == nil {
		return Undefined, nil
	}

	rv := reflect.ValueOf(goVal)
	switch rv.Kind() {
	case reflect.Bool:
		return FromBool(rv.Bool()), nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return FromFloat64(float64(rv.Int())), nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return FromFloat64(float64(rv.Uint())), nil

	case reflect.Float32, reflect.Float64:
		return FromFloat64(rv.Float()), nil

	case reflect.String:
		return v.newString(rv.String()), nil

	case reflect.Slice, reflect.Array:
		o := v.heap.alloc(kindArray)
		o.elems = make([]Value, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			e, err := v.fromGo(rv.Index(i).Interface())
			if err != nil {
				return Undefined, err
			}
			o.elems[i] = e
		}
		return FromObjectID(o.id), nil

	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			break
		}
		keys := make([]string, 0, rv.Len())
		for _, k := range rv.MapKeys() {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		o := v.heap.alloc(kindPlain)
		for _, k := range keys {
			e, err := v.fromGo(rv.MapIndex(reflect.ValueOf(k).Convert(rv.Type().Key())).Interface())
			if err != nil {
				return Undefined, err
			}
			o.set(k, e)
		}
		return FromObjectID(o.id), nil
	}

	return Undefined, fmt.Errorf("vm: cannot convert %T to a host value", goVal)
}
