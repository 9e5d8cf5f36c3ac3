package vm

import (
	"github.com/chazu/tether/sys"
)

// objectKind distinguishes the layouts a heap object can have.
type objectKind uint8

const (
	kindPlain objectKind = iota
	kindArray
	kindString
	kindFunction
	kindError
	kindExternal
)

var kindNames = [...]string{
	kindPlain:    "Object",
	kindArray:    "Array",
	kindString:   "String",
	kindFunction: "Function",
	kindError:    "Error",
	kindExternal: "External",
}

func (k objectKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Unknown"
}

// Object is a heap-allocated host value.
type Object struct {
	id   uint32
	kind objectKind

	// Named properties, in insertion order
	props map[string]Value
	keys  []string

	// Array elements
	elems []Value

	// String payload
	str string

	// Function name and native implementation
	name string
	fn   sys.Callback

	// External payload
	data     any
	finalize sys.Finalizer

	// Type tag (objects and externals only)
	tag    sys.TypeTag
	tagged bool

	marked bool
}

// ID returns the heap id of the object.
func (o *Object) ID() uint32 { return o.id }

// Kind returns the object's layout name ("Object", "Array", ...).
func (o *Object) Kind() string { return o.kind.String() }

func (o *Object) get(name string) (Value, bool) {
	v, ok := o.props[name]
	return v, ok
}

func (o *Object) set(name string, v Value) {
	if o.props == nil {
		o.props = make(map[string]Value)
	}
	if _, ok := o.props[name]; !ok {
		o.keys = append(o.keys, name)
	}
	o.props[name] = v
}

// forEachRef calls fn for every value the object references.
func (o *Object) forEachRef(fn func(Value)) {
	for _, k := range o.keys {
		fn(o.props[k])
	}
	for _, e := range o.elems {
		fn(e)
	}
}

// ---------------------------------------------------------------------------
// Heap
// ---------------------------------------------------------------------------

// heap owns every object. Ids start at 1 so that a zero payload is never a
// live object.
type heap struct {
	objects map[uint32]*Object
	nextID  uint32
	allocs  int // allocations since the last collection
}

func newHeap() *heap {
	return &heap{
		objects: make(map[uint32]*Object),
		nextID:  1,
	}
}

func (h *heap) alloc(kind objectKind) *Object {
	id := h.nextID
	h.nextID++
	o := &Object{id: id, kind: kind}
	h.objects[id] = o
	h.allocs++
	return o
}

// object returns the heap object v refers to, or nil.
func (h *heap) object(v Value) *Object {
	if !v.IsObject() {
		return nil
	}
	return h.objects[v.ObjectID()]
}

func (h *heap) count() int {
	return len(h.objects)
}
