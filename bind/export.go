package bind

import (
	"fmt"
	"iter"
	"slices"
	"sync"
)

// Creator produces one named export under a module context.
type Creator func(cx *ModuleContext) (string, Handle[Any], error)

// registry is filled from init functions and sealed on first read.
var registry struct {
	sync.Mutex
	entries []Creator
	sealed  bool
}

func register(c Creator) {
	registry.Lock()
	defer registry.Unlock()
	if registry.sealed {
		panic("bind: export registered after the registry was read")
	}
	registry.entries = append(registry.entries, c)
}

// Export registers create under name. Call it from init.
func Export(name string, create func(cx *ModuleContext) (Handle[Any], error)) {
	register(func(cx *ModuleContext) (string, Handle[Any], error) {
		h, err := create(cx)
		return name, h, err
	})
}

// ExportValue registers a constant. v must be nil, a bool, a string, or
// a Go integer or float type.
func ExportValue(name string, v any) {
	if _, ok := constant(v); !ok {
		panic(fmt.Sprintf("bind: cannot export %T as %q", v, name))
	}
	Export(name, func(cx *ModuleContext) (Handle[Any], error) {
		f, _ := constant(v)
		return f(cx), nil
	})
}

// ExportFunction registers a native function under name.
func ExportFunction[T Kind](name string, f NativeFunc[T]) {
	Export(name, func(cx *ModuleContext) (Handle[Any], error) {
		fn, err := NewFunction(cx, name, f)
		return fn.Upcast(), err
	})
}

func constant(v any) (func(*ModuleContext) Handle[Any], bool) {
	var n float64
	switch x := v.(type) {
	case nil:
		return func(cx *ModuleContext) Handle[Any] { return cx.Null().Upcast() }, true
	case bool:
		return func(cx *ModuleContext) Handle[Any] { return cx.Boolean(x).Upcast() }, true
	case string:
		return func(cx *ModuleContext) Handle[Any] { return cx.String(x).Upcast() }, true
	case int:
		n = float64(x)
	case int8:
		n = float64(x)
	case int16:
		n = float64(x)
	case int32:
		n = float64(x)
	case int64:
		n = float64(x)
	case uint:
		n = float64(x)
	case uint8:
		n = float64(x)
	case uint16:
		n = float64(x)
	case uint32:
		n = float64(x)
	case uint64:
		n = float64(x)
	case float32:
		n = float64(x)
	case float64:
		n = x
	default:
		return nil, false
	}
	return func(cx *ModuleContext) Handle[Any] { return cx.Number(n).Upcast() }, true
}

// Exports is the sealed view of the registry.
type Exports struct {
	entries []Creator
}

// Registered seals the registry and returns its entries.
func Registered() *Exports {
	registry.Lock()
	defer registry.Unlock()
	registry.sealed = true
	return &Exports{entries: slices.Clip(registry.entries)}
}

// Len returns the number of registered entries.
func (e *Exports) Len() int { return len(e.entries) }

// All yields the entries in registration order.
func (e *Exports) All() iter.Seq[Creator] {
	return func(yield func(Creator) bool) {
		for _, c := range e.entries {
			if !yield(c) {
				return
			}
		}
	}
}

// Export runs every entry and sets its result on the module namespace.
// It stops at the first failure.
func (e *Exports) Export(cx *ModuleContext) error {
	for i, create := range e.entries {
		name, h, err := create(cx)
		if err != nil {
			if name == "" {
				return fmt.Errorf("export #%d: %w", i, err)
			}
			return fmt.Errorf("export %q: %w", name, err)
		}
		if err := cx.ExportValue(name, h); err != nil {
			return err
		}
		log.Debugf("exported %q", name)
	}
	return nil
}
