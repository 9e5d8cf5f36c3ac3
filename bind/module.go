package bind

import (
	"fmt"
	"sync"

	"github.com/chazu/tether/sys"
)

// ModuleContext is the context of a module load. It is the only variant
// that can export values.
type ModuleContext struct {
	Cx
	exports Handle[Object]
}

// Exports returns the module namespace object.
func (cx *ModuleContext) Exports() Handle[Object] {
	cx.live("exports")
	return cx.exports
}

// ExportValue sets name on the module namespace.
func (cx *ModuleContext) ExportValue(name string, v Ref) error {
	if err := cx.Set(cx.exports, name, v); err != nil {
		return fmt.Errorf("export %q: %w", name, err)
	}
	return nil
}

// ExportFunction creates a function running f and exports it as name.
func (cx *ModuleContext) ExportFunction(name string, f NativeFunc[Any]) error {
	fn, err := NewFunction(cx, name, f)
	if err != nil {
		return fmt.Errorf("export %q: %w", name, err)
	}
	return cx.ExportValue(name, fn)
}

var entry struct {
	sync.Mutex
	fn func(*ModuleContext) error
}

// Main sets the function Init runs instead of exporting the registry.
// It is meant to be called once, from init.
func Main(f func(*ModuleContext) error) {
	entry.Lock()
	defer entry.Unlock()
	if entry.fn != nil {
		panic("bind: Main called twice")
	}
	entry.fn = f
}

func mainFunc() func(*ModuleContext) error {
	entry.Lock()
	defer entry.Unlock()
	return entry.fn
}

// Init is the module entry point a host calls at load time. It runs the
// function set by Main, or exports every registered entry.
func Init(env sys.Env, exports sys.Local) (out sys.Local) {
	st := stackFor(env)
	frame := st.enter()
	cx := &ModuleContext{Cx: Cx{scope: frame}, exports: newHandle[Object](frame, exports)}

	defer func() {
		r := recover()
		if r == nil {
			return
		}
		if fe, ok := r.(*sys.FatalError); ok {
			panic(fe)
		}
		log.Errorf("module init panicked: %v", r)
		st.unwindTo(frame)
		throwErr(env, fmt.Errorf("internal error in module init: %v", r))
		frame.close()
		out = 0
	}()

	var err error
	if f := mainFunc(); f != nil {
		err = f(cx)
	} else {
		err = Registered().Export(cx)
	}
	if err != nil {
		log.Errorf("module init: %s", err)
		throwErr(env, err)
		frame.close()
		return 0
	}
	frame.close()
	return exports
}
