package vm

import (
	"fmt"

	"github.com/chazu/tether/sys"
	"github.com/chazu/tether/trace"
)

// Load runs a native module's init function and keeps its namespace
// alive for the lifetime of the VM. Loading the same name twice runs init
// again against the existing namespace.
func (v *VM) Load(name string, init sys.ModuleInit) error {
	if init == nil {
		return fmt.Errorf("vm: module %q has no init function", name)
	}
	v.record(trace.KindLoad, name)

	scope, st := v.OpenHandleScope()
	if st != sys.StatusOK {
		return fmt.Errorf("vm: load %q: open scope: %s", name, st)
	}
	defer v.CloseHandleScope(scope)

	ns, ok := v.modules[name]
	if !ok {
		v.beforeAlloc()
		ns = FromObjectID(v.heap.alloc(kindPlain).id)
		v.modules[name] = ns
		v.moduleOrder = append(v.moduleOrder, name)
	}
	exports, _ := v.root(ns)

	out := init(v, exports)

	if v.hasPending {
		return fmt.Errorf("vm: load %q: %w", name, v.takeException())
	}
	if !out.IsZero() && out != exports {
		val, ok := v.scopes.resolve(out)
		if !ok {
			v.FatalError("vm.Load", "module "+name+" returned a dangling handle")
		}
		v.modules[name] = val
	}
	log.Infof("loaded module %q", name)
	return nil
}

// Modules returns the names of loaded modules in load order.
func (v *VM) Modules() []string {
	out := make([]string, len(v.moduleOrder))
	copy(out, v.moduleOrder)
	return out
}

// ExportNames returns the property names of a module namespace in
// definition order.
func (v *VM) ExportNames(module string) ([]string, error) {
	o, err := v.namespace(module)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(o.keys))
	copy(names, o.keys)
	return names, nil
}

// Namespace converts a module namespace to Go values.
func (v *VM) Namespace(module string) (map[string]any, error) {
	o, err := v.namespace(module)
	if err != nil {
		return nil, err
	}
	m, _ := v.ToGo(FromObjectID(o.id)).(map[string]any)
	return m, nil
}

func (v *VM) namespace(module string) (*Object, error) {
	ns, ok := v.modules[module]
	if !ok {
		return nil, fmt.Errorf("vm: module %q not loaded", module)
	}
	o := v.heap.object(ns)
	if o == nil {
		return nil, fmt.Errorf("vm: module %q namespace is not an object", module)
	}
	return o, nil
}

// CallExport calls the function exported as name from module with Go
// arguments, and converts the result back to Go. An exception thrown by
// the function is returned as *Exception.
func (v *VM) CallExport(module, name string, args ...any) (any, error) {
	o, err := v.namespace(module)
	if err != nil {
		return nil, err
	}
	fv, ok := o.get(name)
	f := v.heap.object(fv)
	if !ok || f == nil || f.kind != kindFunction {
		return nil, fmt.Errorf("vm: %s.%s is not a function", module, name)
	}

	scope, st := v.OpenHandleScope()
	if st != sys.StatusOK {
		return nil, fmt.Errorf("vm: call %s.%s: open scope: %s", module, name, st)
	}
	defer v.CloseHandleScope(scope)

	v.beforeAlloc()
	argv := make([]Value, len(args))
	for i, a := range args {
		if argv[i], err = v.fromGo(a); err != nil {
			return nil, fmt.Errorf("vm: call %s.%s: argument %d: %w", module, name, i, err)
		}
		v.root(argv[i])
	}

	result, st := v.callExport(f, argv)
	switch st {
	case sys.StatusOK:
		v.root(result)
		return v.ToGo(result), nil
	case sys.StatusPendingException:
		return nil, v.takeException()
	default:
		return nil, fmt.Errorf("vm: call %s.%s: %s", module, name, st)
	}
}
