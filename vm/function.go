package vm

import (
	"github.com/chazu/tether/sys"
	"github.com/chazu/tether/trace"
)

// Function implements sys.Env.
func (v *VM) Function(name string, cb sys.Callback) (sys.Local, sys.Status) {
	if cb == nil {
		return 0, sys.StatusInvalidArg
	}
	v.beforeAlloc()
	o := v.heap.alloc(kindFunction)
	o.name = name
	o.fn = cb
	return v.root(FromObjectID(o.id))
}

// Call implements sys.Env. The callee runs inside a fresh handle scope
// opened by the VM; its result is re-rooted in the caller's scope.
func (v *VM) Call(recv, fn sys.Local, args []sys.Local) (sys.Local, sys.Status) {
	if v.hasPending {
		return 0, sys.StatusPendingException
	}
	f, st := v.object(fn, kindFunction)
	if st != sys.StatusOK {
		return 0, st
	}
	this, st := v.value(recv)
	if st != sys.StatusOK {
		return 0, st
	}
	argv := make([]Value, len(args))
	for i, a := range args {
		if argv[i], st = v.value(a); st != sys.StatusOK {
			return 0, st
		}
	}

	result, st := v.invoke(f, this, argv)
	if st != sys.StatusOK {
		return 0, st
	}
	return v.root(result)
}

// invoke runs a native function. The values passed in must be rooted by
// the caller; the returned value is unrooted and must be placed in a slot
// before the next allocation. Running out of scopes for the call is
// fatal: it only happens under unbounded native-to-host recursion.
func (v *VM) invoke(f *Object, this Value, args []Value) (Value, sys.Status) {
	scope, st := v.OpenHandleScope()
	if st == sys.StatusHandleScopeExhausted {
		v.FatalError("vm.invoke", "handle scope exhausted calling native function "+f.name)
	}
	if st != sys.StatusOK {
		return Undefined, st
	}
	thisL, _ := v.root(this)
	argL := make([]sys.Local, len(args))
	for i, a := range args {
		argL[i], _ = v.root(a)
	}

	out := f.fn(v, sys.CallInfo{This: thisL, Args: argL})

	result := Undefined
	if !out.IsZero() {
		var ok bool
		if result, ok = v.scopes.resolve(out); !ok {
			v.FatalError("vm.invoke", "native function "+f.name+" returned a dangling handle")
		}
	}
	if st := v.CloseHandleScope(scope); st != sys.StatusOK {
		v.FatalError("vm.invoke", "native function "+f.name+" left handle scopes open")
	}
	if v.hasPending {
		return Undefined, sys.StatusPendingException
	}
	return result, sys.StatusOK
}

// callExport is the embedder-side call path used by CallExport.
func (v *VM) callExport(f *Object, args []Value) (Value, sys.Status) {
	v.record(trace.KindCall, f.name)
	return v.invoke(f, Undefined, args)
}
