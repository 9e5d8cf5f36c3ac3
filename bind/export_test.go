package bind

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/chazu/tether/vm"
)

// withRegistry gives the test an empty, unsealed registry, restoring the
// process registry afterwards.
func withRegistry(t *testing.T, register func()) {
	t.Helper()
	registry.Lock()
	saved, sealed := registry.entries, registry.sealed
	registry.entries, registry.sealed = nil, false
	registry.Unlock()
	t.Cleanup(func() {
		registry.Lock()
		registry.entries, registry.sealed = saved, sealed
		registry.Unlock()
	})
	register()
}

func TestExports_HelloAnswer(t *testing.T) {
	withRegistry(t, func() {
		ExportValue("hello", "hello node")
		ExportValue("answer", 42)
	})

	v := newVM(t, vm.Options{})
	if err := v.Load("addon", Init); err != nil {
		t.Fatalf("load: %s", err)
	}
	ns, err := v.Namespace("addon")
	if err != nil {
		t.Fatalf("namespace: %s", err)
	}
	want := map[string]any{"hello": "hello node", "answer": float64(42)}
	if diff := cmp.Diff(want, ns); diff != "" {
		t.Errorf("namespace mismatch (-want +got):\n%s", diff)
	}
}

func TestExports_OrderAndCount(t *testing.T) {
	names := []string{"c", "a", "b", "e", "d"}
	var calls []string
	withRegistry(t, func() {
		for _, name := range names {
			Export(name, func(cx *ModuleContext) (Handle[Any], error) {
				calls = append(calls, name)
				return cx.String(name).Upcast(), nil
			})
		}
	})

	exports := Registered()
	if exports.Len() != len(names) {
		t.Fatalf("expected %d entries, got %d", len(names), exports.Len())
	}
	n := 0
	for range exports.All() {
		n++
	}
	if n != len(names) {
		t.Fatalf("expected %d iterations, got %d", len(names), n)
	}

	v := newVM(t, vm.Options{})
	if err := v.Load("addon", Init); err != nil {
		t.Fatalf("load: %s", err)
	}
	if diff := cmp.Diff(names, calls); diff != "" {
		t.Errorf("creator order mismatch (-want +got):\n%s", diff)
	}
	got, _ := v.ExportNames("addon")
	if diff := cmp.Diff(names, got); diff != "" {
		t.Errorf("export order mismatch (-want +got):\n%s", diff)
	}
}

func TestExports_Idempotent(t *testing.T) {
	withRegistry(t, func() {
		ExportValue("x", 1)
		ExportValue("y", true)
	})

	v := newVM(t, vm.Options{})
	for i := 0; i < 2; i++ {
		if err := v.Load("addon", Init); err != nil {
			t.Fatalf("load %d: %s", i, err)
		}
	}
	got, _ := v.ExportNames("addon")
	if diff := cmp.Diff([]string{"x", "y"}, got); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}
	if n := Registered().Len(); n != 2 {
		t.Errorf("expected registry to stay at 2 entries, got %d", n)
	}
}

func TestExports_SealedAfterRead(t *testing.T) {
	withRegistry(t, func() { ExportValue("x", 1) })
	Registered()

	defer func() {
		if recover() == nil {
			t.Fatalf("expected registration after read to panic")
		}
	}()
	ExportValue("late", 2)
}

func TestExportValue_UnsupportedType(t *testing.T) {
	withRegistry(t, func() {})
	defer func() {
		if recover() == nil {
			t.Fatalf("expected an unsupported constant to panic")
		}
	}()
	ExportValue("bad", struct{}{})
}

func TestExports_StopsAtFirstFailure(t *testing.T) {
	var after bool
	withRegistry(t, func() {
		ExportValue("ok", 1)
		Export("bad", func(cx *ModuleContext) (Handle[Any], error) {
			return Handle[Any]{}, cx.ThrowError("cannot build bad")
		})
		Export("after", func(cx *ModuleContext) (Handle[Any], error) {
			after = true
			return cx.Null().Upcast(), nil
		})
	})

	v := newVM(t, vm.Options{})
	err := v.Load("addon", Init)
	var ex *vm.Exception
	if !errors.As(err, &ex) || ex.Message != "cannot build bad" {
		t.Fatalf("expected exception 'cannot build bad', got %v", err)
	}
	if after {
		t.Errorf("expected export to stop at the first failure")
	}
}

func TestMain_OverridesRegistry(t *testing.T) {
	withRegistry(t, func() { ExportValue("registered", 1) })
	entry.Lock()
	entry.fn = func(cx *ModuleContext) error {
		if err := cx.ExportValue("custom", cx.String("yes")); err != nil {
			return err
		}
		return cx.ExportFunction("twice", func(fcx *FunctionContext) (Handle[Any], error) {
			n, err := Argument[Number](fcx, 0)
			if err != nil {
				return Handle[Any]{}, err
			}
			f, err := fcx.NumberValue(n)
			if err != nil {
				return Handle[Any]{}, err
			}
			return fcx.Number(f * 2).Upcast(), nil
		})
	}
	entry.Unlock()
	t.Cleanup(func() {
		entry.Lock()
		entry.fn = nil
		entry.Unlock()
	})

	v := newVM(t, vm.Options{})
	if err := v.Load("addon", Init); err != nil {
		t.Fatalf("load: %s", err)
	}
	got, _ := v.ExportNames("addon")
	if diff := cmp.Diff([]string{"custom", "twice"}, got); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}
	out, err := v.CallExport("addon", "twice", 21)
	if err != nil || out != float64(42) {
		t.Errorf("expected 42, got %v %v", out, err)
	}
}
