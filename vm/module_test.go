package vm

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/chazu/tether/sys"
	"github.com/chazu/tether/trace"
)

// rawInit exports a few functions written directly against sys.Env.
func rawInit(env sys.Env, exports sys.Local) sys.Local {
	double, _ := env.Function("double", func(env sys.Env, info sys.CallInfo) sys.Local {
		if len(info.Args) < 1 {
			msg, _ := env.TypeError("double needs an argument")
			env.Throw(msg)
			return 0
		}
		n, st := env.NumberValue(info.Args[0])
		if st != sys.StatusOK {
			msg, _ := env.TypeError("expected a number")
			env.Throw(msg)
			return 0
		}
		out, _ := env.Number(n * 2)
		return out
	})
	env.SetNamedProperty(exports, "double", double)

	pair, _ := env.Function("pair", func(env sys.Env, info sys.CallInfo) sys.Local {
		arr, _ := env.Array(0)
		for i, a := range info.Args {
			env.SetElement(arr, i, a)
		}
		return arr
	})
	env.SetNamedProperty(exports, "pair", pair)

	fail, _ := env.Function("fail", func(env sys.Env, info sys.CallInfo) sys.Local {
		s, _ := env.String("plain")
		env.Throw(s)
		return 0
	})
	env.SetNamedProperty(exports, "fail", fail)

	version, _ := env.String("1.0")
	env.SetNamedProperty(exports, "version", version)
	return 0
}

func TestLoadAndCallExport(t *testing.T) {
	rec := trace.NewMemory()
	v := newTestVM(t, Options{Recorder: rec})
	if err := v.Load("raw", rawInit); err != nil {
		t.Fatalf("Load: %v", err)
	}

	names, err := v.ExportNames("raw")
	if err != nil {
		t.Fatalf("ExportNames: %v", err)
	}
	if diff := cmp.Diff([]string{"double", "pair", "fail", "version"}, names); diff != "" {
		t.Errorf("export names mismatch (-want +got):\n%s", diff)
	}

	got, err := v.CallExport("raw", "double", 21)
	if err != nil {
		t.Fatalf("CallExport: %v", err)
	}
	if got != float64(42) {
		t.Errorf("expected 42, got %v", got)
	}

	got, err = v.CallExport("raw", "pair", "a", true, nil)
	if err != nil {
		t.Fatalf("CallExport: %v", err)
	}
	if diff := cmp.Diff([]any{"a", true, nil}, got); diff != "" {
		t.Errorf("pair mismatch (-want +got):\n%s", diff)
	}

	if v.ScopeDepth() != 0 {
		t.Errorf("expected every scope closed, got depth %d", v.ScopeDepth())
	}
	if rec.Count(trace.KindLoad) != 1 || rec.Count(trace.KindCall) != 2 {
		t.Errorf("unexpected trace counts: %v", rec.Events())
	}
	if rec.Count(trace.KindOpenScope) != rec.Count(trace.KindCloseScope) {
		t.Errorf("expected balanced scope events, got %d opens and %d closes",
			rec.Count(trace.KindOpenScope), rec.Count(trace.KindCloseScope))
	}
}

func TestCallExportExceptions(t *testing.T) {
	v := newTestVM(t, Options{})
	if err := v.Load("raw", rawInit); err != nil {
		t.Fatalf("Load: %v", err)
	}

	_, err := v.CallExport("raw", "double", "x")
	var ex *Exception
	if !errors.As(err, &ex) {
		t.Fatalf("expected *Exception, got %v", err)
	}
	if ex.Name != "TypeError" || ex.Message != "expected a number" {
		t.Errorf("unexpected exception %+v", ex)
	}

	_, err = v.CallExport("raw", "fail")
	if !errors.As(err, &ex) {
		t.Fatalf("expected *Exception, got %v", err)
	}
	if ex.Name != "" || ex.Value != "plain" {
		t.Errorf("expected a thrown non-error value, got %+v", ex)
	}
	if pending, _ := v.IsExceptionPending(); pending {
		t.Errorf("expected the exception to be cleared")
	}
}

func TestCallExportErrors(t *testing.T) {
	v := newTestVM(t, Options{})
	if err := v.Load("raw", rawInit); err != nil {
		t.Fatalf("Load: %v", err)
	}

	tests := []struct {
		module, name string
		args         []any
		want         string
	}{
		{"missing", "double", nil, `module "missing" not loaded`},
		{"raw", "version", nil, "raw.version is not a function"},
		{"raw", "nope", nil, "raw.nope is not a function"},
		{"raw", "double", []any{struct{}{}}, "cannot convert struct {}"},
	}
	for _, tt := range tests {
		_, err := v.CallExport(tt.module, tt.name, tt.args...)
		if err == nil || !strings.Contains(err.Error(), tt.want) {
			t.Errorf("CallExport(%s.%s): expected error containing %q, got %v", tt.module, tt.name, tt.want, err)
		}
	}
}

func TestLoadReplacesNamespace(t *testing.T) {
	v := newTestVM(t, Options{})
	err := v.Load("num", func(env sys.Env, exports sys.Local) sys.Local {
		n, _ := env.Number(7)
		return n
	})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, err := v.ExportNames("num"); err == nil {
		t.Errorf("expected a non-object namespace to be reported")
	}
	if diff := cmp.Diff([]string{"num"}, v.Modules()); diff != "" {
		t.Errorf("modules mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadThrowing(t *testing.T) {
	v := newTestVM(t, Options{})
	err := v.Load("bad", func(env sys.Env, exports sys.Local) sys.Local {
		e, _ := env.Error("init failed")
		env.Throw(e)
		return 0
	})
	var ex *Exception
	if !errors.As(err, &ex) || ex.Message != "init failed" {
		t.Fatalf("expected init exception, got %v", err)
	}
	if err := v.Load("nil", nil); err == nil {
		t.Errorf("expected an error for a nil init")
	}
}

func TestCallbackDanglingHandleIsFatal(t *testing.T) {
	v := newTestVM(t, Options{})
	err := v.Load("dangle", func(env sys.Env, exports sys.Local) sys.Local {
		f, _ := env.Function("leak", func(env sys.Env, info sys.CallInfo) sys.Local {
			hs, _ := env.OpenHandleScope()
			n, _ := env.Number(1)
			env.CloseHandleScope(hs)
			return n
		})
		env.SetNamedProperty(exports, "leak", f)
		return 0
	})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	fe := expectFatal(t, func() { v.CallExport("dangle", "leak") })
	if fe.Location != "vm.invoke" {
		t.Errorf("expected location vm.invoke, got %q", fe.Location)
	}
}
