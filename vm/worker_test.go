package vm

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/chazu/tether/sys"
)

func TestWorkerDo(t *testing.T) {
	v := newTestVM(t, Options{})
	w := NewWorker(v)
	defer w.Stop()

	if w.VM() != v {
		t.Fatalf("expected worker to wrap the VM")
	}
	if err := doLoad(w, "raw", rawInit); err != nil {
		t.Fatalf("load: %v", err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			out, err := w.Do(func(v *VM) (any, error) {
				return v.CallExport("raw", "double", n)
			})
			if err != nil {
				errs <- err
				return
			}
			if out != float64(2*n) {
				errs <- errors.New("wrong result")
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("concurrent call: %v", err)
	}
}

func doLoad(w *Worker, name string, init sys.ModuleInit) error {
	_, err := w.Do(func(v *VM) (any, error) {
		return nil, v.Load(name, init)
	})
	return err
}

func TestWorkerPanicBecomesError(t *testing.T) {
	w := NewWorker(newTestVM(t, Options{}))
	defer w.Stop()

	_, err := w.Do(func(v *VM) (any, error) {
		panic("boom")
	})
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("expected panic as error, got %v", err)
	}

	// The worker keeps serving after a panic.
	out, err := w.Do(func(v *VM) (any, error) { return v.ID(), nil })
	if err != nil || out == "" {
		t.Errorf("expected worker to survive, got %v %v", out, err)
	}
}

func TestWorkerFatalPanicsCaller(t *testing.T) {
	w := NewWorker(newTestVM(t, Options{}))
	defer w.Stop()

	fe := expectFatal(t, func() {
		w.Do(func(v *VM) (any, error) {
			v.FatalError("test", "unrecoverable")
			return nil, nil
		})
	})
	if fe.Message != "unrecoverable" {
		t.Errorf("expected message %q, got %q", "unrecoverable", fe.Message)
	}
}

func TestWorkerStopped(t *testing.T) {
	w := NewWorker(newTestVM(t, Options{}))
	w.Stop()
	w.Stop()

	done := make(chan error, 1)
	go func() {
		_, err := w.Do(func(v *VM) (any, error) { return nil, nil })
		done <- err
	}()
	select {
	case err := <-done:
		if !errors.Is(err, ErrWorkerStopped) {
			t.Errorf("expected ErrWorkerStopped, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Do blocked on a stopped worker")
	}
}

func TestWorkerStopConcurrent(t *testing.T) {
	w := NewWorker(newTestVM(t, Options{}))
	defer w.Stop()

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.Stop()
		}()
	}
	wg.Wait()

	if _, err := w.Do(func(v *VM) (any, error) { return nil, nil }); !errors.Is(err, ErrWorkerStopped) {
		t.Errorf("expected ErrWorkerStopped, got %v", err)
	}
}
