package vm

import (
	"errors"
	"fmt"
	"sync"

	"github.com/chazu/tether/sys"
)

// ErrWorkerStopped is returned by Do after Stop.
var ErrWorkerStopped = errors.New("vm: worker stopped")

// workRequest is a unit of work to be executed on the VM goroutine.
type workRequest struct {
	fn   func(*VM) (any, error)
	done chan workResult
}

type workResult struct {
	value any
	err   error
}

// Worker serializes all VM access through a single goroutine. The host
// is single-threaded; everything that touches the VM from elsewhere
// (embedders, the periodic collector) must go through Do.
type Worker struct {
	vm       *VM
	requests chan workRequest
	quit     chan struct{}
	stopOnce sync.Once
}

// NewWorker creates a Worker and starts its goroutine.
func NewWorker(v *VM) *Worker {
	w := &Worker{
		vm:       v,
		requests: make(chan workRequest, 64),
		quit:     make(chan struct{}),
	}
	go w.loop()
	return w
}

func (w *Worker) loop() {
	for {
		select {
		case req := <-w.requests:
			req.done <- w.execute(req.fn)
		case <-w.quit:
			return
		}
	}
}

// execute runs fn on the VM. Panics are turned into errors, except
// *sys.FatalError, which is re-raised on the caller's goroutine by Do.
func (w *Worker) execute(fn func(*VM) (any, error)) (result workResult) {
	defer func() {
		if r := recover(); r != nil {
			if fe, ok := r.(*sys.FatalError); ok {
				result.err = fe
				return
			}
			result.err = fmt.Errorf("vm: panic on worker: %v", r)
		}
	}()
	result.value, result.err = fn(w.vm)
	return result
}

// Do submits fn for execution on the VM goroutine and blocks until it
// completes. A fatal host error panics in the calling goroutine.
func (w *Worker) Do(fn func(*VM) (any, error)) (any, error) {
	req := workRequest{
		fn:   fn,
		done: make(chan workResult, 1),
	}
	select {
	case <-w.quit:
		return nil, ErrWorkerStopped
	default:
	}
	select {
	case w.requests <- req:
	case <-w.quit:
		return nil, ErrWorkerStopped
	}
	var result workResult
	select {
	case result = <-req.done:
	case <-w.quit:
		return nil, ErrWorkerStopped
	}
	if fe, ok := result.err.(*sys.FatalError); ok {
		panic(fe)
	}
	return result.value, result.err
}

// Stop shuts down the worker goroutine. Calling it again is a no-op.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() { close(w.quit) })
}

// VM returns the underlying VM. Only touch it from inside Do.
func (w *Worker) VM() *VM {
	return w.vm
}
