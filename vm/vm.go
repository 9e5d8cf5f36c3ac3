package vm

import (
	"time"

	"github.com/google/uuid"
	"github.com/tliron/commonlog"

	"github.com/chazu/tether/sys"
	"github.com/chazu/tether/trace"
)

var log = commonlog.GetLogger("tether.vm")

// Options configures a VM.
type Options struct {
	// MaxScopeDepth bounds handle scope nesting. Zero means
	// DefaultMaxScopeDepth.
	MaxScopeDepth int

	// GCEvery runs a full collection after this many allocations. Zero
	// disables allocation-triggered collection; 1 collects before every
	// allocating entry point (stress mode).
	GCEvery int

	// Recorder, if set, receives scope and collector events.
	Recorder trace.Recorder
}

// VM is a single host instance. It is not safe for concurrent use; wrap
// it in a Worker to share it between goroutines.
type VM struct {
	id     string
	opts   Options
	heap   *heap
	scopes *scopeStack

	// Module namespaces are roots for the lifetime of the VM.
	modules     map[string]Value
	moduleOrder []string

	pending    Value
	hasPending bool

	instanceData any

	seq       uint64
	lastStats *GCStats
	gcCount   uint64
}

// New creates a VM with the given options.
func New(opts Options) *VM {
	v := &VM{
		id:      uuid.New().String(),
		opts:    opts,
		heap:    newHeap(),
		scopes:  newScopeStack(opts.MaxScopeDepth),
		modules: make(map[string]Value),
		pending: Undefined,
	}
	log.Debugf("vm %s created (max scope depth %d, gc every %d)", v.id, v.scopes.maxDepth, opts.GCEvery)
	return v
}

// ID returns the VM's instance id.
func (v *VM) ID() string { return v.id }

// ScopeDepth returns the number of open handle scopes.
func (v *VM) ScopeDepth() int { return v.scopes.depth() }

// ObjectCount returns the number of live heap objects.
func (v *VM) ObjectCount() int { return v.heap.count() }

// Close closes the recorder, if any.
func (v *VM) Close() error {
	if v.opts.Recorder == nil {
		return nil
	}
	return v.opts.Recorder.Close()
}

// record sends an event to the recorder. Recorder failures are logged and
// otherwise ignored; tracing must never change host behavior.
func (v *VM) record(kind trace.Kind, detail string) {
	if v.opts.Recorder == nil {
		return
	}
	v.seq++
	e := trace.Event{
		VM:     v.id,
		Seq:    v.seq,
		Kind:   kind,
		Depth:  v.scopes.depth(),
		Detail: detail,
		At:     time.Now(),
	}
	if err := v.opts.Recorder.Record(e); err != nil {
		log.Warningf("trace: %v", err)
	}
}

// ---------------------------------------------------------------------------
// Fatal errors
// ---------------------------------------------------------------------------

// FatalError implements sys.Env. It never returns.
func (v *VM) FatalError(location, message string) {
	log.Criticalf("%s: %s", location, message)
	panic(&sys.FatalError{Location: location, Message: message})
}

// ---------------------------------------------------------------------------
// Instance data
// ---------------------------------------------------------------------------

// SetInstanceData implements sys.Env.
func (v *VM) SetInstanceData(data any) sys.Status {
	v.instanceData = data
	return sys.StatusOK
}

// InstanceData implements sys.Env.
func (v *VM) InstanceData() (any, sys.Status) {
	return v.instanceData, sys.StatusOK
}

var _ sys.Env = (*VM)(nil)
