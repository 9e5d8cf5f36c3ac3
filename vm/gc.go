package vm

import (
	"fmt"
	"time"

	"github.com/chazu/tether/trace"
)

// GCStats holds statistics from a single collection.
type GCStats struct {
	Live      int
	Swept     int
	Finalized int
	Duration  time.Duration
	Timestamp time.Time
}

// Collect runs a full mark/sweep collection and returns its statistics.
//
// Roots are the live handle-scope slots, module namespaces and the
// pending exception. Anything else is unreachable as far as native code
// is concerned: a Local whose scope has closed does not keep its object
// alive.
func (v *VM) Collect() *GCStats {
	start := time.Now()

	// Mark phase
	var stack []*Object
	mark := func(val Value) {
		if o := v.heap.object(val); o != nil && !o.marked {
			o.marked = true
			stack = append(stack, o)
		}
	}
	v.scopes.forEachRoot(mark)
	for _, name := range v.moduleOrder {
		mark(v.modules[name])
	}
	if v.hasPending {
		mark(v.pending)
	}
	for len(stack) > 0 {
		o := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		o.forEachRef(mark)
	}

	// Sweep phase
	var dead []*Object
	for id, o := range v.heap.objects {
		if o.marked {
			o.marked = false
			continue
		}
		delete(v.heap.objects, id)
		dead = append(dead, o)
	}
	v.heap.allocs = 0

	// Finalizers run after the heap is consistent again. They receive only
	// native data and cannot reach the host.
	finalized := 0
	for _, o := range dead {
		if o.kind == kindExternal && o.finalize != nil {
			o.finalize(o.data)
			finalized++
		}
	}

	stats := &GCStats{
		Live:      v.heap.count(),
		Swept:     len(dead),
		Finalized: finalized,
		Duration:  time.Since(start),
		Timestamp: start,
	}
	v.gcCount++
	v.lastStats = stats
	v.record(trace.KindCollect, fmt.Sprintf("live=%d swept=%d finalized=%d", stats.Live, stats.Swept, stats.Finalized))
	log.Debugf("collect: %d live, %d swept, %d finalized", stats.Live, stats.Swept, stats.Finalized)
	return stats
}

// GCCount returns the number of collections performed.
func (v *VM) GCCount() uint64 { return v.gcCount }

// LastGCStats returns statistics from the most recent collection, or nil.
func (v *VM) LastGCStats() *GCStats { return v.lastStats }
