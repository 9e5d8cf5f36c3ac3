// Package trace records handle-scope and collector activity of a host.
//
// A Recorder receives one Event per scope open, scope close, escape,
// collection, module load and export call. Recording is synchronous and
// happens on the host thread; sinks must not call back into the host.
package trace

import (
	"fmt"
	"sync"
	"time"

	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("tether.trace")

// Kind identifies what happened.
type Kind string

const (
	KindOpenScope  Kind = "open-scope"
	KindCloseScope Kind = "close-scope"
	KindEscape     Kind = "escape"
	KindCollect    Kind = "collect"
	KindLoad       Kind = "load"
	KindCall       Kind = "call"
)

// Event is a single recorded occurrence.
type Event struct {
	VM     string    // host instance id
	Seq    uint64    // per-host sequence number, starting at 1
	Kind   Kind      // what happened
	Depth  int       // handle scope depth after the event
	Detail string    // free-form detail (scope serial, export name, counts)
	At     time.Time // wall clock time of the event
}

func (e Event) String() string {
	return fmt.Sprintf("#%d %s depth=%d %s", e.Seq, e.Kind, e.Depth, e.Detail)
}

// Recorder receives events.
type Recorder interface {
	Record(e Event) error
	Close() error
}

// ---------------------------------------------------------------------------
// Memory recorder
// ---------------------------------------------------------------------------

// Memory keeps events in a slice. It is safe for concurrent use.
type Memory struct {
	mu     sync.Mutex
	events []Event
}

// NewMemory creates an empty in-memory recorder.
func NewMemory() *Memory {
	return &Memory{}
}

// Record appends e.
func (m *Memory) Record(e Event) error {
	m.mu.Lock()
	m.events = append(m.events, e)
	m.mu.Unlock()
	return nil
}

// Events returns a copy of all recorded events.
func (m *Memory) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Event, len(m.events))
	copy(out, m.events)
	return out
}

// Count returns the number of recorded events of the given kind.
func (m *Memory) Count(kind Kind) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.events {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

// Reset discards all recorded events.
func (m *Memory) Reset() {
	m.mu.Lock()
	m.events = nil
	m.mu.Unlock()
}

// Close is a no-op.
func (m *Memory) Close() error { return nil }
