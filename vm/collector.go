package vm

import (
	"sync"
	"sync/atomic"
	"time"
)

// ---------------------------------------------------------------------------
// Collector: periodic collections driven through a Worker
// ---------------------------------------------------------------------------

// DefaultGCInterval is the default interval between periodic collections.
const DefaultGCInterval = 30 * time.Second

// Collector periodically asks the VM behind a Worker to collect. Work is
// submitted through the worker so collections never race native code.
type Collector struct {
	worker   *Worker
	interval time.Duration
	enabled  atomic.Bool
	stop     chan struct{}
	stopped  chan struct{}
	mu       sync.Mutex // protects start/stop lifecycle

	sweepCount atomic.Uint64
	lastStats  atomic.Value // *GCStats
}

// NewCollector creates a Collector for w. A non-positive interval means
// DefaultGCInterval.
func NewCollector(w *Worker, interval time.Duration) *Collector {
	if interval <= 0 {
		interval = DefaultGCInterval
	}
	c := &Collector{
		worker:   w,
		interval: interval,
	}
	c.enabled.Store(true)
	return c
}

// Start begins the periodic loop. Calling Start twice is harmless.
func (c *Collector) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stop != nil {
		return
	}
	c.stop = make(chan struct{})
	c.stopped = make(chan struct{})

	stopCh := c.stop
	stoppedCh := c.stopped
	go c.loop(stopCh, stoppedCh)
}

// Stop halts the loop and waits for it to finish. Safe to call on a
// collector that was never started.
func (c *Collector) Stop() {
	c.mu.Lock()
	stopCh := c.stop
	stoppedCh := c.stopped
	c.stop = nil
	c.stopped = nil
	c.mu.Unlock()

	if stopCh != nil {
		close(stopCh)
		<-stoppedCh
	}
}

// SetEnabled enables or disables collections. When disabled the loop
// keeps ticking but does nothing.
func (c *Collector) SetEnabled(enabled bool) {
	c.enabled.Store(enabled)
}

// IsEnabled returns whether collections are enabled.
func (c *Collector) IsEnabled() bool {
	return c.enabled.Load()
}

// Interval returns the collection interval.
func (c *Collector) Interval() time.Duration {
	return c.interval
}

// SweepCount returns the number of collections this collector ran.
func (c *Collector) SweepCount() uint64 {
	return c.sweepCount.Load()
}

// LastStats returns statistics from the most recent collection, or nil.
func (c *Collector) LastStats() *GCStats {
	v := c.lastStats.Load()
	if v == nil {
		return nil
	}
	return v.(*GCStats)
}

// CollectNow runs one collection immediately.
func (c *Collector) CollectNow() (*GCStats, error) {
	out, err := c.worker.Do(func(v *VM) (any, error) {
		return v.Collect(), nil
	})
	if err != nil {
		return nil, err
	}
	stats := out.(*GCStats)
	c.sweepCount.Add(1)
	c.lastStats.Store(stats)
	return stats, nil
}

func (c *Collector) loop(stopCh <-chan struct{}, stoppedCh chan struct{}) {
	defer close(stoppedCh)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			if !c.enabled.Load() {
				continue
			}
			if _, err := c.CollectNow(); err != nil {
				log.Warningf("periodic collect: %v", err)
			}
		}
	}
}
