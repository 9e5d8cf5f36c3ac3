package vm

import (
	"testing"
	"time"
)

func TestCollectorCollectNow(t *testing.T) {
	w := NewWorker(newTestVM(t, Options{}))
	defer w.Stop()
	c := NewCollector(w, 0)

	if c.Interval() != DefaultGCInterval {
		t.Errorf("expected default interval, got %v", c.Interval())
	}
	if c.LastStats() != nil {
		t.Errorf("expected no stats before the first collection")
	}

	w.Do(func(v *VM) (any, error) {
		hs, _ := v.OpenHandleScope()
		v.Object()
		v.Object()
		v.CloseHandleScope(hs)
		return nil, nil
	})

	stats, err := c.CollectNow()
	if err != nil {
		t.Fatalf("CollectNow: %v", err)
	}
	if stats.Swept != 2 {
		t.Errorf("expected 2 swept, got %d", stats.Swept)
	}
	if c.SweepCount() != 1 || c.LastStats() != stats {
		t.Errorf("expected collector bookkeeping updated, got count %d", c.SweepCount())
	}
}

func TestCollectorPeriodic(t *testing.T) {
	w := NewWorker(newTestVM(t, Options{}))
	defer w.Stop()
	c := NewCollector(w, 5*time.Millisecond)
	c.Start()
	c.Start()
	defer c.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for c.SweepCount() < 3 {
		if time.Now().After(deadline) {
			t.Fatalf("expected periodic collections, got %d", c.SweepCount())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestCollectorDisabled(t *testing.T) {
	w := NewWorker(newTestVM(t, Options{}))
	defer w.Stop()
	c := NewCollector(w, 5*time.Millisecond)
	c.SetEnabled(false)
	if c.IsEnabled() {
		t.Fatalf("expected collector disabled")
	}
	c.Start()
	time.Sleep(50 * time.Millisecond)
	c.Stop()

	if c.SweepCount() != 0 {
		t.Errorf("expected no collections while disabled, got %d", c.SweepCount())
	}

	// Stopping twice, or stopping a collector that never started, is a
	// no-op.
	c.Stop()
	NewCollector(w, time.Second).Stop()
}
