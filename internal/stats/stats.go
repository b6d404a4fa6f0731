// Package stats keeps process-lifetime counters for the scheduler.
package stats

import (
	"sync"
	"time"
)

// EMA weights for the latency average.
const (
	weightOld = 0.9
	weightNew = 0.1
)

// Snapshot is a consistent copy of the counters.
type Snapshot struct {
	TotalCompleted   uint64  `json:"total_completed"`
	TotalSucceeded   uint64  `json:"total_succeeded"`
	TotalFailed      uint64  `json:"total_failed"`
	TotalRetries     uint64  `json:"total_retries"`
	AverageLatencyMs float64 `json:"average_latency_ms"`
}

// FailureRate is TotalFailed / TotalCompleted, or 0 before any outcome.
func (s Snapshot) FailureRate() float64 {
	if s.TotalCompleted == 0 {
		return 0
	}
	return float64(s.TotalFailed) / float64(s.TotalCompleted)
}

// Collector accumulates outcomes. Safe for concurrent use.
type Collector struct {
	mu sync.RWMutex
	s  Snapshot
}

func New() *Collector { return &Collector{} }

// RecordOutcome counts a terminal outcome and folds latency into the average.
func (c *Collector) RecordOutcome(success bool, latency time.Duration) {
	ms := float64(latency) / float64(time.Millisecond)
	c.mu.Lock()
	c.s.TotalCompleted++
	if success {
		c.s.TotalSucceeded++
	} else {
		c.s.TotalFailed++
	}
	c.s.AverageLatencyMs = c.s.AverageLatencyMs*weightOld + ms*weightNew
	c.mu.Unlock()
}

// RecordRetry counts one scheduled retry.
func (c *Collector) RecordRetry() {
	c.mu.Lock()
	c.s.TotalRetries++
	c.mu.Unlock()
}

// Snapshot returns a copy of the counters.
func (c *Collector) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.s
}

// Reset zeroes every counter.
func (c *Collector) Reset() {
	c.mu.Lock()
	c.s = Snapshot{}
	c.mu.Unlock()
}
