// Package engine composes the feeder, worker pool, and discovery persister
// described in spec.md §4.8, generalizing crawler.go's CrawlP
// (dispatcher/resultProcessor/semaphore trio) into the spec's explicit
// three-stage pipeline: feeder -> processing channel -> workers ->
// discovered channel -> persister.
package engine

import (
	"sync"
	"sync/atomic"
	"time"
)

// errorRingSize is the error ring-buffer capacity, per spec.md §3/§4.9.
const errorRingSize = 10

// Counters is the engine's read-only-to-collaborators observability
// surface, grounded on original_source/webcrawler/src/ui.rs's
// CrawlerStats: atomic counters plus a mutex-guarded FIFO error buffer and
// per-host hit map. The dashboard collaborator reads these directly; it
// mutates only the stop flag via Stop().
type Counters struct {
	PagesDispatched int64
	PagesWritten    int64
	QueueInflight   int64
	ActiveWorkers   int64

	StartedAt time.Time

	stop atomic.Bool

	mu       sync.Mutex
	errors   [errorRingSize]string
	errCount int // number of valid slots filled so far, capped at errorRingSize
	errNext  int // next write position (FIFO eviction)
	hosts    map[string]int64
}

// NewCounters returns a fresh Counters with the start instant set to now.
func NewCounters() *Counters {
	return &Counters{
		StartedAt: time.Now(),
		hosts:     make(map[string]int64),
	}
}

// Stop flips the cancellation flag. Advisory: workers and the feeder check
// it at entry/between phases, per spec.md §5.
func (c *Counters) Stop() { c.stop.Store(true) }

// Stopped reports the current state of the stop flag.
func (c *Counters) Stopped() bool { return c.stop.Load() }

// RecordError appends an error message to the ring buffer, evicting the
// oldest entry once full.
func (c *Counters) RecordError(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errors[c.errNext] = msg
	c.errNext = (c.errNext + 1) % errorRingSize
	if c.errCount < errorRingSize {
		c.errCount++
	}
}

// RecentErrors returns a copy of the currently buffered errors, oldest
// first.
func (c *Counters) RecentErrors() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, c.errCount)
	start := c.errNext - c.errCount
	for i := 0; i < c.errCount; i++ {
		idx := ((start+i)%errorRingSize + errorRingSize) % errorRingSize
		out = append(out, c.errors[idx])
	}
	return out
}

// RecordHostHit increments the per-host hit counter.
func (c *Counters) RecordHostHit(host string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hosts[host]++
}

// HostHits returns a snapshot of the per-host hit map.
func (c *Counters) HostHits() map[string]int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]int64, len(c.hosts))
	for k, v := range c.hosts {
		out[k] = v
	}
	return out
}

func (c *Counters) incDispatched() int64 { return atomic.AddInt64(&c.PagesDispatched, 1) }
func (c *Counters) incWritten()          { atomic.AddInt64(&c.PagesWritten, 1) }
func (c *Counters) incInflight()         { atomic.AddInt64(&c.QueueInflight, 1) }
func (c *Counters) decInflight()         { atomic.AddInt64(&c.QueueInflight, -1) }
func (c *Counters) incActive()           { atomic.AddInt64(&c.ActiveWorkers, 1) }
func (c *Counters) decActive()           { atomic.AddInt64(&c.ActiveWorkers, -1) }
