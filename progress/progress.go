package progress

import (
	"fmt"
	"sync"
)

// Tracker receives progress events from a pipeline run.
// Implementations must be safe for concurrent use from multiple goroutines.
type Tracker interface {
	OnEvent(any)
}

// NewTracker creates a Tracker from a typed callback function.
// The caller works with a concrete event type; the Tracker interface
// stays non-generic so pipelines can accept any renderer.
func NewTracker[E any](fn func(E)) Tracker {
	return funcTracker(func(v any) {
		if e, ok := v.(E); ok {
			fn(e)
		}
	})
}

type funcTracker func(any)

func (f funcTracker) OnEvent(e any) { f(e) }

// Nop is a no-op tracker for callers that don't need progress.
var Nop Tracker = funcTracker(func(any) {})

// Or returns t, or Nop when t is nil.
func Or(t Tracker) Tracker {
	if t == nil {
		return Nop
	}
	return t
}

// Counter mirrors (completed, total) into an integer percentage and a
// status line. Completed never decreases.
type Counter struct {
	mu        sync.Mutex
	completed int
	total     int
}

// NewCounter returns a Counter for total items.
func NewCounter(total int) *Counter {
	return &Counter{total: total}
}

// Advance records one more completed item and returns the new state.
// Calls past total are clamped.
func (c *Counter) Advance() (completed, total int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.completed < c.total {
		c.completed++
	}
	return c.completed, c.total
}

// State returns the current (completed, total) pair.
func (c *Counter) State() (completed, total int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.completed, c.total
}

// Percent is floor(completed / total * 100), clamped to [0, 100].
// An empty run reports 100.
func Percent(completed, total int) int {
	if total <= 0 {
		return 100
	}
	if completed <= 0 {
		return 0
	}
	if completed >= total {
		return 100
	}
	return completed * 100 / total
}

// Status renders "{completed}/{total} ({percent}%)".
func Status(completed, total int) string {
	return fmt.Sprintf("%d/%d (%d%%)", completed, total, Percent(completed, total))
}
