package app

import (
	"sync"
	"time"
)

// coalesceWindow batches change events: a burst of saves triggers one
// regeneration, not one per event.
const coalesceWindow = 300 * time.Millisecond

// ChangeCoalescer turns a stream of per-file change callbacks into batched
// rebuild triggers. The watcher already debounces per-file noise; this
// layer collapses cross-file bursts (branch switches, formatters).
type ChangeCoalescer struct {
	mu      sync.Mutex
	pending map[string]bool
	timer   *time.Timer
	rebuild func(changed []string)
}

// NewChangeCoalescer wraps rebuild so it fires once per quiet period with
// the accumulated set of changed paths.
func NewChangeCoalescer(rebuild func(changed []string)) *ChangeCoalescer {
	return &ChangeCoalescer{
		pending: make(map[string]bool),
		rebuild: rebuild,
	}
}

// OnChange records one changed path and (re)arms the flush timer. Safe to
// call from any goroutine; the watcher invokes it from its event loop.
func (c *ChangeCoalescer) OnChange(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.pending[path] = true
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(coalesceWindow, c.flush)
}

func (c *ChangeCoalescer) flush() {
	c.mu.Lock()
	changed := make([]string, 0, len(c.pending))
	for p := range c.pending {
		changed = append(changed, p)
	}
	c.pending = make(map[string]bool)
	c.mu.Unlock()

	if len(changed) > 0 {
		c.rebuild(changed)
	}
}

// Stop cancels any armed flush.
func (c *ChangeCoalescer) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.timer != nil {
		c.timer.Stop()
	}
}
