package dashboard

import (
	"sync"
	"sync/atomic"

	"github.com/smileynet/dex/internal/querycache"
)

// Bridge carries cache events from the cache's handler goroutines to the
// dashboard. Publish never blocks: when the buffer is full the event is
// dropped, since the next transition for the same key supersedes it.
type Bridge struct {
	mu      sync.Mutex
	ch      chan querycache.Event
	closed  bool
	dropped atomic.Int64
}

// NewBridge creates a Bridge with a buffered event channel.
func NewBridge() *Bridge {
	return &Bridge{ch: make(chan querycache.Event, 64)}
}

// Events returns the read-only channel the dashboard consumes.
func (b *Bridge) Events() <-chan querycache.Event {
	return b.ch
}

// Publish forwards ev. It is safe to pass as a querycache event handler.
func (b *Bridge) Publish(ev querycache.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	select {
	case b.ch <- ev:
	default:
		b.dropped.Add(1)
	}
}

// Dropped returns how many events were discarded on a full buffer.
func (b *Bridge) Dropped() int64 {
	return b.dropped.Load()
}

// Close closes the event channel. Later Publish calls are ignored.
func (b *Bridge) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.closed {
		b.closed = true
		close(b.ch)
	}
}
