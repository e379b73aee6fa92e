package querycache

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrEmptyKey is returned by Fetch for a query without a key.
	ErrEmptyKey = errors.New("querycache: empty key")

	// ErrNoFetcher is returned by Fetch for a query without a fetch function.
	ErrNoFetcher = errors.New("querycache: no fetch function")

	// ErrTypeMismatch is returned when a key holds a value of a different type
	// than the one requested.
	ErrTypeMismatch = errors.New("querycache: type mismatch")
)

// Status is the three-state projection of a cache entry seen by consumers.
type Status int

const (
	StatusLoading Status = iota // No data yet; a fetch is pending or has not started.
	StatusReady                 // Data is available (possibly stale).
	StatusError                 // The most recent fetch failed.
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Tag labels cache entries for bulk invalidation, e.g. {Type: "Pokemon", ID: "25"}.
type Tag struct {
	Type string
	ID   string
}

func (t Tag) String() string {
	if t.ID == "" {
		return t.Type
	}
	return t.Type + ":" + t.ID
}

// Query describes one logical request.
type Query[T any] struct {
	// Key identifies the request; it must be built deterministically from
	// the request parameters.
	Key string

	// TTL is how long a successful result stays fresh. It is also how long an
	// unreferenced entry is kept before Sweep evicts it. Zero means never stale
	// and never evicted.
	TTL time.Duration

	// Tags returns the tags for a finished fetch. It is called with the
	// error as well, so failed entries can still carry a page tag.
	Tags func(value T, err error) []Tag

	// Fetch performs the network call. Its context is detached from the
	// caller's cancellation.
	Fetch func(ctx context.Context) (T, error)
}

// Result is a non-blocking snapshot of a key.
type Result[T any] struct {
	Status    Status
	Data      T // last good value; zero while loading
	Err       error
	Stale     bool
	FetchedAt time.Time
}

// EventKind is the kind of entry transition reported to the event handler.
type EventKind string

const (
	EventPending     EventKind = "pending"
	EventReady       EventKind = "ready"
	EventError       EventKind = "error"
	EventInvalidated EventKind = "invalidated"
	EventEvicted     EventKind = "evicted"
)

// Event reports a state transition for one key.
type Event struct {
	Key  string
	Kind EventKind
	Err  error
	At   time.Time
}

// Stats are cumulative counters since the cache was created.
type Stats struct {
	Hits        int64 // fresh entries served
	Misses      int64 // lookups that started a fetch
	StaleServes int64 // stale entries served while revalidating
	Fetches     int64 // network calls made
	Joins       int64 // lookups that attached to an in-flight fetch
	Evictions   int64
}
