// Package querycache is a keyed request cache for read-only API queries.
//
// Each key has at most one fetch in flight; concurrent callers for the same
// key share it and its result. Entries carry tags for bulk invalidation and
// a TTL after which they are stale. Stale entries are served immediately
// while one background refresh runs (stale-while-revalidate), unless that
// policy is disabled, in which case callers wait for the refetch. Entries
// not held by any view are evicted by Sweep once they have been unused for
// longer than their TTL.
package querycache

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
)

type entry struct {
	status     Status
	value      any
	err        error
	tags       map[Tag]struct{}
	ttl        time.Duration
	fetchedAt  time.Time
	touchedAt  time.Time
	releasedAt time.Time
	inflight   bool
	invalid    bool
	// invalidations counts Invalidate/Refresh calls so a flight can tell
	// whether it was overtaken by one.
	invalidations uint64
}

// loader is the type-erased form of a Query.
type loader struct {
	key   string
	ttl   time.Duration
	ctx   context.Context
	fetch func(context.Context) (any, error)
	tags  func(any, error) []Tag
}

// Cache is safe for concurrent use.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*entry
	holds   map[string]map[string]struct{} // owner -> held keys
	gen     uint64                         // bumped by Reset
	group   singleflight.Group

	now     func() time.Time
	swr     bool
	onEvent func(Event)
	logger  *slog.Logger

	hits, misses, staleServes, fetches, joins, evictions atomic.Int64
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// WithLogger sets the logger for cache activity (debug level).
func WithLogger(l *slog.Logger) Option {
	return func(c *Cache) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithEventHandler registers fn to receive every entry transition.
// fn is called outside the cache lock and must not block.
func WithEventHandler(fn func(Event)) Option {
	return func(c *Cache) { c.onEvent = fn }
}

// WithStaleWhileRevalidate toggles serving stale data during refresh (default on).
func WithStaleWhileRevalidate(enabled bool) Option {
	return func(c *Cache) { c.swr = enabled }
}

// New creates an empty cache.
func New(opts ...Option) *Cache {
	c := &Cache{
		entries: make(map[string]*entry),
		holds:   make(map[string]map[string]struct{}),
		now:     time.Now,
		swr:     true,
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch returns the value for q.Key, fetching it if needed.
//
// A fresh Ready entry is returned without a network call. A stale one is
// returned immediately and refreshed in the background when
// stale-while-revalidate is on. Otherwise the caller joins the key's
// in-flight fetch or starts one. If ctx ends first, Fetch returns ctx.Err()
// and the fetch keeps running to populate the cache.
func Fetch[T any](ctx context.Context, c *Cache, q Query[T]) (T, error) {
	var zero T
	if q.Key == "" {
		return zero, ErrEmptyKey
	}
	if q.Fetch == nil {
		return zero, ErrNoFetcher
	}
	l := erase(ctx, q)

	c.mu.Lock()
	now := c.now()
	e := c.entries[q.Key]
	if e != nil && e.status == StatusReady && !(e.inflight && !c.swr) {
		v, ok := e.value.(T)
		if !ok {
			c.mu.Unlock()
			return zero, fmt.Errorf("%w: key %q holds %T", ErrTypeMismatch, q.Key, e.value)
		}
		if !e.stale(now) {
			e.touchedAt = now
			c.mu.Unlock()
			c.hits.Add(1)
			return v, nil
		}
		if c.swr {
			e.touchedAt = now
			c.mu.Unlock()
			c.staleServes.Add(1)
			c.logger.Debug("querycache stale serve", "key", q.Key)
			c.revalidate(l)
			return v, nil
		}
	}
	if e != nil && e.inflight {
		c.joins.Add(1)
		c.logger.Debug("querycache join", "key", q.Key)
	} else {
		c.misses.Add(1)
	}
	c.mu.Unlock()

	ch := c.group.DoChan(q.Key, func() (any, error) {
		return c.load(l)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		v, ok := res.Val.(T)
		if !ok {
			return zero, fmt.Errorf("%w: key %q holds %T", ErrTypeMismatch, q.Key, res.Val)
		}
		return v, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Peek returns the current state of key without fetching.
// An unknown key reports StatusLoading.
func Peek[T any](c *Cache, key string) Result[T] {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.entries[key]
	if e == nil {
		return Result[T]{Status: StatusLoading}
	}
	r := Result[T]{
		Status:    e.status,
		Err:       e.err,
		FetchedAt: e.fetchedAt,
		Stale:     e.status == StatusReady && e.stale(c.now()),
	}
	if v, ok := e.value.(T); ok {
		r.Data = v
	}
	return r
}

func erase[T any](ctx context.Context, q Query[T]) loader {
	l := loader{
		key: q.Key,
		ttl: q.TTL,
		ctx: context.WithoutCancel(ctx),
		fetch: func(ctx context.Context) (any, error) {
			return q.Fetch(ctx)
		},
	}
	if q.Tags != nil {
		l.tags = func(v any, err error) []Tag {
			t, _ := v.(T)
			return q.Tags(t, err)
		}
	}
	return l
}

// revalidate starts a background refresh unless one is already in flight.
func (c *Cache) revalidate(l loader) {
	// DoChan runs the loader in its own goroutine; the buffered result is dropped.
	c.group.DoChan(l.key, func() (any, error) {
		return c.load(l)
	})
}

// load runs inside a singleflight call: at most one per key at a time.
func (c *Cache) load(l loader) (any, error) {
	c.mu.Lock()
	now := c.now()
	e := c.entries[l.key]
	// A caller that checked the entry just before a previous flight stored
	// its result lands here; serve what that flight stored.
	if e != nil && e.status == StatusReady && !e.stale(now) {
		v := e.value
		c.mu.Unlock()
		return v, nil
	}
	if e == nil {
		e = &entry{status: StatusLoading, touchedAt: now}
		c.entries[l.key] = e
	}
	e.inflight = true
	if e.status != StatusReady {
		e.status = StatusLoading
		e.err = nil
	}
	gen := c.gen
	startInvalidations := e.invalidations
	c.mu.Unlock()

	c.fetches.Add(1)
	c.logger.Debug("querycache fetch", "key", l.key)
	c.emit(Event{Key: l.key, Kind: EventPending, At: now})

	v, err := l.fetch(l.ctx)
	var tags []Tag
	if l.tags != nil {
		tags = l.tags(v, err)
	}

	c.mu.Lock()
	now = c.now()
	if c.gen != gen {
		// Reset while in flight: hand the result to waiters, keep nothing.
		c.mu.Unlock()
		return v, err
	}
	e = c.entries[l.key]
	if e == nil {
		e = &entry{}
		c.entries[l.key] = e
	}
	e.inflight = false
	e.ttl = l.ttl
	e.touchedAt = now
	e.tags = make(map[Tag]struct{}, len(tags))
	for _, t := range tags {
		e.tags[t] = struct{}{}
	}
	ev := Event{Key: l.key, At: now}
	if err != nil {
		e.status = StatusError
		e.err = err
		ev.Kind = EventError
		ev.Err = err
	} else {
		e.status = StatusReady
		e.value = v
		e.err = nil
		e.fetchedAt = now
		e.invalid = e.invalidations != startInvalidations
		ev.Kind = EventReady
	}
	c.mu.Unlock()

	if err != nil {
		c.logger.Debug("querycache fetch failed", "key", l.key, "err", err)
	}
	c.emit(ev)
	return v, err
}

// stale reports whether a Ready entry must be refetched.
func (e *entry) stale(now time.Time) bool {
	if e.invalid {
		return true
	}
	return e.ttl > 0 && now.Sub(e.fetchedAt) > e.ttl
}

// Invalidate marks every entry carrying any of tags as stale and returns
// how many entries were affected. Flights in progress still store their
// result, but it stays stale.
func (c *Cache) Invalidate(tags ...Tag) int {
	if len(tags) == 0 {
		return 0
	}
	c.mu.Lock()
	now := c.now()
	var keys []string
	for key, e := range c.entries {
		for _, t := range tags {
			if _, ok := e.tags[t]; ok {
				e.invalid = true
				e.invalidations++
				keys = append(keys, key)
				break
			}
		}
	}
	c.mu.Unlock()

	sort.Strings(keys)
	c.logger.Debug("querycache invalidate", "tags", fmt.Sprint(tags), "entries", len(keys))
	for _, key := range keys {
		c.emit(Event{Key: key, Kind: EventInvalidated, At: now})
	}
	return len(keys)
}

// Refresh marks key stale so the next access refetches it.
// It reports whether the key was cached.
func (c *Cache) Refresh(key string) bool {
	c.mu.Lock()
	now := c.now()
	e := c.entries[key]
	if e == nil {
		c.mu.Unlock()
		return false
	}
	e.invalid = true
	e.invalidations++
	c.mu.Unlock()

	c.emit(Event{Key: key, Kind: EventInvalidated, At: now})
	return true
}

// Hold replaces the set of keys referenced by owner. Keys no longer held by
// any owner start their unused period now. Hold with no keys releases all of
// owner's keys.
func (c *Cache) Hold(owner string, keys ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	prev := c.holds[owner]
	next := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		if k != "" {
			next[k] = struct{}{}
		}
	}
	if len(next) == 0 {
		delete(c.holds, owner)
	} else {
		c.holds[owner] = next
	}
	for k := range prev {
		if _, still := next[k]; still || c.heldLocked(k) {
			continue
		}
		if e := c.entries[k]; e != nil {
			e.releasedAt = now
		}
	}
}

func (c *Cache) heldLocked(key string) bool {
	for _, keys := range c.holds {
		if _, ok := keys[key]; ok {
			return true
		}
	}
	return false
}

// Sweep evicts entries that are not in flight, not held, and unused for
// longer than their TTL. It returns the number of evicted entries.
func (c *Cache) Sweep() int {
	c.mu.Lock()
	now := c.now()
	var evicted []string
	for key, e := range c.entries {
		if e.inflight || e.ttl <= 0 || c.heldLocked(key) {
			continue
		}
		last := e.touchedAt
		if e.releasedAt.After(last) {
			last = e.releasedAt
		}
		if now.Sub(last) > e.ttl {
			delete(c.entries, key)
			evicted = append(evicted, key)
		}
	}
	c.mu.Unlock()

	sort.Strings(evicted)
	c.evictions.Add(int64(len(evicted)))
	for _, key := range evicted {
		c.logger.Debug("querycache evict", "key", key)
		c.emit(Event{Key: key, Kind: EventEvicted, At: now})
	}
	return len(evicted)
}

// Reset drops every entry and hold. Results of fetches still in flight are
// returned to their waiters but not stored.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key, e := range c.entries {
		if e.inflight {
			c.group.Forget(key)
		}
	}
	c.entries = make(map[string]*entry)
	c.holds = make(map[string]map[string]struct{})
	c.gen++
	c.logger.Debug("querycache reset")
}

// Len returns the number of cached entries, including pending ones.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Keys returns the cached keys in sorted order.
func (c *Cache) Keys() []string {
	c.mu.Lock()
	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	c.mu.Unlock()
	sort.Strings(keys)
	return keys
}

// Tags returns the tags of key, sorted by their string form.
func (c *Cache) Tags(key string) []Tag {
	c.mu.Lock()
	e := c.entries[key]
	var tags []Tag
	if e != nil {
		tags = make([]Tag, 0, len(e.tags))
		for t := range e.tags {
			tags = append(tags, t)
		}
	}
	c.mu.Unlock()
	sort.Slice(tags, func(i, j int) bool { return tags[i].String() < tags[j].String() })
	return tags
}

// Stats returns a snapshot of the cumulative counters.
func (c *Cache) Stats() Stats {
	return Stats{
		Hits:        c.hits.Load(),
		Misses:      c.misses.Load(),
		StaleServes: c.staleServes.Load(),
		Fetches:     c.fetches.Load(),
		Joins:       c.joins.Load(),
		Evictions:   c.evictions.Load(),
	}
}

func (c *Cache) emit(ev Event) {
	if c.onEvent != nil {
		c.onEvent(ev)
	}
}
