// Package tagcache provides an in-memory key/value cache with TTL expiry,
// tag-based bulk invalidation, subscriber notifications, and an
// optimistic-update helper with rollback.
package tagcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/medrail/casebook/pkg/logger"
)

const (
	maxKeyLength = 250

	// TagOptimistic marks entries written by OptimisticUpdate that have not
	// been confirmed by the backing store yet.
	TagOptimistic = "optimistic"
)

var (
	ErrEmptyKey      = errors.New("cache key must not be empty")
	ErrKeyTooLong    = fmt.Errorf("cache key exceeds %d bytes", maxKeyLength)
	ErrValueTooLarge = errors.New("cache value exceeds the configured size ceiling")
	ErrDestroyed     = errors.New("cache has been destroyed")
)

type (
	// Config bounds the cache. Zero values fall back to the defaults below.
	Config struct {
		MaxEntries    int
		MaxValueBytes int
		DefaultTTL    time.Duration
	}

	// Event describes a cache change delivered to subscribers.
	Event struct {
		Pattern string
		Key     string
		Tag     string
	}

	// Subscriber receives cache events. Panics are recovered and logged,
	// one failing subscriber never prevents the others from running.
	Subscriber func(Event)

	// Stats is a point-in-time snapshot of cache counters.
	Stats struct {
		Hits          uint64
		Misses        uint64
		Evictions     uint64
		Invalidations uint64
		Entries       int
	}

	entry struct {
		value    any
		storedAt time.Time
		ttl      time.Duration
		version  string
		tags     []string
	}

	// Cache is safe for concurrent use. Construct it with New and pass it
	// through the composition root; there is no package-level instance.
	Cache struct {
		mu          sync.Mutex
		cfg         Config
		entries     map[string]*entry
		subscribers map[string]map[uint64]Subscriber
		nextSubID   uint64
		destroyed   bool
		stats       Stats
		logger      logger.Logger
		now         func() time.Time
	}

	// CacheOption customizes a Cache at construction time.
	CacheOption func(*Cache)
)

const (
	defaultMaxEntries    = 1000
	defaultMaxValueBytes = 1 << 20
	defaultTTL           = 5 * time.Minute
)

// WithClock overrides the time source, used by tests to simulate expiry.
func WithClock(now func() time.Time) CacheOption {
	return func(c *Cache) {
		c.now = now
	}
}

func New(cfg Config, log logger.Logger, opts ...CacheOption) *Cache {
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = defaultMaxEntries
	}

	if cfg.MaxValueBytes <= 0 {
		cfg.MaxValueBytes = defaultMaxValueBytes
	}

	if cfg.DefaultTTL <= 0 {
		cfg.DefaultTTL = defaultTTL
	}

	cache := &Cache{
		cfg:         cfg,
		entries:     make(map[string]*entry),
		subscribers: make(map[string]map[uint64]Subscriber),
		logger:      log,
		now:         time.Now,
	}

	for _, opt := range opts {
		opt(cache)
	}

	return cache
}

// Set stores a value under key. The key must be a non-empty string under the
// length ceiling and the JSON encoding of the value must fit the configured
// size ceiling. Inserting beyond MaxEntries evicts oldest entries first.
func (c *Cache) Set(key string, value any, opts ...Option) error {
	if key == "" {
		return ErrEmptyKey
	}

	if len(key) > maxKeyLength {
		return ErrKeyTooLong
	}

	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding cache value: %w", err)
	}

	if len(encoded) > c.cfg.MaxValueBytes {
		return ErrValueTooLarge
	}

	options := entryOptions{ttl: c.cfg.DefaultTTL}
	for _, opt := range opts {
		opt(&options)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.destroyed {
		return ErrDestroyed
	}

	c.entries[key] = &entry{
		value:    value,
		storedAt: c.now(),
		ttl:      options.ttl,
		version:  options.version,
		tags:     options.tags,
	}

	c.evictOverflowLocked()

	return nil
}

// Get returns the cached value for key. Expired entries are removed on
// access and reported as a miss; there is no background sweep.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ent, ok := c.entries[key]
	if !ok {
		c.stats.Misses++

		return nil, false
	}

	if c.now().Sub(ent.storedAt) > ent.ttl {
		delete(c.entries, key)
		c.stats.Misses++

		return nil, false
	}

	c.stats.Hits++

	return ent.value, true
}

// Delete removes a single key and reports whether it was present.
func (c *Cache) Delete(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.entries[key]
	delete(c.entries, key)

	return ok
}

// InvalidateByTag removes every entry carrying the tag and notifies
// subscribers registered under "tag:<tag>". It returns the number of
// entries removed.
func (c *Cache) InvalidateByTag(tag string) int {
	c.mu.Lock()

	removed := make([]string, 0)

	for key, ent := range c.entries {
		for _, entryTag := range ent.tags {
			if entryTag == tag {
				delete(c.entries, key)
				removed = append(removed, key)

				break
			}
		}
	}

	c.stats.Invalidations += uint64(len(removed))

	pattern := "tag:" + tag
	callbacks := c.subscribersForLocked(pattern)

	c.mu.Unlock()

	sort.Strings(removed)

	for _, key := range removed {
		c.dispatch(callbacks, Event{Pattern: pattern, Key: key, Tag: tag})
	}

	return len(removed)
}

// Subscribe registers a callback under a pattern (e.g. "tag:surgery_sets" or
// "table:departments") and returns an unsubscribe closure.
func (c *Cache) Subscribe(pattern string, fn Subscriber) (func(), error) {
	if pattern == "" {
		return nil, errors.New("subscription pattern must not be empty")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.destroyed {
		return nil, ErrDestroyed
	}

	if c.subscribers[pattern] == nil {
		c.subscribers[pattern] = make(map[uint64]Subscriber)
	}

	id := c.nextSubID
	c.nextSubID++
	c.subscribers[pattern][id] = fn

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()

		if callbacks, ok := c.subscribers[pattern]; ok {
			delete(callbacks, id)

			if len(callbacks) == 0 {
				delete(c.subscribers, pattern)
			}
		}
	}, nil
}

// Notify delivers an event to every subscriber registered under pattern.
// External feeds (the realtime listener) use this to fan out table changes.
func (c *Cache) Notify(pattern string, event Event) {
	c.mu.Lock()
	callbacks := c.subscribersForLocked(pattern)
	c.mu.Unlock()

	event.Pattern = pattern

	c.dispatch(callbacks, event)
}

// OptimisticUpdate applies update to the current cached value immediately,
// then runs op. On success the entry is replaced with the operation result;
// on failure the entry is rolled back to its previous value, or removed when
// there was none.
func (c *Cache) OptimisticUpdate(
	ctx context.Context,
	key string,
	update func(current any) any,
	op func(ctx context.Context) (any, error),
) (any, error) {
	c.mu.Lock()

	if c.destroyed {
		c.mu.Unlock()

		return nil, ErrDestroyed
	}

	prior, existed := c.entries[key]

	var current any
	tags := []string{TagOptimistic}

	if existed {
		current = prior.value
		tags = append(tags, prior.tags...)
	}

	c.entries[key] = &entry{
		value:    update(current),
		storedAt: c.now(),
		ttl:      c.cfg.DefaultTTL,
		tags:     tags,
	}

	c.mu.Unlock()

	result, err := op(ctx)
	if err != nil {
		c.mu.Lock()
		if existed {
			c.entries[key] = prior
		} else {
			delete(c.entries, key)
		}
		c.mu.Unlock()

		c.logger.Warn().
			Err(err).
			Str("key", key).
			Msg("optimistic update rolled back")

		return nil, err
	}

	keepTags := tags[1:]

	c.mu.Lock()
	c.entries[key] = &entry{
		value:    result,
		storedAt: c.now(),
		ttl:      c.cfg.DefaultTTL,
		tags:     keepTags,
	}
	c.mu.Unlock()

	return result, nil
}

// Len reports the number of live entries, expired or not.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}

// Snapshot returns the current counters.
func (c *Cache) Snapshot() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := c.stats
	stats.Entries = len(c.entries)

	return stats
}

// Destroy clears all entries and subscribers and rejects further writes.
func (c *Cache) Destroy() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*entry)
	c.subscribers = make(map[string]map[uint64]Subscriber)
	c.destroyed = true
}

func (c *Cache) evictOverflowLocked() {
	if len(c.entries) <= c.cfg.MaxEntries {
		return
	}

	type keyedAge struct {
		key      string
		storedAt time.Time
	}

	ordered := make([]keyedAge, 0, len(c.entries))
	for key, ent := range c.entries {
		ordered = append(ordered, keyedAge{key: key, storedAt: ent.storedAt})
	}

	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].storedAt.Before(ordered[j].storedAt)
	})

	for _, candidate := range ordered {
		if len(c.entries) <= c.cfg.MaxEntries {
			break
		}

		delete(c.entries, candidate.key)
		c.stats.Evictions++
	}
}

func (c *Cache) subscribersForLocked(pattern string) []Subscriber {
	callbacks := make([]Subscriber, 0, len(c.subscribers[pattern]))
	for _, fn := range c.subscribers[pattern] {
		callbacks = append(callbacks, fn)
	}

	return callbacks
}

func (c *Cache) dispatch(callbacks []Subscriber, event Event) {
	for _, fn := range callbacks {
		func() {
			defer func() {
				if rvr := recover(); rvr != nil {
					c.logger.Error().
						Interface("panic", rvr).
						Str("pattern", event.Pattern).
						Str("key", event.Key).
						Msg("cache subscriber panicked")
				}
			}()

			fn(event)
		}()
	}
}
