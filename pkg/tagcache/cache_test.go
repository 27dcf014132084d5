package tagcache_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/medrail/casebook/pkg/logger"
	"github.com/medrail/casebook/pkg/tagcache"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.now = f.now.Add(d)
}

func newCache(t *testing.T, cfg tagcache.Config, clock *fakeClock) *tagcache.Cache {
	t.Helper()

	opts := []tagcache.CacheOption{}
	if clock != nil {
		opts = append(opts, tagcache.WithClock(clock.Now))
	}

	return tagcache.New(cfg, logger.NewTestLogger(), opts...)
}

func TestSetValidation(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		key     string
		value   any
		cfg     tagcache.Config
		wantErr error
	}{
		{
			name:    "rejects empty key",
			key:     "",
			value:   1,
			wantErr: tagcache.ErrEmptyKey,
		},
		{
			name:    "rejects oversized key",
			key:     strings.Repeat("k", 251),
			value:   1,
			wantErr: tagcache.ErrKeyTooLong,
		},
		{
			name:    "rejects oversized value",
			key:     "big",
			value:   strings.Repeat("v", 64),
			cfg:     tagcache.Config{MaxValueBytes: 16},
			wantErr: tagcache.ErrValueTooLarge,
		},
		{
			name:  "accepts valid entry",
			key:   "ok",
			value: map[string]int{"a": 1},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			cache := newCache(t, tc.cfg, nil)

			err := cache.Set(tc.key, tc.value)

			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)

				return
			}

			require.NoError(t, err)
		})
	}
}

func TestGetExpiresLazily(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	cache := newCache(t, tagcache.Config{}, clock)

	require.NoError(t, cache.Set("key", "value", tagcache.WithTTL(100*time.Millisecond)))

	got, ok := cache.Get("key")
	require.True(t, ok)
	require.Equal(t, "value", got)

	clock.Advance(150 * time.Millisecond)

	got, ok = cache.Get("key")
	require.False(t, ok)
	require.Nil(t, got)

	// the expired entry is removed on access, not left behind
	require.Equal(t, 0, cache.Len())
}

func TestInvalidateByTag(t *testing.T) {
	t.Parallel()

	cache := newCache(t, tagcache.Config{}, nil)

	require.NoError(t, cache.Set("a", 1, tagcache.WithTags("t")))
	require.NoError(t, cache.Set("b", 2, tagcache.WithTags("t", "u")))
	require.NoError(t, cache.Set("c", 3, tagcache.WithTags("u")))

	removed := cache.InvalidateByTag("t")

	require.Equal(t, 2, removed)

	_, ok := cache.Get("a")
	require.False(t, ok)
	_, ok = cache.Get("b")
	require.False(t, ok)

	got, ok := cache.Get("c")
	require.True(t, ok)
	require.Equal(t, 3, got)
}

func TestInvalidateByTagNotifiesSubscribers(t *testing.T) {
	t.Parallel()

	cache := newCache(t, tagcache.Config{}, nil)

	require.NoError(t, cache.Set("a", 1, tagcache.WithTags("surgery_sets")))
	require.NoError(t, cache.Set("b", 2, tagcache.WithTags("surgery_sets")))

	var events []tagcache.Event
	unsubscribe, err := cache.Subscribe("tag:surgery_sets", func(event tagcache.Event) {
		events = append(events, event)
	})
	require.NoError(t, err)

	cache.InvalidateByTag("surgery_sets")

	require.Len(t, events, 2)
	require.Equal(t, "a", events[0].Key)
	require.Equal(t, "b", events[1].Key)
	require.Equal(t, "surgery_sets", events[0].Tag)

	unsubscribe()

	require.NoError(t, cache.Set("c", 3, tagcache.WithTags("surgery_sets")))
	cache.InvalidateByTag("surgery_sets")

	require.Len(t, events, 2)
}

func TestSubscriberPanicIsIsolated(t *testing.T) {
	t.Parallel()

	cache := newCache(t, tagcache.Config{}, nil)

	require.NoError(t, cache.Set("a", 1, tagcache.WithTags("t")))

	_, err := cache.Subscribe("tag:t", func(tagcache.Event) {
		panic("boom")
	})
	require.NoError(t, err)

	var called bool
	_, err = cache.Subscribe("tag:t", func(tagcache.Event) {
		called = true
	})
	require.NoError(t, err)

	require.NotPanics(t, func() {
		cache.InvalidateByTag("t")
	})
	require.True(t, called)
}

func TestEvictsOldestFirst(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	cache := newCache(t, tagcache.Config{MaxEntries: 2}, clock)

	require.NoError(t, cache.Set("oldest", 1))
	clock.Advance(time.Second)
	require.NoError(t, cache.Set("middle", 2))
	clock.Advance(time.Second)
	require.NoError(t, cache.Set("newest", 3))

	require.Equal(t, 2, cache.Len())

	_, ok := cache.Get("oldest")
	require.False(t, ok)

	_, ok = cache.Get("middle")
	require.True(t, ok)
	_, ok = cache.Get("newest")
	require.True(t, ok)

	require.Equal(t, uint64(1), cache.Snapshot().Evictions)
}

func TestOptimisticUpdateSuccess(t *testing.T) {
	t.Parallel()

	cache := newCache(t, tagcache.Config{}, nil)

	require.NoError(t, cache.Set("counter", 10))

	result, err := cache.OptimisticUpdate(
		context.Background(),
		"counter",
		func(current any) any {
			return current.(int) + 1
		},
		func(context.Context) (any, error) {
			return 42, nil
		},
	)

	require.NoError(t, err)
	require.Equal(t, 42, result)

	got, ok := cache.Get("counter")
	require.True(t, ok)
	require.Equal(t, 42, got)
}

func TestOptimisticUpdateRollback(t *testing.T) {
	t.Parallel()

	opFailed := errors.New("backend rejected the write")

	cases := []struct {
		name      string
		seed      bool
		wantValue any
		wantFound bool
	}{
		{
			name:      "restores previous value",
			seed:      true,
			wantValue: "before",
			wantFound: true,
		},
		{
			name:      "removes key when there was none",
			seed:      false,
			wantFound: false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			cache := newCache(t, tagcache.Config{}, nil)

			if tc.seed {
				require.NoError(t, cache.Set("key", "before"))
			}

			_, err := cache.OptimisticUpdate(
				context.Background(),
				"key",
				func(any) any { return "pending" },
				func(context.Context) (any, error) { return nil, opFailed },
			)

			require.ErrorIs(t, err, opFailed)

			got, ok := cache.Get("key")
			require.Equal(t, tc.wantFound, ok)

			if tc.wantFound {
				require.Equal(t, tc.wantValue, got)
			}
		})
	}
}

func TestNotify(t *testing.T) {
	t.Parallel()

	cache := newCache(t, tagcache.Config{}, nil)

	var got tagcache.Event
	_, err := cache.Subscribe("table:departments", func(event tagcache.Event) {
		got = event
	})
	require.NoError(t, err)

	cache.Notify("table:departments", tagcache.Event{Tag: "departments"})

	require.Equal(t, "table:departments", got.Pattern)
	require.Equal(t, "departments", got.Tag)
}

func TestDestroy(t *testing.T) {
	t.Parallel()

	cache := newCache(t, tagcache.Config{}, nil)

	require.NoError(t, cache.Set("a", 1))

	cache.Destroy()

	require.Equal(t, 0, cache.Len())
	require.ErrorIs(t, cache.Set("b", 2), tagcache.ErrDestroyed)

	_, err := cache.Subscribe("tag:t", func(tagcache.Event) {})
	require.ErrorIs(t, err, tagcache.ErrDestroyed)
}

func TestSnapshotCounters(t *testing.T) {
	t.Parallel()

	cache := newCache(t, tagcache.Config{}, nil)

	require.NoError(t, cache.Set("a", 1))

	_, _ = cache.Get("a")
	_, _ = cache.Get("missing")

	stats := cache.Snapshot()

	require.Equal(t, uint64(1), stats.Hits)
	require.Equal(t, uint64(1), stats.Misses)
	require.Equal(t, 1, stats.Entries)
}
