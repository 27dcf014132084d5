package tagcache

import "time"

type (
	entryOptions struct {
		ttl     time.Duration
		tags    []string
		version string
	}

	// Option customizes a single Set call.
	Option func(*entryOptions)
)

// WithTTL overrides the cache-wide default TTL for one entry.
func WithTTL(ttl time.Duration) Option {
	return func(o *entryOptions) {
		if ttl > 0 {
			o.ttl = ttl
		}
	}
}

// WithTags attaches invalidation tags, typically backing table names.
func WithTags(tags ...string) Option {
	return func(o *entryOptions) {
		o.tags = append(o.tags, tags...)
	}
}

// WithVersion records an opaque version label alongside the entry.
func WithVersion(version string) Option {
	return func(o *entryOptions) {
		o.version = version
	}
}
