package ratelimit

import (
	"fmt"
	"time"

	"github.com/rhuss/tasktrack/pkg/observability"
)

// Defaults for the login throttle.
const (
	DefaultCapacity = 10
	DefaultWindow   = time.Minute
	DefaultMaxKeys  = 100000
)

// Config holds limiter settings.
type Config struct {
	// Capacity is the number of attempts per window. Default: 10.
	Capacity int

	// Window is the refill period. Default: 1 minute.
	Window time.Duration

	// MaxKeys bounds the number of tracked clients with LRU eviction.
	// Zero keeps every bucket for the life of the process.
	MaxKeys int

	// Now overrides the clock, for tests. Default: time.Now.
	Now func() time.Time
}

// applyDefaults fills in zero-value fields with sensible defaults.
func (c *Config) applyDefaults() {
	if c.Capacity == 0 {
		c.Capacity = DefaultCapacity
	}
	if c.Window == 0 {
		c.Window = DefaultWindow
	}
	if c.Now == nil {
		c.Now = time.Now
	}
}

// Limiter maps keys to buckets and consumes from them.
type Limiter struct {
	capacity int
	window   time.Duration
	now      func() time.Time
	store    Store
}

// New creates a Limiter. MaxKeys selects an LRUStore when positive and an
// UnboundedStore when zero.
func New(cfg Config) (*Limiter, error) {
	cfg.applyDefaults()

	if cfg.Capacity < 1 {
		return nil, fmt.Errorf("rate limit capacity must be positive, got %d", cfg.Capacity)
	}
	if cfg.Window <= 0 {
		return nil, fmt.Errorf("rate limit window must be positive, got %s", cfg.Window)
	}
	if cfg.MaxKeys < 0 {
		return nil, fmt.Errorf("rate limit max keys must not be negative, got %d", cfg.MaxKeys)
	}

	var store Store = NewUnboundedStore()
	if cfg.MaxKeys > 0 {
		lruStore, err := NewLRUStore(cfg.MaxKeys)
		if err != nil {
			return nil, fmt.Errorf("creating bucket store: %w", err)
		}
		store = lruStore
	}

	return NewWithStore(cfg, store), nil
}

// NewWithStore creates a Limiter backed by the given store.
func NewWithStore(cfg Config, store Store) *Limiter {
	cfg.applyDefaults()
	return &Limiter{
		capacity: cfg.Capacity,
		window:   cfg.Window,
		now:      cfg.Now,
		store:    store,
	}
}

// Allow consumes one token from the bucket for key. A new bucket's window
// starts at creation; the consumption time is read after the bucket exists.
func (l *Limiter) Allow(key string) Decision {
	b := l.store.GetOrCreate(key, func() *Bucket {
		return NewBucket(l.capacity, l.window, l.now())
	})
	observability.RateLimitBuckets.Set(float64(l.store.Len()))
	return b.TryConsume(l.now())
}

// Capacity returns the configured bucket capacity.
func (l *Limiter) Capacity() int {
	return l.capacity
}
