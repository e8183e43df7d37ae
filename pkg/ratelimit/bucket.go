package ratelimit

import (
	"math"
	"sync"
	"time"
)

// Decision is the outcome of one consumption attempt.
type Decision struct {
	Allowed bool

	// Limit is the bucket capacity.
	Limit int

	// Remaining is the number of tokens left after this attempt.
	Remaining int

	// RetryAfter is the time until the next refill. Zero when allowed.
	RetryAfter time.Duration
}

// RetryAfterSeconds returns RetryAfter rounded up to whole seconds, at least 1.
func (d Decision) RetryAfterSeconds() int {
	secs := int(math.Ceil(d.RetryAfter.Seconds()))
	if secs < 1 {
		return 1
	}
	return secs
}

// Bucket is a greedy token bucket. available stays within [0, capacity].
type Bucket struct {
	mu         sync.Mutex
	capacity   int
	window     time.Duration
	available  int
	lastRefill time.Time
}

// NewBucket returns a full bucket whose first window starts at now.
func NewBucket(capacity int, window time.Duration, now time.Time) *Bucket {
	return &Bucket{
		capacity:   capacity,
		window:     window,
		available:  capacity,
		lastRefill: now,
	}
}

// TryConsume refills the bucket if a full window has elapsed and then takes
// one token if any is left. Concurrent calls are serialized. A now earlier
// than the current window start counts as the window start.
func (b *Bucket) TryConsume(now time.Time) Decision {
	b.mu.Lock()
	defer b.mu.Unlock()

	if now.Before(b.lastRefill) {
		now = b.lastRefill
	}
	b.refill(now)

	if b.available > 0 {
		b.available--
		return Decision{Allowed: true, Limit: b.capacity, Remaining: b.available}
	}

	return Decision{
		Allowed:    false,
		Limit:      b.capacity,
		Remaining:  0,
		RetryAfter: b.lastRefill.Add(b.window).Sub(now),
	}
}

// Available returns the current token count without refilling.
func (b *Bucket) Available() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.available
}

// refill restores full capacity when at least one window has passed and
// advances lastRefill by whole windows. Must be called with mu held.
func (b *Bucket) refill(now time.Time) {
	elapsed := now.Sub(b.lastRefill)
	if elapsed < b.window {
		return
	}
	windows := elapsed / b.window
	b.available = b.capacity
	b.lastRefill = b.lastRefill.Add(windows * b.window)
}
