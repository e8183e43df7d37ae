package ratelimit

import (
	"testing"
	"time"
)

var t0 = time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)

func TestBucket_ConsumesUntilEmpty(t *testing.T) {
	b := NewBucket(3, time.Minute, t0)

	for want := 2; want >= 0; want-- {
		d := b.TryConsume(t0)
		if !d.Allowed {
			t.Fatalf("attempt with %d left was rejected", want+1)
		}
		if d.Remaining != want {
			t.Errorf("Remaining = %d, want %d", d.Remaining, want)
		}
		if d.Limit != 3 {
			t.Errorf("Limit = %d, want 3", d.Limit)
		}
	}

	d := b.TryConsume(t0.Add(10 * time.Second))
	if d.Allowed {
		t.Fatal("empty bucket admitted a request")
	}
	if d.Remaining != 0 {
		t.Errorf("Remaining = %d, want 0", d.Remaining)
	}
	if d.RetryAfter != 50*time.Second {
		t.Errorf("RetryAfter = %v, want 50s", d.RetryAfter)
	}
	if got := d.RetryAfterSeconds(); got != 50 {
		t.Errorf("RetryAfterSeconds = %d, want 50", got)
	}
}

func TestBucket_GreedyRefill(t *testing.T) {
	b := NewBucket(2, time.Minute, t0)
	b.TryConsume(t0)
	b.TryConsume(t0)

	// No partial refill before the window closes.
	if b.TryConsume(t0.Add(59 * time.Second)).Allowed {
		t.Fatal("bucket refilled before the window closed")
	}

	d := b.TryConsume(t0.Add(time.Minute))
	if !d.Allowed {
		t.Fatal("bucket not refilled after a full window")
	}
	if d.Remaining != 1 {
		t.Errorf("Remaining = %d, want 1 (full capacity restored in one step)", d.Remaining)
	}
}

func TestBucket_RefillAdvancesWholeWindows(t *testing.T) {
	b := NewBucket(1, time.Minute, t0)
	b.TryConsume(t0)

	// 2.5 windows later the refill anchor moves to t0+2m.
	at := t0.Add(150 * time.Second)
	if !b.TryConsume(at).Allowed {
		t.Fatal("bucket not refilled after 2.5 windows")
	}

	d := b.TryConsume(at)
	if d.Allowed {
		t.Fatal("second attempt admitted")
	}
	if d.RetryAfter != 30*time.Second {
		t.Errorf("RetryAfter = %v, want 30s", d.RetryAfter)
	}
}

func TestBucket_RefillNeverExceedsCapacity(t *testing.T) {
	b := NewBucket(5, time.Minute, t0)
	b.TryConsume(t0)

	d := b.TryConsume(t0.Add(10 * time.Minute))
	if !d.Allowed {
		t.Fatal("attempt rejected after refill")
	}
	if d.Remaining != 4 {
		t.Errorf("Remaining = %d, want 4", d.Remaining)
	}
	if got := b.Available(); got != 4 {
		t.Errorf("Available = %d, want 4", got)
	}
}

// A reading older than the window start must not stretch Retry-After past
// one window.
func TestBucket_EarlierClockReading(t *testing.T) {
	b := NewBucket(1, time.Minute, t0)
	b.TryConsume(t0)

	d := b.TryConsume(t0.Add(-5 * time.Second))
	if d.Allowed {
		t.Fatal("empty bucket admitted a request")
	}
	if d.RetryAfter != time.Minute {
		t.Errorf("RetryAfter = %v, want 1m", d.RetryAfter)
	}
	if got := b.Available(); got != 0 {
		t.Errorf("Available = %d, want 0", got)
	}
}

func TestDecision_RetryAfterSecondsFloor(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want int
	}{
		{0, 1},
		{200 * time.Millisecond, 1},
		{1100 * time.Millisecond, 2},
		{-time.Second, 1},
	}
	for _, tt := range tests {
		if got := (Decision{RetryAfter: tt.in}).RetryAfterSeconds(); got != tt.want {
			t.Errorf("RetryAfterSeconds(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
