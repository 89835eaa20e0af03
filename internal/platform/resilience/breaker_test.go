package resilience

import (
	"errors"
	"testing"
	"time"
)

func TestCircuitBreaker_Transitions(t *testing.T) {
	t.Parallel()

	b := NewCircuitBreaker(CircuitBreakerConfig{Enabled: true, FailureThreshold: 2, OpenTimeout: 5 * time.Second, HalfOpenMaxReq: 1})
	now := time.Date(2026, 7, 5, 9, 30, 0, 0, time.UTC)
	b.now = func() time.Time { return now }

	if err := b.Allow(); err != nil {
		t.Fatalf("expected allow in closed state: %v", err)
	}
	b.RecordFailure()
	if state := b.State(); state != CircuitStateClosed {
		t.Fatalf("expected closed after first failure, got %s", state)
	}
	b.RecordFailure()
	if state := b.State(); state != CircuitStateOpen {
		t.Fatalf("expected open after threshold, got %s", state)
	}
	if err := b.Allow(); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected circuit open error, got %v", err)
	}

	now = now.Add(6 * time.Second)
	if err := b.Allow(); err != nil {
		t.Fatalf("expected half-open probe to pass, got %v", err)
	}
	if err := b.Allow(); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected second probe to be rejected, got %v", err)
	}
	b.RecordSuccess()
	if state := b.State(); state != CircuitStateClosed {
		t.Fatalf("expected closed after successful probe, got %s", state)
	}
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	t.Parallel()

	b := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 1, OpenTimeout: time.Second})
	now := time.Date(2026, 7, 5, 9, 30, 0, 0, time.UTC)
	b.now = func() time.Time { return now }

	b.RecordFailure()
	now = now.Add(2 * time.Second)
	if err := b.Allow(); err != nil {
		t.Fatalf("expected probe, got %v", err)
	}
	b.RecordFailure()
	if state := b.State(); state != CircuitStateOpen {
		t.Fatalf("expected reopen after failed probe, got %s", state)
	}
}

func TestBreakerSet_PerHost(t *testing.T) {
	t.Parallel()

	set := NewBreakerSet(CircuitBreakerConfig{Enabled: true, FailureThreshold: 1})
	feed := set.For("https://feed.example.com/getfeed/key/soccernew/live")
	scrape := set.For("https://www.scrape.example.com/cricket-schedule/series/all")
	if feed == scrape {
		t.Fatalf("expected distinct breakers per host")
	}
	if again := set.For("https://FEED.example.com/other"); again != feed {
		t.Fatalf("expected host lookup to be case-insensitive")
	}

	disabled := NewBreakerSet(CircuitBreakerConfig{Enabled: false})
	if b := disabled.For("https://feed.example.com"); b != nil {
		t.Fatalf("expected nil breaker when disabled")
	}
	var nilBreaker *CircuitBreaker
	if err := nilBreaker.Allow(); err != nil {
		t.Fatalf("nil breaker must allow, got %v", err)
	}
}
