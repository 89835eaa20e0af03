package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type leagueMapping struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func TestRemember_UsesSingleFlight(t *testing.T) {
	t.Parallel()

	store := NewStore()
	var calls atomic.Int32

	producer := func(context.Context) ([]leagueMapping, error) {
		calls.Add(1)
		time.Sleep(20 * time.Millisecond)
		return []leagueMapping{{ID: "1204", Name: "England: Premier League"}}, nil
	}

	const workers = 32
	start := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(workers)
	errCh := make(chan error, workers)

	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			<-start
			got, err := Remember(context.Background(), store, "league_mappings:goalserve:soccer:sf", time.Hour, producer)
			if err != nil {
				errCh <- err
				return
			}
			if len(got) != 1 || got[0].ID != "1204" {
				errCh <- errUnexpectedValue
			}
		}()
	}

	close(start)
	wg.Wait()
	close(errCh)
	for err := range errCh {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := calls.Load(); got != 1 {
		t.Fatalf("producer called %d times, want 1", got)
	}
}

func TestRemember_CachesUntilTTL(t *testing.T) {
	t.Parallel()

	store := NewStore()
	now := time.Date(2026, 7, 5, 9, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	var calls atomic.Int32
	producer := func(context.Context) (string, error) {
		calls.Add(1)
		return "cached", nil
	}

	key := Key("league_mappings", "goalserve", "Cricket")
	if key != "league_mappings:goalserve:cricket" {
		t.Fatalf("unexpected key %q", key)
	}

	for i := 0; i < 3; i++ {
		if _, err := Remember(context.Background(), store, key, 24*time.Hour, producer); err != nil {
			t.Fatalf("remember: %v", err)
		}
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("producer called %d times before expiry, want 1", got)
	}

	now = now.Add(25 * time.Hour)
	if _, err := Remember(context.Background(), store, key, 24*time.Hour, producer); err != nil {
		t.Fatalf("remember after expiry: %v", err)
	}
	if got := calls.Load(); got != 2 {
		t.Fatalf("producer called %d times after expiry, want 2", got)
	}
}

func TestRemember_ErrorsAreNotCached(t *testing.T) {
	t.Parallel()

	store := NewStore()
	boom := errors.New("feed down")
	var calls atomic.Int32

	_, err := Remember(context.Background(), store, "k-error", time.Hour, func(context.Context) (int, error) {
		calls.Add(1)
		return 0, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected producer error, got %v", err)
	}

	got, err := Remember(context.Background(), store, "k-error", time.Hour, func(context.Context) (int, error) {
		calls.Add(1)
		return 7, nil
	})
	if err != nil || got != 7 {
		t.Fatalf("expected recompute after error, got %d %v", got, err)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected 2 producer calls, got %d", calls.Load())
	}
}

func TestStore_Delete(t *testing.T) {
	t.Parallel()

	store := NewStore()
	ctx := context.Background()
	_ = store.Save(ctx, "league_mappings:soccer", []byte(`1`), 0)
	_ = store.Save(ctx, "other", []byte(`3`), 0)

	_ = store.Delete(ctx, "league_mappings:soccer")

	if _, ok, _ := store.Load(ctx, "league_mappings:soccer"); ok {
		t.Fatalf("expected entry removed")
	}
	if _, ok, _ := store.Load(ctx, "other"); !ok {
		t.Fatalf("expected unrelated entry kept")
	}
}

var errUnexpectedValue = errors.New("unexpected loaded value")

func TestStore_CopiesValues(t *testing.T) {
	t.Parallel()

	store := NewStore()
	ctx := context.Background()
	raw := []byte(`{"id":"1204"}`)
	_ = store.Save(ctx, "league_mappings:soccer", raw, time.Minute)
	raw[0] = 'X'

	got, ok, err := store.Load(ctx, "league_mappings:soccer")
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if string(got) != `{"id":"1204"}` {
		t.Fatalf("stored value aliased caller slice: %q", got)
	}
	got[0] = 'Y'
	again, _, _ := store.Load(ctx, "league_mappings:soccer")
	if again[0] != '{' {
		t.Fatalf("loaded value aliased store: %q", again)
	}
}
