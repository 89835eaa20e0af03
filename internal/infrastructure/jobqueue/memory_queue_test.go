package jobqueue

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/riskibarqy/sportsfeed/internal/domain/jobscheduler"
	"github.com/riskibarqy/sportsfeed/internal/platform/id"
	"github.com/riskibarqy/sportsfeed/internal/platform/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestQueue(t *testing.T, d *Dispatcher) *MemoryQueue {
	t.Helper()

	q, err := NewMemoryQueue(d, id.NewSequenceGenerator("dispatch"), MemoryQueueConfig{Workers: 2}, logging.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = q.Stop(ctx)
	})
	return q
}

func TestMemoryQueue_RetriesUntilSuccess(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	attempts := make(chan int, 3)
	d, audit := newTestDispatcher(time.Second, map[string]jobscheduler.Handler{
		"scrape.series_matches": func(_ context.Context, delivery jobscheduler.Delivery) error {
			attempts <- delivery.Attempt
			if calls.Add(1) < 3 {
				return errBoom
			}
			return nil
		},
	})
	q := newTestQueue(t, d)

	err := q.Enqueue(context.Background(), jobscheduler.Job{
		Name:        "scrape.series_matches",
		MaxAttempts: 5,
		Backoff:     []time.Duration{5 * time.Millisecond, 10 * time.Millisecond},
	})
	require.NoError(t, err)

	var seen []int
	for len(seen) < 3 {
		select {
		case attempt := <-attempts:
			seen = append(seen, attempt)
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for retries, seen=%v", seen)
		}
	}
	assert.Equal(t, []int{1, 2, 3}, seen)

	require.Eventually(t, func() bool {
		event, ok := audit.Get("dispatch-1")
		return ok && event.Status == jobscheduler.StatusCompleted
	}, time.Second, 5*time.Millisecond)
}

func TestMemoryQueue_StopsAfterMaxAttempts(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	d, audit := newTestDispatcher(time.Second, map[string]jobscheduler.Handler{
		"scrape.match_squad": func(context.Context, jobscheduler.Delivery) error {
			calls.Add(1)
			return errBoom
		},
	})
	q := newTestQueue(t, d)

	require.NoError(t, q.Enqueue(context.Background(), jobscheduler.Job{
		Name:        "scrape.match_squad",
		MaxAttempts: 2,
		Backoff:     []time.Duration{time.Millisecond},
	}))

	require.Eventually(t, func() bool {
		event, ok := audit.Get("dispatch-1")
		return ok && event.Status == jobscheduler.StatusFailed
	}, time.Second, 5*time.Millisecond)

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(2), calls.Load())
}

func TestMemoryQueue_DedupsPendingKeys(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	d, _ := newTestDispatcher(time.Second, map[string]jobscheduler.Handler{
		"live.scores": func(context.Context, jobscheduler.Delivery) error {
			calls.Add(1)
			return nil
		},
	})
	q := newTestQueue(t, d)

	job := jobscheduler.Job{Name: "live.scores", DedupKey: "live-soccer-1", Delay: 30 * time.Millisecond}
	require.NoError(t, q.Enqueue(context.Background(), job))
	require.NoError(t, q.Enqueue(context.Background(), job))
	assert.Equal(t, 1, q.Pending())

	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, q.Pending())

	require.NoError(t, q.Enqueue(context.Background(), job))
	require.Eventually(t, func() bool { return calls.Load() == 2 }, time.Second, 5*time.Millisecond)
}

func TestMemoryQueue_RejectsUnknownAndStopped(t *testing.T) {
	t.Parallel()

	d, _ := newTestDispatcher(time.Second, map[string]jobscheduler.Handler{
		"live.scores": func(context.Context, jobscheduler.Delivery) error { return nil },
	})
	q := newTestQueue(t, d)

	err := q.Enqueue(context.Background(), jobscheduler.Job{Name: "scrape.unknown"})
	assert.ErrorIs(t, err, ErrUnknownJob)

	require.NoError(t, q.Enqueue(context.Background(), jobscheduler.Job{Name: "live.scores", Delay: time.Hour}))
	require.NoError(t, q.Stop(context.Background()))

	err = q.Enqueue(context.Background(), jobscheduler.Job{Name: "live.scores"})
	assert.ErrorIs(t, err, ErrQueueStopped)
}
