package jobqueue

import (
	"context"
	"strings"
	"sync"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/panjf2000/ants/v2"
	"github.com/riskibarqy/sportsfeed/internal/domain/jobscheduler"
	"github.com/riskibarqy/sportsfeed/internal/platform/id"
	"github.com/riskibarqy/sportsfeed/internal/platform/logging"
	"go.opentelemetry.io/otel/trace"
)

type MemoryQueueConfig struct {
	Workers int
}

// MemoryQueue runs jobs in-process on an ants pool. Delayed units and retries
// wait on timers; a dedup key is held from Enqueue until the unit's first
// attempt starts.
type MemoryQueue struct {
	pool       *ants.Pool
	dispatcher *Dispatcher
	ids        id.Generator
	logger     *logging.Logger

	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	mu      sync.Mutex
	stopped bool
	pending map[string]struct{}
	timers  map[*time.Timer]struct{}
}

func NewMemoryQueue(dispatcher *Dispatcher, ids id.Generator, cfg MemoryQueueConfig, logger *logging.Logger) (*MemoryQueue, error) {
	if dispatcher == nil {
		return nil, crerr.New("memory queue requires a dispatcher")
	}
	if ids == nil {
		ids = id.NewUUIDGenerator()
	}
	if logger == nil {
		logger = logging.Default()
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = 8
	}
	logger = logger.Named("memory_queue")

	pool, err := ants.NewPool(workers, ants.WithPanicHandler(func(rec any) {
		logger.Error("memory queue worker panicked", "panic", rec)
	}))
	if err != nil {
		return nil, crerr.Wrap(err, "create worker pool")
	}

	baseCtx, cancel := context.WithCancel(context.Background())
	return &MemoryQueue{
		pool:       pool,
		dispatcher: dispatcher,
		ids:        ids,
		logger:     logger,
		baseCtx:    baseCtx,
		cancel:     cancel,
		pending:    make(map[string]struct{}),
		timers:     make(map[*time.Timer]struct{}),
	}, nil
}

func (q *MemoryQueue) Enqueue(ctx context.Context, job jobscheduler.Job) error {
	job.Name = strings.TrimSpace(job.Name)
	if job.Name == "" {
		return crerr.New("job name is required")
	}
	if !q.dispatcher.Has(job.Name) {
		return crerr.Wrapf(ErrUnknownJob, "job=%s", job.Name)
	}

	dispatchID, err := q.ids.NewID()
	if err != nil {
		return crerr.Wrap(err, "generate dispatch id")
	}

	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		return ErrQueueStopped
	}
	if job.DedupKey != "" {
		if _, dup := q.pending[job.DedupKey]; dup {
			q.mu.Unlock()
			q.logger.DebugContext(ctx, "duplicate job dropped", "job", job.Name, "dedup_key", job.DedupKey)
			return nil
		}
		q.pending[job.DedupKey] = struct{}{}
	}
	q.mu.Unlock()

	delivery := jobscheduler.Delivery{DispatchID: dispatchID, Job: job, Attempt: 1}
	q.dispatcher.Queued(ctx, delivery)
	q.schedule(trace.SpanContextFromContext(ctx), delivery, job.Delay)
	return nil
}

// Pending reports dedup keys that have not started yet.
func (q *MemoryQueue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Stop rejects new jobs, drops waiting timers and waits for running units
// until ctx expires.
func (q *MemoryQueue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		return nil
	}
	q.stopped = true
	for timer := range q.timers {
		timer.Stop()
	}
	dropped := len(q.timers)
	q.timers = make(map[*time.Timer]struct{})
	q.mu.Unlock()

	if dropped > 0 {
		q.logger.WarnContext(ctx, "memory queue stopped with delayed jobs", "dropped", dropped)
	}

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	var err error
	select {
	case <-done:
	case <-ctx.Done():
		err = crerr.Wrap(ctx.Err(), "wait for running jobs")
	}
	q.cancel()
	q.pool.Release()
	return err
}

func (q *MemoryQueue) schedule(parent trace.SpanContext, delivery jobscheduler.Delivery, delay time.Duration) {
	if delay <= 0 {
		q.submit(parent, delivery)
		return
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.stopped {
		return
	}
	var timer *time.Timer
	timer = time.AfterFunc(delay, func() {
		q.mu.Lock()
		delete(q.timers, timer)
		q.mu.Unlock()
		q.submit(parent, delivery)
	})
	q.timers[timer] = struct{}{}
}

func (q *MemoryQueue) submit(parent trace.SpanContext, delivery jobscheduler.Delivery) {
	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		return
	}
	q.wg.Add(1)
	q.mu.Unlock()

	err := q.pool.Submit(func() {
		defer q.wg.Done()
		q.run(parent, delivery)
	})
	if err != nil {
		q.wg.Done()
		q.release(delivery)
		q.logger.Error("submit job to worker pool failed", "job", delivery.Job.Name, "dispatch_id", delivery.DispatchID, "error", err)
	}
}

func (q *MemoryQueue) run(parent trace.SpanContext, delivery jobscheduler.Delivery) {
	if delivery.Attempt == 1 {
		q.release(delivery)
	}

	ctx := q.baseCtx
	if parent.IsValid() {
		ctx = trace.ContextWithRemoteSpanContext(ctx, parent)
	}
	outcome, _ := q.dispatcher.Run(ctx, delivery)
	if outcome != OutcomeRetry {
		return
	}

	backoff := delivery.Job.BackoffFor(delivery.Attempt)
	next := delivery
	next.Attempt++
	q.schedule(parent, next, backoff)
}

func (q *MemoryQueue) release(delivery jobscheduler.Delivery) {
	if delivery.Job.DedupKey == "" {
		return
	}
	q.mu.Lock()
	delete(q.pending, delivery.Job.DedupKey)
	q.mu.Unlock()
}
