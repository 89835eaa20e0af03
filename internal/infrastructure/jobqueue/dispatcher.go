// Package jobqueue delivers pipeline jobs at least once. Both queue drivers
// hand deliveries to a Dispatcher, which owns timeouts, retry decisions and
// the dispatch audit trail.
package jobqueue

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/sportsfeed/internal/domain/jobscheduler"
	"github.com/riskibarqy/sportsfeed/internal/platform/logging"
	"github.com/riskibarqy/sportsfeed/internal/usecase"
	"go.opentelemetry.io/otel/trace"
)

const defaultJobTimeout = 2 * time.Minute

var (
	ErrUnknownJob   = crerr.New("unknown job")
	ErrQueueStopped = crerr.New("queue stopped")
	errJobPanicked  = crerr.New("job panicked")
)

// Outcome is what the queue must do with a delivery after it ran.
type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeRetry     Outcome = "retry"
	OutcomeFailed    Outcome = "failed"
)

type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[string]jobscheduler.Handler
	audit    jobscheduler.Repository
	timeout  time.Duration
	logger   *logging.Logger
	now      func() time.Time
}

func NewDispatcher(audit jobscheduler.Repository, timeout time.Duration, logger *logging.Logger) *Dispatcher {
	if timeout <= 0 {
		timeout = defaultJobTimeout
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Dispatcher{
		handlers: make(map[string]jobscheduler.Handler),
		audit:    audit,
		timeout:  timeout,
		logger:   logger.Named("jobqueue"),
		now:      time.Now,
	}
}

// Register adds handlers by job name. A later registration replaces an
// earlier one with the same name.
func (d *Dispatcher) Register(handlers map[string]jobscheduler.Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for name, handler := range handlers {
		d.handlers[name] = handler
	}
}

func (d *Dispatcher) Has(name string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.handlers[strings.TrimSpace(name)]
	return ok
}

// Queued records that a unit was accepted by a queue driver.
func (d *Dispatcher) Queued(ctx context.Context, delivery jobscheduler.Delivery) {
	d.record(ctx, delivery, jobscheduler.StatusQueued, nil)
}

// Run executes one delivery under the job timeout. A handler error is retried
// while attempts remain; after the last attempt the unit is failed for good
// and the returned error wraps usecase.ErrMaxAttempts.
func (d *Dispatcher) Run(ctx context.Context, delivery jobscheduler.Delivery) (Outcome, error) {
	if delivery.Attempt <= 0 {
		delivery.Attempt = 1
	}
	name := strings.TrimSpace(delivery.Job.Name)

	d.mu.RLock()
	handler, ok := d.handlers[name]
	d.mu.RUnlock()
	if !ok {
		err := crerr.Wrapf(ErrUnknownJob, "job=%s", name)
		d.record(ctx, delivery, jobscheduler.StatusFailed, err)
		d.logger.ErrorContext(ctx, "job has no handler", "job", name, "dispatch_id", delivery.DispatchID)
		return OutcomeFailed, err
	}

	started := d.now()
	err := d.invoke(ctx, handler, delivery)
	elapsed := d.now().Sub(started)

	if err == nil {
		d.record(ctx, delivery, jobscheduler.StatusCompleted, nil)
		d.logger.InfoContext(ctx, "job completed",
			"job", name,
			"dispatch_id", delivery.DispatchID,
			"attempt", delivery.Attempt,
			"duration", elapsed,
		)
		return OutcomeCompleted, nil
	}

	if delivery.Attempt < delivery.Job.Attempts() {
		d.record(ctx, delivery, jobscheduler.StatusRetrying, err)
		d.logger.WarnContext(ctx, "job failed, will retry",
			"job", name,
			"dispatch_id", delivery.DispatchID,
			"attempt", delivery.Attempt,
			"max_attempts", delivery.Job.Attempts(),
			"backoff", delivery.Job.BackoffFor(delivery.Attempt),
			"error", err,
		)
		return OutcomeRetry, err
	}

	failed := fmt.Errorf("%w: job=%s attempts=%d: %w", usecase.ErrMaxAttempts, name, delivery.Attempt, err)
	d.record(ctx, delivery, jobscheduler.StatusFailed, failed)
	d.logger.ErrorContext(ctx, "job max attempts exceeded",
		"job", name,
		"dispatch_id", delivery.DispatchID,
		"attempt", delivery.Attempt,
		"payload", delivery.Job.Payload,
		"error", err,
	)
	return OutcomeFailed, failed
}

// invoke returns when the handler does or when the timeout fires, whichever
// comes first. A handler that ignores its context keeps running detached.
func (d *Dispatcher) invoke(ctx context.Context, handler jobscheduler.Handler, delivery jobscheduler.Delivery) error {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				done <- crerr.Wrapf(errJobPanicked, "%v", rec)
			}
		}()
		done <- handler(ctx, delivery)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return crerr.Wrapf(ctx.Err(), "job=%s timeout=%s", delivery.Job.Name, d.timeout)
	}
}

func (d *Dispatcher) record(ctx context.Context, delivery jobscheduler.Delivery, status jobscheduler.DispatchStatus, cause error) {
	recordEvent(ctx, d.audit, d.logger, delivery, status, cause, d.now())
}

func recordEvent(
	ctx context.Context,
	audit jobscheduler.Repository,
	logger *logging.Logger,
	delivery jobscheduler.Delivery,
	status jobscheduler.DispatchStatus,
	cause error,
	now time.Time,
) {
	if audit == nil || strings.TrimSpace(delivery.DispatchID) == "" {
		return
	}
	traceID, spanID := traceMetaFromContext(ctx)
	event := jobscheduler.DispatchEvent{
		DispatchID:  delivery.DispatchID,
		JobName:     delivery.Job.Name,
		Queue:       delivery.Job.Queue,
		DedupKey:    delivery.Job.DedupKey,
		Attempt:     delivery.Attempt,
		MaxAttempts: delivery.Job.Attempts(),
		Status:      status,
		Payload:     payloadForAudit(delivery.Job.Payload),
		OccurredAt:  now.UTC(),
		TraceID:     traceID,
		SpanID:      spanID,
	}
	if cause != nil {
		event.ErrorMessage = cause.Error()
	}
	if err := audit.UpsertEvent(ctx, event); err != nil {
		logger.WarnContext(ctx, "record job dispatch event failed",
			"dispatch_id", event.DispatchID,
			"status", event.Status,
			"error", err,
		)
	}
}

func payloadForAudit(payload map[string]string) map[string]any {
	out := make(map[string]any, len(payload))
	for key, value := range payload {
		out[key] = value
	}
	return out
}

func traceMetaFromContext(ctx context.Context) (string, string) {
	spanContext := trace.SpanFromContext(ctx).SpanContext()
	if !spanContext.IsValid() {
		return "", ""
	}
	return spanContext.TraceID().String(), spanContext.SpanID().String()
}
