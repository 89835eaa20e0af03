package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/sportsfeed/internal/domain/jobscheduler"
	qb "github.com/riskibarqy/sportsfeed/internal/platform/querybuilder"
)

type jobDispatchInsertModel struct {
	DispatchID  string    `db:"dispatch_id"`
	JobName     string    `db:"job_name"`
	Queue       string    `db:"queue"`
	DedupKey    *string   `db:"dedup_key"`
	Attempt     int       `db:"attempt"`
	MaxAttempts int       `db:"max_attempts"`
	Status      string    `db:"status"`
	Payload     string    `db:"payload"`
	LastError   *string   `db:"last_error"`
	TraceID     *string   `db:"trace_id"`
	SpanID      *string   `db:"span_id"`
	OccurredAt  time.Time `db:"occurred_at"`
}

type JobDispatchRepository struct {
	db *sqlx.DB
}

func NewJobDispatchRepository(db *sqlx.DB) *JobDispatchRepository {
	return &JobDispatchRepository{db: db}
}

func (r *JobDispatchRepository) UpsertEvent(ctx context.Context, event jobscheduler.DispatchEvent) error {
	event, err := event.Normalize(time.Now())
	if err != nil {
		return err
	}

	model := jobDispatchInsertModel{
		DispatchID:  event.DispatchID,
		JobName:     event.JobName,
		Queue:       event.Queue,
		DedupKey:    optionalString(event.DedupKey),
		Attempt:     event.Attempt,
		MaxAttempts: event.MaxAttempts,
		Status:      string(event.Status),
		Payload:     encodeJSONMap(event.Payload),
		LastError:   optionalString(event.ErrorMessage),
		TraceID:     optionalString(event.TraceID),
		SpanID:      optionalString(event.SpanID),
		OccurredAt:  event.OccurredAt,
	}

	query, args, err := qb.InsertModel("job_dispatches", model, `ON CONFLICT (dispatch_id)
DO UPDATE SET
    job_name = EXCLUDED.job_name,
    queue = EXCLUDED.queue,
    dedup_key = COALESCE(EXCLUDED.dedup_key, job_dispatches.dedup_key),
    attempt = GREATEST(EXCLUDED.attempt, job_dispatches.attempt),
    max_attempts = EXCLUDED.max_attempts,
    status = CASE
        WHEN job_dispatches.status IN ('completed', 'failed')
         AND EXCLUDED.status NOT IN ('completed', 'failed') THEN job_dispatches.status
        ELSE EXCLUDED.status
    END,
    payload = EXCLUDED.payload,
    last_error = CASE
        WHEN EXCLUDED.status = 'completed' THEN NULL
        ELSE COALESCE(EXCLUDED.last_error, job_dispatches.last_error)
    END,
    trace_id = COALESCE(EXCLUDED.trace_id, job_dispatches.trace_id),
    span_id = COALESCE(EXCLUDED.span_id, job_dispatches.span_id),
    occurred_at = CASE
        WHEN job_dispatches.status IN ('completed', 'failed')
         AND EXCLUDED.status NOT IN ('completed', 'failed') THEN job_dispatches.occurred_at
        ELSE EXCLUDED.occurred_at
    END,
    updated_at = NOW()`)
	if err != nil {
		return fmt.Errorf("build upsert job dispatch query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert job dispatch dispatch_id=%s status=%s: %w", event.DispatchID, event.Status, err)
	}

	return nil
}
