package jobscheduler

import (
	"errors"
	"strings"
	"time"
)

var ErrMissingDispatchID = errors.New("dispatch id is required")

type DispatchStatus string

const (
	StatusQueued    DispatchStatus = "queued"
	StatusCompleted DispatchStatus = "completed"
	StatusRetrying  DispatchStatus = "retrying"
	StatusFailed    DispatchStatus = "failed"
)

// Terminal reports whether no further attempt follows this status.
func (s DispatchStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// DispatchEvent is the audit row of one queue unit, keyed by DispatchID.
type DispatchEvent struct {
	DispatchID   string
	JobName      string
	Queue        string
	DedupKey     string
	Attempt      int
	MaxAttempts  int
	Status       DispatchStatus
	Payload      map[string]any
	ErrorMessage string
	OccurredAt   time.Time
	TraceID      string
	SpanID       string
}

// Normalize fills defaults so every store persists the same row shape.
func (e DispatchEvent) Normalize(now time.Time) (DispatchEvent, error) {
	e.DispatchID = strings.TrimSpace(e.DispatchID)
	if e.DispatchID == "" {
		return DispatchEvent{}, ErrMissingDispatchID
	}
	e.JobName = strings.TrimSpace(e.JobName)
	if e.JobName == "" {
		e.JobName = "unknown"
	}
	e.Queue = strings.TrimSpace(e.Queue)
	if e.Queue == "" {
		e.Queue = "memory"
	}
	e.Attempt = max(e.Attempt, 1)
	e.MaxAttempts = max(e.MaxAttempts, 1)
	if e.OccurredAt.IsZero() {
		e.OccurredAt = now
	}
	e.OccurredAt = e.OccurredAt.UTC()
	return e, nil
}

// Merge applies e on top of the previously stored row. Attempts never go
// backwards and a completed unit drops its last error. Empty optional fields
// keep their stored values. A terminal row is never reopened: a QStash
// delivery can finish before the publisher records it as queued.
func (e DispatchEvent) Merge(prev DispatchEvent) DispatchEvent {
	if prev.Status.Terminal() && !e.Status.Terminal() {
		e.Status = prev.Status
		e.OccurredAt = prev.OccurredAt
	}
	e.Attempt = max(e.Attempt, prev.Attempt)
	if e.DedupKey == "" {
		e.DedupKey = prev.DedupKey
	}
	if e.TraceID == "" {
		e.TraceID = prev.TraceID
	}
	if e.SpanID == "" {
		e.SpanID = prev.SpanID
	}
	switch {
	case e.Status == StatusCompleted:
		e.ErrorMessage = ""
	case e.ErrorMessage == "":
		e.ErrorMessage = prev.ErrorMessage
	}
	return e
}
