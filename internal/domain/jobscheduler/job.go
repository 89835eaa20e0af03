package jobscheduler

import (
	"context"
	"strings"
	"time"
)

// Job is one queue unit. Payload carries only the identifiers the handler
// needs; handlers re-fetch everything else.
type Job struct {
	Name        string
	Queue       string
	Payload     map[string]string
	Delay       time.Duration
	MaxAttempts int
	Backoff     []time.Duration
	DedupKey    string
}

// BackoffFor is the requeue delay after a failed attempt (1-based). The last
// entry repeats once the list is exhausted.
func (j Job) BackoffFor(attempt int) time.Duration {
	if len(j.Backoff) == 0 {
		return 0
	}
	idx := attempt - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(j.Backoff) {
		idx = len(j.Backoff) - 1
	}
	return j.Backoff[idx]
}

func (j Job) Attempts() int {
	if j.MaxAttempts <= 0 {
		return 1
	}
	return j.MaxAttempts
}

func (j Job) Param(key string) string {
	return strings.TrimSpace(j.Payload[key])
}

// Delivery is a job handed to its handler. Attempt starts at 1.
type Delivery struct {
	DispatchID string
	Job        Job
	Attempt    int
}

type Handler func(ctx context.Context, delivery Delivery) error
