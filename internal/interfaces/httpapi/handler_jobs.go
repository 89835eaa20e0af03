package httpapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/riskibarqy/sportsfeed/internal/infrastructure/jobqueue"
	"github.com/riskibarqy/sportsfeed/internal/usecase"
)

const maxJobBodyBytes = 1 << 20

var internalJobDispatchUnsafeRegex = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// RunJob executes a QStash delivery. A retryable failure answers 503 so QStash
// redelivers; completed and permanently failed jobs answer 200 so it stops.
func (h *Handler) RunJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunJob")
	defer span.End()

	if h.jobs == nil {
		writeError(ctx, w, fmt.Errorf("%w: job dispatcher is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	name := strings.TrimSpace(r.PathValue("name"))
	if err := h.validator.Var(name, "required,max=64"); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid job name %q", usecase.ErrInvalidInput, name))
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxJobBodyBytes))
	if err != nil {
		writeError(ctx, w, fmt.Errorf("%w: read job body: %v", usecase.ErrInvalidInput, err))
		return
	}

	delivery, err := jobqueue.DecodeDelivery(name, body, parseRetried(r.Header.Get("Upstash-Retried")))
	if err != nil {
		writeError(ctx, w, fmt.Errorf("%w: %v", usecase.ErrInvalidInput, err))
		return
	}
	if strings.TrimSpace(delivery.DispatchID) == "" {
		delivery.DispatchID = buildManualDispatchID(name, h.now())
	}

	outcome, runErr := h.jobs.Run(ctx, delivery)
	result := jobResultDTO{
		DispatchID: delivery.DispatchID,
		Job:        name,
		Attempt:    delivery.Attempt,
		Outcome:    string(outcome),
	}
	if runErr != nil {
		result.Error = runErr.Error()
	}

	switch {
	case errors.Is(runErr, jobqueue.ErrUnknownJob):
		writeError(ctx, w, runErr)
	case outcome == jobqueue.OutcomeRetry:
		writeError(ctx, w, fmt.Errorf("%w: job=%s attempt=%d: %v", usecase.ErrDependencyUnavailable, name, delivery.Attempt, runErr))
	default:
		writeSuccess(ctx, w, http.StatusOK, result)
	}
}

func parseRetried(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func buildManualDispatchID(jobName string, now time.Time) string {
	jobName = sanitizeDispatchPart(jobName)
	ts := now.UTC().Format("20060102T150405.000000000Z")
	return "manual-" + jobName + "-" + ts
}

func sanitizeDispatchPart(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "unknown"
	}
	return internalJobDispatchUnsafeRegex.ReplaceAllString(value, "-")
}
