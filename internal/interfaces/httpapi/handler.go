package httpapi

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/riskibarqy/sportsfeed/internal/domain/jobscheduler"
	"github.com/riskibarqy/sportsfeed/internal/infrastructure/jobqueue"
	"github.com/riskibarqy/sportsfeed/internal/platform/logging"
)

type SeriesTrigger interface {
	TriggerSeriesList(ctx context.Context) (string, error)
}

type LiveTrigger interface {
	Trigger(ctx context.Context, sport string) (string, error)
	TriggerAll(ctx context.Context) ([]string, error)
}

// JobRunner executes one delivered job; jobqueue.Dispatcher implements it.
type JobRunner interface {
	Run(ctx context.Context, delivery jobscheduler.Delivery) (jobqueue.Outcome, error)
}

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

type Handler struct {
	series    SeriesTrigger
	live      LiveTrigger
	jobs      JobRunner
	stream    http.Handler
	checks    map[string]HealthCheck
	logger    *logging.Logger
	validator *validator.Validate
	now       func() time.Time
}

func NewHandler(
	series SeriesTrigger,
	live LiveTrigger,
	jobs JobRunner,
	stream http.Handler,
	checks map[string]HealthCheck,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		series:    series,
		live:      live,
		jobs:      jobs,
		stream:    stream,
		checks:    checks,
		logger:    logger.Named("httpapi"),
		validator: validator.New(),
		now:       time.Now,
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readyz runs every dependency check and answers 503 when any fails.
func (h *Handler) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Readyz")
	defer span.End()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status := http.StatusOK
	items := make([]readinessCheckDTO, 0, len(names))
	for _, name := range names {
		checkCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := h.checks[name](checkCtx)
		cancel()

		item := readinessCheckDTO{Name: name, Status: "ok"}
		if err != nil {
			status = http.StatusServiceUnavailable
			item.Status = "unavailable"
			item.Error = err.Error()
			h.logger.WarnContext(ctx, "readiness check failed", "check", name, "error", err)
		}
		items = append(items, item)
	}

	overall := "ok"
	if status != http.StatusOK {
		overall = "unavailable"
	}
	writeSuccess(ctx, w, status, readinessDTO{Status: overall, Checks: items})
}

type readinessDTO struct {
	Status string              `json:"status"`
	Checks []readinessCheckDTO `json:"checks"`
}

type readinessCheckDTO struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type triggerDTO struct {
	Job       string   `json:"job"`
	Sport     string   `json:"sport,omitempty"`
	DedupKeys []string `json:"dedupKeys"`
}

type jobResultDTO struct {
	DispatchID string `json:"dispatchId"`
	Job        string `json:"job"`
	Attempt    int    `json:"attempt"`
	Outcome    string `json:"outcome"`
	Error      string `json:"error,omitempty"`
}
