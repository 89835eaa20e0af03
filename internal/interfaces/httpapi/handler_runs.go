package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/riskibarqy/sportsfeed/internal/usecase"
)

func (h *Handler) TriggerSeries(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.TriggerSeries")
	defer span.End()

	if h.series == nil {
		writeError(ctx, w, fmt.Errorf("%w: scrape pipeline is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	key, err := h.series.TriggerSeriesList(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "trigger series list failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusAccepted, triggerDTO{
		Job:       usecase.JobSeriesList,
		DedupKeys: []string{key},
	})
}

func (h *Handler) TriggerLive(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.TriggerLive")
	defer span.End()

	if h.live == nil {
		writeError(ctx, w, fmt.Errorf("%w: live cycle is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	sport := strings.ToLower(strings.TrimSpace(r.PathValue("sport")))
	if err := h.validator.Var(sport, "required,max=32"); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid sport %q", usecase.ErrInvalidInput, sport))
		return
	}

	key, err := h.live.Trigger(ctx, sport)
	if err != nil {
		h.logger.WarnContext(ctx, "trigger live cycle failed", "sport", sport, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusAccepted, triggerDTO{
		Job:       usecase.JobLiveScores,
		Sport:     sport,
		DedupKeys: []string{key},
	})
}

func (h *Handler) TriggerLiveAll(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.TriggerLiveAll")
	defer span.End()

	if h.live == nil {
		writeError(ctx, w, fmt.Errorf("%w: live cycle is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	keys, err := h.live.TriggerAll(ctx)
	if err != nil && len(keys) == 0 {
		h.logger.WarnContext(ctx, "trigger live cycles failed", "error", err)
		writeError(ctx, w, err)
		return
	}
	if err != nil {
		h.logger.WarnContext(ctx, "some live cycles were not queued", "queued", len(keys), "error", err)
	}

	writeSuccess(ctx, w, http.StatusAccepted, triggerDTO{
		Job:       usecase.JobLiveScores,
		DedupKeys: keys,
	})
}
