package httpapi

import (
	"net/http"

	"github.com/riskibarqy/sportsfeed/internal/infrastructure/jobqueue"
)

const streamPath = "/v1/ws/matches"

func registerRoutes(mux *http.ServeMux, handler *Handler, internalJobToken string) {
	internal := func(fn http.HandlerFunc) http.Handler {
		return RequireInternalJobToken(internalJobToken, fn)
	}

	mux.HandleFunc("GET /healthz", handler.Healthz)
	mux.HandleFunc("GET /readyz", handler.Readyz)

	mux.Handle("POST /v1/internal/runs/series", internal(handler.TriggerSeries))
	mux.Handle("POST /v1/internal/runs/live", internal(handler.TriggerLiveAll))
	mux.Handle("POST /v1/internal/runs/live/{sport}", internal(handler.TriggerLive))

	// QStash delivers every queued job here.
	mux.Handle("POST "+jobqueue.JobPathPrefix+"{name}", internal(handler.RunJob))

	if handler.stream != nil {
		mux.Handle("GET "+streamPath, handler.stream)
	}
}
