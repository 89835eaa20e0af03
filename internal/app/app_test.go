package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/riskibarqy/sportsfeed/internal/config"
	"github.com/riskibarqy/sportsfeed/internal/platform/logging"
)

func memoryConfig() config.Config {
	return config.Config{
		ServiceName:      "sportsfeed-test",
		HTTPAddr:         ":0",
		ReadTimeout:      time.Second,
		WriteTimeout:     time.Second,
		Location:         time.UTC,
		CachePrefix:      "sportsfeed:",
		CacheTTLSports:   time.Minute,
		Sports:           config.DefaultSportsCatalog(),
		FeedBaseURL:      "http://127.0.0.1:1/getfeed",
		ScrapeBaseURL:    "http://127.0.0.1:1",
		QueueDriver:      config.QueueDriverMemory,
		QueueWorkers:     1,
		JobTimeout:       time.Second,
		InternalJobToken: "secret",
		NotifyDrivers:    []string{config.NotifyDriverLog, config.NotifyDriverWebSocket},
		ResolverWindow:   6 * time.Hour,
		UpsertBatchSize:  10,
		UpsertWorkers:    1,
		LiveWorkers:      1,
	}
}

func newTestApp(t *testing.T, cfg config.Config) *App {
	t.Helper()
	a, err := New(context.Background(), cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := a.Close(ctx); err != nil {
			t.Errorf("close app: %v", err)
		}
	})
	return a
}

func TestNewWithMemoryBackends(t *testing.T) {
	a := newTestApp(t, memoryConfig())

	if a.Pipeline == nil || a.Live == nil || a.Server == nil {
		t.Fatalf("expected services and server to be wired")
	}

	cases := []struct {
		name   string
		method string
		path   string
		token  string
		status int
	}{
		{name: "health", method: http.MethodGet, path: "/healthz", status: http.StatusOK},
		{name: "ready without checks", method: http.MethodGet, path: "/readyz", status: http.StatusOK},
		{name: "trigger needs token", method: http.MethodPost, path: "/v1/internal/runs/series", status: http.StatusUnauthorized},
		{name: "unknown job", method: http.MethodPost, path: "/v1/internal/jobs/nope", token: "secret", status: http.StatusNotFound},
		{name: "websocket route wired", method: http.MethodGet, path: "/v1/ws/matches", status: http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, strings.NewReader(`{}`))
			if tc.token != "" {
				req.Header.Set("X-Internal-Job-Token", tc.token)
			}
			rec := httptest.NewRecorder()
			a.Server.Handler.ServeHTTP(rec, req)
			if rec.Code != tc.status {
				t.Fatalf("expected %d, got %d: %s", tc.status, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestNewWithoutWebSocketSinkSkipsStreamRoute(t *testing.T) {
	cfg := memoryConfig()
	cfg.NotifyDrivers = []string{config.NotifyDriverLog}
	a := newTestApp(t, cfg)

	rec := httptest.NewRecorder()
	a.Server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/ws/matches", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 without websocket sink, got %d", rec.Code)
	}
}

func TestNewFailsForUnusableSinks(t *testing.T) {
	cases := map[string]func(*config.Config){
		"redis sink without redis": func(cfg *config.Config) {
			cfg.NotifyDrivers = []string{config.NotifyDriverRedis}
		},
		"kafka sink without brokers": func(cfg *config.Config) {
			cfg.NotifyDrivers = []string{config.NotifyDriverKafka}
			cfg.KafkaTopic = "sportsfeed.matches"
		},
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := memoryConfig()
			mutate(&cfg)
			if _, err := New(context.Background(), cfg, logging.NewNop()); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}
