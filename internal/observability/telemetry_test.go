package observability

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riskibarqy/sportsfeed/internal/config"
	"github.com/riskibarqy/sportsfeed/internal/platform/logging"
)

func TestStart_AllDisabled(t *testing.T) {
	cfg := config.Config{
		ServiceName:    "sportsfeed-ingester",
		ServiceVersion: "dev",
		AppEnv:         config.EnvDev,
		Location:       time.UTC,
	}

	telemetry, err := Start(cfg, logging.NewNop())
	require.NoError(t, err)
	assert.Empty(t, telemetry.PprofAddr())
	assert.NoError(t, telemetry.Shutdown(context.Background()))
	assert.NoError(t, telemetry.Shutdown(context.Background()))
}

func TestStart_PprofServesNamedProfiles(t *testing.T) {
	cfg := config.Config{PprofEnabled: true, PprofAddr: "127.0.0.1:0", Location: time.UTC}

	telemetry, err := Start(cfg, logging.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = telemetry.Shutdown(context.Background()) })

	addr := telemetry.PprofAddr()
	require.NotEmpty(t, addr)

	resp, err := http.Get("http://" + addr + "/debug/pprof/goroutine?debug=1")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "goroutine profile")
}

func TestStart_PprofBindFailure(t *testing.T) {
	_, err := Start(config.Config{PprofEnabled: true, PprofAddr: "256.0.0.1:bad"}, logging.NewNop())
	assert.Error(t, err)
}

func TestTracingDisabledReason(t *testing.T) {
	assert.Equal(t, "UPTRACE_ENABLED=false", tracingDisabledReason(config.Config{UptraceDSN: "https://x@api.uptrace.dev"}))
	assert.Equal(t, "UPTRACE_DSN empty", tracingDisabledReason(config.Config{UptraceEnabled: true, UptraceDSN: "  "}))
	assert.Empty(t, tracingDisabledReason(config.Config{UptraceEnabled: true, UptraceDSN: "https://x@api.uptrace.dev"}))
}

func TestProfilingTags(t *testing.T) {
	tags := profilingTags(config.Config{
		AppEnv:        config.EnvProd,
		ServiceName:   "sportsfeed-ingester",
		QueueDriver:   config.QueueDriverQStash,
		NotifyDrivers: []string{config.NotifyDriverLog, config.NotifyDriverKafka},
	})

	assert.Equal(t, "qstash", tags["queue_driver"])
	assert.Equal(t, "log+kafka", tags["notify"])
	assert.NotContains(t, tags, "timezone")
}
