package observability

import (
	"context"
	"errors"
	"net/http"

	"github.com/riskibarqy/sportsfeed/internal/config"
	"github.com/riskibarqy/sportsfeed/internal/platform/logging"
)

// Telemetry owns the process-wide tracing, profiling and pprof endpoints.
type Telemetry struct {
	shutdownTracing func(context.Context) error
	stopProfiling   func() error
	pprof           *http.Server
	logger          *logging.Logger
}

// Start enables every backend cfg turns on. When one fails, the ones already
// started are stopped before returning.
func Start(cfg config.Config, logger *logging.Logger) (*Telemetry, error) {
	if logger == nil {
		logger = logging.Default()
	}
	t := &Telemetry{logger: logger.Named("observability")}

	var err error
	if t.shutdownTracing, err = startTracing(cfg, t.logger); err != nil {
		return nil, err
	}
	if t.stopProfiling, err = startProfiling(cfg, t.logger); err != nil {
		_ = t.Shutdown(context.Background())
		return nil, err
	}
	if t.pprof, err = startPprof(cfg, t.logger); err != nil {
		_ = t.Shutdown(context.Background())
		return nil, err
	}
	return t, nil
}

// PprofAddr reports the bound debug address, or "" when pprof is off.
func (t *Telemetry) PprofAddr() string {
	if t == nil || t.pprof == nil {
		return ""
	}
	return t.pprof.Addr
}

// Shutdown stops profiling and pprof, then flushes traces and logs.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	if t == nil {
		return nil
	}
	var errs []error
	if t.pprof != nil {
		if err := t.pprof.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if t.stopProfiling != nil {
		if err := t.stopProfiling(); err != nil {
			errs = append(errs, err)
		}
	}
	if t.shutdownTracing != nil {
		if err := t.shutdownTracing(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	t.pprof, t.stopProfiling, t.shutdownTracing = nil, nil, nil
	return errors.Join(errs...)
}
