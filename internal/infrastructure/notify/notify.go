// Package notify publishes "matches changed" events to downstream consumers.
// Every sink implements usecase.ChangeNotifier; callers log failures and never
// let them fail an ingestion cycle.
package notify

import (
	"context"

	crerr "github.com/cockroachdb/errors"

	"github.com/riskibarqy/sportsfeed/internal/platform/logging"
	"github.com/riskibarqy/sportsfeed/internal/usecase"
)

// LogNotifier writes events to the structured log. It is the default sink.
type LogNotifier struct {
	logger *logging.Logger
}

func NewLogNotifier(logger *logging.Logger) *LogNotifier {
	if logger == nil {
		logger = logging.Default()
	}
	return &LogNotifier{logger: logger.Named("notify")}
}

func (n *LogNotifier) Notify(ctx context.Context, event usecase.ChangeEvent) error {
	n.logger.InfoContext(ctx, "matches changed",
		"event", event.Event,
		"sport", event.Sport,
		"count", event.Count,
		"occurred_at", event.OccurredAt,
	)
	return nil
}

// Fanout delivers an event to every sink and joins their errors.
type Fanout []usecase.ChangeNotifier

func NewFanout(sinks ...usecase.ChangeNotifier) Fanout {
	out := make(Fanout, 0, len(sinks))
	for _, sink := range sinks {
		if sink != nil {
			out = append(out, sink)
		}
	}
	return out
}

func (f Fanout) Notify(ctx context.Context, event usecase.ChangeEvent) error {
	var errs []error
	for _, sink := range f {
		if err := sink.Notify(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return crerr.Join(errs...)
}
