package app

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/riskibarqy/sportsfeed/internal/platform/logging"
)

const scheduleTriggerTimeout = 30 * time.Second

type seriesTrigger interface {
	TriggerSeriesList(ctx context.Context) (string, error)
}

type liveTrigger interface {
	TriggerAll(ctx context.Context) ([]string, error)
}

// ScheduleConfig holds the cron specs for the periodic triggers. An empty
// spec disables that trigger.
type ScheduleConfig struct {
	SeriesCron string
	LiveCron   string
	Location   *time.Location
}

// Scheduler enqueues the scrape and live jobs on their cron specs. It never
// runs the work inline; the job queue does.
type Scheduler struct {
	cron   *cron.Cron
	logger *logging.Logger
}

func NewScheduler(cfg ScheduleConfig, series seriesTrigger, live liveTrigger, logger *logging.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = logging.Default()
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	s := &Scheduler{
		cron:   cron.New(cron.WithLocation(loc)),
		logger: logger.Named("scheduler"),
	}

	if cfg.SeriesCron != "" && series != nil {
		if _, err := s.cron.AddFunc(cfg.SeriesCron, s.seriesJob(series)); err != nil {
			return nil, fmt.Errorf("schedule series list %q: %w", cfg.SeriesCron, err)
		}
	}
	if cfg.LiveCron != "" && live != nil {
		if _, err := s.cron.AddFunc(cfg.LiveCron, s.liveJob(live)); err != nil {
			return nil, fmt.Errorf("schedule live scores %q: %w", cfg.LiveCron, err)
		}
	}
	return s, nil
}

func (s *Scheduler) seriesJob(series seriesTrigger) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), scheduleTriggerTimeout)
		defer cancel()

		key, err := series.TriggerSeriesList(ctx)
		if err != nil {
			s.logger.Error("scheduled series list failed", "error", err)
			return
		}
		s.logger.Debug("scheduled series list queued", "dedup_key", key)
	}
}

func (s *Scheduler) liveJob(live liveTrigger) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), scheduleTriggerTimeout)
		defer cancel()

		keys, err := live.TriggerAll(ctx)
		if err != nil {
			s.logger.Warn("scheduled live scores partially failed", "queued", len(keys), "error", err)
			return
		}
		s.logger.Debug("scheduled live scores queued", "queued", len(keys))
	}
}

// Len reports how many triggers are scheduled.
func (s *Scheduler) Len() int {
	return len(s.cron.Entries())
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts scheduling and waits for running triggers until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
