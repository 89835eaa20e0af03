package usecase

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/riskibarqy/sportsfeed/internal/domain/jobscheduler"
)

const (
	JobSeriesList     = "scrape.series_list"
	JobSeriesMatches  = "scrape.series_matches"
	JobMatchSquad     = "scrape.match_squad"
	JobMatchScorecard = "scrape.match_scorecard"
	JobLiveScores     = "live.scores"
)

const (
	QueueScrape = "scrape"
	QueueLive   = "live"
)

type JobQueue interface {
	Enqueue(ctx context.Context, job jobscheduler.Job) error
}

type noopJobQueue struct{}

func (noopJobQueue) Enqueue(_ context.Context, _ jobscheduler.Job) error {
	return nil
}

func NewNoopJobQueue() JobQueue {
	return noopJobQueue{}
}

// JobPolicy is the retry shape of one job type.
type JobPolicy struct {
	MaxAttempts int
	Backoff     []time.Duration
}

func (p JobPolicy) apply(job jobscheduler.Job) jobscheduler.Job {
	job.MaxAttempts = p.MaxAttempts
	job.Backoff = append([]time.Duration(nil), p.Backoff...)
	return job
}

var dedupUnsafeCharRegex = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// dedupKey buckets at so repeated triggers inside one interval collapse into
// one queued unit.
func dedupKey(prefix, id string, at time.Time, bucket time.Duration) string {
	if bucket <= 0 {
		bucket = time.Minute
	}
	slot := at.UTC().Truncate(bucket).Format("20060102T150405Z")
	prefix = sanitizeDedupSegment(prefix)
	id = sanitizeDedupSegment(id)
	return prefix + "-" + id + "-" + slot
}

func sanitizeDedupSegment(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "unknown"
	}
	return dedupUnsafeCharRegex.ReplaceAllString(value, "-")
}
