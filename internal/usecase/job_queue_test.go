package usecase

import (
	"strings"
	"testing"
	"time"

	"github.com/riskibarqy/sportsfeed/internal/domain/jobscheduler"
)

func TestDedupKey_UsesQStashSafeFormat(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, time.February, 25, 4, 25, 42, 0, time.UTC)
	got := dedupKey("scrape.series_matches", "7607/indian premier league 2026", at, 5*time.Minute)

	if strings.Contains(got, ":") {
		t.Fatalf("dedup key must not contain colon, got=%q", got)
	}

	want := "scrape-series_matches-7607-indian-premier-league-2026-20260225T042500Z"
	if got != want {
		t.Fatalf("unexpected dedup key: got=%q want=%q", got, want)
	}
}

func TestDedupKey_SameBucketCollapses(t *testing.T) {
	t.Parallel()

	first := dedupKey("live.scores", "soccer", time.Date(2026, 7, 5, 9, 30, 5, 0, time.UTC), time.Minute)
	second := dedupKey("live.scores", "soccer", time.Date(2026, 7, 5, 9, 30, 55, 0, time.UTC), time.Minute)
	third := dedupKey("live.scores", "soccer", time.Date(2026, 7, 5, 9, 31, 1, 0, time.UTC), time.Minute)

	if first != second {
		t.Fatalf("expected same key inside one bucket, got %q and %q", first, second)
	}
	if first == third {
		t.Fatalf("expected new key in next bucket, got %q", third)
	}
}

func TestSanitizeDedupSegment_EmptyFallback(t *testing.T) {
	t.Parallel()

	if got := sanitizeDedupSegment(" \t "); got != "unknown" {
		t.Fatalf("unexpected sanitize fallback: got=%q want=%q", got, "unknown")
	}
}

func TestJobPolicy_ApplyCopiesBackoff(t *testing.T) {
	t.Parallel()

	policy := JobPolicy{MaxAttempts: 5, Backoff: []time.Duration{time.Minute, 2 * time.Minute}}

	job := policy.apply(jobscheduler.Job{Name: JobSeriesMatches})
	if job.MaxAttempts != 5 || len(job.Backoff) != 2 {
		t.Fatalf("expected policy applied, got attempts=%d backoff=%v", job.MaxAttempts, job.Backoff)
	}

	job.Backoff[0] = time.Hour
	if policy.Backoff[0] != time.Minute {
		t.Fatalf("expected policy backoff untouched, got %v", policy.Backoff)
	}
}
