package jobscheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatchEvent_NormalizeDefaults(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.FixedZone("WIB", 7*3600))

	got, err := DispatchEvent{DispatchID: " d-1 ", Status: StatusQueued}.Normalize(now)
	require.NoError(t, err)

	assert.Equal(t, "d-1", got.DispatchID)
	assert.Equal(t, "unknown", got.JobName)
	assert.Equal(t, "memory", got.Queue)
	assert.Equal(t, 1, got.Attempt)
	assert.Equal(t, 1, got.MaxAttempts)
	assert.Equal(t, time.UTC, got.OccurredAt.Location())
	assert.True(t, got.OccurredAt.Equal(now))
}

func TestDispatchEvent_NormalizeRequiresID(t *testing.T) {
	_, err := DispatchEvent{DispatchID: "  "}.Normalize(time.Now())
	assert.ErrorIs(t, err, ErrMissingDispatchID)
}

func TestDispatchEvent_Merge(t *testing.T) {
	prev := DispatchEvent{
		DispatchID:   "d-1",
		Attempt:      2,
		DedupKey:     "live.scores:soccer:1",
		TraceID:      "trace",
		ErrorMessage: "upstream 502",
		Status:       StatusRetrying,
	}

	retry := DispatchEvent{DispatchID: "d-1", Attempt: 1, Status: StatusRetrying}.Merge(prev)
	assert.Equal(t, 2, retry.Attempt)
	assert.Equal(t, "live.scores:soccer:1", retry.DedupKey)
	assert.Equal(t, "trace", retry.TraceID)
	assert.Equal(t, "upstream 502", retry.ErrorMessage)

	done := DispatchEvent{DispatchID: "d-1", Attempt: 3, Status: StatusCompleted}.Merge(prev)
	assert.Equal(t, 3, done.Attempt)
	assert.Empty(t, done.ErrorMessage)
}

func TestDispatchEvent_MergeKeepsTerminalStatus(t *testing.T) {
	finished := time.Date(2026, 7, 5, 9, 0, 5, 0, time.UTC)
	prev := DispatchEvent{DispatchID: "d-1", Status: StatusCompleted, OccurredAt: finished}

	late := DispatchEvent{DispatchID: "d-1", Status: StatusQueued, OccurredAt: finished.Add(-time.Second)}.Merge(prev)

	assert.Equal(t, StatusCompleted, late.Status)
	assert.Equal(t, finished, late.OccurredAt)
}

func TestDispatchStatus_Terminal(t *testing.T) {
	assert.True(t, StatusCompleted.Terminal())
	assert.True(t, StatusFailed.Terminal())
	assert.False(t, StatusQueued.Terminal())
	assert.False(t, StatusRetrying.Terminal())
}
