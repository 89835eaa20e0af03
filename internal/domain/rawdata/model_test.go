package rawdata

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPayload_Prepare(t *testing.T) {
	now := time.Date(2026, 7, 5, 16, 0, 0, 0, time.FixedZone("IST", 19800))

	got := Payload{Source: "cricbuzz", EntityType: "series_list", Payload: "<html></html>", ContentType: "html"}.Prepare(now)

	assert.Equal(t, Hash("<html></html>"), got.PayloadHash)
	assert.Len(t, got.PayloadHash, 64)
	assert.Equal(t, "html", got.ContentType)
	assert.Equal(t, time.UTC, got.FetchedAt.Location())
	assert.True(t, got.FetchedAt.Equal(now))
}

func TestPayload_PrepareKeepsCallerValues(t *testing.T) {
	fetched := time.Date(2026, 7, 5, 9, 0, 0, 0, time.UTC)

	got := Payload{Payload: "{}", PayloadHash: "fixed", FetchedAt: fetched}.Prepare(time.Now())

	assert.Equal(t, "fixed", got.PayloadHash)
	assert.Equal(t, DefaultContentType, got.ContentType)
	assert.Equal(t, fetched, got.FetchedAt)
}
