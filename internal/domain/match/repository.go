package match

import (
	"context"
	"time"

	"github.com/riskibarqy/sportsfeed/internal/domain/batch"
)

type Repository interface {
	FindByExternalID(ctx context.Context, externalMatchID string) (Match, bool, error)
	// FindByTeamsWithin returns matches of sportID with identical team names whose
	// start_time lies in [at-window, at+window].
	FindByTeamsWithin(ctx context.Context, sportID int64, home, away string, at time.Time, window time.Duration) ([]Match, error)
	Upsert(ctx context.Context, item Match) (Match, bool, error)
	UpsertMany(ctx context.Context, items []Match) (batch.Result, error)
	Update(ctx context.Context, item Match) (Match, error)
	BackfillExternalID(ctx context.Context, id int64, externalMatchID string) error
	UpdateLiveState(ctx context.Context, id int64, status Status, metadata map[string]any) error
}
