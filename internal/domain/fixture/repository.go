package fixture

import (
	"context"

	"github.com/riskibarqy/sportsfeed/internal/domain/batch"
)

type Repository interface {
	FindByExternalID(ctx context.Context, sportID int64, externalID string) (Fixture, bool, error)
	Upsert(ctx context.Context, item Fixture) (Fixture, bool, error)
	UpsertMany(ctx context.Context, items []Fixture) (batch.Result, error)
}
