package score

import "context"

type Repository interface {
	GetByMatchID(ctx context.Context, matchID int64) (Score, bool, error)
	// Upsert replaces score_data and metadata for the match; it never merges.
	Upsert(ctx context.Context, item Score) (Score, bool, error)
}
