package matchdetail

import (
	"context"
	"time"
)

type Player struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

type Squad struct {
	Team    string   `json:"team"`
	Players []Player `json:"players"`
}

// Detail holds extended per-match data scraped after the match is known.
type Detail struct {
	ID             int64
	MatchID        int64
	Squads         []Squad
	AdditionalInfo map[string]any
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type Repository interface {
	GetByMatchID(ctx context.Context, matchID int64) (Detail, bool, error)
	// Upsert replaces the squads and additional info of the match.
	Upsert(ctx context.Context, item Detail) (Detail, bool, error)
}
