package fixture

import (
	"strings"
	"time"
)

// Fixture is a league, tournament or series as identified by an upstream source.
type Fixture struct {
	ID         int64
	SportID    int64
	ExternalID string
	Name       string
	Country    string
	Season     string
	Metadata   map[string]any
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Key is the natural key of a fixture.
type Key struct {
	SportID    int64
	ExternalID string
}

func (f Fixture) Key() Key {
	return Key{SportID: f.SportID, ExternalID: NormalizeExternalID(f.ExternalID)}
}

func NormalizeExternalID(value string) string {
	return strings.TrimSpace(value)
}
