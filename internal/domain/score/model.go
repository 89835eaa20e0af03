package score

import (
	"time"
)

// Score is the current state of a match's score. ScoreData is sport-shaped and
// is replaced wholesale on every write.
type Score struct {
	ID        int64
	MatchID   int64
	ScoreData map[string]any
	Metadata  map[string]any
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (s Score) MatchStatus() string {
	if s.ScoreData == nil {
		return ""
	}
	status, _ := s.ScoreData["match_status"].(string)
	return status
}
