package match

import (
	"strings"
	"time"
)

// Status is the canonical match state shared by every sport.
type Status string

const (
	StatusScheduled      Status = "scheduled"
	StatusLive           Status = "live"
	StatusHalftime       Status = "halftime"
	StatusFinished       Status = "finished"
	StatusAfterExtraTime Status = "after_extra_time"
	StatusPenalties      Status = "penalties"
	StatusCancelled      Status = "cancelled"
	StatusPostponed      Status = "postponed"
	StatusDelayed        Status = "delayed"
	StatusUnknown        Status = "unknown"
)

var knownStatuses = map[Status]struct{}{
	StatusScheduled:      {},
	StatusLive:           {},
	StatusHalftime:       {},
	StatusFinished:       {},
	StatusAfterExtraTime: {},
	StatusPenalties:      {},
	StatusCancelled:      {},
	StatusPostponed:      {},
	StatusDelayed:        {},
	StatusUnknown:        {},
}

// ParseStatus accepts an already canonical value and maps anything else to unknown.
func ParseStatus(value string) Status {
	status := Status(strings.ToLower(strings.TrimSpace(value)))
	if _, ok := knownStatuses[status]; ok {
		return status
	}
	return StatusUnknown
}

func (s Status) IsFinished() bool {
	switch s {
	case StatusFinished, StatusAfterExtraTime, StatusPenalties:
		return true
	default:
		return false
	}
}

func (s Status) IsLive() bool {
	return s == StatusLive || s == StatusHalftime
}

func (s Status) IsTerminal() bool {
	return s.IsFinished() || s == StatusCancelled || s == StatusPostponed
}

// Match is one game between two sides. ExternalMatchID is empty until an
// upstream source supplies one.
type Match struct {
	ID              int64
	SportID         int64
	FixtureID       *int64
	ExternalMatchID string
	HomeTeam        string
	AwayTeam        string
	Status          Status
	Result          string
	StartTime       *time.Time
	League          string
	Metadata        map[string]any
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// SameTeams compares team names exactly after trimming surrounding space.
func (m Match) SameTeams(home, away string) bool {
	return strings.TrimSpace(m.HomeTeam) == strings.TrimSpace(home) &&
		strings.TrimSpace(m.AwayTeam) == strings.TrimSpace(away)
}
