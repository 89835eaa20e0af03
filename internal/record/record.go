// Package record holds the source-neutral intermediate records produced by the
// parsers and consumed by the resolver and upsert stages. Records are never
// persisted as-is.
package record

import (
	"github.com/riskibarqy/sportsfeed/internal/domain/matchdetail"
	"github.com/riskibarqy/sportsfeed/internal/domain/score"
)

type Kind string

const (
	KindHTMLMatch Kind = "html_match"
	KindXMLMatch  Kind = "xml_match"
	KindJSONLive  Kind = "json_live"
	KindSchedule  Kind = "schedule"
)

// Record is implemented by every intermediate record.
type Record interface {
	Kind() Kind
	ExternalID() string
}

// Team is a localteam/visitorteam element.
type Team struct {
	ID         string
	Name       string
	Goals      string
	Attributes map[string]string
}

// Event is one events.event element with every attribute kept verbatim.
type Event struct {
	Type       string
	Minute     string
	Team       string
	Player     string
	Result     string
	PlayerID   string
	Assist     string
	AssistID   string
	EventID    string
	Attributes map[string]string
}

type Innings struct {
	Team    string
	Runs    string
	Wickets string
	Overs   string
}

// LiveMatch is a match from the live-data provider. XML and JSON feeds decode
// into the same projection and differ only by Source.
type LiveMatch struct {
	Source        Kind
	ID            string
	FixID         string
	Status        string
	Date          string
	FormattedDate string
	Time          string
	Venue         string
	LiveStats     string
	LocalTeam     Team
	VisitorTeam   Team
	Events        []Event
	HT            *string
	FT            *string
	ET            *string
	// Periods holds every attribute of the ht, ft and et elements, keyed by
	// element name.
	Periods       map[string]map[string]string
	Innings       []Innings
	CategoryName  string
	CategoryID    string
	Attributes    map[string]string
}

func (r LiveMatch) Kind() Kind {
	if r.Source == "" {
		return KindXMLMatch
	}
	return r.Source
}

func (r LiveMatch) ExternalID() string { return r.ID }

// LeagueMapping is one league id to display name entry of the provider.
type LeagueMapping struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Country string `json:"country"`
	Season  string `json:"season"`
}

// Series is a schedule entry from the series listing page.
type Series struct {
	ID        string
	Slug      string
	Name      string
	URL       string
	Month     string
	DateRange string
}

func (r Series) Kind() Kind         { return KindSchedule }
func (r Series) ExternalID() string { return r.ID }

type Phrase string

const (
	PhraseCompleted Phrase = "completed"
	PhraseLive      Phrase = "live"
	PhraseUpcoming  Phrase = "upcoming"
	PhraseUnknown   Phrase = "unknown"
)

// HTMLMatch is a match block from a series matches page.
type HTMLMatch struct {
	ID           string
	Slug         string
	Title        string
	HomeTeam     string
	AwayTeam     string
	Venue        string
	DateText     string
	TimeText     string
	DateTime     string
	StatusText   string
	Phrase       Phrase
	URL          string
	SquadURL     string
	ScorecardURL string
}

func (r HTMLMatch) Kind() Kind         { return KindHTMLMatch }
func (r HTMLMatch) ExternalID() string { return r.ID }

type (
	Squad            = matchdetail.Squad
	Player           = matchdetail.Player
	Batter           = score.Batter
	Bowler           = score.Bowler
	ScorecardInnings = score.ScorecardInnings
)

// Scorecard is a full scraped cricket scorecard.
type Scorecard struct {
	Result  string
	Innings []ScorecardInnings
}
