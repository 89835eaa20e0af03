package score

import (
	"github.com/bytedance/sonic"
)

// Event is one timeline entry (goal, card, substitution) from a live feed.
type Event struct {
	Minute   string `json:"minute"`
	Team     string `json:"team"`
	Player   string `json:"player"`
	Result   string `json:"result"`
	PlayerID string `json:"player_id"`
	Assist   string `json:"assist"`
	AssistID string `json:"assist_id"`
	EventID  string `json:"event_id"`
}

// InvasionScore is the score shape for goal-based sports.
type InvasionScore struct {
	HomeScore          int                          `json:"home_score"`
	AwayScore          int                          `json:"away_score"`
	HalfTimeScore      *string                      `json:"half_time_score"`
	FullTimeScore      *string                      `json:"full_time_score"`
	ExtraTimeScore     *string                      `json:"extra_time_score"`
	Periods            map[string]map[string]string `json:"periods,omitempty"`
	MatchStatus        string                       `json:"match_status"`
	GoalEvents         []Event                      `json:"goal_events"`
	RedCardEvents      []Event                      `json:"red_card_events"`
	YellowCardEvents   []Event                      `json:"yellow_card_events"`
	SubstitutionEvents []Event                      `json:"substitution_events"`
}

// Innings is a live-feed innings summary.
type Innings struct {
	Team    string `json:"team"`
	Runs    string `json:"runs"`
	Wickets string `json:"wickets"`
	Overs   string `json:"overs"`
}

// CricketScore is the live-feed score shape for cricket.
type CricketScore struct {
	Innings     []Innings           `json:"innings"`
	MatchStatus string              `json:"match_status"`
	Events      []map[string]string `json:"events"`
}

type Batter struct {
	Name       string `json:"name"`
	Dismissal  string `json:"dismissal"`
	Runs       string `json:"runs"`
	Balls      string `json:"balls"`
	Fours      string `json:"fours"`
	Sixes      string `json:"sixes"`
	StrikeRate string `json:"strike_rate"`
}

type Bowler struct {
	Name    string `json:"name"`
	Overs   string `json:"overs"`
	Maidens string `json:"maidens"`
	Runs    string `json:"runs"`
	Wickets string `json:"wickets"`
	NoBalls string `json:"no_balls"`
	Wides   string `json:"wides"`
	Economy string `json:"economy"`
}

type ScorecardInnings struct {
	Team          string   `json:"team"`
	Score         string   `json:"score"`
	Batters       []Batter `json:"batters"`
	Bowlers       []Bowler `json:"bowlers"`
	FallOfWickets []string `json:"fall_of_wickets"`
	Extras        string   `json:"extras"`
	Total         string   `json:"total"`
}

// Scorecard is the scraped full scorecard shape for cricket.
type Scorecard struct {
	Result      string             `json:"result"`
	MatchStatus string             `json:"match_status"`
	Innings     []ScorecardInnings `json:"innings"`
}

// Encode renders a typed score shape into the opaque score_data document.
func Encode(shape any) (map[string]any, error) {
	raw, err := sonic.Marshal(shape)
	if err != nil {
		return nil, err
	}
	out := map[string]any{}
	if err := sonic.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
