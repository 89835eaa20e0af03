package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riskibarqy/sportsfeed/internal/record"
)

const seriesListHTML = `<html><body>
<div class="cb-col-100 cb-col">
  <div class="cb-col-16 cb-col text-bold cb-mnth">July 2026</div>
  <div class="cb-col-84 cb-col">
    <div class="cb-sch-lst-itm">
      <a class="text-black text-hvr-underline" href="/cricket-series/9237/indian-premier-league-2026"><span class="text-black">Indian Premier League 2026</span></a>
      <div class="text-gray cb-font-12">Mar 22 - May 25</div>
    </div>
    <div class="cb-sch-lst-itm">
      <a class="text-black text-hvr-underline"><span class="text-black">Series without link</span></a>
    </div>
  </div>
</div>
<div class="cb-col-100 cb-col">
  <div class="cb-col-16 cb-col text-bold cb-mnth">August 2026</div>
  <div class="cb-sch-lst-itm">
    <a class="text-black text-hvr-underline" href="https://www.cricbuzz.com/cricket-series/9301/england-tour-of-india-2026"><span class="text-black">England tour of India, 2026</span></a>
  </div>
  <div class="cb-sch-lst-itm">
    <a class="text-black text-hvr-underline" href="/cricket-series/9302/nameless"><span class="text-black"> </span></a>
  </div>
</div>
<div class="cb-col-100 cb-col">
  <div class="cb-sch-lst-itm"><a class="text-black text-hvr-underline" href="/cricket-series/1/no-month"><span class="text-black">No month</span></a></div>
</div>
</body></html>`

func TestParseSeriesList(t *testing.T) {
	t.Parallel()

	got, err := ParseSeriesList([]byte(seriesListHTML), "https://www.cricbuzz.com/cricket-schedule/series/all")
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, record.Series{
		ID:        "9237",
		Slug:      "indian-premier-league-2026",
		Name:      "Indian Premier League 2026",
		URL:       "https://www.cricbuzz.com/cricket-series/9237/indian-premier-league-2026",
		Month:     "July 2026",
		DateRange: "Mar 22 - May 25",
	}, got[0])
	assert.Equal(t, "9301", got[1].ExternalID())
	assert.Equal(t, "August 2026", got[1].Month)
	assert.Equal(t, "", got[1].DateRange)
}

func TestParseSeriesList_Empty(t *testing.T) {
	t.Parallel()

	got, err := ParseSeriesList([]byte(`<html><body><p>maintenance</p></body></html>`), "")
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = ParseSeriesList(nil, "")
	assert.ErrorIs(t, err, ErrParse)
}

const matchListHTML = `<html><body>
<div class="cb-series-matches">
  <div class="cb-col-25 cb-col pad10"><span>Jul 05, Sat</span></div>
  <div class="cb-srs-mtchs-tm">
    <a href="/live-cricket-scores/99812/ind-vs-aus-3rd-odi-australia-tour-of-india-2026"><span>India vs Australia, 3rd ODI</span></a>
    <div class="text-gray">Wankhede Stadium, Mumbai</div>
    <div class="cb-text-complete">India won by 5 wkts</div>
  </div>
  <div class="cb-font-12 text-gray">Jul 05, Sat, 9:30 AM / 3:15 PM LOCAL</div>
</div>
<div class="cb-series-matches">
  <div class="schedule-date"><span>Jul 09</span></div>
  <div class="cb-srs-mtchs-tm">
    <a href="/live-cricket-scores/99813/aus-vs-ind-4th-test-australia-tour-of-india-2026"><span>Australia vs India, 4th Test</span></a>
    <div class="text-gray">Eden Gardens, Kolkata</div>
    <div class="cb-text-upcoming">Match starts at Jul 09, 4:00 GMT</div>
  </div>
</div>
<div class="cb-series-matches">
  <div class="cb-srs-mtchs-tm"><span>Tour announcement</span></div>
</div>
</body></html>`

func TestParseMatchList(t *testing.T) {
	t.Parallel()

	got, err := ParseMatchList([]byte(matchListHTML), "https://www.cricbuzz.com/cricket-series/9240/australia-tour-of-india-2026/matches")
	require.NoError(t, err)
	require.Len(t, got, 2)

	first := got[0]
	assert.Equal(t, "99812", first.ExternalID())
	assert.Equal(t, "ind-vs-aus-3rd-odi-australia-tour-of-india-2026", first.Slug)
	assert.Equal(t, "India", first.HomeTeam)
	assert.Equal(t, "Australia", first.AwayTeam)
	assert.Equal(t, "Wankhede Stadium, Mumbai", first.Venue)
	assert.Equal(t, "Jul 05, Sat", first.DateText)
	assert.Equal(t, "Jul 05, Sat, 9:30 AM / 3:15 PM LOCAL", first.TimeText)
	assert.Equal(t, "Jul 05, Sat, Jul 05, Sat, 9:30 AM / 3:15 PM LOCAL", first.DateTime)
	assert.Equal(t, "India won by 5 wkts", first.StatusText)
	assert.Equal(t, record.PhraseCompleted, first.Phrase)
	assert.Equal(t, "https://www.cricbuzz.com/cricket-match-squads/99812/ind-vs-aus-3rd-odi-australia-tour-of-india-2026", first.SquadURL)
	assert.Equal(t, "https://www.cricbuzz.com/live-cricket-scorecard/99812/ind-vs-aus-3rd-odi-australia-tour-of-india-2026", first.ScorecardURL)

	second := got[1]
	assert.Equal(t, "Jul 09", second.DateText)
	assert.Equal(t, notAvailable, second.TimeText)
	assert.Equal(t, record.PhraseUpcoming, second.Phrase)
	assert.Equal(t, "Australia", second.HomeTeam)
}

func TestClassifyPhrase(t *testing.T) {
	t.Parallel()

	cases := map[string]record.Phrase{
		"India won by 5 wkts":              record.PhraseCompleted,
		"Match drawn":                      record.PhraseCompleted,
		"Match tied":                       record.PhraseCompleted,
		"No result":                        record.PhraseCompleted,
		"Stumps":                           record.PhraseLive,
		"Australia need 45 runs in 30":     record.PhraseLive,
		"India opt to bat after toss":      record.PhraseLive,
		"Rain delay":                       record.PhraseLive,
		"Match starts at Jul 09, 4:00 GMT": record.PhraseUpcoming,
		"":                                 record.PhraseUnknown,
		"Preview":                          record.PhraseUnknown,
	}
	for phrase, want := range cases {
		if got := ClassifyPhrase(phrase); got != want {
			t.Fatalf("ClassifyPhrase(%q) = %s, want %s", phrase, got, want)
		}
	}
}

func TestSplitTeams(t *testing.T) {
	t.Parallel()

	home, away := SplitTeams("India vs Australia, 3rd ODI")
	assert.Equal(t, "India", home)
	assert.Equal(t, "Australia", away)

	home, away = SplitTeams("Mumbai Indians vs Chennai Super Kings")
	assert.Equal(t, "Mumbai Indians", home)
	assert.Equal(t, "Chennai Super Kings", away)

	home, away = SplitTeams("Practice session")
	assert.Empty(t, home)
	assert.Empty(t, away)
}

const squadsHTML = `<html><body>
<div class="cb-col cb-col-100 cb-teams-hdr">
  <a class="cb-team1 cb-col cb-col-50" href="#"><div class="pad5"><img src="in.png"></div><div class="pad5">India</div></a>
  <a class="cb-team2 cb-col cb-col-50" href="#"><div class="pad5"><img src="au.png"></div><div class="pad5">Australia</div></a>
</div>
<div class="cb-play11-lft-col">
  <a class="cb-player-card-left"><div class="cb-player-name-left"><div>Rohit Sharma (c)</div><span class="cb-font-12 text-gray">Batter</span></div></a>
  <a class="cb-player-card-left"><div class="cb-player-name-left"><div>Jasprit Bumrah</div></div></a>
</div>
<div class="cb-play11-rt-col">
  <a class="cb-player-card-right"><div class="cb-player-name-right"><div>Pat Cummins (c)</div><span class="cb-font-12 text-gray">Bowler</span></div></a>
</div>
</body></html>`

func TestParseSquads(t *testing.T) {
	t.Parallel()

	got, err := ParseSquads([]byte(squadsHTML))
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "India", got[0].Team)
	assert.Equal(t, []record.Player{
		{Name: "Rohit Sharma (c)", Role: "Batter"},
		{Name: "Jasprit Bumrah", Role: "Unknown"},
	}, got[0].Players)
	assert.Equal(t, "Australia", got[1].Team)
	assert.Equal(t, []record.Player{{Name: "Pat Cummins (c)", Role: "Bowler"}}, got[1].Players)
}

func TestParseSquads_MissingHeaders(t *testing.T) {
	t.Parallel()

	got, err := ParseSquads([]byte(`<div class="cb-teams-hdr"><a class="cb-team1"><div class="pad5">India</div></a></div>`))
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = ParseSquads([]byte(`<html><body>Squads not announced</body></html>`))
	require.NoError(t, err)
	assert.Empty(t, got)
}

const scorecardHTML = `<html><body>
<div class="cb-col cb-scrcrd-status cb-col-100 cb-text-complete">India won by 5 wkts</div>
<div id="innings_1">
  <div class="cb-scrd-hdr-rw"><span>Australia Innings</span><span>250-9 (50 Ov)</span></div>
  <div class="cb-scrd-sub-hdr"><div class="cb-col-25">Batter</div><div class="cb-col-8">R</div></div>
  <div class="cb-scrd-itms">
    <div class="cb-col-25"><a class="cb-text-link">Travis Head</a></div>
    <div class="cb-col-33"><span class="text-gray">c Kohli b Bumrah</span></div>
    <div class="cb-col-8">45</div><div class="cb-col-8">38</div><div class="cb-col-8">6</div><div class="cb-col-8">1</div><div class="cb-col-8">118.42</div>
  </div>
  <div class="cb-scrd-itms">
    <div class="cb-col-25"><a class="cb-text-link">Glenn Maxwell</a></div>
    <div class="cb-col-8">61</div><div class="cb-col-8">40</div>
  </div>
  <div class="cb-scrd-itms"><div class="cb-col-60">Extras</div><div class="cb-col-8">12</div><div class="cb-col-32">(b 0, lb 4, w 8)</div></div>
  <div class="cb-scrd-itms"><div class="cb-col-60">Total</div><div class="cb-col-8">250</div><div class="cb-col-32">(9 wkts, 50 Ov)</div></div>
  <div class="cb-scrd-sub-hdr">Fall of Wickets</div>
  <div class="cb-col-100">41-1 (Travis Head, 7.2), 98-2 (Steve Smith, 19.5), 150-3 (Marnus Labuschagne, 31.1)</div>
  <div class="cb-scrd-itms">
    <div class="cb-col-38"><a class="cb-text-link">Jasprit Bumrah</a></div>
    <div class="cb-col-8">10</div><div class="cb-col-8">1</div><div class="cb-col-10">42</div>
    <div class="cb-col-8">3</div><div class="cb-col-8">0</div><div class="cb-col-8">2</div><div class="cb-col-10">4.20</div>
  </div>
</div>
<div id="innings_2">
  <div class="cb-scrd-hdr-rw"><span>India Innings</span><span>251-5 (47.3 Ov)</span></div>
</div>
</body></html>`

func TestParseScorecard(t *testing.T) {
	t.Parallel()

	got, err := ParseScorecard([]byte(scorecardHTML))
	require.NoError(t, err)
	assert.Equal(t, "India won by 5 wkts", got.Result)
	require.Len(t, got.Innings, 2)

	first := got.Innings[0]
	assert.Equal(t, "Australia Innings", first.Team)
	assert.Equal(t, "250-9 (50 Ov)", first.Score)
	require.Len(t, first.Batters, 2)
	assert.Equal(t, record.Batter{
		Name: "Travis Head", Dismissal: "c Kohli b Bumrah",
		Runs: "45", Balls: "38", Fours: "6", Sixes: "1", StrikeRate: "118.42",
	}, first.Batters[0])
	assert.Equal(t, "not out", first.Batters[1].Dismissal)
	assert.Equal(t, "0", first.Batters[1].Fours)
	assert.Equal(t, "0.00", first.Batters[1].StrikeRate)
	assert.Equal(t, "12(b 0, lb 4, w 8)", first.Extras)
	assert.Equal(t, "250(9 wkts, 50 Ov)", first.Total)
	assert.Equal(t, []string{"41-1", "98-2", "150-3"}, first.FallOfWickets)
	require.Len(t, first.Bowlers, 1)
	assert.Equal(t, record.Bowler{
		Name: "Jasprit Bumrah", Overs: "10", Maidens: "1", Runs: "42",
		Wickets: "3", NoBalls: "0", Wides: "2", Economy: "4.20",
	}, first.Bowlers[0])

	second := got.Innings[1]
	assert.Equal(t, "India Innings", second.Team)
	assert.Empty(t, second.Batters)
	assert.NotNil(t, second.FallOfWickets)
}
