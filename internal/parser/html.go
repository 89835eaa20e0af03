package parser

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/riskibarqy/sportsfeed/internal/normalize"
	"github.com/riskibarqy/sportsfeed/internal/record"
)

const notAvailable = "N/A"

var (
	seriesPathPattern  = regexp.MustCompile(`/cricket-series/(\d+)/([\w-]+)`)
	wicketPlayerSuffix = regexp.MustCompile(`\s*\([^)]+\)`)
)

const matchStatusSelector = ".cb-text-complete, .cb-text-live, .cb-text-upcoming, .cb-text-inningsbreak, .cb-text-inprogress"

var (
	completedKeywords = []string{"won", "draw", "tie", "no result"}
	liveKeywords      = []string{"live", "toss", "delay", "stumps", "stump", "day", "need", "inprogress", "inningsbreak"}
	upcomingKeywords  = []string{"starts"}
)

func newDocument(payload []byte) (*goquery.Document, error) {
	if len(bytes.TrimSpace(payload)) == 0 {
		return nil, parseErr("empty html document", nil)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(payload))
	if err != nil {
		return nil, parseErr("html", err)
	}
	return doc, nil
}

func text(sel *goquery.Selection) string {
	return strings.TrimSpace(sel.Text())
}

func textOr(sel *goquery.Selection, fallback string) string {
	if sel.Length() == 0 {
		return fallback
	}
	if v := text(sel); v != "" {
		return v
	}
	return fallback
}

// ParseSeriesList walks the month sections of the series schedule page.
// Entries without a name or URL are dropped.
func ParseSeriesList(payload []byte, pageURL string) ([]record.Series, error) {
	doc, err := newDocument(payload)
	if err != nil {
		return nil, err
	}

	out := make([]record.Series, 0)
	seen := make(map[string]struct{})
	doc.Find(".cb-col-100.cb-col").Each(func(_ int, section *goquery.Selection) {
		month := text(section.Find(".cb-col-16.cb-col.text-bold.cb-mnth").First())
		if month == "" {
			return
		}
		section.Find(".cb-sch-lst-itm").Each(func(_ int, item *goquery.Selection) {
			link := item.Find("a.text-black.text-hvr-underline").First()
			name := text(link.Find("span.text-black").First())
			href, _ := link.Attr("href")
			fullURL := absoluteURL(pageURL, href)
			if name == "" || fullURL == "" {
				return
			}
			if _, dup := seen[fullURL]; dup {
				return
			}
			seen[fullURL] = struct{}{}

			series := record.Series{
				Name:      name,
				URL:       fullURL,
				Month:     month,
				DateRange: text(item.Find(".text-gray.cb-font-12").First()),
			}
			if found := seriesPathPattern.FindStringSubmatch(href); found != nil {
				series.ID = found[1]
				series.Slug = found[2]
			}
			out = append(out, series)
		})
	})
	return out, nil
}

// ClassifyPhrase buckets a free-text status line from a match list.
func ClassifyPhrase(statusText string) record.Phrase {
	lower := strings.ToLower(statusText)
	switch {
	case containsAny(lower, completedKeywords):
		return record.PhraseCompleted
	case containsAny(lower, liveKeywords):
		return record.PhraseLive
	case containsAny(lower, upcomingKeywords):
		return record.PhraseUpcoming
	default:
		return record.PhraseUnknown
	}
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

// SplitTeams reads "Home vs Away, 3rd ODI". The away side ends at the first
// comma. Titles without " vs " yield empty names.
func SplitTeams(title string) (home, away string) {
	home, rest, ok := strings.Cut(title, " vs ")
	if !ok {
		return "", ""
	}
	away, _, _ = strings.Cut(rest, ",")
	return strings.TrimSpace(home), strings.TrimSpace(away)
}

// ParseMatchList reads every .cb-series-matches block of a series matches
// page. Blocks without a title or link are skipped.
func ParseMatchList(payload []byte, pageURL string) ([]record.HTMLMatch, error) {
	doc, err := newDocument(payload)
	if err != nil {
		return nil, err
	}

	out := make([]record.HTMLMatch, 0)
	doc.Find(".cb-series-matches").Each(func(_ int, block *goquery.Selection) {
		header := block.Find(".cb-srs-mtchs-tm")
		title := text(header.Find("a span").First())
		href, _ := header.Find("a").First().Attr("href")
		matchURL := absoluteURL(pageURL, href)
		if title == "" || matchURL == "" {
			return
		}

		dateText := notAvailable
		if sel := block.Find(".schedule-date span"); sel.Length() > 0 {
			dateText = textOr(sel.First(), notAvailable)
		} else if sel := block.Find(".cb-col-25.cb-col.pad10 span"); sel.Length() > 0 {
			dateText = textOr(sel.First(), notAvailable)
		}
		timeText := textOr(block.Find(".cb-font-12.text-gray").First(), notAvailable)
		statusText := text(block.Find(matchStatusSelector).First())

		home, away := SplitTeams(title)
		id := normalize.ExternalIDFromURL(matchURL)
		slug := normalize.SlugFromURL(matchURL)

		m := record.HTMLMatch{
			ID:         id,
			Slug:       slug,
			Title:      title,
			HomeTeam:   home,
			AwayTeam:   away,
			Venue:      text(header.Find(".text-gray").First()),
			DateText:   dateText,
			TimeText:   timeText,
			DateTime:   strings.TrimSpace(dateText + ", " + timeText),
			StatusText: statusText,
			Phrase:     ClassifyPhrase(statusText),
			URL:        matchURL,
		}
		if id != "" && slug != "" {
			m.SquadURL = absoluteURL(pageURL, fmt.Sprintf("/cricket-match-squads/%s/%s", id, slug))
			m.ScorecardURL = absoluteURL(pageURL, fmt.Sprintf("/live-cricket-scorecard/%s/%s", id, slug))
		}
		out = append(out, m)
	})
	return out, nil
}

// ParseSquads returns the two squads of a squads page, left column first.
// Fewer than two team headers yields an empty result.
func ParseSquads(payload []byte) ([]record.Squad, error) {
	doc, err := newDocument(payload)
	if err != nil {
		return nil, err
	}

	headers := doc.Find(".cb-teams-hdr")
	if headers.Length() == 0 {
		return []record.Squad{}, nil
	}
	teams := make([]string, 0, 2)
	headers.Find(`a[class^="cb-team"]`).Each(func(_ int, a *goquery.Selection) {
		teams = append(teams, text(a.Find("div.pad5:last-child").First()))
	})
	if len(teams) < 2 {
		return []record.Squad{}, nil
	}

	return []record.Squad{
		{Team: teams[0], Players: squadPlayers(doc.Find(".cb-play11-lft-col .cb-player-card-left"), "left")},
		{Team: teams[1], Players: squadPlayers(doc.Find(".cb-play11-rt-col .cb-player-card-right"), "right")},
	}, nil
}

func squadPlayers(cards *goquery.Selection, side string) []record.Player {
	players := make([]record.Player, 0, cards.Length())
	cards.Each(func(_ int, card *goquery.Selection) {
		players = append(players, record.Player{
			Name: textOr(card.Find(".cb-player-name-"+side+" div").First(), "Unknown"),
			Role: textOr(card.Find(".cb-font-12.text-gray").First(), "Unknown"),
		})
	})
	return players
}

// ParseScorecard reads the result line and every innings of a scorecard page.
func ParseScorecard(payload []byte) (record.Scorecard, error) {
	doc, err := newDocument(payload)
	if err != nil {
		return record.Scorecard{}, err
	}

	card := record.Scorecard{
		Result:  text(doc.Find(".cb-scrcrd-status").First()),
		Innings: []record.ScorecardInnings{},
	}
	doc.Find(`div[id^="innings_"]`).Each(func(_ int, node *goquery.Selection) {
		card.Innings = append(card.Innings, parseInnings(node))
	})
	return card, nil
}

func parseInnings(node *goquery.Selection) record.ScorecardInnings {
	inn := record.ScorecardInnings{
		Batters:       []record.Batter{},
		Bowlers:       []record.Bowler{},
		FallOfWickets: []string{},
	}

	spans := node.Find(".cb-scrd-hdr-rw").First().Find("span")
	if spans.Length() >= 2 {
		inn.Team = text(spans.Eq(0))
		inn.Score = text(spans.Eq(1))
	}

	node.Find(".cb-scrd-itms").Each(func(_ int, row *goquery.Selection) {
		label := text(row.Find("div").First())
		switch {
		case strings.Contains(label, "Extras"):
			inn.Extras = summaryCell(row)
		case strings.Contains(label, "Total"):
			inn.Total = summaryCell(row)
		case row.Find(".cb-col-25").Length() > 0:
			inn.Batters = append(inn.Batters, parseBatter(row))
		case row.Find(".cb-col-38").Length() > 0:
			inn.Bowlers = append(inn.Bowlers, parseBowler(row))
		}
	})

	node.Find(".cb-scrd-sub-hdr").EachWithBreak(func(_ int, hdr *goquery.Selection) bool {
		if !strings.Contains(hdr.Text(), "Fall of Wickets") {
			return true
		}
		stripped := wicketPlayerSuffix.ReplaceAllString(text(hdr.Next()), "")
		for _, part := range strings.Split(stripped, ",") {
			wicket := strings.TrimSpace(part)
			if wicket != "" {
				inn.FallOfWickets = append(inn.FallOfWickets, wicket)
			}
		}
		return false
	})
	return inn
}

func summaryCell(row *goquery.Selection) string {
	return text(row.Find(".cb-col-8").First()) + text(row.Find(".cb-col-32").First())
}

func parseBatter(row *goquery.Selection) record.Batter {
	cells := row.Find(".cb-col-8")
	return record.Batter{
		Name:       text(row.Find("a.cb-text-link").First()),
		Dismissal:  textOr(row.Find("span.text-gray").First(), "not out"),
		Runs:       textOr(cells.Eq(0), "0"),
		Balls:      textOr(cells.Eq(1), "0"),
		Fours:      textOr(cells.Eq(2), "0"),
		Sixes:      textOr(cells.Eq(3), "0"),
		StrikeRate: textOr(cells.Eq(4), "0.00"),
	}
}

// Bowler rows are overs, maidens, runs, wickets, no-balls, wides, economy;
// runs and economy are the wider cb-col-10 cells.
func parseBowler(row *goquery.Selection) record.Bowler {
	narrow := row.Find(".cb-col-8")
	wide := row.Find(".cb-col-10")
	return record.Bowler{
		Name:    text(row.Find("a.cb-text-link").First()),
		Overs:   text(narrow.Eq(0)),
		Maidens: text(narrow.Eq(1)),
		Runs:    text(wide.Eq(0)),
		Wickets: text(narrow.Eq(2)),
		NoBalls: text(narrow.Eq(3)),
		Wides:   text(narrow.Eq(4)),
		Economy: text(wide.Eq(1)),
	}
}
