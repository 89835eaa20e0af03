// Package parser turns raw upstream documents into source-neutral records.
// Parsers are pure: they never fetch, persist or log.
package parser

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/riskibarqy/sportsfeed/internal/record"
)

// ErrParse marks a structurally invalid document. Missing optional fields are
// never reported through it.
var ErrParse = errors.New("parse payload")

func parseErr(what string, cause error) error {
	if cause == nil {
		return fmt.Errorf("%w: %s", ErrParse, what)
	}
	return fmt.Errorf("%w: %s: %w", ErrParse, what, cause)
}

// matchNode is the attribute view shared by the XML and JSON live feeds.
type matchNode struct {
	attrs    map[string]string
	local    map[string]string
	visitor  map[string]string
	events   []map[string]string
	ht       *string
	ft       *string
	et       *string
	periods  map[string]map[string]string
	innings  []map[string]string
	category string
	catID    string
}

func (n matchNode) project(source record.Kind) record.LiveMatch {
	out := record.LiveMatch{
		Source:        source,
		ID:            n.attrs["id"],
		FixID:         n.attrs["fix_id"],
		Status:        n.attrs["status"],
		Date:          n.attrs["date"],
		FormattedDate: n.attrs["formatted_date"],
		Time:          n.attrs["time"],
		Venue:         n.attrs["venue"],
		LiveStats:     n.attrs["live_stats"],
		LocalTeam:     projectTeam(n.local),
		VisitorTeam:   projectTeam(n.visitor),
		HT:            n.ht,
		FT:            n.ft,
		ET:            n.et,
		Periods:       n.periods,
		CategoryName:  n.category,
		CategoryID:    n.catID,
		Attributes:    n.attrs,
	}
	if out.Attributes == nil {
		out.Attributes = map[string]string{}
	}
	for _, ev := range n.events {
		out.Events = append(out.Events, record.Event{
			Type:       ev["type"],
			Minute:     ev["minute"],
			Team:       ev["team"],
			Player:     ev["player"],
			Result:     ev["result"],
			PlayerID:   ev["playerId"],
			Assist:     ev["assist"],
			AssistID:   ev["assistid"],
			EventID:    ev["eventid"],
			Attributes: ev,
		})
	}
	for _, inn := range n.innings {
		out.Innings = append(out.Innings, record.Innings{
			Team:    inn["team"],
			Runs:    inn["runs"],
			Wickets: inn["wickets"],
			Overs:   inn["overs"],
		})
	}
	return out
}

func (n *matchNode) addPeriod(name string, attrs map[string]string) {
	if len(attrs) == 0 {
		return
	}
	if n.periods == nil {
		n.periods = make(map[string]map[string]string, 3)
	}
	n.periods[name] = attrs
}

func projectTeam(attrs map[string]string) record.Team {
	if attrs == nil {
		attrs = map[string]string{}
	}
	return record.Team{
		ID:         attrs["id"],
		Name:       strings.TrimSpace(attrs["name"]),
		Goals:      attrs["goals"],
		Attributes: attrs,
	}
}

// absoluteURL resolves href against the page it was found on.
func absoluteURL(pageURL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	base, err := url.Parse(strings.TrimSpace(pageURL))
	if err != nil || base.Host == "" {
		return ref.String()
	}
	return base.ResolveReference(ref).String()
}
