// Package normalize maps vendor vocabularies onto canonical values. Every
// function is pure apart from the explicit clock passed in by callers.
package normalize

import (
	"regexp"
	"strings"

	"github.com/riskibarqy/sportsfeed/internal/domain/match"
	"github.com/riskibarqy/sportsfeed/internal/domain/sport"
	"github.com/riskibarqy/sportsfeed/internal/record"
)

var (
	clockPattern  = regexp.MustCompile(`^\d{1,2}:\d{2}$`)
	minutePattern = regexp.MustCompile(`^\d+\+?\d*'?$`)
)

var invasionStatuses = map[string]match.Status{
	"ht":       match.StatusHalftime,
	"ft":       match.StatusFinished,
	"aet":      match.StatusAfterExtraTime,
	"pen":      match.StatusPenalties,
	"canceled": match.StatusCancelled,
	"postp":    match.StatusPostponed,
}

var cricketStatuses = map[string]match.Status{
	"notstarted": match.StatusScheduled,
	"ns":         match.StatusScheduled,
	"inprogress": match.StatusLive,
	"live":       match.StatusLive,
	"started":    match.StatusLive,
	"completed":  match.StatusFinished,
	"finished":   match.StatusFinished,
	"result":     match.StatusFinished,
	"abandoned":  match.StatusCancelled,
	"cancelled":  match.StatusCancelled,
	"delayed":    match.StatusDelayed,
}

// Status maps a raw feed status onto the canonical enum. Clock values mean
// the match has not started, minute values mean it is running, and anything
// else goes through the vocabulary of the sport. Values outside the
// vocabulary, canonical names included, are unknown. It never fails.
func Status(raw string, kind sport.Kind) match.Status {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return match.StatusUnknown
	}
	if clockPattern.MatchString(trimmed) {
		return match.StatusScheduled
	}
	if minutePattern.MatchString(trimmed) {
		return match.StatusLive
	}

	key := statusKey(trimmed)
	table := invasionStatuses
	if kind == sport.KindCricket {
		table = cricketStatuses
	}
	if status, ok := table[key]; ok {
		return status
	}
	return match.StatusUnknown
}

// ScrapeStatus maps a classified status phrase from the scrape.
func ScrapeStatus(phrase record.Phrase) match.Status {
	switch phrase {
	case record.PhraseCompleted:
		return match.StatusFinished
	case record.PhraseLive:
		return match.StatusLive
	case record.PhraseUpcoming:
		return match.StatusScheduled
	default:
		return match.StatusUnknown
	}
}

func statusKey(raw string) string {
	key := strings.ToLower(strings.Join(strings.Fields(raw), ""))
	return strings.TrimRight(key, ".")
}
