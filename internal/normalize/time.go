package normalize

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/riskibarqy/sportsfeed/internal/domain/sport"
)

const (
	formattedDateLayout = "02.01.2006 15:04"
	monthDayLayout      = "Jan 2 2006 15:04"
	scrapeLayout        = "Jan 02 3:04 PM 2006"
)

// ErrTimeFormat is returned when none of the known date shapes match.
var ErrTimeFormat = errors.New("unrecognized match time")

var scrapeComposite = regexp.MustCompile(`(?i)([A-Za-z]{3}) (\d{2}), [A-Za-z]{3}, (\d{1,2}:\d{2} [AP]M)`)

// Time derives a kickoff from the provider date fields. Provider values are
// read as UTC and returned in loc. A missing time yields nil without error; a
// value that matches no known shape yields nil and ErrTimeFormat, never now or
// the zero time.
//
// Precedence: formattedDate ("05.07.2026") with time, then a month/day date
// ("Jul 05") in the year of now with time, then for cricket the scrape
// composite in timeStr ("Jul 05, Sat, 9:30 AM / 3:15 PM LOCAL").
func Time(date, formattedDate, timeStr string, kind sport.Kind, loc *time.Location, now time.Time) (*time.Time, error) {
	timeStr = strings.TrimSpace(timeStr)
	if timeStr == "" || strings.EqualFold(timeStr, "n/a") {
		return nil, nil
	}
	if loc == nil {
		loc = time.UTC
	}
	date = strings.TrimSpace(date)
	formattedDate = strings.TrimSpace(formattedDate)

	if formattedDate != "" {
		parsed, err := time.ParseInLocation(formattedDateLayout, formattedDate+" "+timeStr, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("%w: formatted_date=%q time=%q: %v", ErrTimeFormat, formattedDate, timeStr, err)
		}
		return inLocation(parsed, loc), nil
	}

	if date != "" {
		value := fmt.Sprintf("%s %d %s", date, now.Year(), timeStr)
		parsed, err := time.ParseInLocation(monthDayLayout, value, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("%w: date=%q time=%q: %v", ErrTimeFormat, date, timeStr, err)
		}
		return inLocation(parsed, loc), nil
	}

	if kind == sport.KindCricket {
		return scrapeTime(timeStr, loc, now)
	}

	return nil, fmt.Errorf("%w: time=%q without date", ErrTimeFormat, timeStr)
}

func scrapeTime(composite string, loc *time.Location, now time.Time) (*time.Time, error) {
	gmtPart, _, _ := strings.Cut(composite, "/")
	found := scrapeComposite.FindStringSubmatch(strings.TrimSpace(gmtPart))
	if found == nil {
		return nil, fmt.Errorf("%w: composite=%q", ErrTimeFormat, composite)
	}

	value := fmt.Sprintf("%s %s %s %d", titleMonth(found[1]), found[2], strings.ToUpper(found[3]), now.Year())
	parsed, err := time.ParseInLocation(scrapeLayout, value, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("%w: composite=%q: %v", ErrTimeFormat, composite, err)
	}
	return inLocation(parsed, loc), nil
}

func titleMonth(month string) string {
	if len(month) != 3 {
		return month
	}
	return strings.ToUpper(month[:1]) + strings.ToLower(month[1:])
}

func inLocation(t time.Time, loc *time.Location) *time.Time {
	out := t.In(loc)
	return &out
}
