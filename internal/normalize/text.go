package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	parenSuffixPattern = regexp.MustCompile(`\(([^()]+)\)\s*$`)
	yearPattern        = regexp.MustCompile(`\b(\d{4})\b`)
	urlIDPattern       = regexp.MustCompile(`/(\d+)/`)
	urlSlugPattern     = regexp.MustCompile(`/\d+/([^/?#]+)/?(?:[?#].*)?$`)
	scorePlaceholders  = map[string]struct{}{"[-]": {}, "[- ]": {}, " - ": {}}
)

// SanitizeScore drops empty values and the provider's placeholder scores
// ("[-]", "[- ]", " - "). Other values are returned trimmed.
func SanitizeScore(raw *string) *string {
	if raw == nil {
		return nil
	}
	if _, placeholder := scorePlaceholders[*raw]; placeholder {
		return nil
	}
	trimmed := strings.TrimSpace(*raw)
	if trimmed == "" {
		return nil
	}
	if _, placeholder := scorePlaceholders[trimmed]; placeholder {
		return nil
	}
	return &trimmed
}

// CountryFromLeague reads "England: Premier League" or "Asia Cup (Sri Lanka)".
func CountryFromLeague(name string) string {
	name = strings.TrimSpace(name)
	if prefix, _, ok := strings.Cut(name, ":"); ok {
		return strings.TrimSpace(prefix)
	}
	if found := parenSuffixPattern.FindStringSubmatch(name); found != nil {
		return strings.TrimSpace(found[1])
	}
	return ""
}

// SeasonFromText turns the first four digit year into "YYYY/YYYY+1".
func SeasonFromText(text string) string {
	found := yearPattern.FindStringSubmatch(text)
	if found == nil {
		return ""
	}
	year, err := strconv.Atoi(found[1])
	if err != nil {
		return ""
	}
	return seasonOf(year)
}

// SeasonFromDate uses the year in date and falls back to the year of now.
func SeasonFromDate(date string, now time.Time) string {
	if season := SeasonFromText(date); season != "" {
		return season
	}
	return seasonOf(now.Year())
}

func seasonOf(year int) string {
	return fmt.Sprintf("%d/%d", year, year+1)
}

// ExternalIDFromURL returns the first numeric path segment.
func ExternalIDFromURL(rawURL string) string {
	found := urlIDPattern.FindStringSubmatch(rawURL)
	if found == nil {
		return ""
	}
	return found[1]
}

// SlugFromURL returns the segment that follows the numeric id at the end of the path.
func SlugFromURL(rawURL string) string {
	found := urlSlugPattern.FindStringSubmatch(strings.TrimSpace(rawURL))
	if found == nil {
		return ""
	}
	return found[1]
}
