// Package cricbuzz builds feed sources for the rendered cricket portal.
package cricbuzz

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/riskibarqy/sportsfeed/external/feed"
	"github.com/riskibarqy/sportsfeed/internal/platform/resilience"
)

const (
	defaultBaseURL = "https://www.cricbuzz.com"
	sourceName     = "cricbuzz"
)

type Config struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
	Retry     resilience.RetryPolicy
}

type Source struct {
	baseURL   string
	userAgent string
	timeout   time.Duration
	retry     resilience.RetryPolicy
}

func New(cfg Config) *Source {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	retry := cfg.Retry
	if retry.Attempts <= 0 {
		retry = resilience.DefaultRetryPolicy()
	}
	return &Source{baseURL: baseURL, userAgent: cfg.UserAgent, timeout: cfg.Timeout, retry: retry}
}

func (s *Source) Name() string {
	return sourceName
}

func (s *Source) SeriesList() feed.Source {
	return s.source("/cricket-schedule/series/all")
}

func (s *Source) SeriesMatches(seriesID, slug string) feed.Source {
	return s.source(fmt.Sprintf("/cricket-series/%s/%s/matches", escape(seriesID), escape(slug)))
}

func (s *Source) Squads(matchID, slug string) feed.Source {
	return s.source(fmt.Sprintf("/cricket-match-squads/%s/%s", escape(matchID), escape(slug)))
}

func (s *Source) Scorecard(matchID, slug string) feed.Source {
	return s.source(fmt.Sprintf("/live-cricket-scorecard/%s/%s", escape(matchID), escape(slug)))
}

func (s *Source) source(path string) feed.Source {
	return feed.Source{
		URL:       s.baseURL + path,
		Kind:      feed.KindHTML,
		Timeout:   s.timeout,
		Retry:     s.retry,
		UserAgent: s.userAgent,
	}
}

func escape(segment string) string {
	return url.PathEscape(strings.TrimSpace(segment))
}
