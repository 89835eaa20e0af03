// Package goalserve builds feed sources for the live-data provider. It never
// performs I/O itself; the pipeline hands the descriptors to a feed.Fetcher.
package goalserve

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/riskibarqy/sportsfeed/external/feed"
	"github.com/riskibarqy/sportsfeed/internal/domain/sport"
	"github.com/riskibarqy/sportsfeed/internal/platform/resilience"
)

const (
	defaultBaseURL = "https://www.goalserve.com/getfeed"
	sourceName     = "goalserve"
)

type Config struct {
	BaseURL   string
	APIKey    string
	Timeout   time.Duration
	Retry     resilience.RetryPolicy
	UserAgent string
}

type Source struct {
	baseURL   string
	apiKey    string
	timeout   time.Duration
	retry     resilience.RetryPolicy
	userAgent string
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
	return &Source{
		baseURL:   baseURL,
		apiKey:    strings.TrimSpace(cfg.APIKey),
		timeout:   cfg.Timeout,
		retry:     retry,
		userAgent: cfg.UserAgent,
	}
}

// Name identifies the provider in cache keys and archived payloads.
func (s *Source) Name() string {
	return sourceName
}

// LeagueMappings is the league id to name table of a sport.
func (s *Source) LeagueMappings(item sport.Sport) feed.Source {
	return s.source(fmt.Sprintf("%s/%s/%sfixtures/data/mapping", s.baseURL, s.apiKey, item.Slug), feed.KindXML)
}

// LiveScores is the in-play feed of a sport in the sport's configured format.
func (s *Source) LiveScores(item sport.Sport) feed.Source {
	url := fmt.Sprintf("%s/%s/%snew/live", s.baseURL, s.apiKey, item.Slug)
	if item.LiveFormat == sport.FormatJSON {
		return s.source(url+"?json=1", feed.KindJSON)
	}
	return s.source(url, feed.KindXML)
}

func (s *Source) source(url string, kind feed.Kind) feed.Source {
	return feed.Source{
		URL:       url,
		Kind:      kind,
		Timeout:   s.timeout,
		Retry:     s.retry,
		UserAgent: s.userAgent,
	}
}

var keySegmentRegex = regexp.MustCompile(`(/getfeed/)[^/]+`)

// Redact hides the credential path segment of a provider URL for logging.
func (s *Source) Redact(url string) string {
	if s.apiKey != "" {
		url = strings.ReplaceAll(url, "/"+s.apiKey+"/", "/***/")
	}
	return keySegmentRegex.ReplaceAllString(url, "${1}***")
}
