// Package feed fetches raw upstream documents. It knows nothing about their
// content; parsing happens in internal/parser.
package feed

import (
	"context"
	"strings"
	"time"

	"github.com/riskibarqy/sportsfeed/internal/platform/resilience"
)

type Kind string

const (
	KindHTML Kind = "html"
	KindXML  Kind = "xml"
	KindJSON Kind = "json"
)

func ParseKind(value string) (Kind, bool) {
	switch Kind(strings.ToLower(strings.TrimSpace(value))) {
	case KindHTML:
		return KindHTML, true
	case KindXML:
		return KindXML, true
	case KindJSON:
		return KindJSON, true
	default:
		return "", false
	}
}

const (
	defaultTimeout   = 30 * time.Second
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/134.0.0.0 Safari/537.36"
)

// Source describes one upstream document.
type Source struct {
	URL       string
	Kind      Kind
	Timeout   time.Duration
	Retry     resilience.RetryPolicy
	Headers   map[string]string
	UserAgent string
}

func (s Source) timeout() time.Duration {
	if s.Timeout <= 0 {
		return defaultTimeout
	}
	return s.Timeout
}

func (s Source) retryPolicy() resilience.RetryPolicy {
	if s.Retry.Attempts <= 0 {
		return resilience.DefaultRetryPolicy()
	}
	return s.Retry
}

func (s Source) userAgent() string {
	if ua := strings.TrimSpace(s.UserAgent); ua != "" {
		return ua
	}
	return DefaultUserAgent
}

// RawPayload is an upstream body exactly as received.
type RawPayload struct {
	Body      []byte
	Status    int
	FinalURL  string
	Kind      Kind
	FetchedAt time.Time
}

// Fetcher retrieves one Source. Implementations retry per the Source policy
// and report the final failure as *FetchError.
type Fetcher interface {
	Fetch(ctx context.Context, src Source) (RawPayload, error)
}
