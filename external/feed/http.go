package feed

import (
	"context"
	"errors"
	"strings"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/valyala/fasthttp"

	"github.com/riskibarqy/sportsfeed/internal/platform/logging"
	"github.com/riskibarqy/sportsfeed/internal/platform/resilience"
)

const defaultMaxBodyBytes = 16 << 20

var errBodyTooLarge = crerr.New("response body exceeds limit")

type HTTPConfig struct {
	// Client is optional; tests inject one dialing an in-memory listener.
	Client         *fasthttp.Client
	MaxBodyBytes   int
	CircuitBreaker resilience.CircuitBreakerConfig
	Logger         *logging.Logger
}

// HTTPFetcher fetches XML and JSON feeds over fasthttp.
type HTTPFetcher struct {
	client   *fasthttp.Client
	maxBody  int
	breakers *resilience.BreakerSet
	flight   resilience.SingleFlight[RawPayload]
	logger   *logging.Logger
	now      func() time.Time
}

func NewHTTPFetcher(cfg HTTPConfig) *HTTPFetcher {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = defaultMaxBodyBytes
	}
	client := cfg.Client
	if client == nil {
		client = &fasthttp.Client{
			Name:                     "sportsfeed",
			MaxConnsPerHost:          64,
			MaxIdleConnDuration:      90 * time.Second,
			NoDefaultUserAgentHeader: true,
		}
	}
	client.MaxResponseBodySize = maxBody

	return &HTTPFetcher{
		client:   client,
		maxBody:  maxBody,
		breakers: resilience.NewBreakerSet(cfg.CircuitBreaker),
		logger:   logger.Named("feed.http"),
		now:      time.Now,
	}
}

// Fetch GETs src.URL. Concurrent calls for the same URL share one request.
func (f *HTTPFetcher) Fetch(ctx context.Context, src Source) (RawPayload, error) {
	if strings.TrimSpace(src.URL) == "" {
		return RawPayload{}, &FetchError{Kind: ErrorTransport, Err: crerr.New("source url is required")}
	}
	payload, err, shared := f.flight.Do(string(src.Kind)+" "+src.URL, func() (RawPayload, error) {
		return f.fetchWithRetry(ctx, src)
	})
	if shared {
		f.logger.DebugContext(ctx, "shared in-flight fetch", "url", src.URL)
	}
	return payload, err
}

func (f *HTTPFetcher) fetchWithRetry(ctx context.Context, src Source) (RawPayload, error) {
	breaker := f.breakers.For(src.URL)
	var payload RawPayload
	err := retry(ctx, src, func(attempt int) error {
		if err := breaker.Allow(); err != nil {
			f.logger.WarnContext(ctx, "feed circuit breaker rejected request", "url", src.URL, "state", breaker.State())
			return &FetchError{Kind: ErrorTransport, URL: src.URL, Err: err}
		}

		var err error
		payload, err = f.do(ctx, src)
		recordCircuitResult(breaker, err)
		if err != nil {
			f.logger.WarnContext(ctx, "feed fetch attempt failed", "url", src.URL, "attempt", attempt, "error", err)
		}
		return err
	})
	if err != nil {
		return RawPayload{}, err
	}
	return payload, nil
}

func (f *HTTPFetcher) do(ctx context.Context, src Source) (RawPayload, error) {
	timeout := src.timeout()
	if deadline, ok := ctx.Deadline(); ok {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return RawPayload{}, &FetchError{Kind: ErrorTimeout, URL: src.URL, Err: ctx.Err()}
		}
		if remaining < timeout {
			timeout = remaining
		}
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(src.URL)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.SetUserAgent(src.userAgent())
	req.Header.Set(fasthttp.HeaderAcceptEncoding, "gzip, br")
	for key, value := range src.Headers {
		req.Header.Set(key, value)
	}

	if err := f.client.DoTimeout(req, resp, timeout); err != nil {
		return RawPayload{}, classifyTransportError(src.URL, err)
	}

	status := resp.StatusCode()
	if status < 200 || status > 299 {
		return RawPayload{}, &FetchError{Kind: ErrorNonOKStatus, URL: src.URL, Status: status}
	}

	body, err := resp.BodyUncompressed()
	if err != nil {
		return RawPayload{}, &FetchError{Kind: ErrorTransport, URL: src.URL, Status: status, Err: crerr.Wrap(err, "decode body")}
	}
	if len(body) > f.maxBody {
		return RawPayload{}, &FetchError{Kind: ErrorTransport, URL: src.URL, Status: status, Err: errBodyTooLarge}
	}

	return RawPayload{
		Body:      append([]byte(nil), body...),
		Status:    status,
		FinalURL:  string(req.URI().FullURI()),
		Kind:      src.Kind,
		FetchedAt: f.now().UTC(),
	}, nil
}

func classifyTransportError(url string, err error) *FetchError {
	switch {
	case errors.Is(err, fasthttp.ErrTimeout), errors.Is(err, fasthttp.ErrDialTimeout),
		errors.Is(err, context.DeadlineExceeded):
		return &FetchError{Kind: ErrorTimeout, URL: url, Err: err}
	case errors.Is(err, fasthttp.ErrBodyTooLarge):
		return &FetchError{Kind: ErrorTransport, URL: url, Err: errBodyTooLarge}
	default:
		return &FetchError{Kind: ErrorTransport, URL: url, Err: err}
	}
}

func recordCircuitResult(breaker *resilience.CircuitBreaker, err error) {
	if breaker == nil {
		return
	}
	if err != nil && countsAgainstBreaker(err) {
		breaker.RecordFailure()
		return
	}
	breaker.RecordSuccess()
}
