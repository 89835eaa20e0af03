package feed

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/riskibarqy/sportsfeed/internal/platform/resilience"
)

type ErrorKind string

const (
	ErrorTimeout     ErrorKind = "timeout"
	ErrorNonOKStatus ErrorKind = "non_ok_status"
	ErrorTransport   ErrorKind = "transport"
)

// FetchError is the final failure of a fetch. Match it with errors.As.
type FetchError struct {
	Kind   ErrorKind
	URL    string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	switch e.Kind {
	case ErrorNonOKStatus:
		return fmt.Sprintf("fetch %s: status=%d", e.URL, e.Status)
	default:
		if e.Err == nil {
			return fmt.Sprintf("fetch %s: %s", e.URL, e.Kind)
		}
		return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Kind, e.Err)
	}
}

func (e *FetchError) Unwrap() error { return e.Err }

func (e *FetchError) IsTimeout() bool   { return e.Kind == ErrorTimeout }
func (e *FetchError) IsNonOK() bool     { return e.Kind == ErrorNonOKStatus }
func (e *FetchError) IsTransport() bool { return e.Kind == ErrorTransport }

// Retryable reports whether another attempt may succeed: timeouts, transport
// failures and 408, 429 or 5xx answers. An open breaker is final.
func (e *FetchError) Retryable() bool {
	if errors.Is(e.Err, resilience.ErrCircuitOpen) || errors.Is(e.Err, errBodyTooLarge) {
		return false
	}
	switch e.Kind {
	case ErrorTimeout, ErrorTransport:
		return true
	case ErrorNonOKStatus:
		return retryableStatus(e.Status)
	default:
		return false
	}
}

func retryableStatus(status int) bool {
	return status == http.StatusRequestTimeout ||
		status == http.StatusTooManyRequests ||
		status >= http.StatusInternalServerError
}

func isRetryable(err error) bool {
	var fetchErr *FetchError
	if errors.As(err, &fetchErr) {
		return fetchErr.Retryable()
	}
	return false
}

// countsAgainstBreaker keeps 4xx answers from tripping the host breaker.
func countsAgainstBreaker(err error) bool {
	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		return true
	}
	if errors.Is(fetchErr.Err, resilience.ErrCircuitOpen) {
		return false
	}
	return fetchErr.Kind != ErrorNonOKStatus || retryableStatus(fetchErr.Status)
}

func retry(ctx context.Context, src Source, fn func(attempt int) error) error {
	return resilience.Retry(ctx, src.retryPolicy(), isRetryable, fn)
}
