package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/riskibarqy/sportsfeed/internal/platform/logging"
	"github.com/riskibarqy/sportsfeed/internal/platform/resilience"
)

// Backend stores encoded values with a TTL. Both the in-process Store and the
// Redis store implement it.
type Backend interface {
	Load(ctx context.Context, key string) ([]byte, bool, error)
	Save(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

var flights resilience.SingleFlight[[]byte]

// Key joins non-empty segments with ':' so keys read as source:sport:thing.
func Key(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, ":")
}

// Remember is a read-through cache: it returns the cached value for key or
// runs fn, stores its result for ttl and returns it. Concurrent misses for the
// same key share one fn call. Errors from fn are returned and never cached.
// Backend read/write failures degrade to calling fn.
func Remember[T any](ctx context.Context, backend Backend, key string, ttl time.Duration, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if fn == nil {
		return zero, fmt.Errorf("remember %q: producer is required", key)
	}
	if backend == nil || key == "" {
		return fn(ctx)
	}

	if raw, ok, err := backend.Load(ctx, key); err != nil {
		logging.Default().WarnContext(ctx, "cache load failed, recomputing", "key", key, "error", err)
	} else if ok {
		var cached T
		if decodeErr := sonic.Unmarshal(raw, &cached); decodeErr == nil {
			return cached, nil
		}
		_ = backend.Delete(ctx, key)
	}

	var produced T
	raw, err, shared := flights.Do(key, func() ([]byte, error) {
		value, err := fn(ctx)
		if err != nil {
			return nil, err
		}
		produced = value
		encoded, err := sonic.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("encode cached value %q: %w", key, err)
		}
		if saveErr := backend.Save(ctx, key, encoded, ttl); saveErr != nil {
			logging.Default().WarnContext(ctx, "cache save failed", "key", key, "error", saveErr)
		}
		return encoded, nil
	})
	if err != nil {
		return zero, err
	}
	if !shared {
		return produced, nil
	}

	var out T
	if err := sonic.Unmarshal(raw, &out); err != nil {
		return zero, fmt.Errorf("decode shared value %q: %w", key, err)
	}
	return out, nil
}
