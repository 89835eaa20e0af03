package notify

import (
	"context"
	"time"

	"github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/redis/go-redis/v9"

	"github.com/riskibarqy/sportsfeed/internal/usecase"
)

const DefaultStream = "sportsfeed:matches"

type streamAdder interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
}

// RedisStreamNotifier appends each event to a Redis stream as
// {data: <json>, timestamp: <unix seconds>}.
type RedisStreamNotifier struct {
	client streamAdder
	stream string
	maxLen int64
}

func NewRedisStreamNotifier(client *redis.Client, stream string, maxLen int64) *RedisStreamNotifier {
	return newRedisStreamNotifier(client, stream, maxLen)
}

func newRedisStreamNotifier(client streamAdder, stream string, maxLen int64) *RedisStreamNotifier {
	if stream == "" {
		stream = DefaultStream
	}
	return &RedisStreamNotifier{client: client, stream: stream, maxLen: maxLen}
}

func (n *RedisStreamNotifier) Notify(ctx context.Context, event usecase.ChangeEvent) error {
	data, err := sonic.Marshal(event)
	if err != nil {
		return crerr.Wrap(err, "marshal change event")
	}

	args := &redis.XAddArgs{
		Stream: n.stream,
		Values: map[string]any{
			"data":      string(data),
			"timestamp": time.Now().Unix(),
		},
	}
	if n.maxLen > 0 {
		args.MaxLen = n.maxLen
		args.Approx = true
	}

	if err := n.client.XAdd(ctx, args).Err(); err != nil {
		return crerr.Wrapf(err, "xadd stream=%s", n.stream)
	}
	return nil
}
