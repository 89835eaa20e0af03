package notify

import (
	"context"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/segmentio/kafka-go"

	"github.com/riskibarqy/sportsfeed/internal/usecase"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaConfig struct {
	Brokers      []string
	Topic        string
	WriteTimeout time.Duration
}

// KafkaNotifier publishes events keyed by sport slug so one sport's updates
// stay ordered within a partition.
type KafkaNotifier struct {
	writer messageWriter
	topic  string
}

func NewKafkaNotifier(cfg KafkaConfig) (*KafkaNotifier, error) {
	brokers := make([]string, 0, len(cfg.Brokers))
	for _, b := range cfg.Brokers {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	if len(brokers) == 0 {
		return nil, crerr.New("kafka brokers are required")
	}
	if strings.TrimSpace(cfg.Topic) == "" {
		return nil, crerr.New("kafka topic is required")
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 5 * time.Second
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		WriteTimeout:           cfg.WriteTimeout,
		AllowAutoTopicCreation: true,
	}
	return &KafkaNotifier{writer: writer, topic: cfg.Topic}, nil
}

func (n *KafkaNotifier) Notify(ctx context.Context, event usecase.ChangeEvent) error {
	value, err := sonic.Marshal(event)
	if err != nil {
		return crerr.Wrap(err, "marshal change event")
	}
	msg := kafka.Message{
		Key:   []byte(event.Sport),
		Value: value,
		Time:  event.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event", Value: []byte(event.Event)},
		},
	}
	if err := n.writer.WriteMessages(ctx, msg); err != nil {
		return crerr.Wrapf(err, "kafka write topic=%s", n.topic)
	}
	return nil
}

func (n *KafkaNotifier) Close() error {
	return n.writer.Close()
}
