package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/Skotchmaster/storefront/internal/logging"
)

const (
	publishTimeout = 5 * time.Second
	batchTimeout   = 10 * time.Millisecond
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Producer struct {
	writer messageWriter
}

// NewProducer returns an async producer: WriteMessages only enqueues, and
// delivery failures surface through log once the batch completes.
func NewProducer(brokers []string, topic string, log *slog.Logger) (*Producer, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka: no brokers configured")
	}
	if topic == "" {
		return nil, fmt.Errorf("kafka: empty topic")
	}

	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
		BatchTimeout:           batchTimeout,
		Async:                  true,
		Completion:             completion(log, topic),
	}
	return &Producer{writer: w}, nil
}

func completion(log *slog.Logger, topic string) func([]kafka.Message, error) {
	if log == nil {
		log = slog.Default()
	}
	return func(msgs []kafka.Message, err error) {
		if err != nil {
			log.Error("kafka_publish_error", "topic", topic, "messages", len(msgs), "error", err)
		}
	}
}

func (p *Producer) PublishEvent(ctx context.Context, key string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("kafka: json.Marshal failed: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	if err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: data,
	}); err != nil {
		return fmt.Errorf("kafka: write failed: %w", err)
	}
	return nil
}

// Handler exports bus events keyed by user id. Failures are logged, never
// propagated to the publisher.
func (p *Producer) Handler() Handler {
	return func(ctx context.Context, e Event) {
		if err := p.PublishEvent(ctx, strconv.FormatInt(e.UserID, 10), e); err != nil {
			logging.FromContext(ctx).Error("kafka_publish_error", "event", e.Type, "error", err)
		}
	}
}

func (p *Producer) Close() error {
	return p.writer.Close()
}
