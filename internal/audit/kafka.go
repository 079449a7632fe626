package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	kafka "github.com/segmentio/kafka-go"

	"github.com/m3rciful/roulettebot/core/logger"
)

// KafkaPublisher writes records asynchronously, keyed by user id so one user's
// records stay ordered within a partition.
type KafkaPublisher struct {
	writer *kafka.Writer
	topic  string
}

// NewKafkaPublisher builds an async writer for brokers and topic.
func NewKafkaPublisher(brokers []string, topic string) (*KafkaPublisher, error) {
	if len(brokers) == 0 {
		return nil, errors.New("audit: no kafka brokers")
	}
	if strings.TrimSpace(topic) == "" {
		return nil, errors.New("audit: empty kafka topic")
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 10 * time.Millisecond,
		Async:        true,
		ErrorLogger:  kafka.LoggerFunc(logf),
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				logger.Warn(context.Background(), "audit", "audit.write",
					slog.String("status", "fail"),
					slog.String("topic", topic),
					slog.Int("messages", len(messages)),
					slog.String("err", err.Error()),
				)
			}
		},
	}
	return &KafkaPublisher{writer: w, topic: topic}, nil
}

func logf(msg string, a ...interface{}) {
	logger.Debug(context.Background(), "audit", "kafka.writer", slog.String("msg", fmt.Sprintf(msg, a...)))
}

// Publish queues the record; delivery errors surface through the completion log.
func (p *KafkaPublisher) Publish(ctx context.Context, rec Record) error {
	msg, err := messageFor(rec)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("audit: write: %w", err)
	}
	return nil
}

// Close flushes pending records.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

func messageFor(rec Record) (kafka.Message, error) {
	if rec.At.IsZero() {
		rec.At = time.Now().UTC()
	}
	value, err := json.Marshal(rec)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("audit: encode: %w", err)
	}
	return kafka.Message{
		Key:   []byte(rec.UserID),
		Value: value,
		Time:  rec.At,
	}, nil
}
