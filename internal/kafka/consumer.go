package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"storefront/internal/logger"
	"storefront/internal/models"

	"github.com/segmentio/kafka-go"
)

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Consumer struct {
	Reader messageReader
	Logger *logger.Logger
}

// NewConsumer creates a group consumer for one topic.
func NewConsumer(brokers []string, topic, groupID string, log *logger.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6, // 10MB
	})
	return &Consumer{Reader: reader, Logger: log}
}

// Run hands each message to handle until ctx is cancelled. A message is committed
// once handle returns, even when handle fails.
func (c *Consumer) Run(ctx context.Context, handle func(ctx context.Context, msg kafka.Message) error) error {
	for {
		msg, err := c.Reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("fetch message: %w", err)
		}

		if err := handle(ctx, msg); err != nil {
			c.Logger.LogKafka("HANDLE_FAILED", msg.Topic, fmt.Sprintf("offset %d: %v", msg.Offset, err))
		}
		if err := c.Reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("commit offset %d: %w", msg.Offset, err)
		}
	}
}

func (c *Consumer) Close() error {
	return c.Reader.Close()
}

// DecodeSMS reads an SMS request payload.
func DecodeSMS(msg kafka.Message) (models.SMSRequest, error) {
	var req models.SMSRequest
	if err := json.Unmarshal(msg.Value, &req); err != nil {
		return req, fmt.Errorf("decode sms request: %w", err)
	}
	if req.Phone == "" || req.Message == "" {
		return req, errors.New("sms request missing phone or message")
	}
	return req, nil
}
