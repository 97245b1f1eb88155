package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"storefront/internal/config"
	"storefront/internal/logger"
	"storefront/internal/models"

	"github.com/segmentio/kafka-go"
)

// messageWriter is the part of *kafka.Writer the producer needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Producer struct {
	Writer messageWriter
	Topics config.TopicConfig
	Logger *logger.Logger
}

// NewProducer builds one writer for every topic; each message names its own topic.
func NewProducer(brokers []string, topics config.TopicConfig, log *logger.Logger) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 10 * time.Millisecond,
	}
	return &Producer{Writer: writer, Topics: topics, Logger: log}
}

// PublishOrderEvent → keyed by order number so one order's events stay ordered
func (p *Producer) PublishOrderEvent(ctx context.Context, ev models.OrderEvent) error {
	topic, err := p.topicFor(ev.Type)
	if err != nil {
		return err
	}
	return p.publish(ctx, topic, ev.OrderNumber, ev)
}

// PublishSMS → keyed by phone
func (p *Producer) PublishSMS(ctx context.Context, req models.SMSRequest) error {
	return p.publish(ctx, p.Topics.SMSRequested, req.Phone, req)
}

func (p *Producer) publish(ctx context.Context, topic, key string, payload interface{}) error {
	value, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s message: %w", topic, err)
	}
	err = p.Writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: value,
	})
	if err != nil {
		p.Logger.LogKafka("PUBLISH_FAILED", topic, err.Error())
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	p.Logger.LogKafka("PUBLISHED", topic, key)
	return nil
}

func (p *Producer) topicFor(eventType string) (string, error) {
	switch eventType {
	case models.EventOrderCreated:
		return p.Topics.OrderCreated, nil
	case models.EventOrderUpdated, models.EventOrderDeleted:
		return p.Topics.OrderUpdated, nil
	case models.EventOrderCancelled:
		return p.Topics.OrderCancelled, nil
	}
	return "", fmt.Errorf("no topic for event type %q", eventType)
}

func (p *Producer) Close() error {
	return p.Writer.Close()
}

// NoopPublisher stands in when Kafka is disabled. SMS bodies go to the debug log.
type NoopPublisher struct {
	Logger *logger.Logger
}

func (n *NoopPublisher) PublishOrderEvent(_ context.Context, ev models.OrderEvent) error {
	n.Logger.Debug("KAFKA", fmt.Sprintf("kafka disabled, dropped %s for %s", ev.Type, ev.OrderNumber))
	return nil
}

func (n *NoopPublisher) PublishSMS(_ context.Context, req models.SMSRequest) error {
	n.Logger.Debug("KAFKA", fmt.Sprintf("kafka disabled, SMS to %s: %s", req.Phone, req.Message))
	return nil
}

func (n *NoopPublisher) Close() error { return nil }
