package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"storefront/internal/config"
	"storefront/internal/kafka"
	"storefront/internal/logger"

	"github.com/joho/godotenv"
	kafkago "github.com/segmentio/kafka-go"
)

// deliver stands in for an SMS gateway: the message is written to the log.
func deliver(log *logger.Logger) func(ctx context.Context, msg kafkago.Message) error {
	return func(_ context.Context, msg kafkago.Message) error {
		req, err := kafka.DecodeSMS(msg)
		if err != nil {
			return err
		}
		log.Info("SMS", fmt.Sprintf("to %s [%s]: %s", req.Phone, req.EventID, req.Message))
		return nil
	}
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	logDir := cfg.Log.Dir
	if !cfg.Log.ToFile {
		logDir = ""
	}
	log := logger.NewLogger(logDir)
	defer log.Close()

	if !cfg.Kafka.Enabled {
		log.Fatal("KAFKA", "KAFKA_ENABLED is false, nothing to relay")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topics.SMSRequested, cfg.Kafka.GroupID, log)
	defer consumer.Close()

	log.LogKafka("SUBSCRIBED", cfg.Kafka.Topics.SMSRequested, fmt.Sprintf("group %s on %v", cfg.Kafka.GroupID, cfg.Kafka.Brokers))
	if err := consumer.Run(ctx, deliver(log)); err != nil {
		log.Error("KAFKA", fmt.Sprintf("Consumer stopped: %v", err))
		os.Exit(1)
	}
	log.Info("APP", "SMS relay stopped")
}
