package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Domenick1991/busbooking/config"
	"github.com/Domenick1991/busbooking/internal/email"
	"github.com/Domenick1991/busbooking/internal/kafka"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if len(cfg.Kafka.Brokers) == 0 {
		log.Fatalf("worker needs kafka.brokers")
	}
	if cfg.Kafka.NotificationsTopic == "" {
		log.Fatalf("worker needs kafka.notifications_topic")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.NotificationsTopic, logger)
	defer consumer.Close()

	sender := email.NewSender(logger)

	logger.Info("worker consuming notifications", "topic", cfg.Kafka.NotificationsTopic, "group_id", cfg.Kafka.GroupID)
	err = consumer.ConsumeBookingEvents(ctx, func(ctx context.Context, event kafka.BookingEvent) error {
		if err := sender.Send(ctx, event); err != nil {
			logger.Warn("send ticket confirmation failed", "booking_id", event.BookingID, "error", err)
		}
		return nil
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("consumer stopped: %v", err)
	}
	logger.Info("worker stopped")
}
