package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Domenick1991/busbooking/api"
	"github.com/Domenick1991/busbooking/config"
	"github.com/Domenick1991/busbooking/internal/bootstrap"
	"github.com/Domenick1991/busbooking/internal/cache"
	"github.com/Domenick1991/busbooking/internal/clock"
	"github.com/Domenick1991/busbooking/internal/kafka"
	"github.com/Domenick1991/busbooking/internal/repository"
	"github.com/Domenick1991/busbooking/internal/service/booking"
	"github.com/Domenick1991/busbooking/internal/service/buses"
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

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var inventory buses.InventoryCache = cache.NewMemoryCache(nil, cfg.Booking.InventoryCacheTTL())
	if cfg.Redis.Addr != "" {
		redisCache := cache.NewRedisCache(cfg.Redis, cfg.Booking.InventoryCacheTTL())
		defer redisCache.Close()
		if err := redisCache.Ping(ctx); err != nil {
			logger.Warn("redis unavailable, using in-process inventory", "addr", cfg.Redis.Addr, "error", err)
		} else {
			inventory = redisCache
		}
	}
	busService := buses.NewService(buses.NewGenerator(nil), inventory,
		buses.WithLogger(logger),
		buses.WithSeatLockTTL(cfg.Booking.SeatLockTTL()),
	)

	flowOpts := []booking.FlowOption{
		booking.WithClock(clock.Real()),
		booking.WithPaymentDelay(cfg.Booking.PaymentDelay()),
		booking.WithLogger(logger),
	}
	if len(cfg.Kafka.Brokers) > 0 {
		producer := kafka.NewProducer(cfg.Kafka.Brokers, logger)
		defer producer.Close()
		if err := producer.CheckConnection(ctx); err != nil {
			logger.Warn("kafka unavailable, booking events may be lost", "error", err)
		}
		flowOpts = append(flowOpts,
			booking.WithProducer(producer, cfg.Kafka.BookingTopic),
			booking.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
		)
	}

	sessions := repository.NewSessionRepository[*booking.Flow](clock.Real())
	sessionHandler := api.NewSessionHandler(sessions, func() *booking.Flow {
		return booking.NewFlow(busService, flowOpts...)
	}, logger)
	router := bootstrap.NewRouter(logger, sessionHandler, api.NewCityHandler(nil))

	if err := bootstrap.Run(ctx, cfg, router, sessions, logger); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
