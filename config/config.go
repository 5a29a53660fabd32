package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP    HTTPConfig    `yaml:"http"`
	Redis   RedisConfig   `yaml:"redis"`
	Kafka   KafkaConfig   `yaml:"kafka"`
	Booking BookingConfig `yaml:"booking"`
	Worker  WorkerConfig  `yaml:"worker"`
}

type HTTPConfig struct {
	Address string `yaml:"address"`
}

// RedisConfig with an empty Addr disables the bus inventory cache.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// KafkaConfig with no brokers disables booking events.
type KafkaConfig struct {
	Brokers            []string `yaml:"brokers"`
	BookingTopic       string   `yaml:"booking_topic"`
	NotificationsTopic string   `yaml:"notifications_topic"`
	GroupID            string   `yaml:"group_id"`
}

type BookingConfig struct {
	PaymentDelaySeconds      int `yaml:"payment_delay_seconds"`
	InventoryCacheTTLSeconds int `yaml:"inventory_cache_ttl_seconds"`
	SeatLockTTLSeconds       int `yaml:"seat_lock_ttl_seconds"`
	SessionTTLMinutes        int `yaml:"session_ttl_minutes"`
}

type WorkerConfig struct {
	SessionSweepMinutes int `yaml:"session_sweep_minutes"`
}

func (b BookingConfig) PaymentDelay() time.Duration {
	return time.Duration(b.PaymentDelaySeconds) * time.Second
}

func (b BookingConfig) InventoryCacheTTL() time.Duration {
	return time.Duration(b.InventoryCacheTTLSeconds) * time.Second
}

// SeatLockTTL bounds how long a seat stays locked if the booking that
// took the lock dies before releasing it.
func (b BookingConfig) SeatLockTTL() time.Duration {
	return time.Duration(b.SeatLockTTLSeconds) * time.Second
}

func (b BookingConfig) SessionTTL() time.Duration {
	return time.Duration(b.SessionTTLMinutes) * time.Minute
}

func (w WorkerConfig) SessionSweepInterval() time.Duration {
	return time.Duration(w.SessionSweepMinutes) * time.Minute
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.HTTP.Address == "" {
		c.HTTP.Address = ":8080"
	}
	if c.Kafka.BookingTopic == "" {
		c.Kafka.BookingTopic = "bus-bookings"
	}
	if c.Kafka.NotificationsTopic == "" {
		c.Kafka.NotificationsTopic = "bus-booking-notifications"
	}
	if c.Kafka.GroupID == "" {
		c.Kafka.GroupID = "busbooking-worker"
	}
	if c.Booking.PaymentDelaySeconds <= 0 {
		c.Booking.PaymentDelaySeconds = 3
	}
	if c.Booking.InventoryCacheTTLSeconds <= 0 {
		c.Booking.InventoryCacheTTLSeconds = 1800
	}
	if c.Booking.SeatLockTTLSeconds <= 0 {
		c.Booking.SeatLockTTLSeconds = 10
	}
	if c.Booking.SessionTTLMinutes <= 0 {
		c.Booking.SessionTTLMinutes = 30
	}
	if c.Worker.SessionSweepMinutes <= 0 {
		c.Worker.SessionSweepMinutes = 5
	}
}
