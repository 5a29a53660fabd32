package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/busbooking/config"
	"github.com/Domenick1991/busbooking/internal/domain"
	"github.com/redis/go-redis/v9"
)

// RedisCache keeps the candidate bus list of every searched route and the
// seats booked on it, shared by every session and app instance.
type RedisCache struct {
	client       *redis.Client
	inventoryTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, inventoryTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:       redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		inventoryTTL: inventoryTTL,
	}
}

func (c *RedisCache) GetBuses(ctx context.Context, params domain.SearchParams) ([]domain.Bus, error) {
	data, err := c.client.Get(ctx, busesKey(params)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	return decodeBuses(data)
}

func (c *RedisCache) SetBuses(ctx context.Context, params domain.SearchParams, buses []domain.Bus) error {
	payload, err := encodeBuses(buses)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, busesKey(params), payload, c.inventoryTTL).Err()
}

func (c *RedisCache) AcquireSeatLock(ctx context.Context, params domain.SearchParams, busID, seatID string, ttl time.Duration) (bool, error) {
	return c.client.SetNX(ctx, seatLockKey(params, busID, seatID), "locked", ttl).Result()
}

func (c *RedisCache) ReleaseSeatLock(ctx context.Context, params domain.SearchParams, busID, seatID string) error {
	return c.client.Del(ctx, seatLockKey(params, busID, seatID)).Err()
}

func (c *RedisCache) BookedSeats(ctx context.Context, params domain.SearchParams, busID string) ([]string, error) {
	return c.client.SMembers(ctx, bookedSeatsKey(params, busID)).Result()
}

// AddBookedSeats records seats as booked. The route's bus list and the
// booked set are given a fresh TTL together so neither outlives the other.
func (c *RedisCache) AddBookedSeats(ctx context.Context, params domain.SearchParams, busID string, seatIDs []string) error {
	if len(seatIDs) == 0 {
		return nil
	}
	members := make([]interface{}, len(seatIDs))
	for i, id := range seatIDs {
		members[i] = id
	}

	key := bookedSeatsKey(params, busID)
	pipe := c.client.TxPipeline()
	pipe.SAdd(ctx, key, members...)
	if c.inventoryTTL > 0 {
		pipe.Expire(ctx, key, c.inventoryTTL)
		pipe.Expire(ctx, busesKey(params), c.inventoryTTL)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

func encodeBuses(buses []domain.Bus) ([]byte, error) {
	payload, err := json.Marshal(buses)
	if err != nil {
		return nil, fmt.Errorf("encode buses: %w", err)
	}
	return payload, nil
}

func decodeBuses(data []byte) ([]domain.Bus, error) {
	var buses []domain.Bus
	if err := json.Unmarshal(data, &buses); err != nil {
		return nil, fmt.Errorf("decode cached buses: %w", err)
	}
	return buses, nil
}

func routeKey(params domain.SearchParams) string {
	return fmt.Sprintf("%s:%s:%s", params.From, params.To, params.Date)
}

func busesKey(params domain.SearchParams) string {
	return "cache:buses:" + routeKey(params)
}

func bookedSeatsKey(params domain.SearchParams, busID string) string {
	return fmt.Sprintf("cache:booked:%s:%s", routeKey(params), busID)
}

func seatLockKey(params domain.SearchParams, busID, seatID string) string {
	return fmt.Sprintf("lock:bus:%s:%s:seat:%s", routeKey(params), busID, seatID)
}
