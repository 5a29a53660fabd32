package cache

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/Domenick1991/busbooking/internal/clock"
	"github.com/Domenick1991/busbooking/internal/domain"
)

// MemoryCache is the in-process inventory used when Redis is not
// configured. It mirrors RedisCache, keys and expiry included, so sessions
// of one app instance share routes and seat locks the same way.
type MemoryCache struct {
	mu           sync.Mutex
	clock        clock.Clock
	inventoryTTL time.Duration

	lists  map[string]memoryList
	booked map[string]memorySet
	locks  map[string]time.Time
}

type memoryList struct {
	data    []byte
	expires time.Time
}

type memorySet struct {
	members []string
	expires time.Time
}

// NewMemoryCache returns an empty cache. A zero inventoryTTL keeps routes
// forever; a nil clock uses the real one.
func NewMemoryCache(clk clock.Clock, inventoryTTL time.Duration) *MemoryCache {
	if clk == nil {
		clk = clock.Real()
	}
	return &MemoryCache{
		clock:        clk,
		inventoryTTL: inventoryTTL,
		lists:        make(map[string]memoryList),
		booked:       make(map[string]memorySet),
		locks:        make(map[string]time.Time),
	}
}

func (c *MemoryCache) GetBuses(_ context.Context, params domain.SearchParams) ([]domain.Bus, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := busesKey(params)
	entry, ok := c.lists[key]
	if !ok {
		return nil, nil
	}
	if c.expired(entry.expires) {
		delete(c.lists, key)
		return nil, nil
	}
	return decodeBuses(entry.data)
}

// SetBuses stores the list encoded, the way RedisCache does, so callers
// never share slices with the cache.
func (c *MemoryCache) SetBuses(_ context.Context, params domain.SearchParams, buses []domain.Bus) error {
	payload, err := encodeBuses(buses)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.lists[busesKey(params)] = memoryList{data: payload, expires: c.deadline(c.inventoryTTL)}
	return nil
}

func (c *MemoryCache) AcquireSeatLock(_ context.Context, params domain.SearchParams, busID, seatID string, ttl time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := seatLockKey(params, busID, seatID)
	if expires, ok := c.locks[key]; ok && !c.expired(expires) {
		return false, nil
	}
	c.locks[key] = c.deadline(ttl)
	return true, nil
}

func (c *MemoryCache) ReleaseSeatLock(_ context.Context, params domain.SearchParams, busID, seatID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.locks, seatLockKey(params, busID, seatID))
	return nil
}

func (c *MemoryCache) BookedSeats(_ context.Context, params domain.SearchParams, busID string) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := bookedSeatsKey(params, busID)
	set, ok := c.booked[key]
	if !ok {
		return nil, nil
	}
	if c.expired(set.expires) {
		delete(c.booked, key)
		return nil, nil
	}
	return slices.Clone(set.members), nil
}

func (c *MemoryCache) AddBookedSeats(_ context.Context, params domain.SearchParams, busID string, seatIDs []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := bookedSeatsKey(params, busID)
	set := c.booked[key]
	if c.expired(set.expires) {
		set = memorySet{}
	}
	for _, id := range seatIDs {
		if !slices.Contains(set.members, id) {
			set.members = append(set.members, id)
		}
	}
	set.expires = c.deadline(c.inventoryTTL)
	c.booked[key] = set

	if list, ok := c.lists[busesKey(params)]; ok && !c.expired(list.expires) {
		list.expires = set.expires
		c.lists[busesKey(params)] = list
	}
	return nil
}

func (c *MemoryCache) deadline(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return c.clock.Now().Add(ttl)
}

func (c *MemoryCache) expired(deadline time.Time) bool {
	return !deadline.IsZero() && !c.clock.Now().Before(deadline)
}
