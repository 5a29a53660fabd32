package buses

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/Domenick1991/busbooking/internal/cache"
	"github.com/Domenick1991/busbooking/internal/domain"
	"golang.org/x/sync/singleflight"
)

// ErrSeatTaken reports a seat another session has booked or is booking.
var ErrSeatTaken = errors.New("seat taken by another booking")

const defaultSeatLockTTL = 10 * time.Second

// InventoryCache stores the candidate list of a route and the seats booked
// on each of its buses. GetBuses returns nil, nil on a miss.
type InventoryCache interface {
	GetBuses(ctx context.Context, params domain.SearchParams) ([]domain.Bus, error)
	SetBuses(ctx context.Context, params domain.SearchParams, buses []domain.Bus) error
	AcquireSeatLock(ctx context.Context, params domain.SearchParams, busID, seatID string, ttl time.Duration) (bool, error)
	ReleaseSeatLock(ctx context.Context, params domain.SearchParams, busID, seatID string) error
	BookedSeats(ctx context.Context, params domain.SearchParams, busID string) ([]string, error)
	AddBookedSeats(ctx context.Context, params domain.SearchParams, busID string, seatIDs []string) error
}

type Service struct {
	generator   *Generator
	cache       InventoryCache
	group       singleflight.Group
	seatLockTTL time.Duration
	logger      *slog.Logger
}

type ServiceOption func(*Service)

func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithSeatLockTTL bounds how long a seat lock outlives a booking that died
// while holding it.
func WithSeatLockTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) {
		s.seatLockTTL = ttl
	}
}

// NewService wires the generator to the shared inventory. A nil cache gets
// a process-local MemoryCache.
func NewService(generator *Generator, inventory InventoryCache, opts ...ServiceOption) *Service {
	if generator == nil {
		generator = NewGenerator(nil)
	}
	if inventory == nil {
		inventory = cache.NewMemoryCache(nil, 0)
	}
	s := &Service{
		generator:   generator,
		cache:       inventory,
		seatLockTTL: defaultSeatLockTTL,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search returns the candidate buses for a route and date with every seat
// booked through the inventory marked as booked. A cached list wins over
// generation so all sessions see the same fleet.
func (s *Service) Search(ctx context.Context, params domain.SearchParams) ([]domain.Bus, error) {
	buses, err := s.candidates(ctx, params)
	if err != nil {
		return nil, err
	}
	for i := range buses {
		booked, err := s.cache.BookedSeats(ctx, params, buses[i].ID)
		if err != nil {
			s.logger.Warn("inventory booked seats read failed", "bus_id", buses[i].ID, "error", err)
			continue
		}
		buses[i].BookSeats(booked)
	}
	return buses, nil
}

func (s *Service) candidates(ctx context.Context, params domain.SearchParams) ([]domain.Bus, error) {
	cached, err := s.cache.GetBuses(ctx, params)
	if err != nil {
		s.logger.Warn("inventory cache read failed", "from", params.From, "to", params.To, "date", params.Date, "error", err)
	} else if cached != nil {
		return cached, nil
	}

	key := fmt.Sprintf("%s:%s:%s", params.From, params.To, params.Date)
	result, err, _ := s.group.Do(key, func() (interface{}, error) {
		generated := s.generator.Generate(params.From, params.To)
		if err := s.cache.SetBuses(ctx, params, generated); err != nil {
			s.logger.Warn("inventory cache write failed", "key", key, "error", err)
		}
		return generated, nil
	})
	if err != nil {
		return nil, fmt.Errorf("generate buses: %w", err)
	}
	return domain.CloneBuses(result.([]domain.Bus)), nil
}

// Book commits seats on one bus of a route. Each seat is locked while the
// commit runs, so concurrent bookings of a seat cannot both pass the
// booked check. It returns the seats booked through the inventory on that
// bus: after a commit they include seatIDs; when the commit is refused with
// ErrSeatTaken they are the current set.
func (s *Service) Book(ctx context.Context, params domain.SearchParams, busID string, seatIDs []string) ([]string, error) {
	var locked []string
	defer func() {
		releaseCtx := context.WithoutCancel(ctx)
		for _, id := range locked {
			if err := s.cache.ReleaseSeatLock(releaseCtx, params, busID, id); err != nil {
				s.logger.Warn("seat lock release failed", "bus_id", busID, "seat", id, "error", err)
			}
		}
	}()

	for _, id := range seatIDs {
		ok, err := s.cache.AcquireSeatLock(ctx, params, busID, id, s.seatLockTTL)
		if err != nil {
			return nil, fmt.Errorf("lock seat %s: %w", id, err)
		}
		if !ok {
			booked, _ := s.cache.BookedSeats(ctx, params, busID)
			return booked, fmt.Errorf("%w: %s is being booked", ErrSeatTaken, id)
		}
		locked = append(locked, id)
	}

	booked, err := s.cache.BookedSeats(ctx, params, busID)
	if err != nil {
		return nil, fmt.Errorf("read booked seats: %w", err)
	}
	for _, id := range seatIDs {
		if slices.Contains(booked, id) {
			return booked, fmt.Errorf("%w: %s", ErrSeatTaken, id)
		}
	}
	if err := s.cache.AddBookedSeats(ctx, params, busID, seatIDs); err != nil {
		return nil, fmt.Errorf("commit seats: %w", err)
	}

	s.logger.Debug("seats committed", "bus_id", busID, "seats", seatIDs)
	return append(booked, seatIDs...), nil
}
