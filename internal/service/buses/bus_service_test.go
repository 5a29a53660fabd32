package buses

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Domenick1991/busbooking/internal/cache"
	"github.com/Domenick1991/busbooking/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockInventoryCache struct {
	mock.Mock
}

func (m *MockInventoryCache) GetBuses(ctx context.Context, params domain.SearchParams) ([]domain.Bus, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Bus), args.Error(1)
}

func (m *MockInventoryCache) SetBuses(ctx context.Context, params domain.SearchParams, buses []domain.Bus) error {
	args := m.Called(ctx, params, buses)
	return args.Error(0)
}

func (m *MockInventoryCache) AcquireSeatLock(ctx context.Context, params domain.SearchParams, busID, seatID string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, params, busID, seatID, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockInventoryCache) ReleaseSeatLock(ctx context.Context, params domain.SearchParams, busID, seatID string) error {
	args := m.Called(ctx, params, busID, seatID)
	return args.Error(0)
}

func (m *MockInventoryCache) BookedSeats(ctx context.Context, params domain.SearchParams, busID string) ([]string, error) {
	args := m.Called(ctx, params, busID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockInventoryCache) AddBookedSeats(ctx context.Context, params domain.SearchParams, busID string, seatIDs []string) error {
	args := m.Called(ctx, params, busID, seatIDs)
	return args.Error(0)
}

var route = domain.SearchParams{From: "Mumbai", To: "Delhi", Date: "2025-01-01"}

var sleeper = domain.SeatLayout{Rows: 12, SeatsPerRow: 3, AisleAfter: 1}

func TestService_Search_CacheHit(t *testing.T) {
	mockCache := &MockInventoryCache{}
	service := NewService(NewGenerator(nil), mockCache)
	ctx := context.Background()

	cached := []domain.Bus{{ID: "bus-1", TotalSeats: 36, AvailableSeats: 35, BookedSeats: []string{"1A"}, SeatLayout: sleeper}}
	mockCache.On("GetBuses", ctx, route).Return(cached, nil).Once()
	mockCache.On("BookedSeats", ctx, route, "bus-1").Return([]string{"4B", "1A"}, nil).Once()

	buses, err := service.Search(ctx, route)

	require.NoError(t, err)
	require.Len(t, buses, 1)
	assert.Equal(t, []string{"1A", "4B"}, buses[0].BookedSeats)
	assert.Equal(t, 34, buses[0].AvailableSeats)
	mockCache.AssertExpectations(t)
	mockCache.AssertNotCalled(t, "SetBuses", mock.Anything, mock.Anything, mock.Anything)
}

func TestService_Search_CacheMiss(t *testing.T) {
	mockCache := &MockInventoryCache{}
	service := NewService(NewGenerator(nil), mockCache)
	ctx := context.Background()

	mockCache.On("GetBuses", ctx, route).Return(nil, nil).Once()
	mockCache.On("SetBuses", ctx, route, mock.AnythingOfType("[]domain.Bus")).Return(nil).Once()
	mockCache.On("BookedSeats", ctx, route, mock.AnythingOfType("string")).Return(nil, nil).Times(FleetSize)

	buses, err := service.Search(ctx, route)

	require.NoError(t, err)
	assert.Len(t, buses, FleetSize)
	mockCache.AssertExpectations(t)
}

func TestService_Search_CacheErrorsFallBackToGeneration(t *testing.T) {
	mockCache := &MockInventoryCache{}
	service := NewService(NewGenerator(nil), mockCache)
	ctx := context.Background()

	mockCache.On("GetBuses", ctx, route).Return(nil, errors.New("redis down")).Once()
	mockCache.On("SetBuses", ctx, route, mock.Anything).Return(errors.New("redis down")).Once()
	mockCache.On("BookedSeats", ctx, route, mock.Anything).Return(nil, errors.New("redis down"))

	buses, err := service.Search(ctx, route)

	require.NoError(t, err)
	assert.Len(t, buses, FleetSize)
	mockCache.AssertExpectations(t)
}

func TestService_WithoutCache(t *testing.T) {
	service := NewService(nil, nil)
	ctx := context.Background()

	first, err := service.Search(ctx, route)
	require.NoError(t, err)
	assert.Len(t, first, FleetSize)

	again, err := service.Search(ctx, route)
	require.NoError(t, err)
	assert.Equal(t, first, again, "the process-local inventory serves the same fleet")
}

func TestService_Book(t *testing.T) {
	service := NewService(nil, cache.NewMemoryCache(nil, 0))
	ctx := context.Background()
	buses, err := service.Search(ctx, route)
	require.NoError(t, err)
	bus := buses[0]
	free := freeSeats(bus, 3)

	booked, err := service.Book(ctx, route, bus.ID, free[:2])
	require.NoError(t, err)
	assert.Equal(t, free[:2], booked)

	booked, err = service.Book(ctx, route, bus.ID, []string{free[2], free[1]})
	assert.ErrorIs(t, err, ErrSeatTaken)
	assert.Equal(t, free[:2], booked)

	// The refused seat's lock was released, so it can still be booked.
	booked, err = service.Book(ctx, route, bus.ID, free[2:3])
	require.NoError(t, err)
	assert.Equal(t, free, booked)

	again, err := service.Search(ctx, route)
	require.NoError(t, err)
	for _, id := range free {
		assert.True(t, again[0].IsBooked(id), id)
	}
	assert.Equal(t, again[0].TotalSeats-len(again[0].BookedSeats), again[0].AvailableSeats)
}

func TestService_Book_LockHeld(t *testing.T) {
	mockCache := &MockInventoryCache{}
	service := NewService(nil, mockCache, WithSeatLockTTL(time.Second))
	ctx := context.Background()

	mockCache.On("AcquireSeatLock", ctx, route, "bus-1", "1A", time.Second).Return(true, nil).Once()
	mockCache.On("AcquireSeatLock", ctx, route, "bus-1", "1B", time.Second).Return(false, nil).Once()
	mockCache.On("BookedSeats", ctx, route, "bus-1").Return([]string{"3C"}, nil).Once()
	mockCache.On("ReleaseSeatLock", mock.Anything, route, "bus-1", "1A").Return(nil).Once()

	booked, err := service.Book(ctx, route, "bus-1", []string{"1A", "1B"})

	assert.ErrorIs(t, err, ErrSeatTaken)
	assert.Equal(t, []string{"3C"}, booked)
	mockCache.AssertExpectations(t)
	mockCache.AssertNotCalled(t, "AddBookedSeats", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	mockCache.AssertNotCalled(t, "ReleaseSeatLock", mock.Anything, route, "bus-1", "1B")
}

func TestService_Book_CommitFails(t *testing.T) {
	mockCache := &MockInventoryCache{}
	service := NewService(nil, mockCache)
	ctx := context.Background()

	mockCache.On("AcquireSeatLock", ctx, route, "bus-1", "1A", defaultSeatLockTTL).Return(true, nil).Once()
	mockCache.On("BookedSeats", ctx, route, "bus-1").Return(nil, nil).Once()
	mockCache.On("AddBookedSeats", ctx, route, "bus-1", []string{"1A"}).Return(errors.New("redis down")).Once()
	mockCache.On("ReleaseSeatLock", mock.Anything, route, "bus-1", "1A").Return(nil).Once()

	_, err := service.Book(ctx, route, "bus-1", []string{"1A"})

	assert.ErrorContains(t, err, "commit seats")
	assert.NotErrorIs(t, err, ErrSeatTaken)
	mockCache.AssertExpectations(t)
}

// Concurrent bookings of one seat from many sessions commit exactly once.
func TestService_Book_Concurrent(t *testing.T) {
	service := NewService(nil, cache.NewMemoryCache(nil, 0))
	ctx := context.Background()
	buses, err := service.Search(ctx, route)
	require.NoError(t, err)
	bus := buses[0]
	seat := freeSeats(bus, 1)[0]

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := service.Book(ctx, route, bus.ID, []string{seat}); err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			} else {
				assert.ErrorIs(t, err, ErrSeatTaken)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
}

func freeSeats(bus domain.Bus, n int) []string {
	var free []string
	for _, id := range bus.SeatLayout.SeatIDs() {
		if !bus.IsBooked(id) {
			free = append(free, id)
		}
		if len(free) == n {
			break
		}
	}
	return free
}
