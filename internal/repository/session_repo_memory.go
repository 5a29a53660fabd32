package repository

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Domenick1991/busbooking/internal/clock"
)

var ErrSessionNotFound = errors.New("session not found")

// SessionRepository keeps live wizard sessions by id. Sessions live only
// in memory and are dropped once they have been idle for too long.
type SessionRepository[T any] interface {
	Create(ctx context.Context, id string, session T) error
	Get(ctx context.Context, id string) (T, error)
	Delete(ctx context.Context, id string) error
	ExpireIdle(ctx context.Context, maxIdle time.Duration) ([]string, error)
}

type sessionEntry[T any] struct {
	session    T
	lastAccess time.Time
}

type MemorySessionRepository[T any] struct {
	mu       sync.Mutex
	clock    clock.Clock
	sessions map[string]*sessionEntry[T]
}

func NewSessionRepository[T any](clk clock.Clock) *MemorySessionRepository[T] {
	if clk == nil {
		clk = clock.Real()
	}
	return &MemorySessionRepository[T]{
		clock:    clk,
		sessions: make(map[string]*sessionEntry[T]),
	}
}

func (r *MemorySessionRepository[T]) Create(_ context.Context, id string, session T) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[id]; ok {
		return errors.New("session already exists")
	}
	r.sessions[id] = &sessionEntry[T]{session: session, lastAccess: r.clock.Now()}
	return nil
}

// Get returns the session and marks it as recently used.
func (r *MemorySessionRepository[T]) Get(_ context.Context, id string) (T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.sessions[id]
	if !ok {
		var zero T
		return zero, ErrSessionNotFound
	}
	entry.lastAccess = r.clock.Now()
	return entry.session, nil
}

func (r *MemorySessionRepository[T]) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(r.sessions, id)
	return nil
}

// ExpireIdle drops every session not touched within maxIdle and returns
// their ids.
func (r *MemorySessionRepository[T]) ExpireIdle(_ context.Context, maxIdle time.Duration) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	deadline := r.clock.Now().Add(-maxIdle)
	var expired []string
	for id, entry := range r.sessions {
		if entry.lastAccess.Before(deadline) {
			expired = append(expired, id)
			delete(r.sessions, id)
		}
	}
	return expired, nil
}

func (r *MemorySessionRepository[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
