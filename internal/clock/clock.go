// Package clock abstracts the time operations the booking flow depends
// on, so tests can drive the simulated payment delay deterministically.
package clock

import (
	"sort"
	"sync"
	"time"
)

// Clock is injected wherever production code would call time.Now or
// time.AfterFunc directly.
type Clock interface {
	Now() time.Time
	// AfterFunc calls f once d has elapsed. The returned stop function
	// cancels a call that has not fired yet and reports whether it did.
	AfterFunc(d time.Duration, f func()) (stop func() bool)
}

type realClock struct{}

// Real returns a Clock backed by the time package.
func Real() Clock { return realClock{} }

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) func() bool {
	return time.AfterFunc(d, f).Stop
}

// FakeClock only moves when Advance is called. Pending functions fire
// synchronously, in deadline order, on the goroutine calling Advance.
type FakeClock struct {
	mu      sync.Mutex
	now     time.Time
	nextID  int
	pending map[int]pendingFunc
}

type pendingFunc struct {
	at time.Time
	id int
	f  func()
}

func Fake(start time.Time) *FakeClock {
	return &FakeClock{now: start, pending: make(map[int]pendingFunc)}
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *FakeClock) AfterFunc(d time.Duration, f func()) func() bool {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.pending[id] = pendingFunc{at: c.now.Add(d), id: id, f: f}
	c.mu.Unlock()

	return func() bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		_, ok := c.pending[id]
		delete(c.pending, id)
		return ok
	}
}

// Advance moves the clock forward by d and runs every function that
// became due.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []pendingFunc
	for id, p := range c.pending {
		if !p.at.After(c.now) {
			due = append(due, p)
			delete(c.pending, id)
		}
	}
	c.mu.Unlock()

	sort.Slice(due, func(i, j int) bool {
		if due[i].at.Equal(due[j].at) {
			return due[i].id < due[j].id
		}
		return due[i].at.Before(due[j].at)
	})
	for _, p := range due {
		p.f()
	}
}

// Pending reports how many scheduled functions have not fired.
func (c *FakeClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}
