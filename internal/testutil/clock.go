// Package testutil provides deterministic test doubles for the autosave
// engine: a manually-advanced clock and an instrumented save function.
package testutil

import (
	"sort"
	"sync"
	"time"

	"github.com/fieldform/draftsync/internal/engine"
)

// FakeClock is a manually-advanced clock implementing engine.Clock.
//
// Timers scheduled with AfterFunc fire when Advance moves the clock past
// their deadline. Callbacks run synchronously inside Advance, in deadline
// order, without the clock lock held - so a callback may itself schedule or
// stop timers.
//
// Thread-safety: all methods are safe for concurrent use.
type FakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
	nextID int
}

// NewFakeClock creates a fake clock starting at the given instant.
func NewFakeClock(start time.Time) *FakeClock {
	return &FakeClock{now: start}
}

// Now returns the fake current time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// AfterFunc registers f to fire when the clock advances past d from now.
func (c *FakeClock) AfterFunc(d time.Duration, f func()) engine.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextID++
	t := &fakeTimer{
		clock:    c,
		id:       c.nextID,
		deadline: c.now.Add(d),
		f:        f,
	}
	c.timers = append(c.timers, t)
	return t
}

// Advance moves the clock forward by d, firing every due timer in deadline
// order. The clock's Now reflects each timer's deadline while its callback
// runs, then lands on the target time.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)

	for {
		t := c.popDueLocked(target)
		if t == nil {
			break
		}
		c.now = t.deadline
		c.mu.Unlock()
		t.f()
		c.mu.Lock()
	}

	c.now = target
	c.mu.Unlock()
}

// PendingTimers returns the number of unfired timers. Useful for asserting
// that suspension cancelled scheduling.
func (c *FakeClock) PendingTimers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.timers)
}

// popDueLocked removes and returns the earliest timer due at or before
// target, or nil. Ties break by registration order. Caller holds c.mu.
func (c *FakeClock) popDueLocked(target time.Time) *fakeTimer {
	sort.SliceStable(c.timers, func(i, j int) bool {
		if !c.timers[i].deadline.Equal(c.timers[j].deadline) {
			return c.timers[i].deadline.Before(c.timers[j].deadline)
		}
		return c.timers[i].id < c.timers[j].id
	})

	if len(c.timers) == 0 || c.timers[0].deadline.After(target) {
		return nil
	}

	t := c.timers[0]
	c.timers = c.timers[1:]
	return t
}

// removeTimer unregisters a timer. Returns false if it already fired or was
// removed.
func (c *FakeClock) removeTimer(id int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, t := range c.timers {
		if t.id == id {
			c.timers = append(c.timers[:i], c.timers[i+1:]...)
			return true
		}
	}
	return false
}

// fakeTimer implements engine.Timer for FakeClock.
type fakeTimer struct {
	clock    *FakeClock
	id       int
	deadline time.Time
	f        func()
}

func (t *fakeTimer) Stop() bool {
	return t.clock.removeTimer(t.id)
}
