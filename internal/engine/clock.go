package engine

import "time"

// Clock abstracts wall time and timer creation so the debounce scheduler is
// deterministic under test. Production uses systemClock; tests inject
// testutil.FakeClock.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// AfterFunc schedules f to run in its own goroutine after d elapses.
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a handle to a scheduled callback.
type Timer interface {
	// Stop cancels the timer. Returns false if it already fired or was
	// stopped. A callback that already started may still run; callers guard
	// against stale fires with a generation counter.
	Stop() bool
}

// systemClock is the production Clock backed by the time package.
type systemClock struct{}

// SystemClock returns the real-time clock.
func SystemClock() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now()
}

func (systemClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
