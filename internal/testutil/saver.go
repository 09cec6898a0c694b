package testutil

import (
	"context"
	"sync"

	"github.com/fieldform/draftsync/internal/snapshot"
)

// SpySaver is an instrumented save function for engine tests. It records
// every payload it receives, can be scripted to fail upcoming calls, and
// can hold a call open to exercise the single-flight guard.
type SpySaver struct {
	mu       sync.Mutex
	payloads []snapshot.Value
	queue    []error       // errors for upcoming calls, FIFO; nil = success
	gate     chan struct{} // when set, calls block until Release
	settled  chan struct{} // closed-and-replaced signal after each call returns
}

// NewSpySaver creates a spy whose saves succeed immediately.
func NewSpySaver() *SpySaver {
	return &SpySaver{settled: make(chan struct{})}
}

// Save is the engine.SaveFunc. Records the payload, blocks if gated, and
// returns the next scripted error (or nil).
func (s *SpySaver) Save(ctx context.Context, snap snapshot.Value) error {
	s.mu.Lock()
	s.payloads = append(s.payloads, snap)
	gate := s.gate
	var err error
	if len(s.queue) > 0 {
		err = s.queue[0]
		s.queue = s.queue[1:]
	}
	s.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	s.mu.Lock()
	settled := s.settled
	s.settled = make(chan struct{})
	s.mu.Unlock()
	close(settled)

	return err
}

// FailNext scripts the next call to return err.
func (s *SpySaver) FailNext(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue = append(s.queue, err)
}

// Hold makes subsequent calls block until Release. Returns the release
// function.
func (s *SpySaver) Hold() (release func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	gate := make(chan struct{})
	s.gate = gate
	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			if s.gate == gate {
				s.gate = nil
			}
			s.mu.Unlock()
			close(gate)
		})
	}
}

// Calls returns how many saves have been attempted.
func (s *SpySaver) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.payloads)
}

// Payload returns the i-th recorded payload.
func (s *SpySaver) Payload(i int) snapshot.Value {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.payloads[i]
}

// LastPayload returns the most recent payload, or nil if none.
func (s *SpySaver) LastPayload() snapshot.Value {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.payloads) == 0 {
		return nil
	}
	return s.payloads[len(s.payloads)-1]
}
