// Package tt provides test helpers for the sqlagent packages.
package tt

import (
	"context"
	"sync"

	"github.com/rickchristie/sqlagent"
)

// -----------------------------------------------------------------------------
// RecordingSink
// -----------------------------------------------------------------------------

// RecordingSink is a sqlagent.TraceSink that keeps every event it receives.
type RecordingSink struct {
	mu     sync.Mutex
	events []sqlagent.Event
}

// NewRecordingSink creates an empty RecordingSink.
func NewRecordingSink() *RecordingSink {
	return &RecordingSink{}
}

// OnEvent implements sqlagent.TraceSink.
func (s *RecordingSink) OnEvent(_ context.Context, event sqlagent.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

// Events returns a copy of the recorded events in order.
func (s *RecordingSink) Events() []sqlagent.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]sqlagent.Event, len(s.events))
	copy(out, s.events)
	return out
}

// Names returns the EventName of each recorded event in order.
func (s *RecordingSink) Names() []string {
	events := s.Events()
	names := make([]string, len(events))
	for i, e := range events {
		names[i] = e.EventName()
	}
	return names
}

// Reset drops every recorded event.
func (s *RecordingSink) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = nil
}

// EventsOf returns the recorded events of type T.
func EventsOf[T sqlagent.Event](s *RecordingSink) []T {
	var out []T
	for _, e := range s.Events() {
		if typed, ok := e.(T); ok {
			out = append(out, typed)
		}
	}
	return out
}

var _ sqlagent.TraceSink = (*RecordingSink)(nil)
