package sqlagent

import (
	"context"
	"sync"
	"time"
)

// TimeProvider is the clock used for request pacing, backoff and run timing.
// It allows injecting a virtual clock in tests so retry and spacing behavior
// can be checked without real waiting.
type TimeProvider interface {
	// Now returns the current time.
	Now() time.Time

	// Today returns today's date as a string (YYYY-MM-DD).
	Today() string

	// Format returns the current time formatted with the given layout.
	Format(layout string) string

	// Sleep blocks for d or until ctx is done, whichever comes first.
	// It returns ctx.Err() when the context ended the wait. A non-positive
	// d returns immediately.
	Sleep(ctx context.Context, d time.Duration) error
}

// DefaultTimeProvider is the standard TimeProvider using the system clock.
type DefaultTimeProvider struct{}

// NewDefaultTimeProvider creates a new DefaultTimeProvider.
func NewDefaultTimeProvider() *DefaultTimeProvider {
	return &DefaultTimeProvider{}
}

// Now returns the current system time.
func (p *DefaultTimeProvider) Now() time.Time {
	return time.Now()
}

// Today returns today's date as YYYY-MM-DD.
func (p *DefaultTimeProvider) Today() string {
	return p.Now().Format("2006-01-02")
}

// Format returns the current time formatted with the given layout.
func (p *DefaultTimeProvider) Format(layout string) string {
	return p.Now().Format(layout)
}

// Sleep waits on a timer, honoring ctx cancellation.
func (p *DefaultTimeProvider) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// MockTimeProvider is a virtual clock. Sleep advances the clock instead of
// blocking and records every requested duration.
type MockTimeProvider struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
}

// NewMockTimeProvider creates a MockTimeProvider starting at t.
func NewMockTimeProvider(t time.Time) *MockTimeProvider {
	return &MockTimeProvider{now: t}
}

// SetTime moves the clock to t.
func (m *MockTimeProvider) SetTime(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = t
}

// Advance moves the clock forward by d.
func (m *MockTimeProvider) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(d)
}

// Now returns the virtual time.
func (m *MockTimeProvider) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Today returns the virtual date as YYYY-MM-DD.
func (m *MockTimeProvider) Today() string {
	return m.Now().Format("2006-01-02")
}

// Format returns the virtual time formatted with the given layout.
func (m *MockTimeProvider) Format(layout string) string {
	return m.Now().Format(layout)
}

// Sleep records d and advances the clock by it. A cancelled ctx is reported
// without advancing.
func (m *MockTimeProvider) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d <= 0 {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sleeps = append(m.sleeps, d)
	m.now = m.now.Add(d)
	return nil
}

// Sleeps returns every positive duration passed to Sleep, in order.
func (m *MockTimeProvider) Sleeps() []time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]time.Duration, len(m.sleeps))
	copy(out, m.sleeps)
	return out
}

// Compile-time checks that both providers implement TimeProvider.
var (
	_ TimeProvider = (*DefaultTimeProvider)(nil)
	_ TimeProvider = (*MockTimeProvider)(nil)
)
