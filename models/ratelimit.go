package models

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rickchristie/sqlagent"
)

// Defaults for RateLimited.
const (
	DefaultMinSpacing  = 2 * time.Second
	DefaultMaxRetries  = 3
	DefaultBaseBackoff = 10 * time.Second
)

// RateLimited decorates a sqlagent.Model with request pacing and bounded
// retry on rate-limit failures.
//
// Before every attempt it waits until at least MinSpacing has passed since
// the last successful call completed. A failure that unwraps to
// *sqlagent.RateLimitError is retried after the upstream's suggested delay,
// or BaseBackoff*2^attempt when the upstream gave no hint. No wait happens
// after the final attempt. Any other failure is returned immediately.
//
// Calls are serialized; concurrent callers queue behind one another so the
// spacing holds across all of them.
type RateLimited struct {
	model       sqlagent.Model
	minSpacing  time.Duration
	maxAttempts int
	baseBackoff time.Duration
	clock       sqlagent.TimeProvider
	sink        sqlagent.TraceSink

	mu          sync.Mutex
	lastSuccess time.Time
}

// NewRateLimited wraps model with the default pacing and retry policy.
func NewRateLimited(model sqlagent.Model) *RateLimited {
	return &RateLimited{
		model:       model,
		minSpacing:  DefaultMinSpacing,
		maxAttempts: DefaultMaxRetries,
		baseBackoff: DefaultBaseBackoff,
		clock:       sqlagent.NewDefaultTimeProvider(),
		sink:        sqlagent.NopSink,
	}
}

// WithMinSpacing sets the minimum time between the last successful call and
// the next attempt. Zero disables pacing.
func (r *RateLimited) WithMinSpacing(d time.Duration) *RateLimited {
	if d < 0 {
		d = 0
	}
	r.minSpacing = d
	return r
}

// WithMaxRetries sets the total number of attempts per call, first try
// included. Values below 1 are treated as 1.
func (r *RateLimited) WithMaxRetries(n int) *RateLimited {
	if n < 1 {
		n = 1
	}
	r.maxAttempts = n
	return r
}

// WithBaseBackoff sets the backoff used for attempt 0 when the upstream gave
// no retry hint.
func (r *RateLimited) WithBaseBackoff(d time.Duration) *RateLimited {
	r.baseBackoff = d
	return r
}

// WithTimeProvider replaces the clock used for pacing and backoff.
func (r *RateLimited) WithTimeProvider(tp sqlagent.TimeProvider) *RateLimited {
	if tp != nil {
		r.clock = tp
	}
	return r
}

// WithTraceSink sets the sink that receives pacing and retry events.
func (r *RateLimited) WithTraceSink(sink sqlagent.TraceSink) *RateLimited {
	if sink == nil {
		sink = sqlagent.NopSink
	}
	r.sink = sink
	return r
}

// MaxAttempts returns the configured number of attempts per call.
func (r *RateLimited) MaxAttempts() int {
	return r.maxAttempts
}

// Generate implements sqlagent.Model.
func (r *RateLimited) Generate(ctx context.Context, prompt string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var lastErr error
	for attempt := 0; attempt < r.maxAttempts; attempt++ {
		if err := r.pace(ctx); err != nil {
			return "", err
		}

		text, err := r.model.Generate(ctx, prompt)
		if err == nil {
			r.lastSuccess = r.clock.Now()
			return text, nil
		}
		if !sqlagent.IsRateLimit(err) {
			return "", err
		}
		lastErr = err

		if attempt == r.maxAttempts-1 {
			break
		}

		delay, suggested := r.retryDelay(err, attempt)
		r.sink.OnEvent(ctx, sqlagent.RateLimitRetryEvent{
			Attempt:     attempt + 1,
			MaxAttempts: r.maxAttempts,
			Delay:       delay,
			Suggested:   suggested,
			Err:         err,
		})
		if err := r.clock.Sleep(ctx, delay); err != nil {
			return "", err
		}
	}

	return "", fmt.Errorf("%w after %d attempts: %v",
		sqlagent.ErrRateLimitExceeded, r.maxAttempts, lastErr)
}

// pace waits out the remainder of minSpacing since the last success.
func (r *RateLimited) pace(ctx context.Context) error {
	if r.minSpacing <= 0 || r.lastSuccess.IsZero() {
		return nil
	}
	wait := r.minSpacing - r.clock.Now().Sub(r.lastSuccess)
	if wait <= 0 {
		return nil
	}
	r.sink.OnEvent(ctx, sqlagent.PacingWaitEvent{Wait: wait})
	return r.clock.Sleep(ctx, wait)
}

func (r *RateLimited) retryDelay(err error, attempt int) (time.Duration, bool) {
	var rl *sqlagent.RateLimitError
	if errors.As(err, &rl) && rl.RetryAfter > 0 {
		return rl.RetryAfter, true
	}
	if d, ok := SuggestedDelay(err.Error()); ok {
		return d, true
	}
	return r.baseBackoff << attempt, false
}

// Compile-time check that RateLimited implements sqlagent.Model.
var _ sqlagent.Model = (*RateLimited)(nil)
