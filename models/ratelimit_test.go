package models

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rickchristie/sqlagent"
	"github.com/rickchristie/sqlagent/internal/tt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)

func rateLimitErr(detail string, retryAfter time.Duration) error {
	return &sqlagent.RateLimitError{Err: errors.New(detail), RetryAfter: retryAfter}
}

func TestRateLimited_Retry(t *testing.T) {
	type input struct {
		errs        []error
		maxAttempts int
	}

	type expected struct {
		text       string
		err        error
		calls      int
		sleeps     []time.Duration
		retryDelay []time.Duration
		suggested  []bool
	}

	upstream := errors.New("503 service unavailable")

	tests := []struct {
		name     string
		input    input
		expected expected
	}{
		{
			name:     "success on first attempt",
			input:    input{},
			expected: expected{text: "ok", calls: 1},
		},
		{
			name:  "backoff then success",
			input: input{errs: []error{rateLimitErr("429 too many requests", 0)}},
			expected: expected{
				text:       "ok",
				calls:      2,
				sleeps:     []time.Duration{10 * time.Second},
				retryDelay: []time.Duration{10 * time.Second},
				suggested:  []bool{false},
			},
		},
		{
			name: "exponential backoff then exhaustion",
			input: input{errs: []error{
				rateLimitErr("quota", 0),
				rateLimitErr("quota", 0),
				rateLimitErr("quota", 0),
			}},
			expected: expected{
				err:        sqlagent.ErrRateLimitExceeded,
				calls:      3,
				sleeps:     []time.Duration{10 * time.Second, 20 * time.Second},
				retryDelay: []time.Duration{10 * time.Second, 20 * time.Second},
				suggested:  []bool{false, false},
			},
		},
		{
			name:  "suggested delay from error field",
			input: input{errs: []error{rateLimitErr("quota", 27500*time.Millisecond)}},
			expected: expected{
				text:       "ok",
				calls:      2,
				sleeps:     []time.Duration{27500 * time.Millisecond},
				retryDelay: []time.Duration{27500 * time.Millisecond},
				suggested:  []bool{true},
			},
		},
		{
			name:  "suggested delay parsed from detail",
			input: input{errs: []error{rateLimitErr("quota exceeded, please retry in 500ms", 0)}},
			expected: expected{
				text:       "ok",
				calls:      2,
				sleeps:     []time.Duration{500 * time.Millisecond},
				retryDelay: []time.Duration{500 * time.Millisecond},
				suggested:  []bool{true},
			},
		},
		{
			name:  "minute hint falls back to backoff",
			input: input{errs: []error{rateLimitErr("quota exceeded, retry in 2m", 0)}},
			expected: expected{
				text:       "ok",
				calls:      2,
				sleeps:     []time.Duration{10 * time.Second},
				retryDelay: []time.Duration{10 * time.Second},
				suggested:  []bool{false},
			},
		},
		{
			name:     "upstream failure is not retried",
			input:    input{errs: []error{upstream}},
			expected: expected{err: upstream, calls: 1},
		},
		{
			name:  "upstream failure after rate limit stops retrying",
			input: input{errs: []error{rateLimitErr("429", 0), upstream}},
			expected: expected{
				err:        upstream,
				calls:      2,
				sleeps:     []time.Duration{10 * time.Second},
				retryDelay: []time.Duration{10 * time.Second},
				suggested:  []bool{false},
			},
		},
		{
			name: "single attempt never sleeps",
			input: input{
				errs:        []error{rateLimitErr("429", 0)},
				maxAttempts: 1,
			},
			expected: expected{err: sqlagent.ErrRateLimitExceeded, calls: 1},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			clock := sqlagent.NewMockTimeProvider(epoch)
			model := tt.NewMockModel()
			for _, err := range tc.input.errs {
				model.AddError(err)
			}
			model.AddResponse("ok")

			sink := tt.NewRecordingSink()
			client := NewRateLimited(model).WithTimeProvider(clock).WithTraceSink(sink)
			if tc.input.maxAttempts > 0 {
				client.WithMaxRetries(tc.input.maxAttempts)
			}

			text, err := client.Generate(context.Background(), "prompt")

			if tc.expected.err != nil {
				assert.ErrorIs(t, err, tc.expected.err)
				assert.Empty(t, text)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tc.expected.text, text)
			}
			assert.Equal(t, tc.expected.calls, model.CallCount())

			var sleeps []time.Duration
			sleeps = append(sleeps, clock.Sleeps()...)
			assert.Equal(t, tc.expected.sleeps, sleeps)

			var delays []time.Duration
			var suggested []bool
			for i, ev := range tt.EventsOf[sqlagent.RateLimitRetryEvent](sink) {
				assert.Equal(t, i+1, ev.Attempt)
				assert.Equal(t, client.MaxAttempts(), ev.MaxAttempts)
				delays = append(delays, ev.Delay)
				suggested = append(suggested, ev.Suggested)
			}
			assert.Equal(t, tc.expected.retryDelay, delays)
			assert.Equal(t, tc.expected.suggested, suggested)
		})
	}
}

func TestRateLimited_ExhaustionMessage(t *testing.T) {
	model := tt.NewMockModel().
		AddError(rateLimitErr("429", 0)).
		AddError(rateLimitErr("429", 0)).
		AddError(rateLimitErr("RESOURCE_EXHAUSTED", 0))
	client := NewRateLimited(model).WithTimeProvider(sqlagent.NewMockTimeProvider(epoch))

	_, err := client.Generate(context.Background(), "p")

	require.ErrorIs(t, err, sqlagent.ErrRateLimitExceeded)
	assert.EqualError(t, err, "rate limit exceeded after 3 attempts: rate limited: RESOURCE_EXHAUSTED")
}

func TestRateLimited_Pacing(t *testing.T) {
	clock := sqlagent.NewMockTimeProvider(epoch)
	model := tt.NewMockModel().WithClock(clock).AddResponses("a", "b", "c", "d")
	sink := tt.NewRecordingSink()
	client := NewRateLimited(model).WithTimeProvider(clock).WithTraceSink(sink)
	ctx := context.Background()

	// First call has no previous success to space from.
	_, err := client.Generate(ctx, "p")
	require.NoError(t, err)

	// Immediately after: full spacing.
	_, err = client.Generate(ctx, "p")
	require.NoError(t, err)

	// Part of the spacing already elapsed.
	clock.Advance(1500 * time.Millisecond)
	_, err = client.Generate(ctx, "p")
	require.NoError(t, err)

	// More than the spacing elapsed: no wait.
	clock.Advance(5 * time.Second)
	_, err = client.Generate(ctx, "p")
	require.NoError(t, err)

	assert.Equal(t, []time.Duration{2 * time.Second, 500 * time.Millisecond}, clock.Sleeps())

	times := model.CallTimes()
	require.Len(t, times, 4)
	for i := 1; i < len(times); i++ {
		assert.GreaterOrEqual(t, times[i].Sub(times[i-1]), DefaultMinSpacing)
	}

	waits := tt.EventsOf[sqlagent.PacingWaitEvent](sink)
	require.Len(t, waits, 2)
	assert.Equal(t, 2*time.Second, waits[0].Wait)
	assert.Equal(t, 500*time.Millisecond, waits[1].Wait)
}

func TestRateLimited_PacingCountsFromLastSuccess(t *testing.T) {
	clock := sqlagent.NewMockTimeProvider(epoch)
	model := tt.NewMockModel().WithClock(clock).
		AddResponse("a").
		AddError(rateLimitErr("429", 0)).
		AddResponse("b")
	client := NewRateLimited(model).WithTimeProvider(clock)
	ctx := context.Background()

	_, err := client.Generate(ctx, "p")
	require.NoError(t, err)
	text, err := client.Generate(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, "b", text)

	// Pacing before the second call, then backoff; the retry is already far
	// enough from the last success.
	assert.Equal(t, []time.Duration{2 * time.Second, 10 * time.Second}, clock.Sleeps())

	times := model.CallTimes()
	require.Len(t, times, 3)
	assert.Equal(t, epoch, times[0])
	assert.Equal(t, epoch.Add(2*time.Second), times[1])
	assert.Equal(t, epoch.Add(12*time.Second), times[2])
}

func TestRateLimited_Options(t *testing.T) {
	clock := sqlagent.NewMockTimeProvider(epoch)
	model := tt.NewMockModel().
		AddResponse("a").
		AddError(rateLimitErr("429", 0)).
		AddError(rateLimitErr("429", 0)).
		AddError(rateLimitErr("429", 0)).
		AddResponse("b")
	client := NewRateLimited(model).
		WithTimeProvider(clock).
		WithMinSpacing(0).
		WithMaxRetries(4).
		WithBaseBackoff(time.Second)

	ctx := context.Background()
	_, err := client.Generate(ctx, "p")
	require.NoError(t, err)
	text, err := client.Generate(ctx, "p")
	require.NoError(t, err)

	assert.Equal(t, "b", text)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}, clock.Sleeps())
}

func TestRateLimited_ContextCancelled(t *testing.T) {
	clock := sqlagent.NewMockTimeProvider(epoch)
	model := tt.NewMockModel().AddResponses("a", "b")
	client := NewRateLimited(model).WithTimeProvider(clock)

	_, err := client.Generate(context.Background(), "p")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = client.Generate(ctx, "p")

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, model.CallCount())
	assert.Empty(t, clock.Sleeps())
}
