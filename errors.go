package sqlagent

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors shared across packages.
var (
	// ErrRateLimitExceeded is returned by the rate-limited model client once
	// every retry attempt was answered with a rate-limit signal.
	ErrRateLimitExceeded = errors.New("rate limit exceeded")

	// ErrUnknownTool is returned when a tool name is not in the catalog.
	ErrUnknownTool = errors.New("unknown tool")

	// ErrInvalidToolArgs is returned when tool arguments fail validation.
	ErrInvalidToolArgs = errors.New("invalid tool arguments")
)

// RateLimitError marks an upstream failure as a rate-limit or quota signal.
// RetryAfter holds the delay suggested by the upstream, zero when none could
// be read from the failure detail.
type RateLimitError struct {
	Err        error
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited (retry after %s): %v", e.RetryAfter, e.Err)
	}
	return fmt.Sprintf("rate limited: %v", e.Err)
}

func (e *RateLimitError) Unwrap() error {
	return e.Err
}

// IsRateLimit reports whether err carries a rate-limit signal.
func IsRateLimit(err error) bool {
	var rl *RateLimitError
	return errors.As(err, &rl)
}
