package models

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rickchristie/sqlagent"
)

// rateLimitMarkers are matched case-insensitively against upstream error
// text. Providers wrap HTTP 429 and quota exhaustion in many shapes.
var rateLimitMarkers = []string{
	"429",
	"quota",
	"rate limit",
	"ratelimit",
	"rate_limit",
	"resource exhausted",
	"resource_exhausted",
	"too many requests",
}

var (
	retryInPattern    = regexp.MustCompile(`(?i)retry in (\d+(?:\.\d+)?)\s*([a-z]*)`)
	retryDelayPattern = regexp.MustCompile(`(?i)retry_?delay"?\s*[:={]\s*(?:seconds\s*:\s*)?"?(\d+(?:\.\d+)?)\s*([a-z]*)`)
)

// delayUnits are the units a retry hint may carry. Anything else, minutes
// included, is not trusted and leaves the delay to backoff.
var delayUnits = map[string]time.Duration{
	"":        time.Second,
	"s":       time.Second,
	"sec":     time.Second,
	"secs":    time.Second,
	"second":  time.Second,
	"seconds": time.Second,
	"ms":      time.Millisecond,
}

// IsRateLimitMessage reports whether msg looks like a rate-limit or quota
// signal.
func IsRateLimitMessage(msg string) bool {
	lower := strings.ToLower(msg)
	for _, marker := range rateLimitMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// ClassifyError wraps rate-limit failures in *sqlagent.RateLimitError with
// the upstream's suggested delay, when one can be read. Other errors, and
// errors already classified, are returned unchanged.
func ClassifyError(err error) error {
	if err == nil {
		return nil
	}
	var rl *sqlagent.RateLimitError
	if errors.As(err, &rl) {
		return err
	}
	msg := err.Error()
	if !IsRateLimitMessage(msg) {
		return err
	}
	delay, _ := SuggestedDelay(msg)
	return &sqlagent.RateLimitError{Err: err, RetryAfter: delay}
}

// SuggestedDelay extracts a retry hint such as "Please retry in 27.5s" or
// "retryDelay": "27s" from upstream error text. Numbers without a unit are
// seconds.
func SuggestedDelay(msg string) (time.Duration, bool) {
	for _, p := range []*regexp.Regexp{retryInPattern, retryDelayPattern} {
		m := p.FindStringSubmatch(msg)
		if m == nil {
			continue
		}
		value, err := strconv.ParseFloat(m[1], 64)
		if err != nil || value <= 0 {
			continue
		}
		unit, ok := delayUnits[strings.ToLower(m[2])]
		if !ok {
			continue
		}
		return time.Duration(value * float64(unit)), true
	}
	return 0, false
}
