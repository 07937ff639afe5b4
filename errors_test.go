package sqlagent

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimitError(t *testing.T) {
	upstream := errors.New("googleapi: Error 429: quota exceeded")

	tests := []struct {
		name        string
		err         error
		isRateLimit bool
		message     string
	}{
		{
			name:        "bare rate limit error",
			err:         &RateLimitError{Err: upstream},
			isRateLimit: true,
			message:     "rate limited: googleapi: Error 429: quota exceeded",
		},
		{
			name:        "with retry hint",
			err:         &RateLimitError{Err: upstream, RetryAfter: 27 * time.Second},
			isRateLimit: true,
			message:     "rate limited (retry after 27s): googleapi: Error 429: quota exceeded",
		},
		{
			name:        "wrapped rate limit error",
			err:         fmt.Errorf("generate: %w", &RateLimitError{Err: upstream}),
			isRateLimit: true,
			message:     "generate: rate limited: googleapi: Error 429: quota exceeded",
		},
		{
			name:        "other error",
			err:         errors.New("connection refused"),
			isRateLimit: false,
			message:     "connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.isRateLimit, IsRateLimit(tt.err))
			assert.Equal(t, tt.message, tt.err.Error())
		})
	}

	assert.ErrorIs(t, &RateLimitError{Err: upstream}, upstream)
}

func TestStringArg(t *testing.T) {
	args := map[string]any{
		"table_name": "orders",
		"limit":      float64(5),
		"empty":      nil,
	}

	assert.Equal(t, "orders", StringArg(args, "table_name"))
	assert.Equal(t, "5", StringArg(args, "limit"))
	assert.Equal(t, "", StringArg(args, "empty"))
	assert.Equal(t, "", StringArg(args, "missing"))
	assert.Equal(t, "", StringArg(nil, "missing"))
}
