package sqlagent

import "context"

// Model is the language-model capability the agent depends on: one prompt in,
// one text completion out.
//
// Implementations report upstream throttling by returning an error that
// unwraps to *RateLimitError. Any other error is treated as a generic upstream
// failure and aborts the run.
type Model interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ModelFunc adapts a plain function to the Model interface.
type ModelFunc func(ctx context.Context, prompt string) (string, error)

// Generate calls f(ctx, prompt).
func (f ModelFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// Compile-time check that ModelFunc implements Model.
var _ Model = ModelFunc(nil)
