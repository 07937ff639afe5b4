package sqlagent

import "context"

type runIDKey struct{}

// WithRunID returns a context carrying the id of the current run. Components
// that do not know about runs, such as the model client, use it to label the
// events they report.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey{}, runID)
}

// RunIDFromContext returns the run id stored by WithRunID, or "".
func RunIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(runIDKey{}).(string)
	return id
}
