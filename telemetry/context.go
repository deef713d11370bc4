package telemetry

import "context"

type runContextKey struct{}

// RunContext carries run metadata through contexts so instrumented
// components can correlate their events to a specific run and round.
type RunContext struct {
	RunID string
	Round int
	Task  string
}

// WithRunContext attaches run metadata to the context.
func WithRunContext(ctx context.Context, run RunContext) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, runContextKey{}, run)
}

// RunContextFrom extracts run metadata, if present.
func RunContextFrom(ctx context.Context) (RunContext, bool) {
	if ctx == nil {
		return RunContext{}, false
	}
	val := ctx.Value(runContextKey{})
	run, ok := val.(RunContext)
	return run, ok
}
