package sqlagent

import (
	"context"
	"time"
)

// Event is a trace event reported to a TraceSink.
type Event interface {
	EventName() string
}

// RunState is the lifecycle state of a run.
type RunState string

const (
	RunStateRunning   RunState = "running"
	RunStateFinished  RunState = "finished"
	RunStateExhausted RunState = "exhausted"
	RunStateAborted   RunState = "aborted"
)

// -----------------------------------------------------------------------------
// Run lifecycle
// -----------------------------------------------------------------------------

// RunStartedEvent is reported once before the first model call.
type RunStartedEvent struct {
	RunID    string
	Query    string
	MaxSteps int
}

func (RunStartedEvent) EventName() string { return EventNameRunStarted }

// RunFinishedEvent is reported once when the run reaches a terminal state.
type RunFinishedEvent struct {
	RunID    string
	State    RunState
	Answer   string
	Steps    int
	Duration time.Duration
	Err      error
}

func (RunFinishedEvent) EventName() string { return EventNameRunFinished }

// -----------------------------------------------------------------------------
// Model output
// -----------------------------------------------------------------------------

// ModelResponseEvent carries the raw text of one model call.
type ModelResponseEvent struct {
	Step     int
	Response string
	Duration time.Duration
}

func (ModelResponseEvent) EventName() string { return EventNameModelResponse }

// ModelUsageEvent reports normalized token usage of one upstream call.
type ModelUsageEvent struct {
	Model        string
	InputTokens  int
	OutputTokens int
	TotalTokens  int
	Duration     time.Duration
	Err          error
}

func (ModelUsageEvent) EventName() string { return EventNameModelUsage }

// ModelErrorEvent is reported when the model client gives up on a call.
type ModelErrorEvent struct {
	Step        int
	Err         error
	RateLimited bool
}

func (ModelErrorEvent) EventName() string { return EventNameModelError }

// ThoughtEvent carries the reasoning extracted from a response.
type ThoughtEvent struct {
	Step    int
	Thought string
}

func (ThoughtEvent) EventName() string { return EventNameThought }

// ParseErrorEvent is reported when a response held neither a usable action
// nor a final answer.
type ParseErrorEvent struct {
	Step     int
	Kind     DecisionKind
	Reason   string
	Response string
}

func (ParseErrorEvent) EventName() string { return EventNameParseError }

// -----------------------------------------------------------------------------
// Tool calls
// -----------------------------------------------------------------------------

// ActionEvent is reported before a tool is invoked.
type ActionEvent struct {
	Step   int
	Tool   string
	Params map[string]any
}

func (ActionEvent) EventName() string { return EventNameToolAction }

// ObservationEvent carries the text a tool produced.
type ObservationEvent struct {
	Step        int
	Tool        string
	Observation string
	Duration    time.Duration
}

func (ObservationEvent) EventName() string { return EventNameToolObservation }

// -----------------------------------------------------------------------------
// Request pacing
// -----------------------------------------------------------------------------

// PacingWaitEvent is reported before the client sleeps to keep the minimum
// spacing between requests.
type PacingWaitEvent struct {
	Wait time.Duration
}

func (PacingWaitEvent) EventName() string { return EventNamePacingWait }

// RateLimitRetryEvent is reported before the client sleeps ahead of a retry.
// Suggested is true when Delay came from the upstream's retry hint.
type RateLimitRetryEvent struct {
	Attempt     int
	MaxAttempts int
	Delay       time.Duration
	Suggested   bool
	Err         error
}

func (RateLimitRetryEvent) EventName() string { return EventNameRateLimitRetry }

// -----------------------------------------------------------------------------
// Sinks
// -----------------------------------------------------------------------------

// TraceSink receives every event of a run. Sinks observe only; the agent's
// control flow never depends on them.
type TraceSink interface {
	OnEvent(ctx context.Context, event Event)
}

// TraceSinkFunc adapts a function to the TraceSink interface.
type TraceSinkFunc func(ctx context.Context, event Event)

// OnEvent calls f(ctx, event).
func (f TraceSinkFunc) OnEvent(ctx context.Context, event Event) {
	f(ctx, event)
}

type nopSink struct{}

func (nopSink) OnEvent(context.Context, Event) {}

// NopSink discards every event.
var NopSink TraceSink = nopSink{}

// Compile-time checks that event types implement Event.
var (
	_ Event = RunStartedEvent{}
	_ Event = RunFinishedEvent{}
	_ Event = ModelResponseEvent{}
	_ Event = ModelUsageEvent{}
	_ Event = ModelErrorEvent{}
	_ Event = ThoughtEvent{}
	_ Event = ParseErrorEvent{}
	_ Event = ActionEvent{}
	_ Event = ObservationEvent{}
	_ Event = PacingWaitEvent{}
	_ Event = RateLimitRetryEvent{}
)
