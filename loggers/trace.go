// Package loggers provides trace sinks that record what happens during a run.
package loggers

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/rickchristie/sqlagent"
	"gopkg.in/yaml.v3"
)

const (
	heavyRule = "================================================================================"
	lightRule = "--------------------------------------------------------------------------------"
)

// TraceLogger implements sqlagent.TraceSink and writes every event as a
// timestamped header followed by its details. Structured details are
// written as YAML with block scalars for easy reading. Nothing is
// truncated: model responses and observations are logged in full.
type TraceLogger struct {
	mu    sync.Mutex
	out   io.Writer
	clock sqlagent.TimeProvider
}

// NewTraceLogger creates a TraceLogger that writes to w.
func NewTraceLogger(w io.Writer) *TraceLogger {
	return &TraceLogger{
		out:   w,
		clock: sqlagent.NewDefaultTimeProvider(),
	}
}

// NewConsoleLogger creates a TraceLogger that writes to stdout.
func NewConsoleLogger() *TraceLogger {
	return NewTraceLogger(os.Stdout)
}

// WithTimeProvider sets the clock used for header timestamps.
func (l *TraceLogger) WithTimeProvider(tp sqlagent.TimeProvider) *TraceLogger {
	if tp != nil {
		l.clock = tp
	}
	return l
}

// logEvent logs an event header with timestamp.
func (l *TraceLogger) logEvent(name string) {
	timestamp := l.clock.Format("2006-01-02 15:04:05.000")
	fmt.Fprintf(l.out, "\n>>> [%s]: %s\n", name, timestamp)
}

// log writes a line without any prefix.
func (l *TraceLogger) log(format string, args ...any) {
	fmt.Fprintf(l.out, format+"\n", args...)
}

// logBlock writes text indented under a label, one line at a time.
func (l *TraceLogger) logBlock(label, text string) {
	l.log("%s:", label)
	for _, line := range strings.Split(text, "\n") {
		l.log("  %s", line)
	}
}

func (l *TraceLogger) logYAML(v any) {
	data, err := yaml.Marshal(v)
	if err != nil {
		l.log("(failed to marshal: %v)", err)
		return
	}
	fmt.Fprint(l.out, string(data))
}

// OnEvent implements sqlagent.TraceSink.
func (l *TraceLogger) OnEvent(_ context.Context, event sqlagent.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch e := event.(type) {
	case sqlagent.RunStartedEvent:
		l.logEvent("RunStarted")
		l.log(heavyRule)
		l.log("NEW QUERY: %s", e.Query)
		l.log(heavyRule)
		l.logYAML(map[string]any{
			"run_id":    e.RunID,
			"max_steps": e.MaxSteps,
		})

	case sqlagent.RunFinishedEvent:
		l.logEvent("RunFinished")
		l.log(heavyRule)
		l.log("RUN %s", strings.ToUpper(string(e.State)))
		l.log(heavyRule)
		data := map[string]any{
			"run_id":   e.RunID,
			"state":    string(e.State),
			"steps":    e.Steps,
			"duration": e.Duration.String(),
			"answer":   e.Answer,
		}
		if e.Err != nil {
			data["error"] = e.Err.Error()
		}
		l.logYAML(data)

	case sqlagent.ModelResponseEvent:
		l.logEvent(fmt.Sprintf("ModelResponse step %d (duration: %s)", e.Step, e.Duration))
		l.logBlock("Response", e.Response)

	case sqlagent.ModelUsageEvent:
		l.logEvent(fmt.Sprintf("ModelUsage: %s (duration: %s)", e.Model, e.Duration))
		if e.Err != nil {
			l.log("Error: %v", e.Err)
			return
		}
		l.log("Tokens: input=%d, output=%d, total=%d",
			e.InputTokens, e.OutputTokens, e.TotalTokens)

	case sqlagent.ModelErrorEvent:
		l.logEvent(fmt.Sprintf("ModelError step %d", e.Step))
		l.logYAML(map[string]any{
			"error":        e.Err.Error(),
			"rate_limited": e.RateLimited,
		})

	case sqlagent.ThoughtEvent:
		l.logEvent(fmt.Sprintf("Thought step %d", e.Step))
		l.log(lightRule)
		l.log("STEP %d", e.Step)
		l.log("THOUGHT: %s", e.Thought)

	case sqlagent.ParseErrorEvent:
		l.logEvent(fmt.Sprintf("ParseError step %d", e.Step))
		l.logYAML(map[string]any{
			"kind":     string(e.Kind),
			"reason":   e.Reason,
			"response": e.Response,
		})

	case sqlagent.ActionEvent:
		l.logEvent(fmt.Sprintf("Action step %d: %s", e.Step, e.Tool))
		l.log("Args:")
		if len(e.Params) == 0 {
			l.log("{}")
			return
		}
		l.logYAML(e.Params)

	case sqlagent.ObservationEvent:
		l.logEvent(fmt.Sprintf("Observation step %d: %s (duration: %s)", e.Step, e.Tool, e.Duration))
		l.log("Output:")
		l.logYAML(e.Observation)

	case sqlagent.PacingWaitEvent:
		l.logEvent("PacingWait")
		l.log("Waiting %s to keep the minimum request spacing", e.Wait)

	case sqlagent.RateLimitRetryEvent:
		l.logEvent(fmt.Sprintf("RateLimitRetry %d/%d", e.Attempt, e.MaxAttempts))
		data := map[string]any{
			"delay":     e.Delay.String(),
			"suggested": e.Suggested,
		}
		if e.Err != nil {
			data["error"] = e.Err.Error()
		}
		l.logYAML(data)

	default:
		l.logEvent(event.EventName())
		l.logYAML(event)
	}
}

var _ sqlagent.TraceSink = (*TraceLogger)(nil)
