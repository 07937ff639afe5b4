package loggers

import (
	"context"
	"sync"

	"github.com/rickchristie/sqlagent"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the OTel tracer name used by OTel.
const TracerName = "sqlagent"

// OTel is a sqlagent.TraceSink that records each run as one span named
// "sqlagent.run". Steps, tool calls, parse errors and rate-limit waits are
// added as span events. The span ends with the run and carries an error
// status when the run aborted.
type OTel struct {
	tracer trace.Tracer

	mu    sync.Mutex
	spans map[string]trace.Span
}

// NewOTel creates a sink using the global tracer provider.
func NewOTel() *OTel {
	return NewOTelWithProvider(otel.GetTracerProvider())
}

// NewOTelWithProvider creates a sink using tp.
func NewOTelWithProvider(tp trace.TracerProvider) *OTel {
	return &OTel{
		tracer: tp.Tracer(TracerName),
		spans:  make(map[string]trace.Span),
	}
}

// OnEvent implements sqlagent.TraceSink.
func (o *OTel) OnEvent(ctx context.Context, event sqlagent.Event) {
	if e, ok := event.(sqlagent.RunStartedEvent); ok {
		_, span := o.tracer.Start(ctx, "sqlagent.run",
			trace.WithAttributes(
				attribute.String("sqlagent.run_id", e.RunID),
				attribute.String("sqlagent.query", e.Query),
				attribute.Int("sqlagent.max_steps", e.MaxSteps),
			),
		)
		o.mu.Lock()
		o.spans[e.RunID] = span
		o.mu.Unlock()
		return
	}

	runID := sqlagent.RunIDFromContext(ctx)
	if e, ok := event.(sqlagent.RunFinishedEvent); ok {
		runID = e.RunID
	}

	o.mu.Lock()
	span, ok := o.spans[runID]
	if ok {
		if _, finished := event.(sqlagent.RunFinishedEvent); finished {
			delete(o.spans, runID)
		}
	}
	o.mu.Unlock()
	if !ok {
		return
	}

	switch e := event.(type) {
	case sqlagent.RunFinishedEvent:
		span.SetAttributes(
			attribute.String("sqlagent.state", string(e.State)),
			attribute.Int("sqlagent.steps", e.Steps),
		)
		if e.Err != nil {
			span.RecordError(e.Err)
			span.SetStatus(codes.Error, e.Err.Error())
		} else if e.State == sqlagent.RunStateExhausted {
			span.SetStatus(codes.Error, e.Answer)
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.End()

	case sqlagent.ModelResponseEvent:
		span.AddEvent("model.response", trace.WithAttributes(
			attribute.Int("step", e.Step),
			attribute.Int64("duration_ms", e.Duration.Milliseconds()),
		))

	case sqlagent.ModelUsageEvent:
		span.AddEvent("model.usage", trace.WithAttributes(
			attribute.String("model", e.Model),
			attribute.Int("input_tokens", e.InputTokens),
			attribute.Int("output_tokens", e.OutputTokens),
			attribute.Int("total_tokens", e.TotalTokens),
		))

	case sqlagent.ModelErrorEvent:
		span.AddEvent("model.error", trace.WithAttributes(
			attribute.Int("step", e.Step),
			attribute.Bool("rate_limited", e.RateLimited),
			attribute.String("error", e.Err.Error()),
		))

	case sqlagent.ThoughtEvent:
		span.AddEvent("thought", trace.WithAttributes(
			attribute.Int("step", e.Step),
			attribute.String("text", e.Thought),
		))

	case sqlagent.ParseErrorEvent:
		span.AddEvent("parse_error", trace.WithAttributes(
			attribute.Int("step", e.Step),
			attribute.String("kind", string(e.Kind)),
			attribute.String("reason", e.Reason),
		))

	case sqlagent.ActionEvent:
		span.AddEvent("tool.action", trace.WithAttributes(
			attribute.Int("step", e.Step),
			attribute.String("tool", e.Tool),
		))

	case sqlagent.ObservationEvent:
		span.AddEvent("tool.observation", trace.WithAttributes(
			attribute.Int("step", e.Step),
			attribute.String("tool", e.Tool),
			attribute.Int("length", len(e.Observation)),
			attribute.Int64("duration_ms", e.Duration.Milliseconds()),
		))

	case sqlagent.PacingWaitEvent:
		span.AddEvent("rate_limit.pacing", trace.WithAttributes(
			attribute.Int64("wait_ms", e.Wait.Milliseconds()),
		))

	case sqlagent.RateLimitRetryEvent:
		span.AddEvent("rate_limit.retry", trace.WithAttributes(
			attribute.Int("attempt", e.Attempt),
			attribute.Int("max_attempts", e.MaxAttempts),
			attribute.Int64("delay_ms", e.Delay.Milliseconds()),
			attribute.Bool("suggested", e.Suggested),
		))
	}
}

var _ sqlagent.TraceSink = (*OTel)(nil)
