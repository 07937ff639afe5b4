package loggers

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rickchristie/sqlagent"
)

const metricsNamespace = "sqlagent"

// Metrics is a sqlagent.TraceSink that counts run outcomes, model calls,
// tool calls, parse errors and rate-limit activity in Prometheus metrics.
type Metrics struct {
	runsTotal          *prometheus.CounterVec
	runDuration        prometheus.Histogram
	runSteps           prometheus.Histogram
	modelResponses     prometheus.Counter
	modelErrors        *prometheus.CounterVec
	tokensTotal        *prometheus.CounterVec
	toolCalls          *prometheus.CounterVec
	toolDuration       *prometheus.HistogramVec
	parseErrors        *prometheus.CounterVec
	rateLimitRetries   prometheus.Counter
	pacingWaitSeconds  prometheus.Counter
	backoffWaitSeconds prometheus.Counter
}

// NewMetrics creates the metrics and registers them with reg. It panics if
// they are already registered there.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		// Labels: state (finished, exhausted, aborted)
		runsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "runs_total",
			Help:      "Total runs by terminal state.",
		}, []string{"state"}),
		runDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of a run in seconds.",
			Buckets:   []float64{1, 2, 5, 10, 30, 60, 120, 300},
		}),
		runSteps: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "run_steps",
			Help:      "Model calls made per run.",
			Buckets:   prometheus.LinearBuckets(1, 1, 10),
		}),
		modelResponses: f.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "model",
			Name:      "responses_total",
			Help:      "Total successful model responses.",
		}),
		// Labels: kind (rate_limit, upstream)
		modelErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "model",
			Name:      "errors_total",
			Help:      "Total model failures that aborted a run.",
		}, []string{"kind"}),
		// Labels: model, direction (input, output)
		tokensTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "model",
			Name:      "tokens_total",
			Help:      "Total tokens by model and direction.",
		}, []string{"model", "direction"}),
		// Labels: tool
		toolCalls: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "tool",
			Name:      "calls_total",
			Help:      "Total tool invocations by tool name.",
		}, []string{"tool"}),
		toolDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "tool",
			Name:      "duration_seconds",
			Help:      "Tool invocation time in seconds.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"tool"}),
		// Labels: kind (thought_only, unparseable)
		parseErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "parse_errors_total",
			Help:      "Total responses without a usable action or final answer.",
		}, []string{"kind"}),
		rateLimitRetries: f.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "rate_limit",
			Name:      "retries_total",
			Help:      "Total retries after a rate-limit signal.",
		}),
		pacingWaitSeconds: f.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "rate_limit",
			Name:      "pacing_wait_seconds_total",
			Help:      "Total time spent keeping the minimum request spacing.",
		}),
		backoffWaitSeconds: f.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "rate_limit",
			Name:      "backoff_wait_seconds_total",
			Help:      "Total time spent waiting before rate-limit retries.",
		}),
	}
}

// OnEvent implements sqlagent.TraceSink.
func (m *Metrics) OnEvent(_ context.Context, event sqlagent.Event) {
	switch e := event.(type) {
	case sqlagent.RunFinishedEvent:
		m.runsTotal.WithLabelValues(string(e.State)).Inc()
		m.runDuration.Observe(e.Duration.Seconds())
		m.runSteps.Observe(float64(e.Steps))

	case sqlagent.ModelResponseEvent:
		m.modelResponses.Inc()

	case sqlagent.ModelUsageEvent:
		if e.InputTokens > 0 {
			m.tokensTotal.WithLabelValues(e.Model, "input").Add(float64(e.InputTokens))
		}
		if e.OutputTokens > 0 {
			m.tokensTotal.WithLabelValues(e.Model, "output").Add(float64(e.OutputTokens))
		}

	case sqlagent.ModelErrorEvent:
		kind := "upstream"
		if e.RateLimited {
			kind = "rate_limit"
		}
		m.modelErrors.WithLabelValues(kind).Inc()

	case sqlagent.ObservationEvent:
		m.toolCalls.WithLabelValues(e.Tool).Inc()
		m.toolDuration.WithLabelValues(e.Tool).Observe(e.Duration.Seconds())

	case sqlagent.ParseErrorEvent:
		m.parseErrors.WithLabelValues(string(e.Kind)).Inc()

	case sqlagent.PacingWaitEvent:
		m.pacingWaitSeconds.Add(e.Wait.Seconds())

	case sqlagent.RateLimitRetryEvent:
		m.rateLimitRetries.Inc()
		m.backoffWaitSeconds.Add(e.Delay.Seconds())
	}
}

var _ sqlagent.TraceSink = (*Metrics)(nil)
