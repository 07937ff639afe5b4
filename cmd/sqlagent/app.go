package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rickchristie/sqlagent"
	"github.com/rickchristie/sqlagent/agents/react"
	"github.com/rickchristie/sqlagent/dbtools"
	"github.com/rickchristie/sqlagent/internal/config"
	"github.com/rickchristie/sqlagent/loggers"
	"github.com/rickchristie/sqlagent/models"
	"github.com/rickchristie/sqlagent/store"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// otelSpanFile is the file spans are exported to when --otel is set.
const otelSpanFile = "otel_spans.json"

// app holds everything a subcommand needs for one process.
type app struct {
	cfg    *config.Config
	log    *slog.Logger
	store  *store.SQL
	agent  *react.Agent
	limit  *models.RateLimited
	sink   *switchSink
	static []sqlagent.TraceSink

	closers []func(context.Context) error
}

// newApp loads configuration and wires store, model client, tools and agent.
// The sample SQLite database is created when the configured file is missing.
func newApp(ctx context.Context, opts *rootOptions) (*app, error) {
	level := slog.LevelInfo
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr,
		&slog.HandlerOptions{Level: level}))

	cfg, err := opts.loadConfig()
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:  cfg,
		log:  logger,
		sink: &switchSink{},
	}

	if err := a.ensureSampleDatabase(ctx); err != nil {
		return nil, err
	}

	a.store, err = store.Open(ctx, cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func(context.Context) error {
		return a.store.Close()
	})

	if opts.otel {
		if err := a.setupOTel(); err != nil {
			a.Close()
			return nil, err
		}
	}
	if opts.metricsAddr != "" {
		a.setupMetrics(opts.metricsAddr)
	}

	llm, err := models.New(ctx, cfg.ProviderConfig())
	if err != nil {
		a.Close()
		return nil, err
	}
	llm.WithTraceSink(a.sink)

	a.limit = models.NewRateLimited(llm).
		WithMinSpacing(cfg.RateLimit.MinSpacing).
		WithMaxRetries(cfg.RateLimit.MaxRetries).
		WithBaseBackoff(cfg.RateLimit.BaseBackoff).
		WithTraceSink(a.sink)

	a.agent = react.NewAgent(a.limit, dbtools.NewRegistry(a.store)).
		WithMaxSteps(cfg.Agent.MaxSteps).
		WithTranscriptWindow(cfg.Agent.TranscriptWindow).
		WithTraceSink(a.sink)

	logger.Debug("agent ready",
		"provider", cfg.Model.Provider,
		"model", cfg.ModelName(),
		"driver", cfg.Database.Driver,
		"max_steps", cfg.Agent.MaxSteps)

	a.routeTrace(nil)
	return a, nil
}

func (a *app) ensureSampleDatabase(ctx context.Context) error {
	if a.cfg.Database.Driver != store.DriverSQLite {
		return nil
	}
	dsn := a.cfg.Database.DSN
	if dsn == ":memory:" || strings.HasPrefix(dsn, "file:") {
		return nil
	}
	if _, err := os.Stat(dsn); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat %s: %w", dsn, err)
	}

	a.log.Info("creating sample database", "path", dsn)
	return store.CreateSampleDatabase(ctx, dsn)
}

func (a *app) setupOTel() error {
	f, path, err := loggers.CreateTraceFile(a.cfg.Trace.Dir, otelSpanFile)
	if err != nil {
		return err
	}
	exporter, err := stdouttrace.New(
		stdouttrace.WithWriter(f),
		stdouttrace.WithPrettyPrint(),
	)
	if err != nil {
		f.Close()
		return fmt.Errorf("create span exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
	otel.SetTracerProvider(tp)
	a.static = append(a.static, loggers.NewOTelWithProvider(tp))

	// Flush spans before the file is closed.
	a.closers = append(a.closers,
		func(ctx context.Context) error { return f.Close() },
		tp.Shutdown,
	)
	a.log.Info("exporting spans", "path", path)
	return nil
}

func (a *app) setupMetrics(addr string) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	a.static = append(a.static, loggers.NewMetrics(reg))

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil &&
			!errors.Is(err, http.ErrServerClosed) {
			a.log.Error("metrics server stopped", "error", err)
		}
	}()
	a.closers = append(a.closers, srv.Shutdown)
	a.log.Info("serving metrics", "addr", addr)
}

// routeTrace sends subsequent events to the process-wide sinks, the console
// when enabled, and w when it is not nil.
func (a *app) routeTrace(w io.Writer) {
	sinks := append([]sqlagent.TraceSink{}, a.static...)
	if a.cfg.Trace.Console {
		sinks = append(sinks, loggers.NewConsoleLogger())
	}
	if w != nil {
		sinks = append(sinks, loggers.NewTraceLogger(w))
	}
	a.sink.Set(loggers.Multi(sinks...))
}

// openTrace creates a trace file in the configured directory and routes
// events to it. The returned function restores the default routing and
// closes the file.
func (a *app) openTrace(name string) (string, func() error, error) {
	f, path, err := loggers.CreateTraceFile(a.cfg.Trace.Dir, name)
	if err != nil {
		return "", nil, err
	}
	a.routeTrace(f)
	return path, func() error {
		a.routeTrace(nil)
		return f.Close()
	}, nil
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// switchSink forwards events to a sink that can be replaced between runs.
// The model client and the agent hold the switchSink; each command decides
// where the events of the next run go.
type switchSink struct {
	mu   sync.RWMutex
	sink sqlagent.TraceSink
}

// Set replaces the target sink. nil discards events.
func (s *switchSink) Set(sink sqlagent.TraceSink) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sink = sink
}

func (s *switchSink) OnEvent(ctx context.Context, event sqlagent.Event) {
	s.mu.RLock()
	sink := s.sink
	s.mu.RUnlock()
	if sink != nil {
		sink.OnEvent(ctx, event)
	}
}

var _ sqlagent.TraceSink = (*switchSink)(nil)

// isRateLimitAbort reports whether a run stopped because the model client
// gave up on rate limiting.
func isRateLimitAbort(res *react.Result) bool {
	if res == nil || res.State != sqlagent.RunStateAborted || res.Err == nil {
		return false
	}
	return errors.Is(res.Err, sqlagent.ErrRateLimitExceeded) ||
		sqlagent.IsRateLimit(res.Err)
}

func printRule(w io.Writer, ch string) {
	fmt.Fprintln(w, strings.Repeat(ch, 70))
}

func printTitle(w io.Writer, title string) {
	printRule(w, "=")
	pad := (70 - len(title)) / 2
	if pad < 0 {
		pad = 0
	}
	fmt.Fprintf(w, "%s%s%s%s\n",
		colorBold, strings.Repeat(" ", pad), title, colorReset)
	printRule(w, "=")
}
