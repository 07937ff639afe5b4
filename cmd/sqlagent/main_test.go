package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/chzyer/readline"
	"github.com/rickchristie/sqlagent"
	"github.com/rickchristie/sqlagent/agents/react"
	"github.com/rickchristie/sqlagent/dbtools"
	"github.com/rickchristie/sqlagent/internal/config"
	"github.com/rickchristie/sqlagent/internal/tt"
	"github.com/rickchristie/sqlagent/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T, model sqlagent.Model) *app {
	t.Helper()
	ctx := context.Background()

	s, err := store.Open(ctx, store.DriverSQLite, ":memory:")
	require.NoError(t, err)
	require.NoError(t, store.SeedSample(ctx, s))
	t.Cleanup(func() { s.Close() })

	cfg := config.Default()
	cfg.Trace.Dir = t.TempDir()
	cfg.Trace.Console = false

	a := &app{
		cfg:   cfg,
		log:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		store: s,
		sink:  &switchSink{},
	}
	a.agent = react.NewAgent(model, dbtools.NewRegistry(s)).WithTraceSink(a.sink)
	a.routeTrace(nil)
	return a
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(b)
}

func TestRunTraces(t *testing.T) {
	model := tt.NewMockModel()
	a := newTestApp(t, model)
	clock := sqlagent.NewMockTimeProvider(time.Date(2024, 3, 9, 14, 0, 0, 0, time.UTC))

	var out strings.Builder
	err := runTraces(context.Background(), a, &out, 10*time.Second, clock)
	require.NoError(t, err)

	assert.Equal(t, len(exampleRuns), model.CallCount())
	assert.Equal(t, []time.Duration{10 * time.Second, 10 * time.Second}, clock.Sleeps())

	for _, ex := range exampleRuns {
		content := readFile(t, filepath.Join(a.cfg.Trace.Dir, ex.fileName))
		assert.Contains(t, content, "NEW QUERY: "+ex.query)
		assert.Contains(t, content, "RUN FINISHED")
	}
	assert.Contains(t, out.String(), "TRACE GENERATION COMPLETE")
}

func TestRunTraces_StopsOnRateLimit(t *testing.T) {
	model := tt.NewMockModel().
		AddError(fmt.Errorf("%w after 3 attempts: quota", sqlagent.ErrRateLimitExceeded))
	a := newTestApp(t, model)
	clock := sqlagent.NewMockTimeProvider(time.Date(2024, 3, 9, 14, 0, 0, 0, time.UTC))

	var out strings.Builder
	err := runTraces(context.Background(), a, &out, 10*time.Second, clock)
	require.NoError(t, err)

	assert.Equal(t, 1, model.CallCount())
	assert.Empty(t, clock.Sleeps())
	assert.Contains(t, out.String(), "Rate limit hit")

	_, err = os.Stat(filepath.Join(a.cfg.Trace.Dir, exampleRuns[1].fileName))
	assert.True(t, os.IsNotExist(err))

	content := readFile(t, filepath.Join(a.cfg.Trace.Dir, exampleRuns[0].fileName))
	assert.Contains(t, content, "RUN ABORTED")
}

func TestRunAsk_DefaultQuery(t *testing.T) {
	model := tt.NewMockModel().AddResponses(
		`THOUGHT: count them
ACTION: query_database{"query": "SELECT COUNT(*) FROM customers"}`,
		"FINAL ANSWER: There are 5 customers.",
	)
	a := newTestApp(t, model)
	now := time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)

	require.NoError(t, runAsk(context.Background(), a, "", now))

	path := filepath.Join(a.cfg.Trace.Dir, "trace_default_20240309_140507.txt")
	content := readFile(t, path)
	assert.Contains(t, content, "NEW QUERY: "+DefaultQuery)
	assert.Contains(t, content, "There are 5 customers.")
	assert.Contains(t, tt.PromptHistory(model.CapturedPrompts[1]), "OBSERVATION:")
}

type scriptedReader struct {
	lines []string
	err   error
}

func (r *scriptedReader) Readline() (string, error) {
	if len(r.lines) == 0 {
		return "", r.err
	}
	line := r.lines[0]
	r.lines = r.lines[1:]
	return line, nil
}

func TestRunChat(t *testing.T) {
	type input struct {
		lines []string
		err   error
	}

	type expected struct {
		calls  int
		output []string
	}

	tests := []struct {
		name     string
		input    input
		expected expected
	}{
		{
			name:  "quit after two questions",
			input: input{lines: []string{"How many orders?", "", "  Who spent most?  ", "q"}},
			expected: expected{
				calls:  2,
				output: []string{"INTERACTIVE MODE", "Result:", "Goodbye!", "Session ended. Log saved to:"},
			},
		},
		{
			name:  "interrupt ends session",
			input: input{lines: []string{"How many orders?"}, err: readline.ErrInterrupt},
			expected: expected{
				calls:  1,
				output: []string{"Goodbye!"},
			},
		},
		{
			name:  "eof ends session",
			input: input{err: io.EOF},
			expected: expected{
				calls:  0,
				output: []string{"Goodbye!"},
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			model := tt.NewMockModel()
			a := newTestApp(t, model)

			var out strings.Builder
			err := runChat(context.Background(), a,
				&scriptedReader{lines: tc.input.lines, err: tc.input.err}, &out)
			require.NoError(t, err)

			assert.Equal(t, tc.expected.calls, model.CallCount())
			for _, s := range tc.expected.output {
				assert.Contains(t, out.String(), s)
			}

			entries, err := os.ReadDir(a.cfg.Trace.Dir)
			require.NoError(t, err)
			require.Len(t, entries, 1)
			assert.True(t, strings.HasPrefix(entries[0].Name(), "trace_default_"))
		})
	}
}

func TestRunChat_ReadError(t *testing.T) {
	a := newTestApp(t, tt.NewMockModel())
	var out strings.Builder
	err := runChat(context.Background(), a,
		&scriptedReader{err: fmt.Errorf("tty gone")}, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read input")
}

func TestSwitchSink(t *testing.T) {
	s := &switchSink{}
	s.OnEvent(context.Background(), sqlagent.PacingWaitEvent{Wait: time.Second})

	first := tt.NewRecordingSink()
	second := tt.NewRecordingSink()

	s.Set(first)
	s.OnEvent(context.Background(), sqlagent.PacingWaitEvent{Wait: time.Second})
	s.Set(second)
	s.OnEvent(context.Background(), sqlagent.ThoughtEvent{Step: 1, Thought: "x"})

	assert.Equal(t, []string{sqlagent.EventNamePacingWait}, first.Names())
	assert.Equal(t, []string{sqlagent.EventNameThought}, second.Names())
}

func TestIsRateLimitAbort(t *testing.T) {
	tests := []struct {
		name     string
		input    *react.Result
		expected bool
	}{
		{"nil", nil, false},
		{"finished", &react.Result{State: sqlagent.RunStateFinished}, false},
		{
			"exhausted retries",
			&react.Result{
				State: sqlagent.RunStateAborted,
				Err:   fmt.Errorf("%w after 3 attempts: x", sqlagent.ErrRateLimitExceeded),
			},
			true,
		},
		{
			"raw rate limit error",
			&react.Result{
				State: sqlagent.RunStateAborted,
				Err:   &sqlagent.RateLimitError{Err: fmt.Errorf("429")},
			},
			true,
		},
		{
			"upstream failure",
			&react.Result{State: sqlagent.RunStateAborted, Err: fmt.Errorf("boom")},
			false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, isRateLimitAbort(tc.input))
		})
	}
}

func TestIsQuit(t *testing.T) {
	for _, in := range []string{"q", "Q", "quit", "EXIT"} {
		assert.True(t, isQuit(in), in)
	}
	for _, in := range []string{"", "quitting", "how many?"} {
		assert.False(t, isQuit(in), in)
	}
}

func TestRootCmd_Subcommands(t *testing.T) {
	cmd := rootCmd()
	var names []string
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"ask", "chat", "seed", "traces"}, names)

	for _, flag := range []string{"config", "env", "verbose", "otel", "metrics-addr"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(flag), flag)
	}
}

func TestSeedCmd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seeded.db")

	cmd := rootCmd()
	cmd.SetArgs([]string{"seed", "--env", "", path})
	cmd.SetOut(io.Discard)
	require.NoError(t, cmd.Execute())

	s, err := store.Open(context.Background(), store.DriverSQLite, path)
	require.NoError(t, err)
	defer s.Close()

	tables, err := s.TableNames(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"customers", "orders"}, tables)
}
