package react

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/google/uuid"
	"github.com/rickchristie/sqlagent"
	"github.com/rickchristie/sqlagent/parser"
	"github.com/rickchristie/sqlagent/toolchain"
)

// Defaults for Agent.
const (
	DefaultMaxSteps         = 10
	DefaultTranscriptWindow = 6
)

// Fixed answers for runs that end without a final answer.
const (
	ExhaustedMessage      = "Maximum steps reached. Could not complete the query fully."
	RateLimitedMessage    = "Stopped: rate limit exceeded after retries. Please wait and try again."
	UpstreamFailurePrefix = "Stopped: language model request failed: "
	TemplateFailurePrefix = "Stopped: could not build prompt: "
)

// ParseErrorMessage is appended to the transcript when a response holds
// neither a usable action nor a final answer.
const ParseErrorMessage = `Error: Could not parse action. Please use format: ACTION: tool_name{"param": "value"}`

// Result is the full outcome of one run.
type Result struct {
	// RunID uniquely identifies the run in trace events.
	RunID string

	// Query is the user's question.
	Query string

	// State is the terminal state: finished, exhausted or aborted.
	State sqlagent.RunState

	// Answer is the text returned by Run: the final answer on success,
	// otherwise a fixed explanation.
	Answer string

	// Steps is the number of model calls made.
	Steps int

	// ToolCalls is the number of tools invoked.
	ToolCalls int

	// ParseErrors is the number of responses that could not be parsed.
	ParseErrors int

	// Transcript holds every entry of the run, not just the prompt window.
	Transcript *sqlagent.Transcript

	// Err is the model failure that aborted the run, nil otherwise.
	Err error

	// Duration is the wall time of the run.
	Duration time.Duration
}

// ----------------------------------------------------------------------------
// Agent - ReAct loop over a tool registry
// ----------------------------------------------------------------------------

// Agent runs the ReAct loop for natural-language questions about a
// database, using the tools of a Registry.
//
// The prompt is rebuilt from the template on every step with the tool
// catalog, the user query and the last TranscriptWindow transcript entries.
//
// An Agent may be reused for many runs, one at a time. Each run owns its
// transcript.
type Agent struct {
	model          sqlagent.Model
	registry       *toolchain.Registry
	maxSteps       int
	window         int
	sink           sqlagent.TraceSink
	systemTemplate *template.Template
	timeProvider   sqlagent.TimeProvider
}

// NewAgent creates a new Agent with the given model and tools.
// Defaults:
//   - MaxSteps: 10
//   - TranscriptWindow: 6
//   - TraceSink: sqlagent.NopSink
//   - SystemTemplate: DefaultReActTemplate
//   - TimeProvider: sqlagent.NewDefaultTimeProvider()
func NewAgent(model sqlagent.Model, registry *toolchain.Registry) *Agent {
	if registry == nil {
		registry = toolchain.NewRegistry()
	}
	return &Agent{
		model:          model,
		registry:       registry,
		maxSteps:       DefaultMaxSteps,
		window:         DefaultTranscriptWindow,
		sink:           sqlagent.NopSink,
		systemTemplate: DefaultReActTemplate,
		timeProvider:   sqlagent.NewDefaultTimeProvider(),
	}
}

// WithMaxSteps sets the number of model calls a run may make. Values below
// 1 are treated as 1.
func (a *Agent) WithMaxSteps(n int) *Agent {
	if n < 1 {
		n = 1
	}
	a.maxSteps = n
	return a
}

// WithTranscriptWindow sets how many recent transcript entries go into each
// prompt. Zero shows none.
func (a *Agent) WithTranscriptWindow(n int) *Agent {
	if n < 0 {
		n = 0
	}
	a.window = n
	return a
}

// WithTraceSink sets the sink that receives every event of a run.
func (a *Agent) WithTraceSink(sink sqlagent.TraceSink) *Agent {
	if sink == nil {
		sink = sqlagent.NopSink
	}
	a.sink = sink
	return a
}

// WithSystemTemplate sets a custom prompt template.
// See DefaultReActTemplate for the expected template structure.
func (a *Agent) WithSystemTemplate(tmpl *template.Template) *Agent {
	if tmpl != nil {
		a.systemTemplate = tmpl
	}
	return a
}

// WithSystemTemplateString sets a custom prompt template from a string.
// The string is parsed as a Go text/template with access to PromptData
// fields:
//   - {{.ToolsPrompt}} - one line per tool
//   - {{.Query}} - the user's question
//   - {{.History}} - the rendered transcript window
//
// Example:
//
//	agent.WithSystemTemplateString(`Answer using the tools below.
//	{{.ToolsPrompt}}
//	Question: {{.Query}}
//	{{.History}}`)
//
// Returns error if the template string is invalid.
func (a *Agent) WithSystemTemplateString(tmplStr string) (*Agent, error) {
	tmpl, err := template.New("react_system").Parse(tmplStr)
	if err != nil {
		return a, fmt.Errorf("failed to parse template: %w", err)
	}
	a.systemTemplate = tmpl
	return a, nil
}

// WithTimeProvider sets the time provider.
// Use this to inject a mock time provider for testing.
func (a *Agent) WithTimeProvider(tp sqlagent.TimeProvider) *Agent {
	if tp != nil {
		a.timeProvider = tp
	}
	return a
}

// MaxSteps returns the configured step budget.
func (a *Agent) MaxSteps() int {
	return a.maxSteps
}

// Registry returns the tools the agent dispatches to.
func (a *Agent) Registry() *toolchain.Registry {
	return a.registry
}

// Run answers query and returns the answer text. It never fails: runs that
// end without a final answer return a fixed explanation instead.
func (a *Agent) Run(ctx context.Context, query string) string {
	return a.Execute(ctx, query).Answer
}

// Execute runs the loop for query and returns the full outcome.
//
// Per step:
//  1. Build the prompt and call the model
//  2. Parse the response and record the thought, if any
//  3. Finish on a final answer
//  4. Run the tool of an action and record its observation
//  5. Otherwise record the parse error and continue
func (a *Agent) Execute(ctx context.Context, query string) *Result {
	runID := uuid.NewString()
	ctx = sqlagent.WithRunID(ctx, runID)
	start := a.timeProvider.Now()

	res := &Result{
		RunID:      runID,
		Query:      query,
		State:      sqlagent.RunStateRunning,
		Transcript: sqlagent.NewTranscript(),
	}
	a.sink.OnEvent(ctx, sqlagent.RunStartedEvent{
		RunID:    runID,
		Query:    query,
		MaxSteps: a.maxSteps,
	})

	toolsPrompt := a.registry.AvailableToolsPrompt()

	for step := 1; step <= a.maxSteps; step++ {
		res.Steps = step

		prompt, err := a.buildPrompt(query, toolsPrompt, step, res.Transcript)
		if err != nil {
			return a.finish(ctx, res, start, sqlagent.RunStateAborted,
				TemplateFailurePrefix+err.Error(), err)
		}

		callStart := a.timeProvider.Now()
		response, err := a.model.Generate(ctx, prompt)
		if err != nil {
			rateLimited := errors.Is(err, sqlagent.ErrRateLimitExceeded) || sqlagent.IsRateLimit(err)
			a.sink.OnEvent(ctx, sqlagent.ModelErrorEvent{
				Step:        step,
				Err:         err,
				RateLimited: rateLimited,
			})
			res.Transcript.Append(sqlagent.EntryError, step,
				fmt.Sprintf("Error in step %d: %v", step, err))

			answer := UpstreamFailurePrefix + err.Error()
			if rateLimited {
				answer = RateLimitedMessage
			}
			return a.finish(ctx, res, start, sqlagent.RunStateAborted, answer, err)
		}
		a.sink.OnEvent(ctx, sqlagent.ModelResponseEvent{
			Step:     step,
			Response: response,
			Duration: a.timeProvider.Now().Sub(callStart),
		})

		decision := parser.Parse(response)

		if decision.HasThought() {
			res.Transcript.Append(sqlagent.EntryThought, step, decision.Thought)
			a.sink.OnEvent(ctx, sqlagent.ThoughtEvent{Step: step, Thought: decision.Thought})
		}

		switch decision.Kind {
		case sqlagent.DecisionFinalAnswer:
			res.Transcript.Append(sqlagent.EntryFinalAnswer, step, decision.Answer)
			return a.finish(ctx, res, start, sqlagent.RunStateFinished, decision.Answer, nil)

		case sqlagent.DecisionToolCall:
			a.executeTool(ctx, res, step, decision)

		default:
			res.ParseErrors++
			a.sink.OnEvent(ctx, sqlagent.ParseErrorEvent{
				Step:     step,
				Kind:     decision.Kind,
				Reason:   decision.Reason,
				Response: response,
			})
			res.Transcript.Append(sqlagent.EntryError, step, ParseErrorMessage)
		}
	}

	return a.finish(ctx, res, start, sqlagent.RunStateExhausted, ExhaustedMessage, nil)
}

// buildPrompt renders the template with the current transcript window.
func (a *Agent) buildPrompt(
	query string,
	toolsPrompt string,
	step int,
	transcript *sqlagent.Transcript,
) (string, error) {
	return ExecuteTemplate(a.systemTemplate, PromptData{
		ToolsPrompt: toolsPrompt,
		Query:       query,
		History:     transcript.Render(a.window),
		Step:        step,
		Time:        a.timeProvider,
	})
}

// executeTool records the action, invokes the tool and records the
// observation. Tool failures arrive as observation text.
func (a *Agent) executeTool(
	ctx context.Context,
	res *Result,
	step int,
	decision sqlagent.Decision,
) {
	res.Transcript.Append(sqlagent.EntryAction, step,
		decision.Tool+encodeParams(decision.Params))
	a.sink.OnEvent(ctx, sqlagent.ActionEvent{
		Step:   step,
		Tool:   decision.Tool,
		Params: decision.Params,
	})

	toolStart := a.timeProvider.Now()
	observation := a.registry.Invoke(ctx, decision.Tool, decision.Params)
	res.ToolCalls++

	res.Transcript.Append(sqlagent.EntryObservation, step, observation)
	a.sink.OnEvent(ctx, sqlagent.ObservationEvent{
		Step:        step,
		Tool:        decision.Tool,
		Observation: observation,
		Duration:    a.timeProvider.Now().Sub(toolStart),
	})
}

func (a *Agent) finish(
	ctx context.Context,
	res *Result,
	start time.Time,
	state sqlagent.RunState,
	answer string,
	err error,
) *Result {
	res.State = state
	res.Answer = answer
	res.Err = err
	res.Duration = a.timeProvider.Now().Sub(start)

	a.sink.OnEvent(ctx, sqlagent.RunFinishedEvent{
		RunID:    res.RunID,
		State:    state,
		Answer:   answer,
		Steps:    res.Steps,
		Duration: res.Duration,
		Err:      err,
	})
	return res
}

// encodeParams renders params as compact JSON without HTML escaping, so SQL
// comparison operators stay readable in the transcript.
func encodeParams(params map[string]any) string {
	if params == nil {
		params = map[string]any{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(params); err != nil {
		return "{}"
	}
	return strings.TrimRight(buf.String(), "\n")
}
