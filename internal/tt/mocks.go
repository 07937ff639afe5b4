package tt

import (
	"context"
	"sync"
	"time"

	"github.com/rickchristie/sqlagent"
	"github.com/tmc/langchaingo/llms"
)

// -----------------------------------------------------------------------------
// MockModel - implements sqlagent.Model
// -----------------------------------------------------------------------------

// MockModel is a scripted sqlagent.Model. Each call consumes the next queued
// response or error. Once the script runs out, it returns DefaultResponse.
type MockModel struct {
	mu        sync.Mutex
	responses []string
	errors    []error
	callCount int
	clock     sqlagent.TimeProvider
	callTimes []time.Time

	// DefaultResponse is returned once the script is exhausted.
	DefaultResponse string

	// CapturedPrompts stores the prompt passed to each Generate call.
	CapturedPrompts []string
}

// NewMockModel creates a MockModel that answers "FINAL ANSWER: done" once its
// script runs out.
func NewMockModel() *MockModel {
	return &MockModel{DefaultResponse: "FINAL ANSWER: done"}
}

// WithClock records the clock's time at every call, see CallTimes.
func (m *MockModel) WithClock(tp sqlagent.TimeProvider) *MockModel {
	m.clock = tp
	return m
}

// AddResponse queues a successful response.
func (m *MockModel) AddResponse(text string) *MockModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, text)
	m.errors = append(m.errors, nil)
	return m
}

// AddResponses queues several successful responses.
func (m *MockModel) AddResponses(texts ...string) *MockModel {
	for _, text := range texts {
		m.AddResponse(text)
	}
	return m
}

// AddError queues a failure for the next call.
func (m *MockModel) AddError(err error) *MockModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, "")
	m.errors = append(m.errors, err)
	return m
}

// CallCount returns the number of times Generate has been called.
func (m *MockModel) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// CallTimes returns the clock reading at each call. Empty unless WithClock
// was used.
func (m *MockModel) CallTimes() []time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]time.Time, len(m.callTimes))
	copy(out, m.callTimes)
	return out
}

// Generate implements sqlagent.Model.
func (m *MockModel) Generate(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.callCount
	m.callCount++
	m.CapturedPrompts = append(m.CapturedPrompts, prompt)
	if m.clock != nil {
		m.callTimes = append(m.callTimes, m.clock.Now())
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if idx < len(m.errors) && m.errors[idx] != nil {
		return "", m.errors[idx]
	}
	if idx < len(m.responses) {
		return m.responses[idx], nil
	}
	return m.DefaultResponse, nil
}

// -----------------------------------------------------------------------------
// MockLLM - implements llms.Model
// -----------------------------------------------------------------------------

// MockLLM is a scripted langchaingo llms.Model used to test the wrappers in
// the models package without a network.
type MockLLM struct {
	responses []*llms.ContentResponse
	errors    []error
	callCount int

	// CapturedMessages stores the messages passed to each GenerateContent
	// call.
	CapturedMessages [][]llms.MessageContent
}

// NewMockLLM creates an empty MockLLM.
func NewMockLLM() *MockLLM {
	return &MockLLM{}
}

// AddResponse queues a single-choice response with the given generation
// info.
func (m *MockLLM) AddResponse(content string, info map[string]any) *MockLLM {
	m.responses = append(m.responses, &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: content, GenerationInfo: info}},
	})
	m.errors = append(m.errors, nil)
	return m
}

// AddRawResponse queues a raw ContentResponse, for example one with no
// choices.
func (m *MockLLM) AddRawResponse(resp *llms.ContentResponse) *MockLLM {
	m.responses = append(m.responses, resp)
	m.errors = append(m.errors, nil)
	return m
}

// AddError queues a failure.
func (m *MockLLM) AddError(err error) *MockLLM {
	m.responses = append(m.responses, nil)
	m.errors = append(m.errors, err)
	return m
}

// CallCount returns the number of GenerateContent calls.
func (m *MockLLM) CallCount() int {
	return m.callCount
}

// GenerateContent implements llms.Model.
func (m *MockLLM) GenerateContent(
	_ context.Context,
	messages []llms.MessageContent,
	_ ...llms.CallOption,
) (*llms.ContentResponse, error) {
	idx := m.callCount
	m.callCount++
	m.CapturedMessages = append(m.CapturedMessages, messages)

	if idx < len(m.errors) && m.errors[idx] != nil {
		return nil, m.errors[idx]
	}
	if idx < len(m.responses) {
		return m.responses[idx], nil
	}
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: "FINAL ANSWER: done"}},
	}, nil
}

// Call implements llms.Model.
func (m *MockLLM) Call(
	ctx context.Context,
	prompt string,
	options ...llms.CallOption,
) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

// -----------------------------------------------------------------------------
// MockTool - implements sqlagent.Tool
// -----------------------------------------------------------------------------

// MockTool is a sqlagent.Tool that records its invocations.
type MockTool struct {
	name        string
	description string
	params      []sqlagent.Parameter
	fn          func(args map[string]any) string

	// Calls stores the arguments of each Invoke call.
	Calls []map[string]any
}

// NewMockTool creates a tool that returns output on every call.
func NewMockTool(name string, output string, params ...sqlagent.Parameter) *MockTool {
	return &MockTool{
		name:        name,
		description: "Mock tool " + name,
		params:      params,
		fn:          func(map[string]any) string { return output },
	}
}

// WithFunc replaces the tool's behavior.
func (t *MockTool) WithFunc(fn func(args map[string]any) string) *MockTool {
	t.fn = fn
	return t
}

// WithDescription sets the tool's description.
func (t *MockTool) WithDescription(desc string) *MockTool {
	t.description = desc
	return t
}

func (t *MockTool) Name() string                     { return t.name }
func (t *MockTool) Description() string              { return t.description }
func (t *MockTool) Parameters() []sqlagent.Parameter { return t.params }

// Invoke implements sqlagent.Tool.
func (t *MockTool) Invoke(_ context.Context, args map[string]any) string {
	t.Calls = append(t.Calls, args)
	return t.fn(args)
}

// Compile-time checks.
var (
	_ sqlagent.Model = (*MockModel)(nil)
	_ llms.Model     = (*MockLLM)(nil)
	_ sqlagent.Tool  = (*MockTool)(nil)
)
