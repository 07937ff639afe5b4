package models

import (
	"context"
	"errors"
	"time"

	"github.com/rickchristie/sqlagent"
	"github.com/tmc/langchaingo/llms"
)

// LCGWrapper wraps an llms.Model and implements sqlagent.Model.
// It sends the prompt as a single human message, classifies rate-limit
// failures as *sqlagent.RateLimitError and reports normalized token usage to
// an optional trace sink.
//
// Example usage:
//
//	llm, _ := googleai.New(ctx, googleai.WithAPIKey(apiKey))
//	model := models.NewLCGWrapper(llm).WithModelName("gemini-2.5-flash")
//
//	text, err := model.Generate(ctx, prompt)
type LCGWrapper struct {
	model     llms.Model
	modelName string
	sink      sqlagent.TraceSink
	options   []llms.CallOption
	classify  func(error) error
}

// NewLCGWrapper creates a new LCGWrapper wrapping the given llms.Model.
func NewLCGWrapper(model llms.Model) *LCGWrapper {
	return &LCGWrapper{
		model:    model,
		sink:     sqlagent.NopSink,
		classify: ClassifyError,
	}
}

// WithModelName sets the model name used in usage events.
// Returns the model for chaining.
func (m *LCGWrapper) WithModelName(name string) *LCGWrapper {
	m.modelName = name
	return m
}

// WithTraceSink sets the sink that receives ModelUsageEvent after every call.
func (m *LCGWrapper) WithTraceSink(sink sqlagent.TraceSink) *LCGWrapper {
	if sink == nil {
		sink = sqlagent.NopSink
	}
	m.sink = sink
	return m
}

// WithCallOptions sets options passed to every upstream call, such as
// llms.WithTemperature.
func (m *LCGWrapper) WithCallOptions(opts ...llms.CallOption) *LCGWrapper {
	m.options = opts
	return m
}

// WithErrorClassifier replaces ClassifyError as the hook that turns upstream
// failures into *sqlagent.RateLimitError. Providers that see more than the
// error text, such as response headers, use it to attach a typed RetryAfter.
func (m *LCGWrapper) WithErrorClassifier(fn func(error) error) *LCGWrapper {
	if fn == nil {
		fn = ClassifyError
	}
	m.classify = fn
	return m
}

// ModelName returns the configured model name.
func (m *LCGWrapper) ModelName() string {
	return m.modelName
}

// Unwrap returns the underlying llms.Model.
func (m *LCGWrapper) Unwrap() llms.Model {
	return m.model
}

// Generate implements sqlagent.Model.
func (m *LCGWrapper) Generate(ctx context.Context, prompt string) (string, error) {
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}

	start := time.Now()
	resp, err := m.model.GenerateContent(ctx, messages, m.options...)
	duration := time.Since(start)

	usage := sqlagent.ModelUsageEvent{
		Model:    m.modelName,
		Duration: duration,
		Err:      err,
	}
	if resp != nil && len(resp.Choices) > 0 && resp.Choices[0].GenerationInfo != nil {
		info := resp.Choices[0].GenerationInfo
		usage.InputTokens = extractInputTokens(info)
		usage.OutputTokens = extractOutputTokens(info)
		usage.TotalTokens = extractTotalTokens(info, usage.InputTokens, usage.OutputTokens)
	}
	m.sink.OnEvent(ctx, usage)

	if err != nil {
		return "", m.classify(err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", errors.New("model returned no choices")
	}
	return resp.Choices[0].Content, nil
}

// extractInputTokens extracts input/prompt token count from GenerationInfo.
// Handles different key names used by different providers.
func extractInputTokens(info map[string]any) int {
	// OpenAI / Ollama / Google (compat)
	if v := getIntFromMap(info, "PromptTokens"); v > 0 {
		return v
	}
	// Anthropic
	if v := getIntFromMap(info, "InputTokens"); v > 0 {
		return v
	}
	// Google
	if v := getIntFromMap(info, "input_tokens"); v > 0 {
		return v
	}
	return 0
}

// extractOutputTokens extracts output/completion token count from GenerationInfo.
func extractOutputTokens(info map[string]any) int {
	// OpenAI / Ollama / Google (compat)
	if v := getIntFromMap(info, "CompletionTokens"); v > 0 {
		return v
	}
	// Anthropic
	if v := getIntFromMap(info, "OutputTokens"); v > 0 {
		return v
	}
	// Google
	if v := getIntFromMap(info, "output_tokens"); v > 0 {
		return v
	}
	return 0
}

// extractTotalTokens extracts total token count or computes it.
func extractTotalTokens(info map[string]any, input, output int) int {
	if v := getIntFromMap(info, "TotalTokens"); v > 0 {
		return v
	}
	if v := getIntFromMap(info, "total_tokens"); v > 0 {
		return v
	}
	return input + output
}

// getIntFromMap extracts an int value from a map, handling various numeric types.
func getIntFromMap(m map[string]any, key string) int {
	v, ok := m[key]
	if !ok {
		return 0
	}
	switch n := v.(type) {
	case int:
		return n
	case int32:
		return int(n)
	case int64:
		return int(n)
	case float64:
		return int(n)
	case float32:
		return int(n)
	default:
		return 0
	}
}

// Compile-time check that LCGWrapper implements sqlagent.Model.
var _ sqlagent.Model = (*LCGWrapper)(nil)
