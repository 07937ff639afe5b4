package sqlagent

// DecisionKind classifies what the model asked for in one step.
type DecisionKind string

const (
	// DecisionThoughtOnly means the response carried reasoning but no action
	// and no answer.
	DecisionThoughtOnly DecisionKind = "thought_only"

	// DecisionToolCall means the response named a tool with decodable
	// arguments.
	DecisionToolCall DecisionKind = "tool_call"

	// DecisionFinalAnswer means the response carried a FINAL ANSWER marker.
	DecisionFinalAnswer DecisionKind = "final_answer"

	// DecisionUnparseable means nothing usable could be extracted.
	DecisionUnparseable DecisionKind = "unparseable"
)

// Decision is the structured interpretation of one model response.
// A Decision is never both a tool call and a final answer.
type Decision struct {
	Kind DecisionKind

	// Thought is the reasoning text after THOUGHT:, empty when absent.
	Thought string

	// Tool and Params are set for DecisionToolCall.
	Tool   string
	Params map[string]any

	// Answer is set for DecisionFinalAnswer.
	Answer string

	// Reason explains a DecisionUnparseable result.
	Reason string
}

// HasThought reports whether the response carried non-empty reasoning.
func (d Decision) HasThought() bool {
	return d.Thought != ""
}
