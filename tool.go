package sqlagent

import (
	"context"
	"fmt"
)

// Parameter describes one named argument a tool accepts.
type Parameter struct {
	Name        string
	Description string
}

// Tool is a named, described, invocable unit exposed to the model.
//
// Responsibility design:
//   - Tool: execute its logic and describe the outcome as text
//   - Registry (toolchain package): advertise tools, validate arguments, dispatch by name
//
// Invoke never returns an error. Every failure, including store faults and
// rejected input, is reported as text so the model can observe it and retry.
type Tool interface {
	// Name returns the tool's identifier used after ACTION:.
	Name() string

	// Description returns a human-readable description for the model.
	Description() string

	// Parameters returns the ordered parameter list. Nil when the tool takes
	// no parameters.
	Parameters() []Parameter

	// Invoke runs the tool with already-validated arguments.
	Invoke(ctx context.Context, args map[string]any) string
}

// ToolFunc is a convenience type for creating tools from functions.
type ToolFunc struct {
	name        string
	description string
	params      []Parameter
	fn          func(ctx context.Context, args map[string]any) string
}

// NewToolFunc creates a Tool backed by fn.
func NewToolFunc(
	name, description string,
	params []Parameter,
	fn func(ctx context.Context, args map[string]any) string,
) *ToolFunc {
	return &ToolFunc{
		name:        name,
		description: description,
		params:      params,
		fn:          fn,
	}
}

// Name returns the tool's identifier.
func (t *ToolFunc) Name() string {
	return t.name
}

// Description returns a human-readable description for the model.
func (t *ToolFunc) Description() string {
	return t.description
}

// Parameters returns the tool's parameter list.
func (t *ToolFunc) Parameters() []Parameter {
	return t.params
}

// Invoke executes the tool function.
func (t *ToolFunc) Invoke(ctx context.Context, args map[string]any) string {
	return t.fn(ctx, args)
}

// StringArg returns args[name] as a string. Non-string values are rendered with
// fmt so a model that sends a number where text is expected still gets a
// usable value. Missing keys yield "".
func StringArg(args map[string]any, name string) string {
	v, ok := args[name]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Compile-time check that ToolFunc implements Tool.
var _ Tool = (*ToolFunc)(nil)
