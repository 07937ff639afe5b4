package toolchain

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rickchristie/sqlagent"
	"github.com/rickchristie/sqlagent/schema"
)

// Registry is an ordered catalog of tools keyed by unique name.
type Registry struct {
	tools     []sqlagent.Tool
	toolMap   map[string]sqlagent.Tool
	schemaMap map[string]*schema.Schema
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		toolMap:   make(map[string]sqlagent.Tool),
		schemaMap: make(map[string]*schema.Schema),
	}
}

// RegisterTool adds a tool to the catalog and compiles the schema used to
// validate its arguments. Every declared parameter is a required string.
//
// Registering a nil tool, an empty name or a duplicate name panics: the
// catalog is assembled at construction time and such a catalog is a
// programming error.
func (r *Registry) RegisterTool(tool sqlagent.Tool) *Registry {
	if tool == nil {
		panic("toolchain: nil tool")
	}
	name := tool.Name()
	if name == "" {
		panic("toolchain: tool with empty name")
	}
	if _, exists := r.toolMap[name]; exists {
		panic(fmt.Sprintf("toolchain: duplicate tool name %q", name))
	}

	compiled := schema.MustCompile(ParameterSchema(tool.Parameters()))

	r.tools = append(r.tools, tool)
	r.toolMap[name] = tool
	r.schemaMap[name] = compiled
	return r
}

// ParameterSchema builds the JSON Schema for a tool's parameter list.
func ParameterSchema(params []sqlagent.Parameter) map[string]any {
	props := make(map[string]*schema.Property, len(params))
	required := make([]string, 0, len(params))
	for _, p := range params {
		props[p.Name] = schema.String(p.Description).MinLength(1)
		required = append(required, p.Name)
	}
	return schema.Object(props, required...)
}

// Tools returns the registered tools in registration order.
func (r *Registry) Tools() []sqlagent.Tool {
	out := make([]sqlagent.Tool, len(r.tools))
	copy(out, r.tools)
	return out
}

// Names returns the registered tool names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.tools))
	for i, t := range r.tools {
		names[i] = t.Name()
	}
	return names
}

// Get returns the tool registered under name.
func (r *Registry) Get(name string) (sqlagent.Tool, bool) {
	t, ok := r.toolMap[name]
	return t, ok
}

// AvailableToolsPrompt renders one line per tool:
//
//	- name(p1, p2): description
//	- name(no parameters): description
func (r *Registry) AvailableToolsPrompt() string {
	lines := make([]string, 0, len(r.tools))
	for _, t := range r.tools {
		params := "no parameters"
		if ps := t.Parameters(); len(ps) > 0 {
			names := make([]string, len(ps))
			for i, p := range ps {
				names[i] = p.Name
			}
			params = strings.Join(names, ", ")
		}
		lines = append(lines, fmt.Sprintf("- %s(%s): %s", t.Name(), params, t.Description()))
	}
	return strings.Join(lines, "\n")
}

// Resolve looks the tool up and validates args against its schema.
// The returned error wraps sqlagent.ErrUnknownTool or
// sqlagent.ErrInvalidToolArgs.
func (r *Registry) Resolve(name string, args map[string]any) (sqlagent.Tool, error) {
	tool, ok := r.toolMap[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", sqlagent.ErrUnknownTool, name)
	}
	if err := r.schemaMap[name].Validate(args); err != nil {
		detail := err.Error()
		var ve *schema.ValidationError
		if errors.As(err, &ve) {
			detail = ve.Detail()
		}
		return nil, fmt.Errorf("%w: %s", sqlagent.ErrInvalidToolArgs, detail)
	}
	return tool, nil
}

// Invoke dispatches to the named tool and returns its text result. It never
// fails: lookup and validation problems are rendered as text.
func (r *Registry) Invoke(ctx context.Context, name string, args map[string]any) string {
	if args == nil {
		args = map[string]any{}
	}
	tool, err := r.Resolve(name, args)
	if err != nil {
		return ErrorText(name, err)
	}
	return tool.Invoke(ctx, args)
}

// ErrorText renders a Resolve error as the observation shown to the model.
func ErrorText(name string, err error) string {
	switch {
	case errors.Is(err, sqlagent.ErrUnknownTool):
		return fmt.Sprintf("Error: Unknown tool '%s'", name)
	case errors.Is(err, sqlagent.ErrInvalidToolArgs):
		detail := strings.TrimPrefix(err.Error(), sqlagent.ErrInvalidToolArgs.Error()+": ")
		return fmt.Sprintf("Error: invalid parameters for tool '%s': %s", name, detail)
	default:
		return fmt.Sprintf("Error: %v", err)
	}
}
