// Package schema builds and validates the JSON Schema that describes a tool's
// arguments.
//
// # Quick Start
//
//	raw := schema.Object(map[string]*schema.Property{
//	    "table_name": schema.String("Name of the table to describe").MinLength(1),
//	}, "table_name") // "table_name" is required
//
//	s, err := schema.Compile(raw)
//	...
//	if err := s.Validate(args); err != nil {
//	    // report err.Error() back to the model
//	}
//
// The toolchain Registry compiles a schema for every registered tool and
// validates arguments before the tool runs.
package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Schema is a compiled JSON Schema used to validate tool arguments.
type Schema struct {
	compiled *jsonschema.Schema
}

// Validate validates the given data against the schema.
// Returns nil if valid, or a *ValidationError describing the failure.
func (s *Schema) Validate(data map[string]any) error {
	if s == nil || s.compiled == nil {
		return nil
	}
	if data == nil {
		data = map[string]any{}
	}
	// The validator expects JSON-decoded values, so round-trip the arguments
	// to normalize Go numeric types.
	normalized, err := normalize(data)
	if err != nil {
		return &ValidationError{Err: err}
	}
	if err := s.compiled.Validate(normalized); err != nil {
		return &ValidationError{Err: err}
	}
	return nil
}

func normalize(data map[string]any) (any, error) {
	b, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal arguments: %w", err)
	}
	return jsonschema.UnmarshalJSON(bytes.NewReader(b))
}

// ValidationError wraps a JSON Schema validation error with a cleaner message.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("schema validation failed: %v", e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Detail returns the underlying failure on a single line, suitable for a
// tool observation.
func (e *ValidationError) Detail() string {
	if e.Err == nil {
		return ""
	}
	lines := strings.Split(e.Err.Error(), "\n")
	parts := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "-"))
		if line == "" || strings.HasPrefix(line, "jsonschema validation failed") {
			continue
		}
		parts = append(parts, line)
	}
	if len(parts) == 0 {
		return e.Err.Error()
	}
	return strings.Join(parts, "; ")
}

// Compile compiles a raw schema map into a Schema with a compiled validator.
// Returns an error if the schema is invalid.
func Compile(raw map[string]any) (*Schema, error) {
	if raw == nil {
		return nil, nil
	}

	schemaJSON, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}

	schemaData, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to parse schema: %w", err)
	}

	c := jsonschema.NewCompiler()
	if err := c.AddResource("schema.json", schemaData); err != nil {
		return nil, fmt.Errorf("failed to add schema resource: %w", err)
	}

	compiled, err := c.Compile("schema.json")
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}

	return &Schema{compiled: compiled}, nil
}

// MustCompile is like Compile but panics on error.
// Use this for schemas defined at init time.
func MustCompile(raw map[string]any) *Schema {
	s, err := Compile(raw)
	if err != nil {
		panic(err)
	}
	return s
}

// -----------------------------------------------------------------------------
// Schema Builders
// -----------------------------------------------------------------------------

// Object creates an object schema with the given properties.
// Pass property names as variadic arguments to mark them as required.
//
// Example:
//
//	schema.Object(map[string]*schema.Property{
//	    "query": schema.String("SQL SELECT query to execute"),
//	}, "query")
func Object(properties map[string]*Property, required ...string) map[string]any {
	props := make(map[string]any, len(properties))
	for name, prop := range properties {
		props[name] = prop.build()
	}

	schema := map[string]any{
		"type":       "object",
		"properties": props,
	}

	if len(required) > 0 {
		schema["required"] = required
	}

	return schema
}

// Property represents a property in an object schema.
type Property struct {
	typ         string
	description string
	minLength   *int
}

func (p *Property) build() map[string]any {
	m := map[string]any{}

	if p.typ != "" {
		m["type"] = p.typ
	}
	if p.description != "" {
		m["description"] = p.description
	}
	if p.minLength != nil {
		m["minLength"] = *p.minLength
	}

	return m
}

// String creates a string property.
//
// Example:
//
//	schema.String("Name of the table to describe")
//	schema.String("SQL SELECT query").MinLength(1)
func String(description string) *Property {
	return &Property{typ: "string", description: description}
}

// MinLength sets the minimum length for string properties.
func (p *Property) MinLength(min int) *Property {
	p.minLength = &min
	return p
}
