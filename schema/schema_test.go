package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompile(t *testing.T) {
	type input struct {
		raw map[string]any
	}

	type expected struct {
		isNil  bool
		hasErr bool
	}

	tests := []struct {
		name     string
		input    input
		expected expected
	}{
		{
			name:     "nil schema returns nil",
			input:    input{raw: nil},
			expected: expected{isNil: true},
		},
		{
			name: "valid schema compiles",
			input: input{
				raw: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"query": map[string]any{"type": "string"},
					},
				},
			},
			expected: expected{isNil: false},
		},
		{
			name: "invalid type keyword fails",
			input: input{
				raw: map[string]any{"type": 42},
			},
			expected: expected{isNil: true, hasErr: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Compile(tt.input.raw)

			if tt.expected.hasErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}

			if tt.expected.isNil {
				assert.Nil(t, s)
			} else {
				require.NotNil(t, s)
				assert.NotNil(t, s.compiled)
			}
		})
	}
}

func TestSchema_Validate(t *testing.T) {
	type input struct {
		data map[string]any
	}

	type expected struct {
		hasErr bool
		detail string
	}

	raw := Object(map[string]*Property{
		"table_name": String("Name of the table to describe").MinLength(1),
	}, "table_name")

	s, err := Compile(raw)
	require.NoError(t, err)

	tests := []struct {
		name     string
		input    input
		expected expected
	}{
		{
			name:     "valid data passes",
			input:    input{data: map[string]any{"table_name": "orders"}},
			expected: expected{hasErr: false},
		},
		{
			name:     "extra arguments are allowed",
			input:    input{data: map[string]any{"table_name": "orders", "verbose": true}},
			expected: expected{hasErr: false},
		},
		{
			name:     "missing required field fails",
			input:    input{data: map[string]any{}},
			expected: expected{hasErr: true, detail: "table_name"},
		},
		{
			name:     "nil data is treated as empty",
			input:    input{data: nil},
			expected: expected{hasErr: true, detail: "table_name"},
		},
		{
			name:     "wrong type fails",
			input:    input{data: map[string]any{"table_name": 12}},
			expected: expected{hasErr: true, detail: "string"},
		},
		{
			name:     "empty string fails min length",
			input:    input{data: map[string]any{"table_name": ""}},
			expected: expected{hasErr: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.Validate(tt.input.data)

			if !tt.expected.hasErr {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.NotContains(t, ve.Detail(), "\n")
			if tt.expected.detail != "" {
				assert.Contains(t, ve.Detail(), tt.expected.detail)
			}
		})
	}
}

func TestSchema_Validate_NilSchema(t *testing.T) {
	var s *Schema
	err := s.Validate(map[string]any{"foo": "bar"})
	assert.NoError(t, err, "nil schema should always pass validation")
}

func TestMustCompile(t *testing.T) {
	assert.NotNil(t, MustCompile(map[string]any{"type": "object"}))
	assert.Nil(t, MustCompile(nil))
	assert.Panics(t, func() {
		MustCompile(map[string]any{"type": 42})
	})
}

func TestObject_Basic(t *testing.T) {
	schema := Object(map[string]*Property{
		"query": String("SQL query"),
		"note":  String("Optional note"),
	}, "query")

	assert.Equal(t, "object", schema["type"])

	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok, "expected properties map")
	assert.Len(t, props, 2)

	required, ok := schema["required"].([]string)
	require.True(t, ok, "expected required array")
	assert.Equal(t, []string{"query"}, required)
}

func TestObject_NoRequired(t *testing.T) {
	schema := Object(map[string]*Property{})

	_, hasRequired := schema["required"]
	assert.False(t, hasRequired)
}

func TestString_WithConstraints(t *testing.T) {
	built := String("A description").MinLength(1).build()

	assert.Equal(t, "string", built["type"])
	assert.Equal(t, "A description", built["description"])
	assert.Equal(t, 1, built["minLength"])
	_, hasMax := built["maxLength"]
	assert.False(t, hasMax)
}

func TestValidationError_Error(t *testing.T) {
	originalErr := &ValidationError{Err: nil}
	assert.Equal(t, "schema validation failed: <nil>", originalErr.Error())
	assert.Equal(t, "", originalErr.Detail())
}

func TestValidationError_Unwrap(t *testing.T) {
	inner := &ValidationError{}
	outer := &ValidationError{Err: inner}

	assert.Equal(t, inner, outer.Unwrap())
}
