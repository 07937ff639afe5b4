package sqlagent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEntry_String(t *testing.T) {
	tests := []struct {
		name     string
		input    Entry
		expected string
	}{
		{
			name:     "thought carries step header",
			input:    Entry{Kind: EntryThought, Step: 2, Text: "check schema"},
			expected: "\nSTEP 2\nTHOUGHT: check schema",
		},
		{
			name:     "action",
			input:    Entry{Kind: EntryAction, Step: 2, Text: `describe_table{"table_name":"orders"}`},
			expected: `ACTION: describe_table{"table_name":"orders"}`,
		},
		{
			name:     "observation",
			input:    Entry{Kind: EntryObservation, Step: 2, Text: "Table 'x' not found"},
			expected: "OBSERVATION: Table 'x' not found",
		},
		{
			name:     "final answer",
			input:    Entry{Kind: EntryFinalAnswer, Step: 3, Text: "6 orders"},
			expected: "FINAL ANSWER: 6 orders",
		},
		{
			name:     "error is verbatim",
			input:    Entry{Kind: EntryError, Step: 1, Text: "Error: Could not parse action."},
			expected: "Error: Could not parse action.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.input.String())
		})
	}
}

func TestTranscript_Recent(t *testing.T) {
	type expected struct {
		texts []string
	}

	build := func(n int) *Transcript {
		tr := NewTranscript()
		for i := 1; i <= n; i++ {
			tr.Append(EntryObservation, i, string(rune('a'+i-1)))
		}
		return tr
	}

	tests := []struct {
		name     string
		size     int
		window   int
		expected expected
	}{
		{
			name:     "empty transcript",
			size:     0,
			window:   6,
			expected: expected{texts: []string{}},
		},
		{
			name:     "fewer entries than window",
			size:     3,
			window:   6,
			expected: expected{texts: []string{"a", "b", "c"}},
		},
		{
			name:     "window keeps the most recent entries in order",
			size:     8,
			window:   6,
			expected: expected{texts: []string{"c", "d", "e", "f", "g", "h"}},
		},
		{
			name:     "zero window",
			size:     4,
			window:   0,
			expected: expected{texts: []string{}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := build(tt.size)
			texts := []string{}
			for _, e := range tr.Recent(tt.window) {
				texts = append(texts, e.Text)
			}
			assert.Equal(t, tt.expected.texts, texts)
			assert.Equal(t, tt.size, tr.Len())
		})
	}
}

func TestTranscript_EntriesIsACopy(t *testing.T) {
	tr := NewTranscript()
	tr.Append(EntryThought, 1, "first")

	entries := tr.Entries()
	entries[0].Text = "changed"

	assert.Equal(t, "first", tr.Entries()[0].Text)
}

func TestTranscript_Render(t *testing.T) {
	tr := NewTranscript()
	tr.Append(EntryThought, 1, "list tables")
	tr.Append(EntryAction, 1, "list_tables{}")
	tr.Append(EntryObservation, 1, "Available tables: customers, orders")

	assert.Equal(t,
		"\nSTEP 1\nTHOUGHT: list tables\nACTION: list_tables{}\nOBSERVATION: Available tables: customers, orders",
		tr.Render(6),
	)
	assert.Equal(t, "OBSERVATION: Available tables: customers, orders", tr.Render(1))
}
