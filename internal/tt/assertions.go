package tt

import (
	"strings"
	"testing"

	"github.com/rickchristie/sqlagent"
	"github.com/stretchr/testify/assert"
)

// AssertEventNames checks the sink saw exactly the given event names, in
// order.
func AssertEventNames(t *testing.T, sink *RecordingSink, expected ...string) {
	t.Helper()
	assert.Equal(t, expected, sink.Names(), "event sequence mismatch")
}

// AssertTranscriptKinds checks the transcript holds entries of exactly the
// given kinds, in order.
func AssertTranscriptKinds(
	t *testing.T,
	transcript *sqlagent.Transcript,
	expected ...sqlagent.EntryKind,
) {
	t.Helper()
	entries := transcript.Entries()
	actual := make([]sqlagent.EntryKind, len(entries))
	for i, e := range entries {
		actual[i] = e.Kind
	}
	assert.Equal(t, expected, actual, "transcript kinds mismatch")
}

// PromptHistory returns the part of a prompt after the "User Query:" header
// line, which holds the rendered transcript window.
func PromptHistory(prompt string) string {
	_, after, found := strings.Cut(prompt, "User Query:")
	if !found {
		return ""
	}
	_, history, _ := strings.Cut(after, "\n")
	return history
}
