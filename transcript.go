package sqlagent

import (
	"fmt"
	"strings"
)

// EntryKind is the kind of a transcript entry.
type EntryKind string

const (
	EntryThought     EntryKind = "thought"
	EntryAction      EntryKind = "action"
	EntryObservation EntryKind = "observation"
	EntryFinalAnswer EntryKind = "final_answer"
	EntryError       EntryKind = "error"
)

// Entry is one line of a run's transcript. Step is 1-based.
type Entry struct {
	Kind EntryKind
	Step int
	Text string
}

// String renders the entry the way it is shown back to the model.
func (e Entry) String() string {
	switch e.Kind {
	case EntryThought:
		return fmt.Sprintf("\nSTEP %d\nTHOUGHT: %s", e.Step, e.Text)
	case EntryAction:
		return "ACTION: " + e.Text
	case EntryObservation:
		return "OBSERVATION: " + e.Text
	case EntryFinalAnswer:
		return "FINAL ANSWER: " + e.Text
	default:
		return e.Text
	}
}

// Transcript is the append-only record of one run. Entries keep the order in
// which they happened and are never rewritten.
//
// A Transcript belongs to a single run and is not safe for concurrent use.
type Transcript struct {
	entries []Entry
}

// NewTranscript creates an empty Transcript.
func NewTranscript() *Transcript {
	return &Transcript{}
}

// Append adds an entry at the end.
func (t *Transcript) Append(kind EntryKind, step int, text string) {
	t.entries = append(t.entries, Entry{Kind: kind, Step: step, Text: text})
}

// Len returns the number of entries.
func (t *Transcript) Len() int {
	return len(t.entries)
}

// Entries returns a copy of every entry.
func (t *Transcript) Entries() []Entry {
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Recent returns a copy of the last n entries, or all of them when fewer
// exist. n <= 0 yields nil.
func (t *Transcript) Recent(n int) []Entry {
	if n <= 0 {
		return nil
	}
	start := len(t.entries) - n
	if start < 0 {
		start = 0
	}
	out := make([]Entry, len(t.entries)-start)
	copy(out, t.entries[start:])
	return out
}

// Render joins the last n entries, one per line.
func (t *Transcript) Render(n int) string {
	recent := t.Recent(n)
	lines := make([]string, len(recent))
	for i, e := range recent {
		lines[i] = e.String()
	}
	return strings.Join(lines, "\n")
}
