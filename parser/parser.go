// Package parser turns raw model text into a sqlagent.Decision.
//
// # Grammar
//
//	response := [thought] (final | action | ε)
//	thought  := "THOUGHT:" text    ; up to the next ACTION: or FINAL ANSWER:, or the end
//	action   := "ACTION:" ws* name ws* object
//	final    := "FINAL ANSWER:" text    ; to the end of the response
//	name     := [A-Za-z0-9_]+
//	object   := a balanced {...} span; braces inside quoted strings are ignored
//
// Markers are matched case-insensitively and text between them may span lines.
//
// # Precedence
//
// A FINAL ANSWER marker anywhere in the response wins over an ACTION marker.
// An ACTION marker whose name or object is missing or undecodable makes the
// response unparseable, even if a thought was present. A response with only a
// thought is DecisionThoughtOnly; anything else is DecisionUnparseable.
//
// Parse is total: it never panics and never returns an error. The reason a
// response could not be used is carried in Decision.Reason.
package parser

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/rickchristie/sqlagent"
	"github.com/titanous/json5"
)

var (
	thoughtPattern = regexp.MustCompile(`(?is)THOUGHT:(.*?)(?:ACTION:|FINAL ANSWER:|\z)`)
	finalPattern   = regexp.MustCompile(`(?is)FINAL ANSWER:(.*)`)
	actionPattern  = regexp.MustCompile(`(?is)ACTION:\s*([A-Za-z0-9_]*)\s*`)
)

// Unparseable reasons.
const (
	ReasonNoMarkers     = "no THOUGHT, ACTION or FINAL ANSWER marker found"
	ReasonMissingTool   = "ACTION is missing a tool name"
	ReasonMissingParams = "ACTION is missing a {...} parameter object"
	ReasonUnterminated  = "ACTION parameter object is not terminated"
	ReasonInvalidParams = "ACTION parameters are not a valid JSON object"
	ReasonEmptyResponse = "empty response"
)

// Parse interprets one model response.
func Parse(text string) sqlagent.Decision {
	if strings.TrimSpace(text) == "" {
		return sqlagent.Decision{Kind: sqlagent.DecisionUnparseable, Reason: ReasonEmptyResponse}
	}

	d := sqlagent.Decision{Thought: extractThought(text)}

	if answer, ok := extractFinal(text); ok {
		d.Kind = sqlagent.DecisionFinalAnswer
		d.Answer = answer
		return d
	}

	loc := actionPattern.FindStringSubmatchIndex(text)
	if loc == nil {
		if d.HasThought() {
			d.Kind = sqlagent.DecisionThoughtOnly
			return d
		}
		d.Kind = sqlagent.DecisionUnparseable
		d.Reason = ReasonNoMarkers
		return d
	}

	name := text[loc[2]:loc[3]]
	if name == "" {
		d.Kind = sqlagent.DecisionUnparseable
		d.Reason = ReasonMissingTool
		return d
	}

	params, reason := extractParams(text[loc[1]:])
	if reason != "" {
		d.Kind = sqlagent.DecisionUnparseable
		d.Reason = reason
		return d
	}

	d.Kind = sqlagent.DecisionToolCall
	d.Tool = name
	d.Params = params
	return d
}

func extractThought(text string) string {
	m := thoughtPattern.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

func extractFinal(text string) (string, bool) {
	m := finalPattern.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	answer := strings.TrimSpace(m[1])
	return answer, answer != ""
}

// extractParams decodes the object that starts at the beginning of rest.
func extractParams(rest string) (map[string]any, string) {
	if !strings.HasPrefix(rest, "{") {
		return nil, ReasonMissingParams
	}
	span, ok := balancedObject(rest)
	if !ok {
		return nil, ReasonUnterminated
	}
	params, ok := decodeObject(span)
	if !ok {
		return nil, ReasonInvalidParams
	}
	return params, ""
}

// balancedObject returns the prefix of s that closes the '{' at s[0].
// Braces inside single- or double-quoted strings do not count.
func balancedObject(s string) (string, bool) {
	depth := 0
	var quote byte
	escaped := false

	for i := 0; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == quote:
				quote = 0
			}
			continue
		}
		switch c {
		case '"', '\'':
			quote = c
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[:i+1], true
			}
		}
	}
	return "", false
}

// decodeObject accepts strict JSON first and falls back to JSON5, which
// tolerates single quotes, unquoted keys and trailing commas.
func decodeObject(span string) (map[string]any, bool) {
	var params map[string]any
	if err := json.Unmarshal([]byte(span), &params); err == nil && params != nil {
		return params, true
	}

	params = nil
	if err := json5.Unmarshal([]byte(span), &params); err == nil && params != nil {
		return params, true
	}
	return nil, false
}
