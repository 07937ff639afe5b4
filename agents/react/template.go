package react

import (
	"bytes"
	_ "embed"
	"text/template"

	"github.com/rickchristie/sqlagent"
)

//go:embed react.tmpl
var reactTemplateContent string

// PromptData contains the data passed to the ReAct prompt template.
type PromptData struct {
	// ToolsPrompt lists the available tools, one per line (from the Registry).
	ToolsPrompt string

	// Query is the user's question.
	Query string

	// History is the rendered transcript window, oldest entry first.
	History string

	// Step is the 1-based step the prompt is built for.
	Step int

	// Time provides access to time-related functions in templates.
	// Use {{.Time.Today}} or {{.Time.Format "2006-01-02"}}.
	Time sqlagent.TimeProvider
}

// DefaultReActTemplate is the default prompt template. It recites the tool
// catalog and the THOUGHT / ACTION / FINAL ANSWER grammar, followed by the
// user query and the recent transcript.
//
// The template file is located at agents/react/react.tmpl
// Users can replace this template via Agent.WithSystemTemplate().
var DefaultReActTemplate = template.Must(
	template.New("react_system").Parse(reactTemplateContent),
)

// ExecuteTemplate executes a template with the given data and returns the result.
func ExecuteTemplate(tmpl *template.Template, data PromptData) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
