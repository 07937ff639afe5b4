// Package react implements the SQL agent's ReAct (Reasoning and Acting) loop.
//
// # Overview
//
// Each step builds one prompt, asks the model for one response, parses it and
// either runs a tool, finishes with an answer, or records a corrective error.
// The cycle is Think -> Act -> Observe -> Repeat, bounded by a step budget.
//
// # Loop Behavior
//
// ## 1. Final Answer Takes Priority
//
// When a response holds both an ACTION and a FINAL ANSWER, the run finishes
// with the answer and the action is never executed.
//
// ## 2. Parse Errors Consume a Step
//
// A response that holds neither a usable action nor a final answer appends
//
//	Error: Could not parse action. Please use format: ACTION: tool_name{"param": "value"}
//
// to the transcript so the model sees the correction in its next prompt.
//
// ## 3. Model Failures Abort
//
// A model error ends the run immediately. Exhausted rate-limit retries and
// other upstream failures produce different answers so callers can tell them
// apart.
//
// ## 4. Step Budget
//
// After MaxSteps model calls without a final answer the run ends with
//
//	Maximum steps reached. Could not complete the query fully.
//
// # Transcript Window
//
// Every entry of a run is kept in its Transcript, but only the last N entries
// (WithTranscriptWindow, default 6) are rendered into the prompt.
//
// # Configuration
//
//   - WithMaxSteps: step budget (default 10)
//   - WithTranscriptWindow: entries shown to the model (default 6)
//   - WithTraceSink: receives every event of the run
//   - WithSystemTemplate / WithSystemTemplateString: replace the prompt template
//   - WithTimeProvider: clock for run timing and templates
//
// # Templates
//
// The prompt is a Go text/template with access to:
//   - Tools description: {{.ToolsPrompt}}
//   - User question: {{.Query}}
//   - Rendered transcript window: {{.History}}
//   - Current step: {{.Step}}
//   - Time provider functions: {{.Time.Today}}, {{.Time.Format "layout"}}
package react
