package models

// Model names used as provider defaults.
//
// Google Gemini: https://ai.google.dev/gemini-api/docs/models
const (
	ModelGemini25Flash    = "gemini-2.5-flash"
	ModelGemini25Pro      = "gemini-2.5-pro"
	ModelGemini20FlashExp = "gemini-2.0-flash-exp"
)

// OpenAI: https://platform.openai.com/docs/models/
const (
	ModelOpenAIGPT41Mini = "gpt-4.1-mini"
	ModelOpenAIGPT4oMini = "gpt-4o-mini"
)

// Anthropic: https://docs.anthropic.com/en/docs/about-claude/models/overview
const (
	ModelAnthropicClaude45Sonnet = "claude-sonnet-4-5-20250929"
	ModelAnthropicClaude35Haiku  = "claude-3-5-haiku-20241022"
)

// Ollama: local model tags.
const (
	ModelOllamaLlama32 = "llama3.2"
)

// GitHub Models use the publisher/model format.
const (
	ModelGitHubGPT4oMini = "openai/gpt-4o-mini"
)
