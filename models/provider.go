package models

import (
	"context"
	"errors"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

// Supported providers.
const (
	ProviderGoogleAI  = "googleai"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderOllama    = "ollama"
	ProviderGitHub    = "github"
)

// ErrUnknownProvider is returned by New for an unsupported provider name.
var ErrUnknownProvider = errors.New("unknown model provider")

// ErrMissingAPIKey is returned when a hosted provider has no API key.
var ErrMissingAPIKey = errors.New("api key is required")

// ProviderConfig selects and configures the upstream model.
type ProviderConfig struct {
	// Provider is one of the Provider* constants. Empty means googleai.
	Provider string

	// Model overrides the provider's default model.
	Model string

	// APIKey authenticates with hosted providers. Unused by ollama.
	APIKey string

	// BaseURL overrides the endpoint (openai-compatible servers, ollama, github).
	BaseURL string
}

// Providers lists the accepted provider names.
func Providers() []string {
	return []string{ProviderGoogleAI, ProviderOpenAI, ProviderAnthropic, ProviderOllama, ProviderGitHub}
}

// DefaultModel returns the model used when ProviderConfig.Model is empty.
func DefaultModel(provider string) string {
	switch provider {
	case ProviderOpenAI:
		return ModelOpenAIGPT41Mini
	case ProviderAnthropic:
		return ModelAnthropicClaude45Sonnet
	case ProviderOllama:
		return ModelOllamaLlama32
	case ProviderGitHub:
		return ModelGitHubGPT4oMini
	default:
		return ModelGemini25Flash
	}
}

// New builds the langchaingo client for cfg and wraps it.
func New(ctx context.Context, cfg ProviderConfig) (*LCGWrapper, error) {
	provider := cfg.Provider
	if provider == "" {
		provider = ProviderGoogleAI
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel(provider)
	}

	var (
		llm llms.Model
		err error
	)
	switch provider {
	case ProviderGoogleAI:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("%w for %s", ErrMissingAPIKey, provider)
		}
		llm, err = googleai.New(ctx,
			googleai.WithAPIKey(cfg.APIKey),
			googleai.WithDefaultModel(model),
		)
	case ProviderOpenAI:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("%w for %s", ErrMissingAPIKey, provider)
		}
		opts := []openai.Option{openai.WithToken(cfg.APIKey), openai.WithModel(model)}
		if cfg.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
		}
		llm, err = openai.New(opts...)
	case ProviderAnthropic:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("%w for %s", ErrMissingAPIKey, provider)
		}
		llm, err = anthropic.New(
			anthropic.WithToken(cfg.APIKey),
			anthropic.WithModel(model),
		)
	case ProviderOllama:
		opts := []ollama.Option{ollama.WithModel(model)}
		if cfg.BaseURL != "" {
			opts = append(opts, ollama.WithServerURL(cfg.BaseURL))
		}
		llm, err = ollama.New(opts...)
	case ProviderGitHub:
		var opts []openai.Option
		if cfg.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
		}
		return NewGitHubModel(model, cfg.APIKey, opts...)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, provider)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s client: %w", provider, err)
	}

	return NewLCGWrapper(llm).WithModelName(model), nil
}
