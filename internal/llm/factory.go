package llm

import (
	"fmt"
	"strings"

	"github.com/ppiankov/foodlens/internal/model"
)

// NewProvider creates a new LLM provider based on configuration
func NewProvider(config Config) (Provider, error) {
	switch strings.ToLower(config.Provider) {
	case "openai":
		return NewOpenAIProvider(config)

	case "anthropic", "claude":
		return NewAnthropicProvider(config)

	case "ollama":
		return NewOllamaProvider(config)

	case "":
		// No provider configured - LLM disabled
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: openai, anthropic, ollama)", config.Provider)
	}
}

// ConfigFromModel converts the LLM and HTTP config sections to llm.Config
func ConfigFromModel(llmConfig model.LLMConfig, httpConfig model.HTTPConfig) Config {
	return Config{
		Provider:   llmConfig.Provider,
		Model:      llmConfig.Model,
		APIKey:     llmConfig.APIKey,
		BaseURL:    llmConfig.BaseURL,
		Timeout:    llmConfig.Timeout,
		Strict:     llmConfig.Strict,
		MaxTokens:  llmConfig.MaxTokens,
		HTTPProxy:  httpConfig.HTTPProxy,
		HTTPSProxy: httpConfig.HTTPSProxy,
		NoProxy:    httpConfig.NoProxy,
	}
}
