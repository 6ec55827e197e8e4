package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	anthropicDefaultModel = "claude-3-5-haiku-20241022"
	anthropicVersion      = "2023-06-01"
)

// AnthropicProvider implements the Provider interface for Anthropic Claude models
type AnthropicProvider struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	config     Config
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	Messages    []anthropicMessage `json:"messages"`
	System      string             `json:"system,omitempty"`
	Temperature float64            `json:"temperature,omitempty"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	ID      string `json:"id"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Model      string `json:"model"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

type anthropicError struct {
	Type  string `json:"type"`
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// NewAnthropicProvider creates a new Anthropic provider
func NewAnthropicProvider(config Config) (*AnthropicProvider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("Anthropic API key is required")
	}

	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = "https://api.anthropic.com"
	}

	return &AnthropicProvider{
		apiKey:     config.APIKey,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: newHTTPClient(config, 30*time.Second),
		config:     config,
	}, nil
}

// Name returns the provider name
func (p *AnthropicProvider) Name() string {
	return "anthropic"
}

// IsAvailable sends a minimal message to check the key
func (p *AnthropicProvider) IsAvailable(ctx context.Context) bool {
	req := anthropicRequest{
		Model:     resolve("", p.config.Model, anthropicDefaultModel),
		MaxTokens: 10,
		Messages:  []anthropicMessage{{Role: "user", Content: "Hi"}},
	}

	if _, err := p.makeRequest(ctx, req); err != nil {
		slog.Warn("Anthropic API check failed", "error", err)
		return false
	}
	return true
}

// Summarize generates a summary using Anthropic's Messages API
func (p *AnthropicProvider) Summarize(ctx context.Context, req SummarizeRequest) (*SummarizeResponse, error) {
	prompt := req.Prompt
	if prompt == "" {
		prompt = BuildPrompt(req.Report, req.AllowedURLs, req.Question)
	}

	resp, err := p.makeRequest(ctx, anthropicRequest{
		Model:       resolve(req.Model, p.config.Model, anthropicDefaultModel),
		MaxTokens:   resolve(req.MaxTokens, p.config.MaxTokens, defaultMaxTokens),
		System:      systemPrompt,
		Messages:    []anthropicMessage{{Role: "user", Content: prompt}},
		Temperature: 0.3,
	})
	if err != nil {
		return nil, fmt.Errorf("Anthropic API error: %w", err)
	}

	if len(resp.Content) == 0 {
		return nil, fmt.Errorf("no content in Anthropic response")
	}

	summary := strings.TrimSpace(resp.Content[0].Text)
	cited, err := checkCitations(summary, req.AllowedURLs, p.config.Strict)
	if err != nil {
		return nil, err
	}

	return &SummarizeResponse{
		Summary:    summary,
		CitedURLs:  cited,
		Model:      resp.Model,
		TokensUsed: resp.Usage.InputTokens + resp.Usage.OutputTokens,
	}, nil
}

func (p *AnthropicProvider) makeRequest(ctx context.Context, apiReq anthropicRequest) (*anthropicResponse, error) {
	header := http.Header{}
	header.Set("x-api-key", p.apiKey)
	header.Set("anthropic-version", anthropicVersion)

	var resp anthropicResponse
	if err := postJSON(ctx, p.httpClient, p.baseURL+"/v1/messages", header, apiReq, &resp, describeAnthropicError); err != nil {
		return nil, err
	}
	return &resp, nil
}

// describeAnthropicError renders {"error": {"type", "message"}} bodies
func describeAnthropicError(body []byte) string {
	var apiErr anthropicError
	if err := json.Unmarshal(body, &apiErr); err != nil || apiErr.Error.Message == "" {
		return ""
	}
	return apiErr.Error.Type + " - " + apiErr.Error.Message
}
