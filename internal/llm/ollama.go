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

// OllamaProvider implements the Provider interface for Ollama local models
type OllamaProvider struct {
	baseURL    string
	httpClient *http.Client
	config     Config
}

type ollamaRequest struct {
	Model   string        `json:"model"`
	Prompt  string        `json:"prompt"`
	Stream  bool          `json:"stream"`
	System  string        `json:"system,omitempty"`
	Options ollamaOptions `json:"options,omitempty"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"` // Max tokens
}

type ollamaResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
	Done     bool   `json:"done"`

	// Only present when done=true
	PromptEvalCount int `json:"prompt_eval_count,omitempty"`
	EvalCount       int `json:"eval_count,omitempty"`
}

type ollamaError struct {
	Error string `json:"error"`
}

// NewOllamaProvider creates a new Ollama provider
func NewOllamaProvider(config Config) (*OllamaProvider, error) {
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}

	return &OllamaProvider{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: newHTTPClient(config, 60*time.Second), // local models are slower
		config:     config,
	}, nil
}

// Name returns the provider name
func (p *OllamaProvider) Name() string {
	return "ollama"
}

// IsAvailable checks that the Ollama server answers the tags endpoint
func (p *OllamaProvider) IsAvailable(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/api/tags", nil)
	if err != nil {
		slog.Warn("Ollama availability check failed", "error", err)
		return false
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		slog.Warn("Ollama availability check failed", "url", p.baseURL, "error", err)
		return false
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		slog.Warn("Ollama availability check failed", "url", p.baseURL, "status", resp.StatusCode)
		return false
	}

	return true
}

// Summarize generates a summary using Ollama's local models
func (p *OllamaProvider) Summarize(ctx context.Context, req SummarizeRequest) (*SummarizeResponse, error) {
	prompt := req.Prompt
	if prompt == "" {
		prompt = BuildPrompt(req.Report, req.AllowedURLs, req.Question)
	}

	model := resolve(req.Model, p.config.Model, "")
	if model == "" {
		return nil, fmt.Errorf("ollama model must be specified (e.g., llama3.1:8b, mistral)")
	}

	resp, err := p.makeRequest(ctx, ollamaRequest{
		Model:  model,
		Prompt: prompt,
		Stream: false,
		System: systemPrompt,
		Options: ollamaOptions{
			Temperature: 0.3,
			NumPredict:  resolve(req.MaxTokens, p.config.MaxTokens, defaultMaxTokens),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("ollama API error: %w", err)
	}

	summary := strings.TrimSpace(resp.Response)
	cited, err := checkCitations(summary, req.AllowedURLs, p.config.Strict)
	if err != nil {
		return nil, err
	}

	// Some models report zero counts; estimate at 4 characters per token
	tokensUsed := resp.PromptEvalCount + resp.EvalCount
	if tokensUsed == 0 {
		tokensUsed = (len(prompt) + len(summary)) / 4
	}

	return &SummarizeResponse{
		Summary:    summary,
		CitedURLs:  cited,
		Model:      resp.Model,
		TokensUsed: tokensUsed,
	}, nil
}

func (p *OllamaProvider) makeRequest(ctx context.Context, apiReq ollamaRequest) (*ollamaResponse, error) {
	var resp ollamaResponse
	if err := postJSON(ctx, p.httpClient, p.baseURL+"/api/generate", nil, apiReq, &resp, describeOllamaError); err != nil {
		return nil, err
	}
	return &resp, nil
}

// describeOllamaError renders {"error": "..."} bodies
func describeOllamaError(body []byte) string {
	var apiErr ollamaError
	if err := json.Unmarshal(body, &apiErr); err != nil {
		return ""
	}
	return apiErr.Error
}
