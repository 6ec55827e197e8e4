package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/ppiankov/foodlens/internal/model"
)

// Summarizer attaches optional assistant summaries to reports.
// A Summarizer without a provider is disabled and returns nil summaries.
type Summarizer struct {
	provider Provider
	config   Config
}

// NewSummarizer creates a summarizer for the configured provider
func NewSummarizer(config Config) (*Summarizer, error) {
	provider, err := NewProvider(config)
	if err != nil {
		return nil, err
	}
	return &Summarizer{provider: provider, config: config}, nil
}

// NewSummarizerWithProvider wraps an already constructed provider
func NewSummarizerWithProvider(provider Provider, config Config) *Summarizer {
	return &Summarizer{provider: provider, config: config}
}

// IsEnabled reports whether a provider is configured
func (s *Summarizer) IsEnabled() bool {
	return s != nil && s.provider != nil
}

// ProviderName returns the configured provider name, or "" when disabled
func (s *Summarizer) ProviderName() string {
	if !s.IsEnabled() {
		return ""
	}
	return s.provider.Name()
}

// GenerateSummary explains a report, optionally answering a question.
// Provider failures never fail the scan: they come back as warnings on the summary.
func (s *Summarizer) GenerateSummary(ctx context.Context, report model.Report, question string) (*model.LLMSummary, error) {
	if !s.IsEnabled() {
		return nil, nil
	}

	summary := &model.LLMSummary{
		Enabled:  true,
		Provider: s.provider.Name(),
		Model:    s.config.Model,
		Question: strings.TrimSpace(question),
		Strict:   s.config.Strict,
	}

	if !s.provider.IsAvailable(ctx) {
		summary.Enabled = false
		summary.Warnings = append(summary.Warnings,
			fmt.Sprintf("LLM provider %s is not available (check API key or connectivity)", s.provider.Name()))
		return summary, nil
	}

	allowed := AllowedURLs(report)
	resp, err := s.provider.Summarize(ctx, SummarizeRequest{
		Report:      report,
		AllowedURLs: allowed,
		Question:    summary.Question,
		Model:       s.config.Model,
		MaxTokens:   s.config.MaxTokens,
	})
	if err != nil {
		summary.Warnings = append(summary.Warnings, fmt.Sprintf("LLM summary generation failed: %v", err))
		return summary, nil
	}

	summary.SummaryMD = resp.Summary
	if resp.Model != "" {
		summary.Model = resp.Model
	}
	summary.Warnings = append(summary.Warnings, fmt.Sprintf("Tokens used: %d", resp.TokensUsed))
	if s.config.Strict {
		summary.Warnings = append(summary.Warnings,
			fmt.Sprintf("Verified %d citations against %d allowed URLs", len(resp.CitedURLs), len(allowed)))
	}

	return summary, nil
}

// RenderSeparateMarkdown renders a summary as its own document, kept apart
// from the deterministic report
func RenderSeparateMarkdown(summary *model.LLMSummary) string {
	if summary == nil || !summary.Enabled {
		return ""
	}

	var b strings.Builder
	b.WriteString("# LLM Summary\n\n")
	b.WriteString("> **GENERATED CONTENT** - This text was written by a language model.\n")
	b.WriteString("> Safety and health scores were determined independently by foodlens rules and are not affected by it.\n\n")

	fmt.Fprintf(&b, "**Provider:** %s  \n", summary.Provider)
	if summary.Model != "" {
		fmt.Fprintf(&b, "**Model:** %s  \n", summary.Model)
	}
	fmt.Fprintf(&b, "**Strict Citations:** %t\n\n", summary.Strict)

	if summary.Question != "" {
		fmt.Fprintf(&b, "**Question:** %s\n\n", summary.Question)
	}

	b.WriteString("## Summary\n\n")
	if summary.SummaryMD == "" {
		b.WriteString("_No summary generated._\n\n")
	} else {
		b.WriteString(summary.SummaryMD)
		b.WriteString("\n\n")
	}

	if len(summary.Warnings) > 0 {
		b.WriteString("## Notes\n\n")
		for _, w := range summary.Warnings {
			fmt.Fprintf(&b, "- %s\n", w)
		}
	}

	return b.String()
}
