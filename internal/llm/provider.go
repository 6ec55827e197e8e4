package llm

import (
	"context"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/ppiankov/foodlens/internal/model"
)

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Summarize explains an analysis without ever changing its scores
	Summarize(ctx context.Context, req SummarizeRequest) (*SummarizeResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// SummarizeRequest contains the input for LLM summarization
type SummarizeRequest struct {
	// Report is the foodlens scan report to explain
	Report model.Report

	// AllowedURLs is the allowlist of URLs the model may cite in strict mode
	AllowedURLs []string

	// Question is an optional user question answered instead of a plain summary
	Question string

	// Prompt is an optional custom prompt (if empty, use default)
	Prompt string

	// Model is the specific model to use (provider-specific)
	Model string

	// MaxTokens limits the response length
	MaxTokens int
}

// SummarizeResponse contains the LLM's summary output
type SummarizeResponse struct {
	Summary    string
	CitedURLs  []string // URLs found in the summary, already checked in strict mode
	Model      string
	TokensUsed int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "anthropic", "ollama", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI/Anthropic
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama)
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// Strict rejects answers that cite URLs outside the allowlist
	Strict bool

	// MaxTokens for response generation
	MaxTokens int

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:  "", // Disabled by default
		Timeout:   30,
		Strict:    true,
		MaxTokens: 800,
	}
}

const systemPrompt = "You are a food label assistant. You explain deterministic safety and health scores to shoppers and never change them."

const defaultMaxTokens = 800

// maxFlagged caps the matched registry entries listed in a prompt
const maxFlagged = 5

// BuildPrompt constructs the default prompt for an analysis.
// A non-empty question turns the summary into an answer.
func BuildPrompt(report model.Report, allowedURLs []string, question string) string {
	a := report.Analysis

	var b strings.Builder
	fmt.Fprintf(&b, `You are explaining a foodlens label analysis. The scores below were computed by fixed rules. NEVER recompute, change or dispute them.

RULES:
1. You MUST ONLY cite URLs from this allowed list:
%s

2. Do not cite any other source and do not invent studies.
3. Do not give medical advice. Suggest a professional for health conditions.
4. If the data below is insufficient, say so explicitly.

Product:
- Name: %s
- Health Score: %d/100 (%s)
- Safety Score: %d/100 (overall risk: %s)
- Ingredients: %d
- Allergens: %s
- Additives: %s
- Diets: %s
`, joinURLs(allowedURLs), report.Subject,
		a.HealthScore, a.HealthRating,
		a.Safety.SafetyScore, a.Safety.OverallRisk,
		len(a.Ingredients), joinOrNone(a.Allergens), joinOrNone(a.Additives), dietList(a.DietaryInfo))

	if len(a.Safety.MatchedRisks) > 0 {
		b.WriteString("\nFlagged ingredients:\n")
		for i, entry := range a.Safety.MatchedRisks {
			if i >= maxFlagged {
				fmt.Fprintf(&b, "- ... and %d more\n", len(a.Safety.MatchedRisks)-maxFlagged)
				break
			}
			fmt.Fprintf(&b, "- %s (%s, %s)", entry.CanonicalName, entry.Severity, entry.Category)
			if len(entry.Warnings) > 0 {
				fmt.Fprintf(&b, ": %s", strings.Join(entry.Warnings, "; "))
			}
			b.WriteString("\n")
		}
	}

	if len(a.Breakdown) > 0 {
		b.WriteString("\nHealth score adjustments:\n")
		for _, adj := range a.Breakdown {
			fmt.Fprintf(&b, "- %s: %+d (%s)\n", adj.Rule, adj.Delta, adj.Formula)
		}
	}

	if q := strings.TrimSpace(question); q != "" {
		fmt.Fprintf(&b, "\nUser question: %s\nAnswer in 2-4 sentences using only the data above.", q)
	} else {
		b.WriteString("\nProvide a 3-4 sentence summary of what matters most to someone deciding whether to eat this product.")
	}

	return b.String()
}

// AllowedURLs returns the URLs a report's summary may cite
func AllowedURLs(report model.Report) []string {
	if report.SourceURL == "" {
		return nil
	}
	return []string{report.SourceURL}
}

// checkCitations extracts the URLs in a summary and rejects any outside the
// allowlist when strict is set
func checkCitations(summary string, allowed []string, strict bool) ([]string, error) {
	cited := extractURLs(summary)
	if !strict {
		return cited, nil
	}
	for _, u := range cited {
		if !slices.Contains(allowed, u) {
			return nil, fmt.Errorf("CITATION LEAK: LLM cited disallowed URL: %s", u)
		}
	}
	return cited, nil
}

var urlPattern = regexp.MustCompile(`https?://[^\s\)]+`)

// extractURLs extracts all URLs from text, deduplicated in order
func extractURLs(text string) []string {
	seen := make(map[string]bool)
	var unique []string
	for _, u := range urlPattern.FindAllString(text, -1) {
		u = strings.TrimRight(u, ".,;:!?")
		if !seen[u] {
			seen[u] = true
			unique = append(unique, u)
		}
	}
	return unique
}

// resolve picks the request value, then the configured one, then the fallback
func resolve[T comparable](req, configured, fallback T) T {
	var zero T
	if req != zero {
		return req
	}
	if configured != zero {
		return configured
	}
	return fallback
}

func joinURLs(urls []string) string {
	if len(urls) == 0 {
		return "(No URLs available. Do not cite any URL.)"
	}
	var b strings.Builder
	for i, u := range urls {
		if i >= 20 {
			fmt.Fprintf(&b, "\n... and %d more URLs", len(urls)-20)
			break
		}
		fmt.Fprintf(&b, "\n- %s", u)
	}
	return b.String()
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}

func dietList(flags model.DietaryFlags) string {
	var diets []string
	if flags.Vegan {
		diets = append(diets, "vegan")
	}
	if flags.Vegetarian {
		diets = append(diets, "vegetarian")
	}
	if flags.GlutenFree {
		diets = append(diets, "gluten-free")
	}
	if flags.DairyFree {
		diets = append(diets, "dairy-free")
	}
	if flags.Keto {
		diets = append(diets, "keto")
	}
	return joinOrNone(diets)
}
