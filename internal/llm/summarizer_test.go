package llm

import (
	"context"
	"strings"
	"testing"

	"github.com/ppiankov/foodlens/internal/model"
)

// MockProvider implements the Provider interface for testing
type MockProvider struct {
	name      string
	available bool
	response  *SummarizeResponse
	err       error
	lastReq   SummarizeRequest
}

func (m *MockProvider) Name() string {
	return m.name
}

func (m *MockProvider) Summarize(ctx context.Context, req SummarizeRequest) (*SummarizeResponse, error) {
	m.lastReq = req
	if m.err != nil {
		return nil, m.err
	}
	return m.response, nil
}

func (m *MockProvider) IsAvailable(ctx context.Context) bool {
	return m.available
}

func nutellaReport() model.Report {
	return model.Report{
		Subject:   "Nutella",
		SourceURL: productURL,
		Analysis: model.FoodAnalysisResult{
			Name:         "Nutella",
			Ingredients:  []string{"sugar", "palm oil", "hazelnuts", "skimmed milk powder"},
			Allergens:    []string{"milk", "nuts"},
			Additives:    []string{"e322"},
			HealthScore:  11,
			HealthRating: model.RatingVeryPoor,
			DietaryInfo:  model.DietaryFlags{Vegetarian: true, GlutenFree: true},
			Breakdown: []model.Adjustment{
				{Rule: "high_sugar", Delta: -15, Formula: "sugar > 15"},
			},
			Safety: model.SafetyAnalysis{
				MatchedRisks: []model.RegistryEntry{
					{CanonicalName: "Palm Oil", Severity: model.SeverityLow, Category: model.CategoryOil, Warnings: []string{"Environmental concerns"}},
				},
				SafetyScore: 94,
				OverallRisk: model.RiskLow,
			},
		},
	}
}

func TestNewSummarizer_DisabledProvider(t *testing.T) {
	summarizer, err := NewSummarizer(Config{Provider: ""})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if summarizer.provider != nil {
		t.Error("Expected provider to be nil when disabled")
	}
	if summarizer.IsEnabled() {
		t.Error("Expected summarizer to be disabled")
	}
	if summarizer.ProviderName() != "" {
		t.Error("Expected empty provider name when disabled")
	}
}

func TestNewSummarizer_UnknownProvider(t *testing.T) {
	if _, err := NewSummarizer(Config{Provider: "watson"}); err == nil {
		t.Error("Expected error for unknown provider")
	}
}

func TestSummarizer_GenerateSummary_Disabled(t *testing.T) {
	summarizer := &Summarizer{}

	summary, err := summarizer.GenerateSummary(context.Background(), nutellaReport(), "")
	if err != nil {
		t.Errorf("Expected no error when disabled, got %v", err)
	}
	if summary != nil {
		t.Error("Expected nil summary when provider disabled")
	}

	var nilSummarizer *Summarizer
	if nilSummarizer.IsEnabled() {
		t.Error("Expected nil summarizer to be disabled")
	}
}

func TestSummarizer_GenerateSummary_ProviderUnavailable(t *testing.T) {
	summarizer := &Summarizer{
		provider: &MockProvider{name: "test-provider", available: false},
		config:   Config{Strict: true},
	}

	summary, err := summarizer.GenerateSummary(context.Background(), nutellaReport(), "")
	if err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if summary == nil {
		t.Fatal("Expected summary object with warnings")
	}
	if summary.Enabled {
		t.Error("Expected summary to be marked as disabled")
	}

	found := false
	for _, warning := range summary.Warnings {
		if strings.Contains(warning, "not available") {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected warning to mention provider unavailability: %v", summary.Warnings)
	}
}

func TestSummarizer_GenerateSummary_Success(t *testing.T) {
	mock := &MockProvider{
		name:      "test-provider",
		available: true,
		response: &SummarizeResponse{
			Summary:    "Mostly sugar and palm oil.",
			CitedURLs:  []string{productURL},
			Model:      "test-model-2",
			TokensUsed: 150,
		},
	}

	summarizer := NewSummarizerWithProvider(mock, Config{Model: "test-model", Strict: true, MaxTokens: 300})

	summary, err := summarizer.GenerateSummary(context.Background(), nutellaReport(), "  Is it vegan? ")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if !summary.Enabled {
		t.Error("Expected summary to be enabled")
	}
	if summary.Provider != "test-provider" {
		t.Errorf("Expected provider 'test-provider', got '%s'", summary.Provider)
	}
	if summary.Model != "test-model-2" {
		t.Errorf("Expected responding model, got '%s'", summary.Model)
	}
	if !summary.Strict {
		t.Error("Expected strict citations to be enabled")
	}
	if summary.Question != "Is it vegan?" {
		t.Errorf("Expected trimmed question, got %q", summary.Question)
	}
	if summary.SummaryMD != "Mostly sugar and palm oil." {
		t.Errorf("Expected summary text to match, got '%s'", summary.SummaryMD)
	}

	if len(mock.lastReq.AllowedURLs) != 1 || mock.lastReq.AllowedURLs[0] != productURL {
		t.Errorf("Expected product URL allowlist, got %v", mock.lastReq.AllowedURLs)
	}
	if mock.lastReq.Question != "Is it vegan?" || mock.lastReq.MaxTokens != 300 {
		t.Errorf("Unexpected request: %+v", mock.lastReq)
	}

	foundTokens, foundCitations := false, false
	for _, warning := range summary.Warnings {
		if strings.Contains(warning, "Tokens used: 150") {
			foundTokens = true
		}
		if strings.Contains(warning, "Verified 1 citations") {
			foundCitations = true
		}
	}
	if !foundTokens || !foundCitations {
		t.Errorf("Expected token and citation notes, got %v", summary.Warnings)
	}
}

func TestSummarizer_GenerateSummary_ProviderError(t *testing.T) {
	summarizer := &Summarizer{
		provider: &MockProvider{name: "test-provider", available: true, err: &mockError{msg: "API rate limit exceeded"}},
		config:   Config{Model: "test-model", Strict: true},
	}

	summary, err := summarizer.GenerateSummary(context.Background(), nutellaReport(), "")
	if err != nil {
		t.Errorf("Expected no error (graceful degradation), got %v", err)
	}
	if summary == nil {
		t.Fatal("Expected summary with error warning")
	}
	if !summary.Enabled {
		t.Error("Expected summary to be marked as enabled (but failed)")
	}
	if summary.SummaryMD != "" {
		t.Errorf("Expected no summary text, got %q", summary.SummaryMD)
	}

	found := false
	for _, warning := range summary.Warnings {
		if strings.Contains(warning, "failed") && strings.Contains(warning, "rate limit") {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected warning to mention error: %v", summary.Warnings)
	}
}

func TestRenderSeparateMarkdown_Disabled(t *testing.T) {
	if md := RenderSeparateMarkdown(&model.LLMSummary{Enabled: false}); md != "" {
		t.Error("Expected empty markdown when disabled")
	}
	if md := RenderSeparateMarkdown(nil); md != "" {
		t.Error("Expected empty markdown when nil")
	}
}

func TestRenderSeparateMarkdown_Success(t *testing.T) {
	md := RenderSeparateMarkdown(&model.LLMSummary{
		Enabled:   true,
		Provider:  "openai",
		Model:     "gpt-4o-mini",
		Question:  "Is it vegan?",
		Strict:    true,
		SummaryMD: "No, it contains skimmed milk powder.",
		Warnings:  []string{"Tokens used: 150", "Verified 1 citations against 1 allowed URLs"},
	})

	required := []string{
		"# LLM Summary",
		"GENERATED CONTENT",
		"**Provider:** openai",
		"**Model:** gpt-4o-mini",
		"**Strict Citations:** true",
		"**Question:** Is it vegan?",
		"No, it contains skimmed milk powder.",
		"## Notes",
		"Tokens used: 150",
		"determined independently",
	}
	for _, section := range required {
		if !strings.Contains(md, section) {
			t.Errorf("Expected markdown to contain '%s'", section)
		}
	}
}

func TestRenderSeparateMarkdown_NoSummary(t *testing.T) {
	md := RenderSeparateMarkdown(&model.LLMSummary{Enabled: true, Provider: "test-provider"})

	if !strings.Contains(md, "No summary generated") {
		t.Error("Expected message about no summary")
	}
	if strings.Contains(md, "## Notes") {
		t.Error("Expected no notes section without warnings")
	}
}

func TestBuildPrompt_BasicStructure(t *testing.T) {
	prompt := BuildPrompt(nutellaReport(), []string{productURL}, "")

	required := []string{
		"MUST ONLY cite URLs from this allowed list",
		productURL,
		"NEVER recompute",
		"Name: Nutella",
		"Health Score: 11/100 (very_poor)",
		"Safety Score: 94/100 (overall risk: low)",
		"Ingredients: 4",
		"Allergens: milk, nuts",
		"Additives: e322",
		"Diets: vegetarian, gluten-free",
		"- Palm Oil (low, oil): Environmental concerns",
		"- high_sugar: -15 (sugar > 15)",
		"3-4 sentence summary",
	}
	for _, element := range required {
		if !strings.Contains(prompt, element) {
			t.Errorf("Expected prompt to contain '%s'", element)
		}
	}
}

func TestBuildPrompt_Question(t *testing.T) {
	prompt := BuildPrompt(nutellaReport(), nil, "Can kids eat this?")

	if !strings.Contains(prompt, "User question: Can kids eat this?") {
		t.Error("Expected question in prompt")
	}
	if strings.Contains(prompt, "3-4 sentence summary") {
		t.Error("Expected question to replace the summary instruction")
	}
	if !strings.Contains(prompt, "No URLs available") {
		t.Error("Expected message about no allowed URLs")
	}
}

func TestBuildPrompt_EmptyAnalysis(t *testing.T) {
	prompt := BuildPrompt(model.Report{Subject: "Water"}, nil, "")

	for _, element := range []string{"Allergens: none", "Additives: none", "Diets: none"} {
		if !strings.Contains(prompt, element) {
			t.Errorf("Expected prompt to contain '%s'", element)
		}
	}
	if strings.Contains(prompt, "Flagged ingredients") {
		t.Error("Expected no flagged section without matches")
	}
}

func TestBuildPrompt_CapsFlaggedIngredients(t *testing.T) {
	report := nutellaReport()
	report.Analysis.Safety.MatchedRisks = make([]model.RegistryEntry, 7)
	for i := range report.Analysis.Safety.MatchedRisks {
		report.Analysis.Safety.MatchedRisks[i] = model.RegistryEntry{CanonicalName: "MSG", Severity: model.SeverityMedium, Category: model.CategoryAdditive}
	}

	prompt := BuildPrompt(report, nil, "")
	if !strings.Contains(prompt, "... and 2 more") {
		t.Error("Expected truncation of flagged ingredients")
	}
}

func TestJoinURLs_Many(t *testing.T) {
	urls := make([]string, 25)
	for i := range urls {
		urls[i] = "https://example.com/" + string(rune('a'+i))
	}

	result := joinURLs(urls)
	if !strings.Contains(result, "and 5 more URLs") {
		t.Error("Expected truncation message for many URLs")
	}
	if !strings.Contains(result, urls[0]) {
		t.Error("Expected first URL to be listed")
	}
}

func TestCheckCitations(t *testing.T) {
	text := "See " + productURL + ", and " + productURL + "."

	cited, err := checkCitations(text, []string{productURL}, true)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(cited) != 1 {
		t.Errorf("Expected deduplicated citation, got %v", cited)
	}

	if _, err := checkCitations("(https://evil.example/x)", []string{productURL}, true); err == nil {
		t.Error("Expected leak error in strict mode")
	}
	if _, err := checkCitations("https://evil.example/x", nil, false); err != nil {
		t.Errorf("Expected no error in lenient mode, got %v", err)
	}
}

func TestAllowedURLs(t *testing.T) {
	if got := AllowedURLs(model.Report{}); got != nil {
		t.Errorf("Expected no URLs, got %v", got)
	}
	if got := AllowedURLs(nutellaReport()); len(got) != 1 || got[0] != productURL {
		t.Errorf("Unexpected URLs: %v", got)
	}
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.Provider != "" {
		t.Errorf("Expected provider to be empty (disabled), got '%s'", config.Provider)
	}
	if !config.Strict {
		t.Error("Expected strict citations by default")
	}
	if config.Timeout <= 0 || config.MaxTokens <= 0 {
		t.Error("Expected positive timeout and max tokens")
	}
}

func TestConfigFromModel(t *testing.T) {
	cfg := ConfigFromModel(
		model.LLMConfig{Provider: "ollama", Model: "llama3.1", Timeout: 10, Strict: true, MaxTokens: 400},
		model.HTTPConfig{HTTPProxy: "http://proxy:3128", NoProxy: "localhost"},
	)

	if cfg.Provider != "ollama" || cfg.Model != "llama3.1" || !cfg.Strict || cfg.MaxTokens != 400 {
		t.Errorf("Unexpected config: %+v", cfg)
	}
	if cfg.HTTPProxy != "http://proxy:3128" || cfg.NoProxy != "localhost" {
		t.Errorf("Expected proxy settings to carry over: %+v", cfg)
	}
}

func TestSummarizer_IsEnabledAndName(t *testing.T) {
	enabled := &Summarizer{provider: &MockProvider{name: "test-provider"}}

	if !enabled.IsEnabled() {
		t.Error("Expected IsEnabled() to return true when provider exists")
	}
	if enabled.ProviderName() != "test-provider" {
		t.Errorf("Expected provider name 'test-provider', got '%s'", enabled.ProviderName())
	}
}

type mockError struct {
	msg string
}

func (e *mockError) Error() string {
	return e.msg
}
