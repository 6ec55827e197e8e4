package model

import "time"

// InputKind identifies how a product was described to the scanner
type InputKind string

const (
	InputBarcode InputKind = "barcode" // Product barcode looked up in the product database
	InputSearch  InputKind = "search"  // Free-text product name searched in the product database
	InputText    InputKind = "text"    // OCR or pasted label text
	InputList    InputKind = "list"    // Already tokenized ingredient list
)

// ProductInput is the normalized data handed to the analyzer by a collaborator
type ProductInput struct {
	Name        string         `json:"name"`
	Barcode     string         `json:"barcode,omitempty"`
	SourceURL   string         `json:"source_url,omitempty"`
	Kind        InputKind      `json:"kind"`
	Ingredients []string       `json:"ingredients"`
	Nutrition   NutritionFacts `json:"nutrition,omitempty"`
	Allergens   []string       `json:"allergens,omitempty"`
	Additives   []string       `json:"additives,omitempty"`
}

// Report represents a complete foodlens scan report
type Report struct {
	Subject   string    `json:"subject"`              // Product name shown to the user
	Query     string    `json:"query"`                // Raw input that was scanned
	Kind      InputKind `json:"kind"`                 // How the query was resolved
	SourceURL string    `json:"source_url,omitempty"` // Product database page, if any
	ScannedAt time.Time `json:"scanned_at"`

	Analysis FoodAnalysisResult `json:"analysis"`

	LLM *LLMSummary `json:"llm,omitempty"` // Optional assistant summary (never affects scores)
}

// LLMSummary contains optional LLM-generated explanation of an analysis
type LLMSummary struct {
	Enabled   bool     `json:"enabled"`
	Provider  string   `json:"provider,omitempty"` // openai, anthropic, ollama
	Model     string   `json:"model,omitempty"`
	Question  string   `json:"question,omitempty"` // User question answered, if any
	Strict    bool     `json:"strict"`             // Whether URL allowlist enforcement was enabled
	SummaryMD string   `json:"summary_md,omitempty"`
	Warnings  []string `json:"warnings,omitempty"`
}
