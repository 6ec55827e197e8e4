package server

import (
	"fmt"

	"github.com/ppiankov/foodlens/internal/analyze"
	"github.com/ppiankov/foodlens/internal/model"
)

// AnalyzeRequest is the body of POST /v1/analyze
type AnalyzeRequest struct {
	Name        string             `json:"name" validate:"max=200"`
	Ingredients []string           `json:"ingredients" validate:"maxingredients,dive,max=500"`
	Nutrition   map[string]float64 `json:"nutrition" validate:"omitempty,max=20,dive,gte=0"` // null or missing means unknown
	Allergens   []string           `json:"allergens" validate:"max=100,dive,max=200"`
	Additives   []string           `json:"additives" validate:"max=100,dive,max=200"`
}

// Input converts the request into analyzer input. Unrecognized nutrient
// names are rejected rather than silently dropped, and so are two spellings
// of the same nutrient ("sugar" and "sugars").
func (r AnalyzeRequest) Input() (analyze.Input, error) {
	var facts model.NutritionFacts
	if r.Nutrition != nil {
		facts = make(model.NutritionFacts, len(r.Nutrition))
		for name, v := range r.Nutrition {
			n, ok := model.ParseNutrient(name)
			if !ok {
				return analyze.Input{}, fmt.Errorf("unknown nutrient %q", name)
			}
			if _, dup := facts[n]; dup {
				return analyze.Input{}, fmt.Errorf("nutrient %s set more than once", n)
			}
			facts[n] = v
		}
	}

	return analyze.Input{
		Name:        r.Name,
		Ingredients: r.Ingredients,
		Nutrition:   facts,
		Allergens:   r.Allergens,
		Additives:   r.Additives,
	}, nil
}

// AnalyzeResponse is returned by POST /v1/analyze
type AnalyzeResponse struct {
	RequestID string                   `json:"request_id"`
	RiskMeter model.SafetyBand         `json:"risk_meter"`
	Analysis  model.FoodAnalysisResult `json:"analysis"`
}

// SafetyRequest is the body of POST /v1/safety
type SafetyRequest struct {
	Ingredients []string `json:"ingredients" validate:"maxingredients,dive,max=500"`
}

// SafetyResponse is returned by POST /v1/safety
type SafetyResponse struct {
	RequestID string               `json:"request_id"`
	RiskMeter model.SafetyBand     `json:"risk_meter"`
	Safety    model.SafetyAnalysis `json:"safety"`
}

// ScanRequest is the body of POST /v1/scan
type ScanRequest struct {
	Query    string `json:"query" validate:"required,max=10000"`
	Kind     string `json:"kind" validate:"omitempty,oneof=barcode search text list"`
	Question string `json:"question" validate:"max=500"`
}

// RegistryResponse is returned by GET /v1/registry
type RegistryResponse struct {
	Count   int                   `json:"count"`
	Entries []model.RegistryEntry `json:"entries"`
}

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Error       string `json:"error"`
	Description string `json:"error_description,omitempty"`
	RequestID   string `json:"request_id,omitempty"`
}
