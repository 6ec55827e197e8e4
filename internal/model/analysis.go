package model

// RiskLevel is the coarse risk tier of a safety analysis
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// SafetyAnalysis is the registry-based safety verdict for an ingredient list
type SafetyAnalysis struct {
	MatchedRisks  []RegistryEntry `json:"matched_risks"`  // One per matching ingredient, input order, duplicates kept
	SafetyScore   int             `json:"safety_score"`   // 0-100, higher is safer
	OverallRisk   RiskLevel       `json:"overall_risk"`   // Derived from TotalSeverity
	TotalSeverity int             `json:"total_severity"` // Sum of matched severity weights
	MaxPossible   int             `json:"max_possible"`   // 4 * ingredient count
}

// DietaryFlags holds diet compatibility indicators
type DietaryFlags struct {
	Vegan      bool `json:"vegan"`
	Vegetarian bool `json:"vegetarian"`
	GlutenFree bool `json:"gluten_free"`
	DairyFree  bool `json:"dairy_free"`
	Keto       bool `json:"keto"`
}

// Map returns the flags keyed by diet name
func (d DietaryFlags) Map() map[string]bool {
	return map[string]bool{
		"vegan":      d.Vegan,
		"vegetarian": d.Vegetarian,
		"glutenFree": d.GlutenFree,
		"dairyFree":  d.DairyFree,
		"keto":       d.Keto,
	}
}

// Adjustment is one health score rule that fired, with its formula
type Adjustment struct {
	Rule    string `json:"rule"`
	Delta   int    `json:"delta"`
	Formula string `json:"formula"`
}

// RiskIndicators summarises label features a presentation layer highlights
type RiskIndicators struct {
	Additives        int  `json:"additives"`
	Allergens        int  `json:"allergens"`
	TransFats        bool `json:"trans_fats"`
	HighSodium       bool `json:"high_sodium"`
	ArtificialColors bool `json:"artificial_colors"`
	Preservatives    int  `json:"preservatives"`
}

// FoodAnalysisResult is the complete analysis of one product.
// It is built fresh per request and never mutated afterwards.
type FoodAnalysisResult struct {
	Name         string         `json:"name"`
	Ingredients  []string       `json:"ingredients"`
	Nutrition    NutritionFacts `json:"nutrition,omitempty"` // Absent keys are unknown, not zero
	Additives    []string       `json:"additives"`
	Allergens    []string       `json:"allergens"`
	DietaryInfo  DietaryFlags   `json:"dietary_info"`
	HealthScore  int            `json:"health_score"` // 0-100
	HealthRating HealthRating   `json:"health_rating"`
	Breakdown    []Adjustment   `json:"health_breakdown,omitempty"`
	Safety       SafetyAnalysis `json:"safety"`
	Indicators   RiskIndicators `json:"indicators"`
}

// HealthRating is the display band of a health score
type HealthRating string

const (
	RatingExcellent HealthRating = "excellent"
	RatingGood      HealthRating = "good"
	RatingModerate  HealthRating = "moderate"
	RatingPoor      HealthRating = "poor"
	RatingVeryPoor  HealthRating = "very_poor"
)

// RateHealth maps a health score onto its display band
func RateHealth(score int) HealthRating {
	switch {
	case score >= 80:
		return RatingExcellent
	case score >= 60:
		return RatingGood
	case score >= 40:
		return RatingModerate
	case score >= 20:
		return RatingPoor
	default:
		return RatingVeryPoor
	}
}

// SafetyBand is the display band of a safety score (risk meter)
type SafetyBand string

const (
	BandLow      SafetyBand = "low"
	BandMedium   SafetyBand = "medium"
	BandHigh     SafetyBand = "high"
	BandCritical SafetyBand = "critical"
)

// BandForSafety maps a safety score onto its risk meter band
func BandForSafety(score int) SafetyBand {
	switch {
	case score >= 80:
		return BandLow
	case score >= 60:
		return BandMedium
	case score >= 40:
		return BandHigh
	default:
		return BandCritical
	}
}
