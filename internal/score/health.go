package score

import (
	"fmt"
	"math"

	"github.com/ppiankov/foodlens/internal/model"
)

const baseHealthScore = 50

// nutritionRule is one independent health adjustment driven by a single nutrient
type nutritionRule struct {
	name     string
	nutrient model.Nutrient
	fires    func(v float64) bool
	delta    int
	formula  string
}

var nutritionRules = []nutritionRule{
	{"high_protein", model.NutrientProtein, func(v float64) bool { return v > 10 }, 15, "protein > 10"},
	{"high_fiber", model.NutrientFiber, func(v float64) bool { return v > 3 }, 15, "fiber > 3"},
	{"low_calorie", model.NutrientCalories, func(v float64) bool { return v < 200 }, 10, "calories < 200"},
	{"high_sugar", model.NutrientSugar, func(v float64) bool { return v > 15 }, -20, "sugar > 15"},
	{"high_sodium", model.NutrientSodium, func(v float64) bool { return v > 600 }, -15, "sodium > 600"},
	{"high_fat", model.NutrientFat, func(v float64) bool { return v > 20 }, -10, "fat > 20"},
}

// HealthScorer combines nutrition facts with additive and allergen counts
type HealthScorer struct{}

// NewHealthScorer creates a new health scorer
func NewHealthScorer() *HealthScorer {
	return &HealthScorer{}
}

// Calculate returns the 0-100 health score
func (s *HealthScorer) Calculate(nutrition model.NutritionFacts, additives, allergens []string) int {
	score, _ := s.Breakdown(nutrition, additives, allergens)
	return score
}

// Breakdown returns the health score together with every adjustment that fired.
// A rule whose nutrient is unknown does not fire; a known zero does.
func (s *HealthScorer) Breakdown(nutrition model.NutritionFacts, additives, allergens []string) (int, []model.Adjustment) {
	score := baseHealthScore
	var adjustments []model.Adjustment

	if nutrition.Present() {
		for _, rule := range nutritionRules {
			v, ok := nutrition.Get(rule.nutrient)
			if !ok || !rule.fires(v) {
				continue
			}
			score += rule.delta
			adjustments = append(adjustments, model.Adjustment{
				Rule:    rule.name,
				Delta:   rule.delta,
				Formula: rule.formula,
			})
		}
	}

	if n := len(additives); n > 0 {
		score -= 5 * n
		adjustments = append(adjustments, model.Adjustment{
			Rule:    "additives",
			Delta:   -5 * n,
			Formula: fmt.Sprintf("-5 * %d additives", n),
		})
	}

	// Allergens are informational; weighted lightly
	if n := len(allergens); n > 0 {
		score -= 2 * n
		adjustments = append(adjustments, model.Adjustment{
			Rule:    "allergens",
			Delta:   -2 * n,
			Formula: fmt.Sprintf("-2 * %d allergens", n),
		})
	}

	return clamp(score), adjustments
}

func clamp(score int) int {
	return int(math.Round(math.Max(0, math.Min(100, float64(score)))))
}
