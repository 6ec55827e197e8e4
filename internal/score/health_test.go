package score

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ppiankov/foodlens/internal/model"
)

func TestHealthScorer_BaseScore(t *testing.T) {
	assert.Equal(t, 50, NewHealthScorer().Calculate(nil, nil, nil))
	assert.Equal(t, 50, NewHealthScorer().Calculate(nil, []string{}, []string{}))
}

func TestHealthScorer_AllBonuses(t *testing.T) {
	nutrition := model.NutritionFacts{
		model.NutrientProtein:  12,
		model.NutrientFiber:    5,
		model.NutrientCalories: 150,
		model.NutrientSugar:    5,
		model.NutrientSodium:   200,
		model.NutrientFat:      10,
	}

	score, breakdown := NewHealthScorer().Breakdown(nutrition, nil, nil)

	assert.Equal(t, 90, score)
	assert.Len(t, breakdown, 3)
}

func TestHealthScorer_Rules(t *testing.T) {
	scorer := NewHealthScorer()

	tests := []struct {
		name      string
		nutrition model.NutritionFacts
		additives []string
		allergens []string
		want      int
	}{
		{"all penalties", model.NutritionFacts{model.NutrientSugar: 30, model.NutrientSodium: 900, model.NutrientFat: 25, model.NutrientCalories: 450}, nil, nil, 5},
		{"thresholds are strict", model.NutritionFacts{model.NutrientProtein: 10, model.NutrientFiber: 3, model.NutrientCalories: 200, model.NutrientSugar: 15, model.NutrientSodium: 600, model.NutrientFat: 20}, nil, nil, 50},
		{"present zero calories fires", model.NutritionFacts{model.NutrientCalories: 0}, nil, nil, 60},
		{"unknown calories does not fire", model.NutritionFacts{}, nil, nil, 50},
		{"additives and allergens", nil, []string{"e330", "e621"}, []string{"milk"}, 38},
		{"clamped at zero", model.NutritionFacts{model.NutrientSugar: 40}, make([]string, 12), nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, scorer.Calculate(tt.nutrition, tt.additives, tt.allergens))
		})
	}
}

func TestHealthScorer_Bounds(t *testing.T) {
	scorer := NewHealthScorer()
	best := model.NutritionFacts{model.NutrientProtein: 50, model.NutrientFiber: 20, model.NutrientCalories: 10}
	worst := model.NutritionFacts{model.NutrientSugar: 90, model.NutrientSodium: 5000, model.NutrientFat: 90}

	for _, n := range []model.NutritionFacts{nil, {}, best, worst} {
		for _, count := range []int{0, 3, 30} {
			got := scorer.Calculate(n, make([]string, count), make([]string, count))
			assert.GreaterOrEqual(t, got, 0)
			assert.LessOrEqual(t, got, 100)
		}
	}
}

func TestHealthScorer_BreakdownFormulas(t *testing.T) {
	_, breakdown := NewHealthScorer().Breakdown(
		model.NutritionFacts{model.NutrientSugar: 20},
		[]string{"e102"},
		[]string{"soy", "milk"},
	)

	assert.Equal(t, []model.Adjustment{
		{Rule: "high_sugar", Delta: -20, Formula: "sugar > 15"},
		{Rule: "additives", Delta: -5, Formula: "-5 * 1 additives"},
		{Rule: "allergens", Delta: -4, Formula: "-2 * 2 allergens"},
	}, breakdown)
}
