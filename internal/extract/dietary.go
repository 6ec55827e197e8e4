package extract

import (
	"strings"

	"github.com/ppiankov/foodlens/internal/model"
)

// Keto thresholds per reference serving
const (
	ketoMaxCarbs = 10
	ketoMinFat   = 15
)

// DietaryClassifier derives diet compatibility flags from label text
type DietaryClassifier struct {
	nonVegan      []string
	nonVegetarian []string
	gluten        []string
	dairy         []string
}

// NewDietaryClassifier creates a new dietary classifier
func NewDietaryClassifier() *DietaryClassifier {
	return &DietaryClassifier{
		nonVegan: []string{
			"meat", "chicken", "beef", "pork", "fish", "milk", "egg",
			"honey", "cheese", "butter", "cream", "whey", "casein", "gelatin",
		},
		nonVegetarian: []string{
			"meat", "chicken", "beef", "pork", "fish", "gelatin",
		},
		gluten: []string{
			"gluten", "wheat", "barley", "rye", "spelt",
		},
		dairy: []string{
			"milk", "dairy", "lactose", "cheese", "butter", "cream", "whey", "casein",
		},
	}
}

// Classify computes every flag independently. Keywords match as substrings,
// so "buttermilk" disqualifies both vegan and dairy-free.
func (c *DietaryClassifier) Classify(ingredients, allergens []string, nutrition model.NutritionFacts) model.DietaryFlags {
	ingredientText := strings.ToLower(strings.Join(ingredients, " "))
	combined := strings.ToLower(strings.Join(allergens, " ")) + " " + ingredientText

	return model.DietaryFlags{
		Vegan:      !containsAny(ingredientText, c.nonVegan),
		Vegetarian: !containsAny(ingredientText, c.nonVegetarian),
		GlutenFree: !containsAny(combined, c.gluten),
		DairyFree:  !containsAny(combined, c.dairy),
		Keto:       isKeto(nutrition),
	}
}

// isKeto requires both carbs and fat to be known
func isKeto(nutrition model.NutritionFacts) bool {
	if !nutrition.Present() {
		return false
	}
	carbs, ok := nutrition.Get(model.NutrientCarbs)
	if !ok {
		return false
	}
	fat, ok := nutrition.Get(model.NutrientFat)
	if !ok {
		return false
	}
	return carbs < ketoMaxCarbs && fat > ketoMinFat
}

func containsAny(text string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(text, keyword) {
			return true
		}
	}
	return false
}
