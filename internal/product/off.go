package product

import (
	"strconv"
	"strings"

	"github.com/ppiankov/foodlens/internal/extract"
	"github.com/ppiankov/foodlens/internal/model"
)

// productResponse is the body of /api/v0/product/{code}.json
type productResponse struct {
	Status        int        `json:"status"` // 1 found, 0 not found
	StatusVerbose string     `json:"status_verbose"`
	Code          string     `json:"code"`
	Product       offProduct `json:"product"`
}

// searchResponse is the body of /cgi/search.pl?json=1
type searchResponse struct {
	Count    int          `json:"count"`
	Products []offProduct `json:"products"`
}

type offProduct struct {
	Code                         string         `json:"code"`
	ProductName                  string         `json:"product_name"`
	IngredientsText              string         `json:"ingredients_text"`
	IngredientsTextWithAllergens string         `json:"ingredients_text_with_allergens"`
	Nutriments                   map[string]any `json:"nutriments"`
	AllergensTags                []string       `json:"allergens_tags"`
	AdditivesTags                []string       `json:"additives_tags"`
}

// nutrimentKeys maps per-100g nutriment fields onto nutrients, in lookup priority
var nutrimentKeys = []struct {
	key      string
	nutrient model.Nutrient
	scale    float64
}{
	{"energy-kcal_100g", model.NutrientCalories, 1},
	{"energy_kcal_100g", model.NutrientCalories, 1},
	{"fat_100g", model.NutrientFat, 1},
	{"carbohydrates_100g", model.NutrientCarbs, 1},
	{"proteins_100g", model.NutrientProtein, 1},
	{"fiber_100g", model.NutrientFiber, 1},
	{"sugars_100g", model.NutrientSugar, 1},
	{"sodium_100g", model.NutrientSodium, 1000}, // g to mg; the high sodium rule fires above 600 mg
}

// toInput converts a product record into analyzer input. Nutrients missing
// from the record stay missing so they read as unknown.
func (p offProduct) toInput(kind model.InputKind, fallbackName, sourceURL string) model.ProductInput {
	name := strings.TrimSpace(p.ProductName)
	if name == "" {
		name = fallbackName
	}

	allergens := extract.NormalizeTags(p.AllergensTags)
	ingredientsText := p.IngredientsText

	if p.IngredientsTextWithAllergens != "" {
		if label, err := extract.ParseLabelHTML(p.IngredientsTextWithAllergens); err == nil {
			if ingredientsText == "" {
				ingredientsText = label.Text
			}
			allergens = mergeUnique(allergens, label.Allergens)
		}
	}

	return model.ProductInput{
		Name:        name,
		Barcode:     p.Code,
		SourceURL:   sourceURL,
		Kind:        kind,
		Ingredients: extract.SplitIngredients(ingredientsText),
		Nutrition:   nutritionFrom(p.Nutriments),
		Allergens:   allergens,
		Additives:   extract.NormalizeTags(p.AdditivesTags),
	}
}

func nutritionFrom(nutriments map[string]any) model.NutritionFacts {
	if nutriments == nil {
		return nil
	}

	facts := model.NutritionFacts{}
	for _, nk := range nutrimentKeys {
		if _, done := facts[nk.nutrient]; done {
			continue
		}
		raw, ok := nutriments[nk.key]
		if !ok {
			continue
		}
		if v, ok := toFloat(raw); ok {
			facts[nk.nutrient] = v * nk.scale
		}
	}
	return facts
}

// toFloat accepts the numeric and string encodings the product database emits
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func mergeUnique(base, extra []string) []string {
	seen := make(map[string]bool, len(base))
	for _, b := range base {
		seen[strings.ToLower(b)] = true
	}
	for _, e := range extra {
		if !seen[strings.ToLower(e)] {
			seen[strings.ToLower(e)] = true
			base = append(base, e)
		}
	}
	return base
}
