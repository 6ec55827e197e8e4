package model

import (
	"maps"
	"strings"
)

// Nutrient names a recognized nutrition fact
type Nutrient string

const (
	NutrientCalories Nutrient = "calories" // kcal per reference serving
	NutrientFat      Nutrient = "fat"      // g
	NutrientCarbs    Nutrient = "carbs"    // g
	NutrientProtein  Nutrient = "protein"  // g
	NutrientFiber    Nutrient = "fiber"    // g
	NutrientSugar    Nutrient = "sugar"    // g
	NutrientSodium   Nutrient = "sodium"   // mg
)

// KnownNutrients lists the recognized nutrients in display order
var KnownNutrients = []Nutrient{
	NutrientCalories,
	NutrientFat,
	NutrientCarbs,
	NutrientProtein,
	NutrientFiber,
	NutrientSugar,
	NutrientSodium,
}

var nutrientAliases = map[string]Nutrient{
	"calories":      NutrientCalories,
	"energy":        NutrientCalories,
	"kcal":          NutrientCalories,
	"energy_kcal":   NutrientCalories,
	"fat":           NutrientFat,
	"carbs":         NutrientCarbs,
	"carbohydrates": NutrientCarbs,
	"protein":       NutrientProtein,
	"proteins":      NutrientProtein,
	"fiber":         NutrientFiber,
	"fibre":         NutrientFiber,
	"sugar":         NutrientSugar,
	"sugars":        NutrientSugar,
	"sodium":        NutrientSodium,
}

// ParseNutrient maps a loosely spelled nutrient name onto a recognized key
func ParseNutrient(name string) (Nutrient, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	key = strings.ReplaceAll(key, "-", "_")
	n, ok := nutrientAliases[key]
	return n, ok
}

// NutritionFacts maps nutrients to amounts per reference serving.
//
// A nil map means no nutrition data was supplied at all. A missing key means
// that nutrient is unknown, which is not the same as a present zero.
type NutritionFacts map[Nutrient]float64

// Present reports whether any nutrition data was supplied
func (n NutritionFacts) Present() bool {
	return n != nil
}

// Get returns the amount for a nutrient and whether it is known
func (n NutritionFacts) Get(key Nutrient) (float64, bool) {
	v, ok := n[key]
	return v, ok
}

// Clone returns an independent copy (nil stays nil)
func (n NutritionFacts) Clone() NutritionFacts {
	if n == nil {
		return nil
	}
	return maps.Clone(n)
}
