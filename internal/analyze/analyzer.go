// Package analyze assembles the food analysis result from the scoring and
// classification components. Every operation is pure and safe for concurrent use.
package analyze

import (
	"context"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/ppiankov/foodlens/internal/extract"
	"github.com/ppiankov/foodlens/internal/model"
	"github.com/ppiankov/foodlens/internal/registry"
	"github.com/ppiankov/foodlens/internal/score"
)

const highSodiumThreshold = 600

// Input is a normalized product description ready for analysis
type Input struct {
	Name        string
	Ingredients []string
	Nutrition   model.NutritionFacts // nil when unknown
	Allergens   []string
	Additives   []string
}

// InputFromProduct converts a collaborator's product record into analyzer input
func InputFromProduct(p model.ProductInput) Input {
	return Input{
		Name:        p.Name,
		Ingredients: p.Ingredients,
		Nutrition:   p.Nutrition,
		Allergens:   p.Allergens,
		Additives:   p.Additives,
	}
}

// Analyzer orchestrates safety, dietary and health analysis
type Analyzer struct {
	safety  *score.SafetyAnalyzer
	health  *score.HealthScorer
	dietary *extract.DietaryClassifier
}

// New creates an analyzer over reg. A nil registry uses the built-in catalog.
func New(reg *registry.Registry) *Analyzer {
	return &Analyzer{
		safety:  score.NewSafetyAnalyzer(registry.NewMatcher(reg)),
		health:  score.NewHealthScorer(),
		dietary: extract.NewDietaryClassifier(),
	}
}

// Analyze produces a complete result. It never fails: empty input yields
// neutral dietary flags and the base health score minus penalties.
func (a *Analyzer) Analyze(in Input) model.FoodAnalysisResult {
	ingredients := cloneStrings(in.Ingredients)
	allergens := cloneStrings(in.Allergens)
	additives := cloneStrings(in.Additives)
	nutrition := in.Nutrition.Clone()

	healthScore, breakdown := a.health.Breakdown(nutrition, additives, allergens)

	return model.FoodAnalysisResult{
		Name:         in.Name,
		Ingredients:  ingredients,
		Nutrition:    nutrition,
		Additives:    additives,
		Allergens:    allergens,
		DietaryInfo:  a.dietary.Classify(ingredients, allergens, nutrition),
		HealthScore:  healthScore,
		HealthRating: model.RateHealth(healthScore),
		Breakdown:    breakdown,
		Safety:       a.safety.Analyze(ingredients),
		Indicators:   indicators(ingredients, nutrition, additives, allergens),
	}
}

// AnalyzeSafety runs only the registry-based safety analysis
func (a *Analyzer) AnalyzeSafety(ingredients []string) model.SafetyAnalysis {
	return a.safety.Analyze(ingredients)
}

// AnalyzeAll analyzes inputs in parallel with at most workers goroutines.
// Results keep input order. Only context cancellation produces an error.
func (a *Analyzer) AnalyzeAll(ctx context.Context, inputs []Input, workers int) ([]model.FoodAnalysisResult, error) {
	if workers < 1 {
		workers = 1
	}

	results := make([]model.FoodAnalysisResult, len(inputs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, in := range inputs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = a.Analyze(in)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func indicators(ingredients []string, nutrition model.NutritionFacts, additives, allergens []string) model.RiskIndicators {
	ri := model.RiskIndicators{
		Additives: len(additives),
		Allergens: len(allergens),
	}

	for _, ing := range ingredients {
		lower := strings.ToLower(ing)
		if strings.Contains(lower, "trans fat") || strings.Contains(lower, "partially hydrogenated") {
			ri.TransFats = true
			break
		}
	}

	if sodium, ok := nutrition.Get(model.NutrientSodium); ok && sodium > highSodiumThreshold {
		ri.HighSodium = true
	}

	for _, add := range additives {
		lower := strings.ToLower(add)
		if strings.Contains(lower, "color") || strings.Contains(lower, "dye") {
			ri.ArtificialColors = true
		}
		if strings.Contains(lower, "preserv") || strings.Contains(lower, "acid") || strings.Contains(lower, "benzoate") {
			ri.Preservatives++
		}
	}

	return ri
}

// cloneStrings copies s, mapping nil to an empty slice so results always
// serialize as JSON arrays
func cloneStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return slices.Clone(s)
}
