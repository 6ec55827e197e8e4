package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/foodlens/internal/analyze"
	"github.com/ppiankov/foodlens/internal/extract"
	"github.com/ppiankov/foodlens/internal/model"
	"github.com/ppiankov/foodlens/internal/pipeline"
)

var (
	productName    string
	nutritionFlags []string
	allergenFlags  []string
	additiveFlags  []string
	detectLabels   bool
	analyzeJSON    string
	analyzeMD      string
)

// analyzeCmd runs the full analysis on locally supplied label data
var analyzeCmd = &cobra.Command{
	Use:   "analyze <ingredients>",
	Short: "Analyze a product from ingredients, nutrition, allergens and additives",
	Long: `Analyze runs the safety, dietary and health analysis on label data
supplied on the command line. No network access is needed.

Ingredients are a comma or semicolon separated list; a leading
"Ingredients:" label is ignored. Nutrition is given as name=value pairs
per reference serving (calories in kcal, sodium in mg, the rest in g).
A nutrient that is not given is unknown, which differs from 0.

Example:
  foodlens analyze "sugar, palm oil, hazelnuts, cocoa, skim milk powder" \
    --nutrition calories=539,fat=30.9,carbs=57.5,protein=6.3,sugar=56.3,sodium=41 \
    --allergen milk --allergen nuts
  foodlens analyze "water, salt" --detect --json -`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

// safetyCmd runs only the registry-based safety analysis
var safetyCmd = &cobra.Command{
	Use:   "safety <ingredients>",
	Short: "Score an ingredient list against the risk registry",
	Long: `Safety matches each ingredient against the risk registry and prints the
safety score, overall risk tier and every flagged ingredient.

Example:
  foodlens safety "water, partially hydrogenated oil, msg"`,
	Args: cobra.ExactArgs(1),
	RunE: runSafety,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(safetyCmd)

	analyzeCmd.Flags().StringVar(&productName, "name", "", "product name shown in the report")
	analyzeCmd.Flags().StringSliceVar(&nutritionFlags, "nutrition", nil, "nutrition facts as name=value (repeatable or comma separated)")
	analyzeCmd.Flags().StringArrayVar(&allergenFlags, "allergen", nil, "declared allergen (repeatable)")
	analyzeCmd.Flags().StringArrayVar(&additiveFlags, "additive", nil, "declared additive (repeatable)")
	analyzeCmd.Flags().BoolVar(&detectLabels, "detect", false, "infer allergens and additives from ingredient keywords when none are given")
	analyzeCmd.Flags().StringVar(&analyzeJSON, "json", "", "output JSON path (- for stdout)")
	analyzeCmd.Flags().StringVar(&analyzeMD, "md", "", "output Markdown path (- for stdout)")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, _, reg, err := setup()
	if err != nil {
		return err
	}

	nutrition, err := parseNutrition(nutritionFlags)
	if err != nil {
		return err
	}

	ingredients := extract.SplitIngredients(args[0])
	allergens := allergenFlags
	additives := additiveFlags
	if detectLabels {
		if len(allergens) == 0 {
			allergens = extract.DetectAllergens(ingredients)
		}
		if len(additives) == 0 {
			additives = extract.DetectAdditives(ingredients)
		}
	}

	result := analyze.New(reg).Analyze(analyze.Input{
		Name:        productName,
		Ingredients: ingredients,
		Nutrition:   nutrition,
		Allergens:   allergens,
		Additives:   additives,
	})

	subject := productName
	if subject == "" {
		subject = fmt.Sprintf("Product with %d ingredients", len(ingredients))
	}
	report := &model.Report{
		Subject:   subject,
		Query:     strings.TrimSpace(args[0]),
		Kind:      model.InputList,
		ScannedAt: time.Now().UTC(),
		Analysis:  result,
	}

	renderer := pipeline.NewRenderer(cfg.Output.IncludeFooter)
	if analyzeJSON != "" {
		if err := renderer.RenderJSON(report, analyzeJSON); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
	}
	if analyzeMD != "" {
		if err := renderer.RenderMarkdown(report, analyzeMD); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
	}
	renderer.RenderSummary(report)

	return nil
}

func runSafety(cmd *cobra.Command, args []string) error {
	_, _, reg, err := setup()
	if err != nil {
		return err
	}

	ingredients := extract.SplitIngredients(args[0])
	safety := analyze.New(reg).AnalyzeSafety(ingredients)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Safety score: %d/100 (%s risk, meter: %s)\n",
		safety.SafetyScore, safety.OverallRisk, model.BandForSafety(safety.SafetyScore))
	fmt.Fprintf(out, "Severity:     %d of %d possible\n", safety.TotalSeverity, safety.MaxPossible)

	if len(safety.MatchedRisks) == 0 {
		fmt.Fprintf(out, "\nNo flagged ingredients.\n")
		return nil
	}

	fmt.Fprintf(out, "\nFlagged ingredients:\n")
	for _, entry := range safety.MatchedRisks {
		fmt.Fprintf(out, "  - %s [%s, %s]\n", entry.CanonicalName, entry.Severity, entry.Category)
		for _, w := range entry.Warnings {
			fmt.Fprintf(out, "      %s\n", w)
		}
		if len(entry.BannedRegions) > 0 {
			fmt.Fprintf(out, "      Banned in: %s\n", strings.Join(entry.BannedRegions, ", "))
		}
	}

	if verbose {
		data, err := json.MarshalIndent(safety, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal safety analysis: %w", err)
		}
		fmt.Fprintf(os.Stderr, "\n%s\n", data)
	}

	return nil
}

// parseNutrition turns name=value pairs into nutrition facts. No pairs means
// nutrition is unknown (nil), not zero.
func parseNutrition(pairs []string) (model.NutritionFacts, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	facts := make(model.NutritionFacts, len(pairs))
	for _, pair := range pairs {
		name, raw, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("invalid nutrition %q: expected name=value", pair)
		}
		n, ok := model.ParseNutrient(name)
		if !ok {
			return nil, fmt.Errorf("unknown nutrient %q", name)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid value for %s: %w", name, err)
		}
		if v < 0 {
			return nil, fmt.Errorf("invalid value for %s: must not be negative", name)
		}
		facts[n] = v
	}
	return facts, nil
}
