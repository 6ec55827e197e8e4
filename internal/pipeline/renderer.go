package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/ppiankov/foodlens/internal/model"
)

// Renderer writes reports as JSON, Markdown and a short terminal summary
type Renderer struct {
	includeFooter bool
	out           io.Writer // summary destination
}

// NewRenderer creates a renderer that writes summaries to stderr
func NewRenderer(includeFooter bool) *Renderer {
	return &Renderer{
		includeFooter: includeFooter,
		out:           os.Stderr,
	}
}

// SetOutput redirects terminal summaries
func (r *Renderer) SetOutput(w io.Writer) {
	r.out = w
}

// WriteJSON encodes the report as indented JSON
func (r *Renderer) WriteJSON(w io.Writer, report *model.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

// RenderJSON writes the report to path, or stdout when path is "-"
func (r *Renderer) RenderJSON(report *model.Report, path string) error {
	if path == "-" {
		return r.WriteJSON(os.Stdout, report)
	}
	return writeFile(path, func(w io.Writer) error { return r.WriteJSON(w, report) })
}

// RenderMarkdown writes the Markdown report to path, or stdout when path is "-"
func (r *Renderer) RenderMarkdown(report *model.Report, path string) error {
	md := r.Markdown(report)
	if path == "-" {
		_, err := io.WriteString(os.Stdout, md)
		return err
	}
	return writeFile(path, func(w io.Writer) error {
		_, err := io.WriteString(w, md)
		return err
	})
}

// RenderLLMMarkdown writes an already rendered assistant summary
func (r *Renderer) RenderLLMMarkdown(markdown, path string) error {
	return writeFile(path, func(w io.Writer) error {
		_, err := io.WriteString(w, markdown)
		return err
	})
}

// Markdown renders the human-readable report
func (r *Renderer) Markdown(report *model.Report) string {
	a := report.Analysis
	var b strings.Builder

	fmt.Fprintf(&b, "# foodlens report: %s\n\n", report.Subject)
	if report.Query != "" && report.Query != report.Subject {
		fmt.Fprintf(&b, "- **Query:** %s\n", report.Query)
	}
	if report.Kind != "" {
		fmt.Fprintf(&b, "- **Input:** %s\n", report.Kind)
	}
	if report.SourceURL != "" {
		fmt.Fprintf(&b, "- **Source:** %s\n", report.SourceURL)
	}
	if !report.ScannedAt.IsZero() {
		fmt.Fprintf(&b, "- **Scanned:** %s\n", report.ScannedAt.Format("2006-01-02 15:04:05 MST"))
	}

	b.WriteString("\n## Scores\n\n")
	b.WriteString("| Score | Value | Rating |\n|---|---|---|\n")
	fmt.Fprintf(&b, "| Safety | %d/100 | %s risk (meter: %s) |\n",
		a.Safety.SafetyScore, r.label(string(a.Safety.OverallRisk)), model.BandForSafety(a.Safety.SafetyScore))
	fmt.Fprintf(&b, "| Health | %d/100 | %s |\n", a.HealthScore, r.label(string(a.HealthRating)))

	b.WriteString("\n## Flagged Ingredients\n\n")
	if len(a.Safety.MatchedRisks) == 0 {
		b.WriteString("_No registry matches._\n")
	} else {
		b.WriteString("| Ingredient | Severity | Category | Warnings | Banned In |\n|---|---|---|---|---|\n")
		for _, e := range a.Safety.MatchedRisks {
			fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n",
				e.CanonicalName, e.Severity, e.Category,
				joinOr(e.Warnings, "; ", "-"), joinOr(e.BannedRegions, ", ", "-"))
		}
	}
	fmt.Fprintf(&b, "\nTotal severity %d of %d possible.\n", a.Safety.TotalSeverity, a.Safety.MaxPossible)

	b.WriteString("\n## Health Score Breakdown\n\n")
	b.WriteString("Base score 50.\n\n")
	if len(a.Breakdown) > 0 {
		b.WriteString("| Rule | Change | Formula |\n|---|---|---|\n")
		for _, adj := range a.Breakdown {
			fmt.Fprintf(&b, "| %s | %+d | `%s` |\n", adj.Rule, adj.Delta, adj.Formula)
		}
	} else {
		b.WriteString("_No adjustments applied._\n")
	}

	b.WriteString("\n## Dietary\n\n| Diet | Compatible |\n|---|---|\n")
	flags := a.DietaryInfo
	for _, d := range []struct {
		name string
		ok   bool
	}{
		{"Vegan", flags.Vegan},
		{"Vegetarian", flags.Vegetarian},
		{"Gluten free", flags.GlutenFree},
		{"Dairy free", flags.DairyFree},
		{"Keto", flags.Keto},
	} {
		fmt.Fprintf(&b, "| %s | %s |\n", d.name, yesNo(d.ok))
	}

	ind := a.Indicators
	b.WriteString("\n## Indicators\n\n")
	fmt.Fprintf(&b, "- Additives: %d\n", ind.Additives)
	fmt.Fprintf(&b, "- Allergens: %d\n", ind.Allergens)
	fmt.Fprintf(&b, "- Trans fats: %s\n", yesNo(ind.TransFats))
	fmt.Fprintf(&b, "- High sodium: %s\n", yesNo(ind.HighSodium))
	fmt.Fprintf(&b, "- Artificial colors: %s\n", yesNo(ind.ArtificialColors))
	fmt.Fprintf(&b, "- Preservatives: %d\n", ind.Preservatives)

	b.WriteString("\n## Ingredients\n\n")
	if len(a.Ingredients) == 0 {
		b.WriteString("_No ingredients supplied._\n")
	}
	for i, ing := range a.Ingredients {
		fmt.Fprintf(&b, "%d. %s\n", i+1, ing)
	}
	if len(a.Allergens) > 0 {
		fmt.Fprintf(&b, "\n**Allergens:** %s\n", strings.Join(a.Allergens, ", "))
	}
	if len(a.Additives) > 0 {
		fmt.Fprintf(&b, "\n**Additives:** %s\n", strings.Join(a.Additives, ", "))
	}

	b.WriteString("\n## Nutrition\n\n")
	if !a.Nutrition.Present() {
		b.WriteString("_No nutrition data._\n")
	} else {
		b.WriteString("| Nutrient | Amount |\n|---|---|\n")
		for _, n := range model.KnownNutrients {
			if v, ok := a.Nutrition.Get(n); ok {
				fmt.Fprintf(&b, "| %s | %g %s |\n", r.label(string(n)), v, unit(n))
			}
		}
	}

	if report.LLM != nil && report.LLM.Enabled {
		b.WriteString("\n_An LLM summary was generated separately and does not affect these scores._\n")
	}

	if r.includeFooter {
		b.WriteString("\n---\n\n_Generated by foodlens. Scores are rule-based and informational, not medical advice._\n")
	}

	return b.String()
}

// RenderSummary prints a short result block to the summary output
func (r *Renderer) RenderSummary(report *model.Report) {
	a := report.Analysis
	fmt.Fprintf(r.out, "\n%s\n", report.Subject)
	fmt.Fprintf(r.out, "  Safety: %d/100 (%s risk, %d flagged)\n",
		a.Safety.SafetyScore, a.Safety.OverallRisk, len(a.Safety.MatchedRisks))
	fmt.Fprintf(r.out, "  Health: %d/100 (%s)\n", a.HealthScore, strings.ReplaceAll(string(a.HealthRating), "_", " "))

	var diets []string
	for _, name := range []string{"vegan", "vegetarian", "glutenFree", "dairyFree", "keto"} {
		if a.DietaryInfo.Map()[name] {
			diets = append(diets, name)
		}
	}
	fmt.Fprintf(r.out, "  Diets:  %s\n", joinOr(diets, ", ", "none"))

	if report.LLM != nil && report.LLM.Enabled && report.LLM.SummaryMD != "" {
		fmt.Fprintf(r.out, "\n  LLM (%s): %s\n", report.LLM.Provider, report.LLM.SummaryMD)
	}
}

func (r *Renderer) label(s string) string {
	// Casers keep state, so one per call
	return cases.Title(language.English).String(strings.ReplaceAll(s, "_", " "))
}

func writeFile(path string, write func(io.Writer) error) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func unit(n model.Nutrient) string {
	switch n {
	case model.NutrientCalories:
		return "kcal"
	case model.NutrientSodium:
		return "mg"
	default:
		return "g"
	}
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func joinOr(items []string, sep, empty string) string {
	if len(items) == 0 {
		return empty
	}
	return strings.Join(items, sep)
}
