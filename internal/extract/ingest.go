package extract

import (
	"regexp"
	"strings"
)

var (
	whitespaceRe      = regexp.MustCompile(`\s+`)
	ingredientLabelRe = regexp.MustCompile(`(?i)^\s*ingr[eé]dients?\s*[:\-]\s*`)
	tagPrefixRe       = regexp.MustCompile(`^[a-z]{2}:`)
)

// Heuristic keywords for ingredient lists that arrive without product tags
var (
	commonAllergens = []string{"gluten", "milk", "eggs", "nuts", "soy"}
	commonAdditives = []string{"artificial", "preservatives"}
)

// SplitIngredients tokenizes a label's ingredient text into individual items.
// Commas and semicolons inside parentheses or brackets do not split, so
// "chocolate (sugar, cocoa)" stays one ingredient.
func SplitIngredients(text string) []string {
	text = ingredientLabelRe.ReplaceAllString(CleanOCRText(text), "")
	text = strings.TrimRight(text, ". ")

	var items []string
	var current strings.Builder
	depth := 0

	flush := func() {
		item := strings.TrimSpace(current.String())
		if item != "" {
			items = append(items, item)
		}
		current.Reset()
	}

	for _, r := range text {
		switch r {
		case '(', '[':
			depth++
		case ')', ']':
			if depth > 0 {
				depth--
			}
		case ',', ';':
			if depth == 0 {
				flush()
				continue
			}
		}
		current.WriteRune(r)
	}
	flush()

	return items
}

// HasIngredientLabel reports whether text starts with an "Ingredients:" heading
func HasIngredientLabel(text string) bool {
	return ingredientLabelRe.MatchString(text)
}

// CleanOCRText collapses line breaks and runs of whitespace into single spaces
func CleanOCRText(text string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " "))
}

// NormalizeTag turns a product database tag like "en:soy-lecithin" into "soy lecithin"
func NormalizeTag(tag string) string {
	tag = strings.TrimSpace(tag)
	tag = tagPrefixRe.ReplaceAllString(tag, "")
	return strings.ReplaceAll(tag, "-", " ")
}

// NormalizeTags applies NormalizeTag to every tag, dropping blanks
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		if t := NormalizeTag(tag); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// DetectAllergens returns the ingredients that mention a common allergen
func DetectAllergens(ingredients []string) []string {
	return filterByKeyword(ingredients, commonAllergens)
}

// DetectAdditives returns the ingredients that look like additives
func DetectAdditives(ingredients []string) []string {
	return filterByKeyword(ingredients, commonAdditives)
}

func filterByKeyword(ingredients []string, keywords []string) []string {
	out := make([]string, 0)
	for _, ingredient := range ingredients {
		if containsAny(strings.ToLower(ingredient), keywords) {
			out = append(out, ingredient)
		}
	}
	return out
}
