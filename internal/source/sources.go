package source

import (
	"context"
	"fmt"
	"strings"

	"github.com/ppiankov/foodlens/internal/extract"
	"github.com/ppiankov/foodlens/internal/model"
)

// BarcodeSource looks up EAN/UPC style barcodes
type BarcodeSource struct {
	lookup Lookup
}

// NewBarcodeSource creates a new barcode source
func NewBarcodeSource(lookup Lookup) *BarcodeSource {
	return &BarcodeSource{lookup: lookup}
}

// Kind returns model.InputBarcode
func (s *BarcodeSource) Kind() model.InputKind { return model.InputBarcode }

// CanHandle accepts 8 to 14 digits, ignoring spaces and hyphens
func (s *BarcodeSource) CanHandle(raw string) bool {
	code := normalizeBarcode(raw)
	if len(code) < 8 || len(code) > 14 {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Resolve looks the barcode up in the product database
func (s *BarcodeSource) Resolve(ctx context.Context, raw string) (model.ProductInput, error) {
	return s.lookup.ByBarcode(ctx, normalizeBarcode(raw))
}

func normalizeBarcode(raw string) string {
	return strings.NewReplacer(" ", "", "-", "").Replace(strings.TrimSpace(raw))
}

// SearchSource finds a product by free-text name
type SearchSource struct {
	lookup Lookup
}

// NewSearchSource creates a new search source
func NewSearchSource(lookup Lookup) *SearchSource {
	return &SearchSource{lookup: lookup}
}

// Kind returns model.InputSearch
func (s *SearchSource) Kind() model.InputKind { return model.InputSearch }

// CanHandle always returns true (fallback source)
func (s *SearchSource) CanHandle(raw string) bool { return true }

// Resolve searches the product database
func (s *SearchSource) Resolve(ctx context.Context, raw string) (model.ProductInput, error) {
	return s.lookup.Search(ctx, raw)
}

// TextSource handles OCR or pasted label text
type TextSource struct{}

// NewTextSource creates a new label text source
func NewTextSource() *TextSource {
	return &TextSource{}
}

// Kind returns model.InputText
func (s *TextSource) Kind() model.InputKind { return model.InputText }

// CanHandle accepts multi-line text or text headed "Ingredients:"
func (s *TextSource) CanHandle(raw string) bool {
	return strings.Contains(strings.TrimSpace(raw), "\n") || extract.HasIngredientLabel(raw)
}

// Resolve tokenizes the label and applies the list heuristics
func (s *TextSource) Resolve(_ context.Context, raw string) (model.ProductInput, error) {
	ingredients := extract.SplitIngredients(raw)
	return model.ProductInput{
		Name:        "Scanned label",
		Kind:        model.InputText,
		Ingredients: ingredients,
		Allergens:   extract.DetectAllergens(ingredients),
		Additives:   extract.DetectAdditives(ingredients),
	}, nil
}

// ListSource handles an explicit comma or semicolon separated ingredient list
type ListSource struct{}

// NewListSource creates a new ingredient list source
func NewListSource() *ListSource {
	return &ListSource{}
}

// Kind returns model.InputList
func (s *ListSource) Kind() model.InputKind { return model.InputList }

// CanHandle accepts input that splits into at least two ingredients
func (s *ListSource) CanHandle(raw string) bool {
	return len(extract.SplitIngredients(raw)) >= 2
}

// Resolve splits the list. No nutrition is attached since none was supplied.
func (s *ListSource) Resolve(_ context.Context, raw string) (model.ProductInput, error) {
	ingredients := extract.SplitIngredients(raw)
	return model.ProductInput{
		Name:        fmt.Sprintf("Recipe with %d ingredients", len(ingredients)),
		Kind:        model.InputList,
		Ingredients: ingredients,
		Allergens:   extract.DetectAllergens(ingredients),
		Additives:   extract.DetectAdditives(ingredients),
	}, nil
}
