package model

import "slices"

// Severity is the ordinal harm classification of a registry entry
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Weight returns the scoring weight of the severity (critical=4 ... low=1).
// Unknown severities weigh nothing.
func (s Severity) Weight() int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// Valid reports whether s is one of the known severities
func (s Severity) Valid() bool {
	return s.Weight() > 0
}

// MaxSeverityWeight is the weight of the most severe classification
const MaxSeverityWeight = 4

// Category groups registry entries by what kind of ingredient they are
type Category string

const (
	CategoryAdditive     Category = "additive"
	CategoryPreservative Category = "preservative"
	CategoryColoring     Category = "coloring"
	CategorySweetener    Category = "sweetener"
	CategoryOil          Category = "oil"
	CategoryAllergen     Category = "allergen"
)

// Valid reports whether c is one of the known categories
func (c Category) Valid() bool {
	switch c {
	case CategoryAdditive, CategoryPreservative, CategoryColoring,
		CategorySweetener, CategoryOil, CategoryAllergen:
		return true
	default:
		return false
	}
}

// RegistryEntry describes one known harmful or controversial ingredient
type RegistryEntry struct {
	CanonicalName string   `json:"name" yaml:"name"`                                         // Unique identifier, e.g. "Red Dye 40"
	Aliases       []string `json:"aliases,omitempty" yaml:"aliases,omitempty"`               // Alternate names and E-numbers
	Severity      Severity `json:"severity" yaml:"severity"`                                 // low, medium, high, critical
	Category      Category `json:"category" yaml:"category"`                                 // additive, coloring, oil, ...
	Warnings      []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`             // Informational only, never scored
	BannedRegions []string `json:"banned_regions,omitempty" yaml:"banned_regions,omitempty"` // Informational only
	Description   string   `json:"description,omitempty" yaml:"description,omitempty"`
}

// Clone returns a deep copy so callers can never reach registry-owned slices
func (e RegistryEntry) Clone() RegistryEntry {
	e.Aliases = slices.Clone(e.Aliases)
	e.Warnings = slices.Clone(e.Warnings)
	e.BannedRegions = slices.Clone(e.BannedRegions)
	return e
}
