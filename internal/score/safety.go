package score

import (
	"math"

	"github.com/ppiankov/foodlens/internal/model"
	"github.com/ppiankov/foodlens/internal/registry"
)

// Risk tier thresholds on the raw severity sum (independent of list length)
const (
	highRiskThreshold   = 8
	mediumRiskThreshold = 4
)

// SafetyAnalyzer scores ingredient lists against the risk registry
type SafetyAnalyzer struct {
	matcher *registry.Matcher
}

// NewSafetyAnalyzer creates a safety analyzer. A nil matcher uses the built-in registry.
func NewSafetyAnalyzer(matcher *registry.Matcher) *SafetyAnalyzer {
	if matcher == nil {
		matcher = registry.NewMatcher(nil)
	}
	return &SafetyAnalyzer{matcher: matcher}
}

// Analyze matches every ingredient and derives the safety score and risk tier.
//
// Matches keep input order and are not deduplicated. The denominator is the
// ingredient count, not the match count, so long lists dilute a single hit.
func (a *SafetyAnalyzer) Analyze(ingredients []string) model.SafetyAnalysis {
	risks := make([]model.RegistryEntry, 0)
	total := 0

	for _, ingredient := range ingredients {
		entry, ok := a.matcher.Match(ingredient)
		if !ok {
			continue
		}
		risks = append(risks, entry)
		total += entry.Severity.Weight()
	}

	maxPossible := model.MaxSeverityWeight * len(ingredients)

	return model.SafetyAnalysis{
		MatchedRisks:  risks,
		SafetyScore:   safetyScore(total, maxPossible),
		OverallRisk:   riskLevel(total),
		TotalSeverity: total,
		MaxPossible:   maxPossible,
	}
}

// safetyScore computes round(max(0, (max - total) / max * 100)); an empty list scores 100
func safetyScore(total, maxPossible int) int {
	if maxPossible == 0 {
		return 100
	}
	pct := float64(maxPossible-total) / float64(maxPossible) * 100
	return int(math.Round(math.Max(0, pct)))
}

func riskLevel(total int) model.RiskLevel {
	switch {
	case total > highRiskThreshold:
		return model.RiskHigh
	case total > mediumRiskThreshold:
		return model.RiskMedium
	default:
		return model.RiskLow
	}
}
