package registry

import (
	"strings"

	"github.com/ppiankov/foodlens/internal/model"
	"golang.org/x/text/cases"
)

// Matcher resolves raw ingredient label text to registry entries
type Matcher struct {
	registry *Registry
	folded   []foldedEntry
}

type foldedEntry struct {
	canonical string
	aliases   []string
}

// NewMatcher creates a matcher over reg. A nil registry uses the built-in one.
func NewMatcher(reg *Registry) *Matcher {
	if reg == nil {
		reg = Default()
	}

	m := &Matcher{
		registry: reg,
		folded:   make([]foldedEntry, len(reg.entries)),
	}

	// Fold once up front; entries never change after construction
	for i, e := range reg.entries {
		fe := foldedEntry{
			canonical: Normalize(e.CanonicalName),
			aliases:   make([]string, 0, len(e.Aliases)),
		}
		for _, alias := range e.Aliases {
			if a := Normalize(alias); a != "" {
				fe.aliases = append(fe.aliases, a)
			}
		}
		m.folded[i] = fe
	}

	return m
}

// Registry returns the registry the matcher reads from
func (m *Matcher) Registry() *Registry {
	return m.registry
}

// Match returns the first registry entry (in declaration order) matching raw.
//
// An entry matches when its canonical name contains the input, when any alias
// contains the input, or when the input contains any alias. Blank input is
// contained in every name, so it matches the first entry; tokenizers drop
// blanks before they get here. No match is the common case, not an error.
func (m *Matcher) Match(raw string) (model.RegistryEntry, bool) {
	idx := m.matchIndex(raw)
	if idx < 0 {
		return model.RegistryEntry{}, false
	}
	return m.registry.entries[idx].Clone(), true
}

func (m *Matcher) matchIndex(raw string) int {
	input := Normalize(raw)
	for i, fe := range m.folded {
		if strings.Contains(fe.canonical, input) {
			return i
		}
		for _, alias := range fe.aliases {
			if strings.Contains(alias, input) || strings.Contains(input, alias) {
				return i
			}
		}
	}

	return -1
}

// Normalize trims and case-folds ingredient text for matching
func Normalize(s string) string {
	// A Caser carries state, so each call gets its own
	return cases.Fold().String(strings.TrimSpace(s))
}
