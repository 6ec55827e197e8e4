package registry

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/foodlens/internal/model"
	"gopkg.in/yaml.v3"
)

// ErrInvalidRegistry is returned when a registry definition cannot be used
var ErrInvalidRegistry = errors.New("invalid ingredient registry")

// Registry is an immutable, ordered catalog of harmful or controversial ingredients.
// Declaration order is the tie-break order used by the matcher.
type Registry struct {
	entries []model.RegistryEntry
}

// New validates entries and builds a registry that owns a private copy of them
func New(entries []model.RegistryEntry) (*Registry, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: no entries", ErrInvalidRegistry)
	}

	seen := make(map[string]bool, len(entries))
	owned := make([]model.RegistryEntry, 0, len(entries))

	for i, e := range entries {
		name := strings.TrimSpace(e.CanonicalName)
		if name == "" {
			return nil, fmt.Errorf("%w: entry %d has no name", ErrInvalidRegistry, i)
		}
		key := strings.ToLower(name)
		if seen[key] {
			return nil, fmt.Errorf("%w: duplicate name %q", ErrInvalidRegistry, name)
		}
		seen[key] = true

		if !e.Severity.Valid() {
			return nil, fmt.Errorf("%w: %q has unknown severity %q", ErrInvalidRegistry, name, e.Severity)
		}
		if !e.Category.Valid() {
			return nil, fmt.Errorf("%w: %q has unknown category %q", ErrInvalidRegistry, name, e.Category)
		}

		owned = append(owned, e.Clone())
	}

	return &Registry{entries: owned}, nil
}

// Default returns the built-in registry
func Default() *Registry {
	return builtin
}

// Entries returns a copy of the catalog in declaration order
func (r *Registry) Entries() []model.RegistryEntry {
	out := make([]model.RegistryEntry, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.Clone()
	}
	return out
}

// Len returns the number of entries
func (r *Registry) Len() int {
	return len(r.entries)
}

// Lookup finds an entry by canonical name (case-insensitive)
func (r *Registry) Lookup(name string) (model.RegistryEntry, bool) {
	for _, e := range r.entries {
		if strings.EqualFold(e.CanonicalName, strings.TrimSpace(name)) {
			return e.Clone(), true
		}
	}
	return model.RegistryEntry{}, false
}

// file is the on-disk layout of a registry definition
type file struct {
	Ingredients []model.RegistryEntry `yaml:"ingredients"`
}

// Parse builds a registry from a YAML definition
func Parse(data []byte) (*Registry, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: parse: %v", ErrInvalidRegistry, err)
	}
	return New(f.Ingredients)
}

// LoadFile reads a YAML registry definition from disk
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read registry file: %w", err)
	}
	reg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return reg, nil
}

// Load returns the registry at path, or the built-in one when path is empty
func Load(path string) (*Registry, error) {
	if path == "" {
		return Default(), nil
	}
	return LoadFile(path)
}

// Marshal renders the registry in the same YAML layout Parse accepts
func (r *Registry) Marshal() ([]byte, error) {
	return yaml.Marshal(file{Ingredients: r.Entries()})
}
