// Package source turns raw user input into analyzer-ready product records.
package source

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ppiankov/foodlens/internal/model"
)

// ErrNoLookup is returned when a product database lookup is needed but none is configured
var ErrNoLookup = errors.New("product lookup not configured")

// Input errors: the query itself cannot be resolved, whatever the backend
var (
	ErrEmptyInput  = errors.New("empty input")
	ErrUnknownKind = errors.New("unknown input kind")
)

// Lookup finds products in a product database
type Lookup interface {
	ByBarcode(ctx context.Context, code string) (model.ProductInput, error)
	Search(ctx context.Context, query string) (model.ProductInput, error)
}

// Source resolves one kind of raw input
type Source interface {
	// Kind returns the input kind this source produces
	Kind() model.InputKind

	// CanHandle reports whether raw looks like this source's input
	CanHandle(raw string) bool

	// Resolve converts raw into a product record
	Resolve(ctx context.Context, raw string) (model.ProductInput, error)
}

// Registry picks a source for raw input
type Registry struct {
	sources  []Source
	fallback Source
}

// NewRegistry creates a registry with the built-in sources. A nil lookup
// limits the registry to offline sources (label text and ingredient lists).
func NewRegistry(lookup Lookup) *Registry {
	r := &Registry{}

	if lookup != nil {
		r.Register(NewBarcodeSource(lookup))
	}
	r.Register(NewTextSource())
	r.Register(NewListSource())

	if lookup != nil {
		r.fallback = NewSearchSource(lookup)
	}

	return r
}

// Register appends a source; earlier sources win
func (r *Registry) Register(s Source) {
	r.sources = append(r.sources, s)
}

// Find returns the first source that can handle raw, or the fallback
func (r *Registry) Find(raw string) (Source, error) {
	for _, s := range r.sources {
		if s.CanHandle(raw) {
			return s, nil
		}
	}
	if r.fallback == nil {
		return nil, fmt.Errorf("%w: cannot search for %q", ErrNoLookup, raw)
	}
	return r.fallback, nil
}

// ForKind returns the source producing kind
func (r *Registry) ForKind(kind model.InputKind) (Source, error) {
	for _, s := range r.sources {
		if s.Kind() == kind {
			return s, nil
		}
	}
	if r.fallback != nil && r.fallback.Kind() == kind {
		return r.fallback, nil
	}
	if kind == model.InputBarcode || kind == model.InputSearch {
		return nil, fmt.Errorf("%w: %s input needs the product database", ErrNoLookup, kind)
	}
	return nil, fmt.Errorf("%w %q", ErrUnknownKind, kind)
}

// Resolve converts raw into a product record. An empty kind auto-detects.
func (r *Registry) Resolve(ctx context.Context, raw string, kind model.InputKind) (model.ProductInput, error) {
	if strings.TrimSpace(raw) == "" {
		return model.ProductInput{}, ErrEmptyInput
	}

	var (
		s   Source
		err error
	)
	if kind == "" {
		s, err = r.Find(raw)
	} else {
		s, err = r.ForKind(kind)
	}
	if err != nil {
		return model.ProductInput{}, err
	}

	return s.Resolve(ctx, raw)
}
