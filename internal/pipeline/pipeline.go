package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/ppiankov/foodlens/internal/analyze"
	"github.com/ppiankov/foodlens/internal/cache"
	"github.com/ppiankov/foodlens/internal/llm"
	"github.com/ppiankov/foodlens/internal/metrics"
	"github.com/ppiankov/foodlens/internal/model"
	"github.com/ppiankov/foodlens/internal/product"
	"github.com/ppiankov/foodlens/internal/registry"
	"github.com/ppiankov/foodlens/internal/source"
)

// Pipeline orchestrates the complete scan process
type Pipeline struct {
	sources    *source.Registry
	analyzer   *analyze.Analyzer
	summarizer *llm.Summarizer // Optional LLM summarizer (nil if disabled)
	renderer   *Renderer
	metrics    *metrics.Metrics
	logger     *slog.Logger
	now        func() time.Time
}

// Option customizes a Pipeline
type Option func(*Pipeline)

// WithSummarizer enables assistant summaries
func WithSummarizer(s *llm.Summarizer) Option {
	return func(p *Pipeline) { p.summarizer = s }
}

// WithMetrics sets the metrics sink
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// WithRenderer replaces the default renderer
func WithRenderer(r *Renderer) Option {
	return func(p *Pipeline) { p.renderer = r }
}

// WithClock overrides the scan timestamp source
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// New creates a pipeline from its collaborators
func New(sources *source.Registry, analyzer *analyze.Analyzer, opts ...Option) *Pipeline {
	p := &Pipeline{
		sources:  sources,
		analyzer: analyzer,
		renderer: NewRenderer(true),
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// NewPipeline wires a pipeline from configuration: product cache and client,
// source registry, analyzer over reg and the optional LLM summarizer.
// With offline set no product database is contacted.
func NewPipeline(cfg *model.Config, reg *registry.Registry, offline bool, m *metrics.Metrics, logger *slog.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var lookup source.Lookup
	if !offline {
		c, err := cache.New(cfg.Cache)
		if err != nil {
			return nil, fmt.Errorf("init cache: %w", err)
		}
		opts := []product.Option{product.WithMetrics(m), product.WithLogger(logger)}
		if c != nil {
			opts = append(opts, product.WithCache(c))
		}
		lookup = product.NewClient(cfg.HTTP, cfg.RateLimiting, opts...)
	}

	var summarizer *llm.Summarizer
	if cfg.LLM.Provider != "" {
		s, err := llm.NewSummarizer(llm.ConfigFromModel(cfg.LLM, cfg.HTTP))
		if err != nil {
			// An assistant misconfiguration never blocks scoring
			logger.Warn("failed to initialize LLM provider", "provider", cfg.LLM.Provider, "error", err)
		} else {
			summarizer = s
		}
	}

	return New(source.NewRegistry(lookup), analyze.New(reg),
		WithSummarizer(summarizer),
		WithMetrics(m),
		WithLogger(logger),
		WithRenderer(NewRenderer(cfg.Output.IncludeFooter)),
	), nil
}

// Request describes one scan
type Request struct {
	Query    string          // Barcode, product name, label text or ingredient list
	Kind     model.InputKind // Empty auto-detects
	Question string          // Optional question for the assistant
}

// Run resolves the query, analyzes the product and attaches the optional
// assistant summary. The summary is generated after scoring and never affects it.
func (p *Pipeline) Run(ctx context.Context, req Request) (*model.Report, error) {
	input, err := p.sources.Resolve(ctx, req.Query, req.Kind)
	if err != nil {
		return nil, fmt.Errorf("resolve input: %w", err)
	}

	result := p.analyzer.Analyze(analyze.InputFromProduct(input))
	p.metrics.ObserveAnalysis("scan", string(result.Safety.OverallRisk), result.HealthScore)

	report := &model.Report{
		Subject:   subject(input, req.Query),
		Query:     strings.TrimSpace(req.Query),
		Kind:      input.Kind,
		SourceURL: input.SourceURL,
		ScannedAt: p.now().UTC(),
		Analysis:  result,
	}

	if p.summarizer.IsEnabled() {
		summary, err := p.summarizer.GenerateSummary(ctx, *report, req.Question)
		if err != nil {
			p.logger.Warn("LLM summary generation failed", "subject", report.Subject, "error", err)
		} else if summary != nil {
			report.LLM = summary
		}
	}

	p.logger.Debug("scan complete",
		"subject", report.Subject,
		"kind", report.Kind,
		"safety_score", result.Safety.SafetyScore,
		"health_score", result.HealthScore)

	return report, nil
}

// Scan runs a query with auto-detected kind. It lets the pipeline serve as
// the batch processor's scanner.
func (p *Pipeline) Scan(ctx context.Context, query string) (*model.Report, error) {
	return p.Run(ctx, Request{Query: query})
}

// RenderReport renders the report to the specified outputs
func (p *Pipeline) RenderReport(report *model.Report, jsonPath string, mdPath string, verbose bool) error {
	if jsonPath != "" {
		if err := p.renderer.RenderJSON(report, jsonPath); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote JSON: %s\n", jsonPath)
		}
	}

	if mdPath != "" {
		if err := p.renderer.RenderMarkdown(report, mdPath); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote Markdown: %s\n", mdPath)
		}
	}

	// LLM summary goes to its own file next to the Markdown report
	if report.LLM != nil && report.LLM.Enabled && mdPath != "" {
		llmPath := strings.TrimSuffix(mdPath, ".md") + ".llm.md"
		if err := p.renderer.RenderLLMMarkdown(llm.RenderSeparateMarkdown(report.LLM), llmPath); err != nil {
			p.logger.Warn("failed to write LLM summary", "path", llmPath, "error", err)
		} else if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote LLM Summary: %s\n", llmPath)
		}
	}

	p.renderer.RenderSummary(report)

	return nil
}

func subject(input model.ProductInput, query string) string {
	if name := strings.TrimSpace(input.Name); name != "" {
		return name
	}
	return strings.TrimSpace(query)
}
