package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/foodlens/internal/pipeline"
	"github.com/ppiankov/foodlens/internal/worker"
)

var (
	concurrency  int
	outputDir    string
	batchTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Scan many products from a file in parallel",
	Long: `Batch scans one query per line concurrently:
- Each line is a barcode, a product name or an ingredient list
- Blank lines, # comments and duplicates are skipped
- Product lookups are rate limited per host
- Each product gets its own JSON and Markdown report

Example:
  foodlens batch barcodes.txt
  foodlens batch barcodes.txt --concurrency 8 --output-dir ./reports
  foodlens batch recipes.txt --offline`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of concurrent workers (default from config)")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./foodlens-reports", "output directory for reports")
	batchCmd.Flags().DurationVar(&batchTimeout, "batch-timeout", 10*time.Minute, "total timeout for batch processing")
	batchCmd.Flags().BoolVar(&offline, "offline", false, "never contact the product database")
	addLookupFlags(batchCmd)
	addLLMFlags(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]

	cfg, logger, reg, err := setup()
	if err != nil {
		return err
	}
	if err := applyScanFlags(cfg); err != nil {
		return err
	}
	if concurrency > 0 {
		cfg.Concurrency.Workers = concurrency
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), batchTimeout)
	defer cancel()

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  foodlens Batch Processing\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input file:   %s\n", file)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", cfg.Concurrency.Workers)
	fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", batchTimeout)
	if offline {
		fmt.Fprintf(os.Stderr, "  Mode:         offline\n")
	}
	if cfg.LLM.Provider != "" {
		fmt.Fprintf(os.Stderr, "  LLM:          %s/%s\n", cfg.LLM.Provider, cfg.LLM.Model)
	}
	fmt.Fprintf(os.Stderr, "\n")

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	p, err := pipeline.NewPipeline(cfg, reg, offline, nil, logger)
	if err != nil {
		return err
	}

	processor := worker.NewBatchProcessor(p, cfg.Concurrency.Workers, cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize)

	fmt.Fprintf(os.Stderr, "⚙️  Reading queries from file...\n")
	queries, err := worker.ReadQueriesFromFile(file)
	if err != nil {
		return fmt.Errorf("process file: %w", err)
	}
	fmt.Fprintf(os.Stderr, "✓ Loaded %d queries\n", len(queries))
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "⚙️  Scanning with %d workers...\n", cfg.Concurrency.Workers)
	fmt.Fprintf(os.Stderr, "\n")

	results := processor.ProcessQueries(ctx, queries)

	renderer := pipeline.NewRenderer(cfg.Output.IncludeFooter)
	successCount := 0
	failureCount := 0
	used := make(map[string]int)

	for _, result := range results {
		if result.Error != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", result.Query, result.Error)
			continue
		}

		successCount++

		slug := sanitizeFilename(result.Report.Subject)
		if n := used[slug]; n > 0 {
			used[slug] = n + 1
			slug = fmt.Sprintf("%s-%d", slug, n+1)
		} else {
			used[slug] = 1
		}
		jsonPath := filepath.Join(outputDir, slug+".json")
		mdPath := filepath.Join(outputDir, slug+".md")

		if err := renderer.RenderJSON(result.Report, jsonPath); err != nil {
			fmt.Fprintf(os.Stderr, "✗ %s: failed to write JSON: %v\n", result.Query, err)
			continue
		}
		if err := renderer.RenderMarkdown(result.Report, mdPath); err != nil {
			fmt.Fprintf(os.Stderr, "✗ %s: failed to write Markdown: %v\n", result.Query, err)
			continue
		}

		a := result.Report.Analysis
		fmt.Fprintf(os.Stderr, "✓ %s (safety: %d/100, health: %d/100)\n", result.Report.Subject, a.Safety.SafetyScore, a.HealthScore)
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:     %d queries\n", len(results))
	fmt.Fprintf(os.Stderr, "  Success:   %d\n", successCount)
	fmt.Fprintf(os.Stderr, "  Failures:  %d\n", failureCount)
	fmt.Fprintf(os.Stderr, "  Output:    %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "\n")

	return nil
}

var unsafeFilenameChars = regexp.MustCompile(`[^a-z0-9._-]+`)

// sanitizeFilename turns a product name into a safe report file stem
func sanitizeFilename(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = unsafeFilenameChars.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-.")

	if len(s) > 100 {
		s = strings.TrimRight(s[:100], "-.")
	}
	if s == "" {
		s = "product"
	}
	return s
}
