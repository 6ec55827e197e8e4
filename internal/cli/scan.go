package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/foodlens/internal/model"
	"github.com/ppiankov/foodlens/internal/pipeline"
)

var (
	outJSON     string
	outMD       string
	timeout     time.Duration
	userAgent   string
	noCache     bool
	noFooter    bool
	offline     bool
	inputKind   string
	question    string
	httpProxy   string
	httpsProxy  string
	llmEnabled  bool
	llmProvider string
	llmModel    string
)

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan <query>",
	Short: "Scan a product by barcode, name, label text or ingredient list",
	Long: `Scan resolves a product and analyzes it:
- A barcode (8-14 digits) is looked up in Open Food Facts
- A comma separated list is analyzed as ingredients
- Multi-line text or text headed "Ingredients:" is parsed as a label
- Anything else is searched by product name

Example:
  foodlens scan 3017620422003
  foodlens scan "nutella" --json report.json --md report.md
  foodlens scan "water, sugar, red 40" --offline
  foodlens scan 3017620422003 --llm --llm-provider openai --ask "Is this ok for kids?"`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().StringVar(&outJSON, "json", "", "output JSON path (- for stdout)")
	scanCmd.Flags().StringVar(&outMD, "md", "", "output Markdown path (optional)")
	scanCmd.Flags().StringVar(&inputKind, "kind", "", "input kind: barcode, search, text or list (default: auto-detect)")
	scanCmd.Flags().BoolVar(&offline, "offline", false, "never contact the product database")
	addLookupFlags(scanCmd)

	scanCmd.Flags().StringVar(&question, "ask", "", "question for the LLM assistant (requires --llm)")
	addLLMFlags(scanCmd)
}

func addLookupFlags(cmd *cobra.Command) {
	cmd.Flags().DurationVar(&timeout, "timeout", time.Minute, "overall scan timeout")
	cmd.Flags().StringVar(&userAgent, "ua", "", "HTTP User-Agent (default from config)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable cache (force fresh lookup)")
	cmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")
	cmd.Flags().StringVar(&httpProxy, "http-proxy", "", "HTTP proxy URL (overrides HTTP_PROXY env var)")
	cmd.Flags().StringVar(&httpsProxy, "https-proxy", "", "HTTPS proxy URL (overrides HTTPS_PROXY env var)")
}

func addLLMFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&llmEnabled, "llm", false, "enable LLM summary generation")
	cmd.Flags().StringVar(&llmProvider, "llm-provider", "openai", "LLM provider (openai, anthropic, ollama)")
	cmd.Flags().StringVar(&llmModel, "llm-model", "", "LLM model name (default depends on provider)")
}

// applyScanFlags overlays the lookup and LLM flags on cfg
func applyScanFlags(cfg *model.Config) error {
	if userAgent != "" {
		cfg.HTTP.UserAgent = userAgent
	}
	if httpProxy != "" {
		cfg.HTTP.HTTPProxy = httpProxy
	}
	if httpsProxy != "" {
		cfg.HTTP.HTTPSProxy = httpsProxy
	}
	if noCache {
		cfg.Cache.Enabled = false
	}
	if noFooter {
		cfg.Output.IncludeFooter = false
	}

	if !llmEnabled {
		cfg.LLM.Provider = ""
		return nil
	}

	cfg.LLM.Provider = llmProvider
	if llmModel != "" {
		cfg.LLM.Model = llmModel
	}
	cfg.LLM.Strict = true // Always enforce

	// Keys from the provider's own env var win over FOODLENS_LLM_API_KEY
	switch llmProvider {
	case "openai":
		if key := os.Getenv("OPENAI_API_KEY"); key != "" {
			cfg.LLM.APIKey = key
		}
		if cfg.LLM.APIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY environment variable not set")
		}
	case "anthropic", "claude":
		if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
			cfg.LLM.APIKey = key
		}
		if cfg.LLM.APIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY environment variable not set")
		}
	case "ollama":
		// Ollama doesn't need an API key
		if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" {
			cfg.LLM.BaseURL = baseURL
		}
		if cfg.LLM.Model == "" {
			cfg.LLM.Model = "llama3.1"
		}
	default:
		return fmt.Errorf("unknown LLM provider: %s", llmProvider)
	}

	return nil
}

func parseKind(s string) (model.InputKind, error) {
	switch kind := model.InputKind(s); kind {
	case "", model.InputBarcode, model.InputSearch, model.InputText, model.InputList:
		return kind, nil
	default:
		return "", fmt.Errorf("unknown input kind %q (want barcode, search, text or list)", s)
	}
}

func runScan(cmd *cobra.Command, args []string) error {
	query := args[0]

	kind, err := parseKind(inputKind)
	if err != nil {
		return err
	}

	cfg, logger, reg, err := setup()
	if err != nil {
		return err
	}
	if err := applyScanFlags(cfg); err != nil {
		return err
	}
	if question != "" && cfg.LLM.Provider == "" {
		fmt.Fprintf(os.Stderr, "Note: --ask is ignored without --llm\n")
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	if verbose {
		fmt.Fprintf(os.Stderr, "Scanning: %s\n", query)
		fmt.Fprintf(os.Stderr, "Timeout: %v\n", timeout)
		fmt.Fprintf(os.Stderr, "Cache: %v\n", cfg.Cache.Enabled && !offline)
		fmt.Fprintln(os.Stderr)
	}

	p, err := pipeline.NewPipeline(cfg, reg, offline, nil, logger)
	if err != nil {
		return err
	}

	report, err := p.Run(ctx, pipeline.Request{Query: query, Kind: kind, Question: question})
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "✓ Resolved %s input: %s\n", report.Kind, report.Subject)
		fmt.Fprintf(os.Stderr, "✓ Matched %d flagged ingredients\n", len(report.Analysis.Safety.MatchedRisks))
		fmt.Fprintf(os.Stderr, "✓ Calculated health score: %d/100\n", report.Analysis.HealthScore)
		if report.LLM != nil && report.LLM.Enabled {
			fmt.Fprintf(os.Stderr, "✓ Generated LLM summary using %s/%s\n", report.LLM.Provider, report.LLM.Model)
		}
		fmt.Fprintln(os.Stderr)
	}

	if err := p.RenderReport(report, outJSON, outMD, verbose); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}

	return nil
}
