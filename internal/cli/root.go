package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/foodlens/internal/model"
	"github.com/ppiankov/foodlens/internal/registry"
)

// Version is set at build time with -ldflags "-X .../internal/cli.Version=..."
var Version = "0.1.0"

var (
	cfgFile   string
	verbose   bool
	logFormat string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "foodlens",
	Short: "foodlens - food label safety and dietary classifier",
	Long: `foodlens scores food products from their labels.

Given a barcode, a product name, pasted label text or an explicit
ingredient list it reports:
- Flagged ingredients matched against a risk registry (safety score)
- A 0-100 health score with every adjustment shown
- Dietary flags: vegan, vegetarian, gluten-free, dairy-free, keto

Scores are heuristics over label data, not medical advice.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "foodlens v%s\n", Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.foodlens/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format: text or json")
	rootCmd.PersistentFlags().String("registry", "", "ingredient registry YAML file (default: built-in catalog)")

	_ = viper.BindPFlag("output.verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("output.log_format", rootCmd.PersistentFlags().Lookup("log-format"))
	_ = viper.BindPFlag("registry.path", rootCmd.PersistentFlags().Lookup("registry"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		viper.AddConfigPath(filepath.Join(home, ".foodlens"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// FOODLENS_LLM_API_KEY maps to llm.api_key
	viper.SetEnvPrefix("FOODLENS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Unmarshal only sees env vars for keys viper already knows about
	for _, key := range []string{
		"http.base_url", "http.timeout", "http.user_agent",
		"cache.enabled", "cache.backend", "cache.dir", "cache.redis_url",
		"llm.provider", "llm.model", "llm.api_key", "llm.base_url",
		"server.addr", "server.max_ingredients",
	} {
		_ = viper.BindEnv(key)
	}

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// loadConfig overlays config file, environment and bound flags on the defaults
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// setupLogger installs the process-wide slog handler on stderr
func setupLogger(cfg *model.Config) *slog.Logger {
	level := slog.LevelInfo
	if cfg.Output.Verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.EqualFold(cfg.Output.LogFormat, "json") {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// loadRegistry returns the configured registry. Validation failures are
// configuration errors and stop the command before any analysis runs.
func loadRegistry(cfg *model.Config) (*registry.Registry, error) {
	reg, err := registry.Load(cfg.Registry.Path)
	if err != nil {
		return nil, fmt.Errorf("load registry: %w", err)
	}
	if cfg.Output.Verbose && cfg.Registry.Path != "" {
		fmt.Fprintf(os.Stderr, "Loaded %d registry entries from %s\n", reg.Len(), cfg.Registry.Path)
	}
	return reg, nil
}

// setup loads config, logger and registry for a command
func setup() (*model.Config, *slog.Logger, *registry.Registry, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, nil, err
	}
	logger := setupLogger(cfg)
	reg, err := loadRegistry(cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, logger, reg, nil
}
