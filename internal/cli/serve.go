package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/foodlens/internal/metrics"
	"github.com/ppiankov/foodlens/internal/model"
	"github.com/ppiankov/foodlens/internal/pipeline"
	"github.com/ppiankov/foodlens/internal/server"
)

var (
	serveOffline bool
	serveLLM     bool
)

// serveCmd runs the HTTP API
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the analyzer over an HTTP JSON API",
	Long: `Serve exposes the analyzer over HTTP:

  POST /v1/analyze          full analysis of supplied label data
  POST /v1/safety           registry safety score of an ingredient list
  POST /v1/scan             resolve and analyze a barcode, name, label or list
  GET  /v1/registry         list registry entries
  GET  /v1/registry/{name}  one registry entry
  GET  /healthz             liveness
  GET  /metrics             Prometheus metrics

Example:
  foodlens serve --addr :8080
  foodlens serve --offline`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", model.DefaultConfig().Server.Addr, "listen address")
	serveCmd.Flags().BoolVar(&serveOffline, "offline", false, "disable product database lookups for /v1/scan")
	serveCmd.Flags().BoolVar(&serveLLM, "llm", false, "attach LLM summaries to /v1/scan responses (provider from config)")

	_ = viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, reg, err := setup()
	if err != nil {
		return err
	}
	if !serveLLM {
		cfg.LLM.Provider = ""
	}

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(promReg)

	p, err := pipeline.NewPipeline(cfg, reg, serveOffline, m, logger)
	if err != nil {
		return fmt.Errorf("init pipeline: %w", err)
	}

	srv := server.New(cfg.Server, reg,
		server.WithScanner(p),
		server.WithMetrics(m, promReg),
		server.WithLogger(logger),
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(os.Stderr, "foodlens API on %s (%d registry entries, offline: %v)\n", cfg.Server.Addr, reg.Len(), serveOffline)
	return srv.ListenAndServe(ctx, cfg.Server.Addr, cfg.Server.ShutdownTimeout)
}
