package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"syscall"
	"time"

	"github.com/oklog/run"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/cloudvet/cloudvet/config"
	"github.com/cloudvet/cloudvet/history"
	"github.com/cloudvet/cloudvet/orchestrator"
	"github.com/cloudvet/cloudvet/patterns"
	"github.com/cloudvet/cloudvet/report"
	"github.com/cloudvet/cloudvet/telemetry"
	"github.com/cloudvet/cloudvet/types"
)

var (
	watchInterval    time.Duration
	watchMetricsAddr string
)

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Assess the fleet continuously and expose metrics",
	Long: `Run assessment batches on a fixed interval and serve Prometheus
metrics for scrape-based alerting on score regressions, failed
accounts, and degraded scanners.`,
	Example: `  cloudvet watch                        # Assess every hour
  cloudvet watch --interval 15m         # Faster cadence
  cloudvet watch --metrics :9091        # Alternate metrics address`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().DurationVar(&watchInterval, "interval", time.Hour, "Time between assessment batches")
	watchCmd.Flags().StringVar(&watchMetricsAddr, "metrics", ":9090", "Metrics server address")
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		return err
	}
	if len(cfg.Accounts) == 0 {
		return fmt.Errorf("no accounts configured in %s", cfgPath)
	}
	services, err := cfg.ServicesForDepth(cfg.Depth)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	logger := telemetry.NewLogger("watch")

	shutdown, err := telemetry.InitOTEL(ctx, telemetry.Config{
		ServiceName:    "cloudvet",
		ServiceVersion: version,
		Insecure:       true,
	})
	if err != nil {
		return fmt.Errorf("failed to init telemetry: %w", err)
	}
	defer func() { _ = shutdown(context.Background()) }()

	metrics, err := telemetry.InitAssessMetrics(telemetry.Meter)
	if err != nil {
		return fmt.Errorf("failed to init metrics: %w", err)
	}

	assessCommand := &AssessCommand{ConfigPath: cfgPath, Output: "table"}
	orch, closeEnricher, err := assessCommand.buildOrchestrator(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeEnricher()
	orch = orch.WithMetrics(metrics)

	var group run.Group

	// Interrupt and terminate signals stop the whole group
	group.Add(run.SignalHandler(ctx, syscall.SIGINT, syscall.SIGTERM))

	// Metrics server
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(telemetry.PrometheusRegistry, promhttp.HandlerOpts{}))
	server := &http.Server{Addr: watchMetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	group.Add(func() error {
		logger.Info().Str("addr", watchMetricsAddr).Msg("starting metrics server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}, func(error) {
		_ = server.Shutdown(context.Background())
	})

	// Assessment loop
	loopCtx, cancelLoop := context.WithCancel(ctx)
	group.Add(func() error {
		return assessLoop(loopCtx, cfg, services, orch, logger)
	}, func(error) {
		cancelLoop()
	})

	err = group.Run()
	var sigErr run.SignalError
	if errors.As(err, &sigErr) {
		logger.Info().Str("signal", sigErr.Signal.String()).Msg("shutting down")
		return nil
	}
	return err
}

// assessLoop runs one batch immediately, then on every interval tick
func assessLoop(ctx context.Context, cfg *config.Config, services []types.Service, orch *orchestrator.Orchestrator, logger *telemetry.Logger) error {
	ticker := time.NewTicker(watchInterval)
	defer ticker.Stop()

	for {
		batch, err := orch.RunBatch(ctx, orchestrator.BatchRequest{
			Accounts:    cfg.Accounts,
			Depth:       cfg.Depth,
			Services:    services,
			Concurrency: cfg.Concurrency,
		})
		if err != nil {
			return err
		}

		detected, err := patterns.Detect(batch, cfg.PatternMinFraction)
		if err != nil {
			return err
		}
		model := report.AssembleBatch(batch, detected)
		logger.Info().
			Str("batch_id", batch.ID).
			Int("accounts_assessed", model.Summary.AccountsAssessed).
			Float64("overall_score", model.Summary.OverallScore).
			Int("patterns", len(model.Patterns)).
			Msg("batch complete")

		if cfg.History.Enabled {
			if err := persistBatch(cfg.History.Path, batch); err != nil {
				logger.Warn().Err(err).Msg("failed to store batch")
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func persistBatch(dir string, batch *types.ScanBatch) error {
	store, err := history.NewStore(dir)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()
	return store.SaveBatch(batch)
}
