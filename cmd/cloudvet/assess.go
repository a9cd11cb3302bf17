package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/cloudvet/cloudvet/config"
	"github.com/cloudvet/cloudvet/enrich"
	"github.com/cloudvet/cloudvet/history"
	"github.com/cloudvet/cloudvet/orchestrator"
	"github.com/cloudvet/cloudvet/patterns"
	awsprovider "github.com/cloudvet/cloudvet/providers/aws"
	"github.com/cloudvet/cloudvet/report"
	"github.com/cloudvet/cloudvet/types"
)

// AssessCommand implements the 'cloudvet assess' command
type AssessCommand struct {
	ConfigPath  string
	Region      string
	Depth       string
	Accounts    []string
	Concurrency int
	Output      string
	Enrich      bool
}

// Run executes one assessment batch
func (cmd *AssessCommand) Run(ctx context.Context) error {
	cfg, err := cmd.loadConfig()
	if err != nil {
		return err
	}

	services, err := cfg.ServicesForDepth(cfg.Depth)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	orch, closeEnricher, err := cmd.buildOrchestrator(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeEnricher()

	fmt.Printf("Assessing %d accounts in %s at %s depth...\n\n",
		len(cfg.Accounts), cfg.Region, cfg.Depth)

	batch, err := orch.RunBatch(ctx, orchestrator.BatchRequest{
		Accounts:    cfg.Accounts,
		Depth:       cfg.Depth,
		Services:    services,
		Concurrency: cfg.Concurrency,
	})
	if err != nil {
		return fmt.Errorf("assessment failed: %w", err)
	}

	detected, err := patterns.Detect(batch, cfg.PatternMinFraction)
	if err != nil {
		return fmt.Errorf("pattern detection failed: %w", err)
	}

	model, err := cmd.assembleWithHistory(cfg, batch, detected)
	if err != nil {
		return err
	}

	if cmd.Output == "json" {
		return printJSON(model)
	}
	printTable(model)
	return nil
}

// loadConfig reads the config file and applies flag overrides
func (cmd *AssessCommand) loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(cmd.ConfigPath)
	if err != nil {
		// Flags alone can drive a run without a config file
		if !errors.Is(err, os.ErrNotExist) || len(cmd.Accounts) == 0 {
			return nil, err
		}
		cfg = config.Default()
	}

	if cmd.Region != "" {
		cfg.Region = cmd.Region
	}
	if cmd.Depth != "" {
		depth, err := types.ParseDepth(cmd.Depth)
		if err != nil {
			return nil, err
		}
		cfg.Depth = depth
	}
	if cmd.Concurrency > 0 {
		cfg.Concurrency = cmd.Concurrency
	}
	if len(cmd.Accounts) > 0 {
		accounts, err := parseAccounts(cmd.Accounts)
		if err != nil {
			return nil, err
		}
		cfg.Accounts = accounts
	}
	if cmd.Enrich {
		cfg.Enrichment.Enabled = true
	}

	if len(cfg.Accounts) == 0 {
		return nil, fmt.Errorf("no accounts configured; set accounts in %s or pass --accounts", cmd.ConfigPath)
	}

	return cfg, cfg.Validate()
}

// buildOrchestrator wires the connector, scanner registry, and optional
// enricher into a configured orchestrator
func (cmd *AssessCommand) buildOrchestrator(ctx context.Context, cfg *config.Config) (*orchestrator.Orchestrator, func(), error) {
	registry := orchestrator.NewRegistry()
	registry.Register(types.ServiceStorage, awsprovider.NewStorageScanner())
	registry.Register(types.ServiceCompute, awsprovider.NewComputeScanner())
	registry.Register(types.ServiceIdentity, awsprovider.NewIdentityScanner())
	registry.Register(types.ServiceDatabases, awsprovider.NewDatabaseScanner())

	orch := orchestrator.New(awsprovider.NewConnector(cfg.Region), registry).
		WithRegion(cfg.Region).
		WithAccountTimeout(cfg.AccountTimeout.Std()).
		WithScannerLimit(cfg.ScannerConcurrency).
		WithProgress(func(p orchestrator.Progress) {
			fmt.Fprintf(os.Stderr, "  [%d/%d] %s done\n", p.Completed, p.Total, p.Account)
		})

	closeEnricher := func() {}
	if cfg.Enrichment.Enabled {
		enricher, err := enrich.NewGeminiEnricher(ctx, os.Getenv("GEMINI_API_KEY"), cfg.Enrichment.Model)
		if err != nil {
			return nil, nil, fmt.Errorf("enrichment enabled but unavailable: %w", err)
		}
		orch = orch.WithEnricher(enricher, cfg.Enrichment.Timeout.Std())
		closeEnricher = enricher.Close
	}

	return orch, closeEnricher, nil
}

// assembleWithHistory builds the report model, comparing against and
// then updating the local history store when enabled
func (cmd *AssessCommand) assembleWithHistory(cfg *config.Config, batch *types.ScanBatch, detected []types.Pattern) (*report.ReportModel, error) {
	if !cfg.History.Enabled {
		return report.AssembleBatch(batch, detected), nil
	}

	store, err := history.NewStore(cfg.History.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history store: %w", err)
	}
	defer func() { _ = store.Close() }()

	previous, err := store.LastBatch()
	if err != nil {
		return nil, err
	}

	var opts []report.Option
	if previous != nil {
		opts = append(opts, report.WithPreviousBatch(previous))
	}
	model := report.AssembleBatch(batch, detected, opts...)

	if err := store.SaveBatch(batch); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to store batch: %v\n", err)
	}

	return model, nil
}

// parseAccounts turns id=profile pairs into account refs
func parseAccounts(specs []string) ([]types.AccountRef, error) {
	accounts := make([]types.AccountRef, 0, len(specs))
	for _, spec := range specs {
		id, name, found := strings.Cut(spec, "=")
		if !found || id == "" {
			return nil, fmt.Errorf("invalid account %q, expected id=profile", spec)
		}
		accounts = append(accounts, types.AccountRef{ID: id, Name: name})
	}
	return accounts, nil
}

func printJSON(model *report.ReportModel) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(model)
}

func printTable(model *report.ReportModel) {
	fmt.Printf("Assessment Summary:\n")
	fmt.Printf("   Accounts assessed: %d\n", model.Summary.AccountsAssessed)
	fmt.Printf("   Overall score: %.1f/100\n", model.Summary.OverallScore)
	fmt.Printf("   Findings: %d (%d critical, %d high)\n",
		model.Summary.TotalFindings, model.Summary.CriticalCount, model.Summary.HighCount)
	if model.Summary.AccountsAssessed > 0 {
		fmt.Printf("   Strongest pillar: %s\n", model.Summary.BestPillar)
		fmt.Printf("   Weakest pillar: %s\n", model.Summary.WorstPillar)
	}
	fmt.Printf("\n")

	fmt.Printf("Pillar Scores:\n")
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "PILLAR\tSCORE\tFINDINGS\n")
	for _, ps := range model.PillarScores {
		_, _ = fmt.Fprintf(w, "%s\t%.1f\t%d\n", ps.Pillar, ps.Score, ps.FindingsCount)
	}
	_ = w.Flush()
	fmt.Printf("\n")

	if len(model.Comparison) > 0 {
		fmt.Printf("Accounts (worst first):\n")
		w = tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintf(w, "ACCOUNT\tSCORE\tSTATUS\tDELTA\n")
		for _, row := range model.Comparison {
			delta := "-"
			if row.Delta != nil {
				delta = fmt.Sprintf("%+.1f", *row.Delta)
			}
			_, _ = fmt.Fprintf(w, "%s\t%.1f\t%s\t%s\n", row.AccountName, row.OverallScore, row.Status, delta)
		}
		_ = w.Flush()
		fmt.Printf("\n")
	}

	if len(model.Patterns) > 0 {
		fmt.Printf("Systemic Patterns:\n")
		for _, p := range model.Patterns {
			fmt.Printf("   [%s] %s: %s (%d accounts)\n", p.Severity, p.Service, p.Title, len(p.AccountIDs))
		}
		fmt.Printf("\n")
	}

	fmt.Printf("Remediation Roadmap:\n")
	for _, phase := range model.Roadmap {
		fmt.Printf("   %s (%s): %d findings\n", phase.Horizon, phase.Severity, len(phase.Findings))
	}

	if len(model.FailedAccounts) > 0 {
		fmt.Printf("\nFailed Accounts:\n")
		for _, fa := range model.FailedAccounts {
			fmt.Printf("   %s: %s %s\n", fa.AccountName, fa.Status, fa.Error)
		}
	}

	if model.EnrichmentAvailable {
		fmt.Printf("\nAnalyst Summary:\n   %s\n", model.Enrichment)
	}
}
