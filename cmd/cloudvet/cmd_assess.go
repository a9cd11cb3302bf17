package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var (
	assessRegion      string
	assessDepth       string
	assessAccounts    []string
	assessConcurrency int
	assessOutput      string
	assessEnrich      bool
)

// assessCmd represents the assess command
var assessCmd = &cobra.Command{
	Use:   "assess",
	Short: "Run an assessment batch over the configured accounts",
	Long: `Assess every configured account: connect, run the service scanners
selected by the scan depth, classify findings into the six pillars,
and aggregate severity-weighted scores.

Depth tiers select which services are inspected:
- quick:         storage, identity
- standard:      storage, identity, compute
- comprehensive: storage, identity, compute, databases`,
	Example: `  cloudvet assess                                # Assess per config file
  cloudvet assess --depth quick                  # Fast posture check
  cloudvet assess --accounts 111111111111=prod   # Override account list
  cloudvet assess --output json                  # Machine-readable report
  cloudvet assess --enrich                       # Add AI narrative summary`,
	RunE: runAssess,
}

func init() {
	rootCmd.AddCommand(assessCmd)

	assessCmd.Flags().StringVarP(&assessRegion, "region", "r", "", "AWS region to scan (overrides config)")
	assessCmd.Flags().StringVarP(&assessDepth, "depth", "d", "", "Scan depth: quick, standard, comprehensive")
	assessCmd.Flags().StringSliceVarP(&assessAccounts, "accounts", "a", nil, "Accounts as id=profile pairs (overrides config)")
	assessCmd.Flags().IntVar(&assessConcurrency, "concurrency", 0, "Concurrent account scans (overrides config)")
	assessCmd.Flags().StringVarP(&assessOutput, "output", "o", "table", "Output format: table, json")
	assessCmd.Flags().BoolVar(&assessEnrich, "enrich", false, "Generate an AI narrative summary (needs GEMINI_API_KEY)")
}

func runAssess(cmd *cobra.Command, args []string) error {
	validOutputs := []string{"table", "json"}
	if !contains(validOutputs, assessOutput) {
		return fmt.Errorf("invalid output format: %s (must be one of: %s)",
			assessOutput, strings.Join(validOutputs, ", "))
	}

	assessCommand := &AssessCommand{
		ConfigPath:  cfgPath,
		Region:      assessRegion,
		Depth:       assessDepth,
		Accounts:    assessAccounts,
		Concurrency: assessConcurrency,
		Output:      assessOutput,
		Enrich:      assessEnrich,
	}

	return assessCommand.Run(cmd.Context())
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
