package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	version  = "0.1.0"
	cfgPath  string
	debugLog bool

	rootCmd = &cobra.Command{
		Use:   "cloudvet",
		Short: "Cloud Account Assessment Engine",
		Long: `Cloudvet - Cloud Account Assessment Engine

Cloudvet scans AWS accounts for misconfiguration, classifies every
finding into one of six assessment pillars, and aggregates
severity-weighted scores into an executive report.

Scan a fleet of accounts concurrently, surface systemic patterns that
repeat across accounts, and track score movement between runs.`,
		Version: version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			zerolog.SetGlobalLevel(zerolog.InfoLevel)
			if debugLog {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			}
		},
	}
)

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// init sets up the root command
func init() {
	rootCmd.SetVersionTemplate(`Cloudvet {{.Version}} - Cloud Account Assessment Engine
`)
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "cloudvet.yaml", "Path to configuration file")
	rootCmd.PersistentFlags().BoolVar(&debugLog, "debug", false, "Enable debug logging")
}
