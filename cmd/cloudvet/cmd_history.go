package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cloudvet/cloudvet/config"
	"github.com/cloudvet/cloudvet/history"
)

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List stored assessment batches",
	Long: `List the assessment batches stored in the local history database,
newest first. Scores from the most recent batch are used as the
comparison baseline for the next assessment.`,
	Example: `  cloudvet history            # List stored batches
  cloudvet history -c prod.yaml`,
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		return err
	}
	if !cfg.History.Enabled {
		return fmt.Errorf("history is not enabled in %s", cfgPath)
	}

	store, err := history.NewStore(cfg.History.Path)
	if err != nil {
		return fmt.Errorf("failed to open history store: %w", err)
	}
	defer func() { _ = store.Close() }()

	metas := store.ListBatches()
	if len(metas) == 0 {
		fmt.Println("No stored batches.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "BATCH\tSTARTED\tDEPTH\tACCOUNTS\n")
	for _, meta := range metas {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\n",
			meta.ID, meta.StartedAt.Format("2006-01-02 15:04:05"), meta.Depth, meta.Accounts)
	}
	return w.Flush()
}
