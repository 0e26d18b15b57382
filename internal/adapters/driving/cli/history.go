package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/mailsift-cli/internal/core/domain"
)

var historyJSON bool

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded scan runs",
	Long: `Lists past runs from the catalog, most recent first, with the root
they scanned and their result counters.`,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "output runs as JSON")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, _ []string) error {
	if reportStore == nil {
		return errors.New("catalog not configured")
	}

	runs, err := reportStore.ListRuns(context.Background())
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}

	if historyJSON {
		return outputHistoryJSON(cmd, runs)
	}
	return outputHistoryTable(cmd, runs)
}

func outputHistoryJSON(cmd *cobra.Command, runs []domain.Run) error {
	data, err := json.MarshalIndent(runs, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal runs: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputHistoryTable(cmd *cobra.Command, runs []domain.Run) error {
	if len(runs) == 0 {
		cmd.Println("No runs recorded.")
		return nil
	}

	cmd.Printf("Found %d run(s):\n\n", len(runs))
	for i := range runs {
		run := &runs[i]
		cmd.Printf("%d. %s\n", i+1, run.ID)
		cmd.Printf("   Started: %s\n", run.StartedAt.Format("2006-01-02 15:04:05"))
		cmd.Printf("   Root: %s (threshold %.2f)\n", run.RootPath, run.Threshold)
		cmd.Printf("   Files: %d  Unique: %d  Near-duplicates: %d\n",
			run.Stats.FilesProcessed,
			run.Stats.UniqueAddresses,
			run.Stats.NearDuplicates)
		cmd.Println()
	}

	return nil
}
