package cli

import (
	"errors"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/mailsift-cli/internal/adapters/driving/tui"
)

var reviewCmd = &cobra.Command{
	Use:   "review [run-id]",
	Short: "Review flagged near-duplicate pairs",
	Long: `Opens an interactive screen listing the near-duplicate pairs a run
flagged. Without a run ID the most recent run is used.

Controls:
  ↑/k, ↓/j - Navigate pairs
  b        - Keep both addresses
  1        - Flag the first (incoming) address
  2        - Flag the second (existing) address
  r        - Reload
  q        - Quit`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReview,
}

func init() {
	rootCmd.AddCommand(reviewCmd)
}

func runReview(cmd *cobra.Command, args []string) error {
	if reviewService == nil {
		return errors.New("review service not configured")
	}

	runID := ""
	if len(args) > 0 {
		runID = args[0]
	}

	// Add panic recovery to get stack traces
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in review screen: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
		}
	}()

	app, err := tui.NewApp(tui.NewPorts(reviewService), runID)
	if err != nil {
		return fmt.Errorf("failed to create review screen: %w", err)
	}

	app.WithContext(cmd.Context())

	if err := app.Run(); err != nil {
		return fmt.Errorf("review screen error: %w", err)
	}

	return nil
}
