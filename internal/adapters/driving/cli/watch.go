package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/mailsift-cli/internal/adapters/driven/tld/publicsuffix"
	"github.com/custodia-labs/mailsift-cli/internal/connectors/filesystem"
	"github.com/custodia-labs/mailsift-cli/internal/core/domain"
	"github.com/custodia-labs/mailsift-cli/internal/core/ports/driving"
	"github.com/custodia-labs/mailsift-cli/internal/core/services"
	"github.com/custodia-labs/mailsift-cli/internal/extractors"
	"github.com/custodia-labs/mailsift-cli/internal/logger"
)

var (
	watchSimilarity float64
	watchExclude    string
	watchVerbose    bool
)

var watchCmd = &cobra.Command{
	Use:   "watch [root-path]",
	Short: "Watch a mail-export tree and rescan on changes",
	Long: `Performs an initial scan of the directory, then keeps watching for
file changes and folds new and modified files into the running result
set. A summary line is printed after each pass.

No artifacts are written while watching; run 'mailsift scan' for a
recorded pass. Stop with Ctrl-C.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().Float64VarP(&watchSimilarity, "similarity", "s", 0,
		"near-duplicate similarity threshold in (0, 1] (default from settings)")
	watchCmd.Flags().StringVarP(&watchExclude, "exclude", "e", "",
		"CSV file of addresses to exclude from results")
	watchCmd.Flags().BoolVarP(&watchVerbose, "verbose", "v", false,
		"enable debug logging")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	logger.SetVerbose(watchVerbose)

	root := "."
	if len(args) > 0 {
		root = args[0]
	}

	threshold, err := resolveThreshold(watchSimilarity)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	orch := scanOrchestrator
	if orch == nil {
		orch, err = buildWatchOrchestrator(ctx)
		if err != nil {
			return err
		}
	}

	reports, err := orch.Watch(ctx, driving.ScanOptions{
		RootPath:  root,
		Threshold: threshold,
	})
	if err != nil {
		return fmt.Errorf("watch failed: %w", err)
	}

	cmd.Printf("Watching %s (Ctrl-C to stop)...\n", root)

	// A burst of file changes emits a snapshot per change; cap the
	// terminal updates and print the final state on shutdown.
	limiter := rate.NewLimiter(rate.Every(time.Second), 1)
	var last *domain.Report
	for report := range reports {
		last = report
		if limiter.Allow() {
			printWatchLine(cmd, report)
		}
	}
	if last != nil {
		printWatchLine(cmd, last)
	}
	cmd.Println()
	cmd.Println("Watch stopped.")

	return nil
}

// buildWatchOrchestrator assembles a scan service without a reporter
// pipeline. Watch output streams to the terminal only.
func buildWatchOrchestrator(ctx context.Context) (driving.ScanOrchestrator, error) {
	exclusions, err := loadExclusions(ctx, watchExclude)
	if err != nil {
		return nil, err
	}

	return services.NewScanOrchestrator(
		filesystem.Factory,
		extractors.Defaults(),
		exclusions,
		publicsuffix.NewTLDProvider(),
		nil,
	), nil
}

func printWatchLine(cmd *cobra.Command, report *domain.Report) {
	cmd.Printf("\r%d files, %d unique addresses, %d near-duplicates",
		report.Stats.FilesProcessed,
		report.Stats.UniqueAddresses,
		report.Stats.NearDuplicates)
}
