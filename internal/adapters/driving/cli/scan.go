package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	exclusionfile "github.com/custodia-labs/mailsift-cli/internal/adapters/driven/exclusions/file"
	"github.com/custodia-labs/mailsift-cli/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/mailsift-cli/internal/adapters/driven/tld/publicsuffix"
	"github.com/custodia-labs/mailsift-cli/internal/connectors/filesystem"
	"github.com/custodia-labs/mailsift-cli/internal/core/domain"
	"github.com/custodia-labs/mailsift-cli/internal/core/ports/driving"
	"github.com/custodia-labs/mailsift-cli/internal/core/services"
	"github.com/custodia-labs/mailsift-cli/internal/extractors"
	"github.com/custodia-labs/mailsift-cli/internal/logger"
	"github.com/custodia-labs/mailsift-cli/internal/reporters"
)

var (
	scanSimilarity float64
	scanExclude    string
	scanOut        string
	scanDryRun     bool
	scanSinceLast  bool
	scanVerbose    bool
)

var scanCmd = &cobra.Command{
	Use:   "scan [root-path]",
	Short: "Scan a mail-export tree for email addresses",
	Long: `Walks the given directory (default: current directory), extracting
email addresses from every supported file: CSV exports, saved HTML
pages, EML messages and plain text.

Addresses are validated, normalised and deduplicated. Pairs that look
like typos of each other are flagged as near-duplicates for review
rather than merged. Results are written as CSV artifacts and recorded
in the run catalog.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScan,
}

func init() {
	scanCmd.Flags().Float64VarP(&scanSimilarity, "similarity", "s", 0,
		"near-duplicate similarity threshold in (0, 1] (default from settings)")
	scanCmd.Flags().StringVarP(&scanExclude, "exclude", "e", "",
		"CSV file of addresses to exclude from results")
	scanCmd.Flags().StringVar(&scanOut, "out", "",
		"directory for CSV artifacts (default: current directory)")
	scanCmd.Flags().BoolVar(&scanDryRun, "dry-run", false,
		"analyse without writing artifacts or catalog entries")
	scanCmd.Flags().BoolVar(&scanSinceLast, "since-last", false,
		"only process files changed since the previous run")
	scanCmd.Flags().BoolVarP(&scanVerbose, "verbose", "v", false,
		"enable debug logging")
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	logger.SetVerbose(scanVerbose)

	root := "."
	if len(args) > 0 {
		root = args[0]
	}

	threshold, err := resolveThreshold(scanSimilarity)
	if err != nil {
		return err
	}

	ctx := context.Background()

	orch := scanOrchestrator
	if orch == nil {
		orch, err = buildScanOrchestrator(ctx)
		if err != nil {
			return err
		}
	}

	opts := driving.ScanOptions{
		RootPath:  root,
		Threshold: threshold,
		DryRun:    scanDryRun,
	}
	if scanSinceLast {
		opts.SinceCursor = lastCursor(ctx)
	}

	cmd.Printf("Scanning %s...\n", root)

	report, err := scanWithProgress(ctx, cmd, orch, opts)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	printScanSummary(cmd, report)

	return nil
}

// buildScanOrchestrator assembles the per-run scan service. The CSV
// reporter and the catalog reporter are attached unless the run is a
// dry run, in which case the orchestrator skips the pipeline anyway.
func buildScanOrchestrator(ctx context.Context) (driving.ScanOrchestrator, error) {
	exclusions, err := loadExclusions(ctx, scanExclude)
	if err != nil {
		return nil, err
	}

	registry := reporters.NewRegistry()
	reporters.RegisterDefaults(registry)

	csvReporter, err := registry.Build("csv", csvConfig())
	if err != nil {
		return nil, fmt.Errorf("build csv reporter: %w", err)
	}

	pipeline := reporters.NewPipeline(csvReporter)
	if reportStore != nil {
		pipeline.Add(reporters.NewCatalog(reportStore))
	}

	return services.NewScanOrchestrator(
		filesystem.Factory,
		extractors.Defaults(),
		exclusions,
		publicsuffix.NewTLDProvider(),
		pipeline,
	), nil
}

// loadExclusions builds the in-memory exclusion set from the --exclude
// flag, falling back to the configured default list.
func loadExclusions(ctx context.Context, flagPath string) (*memory.ExclusionStore, error) {
	store := memory.NewExclusionStore()

	path := flagPath
	if path == "" && configStore != nil {
		path = configStore.GetString("exclude_file")
	}
	if path == "" {
		return store, nil
	}

	count, err := exclusionfile.Load(ctx, path, store)
	if err != nil {
		return nil, fmt.Errorf("load exclusions: %w", err)
	}
	logger.Info("Loaded %d excluded addresses from %s", count, path)

	return store, nil
}

// csvConfig maps flags and configuration onto the CSV reporter builder.
func csvConfig() map[string]any {
	cfg := make(map[string]any)
	if scanOut != "" {
		cfg["dir"] = scanOut
	}
	if configStore != nil {
		if batch := configStore.GetInt("batch_size"); batch > 0 {
			cfg["batch_size"] = batch
		}
	}
	return cfg
}

// resolveThreshold picks the similarity threshold: the flag when set,
// then the configured value, then the engine default.
func resolveThreshold(flagValue float64) (float64, error) {
	threshold := flagValue
	if threshold == 0 && configStore != nil {
		threshold = configStore.GetFloat64("similarity_threshold")
	}
	if threshold == 0 {
		threshold = services.DefaultThreshold
	}
	if threshold <= 0 || threshold > 1 {
		return 0, fmt.Errorf("%w: similarity threshold %v outside (0, 1]",
			domain.ErrInvalidConfig, threshold)
	}
	return threshold, nil
}

// lastCursor returns the cursor recorded by the most recent run, or
// empty when the catalog has none.
func lastCursor(ctx context.Context) string {
	if reportStore == nil {
		return ""
	}
	run, err := reportStore.LatestRun(ctx)
	if err != nil || run == nil {
		return ""
	}
	return run.Cursor
}

// scanWithProgress runs the scan while displaying progress updates.
func scanWithProgress(
	ctx context.Context,
	cmd *cobra.Command,
	orch driving.ScanOrchestrator,
	opts driving.ScanOptions,
) (*domain.Report, error) {
	type scanResult struct {
		report *domain.Report
		err    error
	}

	// Start the scan in a goroutine
	resCh := make(chan scanResult, 1)
	go func() {
		report, err := orch.Scan(ctx, opts)
		resCh <- scanResult{report, err}
	}()

	// Carriage-return progress only makes sense on a terminal.
	interactive := term.IsTerminal(int(os.Stdout.Fd()))

	// Poll status every 500ms
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	lastCount := 0
	for {
		select {
		case res := <-resCh:
			status := orch.Status()
			if status.FilesProcessed > 0 {
				cmd.Printf("\rProcessed %d files (%d errors)\n",
					status.FilesProcessed, status.ErrorCount)
			}
			return res.report, res.err
		case <-ticker.C:
			if !interactive {
				continue
			}
			status := orch.Status()
			if status.CandidatesSeen > lastCount {
				cmd.Printf("\rProcessing... %d candidates, %d unique",
					status.CandidatesSeen, status.UniqueAddresses)
				lastCount = status.CandidatesSeen
			}
		}
	}
}

// printScanSummary prints the run counters and artifact locations.
func printScanSummary(cmd *cobra.Command, report *domain.Report) {
	stats := report.Stats

	cmd.Println()
	cmd.Println("Scan Summary")
	cmd.Println("============")
	cmd.Printf("  Files processed:    %d\n", stats.FilesProcessed)
	cmd.Printf("  Candidates seen:    %d\n", stats.CandidatesSeen)
	cmd.Printf("  Structural rejects: %d\n", stats.StructuralRejections)
	cmd.Printf("  Excluded hits:      %d\n", stats.ExcludedHits)
	cmd.Printf("  Exact duplicates:   %d\n", stats.ExactDuplicates)
	cmd.Printf("  Near duplicates:    %d\n", stats.NearDuplicates)
	cmd.Printf("  Unique addresses:   %d\n", stats.UniqueAddresses)
	if stats.BlocksSkipped > 0 {
		cmd.Printf("  Blocks skipped:     %d\n", stats.BlocksSkipped)
	}
	cmd.Println()

	if scanDryRun {
		cmd.Println("Dry run: no artifacts written.")
		return
	}

	outDir := scanOut
	if outDir == "" {
		outDir = "."
	}
	cmd.Printf("Artifacts written to %s (run %s).\n", outDir, report.RunID)

	if stats.NearDuplicates > 0 {
		cmd.Printf("Run 'mailsift review %s' to resolve flagged pairs.\n", report.RunID)
	}
}
