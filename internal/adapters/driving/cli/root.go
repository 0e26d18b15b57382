// Package cli implements the mailsift command-line interface.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	configfile "github.com/custodia-labs/mailsift-cli/internal/adapters/driven/config/file"
	"github.com/custodia-labs/mailsift-cli/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/mailsift-cli/internal/core/ports/driven"
	"github.com/custodia-labs/mailsift-cli/internal/core/ports/driving"
	"github.com/custodia-labs/mailsift-cli/internal/core/services"
)

// version is the build version, overridden at release time via ldflags.
var version = "dev"

// Services backing the commands. Execute wires the production
// implementations; tests substitute their own.
var (
	// scanOrchestrator overrides the per-run orchestrator when set.
	// Production leaves it nil so each scan assembles its own pipeline
	// from flags and configuration.
	scanOrchestrator driving.ScanOrchestrator

	reviewService driving.ReviewService
	reportStore   driven.ReportStore
	configStore   driven.ConfigStore

	// catalog owns the database handle behind reportStore.
	catalog *sqlite.Store
)

var rootCmd = &cobra.Command{
	Use:   "mailsift",
	Short: "Extract and deduplicate email addresses from mail exports",
	Long: `Mailsift walks a directory of mail-export files (CSV, HTML, EML and
plain text), extracts every email address it finds, validates and
normalises them, and flags near-duplicate pairs for human review
instead of merging them silently.

Each run writes CSV artifacts and records a summary in a local
catalog. Past runs can be listed with 'mailsift history' and their
flagged pairs resolved with 'mailsift review'.`,
	SilenceUsage: true,
}

// Execute wires the default services, runs the root command and
// releases the catalog on the way out.
func Execute() error {
	if err := initServices(); err != nil {
		return fmt.Errorf("initialise services: %w", err)
	}
	defer closeServices()

	return rootCmd.Execute()
}

// initServices builds the production wiring: the TOML config store and
// the SQLite run catalog. Scan-time services are assembled per run in
// runScan so flags can shape the reporter pipeline.
func initServices() error {
	cfg, err := configfile.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	configStore = cfg

	store, err := sqlite.NewStore(cfg.GetString("data_dir"))
	if err != nil {
		return fmt.Errorf("open catalog: %w", err)
	}
	catalog = store
	reportStore = store.ReportStore()
	reviewService = services.NewReviewService(reportStore)

	return nil
}

func closeServices() {
	if catalog != nil {
		_ = catalog.Close() //nolint:errcheck // shutdown path
		catalog = nil
	}
}
