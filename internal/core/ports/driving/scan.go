package driving

import (
	"context"

	"github.com/custodia-labs/mailsift-cli/internal/core/domain"
)

// ScanOrchestrator coordinates a full extraction run over a scan root.
type ScanOrchestrator interface {
	// Scan processes every supported file under the root and returns the
	// aggregated report. Only one scan may run at a time per orchestrator.
	Scan(ctx context.Context, opts ScanOptions) (*domain.Report, error)

	// Watch processes the root once, then keeps consuming filesystem
	// change events until the context is cancelled. Each completed pass
	// is delivered on the returned channel.
	Watch(ctx context.Context, opts ScanOptions) (<-chan *domain.Report, error)

	// Status returns progress counters for the running scan.
	Status() ScanStatus
}

// ScanOptions configures a single run.
type ScanOptions struct {
	// RootPath is the directory to scan.
	RootPath string

	// Threshold is the near-duplicate similarity threshold in (0, 1].
	Threshold float64

	// SinceCursor, when non-empty, requests an incremental scan from
	// the given connector cursor instead of a full walk.
	SinceCursor string

	// DryRun performs the full analysis but suppresses output artifacts.
	DryRun bool
}

// ScanStatus represents the current state of a scan operation.
type ScanStatus struct {
	// Running indicates if a scan is currently in progress.
	Running bool

	// FilesProcessed is the count of documents consumed.
	FilesProcessed int

	// CandidatesSeen is the count of raw matches so far.
	CandidatesSeen int

	// UniqueAddresses is the current unique set size.
	UniqueAddresses int

	// ErrorCount is the number of per-document errors encountered.
	ErrorCount int
}

// ReviewService exposes the near-duplicate review list to the TUI.
type ReviewService interface {
	// Pairs returns the flagged pairs of a run; an empty runID selects
	// the most recent run.
	Pairs(ctx context.Context, runID string) (runLabel string, pairs []ReviewPair, err error)

	// Resolve records the reviewer's decision for a pair.
	Resolve(ctx context.Context, runID string, pairIndex int, resolution domain.Resolution) error
}

// ReviewPair is a near-duplicate pair with its review state.
type ReviewPair struct {
	// Index is the pair's position within the run's review list.
	Index int

	// Pair is the flagged near-duplicate.
	Pair domain.NearDuplicate

	// Resolution is the recorded decision.
	Resolution domain.Resolution
}
