package driven

import (
	"context"

	"github.com/custodia-labs/mailsift-cli/internal/core/domain"
)

// ReportStore persists completed runs in the local catalog.
// Backed by SQLite for metadata storage.
type ReportStore interface {
	// SaveReport stores a run summary with its addresses, sources and
	// near-duplicate pairs.
	SaveReport(ctx context.Context, report *domain.Report) error

	// GetRun retrieves a run summary by ID.
	GetRun(ctx context.Context, id string) (*domain.Run, error)

	// ListRuns returns all runs, most recent first.
	ListRuns(ctx context.Context) ([]domain.Run, error)

	// LatestRun returns the most recent run.
	// Returns domain.ErrNotFound when the catalog is empty.
	LatestRun(ctx context.Context) (*domain.Run, error)

	// GetNearDuplicates returns the flagged pairs for a run together
	// with any recorded resolutions.
	GetNearDuplicates(ctx context.Context, runID string) ([]StoredNearDuplicate, error)

	// ResolveNearDuplicate records a reviewer's decision for a pair.
	ResolveNearDuplicate(ctx context.Context, runID string, pairIndex int, resolution domain.Resolution) error

	// Close releases the underlying storage.
	Close() error
}

// StoredNearDuplicate pairs a flagged near-duplicate with its review state.
type StoredNearDuplicate struct {
	// Index is the pair's position within the run's review list.
	Index int

	// Pair is the flagged near-duplicate.
	Pair domain.NearDuplicate

	// Resolution is the recorded review decision.
	Resolution domain.Resolution
}
