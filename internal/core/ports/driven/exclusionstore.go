package driven

import "context"

// ExclusionStore holds the addresses excluded from a run.
// The set is loaded before processing begins and is read-only for the
// lifetime of the run. Matching is on the full normalised address.
type ExclusionStore interface {
	// Add records a normalised address as excluded.
	Add(ctx context.Context, normalized string) error

	// IsExcluded checks membership of a normalised address.
	IsExcluded(ctx context.Context, normalized string) (bool, error)

	// Count returns the number of excluded addresses.
	Count(ctx context.Context) (int, error)
}
