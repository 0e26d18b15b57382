package domain

import "time"

// RunStats holds the counters accumulated over a processing run.
type RunStats struct {
	// CandidatesSeen is the total number of candidate matches produced
	// by the recogniser, before any validation.
	CandidatesSeen int

	// StructuralRejections counts candidates dropped by the validator.
	StructuralRejections int

	// ExcludedHits counts occurrences of addresses on the exclusion list.
	ExcludedHits int

	// ExactDuplicates counts repeat submissions of known addresses.
	ExactDuplicates int

	// NearDuplicates counts pairs flagged for review.
	NearDuplicates int

	// UniqueAddresses is the final size of the unique set.
	UniqueAddresses int

	// FilesProcessed counts documents consumed from the connector.
	FilesProcessed int

	// BlocksSkipped counts text blocks dropped as malformed.
	BlocksSkipped int
}

// AddressEntry pairs an accepted address with its accumulated provenance.
// Entries keep the order in which addresses were first accepted, so a
// report is reproducible for identical input ordering.
type AddressEntry struct {
	// Address is the validated address.
	Address Address

	// Sources lists every origin of the address in discovery order.
	Sources []SourceRecord
}

// Report is the aggregated outcome of a processing run.
type Report struct {
	// RunID identifies the run that produced this report.
	RunID string

	// RootPath is the directory the run scanned.
	RootPath string

	// Threshold is the similarity threshold the run used.
	Threshold float64

	// Entries is the ordered unique address list with provenance.
	Entries []AddressEntry

	// NearDuplicates is the review list of flagged pairs.
	NearDuplicates []NearDuplicate

	// Stats holds the run counters.
	Stats RunStats

	// StartedAt is when processing began.
	StartedAt time.Time

	// FinishedAt is when processing completed.
	FinishedAt time.Time

	// Cursor is the connector cursor observed at completion, kept so a
	// later run can scan incrementally from this point.
	Cursor string
}

// Run is the persisted summary of a past processing run.
type Run struct {
	// ID is the unique identifier for the run.
	ID string

	// RootPath is the directory that was scanned.
	RootPath string

	// Threshold is the similarity threshold used.
	Threshold float64

	// Stats holds the run counters.
	Stats RunStats

	// Cursor is the connector cursor at completion.
	Cursor string

	// StartedAt is when processing began.
	StartedAt time.Time

	// FinishedAt is when processing completed.
	FinishedAt time.Time
}
