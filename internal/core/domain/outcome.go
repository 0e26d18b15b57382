package domain

import "fmt"

// OutcomeKind classifies the result of submitting an address to the
// dedup engine.
type OutcomeKind int

const (
	// OutcomeNewUnique indicates the address entered the unique set.
	OutcomeNewUnique OutcomeKind = iota

	// OutcomeExactDuplicate indicates the normalised address was already
	// present; only its source list grew.
	OutcomeExactDuplicate

	// OutcomeNearDuplicate indicates the address entered the unique set
	// but closely resembles an existing member.
	OutcomeNearDuplicate
)

// String returns a human-readable name for the outcome kind.
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeNewUnique:
		return "new_unique"
	case OutcomeExactDuplicate:
		return "exact_duplicate"
	case OutcomeNearDuplicate:
		return "near_duplicate"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// Outcome is the dedup engine's verdict for one submitted address.
type Outcome struct {
	// Kind classifies the verdict.
	Kind OutcomeKind

	// Match is the normalised form of the closest existing address.
	// Set only for exact and near duplicates.
	Match string

	// Score is the similarity ratio against Match, in [0, 1].
	// Set only for near duplicates.
	Score float64
}

// NearDuplicate is a flagged pair of distinct accepted addresses whose
// similarity met the configured threshold. Pairs are reviewed by a human;
// the engine never merges them.
type NearDuplicate struct {
	// Address is the display form of the newly submitted address.
	Address string

	// Existing is the display form of the already-accepted address.
	Existing string

	// Score is the similarity ratio in [0, 1].
	Score float64

	// EditDistance is the Levenshtein distance between the two, shown
	// alongside the ratio in review output.
	EditDistance int

	// Source is where the newly submitted address was found.
	Source SourceRecord
}

// Resolution records a reviewer's decision on a near-duplicate pair.
type Resolution int

const (
	// ResolutionPending means the pair has not been reviewed.
	ResolutionPending Resolution = iota

	// ResolutionKeepBoth means both addresses are legitimate.
	ResolutionKeepBoth

	// ResolutionFlagFirst marks the submitted address as suspect.
	ResolutionFlagFirst

	// ResolutionFlagSecond marks the existing address as suspect.
	ResolutionFlagSecond
)

// String returns a human-readable name for the resolution.
func (r Resolution) String() string {
	switch r {
	case ResolutionPending:
		return "pending"
	case ResolutionKeepBoth:
		return "keep_both"
	case ResolutionFlagFirst:
		return "flag_first"
	case ResolutionFlagSecond:
		return "flag_second"
	default:
		return fmt.Sprintf("unknown(%d)", int(r))
	}
}
