package domain

import (
	"fmt"
	"strings"
	"time"
)

// Candidate represents an address-shaped substring matched inside a text
// block. It is ephemeral: created per scan match and discarded once the
// validator has accepted or rejected it.
type Candidate struct {
	// Raw is the matched text exactly as it appeared.
	Raw string

	// Offset is the byte offset of the match within the block.
	Offset int

	// Source is the provenance of the block the match came from.
	Source SourceRecord
}

// Address is an email address that has passed structural and domain
// validation. The normalised string is the unique key for exact-duplicate
// detection: the domain is always compared lower-cased, and the local part
// is preserved for display but compared case-insensitively.
type Address struct {
	// Local is the local part as it appeared in the source.
	Local string

	// Domain is the domain part, lower-cased.
	Domain string

	// Normalized is the full lower-cased address used as the unique key.
	Normalized string

	// MalformedScore estimates the probability that the address is
	// malformed despite passing validation, in [0.0, 1.0].
	MalformedScore float64

	// ScoreReasons names the factors that contributed to MalformedScore.
	ScoreReasons []string

	// FirstSeen is when the address was first accepted during a run.
	FirstSeen time.Time
}

// Display returns the address with the original local-part casing and the
// lower-cased domain.
func (a *Address) Display() string {
	return a.Local + "@" + a.Domain
}

// NormalizeAddress lower-cases a full address string for use as a unique
// key or exclusion-set member.
func NormalizeAddress(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// SourceRecord links an address occurrence to its origin.
type SourceRecord struct {
	// File is the path of the originating file.
	File string

	// Line is the row or line number within the file.
	// Zero means the container format has no meaningful line numbers.
	Line int
}

// String renders the record as "path" or "path:line".
func (r SourceRecord) String() string {
	if r.Line <= 0 {
		return r.File
	}
	return fmt.Sprintf("%s:%d", r.File, r.Line)
}
