package services

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// Similarity returns the matching-block ratio of two strings in [0, 1].
// The ratio is 2*M/T where M is the number of characters in matching
// blocks and T the combined length, the same measure difflib's
// SequenceMatcher produces. Operands are ordered deterministically before
// comparison so the result is strictly symmetric, and identical strings
// always score 1.0.
func Similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	if b < a {
		a, b = b, a
	}
	m := difflib.NewMatcher(splitChars(a), splitChars(b))
	return m.Ratio()
}

// matcher wraps a SequenceMatcher with one operand pinned, for comparing
// a single address against many existing members. QuickRatio gives a
// cheap upper bound that filters pairs before the full ratio is computed.
type matcher struct {
	m *difflib.SequenceMatcher
}

// newMatcher pins the fixed operand.
func newMatcher(fixed string) *matcher {
	return &matcher{m: difflib.NewMatcher(nil, splitChars(fixed))}
}

// ratio scores the fixed operand against other, or returns -1 when the
// upper bound already falls below min.
func (c *matcher) ratio(other string, min float64) float64 {
	c.m.SetSeq1(splitChars(other))
	if c.m.QuickRatio() < min {
		return -1
	}
	return c.m.Ratio()
}

// splitChars converts a string into the per-character sequence the
// matcher operates on.
func splitChars(s string) []string {
	return strings.Split(s, "")
}
