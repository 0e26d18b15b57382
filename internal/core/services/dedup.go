package services

import (
	"fmt"
	"math"

	"github.com/agnivade/levenshtein"

	"github.com/custodia-labs/mailsift-cli/internal/core/domain"
)

// DefaultThreshold is the near-duplicate similarity threshold used when
// the operator does not override it.
const DefaultThreshold = 0.90

// DedupEngine maintains the running set of unique accepted addresses.
// Every submission is checked for exact membership by normalised string,
// then scanned for near-duplicates against the existing set. The set
// grows monotonically and preserves insertion order, so output is
// reproducible for identical input ordering.
//
// The near-duplicate scan is banded by length: a ratio of at least t
// between strings of lengths m <= n requires n <= m*(2-t)/t, so members
// outside that band cannot reach the threshold and are never compared.
// Candidates inside the band are filtered with the matcher's quick upper
// bound before the full ratio is computed. This keeps the common case
// near-linear without losing any pair a full scan would find.
//
// The engine is not safe for concurrent use; the orchestrator owns it
// and submits sequentially.
type DedupEngine struct {
	threshold float64

	entries []domain.AddressEntry
	index   map[string]int
	buckets map[int][]int

	pairs []domain.NearDuplicate
}

// NewDedupEngine creates an engine with the given similarity threshold.
// The threshold must lie in (0, 1]; anything else is a configuration
// error and aborts before processing begins.
func NewDedupEngine(threshold float64) (*DedupEngine, error) {
	if threshold <= 0 || threshold > 1 {
		return nil, fmt.Errorf("%w: similarity threshold %v outside (0, 1]", domain.ErrInvalidConfig, threshold)
	}
	return &DedupEngine{
		threshold: threshold,
		index:     make(map[string]int),
		buckets:   make(map[int][]int),
	}, nil
}

// Threshold returns the configured similarity threshold.
func (e *DedupEngine) Threshold() float64 {
	return e.threshold
}

// Submit records one occurrence of a validated address.
//
// An exact duplicate only grows the existing entry's source list. A new
// address always enters the unique set; if it closely resembles an
// existing member the best-scoring pair is additionally flagged for
// review. Flagged addresses are never merged.
func (e *DedupEngine) Submit(addr domain.Address, src domain.SourceRecord) domain.Outcome {
	// 1. EXACT MEMBERSHIP
	if i, ok := e.index[addr.Normalized]; ok {
		e.entries[i].Sources = append(e.entries[i].Sources, src)
		return domain.Outcome{
			Kind:  domain.OutcomeExactDuplicate,
			Match: e.entries[i].Address.Normalized,
		}
	}

	// 2. NEAR-DUPLICATE SCAN
	bestIdx, bestScore := e.scanNear(addr.Normalized)

	// 3. INSERT
	idx := len(e.entries)
	e.entries = append(e.entries, domain.AddressEntry{
		Address: addr,
		Sources: []domain.SourceRecord{src},
	})
	e.index[addr.Normalized] = idx
	n := len(addr.Normalized)
	e.buckets[n] = append(e.buckets[n], idx)

	if bestIdx < 0 {
		return domain.Outcome{Kind: domain.OutcomeNewUnique}
	}

	// 4. FLAG PAIR FOR REVIEW
	existing := e.entries[bestIdx].Address
	e.pairs = append(e.pairs, domain.NearDuplicate{
		Address:      addr.Display(),
		Existing:     existing.Display(),
		Score:        bestScore,
		EditDistance: levenshtein.ComputeDistance(addr.Normalized, existing.Normalized),
		Source:       src,
	})
	return domain.Outcome{
		Kind:  domain.OutcomeNearDuplicate,
		Match: existing.Normalized,
		Score: bestScore,
	}
}

// scanNear finds the existing member most similar to normalized,
// considering only members whose score could reach the threshold.
// Returns (-1, 0) when nothing reaches it.
func (e *DedupEngine) scanNear(normalized string) (int, float64) {
	length := len(normalized)
	lo := int(math.Ceil(float64(length) * e.threshold / (2 - e.threshold)))
	hi := int(math.Floor(float64(length) * (2 - e.threshold) / e.threshold))
	if lo < 1 {
		lo = 1
	}

	m := newMatcher(normalized)
	bestIdx, bestScore := -1, 0.0

	for n := lo; n <= hi; n++ {
		for _, idx := range e.buckets[n] {
			score := m.ratio(e.entries[idx].Address.Normalized, e.threshold)
			if score < e.threshold {
				continue
			}
			if score > bestScore {
				bestIdx, bestScore = idx, score
			}
		}
	}
	return bestIdx, bestScore
}

// Size returns the number of unique addresses accepted so far.
func (e *DedupEngine) Size() int {
	return len(e.entries)
}

// Entries returns the unique set in insertion order.
// The returned slice is the engine's own; callers must not mutate it.
func (e *DedupEngine) Entries() []domain.AddressEntry {
	return e.entries
}

// NearDuplicates returns the review list in discovery order.
func (e *DedupEngine) NearDuplicates() []domain.NearDuplicate {
	return e.pairs
}
