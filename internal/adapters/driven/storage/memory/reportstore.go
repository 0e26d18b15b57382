package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/custodia-labs/mailsift-cli/internal/core/domain"
	"github.com/custodia-labs/mailsift-cli/internal/core/ports/driven"
)

// Ensure ReportStore implements the interface.
var _ driven.ReportStore = (*ReportStore)(nil)

// ReportStore is an in-memory implementation of driven.ReportStore.
type ReportStore struct {
	mu      sync.RWMutex
	runs    map[string]domain.Run
	pairs   map[string][]driven.StoredNearDuplicate
	entries map[string][]domain.AddressEntry
}

// NewReportStore creates a new in-memory report store.
func NewReportStore() *ReportStore {
	return &ReportStore{
		runs:    make(map[string]domain.Run),
		pairs:   make(map[string][]driven.StoredNearDuplicate),
		entries: make(map[string][]domain.AddressEntry),
	}
}

// SaveReport stores a run summary with its addresses and flagged pairs.
func (s *ReportStore) SaveReport(_ context.Context, report *domain.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.runs[report.RunID] = domain.Run{
		ID:         report.RunID,
		RootPath:   report.RootPath,
		Threshold:  report.Threshold,
		Stats:      report.Stats,
		Cursor:     report.Cursor,
		StartedAt:  report.StartedAt,
		FinishedAt: report.FinishedAt,
	}

	stored := make([]driven.StoredNearDuplicate, 0, len(report.NearDuplicates))
	for i, pair := range report.NearDuplicates {
		stored = append(stored, driven.StoredNearDuplicate{
			Index:      i,
			Pair:       pair,
			Resolution: domain.ResolutionPending,
		})
	}
	s.pairs[report.RunID] = stored
	s.entries[report.RunID] = append([]domain.AddressEntry(nil), report.Entries...)
	return nil
}

// GetRun retrieves a run summary by ID.
func (s *ReportStore) GetRun(_ context.Context, id string) (*domain.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[id]
	if !ok {
		return nil, fmt.Errorf("run %s: %w", id, domain.ErrNotFound)
	}
	return &run, nil
}

// ListRuns returns all runs, most recent first.
func (s *ReportStore) ListRuns(_ context.Context) ([]domain.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	runs := make([]domain.Run, 0, len(s.runs))
	for _, run := range s.runs {
		runs = append(runs, run)
	}
	sort.Slice(runs, func(i, j int) bool {
		return runs[i].StartedAt.After(runs[j].StartedAt)
	})
	return runs, nil
}

// LatestRun returns the most recent run.
func (s *ReportStore) LatestRun(ctx context.Context) (*domain.Run, error) {
	runs, err := s.ListRuns(ctx)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, fmt.Errorf("no runs recorded: %w", domain.ErrNotFound)
	}
	return &runs[0], nil
}

// GetNearDuplicates returns the flagged pairs for a run with resolutions.
func (s *ReportStore) GetNearDuplicates(_ context.Context, runID string) ([]driven.StoredNearDuplicate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.runs[runID]; !ok {
		return nil, fmt.Errorf("run %s: %w", runID, domain.ErrNotFound)
	}
	return append([]driven.StoredNearDuplicate(nil), s.pairs[runID]...), nil
}

// ResolveNearDuplicate records a reviewer's decision for a pair.
func (s *ReportStore) ResolveNearDuplicate(_ context.Context, runID string, pairIndex int, resolution domain.Resolution) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.pairs[runID]
	if !ok {
		return fmt.Errorf("run %s: %w", runID, domain.ErrNotFound)
	}
	if pairIndex < 0 || pairIndex >= len(stored) {
		return fmt.Errorf("pair %d of run %s: %w", pairIndex, runID, domain.ErrNotFound)
	}
	stored[pairIndex].Resolution = resolution
	return nil
}

// Close releases resources (no-op for memory store).
func (s *ReportStore) Close() error {
	return nil
}

// Entries returns the stored address entries for a run.
// Not part of driven.ReportStore; used by tests to inspect saved state.
func (s *ReportStore) Entries(runID string) []domain.AddressEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entries[runID]
}
