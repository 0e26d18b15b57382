package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/mailsift-cli/internal/core/domain"
	"github.com/custodia-labs/mailsift-cli/internal/core/ports/driven"
	"github.com/custodia-labs/mailsift-cli/internal/core/ports/driving"
)

// Ensure ReviewService implements the interface.
var _ driving.ReviewService = (*ReviewService)(nil)

// ReviewService exposes the near-duplicate review list of past runs.
// Merging is entirely a human decision: this service only records what
// the reviewer decided, it never touches the address lists themselves.
type ReviewService struct {
	reports driven.ReportStore
}

// NewReviewService creates a new review service.
func NewReviewService(reports driven.ReportStore) *ReviewService {
	return &ReviewService{reports: reports}
}

// Pairs returns the flagged pairs of a run; an empty runID selects the
// most recent run.
func (s *ReviewService) Pairs(ctx context.Context, runID string) (string, []driving.ReviewPair, error) {
	if s.reports == nil {
		return "", nil, fmt.Errorf("review: %w", domain.ErrNotFound)
	}

	run, err := s.resolveRun(ctx, runID)
	if err != nil {
		return "", nil, err
	}

	stored, err := s.reports.GetNearDuplicates(ctx, run.ID)
	if err != nil {
		return "", nil, fmt.Errorf("load near-duplicates: %w", err)
	}

	pairs := make([]driving.ReviewPair, 0, len(stored))
	for _, sd := range stored {
		pairs = append(pairs, driving.ReviewPair{
			Index:      sd.Index,
			Pair:       sd.Pair,
			Resolution: sd.Resolution,
		})
	}

	label := fmt.Sprintf("%s (%s)", run.ID, run.StartedAt.Format("2006-01-02 15:04"))
	return label, pairs, nil
}

// Resolve records the reviewer's decision for a pair.
func (s *ReviewService) Resolve(ctx context.Context, runID string, pairIndex int, resolution domain.Resolution) error {
	if s.reports == nil {
		return fmt.Errorf("review: %w", domain.ErrNotFound)
	}

	run, err := s.resolveRun(ctx, runID)
	if err != nil {
		return err
	}

	if err := s.reports.ResolveNearDuplicate(ctx, run.ID, pairIndex, resolution); err != nil {
		return fmt.Errorf("record resolution: %w", err)
	}
	return nil
}

// resolveRun maps an empty runID to the latest run.
func (s *ReviewService) resolveRun(ctx context.Context, runID string) (*domain.Run, error) {
	if runID == "" {
		run, err := s.reports.LatestRun(ctx)
		if err != nil {
			return nil, fmt.Errorf("find latest run: %w", err)
		}
		return run, nil
	}

	run, err := s.reports.GetRun(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("find run %s: %w", runID, err)
	}
	return run, nil
}
