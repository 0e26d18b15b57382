// Package tui provides the interactive near-duplicate review screen for
// mailsift. It implements a driving adapter following hexagonal
// architecture principles.
package tui

import (
	"github.com/custodia-labs/mailsift-cli/internal/core/ports/driving"
)

// Ports aggregates the driving port interfaces required by the TUI.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Review exposes the flagged near-duplicate pairs of past runs.
	Review driving.ReviewService
}

// NewPorts creates a new Ports aggregate with the given services.
func NewPorts(review driving.ReviewService) *Ports {
	return &Ports{Review: review}
}

// Validate ensures all required ports are set.
// Returns an error if any port is nil.
func (p *Ports) Validate() error {
	if p.Review == nil {
		return ErrMissingReviewService
	}
	return nil
}
