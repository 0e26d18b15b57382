// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/mailsift-cli/internal/core/domain"
	"github.com/custodia-labs/mailsift-cli/internal/core/ports/driving"
)

// PairsLoaded carries the near-duplicate pairs of a run from the service.
type PairsLoaded struct {
	RunLabel string
	Pairs    []driving.ReviewPair
	Err      error
}

// PairResolved signals that a reviewer decision was recorded.
type PairResolved struct {
	Index      int
	Resolution domain.Resolution
	Err        error
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}
