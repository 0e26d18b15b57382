package driven

import (
	"context"
	"errors"

	"github.com/custodia-labs/mailsift-cli/internal/core/domain"
)

// Connector fetches documents from a scan root.
// The filesystem connector is the only production implementation; the
// interface keeps the core testable against fakes.
type Connector interface {
	// Type returns the connector type identifier.
	Type() string

	// SourceID returns the configured source ID.
	SourceID() string

	// Capabilities returns what this connector supports.
	Capabilities() ConnectorCapabilities

	// Validate checks if the connector is properly configured.
	// For filesystem, this checks the path exists and is a directory.
	// Returns nil if ready to scan, error describing the problem otherwise.
	Validate(ctx context.Context) error

	// FullSync fetches all documents from the source.
	// Returns channels for documents and errors.
	FullSync(ctx context.Context) (<-chan domain.RawDocument, <-chan error)

	// IncrementalSync fetches only changes since the last scan.
	// Only available if SupportsIncremental is true.
	// Connectors that support cursor return should send SyncComplete on the
	// error channel upon successful completion.
	IncrementalSync(ctx context.Context, state domain.SyncState) (<-chan domain.RawDocumentChange, <-chan error)

	// Watch listens for real-time changes.
	// Only available if SupportsWatch is true.
	Watch(ctx context.Context) (<-chan domain.RawDocumentChange, error)

	// Close releases resources.
	Close() error
}

// ConnectorCapabilities describes what a connector supports.
type ConnectorCapabilities struct {
	// SupportsIncremental indicates the connector can fetch only changes.
	SupportsIncremental bool

	// SupportsWatch indicates the connector can push real-time events.
	SupportsWatch bool

	// SupportsValidation indicates Validate() performs actual validation.
	// When true, Validate() makes a real check (e.g., path check).
	SupportsValidation bool

	// SupportsCursorReturn indicates IncrementalSync can return an updated
	// cursor via the SyncComplete sentinel on the error channel.
	SupportsCursorReturn bool
}

// SyncComplete is sent on the error channel when a scan completes successfully.
// Carries the new cursor state for incremental sync.
type SyncComplete struct {
	NewCursor string
}

// Error implements the error interface.
// This allows SyncComplete to be sent on the error channel.
func (SyncComplete) Error() string {
	return "sync complete"
}

// IsSyncComplete checks if an error is actually a successful completion.
// Returns the SyncComplete and true if it is, nil and false otherwise.
func IsSyncComplete(err error) (*SyncComplete, bool) {
	var sc *SyncComplete
	if errors.As(err, &sc) {
		return sc, true
	}
	return nil, false
}
