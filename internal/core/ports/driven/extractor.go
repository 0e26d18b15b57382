package driven

import (
	"context"

	"github.com/custodia-labs/mailsift-cli/internal/core/domain"
)

// Extractor turns a raw document into text blocks for the recogniser.
// Each extractor handles specific MIME types (e.g., CSV, HTML).
type Extractor interface {
	// SupportedMIMETypes returns the MIME types this extractor handles.
	SupportedMIMETypes() []string

	// Priority returns the selection priority (higher = preferred).
	// Format-specific extractors should return 50-89.
	// Fallback extractors should return 1-9.
	Priority() int

	// Extract produces the document's text blocks with provenance.
	// Blocks that cannot be decoded are reported in the result rather
	// than failing the whole document.
	Extract(ctx context.Context, raw *domain.RawDocument) (*ExtractResult, error)
}

// ExtractResult contains the output of extraction.
type ExtractResult struct {
	// Blocks is the ordered list of extracted text blocks.
	Blocks []domain.TextBlock

	// SkippedBlocks counts blocks dropped as malformed (undecodable
	// bytes, short CSV rows). Surfaced in run statistics.
	SkippedBlocks int
}

// ExtractorRegistry selects the appropriate extractor for a document.
// It maintains a priority-ordered list of extractors and dispatches
// based on MIME type.
type ExtractorRegistry interface {
	// Extract processes a raw document using the best matching extractor.
	// Returns domain.ErrUnsupportedType when no extractor matches.
	Extract(ctx context.Context, raw *domain.RawDocument) (*ExtractResult, error)

	// Register adds an extractor to the registry.
	Register(extractor Extractor)

	// SupportedMIMETypes returns all MIME types that can be extracted.
	SupportedMIMETypes() []string
}
