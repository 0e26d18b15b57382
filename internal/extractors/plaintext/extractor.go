package plaintext

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/mailsift-cli/internal/core/domain"
	"github.com/custodia-labs/mailsift-cli/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Extractor handles plain text files, one block per non-empty line.
// It also serves as the fallback for text formats without a registered
// format-specific extractor.
type Extractor struct{}

// New creates a new plain text extractor.
func New() *Extractor {
	return &Extractor{}
}

// SupportedMIMETypes returns the MIME types this extractor handles.
func (e *Extractor) SupportedMIMETypes() []string {
	return []string{
		"text/plain",
		"text/csv",
		"text/html",
	}
}

// Priority returns the selection priority.
func (e *Extractor) Priority() int {
	return 5 // Fallback extractor
}

// Extract emits one block per non-empty line with 1-based line numbers.
// Lines holding invalid UTF-8 are skipped and counted.
func (e *Extractor) Extract(_ context.Context, raw *domain.RawDocument) (*driven.ExtractResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	result := &driven.ExtractResult{}
	for i, line := range strings.Split(string(raw.Content), "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if !utf8.ValidString(trimmed) {
			result.SkippedBlocks++
			continue
		}
		result.Blocks = append(result.Blocks, domain.TextBlock{
			Text:   trimmed,
			Source: domain.SourceRecord{File: raw.URI, Line: i + 1},
		})
	}
	return result, nil
}
