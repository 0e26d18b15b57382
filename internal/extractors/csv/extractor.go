package csv

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/mailsift-cli/internal/core/domain"
	"github.com/custodia-labs/mailsift-cli/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Extractor handles CSV exports. Every field becomes its own text block
// so addresses in adjacent cells are never joined into one candidate,
// and each block carries its 1-based row number.
type Extractor struct{}

// New creates a new CSV extractor.
func New() *Extractor {
	return &Extractor{}
}

// SupportedMIMETypes returns the MIME types this extractor handles.
func (e *Extractor) SupportedMIMETypes() []string {
	return []string{"text/csv"}
}

// Priority returns the selection priority.
func (e *Extractor) Priority() int {
	return 50 // Format-specific extractor
}

// Extract produces one block per non-empty field. Rows that fail to
// parse and fields holding invalid UTF-8 are skipped and counted; they
// never abort the document.
func (e *Extractor) Extract(_ context.Context, raw *domain.RawDocument) (*driven.ExtractResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	reader := csv.NewReader(bytes.NewReader(raw.Content))
	reader.FieldsPerRecord = -1

	result := &driven.ExtractResult{}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			result.SkippedBlocks++
			continue
		}
		if err != nil {
			return nil, err
		}

		row, _ := reader.FieldPos(0)
		for _, field := range record {
			if strings.TrimSpace(field) == "" {
				continue
			}
			if !utf8.ValidString(field) {
				result.SkippedBlocks++
				continue
			}
			result.Blocks = append(result.Blocks, domain.TextBlock{
				Text:   field,
				Source: domain.SourceRecord{File: raw.URI, Line: row},
			})
		}
	}
	return result, nil
}
