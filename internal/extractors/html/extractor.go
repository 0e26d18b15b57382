package html

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/custodia-labs/mailsift-cli/internal/core/domain"
	"github.com/custodia-labs/mailsift-cli/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Extractor handles per-message HTML export files. It emits one block
// per text node and per attribute value, in document order, so markup
// never joins two addresses into a single candidate. Attribute values
// are included because exports routinely carry addresses in mailto:
// links and data attributes.
type Extractor struct{}

// New creates a new HTML extractor.
func New() *Extractor {
	return &Extractor{}
}

// SupportedMIMETypes returns the MIME types this extractor handles.
func (e *Extractor) SupportedMIMETypes() []string {
	return []string{"text/html", "application/xhtml+xml"}
}

// Priority returns the selection priority.
func (e *Extractor) Priority() int {
	return 50 // Format-specific extractor
}

// Extract parses the document and emits its text and attribute blocks.
// Script, style and noscript subtrees are dropped. HTML blocks have no
// meaningful line numbers, so provenance is the file alone.
func (e *Extractor) Extract(_ context.Context, raw *domain.RawDocument) (*driven.ExtractResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}
	return ExtractBlocks(raw.Content, raw.URI)
}

// ExtractBlocks is the parsing core, shared with the EML extractor for
// text/html message parts.
func ExtractBlocks(content []byte, file string) (*driven.ExtractResult, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", domain.ErrMalformedSource)
	}

	doc.Find("script, style, noscript").Remove()

	result := &driven.ExtractResult{}
	add := func(text string) {
		trimmed := strings.TrimSpace(text)
		if trimmed == "" {
			return
		}
		if !utf8.ValidString(trimmed) {
			result.SkippedBlocks++
			return
		}
		result.Blocks = append(result.Blocks, domain.TextBlock{
			Text:   trimmed,
			Source: domain.SourceRecord{File: file},
		})
	}

	doc.Find("*").Each(func(_ int, s *goquery.Selection) {
		for _, node := range s.Nodes {
			for _, attr := range node.Attr {
				add(attr.Val)
			}
		}

		inPre := s.ParentsFiltered("pre").Length() > 0
		if s.Is("pre") && !inPre {
			// Preformatted content is emitted joined, the way mail
			// exports wrap a whole message body in one pre element.
			// Its text nodes are covered here, not individually.
			add(s.Text())
			return
		}
		if inPre {
			return
		}

		s.Contents().Each(func(_ int, c *goquery.Selection) {
			if goquery.NodeName(c) == "#text" {
				add(c.Text())
			}
		})
	})

	return result, nil
}
