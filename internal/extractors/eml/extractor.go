package eml

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/mailsift-cli/internal/core/domain"
	"github.com/custodia-labs/mailsift-cli/internal/core/ports/driven"
	htmlext "github.com/custodia-labs/mailsift-cli/internal/extractors/html"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// addressHeaders are the headers harvested for candidates, in emission
// order.
var addressHeaders = []string{"From", "To", "Cc", "Bcc", "Reply-To"}

// Extractor handles exported .eml messages. Address-bearing headers and
// the message body each become text blocks; multipart messages prefer
// their plain-text parts over the HTML alternative so the same body is
// not scanned twice.
type Extractor struct{}

// New creates a new EML extractor.
func New() *Extractor {
	return &Extractor{}
}

// SupportedMIMETypes returns the MIME types this extractor handles.
func (e *Extractor) SupportedMIMETypes() []string {
	return []string{"message/rfc822"}
}

// Priority returns the selection priority.
func (e *Extractor) Priority() int {
	return 50 // Format-specific extractor
}

// Extract parses the message and emits header and body blocks.
func (e *Extractor) Extract(_ context.Context, raw *domain.RawDocument) (*driven.ExtractResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	msg, err := mail.ReadMessage(bytes.NewReader(raw.Content))
	if err != nil {
		return nil, fmt.Errorf("parse message: %w", domain.ErrMalformedSource)
	}

	result := &driven.ExtractResult{}
	for _, header := range addressHeaders {
		if value := msg.Header.Get(header); value != "" {
			addText(result, decodeHeader(value), raw.URI)
		}
	}

	collectBody(result, msg, raw.URI)
	return result, nil
}

// addText appends one block, dropping empty and undecodable text.
func addText(result *driven.ExtractResult, text, file string) {
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

// addHTML runs an HTML body part through the HTML extractor.
func addHTML(result *driven.ExtractResult, content []byte, file string) {
	parsed, err := htmlext.ExtractBlocks(content, file)
	if err != nil {
		result.SkippedBlocks++
		return
	}
	result.Blocks = append(result.Blocks, parsed.Blocks...)
	result.SkippedBlocks += parsed.SkippedBlocks
}

// decodeHeader decodes RFC 2047 encoded headers.
func decodeHeader(header string) string {
	dec := new(mime.WordDecoder)
	decoded, err := dec.DecodeHeader(header)
	if err != nil {
		return header // Keep the original if decoding fails
	}
	return decoded
}

// collectBody emits the message body's blocks.
func collectBody(result *driven.ExtractResult, msg *mail.Message, file string) {
	contentType := msg.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "text/plain"
	}

	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		// Unparseable content type: treat the body as plain text.
		if body, readErr := io.ReadAll(msg.Body); readErr == nil {
			addText(result, string(body), file)
		}
		return
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		collectMultipart(result, msg.Body, params["boundary"], file)
		return
	}

	body, err := io.ReadAll(msg.Body)
	if err != nil {
		result.SkippedBlocks++
		return
	}
	body = decodeTransferEncoding(body, msg.Header.Get("Content-Transfer-Encoding"))

	if mediaType == "text/html" {
		addHTML(result, body, file)
		return
	}
	addText(result, string(body), file)
}

// collectMultipart walks the parts, preferring plain text over the HTML
// alternative. Nested multiparts recurse; attachments are ignored.
func collectMultipart(result *driven.ExtractResult, r io.Reader, boundary, file string) {
	if boundary == "" {
		return
	}

	mr := multipart.NewReader(r, boundary)
	var textParts []string
	var htmlParts [][]byte

	for {
		part, err := mr.NextPart()
		if err != nil {
			break
		}

		mediaType, params, parseErr := mime.ParseMediaType(part.Header.Get("Content-Type"))
		if parseErr != nil {
			mediaType = "application/octet-stream"
		}

		content, readErr := io.ReadAll(part)
		part.Close()
		if readErr != nil {
			result.SkippedBlocks++
			continue
		}
		content = decodeTransferEncoding(content, part.Header.Get("Content-Transfer-Encoding"))

		switch {
		case mediaType == "text/plain":
			textParts = append(textParts, string(content))
		case mediaType == "text/html":
			htmlParts = append(htmlParts, content)
		case strings.HasPrefix(mediaType, "multipart/"):
			collectMultipart(result, bytes.NewReader(content), params["boundary"], file)
		}
	}

	if len(textParts) > 0 {
		for _, text := range textParts {
			addText(result, text, file)
		}
		return
	}
	for _, content := range htmlParts {
		addHTML(result, content, file)
	}
}

// decodeTransferEncoding reverses base64 bodies. Quoted-printable is
// already decoded by the multipart reader; anything else passes through
// unchanged, as does base64 that fails to decode.
func decodeTransferEncoding(content []byte, encoding string) []byte {
	if !strings.EqualFold(strings.TrimSpace(encoding), "base64") {
		return content
	}
	compact := strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' || r == ' ' || r == '\t' {
			return -1
		}
		return r
	}, string(content))
	decoded, err := base64.StdEncoding.DecodeString(compact)
	if err != nil {
		return content
	}
	return decoded
}
