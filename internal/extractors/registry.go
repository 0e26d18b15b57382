package extractors

import (
	"context"
	"fmt"
	"mime"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/mailsift-cli/internal/core/domain"
	"github.com/custodia-labs/mailsift-cli/internal/core/ports/driven"
)

// Ensure Registry implements the interface.
var _ driven.ExtractorRegistry = (*Registry)(nil)

// Registry dispatches raw documents to the highest-priority extractor
// claiming the document's MIME type. Registration order breaks ties.
type Registry struct {
	mu         sync.RWMutex
	extractors []driven.Extractor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds an extractor to the registry.
func (r *Registry) Register(extractor driven.Extractor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.extractors = append(r.extractors, extractor)
}

// Extract processes a raw document using the best matching extractor.
func (r *Registry) Extract(ctx context.Context, raw *domain.RawDocument) (*driven.ExtractResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	mimeType := normaliseMIMEType(raw.MIMEType)

	extractor := r.match(mimeType)
	if extractor == nil {
		return nil, fmt.Errorf("no extractor for %q: %w", mimeType, domain.ErrUnsupportedType)
	}
	return extractor.Extract(ctx, raw)
}

// match returns the highest-priority extractor supporting the MIME type.
func (r *Registry) match(mimeType string) driven.Extractor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var best driven.Extractor
	for _, extractor := range r.extractors {
		if !supports(extractor, mimeType) {
			continue
		}
		if best == nil || extractor.Priority() > best.Priority() {
			best = extractor
		}
	}
	return best
}

// SupportedMIMETypes returns all MIME types that can be extracted.
func (r *Registry) SupportedMIMETypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, extractor := range r.extractors {
		for _, mimeType := range extractor.SupportedMIMETypes() {
			seen[mimeType] = struct{}{}
		}
	}

	types := make([]string, 0, len(seen))
	for mimeType := range seen {
		types = append(types, mimeType)
	}
	sort.Strings(types)
	return types
}

func supports(extractor driven.Extractor, mimeType string) bool {
	for _, supported := range extractor.SupportedMIMETypes() {
		if supported == mimeType {
			return true
		}
	}
	return false
}

// normaliseMIMEType strips parameters such as "; charset=utf-8" and
// lower-cases the media type.
func normaliseMIMEType(mimeType string) string {
	parsed, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(mimeType))
	}
	return parsed
}
