// Package publicsuffix provides a TLDProvider backed by the public
// suffix list compiled into golang.org/x/net/publicsuffix.
package publicsuffix

import (
	"strings"

	psl "golang.org/x/net/publicsuffix"

	"github.com/custodia-labs/mailsift-cli/internal/core/ports/driven"
)

// Ensure TLDProvider implements the interface.
var _ driven.TLDProvider = (*TLDProvider)(nil)

// TLDProvider answers public-suffix queries from the embedded list.
// No network access is involved.
type TLDProvider struct{}

// NewTLDProvider creates a new public suffix list provider.
func NewTLDProvider() *TLDProvider {
	return &TLDProvider{}
}

// PublicSuffix returns the effective public suffix of domain. A suffix
// counts as known when the list carries an ICANN rule for it or a
// multi-label private rule (e.g. "github.io"). A suffix produced only by
// the list's implicit catch-all rule is unknown.
func (p *TLDProvider) PublicSuffix(domain string) (string, bool) {
	domain = strings.ToLower(strings.TrimSuffix(domain, "."))
	if domain == "" {
		return "", false
	}

	suffix, icann := psl.PublicSuffix(domain)
	known := icann || strings.IndexByte(suffix, '.') >= 0
	return suffix, known
}
