// Package static provides a TLDProvider backed by a fixed builtin table.
// It exists for offline determinism: no suffix list dependency, suitable
// for tests and air-gapped use. The publicsuffix provider is the complete
// source.
package static

import (
	"strings"

	"github.com/custodia-labs/mailsift-cli/internal/core/ports/driven"
)

// Ensure TLDProvider implements the interface.
var _ driven.TLDProvider = (*TLDProvider)(nil)

// builtinSuffixes covers the generic and country suffixes that dominate
// mail exports, plus the common second-level registrations.
var builtinSuffixes = []string{
	// Generic.
	"com", "net", "org", "edu", "gov", "mil", "int",
	"info", "biz", "name", "pro", "mobi",
	"io", "co", "ai", "app", "dev", "tech", "cloud", "email",
	"online", "store", "site", "xyz", "me", "tv", "cc",
	// Country codes.
	"us", "uk", "ca", "au", "nz", "ie",
	"de", "fr", "es", "it", "nl", "be", "ch", "at",
	"se", "no", "fi", "dk", "pl", "cz", "pt", "gr", "hu", "ro",
	"ru", "ua", "tr", "il", "sa", "ae",
	"za", "eg", "ng", "ke",
	"in", "cn", "jp", "kr", "sg", "hk", "tw", "my", "th", "ph", "id", "vn",
	"br", "mx", "ar", "cl", "pe",
	// Second-level registrations.
	"co.uk", "org.uk", "ac.uk", "gov.uk", "me.uk",
	"co.jp", "ne.jp", "or.jp", "ac.jp",
	"com.au", "net.au", "org.au", "edu.au", "gov.au",
	"co.nz", "net.nz", "org.nz",
	"co.in", "net.in", "org.in",
	"co.za", "org.za",
	"com.br", "net.br", "org.br",
	"com.mx", "com.ar",
	"com.cn", "com.tw", "com.hk", "com.sg", "com.my",
	"co.kr", "com.tr", "com.sa", "com.eg",
}

// TLDProvider answers public-suffix queries from a fixed table.
type TLDProvider struct {
	suffixes map[string]struct{}
}

// NewTLDProvider creates a provider with the builtin suffix table.
func NewTLDProvider() *TLDProvider {
	return NewTLDProviderWithSuffixes(builtinSuffixes...)
}

// NewTLDProviderWithSuffixes creates a provider recognising exactly the
// given suffixes.
func NewTLDProviderWithSuffixes(suffixes ...string) *TLDProvider {
	set := make(map[string]struct{}, len(suffixes))
	for _, s := range suffixes {
		set[strings.ToLower(s)] = struct{}{}
	}
	return &TLDProvider{suffixes: set}
}

// PublicSuffix returns the longest table entry matching the tail of
// domain. Domains with no matching entry report their last label as an
// unknown suffix.
func (p *TLDProvider) PublicSuffix(domain string) (string, bool) {
	domain = strings.ToLower(strings.TrimSuffix(domain, "."))
	if domain == "" {
		return "", false
	}

	labels := strings.Split(domain, ".")
	for i := 0; i < len(labels); i++ {
		tail := strings.Join(labels[i:], ".")
		if _, ok := p.suffixes[tail]; ok {
			return tail, true
		}
	}
	return labels[len(labels)-1], false
}
