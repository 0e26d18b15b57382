package driven

// TLDProvider supplies public-suffix knowledge to the domain validator.
// The validator treats TLD data as an injected, swappable reference so the
// underlying source (the public suffix list, a static table, a test fake)
// can change without touching validation logic.
type TLDProvider interface {
	// PublicSuffix returns the effective public suffix of a domain
	// (e.g., "co.uk" for "example.co.uk") and whether that suffix is
	// present in the provider's reference data. Unknown suffixes are
	// still returned so the caller can score them.
	PublicSuffix(domain string) (suffix string, known bool)
}
