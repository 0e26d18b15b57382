// Package domain defines the core business entities for Mailsift.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Candidate: An address-shaped substring found in a text block
//   - Address: A validated, normalised email address
//   - SourceRecord: Provenance linking an address to a file/row
//   - TextBlock: A unit of extracted text with provenance
//   - RawDocument: Opaque bytes from a connector
//   - Report: The aggregated outcome of a processing run
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
