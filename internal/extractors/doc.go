// Package extractors provides implementations of the Extractor interface
// for the supported export formats. Each extractor knows how to turn one
// MIME type into text blocks with provenance.
//
// Extractors are registered with the Registry at startup.
package extractors
