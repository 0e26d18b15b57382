package domain

// TextBlock is a unit of extracted text handed to the recogniser.
// Extractors produce one block per CSV field, HTML document, or message
// part; the core is agnostic to the original container format.
type TextBlock struct {
	// Text is the extracted content.
	Text string

	// Source is the provenance of the block.
	Source SourceRecord
}
