package services

import (
	"regexp"

	"github.com/custodia-labs/mailsift-cli/internal/core/domain"
)

// addressPattern is the practical address grammar: a local part of
// letters, digits and the specials ._%+-, one @, dot-separated domain
// labels, and an alphabetic TLD of at least two characters. Because the
// match must end in the TLD letters, trailing punctuation such as
// `,`, `)` or a sentence-final `.` can never be captured; a trailing
// dot survives only as part of a longer valid label (example.co.uk).
const addressPattern = `[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`

// Recognizer scans text blocks for candidate email addresses.
// It is stateless: scanning the same block twice yields the same
// candidates, and no state is carried between blocks.
type Recognizer struct {
	pattern *regexp.Regexp
}

// NewRecognizer creates a recogniser for the practical address grammar.
func NewRecognizer() *Recognizer {
	return &Recognizer{
		pattern: regexp.MustCompile(addressPattern),
	}
}

// Scan returns the candidates found in a block, leftmost to rightmost.
// Matches are non-overlapping; at each position the longest match wins.
func (r *Recognizer) Scan(block domain.TextBlock) []domain.Candidate {
	locs := r.pattern.FindAllStringIndex(block.Text, -1)
	if len(locs) == 0 {
		return nil
	}

	candidates := make([]domain.Candidate, 0, len(locs))
	for _, loc := range locs {
		candidates = append(candidates, domain.Candidate{
			Raw:    block.Text[loc[0]:loc[1]],
			Offset: loc[0],
			Source: block.Source,
		})
	}
	return candidates
}
