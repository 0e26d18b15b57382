package services

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/custodia-labs/mailsift-cli/internal/core/domain"
	"github.com/custodia-labs/mailsift-cli/internal/core/ports/driven"
)

// maxLabelLength is the DNS limit for a single domain label.
const maxLabelLength = 63

// consecutiveSpecials matches runs of special characters in a local part,
// a common typo signature (e.g. "jane..doe", "a__b").
var consecutiveSpecials = regexp.MustCompile(`[._%+-]{2,}`)

// Validator checks candidate addresses against domain structure rules and
// scores how likely an accepted address is to be malformed anyway.
// TLD knowledge is injected so the reference data can be swapped without
// touching validation logic.
type Validator struct {
	tld driven.TLDProvider
}

// NewValidator creates a validator backed by the given TLD provider.
func NewValidator(tld driven.TLDProvider) *Validator {
	return &Validator{tld: tld}
}

// Validate turns a candidate into a validated address or rejects it.
// Rejections wrap domain.ErrInvalidCandidate; the caller drops and counts
// them, they are never fatal.
func (v *Validator) Validate(candidate domain.Candidate) (*domain.Address, error) {
	raw := candidate.Raw

	// 1. STRUCTURAL CHECK
	// Exactly one @, non-empty parts, at least two domain labels.
	at := strings.IndexByte(raw, '@')
	if at < 0 || strings.IndexByte(raw[at+1:], '@') >= 0 {
		return nil, fmt.Errorf("%w: %q must contain exactly one @", domain.ErrInvalidCandidate, raw)
	}
	local, host := raw[:at], strings.ToLower(raw[at+1:])
	if local == "" {
		return nil, fmt.Errorf("%w: %q has an empty local part", domain.ErrInvalidCandidate, raw)
	}
	labels := strings.Split(host, ".")
	if len(labels) < 2 {
		return nil, fmt.Errorf("%w: %q needs at least two domain labels", domain.ErrInvalidCandidate, raw)
	}

	// 2. LABEL CHECK
	for _, label := range labels {
		if err := checkLabel(label); err != nil {
			return nil, fmt.Errorf("%w: %q: %v", domain.ErrInvalidCandidate, raw, err)
		}
	}
	if tld := labels[len(labels)-1]; len(tld) < 2 {
		return nil, fmt.Errorf("%w: %q has a single-character TLD", domain.ErrInvalidCandidate, raw)
	}

	// 3. TLD PLAUSIBILITY + SCORE
	// Unknown suffixes are accepted with an elevated malformed score
	// rather than rejected.
	score, reasons := v.scoreAddress(local, host, labels)

	return &domain.Address{
		Local:          local,
		Domain:         host,
		Normalized:     strings.ToLower(local) + "@" + host,
		MalformedScore: score,
		ScoreReasons:   reasons,
		FirstSeen:      time.Now(),
	}, nil
}

// checkLabel enforces the per-label rules: 1-63 characters, letters,
// digits and hyphens only, no leading or trailing hyphen.
func checkLabel(label string) error {
	if label == "" {
		return fmt.Errorf("empty label")
	}
	if len(label) > maxLabelLength {
		return fmt.Errorf("label %q exceeds %d characters", label, maxLabelLength)
	}
	if label[0] == '-' || label[len(label)-1] == '-' {
		return fmt.Errorf("label %q has an edge hyphen", label)
	}
	for i := 0; i < len(label); i++ {
		c := label[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-':
		default:
			return fmt.Errorf("label %q contains %q", label, c)
		}
	}
	return nil
}

// scoreAddress computes the malformed-probability score in [0, 1].
// Each factor is deterministic and only ever raises the score, so more
// unusual addresses always score at least as high as plainer ones.
func (v *Validator) scoreAddress(local, host string, labels []string) (float64, []string) {
	var score float64
	var reasons []string

	suffix, known := v.tld.PublicSuffix(host)
	switch {
	case !known:
		score += 0.4
		reasons = append(reasons, "unknown public suffix")
	case len(suffix) > 6:
		score += 0.2
		reasons = append(reasons, "unusually long public suffix")
	}

	if len(labels) > 4 {
		score += 0.1
		reasons = append(reasons, "more than four domain labels")
	}

	if len(local) > 64 {
		score += 0.1
		reasons = append(reasons, "local part longer than 64 characters")
	}

	if consecutiveSpecials.MatchString(local) {
		score += 0.1
		reasons = append(reasons, "consecutive special characters")
	}

	if score > 1.0 {
		score = 1.0
	}
	return score, reasons
}
