package publicsuffix

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTLDProvider_PublicSuffix(t *testing.T) {
	p := NewTLDProvider()

	tests := []struct {
		name       string
		domain     string
		wantSuffix string
		wantKnown  bool
	}{
		{
			name:       "generic TLD",
			domain:     "example.com",
			wantSuffix: "com",
			wantKnown:  true,
		},
		{
			name:       "multi-label ICANN suffix",
			domain:     "mail.example.co.uk",
			wantSuffix: "co.uk",
			wantKnown:  true,
		},
		{
			name:       "private list suffix",
			domain:     "project.github.io",
			wantSuffix: "github.io",
			wantKnown:  true,
		},
		{
			name:       "invented TLD is returned but unknown",
			domain:     "example.zzzinvalid",
			wantSuffix: "zzzinvalid",
			wantKnown:  false,
		},
		{
			name:       "case insensitive",
			domain:     "EXAMPLE.COM",
			wantSuffix: "com",
			wantKnown:  true,
		},
		{
			name:       "trailing dot stripped",
			domain:     "example.com.",
			wantSuffix: "com",
			wantKnown:  true,
		},
		{
			name:       "single label",
			domain:     "localhost",
			wantSuffix: "localhost",
			wantKnown:  false,
		},
		{
			name:       "empty domain",
			domain:     "",
			wantSuffix: "",
			wantKnown:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			suffix, known := p.PublicSuffix(tt.domain)
			assert.Equal(t, tt.wantSuffix, suffix)
			assert.Equal(t, tt.wantKnown, known)
		})
	}
}
