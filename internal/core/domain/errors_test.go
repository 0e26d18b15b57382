package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestErrors_Existence tests that all error variables exist and are not nil
func TestErrors_Existence(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrNotFound", ErrNotFound},
		{"ErrAlreadyExists", ErrAlreadyExists},
		{"ErrInvalidInput", ErrInvalidInput},
		{"ErrUnsupportedType", ErrUnsupportedType},
		{"ErrScanInProgress", ErrScanInProgress},
		{"ErrInvalidCandidate", ErrInvalidCandidate},
		{"ErrMalformedSource", ErrMalformedSource},
		{"ErrInvalidConfig", ErrInvalidConfig},
		{"ErrConnectorValidation", ErrConnectorValidation},
		{"ErrConnectorClosed", ErrConnectorClosed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

// TestErrInvalidCandidate tests ErrInvalidCandidate error
func TestErrInvalidCandidate(t *testing.T) {
	assert.Equal(t, "invalid candidate", ErrInvalidCandidate.Error())
	assert.True(t, errors.Is(ErrInvalidCandidate, ErrInvalidCandidate))
	assert.False(t, errors.Is(ErrInvalidCandidate, ErrMalformedSource))
}

// TestErrInvalidConfig tests ErrInvalidConfig error
func TestErrInvalidConfig(t *testing.T) {
	assert.Equal(t, "invalid configuration", ErrInvalidConfig.Error())
	assert.True(t, errors.Is(ErrInvalidConfig, ErrInvalidConfig))
	assert.False(t, errors.Is(ErrInvalidConfig, ErrInvalidInput))
}

// TestErrMalformedSource_Wrapped tests wrapping behaviour
func TestErrMalformedSource_Wrapped(t *testing.T) {
	wrapped := errors.Join(ErrMalformedSource, errors.New("row 7"))
	assert.True(t, errors.Is(wrapped, ErrMalformedSource))
}
