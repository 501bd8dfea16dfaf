package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError_Is(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		target error
		want   bool
	}{
		{"validation matches sentinel", NewValidationError("bad range %d", 1), ErrValidation, true},
		{"wrapped integrity matches sentinel", fmt.Errorf("run: %w", NewIntegrityError("no batches")), ErrIntegrity, true},
		{"configuration does not match validation", NewConfigurationError("missing"), ErrValidation, false},
		{"plain error does not match", errors.New("boom"), ErrCancelled, false},
		{"cancelled matches sentinel", NewCancelledError("day %s", "2025-01-02"), ErrCancelled, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errors.Is(tt.err, tt.target))
		})
	}
}

func TestDomainError_Error(t *testing.T) {
	err := NewValidationError("batches_per_day must be >= %d", 1)
	assert.Equal(t, "batches_per_day must be >= 1", err.Error())
	assert.Equal(t, CodeValidation, err.Code)

	var domainErr *DomainError
	assert.True(t, errors.As(fmt.Errorf("wrap: %w", err), &domainErr))
	assert.Equal(t, CodeValidation, domainErr.Code)
}
