package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasCode(t *testing.T) {
	wrapped := fmt.Errorf("failed to load run: %w", ErrNotFound)

	assert.True(t, HasCode(ErrNotFound, CodeNotFound))
	assert.True(t, HasCode(wrapped, CodeNotFound))
	assert.False(t, HasCode(wrapped, CodeInvalidState))
	assert.False(t, HasCode(errors.New("plain"), CodeNotFound))
	assert.False(t, HasCode(nil, CodeNotFound))
}

func TestDomainError_Error(t *testing.T) {
	err := NewDomainError(CodeInvalidInput, "limit must be positive")

	assert.Equal(t, "limit must be positive", err.Error())
	assert.Equal(t, CodeInvalidInput, err.Code)
}
