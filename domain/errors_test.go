package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomainError_Error(t *testing.T) {
	err := NewConfigError("bands and rows disagree", nil)
	assert.Equal(t, "[CONFIG_ERROR] bands and rows disagree", err.Error())

	cause := errors.New("total rows is not divisible by rows per band")
	err = NewConfigError("invalid banding", cause)
	assert.Equal(t, "[CONFIG_ERROR] invalid banding: total rows is not divisible by rows per band", err.Error())
}

func TestDomainError_Unwrap(t *testing.T) {
	cause := errors.New("underlying")
	err := NewAnalysisError("analysis failed", cause)

	assert.ErrorIs(t, err, cause)
}

func TestAsDomainError(t *testing.T) {
	err := NewInvalidInputError("bad metric", nil)

	de, ok := AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, ErrCodeInvalidInput, de.Code)
	assert.Equal(t, "bad metric", de.Message)

	_, ok = AsDomainError(errors.New("plain"))
	assert.False(t, ok)
}

func TestAsDomainError_Wrapped(t *testing.T) {
	err := fmt.Errorf("running analysis: %w", NewOutputError("disk full", nil))

	de, ok := AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, ErrCodeOutputError, de.Code)
}

func TestHasErrorCode(t *testing.T) {
	err := NewFileNotFoundError("missing.txt", nil)

	assert.True(t, HasErrorCode(err, ErrCodeFileNotFound))
	assert.False(t, HasErrorCode(err, ErrCodeOutputError))
	assert.False(t, HasErrorCode(nil, ErrCodeFileNotFound))
	assert.Contains(t, err.Error(), "missing.txt")
}

func TestNewUnsupportedFormatError(t *testing.T) {
	err := NewUnsupportedFormatError("xml")

	assert.True(t, HasErrorCode(err, ErrCodeUnsupportedFormat))
	assert.Contains(t, err.Error(), "xml")
}
