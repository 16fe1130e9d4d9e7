package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "boom", New(CodeInternal, "boom").Error())
	assert.Equal(t, string(CodeInternal), New(CodeInternal, "").Error())
}

func TestHasCode(t *testing.T) {
	err := New(CodeNotFound, "missing")

	assert.True(t, HasCode(err, CodeNotFound))
	assert.False(t, HasCode(err, CodeConflict))
	assert.False(t, HasCode(errors.New("plain"), CodeNotFound))
	assert.False(t, HasCode(nil, CodeNotFound))
}

func TestHasCodeThroughWrapping(t *testing.T) {
	inner := New(CodeUnavailable, "registry down")
	outer := fmt.Errorf("resolving issuer: %w", inner)

	assert.True(t, HasCode(outer, CodeUnavailable))
}

func TestWrapPreservesExistingCode(t *testing.T) {
	inner := New(CodeNonceMismatch, "nonce does not match")
	wrapped := Wrap(inner, CodeInternal, "consume response")

	assert.True(t, HasCode(wrapped, CodeNonceMismatch),
		"wrapping must not mask the original domain code")
	assert.Equal(t, "consume response", wrapped.Error())
	assert.ErrorIs(t, errors.Unwrap(wrapped), inner)
}

func TestWrapPlainError(t *testing.T) {
	cause := errors.New("connection refused")
	wrapped := Wrap(cause, CodeUnavailable, "status endpoint")

	require.True(t, HasCode(wrapped, CodeUnavailable))
	assert.ErrorIs(t, wrapped, cause)
}

func TestIsMatchesByCode(t *testing.T) {
	a := New(CodeReplayDetected, "first")
	b := New(CodeReplayDetected, "second")

	assert.ErrorIs(t, a, b)
	assert.NotErrorIs(t, a, New(CodeConflict, ""))
}
