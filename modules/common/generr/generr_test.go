package generr

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyCredentialMarkers(t *testing.T) {
	cases := []string{
		"API key not valid. Please pass a valid API key.",
		"rpc error: code = PermissionDenied desc = Permission denied on resource",
		"the api key is invalid",
		"Requested entity was not found.",
	}
	for _, msg := range cases {
		err := Classify(0, errors.New(msg))
		var ce *CredentialError
		require.True(t, errors.As(err, &ce), "expected credential error for %q", msg)
		assert.True(t, IsCredential(err))
	}
}

func TestClassifyContentFailure(t *testing.T) {
	err := Classify(3, errors.New("response blocked by safety settings"))

	var ce *ContentGenerationError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, 3, ce.Slot)
	assert.False(t, IsCredential(err))
}

func TestClassifyTimeoutIsPerItem(t *testing.T) {
	err := Classify(1, fmt.Errorf("generate image: %w", context.DeadlineExceeded))

	var ce *ContentGenerationError
	require.True(t, errors.As(err, &ce))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClassifyNil(t *testing.T) {
	assert.NoError(t, Classify(0, nil))
}

func TestClassifyKeepsExistingCredentialError(t *testing.T) {
	orig := &CredentialError{Err: errors.New("api key not valid")}
	wrapped := fmt.Errorf("slot 2: %w", orig)

	err := Classify(2, wrapped)
	assert.True(t, IsCredential(err))
}

func TestValidationErrorMessage(t *testing.T) {
	err := &ValidationError{Field: "numConcepts", Message: "must be between 1 and 10"}
	assert.Equal(t, "invalid numConcepts: must be between 1 and 10", err.Error())
}
