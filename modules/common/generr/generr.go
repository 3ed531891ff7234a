// Package generr defines the error taxonomy shared by the generation
// pipeline. Each type carries a different blast radius: credential
// failures abort the whole run, content failures burn a single slot,
// concept failures abort before any slot work, parse failures count as
// per-item, and validation failures reject a request before side effects.
package generr

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// credentialMarkers are the provider message fragments that indicate the
// API key itself is bad, matched case-insensitively.
var credentialMarkers = []string{
	"api key not valid",
	"permission denied",
	"api key is invalid",
	"requested entity was not found",
}

// CredentialError means the API credential was rejected. Fatal to the
// run: no further calls can succeed with the same credential.
type CredentialError struct {
	Err error
}

func (e *CredentialError) Error() string {
	return fmt.Sprintf("credential rejected: %v", e.Err)
}

func (e *CredentialError) Unwrap() error { return e.Err }

// ContentGenerationError means a single generation call failed for a
// non-credential reason (safety block, empty response, timeout). The
// loop records it on the slot and moves on.
type ContentGenerationError struct {
	Slot int
	Err  error
}

func (e *ContentGenerationError) Error() string {
	return fmt.Sprintf("generation failed for slot %d: %v", e.Slot, e.Err)
}

func (e *ContentGenerationError) Unwrap() error { return e.Err }

// ConceptGenerationError means the scene concept call failed or returned
// the wrong number of concepts. Raised before any image work, so the run
// aborts with no slots touched.
type ConceptGenerationError struct {
	Err error
}

func (e *ConceptGenerationError) Error() string {
	return fmt.Sprintf("scene concept generation failed: %v", e.Err)
}

func (e *ConceptGenerationError) Unwrap() error { return e.Err }

// ParseError means a structured model response could not be decoded.
// Same severity as ContentGenerationError. RawHead keeps the first bytes
// of the payload for the logs.
type ParseError struct {
	RawHead string
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("unparseable model response: %v (payload: %.80s)", e.Err, e.RawHead)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ValidationError rejects an invalid run configuration before any side
// effect. Field names the offending input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// IsCredential reports whether err is (or wraps) a credential failure.
func IsCredential(err error) bool {
	var ce *CredentialError
	return errors.As(err, &ce)
}

// Classify wraps a raw provider error into the taxonomy. Credential
// rejections are recognized by message fragments; deadline expiry and
// everything else become per-item content failures for the given slot.
func Classify(slot int, err error) error {
	if err == nil {
		return nil
	}
	if IsCredential(err) {
		return err
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range credentialMarkers {
		if strings.Contains(msg, marker) {
			return &CredentialError{Err: err}
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &ContentGenerationError{Slot: slot, Err: fmt.Errorf("call timed out: %w", err)}
	}
	return &ContentGenerationError{Slot: slot, Err: err}
}
