package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestArtifactCountError(t *testing.T) {
	err := NewArtifactCountError("am_full_analysis", 10, 9)

	expected := `template "am_full_analysis" requires exactly 10 artifacts, got 9`
	if err.Error() != expected {
		t.Errorf("Expected %q, got %q", expected, err.Error())
	}

	if !IsArtifactCountError(err) {
		t.Error("Expected IsArtifactCountError to match")
	}

	wrapped := fmt.Errorf("assembling request: %w", err)
	if !IsArtifactCountError(wrapped) {
		t.Error("Expected IsArtifactCountError to match wrapped error")
	}
}

func TestArtifactCountErrorDistinctFromBackendError(t *testing.T) {
	err := NewArtifactCountError("am_full_analysis", 10, 11)

	if _, ok := IsBackendError(err); ok {
		t.Error("Artifact count violation must not be classified as a backend failure")
	}
}

func TestBackendError(t *testing.T) {
	cause := errors.New("HTTP 429: resource exhausted")
	err := NewBackendError(BackendQuota, cause)

	if !errors.Is(err, cause) {
		t.Error("Expected BackendError to unwrap to its cause")
	}

	be, ok := IsBackendError(fmt.Errorf("generating report: %w", err))
	if !ok {
		t.Fatal("Expected IsBackendError to match wrapped error")
	}
	if be.Kind != BackendQuota {
		t.Errorf("Expected kind %s, got %s", BackendQuota, be.Kind)
	}
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("analysis_type", "must be full or brief", "detailed")

	expected := "validation error for field 'analysis_type': must be full or brief"
	if err.Error() != expected {
		t.Errorf("Expected %q, got %q", expected, err.Error())
	}
}

func TestAPIError(t *testing.T) {
	err := NewAPIError(ErrArtifactCount, "wrong artifact count", "expected 10", "req-1")

	if err.Code != ErrArtifactCount {
		t.Errorf("Expected code %s, got %s", ErrArtifactCount, err.Code)
	}
	if err.Timestamp.IsZero() {
		t.Error("Expected timestamp to be set")
	}
	expected := "ARTIFACT_COUNT_MISMATCH: wrong artifact count"
	if err.Error() != expected {
		t.Errorf("Expected %q, got %q", expected, err.Error())
	}
}
