package apierr

import (
	"errors"
	"fmt"
	"testing"
)

func TestWithDetail_DoesNotMutateOriginal(t *testing.T) {
	derived := InputInvalid.WithDetail("bodies must not be empty")
	if derived.Detail != "bodies must not be empty" {
		t.Errorf("Detail = %q", derived.Detail)
	}
	if InputInvalid.Detail != "" {
		t.Error("WithDetail mutated the shared taxonomy entry")
	}
}

func TestWithTip_DoesNotMutateOriginal(t *testing.T) {
	derived := AyanamshaRequired.WithTip("set system to sidereal and supply an ayanamsha id")
	if derived.Tip == "" {
		t.Error("expected Tip to be set")
	}
	if AyanamshaRequired.Tip != "" {
		t.Error("WithTip mutated the shared taxonomy entry")
	}
}

func TestWithCause_UnwrapsToCause(t *testing.T) {
	cause := errors.New("boom")
	derived := ComputeWorkerFault.WithCause(cause)
	if !errors.Is(derived, cause) {
		t.Error("expected errors.Is to find the wrapped cause")
	}
}

func TestError_StringPrefersDetail(t *testing.T) {
	withDetail := InputMissingRequired.WithDetail("place is required when utc is omitted")
	if got := withDetail.Error(); got != "INPUT.MISSING_REQUIRED: place is required when utc is omitted" {
		t.Errorf("Error() = %q", got)
	}

	plain := &Error{Code: "X.Y", Title: "fallback title"}
	if got := plain.Error(); got != "X.Y: fallback title" {
		t.Errorf("Error() = %q", got)
	}
}

func TestAs_ExtractsWrappedError(t *testing.T) {
	wrapped := fmt.Errorf("computing positions: %w", ServiceTimeout)
	got, ok := As(wrapped)
	if !ok {
		t.Fatal("expected As to find the wrapped *Error")
	}
	if got.Code != "SERVICE.TIMEOUT" {
		t.Errorf("Code = %q, want SERVICE.TIMEOUT", got.Code)
	}
}

func TestAs_FalseForUnrelatedError(t *testing.T) {
	if _, ok := As(errors.New("unrelated")); ok {
		t.Error("expected As to return false for an unrelated error")
	}
}

func TestFromJPLError_MapsRegisteredSentinel(t *testing.T) {
	sentinel := errors.New("test sentinel: outside ephemeris range")
	RegisterJPLSentinel(sentinel, RangeEphemerisOutside)

	got := FromJPLError(fmt.Errorf("wrapped: %w", sentinel))
	if got.Code != "RANGE.EPHEMERIS_OUTSIDE" {
		t.Errorf("Code = %q, want RANGE.EPHEMERIS_OUTSIDE", got.Code)
	}
}

func TestFromJPLError_FallsBackToWorkerFault(t *testing.T) {
	got := FromJPLError(errors.New("some unmapped failure"))
	if got.Code != "COMPUTE.WORKER_FAULT" {
		t.Errorf("Code = %q, want COMPUTE.WORKER_FAULT", got.Code)
	}
}
