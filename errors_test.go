package dnscache

import (
	"errors"
	"fmt"
	"testing"
)

func TestSentinelErrorsMatchThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("%w: CNAME rrset at www.example.org.", ErrMalformedCachedData)
	if !errors.Is(wrapped, ErrMalformedCachedData) {
		t.Fatalf("wrapped malformed-data error does not match its sentinel")
	}
	if errors.Is(wrapped, ErrExpired) {
		t.Fatalf("malformed-data error matched the expiry sentinel")
	}
}

func TestInvariantViolationMatchesSentinel(t *testing.T) {
	err := &InvariantViolationError{Msg: "zero rrsets"}
	if !errors.Is(err, ErrInvariantViolation) {
		t.Fatalf("InvariantViolationError does not match ErrInvariantViolation")
	}
	if !errors.Is(ErrStaleReference, ErrStaleReference) {
		t.Fatalf("ErrStaleReference does not match itself")
	}
}
