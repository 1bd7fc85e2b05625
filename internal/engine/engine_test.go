package engine

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestOutcomeFromError(t *testing.T) {
	live := context.Background()
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	tests := []struct {
		name   string
		parent context.Context
		err    error
		want   WaitOutcome
	}{
		{"nil error", live, nil, WaitReady},
		{"own deadline", live, context.DeadlineExceeded, WaitTimedOut},
		{"wrapped deadline", live, fmt.Errorf("wait: %w", context.DeadlineExceeded), WaitTimedOut},
		{"parent cancelled", cancelled, context.Canceled, WaitNavigationFailed},
		{"other failure", live, errors.New("target closed"), WaitNavigationFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := OutcomeFromError(tt.parent, tt.err); got != tt.want {
				t.Errorf("OutcomeFromError = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestEngineError_IsByCode(t *testing.T) {
	base := errors.New("net::ERR_NAME_NOT_RESOLVED")
	err := fmt.Errorf("page 3: %w", NewEngineError(ErrCodeNavigation, "navigate failed", base))

	if !errors.Is(err, &EngineError{Code: ErrCodeNavigation}) {
		t.Error("expected match on navigation code")
	}
	if errors.Is(err, &EngineError{Code: ErrCodeTimeout}) {
		t.Error("unexpected match on timeout code")
	}
	if !errors.Is(err, base) {
		t.Error("expected underlying error to be reachable")
	}
	if !IsCode(err, ErrCodeNavigation) {
		t.Error("IsCode should find the navigation code")
	}
}

func TestEngineError_WithRetry(t *testing.T) {
	err := NewEngineError(ErrCodeNetworkError, "fetch failed", nil).WithRetry().WithDetail("status", 503)
	if !err.Temporary() {
		t.Error("expected error to be temporary")
	}
	if err.Details["status"] != 503 {
		t.Errorf("expected status detail, got %v", err.Details["status"])
	}
	if err.Error() != "NETWORK_ERROR: fetch failed" {
		t.Errorf("unexpected message: %s", err.Error())
	}
}
