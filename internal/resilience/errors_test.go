package resilience

import (
	"errors"
	"fmt"
	"net"
	"syscall"
	"testing"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "dial timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

var _ net.Error = timeoutErr{}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"explicit", NewTransientError(errors.New("overloaded"), 503), true},
		{"wrapped explicit", fmt.Errorf("sap: find business partner: %w", NewTransientError(errors.New("x"), 429)), true},
		{"net timeout", fmt.Errorf("send: %w", timeoutErr{}), true},
		{"connection reset", fmt.Errorf("write tcp: %w", syscall.ECONNRESET), true},
		{"connection refused", fmt.Errorf("dial: %w", syscall.ECONNREFUSED), true},
		{"status text", errors.New("resend: unexpected status 503: unavailable"), true},
		{"salesforce limit", errors.New("sf: query: REQUEST_LIMIT_EXCEEDED: TotalRequests Limit exceeded"), true},
		{"salesforce lock", errors.New("sf: update lead: UNABLE_TO_LOCK_ROW"), true},
		{"bad request", errors.New("resend: unexpected status 422: invalid from"), false},
		{"plain", errors.New("invalid input"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTransient(tt.err); got != tt.want {
				t.Errorf("IsTransient(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestFromStatus(t *testing.T) {
	base := errors.New("boom")
	if FromStatus(nil, 503) != nil {
		t.Error("nil error should stay nil")
	}
	if IsTransient(FromStatus(base, 400)) {
		t.Error("400 should not be transient")
	}
	err := FromStatus(base, 503)
	var te *TransientError
	if !errors.As(err, &te) || te.StatusCode != 503 {
		t.Errorf("expected TransientError with 503, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Error("expected wrapped error to unwrap to base")
	}
}

func TestIsTransientHTTPStatus(t *testing.T) {
	for _, code := range []int{408, 429, 500, 502, 503, 504} {
		if !IsTransientHTTPStatus(code) {
			t.Errorf("%d should be transient", code)
		}
	}
	for _, code := range []int{200, 201, 400, 401, 403, 404, 422} {
		if IsTransientHTTPStatus(code) {
			t.Errorf("%d should not be transient", code)
		}
	}
}

func TestClassifyError(t *testing.T) {
	if got := ClassifyError(NewTransientError(errors.New("x"), 503)); got != "transient" {
		t.Errorf("expected transient, got %s", got)
	}
	if got := ClassifyError(errors.New("x")); got != "permanent" {
		t.Errorf("expected permanent, got %s", got)
	}
}
