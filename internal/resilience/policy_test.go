package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNewPolicy(t *testing.T) {
	p := NewPolicy("salesforce", Settings{MaxAttempts: 5, InitialBackoffMs: 10})
	if p.Breaker != nil {
		t.Error("zero failure threshold should disable the breaker")
	}
	if p.Retry.MaxAttempts != 5 || p.Retry.InitialBackoff != 10*time.Millisecond {
		t.Errorf("unexpected retry config: %+v", p.Retry)
	}

	p = NewPolicy("anthropic", Settings{FailureThreshold: 2, ResetTimeoutSecs: 60})
	if p.Breaker == nil {
		t.Fatal("expected breaker")
	}
	if p.Breaker.cfg.ResetTimeout != time.Minute {
		t.Errorf("expected 1m reset timeout, got %v", p.Breaker.cfg.ResetTimeout)
	}
}

func TestCall_RetriesThenSucceeds(t *testing.T) {
	p := Policy{Service: "sap", Retry: fastRetry(3)}
	var calls int
	got, err := Call(context.Background(), p, "find_business_partner", func(_ context.Context) (string, error) {
		calls++
		if calls < 2 {
			return "", NewTransientError(errors.New("busy"), 503)
		}
		return "ok", nil
	})
	if err != nil || got != "ok" {
		t.Fatalf("unexpected result %q, %v", got, err)
	}
	if calls != 2 {
		t.Errorf("expected 2 calls, got %d", calls)
	}
}

func TestCall_BreakerCountsOncePerCall(t *testing.T) {
	p := Policy{
		Service: "anthropic",
		Retry:   fastRetry(3),
		Breaker: NewCircuitBreaker("anthropic", BreakerConfig{FailureThreshold: 2, ResetTimeout: time.Hour}),
	}
	fail := func(_ context.Context) (int, error) {
		return 0, NewTransientError(errors.New("overloaded"), 529)
	}

	_, _ = Call(context.Background(), p, "classify_ticket", fail)
	if p.Breaker.State() != CircuitClosed {
		t.Fatalf("one exhausted call should not open a threshold-2 breaker")
	}
	_, _ = Call(context.Background(), p, "classify_ticket", fail)
	if p.Breaker.State() != CircuitOpen {
		t.Fatalf("expected open, got %s", p.Breaker.State())
	}

	_, err := Call(context.Background(), p, "classify_ticket", fail)
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("expected ErrCircuitOpen, got %v", err)
	}
}
