package resilience

import (
	"context"
	"time"
)

// Policy combines retries and an optional circuit breaker for one service.
// The breaker sees one outcome per Call, after retries are exhausted.
type Policy struct {
	Service string
	Retry   RetryConfig
	Breaker *CircuitBreaker
}

// Settings are the plain config values a Policy is built from.
type Settings struct {
	MaxAttempts      int
	InitialBackoffMs int
	FailureThreshold int
	ResetTimeoutSecs int
}

// NewPolicy builds a Policy for service. A zero FailureThreshold disables
// the breaker.
func NewPolicy(service string, s Settings) Policy {
	retry := DefaultRetryConfig()
	if s.MaxAttempts > 0 {
		retry.MaxAttempts = s.MaxAttempts
	}
	if s.InitialBackoffMs > 0 {
		retry.InitialBackoff = time.Duration(s.InitialBackoffMs) * time.Millisecond
	}
	p := Policy{Service: service, Retry: retry}
	if s.FailureThreshold > 0 {
		bc := DefaultBreakerConfig()
		bc.FailureThreshold = s.FailureThreshold
		if s.ResetTimeoutSecs > 0 {
			bc.ResetTimeout = time.Duration(s.ResetTimeoutSecs) * time.Second
		}
		p.Breaker = NewCircuitBreaker(service, bc)
	}
	return p
}

// Call runs fn under the policy.
func Call[T any](ctx context.Context, p Policy, operation string, fn func(ctx context.Context) (T, error)) (T, error) {
	cfg := p.Retry
	if cfg.OnRetry == nil {
		cfg.OnRetry = RetryLogger(p.Service, operation)
	}
	retried := func(ctx context.Context) (T, error) {
		return DoVal(ctx, cfg, fn)
	}
	if p.Breaker == nil {
		return retried(ctx)
	}
	return ExecuteVal(ctx, p.Breaker, retried)
}
