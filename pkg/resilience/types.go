package resilience

import (
	"context"
	"time"
)

// Executor is the operation protected by a CircuitBreaker or retried by Retry.
type Executor func(ctx context.Context) error

// State is a CircuitBreaker state.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreakerConfig configures a CircuitBreaker.
type CircuitBreakerConfig struct {
	// Name identifies the circuit breaker in logs and metrics.
	Name string

	// FailureThreshold is the number of consecutive failures (in Closed state)
	// that trips the circuit to Open.
	FailureThreshold int64

	// SuccessThreshold is the number of consecutive successes (in Half-Open
	// state) required to close the circuit again.
	SuccessThreshold int64

	// Timeout is how long the circuit stays Open before allowing a trial
	// request through (transition to Half-Open).
	Timeout time.Duration

	// OnStateChange is invoked whenever the circuit transitions state.
	OnStateChange func(name string, from, to State)
}

// DefaultCircuitBreakerConfig returns sane defaults for the named breaker.
func DefaultCircuitBreakerConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:             name,
		FailureThreshold: 5,
		SuccessThreshold: 2,
		Timeout:          30 * time.Second,
	}
}

// RetryConfig configures Retry's exponential backoff.
type RetryConfig struct {
	// MaxAttempts is the total number of calls to the operation, including
	// the first one. MaxAttempts <= 1 means no retry.
	MaxAttempts int

	// InitialBackoff is the delay before the second attempt.
	InitialBackoff time.Duration

	// MaxBackoff caps the delay between attempts.
	MaxBackoff time.Duration

	// Multiplier grows the backoff after each failed attempt.
	Multiplier float64
}

// DefaultRetryConfig returns sane defaults for transient-failure retries.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     5 * time.Second,
		Multiplier:     2.0,
	}
}
