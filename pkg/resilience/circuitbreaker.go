package resilience

import (
	"context"
	"time"

	"github.com/oakbridge/mqconnect/pkg/concurrency"
	"github.com/oakbridge/mqconnect/pkg/errors"
	"github.com/oakbridge/mqconnect/pkg/logger"
)

const CodeCircuitOpen = "CIRCUIT_OPEN"

// ErrCircuitOpen is returned by Execute while the circuit rejects calls.
var ErrCircuitOpen = errors.New(CodeCircuitOpen, "circuit breaker is open", nil)

// CircuitBreaker fails fast once an operation has failed repeatedly, instead
// of letting every caller ride out the same timeout. Closed counts failures;
// Open rejects everything until Timeout passes; HalfOpen lets trial calls
// through and closes again after SuccessThreshold consecutive successes.
type CircuitBreaker struct {
	cfg CircuitBreakerConfig

	mu          *concurrency.SmartMutex
	state       State
	failures    int64
	successes   int64
	lastFailure time.Time
}

// NewCircuitBreaker creates a breaker in the Closed state. Zero-valued
// thresholds fall back to DefaultCircuitBreakerConfig's values.
func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	def := DefaultCircuitBreakerConfig(cfg.Name)
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = def.FailureThreshold
	}
	if cfg.SuccessThreshold == 0 {
		cfg.SuccessThreshold = def.SuccessThreshold
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = def.Timeout
	}

	return &CircuitBreaker{
		cfg:   cfg,
		mu:    concurrency.NewSmartMutex(concurrency.MutexConfig{Name: "circuitbreaker." + cfg.Name}),
		state: StateClosed,
	}
}

// Execute runs fn under the breaker: ErrCircuitOpen while open, otherwise
// fn's own result, recorded into the state machine.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn Executor) error {
	if !cb.allow() {
		return ErrCircuitOpen
	}

	err := fn(ctx)
	cb.record(err)
	return err
}

// State returns the breaker's current state.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Reset forces the breaker back to Closed with cleared counters.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.transition(StateClosed)
	cb.failures = 0
	cb.successes = 0
}

func (cb *CircuitBreaker) allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed, StateHalfOpen:
		return true
	case StateOpen:
		if time.Since(cb.lastFailure) > cb.cfg.Timeout {
			cb.transition(StateHalfOpen)
			cb.successes = 0
			logger.L().Info("circuit breaker half-open", "name", cb.cfg.Name)
			return true
		}
		return false
	}
	return false
}

func (cb *CircuitBreaker) record(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err == nil {
		switch cb.state {
		case StateClosed:
			cb.failures = 0
		case StateHalfOpen:
			cb.successes++
			if cb.successes >= cb.cfg.SuccessThreshold {
				cb.transition(StateClosed)
				cb.failures = 0
				logger.L().Info("circuit breaker closed", "name", cb.cfg.Name)
			}
		}
		return
	}

	cb.lastFailure = time.Now()
	switch cb.state {
	case StateClosed:
		cb.failures++
		if cb.failures >= cb.cfg.FailureThreshold {
			cb.transition(StateOpen)
			logger.L().Warn("circuit breaker opened", "name", cb.cfg.Name, "failures", cb.failures)
		}
	case StateHalfOpen:
		cb.transition(StateOpen)
		logger.L().Warn("circuit breaker reopened", "name", cb.cfg.Name)
	}
}

// transition changes state and fires OnStateChange. Caller holds cb.mu.
func (cb *CircuitBreaker) transition(to State) {
	from := cb.state
	if from == to {
		return
	}
	cb.state = to
	if cb.cfg.OnStateChange != nil {
		cb.cfg.OnStateChange(cb.cfg.Name, from, to)
	}
}
