package llm

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"proposal-autofill/internal/config"
	"proposal-autofill/internal/logging"
)

// ErrCircuitOpen is returned while a provider's breaker is open
var ErrCircuitOpen = errors.New("circuit breaker open")

const (
	defaultBurst        = 5
	defaultMaxFailures  = 5
	defaultResetTimeout = 30 * time.Second
)

// ProviderLimiter represents rate limiting for a single provider
type ProviderLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
	requests int64
	failures int64
	mu       sync.Mutex
}

// CircuitBreaker represents a circuit breaker for a provider
type CircuitBreaker struct {
	maxFailures  int
	resetTimeout time.Duration
	failureCount int
	lastFailTime time.Time
	state        CircuitState
}

// CircuitState represents the state of a circuit breaker
type CircuitState int

const (
	CircuitClosed CircuitState = iota
	CircuitOpen
	CircuitHalfOpen
)

// String returns string representation of CircuitState
func (cs CircuitState) String() string {
	switch cs {
	case CircuitClosed:
		return "closed"
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// RateLimiter manages rate limiting and circuit breaking per provider
type RateLimiter struct {
	perMinute       int
	maxFailures     int
	resetTimeout    time.Duration
	limiters        map[string]*ProviderLimiter
	circuitBreakers map[string]*CircuitBreaker
	mu              sync.Mutex
	logger          logging.Logger
}

// NewRateLimiter creates a new rate limiter instance
func NewRateLimiter(cfg *config.Config) *RateLimiter {
	return &RateLimiter{
		perMinute:       cfg.LLM.RateLimit,
		maxFailures:     defaultMaxFailures,
		resetTimeout:    defaultResetTimeout,
		limiters:        make(map[string]*ProviderLimiter),
		circuitBreakers: make(map[string]*CircuitBreaker),
		logger:          logging.GetGlobalLogger().WithField("component", "llm_rate_limiter"),
	}
}

// Acquire waits for a request slot for provider. It fails fast while the
// provider's circuit is open.
func (rl *RateLimiter) Acquire(ctx context.Context, provider string) error {
	provider = strings.ToLower(provider)

	rl.mu.Lock()
	if !rl.circuitAllows(provider) {
		rl.mu.Unlock()
		rl.logger.Debug("Request rejected by circuit breaker", map[string]interface{}{"provider": provider})
		return ErrCircuitOpen
	}
	limiter := rl.getProviderLimiter(provider)
	rl.mu.Unlock()

	if limiter.limiter != nil {
		if err := limiter.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	limiter.mu.Lock()
	limiter.requests++
	limiter.lastSeen = time.Now()
	limiter.mu.Unlock()
	return nil
}

// RecordSuccess closes the provider's circuit and resets its failure count
func (rl *RateLimiter) RecordSuccess(provider string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	provider = strings.ToLower(provider)
	if cb, exists := rl.circuitBreakers[provider]; exists {
		if cb.state == CircuitHalfOpen {
			rl.logger.Info("Circuit breaker closed after successful request", map[string]interface{}{"provider": provider})
		}
		cb.state = CircuitClosed
		cb.failureCount = 0
	}
}

// RecordFailure records a failed request for the provider
func (rl *RateLimiter) RecordFailure(provider string, err error) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	provider = strings.ToLower(provider)
	if limiter, exists := rl.limiters[provider]; exists {
		limiter.mu.Lock()
		limiter.failures++
		limiter.mu.Unlock()
	}

	cb := rl.getCircuitBreaker(provider)
	cb.failureCount++
	cb.lastFailTime = time.Now()

	if cb.state == CircuitHalfOpen || (cb.state == CircuitClosed && cb.failureCount >= cb.maxFailures) {
		cb.state = CircuitOpen
		fields := map[string]interface{}{"provider": provider, "failures": cb.failureCount}
		if err != nil {
			fields["error"] = err.Error()
		}
		rl.logger.Warn("Circuit breaker opened due to failures", fields)
	}
}

// State returns the provider's circuit state
func (rl *RateLimiter) State(provider string) CircuitState {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if cb, ok := rl.circuitBreakers[strings.ToLower(provider)]; ok {
		return cb.state
	}
	return CircuitClosed
}

// GetAllStats returns statistics for every provider seen so far
func (rl *RateLimiter) GetAllStats() map[string]map[string]interface{} {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	all := make(map[string]map[string]interface{})
	for name, limiter := range rl.limiters {
		limiter.mu.Lock()
		all[name] = map[string]interface{}{
			"requests":  limiter.requests,
			"failures":  limiter.failures,
			"last_seen": limiter.lastSeen,
		}
		limiter.mu.Unlock()
	}
	for name, cb := range rl.circuitBreakers {
		stats, ok := all[name]
		if !ok {
			stats = make(map[string]interface{})
			all[name] = stats
		}
		stats["circuit_state"] = cb.state.String()
		stats["failure_count"] = cb.failureCount
	}
	return all
}

// getProviderLimiter gets or creates a limiter; callers hold rl.mu
func (rl *RateLimiter) getProviderLimiter(provider string) *ProviderLimiter {
	if limiter, exists := rl.limiters[provider]; exists {
		return limiter
	}

	limiter := &ProviderLimiter{lastSeen: time.Now()}
	if rl.perMinute > 0 {
		// requests per minute converted to requests per second
		limiter.limiter = rate.NewLimiter(rate.Limit(float64(rl.perMinute)/60.0), defaultBurst)
	}
	rl.limiters[provider] = limiter

	rl.logger.Debug("Created provider rate limiter", map[string]interface{}{
		"provider":   provider,
		"per_minute": rl.perMinute,
		"burst":      defaultBurst,
	})
	return limiter
}

// getCircuitBreaker gets or creates a breaker; callers hold rl.mu
func (rl *RateLimiter) getCircuitBreaker(provider string) *CircuitBreaker {
	if cb, exists := rl.circuitBreakers[provider]; exists {
		return cb
	}

	cb := &CircuitBreaker{
		maxFailures:  rl.maxFailures,
		resetTimeout: rl.resetTimeout,
		state:        CircuitClosed,
	}
	rl.circuitBreakers[provider] = cb
	return cb
}

// circuitAllows moves an expired open circuit to half-open; callers hold rl.mu
func (rl *RateLimiter) circuitAllows(provider string) bool {
	cb := rl.getCircuitBreaker(provider)

	switch cb.state {
	case CircuitClosed, CircuitHalfOpen:
		return true
	case CircuitOpen:
		if time.Since(cb.lastFailTime) > cb.resetTimeout {
			cb.state = CircuitHalfOpen
			rl.logger.Info("Circuit breaker transitioned to half-open", map[string]interface{}{"provider": provider})
			return true
		}
		return false
	default:
		return false
	}
}
