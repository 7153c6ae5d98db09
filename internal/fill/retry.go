package fill

import (
	"context"
	"math"
	"time"

	"proposal-autofill/internal/config"
)

// RetryPolicy is a bounded schedule of delays. Attempt n runs Delay(n)
// after attempt n-1, or after the initial action for n == 0.
type RetryPolicy struct {
	Name         string
	MaxAttempts  int
	InitialDelay time.Duration
	Backoff      float64
}

// DefaultReassertPolicy re-applies a write at 250ms and 700ms
var DefaultReassertPolicy = RetryPolicy{
	Name:         "reassert",
	MaxAttempts:  2,
	InitialDelay: 250 * time.Millisecond,
	Backoff:      1.8,
}

// PolicyFromConfig builds the re-assert policy from the fill section
func PolicyFromConfig(cfg *config.Config) RetryPolicy {
	return RetryPolicy{
		Name:         "reassert",
		MaxAttempts:  cfg.Fill.ReassertAttempts,
		InitialDelay: cfg.Fill.ReassertInitialDelay,
		Backoff:      cfg.Fill.ReassertBackoff,
	}
}

// FixedPolicy retries attempts times with the same delay
func FixedPolicy(name string, attempts int, delay time.Duration) RetryPolicy {
	return RetryPolicy{Name: name, MaxAttempts: attempts, InitialDelay: delay, Backoff: 1}
}

// Delay returns the wait before attempt n, counted from zero
func (p RetryPolicy) Delay(n int) time.Duration {
	factor := p.Backoff
	if factor < 1 {
		factor = 1
	}
	return time.Duration(float64(p.InitialDelay) * math.Pow(factor, float64(n)))
}

// Offsets returns each attempt's delay measured from the first write
func (p RetryPolicy) Offsets() []time.Duration {
	if p.MaxAttempts <= 0 {
		return nil
	}
	out := make([]time.Duration, p.MaxAttempts)
	var total time.Duration
	for i := range out {
		total += p.Delay(i)
		out[i] = total
	}
	return out
}

// Sleep waits d or until ctx is done
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
