package fill

import (
	"context"
	"sync"
)

// Scheduler owns the follow-up re-asserts of won writes. Each job runs on
// its own goroutine and stops as soon as its claim is superseded.
type Scheduler struct {
	ledger *Ledger
	policy RetryPolicy
	wg     sync.WaitGroup
}

// NewScheduler creates a scheduler bound to ledger
func NewScheduler(ledger *Ledger, policy RetryPolicy) *Scheduler {
	return &Scheduler{ledger: ledger, policy: policy}
}

// Schedule runs assert at each policy offset while claim still owns its
// slot. assert returns false to stop early, e.g. for a detached field.
func (s *Scheduler) Schedule(ctx context.Context, claim Claim, assert func(attempt int) bool) {
	if s.policy.MaxAttempts <= 0 {
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for attempt := 0; attempt < s.policy.MaxAttempts; attempt++ {
			if err := Sleep(ctx, s.policy.Delay(attempt)); err != nil {
				return
			}
			if !s.ledger.Owns(claim) {
				return
			}
			if !assert(attempt) {
				return
			}
		}
	}()
}

// Wait blocks until every scheduled job has finished
func (s *Scheduler) Wait() {
	s.wg.Wait()
}
