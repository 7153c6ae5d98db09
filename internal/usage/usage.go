// Package usage tracks generated proposals against the account's quota.
package usage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"proposal-autofill/internal/backend"
	"proposal-autofill/internal/config"
	"proposal-autofill/internal/logging"
	"proposal-autofill/internal/store"
	"proposal-autofill/pkg/models"
)

// Remote is the backend side of the quota
type Remote interface {
	ProposalStats(ctx context.Context, token string) (*backend.ProposalStats, error)
	IncrementProposal(ctx context.Context, token string) (*backend.IncrementResult, error)
}

// Account identifies whose quota is being counted
type Account interface {
	IsAuthenticated() bool
	Token() string
}

// Store persists the usage snapshot and keeps it in step with the backend
type Store struct {
	mu      sync.Mutex
	store   store.Store
	remote  Remote
	account Account
	max     int
	now     func() time.Time
	logger  logging.Logger
}

// New creates a usage store. remote and account may be nil for a purely
// local quota.
func New(st store.Store, remote Remote, account Account, cfg *config.Config) *Store {
	return &Store{
		store:   st,
		remote:  remote,
		account: account,
		max:     cfg.Quota.FreeProposalLimit,
		now:     time.Now,
		logger:  logging.GetGlobalLogger().WithField("component", "usage"),
	}
}

// Snapshot returns the persisted snapshot or a fresh free-tier one
func (s *Store) Snapshot(ctx context.Context) (models.UsageSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

func (s *Store) load(ctx context.Context) (models.UsageSnapshot, error) {
	var snap models.UsageSnapshot
	err := s.store.Get(ctx, store.KeyUsage, &snap)
	if errors.Is(err, store.ErrNotFound) {
		return models.NewUsageSnapshot(s.max), nil
	}
	if err != nil {
		return models.UsageSnapshot{}, fmt.Errorf("failed to load usage: %w", err)
	}
	if snap.Status == "" {
		snap.Status = models.StatusFree
	}
	snap.Recalculate()
	return snap, nil
}

func (s *Store) save(ctx context.Context, snap models.UsageSnapshot) error {
	if err := s.store.Set(ctx, store.KeyUsage, snap); err != nil {
		return fmt.Errorf("failed to save usage: %w", err)
	}
	return nil
}

func (s *Store) online() bool {
	return s.remote != nil && s.account != nil && s.account.IsAuthenticated()
}

// Check refreshes the snapshot from the backend when logged in and reports
// whether another generation is allowed. A failed refresh falls back to the
// local snapshot.
func (s *Store) Check(ctx context.Context) (models.UsageSnapshot, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.load(ctx)
	if err != nil {
		return snap, false, err
	}

	if s.online() {
		stats, err := s.remote.ProposalStats(ctx, s.account.Token())
		if err != nil {
			s.logger.WithError(err).Warn("Failed to refresh usage, using local snapshot")
		} else {
			applyStats(&snap, stats)
			if err := s.save(ctx, snap); err != nil {
				return snap, false, err
			}
		}
	}

	return snap, snap.CanGenerate(s.now()), nil
}

// Record counts one generation. The backend counter is authoritative when
// reachable; otherwise the local count is incremented.
func (s *Store) Record(ctx context.Context) (models.UsageSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.load(ctx)
	if err != nil {
		return snap, err
	}

	recorded := false
	if s.online() {
		res, err := s.remote.IncrementProposal(ctx, s.account.Token())
		if err != nil {
			s.logger.WithError(err).Warn("Failed to increment remote usage, counting locally")
		} else {
			res.Apply(&snap)
			recorded = true
		}
	}
	if !recorded {
		snap.Used++
		snap.Recalculate()
	}

	s.logger.Info("Proposal recorded", map[string]interface{}{
		"used":      snap.Used,
		"max":       snap.Max,
		"remaining": snap.Remaining,
	})
	return snap, s.save(ctx, snap)
}

// Sync stores backend stats fetched elsewhere, for example during login
func (s *Store) Sync(ctx context.Context, stats *backend.ProposalStats) (models.UsageSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.load(ctx)
	if err != nil {
		return snap, err
	}
	if stats != nil {
		applyStats(&snap, stats)
	}
	return snap, s.save(ctx, snap)
}

// Reset returns the quota to a fresh free-tier snapshot
func (s *Store) Reset(ctx context.Context) (models.UsageSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := models.NewUsageSnapshot(s.max)
	return snap, s.save(ctx, snap)
}

// CheckSubscription downgrades an expired premium subscription
func (s *Store) CheckSubscription(ctx context.Context) (models.UsageSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.load(ctx)
	if err != nil {
		return snap, err
	}
	if snap.Status == models.StatusPremium && snap.SubscriptionExpiry != nil && !snap.SubscriptionExpiry.After(s.now()) {
		snap.Status = models.StatusExpired
		s.logger.Info("Premium subscription expired", map[string]interface{}{
			"expiry": snap.SubscriptionExpiry.Format(time.RFC3339),
		})
		if err := s.save(ctx, snap); err != nil {
			return snap, err
		}
	}
	return snap, nil
}

func applyStats(snap *models.UsageSnapshot, stats *backend.ProposalStats) {
	stats.Limits.Apply(snap)
	if stats.SubscriptionStatus != "" {
		snap.Status = stats.SubscriptionStatus
	}
}
