package usage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"proposal-autofill/internal/backend"
	"proposal-autofill/internal/config"
	"proposal-autofill/internal/store"
	"proposal-autofill/pkg/models"
)

type fakeAccount struct{ authed bool }

func (a fakeAccount) IsAuthenticated() bool { return a.authed }
func (a fakeAccount) Token() string         { return "tok" }

type fakeRemote struct {
	stats   *backend.ProposalStats
	err     error
	counter int
}

func (r *fakeRemote) ProposalStats(context.Context, string) (*backend.ProposalStats, error) {
	return r.stats, r.err
}

func (r *fakeRemote) IncrementProposal(context.Context, string) (*backend.IncrementResult, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.counter++
	return &backend.IncrementResult{CurrentProposals: r.counter, MaxProposals: 50}, nil
}

func TestSnapshot_Default(t *testing.T) {
	u := New(store.NewMemoryStore(), nil, nil, config.Default())
	snap, err := u.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 50, snap.Max)
	assert.Equal(t, 50, snap.Remaining)
	assert.Equal(t, models.StatusFree, snap.Status)
}

func TestCheck_LocalLimit(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	require.NoError(t, st.Set(ctx, store.KeyUsage, models.UsageSnapshot{Used: 50, Max: 50, Status: models.StatusFree}))

	u := New(st, nil, nil, config.Default())
	snap, ok, err := u.Check(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 0, snap.Remaining)
	assert.Equal(t, 100, snap.Percentage)
}

func TestCheck_RemoteRefreshAndFallback(t *testing.T) {
	ctx := context.Background()
	remote := &fakeRemote{stats: &backend.ProposalStats{Limits: backend.Limits{Current: 12, Max: 50}}}
	u := New(store.NewMemoryStore(), remote, fakeAccount{authed: true}, config.Default())

	snap, ok, err := u.Check(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 12, snap.Used)

	remote.err = errors.New("backend down")
	snap, ok, err = u.Check(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 12, snap.Used, "local snapshot kept")
}

func TestCheck_UnlimitedAndPremium(t *testing.T) {
	ctx := context.Background()
	remote := &fakeRemote{stats: &backend.ProposalStats{Limits: backend.Limits{Current: 500, Max: models.Unlimited}}}
	u := New(store.NewMemoryStore(), remote, fakeAccount{authed: true}, config.Default())
	_, ok, err := u.Check(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	st := store.NewMemoryStore()
	future := time.Now().Add(24 * time.Hour)
	require.NoError(t, st.Set(ctx, store.KeyUsage, models.UsageSnapshot{
		Used: 80, Max: 50, Status: models.StatusPremium, SubscriptionExpiry: &future,
	}))
	_, ok, err = New(st, nil, nil, config.Default()).Check(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRecord_RemoteThenLocal(t *testing.T) {
	ctx := context.Background()
	remote := &fakeRemote{counter: 9}
	u := New(store.NewMemoryStore(), remote, fakeAccount{authed: true}, config.Default())

	snap, err := u.Record(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10, snap.Used)

	remote.err = errors.New("offline")
	snap, err = u.Record(ctx)
	require.NoError(t, err)
	assert.Equal(t, 11, snap.Used)

	persisted, err := u.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 11, persisted.Used)
}

func TestRecord_LoggedOutCountsLocally(t *testing.T) {
	ctx := context.Background()
	remote := &fakeRemote{}
	u := New(store.NewMemoryStore(), remote, fakeAccount{authed: false}, config.Default())

	snap, err := u.Record(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Used)
	assert.Zero(t, remote.counter)
}

func TestResetAndCheckSubscription(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	past := time.Now().Add(-time.Hour)
	require.NoError(t, st.Set(ctx, store.KeyUsage, models.UsageSnapshot{
		Used: 70, Max: 50, Status: models.StatusPremium, SubscriptionExpiry: &past,
	}))
	u := New(st, nil, nil, config.Default())

	snap, err := u.CheckSubscription(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.StatusExpired, snap.Status)

	_, ok, err := u.Check(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	snap, err = u.Reset(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, snap.Used)
	assert.Equal(t, models.StatusFree, snap.Status)
}

func TestSync(t *testing.T) {
	u := New(store.NewMemoryStore(), nil, nil, config.Default())
	snap, err := u.Sync(context.Background(), &backend.ProposalStats{
		Limits:             backend.Limits{Current: 3, Max: 100},
		SubscriptionStatus: models.StatusPremium,
	})
	require.NoError(t, err)
	assert.Equal(t, 97, snap.Remaining)
	assert.Equal(t, models.StatusPremium, snap.Status)
}
