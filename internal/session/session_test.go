package session

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"proposal-autofill/internal/backend"
	"proposal-autofill/internal/config"
	"proposal-autofill/internal/store"
	"proposal-autofill/pkg/models"
)

type fakeBackend struct {
	verifyErrs   []error
	verifyCalls  atomic.Int32
	refreshCalls atomic.Int32
	keyCalls     atomic.Int32
	refreshErr   error
	profileErr   error
	statsErr     error
}

func (f *fakeBackend) Login(_ context.Context, creds models.Credentials) (*backend.Tokens, error) {
	if creds.Password != "pw" {
		return nil, &backend.Error{Path: "/api/auth/login", Status: http.StatusUnauthorized, Message: "Invalid credentials"}
	}
	return &backend.Tokens{Token: "tok-1", RefreshToken: "ref-1", User: &models.User{ID: "u1", Email: creds.Email}}, nil
}

func (f *fakeBackend) Register(_ context.Context, req models.RegisterRequest) (*models.User, error) {
	return &models.User{ID: "u2", Email: req.Email, FirstName: req.FirstName}, nil
}

func (f *fakeBackend) Refresh(_ context.Context, refreshToken string) (*backend.Tokens, error) {
	f.refreshCalls.Add(1)
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	return &backend.Tokens{Token: "tok-2", RefreshToken: refreshToken + "-next"}, nil
}

func (f *fakeBackend) Verify(context.Context, string) error {
	n := int(f.verifyCalls.Add(1)) - 1
	if n < len(f.verifyErrs) {
		return f.verifyErrs[n]
	}
	return nil
}

func (f *fakeBackend) GetProfile(context.Context, string) (*models.User, error) {
	if f.profileErr != nil {
		return nil, f.profileErr
	}
	return &models.User{ID: "u1", FirstName: "Jane", LastName: "Doe"}, nil
}

func (f *fakeBackend) ProposalStats(context.Context, string) (*backend.ProposalStats, error) {
	if f.statsErr != nil {
		return nil, f.statsErr
	}
	return &backend.ProposalStats{Limits: backend.Limits{Current: 4, Max: 50}}, nil
}

func (f *fakeBackend) ActiveOpenAIKey(context.Context, string) (string, error) {
	f.keyCalls.Add(1)
	return "sk-server-key-000000000000", nil
}

var errUnauthorized = &backend.Error{Path: "/api/auth/verify", Status: http.StatusUnauthorized, Message: "Unauthorized"}

func newSession(be Backend) (*Session, *store.MemoryStore) {
	st := store.NewMemoryStore()
	return New(st, be, config.Default()), st
}

func TestLogin_LoadsAccountAndPersists(t *testing.T) {
	ctx := context.Background()
	be := &fakeBackend{}
	s, st := newSession(be)

	res, err := s.Login(ctx, models.Credentials{Email: "a@b.co", Password: "pw"})
	require.NoError(t, err)
	assert.Empty(t, res.Warnings)
	assert.Equal(t, "Jane", res.User.FirstName)
	assert.Equal(t, 4, res.Stats.Limits.Current)
	assert.True(t, s.IsAuthenticated())

	token, err := store.GetString(ctx, st, store.KeyAuthToken)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", token)

	restored := New(st, be, config.Default())
	require.NoError(t, restored.Load(ctx))
	assert.True(t, restored.IsAuthenticated())
	assert.Equal(t, "Jane", restored.State().User.FirstName)
}

func TestLogin_PartialLoadStillAuthenticates(t *testing.T) {
	be := &fakeBackend{statsErr: errors.New("stats down")}
	s, _ := newSession(be)

	res, err := s.Login(context.Background(), models.Credentials{Email: "a@b.co", Password: "pw"})
	require.NoError(t, err)
	assert.True(t, s.IsAuthenticated())
	assert.Nil(t, res.Stats)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "stats")
}

func TestLogin_Rejected(t *testing.T) {
	s, _ := newSession(&fakeBackend{})
	_, err := s.Login(context.Background(), models.Credentials{Email: "a@b.co", Password: "nope"})
	require.Error(t, err)
	assert.True(t, backend.IsUnauthorized(err))
	assert.False(t, s.IsAuthenticated())
}

func TestEnsureValid_NotAuthenticated(t *testing.T) {
	s, _ := newSession(&fakeBackend{})
	assert.ErrorIs(t, s.EnsureValid(context.Background()), ErrNotAuthenticated)
}

func TestEnsureValid_RefreshesOnceOn401(t *testing.T) {
	ctx := context.Background()
	be := &fakeBackend{verifyErrs: []error{errUnauthorized}}
	s, _ := newSession(be)
	_, err := s.Login(ctx, models.Credentials{Email: "a@b.co", Password: "pw"})
	require.NoError(t, err)

	require.NoError(t, s.EnsureValid(ctx))
	assert.EqualValues(t, 2, be.verifyCalls.Load())
	assert.EqualValues(t, 1, be.refreshCalls.Load())
	assert.Equal(t, "tok-2", s.Token())
}

func TestEnsureValid_RefreshFailure(t *testing.T) {
	ctx := context.Background()
	be := &fakeBackend{verifyErrs: []error{errUnauthorized}, refreshErr: errors.New("refresh rejected")}
	s, _ := newSession(be)
	_, err := s.Login(ctx, models.Credentials{Email: "a@b.co", Password: "pw"})
	require.NoError(t, err)

	assert.ErrorIs(t, s.EnsureValid(ctx), ErrNotAuthenticated)
}

func TestEnsureValid_ProactiveRefreshOfExpiredJWT(t *testing.T) {
	ctx := context.Background()
	be := &fakeBackend{}
	s, st := newSession(be)

	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": time.Now().Add(-time.Hour).Unix(),
	}).SignedString([]byte("k"))
	require.NoError(t, err)

	require.NoError(t, st.Set(ctx, store.KeyAuthToken, expired))
	require.NoError(t, st.Set(ctx, store.KeyRefreshToken, "ref-1"))
	require.NoError(t, st.Set(ctx, store.KeyUser, models.User{ID: "u1"}))
	require.NoError(t, s.Load(ctx))

	require.NoError(t, s.EnsureValid(ctx))
	assert.EqualValues(t, 1, be.refreshCalls.Load())
	assert.EqualValues(t, 1, be.verifyCalls.Load())
	assert.Equal(t, "tok-2", s.Token())
}

func TestAPIKey_Cached(t *testing.T) {
	ctx := context.Background()
	be := &fakeBackend{}
	s, _ := newSession(be)

	_, err := s.APIKey(ctx)
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	_, err = s.Login(ctx, models.Credentials{Email: "a@b.co", Password: "pw"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, be.keyCalls.Load(), "login warms the key cache")

	now := time.Now()
	s.now = func() time.Time { return now }
	s.apiKey.fetched = now

	key, err := s.APIKey(ctx)
	require.NoError(t, err)
	assert.Equal(t, "sk-server-key-000000000000", key)
	assert.EqualValues(t, 1, be.keyCalls.Load())

	s.now = func() time.Time { return now.Add(6 * time.Minute) }
	_, err = s.APIKey(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, be.keyCalls.Load())
}

func TestLogout_ClearsStore(t *testing.T) {
	ctx := context.Background()
	s, st := newSession(&fakeBackend{})
	_, err := s.Login(ctx, models.Credentials{Email: "a@b.co", Password: "pw"})
	require.NoError(t, err)

	require.NoError(t, s.Logout(ctx))
	assert.False(t, s.IsAuthenticated())
	assert.Zero(t, st.Len())
}
