// Package session owns the logged-in account: tokens, the user document and
// the server-managed API key cache.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"proposal-autofill/internal/backend"
	"proposal-autofill/internal/config"
	"proposal-autofill/internal/logging"
	"proposal-autofill/internal/store"
	"proposal-autofill/pkg/models"
)

// ErrNotAuthenticated is returned when an operation needs a logged-in user
var ErrNotAuthenticated = errors.New("session: user not authenticated")

// Backend is the part of the backend API the session drives
type Backend interface {
	Login(ctx context.Context, creds models.Credentials) (*backend.Tokens, error)
	Register(ctx context.Context, req models.RegisterRequest) (*models.User, error)
	Refresh(ctx context.Context, refreshToken string) (*backend.Tokens, error)
	Verify(ctx context.Context, token string) error
	GetProfile(ctx context.Context, token string) (*models.User, error)
	ProposalStats(ctx context.Context, token string) (*backend.ProposalStats, error)
	ActiveOpenAIKey(ctx context.Context, token string) (string, error)
}

// LoginResult is what a login loaded besides the tokens
type LoginResult struct {
	User     *models.User
	Stats    *backend.ProposalStats
	Warnings []string
}

type cachedKey struct {
	key     string
	fetched time.Time
}

// Session is safe for concurrent use
type Session struct {
	mu     sync.RWMutex
	state  models.AuthState
	apiKey cachedKey

	store   store.Store
	backend Backend
	keyTTL  time.Duration
	skew    time.Duration
	now     func() time.Time
	logger  logging.Logger
}

// New creates an empty, unauthenticated session
func New(st store.Store, be Backend, cfg *config.Config) *Session {
	return &Session{
		store:   st,
		backend: be,
		keyTTL:  cfg.Session.APIKeyCacheTTL,
		skew:    cfg.Session.TokenExpirySkew,
		now:     time.Now,
		logger:  logging.GetGlobalLogger().WithField("component", "session"),
	}
}

// State returns a copy of the auth state
func (s *Session) State() models.AuthState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.state
	if st.User != nil {
		u := *st.User
		st.User = &u
	}
	return st
}

// Token returns the current access token
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Token
}

// IsAuthenticated reports a completed login
func (s *Session) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Authenticated && s.state.Token != ""
}

// SetUser replaces the cached user document and persists it
func (s *Session) SetUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	s.state.User = user
	s.mu.Unlock()
	return s.Persist(ctx)
}

// Load restores tokens and user from the store
func (s *Session) Load(ctx context.Context) error {
	token, err := store.GetString(ctx, s.store, store.KeyAuthToken)
	if err != nil {
		return fmt.Errorf("failed to load auth token: %w", err)
	}
	refresh, err := store.GetString(ctx, s.store, store.KeyRefreshToken)
	if err != nil {
		return fmt.Errorf("failed to load refresh token: %w", err)
	}
	var user *models.User
	var u models.User
	switch err := s.store.Get(ctx, store.KeyUser, &u); {
	case err == nil:
		user = &u
	case !errors.Is(err, store.ErrNotFound):
		return fmt.Errorf("failed to load user: %w", err)
	}

	s.mu.Lock()
	s.state = models.AuthState{
		Authenticated: token != "" && user != nil,
		Token:         token,
		RefreshToken:  refresh,
		User:          user,
	}
	s.mu.Unlock()

	s.logger.Debug("Session loaded", map[string]interface{}{
		"authenticated": token != "" && user != nil,
	})
	return nil
}

// Persist writes tokens and user to the store
func (s *Session) Persist(ctx context.Context) error {
	st := s.State()
	if err := s.store.Set(ctx, store.KeyAuthToken, st.Token); err != nil {
		return fmt.Errorf("failed to persist auth token: %w", err)
	}
	if err := s.store.Set(ctx, store.KeyRefreshToken, st.RefreshToken); err != nil {
		return fmt.Errorf("failed to persist refresh token: %w", err)
	}
	if st.User != nil {
		if err := s.store.Set(ctx, store.KeyUser, st.User); err != nil {
			return fmt.Errorf("failed to persist user: %w", err)
		}
	}
	return nil
}

// Clear forgets the account and wipes the store
func (s *Session) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.state = models.AuthState{}
	s.apiKey = cachedKey{}
	s.mu.Unlock()

	if err := s.store.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear store: %w", err)
	}
	return nil
}

// EnsureValid makes sure the access token is usable. An expired token is
// refreshed before verifying; a 401 from verify triggers one refresh and a
// second verify.
func (s *Session) EnsureValid(ctx context.Context) error {
	if !s.IsAuthenticated() {
		return ErrNotAuthenticated
	}

	if backend.TokenExpired(s.Token(), s.skew) {
		s.logger.Info("Access token expired, refreshing")
		if err := s.refresh(ctx); err != nil {
			return err
		}
	}

	err := s.backend.Verify(ctx, s.Token())
	if err == nil {
		return nil
	}
	if !backend.IsUnauthorized(err) {
		return fmt.Errorf("token verification failed: %w", err)
	}

	s.logger.Info("Token rejected, attempting refresh")
	if err := s.refresh(ctx); err != nil {
		return err
	}
	if err := s.backend.Verify(ctx, s.Token()); err != nil {
		return fmt.Errorf("token verification failed after refresh: %w", err)
	}
	return nil
}

func (s *Session) refresh(ctx context.Context) error {
	s.mu.RLock()
	refreshToken := s.state.RefreshToken
	s.mu.RUnlock()
	if refreshToken == "" {
		return fmt.Errorf("%w: no refresh token available", ErrNotAuthenticated)
	}

	tokens, err := s.backend.Refresh(ctx, refreshToken)
	if err != nil {
		s.logger.WithError(err).Warn("Token refresh failed")
		return fmt.Errorf("%w: token expired and refresh failed: %v", ErrNotAuthenticated, err)
	}

	s.mu.Lock()
	s.state.Token = tokens.Token
	s.state.RefreshToken = tokens.RefreshToken
	s.mu.Unlock()

	return s.Persist(ctx)
}

// APIKey returns the server-managed OpenAI key, cached for the configured TTL
func (s *Session) APIKey(ctx context.Context) (string, error) {
	s.mu.RLock()
	cached := s.apiKey
	token := s.state.Token
	authenticated := s.state.Authenticated
	s.mu.RUnlock()

	if !authenticated || token == "" {
		return "", ErrNotAuthenticated
	}
	if cached.key != "" && s.now().Sub(cached.fetched) < s.keyTTL {
		return cached.key, nil
	}

	key, err := s.backend.ActiveOpenAIKey(ctx, token)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	s.apiKey = cachedKey{key: key, fetched: s.now()}
	s.mu.Unlock()
	return key, nil
}

// Login authenticates, then loads the profile and usage stats in parallel
// before marking the session authenticated. Failing to load either still
// logs the user in with a warning.
func (s *Session) Login(ctx context.Context, creds models.Credentials) (*LoginResult, error) {
	tokens, err := s.backend.Login(ctx, creds)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.state = models.AuthState{
		Token:        tokens.Token,
		RefreshToken: tokens.RefreshToken,
		User:         tokens.User,
	}
	s.apiKey = cachedKey{}
	s.mu.Unlock()

	if err := s.Persist(ctx); err != nil {
		return nil, err
	}

	result := &LoginResult{User: tokens.User}
	user, stats, warnings := s.loadAccount(ctx, tokens.Token)
	result.Warnings = warnings
	if user != nil {
		result.User = user
	}
	result.Stats = stats

	s.mu.Lock()
	s.state.User = result.User
	s.state.Authenticated = true
	s.mu.Unlock()

	if _, err := s.APIKey(ctx); err != nil {
		result.Warnings = append(result.Warnings, "api key: "+err.Error())
	}

	if err := s.Persist(ctx); err != nil {
		return nil, err
	}

	fields := map[string]interface{}{"warnings": len(result.Warnings)}
	if result.User != nil {
		fields["user_id"] = result.User.ID
	}
	s.logger.Info("Login completed", fields)
	return result, nil
}

// RefreshAccount reloads the profile and stats for the current user
func (s *Session) RefreshAccount(ctx context.Context) (*models.User, *backend.ProposalStats, error) {
	if err := s.EnsureValid(ctx); err != nil {
		return nil, nil, err
	}
	user, stats, warnings := s.loadAccount(ctx, s.Token())
	if user == nil && stats == nil && len(warnings) > 0 {
		return nil, nil, fmt.Errorf("failed to load account: %s", warnings[0])
	}
	if user != nil {
		if err := s.SetUser(ctx, user); err != nil {
			return nil, nil, err
		}
	}
	return user, stats, nil
}

func (s *Session) loadAccount(ctx context.Context, token string) (*models.User, *backend.ProposalStats, []string) {
	var (
		user     *models.User
		stats    *backend.ProposalStats
		mu       sync.Mutex
		warnings []string
	)
	warn := func(what string, err error) {
		mu.Lock()
		warnings = append(warnings, what+": "+err.Error())
		mu.Unlock()
		s.logger.WithError(err).Warn("Failed to load account data", map[string]interface{}{"part": what})
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		u, err := s.backend.GetProfile(gCtx, token)
		if err != nil {
			warn("profile", err)
			return nil
		}
		mu.Lock()
		user = u
		mu.Unlock()
		return nil
	})
	g.Go(func() error {
		st, err := s.backend.ProposalStats(gCtx, token)
		if err != nil {
			warn("stats", err)
			return nil
		}
		mu.Lock()
		stats = st
		mu.Unlock()
		return nil
	})
	_ = g.Wait()

	return user, stats, warnings
}

// Register creates an account without logging in
func (s *Session) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	return s.backend.Register(ctx, req)
}

// Logout clears the session and the store
func (s *Session) Logout(ctx context.Context) error {
	s.logger.Info("Logging out")
	return s.Clear(ctx)
}
