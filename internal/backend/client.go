// Package backend is the HTTP client for the account backend: auth, profile,
// server-managed API keys and proposal counters.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"proposal-autofill/internal/config"
	"proposal-autofill/internal/logging"
	"proposal-autofill/pkg/models"
)

const openAIKeyType = "OPENAI"

// Client talks to the backend API
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     logging.Logger
}

// NewClient creates a client from configuration
func NewClient(cfg *config.Config) *Client {
	timeout := cfg.Backend.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return NewClientWithHTTP(cfg.Backend.BaseURL, &http.Client{Timeout: timeout})
}

// NewClientWithHTTP creates a client with a caller-supplied http.Client
func NewClientWithHTTP(baseURL string, hc *http.Client) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: hc,
		logger:     logging.GetGlobalLogger().WithField("component", "backend"),
	}
}

// BaseURL returns the backend root
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Login exchanges credentials for tokens. A missing refresh token is
// replaced by the access token.
func (c *Client) Login(ctx context.Context, creds models.Credentials) (*Tokens, error) {
	var tokens Tokens
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", "", creds, &tokens); err != nil {
		return nil, err
	}
	if tokens.Token == "" || tokens.User == nil {
		return nil, &Error{Path: "/api/auth/login", Message: "Invalid response from server - missing token or user"}
	}
	if tokens.RefreshToken == "" {
		tokens.RefreshToken = tokens.Token
	}
	return &tokens, nil
}

// Register creates an account
func (c *Client) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	var user models.User
	if err := c.do(ctx, http.MethodPost, "/api/auth/register", "", req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Refresh trades a refresh token for a new token pair
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*Tokens, error) {
	body := map[string]string{"refreshToken": refreshToken}
	var tokens Tokens
	if err := c.do(ctx, http.MethodPost, "/api/auth/refresh", "", body, &tokens); err != nil {
		return nil, err
	}
	if tokens.Token == "" || tokens.RefreshToken == "" {
		return nil, &Error{Path: "/api/auth/refresh", Message: "Invalid refresh token response"}
	}
	return &tokens, nil
}

// Verify checks that token is still accepted
func (c *Client) Verify(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodGet, "/api/auth/verify", token, nil, nil)
}

// GetProfile fetches the user's profile
func (c *Client) GetProfile(ctx context.Context, token string) (*models.User, error) {
	var user models.User
	if err := c.do(ctx, http.MethodGet, "/api/users/profile", token, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateProfile changes the user's names
func (c *Client) UpdateProfile(ctx context.Context, token string, update ProfileUpdate) (*models.User, error) {
	var user models.User
	if err := c.do(ctx, http.MethodPut, "/api/users/profile", token, update, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// ChangePassword changes the account password
func (c *Client) ChangePassword(ctx context.Context, token string, change PasswordChange) error {
	return c.do(ctx, http.MethodPut, "/api/users/change-password", token, change, nil)
}

// ListAPIKeys returns the server-managed provider keys
func (c *Client) ListAPIKeys(ctx context.Context, token string) ([]models.APIKey, error) {
	var keys []models.APIKey
	if err := c.do(ctx, http.MethodGet, "/api/api-keys", token, nil, &keys); err != nil {
		return nil, err
	}
	return keys, nil
}

// ActiveOpenAIKey returns the first active OPENAI key in plain text
func (c *Client) ActiveOpenAIKey(ctx context.Context, token string) (string, error) {
	keys, err := c.ListAPIKeys(ctx, token)
	if err != nil {
		return "", err
	}
	for _, k := range keys {
		if k.KeyType != openAIKeyType || !k.IsActive {
			continue
		}
		if IsKeyEncrypted(k.Key) {
			return "", ErrEncryptedKey
		}
		return k.Key, nil
	}
	return "", ErrNoActiveKey
}

// IncrementProposal counts one generated proposal
func (c *Client) IncrementProposal(ctx context.Context, token string) (*IncrementResult, error) {
	var res IncrementResult
	if err := c.do(ctx, http.MethodPost, "/api/proposals/increment", token, nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// ProposalStats fetches the account's proposal counters
func (c *Client) ProposalStats(ctx context.Context, token string) (*ProposalStats, error) {
	var stats ProposalStats
	if err := c.do(ctx, http.MethodGet, "/api/proposals/stats", token, nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// Health checks that the backend answers
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/health", nil)
	if err != nil {
		return &Error{Path: "/api/health", Message: "failed to create request", Cause: err}
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &Error{Path: "/api/health", Message: "HTTP request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &Error{Path: "/api/health", Status: resp.StatusCode, Message: "Backend connection failed"}
	}
	return nil
}

// do performs one JSON call and decodes envelope.data into out
func (c *Client) do(ctx context.Context, method, path, token string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return &Error{Path: path, Message: "failed to encode request", Cause: err}
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &Error{Path: path, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &Error{Path: path, Message: "HTTP request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Path: path, Status: resp.StatusCode, Message: "failed to read response body", Cause: err}
	}

	c.logger.Debug("Backend call", map[string]interface{}{
		"method":   method,
		"path":     path,
		"status":   resp.StatusCode,
		"duration": time.Since(start).String(),
	})

	var env struct {
		Success bool            `json:"success"`
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
	}
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := env.Message
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &Error{Path: path, Status: resp.StatusCode, Message: msg}
	}
	if decodeErr != nil {
		return &Error{Path: path, Status: resp.StatusCode, Message: "invalid response body", Cause: decodeErr}
	}
	if !env.Success {
		msg := env.Message
		if msg == "" {
			msg = "request was not successful"
		}
		return &Error{Path: path, Status: resp.StatusCode, Message: msg}
	}

	if out != nil && len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return &Error{Path: path, Status: resp.StatusCode, Message: fmt.Sprintf("unexpected %s data", path), Cause: err}
		}
	}
	return nil
}
