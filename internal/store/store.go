// Package store persists the local key/value state the filler keeps between
// runs: tokens, the usage snapshot, settings and prompt overrides.
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the key is absent
var ErrNotFound = errors.New("store: key not found")

// Well-known keys
const (
	KeyAuthToken    = "authToken"
	KeyRefreshToken = "refreshToken"
	KeyUser         = "user"
	KeyUsage        = "userUsage"
	KeySettings     = "settings"
	KeyCurrentJob   = "currentJob"
	KeyPageReady    = "pageReady"
)

// MetaPromptOverrideKey is the per-template override key
func MetaPromptOverrideKey(templateType string) string {
	return "metaPromptOverride_" + templateType
}

// Store is a JSON key/value store
type Store interface {
	// Get decodes the value stored at key into dest
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}) error
	Delete(ctx context.Context, keys ...string) error
	// Clear removes every key owned by this store
	Clear(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

// GetString reads a plain string value, returning "" when absent
func GetString(ctx context.Context, s Store, key string) (string, error) {
	var v string
	if err := s.Get(ctx, key, &v); err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", nil
		}
		return "", err
	}
	return v, nil
}
