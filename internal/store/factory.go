package store

import (
	"context"
	"fmt"

	"proposal-autofill/internal/config"
	"proposal-autofill/internal/logging"
)

// New picks redis when a URL is configured and memory otherwise
func New(ctx context.Context, cfg *config.Config) (Store, error) {
	logger := logging.GetGlobalLogger()

	if cfg.Redis.URL == "" {
		logger.Warn("No redis url configured, state will not survive restarts")
		return NewMemoryStore(), nil
	}

	rs, err := NewRedisStore(cfg)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.Redis.Timeout)
	defer cancel()
	if err := rs.Ping(pingCtx); err != nil {
		_ = rs.Close()
		return nil, fmt.Errorf("failed to reach redis: %w", err)
	}

	logger.Info("Using redis store", map[string]interface{}{"prefix": cfg.Redis.KeyPrefix})
	return rs, nil
}
