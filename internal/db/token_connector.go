package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vvka-141/neoload/internal/retry"
	"github.com/vvka-141/neoload/pkg/neoload"
)

// TokenBasedConnector authenticates with short-lived cloud tokens (AWS IAM,
// Azure Entra ID) that are used as the PostgreSQL password.
type TokenBasedConnector struct {
	config        *Config
	tokenProvider TokenProvider
	retryExecutor *retry.Executor
	providerName  string
	logger        neoload.Logger
}

// NewTokenBasedConnector creates a connector that uses a TokenProvider for authentication.
// providerName is used in error and warning messages (e.g., "AWS IAM", "Azure").
func NewTokenBasedConnector(config *Config, tokenProvider TokenProvider, providerName string, logger neoload.Logger) *TokenBasedConnector {
	if tokenProvider == nil {
		panic("tokenProvider cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &TokenBasedConnector{
		config:        config,
		tokenProvider: tokenProvider,
		retryExecutor: newRetryExecutor(logger),
		providerName:  providerName,
		logger:        logger,
	}
}

func (c *TokenBasedConnector) Connect(ctx context.Context) (*pgxpool.Pool, error) {
	var pool *pgxpool.Pool

	err := c.retryExecutor.Execute(ctx, func(ctx context.Context) error {
		poolConfig, err := c.poolConfig(ctx)
		if err != nil {
			return err
		}
		pool, err = openPool(ctx, poolConfig)
		return err
	})
	if err != nil {
		return nil, err
	}
	return pool, nil
}

// poolConfig parses the connection string and sets a fresh token as the password.
func (c *TokenBasedConnector) poolConfig(ctx context.Context) (*pgxpool.Config, error) {
	token, expiresOn, err := c.tokenProvider.GetToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire %s token: %w: %w", c.providerName, neoload.ErrSourceFailed, err)
	}
	if time.Until(expiresOn) < 5*time.Minute {
		c.logger.Info("Warning: %s token expires in %v", c.providerName, time.Until(expiresOn).Round(time.Second))
	}
	c.logger.Verbose("✓ Acquired token from %s", c.tokenProvider)

	poolConfig, err := parsePoolConfig(c.config.ConnString)
	if err != nil {
		return nil, err
	}
	poolConfig.ConnConfig.Password = token
	configurePool(poolConfig, c.logger)
	return poolConfig, nil
}
