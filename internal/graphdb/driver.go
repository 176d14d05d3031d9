package graphdb

import (
	"context"
	"fmt"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/config"

	"github.com/vvka-141/neoload/internal/retry"
	"github.com/vvka-141/neoload/pkg/neoload"
)

var _ neoload.SessionFactory = (*Driver)(nil)

// Driver owns a Neo4j driver and opens sessions on it.
type Driver struct {
	driver neo4j.DriverWithContext
	logger neoload.Logger
}

// Connect creates a driver for cfg and verifies connectivity, retrying
// transient failures with the neoload retry defaults.
func Connect(ctx context.Context, cfg *neoload.ConnectionConfig, logger neoload.Logger) (*Driver, error) {
	if logger == nil {
		panic("logger cannot be nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	uri := cfg.EffectiveURI()
	auth := neo4j.NoAuth()
	if cfg.Username != "" {
		auth = neo4j.BasicAuth(cfg.Username, cfg.Password, "")
	}

	driver, err := neo4j.NewDriverWithContext(uri, auth, func(c *config.Config) {
		if cfg.MaxConnections > 0 {
			c.MaxConnectionPoolSize = cfg.MaxConnections
		}
		if cfg.ConnectTimeout > 0 {
			c.SocketConnectTimeout = cfg.ConnectTimeout
		}
		c.UserAgent = "neoload"
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create driver for %s: %w: %w", uri, neoload.ErrInvalidConfig, err)
	}

	executor := retry.NewDefaultExecutor(retry.NewNeo4jErrorClassifier()).WithLogger(logger, "Connectivity check")
	err = executor.Execute(ctx, func(ctx context.Context) error {
		return driver.VerifyConnectivity(ctx)
	})
	if err != nil {
		_ = driver.Close(ctx)
		return nil, wrapConnectionError(err, uri, cfg.Username)
	}

	logger.Verbose("✓ Connected to %s", uri)
	return &Driver{driver: driver, logger: logger}, nil
}

// NewFromDriver wraps an existing driver, e.g. one created by a test container.
func NewFromDriver(driver neo4j.DriverWithContext, logger neoload.Logger) *Driver {
	if driver == nil {
		panic("driver cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &Driver{driver: driver, logger: logger}
}

// OpenSession implements neoload.SessionFactory.
func (d *Driver) OpenSession(ctx context.Context, database string, mode neoload.AccessMode) (neoload.Session, error) {
	accessMode := neo4j.AccessModeWrite
	if mode == neoload.AccessModeRead {
		accessMode = neo4j.AccessModeRead
	}
	s := d.driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: database,
		AccessMode:   accessMode,
	})
	return &session{session: s}, nil
}

// Close releases every pooled connection.
func (d *Driver) Close(ctx context.Context) error {
	return d.driver.Close(ctx)
}

// wrapConnectionError adds actionable guidance to driver connection errors.
func wrapConnectionError(err error, uri, username string) error {
	errStr := strings.ToLower(err.Error())

	switch {
	case strings.Contains(errStr, "unauthorized") || strings.Contains(errStr, "authentication"):
		return fmt.Errorf(`%w: authentication failed for user "%s" at %s

Possible causes:
  - Wrong password (check $NEO4J_PASSWORD or .env)
  - Wrong username (check $NEO4J_USER or --username)

Original error: %w`, neoload.ErrConnectionFailed, username, uri, err)

	case strings.Contains(errStr, "connection refused"):
		return fmt.Errorf(`%w: connection refused to %s

Possible causes:
  - Neo4j is not running
  - Wrong host or port (Bolt listens on 7687 by default)
  - Firewall blocking the connection

Original error: %w`, neoload.ErrConnectionFailed, uri, err)

	case strings.Contains(errStr, "no such host"):
		return fmt.Errorf(`%w: cannot resolve host in %s

Possible causes:
  - Hostname is misspelled
  - DNS is not configured or reachable

Original error: %w`, neoload.ErrConnectionFailed, uri, err)

	case strings.Contains(errStr, "tls") || strings.Contains(errStr, "certificate"):
		return fmt.Errorf(`%w: TLS error connecting to %s

Possible causes:
  - Server requires encryption (set connection.encrypted or use neo4j+s://)
  - Server does not support encryption (drop +s from the URI)

Original error: %w`, neoload.ErrConnectionFailed, uri, err)

	default:
		return fmt.Errorf("%w: failed to connect to %s: %w", neoload.ErrConnectionFailed, uri, err)
	}
}
