package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vvka-141/neoload/internal/retry"
	"github.com/vvka-141/neoload/pkg/neoload"
)

// Connection pool configuration constants
const (
	// DefaultMaxConns bounds the pool; a source reads one result set at a time.
	DefaultMaxConns = 2

	DefaultMinConns = 1

	// DefaultMaxConnIdleTime keeps the connection alive while large chunks are written to the graph.
	DefaultMaxConnIdleTime = 30 * time.Minute
)

// AuthMethod selects how the source authenticates to PostgreSQL.
type AuthMethod string

const (
	AuthMethodStandard     AuthMethod = "standard"
	AuthMethodAWSIAM       AuthMethod = "aws"
	AuthMethodGoogleIAM    AuthMethod = "google"
	AuthMethodAzureEntraID AuthMethod = "azure"
)

// ParseAuthMethod maps a configuration value to an AuthMethod. Empty means standard.
func ParseAuthMethod(s string) (AuthMethod, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "standard", "password":
		return AuthMethodStandard, nil
	case "aws", "aws-iam":
		return AuthMethodAWSIAM, nil
	case "google", "google-iam", "gcp":
		return AuthMethodGoogleIAM, nil
	case "azure", "azure-entra", "entra":
		return AuthMethodAzureEntraID, nil
	default:
		return "", fmt.Errorf("auth method %q: %w", s, neoload.ErrUnsupportedAuthMethod)
	}
}

// Config describes the PostgreSQL server behind postgres: data files.
type Config struct {
	// ConnString is a libpq URL or keyword/value string.
	ConnString string

	AuthMethod AuthMethod

	AWSRegion string

	// GoogleInstance is the Cloud SQL instance connection name (project:region:instance).
	GoogleInstance string

	AzureTenantID     string
	AzureClientID     string
	AzureClientSecret string
}

// Connector opens a PostgreSQL connection pool.
type Connector interface {
	Connect(ctx context.Context) (*pgxpool.Pool, error)
}

func configurePool(poolConfig *pgxpool.Config, logger neoload.Logger) {
	poolConfig.MaxConns = DefaultMaxConns
	poolConfig.MinConns = DefaultMinConns
	poolConfig.MaxConnIdleTime = DefaultMaxConnIdleTime
	poolConfig.ConnConfig.OnNotice = func(_ *pgconn.PgConn, notice *pgconn.Notice) {
		logger.Verbose("postgres: %s", notice.Message)
	}
}

func parsePoolConfig(connString string) (*pgxpool.Config, error) {
	poolConfig, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres connection string: %w: %w", neoload.ErrInvalidConfig, err)
	}
	return poolConfig, nil
}

func newRetryExecutor(logger neoload.Logger) *retry.Executor {
	return retry.NewDefaultExecutor(retry.NewPostgreSQLErrorClassifier()).WithLogger(logger, "postgres connection")
}

// StandardConnector authenticates with the user and password of the
// connection string, retrying transient failures.
type StandardConnector struct {
	config        *Config
	logger        neoload.Logger
	retryExecutor *retry.Executor
}

func NewStandardConnector(config *Config, logger neoload.Logger) *StandardConnector {
	if config == nil {
		panic("config cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &StandardConnector{
		config:        config,
		logger:        logger,
		retryExecutor: newRetryExecutor(logger),
	}
}

func (c *StandardConnector) Connect(ctx context.Context) (*pgxpool.Pool, error) {
	poolConfig, err := parsePoolConfig(c.config.ConnString)
	if err != nil {
		return nil, err
	}
	configurePool(poolConfig, c.logger)

	var pool *pgxpool.Pool
	err = c.retryExecutor.Execute(ctx, func(ctx context.Context) error {
		pool, err = openPool(ctx, poolConfig)
		return err
	})
	if err != nil {
		return nil, err
	}
	return pool, nil
}

// openPool creates the pool and pings it once.
func openPool(ctx context.Context, poolConfig *pgxpool.Config) (*pgxpool.Pool, error) {
	cc := poolConfig.ConnConfig
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, wrapConnectionError(err, cc.Host, int(cc.Port), cc.Database)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, wrapConnectionError(err, cc.Host, int(cc.Port), cc.Database)
	}
	return pool, nil
}

// NewConnector creates the Connector matching config.AuthMethod.
func NewConnector(config *Config, logger neoload.Logger) (Connector, error) {
	switch config.AuthMethod {
	case AuthMethodStandard, "":
		return NewStandardConnector(config, logger), nil
	case AuthMethodAWSIAM:
		return newAWSConnector(config, logger)
	case AuthMethodGoogleIAM:
		return newGoogleConnector(config, logger)
	case AuthMethodAzureEntraID:
		return newAzureConnector(config, logger)
	default:
		return nil, fmt.Errorf("unsupported auth method %q: %w", config.AuthMethod, neoload.ErrUnsupportedAuthMethod)
	}
}

// wrapConnectionError wraps raw pgx connection errors with actionable guidance.
func wrapConnectionError(err error, host string, port int, database string) error {
	errStr := strings.ToLower(err.Error())
	addr := fmt.Sprintf("%s:%d", host, port)

	switch {
	case strings.Contains(errStr, "connection refused") || strings.Contains(errStr, "actively refused"):
		return fmt.Errorf(`connection refused to %s

Possible causes:
  - PostgreSQL is not running (check: pg_isready -h %s -p %d)
  - Wrong host or port in sources.postgres.connection

%w: %w`, addr, host, port, neoload.ErrSourceFailed, err)

	case strings.Contains(errStr, "no such host") || strings.Contains(errStr, "no host"):
		return fmt.Errorf(`cannot resolve host "%s"

Possible causes:
  - Hostname is misspelled
  - DNS is not configured or reachable

%w: %w`, host, neoload.ErrSourceFailed, err)

	case strings.Contains(errStr, "password authentication failed"):
		return fmt.Errorf(`password authentication failed for database "%s"

Possible causes:
  - Wrong password in the connection string or $PGPASSWORD
  - Wrong username
  - Expired cloud token (auth_method aws, azure)

%w: %w`, database, neoload.ErrSourceFailed, err)

	case strings.Contains(errStr, "does not exist"):
		return fmt.Errorf(`database "%s" does not exist

%w: %w`, database, neoload.ErrSourceFailed, err)

	case strings.Contains(errStr, "timeout") || strings.Contains(errStr, "timed out"):
		return fmt.Errorf(`connection timed out to %s

Possible causes:
  - Server is overloaded or unresponsive
  - Firewall silently dropping packets

%w: %w`, addr, neoload.ErrSourceFailed, err)

	case strings.Contains(errStr, "ssl") || strings.Contains(errStr, "tls"):
		return fmt.Errorf(`SSL/TLS connection error

Possible causes:
  - Server requires SSL but sslmode is wrong
  - Certificate verification failed (try sslmode=require)

%w: %w`, neoload.ErrSourceFailed, err)

	default:
		return fmt.Errorf("failed to connect to postgres: %w: %w", neoload.ErrSourceFailed, err)
	}
}

func newAWSConnector(config *Config, logger neoload.Logger) (Connector, error) {
	poolConfig, err := parsePoolConfig(config.ConnString)
	if err != nil {
		return nil, err
	}
	cc := poolConfig.ConnConfig
	endpoint := fmt.Sprintf("%s:%d", cc.Host, cc.Port)

	tokenProvider, err := NewAWSIAMTokenProvider(endpoint, config.AWSRegion, cc.User)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS IAM token provider: %w", err)
	}
	return NewTokenBasedConnector(config, tokenProvider, "AWS IAM", logger), nil
}

func newGoogleConnector(config *Config, logger neoload.Logger) (Connector, error) {
	if config.GoogleInstance == "" {
		return nil, fmt.Errorf("Google Cloud SQL IAM auth requires sources.postgres.google_instance (project:region:instance): %w", neoload.ErrInvalidConfig)
	}
	poolConfig, err := parsePoolConfig(config.ConnString)
	if err != nil {
		return nil, err
	}
	if poolConfig.ConnConfig.User == "" {
		return nil, fmt.Errorf("Google Cloud SQL IAM auth requires a user in the connection string: %w", neoload.ErrInvalidConfig)
	}
	return NewGoogleCloudSQLConnector(config, logger), nil
}

// newAzureConnector uses service principal credentials when all three are
// set and the DefaultAzureCredential chain otherwise.
func newAzureConnector(config *Config, logger neoload.Logger) (Connector, error) {
	var tokenProvider TokenProvider
	var err error

	if config.AzureTenantID != "" && config.AzureClientID != "" && config.AzureClientSecret != "" {
		tokenProvider, err = NewAzureServicePrincipalProvider(config.AzureTenantID, config.AzureClientID, config.AzureClientSecret)
		if err != nil {
			return nil, fmt.Errorf("failed to create Azure Service Principal provider: %w", err)
		}
	} else {
		tokenProvider, err = NewAzureDefaultCredentialProvider()
		if err != nil {
			return nil, fmt.Errorf("failed to create Azure Default Credential provider: %w", err)
		}
	}

	return NewTokenBasedConnector(config, tokenProvider, "Azure", logger), nil
}
