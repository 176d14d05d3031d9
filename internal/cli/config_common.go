package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/vvka-141/neoload/internal/config"
	"github.com/vvka-141/neoload/internal/db"
	"github.com/vvka-141/neoload/internal/params"
	"github.com/vvka-141/neoload/internal/source"
	"github.com/vvka-141/neoload/pkg/neoload"
)

// connectionFlags holds the common connection-related flag values.
type connectionFlags struct {
	uri       string
	username  string
	database  string
	encrypted bool
}

// registerConnectionFlags adds the graph connection flags to cmd.
func registerConnectionFlags(cmd *cobra.Command, flags *connectionFlags) {
	cmd.Flags().StringVar(&flags.uri, "uri", "",
		"Neo4j server URI (env: NEO4J_URI, default neo4j://localhost:7687)")
	cmd.Flags().StringVar(&flags.username, "username", "",
		"Neo4j user (env: NEO4J_USER, default neo4j)")
	cmd.Flags().StringVarP(&flags.database, "database", "d", "",
		"Target database (env: NEO4J_DATABASE, default: server default)")
	cmd.Flags().BoolVar(&flags.encrypted, "encrypted", false,
		"Use an encrypted connection (neo4j+s:// or bolt+s://)")
}

// resolveConnection resolves the graph connection.
// Priority (highest to lowest): flags > environment > neoload.yaml > defaults.
// The password is only ever read from NEO4J_PASSWORD.
func resolveConnection(flags connectionFlags, projectCfg *config.ProjectConfig) *neoload.ConnectionConfig {
	var yamlConn config.ConnectionConfig
	var yamlDatabase string
	if projectCfg != nil {
		yamlConn = projectCfg.Connection
		yamlDatabase = projectCfg.TargetDatabase()
	}

	return &neoload.ConnectionConfig{
		URI:            firstNonEmpty(flags.uri, os.Getenv(neoload.EnvURI), yamlConn.URI, neoload.DefaultURI),
		Username:       firstNonEmpty(flags.username, os.Getenv(neoload.EnvUsername), yamlConn.Username, neoload.DefaultUsername),
		Password:       os.Getenv(neoload.EnvPassword),
		Database:       firstNonEmpty(flags.database, os.Getenv(neoload.EnvDatabase), yamlDatabase),
		Encrypted:      flags.encrypted || yamlConn.Encrypted,
		MaxConnections: yamlConn.MaxConnections,
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// loadMergedParameters loads and merges parameters from all sources.
// Priority (highest to lowest): CLI params > params files > base.
func loadMergedParameters(
	base map[string]any,
	paramsFiles []string,
	cliParamPairs []string,
	logger neoload.Logger,
) (map[string]any, error) {
	layers := []map[string]any{base}

	for _, path := range paramsFiles {
		logger.Verbose("Loading parameters from file: %s", path)
		fileParams, err := params.LoadFile(path)
		if err != nil {
			if !errors.Is(err, neoload.ErrInvalidConfig) {
				err = fmt.Errorf("%w: %w", neoload.ErrInvalidConfig, err)
			}
			return nil, fmt.Errorf("%w\n\nTip: Verify the path and the file format (KEY=VALUE)", err)
		}
		layers = append(layers, fileParams)
	}

	cliParams, err := params.ParseKeyValuePairs(cliParamPairs)
	if err != nil {
		return nil, fmt.Errorf("invalid parameter format: %w", err)
	}
	if len(cliParams) > 0 {
		logger.Verbose("CLI parameters override %d value(s)", len(cliParams))
	}
	layers = append(layers, cliParams)

	return params.Merge(layers...), nil
}

// resolveEffectiveTimeout returns the effective timeout, preferring neoload.yaml if flag wasn't set.
func resolveEffectiveTimeout(
	cmd *cobra.Command,
	projectCfg *config.ProjectConfig,
	flagTimeout time.Duration,
) (time.Duration, error) {
	if projectCfg != nil && projectCfg.Timeout != "" && !cmd.Flags().Changed("timeout") {
		d, err := projectCfg.TimeoutDuration()
		if err != nil || d > 0 {
			return d, err
		}
	}
	if flagTimeout <= 0 {
		return 0, fmt.Errorf("--timeout must be positive: %w", neoload.ErrInvalidConfig)
	}
	return flagTimeout, nil
}

// loadProjectConfig loads godotenv and project configuration.
// Returns nil config if neoload.yaml does not exist (not an error).
func loadProjectConfig(sourcePath string) (*config.ProjectConfig, error) {
	_ = godotenv.Load()

	projectCfg, err := config.Load(sourcePath)
	if err != nil {
		if errors.Is(err, config.ErrConfigNotFound) {
			return nil, nil
		}
		if !errors.Is(err, neoload.ErrInvalidConfig) {
			err = fmt.Errorf("%w: %w", neoload.ErrInvalidConfig, err)
		}
		return nil, fmt.Errorf("failed to load %s: %w", config.ConfigFileName, err)
	}
	return projectCfg, nil
}

// buildSourceOpener creates the data source opener. postgres: data files
// are enabled when neoload.yaml has a sources.postgres section. The
// returned closer releases the PostgreSQL pool.
func buildSourceOpener(projectCfg *config.ProjectConfig, logger neoload.Logger) (*source.Opener, io.Closer, error) {
	if projectCfg == nil || projectCfg.Sources.Postgres == nil {
		return source.NewOpener(logger), nopCloser{}, nil
	}

	pg := projectCfg.Sources.Postgres
	method, err := db.ParseAuthMethod(pg.AuthMethod)
	if err != nil {
		return nil, nil, err
	}

	connector, err := db.NewConnector(&db.Config{
		ConnString:        pg.Connection,
		AuthMethod:        method,
		AWSRegion:         pg.AWSRegion,
		GoogleInstance:    pg.GoogleInstance,
		AzureTenantID:     pg.AzureTenantID,
		AzureClientID:     pg.AzureClientID,
		AzureClientSecret: os.Getenv("AZURE_CLIENT_SECRET"),
	}, logger)
	if err != nil {
		return nil, nil, err
	}

	logger.Verbose("PostgreSQL source enabled (auth: %s)", method)
	pgSource := db.NewSource(connector, logger)
	return source.NewOpener(logger, source.WithPostgres(pgSource)), pgSource, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// newCommandContext returns a context bounded by timeout and cancelled on
// SIGINT or SIGTERM.
func newCommandContext(timeout time.Duration, what string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case <-sigChan:
			fmt.Fprintf(os.Stderr, "\n[INTERRUPT] Received interrupt signal, cancelling %s...\n", what)
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigChan)
		cancel()
	}
}
