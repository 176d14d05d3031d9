// Package testinfra starts throwaway database containers for integration tests.
package testinfra

import (
	"context"
	"fmt"
	"time"

	"github.com/testcontainers/testcontainers-go"
	tcneo4j "github.com/testcontainers/testcontainers-go/modules/neo4j"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	Neo4jImage    = "neo4j:5.26"
	Neo4jUser     = "neo4j"
	Neo4jPassword = "neoload-test"

	PostgresImage    = "postgres:17-alpine"
	PostgresUser     = "postgres"
	PostgresPassword = "postgres"
	PostgresDB       = "postgres"
)

type Neo4jContainer struct {
	*tcneo4j.Neo4jContainer
	BoltURL string
}

// StartNeo4j runs a Neo4j server with the APOC plugin enabled.
func StartNeo4j(ctx context.Context) (*Neo4jContainer, error) {
	ctr, err := tcneo4j.Run(ctx,
		Neo4jImage,
		tcneo4j.WithAdminPassword(Neo4jPassword),
		tcneo4j.WithLabsPlugin(tcneo4j.Apoc),
	)
	if err != nil {
		return nil, fmt.Errorf("start neo4j: %w", err)
	}

	url, err := ctr.BoltUrl(ctx)
	if err != nil {
		ctr.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("get bolt url: %w", err)
	}

	return &Neo4jContainer{Neo4jContainer: ctr, BoltURL: url}, nil
}

type PostgresContainer struct {
	*postgres.PostgresContainer
	ConnString string
}

func StartPostgres(ctx context.Context) (*PostgresContainer, error) {
	ctr, err := postgres.Run(ctx,
		PostgresImage,
		postgres.WithUsername(PostgresUser),
		postgres.WithPassword(PostgresPassword),
		postgres.WithDatabase(PostgresDB),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("start postgres: %w", err)
	}

	connStr, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		ctr.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("get connection string: %w", err)
	}

	return &PostgresContainer{PostgresContainer: ctr, ConnString: connStr}, nil
}
