// Package testing holds helpers shared by integration tests.
package testing

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/vvka-141/neoload/internal/testinfra"
	"github.com/vvka-141/neoload/pkg/neoload"
)

var (
	neo4jOnce sync.Once
	neo4jURL  string
	neo4jErr  error

	postgresOnce sync.Once
	postgresConn string
	postgresErr  error
)

// SkipIfShort skips the test if running in short mode (-short flag).
func SkipIfShort(t *testing.T) {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
}

// RequireNeo4j returns connection settings for a test Neo4j server.
// Priority: NEOLOAD_TEST_NEO4J_URI env var > auto-started testcontainer > skip test.
// With the env var set, NEOLOAD_TEST_NEO4J_PASSWORD supplies the password.
func RequireNeo4j(t *testing.T) *neoload.ConnectionConfig {
	t.Helper()
	SkipIfShort(t)

	if uri := os.Getenv("NEOLOAD_TEST_NEO4J_URI"); uri != "" {
		return &neoload.ConnectionConfig{
			URI:      uri,
			Username: testinfra.Neo4jUser,
			Password: os.Getenv("NEOLOAD_TEST_NEO4J_PASSWORD"),
		}
	}

	neo4jOnce.Do(func() {
		ctr, err := testinfra.StartNeo4j(context.Background())
		if err != nil {
			neo4jErr = err
			return
		}
		neo4jURL = ctr.BoltURL
	})
	if neo4jErr != nil {
		t.Skipf("NEOLOAD_TEST_NEO4J_URI not set and Docker unavailable: %v", neo4jErr)
	}

	return &neoload.ConnectionConfig{
		URI:      neo4jURL,
		Username: testinfra.Neo4jUser,
		Password: testinfra.Neo4jPassword,
	}
}

// RequirePostgres returns a connection string for a test PostgreSQL server.
// Priority: NEOLOAD_TEST_PG_CONN env var > auto-started testcontainer > skip test.
func RequirePostgres(t *testing.T) string {
	t.Helper()
	SkipIfShort(t)

	if conn := os.Getenv("NEOLOAD_TEST_PG_CONN"); conn != "" {
		return conn
	}

	postgresOnce.Do(func() {
		ctr, err := testinfra.StartPostgres(context.Background())
		if err != nil {
			postgresErr = err
			return
		}
		postgresConn = ctr.ConnString
	})
	if postgresErr != nil {
		t.Skipf("NEOLOAD_TEST_PG_CONN not set and Docker unavailable: %v", postgresErr)
	}
	return postgresConn
}
