package neoload

import "time"

// Exit codes for semantic error classification.
// These follow Unix/GNU conventions:
//   - 0: Success
//   - 1: General error
//   - 2: CLI usage error (misuse of command line)
//   - 3+: Application-specific errors
const (
	ExitSuccess         = 0  // Command completed successfully
	ExitGeneralError    = 1  // Unknown or unclassified error
	ExitUsageError      = 2  // CLI usage error (missing args, invalid flags)
	ExitPanic           = 3  // Internal panic (unexpected crash)
	ExitConfigError     = 10 // Invalid configuration or parameters
	ExitConnectionError = 11 // Failed to connect to the graph database
	ExitLoadFailed      = 13 // One or more partitions or queries failed
	ExitSourceError     = 14 // Data source could not be read
)

// RowsParameter is the reserved query parameter under which a partition's
// rows are bound. Queries typically start with UNWIND $rows AS row.
const RowsParameter = "rows"

const (
	// DefaultURI is used when neither flags, environment nor neoload.yaml name a server.
	DefaultURI = "neo4j://localhost:7687"

	// DefaultUsername is the stock Neo4j administrator account.
	DefaultUsername = "neo4j"

	// DefaultChunkSize is the number of rows read from a data file before
	// they are handed to the load orchestrator as one dataset.
	DefaultChunkSize = 1000

	// DefaultPartitions is the partition count when none is requested.
	DefaultPartitions = 1

	// DefaultFieldSeparator is the CSV field separator.
	DefaultFieldSeparator = ","

	// DefaultTimeout bounds a whole CLI invocation.
	DefaultTimeout = 30 * time.Minute

	// DefaultRetryInitialDelay is the default initial delay before the first retry attempt.
	DefaultRetryInitialDelay = 100 * time.Millisecond

	// DefaultRetryMaxDelay is the default maximum delay between retry attempts.
	DefaultRetryMaxDelay = 30 * time.Second

	// DefaultRetryMaxAttempts is the default maximum number of retry attempts.
	DefaultRetryMaxAttempts = 3

	// MaxErrorPreviewLength is the maximum number of characters of a query
	// shown in error messages.
	MaxErrorPreviewLength = 200
)

// Environment variables consulted for connection settings.
const (
	EnvURI      = "NEO4J_URI"
	EnvUsername = "NEO4J_USER"
	EnvPassword = "NEO4J_PASSWORD"
	EnvDatabase = "NEO4J_DATABASE"
)
