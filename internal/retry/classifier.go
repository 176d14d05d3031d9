package retry

import (
	"errors"
	"net"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Neo4jErrorClassifier treats driver connectivity failures, retryable
// server errors and transient network errors as transient.
type Neo4jErrorClassifier struct{}

func NewNeo4jErrorClassifier() *Neo4jErrorClassifier {
	return &Neo4jErrorClassifier{}
}

func (c *Neo4jErrorClassifier) IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var neoErr *neo4j.Neo4jError
	if errors.As(err, &neoErr) {
		// Security errors will not heal by waiting.
		if strings.HasPrefix(neoErr.Code, "Neo.ClientError.Security.") {
			return false
		}
		return strings.HasPrefix(neoErr.Code, "Neo.TransientError.") || neo4j.IsRetryable(err)
	}

	var connErr *neo4j.ConnectivityError
	if errors.As(err, &connErr) || neo4j.IsRetryable(err) {
		return true
	}

	return isNetworkError(err)
}

// PostgreSQLErrorClassifier recognizes transient PostgreSQL conditions by SQLSTATE class.
// See https://www.postgresql.org/docs/current/errcodes-appendix.html
type PostgreSQLErrorClassifier struct{}

func NewPostgreSQLErrorClassifier() *PostgreSQLErrorClassifier {
	return &PostgreSQLErrorClassifier{}
}

func (c *PostgreSQLErrorClassifier) IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case strings.HasPrefix(pgErr.Code, "08"), // connection exception
			strings.HasPrefix(pgErr.Code, "53"), // insufficient resources
			strings.HasPrefix(pgErr.Code, "57"): // operator intervention
			return true
		}
		switch pgErr.Code {
		case "40001", "40P01", "55P03":
			return true
		}
		return false
	}

	return isNetworkError(err)
}

var transientPatterns = []string{
	"connection refused",
	"connection reset",
	"connection timeout",
	"no such host",
	"network is unreachable",
	"i/o timeout",
	"broken pipe",
	"server closed the connection",
	"unexpected eof",
}

func isNetworkError(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.Temporary() || dnsErr.Timeout()
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if opErr.Timeout() {
			return true
		}
		for _, errno := range []syscall.Errno{syscall.ECONNREFUSED, syscall.ECONNRESET, syscall.ENETUNREACH, syscall.EHOSTUNREACH} {
			if errors.Is(opErr.Err, errno) {
				return true
			}
		}
	}

	msg := strings.ToLower(err.Error())
	for _, p := range transientPatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}
