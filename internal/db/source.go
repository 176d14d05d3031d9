package db

import (
	"context"
	"fmt"
	"io"
	"net/netip"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vvka-141/neoload/pkg/neoload"
)

// Source runs queries against one lazily opened PostgreSQL pool.
//
// Thread-Safety: Open may be called concurrently; each reader holds its own connection.
type Source struct {
	connector Connector
	logger    neoload.Logger

	mu   sync.Mutex
	pool *pgxpool.Pool
}

func NewSource(connector Connector, logger neoload.Logger) *Source {
	if connector == nil {
		panic("connector cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &Source{connector: connector, logger: logger}
}

// Open runs query and returns a reader yielding its rows chunkSize at a time.
func (s *Source) Open(ctx context.Context, query string, chunkSize int) (neoload.ChunkReader, error) {
	if chunkSize < 1 {
		return nil, fmt.Errorf("chunk size must be >= 1, got %d: %w", chunkSize, neoload.ErrInvalidConfig)
	}
	pool, err := s.connect(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query %q: %w: %w", neoload.PreviewQuery(query), neoload.ErrSourceFailed, err)
	}

	fields := rows.FieldDescriptions()
	columns := make([]string, len(fields))
	for i, f := range fields {
		columns[i] = f.Name
	}
	s.logger.Verbose("✓ Query returned columns %v", columns)
	return &queryReader{rows: rows, columns: columns, chunkSize: chunkSize}, nil
}

func (s *Source) connect(ctx context.Context) (*pgxpool.Pool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pool != nil {
		return s.pool, nil
	}
	pool, err := s.connector.Connect(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Verbose("✓ Connected to postgres")
	s.pool = pool
	return pool, nil
}

// Close closes the pool and releases connector resources.
func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pool != nil {
		s.pool.Close()
		s.pool = nil
	}
	if c, ok := s.connector.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

type queryReader struct {
	rows      pgx.Rows
	columns   []string
	chunkSize int
	done      bool
}

func (r *queryReader) Next(ctx context.Context) (*neoload.Dataset, error) {
	if r.done {
		return nil, io.EOF
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data := &neoload.Dataset{Columns: r.columns, Rows: make([]neoload.Row, 0, r.chunkSize)}
	for len(data.Rows) < r.chunkSize && r.rows.Next() {
		values, err := r.rows.Values()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", neoload.ErrSourceFailed, err)
		}
		row := make(neoload.Row, len(r.columns))
		for i, col := range r.columns {
			row[col] = normalizeValue(values[i])
		}
		data.Rows = append(data.Rows, row)
	}

	if len(data.Rows) < r.chunkSize {
		r.done = true
		if err := r.rows.Err(); err != nil {
			return nil, fmt.Errorf("%w: %w", neoload.ErrSourceFailed, err)
		}
		if len(data.Rows) == 0 {
			return nil, io.EOF
		}
	}
	return data, nil
}

func (r *queryReader) Close() error {
	r.rows.Close()
	return nil
}

// normalizeValue converts pgx values into types the graph driver accepts as
// parameters. bytea values stay []byte, which Neo4j stores as a byte array.
func normalizeValue(v any) any {
	switch val := v.(type) {
	case [16]byte:
		return uuid.UUID(val).String()
	case pgtype.Numeric:
		f, err := val.Float64Value()
		if err != nil || !f.Valid {
			return nil
		}
		return f.Float64
	case netip.Prefix:
		return val.String()
	case netip.Addr:
		return val.String()
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = normalizeValue(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, e := range val {
			out[k] = normalizeValue(e)
		}
		return out
	default:
		return v
	}
}
