package services

import (
	"context"
	"fmt"

	"github.com/vvka-141/neoload/pkg/neoload"
)

// GraphService offers the one-call read and write helpers: a query string
// in, a table or counters out. Bulk loads are delegated to a LoadService.
type GraphService struct {
	sessions neoload.SessionFactory
	loader   *LoadService
	logger   neoload.Logger
}

// NewGraphService creates a GraphService.
// Panics if any dependency is nil.
func NewGraphService(sessions neoload.SessionFactory, loader *LoadService, logger neoload.Logger) *GraphService {
	if sessions == nil {
		panic("sessions cannot be nil")
	}
	if loader == nil {
		panic("loader cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &GraphService{sessions: sessions, loader: loader, logger: logger}
}

// ExecuteRead runs query in a read transaction on database.
func (s *GraphService) ExecuteRead(ctx context.Context, query, database string, params map[string]any) (*neoload.Table, error) {
	session, err := s.sessions.OpenSession(ctx, database, neoload.AccessModeRead)
	if err != nil {
		return nil, fmt.Errorf("failed to open session: %w", err)
	}
	defer session.Close(ctx)

	table, err := session.ExecuteRead(ctx, neoload.Statement{Query: query, Params: params})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", neoload.ErrQueryFailed, neoload.PreviewQuery(query), err)
	}
	s.logger.Verbose("Read query returned %d rows", len(table.Rows))
	return table, nil
}

// ExecuteWriteQuery runs a single write query and returns its counters.
func (s *GraphService) ExecuteWriteQuery(ctx context.Context, query, database string, params map[string]any) (neoload.Counters, error) {
	return s.ExecuteWriteQueries(ctx, []string{query}, database, params)
}

// ExecuteWriteQueries runs queries in order on one session, each in its own
// transaction, and returns the summed counters. It stops at the first failure;
// queries already committed stay committed and their counters are returned.
func (s *GraphService) ExecuteWriteQueries(ctx context.Context, queries []string, database string, params map[string]any) (neoload.Counters, error) {
	var total neoload.Counters
	if len(queries) == 0 {
		return total, nil
	}

	session, err := s.sessions.OpenSession(ctx, database, neoload.AccessModeWrite)
	if err != nil {
		return total, fmt.Errorf("failed to open session: %w", err)
	}
	defer session.Close(ctx)

	for i, q := range queries {
		counters, err := session.ExecuteWrite(ctx, []neoload.Statement{{Query: q, Params: params}})
		if err != nil {
			return total, fmt.Errorf("%w: query %d (%s): %w", neoload.ErrQueryFailed, i, neoload.PreviewQuery(q), err)
		}
		total = total.Add(neoload.SumCounters(counters...))
	}
	s.logger.Verbose("✓ %d write queries (%s)", len(queries), total)
	return total, nil
}

// ExecuteWriteQueryWithData bulk-loads data through a single query.
func (s *GraphService) ExecuteWriteQueryWithData(ctx context.Context, query string, req neoload.LoadRequest) (*neoload.LoadResult, error) {
	req.Queries = []string{query}
	return s.loader.Run(ctx, req)
}

// ExecuteWriteQueriesWithData bulk-loads data through an ordered query list.
func (s *GraphService) ExecuteWriteQueriesWithData(ctx context.Context, queries []string, req neoload.LoadRequest) (*neoload.LoadResult, error) {
	req.Queries = queries
	return s.loader.Run(ctx, req)
}
