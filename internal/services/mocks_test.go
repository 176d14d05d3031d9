package services

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/vvka-141/neoload/pkg/neoload"
)

type nopLogger struct{}

func (nopLogger) Verbose(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})    {}
func (nopLogger) Error(string, ...interface{})   {}

// mockSessionFactory hands out mockSessions that share its behaviour and call log.
type mockSessionFactory struct {
	mu sync.Mutex

	openErr error

	// write computes the counters of one statement. Defaults to one node per row.
	write func(stmt neoload.Statement) (neoload.Counters, error)
	read  func(stmt neoload.Statement) (*neoload.Table, error)

	opened       int
	closed       int
	transactions [][]neoload.Statement
	modes        []neoload.AccessMode
	databases    []string
}

func (f *mockSessionFactory) OpenSession(_ context.Context, database string, mode neoload.AccessMode) (neoload.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.openErr != nil {
		return nil, f.openErr
	}
	f.opened++
	f.modes = append(f.modes, mode)
	f.databases = append(f.databases, database)
	return &mockSession{factory: f}, nil
}

func (f *mockSessionFactory) committed() [][]neoload.Statement {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]neoload.Statement(nil), f.transactions...)
}

type mockSession struct {
	factory *mockSessionFactory
}

func (s *mockSession) ExecuteWrite(_ context.Context, statements []neoload.Statement) ([]neoload.Counters, error) {
	write := s.factory.write
	if write == nil {
		write = nodePerRow
	}

	out := make([]neoload.Counters, 0, len(statements))
	for _, stmt := range statements {
		c, err := write(stmt)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}

	s.factory.mu.Lock()
	s.factory.transactions = append(s.factory.transactions, statements)
	s.factory.mu.Unlock()
	return out, nil
}

func (s *mockSession) ExecuteRead(_ context.Context, stmt neoload.Statement) (*neoload.Table, error) {
	if s.factory.read == nil {
		return &neoload.Table{}, nil
	}
	return s.factory.read(stmt)
}

func (s *mockSession) Close(context.Context) error {
	s.factory.mu.Lock()
	s.factory.closed++
	s.factory.mu.Unlock()
	return nil
}

func rowsOf(stmt neoload.Statement) []neoload.Row {
	rows, _ := stmt.Params[neoload.RowsParameter].([]neoload.Row)
	return rows
}

func nodePerRow(stmt neoload.Statement) (neoload.Counters, error) {
	return neoload.Counters{NodesCreated: len(rowsOf(stmt))}, nil
}

// failRowsWithID fails any statement whose partition contains one of ids.
func failRowsWithID(cause error, ids ...int) func(neoload.Statement) (neoload.Counters, error) {
	return func(stmt neoload.Statement) (neoload.Counters, error) {
		for _, row := range rowsOf(stmt) {
			for _, id := range ids {
				if row["id"] == id {
					return neoload.Counters{}, cause
				}
			}
		}
		return nodePerRow(stmt)
	}
}

func dataset(n int) *neoload.Dataset {
	d := &neoload.Dataset{Columns: []string{"id"}}
	for i := 0; i < n; i++ {
		d.Rows = append(d.Rows, neoload.Row{"id": i})
	}
	return d
}

// sliceOpener serves pre-chunked datasets keyed by URL.
type sliceOpener struct {
	chunks  map[string][]*neoload.Dataset
	openErr error
	sizes   []int
}

func (o *sliceOpener) Open(_ context.Context, spec neoload.SourceSpec, chunkSize int) (neoload.ChunkReader, error) {
	if o.openErr != nil {
		return nil, o.openErr
	}
	o.sizes = append(o.sizes, chunkSize)
	chunks, ok := o.chunks[spec.URL]
	if !ok {
		return nil, errors.New("no such source")
	}
	return &sliceReader{chunks: chunks}, nil
}

type sliceReader struct {
	chunks []*neoload.Dataset
	next   int
}

func (r *sliceReader) Next(context.Context) (*neoload.Dataset, error) {
	if r.next >= len(r.chunks) {
		return nil, io.EOF
	}
	r.next++
	return r.chunks[r.next-1], nil
}

func (r *sliceReader) Close() error { return nil }
