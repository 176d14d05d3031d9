package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/neoload/pkg/neoload"
)

func newGraphService(f *mockSessionFactory) *GraphService {
	return NewGraphService(f, NewLoadService(f, nopLogger{}), nopLogger{})
}

func TestGraphService_ExecuteRead(t *testing.T) {
	f := &mockSessionFactory{
		read: func(stmt neoload.Statement) (*neoload.Table, error) {
			return &neoload.Table{Columns: []string{"name"}, Rows: [][]any{{stmt.Params["name"]}}}, nil
		},
	}

	table, err := newGraphService(f).ExecuteRead(context.Background(), "RETURN $name AS name", "neo4j", map[string]any{"name": "Ada"})

	require.NoError(t, err)
	assert.Equal(t, "Ada", table.Value(0, "name"))
	assert.Equal(t, []neoload.AccessMode{neoload.AccessModeRead}, f.modes)
	assert.Equal(t, 1, f.closed)
}

func TestGraphService_ExecuteReadFailure(t *testing.T) {
	f := &mockSessionFactory{
		read: func(neoload.Statement) (*neoload.Table, error) { return nil, errors.New("syntax") },
	}
	_, err := newGraphService(f).ExecuteRead(context.Background(), "RETURN", "", nil)
	assert.ErrorIs(t, err, neoload.ErrQueryFailed)
}

func TestGraphService_ExecuteWriteQueriesSumsCounters(t *testing.T) {
	f := &mockSessionFactory{
		write: func(stmt neoload.Statement) (neoload.Counters, error) {
			return neoload.Counters{ConstraintsAdded: 1}, nil
		},
	}

	counters, err := newGraphService(f).ExecuteWriteQueries(context.Background(),
		[]string{"CREATE CONSTRAINT a", "CREATE CONSTRAINT b"}, "", nil)

	require.NoError(t, err)
	assert.Equal(t, map[string]int{"constraints_added": 2}, counters.Map())
	assert.Len(t, f.committed(), 2, "each query runs in its own transaction")
	assert.Equal(t, 1, f.opened)
}

func TestGraphService_ExecuteWriteQueriesStopsAtFailure(t *testing.T) {
	f := &mockSessionFactory{
		write: func(stmt neoload.Statement) (neoload.Counters, error) {
			if stmt.Query == "bad" {
				return neoload.Counters{}, errors.New("boom")
			}
			return neoload.Counters{NodesCreated: 1}, nil
		},
	}

	counters, err := newGraphService(f).ExecuteWriteQueries(context.Background(), []string{"ok", "bad", "never"}, "", nil)

	assert.ErrorIs(t, err, neoload.ErrQueryFailed)
	assert.Equal(t, 1, counters.NodesCreated)
	assert.Len(t, f.committed(), 1)
}

func TestGraphService_ExecuteWriteQuery(t *testing.T) {
	f := &mockSessionFactory{
		write: func(neoload.Statement) (neoload.Counters, error) {
			return neoload.Counters{NodesCreated: 1, PropertiesSet: 2, LabelsAdded: 1}, nil
		},
	}
	counters, err := newGraphService(f).ExecuteWriteQuery(context.Background(), "CREATE (:A {x: 1, y: 2})", "", nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"nodes_created": 1, "properties_set": 2, "labels_added": 1}, counters.Map())
}

func TestGraphService_WithDataDelegatesToLoader(t *testing.T) {
	f := &mockSessionFactory{}
	svc := newGraphService(f)

	result, err := svc.ExecuteWriteQueryWithData(context.Background(), createPerson, neoload.LoadRequest{
		Data: dataset(7), Partitions: 2, Parallel: true, Workers: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, 7, result.Counters.NodesCreated)

	result, err = svc.ExecuteWriteQueriesWithData(context.Background(), []string{createPerson, createPerson}, neoload.LoadRequest{
		Data: dataset(3), Partitions: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, 6, result.Counters.NodesCreated)
}
