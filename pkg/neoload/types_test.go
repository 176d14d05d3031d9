package neoload_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/neoload/pkg/neoload"
)

func TestLoadRequest_Validate(t *testing.T) {
	valid := func() neoload.LoadRequest {
		return neoload.LoadRequest{Queries: []string{"UNWIND $rows AS row MERGE (:N {id: row.id})"}, Partitions: 1}
	}

	tests := []struct {
		name    string
		mutate  func(r *neoload.LoadRequest)
		wantErr bool
	}{
		{"valid", func(r *neoload.LoadRequest) {}, false},
		{"parallel with default workers", func(r *neoload.LoadRequest) { r.Parallel = true; r.Partitions = 8 }, false},
		{"zero partitions", func(r *neoload.LoadRequest) { r.Partitions = 0 }, true},
		{"negative partitions", func(r *neoload.LoadRequest) { r.Partitions = -3 }, true},
		{"negative workers", func(r *neoload.LoadRequest) { r.Workers = -1 }, true},
		{"no queries", func(r *neoload.LoadRequest) { r.Queries = nil }, true},
		{"empty query", func(r *neoload.LoadRequest) { r.Queries = append(r.Queries, "") }, true},
		{"reserved parameter", func(r *neoload.LoadRequest) { r.Parameters = map[string]any{"rows": 1} }, true},
		{"other parameters", func(r *neoload.LoadRequest) { r.Parameters = map[string]any{"batch": 1} }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid()
			tt.mutate(&req)
			err := req.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, neoload.ErrInvalidConfig)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadRequest_ValidateReportsEveryProblem(t *testing.T) {
	req := neoload.LoadRequest{Partitions: 0, Workers: -1}
	err := req.Validate()
	require.Error(t, err)

	var joined interface{ Unwrap() []error }
	require.True(t, errors.As(err, &joined))
	assert.Len(t, joined.Unwrap(), 3)
}

func TestMergeParameters(t *testing.T) {
	rows := []neoload.Row{{"id": 1}, {"id": 2}}
	extra := map[string]any{"label": "Person"}

	params, err := neoload.MergeParameters(rows, extra)
	require.NoError(t, err)
	assert.Equal(t, rows, params[neoload.RowsParameter])
	assert.Equal(t, "Person", params["label"])
	assert.Len(t, extra, 1, "extra parameters must not be modified")

	_, err = neoload.MergeParameters(rows, map[string]any{neoload.RowsParameter: "x"})
	assert.ErrorIs(t, err, neoload.ErrInvalidConfig)

	params, err = neoload.MergeParameters(nil, nil)
	require.NoError(t, err)
	assert.Contains(t, params, neoload.RowsParameter)
}

func TestLoadResult_Add(t *testing.T) {
	a := neoload.LoadResult{LoadID: "a", Counters: neoload.Counters{NodesCreated: 2}, Partitions: 2, Succeeded: 2, Rows: 4}
	b := neoload.LoadResult{LoadID: "b", Counters: neoload.Counters{NodesCreated: 1}, Partitions: 1, Succeeded: 0, Rows: 0}

	sum := a.Add(b)
	assert.Equal(t, "a", sum.LoadID)
	assert.Equal(t, 3, sum.Counters.NodesCreated)
	assert.Equal(t, 3, sum.Partitions)
	assert.Equal(t, 2, sum.Succeeded)
	assert.Equal(t, 4, sum.Rows)
}

func TestTable(t *testing.T) {
	table := &neoload.Table{Columns: []string{"name", "age"}, Rows: [][]any{{"Ada", int64(36)}}}

	assert.Equal(t, 1, table.Column("age"))
	assert.Equal(t, -1, table.Column("missing"))
	assert.Equal(t, "Ada", table.Value(0, "name"))
	assert.Nil(t, table.Value(1, "name"))
	assert.Equal(t, []map[string]any{{"name": "Ada", "age": int64(36)}}, table.Records())
}

func TestConnectionConfig(t *testing.T) {
	tests := []struct {
		name      string
		cfg       neoload.ConnectionConfig
		wantErr   bool
		effective string
	}{
		{"default", neoload.ConnectionConfig{URI: "neo4j://localhost:7687"}, false, "neo4j://localhost:7687"},
		{"encrypted neo4j", neoload.ConnectionConfig{URI: "neo4j://db:7687", Encrypted: true}, false, "neo4j+s://db:7687"},
		{"encrypted bolt", neoload.ConnectionConfig{URI: "bolt://db:7687", Encrypted: true}, false, "bolt+s://db:7687"},
		{"already secure", neoload.ConnectionConfig{URI: "neo4j+s://db", Encrypted: true}, false, "neo4j+s://db"},
		{"missing", neoload.ConnectionConfig{}, true, ""},
		{"wrong scheme", neoload.ConnectionConfig{URI: "http://db:7474"}, true, "http://db:7474"},
		{"no host", neoload.ConnectionConfig{URI: "neo4j://"}, true, "neo4j://"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, neoload.ErrInvalidConfig)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.effective, tt.cfg.EffectiveURI())
		})
	}
}
