package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/neoload/pkg/neoload"
)

const sampleConfig = `
Connection:
  URI: neo4j://graph.internal:7687
  Username: loader
  Database: movies
queries:
  merge_person: MERGE (p:Person {id: row.id}) SET p.name = row.name
  merge_movie: MERGE (m:Movie {id: row.id})
pre_ingest:
  - CREATE CONSTRAINT person_id IF NOT EXISTS FOR (p:Person) REQUIRE p.id IS UNIQUE
Files:
  - URL: people.csv
    Cypher: merge_person
    Chunk_Size: 500
    Partitions: 4
    Parallel: true
  - url: s3://bucket/movies.json.gz
    cypher: [merge_movie, "MATCH (m:Movie) SET m.loaded = true"]
  - url: old.csv
    cypher: merge_person
    skip_file: true
post_ingest: MATCH (n) WHERE n.tmp IS NOT NULL REMOVE n.tmp
params:
  source: nightly
timeout: 10m
`

func TestLoad(t *testing.T) {
	t.Run("reads neoload.yaml from directory", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(sampleConfig), 0644))

		cfg, err := Load(dir)
		require.NoError(t, err)
		assert.Equal(t, "neo4j://graph.internal:7687", cfg.Connection.URI)
		assert.Equal(t, "loader", cfg.Connection.Username)
		assert.Equal(t, "movies", cfg.TargetDatabase())
		require.Len(t, cfg.Files, 3)
		assert.Equal(t, 500, cfg.Files[0].ChunkSize)
		assert.Equal(t, QueryList{"merge_person"}, cfg.Files[0].Cypher)
		assert.Len(t, cfg.Files[1].Cypher, 2)
		assert.True(t, cfg.Files[2].SkipFile)
		assert.Equal(t, "nightly", cfg.Params["source"])
	})

	t.Run("accepts a file path", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "custom.yaml")
		require.NoError(t, os.WriteFile(path, []byte(sampleConfig), 0644))

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Len(t, cfg.Files, 3)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(t.TempDir())
		assert.ErrorIs(t, err, ErrConfigNotFound)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte("files: [\n"), 0644))

		_, err := Load(dir)
		assert.ErrorIs(t, err, neoload.ErrInvalidConfig)
	})
}

func TestParse_MissingKeys(t *testing.T) {
	_, err := Parse([]byte("files:\n  - chunk_size: 10\n"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingKeys)
	assert.ErrorIs(t, err, neoload.ErrInvalidConfig)
	assert.Contains(t, err.Error(), "url,cypher")

	_, err = Parse([]byte("files:\n  - URL: a.csv\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cypher")
	assert.NotContains(t, err.Error(), "url,")
}

func TestParse_Empty(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Empty(t, cfg.Files)
}

func TestRequireKeys(t *testing.T) {
	assert.NoError(t, RequireKeys([]byte("URL: x\ncypher: y\n"), "url", "cypher"))

	err := RequireKeys([]byte("other: 1\n"), "a", "b")
	require.ErrorIs(t, err, ErrMissingKeys)
	assert.Contains(t, err.Error(), "a,b")
}

func TestResolveQueries(t *testing.T) {
	cfg := &ProjectConfig{Queries: map[string]string{"q": "RETURN 1"}}

	got, err := cfg.ResolveQueries(QueryList{"q", "MATCH (n) RETURN n"})
	require.NoError(t, err)
	assert.Equal(t, []string{"RETURN 1", "MATCH (n) RETURN n"}, got)

	_, err = cfg.ResolveQueries(QueryList{"typo"})
	require.Error(t, err)
	assert.ErrorIs(t, err, neoload.ErrInvalidConfig)
	assert.Contains(t, err.Error(), "typo")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     ProjectConfig
		wantErr string
	}{
		{
			name: "valid",
			cfg:  ProjectConfig{Files: []DataFile{{URL: "a.csv", Cypher: QueryList{"RETURN 1"}}}},
		},
		{
			name:    "bad timeout",
			cfg:     ProjectConfig{Timeout: "soon"},
			wantErr: "invalid timeout",
		},
		{
			name:    "reserved parameter",
			cfg:     ProjectConfig{Params: map[string]any{neoload.RowsParameter: 1}},
			wantErr: "params",
		},
		{
			name:    "negative chunk size",
			cfg:     ProjectConfig{Files: []DataFile{{URL: "a.csv", Cypher: QueryList{"RETURN 1"}, ChunkSize: -1}}},
			wantErr: "chunk_size",
		},
		{
			name:    "postgres without sql",
			cfg:     ProjectConfig{Files: []DataFile{{URL: "postgres:people", Cypher: QueryList{"RETURN 1"}}}},
			wantErr: "sql",
		},
		{
			name:    "unknown pre_ingest query",
			cfg:     ProjectConfig{PreIngest: QueryList{"nope"}},
			wantErr: "pre_ingest",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.True(t, errors.Is(err, neoload.ErrInvalidConfig))
		})
	}
}

func TestTimeoutDuration(t *testing.T) {
	cfg := &ProjectConfig{Timeout: "90s"}
	d, err := cfg.TimeoutDuration()
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, d)

	d, err = (&ProjectConfig{}).TimeoutDuration()
	require.NoError(t, err)
	assert.Zero(t, d)
}

func TestPlan(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(sampleConfig), 0644))
	cfg, err := Load(dir)
	require.NoError(t, err)

	t.Run("defaults", func(t *testing.T) {
		plan, err := cfg.Plan(PlanOptions{})
		require.NoError(t, err)

		assert.Equal(t, "movies", plan.Database)
		assert.Len(t, plan.PreIngest, 1)
		assert.Len(t, plan.PostIngest, 1)
		require.Len(t, plan.Files, 2, "skip_file entries are left out")

		people := plan.Files[0]
		assert.Equal(t, filepath.Join(dir, "people.csv"), people.Source.URL)
		assert.Equal(t, []string{"MERGE (p:Person {id: row.id}) SET p.name = row.name"}, people.Queries)
		assert.Equal(t, 4, people.Partitions)
		assert.True(t, people.Parallel)

		movies := plan.Files[1]
		assert.Equal(t, "s3://bucket/movies.json.gz", movies.Source.URL)
		assert.Equal(t, 1, movies.Partitions)
		assert.Len(t, movies.Queries, 2)

		assert.Equal(t, "nightly", plan.Parameters["source"])
	})

	t.Run("overrides", func(t *testing.T) {
		parts, parallel := 8, false
		plan, err := cfg.Plan(PlanOptions{
			Only:          []string{"movies.json.gz"},
			SkipPreIngest: true,
			Partitions:    &parts,
			Parallel:      &parallel,
			Parameters:    map[string]any{"source": "manual"},
		})
		require.NoError(t, err)

		assert.Empty(t, plan.PreIngest)
		require.Len(t, plan.Files, 1)
		assert.Equal(t, 8, plan.Files[0].Partitions)
		assert.False(t, plan.Files[0].Parallel)
		assert.Equal(t, "manual", plan.Parameters["source"])
	})

	t.Run("unknown file filter", func(t *testing.T) {
		_, err := cfg.Plan(PlanOptions{Only: []string{"missing.csv"}})
		assert.ErrorIs(t, err, neoload.ErrInvalidConfig)
	})

	t.Run("invalid overrides", func(t *testing.T) {
		intPtr := func(v int) *int { return &v }
		tests := []struct {
			name    string
			opts    PlanOptions
			wantMsg string
		}{
			{"zero partitions", PlanOptions{Partitions: intPtr(0)}, "partitions must be >= 1, got 0"},
			{"negative partitions", PlanOptions{Partitions: intPtr(-3)}, "partitions must be >= 1, got -3"},
			{"negative workers", PlanOptions{Workers: intPtr(-2)}, "workers cannot be negative, got -2"},
			{"reserved parameter", PlanOptions{Parameters: map[string]any{neoload.RowsParameter: 1}}, neoload.RowsParameter},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := cfg.Plan(tt.opts)
				require.Error(t, err)
				assert.ErrorIs(t, err, neoload.ErrInvalidConfig)
				assert.Contains(t, err.Error(), tt.wantMsg)
			})
		}
	})

	t.Run("zero workers means all CPUs", func(t *testing.T) {
		workers := 0
		plan, err := cfg.Plan(PlanOptions{Workers: &workers})
		require.NoError(t, err)
		assert.Equal(t, 0, plan.Files[0].Workers)
	})
}
