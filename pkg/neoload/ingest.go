package neoload

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// SourceSpec describes where and how to read a dataset.
type SourceSpec struct {
	// URL is a local path, file://, http(s)://, s3:// or postgres: URL.
	URL string

	// Format overrides detection from the URL extension (csv, txt, json, ndjson).
	Format string

	// Compression overrides detection from the URL extension (gz, zip, tgz, none).
	Compression string

	FieldSeparator string
	SkipRecords    int
	Encoding       string

	// SQL is the query to run for postgres: sources.
	SQL string
}

// ChunkReader yields a dataset in consecutive chunks.
type ChunkReader interface {
	// Next returns the next chunk, or io.EOF when the source is exhausted.
	Next(ctx context.Context) (*Dataset, error)
	Close() error
}

// SourceOpener opens chunked readers for data sources.
type SourceOpener interface {
	Open(ctx context.Context, spec SourceSpec, chunkSize int) (ChunkReader, error)
}

// FileLoad is one data file of an ingest plan.
type FileLoad struct {
	Source     SourceSpec
	Queries    []string
	ChunkSize  int
	Partitions int
	Parallel   bool
	Workers    int
	Parameters map[string]any
}

// IngestPlan is a complete ingest: setup queries, data files, then cleanup queries.
type IngestPlan struct {
	Database   string
	PreIngest  []string
	Files      []FileLoad
	PostIngest []string

	// Parameters apply to every query and are overridden per file.
	Parameters map[string]any
}

// Validate checks every data file with the rules of LoadRequest.Validate so
// that a bad file fails the ingest before pre_ingest touches the database.
func (p *IngestPlan) Validate() error {
	var errs []error
	for _, f := range p.Files {
		req := LoadRequest{
			Queries:    f.Queries,
			Partitions: f.Partitions,
			Parallel:   f.Parallel,
			Workers:    f.Workers,
			Parameters: f.Parameters,
		}
		if err := req.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", f.Source.URL, err))
		}
	}
	if err := CheckReservedParameters(p.Parameters); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// FileReport summarizes the load of one data file.
type FileReport struct {
	URL    string
	Chunks int
	Result LoadResult
	Err    error
}

// IngestReport summarizes a whole ingest.
type IngestReport struct {
	PreIngest  Counters
	Files      []FileReport
	PostIngest Counters
	Duration   time.Duration
}

// Total sums every counter of the ingest.
func (r *IngestReport) Total() Counters {
	total := r.PreIngest.Add(r.PostIngest)
	for _, f := range r.Files {
		total = total.Add(f.Result.Counters)
	}
	return total
}
