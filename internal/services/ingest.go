package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/vvka-141/neoload/pkg/neoload"
)

// IngestService runs an IngestPlan: pre-ingest queries, every data file in
// chunks through the LoadService, then post-ingest queries. The first
// failing step stops the ingest; the report keeps everything done so far.
type IngestService struct {
	graph    *GraphService
	loader   *LoadService
	sources  neoload.SourceOpener
	logger   neoload.Logger
	observer IngestObserver
}

// IngestObserver follows an ingest file by file and chunk by chunk.
type IngestObserver interface {
	OnFileStarted(index, total int, url string)
	OnChunkLoaded(url string, chunk int, result neoload.LoadResult)
}

// NewIngestService creates an IngestService.
// Panics if any dependency is nil.
func NewIngestService(graph *GraphService, loader *LoadService, sources neoload.SourceOpener, logger neoload.Logger) *IngestService {
	if graph == nil {
		panic("graph cannot be nil")
	}
	if loader == nil {
		panic("loader cannot be nil")
	}
	if sources == nil {
		panic("sources cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &IngestService{graph: graph, loader: loader, sources: sources, logger: logger}
}

// WithObserver returns a copy of the service reporting progress to observer.
func (s *IngestService) WithObserver(observer IngestObserver) *IngestService {
	clone := *s
	clone.observer = observer
	return &clone
}

// Run executes plan and returns a report even when it fails part way.
func (s *IngestService) Run(ctx context.Context, plan neoload.IngestPlan) (*neoload.IngestReport, error) {
	started := time.Now()
	report := &neoload.IngestReport{}
	defer func() { report.Duration = time.Since(started) }()

	if err := plan.Validate(); err != nil {
		return report, err
	}

	if len(plan.PreIngest) > 0 {
		s.logger.Info("Running %d pre-ingest queries", len(plan.PreIngest))
		counters, err := s.graph.ExecuteWriteQueries(ctx, plan.PreIngest, plan.Database, plan.Parameters)
		report.PreIngest = counters
		if err != nil {
			return report, fmt.Errorf("pre-ingest failed: %w", err)
		}
		s.logger.Verbose("✓ Pre-ingest: %s", counters)
	}

	for i, file := range plan.Files {
		s.logger.Info("Loading %s (%d/%d)", file.Source.URL, i+1, len(plan.Files))
		if s.observer != nil {
			s.observer.OnFileStarted(i, len(plan.Files), file.Source.URL)
		}
		fr := s.loadFile(ctx, plan, file)
		report.Files = append(report.Files, fr)
		if fr.Err != nil {
			return report, fmt.Errorf("loading %s: %w", file.Source.URL, fr.Err)
		}
		s.logger.Info("✓ %s: %d rows in %d chunks (%s)", file.Source.URL, fr.Result.Rows, fr.Chunks, fr.Result.Counters)
	}

	if len(plan.PostIngest) > 0 {
		s.logger.Info("Running %d post-ingest queries", len(plan.PostIngest))
		counters, err := s.graph.ExecuteWriteQueries(ctx, plan.PostIngest, plan.Database, plan.Parameters)
		report.PostIngest = counters
		if err != nil {
			return report, fmt.Errorf("post-ingest failed: %w", err)
		}
		s.logger.Verbose("✓ Post-ingest: %s", counters)
	}

	return report, nil
}

func (s *IngestService) loadFile(ctx context.Context, plan neoload.IngestPlan, file neoload.FileLoad) neoload.FileReport {
	fr := neoload.FileReport{URL: file.Source.URL}

	chunkSize := file.ChunkSize
	if chunkSize <= 0 {
		chunkSize = neoload.DefaultChunkSize
	}

	params := make(map[string]any, len(plan.Parameters)+len(file.Parameters))
	for k, v := range plan.Parameters {
		params[k] = v
	}
	for k, v := range file.Parameters {
		params[k] = v
	}

	reader, err := s.sources.Open(ctx, file.Source, chunkSize)
	if err != nil {
		fr.Err = err
		return fr
	}
	defer reader.Close()

	for {
		chunk, err := reader.Next(ctx)
		if errors.Is(err, io.EOF) {
			return fr
		}
		if err != nil {
			fr.Err = fmt.Errorf("reading chunk %d: %w", fr.Chunks, err)
			return fr
		}

		result, err := s.loader.Run(ctx, neoload.LoadRequest{
			Queries:    file.Queries,
			Data:       chunk,
			Database:   plan.Database,
			Partitions: file.Partitions,
			Parallel:   file.Parallel,
			Workers:    file.Workers,
			Parameters: params,
		})
		if result != nil {
			fr.Result = fr.Result.Add(*result)
			if s.observer != nil {
				s.observer.OnChunkLoaded(file.Source.URL, fr.Chunks, *result)
			}
		}
		fr.Chunks++
		if err != nil {
			fr.Err = fmt.Errorf("chunk %d: %w", fr.Chunks-1, err)
			return fr
		}
	}
}
