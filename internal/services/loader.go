package services

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/vvka-141/neoload/internal/partition"
	"github.com/vvka-141/neoload/pkg/neoload"
)

// errOpenSession marks partitions that failed before their chunk load ran.
var errOpenSession = errors.New("failed to open session")

// PartitionOutcome reports one finished partition to a LoadObserver.
type PartitionOutcome struct {
	LoadID   string
	Index    int
	Rows     int
	Worker   int
	Counters neoload.Counters
	Err      error
}

// LoadObserver is notified as partitions finish. Calls are serialized.
type LoadObserver interface {
	OnPartitionDone(outcome PartitionOutcome)
}

// LoadObserverFunc adapts a function to LoadObserver.
type LoadObserverFunc func(PartitionOutcome)

func (f LoadObserverFunc) OnPartitionDone(o PartitionOutcome) { f(o) }

// LoadService orchestrates partitioned bulk loads.
//
// Sequential loads use one session and stop at the first failed partition.
// Parallel loads shard partitions round-robin over a fixed pool of workers,
// each with its own session; a failing partition never stops its siblings
// and every failure is reported together once the pool has drained.
//
// Thread-Safety: Run may be called concurrently.
type LoadService struct {
	sessions        neoload.SessionFactory
	chunks          *ChunkLoader
	logger          neoload.Logger
	observer        LoadObserver
	hostParallelism func() int
}

// NewLoadService creates a LoadService.
// Panics if sessions or logger is nil.
func NewLoadService(sessions neoload.SessionFactory, logger neoload.Logger) *LoadService {
	if sessions == nil {
		panic("sessions cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &LoadService{
		sessions:        sessions,
		chunks:          NewChunkLoader(logger),
		logger:          logger,
		hostParallelism: runtime.NumCPU,
	}
}

// WithObserver returns a copy of the service reporting partition outcomes to observer.
func (s *LoadService) WithObserver(observer LoadObserver) *LoadService {
	clone := *s
	clone.observer = observer
	return &clone
}

// Run validates req and loads its dataset.
//
// On partition failures the returned error is a *neoload.LoadError and the
// returned result still holds the counters of the partitions that committed.
// Invalid requests fail with neoload.ErrInvalidConfig before any session is opened.
func (s *LoadService) Run(ctx context.Context, req neoload.LoadRequest) (*neoload.LoadResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	started := time.Now()
	result := &neoload.LoadResult{LoadID: uuid.NewString()}

	parts := partition.Split(req.Data, req.Partitions)
	if len(parts) == 0 {
		s.logger.Verbose("Load %s: empty dataset, nothing to do", result.LoadID)
		return result, nil
	}

	var failures []*neoload.PartitionError
	if req.Parallel {
		workers := s.poolSize(req.Workers, len(parts))
		s.logger.Verbose("Load %s: %d rows in %d partitions, parallel with %d workers",
			result.LoadID, req.Data.Len(), len(parts), workers)
		failures = s.runParallel(ctx, req, parts, workers, result)
	} else {
		s.logger.Verbose("Load %s: %d rows in %d partitions, sequential",
			result.LoadID, req.Data.Len(), len(parts))
		failures = s.runSequential(ctx, req, parts, result)
	}
	result.Duration = time.Since(started)

	if len(failures) > 0 {
		sort.Slice(failures, func(i, j int) bool { return failures[i].Index < failures[j].Index })
		for _, f := range failures {
			s.logger.Error("Load %s: %v", result.LoadID, f)
		}
		return result, &neoload.LoadError{Failures: failures, Result: *result}
	}

	s.logger.Verbose("✓ Load %s: %d partitions in %v (%s)",
		result.LoadID, result.Partitions, result.Duration.Round(time.Millisecond), result.Counters)
	return result, nil
}

func (s *LoadService) poolSize(requested, partitions int) int {
	workers := requested
	if workers == 0 {
		workers = s.hostParallelism()
	}
	return max(1, min(workers, partitions))
}

func (s *LoadService) runSequential(
	ctx context.Context,
	req neoload.LoadRequest,
	parts []partition.Partition,
	result *neoload.LoadResult,
) []*neoload.PartitionError {
	session, err := s.sessions.OpenSession(ctx, req.Database, neoload.AccessModeWrite)
	if err != nil {
		failure := s.sessionFailure(parts[0], err)
		s.record(result, PartitionOutcome{LoadID: result.LoadID, Index: parts[0].Index, Rows: parts[0].Len(), Err: failure})
		return []*neoload.PartitionError{failure}
	}
	defer s.closeSession(ctx, session)

	for _, part := range parts {
		counters, err := s.chunks.Load(ctx, session, req.Queries, part, req.Parameters)
		outcome := PartitionOutcome{LoadID: result.LoadID, Index: part.Index, Rows: part.Len(), Counters: counters, Err: err}
		s.record(result, outcome)
		if err != nil {
			return []*neoload.PartitionError{asPartitionError(part, err)}
		}
	}
	return nil
}

func (s *LoadService) runParallel(
	ctx context.Context,
	req neoload.LoadRequest,
	parts []partition.Partition,
	workers int,
	result *neoload.LoadResult,
) []*neoload.PartitionError {
	shards := make([][]partition.Partition, workers)
	for i, part := range parts {
		shards[i%workers] = append(shards[i%workers], part)
	}

	loadID := result.LoadID
	outcomes := make(chan PartitionOutcome, len(parts))
	collected := make(chan []*neoload.PartitionError)
	go func() {
		var failures []*neoload.PartitionError
		for outcome := range outcomes {
			s.record(result, outcome)
			if outcome.Err != nil {
				failures = append(failures, outcome.Err.(*neoload.PartitionError))
			}
		}
		collected <- failures
	}()

	// No group context and workers always return nil: one worker's failure
	// must not cancel the others. Errors travel with their outcome on the
	// channel so every failed partition is reported, not just the first.
	var g errgroup.Group
	for w, shard := range shards {
		g.Go(func() error {
			s.runShard(ctx, req, w, shard, loadID, outcomes)
			return nil
		})
	}
	_ = g.Wait()
	close(outcomes)

	return <-collected
}

func (s *LoadService) runShard(
	ctx context.Context,
	req neoload.LoadRequest,
	worker int,
	shard []partition.Partition,
	loadID string,
	outcomes chan<- PartitionOutcome,
) {
	session, err := s.sessions.OpenSession(ctx, req.Database, neoload.AccessModeWrite)
	if err != nil {
		for _, part := range shard {
			outcomes <- PartitionOutcome{LoadID: loadID, Index: part.Index, Rows: part.Len(), Worker: worker, Err: s.sessionFailure(part, err)}
		}
		return
	}
	defer s.closeSession(ctx, session)

	for _, part := range shard {
		counters, err := s.chunks.Load(ctx, session, req.Queries, part, req.Parameters)
		outcome := PartitionOutcome{LoadID: loadID, Index: part.Index, Rows: part.Len(), Worker: worker, Counters: counters}
		if err != nil {
			outcome.Err = asPartitionError(part, err)
		}
		outcomes <- outcome
	}
}

// record folds an outcome into result and notifies the observer.
// It is only ever called from one goroutine at a time. Partitions whose
// session never opened are reported but not counted as completed.
func (s *LoadService) record(result *neoload.LoadResult, outcome PartitionOutcome) {
	if !errors.Is(outcome.Err, errOpenSession) {
		result.Partitions++
	}
	if outcome.Err == nil {
		result.Succeeded++
		result.Rows += outcome.Rows
		result.Counters = result.Counters.Add(outcome.Counters)
	}
	if s.observer != nil {
		s.observer.OnPartitionDone(outcome)
	}
}

func (s *LoadService) sessionFailure(part partition.Partition, err error) *neoload.PartitionError {
	return &neoload.PartitionError{
		Index: part.Index,
		Rows:  part.Len(),
		Err:   fmt.Errorf("%w: %w", errOpenSession, err),
	}
}

func (s *LoadService) closeSession(ctx context.Context, session neoload.Session) {
	if err := session.Close(ctx); err != nil {
		s.logger.Verbose("Failed to close session: %v", err)
	}
}

func asPartitionError(part partition.Partition, err error) *neoload.PartitionError {
	if pe, ok := err.(*neoload.PartitionError); ok {
		return pe
	}
	return &neoload.PartitionError{Index: part.Index, Rows: part.Len(), Err: err}
}
