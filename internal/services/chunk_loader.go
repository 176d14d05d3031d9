package services

import (
	"context"

	"github.com/vvka-141/neoload/internal/partition"
	"github.com/vvka-141/neoload/pkg/neoload"
)

// ChunkLoader writes one partition: every query of the list runs in order,
// bound to the partition's rows, inside a single write transaction.
type ChunkLoader struct {
	logger neoload.Logger
}

// NewChunkLoader creates a ChunkLoader.
// Panics if logger is nil.
func NewChunkLoader(logger neoload.Logger) *ChunkLoader {
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &ChunkLoader{logger: logger}
}

// Load executes queries against part using session and returns the summed
// counters of all queries. Failures are returned as *neoload.PartitionError;
// the transaction is rolled back, so a failed partition contributes nothing.
func (l *ChunkLoader) Load(
	ctx context.Context,
	session neoload.Session,
	queries []string,
	part partition.Partition,
	params map[string]any,
) (neoload.Counters, error) {
	merged, err := neoload.MergeParameters(part.Rows, params)
	if err != nil {
		return neoload.Counters{}, err
	}

	statements := make([]neoload.Statement, len(queries))
	for i, q := range queries {
		statements[i] = neoload.Statement{Query: q, Params: merged}
	}

	perQuery, err := session.ExecuteWrite(ctx, statements)
	if err != nil {
		return neoload.Counters{}, &neoload.PartitionError{Index: part.Index, Rows: part.Len(), Err: err}
	}

	total := neoload.SumCounters(perQuery...)
	l.logger.Verbose("✓ Partition %d: rows %d-%d (%s)", part.Index, part.Start, part.End-1, total)
	return total, nil
}
