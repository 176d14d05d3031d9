package neoload

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Row is one record of a dataset, keyed by column name.
type Row = map[string]any

// Dataset is an ordered, homogeneous table of rows.
// It is treated as read-only for the duration of a load.
type Dataset struct {
	Columns []string
	Rows    []Row
}

// Len returns the number of rows.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Rows)
}

// LoadRequest describes one partitioned bulk load.
type LoadRequest struct {
	// Queries run in order, once per partition, inside that partition's transaction.
	// They are re-run whole on a reload, so they should be idempotent (MERGE based).
	Queries []string

	// Data is the dataset to partition. A nil or empty dataset is a no-op.
	Data *Dataset

	// Database is the target database; empty selects the server default.
	Database string

	// Partitions is the number of partitions to split Data into. Must be >= 1.
	Partitions int

	// Parallel fans the partitions out across a worker pool.
	Parallel bool

	// Workers caps the pool size in parallel mode. 0 selects the host parallelism.
	Workers int

	// Parameters are extra query parameters constant across partitions.
	// The key RowsParameter is reserved.
	Parameters map[string]any
}

// Validate checks the request before any database call is made.
// It returns a multi-error if multiple validation failures occur.
func (r *LoadRequest) Validate() error {
	var errs []error

	if len(r.Queries) == 0 {
		errs = append(errs, fmt.Errorf("at least one query is required: %w", ErrInvalidConfig))
	}
	for i, q := range r.Queries {
		if strings.TrimSpace(q) == "" {
			errs = append(errs, fmt.Errorf("query %d is empty: %w", i, ErrInvalidConfig))
		}
	}

	if r.Partitions < 1 {
		errs = append(errs, fmt.Errorf("partitions must be >= 1, got %d: %w", r.Partitions, ErrInvalidConfig))
	}

	if r.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers cannot be negative, got %d: %w", r.Workers, ErrInvalidConfig))
	}

	if err := CheckReservedParameters(r.Parameters); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// LoadResult summarizes a completed (or partially completed) load.
type LoadResult struct {
	// LoadID identifies the load in logs.
	LoadID string

	// Counters is the sum over every partition that succeeded.
	Counters Counters

	// Partitions is the number of partitions whose chunk load ran to an outcome,
	// success or failure. Partitions that never got a session are not counted.
	Partitions int

	// Succeeded is the number of partitions whose transaction committed.
	Succeeded int

	// Rows is the number of rows in committed partitions.
	Rows int

	Duration time.Duration
}

// Add merges another result into r. LoadID and Duration are left untouched.
func (r LoadResult) Add(o LoadResult) LoadResult {
	r.Counters = r.Counters.Add(o.Counters)
	r.Partitions += o.Partitions
	r.Succeeded += o.Succeeded
	r.Rows += o.Rows
	return r
}

// CheckReservedParameters fails if caller parameters collide with RowsParameter.
func CheckReservedParameters(params map[string]any) error {
	if _, ok := params[RowsParameter]; ok {
		return fmt.Errorf("parameter %q is reserved for partition rows: %w", RowsParameter, ErrInvalidConfig)
	}
	return nil
}

// MergeParameters builds the parameter map for one partition: the rows bound
// under RowsParameter plus every extra parameter. extra is not modified.
func MergeParameters(rows []Row, extra map[string]any) (map[string]any, error) {
	if err := CheckReservedParameters(extra); err != nil {
		return nil, err
	}
	params := make(map[string]any, len(extra)+1)
	for k, v := range extra {
		params[k] = v
	}
	params[RowsParameter] = rows
	return params, nil
}
