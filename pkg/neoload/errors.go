package neoload

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"
)

// Sentinel errors for common failure scenarios.
// These enable callers to distinguish error types using errors.Is().
//
// Example usage:
//
//	result, err := loader.Run(ctx, req)
//	if errors.Is(err, neoload.ErrLoadFailed) {
//	    var loadErr *neoload.LoadError
//	    errors.As(err, &loadErr)
//	    // loadErr.Result holds the counters of the partitions that succeeded
//	}
var (
	// ErrInvalidConfig indicates the provided configuration or load request is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrConnectionFailed indicates the graph database could not be reached.
	ErrConnectionFailed = errors.New("connection failed")

	// ErrLoadFailed indicates at least one partition of a load failed.
	ErrLoadFailed = errors.New("load failed")

	// ErrQueryFailed indicates a standalone read or write query failed.
	ErrQueryFailed = errors.New("query failed")

	// ErrUnsupportedSource indicates a data file URL scheme that cannot be read.
	ErrUnsupportedSource = errors.New("unsupported data source")

	// ErrUnsupportedFormat indicates a data file format, compression or encoding that cannot be decoded.
	ErrUnsupportedFormat = errors.New("unsupported data format")

	// ErrSourceFailed indicates a data source could not be opened or decoded.
	ErrSourceFailed = errors.New("data source failed")

	// ErrUnsupportedAuthMethod indicates the requested authentication method is not supported.
	ErrUnsupportedAuthMethod = errors.New("unsupported authentication method")
)

// PartitionError records the failure of a single partition's chunk load.
type PartitionError struct {
	// Index is the zero-based partition index.
	Index int
	// Rows is the number of rows the partition held.
	Rows int
	Err  error
}

func (e *PartitionError) Error() string {
	return fmt.Sprintf("partition %d (%d rows): %v", e.Index, e.Rows, e.Err)
}

func (e *PartitionError) Unwrap() error {
	return e.Err
}

// LoadError is returned when one or more partitions of a load failed.
// Result carries the summed counters of every partition that succeeded,
// so callers can report partial progress.
type LoadError struct {
	Failures []*PartitionError
	Result   LoadResult
}

func (e *LoadError) Error() string {
	if len(e.Failures) == 1 {
		return fmt.Sprintf("load failed: %v", e.Failures[0])
	}
	var b strings.Builder
	fmt.Fprintf(&b, "load failed: %d partitions failed", len(e.Failures))
	for _, f := range e.Failures {
		b.WriteString("\n  ")
		b.WriteString(f.Error())
	}
	return b.String()
}

// Unwrap exposes every partition failure so errors.As can reach driver errors.
func (e *LoadError) Unwrap() []error {
	errs := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		errs[i] = f
	}
	return errs
}

// Is reports ErrLoadFailed for any LoadError.
func (e *LoadError) Is(target error) bool {
	return target == ErrLoadFailed
}

// FailedIndexes returns the indexes of the failed partitions in ascending order.
func (e *LoadError) FailedIndexes() []int {
	idx := make([]int, len(e.Failures))
	for i, f := range e.Failures {
		idx[i] = f.Index
	}
	sort.Ints(idx)
	return idx
}

// ExitCodeForError returns the appropriate exit code for an error.
// Returns ExitSuccess (0) for nil errors, semantic codes for known errors,
// and ExitGeneralError (1) for unclassified errors.
func ExitCodeForError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	switch {
	case errors.Is(err, ErrInvalidConfig):
		return ExitConfigError
	case errors.Is(err, ErrUnsupportedAuthMethod):
		return ExitConfigError
	case errors.Is(err, ErrConnectionFailed):
		return ExitConnectionError
	case errors.Is(err, ErrLoadFailed), errors.Is(err, ErrQueryFailed):
		return ExitLoadFailed
	case errors.Is(err, ErrUnsupportedSource),
		errors.Is(err, ErrUnsupportedFormat),
		errors.Is(err, ErrSourceFailed):
		return ExitSourceError
	}

	errStr := err.Error()

	// Cobra reports usage problems as plain errors.
	for _, p := range []string{"unknown flag", "unknown shorthand flag", "unknown command",
		"accepts ", "requires at least", "required flag", "invalid argument",
		"missing required argument"} {
		if strings.Contains(errStr, p) {
			return ExitUsageError
		}
	}

	if strings.Contains(errStr, "failed to connect") ||
		strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "no such host") {
		return ExitConnectionError
	}

	return ExitGeneralError
}

// PreviewQuery shortens a query for error messages.
func PreviewQuery(query string) string {
	q := strings.Join(strings.Fields(query), " ")
	if utf8.RuneCountInString(q) <= MaxErrorPreviewLength {
		return q
	}
	return string([]rune(q)[:MaxErrorPreviewLength]) + "..."
}
