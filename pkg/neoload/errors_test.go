package neoload_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/vvka-141/neoload/pkg/neoload"
)

func TestExitCodeForError(t *testing.T) {
	loadErr := &neoload.LoadError{Failures: []*neoload.PartitionError{{Index: 1, Err: errors.New("boom")}}}

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil error", nil, neoload.ExitSuccess},
		{"unknown flag", errors.New("unknown flag --foo"), neoload.ExitUsageError},
		{"accepts args", errors.New("accepts 1 arg(s), received 0"), neoload.ExitUsageError},
		{"invalid config", fmt.Errorf("partitions: %w", neoload.ErrInvalidConfig), neoload.ExitConfigError},
		{"connection failed", neoload.ErrConnectionFailed, neoload.ExitConnectionError},
		{"connection refused text", errors.New("dial tcp: connection refused"), neoload.ExitConnectionError},
		{"load error", fmt.Errorf("chunk 0: %w", loadErr), neoload.ExitLoadFailed},
		{"query failed", neoload.ErrQueryFailed, neoload.ExitLoadFailed},
		{"unsupported source", neoload.ErrUnsupportedSource, neoload.ExitSourceError},
		{"general error", errors.New("something went wrong"), neoload.ExitGeneralError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := neoload.ExitCodeForError(tt.err); got != tt.want {
				t.Errorf("ExitCodeForError(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

type driverError struct{ code string }

func (e *driverError) Error() string { return e.code }

func TestLoadError_UnwrapsEveryFailure(t *testing.T) {
	first := &driverError{code: "Neo.ClientError.Schema.ConstraintValidationFailed"}
	second := errors.New("timeout")

	err := &neoload.LoadError{
		Failures: []*neoload.PartitionError{
			{Index: 3, Rows: 10, Err: second},
			{Index: 0, Rows: 10, Err: first},
		},
		Result: neoload.LoadResult{Counters: neoload.Counters{NodesCreated: 20}},
	}

	if !errors.Is(err, neoload.ErrLoadFailed) {
		t.Error("LoadError should match ErrLoadFailed")
	}
	if !errors.Is(err, second) {
		t.Error("LoadError should unwrap to each partition cause")
	}

	var de *driverError
	if !errors.As(err, &de) || de != first {
		t.Error("errors.As should reach the driver error")
	}

	var pe *neoload.PartitionError
	if !errors.As(err, &pe) {
		t.Fatal("errors.As should reach a PartitionError")
	}

	if got := err.FailedIndexes(); len(got) != 2 || got[0] != 0 || got[1] != 3 {
		t.Errorf("FailedIndexes() = %v, want [0 3]", got)
	}

	msg := err.Error()
	if !strings.Contains(msg, "2 partitions failed") || !strings.Contains(msg, "partition 3 (10 rows): timeout") {
		t.Errorf("unexpected message %q", msg)
	}
}

func TestLoadError_SingleFailureMessage(t *testing.T) {
	err := &neoload.LoadError{Failures: []*neoload.PartitionError{{Index: 2, Rows: 5, Err: errors.New("boom")}}}
	if got, want := err.Error(), "load failed: partition 2 (5 rows): boom"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestPreviewQuery(t *testing.T) {
	if got := neoload.PreviewQuery("MATCH (n)\n   RETURN n"); got != "MATCH (n) RETURN n" {
		t.Errorf("PreviewQuery collapsed whitespace wrong: %q", got)
	}
	long := strings.Repeat("x", neoload.MaxErrorPreviewLength+10)
	if got := neoload.PreviewQuery(long); len(got) != neoload.MaxErrorPreviewLength+3 {
		t.Errorf("PreviewQuery should truncate, got length %d", len(got))
	}
}

func TestPreviewQuery_KeepsMultibyteCharactersWhole(t *testing.T) {
	// Pad with one ASCII byte so a byte cut would land inside a character.
	long := "x" + strings.Repeat("é", neoload.MaxErrorPreviewLength)
	got := neoload.PreviewQuery(long)

	if !utf8.ValidString(got) {
		t.Fatalf("PreviewQuery returned invalid UTF-8: %q", got)
	}
	if n := utf8.RuneCountInString(got); n != neoload.MaxErrorPreviewLength+3 {
		t.Errorf("PreviewQuery should keep %d characters plus ellipsis, got %d", neoload.MaxErrorPreviewLength, n)
	}
	if !strings.HasSuffix(got, "é...") {
		t.Errorf("PreviewQuery should end with a whole character, got suffix %q", got[len(got)-5:])
	}

	short := "MATCH (p:Person {name: 'Zoë'}) RETURN p"
	if got := neoload.PreviewQuery(short); got != short {
		t.Errorf("PreviewQuery changed a short query: %q", got)
	}
}
