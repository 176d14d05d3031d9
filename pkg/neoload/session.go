package neoload

import "context"

// AccessMode selects the routing of a session.
type AccessMode int

const (
	AccessModeWrite AccessMode = iota
	AccessModeRead
)

func (m AccessMode) String() string {
	if m == AccessModeRead {
		return "read"
	}
	return "write"
}

// Statement is a query with its parameters.
type Statement struct {
	Query  string
	Params map[string]any
}

// Table is the tabular result of a read query.
type Table struct {
	Columns []string
	Rows    [][]any
}

// Column returns the index of the named column, or -1.
func (t *Table) Column(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Value returns the cell at row for the named column, or nil if either is out of range.
func (t *Table) Value(row int, column string) any {
	col := t.Column(column)
	if col < 0 || row < 0 || row >= len(t.Rows) || col >= len(t.Rows[row]) {
		return nil
	}
	return t.Rows[row][col]
}

// Records returns every row as a column-keyed map.
func (t *Table) Records() []map[string]any {
	out := make([]map[string]any, len(t.Rows))
	for i, r := range t.Rows {
		rec := make(map[string]any, len(t.Columns))
		for j, c := range t.Columns {
			if j < len(r) {
				rec[c] = r[j]
			}
		}
		out[i] = rec
	}
	return out
}

// Session is a database session bound to one database.
// A Session is not safe for concurrent use; open one per goroutine.
type Session interface {
	// ExecuteWrite runs the statements in order inside one managed write
	// transaction and returns the counters of each statement. Any failure
	// rolls the whole transaction back.
	ExecuteWrite(ctx context.Context, statements []Statement) ([]Counters, error)

	// ExecuteRead runs a query inside a managed read transaction.
	ExecuteRead(ctx context.Context, statement Statement) (*Table, error)

	Close(ctx context.Context) error
}

// SessionFactory opens sessions. Implementations must be safe for concurrent use.
type SessionFactory interface {
	// OpenSession opens a session on database (empty for the server default).
	OpenSession(ctx context.Context, database string, mode AccessMode) (Session, error)
}
