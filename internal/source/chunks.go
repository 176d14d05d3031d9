package source

import (
	"context"
	"io"
	"sort"

	"github.com/vvka-141/neoload/pkg/neoload"
)

// rowSource yields rows one at a time and io.EOF at the end.
type rowSource interface {
	next() (neoload.Row, error)

	// columns returns the column names of rows, in order.
	columns(rows []neoload.Row) []string
}

// chunkReader groups rows of a rowSource into datasets of at most size rows.
type chunkReader struct {
	rows    rowSource
	size    int
	closers []io.Closer
	done    bool
}

func (c *chunkReader) Next(ctx context.Context) (*neoload.Dataset, error) {
	if c.done {
		return nil, io.EOF
	}

	chunk := make([]neoload.Row, 0, c.size)
	for len(chunk) < c.size {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row, err := c.rows.next()
		if err == io.EOF {
			c.done = true
			break
		}
		if err != nil {
			return nil, err
		}
		chunk = append(chunk, row)
	}

	if len(chunk) == 0 {
		return nil, io.EOF
	}
	return &neoload.Dataset{Columns: c.rows.columns(chunk), Rows: chunk}, nil
}

func (c *chunkReader) Close() error {
	return closeAll(c.closers)
}

// unionColumns returns every key used by rows, sorted.
func unionColumns(rows []neoload.Row) []string {
	seen := make(map[string]struct{})
	for _, r := range rows {
		for k := range r {
			seen[k] = struct{}{}
		}
	}
	cols := make([]string, 0, len(seen))
	for k := range seen {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return cols
}
