package source

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/vvka-141/neoload/pkg/neoload"
)

// csvRows reads delimited text with a header line. Every value is a string;
// missing trailing cells are "". Records with more fields than the header
// are dropped.
type csvRows struct {
	r       *csv.Reader
	header  []string
	logger  neoload.Logger
	dropped int
}

func newCSVRows(in io.Reader, sep rune, skip int, logger neoload.Logger) (*csvRows, error) {
	r := csv.NewReader(in)
	r.Comma = sep
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	c := &csvRows{r: r, logger: logger}

	header, err := r.Read()
	if err == io.EOF {
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("csv header: %w: %w", neoload.ErrSourceFailed, err)
	}
	c.header = make([]string, len(header))
	for i, h := range header {
		c.header[i] = strings.TrimSpace(h)
	}

	for i := 0; i < skip; i++ {
		if _, err := r.Read(); err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("csv: %w: %w", neoload.ErrSourceFailed, err)
		}
	}
	return c, nil
}

func (c *csvRows) next() (neoload.Row, error) {
	if c.header == nil {
		return nil, io.EOF
	}
	for {
		rec, err := c.r.Read()
		if err == io.EOF {
			if c.dropped > 0 {
				c.logger.Info("Dropped %d malformed CSV record(s) with more than %d fields", c.dropped, len(c.header))
				c.dropped = 0
			}
			return nil, io.EOF
		}
		if err != nil {
			return nil, fmt.Errorf("csv: %w: %w", neoload.ErrSourceFailed, err)
		}
		if len(rec) > len(c.header) {
			line, _ := c.r.FieldPos(0)
			c.logger.Verbose("Skipping line %d: expected %d fields, saw %d", line, len(c.header), len(rec))
			c.dropped++
			continue
		}

		row := make(neoload.Row, len(c.header))
		for i, col := range c.header {
			if i < len(rec) {
				row[col] = rec[i]
			} else {
				row[col] = ""
			}
		}
		return row, nil
	}
}

func (c *csvRows) columns([]neoload.Row) []string {
	return c.header
}
