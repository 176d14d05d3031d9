package source

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"github.com/vvka-141/neoload/pkg/neoload"
)

// jsonRows reads either one top-level array of objects or a stream of
// objects (NDJSON). Numbers become int64 when integral, float64 otherwise.
type jsonRows struct {
	dec   *json.Decoder
	array bool
	done  bool
}

func newJSONRows(in io.Reader, skip int) (*jsonRows, error) {
	br := bufio.NewReader(in)
	first, err := peekNonSpace(br)
	if err == io.EOF {
		return &jsonRows{done: true}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("json: %w: %w", neoload.ErrSourceFailed, err)
	}

	dec := json.NewDecoder(br)
	dec.UseNumber()
	j := &jsonRows{dec: dec}

	switch first {
	case '[':
		if _, err := dec.Token(); err != nil {
			return nil, fmt.Errorf("json: %w: %w", neoload.ErrSourceFailed, err)
		}
		j.array = true
	case '{':
	default:
		return nil, fmt.Errorf("json must be an array of objects or a stream of objects, found %q: %w", first, neoload.ErrUnsupportedFormat)
	}

	for i := 0; i < skip; i++ {
		if _, err := j.next(); err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}
	}
	return j, nil
}

func peekNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		}
		return b, br.UnreadByte()
	}
}

func (j *jsonRows) next() (neoload.Row, error) {
	if j.done {
		return nil, io.EOF
	}
	if j.array && !j.dec.More() {
		j.done = true
		return nil, io.EOF
	}

	var obj map[string]any
	if err := j.dec.Decode(&obj); err != nil {
		if err == io.EOF && !j.array {
			j.done = true
			return nil, io.EOF
		}
		return nil, fmt.Errorf("json record: %w: %w", neoload.ErrSourceFailed, err)
	}
	if obj == nil {
		return nil, fmt.Errorf("json record is not an object: %w", neoload.ErrSourceFailed)
	}

	row := make(neoload.Row, len(obj))
	for k, v := range obj {
		row[k] = normalizeJSON(v)
	}
	return row, nil
}

func (j *jsonRows) columns(rows []neoload.Row) []string {
	return unionColumns(rows)
}

func normalizeJSON(v any) any {
	switch val := v.(type) {
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return i
		}
		f, _ := val.Float64()
		return f
	case []any:
		for i := range val {
			val[i] = normalizeJSON(val[i])
		}
		return val
	case map[string]any:
		for k := range val {
			val[k] = normalizeJSON(val[k])
		}
		return val
	default:
		return v
	}
}
