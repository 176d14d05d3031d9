package graphdb

import (
	"context"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/vvka-141/neoload/pkg/neoload"
)

type session struct {
	session neo4j.SessionWithContext
}

// ExecuteWrite runs every statement inside one managed write transaction.
// The driver retries the whole transaction function on transient errors,
// so the counters are only gathered from the attempt that committed.
func (s *session) ExecuteWrite(ctx context.Context, statements []neoload.Statement) ([]neoload.Counters, error) {
	out, err := s.session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		counters := make([]neoload.Counters, 0, len(statements))
		for _, stmt := range statements {
			result, err := tx.Run(ctx, stmt.Query, driverParams(stmt.Params))
			if err != nil {
				return nil, err
			}
			summary, err := result.Consume(ctx)
			if err != nil {
				return nil, err
			}
			counters = append(counters, fromDriverCounters(summary.Counters()))
		}
		return counters, nil
	})
	if err != nil {
		return nil, err
	}
	return out.([]neoload.Counters), nil
}

func (s *session) ExecuteRead(ctx context.Context, stmt neoload.Statement) (*neoload.Table, error) {
	out, err := s.session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, stmt.Query, driverParams(stmt.Params))
		if err != nil {
			return nil, err
		}
		keys, err := result.Keys()
		if err != nil {
			return nil, err
		}
		records, err := result.Collect(ctx)
		if err != nil {
			return nil, err
		}

		table := &neoload.Table{Columns: keys, Rows: make([][]any, len(records))}
		for i, rec := range records {
			row := make([]any, len(rec.Values))
			for j, v := range rec.Values {
				row[j] = fromDriverValue(v)
			}
			table.Rows[i] = row
		}
		return table, nil
	})
	if err != nil {
		return nil, err
	}
	return out.(*neoload.Table), nil
}

func (s *session) Close(ctx context.Context) error {
	return s.session.Close(ctx)
}

func fromDriverCounters(c neo4j.Counters) neoload.Counters {
	return neoload.Counters{
		NodesCreated:         c.NodesCreated(),
		NodesDeleted:         c.NodesDeleted(),
		RelationshipsCreated: c.RelationshipsCreated(),
		RelationshipsDeleted: c.RelationshipsDeleted(),
		PropertiesSet:        c.PropertiesSet(),
		LabelsAdded:          c.LabelsAdded(),
		LabelsRemoved:        c.LabelsRemoved(),
		IndexesAdded:         c.IndexesAdded(),
		IndexesRemoved:       c.IndexesRemoved(),
		ConstraintsAdded:     c.ConstraintsAdded(),
		ConstraintsRemoved:   c.ConstraintsRemoved(),
		SystemUpdates:        c.SystemUpdates(),
	}
}

// driverParams converts row slices into the []any form the packstream
// encoder handles without reflection.
func driverParams(params map[string]any) map[string]any {
	if params == nil {
		return nil
	}
	out := make(map[string]any, len(params))
	for k, v := range params {
		if rows, ok := v.([]neoload.Row); ok {
			list := make([]any, len(rows))
			for i, r := range rows {
				list[i] = map[string]any(r)
			}
			out[k] = list
			continue
		}
		out[k] = v
	}
	return out
}

// Layouts for temporal values without a zone or a date.
const (
	localTimeLayout     = "15:04:05.999999999"
	localDateTimeLayout = "2006-01-02T15:04:05.999999999"
	offsetTimeLayout    = "15:04:05.999999999Z07:00"
)

// fromDriverValue flattens graph entities and temporal values into plain
// values for display, descending into lists and maps.
func fromDriverValue(v any) any {
	switch x := v.(type) {
	case neo4j.Node:
		m := map[string]any{"_labels": x.Labels}
		for k, p := range x.Props {
			m[k] = fromDriverValue(p)
		}
		return m
	case neo4j.Relationship:
		m := map[string]any{"_type": x.Type}
		for k, p := range x.Props {
			m[k] = fromDriverValue(p)
		}
		return m
	case neo4j.Path:
		nodes := make([]any, len(x.Nodes))
		for i, n := range x.Nodes {
			nodes[i] = fromDriverValue(n)
		}
		rels := make([]any, len(x.Relationships))
		for i, r := range x.Relationships {
			rels[i] = fromDriverValue(r)
		}
		return map[string]any{"_nodes": nodes, "_relationships": rels}
	case time.Time:
		return x.Format(time.RFC3339Nano)
	case neo4j.Date:
		return x.Time().Format(time.DateOnly)
	case neo4j.LocalTime:
		return x.Time().Format(localTimeLayout)
	case neo4j.LocalDateTime:
		return x.Time().Format(localDateTimeLayout)
	case neo4j.Time:
		return x.Time().Format(offsetTimeLayout)
	case neo4j.Duration:
		return x.String()
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = fromDriverValue(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = fromDriverValue(e)
		}
		return out
	default:
		return v
	}
}
