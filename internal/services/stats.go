package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/vvka-141/neoload/pkg/neoload"
)

// ErrAPOCUnavailable indicates a statistics query needs the APOC plugin.
var ErrAPOCUnavailable = errors.New("APOC library not detected, install it before proceeding")

// StatKind names one of the exploratory statistics.
type StatKind string

const (
	StatLabels        StatKind = "labels"
	StatMultiLabels   StatKind = "multilabels"
	StatRelationships StatKind = "relationships"
	StatProperties    StatKind = "properties"
	StatConstraints   StatKind = "constraints"
	StatIndexes       StatKind = "indexes"
	StatPaths         StatKind = "paths"
)

// StatKinds lists every supported statistic in display order.
var StatKinds = []StatKind{StatLabels, StatMultiLabels, StatRelationships, StatProperties, StatConstraints, StatIndexes, StatPaths}

type statQuery struct {
	cypher string
	apoc   bool
}

var statQueries = map[StatKind]statQuery{
	StatLabels: {apoc: true, cypher: `
MATCH (n)
WITH count(*) AS nodeCount
CALL db.labels() YIELD label
CALL apoc.cypher.run('MATCH (:` + "`" + `' + label + '` + "`" + `) RETURN count(*) AS freq', {}) YIELD value
WITH nodeCount, label, value.freq AS freq
RETURN label AS nodeLabel,
       freq AS frequency,
       round(toFloat(freq) / toFloat(nodeCount) * 1000) / 1000 AS relativeFrequency
ORDER BY freq DESC`},
	StatMultiLabels: {cypher: `
MATCH (n)
WITH labels(n) AS nodeLabels
WHERE size(nodeLabels) > 1
RETURN nodeLabels, count(*) AS frequency`},
	StatRelationships: {apoc: true, cypher: `
MATCH ()-[]->()
WITH count(*) AS relCount
CALL db.relationshipTypes() YIELD relationshipType AS type
CALL apoc.cypher.run('MATCH ()-[:` + "`" + `' + type + '` + "`" + `]->() RETURN count(*) AS freq', {}) YIELD value
WITH type AS relationshipType, value.freq AS freq, relCount
RETURN relationshipType,
       freq AS frequency,
       round(toFloat(freq) / toFloat(relCount) * 1000) / 1000 AS relativeFrequency
ORDER BY freq DESC`},
	StatProperties: {apoc: true, cypher: `
CALL apoc.meta.data() YIELD label, property, type, elementType
WHERE type <> 'RELATIONSHIP'
RETURN elementType, label, property, type
ORDER BY elementType, label, property`},
	StatConstraints: {cypher: `SHOW CONSTRAINTS`},
	StatIndexes:     {cypher: `SHOW INDEXES`},
	StatPaths:       {apoc: true, cypher: `CALL apoc.meta.stats() YIELD relTypes`},
}

// ParseStatKind validates a statistic name.
func ParseStatKind(name string) (StatKind, error) {
	kind := StatKind(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := statQueries[kind]; !ok {
		names := make([]string, len(StatKinds))
		for i, k := range StatKinds {
			names[i] = string(k)
		}
		return "", fmt.Errorf("unknown statistic %q (expected one of %s): %w", name, strings.Join(names, ", "), neoload.ErrInvalidConfig)
	}
	return kind, nil
}

// StatsService runs exploratory schema statistics against a database.
type StatsService struct {
	graph *GraphService
}

// NewStatsService creates a StatsService.
// Panics if graph is nil.
func NewStatsService(graph *GraphService) *StatsService {
	if graph == nil {
		panic("graph cannot be nil")
	}
	return &StatsService{graph: graph}
}

// Get runs the statistic kind on database.
func (s *StatsService) Get(ctx context.Context, kind StatKind, database string) (*neoload.Table, error) {
	q, ok := statQueries[kind]
	if !ok {
		return nil, fmt.Errorf("unknown statistic %q: %w", kind, neoload.ErrInvalidConfig)
	}

	table, err := s.graph.ExecuteRead(ctx, q.cypher, database, nil)
	if err != nil {
		if q.apoc && strings.Contains(strings.ToLower(err.Error()), "apoc") {
			return nil, fmt.Errorf("%s: %w: %w", kind, ErrAPOCUnavailable, err)
		}
		return nil, err
	}

	if kind == StatPaths {
		return pathFrequencies(table)
	}
	return table, nil
}

var (
	pathNodePattern = regexp.MustCompile(`\(:?(\w*)\)`)
	pathRelPattern  = regexp.MustCompile(`\[:?(\w*)\]`)
)

// pathFrequencies turns the relTypes map of apoc.meta.stats, keyed by
// patterns such as "(:Person)-[:KNOWS]->()", into one row per pattern.
func pathFrequencies(raw *neoload.Table) (*neoload.Table, error) {
	out := &neoload.Table{Columns: []string{"sourceLabel", "relationshipType", "targetLabel", "frequency"}}
	if len(raw.Rows) == 0 {
		return out, nil
	}

	relTypes, ok := raw.Value(0, "relTypes").(map[string]any)
	if !ok {
		return nil, fmt.Errorf("unexpected apoc.meta.stats result: relTypes is %T", raw.Value(0, "relTypes"))
	}

	for pattern, freq := range relTypes {
		nodes := pathNodePattern.FindAllStringSubmatch(pattern, -1)
		rel := pathRelPattern.FindStringSubmatch(pattern)
		if len(nodes) != 2 || rel == nil {
			continue
		}
		out.Rows = append(out.Rows, []any{nodes[0][1], rel[1], nodes[1][1], freq})
	}

	sort.Slice(out.Rows, func(i, j int) bool {
		a, b := out.Rows[i], out.Rows[j]
		for _, col := range []int{1, 0, 2} {
			if a[col].(string) != b[col].(string) {
				return a[col].(string) < b[col].(string)
			}
		}
		return false
	})
	return out, nil
}
