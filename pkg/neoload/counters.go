package neoload

import (
	"fmt"
	"strings"
)

// Counters holds the update statistics the database reports for a query.
// The zero value is the neutral element of Add, and Add is associative and
// commutative, so counters can be summed in any order or grouping.
type Counters struct {
	NodesCreated         int
	NodesDeleted         int
	RelationshipsCreated int
	RelationshipsDeleted int
	PropertiesSet        int
	LabelsAdded          int
	LabelsRemoved        int
	IndexesAdded         int
	IndexesRemoved       int
	ConstraintsAdded     int
	ConstraintsRemoved   int
	SystemUpdates        int
}

// Add returns the element-wise sum of c and o.
func (c Counters) Add(o Counters) Counters {
	return Counters{
		NodesCreated:         c.NodesCreated + o.NodesCreated,
		NodesDeleted:         c.NodesDeleted + o.NodesDeleted,
		RelationshipsCreated: c.RelationshipsCreated + o.RelationshipsCreated,
		RelationshipsDeleted: c.RelationshipsDeleted + o.RelationshipsDeleted,
		PropertiesSet:        c.PropertiesSet + o.PropertiesSet,
		LabelsAdded:          c.LabelsAdded + o.LabelsAdded,
		LabelsRemoved:        c.LabelsRemoved + o.LabelsRemoved,
		IndexesAdded:         c.IndexesAdded + o.IndexesAdded,
		IndexesRemoved:       c.IndexesRemoved + o.IndexesRemoved,
		ConstraintsAdded:     c.ConstraintsAdded + o.ConstraintsAdded,
		ConstraintsRemoved:   c.ConstraintsRemoved + o.ConstraintsRemoved,
		SystemUpdates:        c.SystemUpdates + o.SystemUpdates,
	}
}

// SumCounters folds a slice of counters with Add.
func SumCounters(cs ...Counters) Counters {
	var total Counters
	for _, c := range cs {
		total = total.Add(c)
	}
	return total
}

// IsZero reports whether no updates were counted.
func (c Counters) IsZero() bool {
	return c == Counters{}
}

// CounterValue is one named counter.
type CounterValue struct {
	Name  string
	Value int
}

// Values returns every counter in reporting order, zero or not.
func (c Counters) Values() []CounterValue {
	return []CounterValue{
		{"nodes_created", c.NodesCreated},
		{"nodes_deleted", c.NodesDeleted},
		{"relationships_created", c.RelationshipsCreated},
		{"relationships_deleted", c.RelationshipsDeleted},
		{"properties_set", c.PropertiesSet},
		{"labels_added", c.LabelsAdded},
		{"labels_removed", c.LabelsRemoved},
		{"indexes_added", c.IndexesAdded},
		{"indexes_removed", c.IndexesRemoved},
		{"constraints_added", c.ConstraintsAdded},
		{"constraints_removed", c.ConstraintsRemoved},
		{"system_updates", c.SystemUpdates},
	}
}

// Map returns the non-zero counters keyed by snake_case kind name,
// e.g. {"nodes_created": 9}.
func (c Counters) Map() map[string]int {
	m := make(map[string]int)
	for _, k := range c.Values() {
		if k.Value != 0 {
			m[k.Name] = k.Value
		}
	}
	return m
}

// String renders the non-zero counters in a stable order.
func (c Counters) String() string {
	var parts []string
	for _, k := range c.Values() {
		if k.Value != 0 {
			parts = append(parts, fmt.Sprintf("%s=%d", k.Name, k.Value))
		}
	}
	if len(parts) == 0 {
		return "no changes"
	}
	return strings.Join(parts, ", ")
}
