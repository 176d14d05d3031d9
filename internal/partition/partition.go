// Package partition splits an ordered dataset into contiguous, near-equal
// row groups for bulk loading.
//
// For R rows and n partitions every group holds floor(R/n) or ceil(R/n)
// rows, the first R mod n groups being the larger ones. When n exceeds R
// the result is R single-row partitions, and an empty dataset yields no
// partitions at all. Partitions are views on the dataset's row slice; no
// rows are copied.
package partition

import "github.com/vvka-141/neoload/pkg/neoload"

// Partition is a contiguous range [Start, End) of a dataset's rows.
type Partition struct {
	Index int
	Start int
	End   int
	Rows  []neoload.Row
}

// Len returns the number of rows in the partition.
func (p Partition) Len() int {
	return p.End - p.Start
}

// Bounds computes the [start, end) ranges for splitting rows records into n groups.
// n <= 1 yields a single range covering everything.
func Bounds(rows, n int) [][2]int {
	if rows <= 0 {
		return nil
	}
	if n < 1 {
		n = 1
	}
	if n > rows {
		n = rows
	}

	size, extra := rows/n, rows%n
	bounds := make([][2]int, n)
	start := 0
	for i := 0; i < n; i++ {
		end := start + size
		if i < extra {
			end++
		}
		bounds[i] = [2]int{start, end}
		start = end
	}
	return bounds
}

// Split divides the dataset into n partitions in row order.
func Split(data *neoload.Dataset, n int) []Partition {
	bounds := Bounds(data.Len(), n)
	parts := make([]Partition, len(bounds))
	for i, b := range bounds {
		parts[i] = Partition{
			Index: i,
			Start: b[0],
			End:   b[1],
			// Full slice expression caps capacity so an append by a
			// consumer can never write into the next partition.
			Rows: data.Rows[b[0]:b[1]:b[1]],
		}
	}
	return parts
}
