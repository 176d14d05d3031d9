package tui

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/vvka-141/neoload/pkg/neoload"
)

func newTable(styled bool) *table.Table {
	t := table.New()
	if !styled {
		return t.Border(lipgloss.ASCIIBorder())
	}
	return t.Border(lipgloss.RoundedBorder()).
		BorderStyle(BorderStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return HeaderStyle
			}
			return CellStyle
		})
}

// RenderTable renders a query result. Nodes and relationships appear as JSON maps.
func RenderTable(t *neoload.Table, styled bool) string {
	if t == nil || len(t.Columns) == 0 {
		return "(no columns)\n"
	}

	out := newTable(styled).Headers(t.Columns...)
	for _, row := range t.Rows {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = FormatValue(v)
		}
		out.Row(cells...)
	}
	return fmt.Sprintf("%s\n%d row(s)\n", out.Render(), len(t.Rows))
}

// RenderCounters renders non-zero counters as a two-column table.
func RenderCounters(c neoload.Counters, styled bool) string {
	if c.IsZero() {
		return "no changes\n"
	}
	out := newTable(styled).Headers("counter", "value")
	for _, v := range c.Values() {
		if v.Value != 0 {
			out.Row(v.Name, strconv.Itoa(v.Value))
		}
	}
	return out.Render() + "\n"
}

// RenderReport summarizes an ingest, one line per data file.
func RenderReport(r *neoload.IngestReport, styled bool) string {
	out := newTable(styled).Headers("file", "chunks", "rows", "partitions", "changes", "status")
	for _, f := range r.Files {
		status := SymbolCheck + " ok"
		if f.Err != nil {
			status = SymbolCross + " failed"
		}
		if styled {
			if f.Err != nil {
				status = ErrorStyle.Render(status)
			} else {
				status = SuccessStyle.Render(status)
			}
		}
		out.Row(
			f.URL,
			strconv.Itoa(f.Chunks),
			strconv.Itoa(f.Result.Rows),
			fmt.Sprintf("%d/%d", f.Result.Succeeded, f.Result.Partitions),
			f.Result.Counters.String(),
			status,
		)
	}

	summary := fmt.Sprintf("Total: %s in %s", r.Total(), r.Duration.Round(time.Millisecond))
	if styled {
		summary = TitleStyle.Render(summary)
	}
	return out.Render() + "\n" + summary + "\n"
}

// FormatValue renders a single result value for display.
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case string:
		return val
	case time.Time:
		return val.Format(time.RFC3339Nano)
	case fmt.Stringer:
		return val.String()
	case []any, map[string]any:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(b)
	default:
		return fmt.Sprint(val)
	}
}
