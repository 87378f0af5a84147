// Package export projects a chronology onto a flat table and writes it as a
// spreadsheet, CSV, JSON or YAML.
package export

import (
	"fmt"
	"sort"
	"strings"

	"github.com/teranos/chrono/chronology"
	"github.com/teranos/chrono/errors"
	"github.com/teranos/chrono/literal"
)

// Fixed leading columns of every table.
var baseColumns = []string{"category", "name", "begin", "end", "text", "axis_begin", "axis_end"}

// Table is a chronology as rows of strings. Columns after the fixed ones are
// annotation keys, sorted.
type Table struct {
	Chronology string
	Calendar   string
	Columns    []string
	Rows       [][]string
}

// Build tabulates every record of c, category by category in display order.
// cats narrows the categories; none means all.
func Build(c *chronology.Chronology, cats ...chronology.Category) (*Table, error) {
	if len(cats) == 0 {
		cats = chronology.Categories
	}

	var entries []chronology.Entry
	for _, cat := range cats {
		es, err := c.ListRecords(cat)
		if err != nil {
			return nil, errors.Wrapf(err, "export %q", c.Name())
		}
		entries = append(entries, es...)
	}

	seen := make(map[string]bool)
	var extra []string
	for _, e := range entries {
		for k := range e.Annotations {
			if !seen[k] {
				seen[k] = true
				extra = append(extra, k)
			}
		}
	}
	sort.Strings(extra)

	t := &Table{
		Chronology: c.DisplayName(),
		Calendar:   c.Calendar().Name(),
		Columns:    append(append([]string(nil), baseColumns...), extra...),
	}
	for _, e := range entries {
		row := []string{string(e.Category), e.Name, e.Begin, e.End, e.Text, e.BeginAt.String(), e.EndAt.String()}
		for _, k := range extra {
			row = append(row, cell(e.Annotations[k]))
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// Records returns the rows as column→value maps, dropping empty cells.
func (t *Table) Records() []map[string]string {
	out := make([]map[string]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		m := make(map[string]string, len(row))
		for i, v := range row {
			if v != "" {
				m[t.Columns[i]] = v
			}
		}
		out = append(out, m)
	}
	return out
}

func cell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case fmt.Stringer:
		return x.String()
	}
	s, err := literal.Encode(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return strings.TrimSpace(s)
}
