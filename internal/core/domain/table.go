package domain

import (
	"fmt"
	"strings"

	apperrors "github.com/lorrc/ticket-insights/internal/core/errors"
)

// Table is an immutable, ordered collection of ticket records.
// Every derived view (filtering, selection of rows) produces a new Table.
type Table struct {
	columns []string
	index   map[string]int
	rows    [][]string
}

// Row is a read-only view over a single record of a Table.
type Row struct {
	table *Table
	cells []string
}

// NewTable builds a table from a header and its rows.
// Short rows are padded with empty cells; a row wider than the header is a load failure.
func NewTable(columns []string, rows [][]string) (*Table, error) {
	index := make(map[string]int, len(columns))
	header := make([]string, len(columns))
	for i, name := range columns {
		if _, dup := index[name]; dup {
			return nil, apperrors.NewLoadError(fmt.Sprintf("duplicate column %q in header", name), nil)
		}
		index[name] = i
		header[i] = name
	}

	body := make([][]string, len(rows))
	for i, row := range rows {
		if len(row) > len(header) {
			return nil, apperrors.NewLoadError(
				fmt.Sprintf("row %d has %d cells but the header has %d columns", i+1, len(row), len(header)), nil)
		}
		cells := make([]string, len(header))
		copy(cells, row)
		body[i] = cells
	}

	return &Table{columns: header, index: index, rows: body}, nil
}

// Columns returns the header in source order.
func (t *Table) Columns() []string {
	out := make([]string, len(t.columns))
	copy(out, t.columns)
	return out
}

// HasColumn reports whether the header contains name.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// Value returns the cell at row i for column. Unknown columns yield "".
func (t *Table) Value(i int, column string) string {
	c, ok := t.index[column]
	if !ok {
		return ""
	}
	return t.rows[i][c]
}

// Row returns a read-only view of row i.
func (t *Table) Row(i int) Row {
	return Row{table: t, cells: t.rows[i]}
}

// Cells returns a copy of the raw cells of row i in header order.
func (t *Table) Cells(i int) []string {
	out := make([]string, len(t.rows[i]))
	copy(out, t.rows[i])
	return out
}

// Distinct returns the distinct values of column in order of first appearance.
func (t *Table) Distinct(column string) []string {
	c, ok := t.index[column]
	if !ok {
		return nil
	}
	seen := make(map[string]struct{})
	values := make([]string, 0)
	for _, row := range t.rows {
		v := row[c]
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		values = append(values, v)
	}
	return values
}

// Subset returns a new table holding the rows at the given indices, in that order.
// Rows are shared with the receiver; neither table ever mutates them.
func (t *Table) Subset(indices []int) *Table {
	rows := make([][]string, len(indices))
	for i, idx := range indices {
		rows[i] = t.rows[idx]
	}
	return &Table{columns: t.columns, index: t.index, rows: rows}
}

// String renders a compact description, handy in logs.
func (t *Table) String() string {
	return fmt.Sprintf("Table{rows: %d, columns: [%s]}", len(t.rows), strings.Join(t.columns, ", "))
}

// Get returns the value of column for this row.
func (r Row) Get(column string) (string, bool) {
	c, ok := r.table.index[column]
	if !ok {
		return "", false
	}
	return r.cells[c], true
}

// Map returns the row as a column -> value mapping.
func (r Row) Map() map[string]string {
	m := make(map[string]string, len(r.cells))
	for i, name := range r.table.columns {
		m[name] = r.cells[i]
	}
	return m
}
