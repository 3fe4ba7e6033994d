package shaping

import (
	"github.com/lorrc/ticket-insights/internal/core/domain"
)

// FilterStats reports what a date bound did to the rows that met the value constraints.
type FilterStats struct {
	// DateColumn is the column the date bound was checked against, empty when unbounded.
	DateColumn string
	// Unparsed counts rows dropped because their date could not be parsed.
	Unparsed int
	// BoundIgnored is set when DateColumn held no parseable value at all. The bound is
	// not applied in that case, since it would discard every row.
	BoundIgnored bool
}

// Filter returns the rows of table that satisfy every constraint of sel, in source order.
//
// A row passes when, for each constrained column, its value is in the allowed set, and,
// when sel carries a date range and dateColumn is present, its normalized date falls in
// the range. Rows whose date cannot be parsed never pass an active date bound. A date
// bound is ignored when dateColumn is empty, absent from the table or holds no
// parseable date.
//
// Naming a column the table lacks is a *ColumnMissingError.
func Filter(table *domain.Table, sel domain.Selection, dateColumn string) (*domain.Table, error) {
	out, _, err := FilterWithStats(table, sel, dateColumn)
	return out, err
}

// FilterWithStats is Filter, also reporting the rows the date bound dropped as unparseable.
func FilterWithStats(table *domain.Table, sel domain.Selection, dateColumn string) (*domain.Table, FilterStats, error) {
	var stats FilterStats
	columns := sel.Columns()
	if err := requireColumns(table, "filter", columns...); err != nil {
		return nil, stats, err
	}

	var dates *NormalizedColumn
	rng, bounded := sel.DateRange()
	if bounded && dateColumn != "" && table.HasColumn(dateColumn) {
		normalized, err := NormalizeColumn(table, dateColumn)
		if err != nil {
			return nil, stats, err
		}
		stats.DateColumn = dateColumn
		if table.Len() > 0 && normalized.Unparseable == table.Len() {
			stats.BoundIgnored = true
		} else {
			dates = normalized
		}
	}

	keep := make([]int, 0, table.Len())
	for i := 0; i < table.Len(); i++ {
		if !allows(table, sel, columns, i) {
			continue
		}
		if dates != nil {
			ts := dates.Values[i]
			if !ts.Valid() {
				stats.Unparsed++
				continue
			}
			if !rng.Contains(ts, dates.HasTime) {
				continue
			}
		}
		keep = append(keep, i)
	}
	return table.Subset(keep), stats, nil
}

func allows(table *domain.Table, sel domain.Selection, columns []string, i int) bool {
	for _, c := range columns {
		if !sel.Allows(c, table.Value(i, c)) {
			return false
		}
	}
	return true
}

// FilterOptions lists the selectable values of each column present in table, in order
// of first appearance, together with the parsed bounds of dateColumn when it exists.
func FilterOptions(table *domain.Table, columns []string, dateColumn string) domain.FilterOptions {
	opts := domain.FilterOptions{Columns: make(map[string][]string, len(columns))}
	for _, c := range columns {
		if table.HasColumn(c) {
			opts.Columns[c] = table.Distinct(c)
		}
	}
	if dateColumn == "" || !table.HasColumn(dateColumn) {
		return opts
	}

	opts.DateColumn = dateColumn
	dates, err := NormalizeColumn(table, dateColumn)
	if err != nil {
		return opts
	}
	if lo, hi, ok := dates.Bounds(); ok {
		opts.MinDate = lo.Date().Format(domain.CanonicalDateLayout)
		opts.MaxDate = hi.Date().Format(domain.CanonicalDateLayout)
	}
	return opts
}
