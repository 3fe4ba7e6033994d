package shaping

import "github.com/lorrc/ticket-insights/internal/core/domain"

// Total returns the number of rows in table.
func Total(table *domain.Table) int {
	return table.Len()
}

// CountWhere returns the number of rows whose column equals value exactly.
// The comparison is case-sensitive and does not trim.
func CountWhere(table *domain.Table, column, value string) (int, error) {
	if err := requireColumns(table, "count where", column); err != nil {
		return 0, err
	}
	n := 0
	for i := 0; i < table.Len(); i++ {
		if table.Value(i, column) == value {
			n++
		}
	}
	return n, nil
}
