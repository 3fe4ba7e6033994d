package http

import (
	"sort"
	"strings"

	"github.com/lorrc/ticket-insights/internal/adapters/primary/validation"
	"github.com/lorrc/ticket-insights/internal/core/domain"
)

const maxFilterColumns = 64

// SelectionRequest is the JSON form of a filter selection. A column absent from
// Filters (or mapped to null) is unconstrained; a column mapped to [] selects nothing.
type SelectionRequest struct {
	Filters   map[string][]string `json:"filters"`
	DateRange *DateRangeRequest   `json:"dateRange"`
}

// DateRangeRequest bounds the date filter. Both ends are inclusive dates or timestamps.
type DateRangeRequest struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Validate validates the selection request
func (r *SelectionRequest) Validate() error {
	v := validation.NewValidator()

	v.MaxItems("filters", len(r.Filters), maxFilterColumns)

	columns := make([]string, 0, len(r.Filters))
	for column := range r.Filters {
		columns = append(columns, column)
	}
	sort.Strings(columns)
	for _, column := range columns {
		v.Custom("filters", strings.TrimSpace(column) != "", "Column names must not be blank")
	}

	if r.DateRange != nil {
		v.Required("dateRange.start", r.DateRange.Start).
			Required("dateRange.end", r.DateRange.End)
		if r.DateRange.Start != "" {
			v.Custom("dateRange.start", domain.NormalizeTimestamp(r.DateRange.Start).Valid(), "Must be a date")
		}
		if r.DateRange.End != "" {
			v.Custom("dateRange.end", domain.NormalizeTimestamp(r.DateRange.End).Valid(), "Must be a date")
		}
	}

	return v.Err()
}

// ToSelection converts a validated request into a domain selection.
func (r *SelectionRequest) ToSelection() domain.Selection {
	sel := domain.NewSelection()
	for column, values := range r.Filters {
		if values == nil {
			continue
		}
		sel = sel.WithValues(column, values...)
	}
	if r.DateRange != nil {
		start := domain.NormalizeTimestamp(r.DateRange.Start)
		end := domain.NormalizeTimestamp(r.DateRange.End)
		sel = sel.WithDateRange(domain.NewDateRange(start.Time, end.Time))
	}
	return sel
}
