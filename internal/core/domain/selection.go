package domain

import (
	"sort"
	"time"
)

// DateRange bounds the date filter, inclusive on both ends.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// NewDateRange builds an inclusive range. An end bound without a clock component
// is widened to the last instant of that day so date-picker ranges cover the whole day.
func NewDateRange(start, end time.Time) DateRange {
	if isMidnight(end) {
		end = end.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	return DateRange{Start: start, End: end}
}

// Contains reports whether ts falls inside the range. With precise set (the column
// carries time of day) the full timestamps are compared; otherwise only calendar dates.
func (r DateRange) Contains(ts Timestamp, precise bool) bool {
	if !ts.Valid() {
		return false
	}
	if precise {
		return !ts.Time.Before(r.Start) && !ts.Time.After(r.End)
	}
	day := ts.Date()
	startDay := truncateDay(r.Start, day.Location())
	endDay := truncateDay(r.End, day.Location())
	return !day.Before(startDay) && !day.After(endDay)
}

func isMidnight(t time.Time) bool {
	h, m, s := t.Clock()
	return h == 0 && m == 0 && s == 0 && t.Nanosecond() == 0
}

func truncateDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// Selection is the immutable set of user-chosen filter constraints.
// A column that is not named imposes no constraint; a column named with an empty set
// admits no rows.
type Selection struct {
	values    map[string]map[string]struct{}
	dateRange *DateRange
}

// NewSelection returns a selection that constrains nothing.
func NewSelection() Selection {
	return Selection{}
}

// DefaultSelection selects every distinct value currently present in each column,
// which is equivalent to applying no filter at all.
func DefaultSelection(table *Table, columns []string) Selection {
	s := NewSelection()
	for _, column := range columns {
		if !table.HasColumn(column) {
			continue
		}
		s = s.WithValues(column, table.Distinct(column)...)
	}
	return s
}

// WithValues returns a copy of s whose allowed set for column is exactly values.
func (s Selection) WithValues(column string, values ...string) Selection {
	next := s.clone()
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	next.values[column] = set
	return next
}

// WithDateRange returns a copy of s bounded by r.
func (s Selection) WithDateRange(r DateRange) Selection {
	next := s.clone()
	next.dateRange = &r
	return next
}

// WithoutDateRange returns a copy of s without a date bound.
func (s Selection) WithoutDateRange() Selection {
	next := s.clone()
	next.dateRange = nil
	return next
}

// Columns returns the constrained column names, sorted.
func (s Selection) Columns() []string {
	names := make([]string, 0, len(s.values))
	for name := range s.values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Allows reports whether value passes the constraint on column.
func (s Selection) Allows(column, value string) bool {
	set, ok := s.values[column]
	if !ok {
		return true
	}
	_, ok = set[value]
	return ok
}

// Values returns the allowed values for column, sorted, and whether column is constrained.
func (s Selection) Values(column string) ([]string, bool) {
	set, ok := s.values[column]
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out, true
}

// DateRange returns the date bound, if any.
func (s Selection) DateRange() (DateRange, bool) {
	if s.dateRange == nil {
		return DateRange{}, false
	}
	return *s.dateRange, true
}

// IsEmpty reports whether the selection constrains nothing.
func (s Selection) IsEmpty() bool {
	return len(s.values) == 0 && s.dateRange == nil
}

func (s Selection) clone() Selection {
	values := make(map[string]map[string]struct{}, len(s.values)+1)
	for k, v := range s.values {
		values[k] = v
	}
	next := Selection{values: values}
	if s.dateRange != nil {
		r := *s.dateRange
		next.dateRange = &r
	}
	return next
}
