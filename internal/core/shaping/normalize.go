package shaping

import (
	"strconv"

	"github.com/lorrc/ticket-insights/internal/core/domain"
)

// Normalize parses a raw date-like value, day-first. See domain.NormalizeTimestamp.
func Normalize(raw string) domain.Timestamp {
	return domain.NormalizeTimestamp(raw)
}

// NormalizedColumn is a date-like column parsed row by row.
type NormalizedColumn struct {
	Column      string
	Values      []domain.Timestamp
	Unparseable int
	HasTime     bool
}

// NormalizeColumn parses every cell of column. Malformed cells become
// domain.Unparseable and are counted; they never abort the scan.
func NormalizeColumn(table *domain.Table, column string) (*NormalizedColumn, error) {
	if err := requireColumns(table, "normalize column", column); err != nil {
		return nil, err
	}

	out := &NormalizedColumn{
		Column: column,
		Values: make([]domain.Timestamp, table.Len()),
	}
	for i := 0; i < table.Len(); i++ {
		ts := Normalize(table.Value(i, column))
		out.Values[i] = ts
		if !ts.Valid() {
			out.Unparseable++
			continue
		}
		if ts.HasTime {
			out.HasTime = true
		}
	}
	return out, nil
}

// Parsed returns how many cells were normalized successfully.
func (c *NormalizedColumn) Parsed() int {
	return len(c.Values) - c.Unparseable
}

// Bounds returns the earliest and latest parsed values.
func (c *NormalizedColumn) Bounds() (min, max domain.Timestamp, ok bool) {
	for _, ts := range c.Values {
		if !ts.Valid() {
			continue
		}
		if !ok {
			min, max, ok = ts, ts, true
			continue
		}
		if ts.Time.Before(min.Time) {
			min = ts
		}
		if ts.Time.After(max.Time) {
			max = ts
		}
	}
	return min, max, ok
}

// BucketKey derives the bucket of row i. The second result is false when the row's
// value could not be parsed.
func (c *NormalizedColumn) BucketKey(i int, kind domain.BucketKind) (string, bool) {
	ts := c.Values[i]
	if !ts.Valid() {
		return "", false
	}
	switch kind {
	case domain.BucketHour:
		return strconv.Itoa(ts.HourOfDay()), true
	case domain.BucketYearMonth:
		return ts.YearMonth(), true
	default:
		return ts.String(), true
	}
}
