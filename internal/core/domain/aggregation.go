package domain

import "time"

// BucketKind selects how rows are keyed in a time-bucketed analysis.
type BucketKind string

const (
	BucketRaw       BucketKind = "raw"
	BucketHour      BucketKind = "hour"
	BucketYearMonth BucketKind = "year_month"
)

// IsValid reports whether k is a known bucket kind.
func (k BucketKind) IsValid() bool {
	switch k {
	case BucketRaw, BucketHour, BucketYearMonth:
		return true
	}
	return false
}

// CountOrder controls the ordering of single-column value counts.
type CountOrder int

const (
	// OrderByCount sorts by descending count, ties kept in first-appearance order.
	OrderByCount CountOrder = iota
	// OrderByAppearance keeps groups in order of first appearance.
	OrderByAppearance
)

// CountRow is one group of a single-column value count.
type CountRow struct {
	Key     string  `json:"key"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// CountResult is the outcome of grouping rows by one column.
type CountResult struct {
	Column string     `json:"column"`
	Rows   []CountRow `json:"rows"`
	Total  int        `json:"total"`
}

// Sum returns the sum of all group counts.
func (r CountResult) Sum() int {
	total := 0
	for _, row := range r.Rows {
		total += row.Count
	}
	return total
}

// Count returns the count for key, or 0 when the key is absent.
func (r CountResult) Count(key string) int {
	for _, row := range r.Rows {
		if row.Key == key {
			return row.Count
		}
	}
	return 0
}

// CrossCountRow is one (key1, key2) pair that occurs at least once.
type CrossCountRow struct {
	Key1  string `json:"key1"`
	Key2  string `json:"key2"`
	Count int    `json:"count"`
}

// CrossCountResult is the outcome of grouping rows by two columns.
type CrossCountResult struct {
	Columns [2]string       `json:"columns"`
	Rows    []CrossCountRow `json:"rows"`
}

// DurationRow is the mean elapsed duration of one category.
type DurationRow struct {
	Key       string        `json:"key"`
	Mean      time.Duration `json:"meanNanos"`
	MeanHours float64       `json:"meanHours"`
	Count     int           `json:"count"`
}

// DurationResult holds mean durations per category.
// Excluded counts rows with a missing or unparseable timestamp; Negative counts rows
// whose completion precedes their intake. Neither contributes to any mean.
type DurationResult struct {
	Column   string        `json:"column"`
	Rows     []DurationRow `json:"rows"`
	Excluded int           `json:"excluded"`
	Negative int           `json:"negative"`
}

// BucketRow is the count of one derived time bucket.
type BucketRow struct {
	Bucket string `json:"bucket"`
	Count  int    `json:"count"`
}

// BucketResult holds counts per time bucket with the number of rows that
// could not be date-parsed.
type BucketResult struct {
	Column   string      `json:"column"`
	Kind     BucketKind  `json:"kind"`
	Rows     []BucketRow `json:"rows"`
	Excluded int         `json:"excluded"`
}

// TrendRow is the count of one (bucket, status) pair.
type TrendRow struct {
	Bucket string `json:"bucket"`
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// TrendResult drives a trend-over-time view.
type TrendResult struct {
	Column   string     `json:"column"`
	Kind     BucketKind `json:"kind"`
	Rows     []TrendRow `json:"rows"`
	Excluded int        `json:"excluded"`
}

// KPI is a single named headline number.
type KPI struct {
	Name  string `json:"name"`
	Label string `json:"label"`
	Value int    `json:"value"`
}
