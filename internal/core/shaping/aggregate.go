package shaping

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/lorrc/ticket-insights/internal/core/domain"
)

// groupCounter tallies keys while remembering the order each key first appeared in.
type groupCounter struct {
	counts map[string]int
	order  []string
}

func newGroupCounter() *groupCounter {
	return &groupCounter{counts: make(map[string]int)}
}

func (g *groupCounter) add(key string) {
	if _, ok := g.counts[key]; !ok {
		g.order = append(g.order, key)
	}
	g.counts[key]++
}

func (g *groupCounter) countRows(total int) []domain.CountRow {
	rows := make([]domain.CountRow, 0, len(g.order))
	for _, key := range g.order {
		rows = append(rows, domain.CountRow{
			Key:     key,
			Count:   g.counts[key],
			Percent: percent(g.counts[key], total),
		})
	}
	return rows
}

func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) * 100 / float64(total)
}

// ValueCounts groups the rows of table by column. Every row lands in exactly one group,
// blank cells included, so the counts always sum to the row count.
func ValueCounts(table *domain.Table, column string, order domain.CountOrder) (*domain.CountResult, error) {
	return RemappedCounts(table, column, nil, order)
}

// RemappedCounts is ValueCounts with labels applied to each value before grouping.
// Values with no entry in labels are counted under their raw value.
func RemappedCounts(table *domain.Table, column string, labels domain.LabelMap, order domain.CountOrder) (*domain.CountResult, error) {
	if err := requireColumns(table, "value counts", column); err != nil {
		return nil, err
	}

	g := newGroupCounter()
	for i := 0; i < table.Len(); i++ {
		g.add(labels.Apply(table.Value(i, column)))
	}

	rows := g.countRows(table.Len())
	if order == domain.OrderByCount {
		sort.SliceStable(rows, func(a, b int) bool { return rows[a].Count > rows[b].Count })
	}
	return &domain.CountResult{Column: column, Rows: rows, Total: table.Len()}, nil
}

// TopN returns the n most frequent values of column. Ties keep first-appearance order.
func TopN(table *domain.Table, column string, n int) (*domain.CountResult, error) {
	if n < 0 {
		return nil, fmt.Errorf("top-n: n must not be negative, got %d", n)
	}
	res, err := ValueCounts(table, column, domain.OrderByCount)
	if err != nil {
		return nil, err
	}
	if len(res.Rows) > n {
		res.Rows = res.Rows[:n]
	}
	return res, nil
}

// CrossCounts counts the (a, b) pairs that occur in table, in order of first appearance.
// Pairs that never occur are not reported.
func CrossCounts(table *domain.Table, a, b string) (*domain.CrossCountResult, error) {
	if err := requireColumns(table, "cross counts", a, b); err != nil {
		return nil, err
	}

	type pair struct{ k1, k2 string }
	counts := make(map[pair]int)
	var order []pair
	for i := 0; i < table.Len(); i++ {
		p := pair{table.Value(i, a), table.Value(i, b)}
		if _, ok := counts[p]; !ok {
			order = append(order, p)
		}
		counts[p]++
	}

	rows := make([]domain.CrossCountRow, 0, len(order))
	for _, p := range order {
		rows = append(rows, domain.CrossCountRow{Key1: p.k1, Key2: p.k2, Count: counts[p]})
	}
	return &domain.CrossCountResult{Columns: [2]string{a, b}, Rows: rows}, nil
}

// MeanDuration computes, per value of category, the mean of end minus start.
//
// Rows where either timestamp is missing or unparseable are excluded and counted in
// Excluded. Rows whose end precedes their start are excluded and counted in Negative.
// A category whose rows are all excluded is not reported.
func MeanDuration(table *domain.Table, category, start, end string) (*domain.DurationResult, error) {
	if err := requireColumns(table, "mean duration", category, start, end); err != nil {
		return nil, err
	}
	starts, err := NormalizeColumn(table, start)
	if err != nil {
		return nil, err
	}
	ends, err := NormalizeColumn(table, end)
	if err != nil {
		return nil, err
	}

	type acc struct {
		sum   float64
		count int
	}
	groups := make(map[string]*acc)
	var order []string
	res := &domain.DurationResult{Column: category}

	for i := 0; i < table.Len(); i++ {
		s, e := starts.Values[i], ends.Values[i]
		if !s.Valid() || !e.Valid() {
			res.Excluded++
			continue
		}
		d := e.Time.Sub(s.Time)
		if d < 0 {
			res.Negative++
			continue
		}
		key := table.Value(i, category)
		g, ok := groups[key]
		if !ok {
			g = &acc{}
			groups[key] = g
			order = append(order, key)
		}
		g.sum += float64(d)
		g.count++
	}

	res.Rows = make([]domain.DurationRow, 0, len(order))
	for _, key := range order {
		g := groups[key]
		mean := time.Duration(g.sum / float64(g.count))
		res.Rows = append(res.Rows, domain.DurationRow{
			Key:       key,
			Mean:      mean,
			MeanHours: mean.Hours(),
			Count:     g.count,
		})
	}
	return res, nil
}

// BucketCounts counts rows per derived time bucket of column. Unparseable rows are
// left out of every bucket and counted in Excluded.
//
// Hour buckets are ordered numerically and year-month buckets chronologically; raw
// buckets keep first-appearance order.
func BucketCounts(table *domain.Table, column string, kind domain.BucketKind) (*domain.BucketResult, error) {
	if !kind.IsValid() {
		return nil, fmt.Errorf("bucket counts: unknown bucket kind %q", kind)
	}
	dates, err := NormalizeColumn(table, column)
	if err != nil {
		return nil, err
	}

	g := newGroupCounter()
	for i := range dates.Values {
		key, ok := dates.BucketKey(i, kind)
		if !ok {
			continue
		}
		g.add(key)
	}

	keys := sortedBuckets(g.order, kind)
	rows := make([]domain.BucketRow, 0, len(keys))
	for _, key := range keys {
		rows = append(rows, domain.BucketRow{Bucket: key, Count: g.counts[key]})
	}
	return &domain.BucketResult{
		Column:   column,
		Kind:     kind,
		Rows:     rows,
		Excluded: dates.Unparseable,
	}, nil
}

// Trend counts (bucket, status) pairs. With BucketRaw the bucket column is used as-is
// and never excluded; otherwise it is normalized and unparseable rows are counted in
// Excluded. Rows are ordered by bucket as in BucketCounts, statuses within a bucket
// by first appearance.
func Trend(table *domain.Table, bucketColumn, statusColumn string, kind domain.BucketKind) (*domain.TrendResult, error) {
	if !kind.IsValid() {
		return nil, fmt.Errorf("trend: unknown bucket kind %q", kind)
	}
	if err := requireColumns(table, "trend", bucketColumn, statusColumn); err != nil {
		return nil, err
	}

	var dates *NormalizedColumn
	if kind != domain.BucketRaw {
		var err error
		if dates, err = NormalizeColumn(table, bucketColumn); err != nil {
			return nil, err
		}
	}

	res := &domain.TrendResult{Column: bucketColumn, Kind: kind}
	type pair struct{ bucket, status string }
	counts := make(map[pair]int)
	var order []pair
	for i := 0; i < table.Len(); i++ {
		bucket := table.Value(i, bucketColumn)
		if dates != nil {
			key, ok := dates.BucketKey(i, kind)
			if !ok {
				res.Excluded++
				continue
			}
			bucket = key
		}
		p := pair{bucket, table.Value(i, statusColumn)}
		if _, ok := counts[p]; !ok {
			order = append(order, p)
		}
		counts[p]++
	}

	if kind != domain.BucketRaw {
		sort.SliceStable(order, func(a, b int) bool {
			return bucketLess(order[a].bucket, order[b].bucket, kind)
		})
	}

	res.Rows = make([]domain.TrendRow, 0, len(order))
	for _, p := range order {
		res.Rows = append(res.Rows, domain.TrendRow{Bucket: p.bucket, Status: p.status, Count: counts[p]})
	}
	return res, nil
}

func sortedBuckets(keys []string, kind domain.BucketKind) []string {
	out := make([]string, len(keys))
	copy(out, keys)
	if kind == domain.BucketRaw {
		return out
	}
	sort.SliceStable(out, func(a, b int) bool { return bucketLess(out[a], out[b], kind) })
	return out
}

func bucketLess(a, b string, kind domain.BucketKind) bool {
	if kind == domain.BucketHour {
		ha, _ := strconv.Atoi(a)
		hb, _ := strconv.Atoi(b)
		return ha < hb
	}
	return a < b
}
