package domain

import (
	"strconv"
	"strings"
	"time"
)

// Canonical layouts produced by Timestamp.String.
const (
	CanonicalDateLayout     = "2006-01-02"
	CanonicalDateTimeLayout = "2006-01-02 15:04:05.999999999"
	YearMonthLayout         = "2006-01"
)

// Timestamp is the normalized form of a date-like cell.
// The zero value is Unparseable.
type Timestamp struct {
	Time    time.Time
	HasTime bool
	valid   bool
}

// Unparseable is the marker for a value that could not be normalized.
var Unparseable = Timestamp{}

type layout struct {
	format  string
	hasTime bool
}

// Day-first layouts. Go's non-padded day/month verbs accept one or two digits.
var dayFirstLayouts = []layout{
	{"2/1/2006 15:04:05", true},
	{"2/1/2006 15:04", true},
	{"2/1/2006", false},
	{"2/1/06 15:04:05", true},
	{"2/1/06 15:04", true},
	{"2/1/06", false},
	{"2-1-2006 15:04:05", true},
	{"2-1-2006 15:04", true},
	{"2-1-2006", false},
	{"2.1.2006 15:04:05", true},
	{"2.1.2006 15:04", true},
	{"2.1.2006", false},
}

// Year-first layouts cover the canonical form and spreadsheet/ISO exports.
var yearFirstLayouts = []layout{
	{time.RFC3339Nano, true},
	{"2006-01-02T15:04:05", true},
	{"2006-01-02T15:04", true},
	{"2006-01-02 15:04:05", true},
	{"2006-01-02 15:04", true},
	{"2006-01-02", false},
	{"2006/01/02 15:04:05", true},
	{"2006/01/02 15:04", true},
	{"2006/01/02", false},
}

// NormalizeTimestamp parses a raw date-like string, day-first.
// Empty or malformed input yields Unparseable; it is never coerced to now or the epoch.
func NormalizeTimestamp(raw string) Timestamp {
	s := strings.Join(strings.Fields(raw), " ")
	if s == "" {
		return Unparseable
	}

	layouts := dayFirstLayouts
	if yearFirst(s) {
		layouts = yearFirstLayouts
	}
	for _, l := range layouts {
		if t, err := time.Parse(l.format, s); err == nil {
			return Timestamp{Time: t, HasTime: l.hasTime, valid: true}
		}
	}
	return Unparseable
}

// yearFirst reports whether s starts with a four-digit year.
func yearFirst(s string) bool {
	if len(s) < 5 {
		return false
	}
	if _, err := strconv.Atoi(s[:4]); err != nil {
		return false
	}
	return s[4] == '-' || s[4] == '/'
}

// Valid reports whether the value was parsed.
func (t Timestamp) Valid() bool {
	return t.valid
}

// HourOfDay returns the hour (0-23) in the value's own location.
func (t Timestamp) HourOfDay() int {
	return t.Time.Hour()
}

// YearMonth returns the monthly bucket key, e.g. "2024-12".
func (t Timestamp) YearMonth() string {
	return t.Time.Format(YearMonthLayout)
}

// Date truncates the value to its calendar date in its own location.
func (t Timestamp) Date() time.Time {
	y, m, d := t.Time.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Time.Location())
}

// String returns the canonical form; normalizing it yields the same Timestamp.
func (t Timestamp) String() string {
	if !t.valid {
		return ""
	}
	if !t.HasTime {
		return t.Time.Format(CanonicalDateLayout)
	}
	if t.Time.Location() != time.UTC {
		return t.Time.Format(time.RFC3339Nano)
	}
	return t.Time.Format(CanonicalDateTimeLayout)
}
