package domain

import (
	"path/filepath"
	"strings"
	"time"
)

// Format identifies how an upload is decoded into a Table.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

// FormatFromFilename infers the upload format from its extension.
func FormatFromFilename(name string) Format {
	return Format(strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), "."))
}

// Upload is a raw uploaded spreadsheet, keyed by the hash of its content.
type Upload struct {
	ID         string
	Filename   string
	Format     Format
	Content    []byte
	SizeBytes  int64
	RowCount   int
	UploadedAt time.Time
}

// Dataset is a decoded upload ready for analysis.
type Dataset struct {
	ID         string
	Filename   string
	Format     Format
	UploadedAt time.Time
	Table      *Table
}

// ColumnReport lists which headers of a dataset were found and which are missing.
type ColumnReport struct {
	Columns  []string        `json:"columns"`
	Resolved map[Role]string `json:"resolved"`
	Missing  []string        `json:"missing"`
	Valid    bool            `json:"valid"`
}

// FilterOptions are the values a presentation layer offers for narrowing a dataset.
// Selecting every option is equivalent to applying no filter.
type FilterOptions struct {
	Columns    map[string][]string `json:"columns"`
	DateColumn string              `json:"dateColumn,omitempty"`
	MinDate    string              `json:"minDate,omitempty"`
	MaxDate    string              `json:"maxDate,omitempty"`
}
