package shaping

import (
	"github.com/lorrc/ticket-insights/internal/core/domain"
	apperrors "github.com/lorrc/ticket-insights/internal/core/errors"
)

// SchemaReport is the outcome of checking a table for required columns.
type SchemaReport struct {
	Missing []string
}

// Valid reports whether no required column is missing.
func (r SchemaReport) Valid() bool {
	return len(r.Missing) == 0
}

// Err returns a *SchemaError when columns are missing, nil otherwise.
func (r SchemaReport) Err() error {
	if r.Valid() {
		return nil
	}
	missing := make([]string, len(r.Missing))
	copy(missing, r.Missing)
	return &apperrors.SchemaError{Missing: missing}
}

// ValidateSchema reports which of the required columns table lacks, in the order
// they were requested. A missing column is a reportable condition, never a failure.
func ValidateSchema(table *domain.Table, required []string) SchemaReport {
	seen := make(map[string]struct{}, len(required))
	var missing []string
	for _, name := range required {
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		if !table.HasColumn(name) {
			missing = append(missing, name)
		}
	}
	return SchemaReport{Missing: missing}
}

func requireColumns(table *domain.Table, operation string, columns ...string) error {
	for _, c := range columns {
		if !table.HasColumn(c) {
			return &apperrors.ColumnMissingError{Column: c, Operation: operation}
		}
	}
	return nil
}
