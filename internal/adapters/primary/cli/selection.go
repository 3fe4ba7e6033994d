package cli

import (
	"fmt"
	"strings"

	"github.com/lorrc/ticket-insights/internal/core/domain"
	"github.com/spf13/cobra"
)

// selectionFlags are shared by every command that filters rows.
type selectionFlags struct {
	filters []string
	from    string
	to      string
}

func (f *selectionFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringArrayVar(&f.filters, "filter", nil, `Keep rows whose column holds one of the values, e.g. "Unidade=A,B" (repeatable; "Col=" selects nothing)`)
	cmd.Flags().StringVar(&f.from, "from", "", "Earliest intake date, inclusive")
	cmd.Flags().StringVar(&f.to, "to", "", "Latest intake date, inclusive")
}

// selection parses the flags. A column named twice keeps the union of its values.
func (f *selectionFlags) selection() (domain.Selection, error) {
	values := make(map[string][]string)
	var order []string
	for _, raw := range f.filters {
		column, list, ok := strings.Cut(raw, "=")
		column = strings.TrimSpace(column)
		if !ok || column == "" {
			return domain.Selection{}, fmt.Errorf("invalid --filter %q: expected COLUMN=VALUE[,VALUE...]", raw)
		}
		if _, seen := values[column]; !seen {
			order = append(order, column)
			values[column] = []string{}
		}
		if list == "" {
			continue
		}
		for _, v := range strings.Split(list, ",") {
			values[column] = append(values[column], strings.TrimSpace(v))
		}
	}

	sel := domain.NewSelection()
	for _, column := range order {
		sel = sel.WithValues(column, values[column]...)
	}

	if f.from == "" && f.to == "" {
		return sel, nil
	}
	if f.from == "" || f.to == "" {
		return domain.Selection{}, fmt.Errorf("--from and --to must be given together")
	}
	start := domain.NormalizeTimestamp(f.from)
	end := domain.NormalizeTimestamp(f.to)
	if !start.Valid() || !end.Valid() {
		return domain.Selection{}, fmt.Errorf("invalid date range %q to %q", f.from, f.to)
	}
	return sel.WithDateRange(domain.NewDateRange(start.Time, end.Time)), nil
}
