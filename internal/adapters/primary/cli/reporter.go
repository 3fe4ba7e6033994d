package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/template"

	"github.com/lorrc/ticket-insights/internal/core/domain"
)

// Reporter renders dashboards and column reports as plain text.
type Reporter struct {
	writer   io.Writer
	keyWidth int
}

func NewReporter(writer io.Writer) *Reporter {
	if writer == nil {
		writer = os.Stdout
	}
	return &Reporter{writer: writer, keyWidth: 32}
}

func (r *Reporter) funcs() template.FuncMap {
	return template.FuncMap{
		"row": func(key string, value interface{}) string {
			if key == "" {
				key = "(blank)"
			}
			return fmt.Sprintf("  %-*s %v", r.keyWidth, key, value)
		},
		"pct": func(p float64) string {
			return fmt.Sprintf("%.1f%%", p)
		},
		"hours": func(h float64) string {
			return fmt.Sprintf("%.1fh", h)
		},
		"join": strings.Join,
	}
}

const dashboardTemplate = `{{.Name}}: {{.Dash.RowCount}} of {{.Dash.SourceRows}} rows selected
{{range .Dash.KPIs}}{{row .Label .Value}}
{{end}}{{with .Dash.Status}}
=== Status ({{.Column}}) ===
{{range .Rows}}{{row .Key (printf "%d  %s" .Count (pct .Percent))}}
{{end}}{{end}}{{with .Dash.Escalation}}
=== Escalation ({{.Column}}) ===
{{range .Rows}}{{row .Key (printf "%d  %s" .Count (pct .Percent))}}
{{end}}{{end}}{{with .Dash.Categories}}
=== Categories ({{.Column}}) ===
{{range .Rows}}{{row .Key .Count}}
{{end}}{{end}}{{with .Dash.TopCategories}}
=== Top categories ===
{{range .Rows}}{{row .Key .Count}}
{{end}}{{end}}{{with .Dash.Intake}}
=== Intake ({{.Column}}) ===
{{range .Rows}}{{row .Key .Count}}
{{end}}{{end}}{{with .Dash.AssigneeStatus}}
=== {{index .Columns 0}} x {{index .Columns 1}} ===
{{range .Rows}}{{row (printf "%s / %s" .Key1 .Key2) .Count}}
{{end}}{{end}}{{with .Dash.ResolutionTime}}
=== Mean resolution time ({{.Column}}) ===
{{range .Rows}}{{row .Key (printf "%s over %d tickets" (hours .MeanHours) .Count)}}
{{end}}{{end}}{{with .Dash.Hourly}}
=== Tickets per hour ({{.Column}}) ===
{{range .Rows}}{{row .Bucket .Count}}
{{end}}{{end}}{{with .Dash.Monthly}}
=== Tickets per month ({{.Column}}) ===
{{range .Rows}}{{row .Bucket .Count}}
{{end}}{{end}}{{if .Dash.Skipped}}
Skipped:
{{range .Dash.Skipped}}  - {{.Message}}
{{end}}{{end}}{{if .Dash.Notices}}
Notices:
{{range .Dash.Notices}}  - {{.}}
{{end}}{{end}}`

const columnsTemplate = `{{.Name}}: {{len .Report.Columns}} columns
{{range .Report.Columns}}  {{.}}
{{end}}{{if .Report.Valid}}
All required columns are present.
{{else}}
Missing required columns: {{join .Report.Missing ", "}}
{{end}}`

// Dashboard writes a text summary of dash.
func (r *Reporter) Dashboard(name string, dash *domain.Dashboard) error {
	return r.render("dashboard", dashboardTemplate, struct {
		Name string
		Dash *domain.Dashboard
	}{name, dash})
}

// Columns writes the column listing and schema check.
func (r *Reporter) Columns(name string, report domain.ColumnReport) error {
	return r.render("columns", columnsTemplate, struct {
		Name   string
		Report domain.ColumnReport
	}{name, report})
}

func (r *Reporter) render(name, text string, data interface{}) error {
	t, err := template.New(name).Funcs(r.funcs()).Parse(text)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}
	return t.Execute(r.writer, data)
}
