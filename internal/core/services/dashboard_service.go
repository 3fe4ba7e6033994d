package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/lorrc/ticket-insights/internal/core/domain"
	apperrors "github.com/lorrc/ticket-insights/internal/core/errors"
	"github.com/lorrc/ticket-insights/internal/core/ports"
	"github.com/lorrc/ticket-insights/internal/core/shaping"
)

// KPI names reported on every dashboard.
const (
	KPITotal     = "total"
	KPICompleted = "completed"
)

// DashboardService runs the shaping pipeline for one analysis profile:
// validate, filter, then aggregate.
type DashboardService struct {
	profile     domain.Profile
	encoder     ports.TableEncoder
	broadcaster ports.EventBroadcaster
	logger      *slog.Logger
}

var _ ports.DashboardService = (*DashboardService)(nil)

// NewDashboardService creates a new dashboard service
func NewDashboardService(
	profile domain.Profile,
	encoder ports.TableEncoder,
	broadcaster ports.EventBroadcaster,
	logger *slog.Logger,
) ports.DashboardService {
	return &DashboardService{
		profile:     profile,
		encoder:     encoder,
		broadcaster: broadcaster,
		logger:      logger.With("service", "dashboard"),
	}
}

// Columns reports the headers of table and how they bind to the profile's roles.
func (s *DashboardService) Columns(table *domain.Table) domain.ColumnReport {
	resolved := s.profile.Resolve(table)
	report := shaping.ValidateSchema(table, resolved.Required(s.profile.Required...))

	bound := make(map[domain.Role]string)
	for _, role := range domain.Roles {
		if name, ok := resolved.Column(role); ok {
			bound[role] = name
		}
	}
	return domain.ColumnReport{
		Columns:  table.Columns(),
		Resolved: bound,
		Missing:  report.Missing,
		Valid:    report.Valid(),
	}
}

// Options lists the selectable values of the profile's filter columns.
func (s *DashboardService) Options(table *domain.Table) domain.FilterOptions {
	resolved := s.profile.Resolve(table)
	dateColumn, _ := resolved.Column(s.profile.DateFilter)
	return shaping.FilterOptions(table, s.filterColumns(resolved), dateColumn)
}

// Apply narrows table by sel. Naming a column the table lacks is an invalid selection.
func (s *DashboardService) Apply(ctx context.Context, table *domain.Table, sel domain.Selection) (*domain.Table, error) {
	filtered, _, err := s.apply(ctx, table, sel)
	return filtered, err
}

func (s *DashboardService) apply(ctx context.Context, table *domain.Table, sel domain.Selection) (*domain.Table, shaping.FilterStats, error) {
	for _, column := range sel.Columns() {
		if !table.HasColumn(column) {
			return nil, shaping.FilterStats{}, fmt.Errorf("%w: unknown filter column %q", apperrors.ErrInvalidSelection, column)
		}
	}
	if r, ok := sel.DateRange(); ok && r.Start.After(r.End) {
		return nil, shaping.FilterStats{}, apperrors.ErrInvalidDateRange
	}

	resolved := s.profile.Resolve(table)
	dateColumn, _ := resolved.Column(s.profile.DateFilter)
	filtered, stats, err := shaping.FilterWithStats(table, sel, dateColumn)
	if err != nil {
		return nil, stats, err
	}

	s.logger.DebugContext(ctx, "selection applied",
		"rows_in", table.Len(),
		"rows_out", filtered.Len(),
		"constrained_columns", len(sel.Columns()),
		"date_unparsed", stats.Unparsed,
		"date_bound_ignored", stats.BoundIgnored,
	)
	return filtered, stats, nil
}

// Export writes the rows of table selected by sel with the configured encoder.
func (s *DashboardService) Export(ctx context.Context, w io.Writer, table *domain.Table, sel domain.Selection) error {
	filtered, err := s.Apply(ctx, table, sel)
	if err != nil {
		return err
	}
	return s.encoder.Encode(w, filtered)
}

// Build validates the dataset against the profile's required columns, applies sel
// and computes every analysis whose columns are present. Analyses that cannot run
// are listed in Skipped instead of failing the dashboard.
func (s *DashboardService) Build(ctx context.Context, dataset *domain.Dataset, sel domain.Selection) (*domain.Dashboard, error) {
	table := dataset.Table
	resolved := s.profile.Resolve(table)

	if err := shaping.ValidateSchema(table, resolved.Required(s.profile.Required...)).Err(); err != nil {
		return nil, err
	}

	filtered, stats, err := s.apply(ctx, table, sel)
	if err != nil {
		return nil, err
	}

	b := &dashboardBuilder{
		profile:  s.profile,
		resolved: resolved,
		table:    filtered,
		dash: &domain.Dashboard{
			DatasetID:  dataset.ID,
			SourceRows: table.Len(),
			RowCount:   filtered.Len(),
			Skipped:    []domain.SkippedAnalysis{},
			Notices:    []string{},
		},
	}
	b.dateFilterNotices(stats)
	if err := b.build(); err != nil {
		return nil, err
	}

	s.logger.DebugContext(ctx, "dashboard built",
		"dataset_id", dataset.ID,
		"rows", filtered.Len(),
		"skipped", len(b.dash.Skipped),
		"notices", len(b.dash.Notices),
	)

	s.broadcast(domain.Event{
		Type:      domain.EventDashboardComputed,
		DatasetID: dataset.ID,
		Payload: domain.DashboardComputedPayload{
			DatasetID:   dataset.ID,
			RowCount:    filtered.Len(),
			FilteredOut: table.Len() - filtered.Len(),
		},
	})
	return b.dash, nil
}

func (s *DashboardService) filterColumns(resolved domain.ResolvedColumns) []string {
	columns := make([]string, 0, len(s.profile.Filters))
	for _, role := range s.profile.Filters {
		if name, ok := resolved.Column(role); ok {
			columns = append(columns, name)
		}
	}
	return columns
}

func (s *DashboardService) broadcast(event domain.Event) {
	if s.broadcaster == nil {
		return
	}
	if err := s.broadcaster.Broadcast(event); err != nil {
		s.logger.Warn("failed to broadcast event", "type", event.Type, "error", err)
	}
}

// dashboardBuilder accumulates the analyses of one dashboard.
type dashboardBuilder struct {
	profile  domain.Profile
	resolved domain.ResolvedColumns
	table    *domain.Table
	dash     *domain.Dashboard
}

// columns returns the headers bound to roles, or records the analysis as skipped.
func (b *dashboardBuilder) columns(analysis domain.Analysis, roles ...domain.Role) ([]string, bool) {
	names := make([]string, 0, len(roles))
	var missing []string
	for _, role := range roles {
		name, ok := b.resolved.Column(role)
		if !ok {
			missing = append(missing, b.profile.PrimaryName(role))
			continue
		}
		names = append(names, name)
	}
	if len(missing) > 0 {
		b.skip(analysis, missing, fmt.Sprintf("column %s not found in the file", quoteAll(missing)))
		return nil, false
	}
	return names, true
}

func (b *dashboardBuilder) skip(analysis domain.Analysis, missing []string, message string) {
	if missing == nil {
		missing = []string{}
	}
	b.dash.Skipped = append(b.dash.Skipped, domain.SkippedAnalysis{
		Analysis:       analysis,
		MissingColumns: missing,
		Message:        message,
	})
}

func (b *dashboardBuilder) notice(format string, args ...any) {
	b.dash.Notices = append(b.dash.Notices, fmt.Sprintf(format, args...))
}

func (b *dashboardBuilder) dateFilterNotices(stats shaping.FilterStats) {
	if stats.BoundIgnored {
		b.notice("no dates could be extracted from column %q; the date range was not applied", stats.DateColumn)
	}
	if stats.Unparsed > 0 {
		b.notice("%d rows dropped by the date filter because %q could not be parsed", stats.Unparsed, stats.DateColumn)
	}
}

func (b *dashboardBuilder) build() error {
	steps := []func() error{
		b.kpis,
		b.status,
		b.escalation,
		b.assigneeStatus,
		b.categories,
		b.intake,
		b.timeline,
		b.topCategories,
		b.resolutionTime,
		b.createdBuckets,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

func (b *dashboardBuilder) kpis() error {
	b.dash.KPIs = []domain.KPI{
		{Name: KPITotal, Label: "Total tickets", Value: shaping.Total(b.table)},
	}

	cols, ok := b.columns(domain.AnalysisCompleted, domain.RoleStatus)
	if !ok {
		return nil
	}
	completed, err := shaping.CountWhere(b.table, cols[0], b.profile.CompletedStatus)
	if err != nil {
		return err
	}
	b.dash.KPIs = append(b.dash.KPIs, domain.KPI{Name: KPICompleted, Label: "Completed tickets", Value: completed})
	return nil
}

func (b *dashboardBuilder) status() error {
	cols, ok := b.columns(domain.AnalysisStatus, domain.RoleStatus)
	if !ok {
		return nil
	}
	res, err := shaping.ValueCounts(b.table, cols[0], domain.OrderByCount)
	b.dash.Status = res
	return err
}

func (b *dashboardBuilder) escalation() error {
	cols, ok := b.columns(domain.AnalysisEscalation, domain.RoleEscalation)
	if !ok {
		return nil
	}
	res, err := shaping.RemappedCounts(b.table, cols[0], b.profile.EscalationLabels, domain.OrderByCount)
	b.dash.Escalation = res
	return err
}

func (b *dashboardBuilder) assigneeStatus() error {
	cols, ok := b.columns(domain.AnalysisAssigneeStatus, domain.RoleAssignee, domain.RoleStatus)
	if !ok {
		return nil
	}
	res, err := shaping.CrossCounts(b.table, cols[0], cols[1])
	b.dash.AssigneeStatus = res
	return err
}

func (b *dashboardBuilder) categories() error {
	cols, ok := b.columns(domain.AnalysisCategory, domain.RoleCategory)
	if !ok {
		return nil
	}
	res, err := shaping.ValueCounts(b.table, cols[0], domain.OrderByCount)
	b.dash.Categories = res
	return err
}

func (b *dashboardBuilder) intake() error {
	cols, ok := b.columns(domain.AnalysisIntake, domain.RoleIntake)
	if !ok {
		return nil
	}
	res, err := shaping.ValueCounts(b.table, cols[0], domain.OrderByAppearance)
	b.dash.Intake = res
	return err
}

func (b *dashboardBuilder) timeline() error {
	cols, ok := b.columns(domain.AnalysisTimeline, domain.RoleIntake, domain.RoleStatus)
	if !ok {
		return nil
	}
	res, err := shaping.Trend(b.table, cols[0], cols[1], domain.BucketRaw)
	b.dash.Timeline = res
	return err
}

func (b *dashboardBuilder) topCategories() error {
	cols, ok := b.columns(domain.AnalysisTopCategories, domain.RoleCategory)
	if !ok {
		return nil
	}
	res, err := shaping.TopN(b.table, cols[0], b.profile.TopN)
	b.dash.TopCategories = res
	return err
}

func (b *dashboardBuilder) resolutionTime() error {
	cols, ok := b.columns(domain.AnalysisResolutionTime, domain.RoleCategory, domain.RoleIntake, domain.RoleCompleted)
	if !ok {
		return nil
	}
	res, err := shaping.MeanDuration(b.table, cols[0], cols[1], cols[2])
	if err != nil {
		return err
	}
	b.dash.ResolutionTime = res
	if res.Excluded > 0 {
		b.notice("%d rows without a parseable %q or %q were left out of the resolution time", res.Excluded, cols[1], cols[2])
	}
	if res.Negative > 0 {
		b.notice("%d rows completed before their %q were left out of the resolution time", res.Negative, cols[1])
	}
	return nil
}

func (b *dashboardBuilder) createdBuckets() error {
	cols, ok := b.columns(domain.AnalysisHourly, domain.RoleCreated)
	if !ok {
		b.skip(domain.AnalysisMonthly, []string{b.profile.PrimaryName(domain.RoleCreated)},
			fmt.Sprintf("column %q not found in the file", b.profile.PrimaryName(domain.RoleCreated)))
		return nil
	}
	created := cols[0]

	hourly, err := shaping.BucketCounts(b.table, created, domain.BucketHour)
	if err != nil {
		return err
	}
	if b.table.Len() > 0 && hourly.Excluded == b.table.Len() {
		message := fmt.Sprintf("no dates could be extracted from column %q; check that it holds valid dates", created)
		b.notice("%s", message)
		b.skip(domain.AnalysisHourly, nil, message)
		b.skip(domain.AnalysisMonthly, nil, message)
		return nil
	}

	monthly, err := shaping.BucketCounts(b.table, created, domain.BucketYearMonth)
	if err != nil {
		return err
	}
	b.dash.Hourly = hourly
	b.dash.Monthly = monthly
	if hourly.Excluded > 0 {
		b.notice("%d rows could not be date-parsed in column %q", hourly.Excluded, created)
	}
	return nil
}

func quoteAll(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = fmt.Sprintf("%q", n)
	}
	return strings.Join(quoted, ", ")
}
