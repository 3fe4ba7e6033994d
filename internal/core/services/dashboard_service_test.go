package services_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lorrc/ticket-insights/internal/core/domain"
	apperrors "github.com/lorrc/ticket-insights/internal/core/errors"
	"github.com/lorrc/ticket-insights/internal/core/mocks"
	"github.com/lorrc/ticket-insights/internal/core/ports"
	"github.com/lorrc/ticket-insights/internal/core/services"
	"github.com/lorrc/ticket-insights/internal/infrastructure/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var fullHeader = []string{
	"Chave", "Status", "Unidade", "Categoria - N1", "Técnico N1 Responsável",
	"Entrada do chamado", "Escalonado", "Criado", "Data de conclusão",
}

func fullDataset(t *testing.T) *domain.Dataset {
	t.Helper()
	table, err := domain.NewTable(fullHeader, [][]string{
		{"T-1", "CONCLUÍDO", "A", "Rede", "Ana", "30/12/2024 08:00", "Sim", "31/12/2024 14:05", "31/12/2024 10:00"},
		{"T-2", "PENDENTE", "B", "Acesso", "Bruno", "10/11/2024 09:00", "Desconhecido", "15/11/2024 09:30", ""},
		{"T-3", "CONCLUÍDO", "A", "Rede", "Ana", "01/12/2024 12:00", "Não", "not a date", "01/12/2024 16:00"},
	})
	require.NoError(t, err)
	return &domain.Dataset{ID: "ds-1", Table: table}
}

func newDashboardService(broadcaster ports.EventBroadcaster) ports.DashboardService {
	return services.NewDashboardService(domain.DefaultProfile(), nil, broadcaster, logging.Discard())
}

func TestDashboardService_Build(t *testing.T) {
	ctx := context.Background()

	t.Run("all analyses", func(t *testing.T) {
		broadcaster := mocks.NewMockEventBroadcaster()
		broadcaster.On("Broadcast", mock.MatchedBy(func(e domain.Event) bool {
			return e.Type == domain.EventDashboardComputed && e.DatasetID == "ds-1"
		})).Return(nil)

		dash, err := newDashboardService(broadcaster).Build(ctx, fullDataset(t), domain.NewSelection())
		require.NoError(t, err)

		assert.Equal(t, 3, dash.SourceRows)
		assert.Equal(t, 3, dash.RowCount)
		assert.Equal(t, 3, dash.KPI(services.KPITotal))
		assert.Equal(t, 2, dash.KPI(services.KPICompleted))

		require.NotNil(t, dash.Status)
		assert.Equal(t, 2, dash.Status.Count("CONCLUÍDO"))
		assert.Equal(t, 1, dash.Status.Count("PENDENTE"))
		assert.Equal(t, dash.KPI(services.KPITotal), dash.Status.Sum())

		require.NotNil(t, dash.Escalation)
		assert.Equal(t, 1, dash.Escalation.Count("N1 para N2"))
		assert.Equal(t, 1, dash.Escalation.Count("Desconhecido"))
		assert.Equal(t, 1, dash.Escalation.Count("Não Escalonados"))

		require.NotNil(t, dash.AssigneeStatus)
		assert.Equal(t, []domain.CrossCountRow{
			{Key1: "Ana", Key2: "CONCLUÍDO", Count: 2},
			{Key1: "Bruno", Key2: "PENDENTE", Count: 1},
		}, dash.AssigneeStatus.Rows)

		require.NotNil(t, dash.TopCategories)
		assert.Equal(t, "Rede", dash.TopCategories.Rows[0].Key)

		require.NotNil(t, dash.ResolutionTime)
		assert.Equal(t, 1, dash.ResolutionTime.Excluded)
		assert.Equal(t, []domain.DurationRow{
			{Key: "Rede", Mean: 15 * time.Hour, MeanHours: 15, Count: 2},
		}, dash.ResolutionTime.Rows)

		require.NotNil(t, dash.Hourly)
		assert.Equal(t, 1, dash.Hourly.Excluded)
		require.NotNil(t, dash.Monthly)
		assert.Equal(t, []domain.BucketRow{{Bucket: "2024-11", Count: 1}, {Bucket: "2024-12", Count: 1}}, dash.Monthly.Rows)

		assert.Empty(t, dash.Skipped)
		assert.Contains(t, dash.Notices, `1 rows could not be date-parsed in column "Criado"`)
		broadcaster.AssertExpectations(t)
	})

	t.Run("filtered selection", func(t *testing.T) {
		broadcaster := mocks.NewMockEventBroadcaster()
		broadcaster.On("Broadcast", mock.Anything).Return(nil)

		sel := domain.NewSelection().WithValues("Unidade", "B")
		dash, err := newDashboardService(broadcaster).Build(ctx, fullDataset(t), sel)
		require.NoError(t, err)
		assert.Equal(t, 3, dash.SourceRows)
		assert.Equal(t, 1, dash.RowCount)
		assert.Equal(t, 0, dash.KPI(services.KPICompleted))
	})

	t.Run("empty selection set yields an empty dashboard", func(t *testing.T) {
		broadcaster := mocks.NewMockEventBroadcaster()
		broadcaster.On("Broadcast", mock.Anything).Return(nil)

		sel := domain.NewSelection().WithValues("Unidade")
		dash, err := newDashboardService(broadcaster).Build(ctx, fullDataset(t), sel)
		require.NoError(t, err)
		assert.Equal(t, 0, dash.RowCount)
		assert.Equal(t, 0, dash.KPI(services.KPITotal))
		assert.Empty(t, dash.Status.Rows)
		assert.Empty(t, dash.Notices)
	})

	t.Run("date range on the intake column", func(t *testing.T) {
		broadcaster := mocks.NewMockEventBroadcaster()
		broadcaster.On("Broadcast", mock.Anything).Return(nil)

		sel := domain.NewSelection().WithDateRange(domain.NewDateRange(
			time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC),
		))
		dash, err := newDashboardService(broadcaster).Build(ctx, fullDataset(t), sel)
		require.NoError(t, err)
		assert.Equal(t, 2, dash.RowCount)
	})

	t.Run("missing required columns", func(t *testing.T) {
		table, err := domain.NewTable([]string{"Chave", "Descrição"}, [][]string{{"T-1", "x"}})
		require.NoError(t, err)

		broadcaster := mocks.NewMockEventBroadcaster()
		_, err = newDashboardService(broadcaster).Build(ctx, &domain.Dataset{ID: "x", Table: table}, domain.NewSelection())

		require.Error(t, err)
		assert.True(t, errors.Is(err, apperrors.ErrSchemaIncomplete))
		var schemaErr *apperrors.SchemaError
		require.True(t, errors.As(err, &schemaErr))
		assert.Equal(t, []string{"Status", "Unidade"}, schemaErr.Missing)
		broadcaster.AssertNotCalled(t, "Broadcast", mock.Anything)
	})

	t.Run("optional columns absent are skipped", func(t *testing.T) {
		table, err := domain.NewTable([]string{"Chave", "Status", "Unidade"}, [][]string{
			{"T-1", "CONCLUÍDO", "A"},
			{"T-2", "PENDENTE", "A"},
		})
		require.NoError(t, err)

		broadcaster := mocks.NewMockEventBroadcaster()
		broadcaster.On("Broadcast", mock.Anything).Return(nil)

		dash, err := newDashboardService(broadcaster).Build(ctx, &domain.Dataset{ID: "x", Table: table}, domain.NewSelection())
		require.NoError(t, err)

		assert.NotNil(t, dash.Status)
		assert.Nil(t, dash.Escalation)
		assert.Nil(t, dash.Hourly)
		assert.Nil(t, dash.ResolutionTime)

		skipped := map[domain.Analysis][]string{}
		for _, s := range dash.Skipped {
			skipped[s.Analysis] = s.MissingColumns
		}
		assert.Equal(t, []string{"Escalonado"}, skipped[domain.AnalysisEscalation])
		assert.Equal(t, []string{"Categoria - N1", "Entrada do chamado", "Data de conclusão"}, skipped[domain.AnalysisResolutionTime])
		assert.Equal(t, []string{"Criado"}, skipped[domain.AnalysisHourly])
		assert.Equal(t, []string{"Criado"}, skipped[domain.AnalysisMonthly])
		assert.Len(t, dash.Skipped, 9)
	})

	t.Run("no parseable dates", func(t *testing.T) {
		table, err := domain.NewTable([]string{"Chave", "Status", "Unidade", "Criado"}, [][]string{
			{"T-1", "CONCLUÍDO", "A", "ontem"},
			{"T-2", "PENDENTE", "A", ""},
		})
		require.NoError(t, err)

		broadcaster := mocks.NewMockEventBroadcaster()
		broadcaster.On("Broadcast", mock.Anything).Return(nil)

		dash, err := newDashboardService(broadcaster).Build(ctx, &domain.Dataset{ID: "x", Table: table}, domain.NewSelection())
		require.NoError(t, err)
		assert.Nil(t, dash.Hourly)
		assert.Nil(t, dash.Monthly)
		require.Len(t, dash.Notices, 1)
		assert.Contains(t, dash.Notices[0], `no dates could be extracted from column "Criado"`)
	})

	t.Run("status absent under a lenient profile", func(t *testing.T) {
		table, err := domain.NewTable([]string{"Chave", "Categoria - N1"}, [][]string{
			{"T-1", "Rede"},
			{"T-2", "Acesso"},
		})
		require.NoError(t, err)

		profile := domain.DefaultProfile()
		profile.Required = []domain.Role{domain.RoleKey}
		broadcaster := mocks.NewMockEventBroadcaster()
		broadcaster.On("Broadcast", mock.Anything).Return(nil)
		svc := services.NewDashboardService(profile, nil, broadcaster, logging.Discard())

		dash, err := svc.Build(ctx, &domain.Dataset{ID: "x", Table: table}, domain.NewSelection())
		require.NoError(t, err)

		require.Len(t, dash.KPIs, 1)
		assert.Equal(t, 2, dash.KPI(services.KPITotal))
		assert.Nil(t, dash.Status)

		skipped := map[domain.Analysis][]string{}
		for _, s := range dash.Skipped {
			skipped[s.Analysis] = s.MissingColumns
		}
		assert.Equal(t, []string{"Status"}, skipped[domain.AnalysisCompleted])
		assert.Equal(t, []string{"Status"}, skipped[domain.AnalysisStatus])
	})

	t.Run("date range over unparseable intake values", func(t *testing.T) {
		rng := domain.NewSelection().WithDateRange(domain.NewDateRange(
			time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC),
		))
		header := []string{"Chave", "Status", "Unidade", "Entrada do chamado"}

		broadcaster := mocks.NewMockEventBroadcaster()
		broadcaster.On("Broadcast", mock.Anything).Return(nil)
		svc := newDashboardService(broadcaster)

		channels, err := domain.NewTable(header, [][]string{
			{"T-1", "CONCLUÍDO", "A", "E-mail"},
			{"T-2", "PENDENTE", "A", "Telefone"},
		})
		require.NoError(t, err)
		dash, err := svc.Build(ctx, &domain.Dataset{ID: "x", Table: channels}, rng)
		require.NoError(t, err)
		assert.Equal(t, 2, dash.RowCount)
		assert.Contains(t, dash.Notices,
			`no dates could be extracted from column "Entrada do chamado"; the date range was not applied`)

		mixed, err := domain.NewTable(header, [][]string{
			{"T-1", "CONCLUÍDO", "A", "30/12/2024 08:00"},
			{"T-2", "PENDENTE", "A", "Telefone"},
		})
		require.NoError(t, err)
		dash, err = svc.Build(ctx, &domain.Dataset{ID: "y", Table: mixed}, rng)
		require.NoError(t, err)
		assert.Equal(t, 1, dash.RowCount)
		assert.Contains(t, dash.Notices,
			`1 rows dropped by the date filter because "Entrada do chamado" could not be parsed`)
	})

	t.Run("unknown filter column", func(t *testing.T) {
		broadcaster := mocks.NewMockEventBroadcaster()
		sel := domain.NewSelection().WithValues("Região", "Sul")
		_, err := newDashboardService(broadcaster).Build(ctx, fullDataset(t), sel)
		assert.True(t, errors.Is(err, apperrors.ErrInvalidSelection))
	})

	t.Run("broadcast failure does not fail the dashboard", func(t *testing.T) {
		broadcaster := mocks.NewMockEventBroadcaster()
		broadcaster.On("Broadcast", mock.Anything).Return(errors.New("hub full"))

		dash, err := newDashboardService(broadcaster).Build(ctx, fullDataset(t), domain.NewSelection())
		require.NoError(t, err)
		assert.Equal(t, 3, dash.RowCount)
	})
}

func TestDashboardService_ColumnsAndOptions(t *testing.T) {
	svc := newDashboardService(nil)
	table := fullDataset(t).Table

	report := svc.Columns(table)
	assert.True(t, report.Valid)
	assert.Empty(t, report.Missing)
	assert.Equal(t, fullHeader, report.Columns)
	assert.Equal(t, "Técnico N1 Responsável", report.Resolved[domain.RoleAssignee])

	opts := svc.Options(table)
	assert.Equal(t, []string{"A", "B"}, opts.Columns["Unidade"])
	assert.Equal(t, []string{"T-1", "T-2", "T-3"}, opts.Columns["Chave"])
	assert.Equal(t, "Entrada do chamado", opts.DateColumn)
	assert.Equal(t, "2024-11-10", opts.MinDate)
	assert.Equal(t, "2024-12-30", opts.MaxDate)
}

func TestDashboardService_Export(t *testing.T) {
	ctx := context.Background()
	table := fullDataset(t).Table

	encoder := mocks.NewMockTableEncoder()
	encoder.On("Encode", mock.Anything, mock.MatchedBy(func(tbl *domain.Table) bool {
		return tbl.Len() == 2 && tbl.Distinct("Unidade")[0] == "A"
	})).Return(nil)

	svc := services.NewDashboardService(domain.DefaultProfile(), encoder, nil, logging.Discard())

	var buf bytes.Buffer
	require.NoError(t, svc.Export(ctx, &buf, table, domain.NewSelection().WithValues("Unidade", "A")))
	encoder.AssertExpectations(t)

	t.Run("inverted date range", func(t *testing.T) {
		sel := domain.NewSelection().WithDateRange(domain.DateRange{
			Start: time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC),
			End:   time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		})
		err := svc.Export(ctx, &buf, table, sel)
		assert.True(t, errors.Is(err, apperrors.ErrInvalidDateRange))
	})
}
