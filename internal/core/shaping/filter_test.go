package shaping_test

import (
	"errors"
	"testing"
	"time"

	"github.com/lorrc/ticket-insights/internal/core/domain"
	apperrors "github.com/lorrc/ticket-insights/internal/core/errors"
	"github.com/lorrc/ticket-insights/internal/core/shaping"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestFilter_DefaultSelectionIsIdentity(t *testing.T) {
	table := tickets(t)
	sel := domain.DefaultSelection(table, []string{"Unidade", "Chave", "Status"})

	out, err := shaping.Filter(table, sel, "")
	require.NoError(t, err)
	assert.Equal(t, table.Columns(), out.Columns())
	assert.Equal(t, rowsOf(table), rowsOf(out))

	none, err := shaping.Filter(table, domain.NewSelection(), "Criado")
	require.NoError(t, err)
	assert.Equal(t, rowsOf(table), rowsOf(none))
}

func TestFilter_EmptyAllowedSetYieldsNoRows(t *testing.T) {
	table := tickets(t)
	sel := domain.NewSelection().WithValues("Unidade")

	out, err := shaping.Filter(table, sel, "")
	require.NoError(t, err)
	assert.Equal(t, 0, out.Len())
	assert.Equal(t, table.Columns(), out.Columns())
}

func TestFilter_ValueConstraints(t *testing.T) {
	table := tickets(t)

	t.Run("single column keeps source order", func(t *testing.T) {
		out, err := shaping.Filter(table, domain.NewSelection().WithValues("Unidade", "A", "C"), "")
		require.NoError(t, err)
		assert.Equal(t, []string{"T-1", "T-3", "T-4"}, out.Distinct("Chave"))
	})

	t.Run("columns combine with and", func(t *testing.T) {
		sel := domain.NewSelection().
			WithValues("Unidade", "A").
			WithValues("Status", "CONCLUÍDO", "PENDENTE")
		out, err := shaping.Filter(table, sel, "")
		require.NoError(t, err)
		assert.Equal(t, []string{"T-1", "T-3"}, out.Distinct("Chave"))
	})

	t.Run("value not present selects nothing", func(t *testing.T) {
		out, err := shaping.Filter(table, domain.NewSelection().WithValues("Unidade", "Z"), "")
		require.NoError(t, err)
		assert.Equal(t, 0, out.Len())
	})

	t.Run("unknown column is a contract error", func(t *testing.T) {
		_, err := shaping.Filter(table, domain.NewSelection().WithValues("Região", "Sul"), "")
		require.Error(t, err)
		assert.True(t, errors.Is(err, apperrors.ErrColumnMissing))
	})

	t.Run("input table untouched", func(t *testing.T) {
		before := rowsOf(table)
		_, err := shaping.Filter(table, domain.NewSelection().WithValues("Unidade", "B"), "")
		require.NoError(t, err)
		assert.Equal(t, before, rowsOf(table))
	})
}

func TestFilter_DateRange(t *testing.T) {
	table := tickets(t)

	t.Run("inclusive calendar range with time precision", func(t *testing.T) {
		sel := domain.NewSelection().WithDateRange(domain.NewDateRange(day(2024, 12, 1), day(2024, 12, 31)))
		out, err := shaping.Filter(table, sel, "Criado")
		require.NoError(t, err)
		// T-3 is unparseable and never passes an active bound.
		assert.Equal(t, []string{"T-1", "T-4"}, out.Distinct("Chave"))
	})

	t.Run("precise bounds compare full timestamps", func(t *testing.T) {
		rng := domain.DateRange{
			Start: time.Date(2024, 12, 31, 14, 0, 0, 0, time.UTC),
			End:   time.Date(2024, 12, 31, 14, 4, 0, 0, time.UTC),
		}
		out, err := shaping.Filter(table, domain.NewSelection().WithDateRange(rng), "Criado")
		require.NoError(t, err)
		assert.Equal(t, 0, out.Len())
	})

	t.Run("date-only column compares calendar days", func(t *testing.T) {
		dates := newTable(t, []string{"Chave", "Data"},
			[]string{"1", "01/03/2024"},
			[]string{"2", "02/03/2024"},
			[]string{"3", "03/03/2024"},
		)
		rng := domain.DateRange{
			Start: time.Date(2024, 3, 1, 18, 0, 0, 0, time.UTC),
			End:   time.Date(2024, 3, 2, 6, 0, 0, 0, time.UTC),
		}
		out, err := shaping.Filter(dates, domain.NewSelection().WithDateRange(rng), "Data")
		require.NoError(t, err)
		assert.Equal(t, []string{"1", "2"}, out.Distinct("Chave"))
	})

	t.Run("counts rows dropped as unparseable", func(t *testing.T) {
		sel := domain.NewSelection().WithDateRange(domain.NewDateRange(day(2024, 12, 1), day(2024, 12, 31)))
		out, stats, err := shaping.FilterWithStats(table, sel, "Criado")
		require.NoError(t, err)
		assert.Equal(t, 2, out.Len())
		assert.Equal(t, shaping.FilterStats{DateColumn: "Criado", Unparsed: 1}, stats)

		_, stats, err = shaping.FilterWithStats(table, sel.WithValues("Unidade", "B"), "Criado")
		require.NoError(t, err)
		assert.Zero(t, stats.Unparsed, "rows excluded by value constraints are not counted")
	})

	t.Run("column without any parseable date leaves the bound unapplied", func(t *testing.T) {
		intake := newTable(t, []string{"Chave", "Entrada do chamado"},
			[]string{"1", "E-mail"},
			[]string{"2", "Telefone"},
		)
		sel := domain.NewSelection().WithDateRange(domain.NewDateRange(day(2024, 1, 1), day(2024, 12, 31)))
		out, stats, err := shaping.FilterWithStats(intake, sel, "Entrada do chamado")
		require.NoError(t, err)
		assert.Equal(t, 2, out.Len())
		assert.True(t, stats.BoundIgnored)
		assert.Zero(t, stats.Unparsed)
	})

	t.Run("ignored without a recognized date column", func(t *testing.T) {
		sel := domain.NewSelection().WithDateRange(domain.NewDateRange(day(2030, 1, 1), day(2030, 1, 2)))
		out, err := shaping.Filter(table, sel, "Entrada do chamado")
		require.NoError(t, err)
		assert.Equal(t, table.Len(), out.Len())

		out, err = shaping.Filter(table, sel, "")
		require.NoError(t, err)
		assert.Equal(t, table.Len(), out.Len())
	})
}

func TestFilterOptions(t *testing.T) {
	table := tickets(t)

	opts := shaping.FilterOptions(table, []string{"Unidade", "Chave", "Técnico N1 Responsável"}, "Criado")

	assert.Equal(t, []string{"A", "B", "C"}, opts.Columns["Unidade"])
	assert.Equal(t, []string{"T-1", "T-2", "T-3", "T-4"}, opts.Columns["Chave"])
	assert.NotContains(t, opts.Columns, "Técnico N1 Responsável")
	assert.Equal(t, "Criado", opts.DateColumn)
	assert.Equal(t, "2024-11-15", opts.MinDate)
	assert.Equal(t, "2024-12-31", opts.MaxDate)

	t.Run("no date column", func(t *testing.T) {
		opts := shaping.FilterOptions(table, []string{"Unidade"}, "Entrada do chamado")
		assert.Empty(t, opts.DateColumn)
		assert.Empty(t, opts.MinDate)
	})
}
