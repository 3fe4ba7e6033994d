package shaping_test

import (
	"testing"

	"github.com/lorrc/ticket-insights/internal/core/domain"
	"github.com/stretchr/testify/require"
)

// tickets builds a small table in the shape of a service-desk export.
func tickets(t *testing.T) *domain.Table {
	t.Helper()
	table, err := domain.NewTable(
		[]string{"Chave", "Status", "Unidade", "Categoria - N1", "Escalonado", "Criado", "Data de conclusão"},
		[][]string{
			{"T-1", "CONCLUÍDO", "A", "Rede", "Sim", "31/12/2024 14:05", "01/01/2025 14:05"},
			{"T-2", "PENDENTE", "B", "Acesso", "Não", "15/11/2024 09:30", ""},
			{"T-3", "CONCLUÍDO", "A", "Rede", "Desconhecido", "not a date", "02/01/2025 10:00"},
			{"T-4", "EM ANDAMENTO", "C", "Hardware", "NOC", "01/12/2024 09:10", "01/12/2024 08:00"},
		},
	)
	require.NoError(t, err)
	return table
}

func newTable(t *testing.T, columns []string, rows ...[]string) *domain.Table {
	t.Helper()
	table, err := domain.NewTable(columns, rows)
	require.NoError(t, err)
	return table
}

func rowsOf(table *domain.Table) [][]string {
	out := make([][]string, table.Len())
	for i := range out {
		out[i] = table.Cells(i)
	}
	return out
}
