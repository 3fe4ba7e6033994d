package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/lorrc/ticket-insights/internal/adapters/secondary/spreadsheet"
	"github.com/lorrc/ticket-insights/internal/auth"
	"github.com/lorrc/ticket-insights/internal/config"
	"github.com/lorrc/ticket-insights/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ticketsCSV = "Chave,Status,Unidade,Escalonado,Entrada do chamado\n" +
	"T-1,CONCLUÍDO,A,Sim,30/12/2024 08:00\n" +
	"T-2,PENDENTE,B,Desconhecido,10/11/2024 09:00\n" +
	"T-3,CONCLUÍDO,A,Não,01/12/2024 12:00\n"

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func run(t *testing.T, cfg *config.Config, args ...string) (string, error) {
	t.Helper()
	if cfg == nil {
		cfg = config.FromEnv()
		cfg.Analysis.ProfilePath = ""
	}
	var out, errOut bytes.Buffer
	cli := NewCLI(Options{Config: cfg, Output: &out, Errors: &errOut})
	err := cli.Execute(context.Background(), args)
	return out.String(), err
}

func TestAnalyze_Text(t *testing.T) {
	path := writeFile(t, "chamados.csv", ticketsCSV)

	out, err := run(t, nil, "analyze", path)
	require.NoError(t, err)

	assert.Contains(t, out, "chamados.csv: 3 of 3 rows selected")
	assert.Contains(t, out, "=== Status (Status) ===")
	assert.Contains(t, out, "N1 para N2")
	assert.Contains(t, out, "Desconhecido")
	assert.Contains(t, out, "Skipped:")
}

func TestAnalyze_JSONWithFilters(t *testing.T) {
	path := writeFile(t, "chamados.csv", ticketsCSV)

	out, err := run(t, nil, "analyze", path, "--format", "json", "--filter", "Unidade=A")
	require.NoError(t, err)

	var dash domain.Dashboard
	require.NoError(t, json.Unmarshal([]byte(out), &dash))
	assert.Equal(t, 2, dash.RowCount)
	require.NotNil(t, dash.Status)
	assert.Equal(t, 2, dash.Status.Count("CONCLUÍDO"))
}

func TestAnalyze_DateRange(t *testing.T) {
	path := writeFile(t, "chamados.csv", ticketsCSV)

	out, err := run(t, nil, "analyze", path, "--format", "json", "--from", "01/12/2024", "--to", "31/12/2024")
	require.NoError(t, err)

	var dash domain.Dashboard
	require.NoError(t, json.Unmarshal([]byte(out), &dash))
	assert.Equal(t, 2, dash.RowCount)
}

func TestAnalyze_Errors(t *testing.T) {
	path := writeFile(t, "chamados.csv", ticketsCSV)

	cases := []struct {
		name string
		args []string
	}{
		{"bad format flag", []string{"analyze", path, "--format", "yaml"}},
		{"bad filter", []string{"analyze", path, "--filter", "novalue"}},
		{"half date range", []string{"analyze", path, "--from", "2024-01-01"}},
		{"bad date", []string{"analyze", path, "--from", "x", "--to", "y"}},
		{"missing file", []string{"analyze", filepath.Join(t.TempDir(), "nope.csv")}},
		{"unsupported extension", []string{"analyze", writeFile(t, "notes.txt", "x")}},
		{"schema incomplete", []string{"analyze", writeFile(t, "partial.csv", "Chave\nT-1\n")}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := run(t, nil, tc.args...)
			assert.Error(t, err)
		})
	}
}

func TestExport(t *testing.T) {
	path := writeFile(t, "chamados.csv", ticketsCSV)

	t.Run("csv", func(t *testing.T) {
		out := filepath.Join(t.TempDir(), "filtrados.csv")
		stdout, err := run(t, nil, "export", path, "--out", out, "--filter", "Unidade=B")
		require.NoError(t, err)
		assert.Contains(t, stdout, "wrote 1 of 3 rows")

		f, err := os.Open(out)
		require.NoError(t, err)
		defer f.Close()

		table, err := spreadsheet.NewCSVDecoder().Decode(context.Background(), f)
		require.NoError(t, err)
		assert.Equal(t, 1, table.Len())
	})

	t.Run("xlsx", func(t *testing.T) {
		out := filepath.Join(t.TempDir(), "filtrados.xlsx")
		_, err := run(t, nil, "export", path, "--out", out)
		require.NoError(t, err)

		f, err := os.Open(out)
		require.NoError(t, err)
		defer f.Close()

		table, err := spreadsheet.NewXLSXDecoder().Decode(context.Background(), f)
		require.NoError(t, err)
		assert.Equal(t, 3, table.Len())
	})

	t.Run("empty selection writes the header only", func(t *testing.T) {
		out := filepath.Join(t.TempDir(), "vazio.csv")
		_, err := run(t, nil, "export", path, "--out", out, "--filter", "Unidade=")
		require.NoError(t, err)

		data, err := os.ReadFile(out)
		require.NoError(t, err)
		assert.Equal(t, "Chave,Status,Unidade,Escalonado,Entrada do chamado", strings.TrimSpace(string(data)))
	})

	t.Run("unknown output format", func(t *testing.T) {
		_, err := run(t, nil, "export", path, "--out", filepath.Join(t.TempDir(), "x.json"))
		assert.Error(t, err)
	})

	t.Run("unknown filter column leaves no file", func(t *testing.T) {
		out := filepath.Join(t.TempDir(), "x.csv")
		_, err := run(t, nil, "export", path, "--out", out, "--filter", "Nope=1")
		require.Error(t, err)
		assert.NoFileExists(t, out)
	})
}

func TestColumns(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		out, err := run(t, nil, "columns", writeFile(t, "chamados.csv", ticketsCSV))
		require.NoError(t, err)
		assert.Contains(t, out, "5 columns")
		assert.Contains(t, out, "All required columns are present.")
	})

	t.Run("missing", func(t *testing.T) {
		out, err := run(t, nil, "columns", writeFile(t, "partial.csv", "Chave\nT-1\n"))
		require.NoError(t, err)
		assert.Contains(t, out, "Missing required columns: Status, Unidade")
	})
}

func TestColumns_CustomProfile(t *testing.T) {
	profile := writeFile(t, "profile.yaml", "required: [key]\n")

	out, err := run(t, nil, "columns", writeFile(t, "partial.csv", "Chave\nT-1\n"), "--profile", profile)
	require.NoError(t, err)
	assert.Contains(t, out, "All required columns are present.")
}

func TestToken(t *testing.T) {
	cfg := config.FromEnv()
	cfg.JWT.Secret = "cli-test-secret"
	cfg.App.Name = "ticket-insights"

	out, err := run(t, cfg, "token", "--client", "grafana", "--ttl", "10m")
	require.NoError(t, err)

	claims, err := auth.NewTokenManager("cli-test-secret", time.Hour, "").ValidateToken(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "grafana", claims.ClientID)
	assert.WithinDuration(t, time.Now().Add(10*time.Minute), claims.ExpiresAt.Time, 5*time.Second)

	t.Run("requires a secret", func(t *testing.T) {
		cfg := config.FromEnv()
		cfg.JWT.Secret = ""
		_, err := run(t, cfg, "token", "--client", "grafana")
		assert.Error(t, err)
	})

	t.Run("requires a client", func(t *testing.T) {
		_, err := run(t, cfg, "token")
		assert.Error(t, err)
	})
}
