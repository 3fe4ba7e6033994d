package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/lorrc/ticket-insights/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadProfile_EmptyPathIsDefault(t *testing.T) {
	profile, err := LoadProfile("")
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultProfile(), profile)
}

func TestLoadProfile_OverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.yaml")
	content := `
name: v2
columns:
  status: ["Situação", "Status"]
  unit: ["Filial"]
completed_status: RESOLVIDO
top_n: 3
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	profile, err := LoadProfile(path)
	require.NoError(t, err)

	assert.Equal(t, "v2", profile.Name)
	assert.Equal(t, []string{"Situação", "Status"}, profile.Columns[domain.RoleStatus])
	assert.Equal(t, []string{"Filial"}, profile.Columns[domain.RoleUnit])
	assert.Equal(t, []string{"Chave"}, profile.Columns[domain.RoleKey])
	assert.Equal(t, "RESOLVIDO", profile.CompletedStatus)
	assert.Equal(t, 3, profile.TopN)
	assert.Equal(t, "N1 para N2", profile.EscalationLabels.Apply("Sim"))
}

func TestLoadProfile_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := LoadProfile(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		_, err := ParseProfile([]byte("columns: [unclosed"))
		assert.Error(t, err)
	})

	t.Run("invalid profile", func(t *testing.T) {
		_, err := ParseProfile([]byte("top_n: -1\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "top_n must be positive")
	})
}
