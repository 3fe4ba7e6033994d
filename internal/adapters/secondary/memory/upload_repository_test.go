package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lorrc/ticket-insights/internal/adapters/secondary/memory"
	"github.com/lorrc/ticket-insights/internal/core/domain"
	apperrors "github.com/lorrc/ticket-insights/internal/core/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUploadRepository(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewUploadRepository()

	content := []byte("Chave\nT-1\n")
	upload := &domain.Upload{
		ID:         "abc",
		Filename:   "chamados.csv",
		Format:     domain.FormatCSV,
		Content:    content,
		SizeBytes:  int64(len(content)),
		RowCount:   1,
		UploadedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, repo.Save(ctx, upload))

	content[0] = 'X'
	got, err := repo.GetByID(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "Chave\nT-1\n", string(got.Content))
	assert.Equal(t, "chamados.csv", got.Filename)

	t.Run("first copy wins", func(t *testing.T) {
		require.NoError(t, repo.Save(ctx, &domain.Upload{ID: "abc", Filename: "other.csv"}))
		got, err := repo.GetByID(ctx, "abc")
		require.NoError(t, err)
		assert.Equal(t, "chamados.csv", got.Filename)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := repo.GetByID(ctx, "missing")
		assert.True(t, errors.Is(err, apperrors.ErrDatasetNotFound))
	})

	t.Run("ping", func(t *testing.T) {
		assert.NoError(t, repo.Ping(ctx))
	})
}
