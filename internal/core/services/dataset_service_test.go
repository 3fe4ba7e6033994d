package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"

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

type datasetFixture struct {
	repo        *mocks.MockUploadRepository
	decoder     *mocks.MockTableDecoder
	broadcaster *mocks.MockEventBroadcaster
	svc         ports.DatasetService
}

func newDatasetFixture(cfg services.DatasetServiceConfig) *datasetFixture {
	f := &datasetFixture{
		repo:        mocks.NewMockUploadRepository(),
		decoder:     mocks.NewMockTableDecoder(),
		broadcaster: mocks.NewMockEventBroadcaster(),
	}
	f.svc = services.NewDatasetService(
		f.repo,
		map[domain.Format]ports.TableDecoder{domain.FormatCSV: f.decoder},
		newDashboardService(nil),
		f.broadcaster,
		cfg,
		logging.Discard(),
	)
	return f
}

func statusTable(t *testing.T) *domain.Table {
	t.Helper()
	table, err := domain.NewTable([]string{"Chave", "Status", "Unidade"}, [][]string{
		{"T-1", "CONCLUÍDO", "A"},
		{"T-2", "PENDENTE", "B"},
	})
	require.NoError(t, err)
	return table
}

func TestDatasetID(t *testing.T) {
	a := services.DatasetID(domain.FormatCSV, []byte("Chave,Status\n"))
	assert.Len(t, a, 64)
	assert.Equal(t, a, services.DatasetID(domain.FormatCSV, []byte("Chave,Status\n")))
	assert.NotEqual(t, a, services.DatasetID(domain.FormatCSV, []byte("Chave,Status\r\n")))
	assert.NotEqual(t, a, services.DatasetID(domain.FormatXLSX, []byte("Chave,Status\n")),
		"the same bytes under another format are a different dataset")
}

func TestDatasetService_Upload(t *testing.T) {
	ctx := context.Background()
	content := []byte("Chave,Status,Unidade\nT-1,CONCLUÍDO,A\nT-2,PENDENTE,B\n")
	id := services.DatasetID(domain.FormatCSV, content)

	t.Run("new upload is decoded and stored", func(t *testing.T) {
		f := newDatasetFixture(services.DatasetServiceConfig{})
		f.repo.On("GetByID", ctx, id).Return(nil, apperrors.ErrDatasetNotFound)
		f.decoder.On("Decode", ctx, mock.Anything).Return(statusTable(t), nil)
		f.repo.On("Save", ctx, mock.MatchedBy(func(u *domain.Upload) bool {
			return u.ID == id && u.RowCount == 2 && u.Format == domain.FormatCSV && u.SizeBytes == int64(len(content))
		})).Return(nil)
		f.broadcaster.On("Broadcast", mock.MatchedBy(func(e domain.Event) bool {
			p, ok := e.Payload.(domain.DatasetUploadedPayload)
			return ok && e.Type == domain.EventDatasetUploaded && p.DatasetID == id && !p.Reused
		})).Return(nil).Once()
		f.broadcaster.On("Broadcast", mock.Anything).Return(nil)

		summary, err := f.svc.Upload(ctx, ports.UploadParams{Filename: "chamados.csv", Content: content})
		require.NoError(t, err)
		assert.Equal(t, id, summary.ID)
		assert.Equal(t, 2, summary.RowCount)
		assert.False(t, summary.Reused)
		assert.True(t, summary.Schema.Valid)

		// Served from memory afterwards.
		dataset, err := f.svc.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "chamados.csv", dataset.Filename)

		again, err := f.svc.Upload(ctx, ports.UploadParams{Filename: "copia.csv", Content: content})
		require.NoError(t, err)
		assert.True(t, again.Reused)

		f.repo.AssertNumberOfCalls(t, "GetByID", 1)
		f.repo.AssertNumberOfCalls(t, "Save", 1)
		f.decoder.AssertNumberOfCalls(t, "Decode", 1)
	})

	t.Run("stored upload is reused", func(t *testing.T) {
		f := newDatasetFixture(services.DatasetServiceConfig{})
		f.repo.On("GetByID", ctx, id).Return(&domain.Upload{
			ID: id, Filename: "old.csv", Format: domain.FormatCSV, Content: content,
		}, nil)
		f.decoder.On("Decode", ctx, mock.Anything).Return(statusTable(t), nil)
		f.broadcaster.On("Broadcast", mock.Anything).Return(nil)

		summary, err := f.svc.Upload(ctx, ports.UploadParams{Filename: "new.csv", Content: content})
		require.NoError(t, err)
		assert.True(t, summary.Reused)
		assert.Equal(t, "old.csv", summary.Filename)
		f.repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("empty upload", func(t *testing.T) {
		f := newDatasetFixture(services.DatasetServiceConfig{})
		_, err := f.svc.Upload(ctx, ports.UploadParams{Filename: "a.csv"})
		assert.True(t, errors.Is(err, apperrors.ErrEmptyUpload))
	})

	t.Run("too large", func(t *testing.T) {
		f := newDatasetFixture(services.DatasetServiceConfig{MaxUploadBytes: 4})
		_, err := f.svc.Upload(ctx, ports.UploadParams{Filename: "a.csv", Content: content})
		assert.True(t, errors.Is(err, apperrors.ErrUploadTooLarge))
	})

	t.Run("unsupported format is a load failure", func(t *testing.T) {
		f := newDatasetFixture(services.DatasetServiceConfig{})
		_, err := f.svc.Upload(ctx, ports.UploadParams{Filename: "chamados.xls", Content: content})
		require.Error(t, err)
		assert.True(t, errors.Is(err, apperrors.ErrLoadFailure))
		assert.True(t, errors.Is(err, apperrors.ErrUnsupportedFormat))
		assert.Contains(t, err.Error(), ".csv")
	})

	t.Run("decode failure is returned unchanged", func(t *testing.T) {
		f := newDatasetFixture(services.DatasetServiceConfig{})
		loadErr := apperrors.NewLoadError("ragged row", nil)
		f.repo.On("GetByID", ctx, id).Return(nil, apperrors.ErrDatasetNotFound)
		f.decoder.On("Decode", ctx, mock.Anything).Return(nil, loadErr)

		_, err := f.svc.Upload(ctx, ports.UploadParams{Filename: "a.csv", Content: content})
		assert.ErrorIs(t, err, loadErr)
		f.repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("repository failure", func(t *testing.T) {
		f := newDatasetFixture(services.DatasetServiceConfig{})
		f.repo.On("GetByID", ctx, id).Return(nil, errors.New("connection refused"))

		_, err := f.svc.Upload(ctx, ports.UploadParams{Filename: "a.csv", Content: content})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "connection refused")
	})
}

func TestDatasetService_Get(t *testing.T) {
	ctx := context.Background()

	t.Run("not found", func(t *testing.T) {
		f := newDatasetFixture(services.DatasetServiceConfig{})
		f.repo.On("GetByID", ctx, "missing").Return(nil, apperrors.ErrDatasetNotFound)

		_, err := f.svc.Get(ctx, "missing")
		assert.True(t, errors.Is(err, apperrors.ErrDatasetNotFound))

		_, err = f.svc.Describe(ctx, "missing")
		assert.True(t, errors.Is(err, apperrors.ErrDatasetNotFound))
	})

	t.Run("concurrent lookups decode once", func(t *testing.T) {
		f := newDatasetFixture(services.DatasetServiceConfig{})
		f.repo.On("GetByID", mock.Anything, "ds").Return(&domain.Upload{
			ID: "ds", Format: domain.FormatCSV, Content: []byte("x"),
		}, nil).Maybe()
		f.decoder.On("Decode", mock.Anything, mock.Anything).Return(statusTable(t), nil)

		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				dataset, err := f.svc.Get(ctx, "ds")
				assert.NoError(t, err)
				assert.Equal(t, 2, dataset.Table.Len())
			}()
		}
		wg.Wait()

		dataset, err := f.svc.Get(ctx, "ds")
		require.NoError(t, err)
		assert.Equal(t, "ds", dataset.ID)
	})

	t.Run("evicted datasets are decoded again", func(t *testing.T) {
		f := newDatasetFixture(services.DatasetServiceConfig{CacheSize: 1})
		for _, id := range []string{"a", "b"} {
			f.repo.On("GetByID", ctx, id).Return(&domain.Upload{ID: id, Format: domain.FormatCSV, Content: []byte(id)}, nil)
		}
		f.decoder.On("Decode", ctx, mock.Anything).Return(statusTable(t), nil)

		for _, id := range []string{"a", "b", "a"} {
			_, err := f.svc.Get(ctx, id)
			require.NoError(t, err)
		}
		f.decoder.AssertNumberOfCalls(t, "Decode", 3)
	})

	t.Run("recently read datasets survive eviction", func(t *testing.T) {
		f := newDatasetFixture(services.DatasetServiceConfig{CacheSize: 2})
		for _, id := range []string{"a", "b", "c"} {
			f.repo.On("GetByID", ctx, id).Return(&domain.Upload{ID: id, Format: domain.FormatCSV, Content: []byte(id)}, nil)
		}
		f.decoder.On("Decode", ctx, mock.Anything).Return(statusTable(t), nil)

		// Reading "a" again makes "b" the least recently used entry when "c" arrives.
		for _, id := range []string{"a", "b", "a", "c", "a"} {
			_, err := f.svc.Get(ctx, id)
			require.NoError(t, err)
		}
		f.decoder.AssertNumberOfCalls(t, "Decode", 3)
		f.repo.AssertNumberOfCalls(t, "GetByID", 3)
	})
}
