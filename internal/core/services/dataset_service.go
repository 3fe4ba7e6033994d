package services

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lorrc/ticket-insights/internal/core/domain"
	apperrors "github.com/lorrc/ticket-insights/internal/core/errors"
	"github.com/lorrc/ticket-insights/internal/core/ports"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/sync/singleflight"
)

// DatasetServiceConfig tunes upload handling.
type DatasetServiceConfig struct {
	MaxUploadBytes int64
	CacheSize      int
}

// DatasetService loads uploads into tables. Uploads are content addressed: the same
// bytes in the same format always map to the same dataset ID, and a re-upload reuses
// the stored copy.
type DatasetService struct {
	repo        ports.UploadRepository
	decoders    map[domain.Format]ports.TableDecoder
	dashboards  ports.DashboardService
	broadcaster ports.EventBroadcaster
	cache       *tableCache
	group       singleflight.Group
	cfg         DatasetServiceConfig
	logger      *slog.Logger
	now         func() time.Time
}

var _ ports.DatasetService = (*DatasetService)(nil)

// NewDatasetService creates a new dataset service
func NewDatasetService(
	repo ports.UploadRepository,
	decoders map[domain.Format]ports.TableDecoder,
	dashboards ports.DashboardService,
	broadcaster ports.EventBroadcaster,
	cfg DatasetServiceConfig,
	logger *slog.Logger,
) ports.DatasetService {
	return &DatasetService{
		repo:        repo,
		decoders:    decoders,
		dashboards:  dashboards,
		broadcaster: broadcaster,
		cache:       newTableCache(cfg.CacheSize),
		cfg:         cfg,
		logger:      logger.With("service", "dataset"),
		now:         time.Now,
	}
}

// DatasetID returns the content address of an upload. The format is part of the
// address, so the same bytes uploaded under another extension are a separate dataset.
func DatasetID(format domain.Format, content []byte) string {
	h, _ := blake2b.New256(nil) // fails only for an oversized key
	h.Write([]byte(format))
	h.Write([]byte{0})
	h.Write(content)
	return hex.EncodeToString(h.Sum(nil))
}

// Upload decodes and stores a new dataset, or returns the existing one when the same
// content was uploaded before.
func (s *DatasetService) Upload(ctx context.Context, params ports.UploadParams) (*ports.DatasetSummary, error) {
	if len(params.Content) == 0 {
		return nil, apperrors.ErrEmptyUpload
	}
	if s.cfg.MaxUploadBytes > 0 && int64(len(params.Content)) > s.cfg.MaxUploadBytes {
		return nil, apperrors.ErrUploadTooLarge
	}

	format := domain.FormatFromFilename(params.Filename)
	if _, ok := s.decoders[format]; !ok {
		return nil, apperrors.NewLoadError(
			fmt.Sprintf("cannot read %q: expected one of %s", params.Filename, s.formatList()),
			apperrors.ErrUnsupportedFormat,
		)
	}

	id := DatasetID(format, params.Content)
	if dataset, err := s.Get(ctx, id); err == nil {
		s.logger.InfoContext(ctx, "upload matched existing dataset", "dataset_id", id)
		summary := s.summarize(dataset, true)
		s.announce(summary)
		return summary, nil
	} else if !errors.Is(err, apperrors.ErrDatasetNotFound) {
		return nil, err
	}

	table, err := s.decode(ctx, format, params.Content)
	if err != nil {
		return nil, err
	}

	upload := &domain.Upload{
		ID:         id,
		Filename:   params.Filename,
		Format:     format,
		Content:    params.Content,
		SizeBytes:  int64(len(params.Content)),
		RowCount:   table.Len(),
		UploadedAt: s.now().UTC(),
	}
	if err := s.repo.Save(ctx, upload); err != nil {
		return nil, fmt.Errorf("storing upload: %w", err)
	}

	dataset := &domain.Dataset{
		ID:         id,
		Filename:   upload.Filename,
		Format:     format,
		UploadedAt: upload.UploadedAt,
		Table:      table,
	}
	s.cache.put(dataset)

	s.logger.InfoContext(ctx, "dataset uploaded",
		"dataset_id", id,
		"filename", params.Filename,
		"rows", table.Len(),
		"columns", len(table.Columns()),
	)

	summary := s.summarize(dataset, false)
	s.announce(summary)
	return summary, nil
}

// Get returns a decoded dataset. Concurrent lookups of an uncached dataset share a
// single decode.
func (s *DatasetService) Get(ctx context.Context, id string) (*domain.Dataset, error) {
	if dataset, ok := s.cache.get(id); ok {
		return dataset, nil
	}

	v, err, _ := s.group.Do(id, func() (interface{}, error) {
		upload, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		table, err := s.decode(ctx, upload.Format, upload.Content)
		if err != nil {
			return nil, err
		}
		dataset := &domain.Dataset{
			ID:         upload.ID,
			Filename:   upload.Filename,
			Format:     upload.Format,
			UploadedAt: upload.UploadedAt,
			Table:      table,
		}
		s.cache.put(dataset)
		return dataset, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Dataset), nil
}

// Describe returns the summary of a stored dataset.
func (s *DatasetService) Describe(ctx context.Context, id string) (*ports.DatasetSummary, error) {
	dataset, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.summarize(dataset, false), nil
}

func (s *DatasetService) decode(ctx context.Context, format domain.Format, content []byte) (*domain.Table, error) {
	decoder, ok := s.decoders[format]
	if !ok {
		return nil, apperrors.NewLoadError(fmt.Sprintf("no decoder for format %q", format), apperrors.ErrUnsupportedFormat)
	}
	return decoder.Decode(ctx, bytes.NewReader(content))
}

func (s *DatasetService) summarize(dataset *domain.Dataset, reused bool) *ports.DatasetSummary {
	return &ports.DatasetSummary{
		ID:         dataset.ID,
		Filename:   dataset.Filename,
		Format:     dataset.Format,
		RowCount:   dataset.Table.Len(),
		UploadedAt: dataset.UploadedAt.Format(time.RFC3339),
		Reused:     reused,
		Schema:     s.dashboards.Columns(dataset.Table),
	}
}

func (s *DatasetService) announce(summary *ports.DatasetSummary) {
	if s.broadcaster == nil {
		return
	}
	err := s.broadcaster.Broadcast(domain.Event{
		Type: domain.EventDatasetUploaded,
		Payload: domain.DatasetUploadedPayload{
			DatasetID: summary.ID,
			Filename:  summary.Filename,
			RowCount:  summary.RowCount,
			Reused:    summary.Reused,
		},
	})
	if err != nil {
		s.logger.Warn("failed to broadcast event", "type", domain.EventDatasetUploaded, "error", err)
	}
}

func (s *DatasetService) formatList() string {
	var out string
	for _, f := range []domain.Format{domain.FormatXLSX, domain.FormatCSV} {
		if _, ok := s.decoders[f]; !ok {
			continue
		}
		if out != "" {
			out += ", "
		}
		out += "." + string(f)
	}
	return out
}
