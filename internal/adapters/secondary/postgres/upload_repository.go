package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lorrc/ticket-insights/internal/core/domain"
	apperrors "github.com/lorrc/ticket-insights/internal/core/errors"
	"github.com/lorrc/ticket-insights/internal/core/ports"
)

type UploadRepository struct {
	pool *pgxpool.Pool
}

var _ ports.UploadRepository = (*UploadRepository)(nil)

func NewUploadRepository(pool *pgxpool.Pool) ports.UploadRepository {
	return &UploadRepository{pool: pool}
}

// Save inserts upload. Uploads are content addressed, so a conflicting ID already
// holds the same bytes and the existing row is kept.
func (r *UploadRepository) Save(ctx context.Context, upload *domain.Upload) error {
	const query = `
INSERT INTO uploads (id, filename, format, content, size_bytes, row_count, uploaded_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (id) DO NOTHING`

	_, err := r.pool.Exec(ctx, query,
		upload.ID,
		upload.Filename,
		string(upload.Format),
		upload.Content,
		upload.SizeBytes,
		upload.RowCount,
		upload.UploadedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting upload %s: %w", upload.ID, err)
	}
	return nil
}

func (r *UploadRepository) GetByID(ctx context.Context, id string) (*domain.Upload, error) {
	const query = `
SELECT id, filename, format, content, size_bytes, row_count, uploaded_at
FROM uploads
WHERE id = $1`

	var (
		upload domain.Upload
		format string
	)
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&upload.ID,
		&upload.Filename,
		&format,
		&upload.Content,
		&upload.SizeBytes,
		&upload.RowCount,
		&upload.UploadedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrDatasetNotFound
		}
		return nil, fmt.Errorf("loading upload %s: %w", id, err)
	}
	upload.Format = domain.Format(format)
	return &upload, nil
}

func (r *UploadRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}
