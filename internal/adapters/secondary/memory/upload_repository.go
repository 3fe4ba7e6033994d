package memory

import (
	"context"
	"sync"

	"github.com/lorrc/ticket-insights/internal/core/domain"
	apperrors "github.com/lorrc/ticket-insights/internal/core/errors"
	"github.com/lorrc/ticket-insights/internal/core/ports"
)

// UploadRepository keeps uploads in process memory. It is the store used when no
// database is configured; contents are lost on restart.
type UploadRepository struct {
	mu      sync.RWMutex
	uploads map[string]domain.Upload
}

var _ ports.UploadRepository = (*UploadRepository)(nil)

func NewUploadRepository() *UploadRepository {
	return &UploadRepository{uploads: make(map[string]domain.Upload)}
}

// Save stores upload. Saving an ID that already exists keeps the first copy.
func (r *UploadRepository) Save(ctx context.Context, upload *domain.Upload) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.uploads[upload.ID]; ok {
		return nil
	}
	stored := *upload
	stored.Content = append([]byte(nil), upload.Content...)
	r.uploads[upload.ID] = stored
	return nil
}

func (r *UploadRepository) GetByID(ctx context.Context, id string) (*domain.Upload, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	stored, ok := r.uploads[id]
	if !ok {
		return nil, apperrors.ErrDatasetNotFound
	}
	return &stored, nil
}

func (r *UploadRepository) Ping(ctx context.Context) error {
	return ctx.Err()
}
