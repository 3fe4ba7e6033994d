package ports

import (
	"context"
	"io"

	"github.com/lorrc/ticket-insights/internal/core/domain"
)

// UploadParams defines the input for loading a new dataset.
type UploadParams struct {
	Filename string
	Content  []byte
}

// DatasetSummary describes a loaded dataset without its rows.
type DatasetSummary struct {
	ID         string              `json:"id"`
	Filename   string              `json:"filename"`
	Format     domain.Format       `json:"format"`
	RowCount   int                 `json:"rowCount"`
	UploadedAt string              `json:"uploadedAt"`
	Reused     bool                `json:"reused"`
	Schema     domain.ColumnReport `json:"schema"`
}

// DatasetService defines the port for loading and looking up datasets.
type DatasetService interface {
	Upload(ctx context.Context, params UploadParams) (*DatasetSummary, error)
	Get(ctx context.Context, id string) (*domain.Dataset, error)
	Describe(ctx context.Context, id string) (*DatasetSummary, error)
}

// DashboardService defines the port for shaping a dataset into dashboard views.
type DashboardService interface {
	Columns(table *domain.Table) domain.ColumnReport
	Options(table *domain.Table) domain.FilterOptions
	Build(ctx context.Context, dataset *domain.Dataset, sel domain.Selection) (*domain.Dashboard, error)
	Apply(ctx context.Context, table *domain.Table, sel domain.Selection) (*domain.Table, error)
	Export(ctx context.Context, w io.Writer, table *domain.Table, sel domain.Selection) error
}
