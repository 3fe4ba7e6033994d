package ports

import (
	"context"
	"io"

	"github.com/lorrc/ticket-insights/internal/core/domain"
)

// UploadRepository stores raw uploads keyed by their content hash so a dataset can be
// decoded again after the in-process cache drops it. GetByID returns
// ErrDatasetNotFound for an unknown ID.
type UploadRepository interface {
	Save(ctx context.Context, upload *domain.Upload) error
	GetByID(ctx context.Context, id string) (*domain.Upload, error)
	Ping(ctx context.Context) error
}

// TableDecoder turns an uploaded file into a Table. Any decoding problem is reported
// as a load failure.
type TableDecoder interface {
	Decode(ctx context.Context, r io.Reader) (*domain.Table, error)
}

// TableEncoder serializes a Table.
type TableEncoder interface {
	Encode(w io.Writer, table *domain.Table) error
	ContentType() string
}

// EventBroadcaster defines the port for broadcasting real-time events.
type EventBroadcaster interface {
	Broadcast(event domain.Event) error
}
