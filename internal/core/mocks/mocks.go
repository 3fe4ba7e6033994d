package mocks

import (
	"context"
	"io"

	"github.com/lorrc/ticket-insights/internal/core/domain"
	"github.com/lorrc/ticket-insights/internal/core/ports"
	"github.com/stretchr/testify/mock"
)

// MockUploadRepository is a mock implementation of ports.UploadRepository
type MockUploadRepository struct {
	mock.Mock
}

func NewMockUploadRepository() *MockUploadRepository {
	return &MockUploadRepository{}
}

func (m *MockUploadRepository) Save(ctx context.Context, upload *domain.Upload) error {
	args := m.Called(ctx, upload)
	return args.Error(0)
}

func (m *MockUploadRepository) GetByID(ctx context.Context, id string) (*domain.Upload, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Upload), args.Error(1)
}

func (m *MockUploadRepository) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockTableDecoder is a mock implementation of ports.TableDecoder
type MockTableDecoder struct {
	mock.Mock
}

func NewMockTableDecoder() *MockTableDecoder {
	return &MockTableDecoder{}
}

func (m *MockTableDecoder) Decode(ctx context.Context, r io.Reader) (*domain.Table, error) {
	args := m.Called(ctx, r)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Table), args.Error(1)
}

// MockTableEncoder is a mock implementation of ports.TableEncoder
type MockTableEncoder struct {
	mock.Mock
}

func NewMockTableEncoder() *MockTableEncoder {
	return &MockTableEncoder{}
}

func (m *MockTableEncoder) Encode(w io.Writer, table *domain.Table) error {
	args := m.Called(w, table)
	return args.Error(0)
}

func (m *MockTableEncoder) ContentType() string {
	args := m.Called()
	return args.String(0)
}

// MockEventBroadcaster is a mock implementation of ports.EventBroadcaster
type MockEventBroadcaster struct {
	mock.Mock
}

func NewMockEventBroadcaster() *MockEventBroadcaster {
	return &MockEventBroadcaster{}
}

func (m *MockEventBroadcaster) Broadcast(event domain.Event) error {
	args := m.Called(event)
	return args.Error(0)
}

// MockDatasetService is a mock implementation of ports.DatasetService
type MockDatasetService struct {
	mock.Mock
}

func NewMockDatasetService() *MockDatasetService {
	return &MockDatasetService{}
}

func (m *MockDatasetService) Upload(ctx context.Context, params ports.UploadParams) (*ports.DatasetSummary, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.DatasetSummary), args.Error(1)
}

func (m *MockDatasetService) Get(ctx context.Context, id string) (*domain.Dataset, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Dataset), args.Error(1)
}

func (m *MockDatasetService) Describe(ctx context.Context, id string) (*ports.DatasetSummary, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.DatasetSummary), args.Error(1)
}
