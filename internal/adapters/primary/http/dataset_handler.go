package http

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	apperrors "github.com/lorrc/ticket-insights/internal/core/errors"
	"github.com/lorrc/ticket-insights/internal/core/ports"
	"github.com/lorrc/ticket-insights/internal/infrastructure/logging"
)

// multipartOverhead leaves room for form boundaries and headers around the file part.
const multipartOverhead = 1 << 20

// DatasetHandler handles uploads and dataset lookups
type DatasetHandler struct {
	datasets       ports.DatasetService
	dashboards     ports.DashboardService
	errorHandler   *ErrorHandler
	maxUploadBytes int64
	uploadLimit    func(http.Handler) http.Handler
	logger         *slog.Logger
}

// NewDatasetHandler creates a new dataset handler. uploadLimit, when non-nil, wraps
// the upload route only.
func NewDatasetHandler(
	datasets ports.DatasetService,
	dashboards ports.DashboardService,
	errorHandler *ErrorHandler,
	maxUploadBytes int64,
	uploadLimit func(http.Handler) http.Handler,
	logger *slog.Logger,
) *DatasetHandler {
	return &DatasetHandler{
		datasets:       datasets,
		dashboards:     dashboards,
		errorHandler:   errorHandler,
		maxUploadBytes: maxUploadBytes,
		uploadLimit:    uploadLimit,
		logger:         logger.With("handler", "dataset"),
	}
}

// RegisterRoutes sets up the routing for dataset endpoints.
func (h *DatasetHandler) RegisterRoutes(r chi.Router) {
	upload := http.Handler(http.HandlerFunc(h.HandleUpload))
	if h.uploadLimit != nil {
		upload = h.uploadLimit(upload)
	}
	r.Method(http.MethodPost, "/", upload)

	r.Get("/{datasetID}", h.HandleDescribe)
	r.Get("/{datasetID}/columns", h.HandleColumns)
	r.Get("/{datasetID}/options", h.HandleOptions)
}

// HandleUpload accepts a multipart form with a single "file" part.
func (h *DatasetHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+multipartOverhead)

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.errorHandler.Handle(w, r, apperrors.NewPayloadTooLargeError("The uploaded file is too large"))
			return
		}
		h.errorHandler.Handle(w, r, apperrors.NewBadRequestError(err, `Expected a multipart form with a "file" field`))
		return
	}
	defer func() { _ = file.Close() }()

	content, err := io.ReadAll(io.LimitReader(file, h.maxUploadBytes+1))
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	summary, err := h.datasets.Upload(r.Context(), ports.UploadParams{
		Filename: header.Filename,
		Content:  content,
	})
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	h.logger.InfoContext(logging.WithDatasetID(r.Context(), summary.ID), "dataset uploaded",
		"filename", summary.Filename,
		"rows", summary.RowCount,
		"reused", summary.Reused,
		"schema_valid", summary.Schema.Valid,
	)

	WriteCreated(w, summary)
}

// HandleDescribe returns the dataset summary and its schema report.
func (h *DatasetHandler) HandleDescribe(w http.ResponseWriter, r *http.Request) {
	summary, err := h.datasets.Describe(r.Context(), chi.URLParam(r, "datasetID"))
	if HandleError(w, r, err, h.errorHandler) {
		return
	}
	WriteJSON(w, http.StatusOK, summary)
}

// HandleColumns lists the dataset's columns in file order.
func (h *DatasetHandler) HandleColumns(w http.ResponseWriter, r *http.Request) {
	dataset, err := h.datasets.Get(r.Context(), chi.URLParam(r, "datasetID"))
	if HandleError(w, r, err, h.errorHandler) {
		return
	}
	WriteList(w, dataset.Table.Columns())
}

// HandleOptions returns the values each filter offers.
func (h *DatasetHandler) HandleOptions(w http.ResponseWriter, r *http.Request) {
	dataset, err := h.datasets.Get(r.Context(), chi.URLParam(r, "datasetID"))
	if HandleError(w, r, err, h.errorHandler) {
		return
	}
	WriteJSON(w, http.StatusOK, h.dashboards.Options(dataset.Table))
}
