package http

import (
	"bytes"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/lorrc/ticket-insights/internal/adapters/primary/validation"
	"github.com/lorrc/ticket-insights/internal/core/ports"
	"github.com/lorrc/ticket-insights/internal/infrastructure/logging"
)

// ExportFilename is the download name of filtered exports.
const ExportFilename = "dados_filtrados.csv"

// DashboardHandler computes dashboards and exports for a dataset
type DashboardHandler struct {
	datasets          ports.DatasetService
	dashboards        ports.DashboardService
	errorHandler      *ErrorHandler
	exportContentType string
	logger            *slog.Logger
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(
	datasets ports.DatasetService,
	dashboards ports.DashboardService,
	errorHandler *ErrorHandler,
	exportContentType string,
	logger *slog.Logger,
) *DashboardHandler {
	return &DashboardHandler{
		datasets:          datasets,
		dashboards:        dashboards,
		errorHandler:      errorHandler,
		exportContentType: exportContentType,
		logger:            logger.With("handler", "dashboard"),
	}
}

// RegisterRoutes sets up the routing for dashboard endpoints.
func (h *DashboardHandler) RegisterRoutes(r chi.Router) {
	r.Post("/{datasetID}/dashboard", h.HandleDashboard)
	r.Post("/{datasetID}/export", h.HandleExport)
}

// HandleDashboard applies the posted selection and returns every breakdown.
func (h *DashboardHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	req, err := validation.DecodeAndValidate[SelectionRequest](w, r)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	ctx := logging.WithDatasetID(r.Context(), chi.URLParam(r, "datasetID"))
	dataset, err := h.datasets.Get(ctx, chi.URLParam(r, "datasetID"))
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	dashboard, err := h.dashboards.Build(ctx, dataset, req.ToSelection())
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	WriteJSON(w, http.StatusOK, dashboard)
}

// HandleExport returns the filtered rows as a file download.
func (h *DashboardHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	req, err := validation.DecodeAndValidate[SelectionRequest](w, r)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	ctx := logging.WithDatasetID(r.Context(), chi.URLParam(r, "datasetID"))
	dataset, err := h.datasets.Get(ctx, chi.URLParam(r, "datasetID"))
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	// Buffer so that a failed export still gets a JSON error instead of a partial file.
	var buf bytes.Buffer
	if err := h.dashboards.Export(ctx, &buf, dataset.Table, req.ToSelection()); HandleError(w, r, err, h.errorHandler) {
		return
	}

	h.logger.DebugContext(ctx, "export written", "bytes", buf.Len())
	WriteAttachment(w, h.exportContentType, ExportFilename, buf.Bytes())
}
