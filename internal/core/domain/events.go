package domain

// EventType defines the type of real-time event.
type EventType string

const (
	EventDatasetUploaded   EventType = "DATASET_UPLOADED"
	EventDashboardComputed EventType = "DASHBOARD_COMPUTED"
)

// Event is the payload sent over WebSocket.
type Event struct {
	Type      EventType   `json:"type"`
	Payload   interface{} `json:"payload"`
	DatasetID string      `json:"datasetId,omitempty"` // Empty means every connected client
}

// DatasetUploadedPayload announces a newly available dataset.
type DatasetUploadedPayload struct {
	DatasetID string `json:"datasetId"`
	Filename  string `json:"filename"`
	RowCount  int    `json:"rowCount"`
	Reused    bool   `json:"reused"`
}

// DashboardComputedPayload summarizes a dashboard computed for a dataset.
type DashboardComputedPayload struct {
	DatasetID   string `json:"datasetId"`
	RowCount    int    `json:"rowCount"`
	FilteredOut int    `json:"filteredOut"`
}
