package domain

// Analysis names one breakdown of the dashboard.
type Analysis string

const (
	AnalysisCompleted      Analysis = "completed_kpi"
	AnalysisStatus         Analysis = "status_distribution"
	AnalysisEscalation     Analysis = "escalation_distribution"
	AnalysisAssigneeStatus Analysis = "assignee_status"
	AnalysisCategory       Analysis = "category_distribution"
	AnalysisIntake         Analysis = "intake_distribution"
	AnalysisTimeline       Analysis = "status_timeline"
	AnalysisTopCategories  Analysis = "top_categories"
	AnalysisResolutionTime Analysis = "resolution_time"
	AnalysisHourly         Analysis = "hourly_distribution"
	AnalysisMonthly        Analysis = "monthly_distribution"
)

// SkippedAnalysis records an analysis left out because its columns are absent.
type SkippedAnalysis struct {
	Analysis       Analysis `json:"analysis"`
	MissingColumns []string `json:"missingColumns"`
	Message        string   `json:"message"`
}

// Dashboard is every shaped view computed for one filter application.
// It is built fresh per request and never shared.
type Dashboard struct {
	DatasetID  string `json:"datasetId,omitempty"`
	SourceRows int    `json:"sourceRows"`
	RowCount   int    `json:"rowCount"`
	KPIs       []KPI  `json:"kpis"`

	Status         *CountResult      `json:"statusDistribution,omitempty"`
	Escalation     *CountResult      `json:"escalationDistribution,omitempty"`
	AssigneeStatus *CrossCountResult `json:"assigneeStatus,omitempty"`
	Categories     *CountResult      `json:"categoryDistribution,omitempty"`
	Intake         *CountResult      `json:"intakeDistribution,omitempty"`
	Timeline       *TrendResult      `json:"statusTimeline,omitempty"`
	TopCategories  *CountResult      `json:"topCategories,omitempty"`
	ResolutionTime *DurationResult   `json:"resolutionTime,omitempty"`
	Hourly         *BucketResult     `json:"hourlyDistribution,omitempty"`
	Monthly        *BucketResult     `json:"monthlyDistribution,omitempty"`

	Skipped []SkippedAnalysis `json:"skipped"`
	Notices []string          `json:"notices"`
}

// KPI returns the value of the named KPI, or 0 when absent.
func (d *Dashboard) KPI(name string) int {
	for _, k := range d.KPIs {
		if k.Name == name {
			return k.Value
		}
	}
	return 0
}
