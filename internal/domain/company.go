package domain

// Confidence of a detected signal.
type Confidence string

const (
	ConfidenceHigh   Confidence = "High"
	ConfidenceMedium Confidence = "Medium"
	ConfidenceLow    Confidence = "Low"
)

// Signal is a transformation indicator derived from a company's job text.
// Type is its identity: one per type per company per run.
type Signal struct {
	Type         string     `json:"type"`
	Confidence   Confidence `json:"confidence"`
	Duration     string     `json:"duration"`
	ServiceLine  string     `json:"serviceLine"`
	Description  string     `json:"description"`
	ProjectValue string     `json:"projectValue"`
}

// CompanyProfile aggregates a company's jobs for one scoring run.
type CompanyProfile struct {
	Company string
	Jobs    []JobRecord
	Signals []Signal
	Score   int
	Tier    string
	Action  string
}

// Prospect is one row of the prospect store. Field order is the CSV column order.
type Prospect struct {
	Company        string `csv:"company" json:"company"`
	Score          int    `csv:"score" json:"score"`
	Tier           string `csv:"tier" json:"tier"`
	Action         string `csv:"action" json:"action"`
	TotalJobs      int    `csv:"total_jobs" json:"totalJobs"`
	JobsLast30Days int    `csv:"jobs_last_30_days" json:"jobsLast30Days"`
	Locations      int    `csv:"locations" json:"locations"`
	SignalCount    int    `csv:"signal_count" json:"signalCount"`
	PrimarySignal  string `csv:"primary_signal" json:"primarySignal"`
	AllSignals     string `csv:"all_signals" json:"allSignals"`
	FirstSeen      Date   `csv:"first_seen" json:"firstSeen"`
	LastActivity   Date   `csv:"last_activity" json:"lastActivity"`
	ProjectValue   string `csv:"project_value" json:"projectValue"`
}
