package models

import "time"

// Scenario identifies which dataset a sample or alert belongs to.
type Scenario string

const (
	ScenarioBaseline  Scenario = "baseline"
	ScenarioAnomaly   Scenario = "anomaly"
	ScenarioOptimized Scenario = "optimized"
)

// Scenarios lists all scenarios in generation order.
var Scenarios = []Scenario{ScenarioBaseline, ScenarioAnomaly, ScenarioOptimized}

// Shift values derived from hour-of-day.
const (
	ShiftMorning   = "morning"   // [06:00, 14:00)
	ShiftAfternoon = "afternoon" // [14:00, 22:00)
	ShiftNight     = "night"
)

// Line status derived from the production rate.
const (
	LineRunning = "running"
	LineStopped = "stopped"
)

// ProcessSample is one observation of the production line at a fixed
// time-grid point. All flows are in L/h.
//
// WUR (inlet flow / production) is nil when production is zero: the ratio
// is undefined there and consumers must treat it as unknown rather than
// as a threshold value.
type ProcessSample struct {
	Timestamp         time.Time `json:"timestamp"`
	Scenario          Scenario  `json:"scenario"`
	InletFlow         float64   `json:"inlet_flow_lph"`
	PostTreatmentFlow float64   `json:"post_treatment_flow_lph"`
	RinseFlow         float64   `json:"rinse_flow_lph"`
	CIPFlow           float64   `json:"cip_flow_lph"`
	Production        float64   `json:"production_lph"`
	Conductivity      float64   `json:"conductivity_uS_cm"`
	Turbidity         float64   `json:"turbidity_NTU"`
	Temperature       float64   `json:"temperature_C"`
	CIPActive         bool      `json:"cip_active"`
	Shift             string    `json:"shift"`
	LineStatus        string    `json:"line_status"`
	WUR               *float64  `json:"wur"`
}

// Alert severities.
const (
	SeverityMedium = "MEDIUM"
	SeverityHigh   = "HIGH"
)

// Alert kinds, in rule evaluation order.
const (
	AlertWURCritical   = "WUR critical"
	AlertWURElevated   = "WUR elevated"
	AlertSuspectedLeak = "Suspected leak"
	AlertOverRinse     = "Over-rinse"
)

// Alert is one finding of the alert engine for the latest observed sample.
// Alerts are ephemeral: produced fresh on each evaluation, never
// deduplicated across calls.
type Alert struct {
	ID        int64     `json:"id"`
	Scenario  Scenario  `json:"scenario"`
	Kind      string    `json:"kind"`
	Severity  string    `json:"severity"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// ValidationReport collects the findings of the post-generation audit.
// Errors and warnings are advisory: generation itself has already
// succeeded by the time the audit runs.
type ValidationReport struct {
	Scenario Scenario `json:"scenario"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// OK reports whether the audit found no errors (warnings are allowed).
func (r *ValidationReport) OK() bool {
	return len(r.Errors) == 0
}

// ScenarioSummary holds the headline figures the dashboard displays for
// one scenario.
type ScenarioSummary struct {
	Scenario        Scenario `json:"scenario"`
	MeanWUR         float64  `json:"mean_wur"`
	TotalInletM3    float64  `json:"total_inlet_m3"`
	TotalProductM3  float64  `json:"total_production_m3"`
	Samples         int      `json:"samples"`
	UndefinedWURPts int      `json:"undefined_wur_points"`
}
