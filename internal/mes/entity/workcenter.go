package entity

import (
	"time"
)

// Work center usage types.
const (
	UsageProduction           = "production"
	UsageOutsourcedProcessing = "outsourced_processing"
	UsageBoth                 = "both"
)

// Alert levels for the shop-floor overview. Any blocked operation forces
// danger regardless of lateness or stalls.
const (
	AlertOK      = "ok"
	AlertWarning = "warning"
	AlertDanger  = "danger"
)

// WorkCenter is a capacity-bearing production resource.
type WorkCenter struct {
	ID                      string   `json:"id"`
	Name                    string   `json:"name"`
	Code                    string   `json:"code"`
	Active                  bool     `json:"active"`
	CapacityPerHour         *float64 `json:"capacity_per_hour"`
	CapacityHoursPerDay     *float64 `json:"capacity_hours_per_day"`
	UsageType               string   `json:"usage_type"`
	SetupMinutes            *int     `json:"setup_minutes"`
	RequiresFinalInspection bool     `json:"requires_final_inspection"`
}

// WorkCenterSnapshot is the derived per-center view of the shop floor. It is
// recomputed on every overview pass and never persisted.
type WorkCenterSnapshot struct {
	Center WorkCenter `json:"center"`

	Running []Operation `json:"running"`
	Queued  []Operation `json:"queued"`
	Blocked []Operation `json:"blocked"`

	LateCount    int `json:"late_count"`
	StalledCount int `json:"stalled_count"`
	DoneToday    int `json:"done_today"`

	AlertLevel         string `json:"alert_level"`
	UtilizationPercent int    `json:"utilization_percent"`

	NextDueAt     *time.Time `json:"next_due_at"`
	NextOperation *Operation `json:"next_operation"`

	ComputedAt time.Time `json:"computed_at"`
}

// AutomationConfig holds the tenant-wide shop-floor automation thresholds.
type AutomationConfig struct {
	AutoAdvance       bool    `json:"auto_advance"`
	StallAlertMinutes int     `json:"stall_alert_minutes"`
	ScrapAlertPercent float64 `json:"scrap_alert_percent"`
}

// DefaultAutomationConfig is the fallback used when the config fetch fails;
// the overview must still be produced.
func DefaultAutomationConfig() AutomationConfig {
	return AutomationConfig{
		AutoAdvance:       true,
		StallAlertMinutes: 20,
		ScrapAlertPercent: 5,
	}
}
