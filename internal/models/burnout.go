package models

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// RiskLevel grades a burnout assessment.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// BurnoutFactors is the named behavioral signal set fed to the risk
// assessor. Zero-valued factors are treated as absent.
type BurnoutFactors struct {
	SessionCount           int     `json:"sessionCount"`
	AverageSessionDuration float64 `json:"averageSessionDuration"` // minutes
	ConsecutiveDays        int     `json:"consecutiveDays"`
	HighStressSessions     int     `json:"highStressSessions"`
	LastBreakDays          int     `json:"lastBreakDays"`
	SelfReportedStress     int     `json:"selfReportedStress"` // 1-10
	ResponseTime           float64 `json:"responseTime"`       // seconds
	EscalationRate         float64 `json:"escalationRate"`     // 0-1
}

// Validate bounds-checks the factor set.
func (f BurnoutFactors) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.SessionCount, validation.Min(0)),
		validation.Field(&f.AverageSessionDuration, validation.Min(0.0)),
		validation.Field(&f.ConsecutiveDays, validation.Min(0)),
		validation.Field(&f.HighStressSessions, validation.Min(0)),
		validation.Field(&f.LastBreakDays, validation.Min(0)),
		validation.Field(&f.SelfReportedStress, validation.Min(0), validation.Max(10)),
		validation.Field(&f.ResponseTime, validation.Min(0.0)),
		validation.Field(&f.EscalationRate, validation.Min(0.0), validation.Max(1.0)),
	)
}

// BurnoutAlert is emitted by the risk assessor and retained in a bounded
// recent-history window for trend analysis.
type BurnoutAlert struct {
	VolunteerID     string    `json:"volunteerId"`
	RiskLevel       RiskLevel `json:"riskLevel"`
	Score           int       `json:"score"`
	Factors         []string  `json:"factors"`
	Recommendations []string  `json:"recommendations"`
	Timestamp       time.Time `json:"timestamp"`
	ActionRequired  bool      `json:"actionRequired"`
}
