package models

import "time"

// ProgressStatus tracks one volunteer's state within one training module.
type ProgressStatus string

const (
	ProgressNotStarted ProgressStatus = "not_started"
	ProgressInProgress ProgressStatus = "in_progress"
	ProgressCompleted  ProgressStatus = "completed"
	ProgressFailed     ProgressStatus = "failed"
)

// TrainingProgress is one record per (volunteer, module), retained
// indefinitely for audit.
type TrainingProgress struct {
	VolunteerID      string         `json:"volunteerId" db:"volunteer_id"`
	ModuleID         string         `json:"moduleId" db:"module_id"`
	Status           ProgressStatus `json:"status" db:"status"`
	Score            *int           `json:"score,omitempty" db:"score"`
	Attempts         int            `json:"attempts" db:"attempts"`
	TimeSpentMinutes int            `json:"timeSpentMinutes" db:"time_spent_minutes"`
	CompletedAt      *time.Time     `json:"completedAt,omitempty" db:"completed_at"`
	UpdatedAt        time.Time      `json:"updatedAt" db:"updated_at"`
}

// Module is a static training catalog entry.
type Module struct {
	ID             string   `json:"id"`
	Title          string   `json:"title"`
	Prerequisites  []string `json:"prerequisites"`
	RequiredScore  int      `json:"requiredScore"`
	EstimatedHours float64  `json:"estimatedHours"`
}

// CertLevel is a certification tier. Ordering is weakest to strongest.
type CertLevel string

const (
	CertNone         CertLevel = ""
	CertBasic        CertLevel = "basic"
	CertIntermediate CertLevel = "intermediate"
	CertAdvanced     CertLevel = "advanced"
	CertExpert       CertLevel = "expert"
)

// Rank returns the strength ordering of the level, 0 for none.
func (l CertLevel) Rank() int {
	switch l {
	case CertBasic:
		return 1
	case CertIntermediate:
		return 2
	case CertAdvanced:
		return 3
	case CertExpert:
		return 4
	default:
		return 0
	}
}

// CertificationLevel is a static catalog entry: the module set a level
// requires and how long completions remain valid for it.
type CertificationLevel struct {
	Level           CertLevel     `json:"level"`
	RequiredModules []string      `json:"requiredModules"`
	ValidityPeriod  time.Duration `json:"validityPeriod"`
}
