package models

import "time"

// AuditKind classifies audit trail entries.
type AuditKind string

const (
	AuditStatusTransition AuditKind = "status_transition"
	AuditApplication      AuditKind = "application_submitted"
	AuditTraining         AuditKind = "training_progress"
	AuditBurnoutAlert     AuditKind = "burnout_alert"
	AuditIntervention     AuditKind = "intervention"
	AuditAssignment       AuditKind = "assignment"
)

// AuditEntry is an immutable append-only audit trail record.
type AuditEntry struct {
	ID          string                 `json:"id"`
	VolunteerID string                 `json:"volunteerId"`
	Kind        AuditKind              `json:"kind"`
	PrevStatus  Status                 `json:"prevStatus,omitempty"`
	NewStatus   Status                 `json:"newStatus,omitempty"`
	Reason      string                 `json:"reason,omitempty"`
	Actor       string                 `json:"actor,omitempty"`
	Details     map[string]interface{} `json:"details,omitempty"`
	Timestamp   time.Time              `json:"timestamp"`
}
