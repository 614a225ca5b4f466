package models

import "time"

// Priority orders crisis sessions for assignment.
type Priority string

const (
	PriorityNormal    Priority = "normal"
	PriorityHigh      Priority = "high"
	PriorityEmergency Priority = "emergency"
)

// Assignment is the ephemeral decision record produced at match time. It
// terminates at session completion, when it folds into rolling volunteer
// statistics.
type Assignment struct {
	ID                    string        `json:"id"`
	VolunteerID           string        `json:"volunteerId"`
	SessionID             string        `json:"sessionId"`
	Priority              Priority      `json:"priority"`
	AssignedAt            time.Time     `json:"assignedAt"`
	EstimatedResponseTime time.Duration `json:"estimatedResponseTime"`
}

// SessionOutcome is reported back when a crisis session ends.
type SessionOutcome struct {
	SessionID       string   `json:"sessionId"`
	DurationSeconds float64  `json:"durationSeconds"`
	Rating          *float64 `json:"rating,omitempty"` // 0-5 when present
	Escalated       bool     `json:"escalated"`
	HighStress      bool     `json:"highStress"`
}
