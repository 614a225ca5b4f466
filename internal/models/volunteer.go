package models

import "time"

// Status represents a volunteer's position in the vetting and service
// lifecycle.
type Status string

const (
	StatusPending         Status = "pending"
	StatusTraining        Status = "training"
	StatusBackgroundCheck Status = "background_check"
	StatusVerified        Status = "verified"
	StatusActive          Status = "active"
	StatusInactive        Status = "inactive"
	StatusSuspended       Status = "suspended"
	StatusFailed          Status = "failed"
	StatusRejected        Status = "rejected"
	StatusRevoked         Status = "revoked"
)

// AllStatuses lists every lifecycle status, terminal ones last.
var AllStatuses = []Status{
	StatusPending,
	StatusTraining,
	StatusBackgroundCheck,
	StatusVerified,
	StatusActive,
	StatusInactive,
	StatusSuspended,
	StatusFailed,
	StatusRejected,
	StatusRevoked,
}

// allowedTransitions is the closed transition table. Statuses with an empty
// set are terminal.
var allowedTransitions = map[Status][]Status{
	StatusPending:         {StatusTraining, StatusRejected},
	StatusTraining:        {StatusBackgroundCheck, StatusFailed},
	StatusBackgroundCheck: {StatusVerified, StatusRejected},
	StatusVerified:        {StatusActive, StatusInactive},
	StatusActive:          {StatusInactive, StatusSuspended},
	StatusInactive:        {StatusActive, StatusRevoked},
	StatusSuspended:       {StatusActive, StatusRevoked},
	StatusFailed:          {},
	StatusRejected:        {},
	StatusRevoked:         {},
}

// Valid reports whether s is a known lifecycle status.
func (s Status) Valid() bool {
	_, ok := allowedTransitions[s]
	return ok
}

// Terminal reports whether no transition leaves s.
func (s Status) Terminal() bool {
	next, ok := allowedTransitions[s]
	return ok && len(next) == 0
}

// CanTransitionTo reports whether target is in s's allowed set.
func (s Status) CanTransitionTo(target Status) bool {
	for _, next := range allowedTransitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

// AllowedTransitions returns a copy of s's allowed target set.
func (s Status) AllowedTransitions() []Status {
	next := allowedTransitions[s]
	out := make([]Status, len(next))
	copy(out, next)
	return out
}

// Volunteer is the durable record for one crisis-response volunteer. The ID
// is an opaque anonymous id, never linked to legal identity here.
type Volunteer struct {
	ID                 string    `json:"id" db:"id"`
	Status             Status    `json:"status" db:"status"`
	Specializations    []string  `json:"specializations" db:"specializations"`
	Languages          []string  `json:"languages" db:"languages"`
	IsActive           bool      `json:"isActive" db:"is_active"`
	CurrentLoad        int       `json:"currentLoad" db:"current_load"`
	MaxConcurrent      int       `json:"maxConcurrent" db:"max_concurrent"`
	AverageRating      float64   `json:"averageRating" db:"average_rating"`
	ResponseRate       float64   `json:"responseRate" db:"response_rate"`
	SessionsCount      int       `json:"sessionsCount" db:"sessions_count"`
	HoursVolunteered   float64   `json:"hoursVolunteered" db:"hours_volunteered"`
	BurnoutScore       float64   `json:"burnoutScore" db:"burnout_score"`
	LastActive         time.Time `json:"lastActive" db:"last_active"`
	EmergencyResponder bool      `json:"emergencyResponder" db:"emergency_responder"`
	EmergencyAvailable bool      `json:"emergencyAvailable" db:"emergency_available"`
	CreatedAt          time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt          time.Time `json:"updatedAt" db:"updated_at"`
}

// HasCapacity reports whether the volunteer can take one more session under
// the given cap. A cap of 0 means use the volunteer's own MaxConcurrent.
func (v *Volunteer) HasCapacity(cap int) bool {
	effective := v.MaxConcurrent
	if cap > 0 && cap < effective {
		effective = cap
	}
	return v.CurrentLoad < effective
}

// HasAnySpecialization reports a non-empty intersection with wanted.
func (v *Volunteer) HasAnySpecialization(wanted []string) bool {
	return intersects(v.Specializations, wanted)
}

// HasAnyLanguage reports a non-empty intersection with wanted.
func (v *Volunteer) HasAnyLanguage(wanted []string) bool {
	return intersects(v.Languages, wanted)
}

func intersects(have, wanted []string) bool {
	if len(wanted) == 0 {
		return true
	}
	set := make(map[string]struct{}, len(have))
	for _, s := range have {
		set[s] = struct{}{}
	}
	for _, w := range wanted {
		if _, ok := set[w]; ok {
			return true
		}
	}
	return false
}
