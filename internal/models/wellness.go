package models

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// WellnessCheckIn is a self-reported wellness snapshot on a 1-10 scale.
type WellnessCheckIn struct {
	VolunteerID       string    `json:"volunteerId"`
	StressLevel       int       `json:"stressLevel"`
	EnergyLevel       int       `json:"energyLevel"`
	SatisfactionLevel int       `json:"satisfactionLevel"`
	SupportNeeded     bool      `json:"supportNeeded"`
	Timestamp         time.Time `json:"timestamp"`
}

// Validate bounds-checks the self-reported metrics.
func (w WellnessCheckIn) Validate() error {
	return validation.ValidateStruct(&w,
		validation.Field(&w.StressLevel, validation.Required, validation.Min(1), validation.Max(10)),
		validation.Field(&w.EnergyLevel, validation.Required, validation.Min(1), validation.Max(10)),
		validation.Field(&w.SatisfactionLevel, validation.Required, validation.Min(1), validation.Max(10)),
	)
}
