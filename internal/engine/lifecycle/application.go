package lifecycle

import (
	"context"
	"fmt"
	"strings"

	"github.com/asaskevich/govalidator"
	"github.com/google/uuid"

	engerrors "crisisline-engine/internal/common/errors"
	"crisisline-engine/internal/common/validation"
	"crisisline-engine/internal/models"
)

// applicationSchema is the structural contract for intake payloads. Cross
// field rules that JSON schema cannot express (reference emails, weekly
// coverage) run after the schema pass.
const applicationSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["age", "motivation", "availability", "references"],
	"properties": {
		"age": {
			"type": "integer",
			"minimum": 18
		},
		"motivation": {
			"type": "string",
			"minLength": 100
		},
		"availability": {
			"type": "array",
			"minItems": 1,
			"items": {
				"type": "object",
				"required": ["day", "start", "end"],
				"properties": {
					"day": {
						"type": "string",
						"enum": ["monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"]
					},
					"start": {"type": "string", "pattern": "^([01][0-9]|2[0-3]):[0-5][0-9]$"},
					"end": {"type": "string", "pattern": "^([01][0-9]|2[0-3]):[0-5][0-9]$"}
				}
			}
		},
		"references": {
			"type": "array",
			"minItems": 2,
			"items": {
				"type": "object",
				"required": ["name", "email"],
				"properties": {
					"name": {"type": "string", "minLength": 1},
					"email": {"type": "string", "minLength": 3}
				}
			}
		},
		"specializations": {
			"type": "array",
			"items": {"type": "string"}
		},
		"languages": {
			"type": "array",
			"items": {"type": "string"}
		}
	}
}`

// minWeeklyHours is the minimum summed availability an applicant must offer.
const minWeeklyHours = 4.0

// SubmitApplication validates an intake payload, creates the volunteer
// record in PENDING, and returns a receipt with the recommended training
// track. The volunteer id is generated here and is the only identity the
// engine ever sees.
func (s *Service) SubmitApplication(ctx context.Context, app models.Application) (*models.ApplicationReceipt, error) {
	if result := validation.ValidateDocument(app, applicationSchema); !result.Valid {
		return nil, engerrors.NewValidationFailedError(strings.Join(result.GetErrorMessages(), "; "))
	}
	if err := validateApplicationRules(app); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	v := &models.Volunteer{
		ID:                 uuid.NewString(),
		Status:             models.StatusPending,
		Specializations:    app.Specializations,
		Languages:          app.Languages,
		IsActive:           false,
		MaxConcurrent:      s.defaultMaxSessions,
		ResponseRate:       1.0,
		LastActive:         now,
		EmergencyResponder: app.EmergencyResponder,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := s.volunteers.Create(ctx, v); err != nil {
		return nil, err
	}

	moduleIDs, hours := s.catalog.FoundationalTrack()

	s.appendAudit(ctx, models.AuditEntry{
		ID:          uuid.NewString(),
		VolunteerID: v.ID,
		Kind:        models.AuditApplication,
		NewStatus:   models.StatusPending,
		Reason:      "application accepted",
		Actor:       "system",
		Timestamp:   now,
	})

	s.logger.Info("application accepted", map[string]interface{}{
		"volunteerId":     v.ID,
		"requiredModules": moduleIDs,
	})

	return &models.ApplicationReceipt{
		VolunteerID:            v.ID,
		Status:                 models.StatusPending,
		RequiredModules:        moduleIDs,
		EstimatedTrainingHours: hours,
	}, nil
}

func validateApplicationRules(app models.Application) error {
	for i, ref := range app.References {
		if !govalidator.IsEmail(ref.Email) {
			return engerrors.NewValidationFailedError(
				fmt.Sprintf("references[%d].email: not a valid email address", i))
		}
	}

	var total float64
	for i, slot := range app.Availability {
		hours, err := slotHours(slot)
		if err != nil {
			return engerrors.NewValidationFailedError(
				fmt.Sprintf("availability[%d]: %v", i, err))
		}
		total += hours
	}
	if total < minWeeklyHours {
		return engerrors.NewValidationFailedError(
			fmt.Sprintf("availability: %.1f weekly hours offered, at least %.0f required", total, minWeeklyHours))
	}
	return nil
}

func slotHours(slot models.AvailabilitySlot) (float64, error) {
	start, err := parseClock(slot.Start)
	if err != nil {
		return 0, err
	}
	end, err := parseClock(slot.End)
	if err != nil {
		return 0, err
	}
	if end <= start {
		return 0, fmt.Errorf("end %s not after start %s", slot.End, slot.Start)
	}
	return float64(end-start) / 60.0, nil
}

// parseClock converts "HH:MM" to minutes since midnight. The schema has
// already pinned the format, so errors here mean a schema drift.
func parseClock(hhmm string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(hhmm, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("bad time %q", hhmm)
	}
	return h*60 + m, nil
}
