// Package sessions folds completed crisis sessions back into volunteer
// statistics and feeds outcomes to the burnout assessor.
package sessions

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	engerrors "crisisline-engine/internal/common/errors"
	"crisisline-engine/internal/common/logger"
	"crisisline-engine/internal/models"
	"crisisline-engine/internal/store"
)

// Assessor receives each completed session's outcome for a fresh burnout
// assessment. The assessment is best-effort and never fails completion.
type Assessor interface {
	PostSessionAssessment(ctx context.Context, v *models.Volunteer, outcome models.SessionOutcome)
}

type AuditSink interface {
	Append(ctx context.Context, entry models.AuditEntry) error
}

type Service struct {
	volunteers *store.VolunteerStore
	assessor   Assessor
	audit      AuditSink
	logger     logger.Logger
	now        func() time.Time
}

type Dependencies struct {
	Volunteers *store.VolunteerStore
	Assessor   Assessor
	Audit      AuditSink
	Logger     logger.Logger
}

func NewService(deps Dependencies) *Service {
	return &Service{
		volunteers: deps.Volunteers,
		assessor:   deps.Assessor,
		audit:      deps.Audit,
		logger:     deps.Logger,
		now:        time.Now,
	}
}

// CompleteSession releases the volunteer's slot and folds the outcome into
// their rolling statistics in one guarded update, then hands the outcome to
// the burnout assessor. Completion for a volunteer whose load was already
// force-released is harmless: the decrement floors at zero.
func (s *Service) CompleteSession(ctx context.Context, volunteerID string, outcome models.SessionOutcome) (*models.Volunteer, error) {
	if outcome.SessionID == "" {
		return nil, engerrors.NewValidationFailedError("sessionId is required")
	}
	if outcome.DurationSeconds < 0 {
		return nil, engerrors.NewValidationFailedError("durationSeconds must not be negative")
	}
	if outcome.Rating != nil && (*outcome.Rating < 0 || *outcome.Rating > 5) {
		return nil, engerrors.NewValidationFailedError(
			fmt.Sprintf("rating %.2f out of range 0-5", *outcome.Rating))
	}

	v, err := s.volunteers.CompleteSession(ctx, volunteerID, outcome.Rating, outcome.DurationSeconds/3600.0)
	if err != nil {
		return nil, err
	}

	s.appendAudit(ctx, volunteerID, outcome)

	s.logger.Info("session completed", map[string]interface{}{
		"volunteerId":   volunteerID,
		"sessionId":     outcome.SessionID,
		"escalated":     outcome.Escalated,
		"sessionsCount": v.SessionsCount,
	})

	s.assessor.PostSessionAssessment(ctx, v, outcome)
	return v, nil
}

func (s *Service) appendAudit(ctx context.Context, volunteerID string, outcome models.SessionOutcome) {
	entry := models.AuditEntry{
		ID:          uuid.NewString(),
		VolunteerID: volunteerID,
		Kind:        models.AuditAssignment,
		Reason:      "session completed",
		Actor:       "system",
		Details: map[string]interface{}{
			"sessionId":       outcome.SessionID,
			"durationSeconds": outcome.DurationSeconds,
			"escalated":       outcome.Escalated,
			"highStress":      outcome.HighStress,
		},
		Timestamp: s.now().UTC(),
	}
	if outcome.Rating != nil {
		entry.Details["rating"] = *outcome.Rating
	}
	if err := s.audit.Append(ctx, entry); err != nil {
		s.logger.Warn("audit append failed", map[string]interface{}{
			"volunteerId": volunteerID,
			"sessionId":   outcome.SessionID,
			"error":       err.Error(),
		})
	}
}
