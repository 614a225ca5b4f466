// Package lifecycle owns the volunteer status state machine and the
// application intake that feeds it.
package lifecycle

import (
	"context"
	"time"

	"github.com/google/uuid"

	engerrors "crisisline-engine/internal/common/errors"
	"crisisline-engine/internal/common/logger"
	"crisisline-engine/internal/common/metrics"
	"crisisline-engine/internal/models"
	"crisisline-engine/internal/store"
)

// AuditSink receives immutable audit trail entries.
type AuditSink interface {
	Append(ctx context.Context, entry models.AuditEntry) error
}

// TrainingCatalog supplies the intake track reported to new applicants.
type TrainingCatalog interface {
	FoundationalTrack() (moduleIDs []string, estimatedHours float64)
}

type Service struct {
	volunteers *store.VolunteerStore
	wellness   *store.WellnessStore
	catalog    TrainingCatalog
	audit      AuditSink
	logger     logger.Logger
	now        func() time.Time

	defaultMaxSessions int
}

type Dependencies struct {
	Volunteers         *store.VolunteerStore
	Wellness           *store.WellnessStore
	Catalog            TrainingCatalog
	Audit              AuditSink
	Logger             logger.Logger
	DefaultMaxSessions int
}

func NewService(deps Dependencies) *Service {
	maxSessions := deps.DefaultMaxSessions
	if maxSessions < 1 {
		maxSessions = 3
	}
	return &Service{
		volunteers:         deps.Volunteers,
		wellness:           deps.Wellness,
		catalog:            deps.Catalog,
		audit:              deps.Audit,
		logger:             deps.Logger,
		now:                time.Now,
		defaultMaxSessions: maxSessions,
	}
}

// Transition moves a volunteer to targetStatus if the transition table
// allows it, persists the change with a status guard, applies the target
// status's side effect, and appends an audit entry. The audit append is
// best-effort: a failure logs a warning but the transition stands.
func (s *Service) Transition(ctx context.Context, volunteerID string, target models.Status, reason, actor string) error {
	if !target.Valid() {
		return engerrors.NewInvalidTransitionError("", string(target))
	}

	v, err := s.volunteers.Get(ctx, volunteerID)
	if err != nil {
		return err
	}

	if !v.Status.CanTransitionTo(target) {
		return engerrors.NewInvalidTransitionError(string(v.Status), string(target))
	}

	if v.Status == models.StatusSuspended && target == models.StatusActive {
		if err := s.checkReactivation(ctx, volunteerID); err != nil {
			return err
		}
	}

	changed, err := s.volunteers.UpdateStatus(ctx, volunteerID, v.Status, target, target == models.StatusActive)
	if err != nil {
		return err
	}
	if !changed {
		// The status moved under us between the read and the guarded
		// update. The caller re-reads and decides.
		return engerrors.NewInvalidTransitionError(string(v.Status), string(target))
	}

	if err := effectFor(target).apply(ctx, s, volunteerID); err != nil {
		s.logger.Warn("status side effect failed", map[string]interface{}{
			"volunteerId": volunteerID,
			"toStatus":    string(target),
			"error":       err.Error(),
		})
	}

	metrics.StatusTransitions.WithLabelValues(string(target)).Inc()

	s.appendAudit(ctx, models.AuditEntry{
		ID:          uuid.NewString(),
		VolunteerID: volunteerID,
		Kind:        models.AuditStatusTransition,
		PrevStatus:  v.Status,
		NewStatus:   target,
		Reason:      reason,
		Actor:       actor,
		Timestamp:   s.now().UTC(),
	})

	s.logger.Info("volunteer status transitioned", map[string]interface{}{
		"volunteerId": volunteerID,
		"fromStatus":  string(v.Status),
		"toStatus":    string(target),
		"reason":      reason,
	})

	return nil
}

// checkReactivation gates SUSPENDED -> ACTIVE on the mandatory break hold
// and the human follow-up flag.
func (s *Service) checkReactivation(ctx context.Context, volunteerID string) error {
	held, err := s.wellness.BreakHold(ctx, volunteerID)
	if err != nil {
		return err
	}
	if held {
		return engerrors.NewBreakHoldActiveError(volunteerID, "mandatory break still in effect")
	}

	pending, err := s.wellness.FollowUpPending(ctx, volunteerID)
	if err != nil {
		return err
	}
	if pending {
		return engerrors.NewBreakHoldActiveError(volunteerID, "human follow-up not completed")
	}
	return nil
}

func (s *Service) appendAudit(ctx context.Context, entry models.AuditEntry) {
	if err := s.audit.Append(ctx, entry); err != nil {
		s.logger.Warn("audit append failed", map[string]interface{}{
			"volunteerId": entry.VolunteerID,
			"kind":        string(entry.Kind),
			"error":       err.Error(),
		})
	}
}
