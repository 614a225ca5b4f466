package matching

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	engerrors "crisisline-engine/internal/common/errors"
	"crisisline-engine/internal/common/logger"
	"crisisline-engine/internal/common/metrics"
	"crisisline-engine/internal/common/observability"
	"crisisline-engine/internal/models"
	"crisisline-engine/internal/store"
)

// Config carries the selection and assignment tunables.
type Config struct {
	BurnoutThreshold    float64
	RecencyWindow       time.Duration
	SelectionLimit      int
	EmergencyBudget     time.Duration
	BaseResponseSeconds float64
}

type AuditSink interface {
	Append(ctx context.Context, entry models.AuditEntry) error
}

type Service struct {
	volunteers *store.VolunteerStore
	wellness   *store.WellnessStore
	audit      AuditSink
	obs        *observability.Observability
	logger     logger.Logger
	cfg        Config
	now        func() time.Time
}

type Dependencies struct {
	Volunteers    *store.VolunteerStore
	Wellness      *store.WellnessStore
	Audit         AuditSink
	Observability *observability.Observability
	Logger        logger.Logger
	Config        Config
}

func NewService(deps Dependencies) *Service {
	return &Service{
		volunteers: deps.Volunteers,
		wellness:   deps.Wellness,
		audit:      deps.Audit,
		obs:        deps.Observability,
		logger:     deps.Logger,
		cfg:        deps.Config,
		now:        time.Now,
	}
}

// AvailableVolunteers returns the ranked candidate pool for the criteria.
// The result is a snapshot: it may be stale by assignment time, which is
// why AssignToCrisisSession re-validates everything atomically.
func (s *Service) AvailableVolunteers(ctx context.Context, criteria Criteria) ([]*Profile, error) {
	vols, err := s.volunteers.Available(ctx, store.AvailableQuery{
		BurnoutThreshold: s.cfg.BurnoutThreshold,
		ActiveSince:      s.now().Add(-s.cfg.RecencyWindow),
		MaxLoad:          criteria.MaxLoad,
		EmergencyOnly:    criteria.EmergencyOnly,
		Specializations:  criteria.Specializations,
		Languages:        criteria.Languages,
		Limit:            s.cfg.SelectionLimit,
	})
	if err != nil {
		return nil, err
	}

	profiles := make([]*Profile, 0, len(vols))
	for _, v := range vols {
		effectiveMax := v.MaxConcurrent
		if cap, live, err := s.wellness.LoadCap(ctx, v.ID); err != nil {
			return nil, err
		} else if live && cap < effectiveMax {
			effectiveMax = cap
		}
		if v.CurrentLoad >= effectiveMax {
			continue
		}
		profiles = append(profiles, &Profile{
			Volunteer:    v,
			EffectiveMax: effectiveMax,
			MatchScore:   matchScore(v, effectiveMax, criteria),
		})
	}

	rankProfiles(profiles)
	return profiles, nil
}

// AssignToCrisisSession binds a crisis session to a volunteer. The slot
// acquisition is a single atomic statement that re-validates status,
// burnout, and capacity, so a stale selection can never overcommit a
// volunteer. On rejection the error code tells the caller which guard
// failed so it can re-select.
func (s *Service) AssignToCrisisSession(ctx context.Context, volunteerID, sessionID string, priority models.Priority) (*models.Assignment, error) {
	ctx, span := s.obs.StartSpan(ctx, "matching.assign")
	defer span.End()
	span.SetAttributes(
		attribute.String("volunteer.id", volunteerID),
		attribute.String("session.priority", string(priority)),
	)

	start := s.now()

	capOverride := 0
	if cap, live, err := s.wellness.LoadCap(ctx, volunteerID); err != nil {
		return nil, err
	} else if live {
		capOverride = cap
	}

	v, err := s.volunteers.AcquireSlot(ctx, volunteerID, s.cfg.BurnoutThreshold, capOverride)
	if err != nil {
		if errors.Is(err, store.ErrNoSlot) {
			rejection := s.classifyRejection(ctx, volunteerID, capOverride)
			metrics.AssignmentsRejected.WithLabelValues(string(engerrors.CodeOf(rejection))).Inc()
			s.obs.RecordAssignment(ctx, "rejected")
			return nil, rejection
		}
		return nil, err
	}

	assignment := &models.Assignment{
		ID:                    uuid.NewString(),
		VolunteerID:           v.ID,
		SessionID:             sessionID,
		Priority:              priority,
		AssignedAt:            start.UTC(),
		EstimatedResponseTime: s.estimateResponseTime(v),
	}

	elapsed := s.now().Sub(start)
	metrics.AssignmentsTotal.WithLabelValues(string(priority)).Inc()
	metrics.AssignmentDuration.WithLabelValues(string(priority)).Observe(elapsed.Seconds())
	s.obs.RecordAssignment(ctx, "assigned")
	s.obs.RecordAssignmentDuration(ctx, elapsed, "assigned")

	if priority == models.PriorityEmergency && elapsed > s.cfg.EmergencyBudget {
		s.logger.Warn("emergency assignment over latency budget", map[string]interface{}{
			"sessionId": sessionID,
			"elapsedMs": elapsed.Milliseconds(),
			"budgetMs":  s.cfg.EmergencyBudget.Milliseconds(),
		})
	}

	s.appendAudit(ctx, assignment)

	s.logger.Info("session assigned", map[string]interface{}{
		"volunteerId":   v.ID,
		"sessionId":     sessionID,
		"priority":      string(priority),
		"currentLoad":   v.CurrentLoad,
		"estimatedRtMs": assignment.EstimatedResponseTime.Milliseconds(),
	})
	return assignment, nil
}

// classifyRejection re-reads the record to name which guard blocked the
// acquisition. The answer is advisory: the state may have moved again, but
// the caller only needs a reason to re-select.
func (s *Service) classifyRejection(ctx context.Context, volunteerID string, capOverride int) error {
	v, err := s.volunteers.Get(ctx, volunteerID)
	if err != nil {
		return err
	}

	switch {
	case v.Status != models.StatusActive || !v.IsActive:
		return engerrors.NewVolunteerUnavailableError(volunteerID, "status: "+string(v.Status))
	case v.BurnoutScore >= s.cfg.BurnoutThreshold:
		return engerrors.NewBurnoutBlockedError(volunteerID, v.BurnoutScore, s.cfg.BurnoutThreshold)
	case !v.HasCapacity(capOverride):
		max := v.MaxConcurrent
		if capOverride > 0 && capOverride < max {
			max = capOverride
		}
		return engerrors.NewCapacityExceededError(volunteerID, v.CurrentLoad, max)
	default:
		return engerrors.NewVolunteerUnavailableError(volunteerID, "state changed during assignment")
	}
}

// estimateResponseTime scales the base response time by how loaded the
// volunteer already is, corrected by their historical response rate. The
// load used is the post-acquisition load, counting the session just
// assigned.
func (s *Service) estimateResponseTime(v *models.Volunteer) time.Duration {
	rate := v.ResponseRate
	if rate < 0.05 {
		rate = 0.05
	}
	loadFactor := 1.0
	if v.MaxConcurrent > 0 {
		loadFactor += float64(v.CurrentLoad) / float64(v.MaxConcurrent)
	}
	seconds := s.cfg.BaseResponseSeconds * loadFactor / rate
	return time.Duration(seconds * float64(time.Second))
}

func (s *Service) appendAudit(ctx context.Context, a *models.Assignment) {
	entry := models.AuditEntry{
		ID:          uuid.NewString(),
		VolunteerID: a.VolunteerID,
		Kind:        models.AuditAssignment,
		Actor:       "system",
		Details: map[string]interface{}{
			"assignmentId": a.ID,
			"sessionId":    a.SessionID,
			"priority":     string(a.Priority),
		},
		Timestamp: a.AssignedAt,
	}
	if err := s.audit.Append(ctx, entry); err != nil {
		s.logger.Warn("audit append failed", map[string]interface{}{
			"volunteerId": a.VolunteerID,
			"sessionId":   a.SessionID,
			"error":       err.Error(),
		})
	}
}
