package burnout

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

// StatusTransitioner is the slice of the lifecycle engine the assessor
// needs to force a suspension.
type StatusTransitioner interface {
	Transition(ctx context.Context, volunteerID string, target models.Status, reason, actor string) error
}

type AuditSink interface {
	Append(ctx context.Context, entry models.AuditEntry) error
}

// Config carries the intervention tunables.
type Config struct {
	WellnessWindowSize int
	AlertRetention     time.Duration
	LoadCapDuration    time.Duration
	BreakHoldDuration  time.Duration
}

type Service struct {
	volunteers *store.VolunteerStore
	wellness   *store.WellnessStore
	lifecycle  StatusTransitioner
	audit      AuditSink
	logger     logger.Logger
	cfg        Config
	now        func() time.Time
}

type Dependencies struct {
	Volunteers *store.VolunteerStore
	Wellness   *store.WellnessStore
	Lifecycle  StatusTransitioner
	Audit      AuditSink
	Logger     logger.Logger
	Config     Config
}

func NewService(deps Dependencies) *Service {
	return &Service{
		volunteers: deps.Volunteers,
		wellness:   deps.Wellness,
		lifecycle:  deps.Lifecycle,
		audit:      deps.Audit,
		logger:     deps.Logger,
		cfg:        deps.Config,
		now:        time.Now,
	}
}

// AssessRisk scores a behavioral factor snapshot, persists the normalized
// score onto the volunteer record, retains the alert in the recent-history
// window, and triggers the graduated intervention for the resulting level.
func (s *Service) AssessRisk(ctx context.Context, volunteerID string, factors models.BurnoutFactors) (*models.BurnoutAlert, error) {
	if err := factors.Validate(); err != nil {
		return nil, engerrors.NewValidationFailedError(err.Error())
	}

	score, contributing := scoreFactors(factors)
	level := levelFor(score)

	alert := &models.BurnoutAlert{
		VolunteerID:     volunteerID,
		RiskLevel:       level,
		Score:           score,
		Factors:         contributing,
		Recommendations: recommendationsFor(level, contributing),
		Timestamp:       s.now().UTC(),
		ActionRequired:  level != models.RiskLow,
	}

	if err := s.volunteers.SetBurnoutScore(ctx, volunteerID, normalizedScore(score)); err != nil {
		return nil, err
	}

	if err := s.wellness.AppendAlert(ctx, *alert, s.cfg.AlertRetention); err != nil {
		s.logger.Warn("alert retention failed", map[string]interface{}{
			"volunteerId": volunteerID,
			"error":       err.Error(),
		})
	}

	metrics.BurnoutAlerts.WithLabelValues(string(level)).Inc()

	s.logger.Info("burnout risk assessed", map[string]interface{}{
		"volunteerId": volunteerID,
		"riskLevel":   string(level),
		"score":       score,
		"factors":     contributing,
	})

	if alert.ActionRequired {
		if err := s.intervene(ctx, volunteerID, level, contributing); err != nil {
			return nil, err
		}
	}
	return alert, nil
}

// RecordWellnessCheckIn appends a self-reported check-in to the bounded
// window and re-runs the window analysis.
func (s *Service) RecordWellnessCheckIn(ctx context.Context, checkIn models.WellnessCheckIn) error {
	if err := checkIn.Validate(); err != nil {
		return engerrors.NewValidationFailedError(err.Error())
	}
	if checkIn.Timestamp.IsZero() {
		checkIn.Timestamp = s.now().UTC()
	}

	if err := s.wellness.AppendCheckIn(ctx, checkIn, s.cfg.WellnessWindowSize); err != nil {
		return err
	}

	concerns, err := s.EvaluateWellness(ctx, checkIn.VolunteerID)
	if err != nil {
		return err
	}
	if len(concerns) >= 2 {
		return s.intervene(ctx, checkIn.VolunteerID, models.RiskMedium, concerns)
	}
	return nil
}

// wellnessAnalysisWindow is how many recent check-ins the trend analysis
// looks at.
const wellnessAnalysisWindow = 7

// EvaluateWellness analyzes the recent check-in window and returns the
// concern signals present. Fewer than three check-ins is not enough signal
// to act on.
func (s *Service) EvaluateWellness(ctx context.Context, volunteerID string) ([]string, error) {
	checkIns, err := s.wellness.RecentCheckIns(ctx, volunteerID, wellnessAnalysisWindow)
	if err != nil {
		return nil, err
	}
	if len(checkIns) < 3 {
		return nil, nil
	}

	var stress, energy, satisfaction, supportNeeded int
	for _, c := range checkIns {
		stress += c.StressLevel
		energy += c.EnergyLevel
		satisfaction += c.SatisfactionLevel
		if c.SupportNeeded {
			supportNeeded++
		}
	}
	n := float64(len(checkIns))

	var concerns []string
	if float64(stress)/n >= 7 {
		concerns = append(concerns, "sustained high stress")
	}
	if float64(energy)/n <= 4 {
		concerns = append(concerns, "sustained low energy")
	}
	if float64(satisfaction)/n <= 5 {
		concerns = append(concerns, "sustained low satisfaction")
	}
	if supportNeeded >= 3 {
		concerns = append(concerns, "repeated support requests")
	}
	return concerns, nil
}

// SweepVolunteer re-runs the wellness window analysis for one volunteer and
// intervenes if at least two concerns co-occur. Used by the background
// sweep loop.
func (s *Service) SweepVolunteer(ctx context.Context, volunteerID string) error {
	concerns, err := s.EvaluateWellness(ctx, volunteerID)
	if err != nil {
		return err
	}
	if len(concerns) < 2 {
		return nil
	}
	return s.intervene(ctx, volunteerID, models.RiskMedium, concerns)
}

// PostSessionAssessment folds a finished session's outcome into a fresh
// risk assessment. Escalated and high-stress outcomes weigh in directly;
// self-reported stress is taken from the most recent check-in.
func (s *Service) PostSessionAssessment(ctx context.Context, v *models.Volunteer, outcome models.SessionOutcome) {
	factors := models.BurnoutFactors{
		AverageSessionDuration: float64(outcome.DurationSeconds) / 60.0,
	}

	since := s.now().Add(-7 * 24 * time.Hour)
	alerts, err := s.wellness.RecentAlerts(ctx, v.ID, since)
	if err == nil {
		highStress := 0
		for _, a := range alerts {
			if a.RiskLevel == models.RiskHigh || a.RiskLevel == models.RiskCritical {
				highStress++
			}
		}
		factors.HighStressSessions = highStress
	}
	if outcome.HighStress {
		factors.HighStressSessions++
	}
	if outcome.Escalated {
		factors.EscalationRate = 0.5
	}

	checkIns, err := s.wellness.RecentCheckIns(ctx, v.ID, 1)
	if err == nil && len(checkIns) > 0 {
		factors.SelfReportedStress = checkIns[0].StressLevel
	}

	if _, err := s.AssessRisk(ctx, v.ID, factors); err != nil {
		s.logger.Warn("post-session assessment failed", map[string]interface{}{
			"volunteerId": v.ID,
			"sessionId":   outcome.SessionID,
			"error":       err.Error(),
		})
	}
}

// ResolveFollowUp records that a human coordinator completed the follow-up,
// clearing the reactivation block. The break hold, if still live, keeps its
// own clock.
func (s *Service) ResolveFollowUp(ctx context.Context, volunteerID string) error {
	if err := s.wellness.ClearFollowUp(ctx, volunteerID); err != nil {
		return err
	}
	s.logger.Info("follow-up resolved", map[string]interface{}{
		"volunteerId": volunteerID,
	})
	return nil
}

// intervene applies the graduated response ladder. Levels stack: high
// includes nothing from medium beyond the audit trail entry, and critical
// supersedes high because the suspension releases all load anyway.
func (s *Service) intervene(ctx context.Context, volunteerID string, level models.RiskLevel, reasons []string) error {
	metrics.InterventionsTriggered.WithLabelValues(string(level)).Inc()

	switch level {
	case models.RiskMedium:
		s.logger.Info("break reminder issued", map[string]interface{}{
			"volunteerId": volunteerID,
			"reasons":     reasons,
		})

	case models.RiskHigh:
		v, err := s.volunteers.Get(ctx, volunteerID)
		if err != nil {
			return err
		}
		cap := v.MaxConcurrent / 2
		if cap < 1 {
			cap = 1
		}
		if err := s.wellness.SetLoadCap(ctx, volunteerID, cap, s.cfg.LoadCapDuration); err != nil {
			return err
		}
		if err := s.wellness.SetFollowUpPending(ctx, volunteerID); err != nil {
			return err
		}
		s.logger.Warn("load cap installed", map[string]interface{}{
			"volunteerId": volunteerID,
			"cap":         cap,
			"reasons":     reasons,
		})

	case models.RiskCritical:
		if err := s.wellness.SetBreakHold(ctx, volunteerID, s.cfg.BreakHoldDuration); err != nil {
			return err
		}
		if err := s.wellness.SetFollowUpPending(ctx, volunteerID); err != nil {
			return err
		}
		err := s.lifecycle.Transition(ctx, volunteerID, models.StatusSuspended, "mandatory break: critical burnout risk", "system")
		if err != nil && engerrors.CodeOf(err) != engerrors.ErrCodeInvalidTransition {
			return err
		}
		if err != nil {
			// Already suspended or outside active service; the hold and
			// follow-up flags still stand.
			s.logger.Warn("suspension skipped", map[string]interface{}{
				"volunteerId": volunteerID,
				"error":       err.Error(),
			})
		}
	}

	s.appendAudit(ctx, volunteerID, level, reasons)
	return nil
}

func (s *Service) appendAudit(ctx context.Context, volunteerID string, level models.RiskLevel, reasons []string) {
	entry := models.AuditEntry{
		ID:          uuid.NewString(),
		VolunteerID: volunteerID,
		Kind:        models.AuditIntervention,
		Reason:      "burnout intervention: " + string(level),
		Actor:       "system",
		Details: map[string]interface{}{
			"riskLevel": string(level),
			"reasons":   reasons,
		},
		Timestamp: s.now().UTC(),
	}
	if err := s.audit.Append(ctx, entry); err != nil {
		s.logger.Warn("audit append failed", map[string]interface{}{
			"volunteerId": volunteerID,
			"error":       err.Error(),
		})
	}
}
