package training

import (
	"context"
	"time"

	"github.com/google/uuid"

	engerrors "crisisline-engine/internal/common/errors"
	"crisisline-engine/internal/common/logger"
	"crisisline-engine/internal/models"
	"crisisline-engine/internal/store"
)

// StatusTransitioner is the slice of the lifecycle engine this package
// needs: legal status transitions with an audited reason.
type StatusTransitioner interface {
	Transition(ctx context.Context, volunteerID string, target models.Status, reason, actor string) error
}

type AuditSink interface {
	Append(ctx context.Context, entry models.AuditEntry) error
}

type Service struct {
	catalog    *Catalog
	progress   *store.TrainingStore
	volunteers *store.VolunteerStore
	lifecycle  StatusTransitioner
	audit      AuditSink
	logger     logger.Logger
	now        func() time.Time
}

type Dependencies struct {
	Catalog    *Catalog
	Progress   *store.TrainingStore
	Volunteers *store.VolunteerStore
	Lifecycle  StatusTransitioner
	Audit      AuditSink
	Logger     logger.Logger
}

func NewService(deps Dependencies) *Service {
	return &Service{
		catalog:    deps.Catalog,
		progress:   deps.Progress,
		volunteers: deps.Volunteers,
		lifecycle:  deps.Lifecycle,
		audit:      deps.Audit,
		logger:     deps.Logger,
		now:        time.Now,
	}
}

// StartModule opens a module for a volunteer after checking the catalog and
// the prerequisite chain. A volunteer still in PENDING is moved to TRAINING
// on their first module start.
func (s *Service) StartModule(ctx context.Context, volunteerID, moduleID string) error {
	if _, ok := s.catalog.Module(moduleID); !ok {
		return engerrors.NewModuleNotFoundError(moduleID)
	}

	v, err := s.volunteers.Get(ctx, volunteerID)
	if err != nil {
		return err
	}
	if v.Status.Terminal() {
		return engerrors.NewInvalidTransitionError(string(v.Status), string(models.StatusTraining))
	}

	completed, err := s.progress.Completed(ctx, volunteerID)
	if err != nil {
		return err
	}
	if missing := s.catalog.MissingPrerequisites(moduleID, completed); len(missing) > 0 {
		return engerrors.NewPrerequisiteNotMetError(moduleID, missing)
	}

	if v.Status == models.StatusPending {
		if err := s.lifecycle.Transition(ctx, volunteerID, models.StatusTraining, "first training module started", "system"); err != nil {
			return err
		}
	}

	if err := s.progress.Start(ctx, volunteerID, moduleID); err != nil {
		return err
	}

	s.logger.Info("training module started", map[string]interface{}{
		"volunteerId": volunteerID,
		"moduleId":    moduleID,
	})
	return nil
}

// CompletionResult reports the outcome of one module attempt.
type CompletionResult struct {
	Passed    bool                     `json:"passed"`
	Progress  *models.TrainingProgress `json:"progress"`
	CertLevel models.CertLevel         `json:"certLevel"`
	Activated bool                     `json:"activated"`
}

// CompleteModule records one attempt. A score below the module's required
// score fails the attempt and increments the attempt counter; the volunteer
// may retry. A pass re-derives the certification level and, when the
// volunteer reaches their first deployable certification while still in the
// vetting pipeline, advances them to ACTIVE through each pipeline status in
// order so every step lands in the audit trail.
func (s *Service) CompleteModule(ctx context.Context, volunteerID, moduleID string, score, timeSpentMinutes int) (*CompletionResult, error) {
	module, ok := s.catalog.Module(moduleID)
	if !ok {
		return nil, engerrors.NewModuleNotFoundError(moduleID)
	}

	passed := score >= module.RequiredScore
	p, err := s.progress.Complete(ctx, volunteerID, moduleID, passed, score, timeSpentMinutes)
	if err != nil {
		if err == store.ErrNotStarted {
			return nil, engerrors.NewPrerequisiteNotMetError(moduleID, []string{"module must be started first"})
		}
		return nil, err
	}

	s.appendAudit(ctx, volunteerID, moduleID, p)

	result := &CompletionResult{Passed: passed, Progress: p}
	if !passed {
		s.logger.Info("training attempt failed", map[string]interface{}{
			"volunteerId":   volunteerID,
			"moduleId":      moduleID,
			"score":         score,
			"requiredScore": module.RequiredScore,
			"attempts":      p.Attempts,
		})
		return result, nil
	}

	completed, err := s.progress.Completed(ctx, volunteerID)
	if err != nil {
		return nil, err
	}
	result.CertLevel = s.catalog.HighestLevel(completed, s.now())

	if result.CertLevel.Rank() >= models.CertBasic.Rank() {
		activated, err := s.activateIfEligible(ctx, volunteerID, result.CertLevel)
		if err != nil {
			return nil, err
		}
		result.Activated = activated
	}

	s.logger.Info("training module completed", map[string]interface{}{
		"volunteerId": volunteerID,
		"moduleId":    moduleID,
		"score":       score,
		"certLevel":   string(result.CertLevel),
	})
	return result, nil
}

// CertificationLevel recomputes the volunteer's current certification from
// stored completions. Nothing is cached, so expired completions age out of
// the answer automatically.
func (s *Service) CertificationLevel(ctx context.Context, volunteerID string) (models.CertLevel, error) {
	completed, err := s.progress.Completed(ctx, volunteerID)
	if err != nil {
		return models.CertNone, err
	}
	return s.catalog.HighestLevel(completed, s.now()), nil
}

// activationChain is the legal path from TRAINING to deployable service.
var activationChain = []models.Status{
	models.StatusBackgroundCheck,
	models.StatusVerified,
	models.StatusActive,
}

// activateIfEligible walks a certified volunteer through the remaining
// pipeline statuses. Vetting outside the training gate is considered cleared
// once certification unlocks activation; each hop is a separate audited
// transition. Volunteers already past the pipeline are untouched.
func (s *Service) activateIfEligible(ctx context.Context, volunteerID string, level models.CertLevel) (bool, error) {
	v, err := s.volunteers.Get(ctx, volunteerID)
	if err != nil {
		return false, err
	}

	start := 0
	switch v.Status {
	case models.StatusTraining:
		start = 0
	case models.StatusBackgroundCheck:
		start = 1
	case models.StatusVerified:
		start = 2
	default:
		return false, nil
	}

	reason := "certification reached: " + string(level)
	for _, target := range activationChain[start:] {
		if err := s.lifecycle.Transition(ctx, volunteerID, target, reason, "system"); err != nil {
			return false, err
		}
	}
	return true, nil
}

func (s *Service) appendAudit(ctx context.Context, volunteerID, moduleID string, p *models.TrainingProgress) {
	entry := models.AuditEntry{
		ID:          uuid.NewString(),
		VolunteerID: volunteerID,
		Kind:        models.AuditTraining,
		Actor:       "system",
		Details: map[string]interface{}{
			"moduleId": moduleID,
			"status":   string(p.Status),
			"attempts": p.Attempts,
		},
		Timestamp: s.now().UTC(),
	}
	if p.Score != nil {
		entry.Details["score"] = *p.Score
	}
	if err := s.audit.Append(ctx, entry); err != nil {
		s.logger.Warn("audit append failed", map[string]interface{}{
			"volunteerId": volunteerID,
			"moduleId":    moduleID,
			"error":       err.Error(),
		})
	}
}
