package lifecycle

import (
	"context"

	"crisisline-engine/internal/models"
)

// statusEffect is the side effect applied after a successful transition into
// a status. Dispatch is by type, one implementation per status, so a new
// status fails compilation here rather than falling through a string switch.
type statusEffect interface {
	apply(ctx context.Context, s *Service, volunteerID string) error
}

// noopEffect covers statuses with no side effect beyond the status write.
type noopEffect struct{}

func (noopEffect) apply(context.Context, *Service, string) error { return nil }

// activationEffect resets the activity clock so a freshly activated
// volunteer is immediately visible to selection.
type activationEffect struct{}

func (activationEffect) apply(ctx context.Context, s *Service, volunteerID string) error {
	return s.volunteers.TouchLastActive(ctx, volunteerID)
}

// releaseLoadEffect unconditionally zeroes the load, forcibly releasing any
// in-flight assignments. Orphaned assignment records are reconciled by the
// session layer, not here.
type releaseLoadEffect struct{}

func (releaseLoadEffect) apply(ctx context.Context, s *Service, volunteerID string) error {
	return s.volunteers.ZeroLoad(ctx, volunteerID)
}

// terminalEffect releases load and clears any live intervention holds; a
// revoked or failed volunteer keeps no residual redis state.
type terminalEffect struct{}

func (terminalEffect) apply(ctx context.Context, s *Service, volunteerID string) error {
	if err := s.volunteers.ZeroLoad(ctx, volunteerID); err != nil {
		return err
	}
	if err := s.wellness.ClearBreakHold(ctx, volunteerID); err != nil {
		return err
	}
	return s.wellness.ClearFollowUp(ctx, volunteerID)
}

var statusEffects = map[models.Status]statusEffect{
	models.StatusPending:         noopEffect{},
	models.StatusTraining:        noopEffect{},
	models.StatusBackgroundCheck: noopEffect{},
	models.StatusVerified:        noopEffect{},
	models.StatusActive:          activationEffect{},
	models.StatusInactive:        noopEffect{},
	models.StatusSuspended:       releaseLoadEffect{},
	models.StatusFailed:          terminalEffect{},
	models.StatusRejected:        terminalEffect{},
	models.StatusRevoked:         terminalEffect{},
}

func effectFor(status models.Status) statusEffect {
	if effect, ok := statusEffects[status]; ok {
		return effect
	}
	return noopEffect{}
}
