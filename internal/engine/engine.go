// Package engine assembles the volunteer lifecycle services into one
// dependency-injected call surface. Nothing here holds state of its own;
// each sub-service talks to the shared stores.
package engine

import (
	"crisisline-engine/internal/common/config"
	"crisisline-engine/internal/common/logger"
	"crisisline-engine/internal/common/observability"
	"crisisline-engine/internal/engine/burnout"
	"crisisline-engine/internal/engine/lifecycle"
	"crisisline-engine/internal/engine/matching"
	"crisisline-engine/internal/engine/sessions"
	"crisisline-engine/internal/engine/stats"
	"crisisline-engine/internal/engine/training"
	"crisisline-engine/internal/store"
)

// Engine is the synchronous operation surface of the service. Callers embed
// it behind whatever transport they need; every operation takes a context
// and returns a categorized error.
type Engine struct {
	Lifecycle *lifecycle.Service
	Training  *training.Service
	Burnout   *burnout.Service
	Matching  *matching.Service
	Sessions  *sessions.Service
	Stats     *stats.Service
}

// Stores groups the backing stores the engine operates on.
type Stores struct {
	Volunteers *store.VolunteerStore
	Progress   *store.TrainingStore
	Wellness   *store.WellnessStore
	Audit      lifecycle.AuditSink
}

// New wires the full engine. The burnout assessor forces suspensions
// through the lifecycle service, and session completions feed back into the
// assessor, so construction order follows the dependency chain.
func New(cfg *config.Config, stores Stores, obs *observability.Observability, log logger.Logger) *Engine {
	catalog := training.NewDefaultCatalog()

	lifecycleSvc := lifecycle.NewService(lifecycle.Dependencies{
		Volunteers:         stores.Volunteers,
		Wellness:           stores.Wellness,
		Catalog:            catalog,
		Audit:              stores.Audit,
		Logger:             log,
		DefaultMaxSessions: cfg.Engine.DefaultMaxSessions,
	})

	trainingSvc := training.NewService(training.Dependencies{
		Catalog:    catalog,
		Progress:   stores.Progress,
		Volunteers: stores.Volunteers,
		Lifecycle:  lifecycleSvc,
		Audit:      stores.Audit,
		Logger:     log,
	})

	burnoutSvc := burnout.NewService(burnout.Dependencies{
		Volunteers: stores.Volunteers,
		Wellness:   stores.Wellness,
		Lifecycle:  lifecycleSvc,
		Audit:      stores.Audit,
		Logger:     log,
		Config: burnout.Config{
			WellnessWindowSize: cfg.Engine.WellnessWindowSize,
			AlertRetention:     cfg.Engine.AlertRetention,
			LoadCapDuration:    cfg.Engine.LoadCapDuration,
			BreakHoldDuration:  cfg.Engine.BreakHoldDuration,
		},
	})

	matchingSvc := matching.NewService(matching.Dependencies{
		Volunteers:    stores.Volunteers,
		Wellness:      stores.Wellness,
		Audit:         stores.Audit,
		Observability: obs,
		Logger:        log,
		Config: matching.Config{
			BurnoutThreshold:    cfg.Engine.BurnoutThreshold,
			RecencyWindow:       cfg.Engine.RecencyWindow,
			SelectionLimit:      cfg.Engine.SelectionLimit,
			EmergencyBudget:     cfg.Engine.EmergencyBudget,
			BaseResponseSeconds: cfg.Engine.BaseResponseSeconds,
		},
	})

	sessionsSvc := sessions.NewService(sessions.Dependencies{
		Volunteers: stores.Volunteers,
		Assessor:   burnoutSvc,
		Audit:      stores.Audit,
		Logger:     log,
	})

	return &Engine{
		Lifecycle: lifecycleSvc,
		Training:  trainingSvc,
		Burnout:   burnoutSvc,
		Matching:  matchingSvc,
		Sessions:  sessionsSvc,
		Stats:     stats.NewService(stores.Volunteers, log),
	}
}
