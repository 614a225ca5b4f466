// Package monitor runs the engine's background loops: the periodic wellness
// sweep, the hourly statistics rollup, and the infrastructure health check.
package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"crisisline-engine/internal/common/logger"
	"crisisline-engine/internal/common/metrics"
	"crisisline-engine/internal/engine/stats"
	"crisisline-engine/internal/store"
)

// WellnessSweeper re-evaluates one volunteer's wellness window.
type WellnessSweeper interface {
	SweepVolunteer(ctx context.Context, volunteerID string) error
}

// HealthTarget is one infrastructure dependency the health loop pings.
type HealthTarget struct {
	Name  string
	Check func(ctx context.Context) error
}

// Config carries the loop intervals.
type Config struct {
	WellnessSweepInterval time.Duration
	RollupInterval        time.Duration
	HealthCheckInterval   time.Duration
}

type Monitor struct {
	volunteers *store.VolunteerStore
	sweeper    WellnessSweeper
	stats      *stats.Service
	targets    []HealthTarget
	logger     logger.Logger
	cfg        Config

	wg sync.WaitGroup
}

type Dependencies struct {
	Volunteers *store.VolunteerStore
	Sweeper    WellnessSweeper
	Stats      *stats.Service
	Targets    []HealthTarget
	Logger     logger.Logger
	Config     Config
}

func New(deps Dependencies) *Monitor {
	return &Monitor{
		volunteers: deps.Volunteers,
		sweeper:    deps.Sweeper,
		stats:      deps.Stats,
		targets:    deps.Targets,
		logger:     deps.Logger,
		cfg:        deps.Config,
	}
}

// Start launches the three loops. They run until ctx is cancelled; Wait
// blocks until all have drained.
func (m *Monitor) Start(ctx context.Context) {
	m.launch(ctx, "wellness_sweep", m.cfg.WellnessSweepInterval, m.wellnessSweep)
	m.launch(ctx, "stats_rollup", m.cfg.RollupInterval, m.rollup)
	m.launch(ctx, "health_check", m.cfg.HealthCheckInterval, m.healthCheck)
}

// Wait blocks until every loop has observed cancellation and returned.
func (m *Monitor) Wait() {
	m.wg.Wait()
}

func (m *Monitor) launch(ctx context.Context, name string, interval time.Duration, fn func(ctx context.Context) error) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				m.logger.Info("monitor loop stopped", map[string]interface{}{"loop": name})
				return
			case <-ticker.C:
				m.runOnce(ctx, name, fn)
			}
		}
	}()
}

// runOnce executes one iteration with panic containment. A panicking
// iteration is recorded and the loop keeps its schedule.
func (m *Monitor) runOnce(ctx context.Context, name string, fn func(ctx context.Context) error) {
	defer func() {
		if r := recover(); r != nil {
			metrics.MonitorIterations.WithLabelValues(name, "panic").Inc()
			m.logger.Error("monitor loop panicked", map[string]interface{}{
				"loop":  name,
				"panic": fmt.Sprintf("%v", r),
			})
		}
	}()

	if err := fn(ctx); err != nil {
		metrics.MonitorIterations.WithLabelValues(name, "error").Inc()
		m.logger.Warn("monitor loop iteration failed", map[string]interface{}{
			"loop":  name,
			"error": err.Error(),
		})
		return
	}
	metrics.MonitorIterations.WithLabelValues(name, "ok").Inc()
}

// wellnessSweep re-runs the wellness window analysis across the active
// pool. Per-volunteer failures are logged and do not stop the sweep.
func (m *Monitor) wellnessSweep(ctx context.Context) error {
	ids, err := m.volunteers.ActiveIDs(ctx)
	if err != nil {
		return err
	}

	failed := 0
	for _, id := range ids {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := m.sweeper.SweepVolunteer(ctx, id); err != nil {
			failed++
			m.logger.Warn("wellness sweep failed for volunteer", map[string]interface{}{
				"volunteerId": id,
				"error":       err.Error(),
			})
		}
	}

	m.logger.Debug("wellness sweep finished", map[string]interface{}{
		"swept":  len(ids),
		"failed": failed,
	})
	return nil
}

// rollup refreshes the pool-level gauges from the record store.
func (m *Monitor) rollup(ctx context.Context) error {
	report, err := m.stats.VolunteerStats(ctx)
	if err != nil {
		return err
	}

	metrics.ActiveVolunteers.Set(float64(report.ActiveVolunteers))
	metrics.CapacityUtilization.Set(report.CapacityUtilization)

	m.logger.Info("pool statistics rolled up", map[string]interface{}{
		"activeVolunteers":    report.ActiveVolunteers,
		"availableVolunteers": report.AvailableVolunteers,
		"capacityUtilization": report.CapacityUtilization,
	})
	return nil
}

// healthCheck pings each infrastructure target. All targets are checked
// even when an early one fails; the first error is returned.
func (m *Monitor) healthCheck(ctx context.Context) error {
	var firstErr error
	for _, target := range m.targets {
		if err := target.Check(ctx); err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("%s: %w", target.Name, err)
			}
			m.logger.Error("infrastructure target unhealthy", map[string]interface{}{
				"target": target.Name,
				"error":  err.Error(),
			})
		}
	}
	return firstErr
}
