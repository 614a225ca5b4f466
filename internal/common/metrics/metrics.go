// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AssignmentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_assignments_total",
			Help: "Total number of crisis session assignments",
		},
		[]string{"priority"},
	)

	AssignmentsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_assignments_rejected_total",
			Help: "Assignments rejected at the re-validation step",
		},
		[]string{"error_code"},
	)

	AssignmentDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "engine_assignment_duration_seconds",
			Help:    "End-to-end duration of the assignment path in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"priority"},
	)

	StatusTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_status_transitions_total",
			Help: "Volunteer status transitions by target status",
		},
		[]string{"to_status"},
	)

	BurnoutAlerts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_burnout_alerts_total",
			Help: "Burnout alerts emitted by risk level",
		},
		[]string{"risk_level"},
	)

	InterventionsTriggered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_interventions_total",
			Help: "Graduated interventions triggered by level",
		},
		[]string{"level"},
	)

	ActiveVolunteers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "engine_active_volunteers",
			Help: "Number of volunteers currently in active status",
		},
	)

	CapacityUtilization = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "engine_capacity_utilization",
			Help: "Aggregate current load over aggregate max concurrency",
		},
	)

	MonitorIterations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_monitor_iterations_total",
			Help: "Background loop iterations by loop and outcome",
		},
		[]string{"loop", "outcome"},
	)
)
