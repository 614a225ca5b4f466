// Package stats exposes pool-level reporting over the volunteer record
// store.
package stats

import (
	"context"

	"crisisline-engine/internal/common/logger"
	"crisisline-engine/internal/models"
	"crisisline-engine/internal/store"
)

type Service struct {
	volunteers *store.VolunteerStore
	logger     logger.Logger
}

func NewService(volunteers *store.VolunteerStore, log logger.Logger) *Service {
	return &Service{volunteers: volunteers, logger: log}
}

// Report is a point-in-time summary of the volunteer pool.
type Report struct {
	ByStatus        map[models.Status]int `json:"byStatus"`
	TotalVolunteers int                   `json:"totalVolunteers"`

	AverageRating  float64 `json:"averageRating"`
	AverageBurnout float64 `json:"averageBurnout"`
	AverageLoad    float64 `json:"averageLoad"`

	ActiveVolunteers    int     `json:"activeVolunteers"`
	AvailableVolunteers int     `json:"availableVolunteers"`
	CapacityUtilization float64 `json:"capacityUtilization"`
}

// VolunteerStats aggregates per-status totals and active-pool health. Two
// read-only queries; the numbers may be mutually inconsistent under
// concurrent writes, which is acceptable for reporting.
func (s *Service) VolunteerStats(ctx context.Context) (*Report, error) {
	counts, err := s.volunteers.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	agg, err := s.volunteers.ActiveAggregates(ctx)
	if err != nil {
		return nil, err
	}

	report := &Report{
		ByStatus:            counts,
		AverageRating:       agg.AvgRating,
		AverageBurnout:      agg.AvgBurnout,
		AverageLoad:         agg.AvgLoad,
		ActiveVolunteers:    counts[models.StatusActive],
		AvailableVolunteers: agg.Available,
	}
	for _, n := range counts {
		report.TotalVolunteers += n
	}
	if agg.TotalCapacity > 0 {
		report.CapacityUtilization = float64(agg.TotalLoad) / float64(agg.TotalCapacity)
	}
	return report, nil
}
