// Package training implements the module catalog, progress tracking, and
// certification derivation that gate volunteer activation.
package training

import (
	"time"

	"crisisline-engine/internal/models"
)

// Catalog is the static module and certification catalog. It is immutable
// after construction, so it is safe for concurrent reads.
type Catalog struct {
	modules map[string]models.Module
	levels  []models.CertificationLevel
}

// NewDefaultCatalog builds the production catalog. Prerequisite chains are
// acyclic by construction; every prerequisite names an earlier entry.
func NewDefaultCatalog() *Catalog {
	modules := []models.Module{
		{
			ID:             "crisis-basics",
			Title:          "Crisis Intervention Basics",
			Prerequisites:  nil,
			RequiredScore:  80,
			EstimatedHours: 8,
		},
		{
			ID:             "active-listening",
			Title:          "Active Listening",
			Prerequisites:  []string{"crisis-basics"},
			RequiredScore:  75,
			EstimatedHours: 6,
		},
		{
			ID:             "self-care",
			Title:          "Responder Self-Care",
			Prerequisites:  []string{"crisis-basics"},
			RequiredScore:  70,
			EstimatedHours: 4,
		},
		{
			ID:             "risk-assessment",
			Title:          "Suicide Risk Assessment",
			Prerequisites:  []string{"crisis-basics", "active-listening"},
			RequiredScore:  80,
			EstimatedHours: 10,
		},
		{
			ID:             "de-escalation",
			Title:          "De-escalation Techniques",
			Prerequisites:  []string{"crisis-basics", "active-listening"},
			RequiredScore:  80,
			EstimatedHours: 8,
		},
		{
			ID:             "advanced-intervention",
			Title:          "Advanced Crisis Intervention",
			Prerequisites:  []string{"risk-assessment", "de-escalation"},
			RequiredScore:  85,
			EstimatedHours: 12,
		},
		{
			ID:             "emergency-response",
			Title:          "Emergency Response Protocol",
			Prerequisites:  []string{"risk-assessment"},
			RequiredScore:  85,
			EstimatedHours: 10,
		},
		{
			ID:             "peer-mentoring",
			Title:          "Peer Mentoring",
			Prerequisites:  []string{"active-listening", "self-care"},
			RequiredScore:  75,
			EstimatedHours: 6,
		},
	}

	byID := make(map[string]models.Module, len(modules))
	for _, m := range modules {
		byID[m.ID] = m
	}

	levels := []models.CertificationLevel{
		{
			Level:           models.CertBasic,
			RequiredModules: []string{"crisis-basics"},
			ValidityPeriod:  24 * 30 * 24 * time.Hour,
		},
		{
			Level:           models.CertIntermediate,
			RequiredModules: []string{"crisis-basics", "active-listening", "self-care"},
			ValidityPeriod:  24 * 30 * 24 * time.Hour,
		},
		{
			Level:           models.CertAdvanced,
			RequiredModules: []string{"crisis-basics", "active-listening", "self-care", "risk-assessment", "de-escalation"},
			ValidityPeriod:  12 * 30 * 24 * time.Hour,
		},
		{
			Level:           models.CertExpert,
			RequiredModules: []string{"crisis-basics", "active-listening", "self-care", "risk-assessment", "de-escalation", "advanced-intervention", "emergency-response"},
			ValidityPeriod:  12 * 30 * 24 * time.Hour,
		},
	}

	return &Catalog{modules: byID, levels: levels}
}

// Module looks up a catalog module by id.
func (c *Catalog) Module(id string) (models.Module, bool) {
	m, ok := c.modules[id]
	return m, ok
}

// Levels returns the certification tiers, weakest first.
func (c *Catalog) Levels() []models.CertificationLevel {
	out := make([]models.CertificationLevel, len(c.levels))
	copy(out, c.levels)
	return out
}

// FoundationalTrack is the recommended intake track reported to new
// applicants: the modules that carry a volunteer to the first deployable
// certification plus the core supporting skills.
func (c *Catalog) FoundationalTrack() ([]string, float64) {
	track := []string{"crisis-basics", "active-listening", "self-care"}
	var hours float64
	for _, id := range track {
		hours += c.modules[id].EstimatedHours
	}
	return track, hours
}

// MissingPrerequisites returns the prerequisites of moduleID that are not in
// completed, in catalog order.
func (c *Catalog) MissingPrerequisites(moduleID string, completed map[string]time.Time) []string {
	m, ok := c.modules[moduleID]
	if !ok {
		return nil
	}
	var missing []string
	for _, prereq := range m.Prerequisites {
		if _, done := completed[prereq]; !done {
			missing = append(missing, prereq)
		}
	}
	return missing
}

// HighestLevel derives the strongest certification the completion set
// supports at the given instant. A completion older than a level's validity
// period does not count toward that level, so adding completions can only
// raise the result, never lower it.
func (c *Catalog) HighestLevel(completed map[string]time.Time, now time.Time) models.CertLevel {
	highest := models.CertNone
	for _, level := range c.levels {
		if c.levelSatisfied(level, completed, now) {
			highest = level.Level
		}
	}
	return highest
}

func (c *Catalog) levelSatisfied(level models.CertificationLevel, completed map[string]time.Time, now time.Time) bool {
	for _, moduleID := range level.RequiredModules {
		completedAt, ok := completed[moduleID]
		if !ok {
			return false
		}
		if now.Sub(completedAt) > level.ValidityPeriod {
			return false
		}
	}
	return true
}
