// Package burnout implements the weighted threshold risk assessor, the
// wellness check-in window analysis, and the graduated intervention ladder.
package burnout

import (
	"crisisline-engine/internal/models"
)

// Severity weights per crossed threshold band.
const (
	weightMedium   = 2
	weightHigh     = 3
	weightCritical = 4
)

// Risk level breakpoints over the summed weighted score.
const (
	scoreMedium   = 4
	scoreHigh     = 8
	scoreCritical = 12
)

// maxScore normalizes the summed score into the persisted 0..1 burnout
// score used by the assignment guard.
const maxScore = 16.0

// bands holds the medium/high/critical cut points for one factor.
type bands struct {
	medium   float64
	high     float64
	critical float64
}

// factorSpec names a factor, extracts its value, and carries its bands. A
// zero value means the factor was not observed and contributes nothing.
type factorSpec struct {
	name  string
	value func(models.BurnoutFactors) float64
	bands bands
}

var factorTable = []factorSpec{
	{
		name:  "sessionCount",
		value: func(f models.BurnoutFactors) float64 { return float64(f.SessionCount) },
		bands: bands{medium: 20, high: 30, critical: 40},
	},
	{
		name:  "averageSessionDuration",
		value: func(f models.BurnoutFactors) float64 { return f.AverageSessionDuration },
		bands: bands{medium: 45, high: 60, critical: 90},
	},
	{
		name:  "consecutiveDays",
		value: func(f models.BurnoutFactors) float64 { return float64(f.ConsecutiveDays) },
		bands: bands{medium: 7, high: 14, critical: 21},
	},
	{
		name:  "highStressSessions",
		value: func(f models.BurnoutFactors) float64 { return float64(f.HighStressSessions) },
		bands: bands{medium: 3, high: 5, critical: 10},
	},
	{
		name:  "lastBreakDays",
		value: func(f models.BurnoutFactors) float64 { return float64(f.LastBreakDays) },
		bands: bands{medium: 7, high: 14, critical: 30},
	},
	{
		name:  "selfReportedStress",
		value: func(f models.BurnoutFactors) float64 { return float64(f.SelfReportedStress) },
		bands: bands{medium: 5, high: 7, critical: 9},
	},
	{
		name:  "responseTime",
		value: func(f models.BurnoutFactors) float64 { return f.ResponseTime },
		bands: bands{medium: 120, high: 300, critical: 600},
	},
	{
		name:  "escalationRate",
		value: func(f models.BurnoutFactors) float64 { return f.EscalationRate },
		bands: bands{medium: 0.2, high: 0.35, critical: 0.5},
	},
}

// weight accumulates band by band: a factor carries the weight of every
// cut point it has crossed, so a single critical factor contributes
// 2+3+4 = 9 and two critical factors alone push the sum past the
// critical breakpoint.
func (b bands) weight(v float64) int {
	w := 0
	if v >= b.medium {
		w += weightMedium
	}
	if v >= b.high {
		w += weightHigh
	}
	if v >= b.critical {
		w += weightCritical
	}
	return w
}

// scoreFactors sums the weighted threshold crossings and names the
// contributing factors in table order, so identical inputs always produce
// identical output.
func scoreFactors(f models.BurnoutFactors) (int, []string) {
	score := 0
	var contributing []string
	for _, spec := range factorTable {
		w := spec.bands.weight(spec.value(f))
		if w == 0 {
			continue
		}
		score += w
		contributing = append(contributing, spec.name)
	}
	return score, contributing
}

func levelFor(score int) models.RiskLevel {
	switch {
	case score >= scoreCritical:
		return models.RiskCritical
	case score >= scoreHigh:
		return models.RiskHigh
	case score >= scoreMedium:
		return models.RiskMedium
	default:
		return models.RiskLow
	}
}

// normalizedScore maps the weighted sum into the 0..1 burnout score stored
// on the volunteer record and enforced by the assignment slot guard.
func normalizedScore(score int) float64 {
	n := float64(score) / maxScore
	if n > 1 {
		return 1
	}
	return n
}

func recommendationsFor(level models.RiskLevel, contributing []string) []string {
	var recs []string
	switch level {
	case models.RiskCritical:
		recs = append(recs, "mandatory break, minimum 72 hours", "schedule a debrief with a coordinator")
	case models.RiskHigh:
		recs = append(recs, "session load reduced for the next 24 hours", "a coordinator will follow up")
	case models.RiskMedium:
		recs = append(recs, "consider taking a break after your current sessions")
	default:
		return nil
	}

	for _, factor := range contributing {
		switch factor {
		case "consecutiveDays", "lastBreakDays":
			recs = append(recs, "take at least one full day off this week")
		case "selfReportedStress":
			recs = append(recs, "peer support sessions are available")
		case "highStressSessions", "escalationRate":
			recs = append(recs, "rotate toward lower-acuity sessions")
		}
	}
	return recs
}
