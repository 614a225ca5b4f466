// Package matching implements volunteer selection and the atomic
// assignment of crisis sessions.
package matching

import (
	"sort"

	"crisisline-engine/internal/models"
)

// Criteria are the soft and hard filters for one selection run.
type Criteria struct {
	Specializations []string
	Languages       []string
	MaxLoad         int // stricter than per-volunteer max; 0 = none
	EmergencyOnly   bool
}

// Profile is one ranked selection candidate: the volunteer snapshot, the
// effective concurrency cap after any live intervention override, and the
// annotated match score.
type Profile struct {
	*models.Volunteer
	EffectiveMax int     `json:"effectiveMax"`
	MatchScore   float64 `json:"matchScore"`
}

// Match score weights. Specialization fit dominates, then track record,
// then current headroom.
const (
	weightSpecialization = 40.0
	weightLanguage       = 20.0
	weightRating         = 15.0
	weightResponseRate   = 15.0
	weightHeadroom       = 10.0
)

// matchScore annotates how well one candidate fits the criteria. Purely
// informational: the hard filters have already run in the store query.
func matchScore(v *models.Volunteer, effectiveMax int, c Criteria) float64 {
	var score float64

	if len(c.Specializations) > 0 {
		score += weightSpecialization * overlapFraction(v.Specializations, c.Specializations)
	} else {
		score += weightSpecialization
	}
	if len(c.Languages) > 0 {
		score += weightLanguage * overlapFraction(v.Languages, c.Languages)
	} else {
		score += weightLanguage
	}

	score += weightRating * (v.AverageRating / 5.0)
	score += weightResponseRate * v.ResponseRate

	if effectiveMax > 0 {
		headroom := float64(effectiveMax-v.CurrentLoad) / float64(effectiveMax)
		if headroom < 0 {
			headroom = 0
		}
		score += weightHeadroom * headroom
	}
	return score
}

// overlapFraction is the fraction of wanted covered by have.
func overlapFraction(have, wanted []string) float64 {
	if len(wanted) == 0 {
		return 1
	}
	set := make(map[string]struct{}, len(have))
	for _, s := range have {
		set[s] = struct{}{}
	}
	hits := 0
	for _, w := range wanted {
		if _, ok := set[w]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(wanted))
}

// rankProfiles orders candidates by load ascending, rating descending,
// response rate descending, with the id as the final tiebreak so identical
// pools always rank identically.
func rankProfiles(profiles []*Profile) {
	sort.Slice(profiles, func(i, j int) bool {
		a, b := profiles[i], profiles[j]
		if a.CurrentLoad != b.CurrentLoad {
			return a.CurrentLoad < b.CurrentLoad
		}
		if a.AverageRating != b.AverageRating {
			return a.AverageRating > b.AverageRating
		}
		if a.ResponseRate != b.ResponseRate {
			return a.ResponseRate > b.ResponseRate
		}
		return a.ID < b.ID
	})
}
