package burnout

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"crisisline-engine/internal/models"
)

func TestFactorBandWeights(t *testing.T) {
	b := bands{medium: 20, high: 30, critical: 40}

	assert.Equal(t, 0, b.weight(19))
	assert.Equal(t, weightMedium, b.weight(20))
	assert.Equal(t, weightMedium, b.weight(29))
	assert.Equal(t, weightMedium+weightHigh, b.weight(30))
	assert.Equal(t, weightMedium+weightHigh+weightCritical, b.weight(40))
	assert.Equal(t, weightMedium+weightHigh+weightCritical, b.weight(400))
}

func TestScoreFactorsIsDeterministic(t *testing.T) {
	f := models.BurnoutFactors{
		SessionCount:       25, // medium
		ConsecutiveDays:    15, // high
		SelfReportedStress: 9,  // critical
	}

	score1, names1 := scoreFactors(f)
	score2, names2 := scoreFactors(f)

	// medium (2) + cumulative high (5) + cumulative critical (9)
	assert.Equal(t, 16, score1)
	assert.Equal(t, score1, score2)
	assert.Equal(t, names1, names2)
	assert.Equal(t, []string{"sessionCount", "consecutiveDays", "selfReportedStress"}, names1)
}

func TestZeroFactorsContributeNothing(t *testing.T) {
	score, names := scoreFactors(models.BurnoutFactors{})
	assert.Zero(t, score)
	assert.Empty(t, names)
	assert.Equal(t, models.RiskLow, levelFor(score))
}

func TestRiskLevelBreakpoints(t *testing.T) {
	assert.Equal(t, models.RiskLow, levelFor(3))
	assert.Equal(t, models.RiskMedium, levelFor(4))
	assert.Equal(t, models.RiskMedium, levelFor(7))
	assert.Equal(t, models.RiskHigh, levelFor(8))
	assert.Equal(t, models.RiskHigh, levelFor(11))
	assert.Equal(t, models.RiskCritical, levelFor(12))
}

func TestSustainedOverloadScoresCritical(t *testing.T) {
	// Two factors at their critical cut points are enough on their own.
	f := models.BurnoutFactors{
		SessionCount:       40,
		SelfReportedStress: 9,
	}

	score, _ := scoreFactors(f)
	assert.GreaterOrEqual(t, score, scoreCritical)
	assert.Equal(t, models.RiskCritical, levelFor(score))
}

func TestNormalizedScoreIsClamped(t *testing.T) {
	assert.Equal(t, 0.0, normalizedScore(0))
	assert.Equal(t, 0.5, normalizedScore(8))
	assert.Equal(t, 1.0, normalizedScore(16))
	assert.Equal(t, 1.0, normalizedScore(32))
}

func TestRecommendationsMatchLevel(t *testing.T) {
	recs := recommendationsFor(models.RiskCritical, []string{"lastBreakDays"})
	assert.NotEmpty(t, recs)
	assert.Contains(t, recs[0], "72 hours")

	assert.Empty(t, recommendationsFor(models.RiskLow, nil))
}
