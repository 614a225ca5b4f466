package training

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crisisline-engine/internal/models"
)

func TestCatalogPrerequisitesAreAcyclic(t *testing.T) {
	c := NewDefaultCatalog()

	var visit func(id string, seen map[string]bool) bool
	visit = func(id string, seen map[string]bool) bool {
		if seen[id] {
			return false
		}
		seen[id] = true
		m, ok := c.Module(id)
		require.True(t, ok, "prerequisite %q missing from catalog", id)
		for _, p := range m.Prerequisites {
			if !visit(p, seen) {
				return false
			}
		}
		delete(seen, id)
		return true
	}

	for id := range c.modules {
		assert.True(t, visit(id, map[string]bool{}), "cycle reachable from %q", id)
	}
}

func TestMissingPrerequisites(t *testing.T) {
	c := NewDefaultCatalog()
	now := time.Now()

	missing := c.MissingPrerequisites("risk-assessment", map[string]time.Time{
		"crisis-basics": now,
	})
	assert.Equal(t, []string{"active-listening"}, missing)

	assert.Empty(t, c.MissingPrerequisites("crisis-basics", nil))
}

func TestHighestLevelDerivation(t *testing.T) {
	c := NewDefaultCatalog()
	now := time.Now()

	assert.Equal(t, models.CertNone, c.HighestLevel(nil, now))

	completed := map[string]time.Time{"crisis-basics": now}
	assert.Equal(t, models.CertBasic, c.HighestLevel(completed, now))

	completed["active-listening"] = now
	completed["self-care"] = now
	assert.Equal(t, models.CertIntermediate, c.HighestLevel(completed, now))

	completed["risk-assessment"] = now
	completed["de-escalation"] = now
	assert.Equal(t, models.CertAdvanced, c.HighestLevel(completed, now))

	completed["advanced-intervention"] = now
	completed["emergency-response"] = now
	assert.Equal(t, models.CertExpert, c.HighestLevel(completed, now))
}

func TestHighestLevelIsMonotonic(t *testing.T) {
	c := NewDefaultCatalog()
	now := time.Now()

	completed := map[string]time.Time{"crisis-basics": now}
	base := c.HighestLevel(completed, now)

	completed["peer-mentoring"] = now
	withExtra := c.HighestLevel(completed, now)
	assert.GreaterOrEqual(t, withExtra.Rank(), base.Rank(),
		"adding a completion must never lower the level")
}

func TestExpiredCompletionsAgeOut(t *testing.T) {
	c := NewDefaultCatalog()
	now := time.Now()
	old := now.Add(-25 * 30 * 24 * time.Hour)

	completed := map[string]time.Time{"crisis-basics": old}
	assert.Equal(t, models.CertNone, c.HighestLevel(completed, now),
		"a completion past the validity window no longer certifies")

	completed["crisis-basics"] = now
	assert.Equal(t, models.CertBasic, c.HighestLevel(completed, now))
}

func TestAdvancedValidityIsStricter(t *testing.T) {
	c := NewDefaultCatalog()
	now := time.Now()
	thirteenMonths := now.Add(-13 * 30 * 24 * time.Hour)

	completed := map[string]time.Time{
		"crisis-basics":    thirteenMonths,
		"active-listening": thirteenMonths,
		"self-care":        thirteenMonths,
		"risk-assessment":  thirteenMonths,
		"de-escalation":    thirteenMonths,
	}
	assert.Equal(t, models.CertIntermediate, c.HighestLevel(completed, now),
		"13-month-old completions still satisfy the 24-month tiers but not the 12-month one")
}

func TestFoundationalTrack(t *testing.T) {
	c := NewDefaultCatalog()
	track, hours := c.FoundationalTrack()

	assert.Equal(t, []string{"crisis-basics", "active-listening", "self-care"}, track)
	assert.Equal(t, 18.0, hours)
}
