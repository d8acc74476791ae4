package worlddef

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_ProducesFinalizedLookupsForAllSections(t *testing.T) {
	d := Default()

	n, ok := d.Need("hunger")
	require.True(t, ok)
	assert.Equal(t, "eat", n.DecayAction)

	_, ok = d.Resource("food")
	assert.True(t, ok)

	occ, ok := d.Occupation("farmer")
	require.True(t, ok)
	assert.Equal(t, "farming", occ.PrimarySkill)

	_, ok = d.Trait("introversion")
	assert.True(t, ok)

	_, ok = d.Action("nonexistent")
	assert.False(t, ok)
}

func TestNeedDef_CriticalThresholdDefaultsWhenUnset(t *testing.T) {
	n := NeedDef{ID: "hunger"}
	assert.Equal(t, 0.9, n.CriticalThreshold())

	n.Critical = 0.5
	assert.Equal(t, 0.5, n.CriticalThreshold())
}

func TestResourceDef_CeilDefaultsWhenUnset(t *testing.T) {
	r := ResourceDef{ID: "food"}
	assert.Equal(t, 999.0, r.Ceil())

	r.Ceiling = 50
	assert.Equal(t, 50.0, r.Ceil())
}

func TestLoad_ParsesYAMLAndFinalizesIndices(t *testing.T) {
	yaml := "needs:\n  - id: hunger\n    growth_rate: 0.001\n    critical: 0.8\n"
	d, err := Load([]byte(yaml))
	require.NoError(t, err)

	n, ok := d.Need("hunger")
	require.True(t, ok)
	assert.Equal(t, 0.8, n.CriticalThreshold())
}

func TestLoad_InvalidYAMLReturnsError(t *testing.T) {
	_, err := Load([]byte("needs: [this is not: valid: yaml"))
	assert.Error(t, err)
}

func TestSeasonAt_WrapsAroundFullCycle(t *testing.T) {
	d := Default()

	spring := d.SeasonAt(0)
	assert.Equal(t, "spring", spring.ID)

	total := 24 * 20 * 4
	wrapped := d.SeasonAt(total)
	assert.Equal(t, "spring", wrapped.ID)

	summer := d.SeasonAt(24*20 + 1)
	assert.Equal(t, "summer", summer.ID)
}

func TestSeasonAt_NoSeasonsReturnsNoneFallback(t *testing.T) {
	d := &Def{}
	d.Finalize()

	s := d.SeasonAt(100)
	assert.Equal(t, "none", s.ID)
	assert.Equal(t, 1.0, s.ProductionMult)
}

func TestNeedIDs_PreservesDeclarationOrder(t *testing.T) {
	d := Default()
	ids := d.NeedIDs()
	require.NotEmpty(t, ids)
	assert.Equal(t, "hunger", ids[0])
}
