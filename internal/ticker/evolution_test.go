package ticker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thistlewood/emberfall/internal/agent"
	"github.com/thistlewood/emberfall/internal/gametime"
	"github.com/thistlewood/emberfall/internal/worlddef"
	"github.com/thistlewood/emberfall/internal/worldstate"
)

func TestEvolve_AdvancesSeasonWhenCrossed(t *testing.T) {
	def := worlddef.Default()
	w := worldstate.New(def, 10, 1)
	tk := New(def)

	result := tk.Evolve(w, nil, nil, 24*20+1)
	assert.Equal(t, "summer", result.NewSeason)
	assert.Equal(t, "summer", w.Environment.Season)
}

func TestEvolve_FlagsDisrepairedBuildingOnce(t *testing.T) {
	def := worlddef.Default()
	w := worldstate.New(def, 10, 1)
	tk := New(def)
	buildings := []*Building{{Name: "mill", Condition: disrepairThreshold + 0.1}}

	result := tk.Evolve(w, buildings, nil, 0)
	require.Contains(t, result.DisrepairedBuildings, "mill")

	result2 := tk.Evolve(w, buildings, nil, 0)
	assert.NotContains(t, result2.DisrepairedBuildings, "mill")
}

func TestEvolve_DriftsFertilityAndDiseaseRiskAroundBaseline(t *testing.T) {
	def := worlddef.Default()
	w := worldstate.New(def, 10, 1)
	tk := New(def)

	tk.Evolve(w, nil, nil, 50)
	fertilityAfterDay1 := w.Environment.Fertility
	diseaseAfterDay1 := w.Environment.DiseaseRisk
	assert.InDelta(t, fertilityBaseline, fertilityAfterDay1, 0.1)
	assert.InDelta(t, diseaseRiskBaseline, diseaseAfterDay1, 0.05)

	tk.Evolve(w, nil, nil, 500)
	assert.NotEqual(t, fertilityAfterDay1, w.Environment.Fertility, "fertility should move as cumulative hours advance")
}

func TestAdvanceTechnology_GrowsScholarsPrimarySkillUpToCeiling(t *testing.T) {
	def := worlddef.Default()
	w := worldstate.New(def, 1, 1)
	tk := New(def)
	scholar := agent.New("Iris", "curious", "scholar", 25, def, time.Now(), gametime.Zero)

	advanced := tk.advanceTechnology(w, []*agent.State{scholar})
	assert.Contains(t, advanced, "science")
	assert.InDelta(t, 0.05, w.Technology["science"], 1e-9)

	w.Technology["science"] = 10
	advanced = tk.advanceTechnology(w, []*agent.State{scholar})
	assert.Empty(t, advanced)
}

func TestDetectEmergentBelief_EmptyWhenNoSharedReflections(t *testing.T) {
	def := worlddef.Default()
	tk := New(def)
	a := agent.New("Mara", "steady", "farmer", 30, def, time.Now(), gametime.Zero)
	b := agent.New("Finn", "steady", "merchant", 30, def, time.Now(), gametime.Zero)

	belief := tk.detectEmergentBelief([]*agent.State{a, b})
	assert.Empty(t, belief)
}
