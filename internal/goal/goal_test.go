package goal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlgorithmic_SortsByPriorityDescending(t *testing.T) {
	snap := Snapshot{
		Needs: map[string]float64{"hunger": 0.9, "rest": 0.95},
	}
	goals := Algorithmic(snap)
	require.Len(t, goals, 2)
	assert.GreaterOrEqual(t, goals[0].Priority, goals[1].Priority)
}

func TestAlgorithmic_SocializeRequiresFamiliarPeer(t *testing.T) {
	snap := Snapshot{Needs: map[string]float64{"social": 0.8}}
	goals := Algorithmic(snap)
	for _, g := range goals {
		assert.NotEqual(t, KindSocialize, g.Kind, "no peer named, so no socialize goal should appear")
	}

	snap.BestPeerFamiliarity = "Mara"
	goals = Algorithmic(snap)
	found := false
	for _, g := range goals {
		if g.Kind == KindSocialize {
			found = true
			assert.Equal(t, "Mara", g.Target)
		}
	}
	assert.True(t, found)
}

func TestAlgorithmic_IntroversionSuppressesSocialize(t *testing.T) {
	snap := Snapshot{
		Needs:               map[string]float64{"social": 0.8},
		Traits:              map[string]float64{"introversion": 0.9},
		BestPeerFamiliarity: "Mara",
	}
	goals := Algorithmic(snap)
	for _, g := range goals {
		assert.NotEqual(t, KindSocialize, g.Kind)
	}
}

func TestCommunityEventGoals_RespectsCooldown(t *testing.T) {
	snap := Snapshot{
		Status:          map[string]float64{"reputation": 70},
		Unrest:          60,
		LastEventCalled: map[string]int{"election": 1},
	}
	goals := communityEventGoals(snap)
	for _, g := range goals {
		assert.NotEqual(t, "election", g.Target, "election was called yesterday, still within cooldown")
	}
}

func TestCommunityEventGoals_EligibleAfterCooldownExpires(t *testing.T) {
	snap := Snapshot{
		Status:          map[string]float64{"reputation": 70},
		Unrest:          60,
		LastEventCalled: map[string]int{"election": 5},
	}
	goals := communityEventGoals(snap)
	found := false
	for _, g := range goals {
		if g.Target == "election" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestGetTopGoal_NilWhenEmpty(t *testing.T) {
	assert.Nil(t, GetTopGoal(nil))
}

func TestGetTopGoal_ReturnsFirst(t *testing.T) {
	goals := []Goal{{Kind: KindEat, Priority: 1}, {Kind: KindSleep, Priority: 0.5}}
	top := GetTopGoal(goals)
	require.NotNil(t, top)
	assert.Equal(t, KindEat, top.Kind)
}

func TestDecodeOracleGoals_ClampsPriorityAndLimitsToTwo(t *testing.T) {
	resp := map[string]any{
		"goals": []map[string]any{
			{"description": "a", "priority": 5.0, "kind": "eat"},
			{"description": "b", "priority": -5.0, "kind": "sleep"},
			{"description": "c", "priority": 0.5, "kind": "work"},
		},
	}
	goals, err := DecodeOracleGoals(resp)
	require.NoError(t, err)
	require.Len(t, goals, 2)
	assert.Equal(t, 1.0, goals[0].Priority)
	assert.Equal(t, 0.0, goals[1].Priority)
	assert.True(t, goals[0].Oracle)
}

func TestDecodeOracleGoals_DiscardsEmptyDescriptions(t *testing.T) {
	resp := map[string]any{
		"goals": []map[string]any{
			{"description": "", "priority": 0.5, "kind": "eat"},
		},
	}
	goals, err := DecodeOracleGoals(resp)
	require.NoError(t, err)
	assert.Empty(t, goals)
}

func TestResolve_FallsBackToAlgorithmicWhenOracleEmpty(t *testing.T) {
	snap := Snapshot{Needs: map[string]float64{"hunger": 0.9}}
	goals := Resolve(nil, snap, nil, nil)
	require.NotEmpty(t, goals)
	assert.Equal(t, KindEat, goals[0].Kind)
}

func TestResolve_PrefersOracleGoalsWhenPresent(t *testing.T) {
	snap := Snapshot{Needs: map[string]float64{"hunger": 0.9}}
	resp := map[string]any{
		"goals": []map[string]any{{"description": "investigate", "priority": 0.9, "kind": "discover"}},
	}
	goals := Resolve(nil, snap, resp, nil)
	require.Len(t, goals, 1)
	assert.True(t, goals[0].Oracle)
}
