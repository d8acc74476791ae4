package cognition

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thistlewood/emberfall/internal/agent"
	"github.com/thistlewood/emberfall/internal/gametime"
	"github.com/thistlewood/emberfall/internal/goal"
	"github.com/thistlewood/emberfall/internal/oracle"
	"github.com/thistlewood/emberfall/internal/plan"
	"github.com/thistlewood/emberfall/internal/worlddef"
	"github.com/thistlewood/emberfall/internal/worldstate"
)

func newTestAgent(name, occupation string) *agent.State {
	def := worlddef.Default()
	return agent.New(name, "a steady, curious soul", occupation, 30, def, time.Now(), gametime.Zero)
}

func TestRun_OfflineProducesWanderWhenNoPlanOrGoal(t *testing.T) {
	def := worlddef.Default()
	w := worldstate.New(def, 1, 1)
	a := newTestAgent("Mara", "farmer")
	c := &Cycle{O: oracle.Offline{}, Rng: rand.New(rand.NewSource(1))}

	decision := c.Run(context.Background(), a, w, []*agent.State{a}, time.Now(), gametime.Zero)
	assert.Equal(t, "wander", decision.Kind)
}

func TestRun_NightHoursProduceSleepGoal(t *testing.T) {
	def := worlddef.Default()
	w := worldstate.New(def, 1, 1)
	a := newTestAgent("Mara", "farmer")
	a.Needs = map[string]float64{}
	c := &Cycle{O: oracle.Offline{}, Rng: rand.New(rand.NewSource(1))}

	night := gametime.Time{Day: 0, Hour: 23, Minute: 0}
	decision := c.Run(context.Background(), a, w, []*agent.State{a}, time.Now(), night)
	assert.NotEmpty(t, decision.Kind)

	goals := c.selectGoal(context.Background(), a, w, []*agent.State{a}, night)
	hasSleep := false
	for _, g := range goals {
		if g.Kind == goal.KindSleep {
			hasSleep = true
		}
	}
	assert.True(t, hasSleep, "a night-time cycle should select a sleep goal")
}

func TestPlanStep_HourlyRollEventuallyDecomposesCurrentDailyBlock(t *testing.T) {
	a := newTestAgent("Mara", "farmer")
	a.Plan.SetDaily(plan.DefaultDaily("farmer", 0), 0)
	c := &Cycle{O: oracle.Offline{}, Rng: rand.New(rand.NewSource(2))}

	for i := 0; i < 200 && len(a.Plan.Hourly) == 0; i++ {
		c.planStep(context.Background(), a, gametime.Time{Day: 0, Hour: 8, Minute: 0})
	}
	assert.NotEmpty(t, a.Plan.Hourly)
}

func TestPerceive_RecordsNearbyStrangersAsMemories(t *testing.T) {
	a := newTestAgent("Mara", "farmer")
	b := newTestAgent("Finn", "merchant")
	c := &Cycle{}

	p := c.perceive(a, []*agent.State{a, b})
	require.Len(t, p.NearbyAgents, 1)
	assert.Equal(t, "Finn", p.NearbyAgents[0].Name)
	assert.Greater(t, a.Memory.Count(), 0)
}

func TestPerceive_SkipsSelf(t *testing.T) {
	a := newTestAgent("Mara", "farmer")
	c := &Cycle{}

	p := c.perceive(a, []*agent.State{a})
	assert.Empty(t, p.NearbyAgents)
}

func TestMostImportantEvent_PicksDangerousOverOrdinary(t *testing.T) {
	p := Perception{ActiveEvents: []WorldEvent{
		{Text: "a cart passes by"},
		{Text: "a wolf attacks", Dangerous: true},
	}}
	best, ok := mostImportantEvent(p)
	require.True(t, ok)
	assert.Equal(t, "a wolf attacks", best.text)
}

func TestMostImportantEvent_FalseWhenNoEvents(t *testing.T) {
	_, ok := mostImportantEvent(Perception{})
	assert.False(t, ok)
}

func TestDecideAndAct_FleesFromDangerousEvent(t *testing.T) {
	a := newTestAgent("Mara", "farmer")
	c := &Cycle{}
	p := Perception{ActiveEvents: []WorldEvent{{Text: "fire!", Dangerous: true}}}

	decision := c.decideAndAct(a, p, nil, gametime.Zero)
	assert.Equal(t, "flee", decision.Kind)
}

func TestDecideAndAct_PrefersHighPriorityConverseGoal(t *testing.T) {
	a := newTestAgent("Mara", "farmer")
	c := &Cycle{}
	top := &goal.Goal{Kind: goal.KindSocialize, Priority: 0.8, Target: "Finn"}

	decision := c.decideAndAct(a, Perception{}, top, gametime.Zero)
	assert.Equal(t, "converse", decision.Kind)
	assert.Equal(t, "Finn", decision.Target)
}

func TestDecideAndAct_FallsBackToWanderWithNoPlanOrGoal(t *testing.T) {
	a := newTestAgent("Mara", "farmer")
	c := &Cycle{}

	decision := c.decideAndAct(a, Perception{}, nil, gametime.Zero)
	assert.Equal(t, "wander", decision.Kind)
}

func TestBuildSnapshot_PicksMostFamiliarAndMostAttractedPeer(t *testing.T) {
	a := newTestAgent("Mara", "farmer")
	b := newTestAgent("Finn", "merchant")
	a.TouchRelationship("Finn", 0.6, 0.8, 0.7)

	def := worlddef.Default()
	w := worldstate.New(def, 1, 1)

	snap := buildSnapshot(a, w, []*agent.State{a, b})
	assert.Equal(t, "Finn", snap.BestPeerFamiliarity)
	assert.Equal(t, "Finn", snap.MostAttractedUnpartneredPeer)
}

func TestBuildSnapshot_SkipsAttractionToAlreadyPartneredPeer(t *testing.T) {
	a := newTestAgent("Mara", "farmer")
	b := newTestAgent("Finn", "merchant")
	b.Partner = "Someone"
	a.TouchRelationship("Finn", 0.6, 0.8, 0.7)

	def := worlddef.Default()
	w := worldstate.New(def, 1, 1)

	snap := buildSnapshot(a, w, []*agent.State{a, b})
	assert.Empty(t, snap.MostAttractedUnpartneredPeer)
}

func TestFindAgent_ReturnsNilWhenAbsent(t *testing.T) {
	a := newTestAgent("Mara", "farmer")
	assert.Nil(t, findAgent([]*agent.State{a}, "Finn"))
}

func TestActionDescription_FallsBackWhenNoPlanEntry(t *testing.T) {
	a := newTestAgent("Mara", "farmer")
	desc := ActionDescription(a, gametime.Zero)
	assert.Contains(t, desc, "Mara is going about their day")
}
