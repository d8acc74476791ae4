package consequence

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thistlewood/emberfall/internal/agent"
	"github.com/thistlewood/emberfall/internal/gametime"
	"github.com/thistlewood/emberfall/internal/oracle"
	"github.com/thistlewood/emberfall/internal/worlddef"
	"github.com/thistlewood/emberfall/internal/worldstate"
)

func newAgent(name, personality, occupation string) *agent.State {
	def := worlddef.Default()
	return agent.New(name, personality, occupation, 28, def, time.Now(), gametime.Zero)
}

func TestEat_ReducesHunger(t *testing.T) {
	a := newAgent("Mara", "steady and practical", "farmer")
	a.Needs["hunger"] = 0.8
	Eat(a, gametime.Zero)
	assert.Less(t, a.Needs["hunger"], 0.8)
	assert.GreaterOrEqual(t, a.Needs["hunger"], 0.0)
}

func TestBuyFood_RejectsWhenCannotAfford(t *testing.T) {
	a := newAgent("Finn", "cautious", "farmer")
	a.Status["wealth"] = 0
	res := BuyFood(a, gametime.Zero)
	assert.Empty(t, res.Transactions)
	assert.Equal(t, 0.0, a.Status["wealth"])
}

func TestBuyFood_DeductsWealthAndRecordsTransaction(t *testing.T) {
	a := newAgent("Finn", "cautious", "farmer")
	a.Status["wealth"] = 10
	res := BuyFood(a, gametime.Zero)
	require.Len(t, res.Transactions, 1)
	assert.Equal(t, 10-foodPrice, a.Status["wealth"])
}

func TestFlirt_FormsPartnershipAboveThresholds(t *testing.T) {
	a := newAgent("Mara", "romantic and warm", "farmer")
	b := newAgent("Finn", "romantic and warm", "merchant")

	ar := a.RelationshipWith(b.Name)
	ar.Attraction = 0.8
	ar.Trust = 0.65
	tr := b.RelationshipWith(a.Name)
	tr.Attraction = 0.65

	c := newAgent("Ana", "curious", "scholar")
	Flirt(a, b, []*agent.State{c}, gametime.Zero)
	assert.Equal(t, b.Name, a.Partner)
	assert.Equal(t, a.Name, b.Partner)
	assert.True(t, a.KnowsFact(a.Name+" and "+b.Name+" became partners"))
	assert.True(t, b.KnowsFact(a.Name+" and "+b.Name+" became partners"))
	assert.True(t, c.KnowsFact(a.Name+" and "+b.Name+" became partners"), "witnesses learn the pairing too")
}

func TestFlirt_NoPartnershipBelowThresholds(t *testing.T) {
	a := newAgent("Mara", "romantic and warm", "farmer")
	b := newAgent("Finn", "romantic and warm", "merchant")
	Flirt(a, b, nil, gametime.Zero)
	assert.Empty(t, a.Partner)
	assert.Empty(t, b.Partner)
}

func TestBetray_IsMutualAndAsymmetricOnFear(t *testing.T) {
	a := newAgent("Mara", "ambitious", "merchant")
	b := newAgent("Finn", "trusting", "farmer")
	a.RelationshipWith(b.Name).Trust = 0.8
	b.RelationshipWith(a.Name).Trust = 0.8

	Betray(a, b, gametime.Zero)
	assert.Less(t, a.RelationshipWith(b.Name).Trust, 0.8)
	assert.Less(t, b.RelationshipWith(a.Name).Trust, 0.8)
	assert.Greater(t, b.RelationshipWith(a.Name).Fear, 0.0)
	assert.Equal(t, 0.0, a.RelationshipWith(b.Name).Fear, "only the betrayed party gains fear")
}

func TestInventoryNeverExceedsCap(t *testing.T) {
	a := newAgent("Mara", "steady", "farmer")
	added := a.AddItem("timber", "resource", 100)
	assert.LessOrEqual(t, a.InventoryTotal(), agent.InventoryCap)
	assert.Equal(t, agent.InventoryCap, added)
}

func TestWealthNeverNegative(t *testing.T) {
	a := newAgent("Mara", "steady", "farmer")
	a.AdjustWealth(-50, "test", gametime.Zero)
	assert.Equal(t, 0.0, a.Status["wealth"])
}

func TestApplyClampedDeltas_DropsUnknownKeys(t *testing.T) {
	a := newAgent("Mara", "steady", "farmer")
	before := a.Status["happiness"]
	applyClampedDeltas(a, map[string]float64{"not_a_real_field": 99})
	assert.Equal(t, before, a.Status["happiness"])
}

func TestApplyClampedDeltas_ClampsNeedDeltaMagnitude(t *testing.T) {
	a := newAgent("Mara", "steady", "farmer")
	a.Needs["hunger"] = 0.5
	applyClampedDeltas(a, map[string]float64{"hunger": 5})
	assert.LessOrEqual(t, a.Needs["hunger"], 1.0)
}

func TestApplyTrade_BuysFromTargetWishlist(t *testing.T) {
	def := worlddef.Default()
	w := worldstate.New(def, 2, 1)
	a := newAgent("Mara", "steady", "farmer")
	target := newAgent("Finn", "steady", "merchant")
	a.NeededResources = []string{"food"}
	a.Status["wealth"] = 100
	target.AddItem("food", "resource", 3)

	res := applyTrade(def, w, a, target, gametime.Zero)
	require.NotEmpty(t, res.Changes)
	assert.Equal(t, 1, a.InventoryTotal())
	assert.Less(t, target.InventoryTotal(), 3)
	assert.Less(t, a.Status["wealth"], 100.0)
}

func TestApplyTrade_UndoesWhenBuyerCannotAfford(t *testing.T) {
	def := worlddef.Default()
	w := worldstate.New(def, 2, 1)
	a := newAgent("Mara", "steady", "farmer")
	target := newAgent("Finn", "steady", "merchant")
	a.NeededResources = []string{"food"}
	a.Status["wealth"] = 0
	target.AddItem("food", "resource", 3)

	applyTrade(def, w, a, target, gametime.Zero)
	assert.Equal(t, 0, a.InventoryTotal())
	assert.Equal(t, 3, target.InventoryTotal())
}

func TestApplyConsequenceLLM_BroadcastsKnowledgeAllToWitnesses(t *testing.T) {
	def := worlddef.Default()
	w := worldstate.New(def, 3, 1)
	a := newAgent("Mara", "steady", "farmer")
	target := newAgent("Finn", "steady", "merchant")
	witness := newAgent("Ana", "curious", "scholar")

	stub := &oracle.Stub{GenResponses: []any{map[string]any{
		"knowledge_all": "Mara and Finn had a long talk",
		"summary":       "they talked",
	}}}

	res := ApplyConsequenceLLM(context.Background(), stub, a, target, w, []*agent.State{witness}, "they talked", gametime.Zero)
	require.NotEmpty(t, res.Changes)
	assert.True(t, a.KnowsFact("Mara and Finn had a long talk"))
	assert.True(t, target.KnowsFact("Mara and Finn had a long talk"))
	assert.True(t, witness.KnowsFact("Mara and Finn had a long talk"))
}

func TestApplyConsequenceLLM_OfflineFallsBackToSocialize(t *testing.T) {
	def := worlddef.Default()
	w := worldstate.New(def, 2, 1)
	a := newAgent("Mara", "steady", "farmer")
	target := newAgent("Finn", "steady", "merchant")

	res := ApplyConsequenceLLM(context.Background(), oracle.Offline{}, a, target, w, nil, "socialized", gametime.Zero)
	assert.Contains(t, res.Changes[0], "socialized")
}
