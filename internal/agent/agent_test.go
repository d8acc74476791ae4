package agent

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thistlewood/emberfall/internal/gametime"
	"github.com/thistlewood/emberfall/internal/worlddef"
)

func TestLifeStageFor_BoundariesMatchThresholds(t *testing.T) {
	assert.Equal(t, StageChild, LifeStageFor(10))
	assert.Equal(t, StageAdult, LifeStageFor(16))
	assert.Equal(t, StageAdult, LifeStageFor(64))
	assert.Equal(t, StageElder, LifeStageFor(65))
}

func TestNew_SeedsNeedsAndPrimarySkill(t *testing.T) {
	def := worlddef.Default()
	s := New("Mara", "a steady soul", "farmer", 30, def, time.Now(), gametime.Zero)

	for _, id := range def.NeedIDs() {
		assert.Equal(t, 0.0, s.Needs[id])
	}
	assert.Equal(t, 1.0, s.Skills["farming"])
}

func TestDeriveTraits_KeywordMatchRaisesScoreAboveBaseline(t *testing.T) {
	def := worlddef.Default()
	traits := DeriveTraits("a shy, quiet, reserved person", def)
	assert.Greater(t, traits["introversion"], 0.3)
	assert.Equal(t, 0.3, traits["ambition"], "no ambition keywords present, baseline applies")
}

func TestRelationshipWith_CreatesStrangerOnFirstAccess(t *testing.T) {
	s := New("Mara", "steady", "farmer", 30, worlddef.Default(), time.Now(), gametime.Zero)
	r := s.RelationshipWith("Finn")
	require.NotNil(t, r)
	assert.Equal(t, "stranger", r.Label)
}

func TestTouchRelationship_RecomputesLabelLadder(t *testing.T) {
	s := New("Mara", "steady", "farmer", 30, worlddef.Default(), time.Now(), gametime.Zero)

	s.TouchRelationship("Finn", 0.5, 0.4, 0)
	assert.Equal(t, "friend", s.RelationshipWith("Finn").Label)

	s.TouchRelationship("Finn", 0.3, 0.3, 0)
	assert.Equal(t, "close friend", s.RelationshipWith("Finn").Label)
}

func TestTouchRelationship_ClampsToUnitInterval(t *testing.T) {
	s := New("Mara", "steady", "farmer", 30, worlddef.Default(), time.Now(), gametime.Zero)
	s.TouchRelationship("Finn", 5, 5, 5)
	r := s.RelationshipWith("Finn")
	assert.Equal(t, 1.0, r.Trust)
	assert.Equal(t, 1.0, r.Familiarity)
	assert.Equal(t, 1.0, r.Attraction)
}

func TestAddItem_NeverExceedsInventoryCap(t *testing.T) {
	s := New("Mara", "steady", "farmer", 30, worlddef.Default(), time.Now(), gametime.Zero)
	added := s.AddItem("timber", "resource", InventoryCap+10)
	assert.Equal(t, InventoryCap, added)
	assert.Equal(t, InventoryCap, s.InventoryTotal())

	more := s.AddItem("tools", "resource", 5)
	assert.Equal(t, 0, more)
}

func TestAddItem_MergesExistingStack(t *testing.T) {
	s := New("Mara", "steady", "farmer", 30, worlddef.Default(), time.Now(), gametime.Zero)
	s.AddItem("food", "resource", 3)
	s.AddItem("food", "resource", 2)
	require.Len(t, s.Inventory, 1)
	assert.Equal(t, 5, s.Inventory[0].Quantity)
}

func TestRemoveItem_RemovesStackEntirelyWhenExhausted(t *testing.T) {
	s := New("Mara", "steady", "farmer", 30, worlddef.Default(), time.Now(), gametime.Zero)
	s.AddItem("food", "resource", 3)
	removed := s.RemoveItem("food", 10)
	assert.Equal(t, 3, removed)
	assert.Empty(t, s.Inventory)
}

func TestAdjustWealth_ClampsAtZeroAndCeiling(t *testing.T) {
	s := New("Mara", "steady", "farmer", 30, worlddef.Default(), time.Now(), gametime.Zero)
	s.AdjustWealth(-100, "test", gametime.Zero)
	assert.Equal(t, 0.0, s.Status["wealth"])

	s.AdjustWealth(WealthCeiling*2, "windfall", gametime.Zero)
	assert.Equal(t, float64(WealthCeiling), s.Status["wealth"])
}

func TestRecordTransaction_RingDropsOldestPastCapacity(t *testing.T) {
	s := New("Mara", "steady", "farmer", 30, worlddef.Default(), time.Now(), gametime.Zero)
	for i := 0; i < TransactionRingSize+5; i++ {
		s.RecordTransaction(gametime.Zero, 1, "test")
	}
	assert.Len(t, s.Transactions, TransactionRingSize)
}

func TestTransactionStamp_RendersCalendarStyle(t *testing.T) {
	tx := Transaction{When: gametime.Time{Day: 1, Hour: 14, Minute: 5}}
	assert.Equal(t, "01/02 14:05", tx.Stamp())
}
