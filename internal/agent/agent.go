// Package agent implements AgentState: the needs, traits, skills, status,
// inventory, relationships, and bookkeeping an autonomous agent carries
// between cognitive cycles (spec.md §3).
package agent

import (
	"strings"
	"time"

	"github.com/thistlewood/emberfall/internal/gametime"
	"github.com/thistlewood/emberfall/internal/goal"
	"github.com/thistlewood/emberfall/internal/memory"
	"github.com/thistlewood/emberfall/internal/plan"
	"github.com/thistlewood/emberfall/internal/reflection"
	"github.com/thistlewood/emberfall/internal/worlddef"
)

// LifeStage is derived from age.
type LifeStage string

const (
	StageChild LifeStage = "child"
	StageAdult LifeStage = "adult"
	StageElder LifeStage = "elder"
)

const (
	ChildUntilAge = 16
	ElderFromAge  = 65
)

// LifeStageFor derives a life-stage from an age in sim-years.
func LifeStageFor(age int) LifeStage {
	switch {
	case age < ChildUntilAge:
		return StageChild
	case age >= ElderFromAge:
		return StageElder
	default:
		return StageAdult
	}
}

// InventoryItem is one stack of a named, typed good.
type InventoryItem struct {
	Name     string
	Type     string
	Quantity int
}

// InventoryCap is the total-quantity ceiling across all stacks.
const InventoryCap = 40

// Transaction is one entry in the bounded monetary-delta ring.
type Transaction struct {
	When   gametime.Time
	Delta  float64
	Reason string
}

// TransactionRingSize is the bounded ring's capacity (spec.md §3).
const TransactionRingSize = 50

// Relabel recomputes a relationship's label after an external package
// (the ticker) mutates its numerics directly, e.g. during passive drift.
func Relabel(r *Relationship) { r.relabel() }

// Relationship is one directional record of how this agent regards
// another. Relationships are bidirectional by construction (spec.md §3):
// the engine stores one record per direction and guarantees symmetric
// edits on Trust and Familiarity; Attraction may drift asymmetrically.
type Relationship struct {
	Trust        float64
	Attraction   float64
	Respect      float64
	Familiarity  float64
	Fear         float64
	Rivalry      float64
	Interactions int
	Label        string
}

// relabel recomputes Label from the numerics via a fixed ladder
// (spec.md §3, "derived from the numerics by a fixed ladder"). Rivalry
// and fear take priority over warmth so an adversarial relationship
// never reads as friendly.
func (r *Relationship) relabel() {
	switch {
	case r.Rivalry >= 0.5:
		r.Label = "rival"
	case r.Fear >= 0.5:
		r.Label = "feared"
	case r.Trust >= 0.7 && r.Familiarity >= 0.6:
		r.Label = "close friend"
	case r.Attraction >= 0.6 && r.Familiarity >= 0.3:
		r.Label = "romantic interest"
	case r.Trust >= 0.4 && r.Familiarity >= 0.3:
		r.Label = "friend"
	case r.Familiarity >= 0.1:
		r.Label = "acquaintance"
	default:
		r.Label = "stranger"
	}
}

// State is one agent's complete persistent state.
type State struct {
	Name         string
	Personality  string
	Occupation   string
	Age          int
	Created      time.Time
	CreatedGame  gametime.Time

	Needs  map[string]float64
	Traits map[string]float64
	Skills map[string]float64
	Status map[string]float64 // health, wealth, reputation, happiness, energy

	Inventory     []InventoryItem
	Relationships map[string]*Relationship

	Partner  string
	Children []string

	Transactions []Transaction

	// NeededResources is the agent's trade wishlist: resource IDs it will
	// accept from a trade partner's inventory (spec.md §4.7 step 7).
	// Seeded from the agent's occupation inputs, since an agent's trade
	// needs start out as "whatever my work consumes".
	NeededResources []string

	// Knowledge is the set of facts broadcast to this agent, e.g. via
	// ApplyConsequenceLLM's knowledge_all channel (spec.md §4.7, §8).
	Knowledge map[string]struct{}

	FrozenFields map[string]time.Time

	Memory     *memory.Stream
	Plan       *plan.Hierarchy
	Reflection *reflection.System

	CurrentGoal *goal.Goal
}

// New constructs an agent from a free-text personality description and
// world schema, deriving traits via the keyword lexicon merged with any
// WorldDef-defined traits (spec.md §3).
func New(name, personality, occupation string, age int, def *worlddef.Def, now time.Time, gt gametime.Time) *State {
	s := &State{
		Name:         name,
		Personality:  personality,
		Occupation:   occupation,
		Age:          age,
		Created:      now,
		CreatedGame:  gt,
		Needs:        make(map[string]float64),
		Traits:       DeriveTraits(personality, def),
		Skills:       make(map[string]float64),
		Status: map[string]float64{
			"health":     100,
			"wealth":     0,
			"reputation": 50,
			"happiness":  60,
			"energy":     100,
		},
		Relationships: make(map[string]*Relationship),
		FrozenFields:  make(map[string]time.Time),
		Knowledge:     make(map[string]struct{}),
		Memory:        memory.New(0),
		Plan:          plan.New(),
		Reflection:    reflection.New(now),
	}
	for _, id := range def.NeedIDs() {
		s.Needs[id] = 0
	}
	if occ, ok := def.Occupation(occupation); ok {
		if occ.PrimarySkill != "" {
			s.Skills[occ.PrimarySkill] = 1
		}
		s.NeededResources = append(s.NeededResources, occ.Inputs...)
	}
	return s
}

// DeriveTraits scores each WorldDef trait's keyword lexicon against the
// free-text personality description (spec.md §3, "derived ... via a
// keyword lexicon merged with any WorldDef-defined traits").
func DeriveTraits(personality string, def *worlddef.Def) map[string]float64 {
	lower := strings.ToLower(personality)
	traits := make(map[string]float64)
	for _, t := range def.Traits {
		score := 0.0
		for _, kw := range t.Keywords {
			if strings.Contains(lower, strings.ToLower(kw)) {
				score += 0.25
			}
		}
		if score > 1 {
			score = 1
		}
		if score == 0 {
			score = 0.3 // baseline, not absent
		}
		traits[t.ID] = score
	}
	return traits
}

// LifeStage derives the agent's current life-stage from age.
func (s *State) LifeStage() LifeStage { return LifeStageFor(s.Age) }

// IsFrozen reports whether a dotted field path is currently pinned
// against automatic ticker writes.
func (s *State) IsFrozen(field string, now time.Time) bool {
	expiry, ok := s.FrozenFields[field]
	return ok && now.Before(expiry)
}

// Freeze pins a field path against automatic updates until expiry.
func (s *State) Freeze(field string, expiry time.Time) {
	s.FrozenFields[field] = expiry
}

// RelationshipWith returns (creating if absent) the directional record
// this agent holds for other.
func (s *State) RelationshipWith(other string) *Relationship {
	r, ok := s.Relationships[other]
	if !ok {
		r = &Relationship{Label: "stranger"}
		s.Relationships[other] = r
	}
	return r
}

// TouchRelationship applies a symmetric-by-convention edit to trust and
// familiarity and recomputes the label. Attraction, respect, fear, and
// rivalry deltas are applied only to this agent's record — callers
// touching both sides are responsible for calling this on both agents
// so trust/familiarity stay symmetric (spec.md §3).
func (s *State) TouchRelationship(other string, trustDelta, familiarityDelta, attractionDelta float64) *Relationship {
	r := s.RelationshipWith(other)
	r.Trust = clamp01(r.Trust + trustDelta)
	r.Familiarity = clamp01(r.Familiarity + familiarityDelta)
	r.Attraction = clamp01(r.Attraction + attractionDelta)
	r.Interactions++
	r.relabel()
	return r
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// AddItem appends quantity to an existing stack or creates a new one,
// never letting total quantity across all stacks exceed InventoryCap.
func (s *State) AddItem(name, typ string, quantity int) int {
	total := s.InventoryTotal()
	room := InventoryCap - total
	if room <= 0 {
		return 0
	}
	if quantity > room {
		quantity = room
	}
	for i := range s.Inventory {
		if s.Inventory[i].Name == name {
			s.Inventory[i].Quantity += quantity
			return quantity
		}
	}
	s.Inventory = append(s.Inventory, InventoryItem{Name: name, Type: typ, Quantity: quantity})
	return quantity
}

// InventoryTotal sums quantities across all stacks.
func (s *State) InventoryTotal() int {
	total := 0
	for _, it := range s.Inventory {
		total += it.Quantity
	}
	return total
}

// RemoveItem removes up to quantity units of name, returning how many
// were actually removed.
func (s *State) RemoveItem(name string, quantity int) int {
	for i := range s.Inventory {
		if s.Inventory[i].Name != name {
			continue
		}
		removed := quantity
		if removed > s.Inventory[i].Quantity {
			removed = s.Inventory[i].Quantity
		}
		s.Inventory[i].Quantity -= removed
		if s.Inventory[i].Quantity == 0 {
			s.Inventory = append(s.Inventory[:i], s.Inventory[i+1:]...)
		}
		return removed
	}
	return 0
}

// Stamp renders the transaction's game-time as a calendar-style
// "month/day hour:minute" string, the same layout research-export rows
// use for human-readable timestamps.
func (tx Transaction) Stamp() string {
	return tx.When.Format("%m/%d %H:%M")
}

// RecordTransaction appends a monetary delta to the bounded ring,
// dropping the oldest entry once the ring is full (spec.md §3).
func (s *State) RecordTransaction(when gametime.Time, delta float64, reason string) {
	s.Transactions = append(s.Transactions, Transaction{When: when, Delta: delta, Reason: reason})
	if len(s.Transactions) > TransactionRingSize {
		s.Transactions = s.Transactions[len(s.Transactions)-TransactionRingSize:]
	}
}

// AdjustWealth applies a wealth delta, clamping to a non-negative
// implementation ceiling (spec.md §3: "wealth may exceed 100 ... must
// clamp to a non-negative implementation ceiling").
const WealthCeiling = 1_000_000

func (s *State) AdjustWealth(delta float64, reason string, when gametime.Time) {
	w := s.Status["wealth"] + delta
	if w < 0 {
		w = 0
	}
	if w > WealthCeiling {
		w = WealthCeiling
	}
	s.Status["wealth"] = w
	s.RecordTransaction(when, delta, reason)
}

// LearnFact records a broadcastable fact in the agent's knowledge set
// (spec.md §4.7, "knowledge_all"). Empty facts are a no-op.
func (s *State) LearnFact(fact string) {
	if fact == "" {
		return
	}
	s.Knowledge[fact] = struct{}{}
}

// KnowsFact reports whether the agent's knowledge set contains fact.
func (s *State) KnowsFact(fact string) bool {
	_, ok := s.Knowledge[fact]
	return ok
}
