// Package worldstate implements WorldState: the shared resources,
// economy, governance, and environment every agent perceives and acts
// upon (spec.md §3).
package worldstate

import (
	"time"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/thistlewood/emberfall/internal/gametime"
	"github.com/thistlewood/emberfall/internal/worlddef"
)

// Economy holds currency, prices, tax, and treasury bookkeeping.
type Economy struct {
	Currency string
	Prices   map[string]float64
	TaxRate  float64
	Treasury float64
	Prosperity float64
}

// Governance holds leadership and law bookkeeping.
type Governance struct {
	Leader  string // "" means none
	Council []string
	Laws    []string
	Unrest  float64
}

// Environment holds the seasonal/weather/fertility state.
type Environment struct {
	Season      string
	Weather     string
	Fertility   float64
	DiseaseRisk float64
}

// Alerts caches one-shot announcement flags to suppress duplicate
// world_awareness events across ticks (spec.md §3).
type Alerts struct {
	FoodCrisis bool
	Unrest     bool
	Prosperity bool
}

// State is the simulation-wide shared state. Exactly one instance
// exists per run, owned by the simulation (spec.md §3, "Ownership").
type State struct {
	Def *worlddef.Def

	Resources  map[string]float64
	Technology map[string]float64
	Economy    Economy
	Governance Governance
	Environment Environment

	Population int
	Day        int

	FrozenFields map[string]time.Time
	Alerts       Alerts

	// GameHourStart tracks when the current day's SeasonAt cursor began,
	// in cumulative game-hours, so evolution can advance seasons.
	GameHourStart int

	noise opensimplex.Noise
}

// defaultPrices seeds the price table named in spec.md §3.
func defaultPrices(def *worlddef.Def) map[string]float64 {
	prices := map[string]float64{
		"food":         2,
		"tool":         15,
		"lodging":      5,
		"healing":      10,
		"gift":         3,
		"market-stall": 120,
	}
	for _, occ := range def.Occupations {
		for _, out := range occ.Outputs {
			if _, ok := prices[out]; !ok {
				prices[out] = 5
			}
		}
	}
	return prices
}

// New constructs a fresh WorldState from a WorldDef, seeding resources
// to zero, technology to zero, and environment to the first declared
// season. seed drives the opensimplex noise field used for environment
// drift (spec.md §4.3 world evolution).
func New(def *worlddef.Def, population int, seed int64) *State {
	resources := make(map[string]float64)
	for _, r := range def.Resources {
		resources[r.ID] = 0
	}
	technology := make(map[string]float64)
	for _, s := range def.Skills {
		technology[s.ID] = 0
	}

	season := "none"
	if len(def.Evolution.Seasons) > 0 {
		season = def.Evolution.Seasons[0].ID
	}

	return &State{
		Def:        def,
		Resources:  resources,
		Technology: technology,
		Economy: Economy{
			Currency:   "crowns",
			Prices:     defaultPrices(def),
			TaxRate:    0.1,
			Prosperity: 50,
		},
		Governance: Governance{Unrest: 10},
		Environment: Environment{
			Season:      season,
			Weather:     "clear",
			Fertility:   0.6,
			DiseaseRisk: 0.05,
		},
		Population:   population,
		FrozenFields: make(map[string]time.Time),
		noise:        opensimplex.NewNormalized(seed),
	}
}

// ResourceCeiling returns the implementation ceiling for a resource,
// defaulting to 999 (spec.md §3).
func (s *State) ResourceCeiling(id string) float64 {
	if r, ok := s.Def.Resource(id); ok {
		return r.Ceil()
	}
	return 999
}

// AddResource adds a (possibly negative) delta, clamping to [0, ceiling].
func (s *State) AddResource(id string, delta float64) {
	v := s.Resources[id] + delta
	if v < 0 {
		v = 0
	}
	if ceil := s.ResourceCeiling(id); v > ceil {
		v = ceil
	}
	s.Resources[id] = v
}

// IsFrozen reports whether a dotted field path on world state is
// currently pinned against automatic ticker writes.
func (s *State) IsFrozen(field string, now time.Time) bool {
	expiry, ok := s.FrozenFields[field]
	return ok && now.Before(expiry)
}

// EnvironmentDrift samples the noise field at the given cumulative
// game-hour to produce a smoothly varying fertility offset in [-0.1,
// 0.1], which the caller layers onto a fixed baseline. This is explicitly a
// temporal drift signal, not tile/world generation — opensimplex is
// used here only because it gives continuous, seeded variation cheaply.
func (s *State) EnvironmentDrift(gameHours float64) float64 {
	// The normalized noise field is in [0, 1]; recentre it on zero.
	return (s.noise.Eval2(gameHours*0.05, 0)*2 - 1) * 0.1
}

// DayStamp renders the current sim-day as a calendar-style string for
// log lines, the same formatting convention agent transactions use.
func (s *State) DayStamp() string {
	return gametime.Time{Day: s.Day}.Format("%m/%d")
}
