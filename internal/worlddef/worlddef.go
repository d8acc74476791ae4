// Package worlddef provides the immutable per-run schema describing needs,
// skills, traits, resources, occupations, and actions. It is the single
// configuration handle threaded through every other subsystem — see design
// notes on pervasive mutable state (spec.md §9).
package worlddef

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// NeedDef describes one need layer: how fast it grows, what happens when it
// crosses the critical threshold, and which action is implied by decay.
type NeedDef struct {
	ID             string             `yaml:"id"`
	GrowthRate     float64            `yaml:"growth_rate"`
	Critical       float64            `yaml:"critical"` // default 0.9 if zero
	CriticalEffect map[string]float64 `yaml:"critical_effect,omitempty"`
	DecayAction    string             `yaml:"decay_action,omitempty"`
}

// CriticalThreshold returns the configured critical threshold, defaulting to 0.9.
func (n NeedDef) CriticalThreshold() float64 {
	if n.Critical <= 0 {
		return 0.9
	}
	return n.Critical
}

// SkillDef names a practice-grown competence.
type SkillDef struct {
	ID string `yaml:"id"`
}

// TraitDef names a persistent personality dimension and the keywords that
// nudge it when parsing free-text personality descriptions.
type TraitDef struct {
	ID       string   `yaml:"id"`
	Keywords []string `yaml:"keywords,omitempty"`
}

// ResourceDef names a world resource and its implementation ceiling.
type ResourceDef struct {
	ID      string  `yaml:"id"`
	Ceiling float64 `yaml:"ceiling"` // default 999 if zero
}

// Ceil returns the configured ceiling, defaulting to 999.
func (r ResourceDef) Ceil() float64 {
	if r.Ceiling <= 0 {
		return 999
	}
	return r.Ceiling
}

// OccupationDef names an economic role: what it consumes, what it produces,
// and the skill it primarily trains.
type OccupationDef struct {
	ID           string   `yaml:"id"`
	Inputs       []string `yaml:"inputs,omitempty"`
	Outputs      []string `yaml:"outputs,omitempty"`
	PrimarySkill string   `yaml:"primary_skill"`
}

// ActionDef describes a schema-driven generic action: inputs/outputs,
// effects on needs/status/skills, optional world effects, location, and
// whether it is a social action (touches a relationship).
type ActionDef struct {
	ID          string             `yaml:"id"`
	Inputs      map[string]float64 `yaml:"inputs,omitempty"`
	Outputs     map[string]float64 `yaml:"outputs,omitempty"`
	Effects     EffectSet          `yaml:"effects,omitempty"`
	WorldEffect map[string]float64 `yaml:"world_effects,omitempty"`
	Location    string             `yaml:"location,omitempty"`
	Social      bool               `yaml:"social,omitempty"`
}

// EffectSet is a bundle of numeric deltas applied to an agent by an action.
type EffectSet struct {
	Needs  map[string]float64 `yaml:"needs,omitempty"`
	Status map[string]float64 `yaml:"status,omitempty"`
	Skills map[string]float64 `yaml:"skills,omitempty"`
}

// SeasonDef describes one season's production multiplier and need modifiers.
type SeasonDef struct {
	ID                 string             `yaml:"id"`
	ProductionMult     float64            `yaml:"production_mult"`
	NeedModifiers      map[string]float64 `yaml:"need_modifiers,omitempty"`
	DurationGameHours  int                `yaml:"duration_game_hours"`
}

// Evolution bundles the seasons that drive WorldState's per-day evolution.
type Evolution struct {
	Seasons []SeasonDef `yaml:"seasons"`
}

// Def is the immutable schema for a simulation run.
type Def struct {
	Resources   []ResourceDef   `yaml:"resources"`
	Needs       []NeedDef       `yaml:"needs"`
	Traits      []TraitDef      `yaml:"traits"`
	Skills      []SkillDef      `yaml:"skills"`
	Occupations []OccupationDef `yaml:"occupations"`
	Actions     []ActionDef     `yaml:"actions"`
	VisualStyle string          `yaml:"visual_style,omitempty"`
	Evolution   Evolution       `yaml:"evolution"`

	// Derived indices, built by Finalize.
	needByID   map[string]NeedDef
	resByID    map[string]ResourceDef
	actionByID map[string]ActionDef
	occByID    map[string]OccupationDef
	traitByID  map[string]TraitDef
}

// Finalize builds lookup indices. Must be called once after Load/construction
// and before the Def is shared across goroutines/cycles.
func (d *Def) Finalize() {
	d.needByID = make(map[string]NeedDef, len(d.Needs))
	for _, n := range d.Needs {
		d.needByID[n.ID] = n
	}
	d.resByID = make(map[string]ResourceDef, len(d.Resources))
	for _, r := range d.Resources {
		d.resByID[r.ID] = r
	}
	d.actionByID = make(map[string]ActionDef, len(d.Actions))
	for _, a := range d.Actions {
		d.actionByID[a.ID] = a
	}
	d.occByID = make(map[string]OccupationDef, len(d.Occupations))
	for _, o := range d.Occupations {
		d.occByID[o.ID] = o
	}
	d.traitByID = make(map[string]TraitDef, len(d.Traits))
	for _, t := range d.Traits {
		d.traitByID[t.ID] = t
	}
}

// Need looks up a need definition by id.
func (d *Def) Need(id string) (NeedDef, bool) {
	n, ok := d.needByID[id]
	return n, ok
}

// NeedIDs returns all declared need ids in declaration order.
func (d *Def) NeedIDs() []string {
	ids := make([]string, len(d.Needs))
	for i, n := range d.Needs {
		ids[i] = n.ID
	}
	return ids
}

// Resource looks up a resource definition by id.
func (d *Def) Resource(id string) (ResourceDef, bool) {
	r, ok := d.resByID[id]
	return r, ok
}

// Action looks up an action definition by id.
func (d *Def) Action(id string) (ActionDef, bool) {
	a, ok := d.actionByID[id]
	return a, ok
}

// Occupation looks up an occupation definition by id.
func (d *Def) Occupation(id string) (OccupationDef, bool) {
	o, ok := d.occByID[id]
	return o, ok
}

// Trait looks up a trait definition by id.
func (d *Def) Trait(id string) (TraitDef, bool) {
	t, ok := d.traitByID[id]
	return t, ok
}

// SeasonAt returns the season active after the given cumulative game-hours
// have elapsed since the run began, wrapping around the full cycle.
func (d *Def) SeasonAt(gameHours int) SeasonDef {
	total := 0
	for _, s := range d.Evolution.Seasons {
		total += s.DurationGameHours
	}
	if total <= 0 || len(d.Evolution.Seasons) == 0 {
		return SeasonDef{ID: "none", ProductionMult: 1.0}
	}
	offset := gameHours % total
	acc := 0
	for _, s := range d.Evolution.Seasons {
		acc += s.DurationGameHours
		if offset < acc {
			return s
		}
	}
	return d.Evolution.Seasons[len(d.Evolution.Seasons)-1]
}

// Load parses a WorldDef from YAML bytes and finalizes its indices.
func Load(data []byte) (*Def, error) {
	var d Def
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("worlddef: parse yaml: %w", err)
	}
	d.Finalize()
	return &d, nil
}

// Default returns a minimal but complete in-code schema so the engine can
// run with zero external configuration files (§10 Ambient Stack).
func Default() *Def {
	d := &Def{
		Resources: []ResourceDef{
			{ID: "food", Ceiling: 999},
			{ID: "timber", Ceiling: 999},
			{ID: "tools", Ceiling: 999},
		},
		Needs: []NeedDef{
			{ID: "hunger", GrowthRate: 0.0004, DecayAction: "eat"},
			{ID: "rest", GrowthRate: 0.002, DecayAction: "sleep"},
			{ID: "social", GrowthRate: 0.0025, DecayAction: "socialize"},
			{ID: "fun", GrowthRate: 0.002, DecayAction: "play"},
			{ID: "purpose", GrowthRate: 0.001, DecayAction: "work"},
			{ID: "romance", GrowthRate: 0.001, DecayAction: "flirt"},
		},
		Traits: []TraitDef{
			{ID: "introversion", Keywords: []string{"shy", "quiet", "reserved", "introvert"}},
			{ID: "romantic", Keywords: []string{"romantic", "affectionate", "loving"}},
			{ID: "ambition", Keywords: []string{"ambitious", "driven", "determined"}},
			{ID: "curiosity", Keywords: []string{"curious", "inquisitive", "creative"}},
		},
		Skills: []SkillDef{
			{ID: "farming"}, {ID: "cooking"}, {ID: "leadership"}, {ID: "science"},
		},
		Occupations: []OccupationDef{
			{ID: "farmer", Outputs: []string{"food"}, PrimarySkill: "farming"},
			{ID: "merchant", PrimarySkill: "leadership"},
			{ID: "scholar", PrimarySkill: "science"},
		},
		Evolution: Evolution{Seasons: []SeasonDef{
			{ID: "spring", ProductionMult: 1.1, DurationGameHours: 24 * 20},
			{ID: "summer", ProductionMult: 1.3, DurationGameHours: 24 * 20},
			{ID: "autumn", ProductionMult: 1.0, DurationGameHours: 24 * 20},
			{ID: "winter", ProductionMult: 0.6, DurationGameHours: 24 * 20},
		}},
	}
	d.Finalize()
	return d
}
