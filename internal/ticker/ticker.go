// Package ticker implements SimulationTicker: the per-game-minute pass
// over needs decay, critical status effects, relationship drift,
// happiness coupling, automatic impulses, awareness events, and the
// world-level economy/environment updates (spec.md §4.3).
package ticker

import (
	"time"

	"github.com/thistlewood/emberfall/internal/agent"
	"github.com/thistlewood/emberfall/internal/gametime"
	"github.com/thistlewood/emberfall/internal/memory"
	"github.com/thistlewood/emberfall/internal/worlddef"
	"github.com/thistlewood/emberfall/internal/worldstate"
)

// EventType tags one per-tick event in the envelope handed back to the
// host for routing into agent cognition (spec.md §6).
type EventType string

const (
	EventBuyFood       EventType = "buy_food"
	EventSeekCompany   EventType = "seek_company"
	EventSeekRomance   EventType = "seek_romance"
	EventSeekLeadership EventType = "seek_leadership"
	EventAwareness     EventType = "awareness"
	EventWorldAwareness EventType = "world_awareness"
)

// Event is one envelope entry.
type Event struct {
	Type       EventType
	Agent      string // empty for world_awareness broadcasts
	Text       string
	Importance int
	Auto       bool
}

// hardcodedRates are used when WorldDef is absent (spec.md §4.3 step 1).
var hardcodedRates = map[string]float64{
	"hunger":  0.0004,
	"rest":    0.002,
	"social":  0.0025,
	"fun":     0.002,
	"purpose": 0.001,
	"romance": 0.0012,
}

const seekCompanyCooldown = 45 * time.Second

// Ticker runs one game-minute of simulation across all agents and world
// state. It holds per-agent transient bookkeeping the spec attributes to
// the ticker rather than AgentState (sticky awareness flags, cooldowns).
type Ticker struct {
	Def *worlddef.Def

	stickyFlags     map[string]map[string]bool // agent name -> flag key -> set
	lastSeekCompany map[string]time.Time
}

// New creates a Ticker bound to a WorldDef (nil for the hard-coded
// fallback rates).
func New(def *worlddef.Def) *Ticker {
	return &Ticker{
		Def:             def,
		stickyFlags:     make(map[string]map[string]bool),
		lastSeekCompany: make(map[string]time.Time),
	}
}

func (t *Ticker) sticky(name string) map[string]bool {
	m, ok := t.stickyFlags[name]
	if !ok {
		m = make(map[string]bool)
		t.stickyFlags[name] = m
	}
	return m
}

// TickAgent advances one agent's needs, status, and relationships by one
// game-minute and returns any events it raised. w supplies the
// governance state automaticImpulses needs to gate seek_leadership; a
// nil w degrades that gate to "no leader known" rather than panicking.
func (t *Ticker) TickAgent(a *agent.State, w *worldstate.State, now time.Time, gt gametime.Time) []Event {
	var events []Event

	t.decayNeeds(a, now)
	events = append(events, t.criticalEffects(a, gt)...)
	t.driftRelationships(a)
	t.coupleHappiness(a)
	events = append(events, t.automaticImpulses(a, w, now)...)
	events = append(events, t.awarenessEvents(a)...)

	return events
}

func growthRate(def *worlddef.Def, need string) float64 {
	if def != nil {
		if n, ok := def.Need(need); ok {
			return n.GrowthRate
		}
	}
	return hardcodedRates[need]
}

func (t *Ticker) decayNeeds(a *agent.State, now time.Time) {
	for id := range a.Needs {
		if a.IsFrozen("needs."+id, now) {
			continue
		}
		rate := growthRate(t.Def, id)
		switch id {
		case "social":
			// Introversion scales the slowdown linearly, reaching the
			// spec's full x0.4 multiplier at introversion = 1.
			rate *= 1 - 0.6*a.Traits["introversion"]
		case "romance":
			if a.Traits["romantic"] > 0.5 {
				rate *= 2
			}
		}
		a.Needs[id] = clamp01(a.Needs[id] + rate)
	}
}

// CriticalThreshold mirrors worlddef.NeedDef.CriticalThreshold's default.
const CriticalThreshold = 0.9

func (t *Ticker) criticalEffects(a *agent.State, gt gametime.Time) []Event {
	var events []Event
	if t.Def == nil {
		return events
	}
	for id, v := range a.Needs {
		n, ok := t.Def.Need(id)
		if !ok || v <= n.CriticalThreshold() {
			continue
		}
		for status, delta := range n.CriticalEffect {
			a.Status[status] = clampStatus(a.Status[status] + delta)
		}
	}
	return events
}

func (t *Ticker) driftRelationships(a *agent.State) {
	for _, r := range a.Relationships {
		r.Familiarity = clamp01(r.Familiarity - 0.0005)
		if r.Trust > 0.3 {
			r.Trust = clamp01(r.Trust - 0.0002)
		}
	}
	for _, r := range a.Relationships {
		relabelExported(r)
	}
}

func (t *Ticker) coupleHappiness(a *agent.State) {
	meanNeed := 0.0
	if len(a.Needs) > 0 {
		sum := 0.0
		for _, v := range a.Needs {
			sum += v
		}
		meanNeed = sum / float64(len(a.Needs))
	}
	healthBonus := -0.1
	if a.Status["health"] > 80 {
		healthBonus = 0.1
	}
	partnerBonus := 0.0
	if a.Partner != "" {
		partnerBonus = 0.05
	}
	happiness := 0.99*a.Status["happiness"] + 0.5*(1-meanNeed) + healthBonus + partnerBonus
	a.Status["happiness"] = clampStatus(happiness)
}

func (t *Ticker) automaticImpulses(a *agent.State, w *worldstate.State, now time.Time) []Event {
	var events []Event

	foodPrice := 2.0

	if a.Needs["hunger"] > 0.65 && a.Status["wealth"] >= foodPrice {
		events = append(events, Event{Type: EventBuyFood, Agent: a.Name, Auto: true})
	}

	last, cooled := t.lastSeekCompany[a.Name]
	if a.Needs["social"] > 0.85 && a.Traits["introversion"] < 0.5 && (!cooled || now.Sub(last) >= seekCompanyCooldown) {
		events = append(events, Event{Type: EventSeekCompany, Agent: a.Name, Auto: true})
		t.lastSeekCompany[a.Name] = now
	}

	if a.Needs["romance"] > 0.7 && a.Traits["romantic"] > 0.5 && a.Partner == "" {
		events = append(events, Event{Type: EventSeekRomance, Agent: a.Name, Auto: true})
	}

	noLeaderOrUnrest := w == nil || w.Governance.Leader == "" || w.Governance.Unrest > 40
	if a.Traits["ambition"] > 0.7 && a.Status["reputation"] > 60 && noLeaderOrUnrest {
		events = append(events, Event{Type: EventSeekLeadership, Agent: a.Name, Auto: true})
	}

	return events
}

type awarenessThreshold struct {
	need       string
	key        string
	high       bool // true: high crosses up, false: inverted (e.g. health dropping is bad)
	thresholdHi float64
	textHi     string
	textLo     string
	importance int
}

var awarenessThresholds = []awarenessThreshold{
	{need: "hunger", key: "hunger", high: true, thresholdHi: 0.8, textHi: "is growing desperately hungry", textLo: "no longer feels so hungry", importance: 6},
	{need: "rest", key: "rest", high: true, thresholdHi: 0.8, textHi: "is exhausted and needs sleep", textLo: "feels rested again", importance: 6},
	{need: "social", key: "social", high: true, thresholdHi: 0.85, textHi: "feels deeply lonely", textLo: "no longer feels so lonely", importance: 5},
}

// awarenessEvents emits threshold-crossing awareness memories/events with
// a sticky flag so the same crossing doesn't re-fire every tick (spec.md
// §4.3 step 6).
func (t *Ticker) awarenessEvents(a *agent.State) []Event {
	var events []Event
	flags := t.sticky(a.Name)

	for _, th := range awarenessThresholds {
		v := a.Needs[th.need]
		flagKey := "need_" + th.key
		if v > th.thresholdHi {
			if !flags[flagKey] {
				flags[flagKey] = true
				events = append(events, Event{Type: EventAwareness, Agent: a.Name, Text: a.Name + " " + th.textHi, Importance: th.importance})
			}
		} else if flags[flagKey] && v < th.thresholdHi-0.15 {
			flags[flagKey] = false
			events = append(events, Event{Type: EventAwareness, Agent: a.Name, Text: a.Name + " " + th.textLo, Importance: 3})
		}
	}

	// health, happiness: high is good, so "high" crossing is a recovery.
	if a.Status["health"] < 30 {
		if !flags["health_low"] {
			flags["health_low"] = true
			events = append(events, Event{Type: EventAwareness, Agent: a.Name, Text: a.Name + " is in poor health", Importance: 7})
		}
	} else if flags["health_low"] && a.Status["health"] > 50 {
		flags["health_low"] = false
		events = append(events, Event{Type: EventAwareness, Agent: a.Name, Text: a.Name + " has recovered their health", Importance: 3})
	}

	if a.Status["happiness"] < 25 {
		if !flags["happiness_low"] {
			flags["happiness_low"] = true
			events = append(events, Event{Type: EventAwareness, Agent: a.Name, Text: a.Name + " seems deeply unhappy", Importance: 6})
		}
	} else if flags["happiness_low"] && a.Status["happiness"] > 45 {
		flags["happiness_low"] = false
		events = append(events, Event{Type: EventAwareness, Agent: a.Name, Text: a.Name + " seems to be doing better", Importance: 3})
	}

	for _, e := range events {
		a.Memory.Add(e.Text, memory.TypeEvent, e.Importance, gametime.Zero)
	}
	return events
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

func clampStatus(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// relabelExported recomputes a relationship's label after a drift edit
// by calling agent.Relabel, the same fixed ladder the agent package
// applies on every relationship touch.
func relabelExported(r *agent.Relationship) {
	agent.Relabel(r)
}
