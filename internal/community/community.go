// Package community implements CommunityEvent: a finite-state phase
// sequence that pre-empts the cognitive cycle while active (spec.md §4.9).
package community

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/thistlewood/emberfall/internal/oracle"
)

// Phase is one step in an event's lifecycle.
type Phase struct {
	ID         string
	Label      string
	DurationMs int
}

// Event is an active, phase-sequenced community happening: election,
// festival, meeting, rally, protest, gathering, or an oracle-generated
// dynamic kind (wedding, funeral, trial, ...).
type Event struct {
	ID       string
	Kind     string
	Phases   []Phase
	Index    int
	Elapsed  int // ms elapsed in the current phase
	Called   string // name of the agent that called it, if any
	StartDay int
}

// fixedPhases covers the enumerated event kinds named in spec.md §4.2/§4.9;
// each gets a short, deterministic phase list so these kinds never need
// an oracle call to run.
var fixedPhases = map[string][]Phase{
	"election": {
		{Label: "announce", DurationMs: 5000},
		{Label: "campaign", DurationMs: 15000},
		{Label: "vote", DurationMs: 10000},
		{Label: "results", DurationMs: 5000},
	},
	"festival": {
		{Label: "announce", DurationMs: 5000},
		{Label: "gather", DurationMs: 10000},
		{Label: "celebrate", DurationMs: 20000},
		{Label: "disperse", DurationMs: 5000},
	},
	"meeting": {
		{Label: "announce", DurationMs: 3000},
		{Label: "discuss", DurationMs: 15000},
		{Label: "conclude", DurationMs: 3000},
	},
	"rally": {
		{Label: "announce", DurationMs: 3000},
		{Label: "speeches", DurationMs: 12000},
		{Label: "disperse", DurationMs: 5000},
	},
	"protest": {
		{Label: "announce", DurationMs: 3000},
		{Label: "march", DurationMs: 15000},
		{Label: "disperse", DurationMs: 5000},
	},
	"gathering": {
		{Label: "announce", DurationMs: 3000},
		{Label: "mingle", DurationMs: 12000},
		{Label: "disperse", DurationMs: 3000},
	},
}

// New creates an event for a known fixed kind, or asks the oracle for a
// phase list for an unrecognized (dynamic) kind. The oracle path
// prepends an "announce" phase when the returned list does not start
// with one; the end of the returned list is kept as is, with no
// concluding phase checked or added. Offline it falls back to a generic
// three-phase shape (spec.md §4.9).
func New(ctx context.Context, o oracle.Oracle, kind, calledBy string, startDay int) *Event {
	phases, ok := fixedPhases[kind]
	if !ok {
		phases = dynamicPhases(ctx, o, kind)
	}

	ided := make([]Phase, len(phases))
	for i, p := range phases {
		ided[i] = Phase{ID: uuid.NewString(), Label: p.Label, DurationMs: p.DurationMs}
	}

	return &Event{
		ID:       uuid.NewString(),
		Kind:     kind,
		Phases:   ided,
		Called:   calledBy,
		StartDay: startDay,
	}
}

type dynamicPhaseJSON struct {
	Phases []struct {
		Label      string `json:"label"`
		DurationMs int    `json:"duration_ms"`
	} `json:"phases"`
}

func dynamicPhases(ctx context.Context, o oracle.Oracle, kind string) []Phase {
	if o.HasAnyKey() {
		system := "Propose a phase sequence for a community event of kind \"" + kind + "\". " +
			"The first phase must be labeled \"announce\" and the list must end with a concluding phase. " +
			`Respond with JSON: {"phases": [{"label": "...", "duration_ms": 1000-30000}]}`
		resp, err := o.Generate(ctx, system, kind, oracle.GenOpts{JSON: true, MaxTokens: 250})
		if err == nil {
			if raw, merr := json.Marshal(resp); merr == nil {
				var decoded dynamicPhaseJSON
				if json.Unmarshal(raw, &decoded) == nil && len(decoded.Phases) > 0 {
					phases := make([]Phase, len(decoded.Phases))
					for i, p := range decoded.Phases {
						phases[i] = Phase{Label: p.Label, DurationMs: clampDuration(p.DurationMs)}
					}
					if phases[0].Label != "announce" {
						phases = append([]Phase{{Label: "announce", DurationMs: 5000}}, phases...)
					}
					return phases
				}
			}
		}
	}
	return []Phase{
		{Label: "announce", DurationMs: 5000},
		{Label: "gather", DurationMs: 15000},
		{Label: "conclude", DurationMs: 5000},
	}
}

func clampDuration(ms int) int {
	switch {
	case ms < 1000:
		return 1000
	case ms > 30000:
		return 30000
	default:
		return ms
	}
}

// CurrentPhase returns the phase the event is in, or false if it has
// already completed every phase.
func (e *Event) CurrentPhase() (Phase, bool) {
	if e.Index >= len(e.Phases) {
		return Phase{}, false
	}
	return e.Phases[e.Index], true
}

// Done reports whether every phase has elapsed.
func (e *Event) Done() bool {
	return e.Index >= len(e.Phases)
}

// Advance elapses wall-clock time against the current phase, moving to
// the next phase (or completing the event) once its duration is spent
// (spec.md §4.9, "Phases elapse by wall-clock").
func (e *Event) Advance(elapsed time.Duration) {
	if e.Done() {
		return
	}
	e.Elapsed += int(elapsed.Milliseconds())
	for !e.Done() && e.Elapsed >= e.Phases[e.Index].DurationMs {
		e.Elapsed -= e.Phases[e.Index].DurationMs
		e.Index++
	}
}

// Host tracks all active events. While any event is active, every agent
// is routed away from the cognitive pipeline to the events' own phase
// hooks, whether or not the event involves that agent (spec.md §4.9,
// "pre-empts the cognitive cycle"; see IsPreempting).
type Host struct {
	Active map[string]*Event // by Event.ID
}

func NewHost() *Host {
	return &Host{Active: make(map[string]*Event)}
}

func (h *Host) Add(e *Event) {
	h.Active[e.ID] = e
}

// Tick advances every active event and removes the ones that completed,
// returning the IDs that just finished this tick.
func (h *Host) Tick(elapsed time.Duration) []string {
	var finished []string
	for id, e := range h.Active {
		e.Advance(elapsed)
		if e.Done() {
			finished = append(finished, id)
			delete(h.Active, id)
		}
	}
	return finished
}

// IsPreempting reports whether any community event is active. A single
// active event pre-empts the cognitive cycle for every agent, not just
// the one that called it (spec.md §4.9, "the cognitive cycle processes
// zero agents per invocation" while any event is active).
func (h *Host) IsPreempting(agentName string) bool {
	return len(h.Active) > 0
}
