package cognition

import (
	"context"
	"encoding/json"
	"log/slog"
	"math/rand"
	"time"

	"github.com/thistlewood/emberfall/internal/agent"
	"github.com/thistlewood/emberfall/internal/gametime"
	"github.com/thistlewood/emberfall/internal/goal"
	"github.com/thistlewood/emberfall/internal/memory"
	"github.com/thistlewood/emberfall/internal/oracle"
	"github.com/thistlewood/emberfall/internal/plan"
	"github.com/thistlewood/emberfall/internal/worldstate"
)

// Decision is what step 7 (Decide & act) settles on.
type Decision struct {
	Kind   string // "converse", "call_event", "plan_follow", "wander", "flee"
	Target string
}

// Cycle runs one agent through the twelve-step pipeline (spec.md §4.5).
// world/motion are the out-of-scope collaborator seams named in spec.md
// §6; a nil collaborator degrades that step to a no-op rather than
// panicking, so cognition is still exercisable without a renderer.
type Cycle struct {
	O     oracle.Oracle
	World WorldCollaborator
	Motion MotionCollaborator
	Rng   *rand.Rand
}

// Run executes the pipeline for one agent and returns the decision taken.
func (c *Cycle) Run(ctx context.Context, a *agent.State, w *worldstate.State, peers []*agent.State, now time.Time, gt gametime.Time) Decision {
	perception := c.perceive(a, peers)
	c.reactOrContinue(ctx, a, perception, gt)
	c.planStep(ctx, a, gt)

	goals := c.selectGoal(ctx, a, w, peers, gt)
	top := goal.GetTopGoal(goals)

	decision := c.decideAndAct(a, perception, top, gt)

	if c.Rng.Float64() < 0.05 {
		c.objectStateUpdate(ctx, a)
	}

	if a.Reflection.ShouldReflect(a.Memory) {
		a.Reflection.Reflect(ctx, c.O, a.Memory, gt, now)
	}

	a.Memory.ProcessEmbeddings(ctx, c.O)

	return decision
}

func (c *Cycle) perceive(a *agent.State, peers []*agent.State) Perception {
	var p Perception
	for _, peer := range peers {
		if peer.Name == a.Name {
			continue
		}
		rel := a.Relationships[peer.Name]
		familiarity := 0.0
		if rel != nil {
			familiarity = rel.Familiarity
		}
		p.NearbyAgents = append(p.NearbyAgents, NearbyAgent{Name: peer.Name, Familiarity: familiarity})

		if rel == nil {
			importance := 3
			a.Memory.Add("noticed "+peer.Name+" nearby", memory.TypeObservation, importance, gametime.Zero)
		}
	}
	if c.World != nil {
		p.NearbyBuildings = c.World.Buildings()
	}
	return p
}

func (c *Cycle) reactOrContinue(ctx context.Context, a *agent.State, p Perception, gt gametime.Time) {
	mostImportant, ok := mostImportantEvent(p)
	if !ok || mostImportant.importance < 5 {
		return
	}
	if !c.O.HasAnyKey() {
		return
	}
	system := "Decide whether this character should react to what they just noticed. " +
		`Respond with JSON: {"react": bool, "activity": "...", "speech": "...", "should_replan": bool}`
	resp, err := c.O.Generate(ctx, system, mostImportant.text, oracle.GenOpts{JSON: true, MaxTokens: 200})
	if err != nil {
		return
	}
	raw, err := json.Marshal(resp)
	if err != nil {
		return
	}
	var decision struct {
		React        bool   `json:"react"`
		Activity     string `json:"activity"`
		Speech       string `json:"speech"`
		ShouldReplan bool   `json:"should_replan"`
	}
	if err := json.Unmarshal(raw, &decision); err != nil || !decision.React {
		return
	}
	if decision.Activity != "" && c.Motion != nil && decision.Speech != "" {
		c.Motion.Say(a.Name, decision.Speech, 3000)
	}
	a.Memory.Add("reacted: "+decision.Activity, memory.TypeObservation, 4, gt)
	if decision.ShouldReplan {
		a.Plan.Replan(gt, nil)
	}
}

type importantEvent struct {
	text       string
	importance int
}

func mostImportantEvent(p Perception) (importantEvent, bool) {
	var best importantEvent
	found := false
	for _, e := range p.ActiveEvents {
		importance := 5
		if e.Dangerous {
			importance = 9
		}
		if !found || importance > best.importance {
			best = importantEvent{text: e.Text, importance: importance}
			found = true
		}
	}
	return best, found
}

// planStep rolls the two decomposition probabilities each cycle and, on
// a hit, decomposes the currently active block into the next-finer plan
// level (spec.md §4.4, §4.5 step 4).
func (c *Cycle) planStep(ctx context.Context, a *agent.State, gt gametime.Time) {
	if a.Plan.IsStale(gt.Day) {
		daily := plan.GenerateDaily(ctx, c.O, a.Occupation, a.Personality, gt.Day)
		a.Plan.SetDaily(daily, gt.Day)
		return
	}
	if plan.ShouldDecomposeHourly(c.Rng) {
		if entry, ok := a.Plan.CurrentActivity(gt); ok {
			a.Plan.SetHourly(plan.GenerateHourly(ctx, c.O, entry))
		}
	}
	if plan.ShouldDecomposeDetailed(c.Rng) {
		if entry, ok := a.Plan.CurrentActivity(gt); ok {
			a.Plan.SetDetailed(plan.GenerateDetailed(ctx, c.O, entry))
		}
	}
}

func (c *Cycle) selectGoal(ctx context.Context, a *agent.State, w *worldstate.State, peers []*agent.State, gt gametime.Time) []goal.Goal {
	snap := buildSnapshot(a, w, peers)

	var oracleResp any
	var oracleErr error
	if c.O.HasAnyKey() {
		system := "Propose up to two goals for this character given their state. " +
			`Respond with JSON: {"goals": [{"description": "...", "priority": 0.0-1.0, "kind": "...", "target": "..."}]}`
		oracleResp, oracleErr = c.O.Generate(ctx, system, snapshotPrompt(a, snap), oracle.GenOpts{JSON: true, MaxTokens: 300})
	}

	goals := goal.Resolve(ctx, snap, oracleResp, oracleErr)

	if gt.Hour >= 22 || gt.Hour < 6 {
		goals = append(goals, goal.Goal{Kind: goal.KindSleep, Description: "go to sleep", Priority: 0.9})
	}
	return goals
}

func buildSnapshot(a *agent.State, w *worldstate.State, peers []*agent.State) goal.Snapshot {
	bestFamiliarity := ""
	bestFamiliarityScore := -1.0
	mostAttracted := ""
	mostAttractedScore := -1.0
	for name, rel := range a.Relationships {
		if rel.Familiarity > bestFamiliarityScore {
			bestFamiliarityScore = rel.Familiarity
			bestFamiliarity = name
		}
		if rel.Attraction > mostAttractedScore {
			if p := findAgent(peers, name); p != nil && p.Partner == "" {
				mostAttractedScore = rel.Attraction
				mostAttracted = name
			}
		}
	}

	return goal.Snapshot{
		Needs:                        a.Needs,
		Traits:                       a.Traits,
		Skills:                       a.Skills,
		Status:                       a.Status,
		HasPartner:                   a.Partner != "",
		Occupation:                   a.Occupation,
		StallCost:                    w.Economy.Prices["market-stall"],
		Unrest:                       w.Governance.Unrest,
		Prosperity:                   w.Economy.Prosperity,
		HasLeader:                    w.Governance.Leader != "",
		ChildrenCount:                len(a.Children),
		BestPeerFamiliarity:          bestFamiliarity,
		MostAttractedUnpartneredPeer: mostAttracted,
		LastEventCalled:              map[string]int{},
		CurrentDay:                   w.Day,
	}
}

func findAgent(peers []*agent.State, name string) *agent.State {
	for _, p := range peers {
		if p.Name == name {
			return p
		}
	}
	return nil
}

func snapshotPrompt(a *agent.State, snap goal.Snapshot) string {
	raw, _ := json.Marshal(snap)
	return a.Name + "'s current state: " + string(raw)
}

// decideAndAct implements the priority ladder of spec.md §4.5 step 7:
// urgent nearby event > following/leading continuation > conversation >
// plan-follow > wander.
func (c *Cycle) decideAndAct(a *agent.State, p Perception, top *goal.Goal, gt gametime.Time) Decision {
	for _, e := range p.ActiveEvents {
		if e.Dangerous {
			return Decision{Kind: "flee", Target: e.Text}
		}
	}

	if top != nil && top.Priority >= 0.3 {
		switch top.Kind {
		case goal.KindSocialize, goal.KindFlirt:
			if top.Target != "" {
				return Decision{Kind: "converse", Target: top.Target}
			}
		case goal.KindCallEvent:
			return Decision{Kind: "call_event", Target: top.Target}
		}
	}

	if entry, ok := a.Plan.CurrentActivity(gt); ok {
		return Decision{Kind: "plan_follow", Target: entry.Activity}
	}

	return Decision{Kind: "wander"}
}

func (c *Cycle) objectStateUpdate(ctx context.Context, a *agent.State) {
	if !c.O.HasAnyKey() {
		return
	}
	_, err := c.O.Generate(ctx, "Which objects in the current building change state?", a.Name, oracle.GenOpts{JSON: true, MaxTokens: 150})
	if err != nil {
		slog.Debug("cognition: object state update skipped", "agent", a.Name, "error", err)
		return
	}
	a.Memory.Add("noticed something shift nearby", memory.TypeObservation, 2, gametime.Zero)
}

// ActionDescription produces the agent's one-line present-participle
// sentence from the finest available plan level (spec.md §4.5 step 8).
func ActionDescription(a *agent.State, now gametime.Time) string {
	entry, ok := a.Plan.CurrentActivity(now)
	if !ok {
		return a.Name + " is going about their day"
	}
	return a.Name + " is " + entry.Activity
}
