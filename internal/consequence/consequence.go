// Package consequence implements ConsequenceEngine: the schema-driven
// and oracle-driven action-resolution paths, plus the hard-coded
// consequence ladder used when WorldDef declares no matching action
// (spec.md §4.7).
package consequence

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/thistlewood/emberfall/internal/agent"
	"github.com/thistlewood/emberfall/internal/gametime"
	"github.com/thistlewood/emberfall/internal/oracle"
	"github.com/thistlewood/emberfall/internal/worlddef"
	"github.com/thistlewood/emberfall/internal/worldstate"
)

// Result bundles the three outputs every consequence path produces
// (spec.md §4.7).
type Result struct {
	Changes       []string // human-readable audit trail
	WorldChanges  []WorldChange
	Transactions  []agent.Transaction
}

// WorldChange is a deferred structural operation the host applies
// outside the consequence engine (e.g. add_building, start_community_event).
type WorldChange struct {
	Op     string
	Params map[string]any
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ApplyGenericAction resolves a WorldDef action-id against the agent,
// optional target, and world state (spec.md §4.7, "schema-driven").
func ApplyGenericAction(def *worlddef.Def, w *worldstate.State, a *agent.State, target *agent.State, actionID, location string, gt gametime.Time) (Result, error) {
	var res Result
	action, ok := def.Action(actionID)
	if !ok {
		return res, fmt.Errorf("consequence: no WorldDef action %q", actionID)
	}

	if action.Location != "" && action.Location != location {
		return res, fmt.Errorf("consequence: action %q requires location %q, agent is at %q", actionID, action.Location, location)
	}

	if err := consumeInputs(w, a, action, gt, &res); err != nil {
		return res, err
	}

	for needID, delta := range action.Effects.Needs {
		a.Needs[needID] = clamp(a.Needs[needID]+delta, 0, 1)
	}
	for statusID, delta := range action.Effects.Status {
		a.Status[statusID] = clamp(a.Status[statusID]+delta, 0, 100)
	}
	for skillID, delta := range action.Effects.Skills {
		a.Skills[skillID] = clamp(a.Skills[skillID]+delta, 0, 10)
	}

	for resID, qty := range action.Outputs {
		a.AddItem(resID, "resource", int(qty))
	}

	for field, delta := range action.WorldEffect {
		applyWorldDelta(w, field, delta)
	}

	if action.Social && target != nil {
		a.TouchRelationship(target.Name, 0, 0.03, 0)
		target.TouchRelationship(a.Name, 0, 0.03, 0)
	}

	if actionID == "trade" && target != nil {
		tradeRes := applyTrade(def, w, a, target, gt)
		res.Changes = append(res.Changes, tradeRes.Changes...)
		res.Transactions = append(res.Transactions, tradeRes.Transactions...)
	}

	if actionID == "work" || location != "" {
		if occ, ok := def.Occupation(a.Occupation); ok && occ.PrimarySkill != "" {
			a.Skills[occ.PrimarySkill] = clamp(a.Skills[occ.PrimarySkill]+0.02, 0, 10)
		}
	}

	res.Changes = append(res.Changes, fmt.Sprintf("%s performed %s", a.Name, actionID))
	return res, nil
}

func consumeInputs(w *worldstate.State, a *agent.State, action worlddef.ActionDef, gt gametime.Time, res *Result) error {
	for id, qty := range action.Inputs {
		if id == "currency" {
			price := qty
			if a.Status["wealth"] < price {
				return fmt.Errorf("consequence: insufficient wealth for %s", action.ID)
			}
			a.AdjustWealth(-price, action.ID, gt)
			res.Transactions = append(res.Transactions, agent.Transaction{When: gt, Delta: -price, Reason: action.ID})
			continue
		}
		removed := a.RemoveItem(id, int(qty))
		if removed < int(qty) {
			remaining := int(qty) - removed
			w.AddResource(id, -float64(remaining))
		}
	}
	return nil
}

func applyWorldDelta(w *worldstate.State, field string, delta float64) {
	switch field {
	case "economy.treasury":
		w.Economy.Treasury += delta
		if w.Economy.Treasury < 0 {
			w.Economy.Treasury = 0
		}
	case "economy.prosperity":
		w.Economy.Prosperity = clamp(w.Economy.Prosperity+delta, 0, 100)
	case "governance.unrest":
		w.Governance.Unrest = clamp(w.Governance.Unrest+delta, 0, 100)
	default:
		if delta >= 0 {
			w.AddResource(field, delta)
		}
	}
}

// applyTrade performs an agent-to-agent trade against the WorldDef price
// table (spec.md §4.7 step 7).
func applyTrade(def *worlddef.Def, w *worldstate.State, a, target *agent.State, gt gametime.Time) Result {
	var res Result
	for _, resID := range neededResources(a) {
		qty := target.RemoveItem(resID, 1)
		if qty == 0 {
			continue
		}
		a.AddItem(resID, "resource", qty)
		price := w.Economy.Prices[resID]
		if price == 0 {
			price = 5
		}
		if a.Status["wealth"] < price {
			a.AddItem(resID, "resource", -qty) // undo: can't afford
			target.AddItem(resID, "resource", qty)
			continue
		}
		a.AdjustWealth(-price, "trade: bought "+resID, gt)
		target.AdjustWealth(price, "trade: sold "+resID, gt)
		res.Changes = append(res.Changes, fmt.Sprintf("%s bought %s from %s", a.Name, resID, target.Name))
	}
	return res
}

// neededResources is the agent's trade wishlist, seeded from the
// agent's occupation inputs at creation time (spec.md §4.7 step 7).
func neededResources(a *agent.State) []string {
	return a.NeededResources
}

// oracleConsequence mirrors the JSON object apply_consequence_llm
// expects back (spec.md §4.7, "oracle-driven").
type oracleConsequence struct {
	AgentEffects        map[string]float64 `json:"agent_effects"`
	TargetEffects       map[string]float64 `json:"target_effects"`
	RelationshipDeltas  map[string]float64 `json:"relationship_deltas"`
	WorldDeltas         map[string]float64 `json:"world_deltas"`
	Assignments         map[string]string  `json:"assignments"`
	KnowledgeAll        string             `json:"knowledge_all"`
	Summary             string             `json:"summary"`
}

const (
	oracleNeedClamp       = 0.5
	oracleStatusClamp     = 25
	oracleRelationClamp   = 0.4
	oracleWorldClamp      = 15
)

// ApplyConsequenceLLM asks the oracle to resolve a free-form goal
// description or post-conversation consequence (spec.md §4.7). On
// oracle failure or an unparseable response it falls back to the
// hard-coded socialize consequence. witnesses receives knowledge_all
// broadcasts (spec.md §8 Scenario 2: "every agent's knowledge set
// contains a string recording the pairing") alongside a and target.
func ApplyConsequenceLLM(ctx context.Context, o oracle.Oracle, a, target *agent.State, w *worldstate.State, witnesses []*agent.State, description string, gt gametime.Time) Result {
	if !o.HasAnyKey() {
		return Socialize(a, target, gt)
	}

	system := "You resolve the consequence of a character's action. Respond with JSON: " +
		`{"agent_effects": {"need_or_status_id": delta}, "target_effects": {...}, ` +
		`"relationship_deltas": {"trust": d, "familiarity": d, "attraction": d}, ` +
		`"world_deltas": {"dotted.field": delta}, "assignments": {"partner": "name"}, ` +
		`"knowledge_all": "a broadcastable fact or empty string", "summary": "one sentence"}`
	resp, err := o.Generate(ctx, system, description, oracle.GenOpts{JSON: true, Temperature: 0.7, MaxTokens: 400})
	if err != nil {
		return Socialize(a, target, gt)
	}

	raw, err := json.Marshal(resp)
	if err != nil {
		return Socialize(a, target, gt)
	}
	var oc oracleConsequence
	if err := json.Unmarshal(raw, &oc); err != nil {
		return Socialize(a, target, gt)
	}

	var res Result
	applyClampedDeltas(a, oc.AgentEffects)
	if target != nil {
		applyClampedDeltas(target, oc.TargetEffects)
	}
	if target != nil {
		trustD := clamp(oc.RelationshipDeltas["trust"], -oracleRelationClamp, oracleRelationClamp)
		famD := clamp(oc.RelationshipDeltas["familiarity"], -oracleRelationClamp, oracleRelationClamp)
		attrD := clamp(oc.RelationshipDeltas["attraction"], -oracleRelationClamp, oracleRelationClamp)
		a.TouchRelationship(target.Name, trustD, famD, attrD)
		target.TouchRelationship(a.Name, trustD, famD, 0)
	}
	for field, delta := range oc.WorldDeltas {
		applyWorldDelta(w, field, clamp(delta, -oracleWorldClamp, oracleWorldClamp))
	}
	if partner, ok := oc.Assignments["partner"]; ok && partner != "" {
		a.Partner = partner
	}
	if oc.KnowledgeAll != "" {
		a.LearnFact(oc.KnowledgeAll)
		if target != nil {
			target.LearnFact(oc.KnowledgeAll)
		}
		for _, witness := range witnesses {
			witness.LearnFact(oc.KnowledgeAll)
		}
	}
	if oc.Summary != "" {
		res.Changes = append(res.Changes, oc.Summary)
	}
	return res
}

// applyClampedDeltas applies need/status deltas from an oracle response,
// silently dropping keys that aren't recognized needs or statuses
// (spec.md §4.7: "invalid keys are silently dropped").
func applyClampedDeltas(a *agent.State, deltas map[string]float64) {
	for key, delta := range deltas {
		if _, isNeed := a.Needs[key]; isNeed {
			a.Needs[key] = clamp(a.Needs[key]+clamp(delta, -oracleNeedClamp, oracleNeedClamp), 0, 1)
			continue
		}
		if _, isStatus := a.Status[key]; isStatus {
			a.Status[key] = clamp(a.Status[key]+clamp(delta, -oracleStatusClamp, oracleStatusClamp), 0, 100)
			continue
		}
		// unrecognized key: silently dropped
	}
}
