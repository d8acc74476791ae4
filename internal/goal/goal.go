// Package goal implements the algorithmic goal ladder and the oracle-
// generated goal path described in spec.md §4.6.
package goal

import (
	"context"
	"encoding/json"
	"fmt"

	"golang.org/x/exp/slices"
)

// Kind tags a goal so the cognitive cycle can dispatch on it during
// execution (spec.md §4.5 step 6).
type Kind string

const (
	KindEat            Kind = "eat"
	KindSleep          Kind = "sleep"
	KindSocialize      Kind = "socialize"
	KindWork           Kind = "work"
	KindFlirt          Kind = "flirt"
	KindSeekLeadership Kind = "seek_leadership"
	KindDiscover       Kind = "discover"
	KindOpenBusiness   Kind = "open_business"
	KindCallEvent      Kind = "call_event"
	KindBuyTool        Kind = "buy_tool"
	KindSellItem       Kind = "sell_item"
	KindHaveChild      Kind = "have_child"
)

// Goal is one candidate activity ranked by priority.
type Goal struct {
	Kind        Kind
	Description string
	Priority    float64
	Target      string // peer name, building name, or empty
	Oracle      bool   // true when produced by the oracle path rather than the algorithmic ladder
}

// Snapshot is the read-only view of an agent and its surroundings used
// both to compute algorithmic priorities and to build the oracle prompt
// (spec.md §4.6).
type Snapshot struct {
	Needs              map[string]float64
	Traits             map[string]float64
	Skills             map[string]float64
	Status             map[string]float64
	HasPartner         bool
	OwnsBusiness       bool
	Occupation         string
	StallCost          float64
	Unrest             float64
	Prosperity         float64
	HasLeader          bool
	ChildrenCount       int
	BestPeerFamiliarity string
	MostAttractedUnpartneredPeer string
	LastEventCalled    map[string]int // days since last call_event of each kind, for cooldown
	CurrentDay         int
}

// trait/need lookups default to zero when absent so a partially-populated
// WorldDef (e.g. missing "ambition") degrades gracefully rather than panicking.
func get(m map[string]float64, key string) float64 { return m[key] }

// Algorithmic computes the deterministic goal ladder, sorted by priority
// descending (spec.md §4.6).
func Algorithmic(s Snapshot) []Goal {
	var goals []Goal

	hunger := get(s.Needs, "hunger")
	if hunger > 0.6 {
		goals = append(goals, Goal{Kind: KindEat, Description: "find something to eat", Priority: hunger * 2})
	}

	rest := get(s.Needs, "rest")
	if rest > 0.7 {
		goals = append(goals, Goal{Kind: KindSleep, Description: "get some rest", Priority: rest * 1.8})
	}

	social := get(s.Needs, "social")
	introversion := get(s.Traits, "introversion")
	if social > 0.5 && introversion < 0.7 && s.BestPeerFamiliarity != "" {
		goals = append(goals, Goal{
			Kind: KindSocialize, Description: "spend time with " + s.BestPeerFamiliarity,
			Priority: social * 1.5 * (1 - introversion), Target: s.BestPeerFamiliarity,
		})
	}

	purpose := get(s.Needs, "purpose")
	ambition := get(s.Traits, "ambition")
	if purpose > 0.4 {
		goals = append(goals, Goal{Kind: KindWork, Description: "get to work", Priority: purpose * 1.3 * (0.5 + ambition)})
	}

	romance := get(s.Needs, "romance")
	romantic := get(s.Traits, "romantic")
	if romance > 0.5 && romantic > 0.4 && !s.HasPartner && s.MostAttractedUnpartneredPeer != "" {
		goals = append(goals, Goal{
			Kind: KindFlirt, Description: "flirt with " + s.MostAttractedUnpartneredPeer,
			Priority: romance * 1.4 * romantic, Target: s.MostAttractedUnpartneredPeer,
		})
	}

	reputation := get(s.Status, "reputation")
	leadership := get(s.Skills, "leadership")
	if ambition > 0.6 && reputation > 50 && leadership > 3 && (!s.HasLeader || s.Unrest > 40) {
		goals = append(goals, Goal{Kind: KindSeekLeadership, Description: "seek leadership", Priority: ambition * 0.8})
	}

	curiosity := get(s.Traits, "curiosity")
	science := get(s.Skills, "science")
	if curiosity > 0.6 && science > 2 {
		goals = append(goals, Goal{Kind: KindDiscover, Description: "pursue a discovery", Priority: curiosity * 0.6})
	}

	wealth := get(s.Status, "wealth")
	isMerchant := s.Occupation == "merchant"
	if wealth >= s.StallCost && !s.OwnsBusiness && (ambition > 0.5 || isMerchant) {
		goals = append(goals, Goal{Kind: KindOpenBusiness, Description: "open a business", Priority: 0.6 + ambition*0.2})
	}

	goals = append(goals, communityEventGoals(s)...)

	if s.HasPartner && s.ChildrenCount == 0 && wealth > 40 {
		goals = append(goals, Goal{Kind: KindHaveChild, Description: "start a family", Priority: 0.3})
	}

	slices.SortFunc(goals, func(a, b Goal) int {
		switch {
		case a.Priority > b.Priority:
			return -1
		case a.Priority < b.Priority:
			return 1
		default:
			return 0
		}
	})
	return goals
}

const eventCooldownDays = 2

var communityEventKinds = []string{"election", "festival", "meeting", "rally", "protest", "gathering"}

func communityEventGoals(s Snapshot) []Goal {
	var out []Goal
	social := get(s.Needs, "social")
	reputation := get(s.Status, "reputation")
	for _, kind := range communityEventKinds {
		since := s.LastEventCalled[kind]
		if since > 0 && since < eventCooldownDays {
			continue
		}
		priority, eligible := eventPriority(kind, s, social, reputation)
		if eligible {
			out = append(out, Goal{Kind: KindCallEvent, Description: "call a " + kind, Priority: priority, Target: kind})
		}
	}
	return out
}

func eventPriority(kind string, s Snapshot, social, reputation float64) (float64, bool) {
	switch kind {
	case "election":
		return 0.5, s.Unrest > 50 && reputation > 60
	case "rally", "protest":
		return 0.55, s.Unrest > 40
	case "festival":
		return 0.4, s.Prosperity > 60 && social > 0.4
	case "meeting":
		return 0.35, s.Unrest > 25
	case "gathering":
		return 0.3, social > 0.6
	default:
		return 0, false
	}
}

// GetTopGoal returns the first (highest-priority) goal, or nil if empty.
func GetTopGoal(goals []Goal) *Goal {
	if len(goals) == 0 {
		return nil
	}
	return &goals[0]
}

// oracleGoal mirrors the structured JSON the oracle returns for this path.
type oracleGoal struct {
	Description string  `json:"description"`
	Priority    float64 `json:"priority"`
	Kind        string  `json:"kind"`
	Target      string  `json:"target,omitempty"`
}

// DecodeOracleGoals parses the oracle's generate() response (spec.md
// §4.6: "returns up to two goals ..."), clamping priority to [0,1] and
// discarding malformed entries.
func DecodeOracleGoals(v any) ([]Goal, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("goal: marshal oracle response: %w", err)
	}
	var wrapper struct {
		Goals []oracleGoal `json:"goals"`
	}
	if err := json.Unmarshal(raw, &wrapper); err != nil {
		return nil, fmt.Errorf("goal: decode oracle response: %w", err)
	}
	var out []Goal
	for _, g := range wrapper.Goals {
		if g.Description == "" {
			continue
		}
		p := g.Priority
		if p < 0 {
			p = 0
		}
		if p > 1 {
			p = 1
		}
		out = append(out, Goal{
			Kind:        Kind(g.Kind),
			Description: g.Description,
			Priority:    p,
			Target:      g.Target,
			Oracle:      true,
		})
		if len(out) == 2 {
			break
		}
	}
	return out, nil
}

// Resolve builds the final goal list for a cognitive cycle: try the
// oracle path first, falling back to Algorithmic when it returns none
// or fails (spec.md §4.6).
func Resolve(ctx context.Context, snap Snapshot, oracleResponse any, oracleErr error) []Goal {
	if oracleErr == nil && oracleResponse != nil {
		if goals, err := DecodeOracleGoals(oracleResponse); err == nil && len(goals) > 0 {
			return goals
		}
	}
	return Algorithmic(snap)
}
