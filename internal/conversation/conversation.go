// Package conversation implements ConversationEngine: pre-conditions,
// the oracle-driven turn-by-turn flow, the offline template fallback,
// hot-topic diffusion, and info-flow logging (spec.md §4.8).
package conversation

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/thistlewood/emberfall/internal/agent"
	"github.com/thistlewood/emberfall/internal/gametime"
	"github.com/thistlewood/emberfall/internal/memory"
	"github.com/thistlewood/emberfall/internal/oracle"
)

const (
	initiatorCooldown = 10 * time.Second
	pairCooldown      = 60 * time.Second

	baseProbability        = 0.3
	highFamiliarityBonus   = 0.2
	highFamiliarityThresh  = 0.3 // familiarity is in [0,1]; "familiarity > 3" in the source scale maps to > 0.3 here
	hotTopicBonus          = 0.3
)

// BondHint is the reported relationship shift after a conversation.
type BondHint string

const (
	BondCloser  BondHint = "closer"
	BondNeutral BondHint = "neutral"
	BondTension BondHint = "tension"
)

// Line is one turn of dialogue.
type Line struct {
	Speaker string
	Text    string
	Topic   string
}

// Transcript is the full result of one conversation.
type Transcript struct {
	Lines []Line
	Topic string
	Bond  BondHint
}

// Engine tracks per-agent and per-pair cooldowns across calls; one
// Engine is shared by the whole simulation, mirroring how the ticker's
// per-agent cooldown maps work (spec.md §4.3, §4.8).
type Engine struct {
	lastInitiated map[string]time.Time
	lastPair      map[string]time.Time
	hotTopics     map[string][]HotTopic
	InfoFlow      []InfoFlowEntry
}

// HotTopic is an undiscussed fact an agent knows and may bring up.
type HotTopic struct {
	Text       string
	Importance int
	Spread     bool
}

// InfoFlowEntry is the research-export record for one topic diffusion
// (spec.md §4.8 step 6, and the information_flow export in §6).
type InfoFlowEntry struct {
	From     string
	To       string
	Topic    string
	GameTime gametime.Time
}

func New() *Engine {
	return &Engine{
		lastInitiated: make(map[string]time.Time),
		lastPair:      make(map[string]time.Time),
		hotTopics:     make(map[string][]HotTopic),
	}
}

func pairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "|" + b
}

// AddHotTopic records a fact an agent may bring up in a future
// conversation, e.g. after witnessing news or receiving a consequence
// engine's knowledge_all broadcast.
func (e *Engine) AddHotTopic(agentName, text string, importance int) {
	e.hotTopics[agentName] = append(e.hotTopics[agentName], HotTopic{Text: text, Importance: importance})
}

func (e *Engine) undiscussedTopics(agentName string) []HotTopic {
	var out []HotTopic
	for _, t := range e.hotTopics[agentName] {
		if !t.Spread {
			out = append(out, t)
		}
	}
	return out
}

// ShouldConverse evaluates the pre-conditions and probability gate for
// one agent initiating with another (spec.md §4.8).
func (e *Engine) ShouldConverse(a, b string, familiarity float64, now time.Time, rng func() float64) bool {
	if last, ok := e.lastInitiated[a]; ok && now.Sub(last) < initiatorCooldown {
		return false
	}
	if last, ok := e.lastPair[pairKey(a, b)]; ok && now.Sub(last) < pairCooldown {
		return false
	}

	prob := baseProbability
	if familiarity > highFamiliarityThresh {
		prob += highFamiliarityBonus
	}
	if len(e.undiscussedTopics(a)) > 0 {
		prob += hotTopicBonus
	}
	return rng() < prob
}

func (e *Engine) markInitiated(a, b string, now time.Time) {
	e.lastInitiated[a] = now
	e.lastPair[pairKey(a, b)] = now
}

const (
	defaultTurnBudget = 8
	lightFailureTurns = 4
	heavyFailureTurns = 2
)

func turnBudget(recentFailures int) int {
	switch {
	case recentFailures >= 3:
		return heavyFailureTurns
	case recentFailures >= 1:
		return lightFailureTurns
	default:
		return defaultTurnBudget
	}
}

// retrievalQuery builds the combined query used by both sides (spec.md
// §4.8 step 1): partner name, current activity, recent observations,
// excluding hunger/rest-specific ones to avoid monothematic chatter.
func retrievalQuery(partnerName, currentActivity string, recent []*memory.Entry) string {
	var sb strings.Builder
	sb.WriteString(partnerName)
	sb.WriteString(" ")
	sb.WriteString(currentActivity)
	for _, e := range recent {
		if strings.Contains(e.Description, "hungry") || strings.Contains(e.Description, "tired") || strings.Contains(e.Description, "rest") {
			continue
		}
		sb.WriteString(" ")
		sb.WriteString(e.Description)
	}
	return sb.String()
}

type turnResponse struct {
	Text  string `json:"text"`
	Topic string `json:"topic"`
	Bond  string `json:"bond"`
	End   bool   `json:"end"`
}

// Run executes one conversation between two agents (spec.md §4.8).
func (e *Engine) Run(ctx context.Context, o oracle.Oracle, a, b *agent.State, gt gametime.Time, now time.Time, recentFailures int) Transcript {
	e.markInitiated(a.Name, b.Name, now)

	if !o.HasAnyKey() {
		return e.offlineFallback(a, b, gt)
	}

	queries := map[string]string{
		a.Name: retrievalQuery(b.Name, currentActivity(a, gt), a.Memory.Recent(5)),
		b.Name: retrievalQuery(a.Name, currentActivity(b, gt), b.Memory.Recent(5)),
	}

	budget := turnBudget(recentFailures)
	var transcript Transcript
	speakers := [2]*agent.State{a, b}
	turn := 0
	consecutiveFailures := 0

	for turn < budget {
		speaker := speakers[turn%2]
		listener := speakers[(turn+1)%2]

		system := speaker.Name + " is talking with " + listener.Name + ". " +
			`Respond with JSON: {"text": "...", "topic": "...", "bond": "closer|neutral|tension", "end": bool}`
		user := conversationContext(speaker, listener, e, gt) + " Relevant context: " + queries[speaker.Name]
		resp, err := o.Generate(ctx, system, user, oracle.GenOpts{JSON: true, MaxTokens: 200})
		if err != nil {
			consecutiveFailures++
			if consecutiveFailures >= 2 {
				break
			}
			continue
		}
		consecutiveFailures = 0

		raw, merr := json.Marshal(resp)
		if merr != nil {
			continue
		}
		var tr turnResponse
		if err := json.Unmarshal(raw, &tr); err != nil || tr.Text == "" {
			continue
		}
		transcript.Lines = append(transcript.Lines, Line{Speaker: speaker.Name, Text: tr.Text, Topic: tr.Topic})
		if tr.Topic != "" {
			transcript.Topic = tr.Topic
		}
		if tr.Bond != "" {
			transcript.Bond = BondHint(tr.Bond)
		}
		turn++
		if tr.End {
			break
		}
	}

	if len(transcript.Lines) == 0 {
		return e.offlineFallback(a, b, gt)
	}
	if transcript.Bond == "" {
		transcript.Bond = BondNeutral
	}

	e.finish(a, b, transcript, gt)
	return transcript
}

func currentActivity(a *agent.State, gt gametime.Time) string {
	entry, ok := a.Plan.CurrentActivity(gt)
	if !ok {
		return "going about their day"
	}
	return entry.Activity
}

func conversationContext(speaker, listener *agent.State, e *Engine, gt gametime.Time) string {
	var sb strings.Builder
	sb.WriteString(speaker.Name + " speaking with " + listener.Name + ".")
	for _, t := range e.undiscussedTopics(speaker.Name) {
		sb.WriteString(" They might mention: " + t.Text + ".")
	}
	return sb.String()
}

// finish stores the transcript in both memory streams, updates
// relationships per the bond hint, diffuses hot topics, and records an
// info-flow entry (spec.md §4.8 steps 5-6).
func (e *Engine) finish(a, b *agent.State, t Transcript, gt gametime.Time) {
	summary := summarize(t)
	a.Memory.Add(summary, memory.TypeDialogue, 4, gt)
	b.Memory.Add(summary, memory.TypeDialogue, 4, gt)

	trustDelta, familiarityDelta := bondDeltas(t.Bond)
	a.TouchRelationship(b.Name, trustDelta, familiarityDelta, 0)
	b.TouchRelationship(a.Name, trustDelta, familiarityDelta, 0)

	e.diffuse(a, b, gt)
	e.diffuse(b, a, gt)
}

func bondDeltas(bond BondHint) (trust, familiarity float64) {
	switch bond {
	case BondCloser:
		return 0.03, 0.05
	case BondTension:
		return -0.03, 0.02
	default:
		return 0.01, 0.03
	}
}

const topicSpreadImportanceFloor = 4

// diffuse spreads from's undiscussed hot topics to to, decrementing
// importance by 1 floored at 4, marking each spread (spec.md §4.8 step 5).
func (e *Engine) diffuse(from, to *agent.State, gt gametime.Time) {
	topics := e.hotTopics[from.Name]
	for i := range topics {
		if topics[i].Spread {
			continue
		}
		importance := topics[i].Importance - 1
		if importance < topicSpreadImportanceFloor {
			importance = topicSpreadImportanceFloor
		}
		to.Memory.Add(topics[i].Text, memory.TypeDialogue, importance, gt)
		e.hotTopics[to.Name] = append(e.hotTopics[to.Name], HotTopic{Text: topics[i].Text, Importance: importance, Spread: false})
		topics[i].Spread = true
		e.InfoFlow = append(e.InfoFlow, InfoFlowEntry{From: from.Name, To: to.Name, Topic: topics[i].Text, GameTime: gt})
	}
}

func summarize(t Transcript) string {
	if len(t.Lines) == 0 {
		return "had a brief exchange"
	}
	return "talked about " + orDefault(t.Topic, "the day")
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
