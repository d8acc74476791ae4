package conversation

import (
	"github.com/thistlewood/emberfall/internal/agent"
	"github.com/thistlewood/emberfall/internal/gametime"
)

// offlineTemplate renders a two-line exchange given the two agents and
// the current hour; grounded on spec.md §4.8's "~10 context-shaped
// templates" requirement.
type offlineTemplate struct {
	name    string
	matches func(a, b *agent.State, gt gametime.Time, topics []HotTopic) bool
	render  func(a, b *agent.State, gt gametime.Time, topics []HotTopic) Transcript
}

var offlineTemplates = []offlineTemplate{
	{
		name: "gossip-leading",
		matches: func(a, b *agent.State, gt gametime.Time, topics []HotTopic) bool {
			return len(topics) > 0
		},
		render: func(a, b *agent.State, gt gametime.Time, topics []HotTopic) Transcript {
			t := topics[0]
			return Transcript{
				Lines: []Line{
					{Speaker: a.Name, Text: "Did you hear? " + t.Text, Topic: "gossip"},
					{Speaker: b.Name, Text: "No, tell me more.", Topic: "gossip"},
				},
				Topic: "gossip",
				Bond:  BondCloser,
			}
		},
	},
	{
		name: "familiarity-gated-close",
		matches: func(a, b *agent.State, gt gametime.Time, topics []HotTopic) bool {
			rel := a.Relationships[b.Name]
			return rel != nil && rel.Familiarity > 0.5
		},
		render: func(a, b *agent.State, gt gametime.Time, topics []HotTopic) Transcript {
			return Transcript{
				Lines: []Line{
					{Speaker: a.Name, Text: "Good to see you again, " + b.Name + ".", Topic: "friendship"},
					{Speaker: b.Name, Text: "You too. It's been a while.", Topic: "friendship"},
				},
				Topic: "friendship",
				Bond:  BondCloser,
			}
		},
	},
	{
		name: "familiarity-gated-new",
		matches: func(a, b *agent.State, gt gametime.Time, topics []HotTopic) bool {
			rel := a.Relationships[b.Name]
			return rel == nil || rel.Familiarity <= 0.1
		},
		render: func(a, b *agent.State, gt gametime.Time, topics []HotTopic) Transcript {
			return Transcript{
				Lines: []Line{
					{Speaker: a.Name, Text: "I don't think we've met. I'm " + a.Name + ".", Topic: "introduction"},
					{Speaker: b.Name, Text: "I'm " + b.Name + ". Pleasure.", Topic: "introduction"},
				},
				Topic: "introduction",
				Bond:  BondNeutral,
			}
		},
	},
	{
		name: "activity-based",
		matches: func(a, b *agent.State, gt gametime.Time, topics []HotTopic) bool {
			entry, ok := a.Plan.CurrentActivity(gt)
			return ok && entry.Activity != ""
		},
		render: func(a, b *agent.State, gt gametime.Time, topics []HotTopic) Transcript {
			entry, _ := a.Plan.CurrentActivity(gt)
			return Transcript{
				Lines: []Line{
					{Speaker: a.Name, Text: "Busy with " + entry.Activity + " today.", Topic: "daily life"},
					{Speaker: b.Name, Text: "Same as ever, I suppose.", Topic: "daily life"},
				},
				Topic: "daily life",
				Bond:  BondNeutral,
			}
		},
	},
	{
		name: "needs-hungry",
		matches: func(a, b *agent.State, gt gametime.Time, topics []HotTopic) bool {
			return a.Needs["hunger"] > 0.7
		},
		render: func(a, b *agent.State, gt gametime.Time, topics []HotTopic) Transcript {
			return Transcript{
				Lines: []Line{
					{Speaker: a.Name, Text: "I could really use a meal right about now.", Topic: "needs"},
					{Speaker: b.Name, Text: "There's a stall nearby, go on.", Topic: "needs"},
				},
				Topic: "needs",
				Bond:  BondNeutral,
			}
		},
	},
	{
		name: "needs-tired",
		matches: func(a, b *agent.State, gt gametime.Time, topics []HotTopic) bool {
			return a.Needs["rest"] > 0.7
		},
		render: func(a, b *agent.State, gt gametime.Time, topics []HotTopic) Transcript {
			return Transcript{
				Lines: []Line{
					{Speaker: a.Name, Text: "I'm worn out, need to rest soon.", Topic: "needs"},
					{Speaker: b.Name, Text: "Don't push yourself too hard.", Topic: "needs"},
				},
				Topic: "needs",
				Bond:  BondNeutral,
			}
		},
	},
	{
		name: "time-of-day-morning",
		matches: func(a, b *agent.State, gt gametime.Time, topics []HotTopic) bool {
			return gt.Hour >= 5 && gt.Hour < 11
		},
		render: func(a, b *agent.State, gt gametime.Time, topics []HotTopic) Transcript {
			return Transcript{
				Lines: []Line{
					{Speaker: a.Name, Text: "Morning, " + b.Name + ". Off to an early start?", Topic: "greeting"},
					{Speaker: b.Name, Text: "Always. The day doesn't wait.", Topic: "greeting"},
				},
				Topic: "greeting",
				Bond:  BondNeutral,
			}
		},
	},
	{
		name: "time-of-day-evening",
		matches: func(a, b *agent.State, gt gametime.Time, topics []HotTopic) bool {
			return gt.Hour >= 18 && gt.Hour < 22
		},
		render: func(a, b *agent.State, gt gametime.Time, topics []HotTopic) Transcript {
			return Transcript{
				Lines: []Line{
					{Speaker: a.Name, Text: "Long day. Winding down now.", Topic: "evening"},
					{Speaker: b.Name, Text: "Same. See you tomorrow, " + a.Name + ".", Topic: "evening"},
				},
				Topic: "evening",
				Bond:  BondNeutral,
			}
		},
	},
	{
		name: "occupation-shared",
		matches: func(a, b *agent.State, gt gametime.Time, topics []HotTopic) bool {
			return a.Occupation != "" && a.Occupation == b.Occupation
		},
		render: func(a, b *agent.State, gt gametime.Time, topics []HotTopic) Transcript {
			return Transcript{
				Lines: []Line{
					{Speaker: a.Name, Text: "Another day at the " + a.Occupation + " trade.", Topic: "work"},
					{Speaker: b.Name, Text: "Tell me about it.", Topic: "work"},
				},
				Topic: "work",
				Bond:  BondNeutral,
			}
		},
	},
	{
		name: "generic-fallback",
		matches: func(a, b *agent.State, gt gametime.Time, topics []HotTopic) bool {
			return true
		},
		render: func(a, b *agent.State, gt gametime.Time, topics []HotTopic) Transcript {
			return Transcript{
				Lines: []Line{
					{Speaker: a.Name, Text: "Fine weather we're having.", Topic: "small talk"},
					{Speaker: b.Name, Text: "Can't complain.", Topic: "small talk"},
				},
				Topic: "small talk",
				Bond:  BondNeutral,
			}
		},
	},
}

// offlineFallback selects the first matching template by context, still
// diffusing topics and updating memories as the oracle-driven path does
// (spec.md §4.8, "Offline fallback").
func (e *Engine) offlineFallback(a, b *agent.State, gt gametime.Time) Transcript {
	topics := e.undiscussedTopics(a.Name)
	for _, tmpl := range offlineTemplates {
		if !tmpl.matches(a, b, gt, topics) {
			continue
		}
		transcript := tmpl.render(a, b, gt, topics)
		e.finish(a, b, transcript, gt)
		return transcript
	}
	// unreachable: generic-fallback always matches
	return Transcript{}
}
