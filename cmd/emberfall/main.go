// Command emberfall runs the Emberfall autonomous-agent settlement
// simulation.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/thistlewood/emberfall/internal/agent"
	"github.com/thistlewood/emberfall/internal/cognition"
	"github.com/thistlewood/emberfall/internal/community"
	"github.com/thistlewood/emberfall/internal/config"
	"github.com/thistlewood/emberfall/internal/conversation"
	"github.com/thistlewood/emberfall/internal/gametime"
	"github.com/thistlewood/emberfall/internal/logging"
	"github.com/thistlewood/emberfall/internal/loop"
	"github.com/thistlewood/emberfall/internal/oracle"
	"github.com/thistlewood/emberfall/internal/research"
	"github.com/thistlewood/emberfall/internal/ticker"
	"github.com/thistlewood/emberfall/internal/worldstate"
)

var names = []string{
	"Ana", "Finn", "Mara", "Tom", "Lena", "Kiro", "Osha", "Bren",
	"Talia", "Jorin", "Sela", "Wren", "Davan", "Iris", "Ronan", "Cael",
}

var personalities = []string{
	"a steady, curious soul who prefers quiet mornings",
	"ambitious and driven, always chasing the next opportunity",
	"shy and reserved, but fiercely loyal to old friends",
	"romantic and affectionate, quick to form attachments",
	"inquisitive and creative, always tinkering with something new",
}

var occupations = []string{"farmer", "merchant", "scholar"}

func main() {
	logging.Init(slog.LevelInfo)
	slog.Info("Emberfall — autonomous settlement simulation")

	os.MkdirAll("data", 0755)

	cfg, err := config.Load(os.Getenv("EMBERFALL_WORLDDEF"))
	if err != nil {
		slog.Error("failed to load world definition", "error", err)
		os.Exit(1)
	}

	ledger, err := research.Open(cfg.ResearchDBPath)
	if err != nil {
		slog.Error("failed to open research ledger", "error", err)
		os.Exit(1)
	}
	defer ledger.Close()

	world := worldstate.New(cfg.Def, cfg.InitialAgents, cfg.Seed)

	rng := rand.New(rand.NewSource(cfg.Seed))
	now := time.Now()
	gt := gametime.Zero

	agents := make([]*agent.State, 0, cfg.InitialAgents)
	for i := 0; i < cfg.InitialAgents; i++ {
		name := fmt.Sprintf("%s-%d", names[i%len(names)], i/len(names))
		personality := personalities[rng.Intn(len(personalities))]
		occupation := occupations[rng.Intn(len(occupations))]
		age := 18 + rng.Intn(50)
		agents = append(agents, agent.New(name, personality, occupation, age, cfg.Def, now, gt))
	}

	var o oracle.Oracle = oracle.Offline{}
	if cfg.AnthropicKey != "" {
		if client := oracle.NewClient(cfg.AnthropicKey); client != nil {
			o = client
			slog.Info("oracle enabled")
		}
	} else {
		slog.Info("ANTHROPIC_API_KEY not set — running fully offline")
	}

	tick := ticker.New(cfg.Def)
	cycle := &cognition.Cycle{O: o, Rng: rng}
	convo := conversation.New()
	events := community.NewHost()

	recentFailures := 0
	cumulativeGameMinutes := 0

	cognitiveQueue := make([]string, len(agents))
	for i, a := range agents {
		cognitiveQueue[i] = a.Name
	}
	flushedInfoFlow := 0

	l := loop.New()
	l.RecentFailures = func() int { return recentFailures }

	lastDay := gt.Day

	l.OnSimTick = func(time.Duration) {
		gt = gt.AddMinutes(1)
		cumulativeGameMinutes++

		for _, a := range agents {
			tick.TickAgent(a, world, now, gt)
		}
		tick.TickWorldMinute(world, now)

		if gt.Day != lastDay {
			lastDay = gt.Day
			world.Day = gt.Day
			tick.CollectTaxes(world, agents, gt)
			appendRelationshipSnapshot(ledger, gt, agents)

			result := tick.Evolve(world, nil, agents, cumulativeGameMinutes/60)
			if result.EmergentBelief != "" {
				slog.Info("a shared belief has emerged", "belief", result.EmergentBelief, "day", gt.Day)
				if err := ledger.AppendEmergentPhenomenon(research.EmergentPhenomenonRow{
					Day:         gt.Day,
					Kind:        "belief",
					Description: result.EmergentBelief,
				}); err != nil {
					slog.Warn("failed to append emergent phenomenon to research ledger", "error", err)
				}
			}
		}
	}

	l.OnCognitiveTick = func(time.Duration) {
		ctx := context.Background()

		if o.IsRateLimited() {
			recentFailures++
		} else if recentFailures > 0 {
			recentFailures--
		}

		// A running community event pre-empts the cognitive cycle
		// entirely this tick, for every agent (spec.md §4.9).
		if events.IsPreempting("") {
			return
		}

		n := cognition.BatchSize(o.IsRateLimited(), recentFailures)
		batch, remaining := cognition.NextBatch(cognitiveQueue, nil, n, rng)
		cognitiveQueue = append(remaining, batch...)

		for _, name := range batch {
			a := findByName(agents, name)
			if a == nil {
				continue
			}
			decision := cycle.Run(ctx, a, world, agents, now, gt)
			if decision.Kind != "converse" || decision.Target == "" {
				continue
			}
			partner := findByName(agents, decision.Target)
			if partner == nil {
				continue
			}
			rel := a.RelationshipWith(partner.Name)
			if !convo.ShouldConverse(a.Name, partner.Name, rel.Familiarity, now, rng.Float64) {
				continue
			}
			transcript := convo.Run(ctx, o, a, partner, gt, now, recentFailures)
			appendTranscript(ledger, gt, a, partner, transcript)
		}

		flushedInfoFlow = appendInfoFlow(ledger, convo, flushedInfoFlow)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("received signal, shutting down", "signal", sig)
		l.Stop()
	}()

	fmt.Printf("Emberfall is alive: %d souls.\n", len(agents))
	fmt.Println("Starting simulation... (Ctrl+C to stop)")

	l.Run()

	fmt.Printf("Simulation stopped after %d game-minutes (day %d).\n", cumulativeGameMinutes, gt.Day)
}

func findByName(agents []*agent.State, name string) *agent.State {
	for _, a := range agents {
		if a.Name == name {
			return a
		}
	}
	return nil
}

// appendTranscript persists a finished conversation to the research
// ledger. Failures here never propagate into the cognitive cycle — a
// lost log line is not worth pausing the simulation over.
func appendTranscript(ledger *research.Ledger, gt gametime.Time, a, b *agent.State, t conversation.Transcript) {
	if len(t.Lines) == 0 {
		return
	}
	rows := make([]research.ConversationRow, 0, len(t.Lines))
	for _, line := range t.Lines {
		listener := b.Name
		if line.Speaker == b.Name {
			listener = a.Name
		}
		rows = append(rows, research.ConversationRow{
			Day:      gt.Day,
			Hour:     gt.Hour,
			Speaker:  line.Speaker,
			Listener: listener,
			Text:     line.Text,
			Topic:    line.Topic,
		})
	}
	if err := ledger.AppendConversation(rows); err != nil {
		slog.Warn("failed to append conversation to research ledger", "error", err)
	}
}

// appendInfoFlow persists any topic-diffusion edges the conversation
// engine has accumulated since the last flush, and returns the new
// flushed count (spec.md §4.8 step 6, §6 information_flow export).
func appendInfoFlow(ledger *research.Ledger, convo *conversation.Engine, flushed int) int {
	if len(convo.InfoFlow) <= flushed {
		return flushed
	}
	pending := convo.InfoFlow[flushed:]
	rows := make([]research.InfoFlowRow, 0, len(pending))
	for _, e := range pending {
		rows = append(rows, research.InfoFlowRow{
			Day:   e.GameTime.Day,
			Hour:  e.GameTime.Hour,
			From:  e.From,
			To:    e.To,
			Topic: e.Topic,
		})
	}
	if err := ledger.AppendInfoFlow(rows); err != nil {
		slog.Warn("failed to append info-flow to research ledger", "error", err)
	}
	return len(convo.InfoFlow)
}

// appendRelationshipSnapshot persists one row per directed relationship
// edge, taken once per sim-day (spec.md §6 relationship_network export).
func appendRelationshipSnapshot(ledger *research.Ledger, gt gametime.Time, agents []*agent.State) {
	var rows []research.RelationshipRow
	for _, a := range agents {
		for target, r := range a.Relationships {
			rows = append(rows, research.RelationshipRow{
				Day:         gt.Day,
				Agent:       a.Name,
				Target:      target,
				Label:       r.Label,
				Trust:       r.Trust,
				Familiarity: r.Familiarity,
				Attraction:  r.Attraction,
			})
		}
	}
	if len(rows) == 0 {
		return
	}
	if err := ledger.AppendRelationshipSnapshot(rows); err != nil {
		slog.Warn("failed to append relationship snapshot to research ledger", "error", err)
	}
}
