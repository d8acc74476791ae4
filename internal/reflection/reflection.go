// Package reflection implements the threshold-triggered synthesis pass
// that turns an agent's recent memories into higher-level insights,
// written back into its own MemoryStream (spec.md §4.2).
package reflection

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/thistlewood/emberfall/internal/gametime"
	"github.com/thistlewood/emberfall/internal/memory"
	"github.com/thistlewood/emberfall/internal/oracle"
)

// ImportanceThreshold is the cumulative-importance watermark that fires
// a reflection pass.
const ImportanceThreshold = 100

const (
	recentWindow   = 15
	maxQuestions   = 3
	maxInsights    = 3
	retrievalTopK  = 10
	minSupporting  = 2
	minInsightClmp = 1
	maxInsightClmp = 9
)

// System tracks the real-timestamp watermark used by shouldReflect. One
// System belongs to exactly one agent's MemoryStream, mirroring the
// stream's own ownership (spec.md §3, "Ownership").
type System struct {
	lastReflected time.Time
}

// New creates a System whose watermark starts at the given time (usually
// the agent's creation time).
func New(start time.Time) *System {
	return &System{lastReflected: start}
}

// ShouldReflect reports whether cumulative importance since the last
// reflection watermark has crossed the threshold.
func (s *System) ShouldReflect(stream *memory.Stream) bool {
	return stream.ImportanceSumSince(s.lastReflected) >= ImportanceThreshold
}

type questionSet struct {
	Questions []string `json:"questions"`
}

type insightList struct {
	Insights []insightJSON `json:"insights"`
}

type insightJSON struct {
	Text              string `json:"text"`
	Importance        int    `json:"importance"`
	SupportingIndices []int  `json:"supporting_indices"`
}

// Reflect runs one reflection pass. The real-timestamp watermark is
// advanced unconditionally on return, regardless of whether the oracle
// call succeeded, per spec.md §4.2 ("record ... as the new watermark
// regardless of success").
func (s *System) Reflect(ctx context.Context, o oracle.Oracle, stream *memory.Stream, now gametime.Time, nowReal time.Time) []*memory.Entry {
	defer func() { s.lastReflected = nowReal }()

	if !o.HasAnyKey() {
		return s.offlineReflect(stream, now)
	}

	recent := stream.Recent(recentWindow)
	if len(recent) == 0 {
		return nil
	}

	questions, err := s.askQuestions(ctx, o, recent)
	if err != nil {
		slog.Warn("reflection: question generation failed, falling back offline", "error", err)
		return s.offlineReflect(stream, now)
	}

	var written []*memory.Entry
	for _, q := range questions {
		var embedding []float64
		if o.CanEmbed() {
			if v, err := o.Embed(ctx, q); err == nil {
				embedding = v
			}
		}
		results := stream.Retrieve(q, retrievalTopK, embedding, now)
		if len(results) < minSupporting {
			continue
		}
		insights, err := s.askInsights(ctx, o, q, results)
		if err != nil {
			slog.Warn("reflection: insight generation failed for question", "question", q, "error", err)
			continue
		}
		for _, ins := range insights {
			related := relatedIDs(results, ins.SupportingIndices)
			if len(related) == 0 {
				continue
			}
			importance := clamp(ins.Importance, minInsightClmp, maxInsightClmp)
			e := stream.AddReflection(ins.Text, importance, now, related)
			written = append(written, e)
			if len(written) >= maxInsights {
				return written
			}
		}
	}
	return written
}

func (s *System) askQuestions(ctx context.Context, o oracle.Oracle, recent []*memory.Entry) ([]string, error) {
	var sb strings.Builder
	for i, e := range recent {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, e.Description)
	}
	system := "You identify the most salient high-level questions raised by a character's recent memories. " +
		"Respond with JSON: {\"questions\": [\"...\", \"...\", \"...\"]} with at most three questions."
	resp, err := o.Generate(ctx, system, sb.String(), oracle.GenOpts{JSON: true, Temperature: 0.7, MaxTokens: 300})
	if err != nil {
		return nil, err
	}
	qs, err := decodeQuestions(resp)
	if err != nil {
		return nil, err
	}
	if len(qs) > maxQuestions {
		qs = qs[:maxQuestions]
	}
	return qs, nil
}

func (s *System) askInsights(ctx context.Context, o oracle.Oracle, question string, results []memory.RetrievalResult) ([]insightJSON, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Question: %s\nRelevant memories:\n", question)
	for i, r := range results {
		fmt.Fprintf(&sb, "%d. %s\n", i, r.Entry.Description)
	}
	system := "Synthesize up to three high-level insights answering the question, grounded only in the listed memories. " +
		"Respond with JSON: {\"insights\": [{\"text\": \"...\", \"importance\": 1-9, \"supporting_indices\": [0,2]}]}. " +
		"supporting_indices refer to the numbered memory list."
	resp, err := o.Generate(ctx, system, sb.String(), oracle.GenOpts{JSON: true, Temperature: 0.7, MaxTokens: 400})
	if err != nil {
		return nil, err
	}
	return decodeInsights(resp)
}

func relatedIDs(results []memory.RetrievalResult, indices []int) []string {
	var ids []string
	for _, idx := range indices {
		if idx >= 0 && idx < len(results) {
			ids = append(ids, results[idx].Entry.ID)
		}
	}
	return ids
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// offlineReflect synthesises a one-line summary from recent dialogue
// partners and/or event counts, per spec.md §4.2's offline fallback.
func (s *System) offlineReflect(stream *memory.Stream, now gametime.Time) []*memory.Entry {
	dialogues := stream.ByType(memory.TypeDialogue, recentWindow)
	events := stream.CountByType(memory.TypeEvent)

	if len(dialogues) == 0 && events == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString("Lately: ")
	if len(dialogues) > 0 {
		fmt.Fprintf(&sb, "talked with %d people", len(dialogues))
	}
	if events > 0 {
		if len(dialogues) > 0 {
			sb.WriteString(", and ")
		}
		fmt.Fprintf(&sb, "%d notable things happened", events)
	}
	sb.WriteString(".")

	var related []string
	for _, d := range dialogues {
		related = append(related, d.ID)
	}
	e := stream.AddReflection(sb.String(), 4, now, related)
	return []*memory.Entry{e}
}
