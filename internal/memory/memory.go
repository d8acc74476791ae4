// Package memory implements the append-only memory stream: timestamped
// entries with a keyword index, optional embeddings, and the three-score
// retrieval algorithm (recency, importance, relevance) described in
// spec.md §4.1.
package memory

import (
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/thistlewood/emberfall/internal/gametime"
)

// EntryType is the kind of experience a memory records.
type EntryType string

const (
	TypeObservation EntryType = "observation"
	TypeReflection  EntryType = "reflection"
	TypePlan        EntryType = "plan"
	TypeDialogue    EntryType = "dialogue"
	TypeEvent       EntryType = "event"
)

// DecayFactor is the per-game-hour recency decay base (spec.md §4.1).
const DecayFactor = 0.995

// DefaultMaxEntries is the MemoryStream capacity (spec.md §3).
const DefaultMaxEntries = 500

// Entry is immutable once created, except for LastAccessedReal,
// LastAccessedGame (touched by retrieval) and Embedding (filled in
// asynchronously). See spec.md §3.
type Entry struct {
	ID          string
	Description string
	Type        EntryType
	Importance  int // clamped to [1,10] at construction
	Keywords    map[string]struct{}
	Embedding   []float64 // nil until embedded
	RelatedIDs  []string  // contributing entries, for reflections

	CreatedReal time.Time
	CreatedGame gametime.Time

	// LastAccessedReal is the real-timestamp bookkeeping field named in
	// spec.md §3. LastAccessedGame is the game-time counterpart actually
	// consumed by recency scoring: recency is measured in game-hours,
	// which requires a game-time last-accessed stamp distinct from the
	// real-timestamp one the data model also names.
	LastAccessedReal time.Time
	LastAccessedGame gametime.Time
}

// stopWords are excluded from the keyword index (spec.md §3).
var stopWords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "with": {}, "that": {}, "this": {},
	"was": {}, "are": {}, "but": {}, "not": {}, "you": {}, "have": {},
	"had": {}, "has": {}, "from": {}, "they": {}, "she": {}, "his": {},
	"her": {}, "their": {}, "its": {}, "about": {}, "into": {}, "than": {},
	"then": {}, "them": {}, "what": {}, "who": {}, "whom": {}, "when": {},
	"where": {}, "which": {}, "while": {}, "been": {}, "being": {},
	"just": {}, "also": {}, "very": {}, "can": {}, "will": {}, "would": {},
	"could": {}, "should": {}, "did": {}, "does": {},
}

// tokenizeKeywords lowercases, strips punctuation, and drops stop words
// and tokens of length <= 2 (spec.md §3 invariant).
func tokenizeKeywords(text string) map[string]struct{} {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := make(map[string]struct{})
	for _, f := range fields {
		if len(f) <= 2 {
			continue
		}
		if _, stop := stopWords[f]; stop {
			continue
		}
		out[f] = struct{}{}
	}
	return out
}

func clampImportance(v int) int {
	if v < 1 {
		return 1
	}
	if v > 10 {
		return 10
	}
	return v
}

// RetrievalResult bundles an entry with its combined and component scores.
type RetrievalResult struct {
	Entry      *Entry
	Score      float64
	Recency    float64
	Importance float64
	Relevance  float64
}

// Stream is the per-agent append-only memory log.
type Stream struct {
	MaxEntries int

	entries    []*Entry
	byID       map[string]*Entry
	embedQueue []string // entry IDs awaiting embedding, FIFO

	// Clock hooks, overridable in tests for determinism.
	Now func() time.Time
}

// New creates an empty Stream with the given capacity (0 = DefaultMaxEntries).
func New(maxEntries int) *Stream {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &Stream{
		MaxEntries: maxEntries,
		byID:       make(map[string]*Entry),
		Now:        time.Now,
	}
}

func (s *Stream) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Add appends a new memory entry. Importance is clamped to [1,10];
// entries with importance >= 3 are enqueued for embedding. Triggers
// pruning when the stream exceeds MaxEntries.
func (s *Stream) Add(description string, typ EntryType, importance int, gt gametime.Time) *Entry {
	importance = clampImportance(importance)
	now := s.now()
	e := &Entry{
		ID:               uuid.NewString(),
		Description:      description,
		Type:             typ,
		Importance:       importance,
		Keywords:         tokenizeKeywords(description),
		CreatedReal:      now,
		CreatedGame:      gt,
		LastAccessedReal: now,
		LastAccessedGame: gt,
	}
	s.entries = append(s.entries, e)
	s.byID[e.ID] = e

	if importance >= 3 {
		s.embedQueue = append(s.embedQueue, e.ID)
	}

	if len(s.entries) > s.MaxEntries {
		s.prune()
	}
	return e
}

// AddReflection is a convenience wrapper recording a reflection entry
// with its contributing memory ids.
func (s *Stream) AddReflection(description string, importance int, gt gametime.Time, relatedIDs []string) *Entry {
	e := s.Add(description, TypeReflection, importance, gt)
	e.RelatedIDs = relatedIDs
	return e
}

// Count returns the number of entries currently held.
func (s *Stream) Count() int { return len(s.entries) }

// CountByType returns the number of entries of the given type.
func (s *Stream) CountByType(typ EntryType) int {
	n := 0
	for _, e := range s.entries {
		if e.Type == typ {
			n++
		}
	}
	return n
}

// ImportanceSumSince sums the importance of entries created (real time)
// at or after ts.
func (s *Stream) ImportanceSumSince(ts time.Time) int {
	total := 0
	for _, e := range s.entries {
		if !e.CreatedReal.Before(ts) {
			total += e.Importance
		}
	}
	return total
}

// Recent returns the k most-recently-created entries, newest first.
func (s *Stream) Recent(k int) []*Entry {
	sorted := make([]*Entry, len(s.entries))
	copy(sorted, s.entries)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].CreatedReal.After(sorted[j].CreatedReal)
	})
	if k > len(sorted) {
		k = len(sorted)
	}
	if k < 0 {
		k = 0
	}
	return sorted[:k]
}

// ByType returns the k most recent entries of the given type, newest first.
func (s *Stream) ByType(typ EntryType, k int) []*Entry {
	var filtered []*Entry
	for _, e := range s.entries {
		if e.Type == typ {
			filtered = append(filtered, e)
		}
	}
	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].CreatedReal.After(filtered[j].CreatedReal)
	})
	if k > len(filtered) {
		k = len(filtered)
	}
	if k < 0 {
		k = 0
	}
	return filtered[:k]
}

// Summarize synthesizes a short one-line summary from the k most recent
// memories — used by offline fallbacks that need a gist without an oracle.
func (s *Stream) Summarize(k int) string {
	recent := s.Recent(k)
	if len(recent) == 0 {
		return ""
	}
	parts := make([]string, 0, len(recent))
	for i := len(recent) - 1; i >= 0; i-- {
		parts = append(parts, recent[i].Description)
	}
	return strings.Join(parts, "; ")
}

// EmbedQueueLen reports how many entries are waiting to be embedded.
func (s *Stream) EmbedQueueLen() int { return len(s.embedQueue) }
