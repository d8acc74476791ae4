package memory

import (
	"math"

	"golang.org/x/exp/slices"

	"github.com/thistlewood/emberfall/internal/gametime"
)

// Retrieve returns the top-k entries scored by the combined recency +
// importance + relevance algorithm of spec.md §4.1. queryEmbedding may be
// nil, in which case relevance falls back to keyword overlap. now is the
// current game-time, used for recency scoring and to stamp last-accessed.
func (s *Stream) Retrieve(query string, k int, queryEmbedding []float64, now gametime.Time) []RetrievalResult {
	n := len(s.entries)
	if n == 0 || k <= 0 {
		return nil
	}

	queryKeywords := tokenizeKeywords(query)

	recency := make([]float64, n)
	importance := make([]float64, n)
	relevance := make([]float64, n)

	for i, e := range s.entries {
		hours := now.SinceHours(e.LastAccessedGame)
		if hours < 0 {
			hours = 0
		}
		recency[i] = math.Pow(DecayFactor, hours)

		importance[i] = float64(e.Importance) / 10.0

		if queryEmbedding != nil && e.Embedding != nil {
			relevance[i] = cosineSimilarity(queryEmbedding, e.Embedding)
		} else {
			relevance[i] = keywordOverlap(queryKeywords, e.Keywords)
		}
	}

	recency = minMaxNormalize(recency)
	importance = minMaxNormalize(importance)
	relevance = minMaxNormalize(relevance)

	results := make([]RetrievalResult, n)
	for i, e := range s.entries {
		results[i] = RetrievalResult{
			Entry:      e,
			Recency:    recency[i],
			Importance: importance[i],
			Relevance:  relevance[i],
			Score:      recency[i] + importance[i] + relevance[i],
		}
	}

	slices.SortFunc(results, func(a, b RetrievalResult) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		default:
			return 0
		}
	})

	if k > len(results) {
		k = len(results)
	}
	top := results[:k]

	for _, r := range top {
		r.Entry.LastAccessedGame = now
		r.Entry.LastAccessedReal = s.now()
	}
	return top
}

// minMaxNormalize scales values to [0,1]. When the range is zero, every
// entry receives 1 in that dimension (spec.md §4.1 step 2).
func minMaxNormalize(vals []float64) []float64 {
	if len(vals) == 0 {
		return vals
	}
	min, max := vals[0], vals[0]
	for _, v := range vals {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	out := make([]float64, len(vals))
	if max-min == 0 {
		for i := range out {
			out[i] = 1
		}
		return out
	}
	for i, v := range vals {
		out[i] = (v - min) / (max - min)
	}
	return out
}

func cosineSimilarity(a, b []float64) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

const prefixLen = 4
const prefixWeight = 0.5

// keywordOverlap computes weighted keyword overlap with partial prefix
// matching, normalized by the geometric mean of the two keyword-set sizes
// (spec.md §4.1 step 1, relevance fallback).
func keywordOverlap(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	score := 0.0
	for kw := range a {
		if _, exact := b[kw]; exact {
			score += 1.0
			continue
		}
		if prefixMatches(kw, b) {
			score += prefixWeight
		}
	}

	denom := math.Sqrt(float64(len(a)) * float64(len(b)))
	if denom == 0 {
		return 0
	}
	return score / denom
}

func prefixMatches(kw string, set map[string]struct{}) bool {
	prefix := kw
	if len(prefix) > prefixLen {
		prefix = prefix[:prefixLen]
	}
	for other := range set {
		o := other
		if len(o) > prefixLen {
			o = o[:prefixLen]
		}
		if o == prefix {
			return true
		}
	}
	return false
}
