package memory

import "sort"

// prune enforces the retention priority order of spec.md §4.1: all
// reflections > the top-50% by importance > the most-recent 40% >
// others. Bands are unioned (duplicates counted once) then re-sorted by
// creation time, matching the spec's mandated "union-then-resort"
// semantics.
//
// The union of bands can exceed MaxEntries when reflections, the
// high-importance half, and the recent 40% do not overlap enough — but
// spec.md §8 also requires count() <= max_entries as a universal
// invariant. When the union is still too large after the mandated bands
// are combined, this resolves the tension by dropping the lowest-
// importance, non-reflection entries from the union until the cap holds
// — reflections are never dropped by this step.
func (s *Stream) prune() {
	n := len(s.entries)
	if n <= s.MaxEntries {
		return
	}

	keep := make(map[string]bool, n)

	for _, e := range s.entries {
		if e.Type == TypeReflection {
			keep[e.ID] = true
		}
	}

	byImportance := make([]*Entry, n)
	copy(byImportance, s.entries)
	sort.Slice(byImportance, func(i, j int) bool {
		return byImportance[i].Importance > byImportance[j].Importance
	})
	half := (n + 1) / 2
	for _, e := range byImportance[:half] {
		keep[e.ID] = true
	}

	byRecency := make([]*Entry, n)
	copy(byRecency, s.entries)
	sort.Slice(byRecency, func(i, j int) bool {
		return byRecency[i].CreatedReal.After(byRecency[j].CreatedReal)
	})
	recentCount := int(0.4*float64(n) + 0.999999) // ceil(40%)
	if recentCount > n {
		recentCount = n
	}
	for _, e := range byRecency[:recentCount] {
		keep[e.ID] = true
	}

	var retained []*Entry
	for _, e := range s.entries {
		if keep[e.ID] {
			retained = append(retained, e)
		}
	}

	if len(retained) > s.MaxEntries {
		sort.Slice(retained, func(i, j int) bool {
			ri, rj := retained[i], retained[j]
			if ri.Type == TypeReflection && rj.Type != TypeReflection {
				return true
			}
			if rj.Type == TypeReflection && ri.Type != TypeReflection {
				return false
			}
			return ri.Importance > rj.Importance
		})
		excess := len(retained) - s.MaxEntries
		trimmed := retained[:len(retained)-excess]
		retained = trimmed
	}

	sort.Slice(retained, func(i, j int) bool {
		return retained[i].CreatedReal.Before(retained[j].CreatedReal)
	})

	s.entries = retained
	s.byID = make(map[string]*Entry, len(retained))
	for _, e := range retained {
		s.byID[e.ID] = e
	}

	// Drop queued embedding ids whose entries were pruned.
	var queue []string
	for _, id := range s.embedQueue {
		if s.byID[id] != nil {
			queue = append(queue, id)
		}
	}
	s.embedQueue = queue
}
