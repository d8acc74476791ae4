package cognition

import "math/rand"

// BatchSize computes the adaptive N-agent batch size from rate-limit and
// recent-failure signals (spec.md §4.5, "Scheduling").
func BatchSize(rateLimited bool, recentFailures int) int {
	switch {
	case rateLimited:
		return 1
	case recentFailures > 4:
		return 1
	case recentFailures > 2:
		return 2
	default:
		return 3
	}
}

// NextBatch draws up to n agents from a shuffled queue, moving any
// priority-flagged agents (e.g. user-edited state) to the front first
// (spec.md §4.5, "Agents flagged with a priority bit ... jump the queue").
func NextBatch(queue []string, priority map[string]bool, n int, rng *rand.Rand) ([]string, []string) {
	var prioritized, rest []string
	for _, name := range queue {
		if priority[name] {
			prioritized = append(prioritized, name)
		} else {
			rest = append(rest, name)
		}
	}
	rng.Shuffle(len(rest), func(i, j int) { rest[i], rest[j] = rest[j], rest[i] })
	ordered := append(prioritized, rest...)

	if n > len(ordered) {
		n = len(ordered)
	}
	return ordered[:n], ordered[n:]
}
