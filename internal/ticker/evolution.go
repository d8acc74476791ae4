package ticker

import (
	"github.com/thistlewood/emberfall/internal/agent"
	"github.com/thistlewood/emberfall/internal/memory"
	"github.com/thistlewood/emberfall/internal/worldstate"
)

// Building is the minimal structural state the disrepair pass tracks.
// The full building registry (position, type, occupants) is owned by
// the out-of-scope rendering/world collaborator (spec.md §6); ticker
// only needs condition for the disrepair check.
type Building struct {
	Name      string
	Condition float64 // [0,100]
	alerted   bool
}

const disrepairThreshold = 30.0
const disrepairDecrement = 0.5

const (
	fertilityBaseline   = 0.6
	diseaseRiskBaseline = 0.05
)

// EvolutionResult bundles what changed in one daily evolution pass.
type EvolutionResult struct {
	NewSeason          string
	DisrepairedBuildings []string
	TechnologyAdvanced []string
	EmergentBelief     string // "" if none emerged this pass
}

const culturalEmergenceShare = 0.4

// Evolve runs the once-per-game-day world evolution pass: season
// advance, building disrepair, opportunistic technology progress, and
// cultural-belief emergence (spec.md §4.3).
func (t *Ticker) Evolve(w *worldstate.State, buildings []*Building, agents []*agent.State, cumulativeGameHours int) EvolutionResult {
	var result EvolutionResult

	season := w.Def.SeasonAt(cumulativeGameHours)
	if season.ID != "" && season.ID != w.Environment.Season {
		w.Environment.Season = season.ID
		result.NewSeason = season.ID
	}

	// Fertility and disease risk wander smoothly around their baselines
	// via two independent samples of the same noise field, phase-shifted
	// so the two signals don't move in lockstep (spec.md §4.3).
	hours := float64(cumulativeGameHours)
	w.Environment.Fertility = clamp01(fertilityBaseline + w.EnvironmentDrift(hours))
	w.Environment.DiseaseRisk = clamp01(diseaseRiskBaseline + w.EnvironmentDrift(hours+1000)*0.5)

	for _, b := range buildings {
		b.Condition -= disrepairDecrement
		if b.Condition < 0 {
			b.Condition = 0
		}
		if b.Condition < disrepairThreshold && !b.alerted {
			b.alerted = true
			result.DisrepairedBuildings = append(result.DisrepairedBuildings, b.Name)
		} else if b.Condition >= disrepairThreshold {
			b.alerted = false
		}
	}

	result.TechnologyAdvanced = t.advanceTechnology(w, agents)
	result.EmergentBelief = t.detectEmergentBelief(agents)

	return result
}

// scholarlyOccupations are the occupations whose work opportunistically
// advances technology (spec.md §4.3).
var scholarlyOccupations = map[string]bool{"scholar": true, "scientist": true, "scribe": true}

func (t *Ticker) advanceTechnology(w *worldstate.State, agents []*agent.State) []string {
	var advanced []string
	for _, a := range agents {
		if !scholarlyOccupations[a.Occupation] {
			continue
		}
		skill := a.Occupation // the primary skill id is conventionally named after the occupation's field
		if occ, ok := w.Def.Occupation(a.Occupation); ok && occ.PrimarySkill != "" {
			skill = occ.PrimarySkill
		}
		if w.Technology[skill] >= 10 {
			continue
		}
		w.Technology[skill] = minFloat(10, w.Technology[skill]+0.05)
		advanced = append(advanced, skill)
	}
	return advanced
}

// detectEmergentBelief checks whether a reflection keyword-signature is
// shared by at least culturalEmergenceShare of agents (spec.md §4.3).
func (t *Ticker) detectEmergentBelief(agents []*agent.State) string {
	if len(agents) == 0 {
		return ""
	}
	signatureCounts := make(map[string]int)
	signatureExample := make(map[string]string)
	for _, a := range agents {
		reflections := a.Memory.ByType(memory.TypeReflection, 5)
		seen := make(map[string]bool)
		for _, r := range reflections {
			sig := keywordSignature(r)
			if sig == "" || seen[sig] {
				continue
			}
			seen[sig] = true
			signatureCounts[sig]++
			if _, ok := signatureExample[sig]; !ok {
				signatureExample[sig] = r.Description
			}
		}
	}
	threshold := int(culturalEmergenceShare * float64(len(agents)))
	for sig, count := range signatureCounts {
		if count >= threshold && count > 1 {
			return signatureExample[sig]
		}
	}
	return ""
}

func keywordSignature(e *memory.Entry) string {
	if len(e.Keywords) == 0 {
		return ""
	}
	// The dominant keyword (first in iteration order after sorting would
	// be ideal, but any stable single keyword is sufficient as a coarse
	// signature — belief convergence is about shared vocabulary, not an
	// exact phrase match).
	best := ""
	for kw := range e.Keywords {
		if best == "" || kw < best {
			best = kw
		}
	}
	return best
}
