// Package config loads the single explicit configuration handle the
// simulation threads through its constructors: the active WorldDef plus
// the run-level settings (seed, population, database paths, oracle
// credentials). It is never stashed behind a package-level global
// (spec.md §9's guidance against ambient mutable state, besides this
// one handle).
package config

import (
	"os"

	"github.com/thistlewood/emberfall/internal/worlddef"
)

// Run bundles everything a fresh simulation run needs to start.
type Run struct {
	Def *worlddef.Def

	Seed           int64
	InitialAgents  int
	WorldDBPath    string
	ResearchDBPath string

	AnthropicKey string
	OpenAIKey    string

	AdminKey string
}

// Default run settings. Load always uses these values; only the oracle
// and admin keys are read from environment variables — mirrors the
// teacher's inline defaults in cmd/worldsim/main.go.
const (
	DefaultSeed          = int64(42)
	DefaultInitialAgents = 24
	DefaultWorldDBPath   = "data/emberfall.db"
	DefaultResearchDBPath = "data/research.db"
)

// Load builds a Run from environment variables, falling back to the
// in-code WorldDef schema when no worldDefPath is given (or it fails to
// read), so the engine always starts with zero required files.
func Load(worldDefPath string) (Run, error) {
	r := Run{
		Seed:           DefaultSeed,
		InitialAgents:  DefaultInitialAgents,
		WorldDBPath:    DefaultWorldDBPath,
		ResearchDBPath: DefaultResearchDBPath,
		AnthropicKey:   os.Getenv("ANTHROPIC_API_KEY"),
		OpenAIKey:      os.Getenv("OPENAI_API_KEY"),
		AdminKey:       os.Getenv("EMBERFALL_ADMIN_KEY"),
	}

	if worldDefPath != "" {
		data, err := os.ReadFile(worldDefPath)
		if err == nil {
			def, loadErr := worlddef.Load(data)
			if loadErr == nil {
				r.Def = def
				return r, nil
			}
			return r, loadErr
		}
	}

	r.Def = worlddef.Default()
	return r, nil
}
