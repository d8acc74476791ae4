// Package cognition implements CognitiveCycle: the adaptive per-tick
// agent scheduler and the twelve-step per-agent pipeline (spec.md §4.5).
package cognition

// WorldCollaborator is the out-of-scope rendering/pathfinding surface
// cognition consumes for perception and movement planning (spec.md §6).
// Only a small seam is named here; the full renderer/tilemap lives
// outside this module's scope.
type WorldCollaborator interface {
	Buildings() []Building
	BuildingByNameFuzzy(name string) (Building, bool)
	BuildingAt(x, y int) (Building, bool)
	FindPath(sx, sy, ex, ey, maxSteps int) ([][2]int, bool)
	RandomWalkable(nearX, nearY, radius int) (int, int)
}

// Building is the minimal shape WorldCollaborator exposes.
type Building struct {
	Name string
	Type string
	X, Y int
	W, H int
}

// MotionCollaborator is the agent-motion surface cognition drives;
// cognition never mutates pixel positions directly (spec.md §6).
type MotionCollaborator interface {
	GoToBuilding(agentName, buildingName string)
	StartFollowing(agentName, targetName string)
	FleeFrom(agentName, threatName string)
	Say(agentName, text string, durationMs int)
}

// NearbyAgent is one perceived peer, as reported by WorldCollaborator-
// adjacent perception (kept narrow since full spatial indexing is an
// out-of-scope collaborator concern).
type NearbyAgent struct {
	Name        string
	Familiarity float64
}

// WorldEvent is an active event the agent perceives this cycle.
type WorldEvent struct {
	Text       string
	Dangerous  bool
}

// Perception is what step 2 (Perceive) gathers for one agent.
type Perception struct {
	NearbyAgents    []NearbyAgent
	NearbyBuildings []Building
	ActiveEvents    []WorldEvent
}
