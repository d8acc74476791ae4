package research

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// Export is the top-level research-export JSON structure named in
// spec.md §6: {simulation, agents[], conversation_log[],
// relationship_network{nodes,edges}, emergent_phenomena[],
// information_flow[], world_state}.
type Export struct {
	Simulation          SimulationSummary     `json:"simulation"`
	Agents              []AgentSummary        `json:"agents"`
	ConversationLog      []ConversationRow     `json:"conversation_log"`
	RelationshipNetwork RelationshipNetwork    `json:"relationship_network"`
	EmergentPhenomena   []EmergentPhenomenonRow `json:"emergent_phenomena"`
	InformationFlow     []InfoFlowRow         `json:"information_flow"`
	WorldState          WorldStateSummary     `json:"world_state"`
}

// SimulationSummary is the run-level metadata block.
type SimulationSummary struct {
	Days        int    `json:"days"`
	Population  int    `json:"population"`
	Description string `json:"description"`
}

// AgentSummary is one agent's export-facing snapshot.
type AgentSummary struct {
	Name       string `json:"name"`
	Occupation string `json:"occupation"`
	Age        int    `json:"age"`
	LifeStage  string `json:"life_stage"`
}

// Node is one vertex in the relationship network.
type Node struct {
	Name string `json:"name"`
}

// Edge is one directed relationship in the network.
type Edge struct {
	From  string  `json:"from"`
	To    string  `json:"to"`
	Label string  `json:"label"`
	Trust float64 `json:"trust"`
}

// RelationshipNetwork is the {nodes, edges} graph export.
type RelationshipNetwork struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// WorldStateSummary is the final worldstate snapshot included in the
// export, formatted the way the teacher's log lines render treasury and
// population figures for humans.
type WorldStateSummary struct {
	Day          int    `json:"day"`
	Season       string `json:"season"`
	Treasury     string `json:"treasury"`
	Population   int    `json:"population"`
	Prosperity   float64 `json:"prosperity"`
	Unrest       float64 `json:"unrest"`
}

// FormatTreasury renders a treasury figure the way log lines do
// elsewhere in the simulation (humanize.Comma), so the export reads the
// same as the console output.
func FormatTreasury(amount float64) string {
	return humanize.Commaf(amount)
}

// BuildExport reads the ledger's append-only tables back out purely for
// the export snapshot — this is the one place the ledger is queried,
// and the result is never fed back into live simulation state
// (spec.md §6, "not fed back into agent decisions").
func (l *Ledger) BuildExport(sim SimulationSummary, agents []AgentSummary, network RelationshipNetwork, world WorldStateSummary) (*Export, error) {
	var conv []ConversationRow
	if err := l.conn.Select(&conv, "SELECT day, hour, speaker, listener, text, topic FROM conversation_log ORDER BY id"); err != nil {
		return nil, fmt.Errorf("export conversation log: %w", err)
	}

	var flow []InfoFlowRow
	if err := l.conn.Select(&flow, "SELECT day, hour, from_agent, to_agent, topic FROM information_flow ORDER BY id"); err != nil {
		return nil, fmt.Errorf("export information flow: %w", err)
	}

	var phenomena []EmergentPhenomenonRow
	if err := l.conn.Select(&phenomena, "SELECT day, kind, description FROM emergent_phenomena ORDER BY id"); err != nil {
		return nil, fmt.Errorf("export emergent phenomena: %w", err)
	}

	return &Export{
		Simulation:          sim,
		Agents:              agents,
		ConversationLog:      conv,
		RelationshipNetwork: network,
		EmergentPhenomena:   phenomena,
		InformationFlow:     flow,
		WorldState:          world,
	}, nil
}
