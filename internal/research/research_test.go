package research

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestLedger(t *testing.T) *Ledger {
	t.Helper()
	path := filepath.Join(t.TempDir(), "research.db")
	l, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	return l
}

func TestAppendConversation_RoundTripsThroughExport(t *testing.T) {
	l := openTestLedger(t)

	err := l.AppendConversation([]ConversationRow{
		{Day: 1, Hour: 9, Speaker: "Ana", Listener: "Finn", Text: "Morning.", Topic: "greeting"},
	})
	require.NoError(t, err)

	export, err := l.BuildExport(SimulationSummary{Days: 1}, nil, RelationshipNetwork{}, WorldStateSummary{})
	require.NoError(t, err)
	require.Len(t, export.ConversationLog, 1)
	assert.Equal(t, "Ana", export.ConversationLog[0].Speaker)
}

func TestAppendInfoFlow_EmptyBatchIsNoop(t *testing.T) {
	l := openTestLedger(t)
	require.NoError(t, l.AppendInfoFlow(nil))

	export, err := l.BuildExport(SimulationSummary{}, nil, RelationshipNetwork{}, WorldStateSummary{})
	require.NoError(t, err)
	assert.Empty(t, export.InformationFlow)
}

func TestAppendEmergentPhenomenon_AppearsInExport(t *testing.T) {
	l := openTestLedger(t)
	require.NoError(t, l.AppendEmergentPhenomenon(EmergentPhenomenonRow{Day: 5, Kind: "belief", Description: "villagers believe the well is cursed"}))

	export, err := l.BuildExport(SimulationSummary{}, nil, RelationshipNetwork{}, WorldStateSummary{})
	require.NoError(t, err)
	require.Len(t, export.EmergentPhenomena, 1)
	assert.Equal(t, "belief", export.EmergentPhenomena[0].Kind)
}

func TestFormatTreasury_HumanizesAmount(t *testing.T) {
	assert.Equal(t, "1,234", FormatTreasury(1234))
}
