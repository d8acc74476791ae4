package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thistlewood/emberfall/internal/gametime"
	"github.com/thistlewood/emberfall/internal/oracle"
)

func TestProcessEmbeddings_AssignsVectorsAndDrainsQueue(t *testing.T) {
	s := New(0)
	e := s.Add("the harvest was good this year", TypeEvent, 8, gametime.Zero)
	require.Equal(t, 1, s.EmbedQueueLen())

	stub := &oracle.Stub{
		EmbedResponses: [][]float64{{0.1, 0.2, 0.3}},
	}
	s.ProcessEmbeddings(context.Background(), stub)

	assert.Equal(t, 0, s.EmbedQueueLen())
	assert.Equal(t, []float64{0.1, 0.2, 0.3}, e.Embedding)
}

func TestProcessEmbeddings_RetriesOnNilVector(t *testing.T) {
	s := New(0)
	s.Add("an event worth embedding", TypeEvent, 7, gametime.Zero)

	stub := &oracle.Stub{
		EmbedErrors: []error{assertErr("embedding unavailable")},
	}
	s.ProcessEmbeddings(context.Background(), stub)

	assert.Equal(t, 1, s.EmbedQueueLen(), "failed embeds must stay queued for retry")
}

func TestProcessEmbeddings_NoOpWhenOracleCannotEmbed(t *testing.T) {
	s := New(0)
	s.Add("an event worth embedding", TypeEvent, 7, gametime.Zero)

	s.ProcessEmbeddings(context.Background(), oracle.Offline{})
	assert.Equal(t, 1, s.EmbedQueueLen())
}

type assertErr string

func (e assertErr) Error() string { return string(e) }
