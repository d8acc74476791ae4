package cognition

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBatchSize_AdaptsToSignals(t *testing.T) {
	assert.Equal(t, 1, BatchSize(true, 0))
	assert.Equal(t, 1, BatchSize(false, 5))
	assert.Equal(t, 2, BatchSize(false, 3))
	assert.Equal(t, 3, BatchSize(false, 0))
}

func TestNextBatch_PrioritizedAgentsJumpQueue(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	queue := []string{"Ana", "Finn", "Mara", "Tom"}
	priority := map[string]bool{"Tom": true}

	batch, remaining := NextBatch(queue, priority, 2, rng)
	assert.Equal(t, "Tom", batch[0])
	assert.Len(t, batch, 2)
	assert.Len(t, remaining, 2)
}

func TestNextBatch_CapsAtQueueLength(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	queue := []string{"Ana"}
	batch, remaining := NextBatch(queue, nil, 5, rng)
	assert.Len(t, batch, 1)
	assert.Empty(t, remaining)
}
