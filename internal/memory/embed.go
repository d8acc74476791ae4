package memory

import (
	"context"
	"log/slog"

	"github.com/thistlewood/emberfall/internal/oracle"
)

// maxEmbedBatch caps how many queued entries ProcessEmbeddings sends to
// the oracle per call, so one slow or rate-limited batch can't stall a
// cognitive tick (spec.md §4.1, embedding queue).
const maxEmbedBatch = 20

// ProcessEmbeddings drains up to maxEmbedBatch entries from the front of
// the embedding queue, in FIFO order, and assigns the returned vectors.
// Entries the oracle couldn't embed (nil result, or the batch call
// failing outright) stay queued for a later retry. Failures are logged,
// never surfaced as an error — memory retrieval always has the keyword
// fallback, so a stalled embedding queue degrades relevance quality
// rather than breaking the cognitive cycle.
func (s *Stream) ProcessEmbeddings(ctx context.Context, o oracle.Oracle) {
	if len(s.embedQueue) == 0 || !o.CanEmbed() {
		return
	}

	n := len(s.embedQueue)
	if n > maxEmbedBatch {
		n = maxEmbedBatch
	}
	batch := s.embedQueue[:n]

	texts := make([]string, len(batch))
	for i, id := range batch {
		if e := s.byID[id]; e != nil {
			texts[i] = e.Description
		}
	}

	vectors, err := o.EmbedBatch(ctx, texts)
	if err != nil {
		slog.Warn("memory: embed batch failed, retrying later", "error", err, "batch", len(batch))
		return
	}

	var retry []string
	for i, id := range batch {
		e := s.byID[id]
		if e == nil {
			continue // entry was pruned since enqueue
		}
		if i >= len(vectors) || vectors[i] == nil {
			retry = append(retry, id)
			continue
		}
		e.Embedding = *vectors[i]
	}

	s.embedQueue = append(retry, s.embedQueue[n:]...)
}
