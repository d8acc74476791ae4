// Package oracle defines the abstract text-generation and embedding
// service consumed by cognition. The real simulation treats the oracle as
// a fallible, rate-limited external collaborator — every feature built on
// top of it must keep working when it is absent or failing (spec.md §7).
package oracle

import "context"

// ErrorKind classifies why an oracle call failed, without exposing the
// wire-level error — cognition only ever branches on kind.
type ErrorKind int

const (
	// KindOther is any failure that isn't rate limiting or a timeout.
	KindOther ErrorKind = iota
	KindRateLimited
	KindTimeout
)

// Error is returned by Oracle methods on failure.
type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return "oracle error"
	}
	return e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// GenOpts controls a single generate() call.
type GenOpts struct {
	JSON        bool
	Temperature float64
	MaxTokens   int
}

// Message is one turn of chat history for the player-chat path. Cognition
// never calls Chat — it exists only to complete the collaborator surface
// named in spec.md §6.
type Message struct {
	Role    string
	Content string
}

// Oracle is the LLM-capable external service consumed by the cognition
// core. Implementations must be safe for concurrent use; the simulation
// serializes agent cycles (spec.md §5) but embedding batches and
// reflection may run alongside other subsystem calls.
type Oracle interface {
	// Generate returns parsed JSON (when opts.JSON) or raw text.
	Generate(ctx context.Context, systemPrompt, userPrompt string, opts GenOpts) (any, error)

	// Chat is used only by the out-of-scope player-chat collaborator.
	Chat(ctx context.Context, systemPrompt string, history []Message, opts GenOpts) (string, error)

	// Embed returns a dense embedding for a single string.
	Embed(ctx context.Context, text string) ([]float64, error)

	// EmbedBatch returns one embedding per input text, or nil at an index
	// whose embedding could not be produced (§4.1: missing embeddings are
	// not an error).
	EmbedBatch(ctx context.Context, texts []string) ([]*[]float64, error)

	// HasAnyKey reports whether the oracle has credentials configured at all.
	HasAnyKey() bool
	// CanEmbed reports whether embedding calls are supported right now.
	CanEmbed() bool
	// IsRateLimited is a best-effort signal; callers must still handle
	// per-call failures even when this returns false.
	IsRateLimited() bool
}
