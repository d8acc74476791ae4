package oracle

import "context"

// Offline is the zero-value Oracle: HasAnyKey/CanEmbed are false,
// Generate, Chat and Embed fail with KindOther, and EmbedBatch returns a
// nil vector for every text without an error. Every feature built on Oracle must fall
// through to its deterministic offline path when given this oracle
// (spec.md §7, "Oracle unavailable").
type Offline struct{}

func (Offline) Generate(context.Context, string, string, GenOpts) (any, error) {
	return nil, &Error{Kind: KindOther, Err: errOffline}
}
func (Offline) Chat(context.Context, string, []Message, GenOpts) (string, error) {
	return "", &Error{Kind: KindOther, Err: errOffline}
}
func (Offline) Embed(context.Context, string) ([]float64, error) {
	return nil, &Error{Kind: KindOther, Err: errOffline}
}
func (Offline) EmbedBatch(_ context.Context, texts []string) ([]*[]float64, error) {
	return make([]*[]float64, len(texts)), nil
}
func (Offline) HasAnyKey() bool     { return false }
func (Offline) CanEmbed() bool      { return false }
func (Offline) IsRateLimited() bool { return false }

var errOffline = offlineError("oracle: no key configured")

type offlineError string

func (e offlineError) Error() string { return string(e) }

// Stub is a deterministic, scriptable Oracle for tests: each call to
// Generate/Chat/Embed pops the next queued response (or error) in FIFO
// order. It lets reflection/conversation tests exercise the exact
// end-to-end scenarios named in spec.md §8 without a network dependency.
type Stub struct {
	GenResponses   []any
	GenErrors      []error
	ChatResponses  []string
	ChatErrors     []error
	EmbedResponses [][]float64
	EmbedErrors    []error
	RateLimited    bool
	NoKey          bool

	genIdx, chatIdx, embedIdx int
}

func (s *Stub) HasAnyKey() bool     { return !s.NoKey }
func (s *Stub) CanEmbed() bool      { return !s.NoKey }
func (s *Stub) IsRateLimited() bool { return s.RateLimited }

func (s *Stub) Generate(context.Context, string, string, GenOpts) (any, error) {
	if s.genIdx < len(s.GenErrors) && s.GenErrors[s.genIdx] != nil {
		err := s.GenErrors[s.genIdx]
		s.genIdx++
		return nil, err
	}
	if s.genIdx >= len(s.GenResponses) {
		return nil, &Error{Kind: KindOther, Err: errOffline}
	}
	v := s.GenResponses[s.genIdx]
	s.genIdx++
	return v, nil
}

func (s *Stub) Chat(context.Context, string, []Message, GenOpts) (string, error) {
	if s.chatIdx < len(s.ChatErrors) && s.ChatErrors[s.chatIdx] != nil {
		err := s.ChatErrors[s.chatIdx]
		s.chatIdx++
		return "", err
	}
	if s.chatIdx >= len(s.ChatResponses) {
		return "", &Error{Kind: KindOther, Err: errOffline}
	}
	v := s.ChatResponses[s.chatIdx]
	s.chatIdx++
	return v, nil
}

func (s *Stub) Embed(context.Context, string) ([]float64, error) {
	if s.embedIdx < len(s.EmbedErrors) && s.EmbedErrors[s.embedIdx] != nil {
		err := s.EmbedErrors[s.embedIdx]
		s.embedIdx++
		return nil, err
	}
	if s.embedIdx >= len(s.EmbedResponses) {
		return nil, &Error{Kind: KindOther, Err: errOffline}
	}
	v := s.EmbedResponses[s.embedIdx]
	s.embedIdx++
	return v, nil
}

func (s *Stub) EmbedBatch(ctx context.Context, texts []string) ([]*[]float64, error) {
	out := make([]*[]float64, len(texts))
	for i := range texts {
		v, err := s.Embed(ctx, texts[i])
		if err != nil {
			continue
		}
		out[i] = &v
	}
	return out, nil
}
