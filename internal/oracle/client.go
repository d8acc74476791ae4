// Anthropic-backed Oracle implementation — adapted from the teacher's
// internal/llm.Client (a single Messages-API HTTP client gated by an API
// key and a calls-per-minute token bucket).
package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

const (
	messagesURL = "https://api.anthropic.com/v1/messages"
	embedURL    = "https://api.anthropic.com/v1/embeddings"
	apiVersion  = "2023-06-01"
	chatModel   = "claude-haiku-4-5-20251001"
)

// Client is the production Oracle: HTTP calls to the Anthropic Messages
// API, with a conservative per-minute rate limiter and a fixed timeout
// per spec.md §5 ("Oracle calls carry an implicit deadline, ≤ 30s").
type Client struct {
	apiKey     string
	httpClient *http.Client
	maxPerMin  int
	embedModel string

	mu        sync.Mutex
	callCount int
	resetAt   time.Time
}

// NewClient builds a Client. Returns nil when apiKey is empty so callers
// can treat a nil *Client as "oracle unavailable" uniformly.
func NewClient(apiKey string) *Client {
	if apiKey == "" {
		return nil
	}
	return &Client{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		maxPerMin:  20,
		embedModel: "voyage-3-lite",
	}
}

func (c *Client) HasAnyKey() bool { return c != nil && c.apiKey != "" }
func (c *Client) CanEmbed() bool  { return c.HasAnyKey() }

// IsRateLimited reports whether the token bucket is currently exhausted.
func (c *Client) IsRateLimited() bool {
	if c == nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	if now.After(c.resetAt) {
		return false
	}
	return c.callCount >= c.maxPerMin
}

func (c *Client) takeSlot() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	if now.After(c.resetAt) {
		c.callCount = 0
		c.resetAt = now.Add(time.Minute)
	}
	if c.callCount >= c.maxPerMin {
		return &Error{Kind: KindRateLimited, Err: fmt.Errorf("rate limit exceeded (%d calls/min)", c.maxPerMin)}
	}
	c.callCount++
	return nil
}

type messagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system,omitempty"`
	Messages  []apiMsg  `json:"messages"`
}

type apiMsg struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
}

func (c *Client) complete(ctx context.Context, system, user string, maxTokens int) (string, error) {
	if !c.HasAnyKey() {
		return "", &Error{Kind: KindOther, Err: fmt.Errorf("oracle: no API key configured")}
	}
	if err := c.takeSlot(); err != nil {
		return "", err
	}

	reqBody := messagesRequest{
		Model:     chatModel,
		MaxTokens: maxTokens,
		System:    system,
		Messages:  []apiMsg{{Role: "user", Content: user}},
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", &Error{Kind: KindOther, Err: fmt.Errorf("marshal request: %w", err)}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, messagesURL, bytes.NewReader(body))
	if err != nil {
		return "", &Error{Kind: KindOther, Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", apiVersion)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return "", &Error{Kind: KindTimeout, Err: err}
		}
		return "", &Error{Kind: KindOther, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &Error{Kind: KindOther, Err: err}
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return "", &Error{Kind: KindRateLimited, Err: fmt.Errorf("api rate limited: %s", respBody)}
	}
	if resp.StatusCode != http.StatusOK {
		return "", &Error{Kind: KindOther, Err: fmt.Errorf("api error %d: %s", resp.StatusCode, respBody)}
	}

	var apiResp messagesResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return "", &Error{Kind: KindOther, Err: fmt.Errorf("unmarshal response: %w", err)}
	}
	if len(apiResp.Content) == 0 {
		return "", &Error{Kind: KindOther, Err: fmt.Errorf("empty response")}
	}
	return apiResp.Content[0].Text, nil
}

// Generate implements Oracle.Generate. When opts.JSON is set, the
// returned text is parsed into a generic JSON value (map/slice/scalar);
// malformed JSON is surfaced as an error so callers apply §7's
// clamp-or-drop policy rather than trusting unparsed text.
func (c *Client) Generate(ctx context.Context, system, user string, opts GenOpts) (any, error) {
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 600
	}
	text, err := c.complete(ctx, system, user, maxTokens)
	if err != nil {
		return nil, err
	}
	if !opts.JSON {
		return text, nil
	}
	val, perr := extractJSON(text)
	if perr != nil {
		return nil, &Error{Kind: KindOther, Err: perr}
	}
	return val, nil
}

// Chat implements the out-of-scope player-chat surface; cognition never
// calls it, but it completes the Oracle interface named in spec.md §6.
func (c *Client) Chat(ctx context.Context, system string, history []Message, opts GenOpts) (string, error) {
	var user string
	if len(history) > 0 {
		user = history[len(history)-1].Content
	}
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 400
	}
	return c.complete(ctx, system, user, maxTokens)
}

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
}

// Embed implements Oracle.Embed.
func (c *Client) Embed(ctx context.Context, text string) ([]float64, error) {
	results, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(results) == 0 || results[0] == nil {
		return nil, &Error{Kind: KindOther, Err: fmt.Errorf("no embedding returned")}
	}
	return *results[0], nil
}

// EmbedBatch implements Oracle.EmbedBatch. A failed call fails the whole
// batch (the caller retries on the next invocation per spec.md §4.1); a
// successful call with a short result vector pads the remainder with nil.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([]*[]float64, error) {
	if !c.HasAnyKey() {
		return nil, &Error{Kind: KindOther, Err: fmt.Errorf("oracle: no API key configured")}
	}
	if err := c.takeSlot(); err != nil {
		return nil, err
	}

	reqBody := embedRequest{Model: c.embedModel, Input: texts}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, &Error{Kind: KindOther, Err: err}
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, embedURL, bytes.NewReader(body))
	if err != nil {
		return nil, &Error{Kind: KindOther, Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", apiVersion)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, &Error{Kind: KindTimeout, Err: err}
		}
		return nil, &Error{Kind: KindOther, Err: err}
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Kind: KindOther, Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &Error{Kind: KindOther, Err: fmt.Errorf("embed api error %d: %s", resp.StatusCode, respBody)}
	}

	var apiResp embedResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return nil, &Error{Kind: KindOther, Err: err}
	}
	out := make([]*[]float64, len(texts))
	for i := range texts {
		if i < len(apiResp.Data) {
			v := apiResp.Data[i].Embedding
			out[i] = &v
		}
	}
	return out, nil
}

func extractJSON(text string) (any, error) {
	start := -1
	for i, r := range text {
		if r == '{' || r == '[' {
			start = i
			break
		}
	}
	if start == -1 {
		return nil, fmt.Errorf("no JSON value found in response")
	}
	var lastObj, lastArr int = -1, -1
	for i := len(text) - 1; i >= 0; i-- {
		if text[i] == '}' && lastObj == -1 {
			lastObj = i
		}
		if text[i] == ']' && lastArr == -1 {
			lastArr = i
		}
		if lastObj != -1 && lastArr != -1 {
			break
		}
	}
	end := lastObj
	if lastArr > end {
		end = lastArr
	}
	if end == -1 || end <= start {
		return nil, fmt.Errorf("unterminated JSON value in response")
	}

	var val any
	if err := json.Unmarshal([]byte(text[start:end+1]), &val); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}
	return val, nil
}
