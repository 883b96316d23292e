package mutation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/RonniRodriguez/idea-inc/internal/simmodel"
)

const (
	apiURL     = "https://api.anthropic.com/v1/messages"
	apiVersion = "2023-06-01"
	model      = "claude-haiku-4-5-20251001"
)

// LLMClient wraps the Anthropic Messages API for idea-text rewrites,
// adapted from the teacher's Haiku narration client.
type LLMClient struct {
	apiKey     string
	httpClient *http.Client

	mu        sync.Mutex
	callCount int
	resetAt   time.Time
	maxPerMin int
}

// NewLLMClient creates an LLM client. Returns nil if apiKey is empty
// (LLM-backed mutation disabled — callers should use Deterministic directly).
func NewLLMClient(apiKey string) *LLMClient {
	if apiKey == "" {
		return nil
	}
	return &LLMClient{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		maxPerMin:  20,
	}
}

func (c *LLMClient) Enabled() bool {
	return c != nil && c.apiKey != ""
}

type llmRequest struct {
	Model     string `json:"model"`
	MaxTokens int    `json:"max_tokens"`
	System    string `json:"system,omitempty"`
	Messages  []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

type llmResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
}

func (c *LLMClient) complete(system, prompt string) (string, error) {
	if !c.Enabled() {
		return "", fmt.Errorf("llm client not configured")
	}

	c.mu.Lock()
	now := time.Now()
	if now.After(c.resetAt) {
		c.callCount = 0
		c.resetAt = now.Add(time.Minute)
	}
	if c.callCount >= c.maxPerMin {
		c.mu.Unlock()
		return "", fmt.Errorf("mutation LLM rate limit exceeded (%d calls/min)", c.maxPerMin)
	}
	c.callCount++
	c.mu.Unlock()

	req := llmRequest{Model: model, MaxTokens: 120, System: system}
	req.Messages = append(req.Messages, struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}{Role: "user", Content: prompt})

	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal mutation request: %w", err)
	}

	httpReq, err := http.NewRequest("POST", apiURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create mutation request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", apiVersion)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("mutation API call: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read mutation response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("mutation API error %d: %s", resp.StatusCode, string(respBody))
	}

	var parsed llmResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("unmarshal mutation response: %w", err)
	}
	if len(parsed.Content) == 0 {
		return "", fmt.Errorf("empty mutation response")
	}
	return parsed.Content[0].Text, nil
}

// LLMBacked decorates Deterministic with an LLM rewrite of the idea text.
// On any error from the LLM call it falls through to Deterministic, so a
// mutation never fails because of the external dependency; a call can
// still wait up to the HTTP client's 10-second timeout.
type LLMBacked struct {
	client *LLMClient
	base   Deterministic
}

// NewLLMBacked wraps client in a Provider. Pass a nil client to get a
// Provider that always falls back to Deterministic (equivalent to using
// Deterministic directly, but convenient for uniform wiring in callers).
func NewLLMBacked(client *LLMClient) *LLMBacked {
	return &LLMBacked{client: client}
}

func (p *LLMBacked) Mutate(parent *simmodel.Idea, kind simmodel.MutationType, rng *rand.Rand) Result {
	fallback := p.base.Mutate(parent, kind, rng)
	if !p.client.Enabled() {
		return fallback
	}

	system := "Rewrite the following idea text as a short, punchy social-media-style restatement. Reply with only the rewritten text, no preamble."
	text, err := p.client.complete(system, parent.Text)
	if err != nil {
		slog.Warn("mutation LLM call failed, using deterministic fallback", "error", err)
		return fallback
	}

	fallback.Text = text
	return fallback
}
