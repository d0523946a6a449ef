package llmclient

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	defaultBaseURL   = "https://api.anthropic.com/v1"
	anthropicVersion = "2023-06-01"
	defaultModel     = "claude-3-5-sonnet-20241022"
	defaultMaxTokens = 1024
	maxRetryElapsed  = 2 * time.Minute
)

// HTTPClient is the concrete Client implementation calling Anthropic's
// Messages API. Context caches are modeled as in-process content keyed by a
// generated id and attached to each request via a cache_control block —
// Anthropic's prompt caching has no separate "create" call, so CreateCache
// here only registers the content locally; the first Batch request that
// references it is what actually primes the provider-side cache.
type HTTPClient struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client

	mu     sync.Mutex
	caches map[string]string // cache id -> content
}

// NewHTTPClient builds an HTTPClient. apiKey is mandatory; baseURL/model
// default to Anthropic's production endpoint and a current Sonnet model.
func NewHTTPClient(apiKey string, opts ...Option) *HTTPClient {
	c := &HTTPClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		model:   defaultModel,
		client:  &http.Client{Timeout: 120 * time.Second},
		caches:  make(map[string]string),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Option configures an HTTPClient.
type Option func(*HTTPClient)

func WithBaseURL(url string) Option { return func(c *HTTPClient) { c.baseURL = url } }
func WithModel(model string) Option { return func(c *HTTPClient) { c.model = model } }
func WithHTTPClient(h *http.Client) Option { return func(c *HTTPClient) { c.client = h } }

type anthropicContentBlock struct {
	Type         string     `json:"type"`
	Text         string     `json:"text,omitempty"`
	CacheControl *cacheCtrl `json:"cache_control,omitempty"`
}

type cacheCtrl struct {
	Type string `json:"type"` // "ephemeral"
}

type anthropicMessage struct {
	Role    string                  `json:"role"`
	Content []anthropicContentBlock `json:"content"`
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    []anthropicContentBlock `json:"system,omitempty"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// CreateCache records content under a new handle. No network call is made
// here — Anthropic primes its cache lazily from the cache_control block on
// the first request that includes the content, which Batch does when it
// sees a BatchRequest.CacheRef.
func (c *HTTPClient) CreateCache(ctx context.Context, content string, ttl time.Duration) (CacheHandle, error) {
	id, err := randomID()
	if err != nil {
		return CacheHandle{}, fmt.Errorf("generate cache id: %w", err)
	}
	c.mu.Lock()
	c.caches[id] = content
	c.mu.Unlock()
	return CacheHandle{ID: id, ExpiresAt: time.Now().Add(ttl)}, nil
}

// ReleaseCache drops the local record. Provider-side ephemeral caches expire
// on their own TTL; this only prevents the local map from growing unbounded
// across a long-running process.
func (c *HTTPClient) ReleaseCache(ctx context.Context, handle CacheHandle) error {
	c.mu.Lock()
	delete(c.caches, handle.ID)
	c.mu.Unlock()
	return nil
}

// CountTokens estimates tokens at roughly 4 characters per token, the same
// rough heuristic used across the corpus where no tokenizer is vendored.
func (c *HTTPClient) CountTokens(content string) int {
	return len(content) / 4
}

// Batch issues one HTTP call per request. Anthropic's Messages API has no
// native multi-item batch request shape for arbitrary independent prompts,
// so each request is sent with bounded concurrency; callers rely on Key,
// not response order, to reconcile results, matching the batch contract a
// true batch endpoint would also require.
func (c *HTTPClient) Batch(ctx context.Context, reqs []BatchRequest) ([]BatchResponse, error) {
	results := make([]BatchResponse, len(reqs))
	var wg sync.WaitGroup
	sem := make(chan struct{}, 8)

	for i, req := range reqs {
		i, req := i, req
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = c.doOne(ctx, req)
		}()
	}
	wg.Wait()
	return results, nil
}

func (c *HTTPClient) doOne(ctx context.Context, req BatchRequest) BatchResponse {
	var system []anthropicContentBlock
	if req.CacheRef != nil {
		c.mu.Lock()
		content := c.caches[req.CacheRef.ID]
		c.mu.Unlock()
		system = append(system, anthropicContentBlock{
			Type: "text", Text: content, CacheControl: &cacheCtrl{Type: "ephemeral"},
		})
	}

	body := anthropicRequest{
		Model:     c.model,
		MaxTokens: defaultMaxTokens,
		System:    system,
		Messages: []anthropicMessage{{
			Role:    "user",
			Content: []anthropicContentBlock{{Type: "text", Text: req.Prompt}},
		}},
	}

	var respJSON json.RawMessage
	op := func() error {
		resp, err := c.send(ctx, body)
		if err != nil {
			return err
		}
		respJSON = resp
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = maxRetryElapsed
	if err := backoff.Retry(op, backoff.WithContext(bo, ctx)); err != nil {
		return BatchResponse{Key: req.Key, Err: err}
	}
	return BatchResponse{Key: req.Key, JSON: respJSON}
}

func (c *HTTPClient) send(ctx context.Context, body anthropicRequest) (json.RawMessage, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("marshal request: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/messages", bytes.NewReader(payload))
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("build request: %w", err))
	}
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", anthropicVersion)
	httpReq.Header.Set("anthropic-beta", "prompt-caching-2024-07-31")
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return nil, fmt.Errorf("retryable status %d: %s", resp.StatusCode, string(respBody))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, backoff.Permanent(fmt.Errorf("status %d: %s", resp.StatusCode, string(respBody)))
	}

	var parsed anthropicResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, backoff.Permanent(fmt.Errorf("unmarshal response: %w", err))
	}
	if len(parsed.Content) == 0 {
		return nil, backoff.Permanent(fmt.Errorf("empty response content"))
	}
	return json.RawMessage(parsed.Content[0].Text), nil
}

func randomID() (string, error) {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
