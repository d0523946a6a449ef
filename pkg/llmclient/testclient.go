package llmclient

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"time"
)

// TestClient is a Client double for exercising the processor's key-based
// response reconciliation: it can shuffle response order and optionally drop
// keys, reproducing the batch-service behavior the processor must tolerate.
type TestClient struct {
	// Respond builds a SummaryResult for a given request. Batch calls it
	// for every request that is not dropped, so it must not be nil.
	Respond func(req BatchRequest) SummaryResult
	// Shuffle randomizes response order when true.
	Shuffle bool
	// DropKeys lists request keys to silently omit from the batch result,
	// simulating a provider that drops an item under load.
	DropKeys map[string]bool

	caches map[string]string
}

// NewTestClient builds a TestClient whose Respond returns the summary
// "summary for <key>" with the single topic "general".
func NewTestClient() *TestClient {
	return &TestClient{
		Respond: func(req BatchRequest) SummaryResult {
			return SummaryResult{Summary: "summary for " + req.Key, Topics: []string{"general"}}
		},
		caches: make(map[string]string),
	}
}

func (c *TestClient) Batch(ctx context.Context, reqs []BatchRequest) ([]BatchResponse, error) {
	var out []BatchResponse
	for _, req := range reqs {
		if c.DropKeys[req.Key] {
			continue
		}
		result := c.Respond(req)
		payload, err := json.Marshal(result)
		if err != nil {
			return nil, fmt.Errorf("marshal test response for %s: %w", req.Key, err)
		}
		out = append(out, BatchResponse{Key: req.Key, JSON: payload})
	}
	if c.Shuffle {
		rand.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	}
	return out, nil
}

func (c *TestClient) CreateCache(ctx context.Context, content string, ttl time.Duration) (CacheHandle, error) {
	id := fmt.Sprintf("test-cache-%d", len(c.caches))
	c.caches[id] = content
	return CacheHandle{ID: id, ExpiresAt: time.Now().Add(ttl)}, nil
}

func (c *TestClient) ReleaseCache(ctx context.Context, handle CacheHandle) error {
	delete(c.caches, handle.ID)
	return nil
}

func (c *TestClient) CountTokens(content string) int {
	return len(content) / 4
}
