// Package llmclient abstracts the batched summarization calls the processor
// makes against an LLM provider, including the explicit context-cache
// primitive used to avoid re-sending a meeting's shared documents in every
// item request.
package llmclient

import (
	"context"
	"encoding/json"
	"time"
)

// BatchRequest is one item's summarization request within a batch call. Key
// is the stable identifier (an item_id) responses are matched back by —
// batch order is never assumed.
type BatchRequest struct {
	Key            string
	Prompt         string
	ResponseSchema json.RawMessage
	CacheRef       *CacheHandle // nil when the meeting context was inlined instead of cached
}

// BatchResponse is one item's result. Err is set instead of JSON when the
// provider failed that specific request; a batch call itself only returns
// an error for transport-level failures affecting the whole call.
type BatchResponse struct {
	Key  string
	JSON json.RawMessage
	Err  error
}

// SummaryResult is the structured shape every BatchResponse.JSON decodes
// into.
type SummaryResult struct {
	Summary string   `json:"summary"`
	Topics  []string `json:"topics"`
}

// CacheHandle references a provider-side context cache created by
// CreateCache. It is opaque to callers beyond passing it back into a
// BatchRequest or Release.
type CacheHandle struct {
	ID        string
	ExpiresAt time.Time
}

// Client is the capability set the processor needs from an LLM provider.
type Client interface {
	// Batch submits reqs as a single batched call and returns one response
	// per request, in unspecified order. len(result) may be less than
	// len(reqs) if the provider drops a key — callers must reconcile by Key,
	// never by index or count.
	Batch(ctx context.Context, reqs []BatchRequest) ([]BatchResponse, error)

	// CreateCache uploads content as a provider-side context cache valid for
	// ttl, returning a handle subsequent Batch calls can reference instead
	// of repeating content inline.
	CreateCache(ctx context.Context, content string, ttl time.Duration) (CacheHandle, error)

	// ReleaseCache deletes a cache early. Safe to call on an already-expired
	// or already-released handle.
	ReleaseCache(ctx context.Context, handle CacheHandle) error

	// CountTokens estimates content's token count, used to decide whether a
	// meeting context is large enough to warrant CreateCache.
	CountTokens(content string) int
}
