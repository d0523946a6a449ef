package llmclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestHTTPClient_BatchSendsRequestsAndMatchesByKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/messages", r.URL.Path)
		require.Equal(t, "test-key", r.Header.Get("x-api-key"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"content":[{"type":"text","text":"{\"summary\":\"ok\",\"topics\":[\"budget\"]}"}],"usage":{"input_tokens":10,"output_tokens":5}}`))
	}))
	t.Cleanup(srv.Close)

	c := NewHTTPClient("test-key", WithBaseURL(srv.URL))
	reqs := []BatchRequest{
		{Key: "item-1", Prompt: "summarize item 1"},
		{Key: "item-2", Prompt: "summarize item 2"},
	}
	results, err := c.Batch(context.Background(), reqs)
	require.NoError(t, err)
	require.Len(t, results, 2)

	byKey := make(map[string]BatchResponse, len(results))
	for _, r := range results {
		byKey[r.Key] = r
	}
	for _, key := range []string{"item-1", "item-2"} {
		res, ok := byKey[key]
		require.True(t, ok)
		require.NoError(t, res.Err)
		var parsed SummaryResult
		require.NoError(t, json.Unmarshal(res.JSON, &parsed))
		require.Equal(t, "ok", parsed.Summary)
	}
}

func TestHTTPClient_BatchSurfacesPermanentErrorPerKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error": "bad request"}`))
	}))
	t.Cleanup(srv.Close)

	c := NewHTTPClient("test-key", WithBaseURL(srv.URL))
	results, err := c.Batch(context.Background(), []BatchRequest{{Key: "item-1", Prompt: "x"}})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Error(t, results[0].Err)
}

func TestHTTPClient_CreateAndReleaseCache(t *testing.T) {
	c := NewHTTPClient("test-key")
	handle, err := c.CreateCache(context.Background(), "shared meeting context", time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, handle.ID)
	require.True(t, handle.ExpiresAt.After(time.Now()))

	c.mu.Lock()
	_, ok := c.caches[handle.ID]
	c.mu.Unlock()
	require.True(t, ok)

	require.NoError(t, c.ReleaseCache(context.Background(), handle))
	c.mu.Lock()
	_, ok = c.caches[handle.ID]
	c.mu.Unlock()
	require.False(t, ok)
}

func TestHTTPClient_BatchAttachesCacheControlForCacheRef(t *testing.T) {
	var sawCacheControl bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body anthropicRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		for _, blk := range body.System {
			if blk.CacheControl != nil {
				sawCacheControl = true
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"content":[{"type":"text","text":"{}"}],"usage":{}}`))
	}))
	t.Cleanup(srv.Close)

	c := NewHTTPClient("test-key", WithBaseURL(srv.URL))
	handle, err := c.CreateCache(context.Background(), "shared context", time.Hour)
	require.NoError(t, err)

	_, err = c.Batch(context.Background(), []BatchRequest{{Key: "item-1", Prompt: "x", CacheRef: &handle}})
	require.NoError(t, err)
	require.True(t, sawCacheControl)
}

func TestHTTPClient_CountTokens(t *testing.T) {
	c := NewHTTPClient("test-key")
	require.Equal(t, 3, c.CountTokens("twelve char!"))
}

func TestWithModel(t *testing.T) {
	c := NewHTTPClient("test-key", WithModel("claude-3-opus"))
	require.Equal(t, "claude-3-opus", c.model)
}
