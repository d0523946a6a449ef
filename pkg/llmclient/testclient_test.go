package llmclient

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTestClient_DropKeysOmitsFromResult(t *testing.T) {
	c := NewTestClient()
	c.DropKeys = map[string]bool{"item-2": true}

	results, err := c.Batch(context.Background(), []BatchRequest{
		{Key: "item-1"}, {Key: "item-2"}, {Key: "item-3"},
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, r := range results {
		require.NotEqual(t, "item-2", r.Key)
	}
}

func TestTestClient_DefaultRespondEchoesKey(t *testing.T) {
	c := NewTestClient()
	results, err := c.Batch(context.Background(), []BatchRequest{{Key: "item-1"}})
	require.NoError(t, err)
	require.Len(t, results, 1)

	var parsed SummaryResult
	require.NoError(t, json.Unmarshal(results[0].JSON, &parsed))
	require.Equal(t, "summary for item-1", parsed.Summary)
}

func TestTestClient_CreateCacheAssignsUniqueIDs(t *testing.T) {
	c := NewTestClient()
	h1, err := c.CreateCache(context.Background(), "a", 0)
	require.NoError(t, err)
	h2, err := c.CreateCache(context.Background(), "b", 0)
	require.NoError(t, err)
	require.NotEqual(t, h1.ID, h2.ID)
}
