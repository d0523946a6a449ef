package processor

import (
	"encoding/json"
	"testing"

	"github.com/engagic/core/pkg/llmclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func responseFor(t *testing.T, key, summary string) llmclient.BatchResponse {
	t.Helper()
	b, err := json.Marshal(llmclient.SummaryResult{Summary: summary, Topics: nil})
	require.NoError(t, err)
	return llmclient.BatchResponse{Key: key, JSON: b}
}

func TestRematch_CorrectKeyAssignmentAccepted(t *testing.T) {
	items := []ItemRef{{ID: "item-1", Title: "Approve budget amendment"}}
	responses := []llmclient.BatchResponse{responseFor(t, "item-1", "The council approved the budget amendment for fiscal year 2026.")}

	result := Rematch(items, responses)
	require.Contains(t, result, "item-1")
}

func TestRematch_ScrambledResponsesRemappedByKeywordOverlap(t *testing.T) {
	items := []ItemRef{
		{ID: "item-1", Title: "Approve zoning variance for Oak Street"},
		{ID: "item-2", Title: "Adopt water rate increase ordinance"},
	}
	// Responses swapped: item-1's key carries item-2's content and vice versa.
	responses := []llmclient.BatchResponse{
		responseFor(t, "item-1", "The council adopted a water rate increase ordinance effective next quarter."),
		responseFor(t, "item-2", "The council approved a zoning variance for the Oak Street property."),
	}

	result := Rematch(items, responses)

	var r1 llmclient.SummaryResult
	require.NoError(t, json.Unmarshal(result["item-1"].JSON, &r1))
	assert.Contains(t, r1.Summary, "zoning variance")

	var r2 llmclient.SummaryResult
	require.NoError(t, json.Unmarshal(result["item-2"].JSON, &r2))
	assert.Contains(t, r2.Summary, "water rate")
}

func TestRematch_NoCandidateClearsThresholdKeepsOriginal(t *testing.T) {
	items := []ItemRef{{ID: "item-1", Title: "Approve zoning variance for Oak Street"}}
	responses := []llmclient.BatchResponse{responseFor(t, "item-1", "Completely unrelated text about nothing in particular.")}

	result := Rematch(items, responses)
	require.Contains(t, result, "item-1")
}

func TestKeywordOverlap_EmptyTitleScoresZero(t *testing.T) {
	assert.Equal(t, 0.0, keywordOverlap("", "some summary"))
}
