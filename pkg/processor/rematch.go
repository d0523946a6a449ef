package processor

import (
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/engagic/core/pkg/llmclient"
)

// RematchThreshold is the minimum keyword-overlap score an assigned response
// must clear before it is trusted without a remap check. This guards
// against a provider returning responses keyed out of order.
const RematchThreshold = 0.15

// ItemRef is the minimal shape Rematch needs from an agenda item.
type ItemRef struct {
	ID    string
	Title string
}

// Rematch reconciles batch responses to items by key first, then verifies
// each assignment with a keyword-overlap check against the item's title. A
// response that fails the check is swapped for whichever unassigned or
// poorly-matching response scores highest against that item's title, if any
// candidate clears the threshold; otherwise the original key-based
// assignment is kept and a warning is logged; downstream Phase 5 still
// matches by key, so remap or not, item_id is what actually marks an item
// summarized.
func Rematch(items []ItemRef, responses []llmclient.BatchResponse) map[string]llmclient.BatchResponse {
	byKey := make(map[string]llmclient.BatchResponse, len(responses))
	for _, r := range responses {
		byKey[r.Key] = r
	}

	result := make(map[string]llmclient.BatchResponse, len(items))
	used := make(map[string]bool)

	for _, item := range items {
		assigned, ok := byKey[item.ID]
		if !ok || assigned.Err != nil {
			continue
		}
		score := keywordOverlap(item.Title, summaryText(assigned))
		if score >= RematchThreshold {
			result[item.ID] = assigned
			used[assigned.Key] = true
			continue
		}

		bestKey, bestScore := "", score
		for _, r := range responses {
			if r.Err != nil || used[r.Key] {
				continue
			}
			s := keywordOverlap(item.Title, summaryText(r))
			if s > bestScore {
				bestScore, bestKey = s, r.Key
			}
		}
		if bestKey != "" && bestScore >= RematchThreshold {
			remapped := byKey[bestKey]
			slog.Warn("processor: remapped scrambled batch response",
				"item_id", item.ID, "original_key", assigned.Key, "remapped_key", bestKey,
				"original_score", score, "remapped_score", bestScore)
			result[item.ID] = remapped
			used[bestKey] = true
			continue
		}

		slog.Warn("processor: batch response failed rematch check, keeping key-based assignment",
			"item_id", item.ID, "score", score)
		result[item.ID] = assigned
		used[assigned.Key] = true
	}
	return result
}

func summaryText(r llmclient.BatchResponse) string {
	var s llmclient.SummaryResult
	if err := json.Unmarshal(r.JSON, &s); err != nil {
		return ""
	}
	return s.Summary
}

// keywordOverlap scores the fraction of title's significant words that
// appear in summary, a cheap proxy for "this response is actually about
// this item" without needing an embedding model.
func keywordOverlap(title, summary string) float64 {
	titleWords := significantWords(title)
	if len(titleWords) == 0 {
		return 0
	}
	summaryLower := strings.ToLower(summary)

	matches := 0
	for _, w := range titleWords {
		if strings.Contains(summaryLower, w) {
			matches++
		}
	}
	return float64(matches) / float64(len(titleWords))
}

var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "of": true, "to": true, "and": true,
	"for": true, "in": true, "on": true, "at": true, "by": true, "with": true,
	"from": true, "re": true, "is": true, "or": true,
}

func significantWords(s string) []string {
	fields := strings.Fields(strings.ToLower(s))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, ".,:;()[]\"'")
		if len(f) < 3 || stopWords[f] {
			continue
		}
		out = append(out, f)
	}
	return out
}
