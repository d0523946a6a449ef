// Package processor implements the LLM summarization pipeline: version
// filtering, shared/item-specific document deduplication, context-cache
// partitioning, batched LLM submission keyed by item id, and persistence of
// summaries back through the store.
package processor

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/engagic/core/pkg/extractor"
	"github.com/engagic/core/pkg/llmclient"
	"github.com/engagic/core/pkg/models"
	"github.com/engagic/core/pkg/store"
)

// CacheTokenThreshold is the meeting-context size (in estimated tokens)
// above which an explicit LLM context cache is created instead of inlining
// the context in every item prompt.
const CacheTokenThreshold = 1024

// CacheTTL is how long a meeting's context cache lives once created.
const CacheTTL = 1 * time.Hour

// itemsSourcePrefix is the sentinel scheme the Fetcher enqueues item-based
// meetings under; the Processor resolves it via the job's MeetingJobPayload
// rather than parsing the URL.
const itemsSourcePrefix = "items://"

// Processor dequeues and executes jobs from the priority queue.
type Processor struct {
	store     *store.Store
	extractor *extractor.Extractor
	llm       llmclient.Client
}

// New builds a Processor.
func New(st *store.Store, ex *extractor.Extractor, llm llmclient.Client) *Processor {
	return &Processor{store: st, extractor: ex, llm: llm}
}

// ProcessNext dequeues and executes a single job, reporting whether a job
// was available. Every job is handled as a meeting job: execute does not
// branch on the job type and fails any job without a meeting payload.
func (p *Processor) ProcessNext(ctx context.Context) (bool, error) {
	var job *models.QueueJob
	err := store.With(ctx, p.store.DB(), func(tx *sql.Tx) error {
		jobs, err := p.store.Queue.GetNextForProcessing(ctx, tx, nil, 1)
		if err != nil {
			return fmt.Errorf("dequeue: %w", err)
		}
		if len(jobs) == 0 {
			return nil
		}
		job = &jobs[0]
		return nil
	})
	if err != nil {
		return false, err
	}
	if job == nil {
		return false, nil
	}

	if err := p.execute(ctx, *job); err != nil {
		// Extraction and LLM failures are transient by default (network,
		// rate limit, timeout) — the retry ladder in MarkFailed bounds how
		// many times a genuinely broken job gets retried before dead-letter.
		if markErr := p.store.Queue.MarkFailed(ctx, p.store.DB(), job.ID, err, true); markErr != nil {
			slog.Error("processor: failed to mark job failed", "job_id", job.ID, "error", markErr)
		}
		return true, err
	}

	if err := p.store.Queue.MarkComplete(ctx, p.store.DB(), job.ID); err != nil {
		return true, fmt.Errorf("mark job %d complete: %w", job.ID, err)
	}
	return true, nil
}

func (p *Processor) execute(ctx context.Context, job models.QueueJob) error {
	if job.Payload.MeetingJob == nil {
		return fmt.Errorf("job %d has no meeting payload", job.ID)
	}
	meetingID := job.Payload.MeetingJob.MeetingID

	meeting, err := p.store.Meetings.Get(ctx, p.store.DB(), meetingID)
	if err != nil {
		return fmt.Errorf("load meeting %s: %w", meetingID, err)
	}

	items, err := p.store.Items.ByMeeting(ctx, p.store.DB(), meetingID)
	if err != nil {
		return fmt.Errorf("load items for meeting %s: %w", meetingID, err)
	}

	start := time.Now()
	if strings.HasPrefix(job.SourceURL, itemsSourcePrefix) && len(items) > 0 {
		return p.processItemLevel(ctx, meeting, items, start)
	}
	return p.processMonolithic(ctx, meeting, job.SourceURL, start)
}

// processItemLevel runs the full five-phase pipeline (version filtering,
// attachment partitioning, context caching, batched submission, persistence)
// for a meeting whose agenda was parsed into individual items.
func (p *Processor) processItemLevel(ctx context.Context, meeting models.Meeting, items []models.AgendaItem, start time.Time) error {
	candidates := make([]models.AgendaItem, 0, len(items))
	for i := range items {
		items[i].Attachments = FilterVersions(items[i].Attachments)
		if p.needsSummarization(ctx, items[i]) {
			candidates = append(candidates, items[i])
		}
	}

	if len(candidates) == 0 {
		return p.finalizeMeeting(ctx, meeting.ID, items, start, fmt.Sprintf("item_level_%d_items", len(items)))
	}

	partition := PartitionAttachments(items)

	sharedContext, err := p.extractAndJoin(ctx, partition.SharedURLs)
	if err != nil {
		return fmt.Errorf("extract shared documents for meeting %s: %w", meeting.ID, err)
	}

	var cacheHandle *llmclient.CacheHandle
	useCache := sharedContext != "" && p.llm.CountTokens(sharedContext) > CacheTokenThreshold
	if useCache {
		h, err := p.llm.CreateCache(ctx, sharedContext, CacheTTL)
		if err != nil {
			return fmt.Errorf("create context cache for meeting %s: %w", meeting.ID, err)
		}
		cacheHandle = &h
		defer func() {
			if relErr := p.llm.ReleaseCache(context.Background(), h); relErr != nil {
				slog.Warn("processor: failed to release context cache", "meeting_id", meeting.ID, "cache_id", h.ID, "error", relErr)
			}
		}()
	}

	reqs := make([]llmclient.BatchRequest, 0, len(candidates))
	pageCounts := make(map[string]int, len(candidates))
	for _, item := range candidates {
		itemText, pages, err := p.extractAndJoinCounted(ctx, partition.ItemURLs[item.ID])
		if err != nil {
			return fmt.Errorf("extract documents for item %s: %w", item.ID, err)
		}
		pageCounts[item.ID] = pages

		prompt := BuildItemPrompt(item.Title, itemText, sharedContext, pages, useCache)
		req := llmclient.BatchRequest{
			Key:            item.ID,
			Prompt:         prompt,
			ResponseSchema: json.RawMessage(responseSchemaJSON),
		}
		if useCache {
			req.CacheRef = cacheHandle
		}
		reqs = append(reqs, req)
	}

	responses, err := p.llm.Batch(ctx, reqs)
	if err != nil {
		return fmt.Errorf("batch LLM call for meeting %s: %w", meeting.ID, err)
	}

	refs := make([]ItemRef, len(candidates))
	for i, item := range candidates {
		refs[i] = ItemRef{ID: item.ID, Title: item.Title}
	}
	assignments := Rematch(refs, responses)

	var failed []string
	for _, item := range candidates {
		resp, ok := assignments[item.ID]
		if !ok || resp.Err != nil {
			slog.Warn("processor: no usable response for item", "item_id", item.ID)
			failed = append(failed, item.ID)
			continue
		}
		var result llmclient.SummaryResult
		if err := json.Unmarshal(resp.JSON, &result); err != nil {
			slog.Warn("processor: failed to parse LLM response", "item_id", item.ID, "error", err)
			failed = append(failed, item.ID)
			continue
		}
		if err := p.store.Items.ApplySummary(ctx, p.store.DB(), item.ID, result.Summary, result.Topics); err != nil {
			return fmt.Errorf("apply summary to item %s: %w", item.ID, err)
		}
		if item.MatterID != nil {
			if _, err := p.store.Matters.ApplyCanonicalSummary(ctx, p.store.DB(), *item.MatterID, result.Summary, result.Topics); err != nil {
				return fmt.Errorf("apply canonical summary to matter %s: %w", *item.MatterID, err)
			}
		}
	}

	// Items that did land a summary above are persisted regardless; a
	// dropped or errored response still fails the job so it re-enters the
	// retry ladder instead of being marked complete with a permanently
	// NULL summary.
	if len(failed) > 0 {
		return fmt.Errorf("missing response for %d of %d items: %s", len(failed), len(candidates), strings.Join(failed, ","))
	}

	refreshed, err := p.store.Items.ByMeeting(ctx, p.store.DB(), meeting.ID)
	if err != nil {
		return fmt.Errorf("reload items for meeting %s: %w", meeting.ID, err)
	}
	return p.finalizeMeeting(ctx, meeting.ID, refreshed, start, fmt.Sprintf("item_level_%d_items", len(items)))
}

// needsSummarization applies three filters before an item is sent to the
// LLM: skip procedural items, items already summarized, and items whose matter
// already carries a canonical summary. In the last case the matter's
// canonical summary and topics are written to the item here, which covers
// items that first appear after their matter's fan-out ran; if that write
// fails, the item is sent to the LLM instead.
func (p *Processor) needsSummarization(ctx context.Context, item models.AgendaItem) bool {
	if item.Procedural {
		return false
	}
	if item.Summary != nil && *item.Summary != "" {
		return false
	}
	if item.MatterID != nil {
		matter, err := p.store.Matters.Get(ctx, p.store.DB(), *item.MatterID)
		if err == nil && matter.CanonicalSummary != nil && *matter.CanonicalSummary != "" {
			if err := p.store.Items.ApplySummary(ctx, p.store.DB(), item.ID, *matter.CanonicalSummary, matter.CanonicalTopics); err != nil {
				slog.Warn("processor: failed to apply canonical matter summary to item", "item_id", item.ID, "matter_id", *item.MatterID, "error", err)
				return true
			}
			return false
		}
	}
	return true
}

func (p *Processor) extractAndJoin(ctx context.Context, urls []string) (string, error) {
	text, _, err := p.extractAndJoinCounted(ctx, urls)
	return text, err
}

func (p *Processor) extractAndJoinCounted(ctx context.Context, urls []string) (string, int, error) {
	var parts []string
	totalPages := 0
	for _, url := range urls {
		text, pages, err := p.extractor.Extract(ctx, url)
		if err != nil {
			slog.Warn("processor: failed to extract document, skipping", "url", url, "error", err)
			continue
		}
		parts = append(parts, text)
		totalPages += pages
	}
	return strings.Join(parts, "\n\n"), totalPages, nil
}

// processMonolithic is the no-items fallback: extract the packet PDF once
// and ask for a single meeting-level summary.
func (p *Processor) processMonolithic(ctx context.Context, meeting models.Meeting, packetURL string, start time.Time) error {
	if packetURL == "" {
		return fmt.Errorf("meeting %s has no packet_url for monolithic processing", meeting.ID)
	}
	text, _, err := p.extractor.Extract(ctx, packetURL)
	if err != nil {
		return fmt.Errorf("extract packet for meeting %s: %w", meeting.ID, err)
	}

	prompt := BuildMonolithicPrompt(meeting.Title, text)
	responses, err := p.llm.Batch(ctx, []llmclient.BatchRequest{{
		Key: meeting.ID, Prompt: prompt, ResponseSchema: json.RawMessage(responseSchemaJSON),
	}})
	if err != nil {
		return fmt.Errorf("monolithic LLM call for meeting %s: %w", meeting.ID, err)
	}
	if len(responses) == 0 || responses[0].Err != nil {
		return fmt.Errorf("monolithic LLM call for meeting %s returned no usable response", meeting.ID)
	}

	var result llmclient.SummaryResult
	if err := json.Unmarshal(responses[0].JSON, &result); err != nil {
		return fmt.Errorf("parse monolithic response for meeting %s: %w", meeting.ID, err)
	}

	if err := p.store.Meetings.SetSummary(ctx, p.store.DB(), meeting.ID, result.Summary); err != nil {
		return fmt.Errorf("set summary for meeting %s: %w", meeting.ID, err)
	}
	return p.store.Meetings.UpdateProcessingResult(ctx, p.store.DB(), meeting.ID,
		models.ProcessingCompleted, "monolithic_packet", time.Since(start).Seconds(), result.Topics)
}

// finalizeMeeting aggregates per-item topics by frequency (descending) and
// records the meeting as completed.
func (p *Processor) finalizeMeeting(ctx context.Context, meetingID string, items []models.AgendaItem, start time.Time, method string) error {
	topics := aggregateTopics(items)
	return p.store.Meetings.UpdateProcessingResult(ctx, p.store.DB(), meetingID,
		models.ProcessingCompleted, method, time.Since(start).Seconds(), topics)
}

func aggregateTopics(items []models.AgendaItem) []string {
	counts := make(map[string]int)
	var order []string
	for _, item := range items {
		for _, t := range item.Topics {
			if counts[t] == 0 {
				order = append(order, t)
			}
			counts[t]++
		}
	}
	sort.SliceStable(order, func(i, j int) bool { return counts[order[i]] > counts[order[j]] })
	return order
}
