package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/engagic/core/pkg/models"
)

// ItemRepo persists AgendaItem rows. Like MeetingRepo, summary/topics are
// preserved across re-syncs; structural fields always overwrite.
type ItemRepo struct{}

func NewItemRepo() *ItemRepo { return &ItemRepo{} }

// Upsert writes item, applying the preservation rule for summary/topics.
func (r *ItemRepo) Upsert(ctx context.Context, q Querier, item models.AgendaItem) error {
	attachments, err := json.Marshal(item.Attachments)
	if err != nil {
		return fmt.Errorf("marshal attachments for item %s: %w", item.ID, err)
	}
	sponsors, err := marshalOrNil(item.Sponsors)
	if err != nil {
		return fmt.Errorf("marshal sponsors for item %s: %w", item.ID, err)
	}
	topics, err := marshalOrNil(item.Topics)
	if err != nil {
		return fmt.Errorf("marshal topics for item %s: %w", item.ID, err)
	}

	_, err = q.ExecContext(ctx, `
		INSERT INTO items (
			id, meeting_id, title, sequence, attachments, attachment_hash,
			matter_id, matter_file, sponsors, summary, topics, procedural, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12, now())
		ON CONFLICT (id) DO UPDATE SET
			title           = excluded.title,
			sequence        = excluded.sequence,
			attachments     = excluded.attachments,
			attachment_hash = excluded.attachment_hash,
			matter_id       = excluded.matter_id,
			matter_file     = excluded.matter_file,
			sponsors        = excluded.sponsors,
			summary         = CASE WHEN excluded.summary IS NOT NULL THEN excluded.summary ELSE items.summary END,
			topics          = CASE WHEN excluded.topics  IS NOT NULL THEN excluded.topics  ELSE items.topics  END,
			procedural      = excluded.procedural,
			updated_at      = now()
	`,
		item.ID, item.MeetingID, item.Title, item.Sequence, attachments, item.AttachmentHash,
		item.MatterID, item.MatterFile, sponsors, item.Summary, topics, item.Procedural,
	)
	if err != nil {
		return fmt.Errorf("upsert item %s: %w", item.ID, err)
	}
	return nil
}

// ApplySummary writes an LLM-produced (summary, topics) pair to a single
// item, used by the processor's Phase 5 persistence.
func (r *ItemRepo) ApplySummary(ctx context.Context, q Querier, itemID, summary string, topics []string) error {
	topicsJSON, err := json.Marshal(topics)
	if err != nil {
		return fmt.Errorf("marshal topics for item %s: %w", itemID, err)
	}
	_, err = q.ExecContext(ctx, `UPDATE items SET summary = $2, topics = $3, updated_at = now() WHERE id = $1`,
		itemID, summary, topicsJSON)
	if err != nil {
		return fmt.Errorf("apply summary to item %s: %w", itemID, err)
	}
	return nil
}

// ApplyMatterSummaryFanOut writes summary/topics to every item referencing
// matterID where summary is currently null, implementing the
// ApplyCanonicalSummary fan-out.
func (r *ItemRepo) ApplyMatterSummaryFanOut(ctx context.Context, q Querier, matterID, summary string, topics []string) (int64, error) {
	topicsJSON, err := json.Marshal(topics)
	if err != nil {
		return 0, fmt.Errorf("marshal topics for matter %s: %w", matterID, err)
	}
	res, err := q.ExecContext(ctx, `
		UPDATE items SET summary = $2, topics = $3, updated_at = now()
		WHERE matter_id = $1 AND summary IS NULL
	`, matterID, summary, topicsJSON)
	if err != nil {
		return 0, fmt.Errorf("fan out canonical summary for matter %s: %w", matterID, err)
	}
	return res.RowsAffected()
}

// ByMeeting returns every item for a meeting, ordered by sequence.
func (r *ItemRepo) ByMeeting(ctx context.Context, q Querier, meetingID string) ([]models.AgendaItem, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, meeting_id, title, sequence, attachments, attachment_hash,
		       matter_id, matter_file, sponsors, summary, topics, procedural, created_at, updated_at
		FROM items WHERE meeting_id = $1 ORDER BY sequence ASC
	`, meetingID)
	if err != nil {
		return nil, fmt.Errorf("list items for meeting %s: %w", meetingID, err)
	}
	defer rows.Close()

	var items []models.AgendaItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func scanItem(rows *sql.Rows) (models.AgendaItem, error) {
	var item models.AgendaItem
	var attachments, sponsors, topics []byte

	if err := rows.Scan(
		&item.ID, &item.MeetingID, &item.Title, &item.Sequence, &attachments, &item.AttachmentHash,
		&item.MatterID, &item.MatterFile, &sponsors, &item.Summary, &topics, &item.Procedural,
		&item.CreatedAt, &item.UpdatedAt,
	); err != nil {
		return models.AgendaItem{}, err
	}

	if len(attachments) > 0 {
		if err := json.Unmarshal(attachments, &item.Attachments); err != nil {
			return models.AgendaItem{}, fmt.Errorf("unmarshal attachments: %w", err)
		}
	}
	if len(sponsors) > 0 {
		if err := json.Unmarshal(sponsors, &item.Sponsors); err != nil {
			return models.AgendaItem{}, fmt.Errorf("unmarshal sponsors: %w", err)
		}
	}
	if len(topics) > 0 {
		if err := json.Unmarshal(topics, &item.Topics); err != nil {
			return models.AgendaItem{}, fmt.Errorf("unmarshal topics: %w", err)
		}
	}
	return item, nil
}
