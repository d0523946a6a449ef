package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/engagic/core/pkg/ids"
	"github.com/engagic/core/pkg/models"
)

// MatterRepo persists city_matters and matter_appearances, and implements
// the Matter Tracker's cross-meeting identity resolution.
type MatterRepo struct{}

func NewMatterRepo() *MatterRepo { return &MatterRepo{} }

// TrackResult reports how many matters TrackMatter created vs revisited, for
// fetcher-side logging.
type TrackResult struct {
	NewMatters       int
	RevisitedMatters int
}

// TrackMatter resolves item's matter identity (matter_file dominates
// matter_id), upserts the Matter row, and records a
// MatterAppearance unique on (matter_id, meeting_id, item_id). Items
// carrying neither matter_file nor matter_id are not tracked as matters at
// all — they remain plain agenda items.
//
// appearance_count only advances when this call's (matter_id, meeting_id,
// item_id) row is genuinely new — re-syncing a meeting already on record
// hits upsertAppearance's ON CONFLICT DO NOTHING and leaves the count
// untouched, so a matter's appearance_count always equals the number of
// distinct meetings it has actually appeared in.
func (r *MatterRepo) TrackMatter(ctx context.Context, q Querier, item models.AgendaItem, meeting models.Meeting, sequence int) (*string, TrackResult, error) {
	if item.MatterFile == nil && item.MatterID == nil {
		return nil, TrackResult{}, nil
	}

	identity := ids.MatterIdentity(deref(item.MatterFile), deref(item.MatterID), item.Title)
	matterID := ids.MatterID(meeting.Banana, identity)

	isNewMatter, err := r.ensureMatter(ctx, q, matterID, meeting.Banana, item, meeting.Date)
	if err != nil {
		return nil, TrackResult{}, err
	}

	appearanceInserted, err := r.upsertAppearance(ctx, q, matterID, meeting.ID, item.ID, meeting.Date, sequence)
	if err != nil {
		return nil, TrackResult{}, fmt.Errorf("upsert appearance for matter %s: %w", matterID, err)
	}
	if appearanceInserted {
		if err := r.incrementAppearanceCount(ctx, q, matterID); err != nil {
			return nil, TrackResult{}, fmt.Errorf("increment appearance count for matter %s: %w", matterID, err)
		}
	}

	result := TrackResult{}
	if isNewMatter {
		result.NewMatters = 1
	} else {
		result.RevisitedMatters = 1
	}
	return &matterID, result, nil
}

// ensureMatter upserts the city_matters row itself (title/sponsors/last_seen
// refresh) without touching appearance_count — that is bumped separately,
// and only when upsertAppearance actually inserts a new row.
func (r *MatterRepo) ensureMatter(ctx context.Context, q Querier, matterID, banana string, item models.AgendaItem, seenAt time.Time) (bool, error) {
	sponsors, err := json.Marshal(item.Sponsors)
	if err != nil {
		return false, fmt.Errorf("marshal sponsors: %w", err)
	}

	row := q.QueryRowContext(ctx, `
		INSERT INTO city_matters (
			id, banana, matter_file, matter_id, title, sponsors,
			first_seen, last_seen, appearance_count, status
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$7,0,'active')
		ON CONFLICT (id) DO UPDATE SET
			title     = excluded.title,
			sponsors  = excluded.sponsors,
			last_seen = CASE
				WHEN city_matters.status IN ('passed','failed','tabled','withdrawn','vetoed','enacted')
				THEN city_matters.last_seen
				ELSE GREATEST(city_matters.last_seen, excluded.last_seen)
			END
		RETURNING (xmax = 0)
	`, matterID, banana, item.MatterFile, item.MatterID, item.Title, sponsors, seenAt)

	var inserted bool
	if err := row.Scan(&inserted); err != nil {
		return false, fmt.Errorf("upsert matter %s: %w", matterID, err)
	}
	return inserted, nil
}

// upsertAppearance reports whether it actually inserted a new row, as
// opposed to hitting ON CONFLICT DO NOTHING for an already-recorded
// appearance.
func (r *MatterRepo) upsertAppearance(ctx context.Context, q Querier, matterID, meetingID, itemID string, appearedAt time.Time, sequence int) (bool, error) {
	res, err := q.ExecContext(ctx, `
		INSERT INTO matter_appearances (matter_id, meeting_id, item_id, appeared_at, sequence)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (matter_id, meeting_id, item_id) DO NOTHING
	`, matterID, meetingID, itemID, appearedAt, sequence)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *MatterRepo) incrementAppearanceCount(ctx context.Context, q Querier, matterID string) error {
	_, err := q.ExecContext(ctx, `UPDATE city_matters SET appearance_count = appearance_count + 1 WHERE id = $1`, matterID)
	return err
}

// ApplyCanonicalSummary writes summary/topics to the Matter's canonical
// fields and fans out to every Item referencing it that has no summary yet,
// returning the number of items updated.
func (r *MatterRepo) ApplyCanonicalSummary(ctx context.Context, q Querier, matterID, summary string, topics []string) (int64, error) {
	topicsJSON, err := json.Marshal(topics)
	if err != nil {
		return 0, fmt.Errorf("marshal topics for matter %s: %w", matterID, err)
	}
	if _, err := q.ExecContext(ctx, `
		UPDATE city_matters SET canonical_summary = $2, canonical_topics = $3, updated_at = now()
		WHERE id = $1
	`, matterID, summary, topicsJSON); err != nil {
		return 0, fmt.Errorf("apply canonical summary to matter %s: %w", matterID, err)
	}

	items := NewItemRepo()
	return items.ApplyMatterSummaryFanOut(ctx, q, matterID, summary, topics)
}

// SetTerminalStatus atomically sets a terminal status and final_vote_date;
// once terminal, last_seen no longer advances automatically, enforced by
// the CASE in ensureMatter.
func (r *MatterRepo) SetTerminalStatus(ctx context.Context, q Querier, matterID string, status models.MatterStatus, voteDate time.Time) error {
	if !models.TerminalMatterStatuses[status] {
		return fmt.Errorf("set terminal status: %s is not a terminal status", status)
	}
	_, err := q.ExecContext(ctx, `
		UPDATE city_matters SET status = $2, final_vote_date = $3, updated_at = now() WHERE id = $1
	`, matterID, string(status), voteDate)
	if err != nil {
		return fmt.Errorf("set terminal status for matter %s: %w", matterID, err)
	}
	return nil
}

// Get returns a single matter by id.
func (r *MatterRepo) Get(ctx context.Context, q Querier, id string) (models.Matter, error) {
	row := q.QueryRowContext(ctx, `
		SELECT id, banana, matter_file, matter_id, matter_type, title, sponsors,
		       canonical_summary, canonical_topics, attachments,
		       first_seen, last_seen, appearance_count, status, final_vote_date,
		       created_at, updated_at
		FROM city_matters WHERE id = $1
	`, id)
	return scanMatter(row)
}

func scanMatter(row *sql.Row) (models.Matter, error) {
	var m models.Matter
	var sponsors, topics, attachments []byte
	var matterType, matterFile, matterID, canonicalSummary sql.NullString
	var finalVoteDate sql.NullTime
	var status string

	if err := row.Scan(
		&m.ID, &m.Banana, &matterFile, &matterID, &matterType, &m.Title, &sponsors,
		&canonicalSummary, &topics, &attachments,
		&m.FirstSeen, &m.LastSeen, &m.AppearanceCount, &status, &finalVoteDate,
		&m.CreatedAt, &m.UpdatedAt,
	); err != nil {
		return models.Matter{}, err
	}

	m.Status = models.MatterStatus(status)
	m.MatterFile = matterFile.String
	m.MatterID = matterID.String
	if matterType.Valid {
		m.Type = matterType.String
	}
	if canonicalSummary.Valid {
		m.CanonicalSummary = &canonicalSummary.String
	}
	if finalVoteDate.Valid {
		m.FinalVoteDate = &finalVoteDate.Time
	}
	if len(sponsors) > 0 {
		_ = json.Unmarshal(sponsors, &m.Sponsors)
	}
	if len(topics) > 0 {
		_ = json.Unmarshal(topics, &m.CanonicalTopics)
	}
	if len(attachments) > 0 {
		_ = json.Unmarshal(attachments, &m.Attachments)
	}
	return m, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
