package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/engagic/core/pkg/models"
)

// MeetingRepo persists Meeting rows. Summary and Topics are LLM output and
// are preserved across re-syncs; every other field is structural and always
// overwrites.
type MeetingRepo struct{}

func NewMeetingRepo() *MeetingRepo { return &MeetingRepo{} }

// Upsert writes m, applying the preservation rule for summary/topics: a nil
// value from the adapter never clobbers an existing non-null value.
func (r *MeetingRepo) Upsert(ctx context.Context, q Querier, m models.Meeting) error {
	topics, err := marshalOrNil(m.Topics)
	if err != nil {
		return fmt.Errorf("marshal topics for meeting %s: %w", m.ID, err)
	}
	participation, err := marshalOrNil(m.Participation)
	if err != nil {
		return fmt.Errorf("marshal participation for meeting %s: %w", m.ID, err)
	}

	var vendorStatus *string
	if m.VendorStatus != nil {
		s := string(*m.VendorStatus)
		vendorStatus = &s
	}

	_, err = q.ExecContext(ctx, `
		INSERT INTO meetings (
			id, banana, title, date, agenda_url, packet_url, summary, topics,
			participation, vendor_status, processing_status, processing_method,
			processing_seconds, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13, now())
		ON CONFLICT (id) DO UPDATE SET
			title             = excluded.title,
			date              = excluded.date,
			agenda_url        = excluded.agenda_url,
			packet_url        = excluded.packet_url,
			summary           = CASE WHEN excluded.summary IS NOT NULL THEN excluded.summary ELSE meetings.summary END,
			topics            = CASE WHEN excluded.topics  IS NOT NULL THEN excluded.topics  ELSE meetings.topics  END,
			participation     = excluded.participation,
			vendor_status     = excluded.vendor_status,
			processing_status = excluded.processing_status,
			processing_method = CASE WHEN excluded.processing_method IS NOT NULL THEN excluded.processing_method ELSE meetings.processing_method END,
			processing_seconds = CASE WHEN excluded.processing_seconds IS NOT NULL THEN excluded.processing_seconds ELSE meetings.processing_seconds END,
			updated_at        = now()
	`,
		m.ID, m.Banana, m.Title, m.Date, m.AgendaURL, m.PacketURL, m.Summary, topics,
		participation, vendorStatus, string(m.ProcessingStatus), m.ProcessingMethod, m.ProcessingSeconds,
	)
	if err != nil {
		return fmt.Errorf("upsert meeting %s: %w", m.ID, err)
	}
	return nil
}

// UpdateProcessingResult transitions a meeting's processing_status,
// recording the method and elapsed seconds once work completes.
func (r *MeetingRepo) UpdateProcessingResult(ctx context.Context, q Querier, meetingID string, status models.ProcessingStatus, method string, seconds float64, topics []string) error {
	topicsJSON, err := marshalOrNil(topics)
	if err != nil {
		return fmt.Errorf("marshal topics for meeting %s: %w", meetingID, err)
	}
	_, err = q.ExecContext(ctx, `
		UPDATE meetings SET
			processing_status = $2,
			processing_method = $3,
			processing_seconds = $4,
			topics = COALESCE($5, topics),
			updated_at = now()
		WHERE id = $1
	`, meetingID, string(status), method, seconds, topicsJSON)
	if err != nil {
		return fmt.Errorf("update processing result for meeting %s: %w", meetingID, err)
	}
	return nil
}

// SetSummary writes a monolithic meeting-level summary (the no-items
// fallback path).
func (r *MeetingRepo) SetSummary(ctx context.Context, q Querier, meetingID, summary string) error {
	_, err := q.ExecContext(ctx, `UPDATE meetings SET summary = $2, updated_at = now() WHERE id = $1`, meetingID, summary)
	if err != nil {
		return fmt.Errorf("set summary for meeting %s: %w", meetingID, err)
	}
	return nil
}

// Get returns a single meeting by id.
func (r *MeetingRepo) Get(ctx context.Context, q Querier, id string) (models.Meeting, error) {
	row := q.QueryRowContext(ctx, `
		SELECT id, banana, title, date, agenda_url, packet_url, summary, topics,
		       participation, vendor_status, processing_status, processing_method,
		       processing_seconds, created_at, updated_at
		FROM meetings WHERE id = $1
	`, id)
	return scanMeeting(row)
}

func scanMeeting(row *sql.Row) (models.Meeting, error) {
	var m models.Meeting
	var topics, participation []byte
	var vendorStatus, processingMethod sql.NullString
	var processingSeconds sql.NullFloat64
	var processingStatus string

	if err := row.Scan(
		&m.ID, &m.Banana, &m.Title, &m.Date, &m.AgendaURL, &m.PacketURL, &m.Summary, &topics,
		&participation, &vendorStatus, &processingStatus, &processingMethod,
		&processingSeconds, &m.CreatedAt, &m.UpdatedAt,
	); err != nil {
		return models.Meeting{}, err
	}

	m.ProcessingStatus = models.ProcessingStatus(processingStatus)
	if vendorStatus.Valid {
		vs := models.VendorMeetingStatus(vendorStatus.String)
		m.VendorStatus = &vs
	}
	if processingMethod.Valid {
		m.ProcessingMethod = &processingMethod.String
	}
	if processingSeconds.Valid {
		m.ProcessingSeconds = &processingSeconds.Float64
	}
	if len(topics) > 0 {
		if err := json.Unmarshal(topics, &m.Topics); err != nil {
			return models.Meeting{}, fmt.Errorf("unmarshal topics: %w", err)
		}
	}
	if len(participation) > 0 {
		if err := json.Unmarshal(participation, &m.Participation); err != nil {
			return models.Meeting{}, fmt.Errorf("unmarshal participation: %w", err)
		}
	}
	return m, nil
}

func marshalOrNil(v any) ([]byte, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case []string:
		if x == nil {
			return nil, nil
		}
	case models.Participation:
		if x == nil {
			return nil, nil
		}
	}
	return json.Marshal(v)
}
