package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/engagic/core/pkg/models"
)

// Store composes the per-entity repositories and owns the transaction
// boundary for multi-repository operations.
type Store struct {
	db       *sql.DB
	Cities   *CityRepo
	Meetings *MeetingRepo
	Items    *ItemRepo
	Matters  *MatterRepo
	Queue    *QueueRepo
}

// New builds a Store over db.
func New(db *sql.DB) *Store {
	return &Store{
		db:       db,
		Cities:   NewCityRepo(),
		Meetings: NewMeetingRepo(),
		Items:    NewItemRepo(),
		Matters:  NewMatterRepo(),
		Queue:    NewQueueRepo(),
	}
}

// DB exposes the underlying pool for GetNextForProcessing's explicit
// transaction and for read-only analytics queries.
func (s *Store) DB() *sql.DB { return s.db }

// SyncResult reports what StoreMeetingFromSync wrote, for fetcher logging.
type SyncResult struct {
	Tracked  TrackResult
	Enqueued bool
}

// StoreMeetingFromSync is the Fetcher's single entry point into the store:
// one transaction per meeting that upserts the meeting, its items, tracks
// any matters referenced, and enqueues a processing job if work remains.
func (s *Store) StoreMeetingFromSync(ctx context.Context, meeting models.Meeting, items []models.AgendaItem, basePriority int) (SyncResult, error) {
	var result SyncResult

	err := With(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.Meetings.Upsert(ctx, tx, meeting); err != nil {
			return err
		}

		hasSubstantiveWork := false
		for _, item := range items {
			matterID, tracked, err := s.Matters.TrackMatter(ctx, tx, item, meeting, item.Sequence)
			if err != nil {
				return fmt.Errorf("track matter for item %s: %w", item.ID, err)
			}
			if matterID != nil {
				item.MatterID = matterID
			}
			result.Tracked.NewMatters += tracked.NewMatters
			result.Tracked.RevisitedMatters += tracked.RevisitedMatters

			if err := s.Items.Upsert(ctx, tx, item); err != nil {
				return fmt.Errorf("upsert item %s: %w", item.ID, err)
			}
			if !item.Procedural {
				hasSubstantiveWork = true
			}
		}

		sourceURL, jobType, payload := enqueueTargetFor(meeting, items, hasSubstantiveWork)
		if sourceURL == "" {
			return nil
		}

		priority := priorityForMeeting(basePriority, meeting.Date)
		job := models.QueueJob{
			SourceURL: sourceURL,
			JobType:   jobType,
			Payload:   payload,
			MeetingID: &meeting.ID,
			Banana:    &meeting.Banana,
			Priority:  priority,
		}
		if err := s.Queue.Enqueue(ctx, tx, job, false); err != nil {
			return fmt.Errorf("enqueue processing job for meeting %s: %w", meeting.ID, err)
		}
		result.Enqueued = true
		return nil
	})
	if err != nil {
		return SyncResult{}, err
	}
	return result, nil
}

// enqueueTargetFor implements the enqueue policy: agenda_url is never
// enqueued. Item-based meetings enqueue the
// items://{meeting_id} sentinel, resolved by the processor at dequeue time;
// meetings with no items fall back to packet_url.
func enqueueTargetFor(meeting models.Meeting, items []models.AgendaItem, hasSubstantiveWork bool) (sourceURL string, jobType models.JobType, payload models.JobPayload) {
	if len(items) > 0 {
		if !hasSubstantiveWork {
			return "", "", models.JobPayload{}
		}
		return fmt.Sprintf("items://%s", meeting.ID), models.JobTypeMeeting, models.JobPayload{
			MeetingJob: &models.MeetingJobPayload{MeetingID: meeting.ID, Banana: meeting.Banana},
		}
	}
	if meeting.PacketURL != nil && *meeting.PacketURL != "" {
		return *meeting.PacketURL, models.JobTypeMeeting, models.JobPayload{
			MeetingJob: &models.MeetingJobPayload{MeetingID: meeting.ID, Banana: meeting.Banana},
		}
	}
	return "", "", models.JobPayload{}
}

// priorityForMeeting computes priority from meeting date: sooner meetings
// get higher priority, via base_priority - max(0, days_until_meeting). A
// meeting already in the past clamps to 0, scoring the same as one
// happening today; farther-future meetings score lower.
func priorityForMeeting(basePriority int, date time.Time) int {
	daysUntil := int(time.Until(date).Hours() / 24)
	return basePriority - max(0, daysUntil)
}
