package store

import (
	"context"
	"testing"
	"time"

	"github.com/engagic/core/pkg/ids"
	"github.com/engagic/core/pkg/models"
	testdb "github.com/engagic/core/test/database"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return testdb.NewTestStore(t)
}

func seedCity(t *testing.T, s *Store, banana string) {
	t.Helper()
	err := s.Cities.Upsert(context.Background(), s.DB(), models.City{
		Banana: banana,
		Name:   "Test City",
		State:  banana[len(banana)-2:],
		Vendor: models.VendorLegistar,
		Slug:   "testcity",
		Status: models.CityStatusActive,
	})
	require.NoError(t, err)
}

func TestStoreMeetingFromSync_EnqueuesItemsSentinelNotAgendaURL(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedCity(t, s, "testcityTC")

	agendaURL := "https://example.com/agenda.html"
	meetingID := ids.MeetingID("testcityTC", "1", "2026-01-01", "Council")
	meeting := models.Meeting{
		ID: meetingID, Banana: "testcityTC", Title: "Council",
		Date: time.Now().Add(48 * time.Hour), AgendaURL: &agendaURL,
		ProcessingStatus: models.ProcessingPending,
	}
	attachURL := "https://example.com/item1.pdf"
	items := []models.AgendaItem{{
		ID: ids.AgendaItemID(meetingID, "1"), MeetingID: meetingID, Title: "Approve budget",
		Sequence: 0, Attachments: []models.Attachment{{URL: attachURL, Name: "Budget", Type: models.DefaultAttachmentType}},
	}}

	_, err := s.StoreMeetingFromSync(ctx, meeting, items, 100)
	require.NoError(t, err)

	rows, err := s.DB().QueryContext(ctx, `SELECT source_url FROM queue`)
	require.NoError(t, err)
	defer rows.Close()
	var urls []string
	for rows.Next() {
		var u string
		require.NoError(t, rows.Scan(&u))
		urls = append(urls, u)
	}
	require.Len(t, urls, 1)
	require.Equal(t, "items://"+meetingID, urls[0])
}

func TestStoreMeetingFromSync_PreservesSummaryAcrossResync(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedCity(t, s, "testcityTC")

	meetingID := ids.MeetingID("testcityTC", "1", "2026-01-01", "Council")
	itemID := ids.AgendaItemID(meetingID, "1")
	meeting := models.Meeting{ID: meetingID, Banana: "testcityTC", Title: "Council", Date: time.Now(), ProcessingStatus: models.ProcessingPending}
	items := []models.AgendaItem{{ID: itemID, MeetingID: meetingID, Title: "Approve budget", Sequence: 0}}

	_, err := s.StoreMeetingFromSync(ctx, meeting, items, 100)
	require.NoError(t, err)

	require.NoError(t, s.Items.ApplySummary(ctx, s.DB(), itemID, "The council approved the budget.", []string{"budget"}))

	// Re-sync: adapter returns the same structural data with summary=nil.
	_, err = s.StoreMeetingFromSync(ctx, meeting, items, 100)
	require.NoError(t, err)

	stored, err := s.Meetings.Get(ctx, s.DB(), meetingID)
	require.NoError(t, err)
	_ = stored

	storedItems, err := s.Items.ByMeeting(ctx, s.DB(), meetingID)
	require.NoError(t, err)
	require.Len(t, storedItems, 1)
	require.NotNil(t, storedItems[0].Summary)
	require.Equal(t, "The council approved the budget.", *storedItems[0].Summary)
}

func TestTrackMatter_SameMatterFileAcrossMeetingsMatches(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedCity(t, s, "testcityTC")

	matterFile := "BL2025-1098"
	meeting1ID := ids.MeetingID("testcityTC", "1", "2026-01-01", "Council")
	meeting2ID := ids.MeetingID("testcityTC", "2", "2026-02-01", "Council")

	meeting1 := models.Meeting{ID: meeting1ID, Banana: "testcityTC", Title: "Council", Date: time.Now(), ProcessingStatus: models.ProcessingPending}
	meeting2 := models.Meeting{ID: meeting2ID, Banana: "testcityTC", Title: "Council", Date: time.Now().Add(30 * 24 * time.Hour), ProcessingStatus: models.ProcessingPending}

	item1 := models.AgendaItem{ID: ids.AgendaItemID(meeting1ID, "1"), MeetingID: meeting1ID, Title: "Zoning change", Sequence: 0, MatterFile: &matterFile}
	item2 := models.AgendaItem{ID: ids.AgendaItemID(meeting2ID, "1"), MeetingID: meeting2ID, Title: "Zoning change", Sequence: 0, MatterFile: &matterFile}

	_, err := s.StoreMeetingFromSync(ctx, meeting1, []models.AgendaItem{item1}, 100)
	require.NoError(t, err)
	_, err = s.StoreMeetingFromSync(ctx, meeting2, []models.AgendaItem{item2}, 100)
	require.NoError(t, err)

	expectedMatterID := ids.MatterID("testcityTC", ids.MatterIdentity(matterFile, "", "Zoning change"))
	matter, err := s.Matters.Get(ctx, s.DB(), expectedMatterID)
	require.NoError(t, err)
	require.Equal(t, 2, matter.AppearanceCount)
}

func TestTrackMatter_ResyncSameMeetingDoesNotInflateAppearanceCount(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedCity(t, s, "testcityTC")

	matterFile := "BL2025-1098"
	meetingID := ids.MeetingID("testcityTC", "1", "2026-01-01", "Council")
	meeting := models.Meeting{ID: meetingID, Banana: "testcityTC", Title: "Council", Date: time.Now(), ProcessingStatus: models.ProcessingPending}
	item := models.AgendaItem{ID: ids.AgendaItemID(meetingID, "1"), MeetingID: meetingID, Title: "Zoning change", Sequence: 0, MatterFile: &matterFile}

	_, err := s.StoreMeetingFromSync(ctx, meeting, []models.AgendaItem{item}, 100)
	require.NoError(t, err)

	// Re-sync the same meeting within the lookback window, as the fetcher
	// does on every pass — the matter/item/meeting triple is unchanged.
	_, err = s.StoreMeetingFromSync(ctx, meeting, []models.AgendaItem{item}, 100)
	require.NoError(t, err)
	_, err = s.StoreMeetingFromSync(ctx, meeting, []models.AgendaItem{item}, 100)
	require.NoError(t, err)

	expectedMatterID := ids.MatterID("testcityTC", ids.MatterIdentity(matterFile, "", "Zoning change"))
	matter, err := s.Matters.Get(ctx, s.DB(), expectedMatterID)
	require.NoError(t, err)
	require.Equal(t, 1, matter.AppearanceCount, "appearance_count must track distinct meetings, not sync passes")
}

func TestQueueRepo_RetryLadderReachesDeadLetter(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedCity(t, s, "testcityTC")

	job := models.QueueJob{SourceURL: "https://example.com/a.pdf", JobType: models.JobTypeMeeting, Priority: 100}
	require.NoError(t, s.Queue.Enqueue(ctx, s.DB(), job, false))

	row := s.DB().QueryRowContext(ctx, `SELECT id FROM queue WHERE source_url = $1`, job.SourceURL)
	var id int64
	require.NoError(t, row.Scan(&id))

	for i := 0; i < RetryLimit; i++ {
		require.NoError(t, s.Queue.MarkFailed(ctx, s.DB(), id, errFakeTransient, true))
	}

	var status string
	var retryCount int
	require.NoError(t, s.DB().QueryRowContext(ctx, `SELECT status, retry_count FROM queue WHERE id = $1`, id).Scan(&status, &retryCount))
	require.Equal(t, "dead_letter", status)
	require.Equal(t, RetryLimit, retryCount)
}

func TestQueueRepo_NeverTwoLiveRowsForSameURL(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedCity(t, s, "testcityTC")

	url := "https://example.com/shared.pdf"
	require.NoError(t, s.Queue.Enqueue(ctx, s.DB(), models.QueueJob{SourceURL: url, JobType: models.JobTypeMeeting, Priority: 10}, false))
	require.NoError(t, s.Queue.Enqueue(ctx, s.DB(), models.QueueJob{SourceURL: url, JobType: models.JobTypeMeeting, Priority: 50}, false))

	var count int
	require.NoError(t, s.DB().QueryRowContext(ctx, `SELECT COUNT(*) FROM queue WHERE source_url = $1`, url).Scan(&count))
	require.Equal(t, 1, count)

	var priority int
	require.NoError(t, s.DB().QueryRowContext(ctx, `SELECT priority FROM queue WHERE source_url = $1`, url).Scan(&priority))
	require.Equal(t, 50, priority)
}

var errFakeTransient = fakeErr("simulated transient failure")

type fakeErr string

func (e fakeErr) Error() string { return string(e) }
