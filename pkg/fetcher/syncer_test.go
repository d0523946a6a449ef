package fetcher

import (
	"context"
	"testing"
	"time"

	"github.com/engagic/core/pkg/ids"
	"github.com/engagic/core/pkg/models"
	"github.com/engagic/core/pkg/store"
	"github.com/engagic/core/pkg/vendoradapter"
	"github.com/engagic/core/pkg/vendorerr"
	testdb "github.com/engagic/core/test/database"
	"github.com/stretchr/testify/require"
)

// fakeAdapter returns a fixed set of MeetingResults, simulating a vendor
// without making network calls.
type fakeAdapter struct {
	vendor    models.Vendor
	results   []vendoradapter.MeetingResult
	calls     int
	sawSlug   string
	sawBanana string
}

func (f *fakeAdapter) Vendor() models.Vendor { return f.vendor }

func (f *fakeAdapter) FetchMeetings(ctx context.Context, slug, banana string, opts vendoradapter.FetchOptions) ([]vendoradapter.MeetingResult, error) {
	f.calls++
	f.sawSlug = slug
	f.sawBanana = banana
	return f.results, nil
}

func (f *fakeAdapter) FetchMeetingDetail(ctx context.Context, slug, vendorMeetingID string) (vendoradapter.MeetingDetail, error) {
	return vendoradapter.MeetingDetail{}, vendorerr.Unsupported(string(f.vendor), slug, nil)
}

func newTestStoreForFetcher(t *testing.T) *store.Store {
	t.Helper()
	return testdb.NewTestStore(t)
}

func TestSyncCity_PersistsMeetingsAndEnqueuesItemsSentinel(t *testing.T) {
	s := newTestStoreForFetcher(t)
	ctx := context.Background()

	city := models.City{Banana: "testcityTC", Name: "Test City", State: "TC", Vendor: models.VendorLegistar, Slug: "testcity", Status: models.CityStatusActive}
	require.NoError(t, s.Cities.Upsert(ctx, s.DB(), city))

	meetingID := ids.MeetingID(city.Banana, "1", "2026-01-01", "Council")
	attachURL := "https://example.com/item1.pdf"
	meeting := models.Meeting{ID: meetingID, Banana: city.Banana, Title: "Council", Date: time.Now().Add(48 * time.Hour), ProcessingStatus: models.ProcessingPending}
	items := []models.AgendaItem{{
		ID: ids.AgendaItemID(meetingID, "1"), MeetingID: meetingID, Title: "Approve budget",
		Attachments: []models.Attachment{{URL: attachURL, Name: "Budget", Type: models.DefaultAttachmentType}},
	}}

	adapter := &fakeAdapter{vendor: models.VendorLegistar, results: []vendoradapter.MeetingResult{{Meeting: meeting, Items: items, Method: "fake"}}}
	registry := vendoradapter.NewRegistry(adapter)
	limiters := vendoradapter.NewRateLimiters(nil)

	syncer := NewSyncer(s, registry, limiters)
	require.NoError(t, syncer.SyncCity(ctx, city))
	require.Equal(t, 1, adapter.calls)
	require.Equal(t, city.Slug, adapter.sawSlug)
	require.Equal(t, city.Banana, adapter.sawBanana, "SyncCity must pass the city's banana, not rely on the adapter deriving it from slug")

	stored, err := s.Meetings.Get(ctx, s.DB(), meetingID)
	require.NoError(t, err)
	require.Equal(t, "Council", stored.Title)

	var queueCount int
	require.NoError(t, s.DB().QueryRowContext(ctx, `SELECT COUNT(*) FROM queue WHERE source_url = $1`, "items://"+meetingID).Scan(&queueCount))
	require.Equal(t, 1, queueCount)
}

func TestSyncCity_NoAdapterRegisteredReturnsError(t *testing.T) {
	s := newTestStoreForFetcher(t)
	ctx := context.Background()

	city := models.City{Banana: "testcityTC", Name: "Test City", State: "TC", Vendor: models.VendorPrimeGov, Slug: "testcity", Status: models.CityStatusActive}
	require.NoError(t, s.Cities.Upsert(ctx, s.DB(), city))

	registry := vendoradapter.NewRegistry() // no adapters registered
	limiters := vendoradapter.NewRateLimiters(nil)
	syncer := NewSyncer(s, registry, limiters)

	err := syncer.SyncCity(ctx, city)
	require.Error(t, err)
}

func TestScheduler_SkipsCityNotYetDue(t *testing.T) {
	s := newTestStoreForFetcher(t)
	ctx := context.Background()

	city := models.City{Banana: "testcityTC", Name: "Test City", State: "TC", Vendor: models.VendorLegistar, Slug: "testcity", Status: models.CityStatusActive}
	require.NoError(t, s.Cities.Upsert(ctx, s.DB(), city))

	adapter := &fakeAdapter{vendor: models.VendorLegistar}
	registry := vendoradapter.NewRegistry(adapter)
	limiters := vendoradapter.NewRateLimiters(nil)

	sched := NewScheduler(s, registry, limiters)
	sched.Interval = 72 * time.Hour

	sched.runPass(ctx)
	require.Equal(t, 1, adapter.calls)

	sched.runPass(ctx)
	require.Equal(t, 1, adapter.calls, "second immediate pass should skip the just-synced city")
}
