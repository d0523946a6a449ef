package custom

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/engagic/core/pkg/models"
	"github.com/engagic/core/pkg/vendoradapter"
	"github.com/stretchr/testify/require"
)

func TestChicagoAdapter_FetchMeetingsParsesAndFiltersByDate(t *testing.T) {
	now := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"event_id": "1001", "body_name": "City Council", "event_date": "2026-08-01T09:00:00", "agenda_url": "https://chicago.gov/a.pdf"},
			{"event_id": "1002", "body_name": "Zoning Committee", "event_date": "2020-01-01T09:00:00", "agenda_url": ""}
		]`))
	}))
	t.Cleanup(srv.Close)
	withFakeServer(t, srv)

	a := NewChicagoAdapter(vendoradapter.NewRateLimiters(nil))
	require.Equal(t, models.VendorCustom, a.Vendor())

	opts := vendoradapter.FetchOptions{MaxCount: 50, Lookback: 7 * 24 * time.Hour, Horizon: 14 * 24 * time.Hour, Now: now}
	results, err := a.FetchMeetings(context.Background(), "chicago", "chicagoIL", opts)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "City Council", results[0].Meeting.Title)
	require.Equal(t, "chicago_clerk_rest", results[0].Method)
	require.Equal(t, "chicagoIL", results[0].Meeting.Banana, "banana must come from the city, not the vendor slug")
	require.NotNil(t, results[0].Meeting.AgendaURL)
}

func TestChicagoAdapter_FetchMeetingDetailUnsupported(t *testing.T) {
	a := NewChicagoAdapter(vendoradapter.NewRateLimiters(nil))
	_, err := a.FetchMeetingDetail(context.Background(), "chicagoIL", "1001")
	require.Error(t, err)
}
