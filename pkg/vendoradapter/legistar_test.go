package vendoradapter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/engagic/core/pkg/models"
	"github.com/stretchr/testify/require"
)

func TestLegistarAdapter_FetchMeetingsParsesAPIResponse(t *testing.T) {
	now := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/testcity/Events", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{
			"EventId": 501,
			"EventBodyName": "City Council",
			"EventDate": "2026-08-01T09:00:00",
			"EventAgendaFile": "https://legistar.com/agenda.pdf",
			"EventAgendaStatusName": "Final",
			"EventMinutesFile": null
		}]`))
	})
	mux.HandleFunc("/v1/testcity/Events/501/EventItems", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"EventItemId": 1, "EventItemAgendaNumber": "1", "EventItemTitle": "Roll Call", "EventItemMatterId": null, "EventItemMatterFile": null, "EventItemMatterSponsorsAndStaff": null},
			{"EventItemId": 2, "EventItemAgendaNumber": "2", "EventItemTitle": "Approve budget amendment", "EventItemMatterId": 99, "EventItemMatterFile": "BL2026-42", "EventItemMatterSponsorsAndStaff": "Smith, Jones"}
		]`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	withFakeServer(t, srv)

	a := NewLegistarAdapter(NewRateLimiters(nil))
	require.Equal(t, models.VendorLegistar, a.Vendor())

	opts := FetchOptions{MaxCount: 50, Lookback: 7 * 24 * time.Hour, Horizon: 14 * 24 * time.Hour, Now: now}
	results, err := a.FetchMeetings(context.Background(), "testcity", "testcityTC", opts)
	require.NoError(t, err)
	require.Len(t, results, 1)

	res := results[0]
	require.Equal(t, "legistar_api", res.Method)
	require.Equal(t, "City Council", res.Meeting.Title)
	require.Equal(t, "testcityTC", res.Meeting.Banana, "banana must come from the city, not the vendor slug")
	for _, item := range res.Items {
		require.Contains(t, item.ID, "testcityTC", "item ids must be derived from banana, not slug")
	}
	require.Len(t, res.Items, 2)
	require.True(t, res.Items[0].Procedural, "Roll Call should be flagged procedural")
	require.False(t, res.Items[1].Procedural)
	require.NotNil(t, res.Items[1].MatterFile)
	require.Equal(t, "BL2026-42", *res.Items[1].MatterFile)
	require.Equal(t, []string{"Smith", "Jones"}, res.Items[1].Sponsors)
}

func TestLegistarAdapter_FetchMeetingsFallsBackToHTMLOnAPIFailure(t *testing.T) {
	now := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/testcity/Events", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	mux.HandleFunc("/Calendar.aspx", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><body><table class="rgMasterTable">
			<tr class="rgRow"><td>Planning Commission</td><td>8/3/2026</td><td><a href="/a.pdf">Agenda</a></td></tr>
		</table></body></html>`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	withFakeServer(t, srv)

	a := NewLegistarAdapter(NewRateLimiters(nil))
	opts := FetchOptions{MaxCount: 50, Lookback: 7 * 24 * time.Hour, Horizon: 14 * 24 * time.Hour, Now: now}
	results, err := a.FetchMeetings(context.Background(), "testcity", "testcityTC", opts)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "legistar_html_fallback", results[0].Method)
	require.Equal(t, "Planning Commission", results[0].Meeting.Title)
	require.Equal(t, "testcityTC", results[0].Meeting.Banana)
}

func TestLegistarAdapter_FetchMeetingDetailUnsupported(t *testing.T) {
	a := NewLegistarAdapter(NewRateLimiters(nil))
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "EventItems") {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`[]`))
		}
	}))
	t.Cleanup(srv.Close)
	withFakeServer(t, srv)

	_, err := a.FetchMeetingDetail(context.Background(), "testcity", "501")
	require.Error(t, err)
}
