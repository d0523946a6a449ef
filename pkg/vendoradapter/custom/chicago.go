package custom

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/engagic/core/pkg/ids"
	"github.com/engagic/core/pkg/models"
	"github.com/engagic/core/pkg/vendoradapter"
	"github.com/engagic/core/pkg/vendorerr"
)

// ChicagoAdapter reads the City Clerk's public Legislative Information
// Center REST feed, a Socrata-style API distinct from any commercial
// meeting-management vendor.
type ChicagoAdapter struct {
	limiters *vendoradapter.RateLimiters
}

func NewChicagoAdapter(rl *vendoradapter.RateLimiters) *ChicagoAdapter {
	return &ChicagoAdapter{limiters: rl}
}

func (a *ChicagoAdapter) Vendor() models.Vendor { return models.VendorCustom }

type chicagoMatter struct {
	EventID   string `json:"event_id"`
	BodyName  string `json:"body_name"`
	EventDate string `json:"event_date"`
	AgendaURL string `json:"agenda_url"`
}

func (a *ChicagoAdapter) FetchMeetings(ctx context.Context, slug, banana string, opts vendoradapter.FetchOptions) ([]vendoradapter.MeetingResult, error) {
	if err := a.limiters.Wait(ctx, models.VendorCustom); err != nil {
		return nil, vendorerr.HTTP("chicago", slug, err)
	}

	feedURL := "https://chicityclerkelms.chicago.gov/api/events?limit=100"
	body, _, err := doGet(ctx, feedURL)
	if err != nil {
		return nil, vendorerr.HTTP("chicago", slug, err)
	}

	var events []chicagoMatter
	if err := json.Unmarshal(body, &events); err != nil {
		return nil, vendorerr.Parsing("chicago", slug, err)
	}

	results := make([]vendoradapter.MeetingResult, 0, len(events))
	for _, ev := range events {
		if len(results) >= opts.MaxCount {
			break
		}
		date, err := time.Parse("2006-01-02T15:04:05", ev.EventDate)
		if err != nil || !opts.InRange(date) {
			continue
		}
		meetingID := ids.MeetingID(banana, ev.EventID, ev.EventDate, ev.BodyName)
		var agendaURL *string
		if ev.AgendaURL != "" {
			agendaURL = &ev.AgendaURL
		}
		results = append(results, vendoradapter.MeetingResult{
			Meeting: models.Meeting{
				ID:               meetingID,
				Banana:           banana,
				Title:            ev.BodyName,
				Date:             date,
				AgendaURL:        agendaURL,
				ProcessingStatus: models.ProcessingPending,
			},
			Method: "chicago_clerk_rest",
		})
	}
	return results, nil
}

func (a *ChicagoAdapter) FetchMeetingDetail(ctx context.Context, slug, vendorMeetingID string) (vendoradapter.MeetingDetail, error) {
	return vendoradapter.MeetingDetail{}, vendorerr.Unsupported("chicago", slug,
		fmt.Errorf("per-meeting detail fetch is covered by FetchMeetings for chicago"))
}
