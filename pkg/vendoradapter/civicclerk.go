package vendoradapter

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/engagic/core/pkg/ids"
	"github.com/engagic/core/pkg/models"
	"github.com/engagic/core/pkg/vendorerr"
)

// CivicClerkAdapter calls CivicClerk's public portal JSON API. CivicClerk
// does not publish an HTML fallback surface stable enough to scrape, so
// API failures are returned directly rather than degraded.
type CivicClerkAdapter struct {
	limiters *RateLimiters
}

func NewCivicClerkAdapter(rl *RateLimiters) *CivicClerkAdapter {
	return &CivicClerkAdapter{limiters: rl}
}

func (a *CivicClerkAdapter) Vendor() models.Vendor { return models.VendorCivicClerk }

type civicClerkEvent struct {
	ID           int                  `json:"id"`
	CategoryName string               `json:"categoryName"`
	StartDateTime string              `json:"startDateTime"`
	PublishedFiles []civicClerkFile   `json:"publishedFiles"`
}

type civicClerkFile struct {
	FileName string `json:"fileName"`
	URL      string `json:"downloadUrl"`
}

func (a *CivicClerkAdapter) FetchMeetings(ctx context.Context, slug, banana string, opts FetchOptions) ([]MeetingResult, error) {
	if err := a.limiters.Wait(ctx, models.VendorCivicClerk); err != nil {
		return nil, vendorerr.HTTP(string(models.VendorCivicClerk), slug, err)
	}

	eventsURL := fmt.Sprintf("https://%s.api.civicclerk.com/v1/Events?$orderby=startDateTime desc&$top=%d", slug, opts.MaxCount)
	body, _, err := getBytes(ctx, eventsURL)
	if err != nil {
		return nil, vendorerr.HTTP(string(models.VendorCivicClerk), slug, err)
	}

	var payload struct {
		Value []civicClerkEvent `json:"value"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, vendorerr.Parsing(string(models.VendorCivicClerk), slug, err)
	}

	results := make([]MeetingResult, 0, len(payload.Value))
	for _, ev := range payload.Value {
		date, err := time.Parse(time.RFC3339, ev.StartDateTime)
		if err != nil || !opts.InRange(date) {
			continue
		}

		meetingID := ids.MeetingID(banana, strconv.Itoa(ev.ID), ev.StartDateTime, ev.CategoryName)

		var agendaURL, packetURL *string
		for _, f := range ev.PublishedFiles {
			u := f.URL
			name := strings.ToLower(f.FileName)
			switch {
			case agendaURL == nil && strings.Contains(name, "agenda"):
				agendaURL = &u
			case packetURL == nil && strings.Contains(name, "packet"):
				packetURL = &u
			}
		}

		results = append(results, MeetingResult{
			Meeting: models.Meeting{
				ID:               meetingID,
				Banana:           banana,
				Title:            ev.CategoryName,
				Date:             date,
				AgendaURL:        agendaURL,
				PacketURL:        packetURL,
				ProcessingStatus: models.ProcessingPending,
			},
			Method: "civicclerk_api",
		})
	}
	return results, nil
}

func (a *CivicClerkAdapter) FetchMeetingDetail(ctx context.Context, slug, vendorMeetingID string) (MeetingDetail, error) {
	return MeetingDetail{}, vendorerr.Unsupported(string(models.VendorCivicClerk), slug,
		fmt.Errorf("per-meeting detail fetch is covered by FetchMeetings for civicclerk"))
}
