package vendoradapter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/engagic/core/pkg/ids"
	"github.com/engagic/core/pkg/models"
	"github.com/engagic/core/pkg/vendorerr"
)

// LegistarAdapter implements the Adapter capability set for Legistar-hosted
// cities. It is API-first (webapi.legistar.com) with a transparent HTML
// fallback when the API is unreachable or a city has disabled it.
type LegistarAdapter struct {
	limiters *RateLimiters
}

// NewLegistarAdapter constructs a Legistar adapter sharing rl for outbound
// rate limiting.
func NewLegistarAdapter(rl *RateLimiters) *LegistarAdapter {
	return &LegistarAdapter{limiters: rl}
}

func (a *LegistarAdapter) Vendor() models.Vendor { return models.VendorLegistar }

type legistarEvent struct {
	EventID           int     `json:"EventId"`
	EventBodyName     string  `json:"EventBodyName"`
	EventDate         string  `json:"EventDate"`
	EventAgendaFile   *string `json:"EventAgendaFile"`
	EventAgendaStatus *string `json:"EventAgendaStatusName"`
	EventMinutesFile  *string `json:"EventMinutesFile"`
}

type legistarEventItem struct {
	EventItemID          int     `json:"EventItemId"`
	EventItemAgendaNumber *string `json:"EventItemAgendaNumber"`
	EventItemTitle       *string `json:"EventItemTitle"`
	EventItemMatterID    *int    `json:"EventItemMatterId"`
	EventItemMatterFile  *string `json:"EventItemMatterFile"`
	EventItemSponsors    *string `json:"EventItemMatterSponsorsAndStaff"`
}

func (a *LegistarAdapter) FetchMeetings(ctx context.Context, slug, banana string, opts FetchOptions) ([]MeetingResult, error) {
	if err := a.limiters.Wait(ctx, models.VendorLegistar); err != nil {
		return nil, vendorerr.HTTP(string(models.VendorLegistar), slug, err)
	}

	base := fmt.Sprintf("https://webapi.legistar.com/v1/%s", slug)
	eventsURL := fmt.Sprintf("%s/Events?$top=%d&$orderby=EventDate desc", base, opts.MaxCount)

	body, _, err := getBytes(ctx, eventsURL)
	if err != nil {
		slog.Warn("legistar API unavailable, falling back to HTML", "slug", slug, "error", err)
		return a.fetchMeetingsHTML(ctx, slug, banana, opts)
	}

	var events []legistarEvent
	if err := json.Unmarshal(body, &events); err != nil {
		slog.Warn("legistar API returned unparseable JSON, falling back to HTML", "slug", slug, "error", err)
		return a.fetchMeetingsHTML(ctx, slug, banana, opts)
	}

	results := make([]MeetingResult, 0, len(events))
	for _, ev := range events {
		date, err := time.Parse("2006-01-02T15:04:05", ev.EventDate)
		if err != nil {
			continue
		}
		if !opts.InRange(date) {
			continue
		}

		items, err := a.fetchEventItems(ctx, base, ev.EventID)
		if err != nil {
			slog.Warn("legistar event items fetch failed", "slug", slug, "event_id", ev.EventID, "error", err)
		}

		meetingID := ids.MeetingID(banana, strconv.Itoa(ev.EventID), ev.EventDate, ev.EventBodyName)

		var agendaURL, packetURL *string
		if ev.EventAgendaFile != nil && *ev.EventAgendaFile != "" {
			agendaURL = ev.EventAgendaFile
		}
		if ev.EventMinutesFile != nil && *ev.EventMinutesFile != "" {
			packetURL = ev.EventMinutesFile
		}

		var vendorStatus *models.VendorMeetingStatus
		if ev.EventAgendaStatus != nil {
			s := strings.ToLower(*ev.EventAgendaStatus)
			var vs models.VendorMeetingStatus
			switch {
			case strings.Contains(s, "cancel"):
				vs = models.VendorStatusCancelled
			case strings.Contains(s, "postpone"):
				vs = models.VendorStatusPostponed
			case strings.Contains(s, "reschedul"):
				vs = models.VendorStatusRescheduled
			}
			if vs != "" {
				vendorStatus = &vs
			}
		}

		agendaItems := make([]models.AgendaItem, 0, len(items))
		for seq, it := range items {
			title := ""
			if it.EventItemTitle != nil {
				title = *it.EventItemTitle
			}
			suffix := strconv.Itoa(it.EventItemID)
			var matterFile, matterID *string
			if it.EventItemMatterFile != nil && *it.EventItemMatterFile != "" {
				matterFile = it.EventItemMatterFile
			}
			if it.EventItemMatterID != nil {
				s := strconv.Itoa(*it.EventItemMatterID)
				matterID = &s
			}
			var sponsors []string
			if it.EventItemSponsors != nil && *it.EventItemSponsors != "" {
				sponsors = splitAndTrim(*it.EventItemSponsors, ",")
			}

			agendaItems = append(agendaItems, models.AgendaItem{
				ID:         ids.AgendaItemID(meetingID, suffix),
				MeetingID:  meetingID,
				Title:      title,
				Sequence:   seq,
				MatterID:   matterID,
				MatterFile: matterFile,
				Sponsors:   sponsors,
				Procedural: IsProcedural(title),
			})
		}

		results = append(results, MeetingResult{
			Meeting: models.Meeting{
				ID:               meetingID,
				Banana:           banana,
				Title:            ev.EventBodyName,
				Date:             date,
				AgendaURL:        agendaURL,
				PacketURL:        packetURL,
				VendorStatus:     vendorStatus,
				ProcessingStatus: models.ProcessingPending,
			},
			Items:  agendaItems,
			Method: "legistar_api",
		})
	}
	return results, nil
}

// fetchEventItems pulls the agenda items for a single Legistar event.
func (a *LegistarAdapter) fetchEventItems(ctx context.Context, base string, eventID int) ([]legistarEventItem, error) {
	if err := a.limiters.Wait(ctx, models.VendorLegistar); err != nil {
		return nil, err
	}
	itemsURL := fmt.Sprintf("%s/Events/%d/EventItems?AgendaNote=1", base, eventID)
	body, _, err := getBytes(ctx, itemsURL)
	if err != nil {
		return nil, err
	}
	var items []legistarEventItem
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// fetchMeetingsHTML is Legistar's HTML-table fallback, used transparently
// when the JSON API is unavailable. The chosen method is logged so callers
// can tell which path served a given result.
func (a *LegistarAdapter) fetchMeetingsHTML(ctx context.Context, slug, banana string, opts FetchOptions) ([]MeetingResult, error) {
	if err := a.limiters.Wait(ctx, models.VendorLegistar); err != nil {
		return nil, vendorerr.HTTP(string(models.VendorLegistar), slug, err)
	}

	calendarURL := fmt.Sprintf("https://%s.legistar.com/Calendar.aspx", slug)
	body, _, err := getBytes(ctx, calendarURL)
	if err != nil {
		return nil, vendorerr.HTTP(string(models.VendorLegistar), slug, err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return nil, vendorerr.Parsing(string(models.VendorLegistar), slug, err)
	}

	var results []MeetingResult
	doc.Find("table.rgMasterTable tr.rgRow, table.rgMasterTable tr.rgAltRow").Each(func(i int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 3 {
			return
		}
		title := strings.TrimSpace(cells.Eq(0).Text())
		dateText := strings.TrimSpace(cells.Eq(1).Text())
		date, err := time.Parse("1/2/2006", dateText)
		if err != nil || !opts.InRange(date) {
			return
		}

		var agendaURL *string
		if href, ok := row.Find("a:contains('Agenda')").Attr("href"); ok {
			u := resolveURL(calendarURL, href)
			agendaURL = &u
		}

		meetingID := ids.MeetingID(banana, fmt.Sprintf("html-%d", i), dateText, title)
		results = append(results, MeetingResult{
			Meeting: models.Meeting{
				ID:               meetingID,
				Banana:           banana,
				Title:            title,
				Date:             date,
				AgendaURL:        agendaURL,
				ProcessingStatus: models.ProcessingPending,
			},
			Method: "legistar_html_fallback",
		})
	})
	return results, nil
}

func (a *LegistarAdapter) FetchMeetingDetail(ctx context.Context, slug, vendorMeetingID string) (MeetingDetail, error) {
	eventID, err := strconv.Atoi(vendorMeetingID)
	if err != nil {
		return MeetingDetail{}, vendorerr.Parsing(string(models.VendorLegistar), slug, err)
	}
	base := fmt.Sprintf("https://webapi.legistar.com/v1/%s", slug)
	items, err := a.fetchEventItems(ctx, base, eventID)
	if err != nil {
		return MeetingDetail{}, vendorerr.HTTP(string(models.VendorLegistar), slug, err)
	}
	_ = items
	return MeetingDetail{}, vendorerr.Unsupported(string(models.VendorLegistar), slug,
		fmt.Errorf("per-meeting detail fetch is covered by FetchMeetings for legistar"))
}

func splitAndTrim(s, sep string) []string {
	parts := strings.Split(s, sep)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
