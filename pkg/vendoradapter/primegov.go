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

// PrimeGovAdapter is API-first with HTML fallback, like Legistar. PrimeGov
// cities typically expose a vendor UUID (matter_id) per item but rarely a
// clerk-assigned matter_file.
type PrimeGovAdapter struct {
	limiters *RateLimiters
}

func NewPrimeGovAdapter(rl *RateLimiters) *PrimeGovAdapter { return &PrimeGovAdapter{limiters: rl} }

func (a *PrimeGovAdapter) Vendor() models.Vendor { return models.VendorPrimeGov }

type primeGovMeeting struct {
	ID            int     `json:"id"`
	Title         string  `json:"title"`
	DateTime      string  `json:"dateTime"`
	DocumentList  []primeGovDocument `json:"documentList"`
	AgendaStatus  *string `json:"agendaStatus"`
}

type primeGovDocument struct {
	ID           string `json:"templateId"`
	Name         string `json:"name"`
	DownloadURL  string `json:"url"`
}

type primeGovAgendaItem struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	MatterID *string `json:"legislationId"`
}

func (a *PrimeGovAdapter) FetchMeetings(ctx context.Context, slug, banana string, opts FetchOptions) ([]MeetingResult, error) {
	if err := a.limiters.Wait(ctx, models.VendorPrimeGov); err != nil {
		return nil, vendorerr.HTTP(string(models.VendorPrimeGov), slug, err)
	}

	listURL := fmt.Sprintf("https://%s.primegov.com/api/v2/PublicPortal/ListUpcomingMeetings", slug)
	body, _, err := getBytes(ctx, listURL)
	if err != nil {
		slog.Warn("primegov API unavailable, falling back to HTML", "slug", slug, "error", err)
		return a.fetchMeetingsHTML(ctx, slug, banana, opts)
	}

	var meetings []primeGovMeeting
	if err := json.Unmarshal(body, &meetings); err != nil {
		slog.Warn("primegov API returned unparseable JSON, falling back to HTML", "slug", slug, "error", err)
		return a.fetchMeetingsHTML(ctx, slug, banana, opts)
	}

	results := make([]MeetingResult, 0, len(meetings))
	for _, m := range meetings {
		if len(results) >= opts.MaxCount {
			break
		}
		date, err := time.Parse(time.RFC3339, m.DateTime)
		if err != nil || !opts.InRange(date) {
			continue
		}

		meetingID := ids.MeetingID(banana, strconv.Itoa(m.ID), m.DateTime, m.Title)

		var packetURL *string
		for _, d := range m.DocumentList {
			if strings.Contains(strings.ToLower(d.Name), "packet") || strings.Contains(strings.ToLower(d.Name), "agenda") {
				u := d.DownloadURL
				packetURL = &u
				break
			}
		}

		items, err := a.fetchAgendaItems(ctx, slug, m.ID)
		if err != nil {
			slog.Warn("primegov agenda items fetch failed", "slug", slug, "meeting_id", m.ID, "error", err)
		}
		agendaItems := make([]models.AgendaItem, 0, len(items))
		for seq, it := range items {
			agendaItems = append(agendaItems, models.AgendaItem{
				ID:         ids.AgendaItemID(meetingID, it.ID),
				MeetingID:  meetingID,
				Title:      it.Title,
				Sequence:   seq,
				MatterID:   it.MatterID, // no matter_file for most PrimeGov cities
				Procedural: IsProcedural(it.Title),
			})
		}

		results = append(results, MeetingResult{
			Meeting: models.Meeting{
				ID:               meetingID,
				Banana:           banana,
				Title:            m.Title,
				Date:             date,
				PacketURL:        packetURL,
				ProcessingStatus: models.ProcessingPending,
			},
			Items:  agendaItems,
			Method: "primegov_api",
		})
	}
	return results, nil
}

func (a *PrimeGovAdapter) fetchAgendaItems(ctx context.Context, slug string, meetingID int) ([]primeGovAgendaItem, error) {
	if err := a.limiters.Wait(ctx, models.VendorPrimeGov); err != nil {
		return nil, err
	}
	url := fmt.Sprintf("https://%s.primegov.com/api/v2/PublicPortal/GetAgendaItems?meetingId=%d", slug, meetingID)
	body, _, err := getBytes(ctx, url)
	if err != nil {
		return nil, err
	}
	var items []primeGovAgendaItem
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (a *PrimeGovAdapter) fetchMeetingsHTML(ctx context.Context, slug, banana string, opts FetchOptions) ([]MeetingResult, error) {
	if err := a.limiters.Wait(ctx, models.VendorPrimeGov); err != nil {
		return nil, vendorerr.HTTP(string(models.VendorPrimeGov), slug, err)
	}
	portalURL := fmt.Sprintf("https://%s.primegov.com/Portal/Meeting", slug)
	body, _, err := getBytes(ctx, portalURL)
	if err != nil {
		return nil, vendorerr.HTTP(string(models.VendorPrimeGov), slug, err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return nil, vendorerr.Parsing(string(models.VendorPrimeGov), slug, err)
	}

	var results []MeetingResult
	doc.Find(".meeting-item").Each(func(i int, sel *goquery.Selection) {
		title := strings.TrimSpace(sel.Find(".meeting-title").Text())
		dateText := strings.TrimSpace(sel.Find(".meeting-date").Text())
		date, err := time.Parse("January 2, 2006", dateText)
		if err != nil || !opts.InRange(date) {
			return
		}
		meetingID := ids.MeetingID(banana, fmt.Sprintf("html-%d", i), dateText, title)
		var packetURL *string
		if href, ok := sel.Find("a.packet-link").Attr("href"); ok {
			u := resolveURL(portalURL, href)
			packetURL = &u
		}
		results = append(results, MeetingResult{
			Meeting: models.Meeting{
				ID:               meetingID,
				Banana:           banana,
				Title:            title,
				Date:             date,
				PacketURL:        packetURL,
				ProcessingStatus: models.ProcessingPending,
			},
			Method: "primegov_html_fallback",
		})
	})
	return results, nil
}

func (a *PrimeGovAdapter) FetchMeetingDetail(ctx context.Context, slug, vendorMeetingID string) (MeetingDetail, error) {
	id, err := strconv.Atoi(vendorMeetingID)
	if err != nil {
		return MeetingDetail{}, vendorerr.Parsing(string(models.VendorPrimeGov), slug, err)
	}
	items, err := a.fetchAgendaItems(ctx, slug, id)
	if err != nil {
		return MeetingDetail{}, vendorerr.HTTP(string(models.VendorPrimeGov), slug, err)
	}
	_ = items
	return MeetingDetail{}, vendorerr.Unsupported(string(models.VendorPrimeGov), slug,
		fmt.Errorf("per-meeting detail fetch is covered by FetchMeetings for primegov"))
}
