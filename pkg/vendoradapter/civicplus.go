package vendoradapter

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/engagic/core/pkg/ids"
	"github.com/engagic/core/pkg/models"
	"github.com/engagic/core/pkg/vendorerr"
)

// CivicPlusAdapter scrapes the AgendaCenter HTML listing CivicPlus hosts
// under each city's CMS site. Page structure varies slightly between
// CivicPlus CMS versions; this adapter targets the AgendaCenter widget
// markup common across the roster's CivicPlus cities.
type CivicPlusAdapter struct {
	limiters *RateLimiters
}

func NewCivicPlusAdapter(rl *RateLimiters) *CivicPlusAdapter {
	return &CivicPlusAdapter{limiters: rl}
}

func (a *CivicPlusAdapter) Vendor() models.Vendor { return models.VendorCivicPlus }

func (a *CivicPlusAdapter) FetchMeetings(ctx context.Context, slug, banana string, opts FetchOptions) ([]MeetingResult, error) {
	if err := a.limiters.Wait(ctx, models.VendorCivicPlus); err != nil {
		return nil, vendorerr.HTTP(string(models.VendorCivicPlus), slug, err)
	}

	listURL := fmt.Sprintf("https://%s.civicplus.com/AgendaCenter", slug)
	body, _, err := getBytes(ctx, listURL)
	if err != nil {
		return nil, vendorerr.HTTP(string(models.VendorCivicPlus), slug, err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return nil, vendorerr.Parsing(string(models.VendorCivicPlus), slug, err)
	}

	var results []MeetingResult
	doc.Find(".catAgendaRow").Each(func(i int, row *goquery.Selection) {
		if len(results) >= opts.MaxCount {
			return
		}
		title := strings.TrimSpace(row.Find(".catAgendaTitle").Text())
		dateText := strings.TrimSpace(row.Find(".catAgendaDate").Text())
		if title == "" || dateText == "" {
			return
		}
		date, err := time.Parse("January 2, 2006", dateText)
		if err != nil || !opts.InRange(date) {
			return
		}

		var agendaURL, packetURL *string
		row.Find("a").Each(func(_ int, link *goquery.Selection) {
			href, ok := link.Attr("href")
			if !ok {
				return
			}
			label := strings.ToLower(link.Text())
			abs := resolveURL(listURL, href)
			switch {
			case strings.Contains(label, "agenda") && agendaURL == nil:
				agendaURL = &abs
			case strings.Contains(label, "packet") && packetURL == nil:
				packetURL = &abs
			}
		})

		meetingID := ids.MeetingID(banana, fmt.Sprintf("civicplus-%d", i), dateText, title)
		results = append(results, MeetingResult{
			Meeting: models.Meeting{
				ID:               meetingID,
				Banana:           banana,
				Title:            title,
				Date:             date,
				AgendaURL:        agendaURL,
				PacketURL:        packetURL,
				ProcessingStatus: models.ProcessingPending,
			},
			Method: "civicplus_html",
		})
	})
	return results, nil
}

func (a *CivicPlusAdapter) FetchMeetingDetail(ctx context.Context, slug, vendorMeetingID string) (MeetingDetail, error) {
	return MeetingDetail{}, vendorerr.Unsupported(string(models.VendorCivicPlus), slug,
		fmt.Errorf("civicplus exposes no per-meeting detail endpoint beyond the AgendaCenter listing"))
}
