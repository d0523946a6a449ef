package custom

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/engagic/core/pkg/ids"
	"github.com/engagic/core/pkg/models"
	"github.com/engagic/core/pkg/vendoradapter"
	"github.com/engagic/core/pkg/vendorerr"
)

// MenloParkAdapter scrapes the city's self-hosted "Meetings & Agendas"
// page, a plain static HTML table with no vendor CMS behind it at all.
type MenloParkAdapter struct {
	limiters *vendoradapter.RateLimiters
}

func NewMenloParkAdapter(rl *vendoradapter.RateLimiters) *MenloParkAdapter {
	return &MenloParkAdapter{limiters: rl}
}

func (a *MenloParkAdapter) Vendor() models.Vendor { return models.VendorCustom }

func (a *MenloParkAdapter) FetchMeetings(ctx context.Context, slug, banana string, opts vendoradapter.FetchOptions) ([]vendoradapter.MeetingResult, error) {
	if err := a.limiters.Wait(ctx, models.VendorCustom); err != nil {
		return nil, vendorerr.HTTP("menlopark", slug, err)
	}

	pageURL := "https://menlopark.gov/Government/Agendas-and-minutes"
	body, _, err := doGet(ctx, pageURL)
	if err != nil {
		return nil, vendorerr.HTTP("menlopark", slug, err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return nil, vendorerr.Parsing("menlopark", slug, err)
	}

	var results []vendoradapter.MeetingResult
	doc.Find("table.meetings-table tr").Each(func(i int, row *goquery.Selection) {
		if len(results) >= opts.MaxCount || i == 0 {
			return
		}
		cells := row.Find("td")
		if cells.Length() < 2 {
			return
		}
		title := strings.TrimSpace(cells.Eq(0).Text())
		dateText := strings.TrimSpace(cells.Eq(1).Text())
		if title == "" || dateText == "" {
			return
		}
		date, err := time.Parse("1/2/2006", dateText)
		if err != nil || !opts.InRange(date) {
			return
		}
		var agendaURL *string
		if href, ok := row.Find("a").Attr("href"); ok {
			u := resolveURL(pageURL, href)
			agendaURL = &u
		}
		meetingID := ids.MeetingID(banana, fmt.Sprintf("menlopark-%d", i), dateText, title)
		results = append(results, vendoradapter.MeetingResult{
			Meeting: models.Meeting{
				ID:               meetingID,
				Banana:           banana,
				Title:            title,
				Date:             date,
				AgendaURL:        agendaURL,
				ProcessingStatus: models.ProcessingPending,
			},
			Method: "menlopark_static_html",
		})
	})
	return results, nil
}

func (a *MenloParkAdapter) FetchMeetingDetail(ctx context.Context, slug, vendorMeetingID string) (vendoradapter.MeetingDetail, error) {
	return vendoradapter.MeetingDetail{}, vendorerr.Unsupported("menlopark", slug,
		fmt.Errorf("per-meeting detail fetch is covered by FetchMeetings for menlopark"))
}
