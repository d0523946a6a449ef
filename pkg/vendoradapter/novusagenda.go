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

// NovusAgendaAdapter scrapes the MeetingView.aspx HTML table NovusAgenda
// exposes publicly. Like Granicus, there is no documented JSON API.
type NovusAgendaAdapter struct {
	limiters *RateLimiters
}

func NewNovusAgendaAdapter(rl *RateLimiters) *NovusAgendaAdapter {
	return &NovusAgendaAdapter{limiters: rl}
}

func (a *NovusAgendaAdapter) Vendor() models.Vendor { return models.VendorNovusAgenda }

func (a *NovusAgendaAdapter) FetchMeetings(ctx context.Context, slug, banana string, opts FetchOptions) ([]MeetingResult, error) {
	if err := a.limiters.Wait(ctx, models.VendorNovusAgenda); err != nil {
		return nil, vendorerr.HTTP(string(models.VendorNovusAgenda), slug, err)
	}

	viewURL := fmt.Sprintf("https://%s.novusagenda.com/agendapublic/MeetingView.aspx", slug)
	body, _, err := getBytes(ctx, viewURL)
	if err != nil {
		return nil, vendorerr.HTTP(string(models.VendorNovusAgenda), slug, err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return nil, vendorerr.Parsing(string(models.VendorNovusAgenda), slug, err)
	}

	var results []MeetingResult
	doc.Find("table#MeetingsTable tr").Each(func(i int, row *goquery.Selection) {
		if len(results) >= opts.MaxCount || i == 0 {
			return // header row
		}
		cells := row.Find("td")
		if cells.Length() < 3 {
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
		if href, ok := cells.Eq(2).Find("a").Attr("href"); ok {
			u := resolveURL(viewURL, href)
			agendaURL = &u
		}

		meetingID := ids.MeetingID(banana, fmt.Sprintf("novus-%d", i), dateText, title)
		results = append(results, MeetingResult{
			Meeting: models.Meeting{
				ID:               meetingID,
				Banana:           banana,
				Title:            title,
				Date:             date,
				AgendaURL:        agendaURL,
				ProcessingStatus: models.ProcessingPending,
			},
			Method: "novusagenda_html",
		})
	})
	return results, nil
}

func (a *NovusAgendaAdapter) FetchMeetingDetail(ctx context.Context, slug, vendorMeetingID string) (MeetingDetail, error) {
	return MeetingDetail{}, vendorerr.Unsupported(string(models.VendorNovusAgenda), slug,
		fmt.Errorf("novusagenda exposes no per-meeting detail endpoint beyond the MeetingView listing"))
}
