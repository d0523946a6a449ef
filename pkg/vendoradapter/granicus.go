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

// GranicusAdapter scrapes Granicus's public ViewPublisher HTML tables.
// Granicus exposes no public JSON API, so unlike Legistar/PrimeGov this
// adapter has only one strategy.
type GranicusAdapter struct {
	limiters *RateLimiters
}

func NewGranicusAdapter(rl *RateLimiters) *GranicusAdapter { return &GranicusAdapter{limiters: rl} }

func (a *GranicusAdapter) Vendor() models.Vendor { return models.VendorGranicus }

func (a *GranicusAdapter) FetchMeetings(ctx context.Context, slug, banana string, opts FetchOptions) ([]MeetingResult, error) {
	if err := a.limiters.Wait(ctx, models.VendorGranicus); err != nil {
		return nil, vendorerr.HTTP(string(models.VendorGranicus), slug, err)
	}

	viewURL := fmt.Sprintf("https://%s.granicus.com/ViewPublisher.php?view_id=1", slug)
	body, _, err := getBytes(ctx, viewURL)
	if err != nil {
		return nil, vendorerr.HTTP(string(models.VendorGranicus), slug, err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return nil, vendorerr.Parsing(string(models.VendorGranicus), slug, err)
	}

	var results []MeetingResult
	doc.Find("table.listingTable tr").Each(func(i int, row *goquery.Selection) {
		if len(results) >= opts.MaxCount {
			return
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
			abs := resolveURL(viewURL, href)
			switch {
			case strings.Contains(label, "agenda"):
				agendaURL = &abs
			case strings.Contains(label, "packet"):
				packetURL = &abs
			}
		})

		meetingID := ids.MeetingID(banana, fmt.Sprintf("granicus-%d", i), dateText, title)
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
			Method: "granicus_html",
		})
	})
	return results, nil
}

func (a *GranicusAdapter) FetchMeetingDetail(ctx context.Context, slug, vendorMeetingID string) (MeetingDetail, error) {
	return MeetingDetail{}, vendorerr.Unsupported(string(models.VendorGranicus), slug,
		fmt.Errorf("granicus exposes no per-meeting detail endpoint beyond the ViewPublisher listing"))
}
