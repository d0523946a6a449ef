// Package vendoradapter implements the polymorphic fetch/parse layer over
// engagic's six supported agenda-management platforms. Each
// adapter turns vendor-specific HTML or JSON into the shared Meeting/
// AgendaItem shape; callers never see the underlying page structure.
package vendoradapter

import (
	"context"
	"time"

	"github.com/engagic/core/pkg/models"
)

// FetchOptions bounds how much and how recent the adapter's results are.
type FetchOptions struct {
	MaxCount int
	// Lookback/Horizon implement the date filter: a meeting
	// is kept when its date (time-of-day zeroed) falls within
	// [now-Lookback, now+Horizon].
	Lookback time.Duration
	Horizon  time.Duration
	Now      time.Time // injected for deterministic tests; zero value means time.Now()
}

// DefaultFetchOptions matches engagic's documented defaults (7/14 days).
func DefaultFetchOptions() FetchOptions {
	return FetchOptions{
		MaxCount: 50,
		Lookback: 7 * 24 * time.Hour,
		Horizon:  14 * 24 * time.Hour,
	}
}

func (o FetchOptions) now() time.Time {
	if o.Now.IsZero() {
		return time.Now()
	}
	return o.Now
}

// InRange reports whether date falls inside the configured window, with the
// time-of-day component zeroed on both sides for comparison.
func (o FetchOptions) InRange(date time.Time) bool {
	now := o.now()
	day := func(t time.Time) time.Time {
		y, m, d := t.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	}
	start := day(now).Add(-o.Lookback)
	end := day(now).Add(o.Horizon)
	d := day(date)
	return !d.Before(start) && !d.After(end)
}

// MeetingResult is one meeting produced by an adapter, bundled with the
// agenda items and matter fields the adapter was able to extract. Matters
// themselves are derived by the store/matter tracker from the MatterFile/
// MatterID carried on each item — adapters never construct models.Matter
// directly.
type MeetingResult struct {
	Meeting models.Meeting
	Items   []models.AgendaItem
	// Method records which strategy produced this result (e.g.
	// "legistar_api", "legistar_html_fallback"), logged by the fetcher.
	Method string
}

// MeetingDetail is the richer, single-meeting fetch used when a city's list
// view doesn't carry full item/attachment data.
type MeetingDetail struct {
	Meeting MeetingResult
}

// Adapter is the capability set every vendor implements. Not
// every vendor implements FetchMeetingDetail meaningfully — vendors whose
// list fetch already returns full detail may return vendorerr.Unsupported.
type Adapter interface {
	// Vendor identifies which models.Vendor this adapter implements.
	Vendor() models.Vendor

	// FetchMeetings returns up to opts.MaxCount meetings for the given city
	// slug, filtered to opts' date window. slug addresses the vendor's own
	// hosting (subdomain, portal path, ...); banana is the store's city key
	// and must be used for every Meeting/AgendaItem id and Banana field the
	// adapter produces, since slug and banana are unrelated strings in
	// general. Never returns (nil, nil) — on failure it returns a non-nil
	// *vendorerr.VendorError.
	FetchMeetings(ctx context.Context, slug, banana string, opts FetchOptions) ([]MeetingResult, error)

	// FetchMeetingDetail fetches a single meeting's full detail by the
	// vendor's own meeting id, when the vendor supports per-meeting detail
	// fetches independent of the list view.
	FetchMeetingDetail(ctx context.Context, slug, vendorMeetingID string) (MeetingDetail, error)
}

// Registry maps vendor name to its adapter implementation. VendorCustom is
// special: several unrelated cities share that vendor tag, each needing its
// own adapter, so custom adapters are registered per-banana instead of
// per-vendor and looked up with ForCity.
type Registry struct {
	adapters map[models.Vendor]Adapter
	custom   map[string]Adapter // banana -> adapter, for models.VendorCustom cities
}

// NewRegistry builds a registry from the six single-implementation vendors.
// Custom per-city adapters are added afterward via RegisterCustom.
func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{
		adapters: make(map[models.Vendor]Adapter, len(adapters)),
		custom:   make(map[string]Adapter),
	}
	for _, a := range adapters {
		r.adapters[a.Vendor()] = a
	}
	return r
}

// RegisterCustom wires a per-city custom adapter (Berkeley, Chicago, Menlo
// Park, ...), looked up by banana rather than vendor.
func (r *Registry) RegisterCustom(banana string, a Adapter) {
	r.custom[banana] = a
}

// For returns the adapter registered for vendor, or false if none is. It is
// not meaningful for models.VendorCustom — use ForCity instead.
func (r *Registry) For(vendor models.Vendor) (Adapter, bool) {
	a, ok := r.adapters[vendor]
	return a, ok
}

// ForCity resolves the adapter for a city, routing VendorCustom cities
// through the per-banana custom map and every other vendor through For.
func (r *Registry) ForCity(vendor models.Vendor, banana string) (Adapter, bool) {
	if vendor == models.VendorCustom {
		a, ok := r.custom[banana]
		return a, ok
	}
	return r.For(vendor)
}
