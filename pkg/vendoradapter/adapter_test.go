package vendoradapter

import (
	"context"
	"testing"
	"time"

	"github.com/engagic/core/pkg/models"
	"github.com/engagic/core/pkg/vendorerr"
	"github.com/stretchr/testify/require"
)

func TestFetchOptions_InRange(t *testing.T) {
	now := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)
	opts := FetchOptions{Lookback: 7 * 24 * time.Hour, Horizon: 14 * 24 * time.Hour, Now: now}

	require.True(t, opts.InRange(now))
	require.True(t, opts.InRange(now.Add(-7*24*time.Hour)))
	require.True(t, opts.InRange(now.Add(14*24*time.Hour)))
	require.False(t, opts.InRange(now.Add(-8*24*time.Hour)))
	require.False(t, opts.InRange(now.Add(15*24*time.Hour)))
}

func TestDefaultFetchOptions(t *testing.T) {
	opts := DefaultFetchOptions()
	require.Equal(t, 50, opts.MaxCount)
	require.Equal(t, 7*24*time.Hour, opts.Lookback)
	require.Equal(t, 14*24*time.Hour, opts.Horizon)
}

type stubAdapter struct{ vendor models.Vendor }

func (s *stubAdapter) Vendor() models.Vendor { return s.vendor }
func (s *stubAdapter) FetchMeetings(ctx context.Context, slug, banana string, opts FetchOptions) ([]MeetingResult, error) {
	return nil, nil
}
func (s *stubAdapter) FetchMeetingDetail(ctx context.Context, slug, vendorMeetingID string) (MeetingDetail, error) {
	return MeetingDetail{}, vendorerr.Unsupported(string(s.vendor), slug, nil)
}

func TestRegistry_ForResolvesByVendor(t *testing.T) {
	legistar := &stubAdapter{vendor: models.VendorLegistar}
	granicus := &stubAdapter{vendor: models.VendorGranicus}
	r := NewRegistry(legistar, granicus)

	a, ok := r.For(models.VendorLegistar)
	require.True(t, ok)
	require.Same(t, legistar, a)

	_, ok = r.For(models.VendorPrimeGov)
	require.False(t, ok)
}

func TestRegistry_ForCityRoutesCustomByBanana(t *testing.T) {
	r := NewRegistry()
	berkeley := &stubAdapter{vendor: models.VendorCustom}
	chicago := &stubAdapter{vendor: models.VendorCustom}
	r.RegisterCustom("berkeleyCA", berkeley)
	r.RegisterCustom("chicagoIL", chicago)

	a, ok := r.ForCity(models.VendorCustom, "berkeleyCA")
	require.True(t, ok)
	require.Same(t, berkeley, a)

	a, ok = r.ForCity(models.VendorCustom, "chicagoIL")
	require.True(t, ok)
	require.Same(t, chicago, a)

	_, ok = r.ForCity(models.VendorCustom, "unknownTX")
	require.False(t, ok)
}

func TestRegistry_ForCityNonCustomIgnoresBanana(t *testing.T) {
	legistar := &stubAdapter{vendor: models.VendorLegistar}
	r := NewRegistry(legistar)

	a, ok := r.ForCity(models.VendorLegistar, "anyBananaAtAll")
	require.True(t, ok)
	require.Same(t, legistar, a)
}
