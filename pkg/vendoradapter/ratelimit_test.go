package vendoradapter

import (
	"context"
	"testing"
	"time"

	"github.com/engagic/core/pkg/models"
	"github.com/stretchr/testify/require"
)

func TestRateLimiters_WaitUsesPerVendorBucket(t *testing.T) {
	rl := NewRateLimiters(map[models.Vendor]float64{models.VendorLegistar: 1000})
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	require.NoError(t, rl.Wait(ctx, models.VendorLegistar))
}

func TestRateLimiters_WaitFallsBackForUnknownVendor(t *testing.T) {
	rl := NewRateLimiters(map[models.Vendor]float64{models.VendorLegistar: 1000})
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	require.NoError(t, rl.Wait(ctx, models.VendorPrimeGov))
}

func TestRateLimiters_NilRPSUsesDefaults(t *testing.T) {
	rl := NewRateLimiters(nil)
	_, ok := rl.limiters[models.VendorLegistar]
	require.True(t, ok)
	_, ok = rl.limiters[models.VendorGranicus]
	require.True(t, ok)
}
