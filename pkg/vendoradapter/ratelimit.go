package vendoradapter

import (
	"context"

	"github.com/engagic/core/pkg/models"
	"golang.org/x/time/rate"
)

// RateLimiters holds one process-local token bucket per vendor.
// Bucket state is intentionally process-local: engagic assumes a single
// fetcher instance per deployment, so there is no need for a distributed
// limiter (and adding one, e.g. Redis-backed, would add complexity the
// current deployment model doesn't need — see DESIGN.md).
type RateLimiters struct {
	limiters map[models.Vendor]*rate.Limiter
	fallback *rate.Limiter
}

// DefaultVendorRPS are the documented per-vendor rate limit defaults.
var DefaultVendorRPS = map[models.Vendor]float64{
	models.VendorLegistar: 1,
	models.VendorGranicus: 2,
}

// NewRateLimiters builds the default set of limiters, overridable by rps.
// Vendors absent from both rps and DefaultVendorRPS fall back to 3 req/s.
func NewRateLimiters(rps map[models.Vendor]float64) *RateLimiters {
	merged := make(map[models.Vendor]float64, len(DefaultVendorRPS)+len(rps))
	for v, r := range DefaultVendorRPS {
		merged[v] = r
	}
	for v, r := range rps {
		merged[v] = r
	}
	rl := &RateLimiters{
		limiters: make(map[models.Vendor]*rate.Limiter, len(merged)),
		fallback: rate.NewLimiter(rate.Limit(3), 3),
	}
	for v, r := range merged {
		rl.limiters[v] = rate.NewLimiter(rate.Limit(r), max(1, int(r)))
	}
	return rl
}

// Wait blocks until a token is available for vendor, or ctx is done.
func (rl *RateLimiters) Wait(ctx context.Context, vendor models.Vendor) error {
	if l, ok := rl.limiters[vendor]; ok {
		return l.Wait(ctx)
	}
	return rl.fallback.Wait(ctx)
}
