// Package vendorerr defines the typed error taxonomy vendor adapters raise.
// Adapters never return (nil, nil) on failure; every failure path returns
// one of these wrapped in *VendorError so callers can branch on Kind
// without string-matching messages.
package vendorerr

import "fmt"

// Kind classifies why a vendor adapter call failed.
type Kind string

const (
	// KindHTTP covers network failures and non-2xx responses from the
	// vendor's API or website. Transient — safe to retry.
	KindHTTP Kind = "http"
	// KindParsing covers HTML/JSON shape changes the adapter can't
	// understand. Non-retryable: retrying won't fix a changed page.
	KindParsing Kind = "parsing"
	// KindUnsupported covers vendor operations the adapter doesn't
	// implement for a given city (e.g. FetchMeetingDetail on a vendor
	// that only supports list-level fetches).
	KindUnsupported Kind = "unsupported"
)

// VendorError is the single error type every vendor adapter returns.
type VendorError struct {
	Vendor string
	Slug   string
	Kind   Kind
	Cause  error
}

func (e *VendorError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("vendor %s (%s): %s: %v", e.Vendor, e.Slug, e.Kind, e.Cause)
	}
	return fmt.Sprintf("vendor %s (%s): %s", e.Vendor, e.Slug, e.Kind)
}

func (e *VendorError) Unwrap() error { return e.Cause }

// HTTP wraps a transport/status-code failure.
func HTTP(vendor, slug string, cause error) *VendorError {
	return &VendorError{Vendor: vendor, Slug: slug, Kind: KindHTTP, Cause: cause}
}

// Parsing wraps an unrecognized-document-shape failure. Non-retryable.
func Parsing(vendor, slug string, cause error) *VendorError {
	return &VendorError{Vendor: vendor, Slug: slug, Kind: KindParsing, Cause: cause}
}

// Unsupported reports that the adapter doesn't implement the requested
// capability for this vendor/city.
func Unsupported(vendor, slug string, cause error) *VendorError {
	return &VendorError{Vendor: vendor, Slug: slug, Kind: KindUnsupported, Cause: cause}
}

// Retryable reports whether the queue should re-attempt work that failed
// with this error: parsing and unsupported failures skip the retry ladder
// and go straight to the dead-letter tier.
func (e *VendorError) Retryable() bool {
	return e.Kind == KindHTTP
}
