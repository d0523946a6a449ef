package vendoradapter

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// DefaultHTTPTimeout is the per-call vendor timeout.
const DefaultHTTPTimeout = 30 * time.Second

// httpClient is the shared transport used by all adapters. A single client
// (with its own connection pool) is reused across vendors; rate limiting
// happens one layer up in RateLimiters, not here.
var httpClient = &http.Client{Timeout: DefaultHTTPTimeout}

// getBytes issues a GET request and returns the raw body and status code.
// Transport and non-2xx failures come back as plain errors, which callers
// wrap with vendorerr.HTTP.
func getBytes(ctx context.Context, rawURL string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("User-Agent", "engagic-fetcher/1.0 (+https://engagic.org)")
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return body, resp.StatusCode, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, rawURL)
	}
	return body, resp.StatusCode, nil
}

// resolveURL turns a possibly-relative href into an absolute URL against
// base, so every attachment URL stored is absolute.
func resolveURL(base, href string) string {
	b, err := url.Parse(base)
	if err != nil {
		return href
	}
	r, err := url.Parse(href)
	if err != nil {
		return href
	}
	return b.ResolveReference(r).String()
}
