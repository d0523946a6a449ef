package custom

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Custom adapters hit a handful of unrelated hosts with no shared base
// path, so they keep their own small HTTP helper rather than depending on
// vendoradapter's unexported client.
var httpClient = &http.Client{Timeout: 30 * time.Second}

func doGet(ctx context.Context, rawURL string) ([]byte, int, error) {
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
