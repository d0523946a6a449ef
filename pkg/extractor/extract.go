// Package extractor turns a document URL into normalized plain text and a
// page count, with no semantic interpretation of the content. It downloads
// PDF or HTML, dispatching on content-type/extension, and caches results
// per-process so a document shared across agenda items within a meeting is
// only ever downloaded once.
package extractor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/ledongthuc/pdf"
)

// DefaultTimeout is the per-extraction call budget.
const DefaultTimeout = 60 * time.Second

// Extractor downloads and extracts documents, caching results in-process.
type Extractor struct {
	client *http.Client
	cache  *Cache
}

// New builds an Extractor backed by cache. A nil cache disables caching.
func New(cache *Cache) *Extractor {
	return &Extractor{
		client: &http.Client{Timeout: DefaultTimeout},
		cache:  cache,
	}
}

// Extract downloads url and returns normalized UTF-8 text plus a page
// count (0 for HTML, where pagination has no meaning). Results are served
// from cache when present and unexpired.
func (e *Extractor) Extract(ctx context.Context, url string) (string, int, error) {
	if e.cache != nil {
		if text, pages, ok := e.cache.Get(url); ok {
			return text, pages, nil
		}
	}

	body, contentType, err := e.download(ctx, url)
	if err != nil {
		return "", 0, fmt.Errorf("extract %s: %w", url, err)
	}

	var text string
	var pages int
	if looksLikePDF(url, contentType, body) {
		text, pages, err = extractPDF(body)
	} else {
		text, err = extractHTML(body)
	}
	if err != nil {
		return "", 0, fmt.Errorf("extract %s: %w", url, err)
	}
	if strings.TrimSpace(text) == "" {
		return "", 0, fmt.Errorf("extract %s: no extractable text", url)
	}

	if e.cache != nil {
		e.cache.Set(url, text, pages)
	}
	return text, pages, nil
}

func (e *Extractor) download(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("User-Agent", "engagic-extractor/1.0 (+https://engagic.org)")
	resp, err := e.client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", err
	}
	return body, resp.Header.Get("Content-Type"), nil
}

func looksLikePDF(url, contentType string, body []byte) bool {
	if strings.Contains(contentType, "application/pdf") {
		return true
	}
	if strings.HasSuffix(strings.ToLower(url), ".pdf") {
		return true
	}
	return bytes.HasPrefix(body, []byte("%PDF-"))
}

func extractPDF(body []byte) (string, int, error) {
	reader, err := pdf.NewReader(bytes.NewReader(body), int64(len(body)))
	if err != nil {
		return "", 0, err
	}
	numPages := reader.NumPage()
	var sb strings.Builder
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		sb.WriteString(pageText)
		sb.WriteString("\n")
	}
	return normalize(sb.String()), numPages, nil
}

func extractHTML(body []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	doc.Find("script, style, nav, header, footer").Remove()
	return normalize(doc.Text()), nil
}

// normalize collapses runs of whitespace into single spaces without
// performing any semantic transform on the text.
func normalize(s string) string {
	fields := strings.Fields(s)
	return strings.Join(fields, " ")
}
