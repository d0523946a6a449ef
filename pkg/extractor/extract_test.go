package extractor

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract_HTML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><head><style>body{color:red}</style></head>
			<body><nav>Skip</nav><h1>Agenda Item 4</h1><p>Approve the   budget.</p></body></html>`))
	}))
	defer srv.Close()

	e := New(NewCache(16, time.Hour))
	text, pages, err := e.Extract(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, 0, pages)
	assert.Contains(t, text, "Agenda Item 4")
	assert.Contains(t, text, "Approve the budget.")
	assert.NotContains(t, text, "Skip")
}

func TestExtract_CachesSecondCall(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body>content</body></html>`))
	}))
	defer srv.Close()

	e := New(NewCache(16, time.Hour))
	_, _, err := e.Extract(context.Background(), srv.URL)
	require.NoError(t, err)
	_, _, err = e.Extract(context.Background(), srv.URL)
	require.NoError(t, err)

	assert.Equal(t, 1, hits, "second Extract call should be served from cache")
}

func TestExtract_EmptyBodyIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body>   </body></html>`))
	}))
	defer srv.Close()

	e := New(NewCache(16, time.Hour))
	_, _, err := e.Extract(context.Background(), srv.URL)
	assert.Error(t, err)
}

func TestExtract_NonSuccessStatusIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	e := New(NewCache(16, time.Hour))
	_, _, err := e.Extract(context.Background(), srv.URL)
	assert.Error(t, err)
}

func TestLooksLikePDF(t *testing.T) {
	assert.True(t, looksLikePDF("https://x.com/a.pdf", "", nil))
	assert.True(t, looksLikePDF("https://x.com/a", "application/pdf", nil))
	assert.True(t, looksLikePDF("https://x.com/a", "", []byte("%PDF-1.4")))
	assert.False(t, looksLikePDF("https://x.com/a.html", "text/html", []byte("<html>")))
}

func TestNormalize_CollapsesWhitespace(t *testing.T) {
	assert.Equal(t, "a b c", normalize("a   b\n\tc  "))
}
