package custom

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
)

// rewriteTransport redirects every outbound request to srv regardless of
// its original host, so adapters with hardcoded vendor URLs can be driven
// against a local fixture.
type rewriteTransport struct {
	target *url.URL
	base   http.RoundTripper
}

func (t *rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.URL.Scheme = t.target.Scheme
	req.URL.Host = t.target.Host
	req.Host = t.target.Host
	return t.base.RoundTrip(req)
}

// withFakeServer points the package's shared httpClient at srv for the
// duration of the test.
func withFakeServer(t *testing.T, srv *httptest.Server) {
	t.Helper()
	target, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	orig := httpClient
	httpClient = &http.Client{Transport: &rewriteTransport{target: target, base: http.DefaultTransport}}
	t.Cleanup(func() { httpClient = orig })
}
