package crawl

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func testFetcher() *Fetcher {
	return NewFetcher("legischat-test", 1000)
}

func TestIsPDFLinkPathHeuristics(t *testing.T) {
	f := testFetcher()
	ctx := context.Background()

	// No server behind these URLs: the path check must decide without a
	// network probe.
	assert.True(t, f.IsPDFLink(ctx, "https://example.invalid/files/lege.pdf"))
	assert.True(t, f.IsPDFLink(ctx, "https://example.invalid/files/LEGE.PDF"))
	assert.True(t, f.IsPDFLink(ctx, "https://example.invalid/pdf/12345"))
}

func TestIsPDFLinkContentTypeProbe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/doc":
			w.Header().Set("Content-Type", "application/pdf")
		default:
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
		}
	}))
	defer srv.Close()

	f := testFetcher()
	assert.True(t, f.IsPDFLink(context.Background(), srv.URL+"/doc"))
	assert.False(t, f.IsPDFLink(context.Background(), srv.URL+"/page"))
}

func TestIsPDFLinkProbeFailureFailsOpen(t *testing.T) {
	// Unreachable host: the probe errors and the URL is treated as HTML.
	f := testFetcher()
	assert.False(t, f.IsPDFLink(context.Background(), "http://127.0.0.1:1/unreachable"))
}
