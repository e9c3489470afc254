package crawl

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCrawler() *Crawler {
	return NewCrawler(testFetcher(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// site serves a small same-domain page graph for crawl tests.
func site(t *testing.T, pages map[string]string) (*httptest.Server, *atomic.Int64) {
	t.Helper()
	var getCount atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := pages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		if r.Method == http.MethodGet {
			getCount.Add(1)
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &getCount
}

func entryURLs(entries []Entry) []string {
	urls := make([]string, len(entries))
	for i, e := range entries {
		urls[i] = e.URL
	}
	return urls
}

func TestCrawlDepthZeroVisitsOnlySeed(t *testing.T) {
	srv, _ := site(t, map[string]string{
		"/":  `<html><body>home <a href="/a">a</a></body></html>`,
		"/a": `<html><body>page a</body></html>`,
	})

	entries, err := newTestCrawler().Crawl(context.Background(), srv.URL+"/", 0)
	require.NoError(t, err)

	require.Len(t, entries, 1)
	assert.Equal(t, KindHTML, entries[0].Kind)
	assert.Equal(t, srv.URL+"/", entries[0].URL)
	// At the depth ceiling no link discovery happens.
	assert.Empty(t, entries[0].Links)
}

func TestCrawlDepthOneStopsAtChildren(t *testing.T) {
	srv, _ := site(t, map[string]string{
		"/":  `<a href="/a">a</a><a href="/b">b</a>`,
		"/a": `page a <a href="/c">c</a>`,
		"/b": `page b`,
		"/c": `grandchild, must not be visited`,
	})

	entries, err := newTestCrawler().Crawl(context.Background(), srv.URL+"/", 1)
	require.NoError(t, err)

	assert.Equal(t, []string{srv.URL + "/", srv.URL + "/a", srv.URL + "/b"}, entryURLs(entries))
	// Children sit at the depth ceiling: their links are never discovered.
	assert.Empty(t, entries[1].Links)
	require.Len(t, entries[0].Links, 2)
}

func TestCrawlSelfLinkVisitedOnce(t *testing.T) {
	srv, _ := site(t, map[string]string{
		"/": `looping <a href="/">self</a>`,
	})

	entries, err := newTestCrawler().Crawl(context.Background(), srv.URL+"/", 3)
	require.NoError(t, err)
	assert.Equal(t, []string{srv.URL + "/"}, entryURLs(entries))
}

func TestCrawlCycleBetweenPages(t *testing.T) {
	srv, _ := site(t, map[string]string{
		"/":  `<a href="/a">a</a>`,
		"/a": `<a href="/">back</a><a href="/b">b</a>`,
		"/b": `leaf`,
	})

	entries, err := newTestCrawler().Crawl(context.Background(), srv.URL+"/", 5)
	require.NoError(t, err)
	assert.Equal(t, []string{srv.URL + "/", srv.URL + "/a", srv.URL + "/b"}, entryURLs(entries))
}

func TestCrawlBrokenPageDropsBranchOnly(t *testing.T) {
	srv, _ := site(t, map[string]string{
		"/":  `<a href="/missing">gone</a><a href="/b">b</a>`,
		"/b": `page b`,
	})

	entries, err := newTestCrawler().Crawl(context.Background(), srv.URL+"/", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{srv.URL + "/", srv.URL + "/b"}, entryURLs(entries))
}

func TestCrawlPDFIsLeaf(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/":
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte(`<a href="/pdf/lege.pdf">lege</a>`))
		case "/pdf/lege.pdf":
			w.Header().Set("Content-Type", "application/pdf")
			_, _ = w.Write([]byte("not really a pdf"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	entries, err := newTestCrawler().Crawl(context.Background(), srv.URL+"/", 1)
	require.NoError(t, err)

	require.Len(t, entries, 2)
	assert.Equal(t, KindPDF, entries[1].Kind)
	// Both decoders fail on garbage bytes; the entry is kept with empty text.
	assert.Equal(t, "", entries[1].Text)
	assert.Empty(t, entries[1].Links)
}

func TestCrawlCancelledContext(t *testing.T) {
	srv, _ := site(t, map[string]string{"/": `seed`})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestCrawler().Crawl(ctx, srv.URL+"/", 1)
	assert.ErrorIs(t, err, context.Canceled)
}
