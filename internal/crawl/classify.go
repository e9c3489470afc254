package crawl

import (
	"context"
	"net/url"
	"strings"
)

// IsPDFLink reports whether rawURL points at a PDF. The URL path is checked
// first; only when that is inconclusive does it fall back to a HEAD probe of
// the declared content type. A failed probe means not-PDF, so a flaky server
// degrades to HTML handling instead of aborting the crawl.
func (f *Fetcher) IsPDFLink(ctx context.Context, rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	path := strings.ToLower(parsed.Path)
	if strings.HasSuffix(path, ".pdf") || strings.Contains(path, "/pdf") {
		return true
	}

	contentType, err := f.ContentType(ctx, rawURL)
	if err != nil {
		return false
	}
	return strings.Contains(strings.ToLower(contentType), "application/pdf")
}
