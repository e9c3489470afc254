package crawl

import (
	"bytes"
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// DiscoverLinks fetches an HTML page and returns its outbound anchors that
// stay on the page's domain (exact host or subdomain). Duplicates are kept;
// the crawler's visited set handles dedup.
func (f *Fetcher) DiscoverLinks(ctx context.Context, pageURL string) ([]Link, error) {
	body, err := f.Get(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	return ParseLinks(pageURL, body)
}

// ParseLinks extracts same-domain links from raw HTML, resolving each href
// against the page URL.
func ParseLinks(pageURL string, htmlBody []byte) ([]Link, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(htmlBody))
	if err != nil {
		return nil, err
	}

	var links []Link
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok {
			return
		}
		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			return
		}
		resolved := base.ResolveReference(ref)
		if !sameDomain(resolved.Host, base.Host) {
			return
		}
		links = append(links, Link{
			Text: strings.TrimSpace(sel.Text()),
			URL:  resolved.String(),
		})
	})
	return links, nil
}

func sameDomain(host, baseHost string) bool {
	return host == baseHost || strings.HasSuffix(host, "."+baseHost)
}
