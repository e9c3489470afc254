package crawl

import (
	"context"
	"log/slog"
)

// Crawler traverses a site from a seed URL down to a maximum depth,
// producing one Entry per distinct URL in pre-order of first visitation.
type Crawler struct {
	fetcher *Fetcher
	logger  *slog.Logger
}

func NewCrawler(fetcher *Fetcher, logger *slog.Logger) *Crawler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Crawler{fetcher: fetcher, logger: logger}
}

type frame struct {
	url   string
	depth int
}

// Crawl runs a depth-bounded traversal. maxDepth is inclusive: 0 visits only
// the seed, 1 adds the seed's direct same-domain children. PDFs are leaves at
// any depth. A page that fails to fetch or parse drops its branch without
// failing the run; the only terminal error is context cancellation.
func (c *Crawler) Crawl(ctx context.Context, seedURL string, maxDepth int) ([]Entry, error) {
	visited := newVisitedSet()
	var entries []Entry

	// Explicit LIFO stack instead of recursion; children are pushed in
	// reverse so pop order matches document order.
	stack := []frame{{url: seedURL, depth: 0}}
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if f.depth > maxDepth || !visited.Add(f.url) {
			continue
		}

		if c.fetcher.IsPDFLink(ctx, f.url) {
			text, err := c.fetcher.ExtractPDF(ctx, f.url)
			if err != nil {
				// A broken PDF download still counts as a PDF entry with
				// empty text, keeping ingestion accounting intact.
				c.logger.Warn("pdf fetch failed", "url", f.url, "err", err)
				text = ""
			}
			entries = append(entries, Entry{Kind: KindPDF, URL: f.url, Text: text})
			continue
		}

		text, err := c.fetcher.ExtractHTML(ctx, f.url)
		if err != nil {
			c.logger.Warn("html extraction failed, dropping branch", "url", f.url, "err", err)
			continue
		}

		var links []Link
		if f.depth < maxDepth {
			links, err = c.fetcher.DiscoverLinks(ctx, f.url)
			if err != nil {
				c.logger.Warn("link discovery failed, dropping branch", "url", f.url, "err", err)
				continue
			}
		}

		entries = append(entries, Entry{Kind: KindHTML, URL: f.url, Text: text, Links: links})

		for i := len(links) - 1; i >= 0; i-- {
			stack = append(stack, frame{url: links[i].URL, depth: f.depth + 1})
		}
	}

	c.logger.Info("crawl finished", "seed", seedURL, "max_depth", maxDepth,
		"visited", visited.Len(), "entries", len(entries))
	return entries, nil
}
