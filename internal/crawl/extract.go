package crawl

import (
	"bytes"
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"legischat/internal/pkg/pdfextract"
)

// ExtractHTML downloads a page and returns its visible text. Transport and
// parse failures propagate so the crawler can abandon the branch.
func (f *Fetcher) ExtractHTML(ctx context.Context, pageURL string) (string, error) {
	body, err := f.Get(ctx, pageURL)
	if err != nil {
		return "", err
	}
	return VisibleText(body)
}

// ExtractPDF downloads a PDF and decodes its text. Download failure
// propagates; decode failure yields empty text so the document is still
// recorded.
func (f *Fetcher) ExtractPDF(ctx context.Context, pdfURL string) (string, error) {
	body, err := f.Get(ctx, pdfURL)
	if err != nil {
		return "", err
	}
	return pdfextract.ExtractText(body), nil
}

// VisibleText strips markup and returns the page's rendered text, one line
// per text node, with script/style content removed.
func VisibleText(htmlBody []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(htmlBody))
	if err != nil {
		return "", err
	}
	doc.Find("script, style, noscript, iframe").Remove()

	var lines []string
	for _, root := range doc.Nodes {
		collectText(root, &lines)
	}
	return strings.Join(lines, "\n"), nil
}

func collectText(n *html.Node, lines *[]string) {
	if n.Type == html.TextNode {
		if text := strings.TrimSpace(n.Data); text != "" {
			*lines = append(*lines, text)
		}
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, lines)
	}
}
