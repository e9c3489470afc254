// Package pdfextract pulls plain text out of PDF bytes. Two decoders are
// tried in order; a PDF that defeats both yields empty text rather than an
// error, so callers can keep accounting for the document.
package pdfextract

import (
	"bytes"
	"io"
	"os"
	"strings"

	fallbackpdf "github.com/dslipak/pdf"
	"github.com/ledongthuc/pdf"
)

type strategy func(data []byte) (string, error)

var strategies = []strategy{extractPrimary, extractFallback}

// ExtractText returns the human-readable text of the PDF in data. It tries
// each decoder in sequence and returns the first non-empty result; "" means
// no decoder produced usable text.
func ExtractText(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	for _, extract := range strategies {
		text, err := extract(data)
		if err == nil && strings.TrimSpace(text) != "" {
			return strings.TrimSpace(text)
		}
	}
	return ""
}

// extractPrimary decodes page by page, joining non-empty pages with a
// newline.
func extractPrimary(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	var pages []string
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		if strings.TrimSpace(text) != "" {
			pages = append(pages, text)
		}
	}
	return strings.Join(pages, "\n"), nil
}

// extractFallback uses a second decoder that only reads from disk, so the
// bytes are spooled to a temporary file first.
func extractFallback(data []byte) (string, error) {
	tmp, err := os.CreateTemp("", "pdfextract-*.pdf")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}

	reader, err := fallbackpdf.Open(tmp.Name())
	if err != nil {
		return "", err
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", err
	}
	out, err := io.ReadAll(plain)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
