package ingest

import (
	"net/url"
	"strings"

	"github.com/google/uuid"
)

// pdfSentinelSegment is the generic path segment some legislation portals
// use for every served PDF. Documents behind it would all collapse onto the
// same name, so each gets a fresh unique id instead.
const pdfSentinelSegment = "PDF"

// DocumentName derives an identifier-safe name from a URL: the URL-decoded
// last path segment, or an encoded host+path when the path carries no usable
// segment.
func DocumentName(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return url.QueryEscape(rawURL)
	}

	var name string
	if segment := lastPathSegment(parsed.Path); segment != "" {
		if decoded, err := url.PathUnescape(segment); err == nil {
			name = decoded
		} else {
			name = segment
		}
	}

	if name == pdfSentinelSegment {
		return uuid.NewString()
	}
	if name == "" {
		name = url.QueryEscape(parsed.Host + parsed.Path)
	}
	return strings.ReplaceAll(name, " ", "_")
}

func lastPathSegment(path string) string {
	trimmed := strings.TrimRight(path, "/")
	if trimmed == "" {
		return ""
	}
	return trimmed[strings.LastIndex(trimmed, "/")+1:]
}
