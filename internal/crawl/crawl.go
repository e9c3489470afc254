// Package crawl walks a legislation site from a seed URL, classifies each
// page as HTML or PDF, and extracts its visible text. One Entry is produced
// per distinct URL per run.
package crawl

// EntryKind tells downstream chunking how an entry's text was obtained.
type EntryKind string

const (
	KindHTML  EntryKind = "html"
	KindPDF   EntryKind = "pdf"
	KindOther EntryKind = "other"
)

// Link is one outbound same-domain anchor found on a page.
type Link struct {
	Text string `json:"text"`
	URL  string `json:"url"`
}

// Entry is the record for one visited URL. Immutable once appended to a
// crawl result.
type Entry struct {
	Kind  EntryKind `json:"kind"`
	URL   string    `json:"url"`
	Text  string    `json:"text"`
	Links []Link    `json:"links,omitempty"`
}
