package ingest

import (
	"fmt"
	"strings"
)

const (
	DefaultMaxWords = 200
	DefaultOverlap  = 50
)

// ChunkParams control the sliding word window used to split document text.
// The window advances by MaxWords-Overlap each step, so Overlap must stay
// below MaxWords or the split would never terminate; Validate enforces that
// before any chunking happens.
type ChunkParams struct {
	MaxWords int
	Overlap  int
}

func DefaultChunkParams() ChunkParams {
	return ChunkParams{MaxWords: DefaultMaxWords, Overlap: DefaultOverlap}
}

func (p ChunkParams) Validate() error {
	if p.MaxWords <= 0 {
		return fmt.Errorf("chunk max words must be positive, got %d", p.MaxWords)
	}
	if p.Overlap < 0 || p.Overlap >= p.MaxWords {
		return fmt.Errorf("chunk overlap must be in [0, max words), got overlap=%d max_words=%d", p.Overlap, p.MaxWords)
	}
	return nil
}

// Split cuts text into overlapping word windows. The same text and params
// always yield the same ordered chunks; empty text yields none. The last
// window may be shorter than MaxWords.
func (p ChunkParams) Split(text string) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	step := p.MaxWords - p.Overlap
	var chunks []string
	for start := 0; start < len(words); start += step {
		end := start + p.MaxWords
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[start:end], " "))
		// Once a window reaches the last word, a further window would sit
		// entirely inside the overlap of this one.
		if end == len(words) {
			break
		}
	}
	return chunks
}
