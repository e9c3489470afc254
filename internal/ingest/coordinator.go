package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"legischat/internal/crawl"
	"legischat/internal/model"
	"legischat/internal/vectorindex"
)

const upsertBatchSize = 100

var ErrDuplicateURL = errors.New("url already ingested")

// Crawler produces the typed entries for a seed URL.
type Crawler interface {
	Crawl(ctx context.Context, seedURL string, maxDepth int) ([]crawl.Entry, error)
}

// Embedder turns chunk texts into vectors, preserving order.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// RunPublisher records a finished ingestion for the audit trail.
type RunPublisher interface {
	Publish(ctx context.Context, run model.IngestRun) error
}

// TextChunk is one indexable slice of a crawled document. ChunkIndex is nil
// for entries of unknown kind, which are indexed as a single unchunked blob.
type TextChunk struct {
	SourceURL    string
	DocumentName string
	ChunkIndex   *int
	Text         string
}

// Coordinator runs the full ingestion of a seed URL: crawl, chunk, embed,
// upsert. Each URL is ingested at most once; a second request for the same
// URL is rejected with ErrDuplicateURL.
type Coordinator struct {
	crawler   Crawler
	embedder  Embedder
	index     vectorindex.Index
	publisher RunPublisher
	params    ChunkParams
	dimension int
	batchSize int
	logger    *slog.Logger

	// The index-side duplicate check and the upsert are not atomic, so
	// concurrent ingestions of the same URL serialize on a per-URL lock.
	mu       sync.Mutex
	urlLocks map[string]*sync.Mutex
}

func NewCoordinator(
	crawler Crawler,
	embedder Embedder,
	index vectorindex.Index,
	publisher RunPublisher,
	params ChunkParams,
	dimension int,
	embedBatchSize int,
	logger *slog.Logger,
) (*Coordinator, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if dimension <= 0 {
		return nil, fmt.Errorf("embedding dimension must be positive, got %d", dimension)
	}
	if embedBatchSize <= 0 {
		embedBatchSize = 50
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		crawler:   crawler,
		embedder:  embedder,
		index:     index,
		publisher: publisher,
		params:    params,
		dimension: dimension,
		batchSize: embedBatchSize,
		logger:    logger,
		urlLocks:  make(map[string]*sync.Mutex),
	}, nil
}

// Ingest crawls seedURL to maxDepth and indexes every produced chunk.
// Returns the number of chunks written.
func (c *Coordinator) Ingest(ctx context.Context, seedURL string, maxDepth int) (int, error) {
	lock := c.lockFor(seedURL)
	lock.Lock()
	defer lock.Unlock()

	already, err := c.alreadyIngested(ctx, seedURL)
	if err != nil {
		return 0, fmt.Errorf("duplicate check failed: %w", err)
	}
	if already {
		return 0, fmt.Errorf("%w: %s", ErrDuplicateURL, seedURL)
	}

	entries, err := c.crawler.Crawl(ctx, seedURL, maxDepth)
	if err != nil {
		return 0, fmt.Errorf("crawl failed: %w", err)
	}

	chunks := BuildChunks(entries, c.params)
	if len(chunks) == 0 {
		c.publishRun(ctx, seedURL, maxDepth, 0, model.IngestStatusCompleted)
		return 0, nil
	}

	total, err := c.indexChunks(ctx, chunks)
	if err != nil {
		c.publishRun(ctx, seedURL, maxDepth, total, model.IngestStatusFailed)
		return total, err
	}

	c.logger.Info("ingestion finished", "url", seedURL, "max_depth", maxDepth, "chunks", total)
	c.publishRun(ctx, seedURL, maxDepth, total, model.IngestStatusCompleted)
	return total, nil
}

// ListIngestedURLs returns every distinct source URL present in the index.
func (c *Coordinator) ListIngestedURLs(ctx context.Context) ([]string, error) {
	return c.index.ListURLs(ctx)
}

// BuildChunks flattens crawl entries into ordered text chunks, grouped per
// source URL with one derived document name per group. HTML and PDF texts go
// through the word-window split; anything else is indexed whole.
func BuildChunks(entries []crawl.Entry, params ChunkParams) []TextChunk {
	grouped := make(map[string][]crawl.Entry)
	var order []string
	for _, e := range entries {
		if _, seen := grouped[e.URL]; !seen {
			order = append(order, e.URL)
		}
		grouped[e.URL] = append(grouped[e.URL], e)
	}

	var chunks []TextChunk
	for _, pageURL := range order {
		name := DocumentName(pageURL)
		for _, entry := range grouped[pageURL] {
			switch entry.Kind {
			case crawl.KindHTML, crawl.KindPDF:
				for idx, text := range params.Split(entry.Text) {
					i := idx
					chunks = append(chunks, TextChunk{
						SourceURL:    pageURL,
						DocumentName: name,
						ChunkIndex:   &i,
						Text:         text,
					})
				}
			default:
				chunks = append(chunks, TextChunk{
					SourceURL:    pageURL,
					DocumentName: name,
					ChunkIndex:   nil,
					Text:         entry.Text,
				})
			}
		}
	}
	return chunks
}

// alreadyIngested asks the index whether any vector carries this exact URL
// in its metadata. The query vector is all zeros; only the filter matters.
func (c *Coordinator) alreadyIngested(ctx context.Context, url string) (bool, error) {
	matches, err := c.index.Query(ctx, make([]float32, c.dimension), 1, vectorindex.Filter{"url": url})
	if err != nil {
		return false, err
	}
	return len(matches) > 0, nil
}

func (c *Coordinator) indexChunks(ctx context.Context, chunks []TextChunk) (int, error) {
	vectors := make([][]float32, 0, len(chunks))
	for start := 0; start < len(chunks); start += c.batchSize {
		end := start + c.batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		texts := make([]string, 0, end-start)
		for _, chunk := range chunks[start:end] {
			texts = append(texts, chunk.Text)
		}
		batch, err := c.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return 0, fmt.Errorf("embed batch failed: %w", err)
		}
		vectors = append(vectors, batch...)
	}
	if len(vectors) != len(chunks) {
		return 0, fmt.Errorf("embedding count mismatch: %d chunks, %d vectors", len(chunks), len(vectors))
	}

	total := 0
	for start := 0; start < len(chunks); start += upsertBatchSize {
		end := start + upsertBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		points := make([]vectorindex.Point, 0, end-start)
		for i := start; i < end; i++ {
			chunk := chunks[i]
			payload := map[string]interface{}{
				"url":  chunk.SourceURL,
				"name": chunk.DocumentName,
				"text": chunk.Text,
			}
			if chunk.ChunkIndex != nil {
				payload["chunk_index"] = *chunk.ChunkIndex
			} else {
				payload["chunk_index"] = nil
			}
			points = append(points, vectorindex.Point{
				ID:      PointID(chunk.SourceURL, i),
				Vector:  vectors[i],
				Payload: payload,
			})
		}
		if err := c.index.Upsert(ctx, points); err != nil {
			return total, fmt.Errorf("upsert batch failed: %w", err)
		}
		total += len(points)
	}
	return total, nil
}

// PointID derives a stable vector id from a chunk's source URL and its
// offset in the run, so re-running the same ingestion overwrites rather
// than duplicates. UUIDv5 keeps the id valid for stores that refuse
// arbitrary strings.
func PointID(sourceURL string, offset int) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(fmt.Sprintf("%s#%d", sourceURL, offset))).String()
}

func (c *Coordinator) lockFor(url string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	lock, ok := c.urlLocks[url]
	if !ok {
		lock = &sync.Mutex{}
		c.urlLocks[url] = lock
	}
	return lock
}

func (c *Coordinator) publishRun(ctx context.Context, url string, maxDepth, chunks int, status string) {
	if c.publisher == nil {
		return
	}
	run := model.IngestRun{
		URL:            url,
		MaxDepth:       maxDepth,
		InsertedChunks: chunks,
		Status:         status,
	}
	if err := c.publisher.Publish(ctx, run); err != nil {
		c.logger.Warn("publish ingest run failed", "url", url, "err", err)
	}
}
