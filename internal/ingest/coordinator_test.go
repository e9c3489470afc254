package ingest

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"legischat/internal/crawl"
	"legischat/internal/model"
	"legischat/internal/vectorindex"
)

type fakeCrawler struct {
	entries []crawl.Entry
	err     error
}

func (f *fakeCrawler) Crawl(ctx context.Context, seedURL string, maxDepth int) ([]crawl.Entry, error) {
	return f.entries, f.err
}

type fakeEmbedder struct {
	calls [][]string
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	f.calls = append(f.calls, texts)
	vectors := make([][]float32, len(texts))
	for i := range vectors {
		vectors[i] = []float32{float32(len(texts[i]))}
	}
	return vectors, nil
}

type fakeIndex struct {
	existing []vectorindex.Match
	queries  []vectorindex.Filter
	upserts  [][]vectorindex.Point
}

func (f *fakeIndex) EnsureCollection(ctx context.Context, dimension int) error { return nil }

func (f *fakeIndex) Upsert(ctx context.Context, points []vectorindex.Point) error {
	f.upserts = append(f.upserts, points)
	return nil
}

func (f *fakeIndex) Query(ctx context.Context, vector []float32, topK int, filter vectorindex.Filter) ([]vectorindex.Match, error) {
	f.queries = append(f.queries, filter)
	return f.existing, nil
}

func (f *fakeIndex) ListURLs(ctx context.Context) ([]string, error) {
	return []string{"https://example.ro/a"}, nil
}

type fakePublisher struct {
	runs []model.IngestRun
}

func (f *fakePublisher) Publish(ctx context.Context, run model.IngestRun) error {
	f.runs = append(f.runs, run)
	return nil
}

func newTestCoordinator(t *testing.T, crawler *fakeCrawler, index *fakeIndex, publisher *fakePublisher) (*Coordinator, *fakeEmbedder) {
	t.Helper()
	embedder := &fakeEmbedder{}
	var pub RunPublisher
	if publisher != nil {
		pub = publisher
	}
	c, err := NewCoordinator(
		crawler,
		embedder,
		index,
		pub,
		ChunkParams{MaxWords: 5, Overlap: 1},
		3,
		2,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
	require.NoError(t, err)
	return c, embedder
}

func TestIngestRejectsDuplicateURL(t *testing.T) {
	index := &fakeIndex{existing: []vectorindex.Match{{ID: "x", Score: 0}}}
	crawler := &fakeCrawler{entries: []crawl.Entry{{Kind: crawl.KindHTML, URL: "https://example.ro/a", Text: "ceva"}}}
	c, _ := newTestCoordinator(t, crawler, index, nil)

	n, err := c.Ingest(context.Background(), "https://example.ro/a", 1)
	require.ErrorIs(t, err, ErrDuplicateURL)
	assert.Zero(t, n)
	assert.Empty(t, index.upserts, "duplicate rejection writes nothing")

	require.Len(t, index.queries, 1)
	assert.Equal(t, "https://example.ro/a", index.queries[0]["url"])
}

func TestIngestIndexesChunksWithMetadata(t *testing.T) {
	crawler := &fakeCrawler{entries: []crawl.Entry{
		{Kind: crawl.KindHTML, URL: "https://example.ro/acte/lege", Text: "unu doi trei patru cinci sase sapte"},
	}}
	index := &fakeIndex{}
	publisher := &fakePublisher{}
	c, _ := newTestCoordinator(t, crawler, index, publisher)

	n, err := c.Ingest(context.Background(), "https://example.ro/acte/lege", 0)
	require.NoError(t, err)
	// 7 words, window 5, step 4: chunks at 0 and 4
	assert.Equal(t, 2, n)

	require.Len(t, index.upserts, 1)
	points := index.upserts[0]
	require.Len(t, points, 2)

	assert.Equal(t, "https://example.ro/acte/lege", points[0].Payload["url"])
	assert.Equal(t, "lege", points[0].Payload["name"])
	assert.Equal(t, 0, points[0].Payload["chunk_index"])
	assert.Equal(t, "unu doi trei patru cinci", points[0].Payload["text"])
	assert.Equal(t, 1, points[1].Payload["chunk_index"])

	require.Len(t, publisher.runs, 1)
	assert.Equal(t, model.IngestStatusCompleted, publisher.runs[0].Status)
	assert.Equal(t, 2, publisher.runs[0].InsertedChunks)
}

func TestIngestUnknownKindIndexedWhole(t *testing.T) {
	crawler := &fakeCrawler{entries: []crawl.Entry{
		{Kind: crawl.KindOther, URL: "https://example.ro/blob", Text: "continut brut"},
	}}
	index := &fakeIndex{}
	c, _ := newTestCoordinator(t, crawler, index, nil)

	n, err := c.Ingest(context.Background(), "https://example.ro/blob", 0)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	point := index.upserts[0][0]
	assert.Nil(t, point.Payload["chunk_index"])
	assert.Equal(t, "continut brut", point.Payload["text"])
}

func TestIngestEmbedsInBatches(t *testing.T) {
	crawler := &fakeCrawler{entries: []crawl.Entry{
		{Kind: crawl.KindHTML, URL: "https://example.ro/a", Text: words(21)},
	}}
	index := &fakeIndex{}
	c, embedder := newTestCoordinator(t, crawler, index, nil)

	// 21 words, window 5, step 4: windows at 0,4,8,12,16 -> 5 chunks
	n, err := c.Ingest(context.Background(), "https://example.ro/a", 0)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	require.Len(t, embedder.calls, 3, "batch size 2 splits 5 chunks into 3 calls")
	assert.Len(t, embedder.calls[0], 2)
}

func TestIngestEmptyCrawlSucceedsWithZeroChunks(t *testing.T) {
	crawler := &fakeCrawler{}
	index := &fakeIndex{}
	publisher := &fakePublisher{}
	c, _ := newTestCoordinator(t, crawler, index, publisher)

	n, err := c.Ingest(context.Background(), "https://example.ro/empty", 1)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, index.upserts)
	require.Len(t, publisher.runs, 1)
	assert.Equal(t, model.IngestStatusCompleted, publisher.runs[0].Status)
}

func TestPointIDDeterministic(t *testing.T) {
	a := PointID("https://example.ro/a", 3)
	b := PointID("https://example.ro/a", 3)
	c := PointID("https://example.ro/a", 4)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestBuildChunksGroupsPerURL(t *testing.T) {
	entries := []crawl.Entry{
		{Kind: crawl.KindHTML, URL: "https://example.ro/a", Text: "unu doi"},
		{Kind: crawl.KindPDF, URL: "https://example.ro/b.pdf", Text: "trei patru"},
	}
	chunks := BuildChunks(entries, ChunkParams{MaxWords: 5, Overlap: 0})
	require.Len(t, chunks, 2)
	assert.Equal(t, "a", chunks[0].DocumentName)
	assert.Equal(t, "b.pdf", chunks[1].DocumentName)
	require.NotNil(t, chunks[0].ChunkIndex)
	assert.Equal(t, 0, *chunks[0].ChunkIndex)
}
