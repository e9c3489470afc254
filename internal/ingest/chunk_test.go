package ingest

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func words(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("w%d", i)
	}
	return strings.Join(parts, " ")
}

func TestChunkParamsValidate(t *testing.T) {
	assert.NoError(t, ChunkParams{MaxWords: 200, Overlap: 50}.Validate())
	assert.NoError(t, ChunkParams{MaxWords: 1, Overlap: 0}.Validate())
	assert.Error(t, ChunkParams{MaxWords: 0, Overlap: 0}.Validate())
	assert.Error(t, ChunkParams{MaxWords: 100, Overlap: 100}.Validate())
	assert.Error(t, ChunkParams{MaxWords: 100, Overlap: -1}.Validate())
}

func TestSplitShortText(t *testing.T) {
	params := DefaultChunkParams()
	chunks := params.Split(words(10))
	require.Len(t, chunks, 1)
	assert.Equal(t, words(10), chunks[0])
}

func TestSplitEmptyText(t *testing.T) {
	params := DefaultChunkParams()
	assert.Empty(t, params.Split(""))
	assert.Empty(t, params.Split("   \n\t  "))
}

func TestSplitWindowing(t *testing.T) {
	params := ChunkParams{MaxWords: 10, Overlap: 3}
	chunks := params.Split(words(25))

	// step is 7, so windows start at 0, 7, 14, 21
	require.Len(t, chunks, 4)
	assert.Equal(t, 10, len(strings.Fields(chunks[0])))
	assert.Equal(t, 10, len(strings.Fields(chunks[1])))
	assert.Equal(t, 4, len(strings.Fields(chunks[3])))

	first := strings.Fields(chunks[0])
	second := strings.Fields(chunks[1])
	assert.Equal(t, first[7:], second[:3], "consecutive chunks share the overlap")
}

func TestSplitExactWindow(t *testing.T) {
	params := ChunkParams{MaxWords: 10, Overlap: 3}
	chunks := params.Split(words(10))
	require.Len(t, chunks, 1)
}

func TestSplitNormalizesWhitespace(t *testing.T) {
	params := ChunkParams{MaxWords: 5, Overlap: 0}
	chunks := params.Split("one\n\ntwo   three\tfour")
	require.Len(t, chunks, 1)
	assert.Equal(t, "one two three four", chunks[0])
}
