package ingest

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentNameLastSegment(t *testing.T) {
	assert.Equal(t, "lege-95.html", DocumentName("https://example.ro/acte/lege-95.html"))
	assert.Equal(t, "acte", DocumentName("https://example.ro/acte/"))
}

func TestDocumentNameUnescapes(t *testing.T) {
	assert.Equal(t, "hotărâre", DocumentName("https://example.ro/acte/hot%C4%83r%C3%A2re"))
}

func TestDocumentNameSpacesBecomeUnderscores(t *testing.T) {
	assert.Equal(t, "codul_rutier", DocumentName("https://example.ro/acte/codul%20rutier"))
}

func TestDocumentNamePDFSentinel(t *testing.T) {
	name := DocumentName("https://example.ro/download/PDF")
	_, err := uuid.Parse(name)
	require.NoError(t, err, "PDF sentinel segment yields a random uuid name")

	again := DocumentName("https://example.ro/download/PDF")
	assert.NotEqual(t, name, again)
}

func TestDocumentNameEmptyPathFallsBackToHost(t *testing.T) {
	name := DocumentName("https://example.ro")
	assert.NotEmpty(t, name)
	assert.Contains(t, name, "example.ro")
}
