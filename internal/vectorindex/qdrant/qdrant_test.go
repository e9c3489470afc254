package qdrant

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"legischat/internal/vectorindex"
)

func newTestStore(t *testing.T, handler http.HandlerFunc) *Store {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Config{URL: srv.URL, Collection: "test-col"})
}

func TestEnsureCollectionCreatesWhenMissing(t *testing.T) {
	var createBody map[string]interface{}
	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/collections/test-col", r.URL.Path)
		switch r.Method {
		case http.MethodGet:
			w.WriteHeader(http.StatusNotFound)
		case http.MethodPut:
			raw, _ := io.ReadAll(r.Body)
			require.NoError(t, json.Unmarshal(raw, &createBody))
			w.WriteHeader(http.StatusOK)
		}
	})

	require.NoError(t, store.EnsureCollection(context.Background(), 1536))

	vectors := createBody["vectors"].(map[string]interface{})
	assert.Equal(t, float64(1536), vectors["size"])
	assert.Equal(t, "Cosine", vectors["distance"])
}

func TestEnsureCollectionSkipsWhenPresent(t *testing.T) {
	puts := 0
	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut {
			puts++
		}
		w.WriteHeader(http.StatusOK)
	})

	require.NoError(t, store.EnsureCollection(context.Background(), 1536))
	assert.Zero(t, puts)
}

func TestQuerySendsFilterAndParsesMatches(t *testing.T) {
	var searchBody map[string]interface{}
	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/collections/test-col/points/search", r.URL.Path)
		raw, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(raw, &searchBody))
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"result": []map[string]interface{}{
				{"id": "abc", "score": 0.93, "payload": map[string]interface{}{"url": "https://example.ro/a", "text": "pasaj"}},
			},
		})
	})

	matches, err := store.Query(context.Background(), []float32{0, 0}, 3, vectorindex.Filter{"url": "https://example.ro/a"})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "abc", matches[0].ID)
	assert.InDelta(t, 0.93, matches[0].Score, 1e-6)
	assert.Equal(t, "pasaj", matches[0].Payload["text"])

	assert.Equal(t, float64(3), searchBody["limit"])
	filter := searchBody["filter"].(map[string]interface{})
	must := filter["must"].([]interface{})
	require.Len(t, must, 1)
	clause := must[0].(map[string]interface{})
	assert.Equal(t, "url", clause["key"])
	assert.Equal(t, "https://example.ro/a", clause["match"].(map[string]interface{})["value"])
}

func TestQueryOmitsFilterWhenEmpty(t *testing.T) {
	var searchBody map[string]interface{}
	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(raw, &searchBody))
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"result": []interface{}{}})
	})

	_, err := store.Query(context.Background(), []float32{0}, 5, nil)
	require.NoError(t, err)
	_, hasFilter := searchBody["filter"]
	assert.False(t, hasFilter)
}

func TestUpsertBodyShape(t *testing.T) {
	var upsertBody map[string]interface{}
	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/collections/test-col/points", r.URL.Path)
		require.Equal(t, "true", r.URL.Query().Get("wait"))
		raw, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(raw, &upsertBody))
		w.WriteHeader(http.StatusOK)
	})

	err := store.Upsert(context.Background(), []vectorindex.Point{
		{ID: "p1", Vector: []float32{0.5}, Payload: map[string]interface{}{"url": "https://example.ro/a"}},
	})
	require.NoError(t, err)

	points := upsertBody["points"].([]interface{})
	require.Len(t, points, 1)
	first := points[0].(map[string]interface{})
	assert.Equal(t, "p1", first["id"])
}

func TestListURLsPaginatesAndDeduplicates(t *testing.T) {
	calls := 0
	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/collections/test-col/points/scroll", r.URL.Path)
		calls++
		if calls == 1 {
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"result": map[string]interface{}{
					"points": []map[string]interface{}{
						{"payload": map[string]interface{}{"url": "https://example.ro/a"}},
						{"payload": map[string]interface{}{"url": "https://example.ro/a"}},
					},
					"next_page_offset": 42,
				},
			})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"result": map[string]interface{}{
				"points": []map[string]interface{}{
					{"payload": map[string]interface{}{"url": "https://example.ro/b"}},
				},
				"next_page_offset": nil,
			},
		})
	})

	urls, err := store.ListURLs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, []string{"https://example.ro/a", "https://example.ro/b"}, urls)
}
