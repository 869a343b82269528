package embed_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codescope/internal/embed"
)

// embedServer fakes the Ollama /api/embed endpoint, returning a one-element
// vector per input text so batching can be verified from the output.
func embedServer(t *testing.T, requests *[][]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/embed", r.URL.Path)

		var req struct {
			Model string   `json:"model"`
			Input []string `json:"input"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		*requests = append(*requests, req.Input)

		embeddings := make([][]float32, len(req.Input))
		for i := range req.Input {
			embeddings[i] = []float32{float32(len(req.Input[i]))}
		}
		json.NewEncoder(w).Encode(map[string]any{"embeddings": embeddings})
	}))
}

func TestEmbedPreservesOrder(t *testing.T) {
	var requests [][]string
	srv := embedServer(t, &requests)
	defer srv.Close()

	e := embed.NewOllama(srv.URL, "test-model")
	vecs, err := e.Embed([]string{"a", "bb", "ccc"})
	require.NoError(t, err)
	require.Len(t, vecs, 3)
	assert.Equal(t, []float32{1}, vecs[0])
	assert.Equal(t, []float32{2}, vecs[1])
	assert.Equal(t, []float32{3}, vecs[2])
	assert.Len(t, requests, 1)
}

func TestEmbedSubBatches(t *testing.T) {
	var requests [][]string
	srv := embedServer(t, &requests)
	defer srv.Close()

	texts := make([]string, 70)
	for i := range texts {
		texts[i] = fmt.Sprintf("text-%d", i)
	}

	var progress []int
	e := embed.NewOllama(srv.URL, "test-model")
	e.OnBatch = func(done, total int) {
		assert.Equal(t, 70, total)
		progress = append(progress, done)
	}

	vecs, err := e.Embed(texts)
	require.NoError(t, err)
	assert.Len(t, vecs, 70)
	require.Len(t, requests, 3)
	assert.Len(t, requests[0], 32)
	assert.Len(t, requests[1], 32)
	assert.Len(t, requests[2], 6)
	assert.Equal(t, []int{32, 64, 70}, progress)
}

func TestEmbedEmptyInputSkipsRequest(t *testing.T) {
	var requests [][]string
	srv := embedServer(t, &requests)
	defer srv.Close()

	e := embed.NewOllama(srv.URL, "test-model")
	vecs, err := e.Embed(nil)
	require.NoError(t, err)
	assert.Nil(t, vecs)
	assert.Empty(t, requests)
}

func TestEmbedServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	e := embed.NewOllama(srv.URL, "missing-model")
	_, err := e.Embed([]string{"x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestEmbedCountMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"embeddings": [][]float32{}})
	}))
	defer srv.Close()

	e := embed.NewOllama(srv.URL, "test-model")
	_, err := e.Embed([]string{"x", "y"})
	assert.Error(t, err)
}

func TestDocumentTemplate(t *testing.T) {
	doc := embed.Document("parse", "src/lib.rs", "fn parse() {}")
	assert.Equal(t, "Function: parse\nFile: src/lib.rs\nBody:\nfn parse() {}", doc)
}
