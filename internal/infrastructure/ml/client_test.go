package ml

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbed(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embed", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var req embedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "hello", req.Text)
		assert.Equal(t, 100, req.MaxLength)
		assert.Equal(t, "minilm", req.Model)

		_ = json.NewEncoder(w).Encode(embedResponse{Embedding: []float32{1, 2, 3, 4}})
	}))
	defer server.Close()

	c := NewClient(server.URL+"/", "secret", "minilm", time.Second)
	emb, err := c.Embed(context.Background(), "hello", 100)
	require.NoError(t, err)

	assert.Equal(t, 4, emb.Dimensions)
	assert.Equal(t, "minilm", emb.Model)
}

func TestEmbedNonOK(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := NewClient(server.URL, "", "", time.Second).Embed(context.Background(), "hello", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}
