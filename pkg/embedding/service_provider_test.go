package embedding

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

func fakeEmbeddingService(t *testing.T, dim int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/embed":
			var req serviceEmbedRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			if req.Text == "" {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			vec := make([]float32, dim)
			vec[0] = 1
			_ = json.NewEncoder(w).Encode(serviceEmbedResponse{Embedding: vec, Dimension: dim, Model: "all-MiniLM-L6-v2"})
		case "/health":
			_, _ = w.Write([]byte(`{"status":"healthy"}`))
		case "/info":
			_, _ = w.Write([]byte(`{"model":"all-MiniLM-L6-v2","dimension":384,"max_sequence_length":256}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func TestServiceProviderGenerate(t *testing.T) {
	srv := fakeEmbeddingService(t, 384)
	defer srv.Close()

	p := NewServiceProvider(srv.URL, "all-MiniLM-L6-v2", 384, time.Second)
	res, err := p.Generate(context.Background(), "hello", TaskRetrievalDocument)

	require.NoError(t, err)
	assert.Len(t, res.Embedding.Values, 384)
	assert.Equal(t, "all-MiniLM-L6-v2", res.Model)
}

func TestServiceProviderRejectsWrongDimension(t *testing.T) {
	srv := fakeEmbeddingService(t, 128)
	defer srv.Close()

	p := NewServiceProvider(srv.URL, "all-MiniLM-L6-v2", 384, time.Second)
	_, err := p.Generate(context.Background(), "hello", TaskRetrievalDocument)

	assert.ErrorContains(t, err, "dimension mismatch")
}

func TestServiceProviderErrorStatus(t *testing.T) {
	srv := fakeEmbeddingService(t, 384)
	defer srv.Close()

	p := NewServiceProvider(srv.URL, "m", 384, time.Second)
	_, err := p.Generate(context.Background(), "", TaskRetrievalQuery)

	assert.ErrorContains(t, err, "status 400")
}

func TestServiceProviderHealthAndInfo(t *testing.T) {
	srv := fakeEmbeddingService(t, 384)

	p := NewServiceProvider(srv.URL, "m", 384, time.Second)
	assert.NoError(t, p.Health(context.Background()))

	info, err := p.Info(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 384, info.Dimension)

	srv.Close()
	assert.Error(t, p.Health(context.Background()))
}

func TestServiceProviderTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	p := NewServiceProvider(srv.URL, "m", 384, 20*time.Millisecond)
	_, err := p.Generate(context.Background(), "slow", TaskRetrievalQuery)
	assert.Error(t, err)
}
