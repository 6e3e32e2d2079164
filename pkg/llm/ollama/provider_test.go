package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ragchat-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		var req ollamaChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "override", req.Model)
		assert.False(t, req.Stream)
		assert.Equal(t, 64, req.Options.NumPredict)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, llm.RoleSystem, req.Messages[0].Role)
		_, _ = w.Write([]byte(`{"model":"override","message":{"role":"assistant","content":"pong"},"done":true}`))
	}))
	defer srv.Close()

	p := NewOllamaProvider(srv.URL, "llama3", time.Second)
	out, err := p.Chat(context.Background(), []llm.Message{
		{Role: llm.RoleSystem, Content: "sys"},
		{Role: llm.RoleUser, Content: "ping"},
	}, llm.WithModel("override"), llm.WithMaxTokens(64))

	require.NoError(t, err)
	assert.Equal(t, "pong", out)
}

func TestChatOverloaded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	p := NewOllamaProvider(srv.URL, "llama3", time.Second)
	_, err := p.Generate(context.Background(), "ping")
	assert.ErrorIs(t, err, llm.ErrProviderOverloaded)
}
