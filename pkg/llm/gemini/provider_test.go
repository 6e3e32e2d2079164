package gemini

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

func TestChatMapsRolesAndSystemInstruction(t *testing.T) {
	var captured geminiRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/gemini-test:generateContent", r.URL.Path)
		assert.Equal(t, "key-1", r.Header.Get("x-goog-api-key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"Hello "},{"text":"there"}]}}]}`))
	}))
	defer srv.Close()

	p := NewGeminiProvider(srv.URL, "key-1", "gemini-test", time.Second)
	out, err := p.Chat(context.Background(), []llm.Message{
		{Role: llm.RoleSystem, Content: "be brief"},
		{Role: llm.RoleUser, Content: "hi"},
		{Role: llm.RoleAssistant, Content: "hello"},
		{Role: llm.RoleUser, Content: "again"},
	})

	require.NoError(t, err)
	assert.Equal(t, "Hello there", out)
	require.NotNil(t, captured.SystemInstruction)
	assert.Equal(t, "be brief", captured.SystemInstruction.Parts[0].Text)
	require.Len(t, captured.Contents, 3)
	assert.Equal(t, "user", captured.Contents[0].Role)
	assert.Equal(t, "model", captured.Contents[1].Role)
	assert.Equal(t, "user", captured.Contents[2].Role)
}

func TestChatReportsOverload(t *testing.T) {
	for _, status := range []int{http.StatusTooManyRequests, http.StatusServiceUnavailable} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))

		p := NewGeminiProvider(srv.URL, "key", "m", time.Second)
		_, err := p.Generate(context.Background(), "hi")
		assert.ErrorIs(t, err, llm.ErrProviderOverloaded)
		srv.Close()
	}
}

func TestChatOtherFailuresAreNotOverload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"bad"}`))
	}))
	defer srv.Close()

	p := NewGeminiProvider(srv.URL, "key", "m", time.Second)
	_, err := p.Generate(context.Background(), "hi")
	require.Error(t, err)
	assert.NotErrorIs(t, err, llm.ErrProviderOverloaded)
}

func TestChatNoCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[]}`))
	}))
	defer srv.Close()

	p := NewGeminiProvider(srv.URL, "key", "m", time.Second)
	_, err := p.Generate(context.Background(), "hi")
	assert.Error(t, err)
}
