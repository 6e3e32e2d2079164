package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"ragchat-be/internal/config"
	"ragchat-be/internal/dto"
	"ragchat-be/internal/pkg/logger"
	"ragchat-be/internal/pkg/serverutils"
	"ragchat-be/internal/repository/memory"
	"ragchat-be/internal/service"
	"ragchat-be/pkg/embedding"
	"ragchat-be/pkg/llm"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	oteltrace "go.opentelemetry.io/otel/trace"
)

const testSecret = "controller-secret"

type constantEmbedder struct{}

func (constantEmbedder) ModelName() string { return "constant" }
func (constantEmbedder) Dimension() int    { return 4 }
func (constantEmbedder) Health(context.Context) error {
	return errors.New("offline")
}
func (constantEmbedder) Generate(context.Context, string, string) (*embedding.EmbeddingResponse, error) {
	return &embedding.EmbeddingResponse{Embedding: embedding.EmbeddingResponseEmbedding{Values: []float32{1, 0, 0, 0}}}, nil
}

type echoLLM struct{}

func (echoLLM) Chat(_ context.Context, history []llm.Message, _ ...llm.Option) (string, error) {
	return "echo: " + history[len(history)-1].Content, nil
}
func (e echoLLM) Generate(ctx context.Context, prompt string, _ ...llm.Option) (string, error) {
	return e.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}})
}
func (echoLLM) Name() string { return "echo" }

type apiClient struct {
	t     *testing.T
	app   *fiber.App
	token string
}

func newAPI(t *testing.T, middleware ...fiber.Handler) *apiClient {
	t.Helper()

	log := logger.NewNopLogger()
	factory := memory.NewRepositoryFactory(memory.NewStore())
	events := service.NewDomainEventPublisher(nil, log)
	cfg := config.DefaultRagConfig()

	chatTree := service.NewChatTreeService(factory, events, log)
	rag := service.NewRagService(factory, constantEmbedder{}, nil, events, log, cfg, time.Second)
	chat := service.NewChatService(chatTree, rag, echoLLM{}, nil, cfg, log, log)

	app := fiber.New()
	for _, m := range middleware {
		app.Use(m)
	}
	app.Use(serverutils.ErrorHandlerMiddleware())
	api := app.Group("/api")
	auth := serverutils.JwtMiddleware(testSecret)
	NewChatController(chatTree, chat).RegisterRoutes(api, auth)
	NewDocumentController(rag).RegisterRoutes(api, auth)

	return &apiClient{t: t, app: app, token: tokenFor(t, uuid.New())}
}

func tokenFor(t *testing.T, userId uuid.UUID) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"user_id": userId.String()}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func (c *apiClient) do(method, path string, body interface{}, out interface{}) int {
	c.t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)
	return c.send(req, out)
}

func (c *apiClient) send(req *http.Request, out interface{}) int {
	c.t.Helper()

	resp, err := c.app.Test(req, -1)
	require.NoError(c.t, err)
	defer resp.Body.Close()

	if out != nil && resp.StatusCode < 300 {
		raw, err := io.ReadAll(resp.Body)
		require.NoError(c.t, err)
		require.NoError(c.t, json.Unmarshal(raw, out))
	}
	return resp.StatusCode
}

func TestChatRoutes(t *testing.T) {
	api := newAPI(t)

	var created serverutils.Response[dto.ChatResponse]
	require.Equal(t, fiber.StatusCreated, api.do("POST", "/api/chats", dto.CreateChatRequest{Title: "Routes"}, &created))
	chatPath := "/api/chats/" + created.Data.Id.String()

	var root serverutils.Response[dto.MessageResponse]
	require.Equal(t, fiber.StatusCreated, api.do("POST", chatPath+"/messages", dto.AddMessageRequest{Role: "user", Content: "hello"}, &root))
	var reply serverutils.Response[dto.MessageResponse]
	require.Equal(t, fiber.StatusCreated, api.do("POST", chatPath+"/messages", dto.AddMessageRequest{Role: "assistant", Content: "hi there", ParentId: &root.Data.Id}, &reply))

	var edited serverutils.Response[dto.MessageResponse]
	require.Equal(t, fiber.StatusCreated, api.do("PATCH", "/api/messages/"+reply.Data.Id.String(), dto.UpdateMessageRequest{Content: "hi, edited"}, &edited))
	assert.Equal(t, "1.2", edited.Data.Path)

	var tree serverutils.Response[[]dto.MessageNodeResponse]
	require.Equal(t, fiber.StatusOK, api.do("GET", chatPath+"/messages", nil, &tree))
	require.Len(t, tree.Data, 1)
	assert.Len(t, tree.Data[0].Children, 2)

	var branch serverutils.Response[[]dto.MessageResponse]
	require.Equal(t, fiber.StatusOK, api.do("GET", chatPath+"/messages?format=branch&leafId="+reply.Data.Id.String(), nil, &branch))
	require.Len(t, branch.Data, 2)
	assert.Equal(t, "hi there", branch.Data[1].Content)

	assert.Equal(t, fiber.StatusBadRequest, api.do("GET", chatPath+"/messages?format=graph", nil, nil))
	assert.Equal(t, fiber.StatusBadRequest, api.do("PATCH", "/api/messages/"+root.Data.Id.String(), dto.UpdateMessageRequest{Content: "x", Action: "regenerate"}, nil))
	assert.Equal(t, fiber.StatusBadRequest, api.do("POST", chatPath+"/messages", dto.AddMessageRequest{Role: "robot", Content: "beep"}, nil))

	var completion serverutils.Response[dto.CompletionResponse]
	require.Equal(t, fiber.StatusOK, api.do("POST", chatPath+"/completions", dto.CompletionRequest{Content: "ping"}, &completion))
	assert.Equal(t, "echo: ping", completion.Data.Reply.Content)

	var stats serverutils.Response[dto.ChatStatsResponse]
	require.Equal(t, fiber.StatusOK, api.do("GET", "/api/chats/stats", nil, &stats))
	assert.Equal(t, int64(1), stats.Data.TotalChats)
	assert.Equal(t, int64(5), stats.Data.TotalMessages)

	assert.Equal(t, fiber.StatusOK, api.do("DELETE", "/api/messages/"+edited.Data.Id.String(), nil, nil))
	assert.Equal(t, fiber.StatusNotFound, api.do("DELETE", "/api/messages/"+edited.Data.Id.String(), nil, nil))
	assert.Equal(t, fiber.StatusOK, api.do("DELETE", chatPath, nil, nil))
	assert.Equal(t, fiber.StatusNotFound, api.do("GET", chatPath, nil, nil))
}

func TestChatRoutesAreUserScoped(t *testing.T) {
	api := newAPI(t)

	var created serverutils.Response[dto.ChatResponse]
	require.Equal(t, fiber.StatusCreated, api.do("POST", "/api/chats", dto.CreateChatRequest{}, &created))
	assert.Equal(t, "New Chat", created.Data.Title)

	api.token = tokenFor(t, uuid.New())
	chatPath := "/api/chats/" + created.Data.Id.String()
	assert.Equal(t, fiber.StatusNotFound, api.do("GET", chatPath, nil, nil))
	assert.Equal(t, fiber.StatusNotFound, api.do("POST", chatPath+"/messages", dto.AddMessageRequest{Role: "user", Content: "intrude"}, nil))
	assert.Equal(t, fiber.StatusNotFound, api.do("GET", "/api/chats/not-a-uuid", nil, nil))

	api.token = "garbage"
	assert.Equal(t, fiber.StatusUnauthorized, api.do("GET", "/api/chats", nil, nil))
}

func TestDocumentRoutes(t *testing.T) {
	api := newAPI(t)

	var created serverutils.Response[dto.CreateDocumentResponse]
	require.Equal(t, fiber.StatusCreated, api.do("POST", "/api/documents", dto.CreateDocumentRequest{Title: "Guide", Content: "install the package then run it"}, &created))

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", "notes.txt")
	require.NoError(t, err)
	_, err = part.Write([]byte("uploaded notes about deployment"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest("POST", "/api/documents", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+api.token)
	var uploaded serverutils.Response[dto.CreateDocumentResponse]
	require.Equal(t, fiber.StatusCreated, api.send(req, &uploaded))

	var list serverutils.Response[dto.DocumentListResponse]
	require.Equal(t, fiber.StatusOK, api.do("GET", "/api/documents?limit=1", nil, &list))
	assert.Equal(t, int64(2), list.Data.Total)
	require.Len(t, list.Data.Documents, 1)
	assert.Equal(t, "notes", list.Data.Documents[0].Title)

	var search serverutils.Response[dto.SearchResponse]
	require.Equal(t, fiber.StatusOK, api.do("POST", "/api/rag/search", dto.SearchRequest{Query: "install"}, &search))
	assert.Len(t, search.Data.Results, 2)
	assert.Equal(t, fiber.StatusBadRequest, api.do("POST", "/api/rag/search", dto.SearchRequest{Query: "x", Limit: 51}, nil))

	var health serverutils.Response[dto.RagHealthResponse]
	require.Equal(t, fiber.StatusOK, api.do("GET", "/api/rag/health", nil, &health))
	assert.False(t, health.Data.EmbeddingService)
	assert.Equal(t, 4, health.Data.Dimension)

	assert.Equal(t, fiber.StatusOK, api.do("DELETE", "/api/documents/"+created.Data.Id.String(), nil, nil))
	assert.Equal(t, fiber.StatusNotFound, api.do("DELETE", "/api/documents/"+created.Data.Id.String(), nil, nil))
}

var (
	spanRecorder    = tracetest.NewSpanRecorder()
	tracerProvider  = sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spanRecorder))
	installProvider sync.Once
)

func TestServiceSpansJoinRequestTrace(t *testing.T) {
	// Service tracers are bound to the first global provider, so install it once per process.
	installProvider.Do(func() { otel.SetTracerProvider(tracerProvider) })

	api := newAPI(t, otelfiber.Middleware(otelfiber.WithTracerProvider(tracerProvider)))

	require.Equal(t, fiber.StatusOK, api.do("POST", "/api/rag/search", dto.SearchRequest{Query: "vacation policy", Limit: 3}, nil))

	var server, search sdktrace.ReadOnlySpan
	for _, s := range spanRecorder.Ended() {
		switch {
		case s.SpanKind() == oteltrace.SpanKindServer:
			server = s
		case s.Name() == "RagService.Search":
			search = s
		}
	}
	require.NotNil(t, server)
	require.NotNil(t, search)
	assert.Equal(t, server.SpanContext().TraceID(), search.SpanContext().TraceID())
	assert.Equal(t, server.SpanContext().SpanID(), search.Parent().SpanID())
}
