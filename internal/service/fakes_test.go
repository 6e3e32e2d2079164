package service

import (
	"context"
	"errors"
	"hash/fnv"
	"strings"
	"sync"
	"testing"

	"ragchat-be/internal/config"
	"ragchat-be/internal/pkg/logger"
	"ragchat-be/internal/repository/memory"
	"ragchat-be/internal/repository/unitofwork"
	"ragchat-be/pkg/embedding"
	"ragchat-be/pkg/events"
	"ragchat-be/pkg/llm"
)

const testDimension = 384

// bagOfWordsEmbedder hashes each word into one of testDimension buckets, so texts
// sharing words get a positive cosine similarity.
type bagOfWordsEmbedder struct {
	fail  bool
	calls int
	mu    sync.Mutex
}

func (e *bagOfWordsEmbedder) ModelName() string { return "bag-of-words" }

func (e *bagOfWordsEmbedder) Dimension() int { return testDimension }

func (e *bagOfWordsEmbedder) Health(context.Context) error {
	if e.fail {
		return errors.New("embedding service unreachable")
	}
	return nil
}

func (e *bagOfWordsEmbedder) Generate(_ context.Context, text string, _ string) (*embedding.EmbeddingResponse, error) {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()

	if e.fail {
		return nil, errors.New("embedding service unreachable")
	}

	values := make([]float32, testDimension)
	for _, w := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(strings.Trim(w, ".,?!")))
		values[h.Sum32()%testDimension]++
	}
	return &embedding.EmbeddingResponse{
		Embedding: embedding.EmbeddingResponseEmbedding{Values: values},
		Model:     e.ModelName(),
	}, nil
}

type fakeLLM struct {
	reply    string
	err      error
	received [][]llm.Message
}

func (f *fakeLLM) Chat(_ context.Context, history []llm.Message, _ ...llm.Option) (string, error) {
	f.received = append(f.received, history)
	return f.reply, f.err
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return f.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, options...)
}

func (f *fakeLLM) Name() string { return "fake" }

type recordingEventPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingEventPublisher) Publish(_ context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingEventPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.EventType())
	}
	return out
}

type recordingPublisherService struct {
	payloads [][]byte
}

func (p *recordingPublisherService) Publish(_ context.Context, payload []byte) error {
	p.payloads = append(p.payloads, payload)
	return nil
}

type testEnv struct {
	store     *memory.Store
	factory   unitofwork.RepositoryFactory
	events    *recordingEventPublisher
	embedder  *bagOfWordsEmbedder
	llm       *fakeLLM
	analytics *recordingPublisherService
	chatTree  IChatTreeService
	rag       IRagService
	chat      IChatService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := memory.NewStore()
	factory := memory.NewRepositoryFactory(store)
	log := logger.NewNopLogger()
	recorder := &recordingEventPublisher{}
	domainEvents := NewDomainEventPublisher(recorder, log)
	embedder := &bagOfWordsEmbedder{}
	model := &fakeLLM{reply: "Here is what I found [1]."}
	analytics := &recordingPublisherService{}
	cfg := config.DefaultRagConfig()

	chatTree := NewChatTreeService(factory, domainEvents, log)
	ragService := NewRagService(factory, embedder, nil, domainEvents, log, cfg, 0)

	return &testEnv{
		store:     store,
		factory:   factory,
		events:    recorder,
		embedder:  embedder,
		llm:       model,
		analytics: analytics,
		chatTree:  chatTree,
		rag:       ragService,
		chat:      NewChatService(chatTree, ragService, model, analytics, cfg, log, log),
	}
}

func words(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = "word"
	}
	return strings.Join(parts, " ")
}
