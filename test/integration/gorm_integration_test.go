package integration

import (
	"context"
	"log"
	"os"
	"strings"
	"testing"

	"ragchat-be/internal/config"
	"ragchat-be/internal/entity"
	"ragchat-be/internal/pkg/logger"
	"ragchat-be/internal/repository/unitofwork"
	"ragchat-be/internal/service"
	"ragchat-be/pkg/database"
	"ragchat-be/pkg/embedding"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// unitEmbedder maps every text onto the same unit vector, so every stored
// chunk is an exact match for every query.
type unitEmbedder struct{}

func (unitEmbedder) Generate(ctx context.Context, text string, taskType string) (*embedding.EmbeddingResponse, error) {
	values := make([]float32, 384)
	values[0] = 1
	return &embedding.EmbeddingResponse{Embedding: embedding.EmbeddingResponseEmbedding{Values: values}, Model: "unit"}, nil
}
func (unitEmbedder) ModelName() string                { return "unit" }
func (unitEmbedder) Dimension() int                   { return 384 }
func (unitEmbedder) Health(ctx context.Context) error { return nil }

func connect(t *testing.T) *gorm.DB {
	t.Helper()

	// Load .env from root
	if err := godotenv.Load("../../.env"); err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	gormDB, err := database.NewGormDBFromDSN(dsn, false)
	require.NoError(t, err, "Failed to connect to DB")
	return gormDB
}

func TestGormConnection(t *testing.T) {
	gormDB := connect(t)

	sqlDB, err := gormDB.DB()
	require.NoError(t, err)
	assert.NoError(t, sqlDB.Ping())

	// Verify Wiring
	uow := unitofwork.NewRepositoryFactory(gormDB).NewUnitOfWork(context.Background())
	assert.NotNil(t, uow.ChatRepository())
	assert.NotNil(t, uow.EmbeddingRepository())

	// Verify Data Access (implies migrated columns exist)
	count, err := uow.ChatRepository().Count(context.Background(), uuid.New())
	assert.NoError(t, err)
	assert.Zero(t, count)
}

func TestChatTreeOnPostgres(t *testing.T) {
	gormDB := connect(t)
	ctx := context.Background()
	chats := service.NewChatTreeService(unitofwork.NewRepositoryFactory(gormDB), nil, logger.NewNopLogger())
	userId := uuid.New()

	chat, err := chats.CreateChat(ctx, userId, "Integration", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _, _ = chats.DeleteChat(ctx, chat.Id, userId) })

	root, err := chats.AddMessage(ctx, service.NewMessage{ChatId: chat.Id, Role: entity.RoleUser, Content: "hello"})
	require.NoError(t, err)
	reply, err := chats.AddMessage(ctx, service.NewMessage{ChatId: chat.Id, Role: entity.RoleAssistant, Content: "hi", ParentId: &root.Id})
	require.NoError(t, err)
	alt, err := chats.RegenerateMessage(ctx, reply.Id, userId, "hi again", nil)
	require.NoError(t, err)

	assert.Equal(t, "0", root.Path)
	assert.Equal(t, "0.0", reply.Path)
	assert.Equal(t, "0.1", alt.Path)
	assert.Equal(t, 1, alt.Depth)

	branch, err := chats.GetBranchMessages(ctx, chat.Id, userId, &reply.Id)
	require.NoError(t, err)
	require.Len(t, branch, 2)
	assert.Equal(t, "hi", branch[1].Content)

	deleted, err := chats.DeleteMessage(ctx, root.Id, userId)
	require.NoError(t, err)
	assert.True(t, deleted)

	tree, err := chats.GetChatMessages(ctx, chat.Id, userId)
	require.NoError(t, err)
	assert.Empty(t, tree)
}

func TestDocumentSearchOnPgvector(t *testing.T) {
	gormDB := connect(t)
	ctx := context.Background()
	rag := service.NewRagService(
		unitofwork.NewRepositoryFactory(gormDB),
		unitEmbedder{},
		nil,
		nil,
		logger.NewNopLogger(),
		config.DefaultRagConfig(),
		0,
	)
	owner, stranger := uuid.New(), uuid.New()

	docId, err := rag.AddDocument(ctx, owner, service.DocumentInput{
		Title:   "Handbook",
		Content: strings.Repeat("onboarding checklist laptop badge ", 200),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _, _ = rag.DeleteDocument(ctx, owner, docId) })

	results, err := rag.Search(ctx, owner, "laptop", 3)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, docId, results[0].DocumentId)
	assert.InDelta(t, 1.0, results[0].Similarity, 1e-6)

	results, err = rag.Search(ctx, stranger, "laptop", 3)
	require.NoError(t, err)
	assert.Empty(t, results)
}
