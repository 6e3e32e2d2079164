package memory

import (
	"context"
	"testing"
	"time"

	"ragchat-be/internal/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedDocument(t *testing.T, uow *UnitOfWork, userId uuid.UUID, title string, vectors ...[]float32) *entity.Document {
	t.Helper()
	ctx := context.Background()

	doc := &entity.Document{UserId: userId, Title: title, Content: title, FileType: "text"}
	require.NoError(t, uow.DocumentRepository().Create(ctx, doc))

	for i, v := range vectors {
		chunk := &entity.Chunk{DocumentId: doc.Id, Content: title, ChunkIndex: i}
		require.NoError(t, uow.ChunkRepository().CreateBulk(ctx, []*entity.Chunk{chunk}))
		emb := &entity.Embedding{ChunkId: chunk.Id, Vector: v, ModelName: "test", Dimension: len(v)}
		require.NoError(t, uow.EmbeddingRepository().CreateBulk(ctx, []*entity.Embedding{emb}))
	}
	return doc
}

func TestRollbackRestoresState(t *testing.T) {
	ctx := context.Background()
	factory := NewRepositoryFactory(NewStore())
	uow := factory.NewUnitOfWork(ctx)
	userId := uuid.New()

	require.NoError(t, uow.Begin(ctx))
	chat := &entity.Chat{UserId: userId, Title: "draft", IsActive: true}
	require.NoError(t, uow.ChatRepository().Create(ctx, chat))
	require.NoError(t, uow.Rollback())

	found, err := factory.NewUnitOfWork(ctx).ChatRepository().FindOne(ctx, chat.Id, userId)
	require.NoError(t, err)
	assert.Nil(t, found)

	assert.Error(t, uow.Commit())
}

func TestRollbackKeepsWritesFromOtherUnits(t *testing.T) {
	ctx := context.Background()
	factory := NewRepositoryFactory(NewStore())
	userId := uuid.New()

	existing := &entity.Chat{UserId: userId, Title: "existing", IsActive: true}
	require.NoError(t, factory.NewUnitOfWork(ctx).ChatRepository().Create(ctx, existing))

	tx := factory.NewUnitOfWork(ctx)
	require.NoError(t, tx.Begin(ctx))
	require.NoError(t, tx.ChatRepository().Touch(ctx, existing.Id, existing.UpdatedAt.Add(time.Hour)))
	draft := &entity.Chat{UserId: userId, Title: "draft", IsActive: true}
	require.NoError(t, tx.ChatRepository().Create(ctx, draft))

	// Written outside the transaction while it is open.
	other := factory.NewUnitOfWork(ctx)
	committed := &entity.Chat{UserId: userId, Title: "committed elsewhere", IsActive: true}
	require.NoError(t, other.ChatRepository().Create(ctx, committed))
	require.NoError(t, other.MessageRepository().Create(ctx, &entity.Message{ChatId: committed.Id, Role: entity.RoleUser, Content: "hi", Path: "0"}))

	require.NoError(t, tx.Rollback())

	repo := factory.NewUnitOfWork(ctx).ChatRepository()
	found, err := repo.FindOne(ctx, committed.Id, userId)
	require.NoError(t, err)
	require.NotNil(t, found)

	found, err = repo.FindOne(ctx, draft.Id, userId)
	require.NoError(t, err)
	assert.Nil(t, found)

	found, err = repo.FindOne(ctx, existing.Id, userId)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.True(t, found.UpdatedAt.Equal(existing.UpdatedAt), "touch inside the rolled back tx is reverted")

	count, err := factory.NewUnitOfWork(ctx).MessageRepository().CountByUser(ctx, userId)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestRollbackRestoresDeletedDocument(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	userId := uuid.New()
	doc := seedDocument(t, &UnitOfWork{store: store}, userId, "handbook", []float32{1, 0})

	tx := &UnitOfWork{store: store}
	require.NoError(t, tx.Begin(ctx))
	deleted, err := tx.DocumentRepository().Delete(ctx, doc.Id, userId)
	require.NoError(t, err)
	require.True(t, deleted)
	require.NoError(t, tx.Rollback())

	uow := &UnitOfWork{store: store}
	found, err := uow.DocumentRepository().FindOne(ctx, doc.Id, userId)
	require.NoError(t, err)
	assert.NotNil(t, found)
	embeddings, _ := uow.EmbeddingRepository().CountByDocument(ctx, doc.Id)
	assert.Equal(t, int64(1), embeddings)
}

func TestDeleteDocumentCascades(t *testing.T) {
	ctx := context.Background()
	uow := &UnitOfWork{store: NewStore()}
	userId := uuid.New()

	doc := seedDocument(t, uow, userId, "handbook", []float32{1, 0}, []float32{0, 1})

	deleted, err := uow.DocumentRepository().Delete(ctx, doc.Id, uuid.New())
	require.NoError(t, err)
	assert.False(t, deleted, "other users cannot delete")

	deleted, err = uow.DocumentRepository().Delete(ctx, doc.Id, userId)
	require.NoError(t, err)
	assert.True(t, deleted)

	chunks, _ := uow.ChunkRepository().CountByDocument(ctx, doc.Id)
	embeddings, _ := uow.EmbeddingRepository().CountByDocument(ctx, doc.Id)
	assert.Zero(t, chunks)
	assert.Zero(t, embeddings)
	assert.Empty(t, uow.store.embeddings)
}

func TestSearchSimilarIsScopedAndRanked(t *testing.T) {
	ctx := context.Background()
	uow := &UnitOfWork{store: NewStore()}
	owner := uuid.New()
	stranger := uuid.New()

	seedDocument(t, uow, owner, "near", []float32{1, 0.1})
	seedDocument(t, uow, owner, "far", []float32{0, 1})
	seedDocument(t, uow, owner, "blank", []float32{0, 0})
	seedDocument(t, uow, stranger, "foreign", []float32{1, 0})

	results, err := uow.EmbeddingRepository().SearchSimilar(ctx, []float32{1, 0}, 10, owner)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "near", results[0].Title)
	assert.InDelta(t, 0.995, results[0].Similarity, 0.001)
	for _, r := range results {
		assert.NotEqual(t, "foreign", r.Title)
	}

	limited, err := uow.EmbeddingRepository().SearchSimilar(ctx, []float32{1, 0}, 1, owner)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestCosineOfZeroVectorIsZero(t *testing.T) {
	assert.Equal(t, 0.0, cosine([]float32{0, 0, 0}, []float32{1, 2, 3}))
	assert.InDelta(t, -1.0, cosine([]float32{1, 0}, []float32{-1, 0}), 1e-9)
}

func TestFindAllDocumentsPaginates(t *testing.T) {
	ctx := context.Background()
	uow := &UnitOfWork{store: NewStore()}
	userId := uuid.New()

	first := seedDocument(t, uow, userId, "first")
	second := seedDocument(t, uow, userId, "second")
	third := seedDocument(t, uow, userId, "third")

	page, err := uow.DocumentRepository().FindAll(ctx, userId, 2, 0)
	require.NoError(t, err)
	require.Len(t, page, 2)

	ids := []uuid.UUID{page[0].Id, page[1].Id}
	rest, err := uow.DocumentRepository().FindAll(ctx, userId, 2, 2)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	ids = append(ids, rest[0].Id)

	assert.ElementsMatch(t, []uuid.UUID{first.Id, second.Id, third.Id}, ids)
	assert.Equal(t, first.Id, rest[0].Id, "oldest update comes last")

	empty, err := uow.DocumentRepository().FindAll(ctx, userId, 2, 10)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
