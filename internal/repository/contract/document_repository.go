package contract

import (
	"context"

	"ragchat-be/internal/entity"

	"github.com/google/uuid"
)

type DocumentRepository interface {
	Create(ctx context.Context, document *entity.Document) error
	FindOne(ctx context.Context, id uuid.UUID, userId uuid.UUID) (*entity.Document, error)
	// FindAll is ordered by most recently updated first.
	FindAll(ctx context.Context, userId uuid.UUID, limit, offset int) ([]*entity.Document, error)
	Count(ctx context.Context, userId uuid.UUID) (int64, error)
	// Delete removes the document with its chunks and embeddings.
	Delete(ctx context.Context, id uuid.UUID, userId uuid.UUID) (bool, error)
}

type ChunkRepository interface {
	CreateBulk(ctx context.Context, chunks []*entity.Chunk) error
	FindByDocument(ctx context.Context, documentId uuid.UUID) ([]*entity.Chunk, error)
	CountByDocument(ctx context.Context, documentId uuid.UUID) (int64, error)
}

type EmbeddingRepository interface {
	CreateBulk(ctx context.Context, embeddings []*entity.Embedding) error
	FindByChunk(ctx context.Context, chunkId uuid.UUID) (*entity.Embedding, error)
	CountByDocument(ctx context.Context, documentId uuid.UUID) (int64, error)
	// SearchSimilar ranks the user's chunks by cosine similarity, best first.
	SearchSimilar(ctx context.Context, embedding []float32, limit int, userId uuid.UUID) ([]*entity.SearchResult, error)
}
