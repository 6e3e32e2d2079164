package implementation

import (
	"context"
	"database/sql"
	"errors"
	"math"

	"ragchat-be/internal/entity"
	"ragchat-be/internal/mapper"
	"ragchat-be/internal/model"
	"ragchat-be/internal/repository/contract"
	"ragchat-be/internal/repository/specification"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type EmbeddingRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.DocumentMapper
}

func NewEmbeddingRepository(db *gorm.DB) contract.EmbeddingRepository {
	return &EmbeddingRepositoryImpl{
		db:     db,
		mapper: mapper.NewDocumentMapper(),
	}
}

func (r *EmbeddingRepositoryImpl) CreateBulk(ctx context.Context, embeddings []*entity.Embedding) error {
	if len(embeddings) == 0 {
		return nil
	}
	models := make([]*model.Embedding, len(embeddings))
	for i, e := range embeddings {
		m, err := r.mapper.EmbeddingToModel(e)
		if err != nil {
			return err
		}
		models[i] = m
	}

	if err := r.db.WithContext(ctx).Create(models).Error; err != nil {
		return err
	}

	for i, m := range models {
		*embeddings[i] = *r.mapper.EmbeddingToEntity(m)
	}
	return nil
}

func (r *EmbeddingRepositoryImpl) FindByChunk(ctx context.Context, chunkId uuid.UUID) (*entity.Embedding, error) {
	var m model.Embedding
	if err := r.db.WithContext(ctx).Where("chunk_id = ?", chunkId).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.EmbeddingToEntity(&m), nil
}

func (r *EmbeddingRepositoryImpl) CountByDocument(ctx context.Context, documentId uuid.UUID) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).
		Model(&model.Embedding{}).
		Joins("JOIN document_chunks ON document_chunks.id = embeddings.chunk_id")
	err := specification.ByDocumentID{DocumentID: documentId}.Apply(query).Count(&count).Error
	return count, err
}

// SearchSimilar orders by pgvector cosine distance; similarity is 1 - distance.
func (r *EmbeddingRepositoryImpl) SearchSimilar(ctx context.Context, embedding []float32, limit int, userId uuid.UUID) ([]*entity.SearchResult, error) {
	if limit <= 0 {
		limit = 5
	}

	type result struct {
		Content    string
		ChunkIndex int
		DocumentId uuid.UUID
		Title      string
		SourceUrl  *string
		Distance   sql.NullFloat64
	}
	var results []result

	queryVector := pgvector.NewVector(embedding)

	query := r.db.WithContext(ctx).
		Table("embeddings").
		Select(`document_chunks.content, document_chunks.chunk_index, documents.id AS document_id,
			documents.title, documents.source_url, embeddings.embedding_vector <=> ? AS distance`, queryVector).
		Joins("JOIN document_chunks ON document_chunks.id = embeddings.chunk_id")
	err := specification.ChunkOwnedBy{UserID: userId}.Apply(query).
		Order(gorm.Expr("embeddings.embedding_vector <=> ?", queryVector)).
		Limit(limit).
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	scored := make([]*entity.SearchResult, len(results))
	for i, res := range results {
		scored[i] = &entity.SearchResult{
			Content:    res.Content,
			ChunkIndex: res.ChunkIndex,
			DocumentId: res.DocumentId,
			Title:      res.Title,
			SourceUrl:  res.SourceUrl,
			Similarity: similarityFromDistance(res.Distance),
		}
	}
	return scored, nil
}

// A zero vector has no direction, so pgvector reports NaN distance for it.
func similarityFromDistance(distance sql.NullFloat64) float64 {
	if !distance.Valid || math.IsNaN(distance.Float64) {
		return 0
	}
	return 1 - distance.Float64
}
