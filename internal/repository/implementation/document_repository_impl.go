package implementation

import (
	"context"
	"errors"

	"ragchat-be/internal/entity"
	"ragchat-be/internal/mapper"
	"ragchat-be/internal/model"
	"ragchat-be/internal/repository/contract"
	"ragchat-be/internal/repository/scope"
	"ragchat-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DocumentRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.DocumentMapper
}

func NewDocumentRepository(db *gorm.DB) contract.DocumentRepository {
	return &DocumentRepositoryImpl{
		db:     db,
		mapper: mapper.NewDocumentMapper(),
	}
}

func (r *DocumentRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *DocumentRepositoryImpl) Create(ctx context.Context, document *entity.Document) error {
	m := r.mapper.DocumentToModel(document)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*document = *r.mapper.DocumentToEntity(m)
	return nil
}

func (r *DocumentRepositoryImpl) FindOne(ctx context.Context, id uuid.UUID, userId uuid.UUID) (*entity.Document, error) {
	var m model.Document
	query := r.applySpecifications(r.db.WithContext(ctx),
		specification.ByID{ID: id},
		specification.UserOwnedBy{UserID: userId},
	)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.DocumentToEntity(&m), nil
}

func (r *DocumentRepositoryImpl) FindAll(ctx context.Context, userId uuid.UUID, limit, offset int) ([]*entity.Document, error) {
	var models []*model.Document
	query := r.applySpecifications(r.db.WithContext(ctx).Scopes(scope.OrderByUpdatedDesc),
		specification.UserOwnedBy{UserID: userId},
		specification.Pagination{Limit: limit, Offset: offset},
	)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}

	documents := make([]*entity.Document, len(models))
	for i, m := range models {
		documents[i] = r.mapper.DocumentToEntity(m)
	}
	return documents, nil
}

func (r *DocumentRepositoryImpl) Count(ctx context.Context, userId uuid.UUID) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.Document{}),
		specification.UserOwnedBy{UserID: userId},
	)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Delete relies on ON DELETE CASCADE for chunks and embeddings.
func (r *DocumentRepositoryImpl) Delete(ctx context.Context, id uuid.UUID, userId uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userId).
		Delete(&model.Document{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

type ChunkRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.DocumentMapper
}

func NewChunkRepository(db *gorm.DB) contract.ChunkRepository {
	return &ChunkRepositoryImpl{
		db:     db,
		mapper: mapper.NewDocumentMapper(),
	}
}

func (r *ChunkRepositoryImpl) CreateBulk(ctx context.Context, chunks []*entity.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	models := make([]*model.DocumentChunk, len(chunks))
	for i, c := range chunks {
		models[i] = r.mapper.ChunkToModel(c)
	}

	if err := r.db.WithContext(ctx).Create(models).Error; err != nil {
		return err
	}

	for i, m := range models {
		*chunks[i] = *r.mapper.ChunkToEntity(m)
	}
	return nil
}

func (r *ChunkRepositoryImpl) FindByDocument(ctx context.Context, documentId uuid.UUID) ([]*entity.Chunk, error) {
	var models []*model.DocumentChunk
	err := specification.ByDocumentID{DocumentID: documentId}.
		Apply(r.db.WithContext(ctx)).
		Order("chunk_index ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	chunks := make([]*entity.Chunk, len(models))
	for i, m := range models {
		chunks[i] = r.mapper.ChunkToEntity(m)
	}
	return chunks, nil
}

func (r *ChunkRepositoryImpl) CountByDocument(ctx context.Context, documentId uuid.UUID) (int64, error) {
	var count int64
	err := specification.ByDocumentID{DocumentID: documentId}.
		Apply(r.db.WithContext(ctx).Model(&model.DocumentChunk{})).
		Count(&count).Error
	return count, err
}
