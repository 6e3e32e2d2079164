package mapper

import (
	"encoding/json"

	"ragchat-be/internal/entity"
	"ragchat-be/internal/model"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

type DocumentMapper struct{}

func NewDocumentMapper() *DocumentMapper {
	return &DocumentMapper{}
}

func (m *DocumentMapper) DocumentToEntity(d *model.Document) *entity.Document {
	if d == nil {
		return nil
	}

	return &entity.Document{
		Id:        d.Id,
		UserId:    d.UserId,
		Title:     d.Title,
		Content:   d.Content,
		SourceUrl: d.SourceUrl,
		FilePath:  d.FilePath,
		FileType:  d.FileType,
		FileSize:  d.FileSize,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

func (m *DocumentMapper) DocumentToModel(d *entity.Document) *model.Document {
	if d == nil {
		return nil
	}

	return &model.Document{
		Id:        d.Id,
		UserId:    d.UserId,
		Title:     d.Title,
		Content:   d.Content,
		SourceUrl: d.SourceUrl,
		FilePath:  d.FilePath,
		FileType:  d.FileType,
		FileSize:  d.FileSize,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

func (m *DocumentMapper) ChunkToEntity(c *model.DocumentChunk) *entity.Chunk {
	if c == nil {
		return nil
	}

	return &entity.Chunk{
		Id:         c.Id,
		DocumentId: c.DocumentId,
		Content:    c.Content,
		ChunkIndex: c.ChunkIndex,
		StartChar:  c.StartChar,
		EndChar:    c.EndChar,
		CreatedAt:  c.CreatedAt,
	}
}

func (m *DocumentMapper) ChunkToModel(c *entity.Chunk) *model.DocumentChunk {
	if c == nil {
		return nil
	}

	return &model.DocumentChunk{
		Id:         c.Id,
		DocumentId: c.DocumentId,
		Content:    c.Content,
		ChunkIndex: c.ChunkIndex,
		StartChar:  c.StartChar,
		EndChar:    c.EndChar,
		CreatedAt:  c.CreatedAt,
	}
}

func (m *DocumentMapper) EmbeddingToEntity(e *model.Embedding) *entity.Embedding {
	if e == nil {
		return nil
	}

	vector := e.EmbeddingVector.Slice()
	if len(vector) == 0 && len(e.Embedding) > 0 {
		_ = json.Unmarshal(e.Embedding, &vector)
	}

	return &entity.Embedding{
		Id:        e.Id,
		ChunkId:   e.ChunkId,
		Vector:    vector,
		ModelName: e.ModelName,
		Dimension: e.Dimension,
		CreatedAt: e.CreatedAt,
	}
}

// EmbeddingToModel stores the vector twice: as JSON and as a pgvector column for the index.
func (m *DocumentMapper) EmbeddingToModel(e *entity.Embedding) (*model.Embedding, error) {
	if e == nil {
		return nil, nil
	}

	raw, err := json.Marshal(e.Vector)
	if err != nil {
		return nil, err
	}

	return &model.Embedding{
		Id:              e.Id,
		ChunkId:         e.ChunkId,
		Embedding:       datatypes.JSON(raw),
		EmbeddingVector: pgvector.NewVector(e.Vector),
		ModelName:       e.ModelName,
		Dimension:       e.Dimension,
		CreatedAt:       e.CreatedAt,
	}, nil
}
