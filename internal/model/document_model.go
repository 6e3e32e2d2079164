package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

type Document struct {
	Id        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId    uuid.UUID `gorm:"type:uuid;not null;index"`
	Title     string    `gorm:"type:text;not null"`
	Content   string    `gorm:"type:text;not null"`
	SourceUrl *string   `gorm:"type:text"`
	FilePath  *string   `gorm:"type:text"`
	FileType  string    `gorm:"type:varchar(50);not null;default:'text'"`
	FileSize  int64     `gorm:"not null;default:0"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime;index"`

	Chunks []DocumentChunk `gorm:"foreignKey:DocumentId;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

func (Document) TableName() string {
	return "documents"
}

type DocumentChunk struct {
	Id         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	DocumentId uuid.UUID `gorm:"type:uuid;not null;index"`
	Content    string    `gorm:"type:text;not null"`
	ChunkIndex int       `gorm:"not null"`
	StartChar  int
	EndChar    int
	CreatedAt  time.Time `gorm:"autoCreateTime"`

	Embeddings []Embedding `gorm:"foreignKey:ChunkId;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

func (DocumentChunk) TableName() string {
	return "document_chunks"
}

type Embedding struct {
	Id              uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ChunkId         uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_embeddings_chunk_model,priority:1"`
	Embedding       datatypes.JSON  `gorm:"type:jsonb;not null"`
	EmbeddingVector pgvector.Vector `gorm:"type:vector(384)"` // all-MiniLM-L6-v2, see config.StoredEmbeddingDimension
	ModelName       string          `gorm:"type:varchar(100);not null;uniqueIndex:idx_embeddings_chunk_model,priority:2"`
	Dimension       int             `gorm:"not null"`
	CreatedAt       time.Time       `gorm:"autoCreateTime"`
}

func (Embedding) TableName() string {
	return "embeddings"
}
