package entity

import (
	"time"

	"github.com/google/uuid"
)

type Document struct {
	Id        uuid.UUID
	UserId    uuid.UUID
	Title     string
	Content   string
	SourceUrl *string
	FilePath  *string
	FileType  string
	FileSize  int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Chunk struct {
	Id         uuid.UUID
	DocumentId uuid.UUID
	Content    string
	ChunkIndex int
	StartChar  int
	EndChar    int
	CreatedAt  time.Time
}

type Embedding struct {
	Id        uuid.UUID
	ChunkId   uuid.UUID
	Vector    []float32
	ModelName string
	Dimension int
	CreatedAt time.Time
}

// SearchResult is one chunk hit with its parent document fields.
type SearchResult struct {
	Content    string
	ChunkIndex int
	DocumentId uuid.UUID
	Title      string
	SourceUrl  *string
	Similarity float64
}
