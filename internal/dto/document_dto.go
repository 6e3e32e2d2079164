package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateDocumentRequest struct {
	Title     string  `json:"title" validate:"required,max=500"`
	Content   string  `json:"content" validate:"required"`
	SourceUrl *string `json:"source_url,omitempty" validate:"omitempty,url"`
	FileType  string  `json:"file_type,omitempty" validate:"omitempty,max=50"`
}

type CreateDocumentResponse struct {
	Id uuid.UUID `json:"id"`
}

type DocumentResponse struct {
	Id        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	SourceUrl *string   `json:"source_url,omitempty"`
	FilePath  *string   `json:"file_path,omitempty"`
	FileType  string    `json:"file_type"`
	FileSize  int64     `json:"file_size"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type DocumentListResponse struct {
	Documents []*DocumentResponse `json:"documents"`
	Total     int64               `json:"total"`
	Limit     int                 `json:"limit"`
	Offset    int                 `json:"offset"`
}

type SearchRequest struct {
	Query string `json:"query" validate:"required"`
	Limit int    `json:"limit" validate:"omitempty,min=1,max=50"`
}

type SearchResultResponse struct {
	Content    string    `json:"content"`
	ChunkIndex int       `json:"chunk_index"`
	DocumentId uuid.UUID `json:"document_id"`
	Title      string    `json:"title"`
	SourceUrl  *string   `json:"source_url,omitempty"`
	Similarity float64   `json:"similarity"`
}

type SearchResponse struct {
	Query   string                  `json:"query"`
	Results []*SearchResultResponse `json:"results"`
}

type RagHealthResponse struct {
	EmbeddingService bool   `json:"embedding_service"`
	Model            string `json:"model"`
	Dimension        int    `json:"dimension"`
}
