package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ByDocumentID struct {
	DocumentID uuid.UUID
}

func (s ByDocumentID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("document_chunks.document_id = ?", s.DocumentID)
}

// ChunkOwnedBy joins the parent document and restricts it to the user.
type ChunkOwnedBy struct {
	UserID uuid.UUID
}

func (s ChunkOwnedBy) Apply(db *gorm.DB) *gorm.DB {
	return db.Joins("JOIN documents ON documents.id = document_chunks.document_id").
		Where("documents.user_id = ?", s.UserID)
}
