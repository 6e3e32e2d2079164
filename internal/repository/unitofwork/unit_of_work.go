package unitofwork

import (
	"context"

	"ragchat-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	ChatRepository() contract.ChatRepository
	MessageRepository() contract.MessageRepository
	ChatAnalyticsRepository() contract.ChatAnalyticsRepository

	DocumentRepository() contract.DocumentRepository
	ChunkRepository() contract.ChunkRepository
	EmbeddingRepository() contract.EmbeddingRepository
}
