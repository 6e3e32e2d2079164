package contract

import (
	"context"

	"ragchat-be/internal/entity"

	"github.com/google/uuid"
)

type MessageRepository interface {
	Create(ctx context.Context, message *entity.Message) error
	// FindById includes soft-deleted rows.
	FindById(ctx context.Context, id uuid.UUID) (*entity.Message, error)
	// FindOwned returns a non-deleted message in an active chat owned by userId.
	FindOwned(ctx context.Context, id uuid.UUID, userId uuid.UUID) (*entity.Message, error)
	FindActiveByChat(ctx context.Context, chatId uuid.UUID) ([]*entity.Message, error)
	CountActiveChildren(ctx context.Context, parentId uuid.UUID) (int64, error)
	CountActiveRoots(ctx context.Context, chatId uuid.UUID) (int64, error)
	SoftDelete(ctx context.Context, id uuid.UUID, userId uuid.UUID) (bool, error)
	CountByUser(ctx context.Context, userId uuid.UUID) (int64, error)
}
