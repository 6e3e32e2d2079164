package contract

import (
	"context"
	"time"

	"ragchat-be/internal/entity"

	"github.com/google/uuid"
)

// Lookups return (nil, nil) when nothing matches. Inactive chats are never returned.
type ChatRepository interface {
	Create(ctx context.Context, chat *entity.Chat) error
	Update(ctx context.Context, chat *entity.Chat) error
	FindOne(ctx context.Context, id uuid.UUID, userId uuid.UUID) (*entity.Chat, error)
	FindAllWithCount(ctx context.Context, userId uuid.UUID) ([]*entity.ChatWithCount, error)
	SoftDelete(ctx context.Context, id uuid.UUID, userId uuid.UUID) (bool, error)
	Touch(ctx context.Context, id uuid.UUID, at time.Time) error
	// LockForUpdate holds the chat row until the surrounding transaction ends.
	LockForUpdate(ctx context.Context, id uuid.UUID) (*entity.Chat, error)
	Count(ctx context.Context, userId uuid.UUID) (int64, error)
}
