package contract

import (
	"context"

	"ragchat-be/internal/entity"

	"github.com/google/uuid"
)

type ChatAnalyticsRepository interface {
	// Increment creates the row for chatId on first use.
	Increment(ctx context.Context, userId uuid.UUID, chatId uuid.UUID, messages int64, tokens int64) error
	FindByChat(ctx context.Context, chatId uuid.UUID) (*entity.ChatAnalytics, error)
	SumTokensByUser(ctx context.Context, userId uuid.UUID) (int64, error)
}
