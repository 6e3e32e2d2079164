package entity

import (
	"time"

	"github.com/google/uuid"
)

const DefaultChatTitle = "New Chat"

type Chat struct {
	Id          uuid.UUID
	UserId      uuid.UUID
	Title       string
	Description *string
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ChatWithCount is a chat plus its live count of non-deleted messages.
type ChatWithCount struct {
	Chat
	MessageCount int64
}

type ChatAnalytics struct {
	Id           uuid.UUID
	UserId       uuid.UUID
	ChatId       uuid.UUID
	MessageCount int64
	TotalTokens  int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type ChatStats struct {
	TotalChats    int64
	TotalMessages int64
	TotalTokens   int64
}
