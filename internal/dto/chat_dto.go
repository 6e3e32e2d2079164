package dto

import (
	"time"

	"ragchat-be/internal/entity"

	"github.com/google/uuid"
)

type CreateChatRequest struct {
	Title       string  `json:"title" validate:"max=255"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=2000"`
}

type UpdateChatRequest struct {
	Title       *string `json:"title,omitempty" validate:"omitempty,min=1,max=255"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=2000"`
}

type ChatResponse struct {
	Id           uuid.UUID `json:"id"`
	Title        string    `json:"title"`
	Description  *string   `json:"description,omitempty"`
	MessageCount *int64    `json:"message_count,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type ChatStatsResponse struct {
	TotalChats    int64 `json:"total_chats"`
	TotalMessages int64 `json:"total_messages"`
	TotalTokens   int64 `json:"total_tokens"`
}

type AddMessageRequest struct {
	Role     string                  `json:"role" validate:"required,oneof=user assistant system"`
	Content  string                  `json:"content" validate:"required"`
	ParentId *uuid.UUID              `json:"parent_id,omitempty"`
	Metadata *entity.MessageMetadata `json:"metadata,omitempty"`
}

type UpdateMessageRequest struct {
	Content  string                  `json:"content" validate:"required"`
	Metadata *entity.MessageMetadata `json:"metadata,omitempty"`
	Action   string                  `json:"action,omitempty" validate:"omitempty,oneof=edit regenerate"`
}

type MessageResponse struct {
	Id         uuid.UUID               `json:"id"`
	ChatId     uuid.UUID               `json:"chat_id"`
	ParentId   *uuid.UUID              `json:"parent_id"`
	Role       string                  `json:"role"`
	Content    string                  `json:"content"`
	Metadata   *entity.MessageMetadata `json:"metadata,omitempty"`
	TokenCount *int                    `json:"token_count,omitempty"`
	Depth      int                     `json:"depth"`
	Path       string                  `json:"path"`
	CreatedAt  time.Time               `json:"created_at"`
	UpdatedAt  time.Time               `json:"updated_at"`
}

type MessageNodeResponse struct {
	MessageResponse
	Children []*MessageNodeResponse `json:"children"`
}

type CompletionRequest struct {
	Content  string     `json:"content" validate:"required"`
	ParentId *uuid.UUID `json:"parent_id,omitempty"`
}

type CompletionResponse struct {
	ChatId    uuid.UUID         `json:"chat_id"`
	ChatTitle string            `json:"title"`
	Sent      *MessageResponse  `json:"sent"`
	Reply     *MessageResponse  `json:"reply"`
	Citations []entity.Citation `json:"citations"`
	QueryKind string            `json:"query_kind"`
	Fallback  bool              `json:"fallback"`
}

// ChatExchangeCompletedMessage is the in-process analytics event payload.
type ChatExchangeCompletedMessage struct {
	UserId   uuid.UUID `json:"user_id"`
	ChatId   uuid.UUID `json:"chat_id"`
	Messages int64     `json:"messages"`
	Tokens   int64     `json:"tokens"`
}
