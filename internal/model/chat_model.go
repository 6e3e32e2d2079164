package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Chat struct {
	Id          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId      uuid.UUID `gorm:"type:uuid;not null;index"`
	Title       string    `gorm:"type:text;not null;default:'New Chat'"`
	Description *string   `gorm:"type:text"`
	IsActive    bool      `gorm:"not null;default:true;index"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`

	Messages []Message `gorm:"foreignKey:ChatId;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

func (Chat) TableName() string {
	return "chats"
}

type Message struct {
	Id         uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ChatId     uuid.UUID      `gorm:"type:uuid;not null;index:idx_messages_chat_created,priority:1"`
	ParentId   *uuid.UUID     `gorm:"type:uuid;index"`
	Role       string         `gorm:"type:varchar(20);not null"`
	Content    string         `gorm:"type:text;not null"`
	Metadata   datatypes.JSON `gorm:"type:jsonb"`
	TokenCount *int
	Depth      int       `gorm:"not null;default:0"`
	Path       string    `gorm:"type:text;not null;index"`
	IsDeleted  bool      `gorm:"not null;default:false"`
	CreatedAt  time.Time `gorm:"autoCreateTime;index:idx_messages_chat_created,priority:2"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`

	Parent *Message `gorm:"foreignKey:ParentId;references:Id;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

func (Message) TableName() string {
	return "messages"
}

type ChatAnalytics struct {
	Id           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId       uuid.UUID `gorm:"type:uuid;not null;index"`
	ChatId       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	MessageCount int64     `gorm:"not null;default:0"`
	TotalTokens  int64     `gorm:"not null;default:0"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`

	Chat *Chat `gorm:"foreignKey:ChatId;references:Id;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

func (ChatAnalytics) TableName() string {
	return "chat_analytics"
}
