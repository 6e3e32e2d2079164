package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ActiveChat struct{}

func (s ActiveChat) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("chats.is_active = ?", true)
}

type ByChatID struct {
	ChatID uuid.UUID
}

func (s ByChatID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("messages.chat_id = ?", s.ChatID)
}

type ByParentID struct {
	ParentID uuid.UUID
}

func (s ByParentID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("messages.parent_id = ?", s.ParentID)
}

type RootMessage struct{}

func (s RootMessage) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("messages.parent_id IS NULL")
}

type MessageNotDeleted struct{}

func (s MessageNotDeleted) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("messages.is_deleted = ?", false)
}

// MessageOwnedBy joins the owning chat and restricts it to an active chat of the user.
type MessageOwnedBy struct {
	UserID uuid.UUID
}

func (s MessageOwnedBy) Apply(db *gorm.DB) *gorm.DB {
	return db.Joins("JOIN chats ON chats.id = messages.chat_id").
		Where("chats.user_id = ?", s.UserID).
		Where("chats.is_active = ?", true)
}
