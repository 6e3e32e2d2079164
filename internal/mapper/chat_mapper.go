package mapper

import (
	"encoding/json"

	"ragchat-be/internal/entity"
	"ragchat-be/internal/model"

	"gorm.io/datatypes"
)

type ChatMapper struct{}

func NewChatMapper() *ChatMapper {
	return &ChatMapper{}
}

// Chat Mappers

func (m *ChatMapper) ChatToEntity(c *model.Chat) *entity.Chat {
	if c == nil {
		return nil
	}

	return &entity.Chat{
		Id:          c.Id,
		UserId:      c.UserId,
		Title:       c.Title,
		Description: c.Description,
		IsActive:    c.IsActive,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func (m *ChatMapper) ChatToModel(c *entity.Chat) *model.Chat {
	if c == nil {
		return nil
	}

	return &model.Chat{
		Id:          c.Id,
		UserId:      c.UserId,
		Title:       c.Title,
		Description: c.Description,
		IsActive:    c.IsActive,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

// Message Mappers

func (m *ChatMapper) MessageToEntity(msg *model.Message) *entity.Message {
	if msg == nil {
		return nil
	}

	return &entity.Message{
		Id:         msg.Id,
		ChatId:     msg.ChatId,
		ParentId:   msg.ParentId,
		Role:       entity.MessageRole(msg.Role),
		Content:    msg.Content,
		Metadata:   m.decodeMetadata(msg.Metadata),
		TokenCount: msg.TokenCount,
		Depth:      msg.Depth,
		Path:       msg.Path,
		IsDeleted:  msg.IsDeleted,
		CreatedAt:  msg.CreatedAt,
		UpdatedAt:  msg.UpdatedAt,
	}
}

func (m *ChatMapper) MessageToModel(msg *entity.Message) *model.Message {
	if msg == nil {
		return nil
	}

	return &model.Message{
		Id:         msg.Id,
		ChatId:     msg.ChatId,
		ParentId:   msg.ParentId,
		Role:       msg.Role.String(),
		Content:    msg.Content,
		Metadata:   m.encodeMetadata(msg.Metadata),
		TokenCount: msg.TokenCount,
		Depth:      msg.Depth,
		Path:       msg.Path,
		IsDeleted:  msg.IsDeleted,
		CreatedAt:  msg.CreatedAt,
		UpdatedAt:  msg.UpdatedAt,
	}
}

func (m *ChatMapper) MessagesToEntities(messages []*model.Message) []*entity.Message {
	entities := make([]*entity.Message, len(messages))
	for i, msg := range messages {
		entities[i] = m.MessageToEntity(msg)
	}
	return entities
}

// Analytics Mappers

func (m *ChatMapper) AnalyticsToEntity(a *model.ChatAnalytics) *entity.ChatAnalytics {
	if a == nil {
		return nil
	}

	return &entity.ChatAnalytics{
		Id:           a.Id,
		UserId:       a.UserId,
		ChatId:       a.ChatId,
		MessageCount: a.MessageCount,
		TotalTokens:  a.TotalTokens,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}

func (m *ChatMapper) encodeMetadata(meta *entity.MessageMetadata) datatypes.JSON {
	if meta == nil {
		return nil
	}
	raw, err := json.Marshal(meta)
	if err != nil {
		return nil
	}
	return datatypes.JSON(raw)
}

// decodeMetadata drops unreadable metadata instead of failing the whole read.
func (m *ChatMapper) decodeMetadata(raw datatypes.JSON) *entity.MessageMetadata {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var meta entity.MessageMetadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil
	}
	return &meta
}
